package calc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidNumber indicates an operand that does not parse as a number.
	// Transitions treat it as a no-op and never return it to callers.
	ErrInvalidNumber = errors.New("calc: invalid number")

	// ErrUnknownFunction is returned for a scientific function name the engine does not know.
	ErrUnknownFunction = errors.New("calc: unknown function")

	// ErrUnknownOperator is returned for a binary operator symbol the engine does not know.
	ErrUnknownOperator = errors.New("calc: unknown operator")

	// ErrInvalidInput is returned when an input cannot be decoded or dispatched.
	ErrInvalidInput = errors.New("calc: invalid input")
)

// DomainError reports an operation applied outside its mathematical domain.
// The engine is left in the Error state when one is returned.
type DomainError struct {
	Op      string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("calc: %s: %s", e.Op, e.Message)
}

// IsDomainError reports whether err is or wraps a *DomainError.
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}
