package calc

import (
	"fmt"
	"strings"
)

// Kind identifies which transition an Input drives.
type Kind string

// Input kinds.
const (
	KindDigit      Kind = "digit"
	KindOperator   Kind = "operator"
	KindEquals     Kind = "equals"
	KindScientific Kind = "scientific"
	KindClear      Kind = "clear"
	KindDelete     Kind = "delete"
	KindPercent    Kind = "percent"
)

// Input is one entry of the transition vocabulary: a button press or a
// mapped key press.
type Input struct {
	Kind  Kind   `json:"kind" toml:"kind"`
	Value string `json:"value,omitempty" toml:"value"`
}

// String renders the input in the kind[:value] form accepted by ParseInput.
func (in Input) String() string {
	if in.Value == "" {
		return string(in.Kind)
	}
	return string(in.Kind) + ":" + in.Value
}

// Validate checks that the input names a known transition.
func (in Input) Validate() error {
	switch in.Kind {
	case KindDigit:
		if !IsDigitToken(in.Value) {
			return fmt.Errorf("%w: digit %q", ErrInvalidInput, in.Value)
		}
	case KindOperator:
		if _, err := ParseOperator(in.Value); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	case KindScientific:
		if _, ok := CanonicalFunction(in.Value); !ok {
			return fmt.Errorf("%w: function %q", ErrInvalidInput, in.Value)
		}
	case KindEquals, KindClear, KindDelete, KindPercent:
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidInput, in.Kind)
	}
	return nil
}

// ParseInput decodes "kind" or "kind:value", e.g. "digit:7", "operator:+",
// "scientific:sin", "equals".
func ParseInput(s string) (Input, error) {
	kind, value, _ := strings.Cut(strings.TrimSpace(s), ":")
	in := Input{Kind: Kind(strings.ToLower(kind)), Value: value}
	if err := in.Validate(); err != nil {
		return Input{}, err
	}
	return in, nil
}

// Apply drives exactly one transition of e. Domain errors leave e in the
// Error state and are returned as *DomainError.
func Apply(e *Engine, in Input) error {
	if err := in.Validate(); err != nil {
		return err
	}

	switch in.Kind {
	case KindDigit:
		e.AppendDigit(in.Value)
	case KindOperator:
		op, _ := ParseOperator(in.Value)
		return e.ChooseOperator(op)
	case KindEquals:
		return e.Compute()
	case KindScientific:
		return e.Scientific(in.Value)
	case KindClear:
		e.Clear()
	case KindDelete:
		e.Delete()
	case KindPercent:
		e.Percentage()
	}
	return nil
}

// ApplyAll applies inputs in order. It returns the domain error that left the
// engine in the Error state, if the sequence ends there. Invalid inputs stop
// the sequence.
func ApplyAll(e *Engine, inputs []Input) error {
	var last error
	for _, in := range inputs {
		if err := Apply(e, in); err != nil {
			if !IsDomainError(err) {
				return err
			}
			last = err
		}
	}
	if !e.InError() {
		return nil
	}
	return last
}
