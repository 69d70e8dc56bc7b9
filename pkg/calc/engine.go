// Package calc implements the scientific calculator state machine.
//
// An Engine holds the operand being entered, the operand waiting on a binary
// operator, the operator itself and a flag marking that the next digit starts
// a fresh operand. Every exported method is one transition. Binary operators
// fold strictly left to right: there is no precedence and no expression parsing.
//
// Domain violations (division by zero, log of a non-positive number, ...) put
// the engine into the Error state instead of panicking. Clearing that state
// after a while is up to the caller.
package calc

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// ErrorText is the operand shown while the engine is in the Error state.
const ErrorText = "Error"

// Operator is a binary operator awaiting its second operand.
type Operator string

// Binary operators.
const (
	OpNone     Operator = ""
	OpAdd      Operator = "+"
	OpSubtract Operator = "-"
	OpMultiply Operator = "×"
	OpDivide   Operator = "÷"
	OpPower    Operator = "^"
)

// ParseOperator maps an operator symbol, including the ASCII and typographic
// aliases, to an Operator.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "+":
		return OpAdd, nil
	case "-", "−":
		return OpSubtract, nil
	case "×", "*", "x":
		return OpMultiply, nil
	case "÷", "/":
		return OpDivide, nil
	case "^":
		return OpPower, nil
	}
	return OpNone, fmt.Errorf("%w: %q", ErrUnknownOperator, s)
}

// State is a snapshot of the engine fields.
type State struct {
	Current          string   `json:"current"`
	Previous         string   `json:"previous"`
	Operator         Operator `json:"operator,omitempty"`
	ResetOnNextInput bool     `json:"reset_on_next_input"`
}

// Engine is the calculator state machine. It is not safe for concurrent use.
type Engine struct {
	current  string
	previous string
	op       Operator
	reset    bool

	errMsg string
}

// New returns an engine in the startup state.
func New() *Engine {
	e := &Engine{}
	e.Clear()
	return e
}

// State returns a copy of the engine fields.
func (e *Engine) State() State {
	return State{
		Current:          e.current,
		Previous:         e.previous,
		Operator:         e.op,
		ResetOnNextInput: e.reset,
	}
}

// InError reports whether the engine is showing the Error sentinel.
func (e *Engine) InError() bool {
	return e.current == ErrorText
}

// ErrorMessage returns the message of the last domain error while the engine
// is in the Error state, and "" otherwise.
func (e *Engine) ErrorMessage() string {
	if !e.InError() {
		return ""
	}
	return e.errMsg
}

// Clear restores the startup state.
func (e *Engine) Clear() {
	e.current = "0"
	e.previous = ""
	e.op = OpNone
	e.reset = false
	e.errMsg = ""
}

// Delete removes the last character of the current operand.
// A single remaining character becomes "0".
func (e *Engine) Delete() {
	if e.InError() {
		e.current = "0"
		e.reset = false
		e.errMsg = ""
		return
	}

	switch utf8.RuneCountInString(e.current) {
	case 0:
	case 1:
		e.current = "0"
	default:
		_, size := utf8.DecodeLastRuneInString(e.current)
		e.current = e.current[:len(e.current)-size]
	}
}

// AppendDigit appends a digit, the decimal point or a parenthesis to the
// current operand. Other tokens are ignored.
func (e *Engine) AppendDigit(token string) {
	if !IsDigitToken(token) {
		return
	}

	if e.reset {
		e.current = ""
		e.reset = false
		e.errMsg = ""
	}

	if token == "." && strings.Contains(e.current, ".") {
		return
	}

	if e.current == "0" && token != "." {
		e.current = token
		return
	}
	e.current += token
}

// IsDigitToken reports whether token is accepted by AppendDigit.
func IsDigitToken(token string) bool {
	switch token {
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9", ".", FnOpenParen, FnCloseParen:
		return true
	}
	return false
}

// ChooseOperator makes op the pending operator. A pending operation is folded
// first, so chained operators evaluate left to right.
func (e *Engine) ChooseOperator(op Operator) error {
	switch op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpPower:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}

	if e.current == "" || e.InError() {
		return nil
	}

	if e.previous != "" && e.op != OpNone {
		if err := e.Compute(); err != nil {
			return err
		}
	}

	e.op = op
	e.previous = e.current
	e.current = ""
	return nil
}

// Compute applies the pending operator to the previous and current operands.
// It does nothing when no operator is pending or an operand does not parse.
func (e *Engine) Compute() error {
	if e.op == OpNone {
		return nil
	}

	prev, err := ParseOperand(e.previous)
	if err != nil {
		return nil
	}
	cur, err := ParseOperand(e.current)
	if err != nil {
		return nil
	}

	var result float64
	switch e.op {
	case OpAdd:
		result = prev + cur
	case OpSubtract:
		result = prev - cur
	case OpMultiply:
		result = prev * cur
	case OpDivide:
		if cur == 0 {
			// The failed division is dropped so a later "=" cannot rerun it.
			e.op = OpNone
			e.previous = ""
			return e.fail(string(OpDivide), "Cannot divide by zero!")
		}
		result = prev / cur
	case OpPower:
		result = math.Pow(prev, cur)
	default:
		return nil
	}

	e.current = FormatResult(result)
	e.op = OpNone
	e.previous = ""
	e.reset = true
	e.errMsg = ""
	return nil
}

// Percentage divides the current operand by 100.
func (e *Engine) Percentage() {
	x, err := ParseOperand(e.current)
	if err != nil {
		return
	}
	e.current = FormatResult(x / 100)
}

// Display returns the two-line render of the engine.
func (e *Engine) Display() Display {
	d := Display{Current: e.current}
	if e.op != OpNone {
		d.Previous = e.previous + " " + string(e.op)
	}
	return d
}

// setResult shows a computed value and arms the reset flag.
func (e *Engine) setResult(x float64) {
	e.current = FormatResult(x)
	e.reset = true
	e.errMsg = ""
}

// fail enters the Error state and returns the matching DomainError.
func (e *Engine) fail(op, msg string) error {
	e.current = ErrorText
	e.reset = true
	e.errMsg = msg
	return &DomainError{Op: op, Message: msg}
}
