package calc

import (
	"errors"
	"fmt"
	"math"
)

// Scientific function names, as labelled on the keypad.
const (
	FnSin        = "sin"
	FnCos        = "cos"
	FnTan        = "tan"
	FnSinh       = "sinh"
	FnCosh       = "cosh"
	FnTanh       = "tanh"
	FnLog        = "log"
	FnLn         = "ln"
	FnSqrt       = "√"
	FnSquare     = "x²"
	FnPower      = "x^y"
	FnTenPower   = "10^x"
	FnExp        = "exp"
	FnReciprocal = "1/x"
	FnAbs        = "|x|"
	FnFactorial  = "!"
	FnPi         = "π"
	FnE          = "e"
	FnOpenParen  = "("
	FnCloseParen = ")"
)

// scientificAliases lets keyboards and scripts name functions in ASCII.
var scientificAliases = map[string]string{
	"sqrt":  FnSqrt,
	"sq":    FnSquare,
	"x^2":   FnSquare,
	"pow":   FnPower,
	"pow10": FnTenPower,
	"inv":   FnReciprocal,
	"abs":   FnAbs,
	"fact":  FnFactorial,
	"pi":    FnPi,
}

var unaryFuncs = map[string]func(float64) (float64, error){
	FnSin:  func(x float64) (float64, error) { return math.Sin(x * math.Pi / 180), nil },
	FnCos:  func(x float64) (float64, error) { return math.Cos(x * math.Pi / 180), nil },
	FnTan:  func(x float64) (float64, error) { return math.Tan(x * math.Pi / 180), nil },
	FnSinh: func(x float64) (float64, error) { return math.Sinh(x), nil },
	FnCosh: func(x float64) (float64, error) { return math.Cosh(x), nil },
	FnTanh: func(x float64) (float64, error) { return math.Tanh(x), nil },
	FnLog: func(x float64) (float64, error) {
		if x <= 0 {
			return 0, &DomainError{Op: FnLog, Message: "Logarithm undefined for non-positive numbers"}
		}
		return math.Log10(x), nil
	},
	FnLn: func(x float64) (float64, error) {
		if x <= 0 {
			return 0, &DomainError{Op: FnLn, Message: "Natural log undefined for non-positive numbers"}
		}
		return math.Log(x), nil
	},
	FnSqrt: func(x float64) (float64, error) {
		if x < 0 {
			return 0, &DomainError{Op: FnSqrt, Message: "Square root undefined for negative numbers"}
		}
		return math.Sqrt(x), nil
	},
	FnSquare:   func(x float64) (float64, error) { return x * x, nil },
	FnTenPower: func(x float64) (float64, error) { return math.Pow(10, x), nil },
	FnExp:      func(x float64) (float64, error) { return math.Exp(x), nil },
	FnReciprocal: func(x float64) (float64, error) {
		if x == 0 {
			return 0, &DomainError{Op: FnReciprocal, Message: "Cannot divide by zero"}
		}
		return 1 / x, nil
	},
	FnAbs:       func(x float64) (float64, error) { return math.Abs(x), nil },
	FnFactorial: Factorial,
}

// CanonicalFunction resolves an ASCII alias to the keypad name of a
// scientific function. The second result is false for unknown names.
func CanonicalFunction(name string) (string, bool) {
	if canonical, ok := scientificAliases[name]; ok {
		name = canonical
	}
	if _, ok := unaryFuncs[name]; ok {
		return name, true
	}
	switch name {
	case FnPower, FnPi, FnE, FnOpenParen, FnCloseParen:
		return name, true
	}
	return "", false
}

// Scientific applies a scientific function to the current operand.
//
// Constants and parentheses do not need a current value; every other function
// is a no-op when the current operand does not parse. "x^y" does not compute:
// it makes "^" the pending operator with the current operand as its base,
// replacing any pending operation without evaluating it.
func (e *Engine) Scientific(name string) error {
	fn, ok := CanonicalFunction(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}

	switch fn {
	case FnPi:
		e.setResult(math.Pi)
		return nil
	case FnE:
		e.setResult(math.E)
		return nil
	case FnOpenParen, FnCloseParen:
		e.AppendDigit(fn)
		return nil
	}

	x, err := ParseOperand(e.current)
	if err != nil {
		return nil
	}

	if fn == FnPower {
		e.op = OpPower
		e.previous = e.current
		e.current = ""
		return nil
	}

	result, err := unaryFuncs[fn](x)
	if err != nil {
		var de *DomainError
		if errors.As(err, &de) {
			return e.fail(de.Op, de.Message)
		}
		return err
	}

	e.setResult(result)
	return nil
}

// Functions returns the keypad names of all scientific functions.
func Functions() []string {
	return []string{
		FnSin, FnCos, FnTan, FnSinh, FnCosh, FnTanh,
		FnLog, FnLn, FnSqrt, FnSquare, FnPower, FnTenPower,
		FnExp, FnReciprocal, FnAbs, FnFactorial, FnPi, FnE,
		FnOpenParen, FnCloseParen,
	}
}
