package calc

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Magnitudes outside (expSmall, expLarge] render in exponential notation.
	expLarge = 1e15
	expSmall = 1e-6

	expDigits   = 6
	fixedDigits = 8

	// 171! overflows float64.
	maxFactorial = 170
)

// floatPrefix matches the longest leading decimal literal, so "12)" parses as 12
// while "(12" and "Error" do not parse at all.
var floatPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// FormatResult renders a computed value for the display.
// Non-finite values render as "0". Rounding is half away from zero on the
// exact binary value, so 1.0/512 renders as 0.00195313.
func FormatResult(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) || x == 0 {
		return "0"
	}

	abs := math.Abs(x)
	if abs > expLarge || abs < expSmall {
		return formatExponential(x)
	}

	s := strconv.FormatFloat(x, 'f', -1, 64)
	if dot := strings.IndexByte(s, '.'); dot >= 0 && len(s)-dot-1 > fixedDigits {
		return formatFixed(x)
	}
	return s
}

// exactDigitsPrec is enough significant digits to print any float64 exactly.
const exactDigitsPrec = 767

// exactDigits returns the significant digits of abs with trailing zeros
// removed, and the exponent of the first digit: abs = d.ddd × 10^exp.
func exactDigits(abs float64) ([]byte, int) {
	s := strconv.FormatFloat(abs, 'e', exactDigitsPrec, 64)
	mantissa, e, _ := strings.Cut(s, "e")
	exp, _ := strconv.Atoi(e)

	digits := []byte(strings.Replace(mantissa, ".", "", 1))
	for len(digits) > 1 && digits[len(digits)-1] == '0' {
		digits = digits[:len(digits)-1]
	}
	return digits, exp
}

// roundHalfUp keeps the first n digits, rounding the rest half away from
// zero and padding with zeros. A carry out of the first digit yields n+1
// digits and reports true.
func roundHalfUp(digits []byte, n int) ([]byte, bool) {
	out := make([]byte, n)
	for i := range out {
		if i < len(digits) {
			out[i] = digits[i]
		} else {
			out[i] = '0'
		}
	}
	if len(digits) <= n || digits[n] < '5' {
		return out, false
	}

	for i := n - 1; i >= 0; i-- {
		if out[i] != '9' {
			out[i]++
			return out, false
		}
		out[i] = '0'
	}
	return append([]byte{'1'}, out...), true
}

// formatFixed renders x with exactly eight decimal places.
func formatFixed(x float64) string {
	digits, exp := exactDigits(math.Abs(x))

	n := exp + 1 + fixedDigits
	out, carry := roundHalfUp(digits, n)
	if carry {
		exp++
	}

	var b strings.Builder
	if x < 0 {
		b.WriteByte('-')
	}
	intLen := exp + 1
	if intLen <= 0 {
		b.WriteString("0.")
		b.WriteString(strings.Repeat("0", -intLen))
		b.Write(out)
	} else {
		b.Write(out[:intLen])
		b.WriteByte('.')
		b.Write(out[intLen:])
	}
	return b.String()
}

// formatExponential renders x as 1.234568e+16 / 1.000000e-7 (exponent not zero padded).
func formatExponential(x float64) string {
	digits, exp := exactDigits(math.Abs(x))

	out, carry := roundHalfUp(digits, expDigits+1)
	if carry {
		exp++
		out = out[:expDigits+1]
	}

	var b strings.Builder
	if x < 0 {
		b.WriteByte('-')
	}
	b.WriteByte(out[0])
	b.WriteByte('.')
	b.Write(out[1:])
	b.WriteByte('e')
	if exp >= 0 {
		b.WriteByte('+')
	}
	b.WriteString(strconv.Itoa(exp))
	return b.String()
}

// ParseOperand parses the leading number of an operand text.
func ParseOperand(s string) (float64, error) {
	m := floatPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, ErrInvalidNumber
	}

	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// Out of range literals saturate to ±Inf.
		if errors.Is(err, strconv.ErrRange) {
			return v, nil
		}
		return 0, ErrInvalidNumber
	}
	return v, nil
}

// Factorial returns n! for a non-negative integer n.
func Factorial(n float64) (float64, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 || n != math.Trunc(n) {
		return 0, &DomainError{Op: FnFactorial, Message: "Factorial only for non-negative integers"}
	}
	if n > maxFactorial {
		return math.Inf(1), nil
	}

	result := 1.0
	for i := 2.0; i <= n; i++ {
		result *= i
	}
	return result, nil
}
