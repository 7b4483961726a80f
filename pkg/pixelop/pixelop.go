// Package pixelop implements the element-wise operations applied to a pair
// of samples taken from the same position of two series.
package pixelop

import (
	"fmt"
	"math"
	"strings"
)

// Operation selects the arithmetic applied to each pixel pair.
type Operation int

const (
	Add          Operation = iota // series 1 + series 2
	Subtract                      // series 1 - series 2
	Multiply                      // series 1 * series 2
	Divide                        // series 1 / series 2
	LnDifference                  // ln(series 1 - series 2)
)

// DefaultSentinel is stored in place of a result that is undefined
// (zero divisor or non-positive logarithm argument).
const DefaultSentinel = 0.0

var operationNames = [...]string{
	Add:          "add",
	Subtract:     "subtract",
	Multiply:     "multiply",
	Divide:       "divide",
	LnDifference: "lndiff",
}

// Operations returns every operation in selector order.
func Operations() []Operation {
	return []Operation{Add, Subtract, Multiply, Divide, LnDifference}
}

// Valid reports whether op is one of the defined operations.
func (op Operation) Valid() bool {
	return op >= Add && op <= LnDifference
}

func (op Operation) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Operation(%d)", int(op))
	}
	return operationNames[op]
}

// ParseOperation accepts the names returned by String, plus the usual
// operator symbols.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add", "+":
		return Add, nil
	case "subtract", "sub", "-":
		return Subtract, nil
	case "multiply", "mul", "*", "x":
		return Multiply, nil
	case "divide", "div", "/":
		return Divide, nil
	case "lndiff", "ln", "ln_difference", "lndifference":
		return LnDifference, nil
	}
	return 0, fmt.Errorf("unknown operation %q", s)
}

// Format renders the operation applied to two operand names, e.g.
// "ln(a - b)".
func (op Operation) Format(a, b string) string {
	switch op {
	case Add:
		return a + " + " + b
	case Subtract:
		return a + " - " + b
	case Multiply:
		return a + " * " + b
	case Divide:
		return a + " / " + b
	case LnDifference:
		return "ln(" + a + " - " + b + ")"
	}
	return fmt.Sprintf("%s(%s, %s)", op, a, b)
}

// Guard records why a pixel result was replaced by the sentinel.
type Guard int

const (
	None Guard = iota
	ZeroDivisor
	NonPositiveLog
	NonFinite
)

func (g Guard) String() string {
	switch g {
	case None:
		return "none"
	case ZeroDivisor:
		return "zero divisor"
	case NonPositiveLog:
		return "non-positive logarithm argument"
	case NonFinite:
		return "non-finite result"
	}
	return fmt.Sprintf("Guard(%d)", int(g))
}

// Apply computes op(a, b) in float64. When the result is undefined the
// sentinel is returned together with the guard that fired. Apply panics on an
// invalid operation; callers validate the selector first.
func Apply(op Operation, a, b, sentinel float64) (float64, Guard) {
	var v float64
	switch op {
	case Add:
		v = a + b
	case Subtract:
		v = a - b
	case Multiply:
		v = a * b
	case Divide:
		if b == 0 {
			return sentinel, ZeroDivisor
		}
		v = a / b
	case LnDifference:
		d := a - b
		if d <= 0 {
			return sentinel, NonPositiveLog
		}
		v = math.Log(d)
	default:
		panic(fmt.Sprintf("pixelop: invalid operation %d", int(op)))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sentinel, NonFinite
	}
	return v, None
}
