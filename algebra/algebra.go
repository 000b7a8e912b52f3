// Package algebra defines the field arithmetic capability the instruction
// set is written against. The same operations are implemented twice: by a
// native backend computing plain values over the BN254 scalar field, and by
// a synthesizer backend driving a gnark constraint builder. The executor is
// written once against the Backend interface; which one runs is decided by
// the call stack mode.
package algebra

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark/frontend"
)

// Element is a single field value in either execution mode: a *big.Int in
// canonical form for the native backend, or a variable tracked by the
// constraint builder for the synthesizer backend.
type Element = frontend.Variable

// ErrDivisionByZero is returned when dividing or inverting the additive
// identity.
var ErrDivisionByZero = errors.New("division by the additive identity")

// Backend performs the field arithmetic of one execution mode. Comparison
// operations return a boolean element (0 or 1). All operations are pure:
// they never mutate their operands.
type Backend interface {
	// Constant lifts a plain integer into the backend's element form.
	Constant(v *big.Int) Element

	Add(a, b Element) Element
	Sub(a, b Element) Element
	Mul(a, b Element) Element
	Neg(a Element) Element
	Double(a Element) Element
	Square(a Element) Element
	Pow(a, b Element) Element
	Div(a, b Element) (Element, error)
	Inv(a Element) (Element, error)

	Equal(a, b Element) Element
	NotEqual(a, b Element) Element
	Less(a, b Element) Element
	LessOrEqual(a, b Element) Element
	Greater(a, b Element) Element
	GreaterOrEqual(a, b Element) Element

	// Select returns ifTrue when cond is 1, ifFalse when cond is 0.
	Select(cond, ifTrue, ifFalse Element) Element

	// Eject returns the concrete value of an element. The second return is
	// false for circuit-tracked elements, whose value is not known at
	// synthesis time.
	Eject(e Element) (*big.Int, bool)
}
