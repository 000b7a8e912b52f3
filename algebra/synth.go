package algebra

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
)

// frBits is the bit size of the BN254 scalar field, used to decompose
// exponents during in-circuit exponentiation.
const frBits = 254

// Synthesizer is the circuit backend. Elements are variables tracked by a
// gnark constraint builder; every operation appends the corresponding
// constraints to the circuit under construction.
type Synthesizer struct {
	api frontend.API
}

// NewSynthesizer returns a backend emitting constraints through the given
// builder API.
func NewSynthesizer(api frontend.API) *Synthesizer {
	return &Synthesizer{api: api}
}

// API returns the underlying constraint builder.
func (s *Synthesizer) API() frontend.API {
	return s.api
}

func (s *Synthesizer) Constant(v *big.Int) Element {
	return frontend.Variable(new(big.Int).Set(v))
}

func (s *Synthesizer) Add(a, b Element) Element {
	return s.api.Add(a, b)
}

func (s *Synthesizer) Sub(a, b Element) Element {
	return s.api.Sub(a, b)
}

func (s *Synthesizer) Mul(a, b Element) Element {
	return s.api.Mul(a, b)
}

func (s *Synthesizer) Neg(a Element) Element {
	return s.api.Neg(a)
}

func (s *Synthesizer) Double(a Element) Element {
	return s.api.Add(a, a)
}

func (s *Synthesizer) Square(a Element) Element {
	return s.api.Mul(a, a)
}

// Pow computes a**b by square-and-multiply over the bit decomposition of the
// exponent.
func (s *Synthesizer) Pow(a, b Element) Element {
	bits := s.api.ToBinary(b, frBits)
	result := frontend.Variable(1)
	acc := a
	for _, bit := range bits {
		result = s.api.Select(bit, s.api.Mul(result, acc), result)
		acc = s.api.Mul(acc, acc)
	}
	return result
}

// Div emits a division constraint. A zero divisor is not detectable at
// synthesis time; it surfaces as an unsatisfiable constraint when the
// witness is solved.
func (s *Synthesizer) Div(a, b Element) (Element, error) {
	return s.api.Div(a, b), nil
}

func (s *Synthesizer) Inv(a Element) (Element, error) {
	return s.api.Inverse(a), nil
}

func (s *Synthesizer) Equal(a, b Element) Element {
	return s.api.IsZero(s.api.Sub(a, b))
}

func (s *Synthesizer) NotEqual(a, b Element) Element {
	return s.api.Sub(1, s.api.IsZero(s.api.Sub(a, b)))
}

func (s *Synthesizer) Less(a, b Element) Element {
	// Cmp yields -1, 0 or 1; a < b exactly when it yields -1.
	return s.api.IsZero(s.api.Add(s.api.Cmp(a, b), 1))
}

func (s *Synthesizer) LessOrEqual(a, b Element) Element {
	return s.api.Or(s.Less(a, b), s.Equal(a, b))
}

func (s *Synthesizer) Greater(a, b Element) Element {
	return s.api.IsZero(s.api.Sub(s.api.Cmp(a, b), 1))
}

func (s *Synthesizer) GreaterOrEqual(a, b Element) Element {
	return s.api.Or(s.Greater(a, b), s.Equal(a, b))
}

func (s *Synthesizer) Select(cond, ifTrue, ifFalse Element) Element {
	return s.api.Select(cond, ifTrue, ifFalse)
}

// Eject reports that circuit-tracked elements carry no concrete value at
// synthesis time.
func (s *Synthesizer) Eject(e Element) (*big.Int, bool) {
	return nil, false
}
