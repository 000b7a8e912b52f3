package algebra

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	qt "github.com/frankban/quicktest"
)

func eject(c *qt.C, be Backend, e Element) *big.Int {
	v, ok := be.Eject(e)
	c.Assert(ok, qt.IsTrue)
	return v
}

func TestNativeArithmetic(t *testing.T) {
	c := qt.New(t)
	be := NewNative()

	a := be.Constant(big.NewInt(10))
	b := be.Constant(big.NewInt(3))

	c.Assert(eject(c, be, be.Add(a, b)).Int64(), qt.Equals, int64(13))
	c.Assert(eject(c, be, be.Sub(a, b)).Int64(), qt.Equals, int64(7))
	c.Assert(eject(c, be, be.Mul(a, b)).Int64(), qt.Equals, int64(30))
	c.Assert(eject(c, be, be.Double(b)).Int64(), qt.Equals, int64(6))
	c.Assert(eject(c, be, be.Square(b)).Int64(), qt.Equals, int64(9))
	c.Assert(eject(c, be, be.Pow(a, b)).Int64(), qt.Equals, int64(1000))

	div, err := be.Div(a, b)
	c.Assert(err, qt.IsNil)
	c.Assert(eject(c, be, be.Mul(div, b)).Int64(), qt.Equals, int64(10))

	inv, err := be.Inv(b)
	c.Assert(err, qt.IsNil)
	c.Assert(eject(c, be, be.Mul(inv, b)).Int64(), qt.Equals, int64(1))
}

func TestNativeModularReduction(t *testing.T) {
	c := qt.New(t)
	be := NewNative()

	// negation wraps around the scalar field modulus
	neg := eject(c, be, be.Neg(be.Constant(big.NewInt(1))))
	want := new(big.Int).Sub(fr.Modulus(), big.NewInt(1))
	c.Assert(neg.Cmp(want), qt.Equals, 0)

	// constants are reduced on entry
	over := new(big.Int).Add(fr.Modulus(), big.NewInt(5))
	c.Assert(eject(c, be, be.Constant(over)).Int64(), qt.Equals, int64(5))
}

func TestNativeDivisionByZero(t *testing.T) {
	c := qt.New(t)
	be := NewNative()

	_, err := be.Div(be.Constant(big.NewInt(1)), be.Constant(big.NewInt(0)))
	c.Assert(err, qt.ErrorIs, ErrDivisionByZero)
	_, err = be.Inv(be.Constant(big.NewInt(0)))
	c.Assert(err, qt.ErrorIs, ErrDivisionByZero)
}

func TestNativeComparisons(t *testing.T) {
	c := qt.New(t)
	be := NewNative()

	a := be.Constant(big.NewInt(3))
	b := be.Constant(big.NewInt(5))

	check := func(e Element, want int64) {
		c.Assert(eject(c, be, e).Int64(), qt.Equals, want)
	}
	check(be.Equal(a, a), 1)
	check(be.Equal(a, b), 0)
	check(be.NotEqual(a, b), 1)
	check(be.Less(a, b), 1)
	check(be.Less(b, a), 0)
	check(be.LessOrEqual(a, a), 1)
	check(be.Greater(b, a), 1)
	check(be.GreaterOrEqual(a, b), 0)

	check(be.Select(be.Constant(big.NewInt(1)), a, b), 3)
	check(be.Select(be.Constant(big.NewInt(0)), a, b), 5)
}
