package util

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestBigToFF(t *testing.T) {
	c := qt.New(t)

	c.Assert(BigToFF(big.NewInt(42)).Int64(), qt.Equals, int64(42))
	c.Assert(BigToFF(new(big.Int).Set(scalarField)).Sign(), qt.Equals, 0)

	over := new(big.Int).Add(scalarField, big.NewInt(9))
	c.Assert(BigToFF(over).Int64(), qt.Equals, int64(9))

	neg := BigToFF(big.NewInt(-1))
	want := new(big.Int).Sub(scalarField, big.NewInt(1))
	c.Assert(neg.Cmp(want), qt.Equals, 0)

	// the input is never aliased
	in := big.NewInt(7)
	out := BigToFF(in)
	out.SetInt64(100)
	c.Assert(in.Int64(), qt.Equals, int64(7))
}

func TestRandomFieldElement(t *testing.T) {
	c := qt.New(t)

	a := RandomFieldElement()
	b := RandomFieldElement()
	c.Assert(a.Cmp(scalarField) < 0, qt.IsTrue)
	c.Assert(a.Cmp(b), qt.Not(qt.Equals), 0)
}

func TestRandomHex(t *testing.T) {
	c := qt.New(t)

	h := RandomHex(16)
	c.Assert(h, qt.HasLen, 32)
	c.Assert(RandomBytes(8), qt.HasLen, 8)
}
