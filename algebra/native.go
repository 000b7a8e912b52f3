package algebra

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Native is the plain-value backend. Elements are canonical *big.Int values
// reduced into the BN254 scalar field; arithmetic delegates to gnark-crypto.
type Native struct{}

// NewNative returns the plain-value backend.
func NewNative() *Native {
	return &Native{}
}

func toFr(e Element) fr.Element {
	var x fr.Element
	switch v := e.(type) {
	case *big.Int:
		x.SetBigInt(v)
	case big.Int:
		x.SetBigInt(&v)
	case uint64:
		x.SetUint64(v)
	case int:
		x.SetInt64(int64(v))
	default:
		panic(fmt.Sprintf("native backend cannot use element of type %T", e))
	}
	return x
}

func fromFr(x fr.Element) Element {
	out := new(big.Int)
	x.BigInt(out)
	return out
}

func boolElement(b bool) Element {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

func (n *Native) Constant(v *big.Int) Element {
	x := toFr(v)
	return fromFr(x)
}

func (n *Native) Add(a, b Element) Element {
	x, y := toFr(a), toFr(b)
	var z fr.Element
	z.Add(&x, &y)
	return fromFr(z)
}

func (n *Native) Sub(a, b Element) Element {
	x, y := toFr(a), toFr(b)
	var z fr.Element
	z.Sub(&x, &y)
	return fromFr(z)
}

func (n *Native) Mul(a, b Element) Element {
	x, y := toFr(a), toFr(b)
	var z fr.Element
	z.Mul(&x, &y)
	return fromFr(z)
}

func (n *Native) Neg(a Element) Element {
	x := toFr(a)
	var z fr.Element
	z.Neg(&x)
	return fromFr(z)
}

func (n *Native) Double(a Element) Element {
	x := toFr(a)
	var z fr.Element
	z.Double(&x)
	return fromFr(z)
}

func (n *Native) Square(a Element) Element {
	x := toFr(a)
	var z fr.Element
	z.Square(&x)
	return fromFr(z)
}

func (n *Native) Pow(a, b Element) Element {
	x := toFr(a)
	exp := new(big.Int)
	toFrBig(b, exp)
	var z fr.Element
	z.Exp(x, exp)
	return fromFr(z)
}

func (n *Native) Div(a, b Element) (Element, error) {
	y := toFr(b)
	if y.IsZero() {
		return nil, ErrDivisionByZero
	}
	x := toFr(a)
	var z fr.Element
	z.Div(&x, &y)
	return fromFr(z), nil
}

func (n *Native) Inv(a Element) (Element, error) {
	x := toFr(a)
	if x.IsZero() {
		return nil, ErrDivisionByZero
	}
	var z fr.Element
	z.Inverse(&x)
	return fromFr(z), nil
}

func (n *Native) Equal(a, b Element) Element {
	x, y := toFr(a), toFr(b)
	return boolElement(x.Equal(&y))
}

func (n *Native) NotEqual(a, b Element) Element {
	x, y := toFr(a), toFr(b)
	return boolElement(!x.Equal(&y))
}

func (n *Native) Less(a, b Element) Element {
	x, y := toFr(a), toFr(b)
	return boolElement(x.Cmp(&y) < 0)
}

func (n *Native) LessOrEqual(a, b Element) Element {
	x, y := toFr(a), toFr(b)
	return boolElement(x.Cmp(&y) <= 0)
}

func (n *Native) Greater(a, b Element) Element {
	x, y := toFr(a), toFr(b)
	return boolElement(x.Cmp(&y) > 0)
}

func (n *Native) GreaterOrEqual(a, b Element) Element {
	x, y := toFr(a), toFr(b)
	return boolElement(x.Cmp(&y) >= 0)
}

func (n *Native) Select(cond, ifTrue, ifFalse Element) Element {
	c := toFr(cond)
	if c.IsZero() {
		x := toFr(ifFalse)
		return fromFr(x)
	}
	x := toFr(ifTrue)
	return fromFr(x)
}

func (n *Native) Eject(e Element) (*big.Int, bool) {
	x := toFr(e)
	out := new(big.Int)
	x.BigInt(out)
	return out, true
}

// toFrBig writes the canonical integer form of e into out.
func toFrBig(e Element, out *big.Int) {
	x := toFr(e)
	x.BigInt(out)
}
