package types

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// BigInt is a big.Int wrapper which encodes as a decimal string in JSON and
// as raw big-endian bytes in CBOR.
type BigInt big.Int

// MathBigInt converts b to a math/big *big.Int.
func (b *BigInt) MathBigInt() *big.Int {
	return (*big.Int)(b)
}

// FromBigInt wraps a copy of a math/big *big.Int as a *BigInt.
func FromBigInt(i *big.Int) *BigInt {
	return (*BigInt)(new(big.Int).Set(i))
}

func (b *BigInt) String() string {
	return b.MathBigInt().String()
}

func (b *BigInt) SetString(s string) (*BigInt, bool) {
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, false
	}
	*b = BigInt(*i)
	return b, true
}

func (b *BigInt) MarshalText() ([]byte, error) {
	return []byte(b.MathBigInt().String()), nil
}

func (b *BigInt) UnmarshalText(data []byte) error {
	i, ok := new(big.Int).SetString(string(data), 10)
	if !ok {
		return fmt.Errorf("invalid decimal string: %q", data)
	}
	*b = BigInt(*i)
	return nil
}

func (b *BigInt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(b.MathBigInt().Bytes())
}

func (b *BigInt) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = BigInt(*new(big.Int).SetBytes(raw))
	return nil
}
