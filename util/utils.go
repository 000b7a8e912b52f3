package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// RandomBytes generates a random byte slice of length n.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return b
}

// RandomHex generates a random hex string of length n.
func RandomHex(n int) string {
	return fmt.Sprintf("%x", RandomBytes(n))
}

// TrimHex trims the '0x' prefix from a hex string.
func TrimHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// scalarField is the scalar field of the BN254 curve, the field every plain
// value and every circuit-tracked value lives in.
var scalarField, _ = new(big.Int).SetString("21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)

// BigToFF returns the canonical finite field representation of the big.Int
// provided, using the Euclidean modulus over the BN254 scalar field.
func BigToFF(iv *big.Int) *big.Int {
	z := big.NewInt(0)
	if c := iv.Cmp(scalarField); c == 0 {
		return z
	} else if c != 1 && iv.Cmp(z) != -1 {
		return new(big.Int).Set(iv)
	}
	return z.Mod(iv, scalarField)
}

// RandomFieldElement returns a uniformly random element of the BN254 scalar
// field.
func RandomFieldElement() *big.Int {
	n, err := rand.Int(rand.Reader, scalarField)
	if err != nil {
		panic(err)
	}
	return n
}
