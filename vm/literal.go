package vm

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zvmlabs/zvm-sandbox/util"
)

// LiteralType is the type of a plaintext literal.
type LiteralType uint8

const (
	TypeField LiteralType = iota
	TypeBoolean
	TypeAddress
)

func (t LiteralType) String() string {
	switch t {
	case TypeField:
		return "field"
	case TypeBoolean:
		return "boolean"
	case TypeAddress:
		return "address"
	}
	return fmt.Sprintf("LiteralType(%d)", uint8(t))
}

// ParseLiteralType parses a literal type name.
func ParseLiteralType(s string) (LiteralType, bool) {
	switch s {
	case "field":
		return TypeField, true
	case "boolean":
		return TypeBoolean, true
	case "address":
		return TypeAddress, true
	}
	return 0, false
}

// Literal is a typed plaintext constant. Literals are immutable; the
// constructors copy their arguments.
type Literal struct {
	Type    LiteralType
	field   *big.Int
	boolean bool
	address common.Address
}

// NewFieldLiteral returns a field literal in canonical form.
func NewFieldLiteral(v *big.Int) Literal {
	return Literal{Type: TypeField, field: util.BigToFF(v)}
}

// NewBooleanLiteral returns a boolean literal.
func NewBooleanLiteral(b bool) Literal {
	return Literal{Type: TypeBoolean, boolean: b}
}

// NewAddressLiteral returns an address literal.
func NewAddressLiteral(addr common.Address) Literal {
	return Literal{Type: TypeAddress, address: addr}
}

// Field returns the field value of a field literal.
func (l Literal) Field() *big.Int {
	return new(big.Int).Set(l.field)
}

// Boolean returns the value of a boolean literal.
func (l Literal) Boolean() bool {
	return l.boolean
}

// Address returns the value of an address literal.
func (l Literal) Address() common.Address {
	return l.address
}

// ToField folds the literal into a single field element: booleans map to 0
// and 1, addresses to the field representation of their bytes.
func (l Literal) ToField() *big.Int {
	switch l.Type {
	case TypeField:
		return new(big.Int).Set(l.field)
	case TypeBoolean:
		if l.boolean {
			return big.NewInt(1)
		}
		return big.NewInt(0)
	case TypeAddress:
		return util.BigToFF(new(big.Int).SetBytes(l.address.Bytes()))
	}
	panic(fmt.Sprintf("literal with invalid type %d", l.Type))
}

// Equal reports whether two literals have the same type and value.
func (l Literal) Equal(o Literal) bool {
	if l.Type != o.Type {
		return false
	}
	switch l.Type {
	case TypeField:
		return l.field.Cmp(o.field) == 0
	case TypeBoolean:
		return l.boolean == o.boolean
	case TypeAddress:
		return l.address == o.address
	}
	return false
}

func (l Literal) String() string {
	switch l.Type {
	case TypeField:
		return l.field.String() + "field"
	case TypeBoolean:
		if l.boolean {
			return "true"
		}
		return "false"
	case TypeAddress:
		return "0x" + hex.EncodeToString(l.address.Bytes())
	}
	return fmt.Sprintf("Literal(%d)", l.Type)
}

// ParseLiteral parses the textual form of a literal: "<decimal>field",
// "true", "false", or a 20-byte "0x" hex address.
func ParseLiteral(tok string) (Literal, bool) {
	switch tok {
	case "true":
		return NewBooleanLiteral(true), true
	case "false":
		return NewBooleanLiteral(false), true
	}
	if dec, found := strings.CutSuffix(tok, "field"); found {
		v, ok := new(big.Int).SetString(dec, 10)
		if !ok {
			return Literal{}, false
		}
		return NewFieldLiteral(v), true
	}
	if raw, found := strings.CutPrefix(tok, "0x"); found && len(raw) == 2*common.AddressLength {
		b, err := hex.DecodeString(raw)
		if err != nil {
			return Literal{}, false
		}
		return NewAddressLiteral(common.BytesToAddress(b)), true
	}
	return Literal{}, false
}
