package vm

import (
	"fmt"
	"math/big"

	"github.com/zvmlabs/zvm-sandbox/algebra"
)

// ValueType is the declared type of a function or closure input, output or
// register: a literal type or a record.
type ValueType uint8

const (
	ValueTypeField ValueType = iota
	ValueTypeBoolean
	ValueTypeAddress
	ValueTypeRecord
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeField:
		return "field"
	case ValueTypeBoolean:
		return "boolean"
	case ValueTypeAddress:
		return "address"
	case ValueTypeRecord:
		return "record"
	}
	return fmt.Sprintf("ValueType(%d)", uint8(t))
}

// ParseValueType parses a declared type name.
func ParseValueType(s string) (ValueType, bool) {
	switch s {
	case "field":
		return ValueTypeField, true
	case "boolean":
		return ValueTypeBoolean, true
	case "address":
		return ValueTypeAddress, true
	case "record":
		return ValueTypeRecord, true
	}
	return 0, false
}

// ValueType returns the declared type corresponding to a literal type.
func (t LiteralType) ValueType() ValueType {
	switch t {
	case TypeField:
		return ValueTypeField
	case TypeBoolean:
		return ValueTypeBoolean
	case TypeAddress:
		return ValueTypeAddress
	}
	panic(fmt.Sprintf("invalid literal type %d", t))
}

// LiteralType returns the literal type of a non-record declared type.
func (t ValueType) LiteralType() (LiteralType, bool) {
	switch t {
	case ValueTypeField:
		return TypeField, true
	case ValueTypeBoolean:
		return TypeBoolean, true
	case ValueTypeAddress:
		return TypeAddress, true
	}
	return 0, false
}

// Value is a plaintext literal, a record, or a circuit-tracked future.
// Values are immutable once produced: instructions construct new values,
// they never mutate them in place.
type Value interface {
	// Type returns the declared type the value conforms to.
	Type() ValueType
	// ToFields folds the value into field elements for hashing and signing.
	// It fails for futures, whose concrete value is unknown at synthesis
	// time.
	ToFields() ([]*big.Int, error)
	String() string
}

// Plaintext is a literal value.
type Plaintext struct {
	Literal Literal
}

// NewPlaintext wraps a literal as a value.
func NewPlaintext(l Literal) *Plaintext {
	return &Plaintext{Literal: l}
}

func (p *Plaintext) Type() ValueType {
	return p.Literal.Type.ValueType()
}

func (p *Plaintext) ToFields() ([]*big.Int, error) {
	return []*big.Int{p.Literal.ToField()}, nil
}

func (p *Plaintext) String() string {
	return p.Literal.String()
}

// RecordValue is a record value.
type RecordValue struct {
	Record *Record
}

func (r *RecordValue) Type() ValueType {
	return ValueTypeRecord
}

func (r *RecordValue) ToFields() ([]*big.Int, error) {
	return r.Record.ToFields()
}

func (r *RecordValue) String() string {
	return r.Record.String()
}

// Future is a circuit-tracked value produced during synthesis. It carries
// the literal type of the value it will take when the witness is solved.
type Future struct {
	Elem    algebra.Element
	LitType LiteralType
}

// NewFuture wraps a circuit element as a value of the given literal type.
func NewFuture(e algebra.Element, t LiteralType) *Future {
	return &Future{Elem: e, LitType: t}
}

func (f *Future) Type() ValueType {
	return f.LitType.ValueType()
}

func (f *Future) ToFields() ([]*big.Int, error) {
	return nil, fmt.Errorf("cannot fold a circuit value into fields")
}

func (f *Future) String() string {
	return fmt.Sprintf("future(%s)", f.LitType)
}

// valueMatchesType reports whether a value conforms to a declared type.
func valueMatchesType(v Value, t ValueType) bool {
	return v.Type() == t
}

// valuesEqual reports whether two values are equal, when their concrete
// values are known. Futures are never comparable.
func valuesEqual(a, b Value) (equal, comparable bool) {
	switch av := a.(type) {
	case *Plaintext:
		bv, ok := b.(*Plaintext)
		if !ok {
			return false, true
		}
		return av.Literal.Equal(bv.Literal), true
	case *RecordValue:
		bv, ok := b.(*RecordValue)
		if !ok {
			return false, true
		}
		ac, err := av.Record.Commitment()
		if err != nil {
			return false, false
		}
		bc, err := bv.Record.Commitment()
		if err != nil {
			return false, false
		}
		return ac.Cmp(bc) == 0, true
	}
	return false, false
}

// elementOf lifts a value into the backend's element form. Records have no
// single-element form and cannot be operands of arithmetic instructions.
func elementOf(be algebra.Backend, v Value) (algebra.Element, error) {
	switch val := v.(type) {
	case *Plaintext:
		return be.Constant(val.Literal.ToField()), nil
	case *Future:
		return val.Elem, nil
	}
	return nil, fmt.Errorf("%w: %s value has no element form", ErrTypeMismatch, v.Type())
}
