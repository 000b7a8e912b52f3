package vm

import (
	"fmt"

	"github.com/zvmlabs/zvm-sandbox/algebra"
	"github.com/zvmlabs/zvm-sandbox/types"
)

// Opcode is the binary tag of an instruction variant, encoded as a
// little-endian u16 on the wire.
type Opcode uint16

// The opcode values, mnemonics and variants are bound together by opSpecs
// below; the constants must stay in table order.
const (
	OpAdd Opcode = iota
	OpDiv
	OpDouble
	OpEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpInv
	OpLessThan
	OpLessThanOrEqual
	OpMul
	OpNeg
	OpNotEqual
	OpPow
	OpSquare
	OpSub
	OpTernary
	OpCall
)

// opSpec describes one opcode: its tag, mnemonic, fixed operand arity, the
// typing rule for its destination, and its field-level evaluation. The
// table is the single source of truth binding tag, mnemonic and variant;
// parsing, formatting, encoding and evaluation all read from it so the
// three representations cannot drift apart.
type opSpec struct {
	code  Opcode
	name  string
	arity int
	// out checks the operand types and returns the destination type.
	// It is nil for call, whose destinations are typed by the callee.
	out func(in []ValueType) (ValueType, error)
	// eval applies the operation through the backend of the current mode.
	// It is nil for call, which is dispatched through the call stack.
	eval func(be algebra.Backend, in []algebra.Element) (algebra.Element, error)
}

var opSpecs = [types.NumOpcodes]opSpec{
	{OpAdd, "add", 2, fieldsToField, func(be algebra.Backend, in []algebra.Element) (algebra.Element, error) {
		return be.Add(in[0], in[1]), nil
	}},
	{OpDiv, "div", 2, fieldsToField, func(be algebra.Backend, in []algebra.Element) (algebra.Element, error) {
		return be.Div(in[0], in[1])
	}},
	{OpDouble, "double", 1, fieldsToField, func(be algebra.Backend, in []algebra.Element) (algebra.Element, error) {
		return be.Double(in[0]), nil
	}},
	{OpEqual, "eq", 2, comparableToBoolean, func(be algebra.Backend, in []algebra.Element) (algebra.Element, error) {
		return be.Equal(in[0], in[1]), nil
	}},
	{OpGreaterThan, "gt", 2, fieldsToBoolean, func(be algebra.Backend, in []algebra.Element) (algebra.Element, error) {
		return be.Greater(in[0], in[1]), nil
	}},
	{OpGreaterThanOrEqual, "gte", 2, fieldsToBoolean, func(be algebra.Backend, in []algebra.Element) (algebra.Element, error) {
		return be.GreaterOrEqual(in[0], in[1]), nil
	}},
	{OpInv, "inv", 1, fieldsToField, func(be algebra.Backend, in []algebra.Element) (algebra.Element, error) {
		return be.Inv(in[0])
	}},
	{OpLessThan, "lt", 2, fieldsToBoolean, func(be algebra.Backend, in []algebra.Element) (algebra.Element, error) {
		return be.Less(in[0], in[1]), nil
	}},
	{OpLessThanOrEqual, "lte", 2, fieldsToBoolean, func(be algebra.Backend, in []algebra.Element) (algebra.Element, error) {
		return be.LessOrEqual(in[0], in[1]), nil
	}},
	{OpMul, "mul", 2, fieldsToField, func(be algebra.Backend, in []algebra.Element) (algebra.Element, error) {
		return be.Mul(in[0], in[1]), nil
	}},
	{OpNeg, "neg", 1, fieldsToField, func(be algebra.Backend, in []algebra.Element) (algebra.Element, error) {
		return be.Neg(in[0]), nil
	}},
	{OpNotEqual, "neq", 2, comparableToBoolean, func(be algebra.Backend, in []algebra.Element) (algebra.Element, error) {
		return be.NotEqual(in[0], in[1]), nil
	}},
	{OpPow, "pow", 2, fieldsToField, func(be algebra.Backend, in []algebra.Element) (algebra.Element, error) {
		return be.Pow(in[0], in[1]), nil
	}},
	{OpSquare, "square", 1, fieldsToField, func(be algebra.Backend, in []algebra.Element) (algebra.Element, error) {
		return be.Square(in[0]), nil
	}},
	{OpSub, "sub", 2, fieldsToField, func(be algebra.Backend, in []algebra.Element) (algebra.Element, error) {
		return be.Sub(in[0], in[1]), nil
	}},
	{OpTernary, "ternary", 3, ternaryType, func(be algebra.Backend, in []algebra.Element) (algebra.Element, error) {
		return be.Select(in[0], in[1], in[2]), nil
	}},
	{OpCall, "call", 0, nil, nil},
}

// opcodeByName maps mnemonics back to opcodes. Lookups match the whole
// mnemonic token, so mnemonics that are prefixes of one another (gt/gte,
// lt/lte, neg/neq) cannot capture each other's input.
var opcodeByName = make(map[string]Opcode, len(opSpecs))

func init() {
	for i, spec := range opSpecs {
		if spec.code != Opcode(i) {
			panic(fmt.Sprintf("opcode table out of order at index %d: %s", i, spec.name))
		}
		if _, dup := opcodeByName[spec.name]; dup {
			panic(fmt.Sprintf("duplicate mnemonic %q in opcode table", spec.name))
		}
		opcodeByName[spec.name] = spec.code
	}
}

func (op Opcode) valid() bool {
	return int(op) < len(opSpecs)
}

func (op Opcode) String() string {
	if op.valid() {
		return opSpecs[op].name
	}
	return fmt.Sprintf("Opcode(%d)", uint16(op))
}

// OpcodeForName returns the opcode with the given mnemonic.
func OpcodeForName(name string) (Opcode, bool) {
	op, ok := opcodeByName[name]
	return op, ok
}

func fieldsToField(in []ValueType) (ValueType, error) {
	for _, t := range in {
		if t != ValueTypeField {
			return 0, fmt.Errorf("%w: expected field operand, found %s", ErrTypeMismatch, t)
		}
	}
	return ValueTypeField, nil
}

func fieldsToBoolean(in []ValueType) (ValueType, error) {
	if _, err := fieldsToField(in); err != nil {
		return 0, err
	}
	return ValueTypeBoolean, nil
}

func comparableToBoolean(in []ValueType) (ValueType, error) {
	if in[0] == ValueTypeRecord || in[1] == ValueTypeRecord {
		return 0, fmt.Errorf("%w: records cannot be compared", ErrTypeMismatch)
	}
	if in[0] != in[1] {
		return 0, fmt.Errorf("%w: cannot compare %s with %s", ErrTypeMismatch, in[0], in[1])
	}
	return ValueTypeBoolean, nil
}

func ternaryType(in []ValueType) (ValueType, error) {
	if in[0] != ValueTypeBoolean {
		return 0, fmt.Errorf("%w: ternary condition must be boolean, found %s", ErrTypeMismatch, in[0])
	}
	if in[1] == ValueTypeRecord || in[2] == ValueTypeRecord {
		return 0, fmt.Errorf("%w: ternary cannot select records", ErrTypeMismatch)
	}
	if in[1] != in[2] {
		return 0, fmt.Errorf("%w: ternary branches have types %s and %s", ErrTypeMismatch, in[1], in[2])
	}
	return in[1], nil
}
