package vm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zvmlabs/zvm-sandbox/algebra"
	"github.com/zvmlabs/zvm-sandbox/types"
)

// Locator names a function or closure inside a program.
type Locator struct {
	Program  types.ProgramID
	Resource string
}

func (l Locator) String() string {
	return fmt.Sprintf("%s/%s", l.Program, l.Resource)
}

// Instruction is a single decoded statement. Arithmetic and comparison
// instructions carry their operands and a single destination; call carries
// a callee locator, the argument operands and one destination per callee
// output.
type Instruction struct {
	Opcode       Opcode
	Operands     []Operand
	Destinations []Register
	// Callee is set only for call instructions.
	Callee *Locator
}

func (ins Instruction) String() string {
	var b strings.Builder
	b.WriteString(ins.Opcode.String())
	if ins.Callee != nil {
		b.WriteByte(' ')
		b.WriteString(ins.Callee.String())
	}
	for _, op := range ins.Operands {
		b.WriteByte(' ')
		b.WriteString(op.String())
	}
	if len(ins.Destinations) > 0 {
		b.WriteString(" into")
		for _, dst := range ins.Destinations {
			b.WriteByte(' ')
			b.WriteString(dst.String())
		}
	}
	b.WriteByte(';')
	return b.String()
}

// checkArity verifies the operand and destination counts against the
// opcode table. Call instructions are checked against the callee signature
// at evaluation time instead.
func (ins Instruction) checkArity() error {
	if !ins.Opcode.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownOpcode, uint16(ins.Opcode))
	}
	if ins.Opcode == OpCall {
		if ins.Callee == nil {
			return fmt.Errorf("%w: call without a callee", ErrArityMismatch)
		}
		return nil
	}
	spec := opSpecs[ins.Opcode]
	if len(ins.Operands) != spec.arity {
		return fmt.Errorf("%w: %s takes %d operands, found %d",
			ErrArityMismatch, spec.name, spec.arity, len(ins.Operands))
	}
	if len(ins.Destinations) != 1 {
		return fmt.Errorf("%w: %s writes 1 destination, found %d",
			ErrArityMismatch, spec.name, len(ins.Destinations))
	}
	return nil
}

// outputType resolves the destination type from the operand types via the
// opcode table.
func (ins Instruction) outputType(in []ValueType) (ValueType, error) {
	if err := ins.checkArity(); err != nil {
		return 0, err
	}
	if len(in) != len(ins.Operands) {
		return 0, fmt.Errorf("%w: %s resolved %d operand types for %d operands",
			ErrArityMismatch, opSpecs[ins.Opcode].name, len(in), len(ins.Operands))
	}
	return opSpecs[ins.Opcode].out(in)
}

// Evaluate executes the instruction against the given registers. The same
// code path serves plain evaluation and circuit synthesis: the register
// backend decides whether operands are concrete field values or circuit
// variables, and Eject decides whether the result lands as a plaintext or
// as a future.
func (ins Instruction) Evaluate(stack *Stack, regs *Registers) error {
	if err := ins.checkArity(); err != nil {
		return err
	}
	if ins.Opcode == OpCall {
		return evaluateCall(stack, regs, ins)
	}
	spec := opSpecs[ins.Opcode]

	values := make([]Value, len(ins.Operands))
	inTypes := make([]ValueType, len(ins.Operands))
	for i, op := range ins.Operands {
		v, err := regs.Load(op)
		if err != nil {
			return err
		}
		values[i] = v
		inTypes[i] = v.Type()
	}
	outType, err := spec.out(inTypes)
	if err != nil {
		return fmt.Errorf("%s: %w", spec.name, err)
	}

	be := regs.Backend()
	elems := make([]algebra.Element, len(values))
	for i, v := range values {
		if elems[i], err = elementOf(be, v); err != nil {
			return err
		}
	}
	result, err := spec.eval(be, elems)
	if err != nil {
		return err
	}
	return regs.Store(ins.Destinations[0], materialize(be, result, outType))
}

// materialize turns a backend element back into a register value. Concrete
// elements become plaintexts of the destination type; circuit variables
// stay wrapped as futures carrying the type for later stages.
func materialize(be algebra.Backend, e algebra.Element, t ValueType) Value {
	lt, _ := t.LiteralType()
	concrete, ok := be.Eject(e)
	if !ok {
		return NewFuture(e, lt)
	}
	switch lt {
	case TypeBoolean:
		return NewPlaintext(NewBooleanLiteral(concrete.Sign() != 0))
	case TypeAddress:
		return NewPlaintext(NewAddressLiteral(common.BigToAddress(concrete)))
	default:
		return NewPlaintext(NewFieldLiteral(concrete))
	}
}
