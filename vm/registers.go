package vm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zvmlabs/zvm-sandbox/algebra"
)

// Registers is the single-assignment register file of one invocation.
// Each register is written exactly once, by an input binding or by the
// destination of one instruction, and its type must match the register
// typing computed for the callable.
type Registers struct {
	callStack *CallStack
	backend   algebra.Backend
	types     map[Register]ValueType
	values    map[Register]Value
	caller    *common.Address
	tvk       *big.Int
}

func NewRegisters(cs *CallStack, be algebra.Backend, types map[Register]ValueType) *Registers {
	return &Registers{
		callStack: cs,
		backend:   be,
		types:     types,
		values:    make(map[Register]Value, len(types)),
	}
}

func (r *Registers) CallStack() *CallStack    { return r.callStack }
func (r *Registers) Backend() algebra.Backend { return r.backend }

// SetCaller records the invoking address. It is write-once.
func (r *Registers) SetCaller(addr common.Address) error {
	if r.caller != nil {
		return fmt.Errorf("caller already set to %s", r.caller.Hex())
	}
	r.caller = &addr
	return nil
}

// Caller returns the invoking address.
func (r *Registers) Caller() (common.Address, error) {
	if r.caller == nil {
		return common.Address{}, fmt.Errorf("caller is not set")
	}
	return *r.caller, nil
}

// SetTVK records the transition view key of the invocation. It is
// write-once.
func (r *Registers) SetTVK(tvk *big.Int) error {
	if r.tvk != nil {
		return fmt.Errorf("transition view key already set")
	}
	r.tvk = new(big.Int).Set(tvk)
	return nil
}

// TVK returns the transition view key.
func (r *Registers) TVK() (*big.Int, error) {
	if r.tvk == nil {
		return nil, fmt.Errorf("transition view key is not set")
	}
	return new(big.Int).Set(r.tvk), nil
}

// Store assigns a value to a register. Reassignment, assignment to an
// undeclared register and type mismatches are errors.
func (r *Registers) Store(dst Register, v Value) error {
	if _, set := r.values[dst]; set {
		return fmt.Errorf("%w: %s", ErrRegisterSet, dst)
	}
	want, declared := r.types[dst]
	if !declared {
		return fmt.Errorf("%w: %s is not declared", ErrRegisterUnset, dst)
	}
	if !valueMatchesType(v, want) {
		return fmt.Errorf("%w: %s holds %s, cannot store %s", ErrTypeMismatch, dst, want, v.Type())
	}
	r.values[dst] = v
	return nil
}

// Load resolves an operand to a value.
func (r *Registers) Load(op Operand) (Value, error) {
	switch op.Kind {
	case OperandLiteral:
		return NewPlaintext(op.Literal), nil
	case OperandRegister:
		v, set := r.values[op.Register]
		if !set {
			return nil, fmt.Errorf("%w: %s", ErrRegisterUnset, op.Register)
		}
		return v, nil
	case OperandProgramID:
		return NewPlaintext(NewAddressLiteral(op.ProgramID.Address())), nil
	case OperandCaller:
		caller, err := r.Caller()
		if err != nil {
			return nil, err
		}
		return NewPlaintext(NewAddressLiteral(caller)), nil
	default:
		return nil, fmt.Errorf("unknown operand kind %d", op.Kind)
	}
}
