package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zvmlabs/zvm-sandbox/types"
)

// Register is the index of a single-assignment storage slot scoped to one
// function or closure invocation.
type Register uint64

func (r Register) String() string {
	return "r" + strconv.FormatUint(uint64(r), 10)
}

// ParseRegister parses the "rN" form of a register.
func ParseRegister(s string) (Register, bool) {
	rest, found := strings.CutPrefix(s, "r")
	if !found || len(rest) == 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return Register(n), true
}

// OperandKind discriminates the addressing forms an instruction reads from.
type OperandKind uint8

const (
	OperandLiteral OperandKind = iota
	OperandRegister
	OperandProgramID
	OperandCaller
)

// callerToken is the textual form of the caller operand.
const callerToken = "self.caller"

// Operand is an instruction input: a literal constant, a register, the
// current program's id, or the transition caller. Operands are resolved to
// values only at evaluation time, never cached across instructions.
type Operand struct {
	Kind      OperandKind
	Literal   Literal
	Register  Register
	ProgramID types.ProgramID
}

// LiteralOperand returns an operand holding a literal constant.
func LiteralOperand(l Literal) Operand {
	return Operand{Kind: OperandLiteral, Literal: l}
}

// RegisterOperand returns an operand addressing a register.
func RegisterOperand(r Register) Operand {
	return Operand{Kind: OperandRegister, Register: r}
}

// ProgramIDOperand returns an operand resolving to a program's address.
func ProgramIDOperand(id types.ProgramID) Operand {
	return Operand{Kind: OperandProgramID, ProgramID: id}
}

// CallerOperand returns an operand resolving to the transition caller.
func CallerOperand() Operand {
	return Operand{Kind: OperandCaller}
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandLiteral:
		return o.Literal.String()
	case OperandRegister:
		return o.Register.String()
	case OperandProgramID:
		return o.ProgramID.String()
	case OperandCaller:
		return callerToken
	}
	return fmt.Sprintf("Operand(%d)", o.Kind)
}

// Equal reports whether two operands are identical.
func (o Operand) Equal(p Operand) bool {
	if o.Kind != p.Kind {
		return false
	}
	switch o.Kind {
	case OperandLiteral:
		return o.Literal.Equal(p.Literal)
	case OperandRegister:
		return o.Register == p.Register
	case OperandProgramID:
		return o.ProgramID == p.ProgramID
	}
	return true
}

// ParseOperand parses the textual form of an operand. The alternatives are
// tried in a fixed order: the caller token, then registers, then literals,
// then program ids.
func ParseOperand(tok string) (Operand, error) {
	if tok == callerToken {
		return CallerOperand(), nil
	}
	if r, ok := ParseRegister(tok); ok {
		return RegisterOperand(r), nil
	}
	if l, ok := ParseLiteral(tok); ok {
		return LiteralOperand(l), nil
	}
	if strings.Contains(tok, ".") {
		id, err := types.ParseProgramID(tok)
		if err != nil {
			return Operand{}, err
		}
		return ProgramIDOperand(id), nil
	}
	return Operand{}, fmt.Errorf("invalid operand %q", tok)
}
