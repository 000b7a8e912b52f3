package vm

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestOpcodeTable(t *testing.T) {
	c := qt.New(t)

	// mnemonics resolve back to their own opcodes
	for _, spec := range opSpecs {
		op, ok := OpcodeForName(spec.name)
		c.Assert(ok, qt.IsTrue)
		c.Assert(op, qt.Equals, spec.code)
		c.Assert(op.String(), qt.Equals, spec.name)
	}
	_, ok := OpcodeForName("bogus")
	c.Assert(ok, qt.IsFalse)
	c.Assert(Opcode(99).valid(), qt.IsFalse)
}

func TestRegisterTyping(t *testing.T) {
	c := qt.New(t)

	// comparison destinations are booleans, usable by ternary
	p, err := ParseProgram(`
program a.zvm;

function f:
    input r0 as field;
    lt r0 1field into r1;
    ternary r1 1field 0field into r2;
    output r2 as field;
`)
	c.Assert(err, qt.IsNil)
	c.Assert(NewProcess().AddProgram(p), qt.IsNil)

	// but they cannot feed arithmetic, and that surfaces at load
	bad, err := ParseProgram(`
program b.zvm;

function f:
    input r0 as field;
    lt r0 1field into r1;
    add r1 r0 into r2;
    output r2 as field;
`)
	c.Assert(err, qt.IsNil)
	c.Assert(NewProcess().AddProgram(bad), qt.ErrorIs, ErrTypeMismatch)
}

func TestOutputTypeDeclarations(t *testing.T) {
	c := qt.New(t)

	mismatched, err := ParseProgram(`
program a.zvm;

function f:
    input r0 as field;
    eq r0 1field into r1;
    output r1 as field;
`)
	c.Assert(err, qt.IsNil)
	c.Assert(NewProcess().AddProgram(mismatched), qt.ErrorIs, ErrTypeMismatch)
}

func TestCallArityChecks(t *testing.T) {
	c := qt.New(t)

	process := testProcess(t, tokenSource)
	extra, err := ParseProgram(`
program w.zvm;

function f:
    input r0 as field;
    call token.zvm/credit r0 r0 into r1;
    output r1 as field;
`)
	c.Assert(err, qt.IsNil)
	c.Assert(process.AddProgram(extra), qt.ErrorIs, ErrArityMismatch)
}
