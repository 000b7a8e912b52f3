package vm

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/zvmlabs/zvm-sandbox/crypto/ethereum"
)

const tokenSource = `
program token.zvm;

function credit:
    input r0 as field;
    mul r0 2field into r1;
    output r1 as field;
`

const walletSource = `
program wallet.zvm;

closure fee:
    input r0 as field;
    add r0 1field into r1;
    output r1 as field;

function transfer:
    input r0 as field;
    call token.zvm/credit r0 into r1;
    call fee r1 into r2;
    output r2 as field;
`

func testSigner(t *testing.T) *ethereum.SignKeys {
	t.Helper()
	signer := ethereum.NewSignKeys()
	if err := signer.Generate(); err != nil {
		t.Fatal(err)
	}
	return signer
}

func testProcess(t *testing.T, sources ...string) *Process {
	t.Helper()
	process := NewProcess()
	for _, src := range sources {
		p, err := ParseProgram(src)
		if err != nil {
			t.Fatal(err)
		}
		if err := process.AddProgram(p); err != nil {
			t.Fatal(err)
		}
	}
	return process
}

func fieldValue(v int64) Value {
	return NewPlaintext(NewFieldLiteral(big.NewInt(v)))
}

func fieldOutput(c *qt.C, v Value) *big.Int {
	p, ok := v.(*Plaintext)
	c.Assert(ok, qt.IsTrue)
	return p.Literal.Field()
}

func TestAuthorizeAndEvaluate(t *testing.T) {
	c := qt.New(t)
	process := testProcess(t, tokenSource)
	signer := testSigner(t)

	auth, err := process.Authorize(signer, "token.zvm", "credit", []Value{fieldValue(21)})
	c.Assert(err, qt.IsNil)
	c.Assert(auth.Len(), qt.Equals, 1)

	resp, err := process.Evaluate(auth)
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Outputs, qt.HasLen, 1)
	c.Assert(fieldOutput(c, resp.Outputs[0]).Int64(), qt.Equals, int64(42))
	c.Assert(resp.OutputRegisters, qt.HasLen, 1)
	c.Assert(*resp.OutputRegisters[0], qt.Equals, Register(1))
	c.Assert(auth.Done(), qt.IsTrue)

	_, err = auth.Next()
	c.Assert(err, qt.ErrorIs, ErrAuthorizationDrained)
}

func TestResponseOutputProvenance(t *testing.T) {
	c := qt.New(t)
	process := testProcess(t, `
program fixture.zvm;

function pair:
    input r0 as field;
    add r0 1field into r1;
    output r1 as field;
    output 7field as field;
`)
	signer := testSigner(t)

	auth, err := process.Authorize(signer, "fixture.zvm", "pair", []Value{fieldValue(4)})
	c.Assert(err, qt.IsNil)
	resp, err := process.Evaluate(auth)
	c.Assert(err, qt.IsNil)
	c.Assert(fieldOutput(c, resp.Outputs[0]).Int64(), qt.Equals, int64(5))
	c.Assert(fieldOutput(c, resp.Outputs[1]).Int64(), qt.Equals, int64(7))
	c.Assert(resp.OutputRegisters, qt.HasLen, 2)
	c.Assert(*resp.OutputRegisters[0], qt.Equals, Register(1))
	c.Assert(resp.OutputRegisters[1], qt.IsNil)
}

func TestNestedCallAuthorization(t *testing.T) {
	c := qt.New(t)
	process := testProcess(t, tokenSource, walletSource)
	signer := testSigner(t)

	auth, err := process.Authorize(signer, "wallet.zvm", "transfer", []Value{fieldValue(5)})
	c.Assert(err, qt.IsNil)
	c.Assert(auth.Len(), qt.Equals, 2)
	requests := auth.Requests()
	c.Assert(string(requests[0].Program), qt.Equals, "wallet.zvm")
	c.Assert(requests[0].Function, qt.Equals, "transfer")
	c.Assert(string(requests[1].Program), qt.Equals, "token.zvm")
	c.Assert(requests[1].Function, qt.Equals, "credit")

	resp, err := process.Evaluate(auth)
	c.Assert(err, qt.IsNil)
	// credit doubles, the fee closure adds one
	c.Assert(fieldOutput(c, resp.Outputs[0]).Int64(), qt.Equals, int64(11))
	c.Assert(auth.Done(), qt.IsTrue)
}

func TestEvaluateLeftoverRequest(t *testing.T) {
	c := qt.New(t)
	process := testProcess(t, tokenSource, walletSource)
	signer := testSigner(t)

	innerAuth, err := process.Authorize(signer, "token.zvm", "credit", []Value{fieldValue(1)})
	c.Assert(err, qt.IsNil)
	outerAuth, err := process.Authorize(signer, "token.zvm", "credit", []Value{fieldValue(1)})
	c.Assert(err, qt.IsNil)

	// a credit evaluation consumes one request, the extra one must fail it
	combined := NewAuthorization(outerAuth.Requests()[0], innerAuth.Requests()[0])
	_, err = process.Evaluate(combined)
	c.Assert(err, qt.ErrorIs, ErrAuthorizationDesync)
}

func TestEvaluateMissingNestedRequest(t *testing.T) {
	c := qt.New(t)
	process := testProcess(t, tokenSource, walletSource)
	signer := testSigner(t)

	auth, err := process.Authorize(signer, "wallet.zvm", "transfer", []Value{fieldValue(5)})
	c.Assert(err, qt.IsNil)

	truncated := NewAuthorization(auth.Requests()[0])
	_, err = process.Evaluate(truncated)
	c.Assert(err, qt.ErrorIs, ErrAuthorizationDrained)
}

func TestEvaluateTamperedRequest(t *testing.T) {
	c := qt.New(t)
	process := testProcess(t, tokenSource)
	signer := testSigner(t)

	auth, err := process.Authorize(signer, "token.zvm", "credit", []Value{fieldValue(21)})
	c.Assert(err, qt.IsNil)
	auth.Requests()[0].Inputs[0] = fieldValue(1000)

	_, err = process.Evaluate(auth)
	c.Assert(err, qt.ErrorIs, ErrInvalidSignature)
}

func TestDivisionByZero(t *testing.T) {
	c := qt.New(t)
	process := testProcess(t, `
program math.zvm;

function ratio:
    input r0 as field;
    input r1 as field;
    div r0 r1 into r2;
    output r2 as field;
`)
	signer := testSigner(t)

	auth, err := process.Authorize(signer, "math.zvm", "ratio",
		[]Value{fieldValue(1), fieldValue(0)})
	c.Assert(err, qt.ErrorIs, ErrDivisionByZero)
	c.Assert(err, qt.ErrorMatches, `.*failed to evaluate instruction \(div r0 r1 into r2;\).*`)
	c.Assert(auth, qt.IsNil)
}

func TestAuthorizeWrongInputCount(t *testing.T) {
	c := qt.New(t)
	process := testProcess(t, tokenSource)
	signer := testSigner(t)

	auth, err := process.Authorize(signer, "token.zvm", "credit",
		[]Value{fieldValue(1), fieldValue(2)})
	c.Assert(err, qt.ErrorIs, ErrArityMismatch)
	c.Assert(err, qt.ErrorMatches, ".*takes 1 inputs, request carries 2.*")
	c.Assert(auth, qt.IsNil)

	auth, err = process.Authorize(signer, "token.zvm", "credit", nil)
	c.Assert(err, qt.ErrorIs, ErrArityMismatch)
	c.Assert(err, qt.ErrorMatches, ".*takes 1 inputs, request carries 0.*")
	c.Assert(auth, qt.IsNil)
}

func TestAddProgramChecks(t *testing.T) {
	c := qt.New(t)

	// calling a program that is not loaded
	process := NewProcess()
	p, err := ParseProgram(walletSource)
	c.Assert(err, qt.IsNil)
	c.Assert(process.AddProgram(p), qt.ErrorIs, ErrUnknownProgram)

	// closures calling each other in a cycle
	loop, err := ParseProgram(`
program loop.zvm;

closure ping:
    input r0 as field;
    call pong r0 into r1;
    output r1 as field;

closure pong:
    input r0 as field;
    call ping r0 into r1;
    output r1 as field;
`)
	c.Assert(err, qt.IsNil)
	c.Assert(NewProcess().AddProgram(loop), qt.ErrorIs, ErrCallCycle)

	// duplicate program load
	process = testProcess(t, tokenSource)
	dup, err := ParseProgram(tokenSource)
	c.Assert(err, qt.IsNil)
	c.Assert(process.AddProgram(dup), qt.ErrorMatches, ".*already loaded.*")
}

func TestCallerOperand(t *testing.T) {
	c := qt.New(t)
	process := testProcess(t, `
program who.zvm;

function me:
    input r0 as field;
    ternary true self.caller self.caller into r1;
    output r1 as address;
`)
	signer := testSigner(t)

	auth, err := process.Authorize(signer, "who.zvm", "me", []Value{fieldValue(0)})
	c.Assert(err, qt.IsNil)
	resp, err := process.Evaluate(auth)
	c.Assert(err, qt.IsNil)
	out, ok := resp.Outputs[0].(*Plaintext)
	c.Assert(ok, qt.IsTrue)
	c.Assert(out.Literal.Address(), qt.Equals, signer.Address())
}
