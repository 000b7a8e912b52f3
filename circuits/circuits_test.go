package circuits

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/zvmlabs/zvm-sandbox/crypto/ethereum"
	"github.com/zvmlabs/zvm-sandbox/types"
	"github.com/zvmlabs/zvm-sandbox/vm"
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

func testSetup(t *testing.T) (*vm.Process, *ethereum.SignKeys) {
	t.Helper()
	process := vm.NewProcess()
	for _, src := range []string{tokenSource, walletSource} {
		p, err := vm.ParseProgram(src)
		if err != nil {
			t.Fatal(err)
		}
		if err := process.AddProgram(p); err != nil {
			t.Fatal(err)
		}
	}
	signer := ethereum.NewSignKeys()
	if err := signer.Generate(); err != nil {
		t.Fatal(err)
	}
	return process, signer
}

func authorize(c *qt.C, process *vm.Process, signer *ethereum.SignKeys,
	program, function string, input int64) *vm.Authorization {
	auth, err := process.Authorize(signer, types.ProgramID(program), function,
		[]vm.Value{vm.NewPlaintext(vm.NewFieldLiteral(big.NewInt(input)))})
	c.Assert(err, qt.IsNil)
	return auth
}

func TestExecuteMatchesEvaluate(t *testing.T) {
	c := qt.New(t)
	process, signer := testSetup(t)

	evalAuth := authorize(c, process, signer, "token.zvm", "credit", 21)
	resp, err := process.Evaluate(evalAuth)
	c.Assert(err, qt.IsNil)

	execAuth := authorize(c, process, signer, "token.zvm", "credit", 21)
	exec, err := Execute(process, execAuth)
	c.Assert(err, qt.IsNil)
	c.Assert(execAuth.Done(), qt.IsTrue)
	c.Assert(exec.Constraints.GetNbConstraints() > 0, qt.IsTrue)
	c.Assert(exec.Trace.Transitions(), qt.HasLen, 1)

	evalOut := resp.Outputs[0].(*vm.Plaintext).Literal.Field()
	execOut := exec.Response.Outputs[0].(*vm.Plaintext).Literal.Field()
	c.Assert(execOut.Cmp(evalOut), qt.Equals, 0)
	c.Assert(execOut.Int64(), qt.Equals, int64(42))
}

func TestExecuteNestedCalls(t *testing.T) {
	c := qt.New(t)
	process, signer := testSetup(t)

	auth := authorize(c, process, signer, "wallet.zvm", "transfer", 5)
	c.Assert(auth.Len(), qt.Equals, 2)

	exec, err := Execute(process, auth)
	c.Assert(err, qt.IsNil)
	c.Assert(auth.Done(), qt.IsTrue)

	// both transitions share one inlined circuit; the nested call
	// completes first
	transitions := exec.Trace.Transitions()
	c.Assert(transitions, qt.HasLen, 2)
	c.Assert(transitions[0].Request.Function, qt.Equals, "credit")
	c.Assert(transitions[1].Request.Function, qt.Equals, "transfer")
	c.Assert(transitions[1].Constraints, qt.Equals, exec.Constraints.GetNbConstraints())

	out := exec.Response.Outputs[0].(*vm.Plaintext).Literal.Field()
	c.Assert(out.Int64(), qt.Equals, int64(11))
}

func TestEstimate(t *testing.T) {
	c := qt.New(t)
	process, signer := testSetup(t)

	auth := authorize(c, process, signer, "wallet.zvm", "transfer", 5)
	n, err := Estimate(process, auth)
	c.Assert(err, qt.IsNil)
	c.Assert(n > 0, qt.IsTrue)
	c.Assert(auth.Done(), qt.IsTrue)
}

func TestProveAndVerify(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping groth16 setup in short mode")
	}
	c := qt.New(t)
	process, signer := testSetup(t)

	auth := authorize(c, process, signer, "token.zvm", "credit", 21)
	exec, err := Execute(process, auth)
	c.Assert(err, qt.IsNil)

	pk, vk, err := Setup(exec.Constraints)
	c.Assert(err, qt.IsNil)
	proof, err := Prove(exec, pk)
	c.Assert(err, qt.IsNil)

	public, err := exec.PublicWitness()
	c.Assert(err, qt.IsNil)
	c.Assert(Verify(proof, vk, public), qt.IsNil)
}
