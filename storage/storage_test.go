package storage

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

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

function transfer:
    input r0 as field;
    call token.zvm/credit r0 into r1;
    output r1 as field;
`

func TestProgramStorage(t *testing.T) {
	c := qt.New(t)
	st := New(metadb.NewTest(t))

	_, err := st.Program(types.ProgramID("token.zvm"))
	c.Assert(err, qt.Equals, ErrNotFound)

	token, err := vm.ParseProgram(tokenSource)
	c.Assert(err, qt.IsNil)
	wallet, err := vm.ParseProgram(walletSource)
	c.Assert(err, qt.IsNil)

	c.Assert(st.PutProgram(token), qt.IsNil)
	c.Assert(st.PutProgram(wallet), qt.IsNil)
	c.Assert(st.PutProgram(token), qt.ErrorMatches, ".*already stored.*")

	loaded, err := st.Program(types.ProgramID("token.zvm"))
	c.Assert(err, qt.IsNil)
	c.Assert(loaded.String(), qt.Equals, token.String())

	// deploy order survives, so the process reloads cleanly
	ids, err := st.ListPrograms()
	c.Assert(err, qt.IsNil)
	c.Assert(ids, qt.DeepEquals, []types.ProgramID{"token.zvm", "wallet.zvm"})

	process, err := st.LoadProcess()
	c.Assert(err, qt.IsNil)
	c.Assert(process.Programs(), qt.DeepEquals, ids)
}

func TestAuthorizationStorage(t *testing.T) {
	c := qt.New(t)
	st := New(metadb.NewTest(t))

	token, err := vm.ParseProgram(tokenSource)
	c.Assert(err, qt.IsNil)
	wallet, err := vm.ParseProgram(walletSource)
	c.Assert(err, qt.IsNil)
	c.Assert(st.PutProgram(token), qt.IsNil)
	c.Assert(st.PutProgram(wallet), qt.IsNil)

	process, err := st.LoadProcess()
	c.Assert(err, qt.IsNil)
	signer := ethereum.NewSignKeys()
	c.Assert(signer.Generate(), qt.IsNil)

	auth, err := process.Authorize(signer, types.ProgramID("wallet.zvm"), "transfer",
		[]vm.Value{vm.NewPlaintext(vm.NewFieldLiteral(big.NewInt(5)))})
	c.Assert(err, qt.IsNil)

	key, err := st.PutAuthorization(auth)
	c.Assert(err, qt.IsNil)

	// a reloaded authorization verifies and evaluates like the original
	reloaded, err := st.Authorization(key)
	c.Assert(err, qt.IsNil)
	c.Assert(reloaded.Len(), qt.Equals, auth.Len())
	for _, r := range reloaded.Requests() {
		c.Assert(r.Verify([]vm.ValueType{vm.ValueTypeField}), qt.IsNil)
	}
	resp, err := process.Evaluate(reloaded)
	c.Assert(err, qt.IsNil)
	out := resp.Outputs[0].(*vm.Plaintext).Literal.Field()
	c.Assert(out.Int64(), qt.Equals, int64(10))

	_, err = st.Authorization("ffffffffffffffffffffffff")
	c.Assert(err, qt.Equals, ErrNotFound)
	_, err = st.Authorization("zz")
	c.Assert(err, qt.ErrorMatches, ".*invalid authorization key.*")
}

func TestAuthorizationRecordInputRejected(t *testing.T) {
	c := qt.New(t)
	st := New(metadb.NewTest(t))

	owner := ethereum.NewSignKeys()
	c.Assert(owner.Generate(), qt.IsNil)
	rec := vm.NewRecord(owner.Address(), nil, big.NewInt(1))
	auth := vm.NewAuthorization(&vm.Request{
		NetworkID: types.NetworkID,
		Program:   types.ProgramID("token.zvm"),
		Function:  "credit",
		Inputs:    []vm.Value{&vm.RecordValue{Record: rec}},
		TVK:       big.NewInt(1),
		TCM:       big.NewInt(2),
	})
	_, err := st.PutAuthorization(auth)
	c.Assert(err, qt.ErrorMatches, ".*record inputs cannot be stored.*")
}
