package vm

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/zvmlabs/zvm-sandbox/types"
)

func TestRequestSignVerify(t *testing.T) {
	c := qt.New(t)
	signer := testSigner(t)

	req, err := SignRequest(signer, types.ProgramID("token.zvm"), "credit",
		[]Value{fieldValue(21)})
	c.Assert(err, qt.IsNil)
	c.Assert(req.NetworkID, qt.Equals, types.NetworkID)
	c.Assert(req.Caller, qt.Equals, signer.Address())
	c.Assert(req.TVK, qt.IsNotNil)
	c.Assert(req.TCM, qt.IsNotNil)
	c.Assert(req.Verify([]ValueType{ValueTypeField}), qt.IsNil)
}

func TestRequestTamperDetection(t *testing.T) {
	c := qt.New(t)
	signer := testSigner(t)

	fresh := func() *Request {
		req, err := SignRequest(signer, types.ProgramID("token.zvm"), "credit",
			[]Value{fieldValue(21)})
		c.Assert(err, qt.IsNil)
		return req
	}

	req := fresh()
	req.Function = "burn"
	c.Assert(req.Verify([]ValueType{ValueTypeField}), qt.ErrorIs, ErrInvalidSignature)

	req = fresh()
	req.Inputs[0] = fieldValue(1000)
	c.Assert(req.Verify([]ValueType{ValueTypeField}), qt.ErrorIs, ErrInvalidSignature)

	req = fresh()
	req.Caller = testSigner(t).Address()
	c.Assert(req.Verify([]ValueType{ValueTypeField}), qt.ErrorIs, ErrInvalidSignature)

	req = fresh()
	req.NetworkID = types.NetworkID + 1
	c.Assert(req.Verify([]ValueType{ValueTypeField}), qt.ErrorIs, ErrNetworkMismatch)
}

func TestRequestVerifyInputConformance(t *testing.T) {
	c := qt.New(t)
	signer := testSigner(t)

	req, err := SignRequest(signer, types.ProgramID("token.zvm"), "credit",
		[]Value{fieldValue(21)})
	c.Assert(err, qt.IsNil)

	err = req.Verify([]ValueType{ValueTypeField, ValueTypeField})
	c.Assert(err, qt.ErrorIs, ErrArityMismatch)
	c.Assert(err, qt.ErrorMatches, ".*takes 2 inputs, request carries 1.*")

	err = req.Verify(nil)
	c.Assert(err, qt.ErrorIs, ErrArityMismatch)

	err = req.Verify([]ValueType{ValueTypeBoolean})
	c.Assert(err, qt.ErrorIs, ErrTypeMismatch)
	c.Assert(err, qt.ErrorMatches, ".*is field, declared boolean.*")
}

func TestRequestTVKFreshness(t *testing.T) {
	c := qt.New(t)
	signer := testSigner(t)

	a, err := SignRequest(signer, types.ProgramID("token.zvm"), "credit", nil)
	c.Assert(err, qt.IsNil)
	b, err := SignRequest(signer, types.ProgramID("token.zvm"), "credit", nil)
	c.Assert(err, qt.IsNil)
	c.Assert(a.TVK.Cmp(b.TVK), qt.Not(qt.Equals), 0)
	c.Assert(a.TCM.Cmp(b.TCM), qt.Not(qt.Equals), 0)
}
