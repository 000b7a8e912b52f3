package vm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/iden3/go-iden3-crypto/poseidon"

	"github.com/zvmlabs/zvm-sandbox/crypto/ethereum"
	multiposeidon "github.com/zvmlabs/zvm-sandbox/crypto/hash/poseidon"
	"github.com/zvmlabs/zvm-sandbox/types"
	"github.com/zvmlabs/zvm-sandbox/util"
)

// Request authorizes one function invocation. The caller signs a digest
// binding the network, the callee, the inputs and a fresh transition view
// key, so a request cannot be replayed against another function or with
// altered inputs.
type Request struct {
	NetworkID uint16
	Program   types.ProgramID
	Function  string
	Inputs    []Value
	// TVK is the transition view key, drawn fresh per request.
	TVK *big.Int
	// TCM is the transition commitment, the poseidon hash of the TVK.
	TCM       *big.Int
	Caller    common.Address
	Signature types.HexBytes
}

// SignRequest builds and signs a request for invoking program/function
// with the given inputs.
func SignRequest(signer *ethereum.SignKeys, program types.ProgramID,
	function string, inputs []Value) (*Request, error) {
	tvk := util.RandomFieldElement()
	tcm, err := poseidon.Hash([]*big.Int{tvk})
	if err != nil {
		return nil, fmt.Errorf("failed to commit to transition view key: %w", err)
	}
	r := &Request{
		NetworkID: types.NetworkID,
		Program:   program,
		Function:  function,
		Inputs:    inputs,
		TVK:       tvk,
		TCM:       tcm,
		Caller:    signer.Address(),
	}
	digest, err := r.digest()
	if err != nil {
		return nil, err
	}
	if r.Signature, err = signer.SignEthereum(digest); err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}
	return r, nil
}

// Verify checks the request against the declared input types of its
// function and against its signature. The network must match, the inputs
// must conform to the declared types, and the signer recovered from the
// signature must be the declared caller.
func (r *Request) Verify(inputTypes []ValueType) error {
	if r.NetworkID != types.NetworkID {
		return fmt.Errorf("%w: request is for network %d, this is network %d",
			ErrNetworkMismatch, r.NetworkID, types.NetworkID)
	}
	if len(r.Inputs) != len(inputTypes) {
		return fmt.Errorf("%w: %s/%s takes %d inputs, request carries %d",
			ErrArityMismatch, r.Program, r.Function, len(inputTypes), len(r.Inputs))
	}
	for i, in := range r.Inputs {
		if !valueMatchesType(in, inputTypes[i]) {
			return fmt.Errorf("%w: input %d of request for %s/%s is %s, declared %s",
				ErrTypeMismatch, i, r.Program, r.Function, in.Type(), inputTypes[i])
		}
	}
	digest, err := r.digest()
	if err != nil {
		return err
	}
	signer, err := ethereum.AddrFromSignature(digest, r.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if signer != r.Caller {
		return fmt.Errorf("%w: signed by %s, declared caller is %s",
			ErrInvalidSignature, signer.Hex(), r.Caller.Hex())
	}
	return nil
}

// digest folds the request into the 32-byte message that gets signed.
func (r *Request) digest() ([]byte, error) {
	fields := []*big.Int{
		new(big.Int).SetUint64(uint64(r.NetworkID)),
		new(big.Int).SetBytes(r.Program.Address().Bytes()),
		util.BigToFF(new(big.Int).SetBytes(ethcrypto.Keccak256([]byte(r.Function)))),
		r.TVK,
		r.TCM,
	}
	for i, in := range r.Inputs {
		inFields, err := in.ToFields()
		if err != nil {
			return nil, fmt.Errorf("input %d of request for %s/%s: %w",
				i, r.Program, r.Function, err)
		}
		fields = append(fields, inFields...)
	}
	h, err := multiposeidon.MultiPoseidon(fields...)
	if err != nil {
		return nil, fmt.Errorf("failed to hash request: %w", err)
	}
	digest := make([]byte, 32)
	h.FillBytes(digest)
	return digest, nil
}

func (r *Request) String() string {
	return fmt.Sprintf("request %s/%s from %s", r.Program, r.Function, r.Caller.Hex())
}
