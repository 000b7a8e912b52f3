package storage

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zvmlabs/zvm-sandbox/types"
	"github.com/zvmlabs/zvm-sandbox/vm"
)

// requestRecord is the stored form of a signed request. Inputs are kept in
// their textual literal form, so only literal inputs can be stored.
type requestRecord struct {
	NetworkID uint16
	Program   string
	Function  string
	Inputs    []string
	TVK       *types.BigInt
	TCM       *types.BigInt
	Caller    types.HexBytes
	Signature types.HexBytes
}

// PutAuthorization stores an authorization and returns its key: the hex
// form of the truncated hash of the encoded requests. Only plaintext
// request inputs can be persisted; an authorization carrying a record or
// future input is rejected.
func (s *Storage) PutAuthorization(auth *vm.Authorization) (string, error) {
	records := make([]requestRecord, 0, auth.Len())
	for _, r := range auth.Requests() {
		rec, err := recordFromRequest(r)
		if err != nil {
			return "", err
		}
		records = append(records, rec)
	}
	val, err := encodeArtifact(records)
	if err != nil {
		return "", fmt.Errorf("encode authorization: %w", err)
	}
	key := hashKey(val)
	if err := s.setArtifact(authPrefix, key, val); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// Authorization retrieves a stored authorization by key, with its cursor
// at the first request.
func (s *Storage) Authorization(key string) (*vm.Authorization, error) {
	bkey, err := hex.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("invalid authorization key %q: %w", key, err)
	}
	data, err := s.getArtifact(authPrefix, bkey)
	if err != nil {
		return nil, err
	}
	var records []requestRecord
	if err := decodeArtifact(data, &records); err != nil {
		return nil, fmt.Errorf("decode authorization: %w", err)
	}
	auth := vm.NewAuthorization()
	for i, rec := range records {
		r, err := rec.toRequest()
		if err != nil {
			return nil, fmt.Errorf("request %d of authorization %s: %w", i, key, err)
		}
		auth.Push(r)
	}
	return auth, nil
}

func recordFromRequest(r *vm.Request) (requestRecord, error) {
	rec := requestRecord{
		NetworkID: r.NetworkID,
		Program:   string(r.Program),
		Function:  r.Function,
		Inputs:    make([]string, len(r.Inputs)),
		TVK:       types.FromBigInt(r.TVK),
		TCM:       types.FromBigInt(r.TCM),
		Caller:    r.Caller.Bytes(),
		Signature: r.Signature,
	}
	for i, in := range r.Inputs {
		p, ok := in.(*vm.Plaintext)
		if !ok {
			return requestRecord{}, fmt.Errorf("%s inputs cannot be stored", in.Type())
		}
		rec.Inputs[i] = p.Literal.String()
	}
	return rec, nil
}

func (rec requestRecord) toRequest() (*vm.Request, error) {
	id, err := types.ParseProgramID(rec.Program)
	if err != nil {
		return nil, err
	}
	r := &vm.Request{
		NetworkID: rec.NetworkID,
		Program:   id,
		Function:  rec.Function,
		Inputs:    make([]vm.Value, len(rec.Inputs)),
		TVK:       rec.TVK.MathBigInt(),
		TCM:       rec.TCM.MathBigInt(),
		Caller:    common.BytesToAddress(rec.Caller),
		Signature: rec.Signature,
	}
	for i, tok := range rec.Inputs {
		l, ok := vm.ParseLiteral(tok)
		if !ok {
			return nil, fmt.Errorf("invalid stored literal %q", tok)
		}
		r.Inputs[i] = vm.NewPlaintext(l)
	}
	return r, nil
}
