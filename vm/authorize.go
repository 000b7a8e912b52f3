package vm

import (
	"github.com/zvmlabs/zvm-sandbox/crypto/ethereum"
	"github.com/zvmlabs/zvm-sandbox/log"
)

// Authorize signs a request for the named function and walks the call
// graph natively, signing one request per external function call in the
// order the calls happen. The returned authorization carries every request
// an evaluation or execution of this invocation will consume.
func (s *Stack) Authorize(signer *ethereum.SignKeys, function string, inputs []Value) (*Authorization, error) {
	if _, err := s.program.Function(function); err != nil {
		return nil, err
	}
	req, err := SignRequest(signer, s.program.ID, function, inputs)
	if err != nil {
		return nil, err
	}
	auth := NewAuthorization(req)
	cs := NewCallStack(ModeAuthorize, auth).WithSigner(signer)
	if _, err := s.evaluateRequest(cs, req); err != nil {
		return nil, err
	}
	log.Debugw("authorized invocation",
		"program", string(s.program.ID), "function", function,
		"requests", auth.Len())
	return auth, nil
}
