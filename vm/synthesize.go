package vm

import (
	"fmt"

	"github.com/zvmlabs/zvm-sandbox/algebra"
)

// SynthesizeFunction consumes the next authorized request and synthesizes
// the constraints of its function through the circuit backend. The inputs
// are the circuit variables standing for the request inputs; they are
// constrained to equal the authorized values, so the witness cannot drift
// from what the caller signed.
func (s *Stack) SynthesizeFunction(cs *CallStack, be *algebra.Synthesizer, inputs []Value) ([]Value, error) {
	if cs.Mode() != ModeExecute && cs.Mode() != ModeEstimate {
		return nil, fmt.Errorf("%w: cannot synthesize in %s mode", ErrIllegalMode, cs.Mode())
	}
	r, err := cs.auth.Next()
	if err != nil {
		return nil, err
	}
	if r.Program != s.program.ID {
		return nil, fmt.Errorf("%w: request for %s reached program %s",
			ErrAuthorizationDesync, r.Program, s.program.ID)
	}
	f, err := s.program.Function(r.Function)
	if err != nil {
		return nil, err
	}
	if err := r.Verify(f.InputTypes()); err != nil {
		return nil, err
	}
	if err := bindAuthorizedInputs(be, inputs, r); err != nil {
		return nil, err
	}
	return s.evaluateBody(be, cs, &f.code, inputs, r.Caller, r.TVK)
}

// synthesizeExternalCall inlines the constraints of a called function into
// the caller's circuit, consuming the callee's request from the shared
// authorization.
func synthesizeExternalCall(callee *Stack, cs *CallStack, be *algebra.Synthesizer,
	loc Locator, args []Value) ([]Value, error) {
	r, err := cs.auth.Next()
	if err != nil {
		return nil, err
	}
	if r.Program != loc.Program || r.Function != loc.Resource {
		return nil, fmt.Errorf("%w: call targets %s, next request is for %s/%s",
			ErrAuthorizationDesync, loc, r.Program, r.Function)
	}
	f, err := callee.program.Function(r.Function)
	if err != nil {
		return nil, err
	}
	if err := r.Verify(f.InputTypes()); err != nil {
		return nil, err
	}
	if err := bindAuthorizedInputs(be, args, r); err != nil {
		return nil, err
	}
	return callee.evaluateBody(be, cs, &f.code, args, r.Caller, r.TVK)
}

// bindAuthorizedInputs constrains circuit arguments to the concrete inputs
// carried by the request. Record inputs have no circuit representation and
// are rejected here.
func bindAuthorizedInputs(be *algebra.Synthesizer, args []Value, r *Request) error {
	if len(args) != len(r.Inputs) {
		return fmt.Errorf("%w: circuit binds %d inputs, request for %s/%s carries %d",
			ErrAuthorizationDesync, len(args), r.Program, r.Function, len(r.Inputs))
	}
	api := be.API()
	for i := range args {
		arg, err := elementOf(be, args[i])
		if err != nil {
			return fmt.Errorf("input %d of %s/%s: %w", i, r.Program, r.Function, err)
		}
		authorized, err := elementOf(be, r.Inputs[i])
		if err != nil {
			return fmt.Errorf("input %d of %s/%s: %w", i, r.Program, r.Function, err)
		}
		api.AssertIsEqual(arg, authorized)
	}
	return nil
}
