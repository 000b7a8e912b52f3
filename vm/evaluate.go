package vm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zvmlabs/zvm-sandbox/algebra"
	"github.com/zvmlabs/zvm-sandbox/log"
)

// EvaluateClosure runs a closure natively with the given inputs in the
// context of the given caller and transition view key.
func (s *Stack) EvaluateClosure(cs *CallStack, name string, inputs []Value,
	caller common.Address, tvk *big.Int) ([]Value, error) {
	c, err := s.program.Closure(name)
	if err != nil {
		return nil, err
	}
	return s.evaluateBody(algebra.NewNative(), cs, &c.code, inputs, caller, tvk)
}

// EvaluateFunction runs the next authorized function of this stack's
// program. In evaluate mode the request is consumed from the
// authorization; in execute and estimate modes the replay works on a
// replica so the original authorization stays intact for synthesis.
func (s *Stack) EvaluateFunction(cs *CallStack) (*Response, error) {
	switch cs.Mode() {
	case ModeEvaluate:
		r, err := cs.auth.Next()
		if err != nil {
			return nil, err
		}
		return s.evaluateRequest(cs, r)
	case ModeExecute, ModeEstimate:
		replica := cs.Replicate()
		r, err := replica.auth.Next()
		if err != nil {
			return nil, err
		}
		return s.evaluateRequest(replica, r)
	default:
		return nil, fmt.Errorf("%w: cannot evaluate in %s mode", ErrIllegalMode, cs.Mode())
	}
}

// evaluateRequest verifies a request and runs the named function natively.
func (s *Stack) evaluateRequest(cs *CallStack, r *Request) (*Response, error) {
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
	log.Debugw("evaluating function",
		"program", string(r.Program), "function", r.Function,
		"caller", r.Caller.Hex(), "mode", cs.Mode().String())
	outputs, err := s.evaluateBody(algebra.NewNative(), cs, &f.code, r.Inputs, r.Caller, r.TVK)
	if err != nil {
		return nil, err
	}
	resp, err := NewResponse(r.Program, r.Function, len(r.Inputs),
		r.TVK, r.TCM, outputs, f.OutputTypes(), f.OutputRegisters())
	if err != nil {
		return nil, err
	}
	cs.collect(&Transition{Request: r, Response: resp})
	return resp, nil
}

// evaluateBody binds the inputs, runs every instruction through the given
// backend and resolves the declared outputs.
func (s *Stack) evaluateBody(be algebra.Backend, cs *CallStack, body *code,
	inputs []Value, caller common.Address, tvk *big.Int) ([]Value, error) {
	if len(inputs) != len(body.Inputs) {
		return nil, fmt.Errorf("%w: %s/%s takes %d inputs, found %d",
			ErrArityMismatch, s.program.ID, body.Name, len(body.Inputs), len(inputs))
	}
	rt, err := s.RegisterTypes(body.Name)
	if err != nil {
		return nil, err
	}
	regs := NewRegisters(cs, be, rt)
	if err := regs.SetCaller(caller); err != nil {
		return nil, err
	}
	if err := regs.SetTVK(tvk); err != nil {
		return nil, err
	}
	for i, in := range inputs {
		if err := regs.Store(body.Inputs[i].Register, in); err != nil {
			return nil, fmt.Errorf("input %d of %s/%s: %w", i, s.program.ID, body.Name, err)
		}
	}
	for _, ins := range body.Instructions {
		if err := ins.Evaluate(s, regs); err != nil {
			return nil, fmt.Errorf("failed to evaluate instruction (%s): %w", ins, err)
		}
	}
	return s.loadOutputs(regs, body.Outputs)
}

func (s *Stack) loadOutputs(regs *Registers, outputs []Output) ([]Value, error) {
	out := make([]Value, len(outputs))
	for i, o := range outputs {
		v, err := regs.Load(o.Operand)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
