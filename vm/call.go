package vm

import (
	"fmt"

	"github.com/zvmlabs/zvm-sandbox/algebra"
)

// evaluateCall dispatches a call instruction. Calls into the current
// program run its closures inline on the caller's backend; calls into
// another program invoke one of its functions through the authorization.
func evaluateCall(stack *Stack, regs *Registers, ins Instruction) error {
	loc := *ins.Callee
	args := make([]Value, len(ins.Operands))
	for i, op := range ins.Operands {
		v, err := regs.Load(op)
		if err != nil {
			return err
		}
		args[i] = v
	}
	cs := regs.CallStack()
	child, err := cs.child()
	if err != nil {
		return err
	}

	var outputs []Value
	if loc.Program == stack.program.ID {
		c, err := stack.program.Closure(loc.Resource)
		if err != nil {
			return err
		}
		caller, err := regs.Caller()
		if err != nil {
			return err
		}
		tvk, err := regs.TVK()
		if err != nil {
			return err
		}
		if outputs, err = stack.evaluateBody(regs.Backend(), child, &c.code, args, caller, tvk); err != nil {
			return err
		}
		return storeCallOutputs(regs, ins, outputs)
	}

	callee, err := stack.process.Stack(loc.Program)
	if err != nil {
		return err
	}
	switch cs.Mode() {
	case ModeAuthorize:
		if cs.signer == nil {
			return fmt.Errorf("%w: authorize mode without a signer", ErrIllegalMode)
		}
		req, err := SignRequest(cs.signer, loc.Program, loc.Resource, args)
		if err != nil {
			return err
		}
		cs.auth.Push(req)
		resp, err := callee.evaluateRequest(child, req)
		if err != nil {
			return err
		}
		outputs = resp.Outputs
	case ModeEvaluate, ModeExecute, ModeEstimate:
		if synth, ok := regs.Backend().(*algebra.Synthesizer); ok {
			if outputs, err = synthesizeExternalCall(callee, child, synth, loc, args); err != nil {
				return err
			}
			break
		}
		req, err := cs.auth.Next()
		if err != nil {
			return err
		}
		if err := checkCallMatchesRequest(req, loc, args); err != nil {
			return err
		}
		resp, err := callee.evaluateRequest(child, req)
		if err != nil {
			return err
		}
		outputs = resp.Outputs
	default:
		return fmt.Errorf("%w: cannot call in %s mode", ErrIllegalMode, cs.Mode())
	}
	return storeCallOutputs(regs, ins, outputs)
}

// checkCallMatchesRequest verifies the next authorized request is the one
// this call instruction expects.
func checkCallMatchesRequest(req *Request, loc Locator, args []Value) error {
	if req.Program != loc.Program || req.Function != loc.Resource {
		return fmt.Errorf("%w: call targets %s, next request is for %s/%s",
			ErrAuthorizationDesync, loc, req.Program, req.Function)
	}
	if len(req.Inputs) != len(args) {
		return fmt.Errorf("%w: call passes %d arguments, request carries %d",
			ErrAuthorizationDesync, len(args), len(req.Inputs))
	}
	for i, arg := range args {
		equal, comparable := valuesEqual(arg, req.Inputs[i])
		if comparable && !equal {
			return fmt.Errorf("%w: argument %d of call to %s differs from the authorized input",
				ErrAuthorizationDesync, i, loc)
		}
	}
	return nil
}

func storeCallOutputs(regs *Registers, ins Instruction, outputs []Value) error {
	if len(outputs) != len(ins.Destinations) {
		return fmt.Errorf("%w: %s returned %d outputs for %d destinations",
			ErrArityMismatch, ins.Callee, len(outputs), len(ins.Destinations))
	}
	for i, out := range outputs {
		if err := regs.Store(ins.Destinations[i], out); err != nil {
			return err
		}
	}
	return nil
}
