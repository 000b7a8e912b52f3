// Package circuits turns authorized invocations into gnark constraint
// systems and Groth16 proofs. The circuit re-runs the function through the
// same instruction code that native evaluation uses, with a backend that
// emits constraints instead of computing field values.
package circuits

import (
	"fmt"

	"github.com/consensys/gnark/frontend"

	"github.com/zvmlabs/zvm-sandbox/algebra"
	"github.com/zvmlabs/zvm-sandbox/vm"
)

// ExecutionCircuit proves one top-level function invocation. The private
// witness carries the function inputs, the public witness the outputs.
// Nested function calls are inlined: one circuit covers the whole call
// graph of the invocation.
type ExecutionCircuit struct {
	Inputs  []frontend.Variable
	Outputs []frontend.Variable `gnark:",public"`

	stack      *vm.Stack
	callStack  *vm.CallStack
	inputTypes []vm.LiteralType
}

// newExecutionCircuit shapes a circuit for the function named by the first
// request of the authorization. Record inputs have no circuit form and are
// rejected here.
func newExecutionCircuit(stack *vm.Stack, cs *vm.CallStack, req *vm.Request) (*ExecutionCircuit, error) {
	f, err := stack.Program().Function(req.Function)
	if err != nil {
		return nil, err
	}
	inTypes := f.InputTypes()
	c := &ExecutionCircuit{
		Inputs:     make([]frontend.Variable, len(inTypes)),
		Outputs:    make([]frontend.Variable, len(f.OutputTypes())),
		stack:      stack,
		callStack:  cs,
		inputTypes: make([]vm.LiteralType, len(inTypes)),
	}
	for i, t := range inTypes {
		lt, ok := t.LiteralType()
		if !ok {
			return nil, fmt.Errorf("input %d of %s/%s: %s inputs have no circuit form",
				i, req.Program, req.Function, t)
		}
		c.inputTypes[i] = lt
	}
	for i, t := range f.OutputTypes() {
		if _, ok := t.LiteralType(); !ok {
			return nil, fmt.Errorf("output %d of %s/%s: %s outputs have no circuit form",
				i, req.Program, req.Function, t)
		}
	}
	return c, nil
}

// Define synthesizes the invocation. It consumes the authorization the
// circuit was shaped with, so it runs exactly once per compile.
func (c *ExecutionCircuit) Define(api frontend.API) error {
	be := algebra.NewSynthesizer(api)
	inputs := make([]vm.Value, len(c.Inputs))
	for i := range c.Inputs {
		inputs[i] = vm.NewFuture(c.Inputs[i], c.inputTypes[i])
	}
	outputs, err := c.stack.SynthesizeFunction(c.callStack, be, inputs)
	if err != nil {
		return err
	}
	if len(outputs) != len(c.Outputs) {
		return fmt.Errorf("synthesis produced %d outputs, circuit declares %d",
			len(outputs), len(c.Outputs))
	}
	for i, out := range outputs {
		switch v := out.(type) {
		case *vm.Future:
			api.AssertIsEqual(c.Outputs[i], v.Elem)
		case *vm.Plaintext:
			api.AssertIsEqual(c.Outputs[i], v.Literal.ToField())
		default:
			return fmt.Errorf("output %d has no circuit form", i)
		}
	}
	return nil
}

// assign builds the witness assignment from the signed request and the
// natively computed response.
func assign(req *vm.Request, resp *vm.Response) (*ExecutionCircuit, error) {
	w := &ExecutionCircuit{
		Inputs:  make([]frontend.Variable, len(req.Inputs)),
		Outputs: make([]frontend.Variable, len(resp.Outputs)),
	}
	for i, in := range req.Inputs {
		fields, err := in.ToFields()
		if err != nil || len(fields) != 1 {
			return nil, fmt.Errorf("input %d of %s/%s has no single-field witness form",
				i, req.Program, req.Function)
		}
		w.Inputs[i] = fields[0]
	}
	for i, out := range resp.Outputs {
		fields, err := out.ToFields()
		if err != nil || len(fields) != 1 {
			return nil, fmt.Errorf("output %d of %s/%s has no single-field witness form",
				i, req.Program, req.Function)
		}
		w.Outputs[i] = fields[0]
	}
	return w, nil
}
