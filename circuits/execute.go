package circuits

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/zvmlabs/zvm-sandbox/log"
	"github.com/zvmlabs/zvm-sandbox/state"
	"github.com/zvmlabs/zvm-sandbox/vm"
)

// Trace collects the transitions of one execution in completion order:
// nested calls finish, and are collected, before their caller.
type Trace struct {
	transitions []*vm.Transition
}

func (t *Trace) Collect(tr *vm.Transition) {
	t.transitions = append(t.transitions, tr)
}

// Transitions returns the collected transitions in completion order.
func (t *Trace) Transitions() []*vm.Transition {
	return t.transitions
}

// Commit appends the transition commitments of the trace to the state
// tree, in completion order.
func (t *Trace) Commit(st *state.State) error {
	for _, tr := range t.transitions {
		if err := st.AddTransition(tr.Request.TCM); err != nil {
			return fmt.Errorf("failed to commit transition for %s/%s: %w",
				tr.Request.Program, tr.Request.Function, err)
		}
	}
	return nil
}

// Execution is the proof-ready product of executing an authorization: the
// native response and trace, the compiled constraint system and the
// witness that satisfies it.
type Execution struct {
	Response    *vm.Response
	Trace       *Trace
	Constraints constraint.ConstraintSystem
	Witness     witness.Witness
}

// PublicWitness returns the public part of the execution witness.
func (e *Execution) PublicWitness() (witness.Witness, error) {
	return e.Witness.Public()
}

// Execute runs an authorization in execute mode: a native replay computes
// the response and the witness values, then a single compile pass
// synthesizes the constraints, consuming the authorization request by
// request in the same order the replay did.
func Execute(process *vm.Process, auth *vm.Authorization) (*Execution, error) {
	first, resp, trace, ccs, err := synthesize(process, auth, vm.ModeExecute)
	if err != nil {
		return nil, err
	}
	assignment, err := assign(first, resp)
	if err != nil {
		return nil, err
	}
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("failed to build witness: %w", err)
	}
	log.Debugw("executed authorization",
		"program", string(first.Program), "function", first.Function,
		"transitions", len(trace.transitions), "constraints", ccs.GetNbConstraints())
	return &Execution{Response: resp, Trace: trace, Constraints: ccs, Witness: w}, nil
}

// Estimate synthesizes the constraint system of an authorization and
// returns its size, discarding the witness.
func Estimate(process *vm.Process, auth *vm.Authorization) (int, error) {
	_, _, _, ccs, err := synthesize(process, auth, vm.ModeEstimate)
	if err != nil {
		return 0, err
	}
	return ccs.GetNbConstraints(), nil
}

func synthesize(process *vm.Process, auth *vm.Authorization, mode vm.Mode) (
	*vm.Request, *vm.Response, *Trace, constraint.ConstraintSystem, error) {
	first, err := auth.PeekNext()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	stack, err := process.Stack(first.Program)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	trace := &Trace{}
	replay := vm.NewCallStack(mode, auth).WithSink(trace)
	resp, err := stack.EvaluateFunction(replay)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	circuit, err := newExecutionCircuit(stack, vm.NewCallStack(mode, auth), first)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to synthesize circuit: %w", err)
	}
	if !auth.Done() {
		return nil, nil, nil, nil, fmt.Errorf("%w: synthesis left %d of %d requests unconsumed",
			vm.ErrAuthorizationDesync, auth.Len()-auth.Consumed(), auth.Len())
	}
	// the top-level transition completes last
	if n := len(trace.transitions); n > 0 {
		trace.transitions[n-1].Constraints = ccs.GetNbConstraints()
	}
	return first, resp, trace, ccs, nil
}
