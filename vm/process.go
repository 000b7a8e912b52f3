package vm

import (
	"fmt"
	"sync"

	"github.com/zvmlabs/zvm-sandbox/crypto/ethereum"
	"github.com/zvmlabs/zvm-sandbox/log"
	"github.com/zvmlabs/zvm-sandbox/types"
)

// Process holds the loaded programs. Programs are loaded one at a time and
// may only call into programs loaded before them, which keeps the
// cross-program call graph acyclic without a global analysis.
type Process struct {
	mu     sync.RWMutex
	stacks map[types.ProgramID]*Stack
	order  []types.ProgramID
}

func NewProcess() *Process {
	return &Process{stacks: make(map[types.ProgramID]*Stack)}
}

// AddProgram type-checks a program and loads it. Every program it calls
// must already be loaded, and its own closures must not call each other in
// a cycle.
func (p *Process) AddProgram(prog *Program) error {
	if err := prog.ID.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, loaded := p.stacks[prog.ID]; loaded {
		return fmt.Errorf("program %s is already loaded", prog.ID)
	}
	for _, callee := range prog.externalCallees() {
		if _, loaded := p.stacks[callee]; !loaded {
			return fmt.Errorf("%w: %s calls %s, which is not loaded",
				ErrUnknownProgram, prog.ID, callee)
		}
	}
	if err := checkLocalCalls(prog); err != nil {
		return err
	}
	stack, err := newStack(p, prog)
	if err != nil {
		return err
	}
	p.stacks[prog.ID] = stack
	p.order = append(p.order, prog.ID)
	log.Debugw("loaded program", "id", string(prog.ID),
		"functions", len(prog.Functions()), "closures", len(prog.Closures()))
	return nil
}

// Stack returns the loaded stack of a program.
func (p *Process) Stack(id types.ProgramID) (*Stack, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stack(id)
}

// stack looks up a program without locking. Callers hold p.mu.
func (p *Process) stack(id types.ProgramID) (*Stack, error) {
	s, ok := p.stacks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, id)
	}
	return s, nil
}

// Programs returns the loaded program IDs in load order.
func (p *Process) Programs() []types.ProgramID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]types.ProgramID, len(p.order))
	copy(out, p.order)
	return out
}

// Authorize signs the requests for invoking program/function with the
// given inputs.
func (p *Process) Authorize(signer *ethereum.SignKeys, program types.ProgramID,
	function string, inputs []Value) (*Authorization, error) {
	stack, err := p.Stack(program)
	if err != nil {
		return nil, err
	}
	return stack.Authorize(signer, function, inputs)
}

// Evaluate replays an authorization natively and returns the response of
// its top-level invocation. The authorization must be drained exactly: a
// leftover request means it does not describe this call graph.
func (p *Process) Evaluate(auth *Authorization) (*Response, error) {
	first, err := auth.PeekNext()
	if err != nil {
		return nil, err
	}
	stack, err := p.Stack(first.Program)
	if err != nil {
		return nil, err
	}
	resp, err := stack.EvaluateFunction(NewCallStack(ModeEvaluate, auth))
	if err != nil {
		return nil, err
	}
	if !auth.Done() {
		return nil, fmt.Errorf("%w: evaluation left %d of %d requests unconsumed",
			ErrAuthorizationDesync, auth.Len()-auth.Consumed(), auth.Len())
	}
	return resp, nil
}
