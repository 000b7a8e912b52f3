package vm

import (
	"fmt"

	"github.com/zvmlabs/zvm-sandbox/crypto/ethereum"
	"github.com/zvmlabs/zvm-sandbox/types"
)

// Mode selects how a call stack treats requests and call instructions.
type Mode uint8

const (
	// ModeAuthorize walks the call graph natively, signing a request for
	// every function invocation and pushing it onto the authorization.
	ModeAuthorize Mode = iota
	// ModeEvaluate replays an authorization natively, consuming its
	// requests destructively.
	ModeEvaluate
	// ModeExecute produces the circuit witness: the native replay peeks
	// at requests and replays replicas, leaving the authorization intact
	// for the synthesis pass that consumes it.
	ModeExecute
	// ModeEstimate behaves as ModeExecute but the synthesized constraint
	// system is only counted, never proven.
	ModeEstimate
)

func (m Mode) String() string {
	switch m {
	case ModeAuthorize:
		return "authorize"
	case ModeEvaluate:
		return "evaluate"
	case ModeExecute:
		return "execute"
	case ModeEstimate:
		return "estimate"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Transition is the record of one proven function invocation.
type Transition struct {
	Request  *Request
	Response *Response
	// Constraints is the size of the whole compiled circuit, stamped on
	// the top-level transition only: nested calls are inlined into their
	// caller's circuit, so their transitions carry zero here.
	Constraints int
}

// TraceSink collects transitions during execution.
type TraceSink interface {
	Collect(t *Transition)
}

// CallStack binds a mode, the authorization feeding it and the current
// call depth. Child stacks share the authorization and the sink, so
// requests consumed by a callee are observed by every frame.
type CallStack struct {
	mode   Mode
	auth   *Authorization
	signer *ethereum.SignKeys
	sink   TraceSink
	depth  int
}

func NewCallStack(mode Mode, auth *Authorization) *CallStack {
	return &CallStack{mode: mode, auth: auth}
}

func (cs *CallStack) Mode() Mode                    { return cs.mode }
func (cs *CallStack) Authorization() *Authorization { return cs.auth }

// WithSigner attaches the key that signs nested requests in authorize
// mode.
func (cs *CallStack) WithSigner(signer *ethereum.SignKeys) *CallStack {
	cs.signer = signer
	return cs
}

// WithSink attaches a transition sink to the stack.
func (cs *CallStack) WithSink(sink TraceSink) *CallStack {
	cs.sink = sink
	return cs
}

func (cs *CallStack) collect(t *Transition) {
	if cs.sink != nil {
		cs.sink.Collect(t)
	}
}

// child returns a stack for a nested invocation, one frame deeper.
func (cs *CallStack) child() (*CallStack, error) {
	if cs.depth+1 > types.MaxCallDepth {
		return nil, fmt.Errorf("%w: depth %d", ErrCallDepthExceeded, cs.depth+1)
	}
	return &CallStack{mode: cs.mode, auth: cs.auth, signer: cs.signer,
		sink: cs.sink, depth: cs.depth + 1}, nil
}

// Replicate returns a stack over a replica of the authorization, used to
// replay requests natively without consuming them from the original.
func (cs *CallStack) Replicate() *CallStack {
	return &CallStack{mode: cs.mode, auth: cs.auth.Replicate(), signer: cs.signer,
		sink: cs.sink, depth: cs.depth}
}
