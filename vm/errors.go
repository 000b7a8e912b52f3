package vm

import (
	"errors"

	"github.com/zvmlabs/zvm-sandbox/algebra"
)

// Error kinds surfaced by the executor. Every failure wraps exactly one of
// these so callers can discriminate with errors.Is.
var (
	// ErrArityMismatch reports an input or output count that does not match
	// the declared signature.
	ErrArityMismatch = errors.New("arity mismatch")
	// ErrRegisterSet reports a second store to a single-assignment register.
	ErrRegisterSet = errors.New("register already set")
	// ErrRegisterUnset reports a load from a register never written.
	ErrRegisterUnset = errors.New("register not set")
	// ErrTypeMismatch reports a value that does not match a declared type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrDivisionByZero reports division or inversion by the additive
	// identity.
	ErrDivisionByZero = algebra.ErrDivisionByZero
	// ErrInvalidSignature reports a request whose signature does not recover
	// to its caller.
	ErrInvalidSignature = errors.New("invalid request signature")
	// ErrNetworkMismatch reports a request bound to another network.
	ErrNetworkMismatch = errors.New("network id mismatch")
	// ErrIllegalMode reports a call stack mode that is not legal for the
	// requested operation.
	ErrIllegalMode = errors.New("illegal call stack mode")
	// ErrAuthorizationDrained reports a request pull from an exhausted
	// authorization.
	ErrAuthorizationDrained = errors.New("authorization exhausted")
	// ErrAuthorizationDesync reports a recorded request that does not match
	// the call being replayed, or leftover requests after execution.
	ErrAuthorizationDesync = errors.New("authorization desynchronized")
	// ErrUnknownOpcode reports an unrecognized opcode tag or mnemonic.
	ErrUnknownOpcode = errors.New("unknown opcode")
	// ErrUnknownProgram reports a program id not present in the process.
	ErrUnknownProgram = errors.New("unknown program")
	// ErrUnknownFunction reports a function name not present in a program.
	ErrUnknownFunction = errors.New("unknown function")
	// ErrUnknownClosure reports a closure name not present in a program.
	ErrUnknownClosure = errors.New("unknown closure")
	// ErrCallCycle reports a cycle in the call graph at deploy time.
	ErrCallCycle = errors.New("call graph cycle")
	// ErrCallDepthExceeded reports nested calls beyond the configured bound.
	ErrCallDepthExceeded = errors.New("maximum call depth exceeded")
	// ErrTruncated reports a binary stream ending mid-instruction.
	ErrTruncated = errors.New("truncated instruction stream")
)
