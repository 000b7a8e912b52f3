package types

const (
	// NetworkID identifies the network that requests and responses are bound
	// to. A request signed for one network is rejected on any other.
	NetworkID uint16 = 3
	// ProgramDomain is the mandatory domain suffix of a program identifier,
	// e.g. "token.zvm".
	ProgramDomain = "zvm"
	// MaxCallDepth bounds the depth of nested program calls. The call graph
	// is validated statically at deploy time, so hitting this bound at
	// runtime indicates a programming error rather than a deep program.
	MaxCallDepth = 31
	// NumOpcodes is the number of opcodes in the instruction set.
	NumOpcodes = 17
)
