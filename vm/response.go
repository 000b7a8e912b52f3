package vm

import (
	"fmt"
	"math/big"

	multiposeidon "github.com/zvmlabs/zvm-sandbox/crypto/hash/poseidon"
	"github.com/zvmlabs/zvm-sandbox/types"
)

// Response is the result of one authorized function invocation. It binds
// the outputs to the request through the transition commitment: each
// output identifier hashes the commitment, the output position and the
// output value.
type Response struct {
	NetworkID   uint16
	Program     types.ProgramID
	Function    string
	NumInputs   int
	TVK         *big.Int
	TCM         *big.Int
	Outputs     []Value
	OutputTypes []ValueType
	// OutputRegisters names the register each output was resolved from,
	// nil for outputs declared over literal, program id or caller operands.
	OutputRegisters []*Register
	OutputIDs       []*big.Int
}

// NewResponse assembles and checks the response for an invocation.
func NewResponse(program types.ProgramID, function string, numInputs int,
	tvk, tcm *big.Int, outputs []Value, outputTypes []ValueType,
	outputRegisters []*Register) (*Response, error) {
	if len(outputs) != len(outputTypes) {
		return nil, fmt.Errorf("%w: %s/%s declares %d outputs, produced %d",
			ErrArityMismatch, program, function, len(outputTypes), len(outputs))
	}
	if len(outputRegisters) != len(outputs) {
		return nil, fmt.Errorf("%w: %s/%s declares %d outputs, %d originating registers",
			ErrArityMismatch, program, function, len(outputs), len(outputRegisters))
	}
	r := &Response{
		NetworkID:       types.NetworkID,
		Program:         program,
		Function:        function,
		NumInputs:       numInputs,
		TVK:             new(big.Int).Set(tvk),
		TCM:             new(big.Int).Set(tcm),
		Outputs:         outputs,
		OutputTypes:     outputTypes,
		OutputRegisters: outputRegisters,
		OutputIDs:       make([]*big.Int, len(outputs)),
	}
	for i, out := range outputs {
		if !valueMatchesType(out, outputTypes[i]) {
			return nil, fmt.Errorf("%w: output %d of %s/%s is %s, declared %s",
				ErrTypeMismatch, i, program, function, out.Type(), outputTypes[i])
		}
		fields, err := out.ToFields()
		if err != nil {
			return nil, fmt.Errorf("output %d of %s/%s: %w", i, program, function, err)
		}
		preimage := append([]*big.Int{r.TCM, big.NewInt(int64(numInputs + i))}, fields...)
		if r.OutputIDs[i], err = multiposeidon.MultiPoseidon(preimage...); err != nil {
			return nil, fmt.Errorf("failed to hash output %d of %s/%s: %w", i, program, function, err)
		}
	}
	return r, nil
}
