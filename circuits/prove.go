package circuits

import (
	"fmt"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
)

// Setup runs the Groth16 setup for a compiled execution circuit. The keys
// are bound to the constraint system, so every distinct function shape
// needs its own setup.
func Setup(ccs constraint.ConstraintSystem) (groth16.ProvingKey, groth16.VerifyingKey, error) {
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to run groth16 setup: %w", err)
	}
	return pk, vk, nil
}

// Prove produces a Groth16 proof for an executed authorization.
func Prove(e *Execution, pk groth16.ProvingKey) (groth16.Proof, error) {
	proof, err := groth16.Prove(e.Constraints, pk, e.Witness)
	if err != nil {
		return nil, fmt.Errorf("failed to prove execution: %w", err)
	}
	return proof, nil
}

// Verify checks a Groth16 proof against the public witness of the
// execution it claims.
func Verify(proof groth16.Proof, vk groth16.VerifyingKey, public witness.Witness) error {
	if err := groth16.Verify(proof, vk, public); err != nil {
		return fmt.Errorf("failed to verify proof: %w", err)
	}
	return nil
}
