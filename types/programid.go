package types

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ProgramID identifies a deployed program. It is composed of a lowercase
// name and the network domain, separated by a dot: "token.zvm".
type ProgramID string

// ParseProgramID validates and returns a ProgramID from its string form.
func ParseProgramID(s string) (ProgramID, error) {
	id := ProgramID(s)
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// Validate checks the name and domain of the program identifier.
func (p ProgramID) Validate() error {
	name, domain, found := strings.Cut(string(p), ".")
	if !found {
		return fmt.Errorf("program id %q is missing the %q domain", p, ProgramDomain)
	}
	if domain != ProgramDomain {
		return fmt.Errorf("program id %q has domain %q, expected %q", p, domain, ProgramDomain)
	}
	if len(name) == 0 {
		return fmt.Errorf("program id %q has an empty name", p)
	}
	for i, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return fmt.Errorf("program name %q starts with a digit", name)
			}
		default:
			return fmt.Errorf("program name %q contains invalid character %q", name, c)
		}
	}
	return nil
}

// Name returns the name part of the identifier, without the domain.
func (p ProgramID) Name() string {
	name, _, _ := strings.Cut(string(p), ".")
	return name
}

func (p ProgramID) String() string {
	return string(p)
}

// Address derives the deterministic address of the program, as the last 20
// bytes of the keccak256 hash of its identifier.
func (p ProgramID) Address() common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(p)))
}
