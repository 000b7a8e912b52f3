package types

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestProgramIDValidate(t *testing.T) {
	c := qt.New(t)

	for _, valid := range []string{"token.zvm", "my_program.zvm", "a.zvm", "v2_pool.zvm"} {
		id, err := ParseProgramID(valid)
		c.Assert(err, qt.IsNil, qt.Commentf("id %q", valid))
		c.Assert(id.String(), qt.Equals, valid)
	}

	for _, invalid := range []string{
		"",
		"token",
		"token.eth",
		".zvm",
		"Token.zvm",
		"2token.zvm",
		"to-ken.zvm",
		"token.zvm.zvm",
	} {
		_, err := ParseProgramID(invalid)
		c.Assert(err, qt.IsNotNil, qt.Commentf("id %q", invalid))
	}
}

func TestProgramIDAddress(t *testing.T) {
	c := qt.New(t)

	a := ProgramID("token.zvm").Address()
	b := ProgramID("wallet.zvm").Address()
	c.Assert(a, qt.Not(qt.Equals), b)
	// addresses are deterministic
	c.Assert(ProgramID("token.zvm").Address(), qt.Equals, a)
	c.Assert(ProgramID("token.zvm").Name(), qt.Equals, "token")
}
