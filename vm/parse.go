package vm

import (
	"fmt"
	"strings"

	"github.com/zvmlabs/zvm-sandbox/types"
)

// The textual program form is line based. A program opens with
// "program <id>;", followed by "closure <name>:" and "function <name>:"
// sections holding input declarations, instructions and output
// declarations, one statement per line with a single trailing semicolon.
// "//" starts a comment running to the end of the line.

// ParseProgram parses the textual form of a program.
func ParseProgram(src string) (*Program, error) {
	lines := splitStatements(src)
	if len(lines) == 0 {
		return nil, fmt.Errorf("empty program source")
	}
	first, err := cutSemicolon(lines[0].text)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", lines[0].number, err)
	}
	idToken, found := strings.CutPrefix(first, "program ")
	if !found {
		return nil, fmt.Errorf("line %d: program source must open with a program declaration", lines[0].number)
	}
	id, err := types.ParseProgramID(strings.TrimSpace(idToken))
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", lines[0].number, err)
	}
	p, err := NewProgram(id)
	if err != nil {
		return nil, err
	}

	var current *code
	var isFunction bool
	flush := func() error {
		if current == nil {
			return nil
		}
		if isFunction {
			return p.AddFunction(&Function{code: *current})
		}
		return p.AddClosure(&Closure{code: *current})
	}
	for _, line := range lines[1:] {
		if name, found := strings.CutPrefix(line.text, "closure "); found {
			name, err := cutColon(name)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line.number, err)
			}
			if err := flush(); err != nil {
				return nil, err
			}
			current, isFunction = &code{Name: name}, false
			continue
		}
		if name, found := strings.CutPrefix(line.text, "function "); found {
			name, err := cutColon(name)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line.number, err)
			}
			if err := flush(); err != nil {
				return nil, err
			}
			current, isFunction = &code{Name: name}, true
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("line %d: statement outside a function or closure", line.number)
		}
		if err := parseStatement(current, id, line.text); err != nil {
			return nil, fmt.Errorf("line %d: %w", line.number, err)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseInstruction parses a single instruction line. Call targets must be
// written in the qualified "program/resource" form; the bare local form is
// only meaningful inside a program source.
func ParseInstruction(line string) (Instruction, error) {
	return parseInstructionIn("", strings.TrimSpace(line))
}

func parseStatement(c *code, id types.ProgramID, line string) error {
	stmt, err := cutSemicolon(line)
	if err != nil {
		return err
	}
	if rest, found := strings.CutPrefix(stmt, "input "); found {
		reg, t, err := parseAsType(rest)
		if err != nil {
			return err
		}
		r, ok := ParseRegister(reg)
		if !ok {
			return fmt.Errorf("invalid input register %q", reg)
		}
		c.Inputs = append(c.Inputs, Input{Register: r, Type: t})
		return nil
	}
	if rest, found := strings.CutPrefix(stmt, "output "); found {
		operand, t, err := parseAsType(rest)
		if err != nil {
			return err
		}
		op, err := ParseOperand(operand)
		if err != nil {
			return err
		}
		c.Outputs = append(c.Outputs, Output{Operand: op, Type: t})
		return nil
	}
	ins, err := parseInstructionIn(id, stmt+";")
	if err != nil {
		return err
	}
	c.Instructions = append(c.Instructions, ins)
	return nil
}

func parseInstructionIn(current types.ProgramID, line string) (Instruction, error) {
	stmt, err := cutSemicolon(line)
	if err != nil {
		return Instruction{}, err
	}
	tokens := strings.Fields(stmt)
	if len(tokens) == 0 {
		return Instruction{}, fmt.Errorf("empty instruction")
	}
	op, ok := OpcodeForName(tokens[0])
	if !ok {
		return Instruction{}, fmt.Errorf("%w: %q", ErrUnknownOpcode, tokens[0])
	}
	ins := Instruction{Opcode: op}
	rest := tokens[1:]
	if op == OpCall {
		if len(rest) == 0 {
			return Instruction{}, fmt.Errorf("call without a callee")
		}
		callee, err := parseLocator(current, rest[0])
		if err != nil {
			return Instruction{}, err
		}
		ins.Callee = &callee
		rest = rest[1:]
	}
	operands, destinations, err := splitInto(rest)
	if err != nil {
		return Instruction{}, err
	}
	for _, tok := range operands {
		operand, err := ParseOperand(tok)
		if err != nil {
			return Instruction{}, err
		}
		ins.Operands = append(ins.Operands, operand)
	}
	for _, tok := range destinations {
		dst, ok := ParseRegister(tok)
		if !ok {
			return Instruction{}, fmt.Errorf("invalid destination register %q", tok)
		}
		ins.Destinations = append(ins.Destinations, dst)
	}
	if err := ins.checkArity(); err != nil {
		return Instruction{}, err
	}
	return ins, nil
}

func parseLocator(current types.ProgramID, tok string) (Locator, error) {
	program, resource, qualified := strings.Cut(tok, "/")
	if !qualified {
		if current == "" {
			return Locator{}, fmt.Errorf("call target %q must be qualified as program/resource", tok)
		}
		return Locator{Program: current, Resource: tok}, nil
	}
	id, err := types.ParseProgramID(program)
	if err != nil {
		return Locator{}, err
	}
	if resource == "" {
		return Locator{}, fmt.Errorf("call target %q has an empty resource", tok)
	}
	return Locator{Program: id, Resource: resource}, nil
}

// splitInto separates operand tokens from destination tokens at the
// "into" keyword. Instructions without destinations omit it.
func splitInto(tokens []string) (operands, destinations []string, err error) {
	for i, tok := range tokens {
		if tok == "into" {
			if len(tokens[i+1:]) == 0 {
				return nil, nil, fmt.Errorf("nothing follows %q", "into")
			}
			return tokens[:i], tokens[i+1:], nil
		}
	}
	return tokens, nil, nil
}

func parseAsType(s string) (string, ValueType, error) {
	operand, typeName, found := strings.Cut(s, " as ")
	if !found {
		return "", 0, fmt.Errorf("declaration %q is missing %q", s, "as")
	}
	t, ok := ParseValueType(strings.TrimSpace(typeName))
	if !ok {
		return "", 0, fmt.Errorf("invalid type %q", strings.TrimSpace(typeName))
	}
	return strings.TrimSpace(operand), t, nil
}

func cutSemicolon(s string) (string, error) {
	stmt, found := strings.CutSuffix(s, ";")
	if !found {
		return "", fmt.Errorf("statement %q is missing its terminating semicolon", s)
	}
	if strings.Contains(stmt, ";") {
		return "", fmt.Errorf("statement %q holds more than one semicolon", s)
	}
	return strings.TrimSpace(stmt), nil
}

func cutColon(s string) (string, error) {
	name, found := strings.CutSuffix(strings.TrimSpace(s), ":")
	if !found {
		return "", fmt.Errorf("section header %q is missing its colon", s)
	}
	return strings.TrimSpace(name), nil
}

type sourceLine struct {
	number int
	text   string
}

func splitStatements(src string) []sourceLine {
	var out []sourceLine
	for i, raw := range strings.Split(src, "\n") {
		line := raw
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, sourceLine{number: i + 1, text: line})
	}
	return out
}

// String renders the program in its canonical textual form, parseable by
// ParseProgram.
func (p *Program) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "program %s;\n", p.ID)
	writeBody := func(kind string, c *code) {
		fmt.Fprintf(&b, "\n%s %s:\n", kind, c.Name)
		for _, in := range c.Inputs {
			fmt.Fprintf(&b, "    input %s as %s;\n", in.Register, in.Type)
		}
		for _, ins := range c.Instructions {
			fmt.Fprintf(&b, "    %s\n", formatInstruction(ins, p.ID))
		}
		for _, out := range c.Outputs {
			fmt.Fprintf(&b, "    output %s as %s;\n", out.Operand, out.Type)
		}
	}
	for _, c := range p.closures {
		writeBody("closure", &c.code)
	}
	for _, f := range p.funcs {
		writeBody("function", &f.code)
	}
	return b.String()
}

// formatInstruction renders an instruction, shortening call targets inside
// their own program to the bare local form.
func formatInstruction(ins Instruction, current types.ProgramID) string {
	if ins.Callee == nil || ins.Callee.Program != current {
		return ins.String()
	}
	local := ins
	loc := *ins.Callee
	local.Callee = nil
	s := local.String()
	return s[:len("call")] + " " + loc.Resource + s[len("call"):]
}
