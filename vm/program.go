package vm

import (
	"fmt"

	"github.com/zvmlabs/zvm-sandbox/types"
)

// Input declares a callable input: the register it binds and its type.
// Input registers are assigned densely from r0 before any instruction runs.
type Input struct {
	Register Register
	Type     ValueType
}

// Output declares a callable output: the operand producing it and its type.
type Output struct {
	Operand Operand
	Type    ValueType
}

// code is the body shared by closures and functions.
type code struct {
	Name         string
	Inputs       []Input
	Instructions []Instruction
	Outputs      []Output
}

func (c *code) InputTypes() []ValueType {
	out := make([]ValueType, len(c.Inputs))
	for i, in := range c.Inputs {
		out[i] = in.Type
	}
	return out
}

func (c *code) OutputTypes() []ValueType {
	out := make([]ValueType, len(c.Outputs))
	for i, o := range c.Outputs {
		out[i] = o.Type
	}
	return out
}

// OutputRegisters returns the register each output originates from, with a
// nil entry for outputs declared over literal, program id or caller
// operands.
func (c *code) OutputRegisters() []*Register {
	out := make([]*Register, len(c.Outputs))
	for i, o := range c.Outputs {
		if o.Operand.Kind == OperandRegister {
			r := o.Operand.Register
			out[i] = &r
		}
	}
	return out
}

// checkInputs verifies the input declarations bind r0..rN-1 in order.
func (c *code) checkInputs() error {
	for i, in := range c.Inputs {
		if in.Register != Register(i) {
			return fmt.Errorf("input %d of %s binds %s, expected r%d",
				i, c.Name, in.Register, i)
		}
	}
	return nil
}

// Closure is a callable without a protocol surface: it is invoked only
// through call instructions, inherits the caller's context and leaves no
// request of its own.
type Closure struct {
	code
}

// Function is a top-level callable. Every function invocation, whether from
// a user or from a call instruction in another program, is authorized by a
// signed request and answered with a response.
type Function struct {
	code
}

// Program is a named collection of closures and functions. Closure and
// function names share one namespace, and both slices preserve their
// declaration order for deterministic serialization.
type Program struct {
	ID       types.ProgramID
	closures []*Closure
	funcs    []*Function
	byName   map[string]any
}

func NewProgram(id types.ProgramID) (*Program, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return &Program{ID: id, byName: make(map[string]any)}, nil
}

func (p *Program) AddClosure(c *Closure) error {
	if err := p.checkName(c.Name); err != nil {
		return err
	}
	if err := c.checkInputs(); err != nil {
		return err
	}
	p.closures = append(p.closures, c)
	p.byName[c.Name] = c
	return nil
}

func (p *Program) AddFunction(f *Function) error {
	if err := p.checkName(f.Name); err != nil {
		return err
	}
	if err := f.checkInputs(); err != nil {
		return err
	}
	p.funcs = append(p.funcs, f)
	p.byName[f.Name] = f
	return nil
}

func (p *Program) checkName(name string) error {
	if name == "" {
		return fmt.Errorf("program %s: empty callable name", p.ID)
	}
	if _, taken := p.byName[name]; taken {
		return fmt.Errorf("program %s already defines %q", p.ID, name)
	}
	return nil
}

func (p *Program) Closure(name string) (*Closure, error) {
	if c, ok := p.byName[name].(*Closure); ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrUnknownClosure, p.ID, name)
}

func (p *Program) Function(name string) (*Function, error) {
	if f, ok := p.byName[name].(*Function); ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrUnknownFunction, p.ID, name)
}

// Closures returns the closures in declaration order.
func (p *Program) Closures() []*Closure { return p.closures }

// Functions returns the functions in declaration order.
func (p *Program) Functions() []*Function { return p.funcs }

// externalCallees lists the distinct foreign programs referenced by call
// instructions, in first-reference order.
func (p *Program) externalCallees() []types.ProgramID {
	seen := make(map[types.ProgramID]bool)
	var out []types.ProgramID
	visit := func(body *code) {
		for _, ins := range body.Instructions {
			if ins.Callee == nil || ins.Callee.Program == p.ID {
				continue
			}
			if !seen[ins.Callee.Program] {
				seen[ins.Callee.Program] = true
				out = append(out, ins.Callee.Program)
			}
		}
	}
	for _, c := range p.closures {
		visit(&c.code)
	}
	for _, f := range p.funcs {
		visit(&f.code)
	}
	return out
}
