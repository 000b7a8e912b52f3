package vm

import "fmt"

// Stack is a program loaded into a process: the program itself plus the
// register typing of every callable, computed once at load time so
// evaluation and synthesis never re-derive types.
type Stack struct {
	process       *Process
	program       *Program
	registerTypes map[string]map[Register]ValueType
}

func newStack(process *Process, program *Program) (*Stack, error) {
	s := &Stack{
		process:       process,
		program:       program,
		registerTypes: make(map[string]map[Register]ValueType),
	}
	for _, c := range program.Closures() {
		rt, err := s.buildRegisterTypes(&c.code)
		if err != nil {
			return nil, fmt.Errorf("closure %s/%s: %w", program.ID, c.Name, err)
		}
		s.registerTypes[c.Name] = rt
	}
	for _, f := range program.Functions() {
		rt, err := s.buildRegisterTypes(&f.code)
		if err != nil {
			return nil, fmt.Errorf("function %s/%s: %w", program.ID, f.Name, err)
		}
		s.registerTypes[f.Name] = rt
	}
	return s, nil
}

func (s *Stack) Program() *Program { return s.program }

// RegisterTypes returns the register typing of a callable.
func (s *Stack) RegisterTypes(name string) (map[Register]ValueType, error) {
	rt, ok := s.registerTypes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownFunction, s.program.ID, name)
	}
	return rt, nil
}

// buildRegisterTypes type-checks a callable body and returns the type of
// every register it declares or assigns.
func (s *Stack) buildRegisterTypes(body *code) (map[Register]ValueType, error) {
	rt := make(map[Register]ValueType)
	for _, in := range body.Inputs {
		if _, dup := rt[in.Register]; dup {
			return nil, fmt.Errorf("input register %s declared twice", in.Register)
		}
		rt[in.Register] = in.Type
	}
	for _, ins := range body.Instructions {
		if err := ins.checkArity(); err != nil {
			return nil, err
		}
		if ins.Callee != nil {
			if err := s.typeCall(rt, ins); err != nil {
				return nil, err
			}
			continue
		}
		inTypes := make([]ValueType, len(ins.Operands))
		for i, op := range ins.Operands {
			t, err := operandType(rt, op)
			if err != nil {
				return nil, err
			}
			inTypes[i] = t
		}
		outType, err := ins.outputType(inTypes)
		if err != nil {
			return nil, err
		}
		if err := declare(rt, ins.Destinations[0], outType); err != nil {
			return nil, err
		}
	}
	for i, out := range body.Outputs {
		t, err := operandType(rt, out.Operand)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		if t != out.Type {
			return nil, fmt.Errorf("%w: output %d is %s, declared %s",
				ErrTypeMismatch, i, t, out.Type)
		}
	}
	return rt, nil
}

// typeCall checks a call instruction against the callee signature and
// declares its destinations.
func (s *Stack) typeCall(rt map[Register]ValueType, ins Instruction) error {
	inTypes, outTypes, err := s.calleeSignature(*ins.Callee)
	if err != nil {
		return err
	}
	if len(ins.Operands) != len(inTypes) {
		return fmt.Errorf("%w: %s takes %d inputs, call passes %d",
			ErrArityMismatch, ins.Callee, len(inTypes), len(ins.Operands))
	}
	if len(ins.Destinations) != len(outTypes) {
		return fmt.Errorf("%w: %s returns %d outputs, call binds %d",
			ErrArityMismatch, ins.Callee, len(outTypes), len(ins.Destinations))
	}
	for i, op := range ins.Operands {
		t, err := operandType(rt, op)
		if err != nil {
			return err
		}
		if t != inTypes[i] {
			return fmt.Errorf("%w: argument %d of %s is %s, expected %s",
				ErrTypeMismatch, i, ins.Callee, t, inTypes[i])
		}
	}
	for i, dst := range ins.Destinations {
		if err := declare(rt, dst, outTypes[i]); err != nil {
			return err
		}
	}
	return nil
}

// calleeSignature resolves the input and output types of a call target.
// A call inside this program targets one of its closures; a call naming
// another program targets one of that program's functions.
func (s *Stack) calleeSignature(loc Locator) ([]ValueType, []ValueType, error) {
	if loc.Program == s.program.ID {
		c, err := s.program.Closure(loc.Resource)
		if err != nil {
			return nil, nil, err
		}
		return c.InputTypes(), c.OutputTypes(), nil
	}
	callee, err := s.process.stack(loc.Program)
	if err != nil {
		return nil, nil, err
	}
	f, err := callee.program.Function(loc.Resource)
	if err != nil {
		return nil, nil, err
	}
	return f.InputTypes(), f.OutputTypes(), nil
}

func declare(rt map[Register]ValueType, dst Register, t ValueType) error {
	if _, set := rt[dst]; set {
		return fmt.Errorf("%w: %s", ErrRegisterSet, dst)
	}
	rt[dst] = t
	return nil
}

func operandType(rt map[Register]ValueType, op Operand) (ValueType, error) {
	switch op.Kind {
	case OperandLiteral:
		return op.Literal.Type.ValueType(), nil
	case OperandRegister:
		t, ok := rt[op.Register]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrRegisterUnset, op.Register)
		}
		return t, nil
	case OperandProgramID, OperandCaller:
		return ValueTypeAddress, nil
	default:
		return 0, fmt.Errorf("unknown operand kind %d", op.Kind)
	}
}

// localCallGraph returns the closure-to-closure call edges of a program,
// used for the acyclicity check at load time.
func localCallGraph(p *Program) map[string][]string {
	graph := make(map[string][]string)
	edges := func(name string, body *code) {
		graph[name] = nil
		for _, ins := range body.Instructions {
			if ins.Callee != nil && ins.Callee.Program == p.ID {
				graph[name] = append(graph[name], ins.Callee.Resource)
			}
		}
	}
	for _, c := range p.Closures() {
		edges(c.Name, &c.code)
	}
	for _, f := range p.Functions() {
		edges(f.Name, &f.code)
	}
	return graph
}

// checkLocalCalls rejects cycles among a program's closures.
func checkLocalCalls(p *Program) error {
	graph := localCallGraph(p)
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(graph))
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("%w: %s/%s calls itself", ErrCallCycle, p.ID, name)
		case done:
			return nil
		}
		state[name] = visiting
		for _, callee := range graph[name] {
			if err := visit(callee); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}
	for _, f := range p.Functions() {
		if err := visit(f.Name); err != nil {
			return err
		}
	}
	for _, c := range p.Closures() {
		if err := visit(c.Name); err != nil {
			return err
		}
	}
	return nil
}
