package vm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zvmlabs/zvm-sandbox/types"
)

// The binary layout is little-endian for the opcode tag and uvarint for
// every count and register index. Strings and program ids are length
// prefixed. Literal payloads are fixed width: 32-byte big-endian fields,
// 1-byte booleans, 20-byte addresses.

// MarshalBinary encodes the program.
func (p *Program) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	writeString(&buf, string(p.ID))
	writeUvarint(&buf, uint64(len(p.closures)))
	for _, c := range p.closures {
		if err := writeCode(&buf, &c.code); err != nil {
			return nil, err
		}
	}
	writeUvarint(&buf, uint64(len(p.funcs)))
	for _, f := range p.funcs {
		if err := writeCode(&buf, &f.code); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a program, running the same structural checks as
// programmatic construction.
func (p *Program) UnmarshalBinary(data []byte) error {
	r := &byteReader{data: data}
	id, err := r.readString()
	if err != nil {
		return err
	}
	decoded, err := NewProgram(types.ProgramID(id))
	if err != nil {
		return err
	}
	nClosures, err := r.readUvarint()
	if err != nil {
		return err
	}
	for i := uint64(0); i < nClosures; i++ {
		var c Closure
		if err := r.readCode(&c.code); err != nil {
			return err
		}
		if err := decoded.AddClosure(&c); err != nil {
			return err
		}
	}
	nFuncs, err := r.readUvarint()
	if err != nil {
		return err
	}
	for i := uint64(0); i < nFuncs; i++ {
		var f Function
		if err := r.readCode(&f.code); err != nil {
			return err
		}
		if err := decoded.AddFunction(&f); err != nil {
			return err
		}
	}
	if !r.empty() {
		return fmt.Errorf("%w: %d trailing bytes after program", ErrTruncated, r.remaining())
	}
	*p = *decoded
	return nil
}

// MarshalBinary encodes a single instruction.
func (ins Instruction) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeInstruction(&buf, ins); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a single instruction, rejecting trailing bytes.
func (ins *Instruction) UnmarshalBinary(data []byte) error {
	r := &byteReader{data: data}
	decoded, err := r.readInstruction()
	if err != nil {
		return err
	}
	if !r.empty() {
		return fmt.Errorf("%w: %d trailing bytes after instruction", ErrTruncated, r.remaining())
	}
	*ins = decoded
	return nil
}

func writeCode(buf *bytes.Buffer, c *code) error {
	writeString(buf, c.Name)
	writeUvarint(buf, uint64(len(c.Inputs)))
	for _, in := range c.Inputs {
		writeUvarint(buf, uint64(in.Register))
		buf.WriteByte(byte(in.Type))
	}
	writeUvarint(buf, uint64(len(c.Instructions)))
	for _, ins := range c.Instructions {
		if err := writeInstruction(buf, ins); err != nil {
			return err
		}
	}
	writeUvarint(buf, uint64(len(c.Outputs)))
	for _, out := range c.Outputs {
		if err := writeOperand(buf, out.Operand); err != nil {
			return err
		}
		buf.WriteByte(byte(out.Type))
	}
	return nil
}

func writeInstruction(buf *bytes.Buffer, ins Instruction) error {
	if err := ins.checkArity(); err != nil {
		return err
	}
	var tag [2]byte
	binary.LittleEndian.PutUint16(tag[:], uint16(ins.Opcode))
	buf.Write(tag[:])
	if ins.Opcode == OpCall {
		writeString(buf, string(ins.Callee.Program))
		writeString(buf, ins.Callee.Resource)
		writeUvarint(buf, uint64(len(ins.Operands)))
	}
	for _, op := range ins.Operands {
		if err := writeOperand(buf, op); err != nil {
			return err
		}
	}
	if ins.Opcode == OpCall {
		writeUvarint(buf, uint64(len(ins.Destinations)))
	}
	for _, dst := range ins.Destinations {
		writeUvarint(buf, uint64(dst))
	}
	return nil
}

func writeOperand(buf *bytes.Buffer, op Operand) error {
	buf.WriteByte(byte(op.Kind))
	switch op.Kind {
	case OperandLiteral:
		writeLiteral(buf, op.Literal)
	case OperandRegister:
		writeUvarint(buf, uint64(op.Register))
	case OperandProgramID:
		writeString(buf, string(op.ProgramID))
	case OperandCaller:
	default:
		return fmt.Errorf("cannot encode operand kind %d", op.Kind)
	}
	return nil
}

func writeLiteral(buf *bytes.Buffer, l Literal) {
	buf.WriteByte(byte(l.Type))
	switch l.Type {
	case TypeField:
		var payload [32]byte
		l.Field().FillBytes(payload[:])
		buf.Write(payload[:])
	case TypeBoolean:
		if l.Boolean() {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case TypeAddress:
		addr := l.Address()
		buf.Write(addr.Bytes())
	}
}

func writeString(buf *bytes.Buffer, s string) {
	writeUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

// byteReader is a cursor over an encoded buffer. Every read checks the
// remaining length and fails with ErrTruncated past the end.
type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) empty() bool    { return r.pos >= len(r.data) }
func (r *byteReader) remaining() int { return len(r.data) - r.pos }

func (r *byteReader) take(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, n, r.remaining())
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *byteReader) readByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *byteReader) readUvarint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("%w: invalid varint", ErrTruncated)
	}
	r.pos += n
	return v, nil
}

func (r *byteReader) readString() (string, error) {
	n, err := r.readUvarint()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *byteReader) readCode(c *code) error {
	var err error
	if c.Name, err = r.readString(); err != nil {
		return err
	}
	nInputs, err := r.readUvarint()
	if err != nil {
		return err
	}
	for i := uint64(0); i < nInputs; i++ {
		reg, err := r.readUvarint()
		if err != nil {
			return err
		}
		t, err := r.readValueType()
		if err != nil {
			return err
		}
		c.Inputs = append(c.Inputs, Input{Register: Register(reg), Type: t})
	}
	nInstructions, err := r.readUvarint()
	if err != nil {
		return err
	}
	for i := uint64(0); i < nInstructions; i++ {
		ins, err := r.readInstruction()
		if err != nil {
			return err
		}
		c.Instructions = append(c.Instructions, ins)
	}
	nOutputs, err := r.readUvarint()
	if err != nil {
		return err
	}
	for i := uint64(0); i < nOutputs; i++ {
		op, err := r.readOperand()
		if err != nil {
			return err
		}
		t, err := r.readValueType()
		if err != nil {
			return err
		}
		c.Outputs = append(c.Outputs, Output{Operand: op, Type: t})
	}
	return nil
}

func (r *byteReader) readInstruction() (Instruction, error) {
	tagBytes, err := r.take(2)
	if err != nil {
		return Instruction{}, err
	}
	op := Opcode(binary.LittleEndian.Uint16(tagBytes))
	if !op.valid() {
		return Instruction{}, fmt.Errorf("%w: %d", ErrUnknownOpcode, uint16(op))
	}
	ins := Instruction{Opcode: op}
	nOperands := uint64(opSpecs[op].arity)
	nDestinations := uint64(1)
	if op == OpCall {
		program, err := r.readString()
		if err != nil {
			return Instruction{}, err
		}
		id, err := types.ParseProgramID(program)
		if err != nil {
			return Instruction{}, err
		}
		resource, err := r.readString()
		if err != nil {
			return Instruction{}, err
		}
		ins.Callee = &Locator{Program: id, Resource: resource}
		if nOperands, err = r.readUvarint(); err != nil {
			return Instruction{}, err
		}
	}
	for i := uint64(0); i < nOperands; i++ {
		operand, err := r.readOperand()
		if err != nil {
			return Instruction{}, err
		}
		ins.Operands = append(ins.Operands, operand)
	}
	if op == OpCall {
		if nDestinations, err = r.readUvarint(); err != nil {
			return Instruction{}, err
		}
	}
	for i := uint64(0); i < nDestinations; i++ {
		dst, err := r.readUvarint()
		if err != nil {
			return Instruction{}, err
		}
		ins.Destinations = append(ins.Destinations, Register(dst))
	}
	return ins, nil
}

func (r *byteReader) readOperand() (Operand, error) {
	kind, err := r.readByte()
	if err != nil {
		return Operand{}, err
	}
	switch OperandKind(kind) {
	case OperandLiteral:
		l, err := r.readLiteral()
		if err != nil {
			return Operand{}, err
		}
		return LiteralOperand(l), nil
	case OperandRegister:
		reg, err := r.readUvarint()
		if err != nil {
			return Operand{}, err
		}
		return RegisterOperand(Register(reg)), nil
	case OperandProgramID:
		s, err := r.readString()
		if err != nil {
			return Operand{}, err
		}
		id, err := types.ParseProgramID(s)
		if err != nil {
			return Operand{}, err
		}
		return ProgramIDOperand(id), nil
	case OperandCaller:
		return CallerOperand(), nil
	default:
		return Operand{}, fmt.Errorf("invalid operand kind %d", kind)
	}
}

func (r *byteReader) readLiteral() (Literal, error) {
	t, err := r.readByte()
	if err != nil {
		return Literal{}, err
	}
	switch LiteralType(t) {
	case TypeField:
		payload, err := r.take(32)
		if err != nil {
			return Literal{}, err
		}
		return NewFieldLiteral(new(big.Int).SetBytes(payload)), nil
	case TypeBoolean:
		b, err := r.readByte()
		if err != nil {
			return Literal{}, err
		}
		if b > 1 {
			return Literal{}, fmt.Errorf("invalid boolean payload %d", b)
		}
		return NewBooleanLiteral(b == 1), nil
	case TypeAddress:
		payload, err := r.take(common.AddressLength)
		if err != nil {
			return Literal{}, err
		}
		return NewAddressLiteral(common.BytesToAddress(payload)), nil
	default:
		return Literal{}, fmt.Errorf("invalid literal type %d", t)
	}
}

func (r *byteReader) readValueType() (ValueType, error) {
	b, err := r.readByte()
	if err != nil {
		return 0, err
	}
	t := ValueType(b)
	if t > ValueTypeRecord {
		return 0, fmt.Errorf("invalid value type %d", b)
	}
	return t, nil
}
