package vm

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// Decode errors reported in strict mode.
var (
	ErrTruncatedPush = errors.New("truncated push immediate")
	ErrUnknownOpcode = errors.New("unknown opcode")
)

// Operation is one decoded instruction. For PUSH1..PUSH32 the immediate
// is captured as a big-endian word; Width is the declared immediate
// size in bytes, zero for everything else.
type Operation struct {
	Opcode    OpCode
	PC        uint64
	Immediate uint256.Int
	Width     int
}

func (op *Operation) String() string {
	if op.Width > 0 {
		return fmt.Sprintf("%s 0x%s", op.Opcode, op.Immediate.Hex()[2:])
	}
	return op.Opcode.String()
}

// Program is an immutable decoded contract. It keeps the raw bytecode
// alongside the instruction stream so Bytecode round-trips exactly, and
// precomputes the JUMPDEST positions that exclude push data.
type Program struct {
	code []byte
	ops  []Operation

	// opIndex maps a code offset to the index in ops of the
	// instruction starting there, or -1 for immediate data bytes.
	opIndex []int32

	jumpdests []bool
}

// DecodeLenient decodes bytecode the way the interpreter sees it:
// unknown bytes become undefined instructions that halt on execution,
// and a PUSH running past the end of code is zero padded.
func DecodeLenient(code []byte) *Program {
	p, _ := decode(code)
	return p
}

// DecodeStrict decodes bytecode and additionally reports every unknown
// opcode and truncated PUSH it encounters. The returned Program is
// always usable; the error joins one entry per defect.
func DecodeStrict(code []byte) (*Program, error) {
	return decode(code)
}

func decode(code []byte) (*Program, error) {
	p := &Program{
		code:      code,
		opIndex:   make([]int32, len(code)),
		jumpdests: make([]bool, len(code)),
	}
	var defects []error
	for pc := 0; pc < len(code); {
		op := OpCode(code[pc])
		inst := Operation{Opcode: op, PC: uint64(pc)}
		p.opIndex[pc] = int32(len(p.ops))

		switch {
		case op == JUMPDEST:
			p.jumpdests[pc] = true
		case op.IsPush():
			width := op.PushSize()
			inst.Width = width
			end := pc + 1 + width
			if end > len(code) {
				defects = append(defects, fmt.Errorf("%w: %s at pc %d needs %d bytes, code ends after %d",
					ErrTruncatedPush, op, pc, width, len(code)-pc-1))
				padded := make([]byte, width)
				copy(padded, code[pc+1:])
				inst.Immediate.SetBytes(padded)
			} else {
				inst.Immediate.SetBytes(code[pc+1 : end])
			}
			for i := pc + 1; i < end && i < len(code); i++ {
				p.opIndex[i] = -1
			}
			pc = end
			p.ops = append(p.ops, inst)
			continue
		case opCodeNames[op] == "":
			defects = append(defects, fmt.Errorf("%w: 0x%02x at pc %d", ErrUnknownOpcode, byte(op), pc))
		}
		p.ops = append(p.ops, inst)
		pc++
	}
	return p, errors.Join(defects...)
}

// OpAt returns the instruction starting at pc, or nil when pc is past
// the end of code or points into push immediate data.
func (p *Program) OpAt(pc uint64) *Operation {
	if pc >= uint64(len(p.code)) {
		return nil
	}
	idx := p.opIndex[pc]
	if idx < 0 {
		return nil
	}
	return &p.ops[idx]
}

// IsJumpdest reports whether pc is a JUMPDEST instruction outside of
// push data.
func (p *Program) IsJumpdest(pc uint64) bool {
	return pc < uint64(len(p.jumpdests)) && p.jumpdests[pc]
}

// CodeSize returns the length of the raw bytecode.
func (p *Program) CodeSize() int {
	return len(p.code)
}

// Code returns the raw bytecode. Callers must not modify it.
func (p *Program) Code() []byte {
	return p.code
}

// Ops returns the decoded instruction stream.
func (p *Program) Ops() []Operation {
	return p.ops
}

// Bytecode re-encodes the program. The result is byte-identical to the
// decoded input.
func (p *Program) Bytecode() []byte {
	out := make([]byte, len(p.code))
	copy(out, p.code)
	return out
}
