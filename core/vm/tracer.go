package vm

import (
	"github.com/holiman/uint256"

	"github.com/corevm/corevm/core/types"
)

// EVMLogger captures execution traces step by step.
type EVMLogger interface {
	// CaptureStart is called at the beginning of a top-level call.
	CaptureStart(from, to types.Address, create bool, input []byte, gas uint64, value *uint256.Int)
	// CaptureState is called before each instruction executes.
	CaptureState(pc uint64, op OpCode, gas, cost uint64, stack *Stack, memory *Memory, depth int)
	// CaptureFault is called when an instruction halts its frame.
	CaptureFault(pc uint64, op OpCode, gas uint64, depth int, err error)
	// CaptureEnd is called at the end of a top-level call.
	CaptureEnd(output []byte, gasUsed uint64, err error)
}

// StructLogEntry is a single step recorded by StructLogTracer.
type StructLogEntry struct {
	Pc      uint64
	Op      OpCode
	Gas     uint64
	GasCost uint64
	Depth   int
	Stack   []uint256.Int
	MemSize int
	Err     error
}

// StructLogTracer collects a step-by-step trace of execution,
// primarily for tests and the CLI runner.
type StructLogTracer struct {
	Entries []StructLogEntry

	output  []byte
	err     error
	gasUsed uint64
}

// NewStructLogTracer returns a new StructLogTracer.
func NewStructLogTracer() *StructLogTracer {
	return &StructLogTracer{}
}

func (t *StructLogTracer) CaptureStart(from, to types.Address, create bool, input []byte, gas uint64, value *uint256.Int) {
}

// CaptureState records one instruction step with a copy of the operand
// stack.
func (t *StructLogTracer) CaptureState(pc uint64, op OpCode, gas, cost uint64, stack *Stack, memory *Memory, depth int) {
	stackCopy := make([]uint256.Int, stack.Len())
	copy(stackCopy, stack.Data())
	t.Entries = append(t.Entries, StructLogEntry{
		Pc:      pc,
		Op:      op,
		Gas:     gas,
		GasCost: cost,
		Depth:   depth,
		Stack:   stackCopy,
		MemSize: memory.Len(),
	})
}

// CaptureFault marks the most recent step with the halting error.
func (t *StructLogTracer) CaptureFault(pc uint64, op OpCode, gas uint64, depth int, err error) {
	if n := len(t.Entries); n > 0 && t.Entries[n-1].Pc == pc {
		t.Entries[n-1].Err = err
		return
	}
	t.Entries = append(t.Entries, StructLogEntry{Pc: pc, Op: op, Gas: gas, Depth: depth, Err: err})
}

// CaptureEnd records the outcome of the traced execution.
func (t *StructLogTracer) CaptureEnd(output []byte, gasUsed uint64, err error) {
	t.output = output
	t.gasUsed = gasUsed
	t.err = err
}

// Output returns the return data from the traced execution.
func (t *StructLogTracer) Output() []byte { return t.output }

// GasUsed returns the total gas consumed by the traced execution.
func (t *StructLogTracer) GasUsed() uint64 { return t.gasUsed }

// Error returns the error from the traced execution, if any.
func (t *StructLogTracer) Error() error { return t.err }
