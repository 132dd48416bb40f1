package vm

import (
	"github.com/holiman/uint256"

	"github.com/corevm/corevm/core/types"
)

// callRequest is a nested call or create staged by an instruction
// handler. The run loop picks it up after the instruction returns and
// pushes the child frame, keeping dispatch iterative.
type callRequest struct {
	kind    OpCode // CALL, CALLCODE, DELEGATECALL, STATICCALL, CREATE or CREATE2
	gas     uint64
	address types.Address
	value   uint256.Int
	input   []byte
	salt    uint256.Int // CREATE2 only

	// caller memory region receiving the callee's return data
	retOffset uint64
	retSize   uint64
}

// Frame is one level of the execution stack: the decoded code being
// run together with its operand stack, memory, program counter and gas
// allowance.
type Frame struct {
	Program *Program
	Stack   *Stack
	Memory  *Memory

	pc  uint64
	Gas uint64

	// Address is the state context the code runs in, Caller the
	// account that invoked it. CodeAddress tracks where the code was
	// loaded from and differs from Address under CALLCODE and
	// DELEGATECALL.
	Address     types.Address
	Caller      types.Address
	CodeAddress types.Address
	Value       uint256.Int

	Input  []byte
	Static bool
	Depth  int

	// Create frames deploy their return data as code instead of
	// handing it to the caller.
	IsCreate bool

	// caller memory region for the child's output, from the CALL that
	// spawned this frame's children
	retOffset uint64
	retSize   uint64

	// returnData holds the output of the most recent completed child
	// call, served by RETURNDATASIZE and RETURNDATACOPY.
	returnData []byte

	pendingCall *callRequest

	gasAllotted uint64 // initial allowance, for accounting
	snapshot    int    // state snapshot taken when the frame started
}

func newFrame(program *Program, caller, address, codeAddr types.Address, value *uint256.Int, input []byte, gas uint64, depth int, static bool) *Frame {
	f := &Frame{
		Program:     program,
		Stack:       NewStack(),
		Memory:      NewMemory(),
		Gas:         gas,
		gasAllotted: gas,
		Address:     address,
		Caller:      caller,
		CodeAddress: codeAddr,
		Input:       input,
		Depth:       depth,
		Static:      static,
	}
	if value != nil {
		f.Value = *value
	}
	return f
}

// UseGas deducts amount from the frame's remaining gas and reports
// whether enough was available.
func (f *Frame) UseGas(amount uint64) bool {
	if f.Gas < amount {
		return false
	}
	f.Gas -= amount
	return true
}

// PC returns the current program counter.
func (f *Frame) PC() uint64 {
	return f.pc
}

// GasUsed returns the gas consumed so far by this frame alone.
func (f *Frame) GasUsed() uint64 {
	return f.gasAllotted - f.Gas
}

// Code returns the raw bytecode the frame is executing.
func (f *Frame) Code() []byte {
	if f.Program == nil {
		return nil
	}
	return f.Program.Code()
}

// ReturnData returns the output of the frame's most recent child call.
func (f *Frame) ReturnData() []byte {
	return f.returnData
}
