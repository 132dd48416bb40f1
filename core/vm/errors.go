package vm

import (
	"errors"
	"fmt"
)

// Halting errors. These terminate the current frame and consume its
// remaining gas, but are recoverable by the caller: a CALL whose callee
// halts simply observes a zero on its stack.
var (
	ErrOutOfGas                 = errors.New("out of gas")
	ErrStackUnderflow           = errors.New("stack underflow")
	ErrStackOverflow            = errors.New("stack overflow")
	ErrInvalidJump              = errors.New("invalid jump destination")
	ErrInvalidOpCode            = errors.New("invalid opcode")
	ErrWriteProtection          = errors.New("write protection")
	ErrReturnDataOutOfBounds    = errors.New("return data out of bounds")
	ErrMemoryAccessOutOfBounds  = errors.New("memory access out of bounds")
	ErrGasUintOverflow          = errors.New("gas uint64 overflow")
	ErrMaxCodeSizeExceeded      = errors.New("max code size exceeded")
	ErrMaxInitCodeSizeExceeded  = errors.New("max initcode size exceeded")
	ErrContractAddressCollision = errors.New("contract address collision")
	ErrInsufficientBalance      = errors.New("insufficient balance for transfer")
	ErrNonceUintOverflow        = errors.New("nonce uint64 overflow")
	ErrInvalidCode              = errors.New("invalid code: must not begin with 0xef")
)

// ErrExecutionReverted terminates the current frame but, unlike a halt,
// refunds the remaining gas and carries the revert payload back to the
// caller.
var ErrExecutionReverted = errors.New("execution reverted")

// Fatal errors. These indicate a broken engine invariant rather than a
// fault of the executing contract, and propagate as ordinary Go errors
// out of the entry points instead of folding into an ExecutionResult.
var (
	ErrDepthExceeded   = errors.New("call depth limit exceeded")
	ErrEmptyFrameStack = errors.New("pop from empty frame stack")
)

// ErrInvalidOpcodeMsg wraps ErrInvalidOpCode with the offending byte so
// traces name the opcode that stopped execution.
type ErrInvalidOpcodeMsg struct {
	op OpCode
}

func (e *ErrInvalidOpcodeMsg) Error() string {
	return fmt.Sprintf("invalid opcode: %s", e.op)
}

func (e *ErrInvalidOpcodeMsg) Unwrap() error {
	return ErrInvalidOpCode
}
