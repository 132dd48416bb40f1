package vm

import (
	"errors"

	"github.com/corevm/corevm/core/types"
)

// Status classifies how a top-level execution finished.
type Status byte

const (
	// StatusSuccess means the outermost frame ran to completion.
	StatusSuccess Status = iota
	// StatusRevert means the outermost frame executed REVERT. State
	// changes are rolled back but unused gas is returned.
	StatusRevert
	// StatusHalt means the outermost frame hit an unrecoverable
	// condition (out of gas, bad jump, ...). All gas is consumed.
	StatusHalt
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRevert:
		return "revert"
	case StatusHalt:
		return "halt"
	default:
		return "unknown"
	}
}

// SuccessReason records which instruction ended a successful execution.
type SuccessReason byte

const (
	ReasonStopped SuccessReason = iota
	ReasonReturned
	ReasonSelfDestructed
)

func (r SuccessReason) String() string {
	switch r {
	case ReasonStopped:
		return "stopped"
	case ReasonReturned:
		return "returned"
	case ReasonSelfDestructed:
		return "self destructed"
	default:
		return "unknown"
	}
}

// HaltReason identifies the condition that halted a frame.
type HaltReason byte

const (
	HaltOutOfGas HaltReason = iota
	HaltStackUnderflow
	HaltStackOverflow
	HaltInvalidJump
	HaltOpcodeNotFound
	HaltStaticViolation
	HaltMemoryOutOfBounds
	HaltReturnDataOutOfBounds
	HaltCodeSizeExceeded
	HaltInitCodeSizeExceeded
	HaltAddressCollision
	HaltInvalidCode
	HaltInvalidOperation
)

func (r HaltReason) String() string {
	switch r {
	case HaltOutOfGas:
		return "out of gas"
	case HaltStackUnderflow:
		return "stack underflow"
	case HaltStackOverflow:
		return "stack overflow"
	case HaltInvalidJump:
		return "invalid jump"
	case HaltOpcodeNotFound:
		return "opcode not found"
	case HaltStaticViolation:
		return "static call state change"
	case HaltMemoryOutOfBounds:
		return "memory access out of bounds"
	case HaltReturnDataOutOfBounds:
		return "return data out of bounds"
	case HaltCodeSizeExceeded:
		return "code size limit exceeded"
	case HaltInitCodeSizeExceeded:
		return "initcode size limit exceeded"
	case HaltAddressCollision:
		return "contract address collision"
	case HaltInvalidCode:
		return "invalid deployed code"
	default:
		return "invalid operation"
	}
}

// haltReasonFor maps a frame-terminating error onto its HaltReason.
// ErrExecutionReverted never reaches this: reverts are classified
// before halts.
func haltReasonFor(err error) HaltReason {
	switch {
	case errors.Is(err, ErrOutOfGas), errors.Is(err, ErrGasUintOverflow):
		return HaltOutOfGas
	case errors.Is(err, ErrStackUnderflow):
		return HaltStackUnderflow
	case errors.Is(err, ErrStackOverflow):
		return HaltStackOverflow
	case errors.Is(err, ErrInvalidJump):
		return HaltInvalidJump
	case errors.Is(err, ErrInvalidOpCode):
		return HaltOpcodeNotFound
	case errors.Is(err, ErrWriteProtection):
		return HaltStaticViolation
	case errors.Is(err, ErrMemoryAccessOutOfBounds):
		return HaltMemoryOutOfBounds
	case errors.Is(err, ErrReturnDataOutOfBounds):
		return HaltReturnDataOutOfBounds
	case errors.Is(err, ErrMaxCodeSizeExceeded):
		return HaltCodeSizeExceeded
	case errors.Is(err, ErrMaxInitCodeSizeExceeded):
		return HaltInitCodeSizeExceeded
	case errors.Is(err, ErrContractAddressCollision):
		return HaltAddressCollision
	case errors.Is(err, ErrInvalidCode):
		return HaltInvalidCode
	default:
		return HaltInvalidOperation
	}
}

// ExecutionResult is the outcome of one top-level Call or Create.
type ExecutionResult struct {
	Status        Status
	SuccessReason SuccessReason // valid when Status == StatusSuccess
	HaltReason    HaltReason    // valid when Status == StatusHalt

	Output      []byte
	GasUsed     uint64
	GasRefunded uint64
	Logs        []*types.Log

	// CreatedAddress is set for successful Create executions.
	CreatedAddress types.Address
}

// Failed reports whether execution ended in revert or halt.
func (r *ExecutionResult) Failed() bool {
	return r.Status != StatusSuccess
}
