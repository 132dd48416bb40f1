// Package vm implements a 256-bit stack machine executing Ethereum
// contract bytecode under per-opcode gas accounting, with message
// calls handled on an explicit frame stack rather than through Go
// recursion.
package vm

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/corevm/corevm/core/types"
	"github.com/corevm/corevm/crypto"
)

var cancunJumpTable = newCancunJumpTable()

// EVM executes decoded programs against a StateDB. One EVM instance
// handles one transaction at a time; it is not safe for concurrent
// use.
type EVM struct {
	Context   BlockContext
	TxContext TxContext
	Config    Config
	StateDB   StateDB

	table       *JumpTable
	precompiles map[types.Address]PrecompiledContract
	frames      []*Frame
}

// NewEVM returns an engine ready to execute calls against statedb at
// the Cancun rule set.
func NewEVM(blockCtx BlockContext, txCtx TxContext, statedb StateDB, cfg Config) *EVM {
	return &EVM{
		Context:     blockCtx,
		TxContext:   txCtx,
		Config:      cfg,
		StateDB:     statedb,
		table:       &cancunJumpTable,
		precompiles: PrecompiledContracts(),
	}
}

// Depth returns the current call depth.
func (evm *EVM) Depth() int {
	return len(evm.frames)
}

// Call executes the code at addr with the given input, transferring
// value from caller. The error return is reserved for conditions that
// invalidate the whole execution; contract-level failures come back
// inside the ExecutionResult.
func (evm *EVM) Call(caller, addr types.Address, input []byte, gas uint64, value *uint256.Int) (*ExecutionResult, error) {
	if value != nil && !value.IsZero() && evm.StateDB.GetBalance(caller).Lt(value) {
		return nil, ErrInsufficientBalance
	}
	snapshot := evm.StateDB.Snapshot()
	if value != nil && !value.IsZero() {
		if !evm.StateDB.Exist(addr) {
			evm.StateDB.CreateAccount(addr)
		}
		evm.StateDB.SubBalance(caller, value)
		evm.StateDB.AddBalance(addr, value)
	}
	if tracer := evm.Config.Tracer; tracer != nil {
		tracer.CaptureStart(caller, addr, false, input, gas, value)
	}

	if p, ok := evm.precompiles[addr]; ok {
		res := evm.runPrecompiledTop(p, input, gas, snapshot)
		evm.captureEnd(res)
		return res, nil
	}
	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		res := &ExecutionResult{Status: StatusSuccess, SuccessReason: ReasonStopped}
		evm.captureEnd(res)
		return res, nil
	}

	f := newFrame(DecodeLenient(code), caller, addr, addr, value, input, gas, 0, false)
	f.snapshot = snapshot
	res, err := evm.run(f, gas)
	evm.captureEnd(res)
	return res, err
}

// StaticCall executes the code at addr in read-only mode. Value
// transfer and every state-modifying instruction are forbidden for the
// entire sub-tree.
func (evm *EVM) StaticCall(caller, addr types.Address, input []byte, gas uint64) (*ExecutionResult, error) {
	snapshot := evm.StateDB.Snapshot()
	if tracer := evm.Config.Tracer; tracer != nil {
		tracer.CaptureStart(caller, addr, false, input, gas, nil)
	}

	if p, ok := evm.precompiles[addr]; ok {
		res := evm.runPrecompiledTop(p, input, gas, snapshot)
		evm.captureEnd(res)
		return res, nil
	}
	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		res := &ExecutionResult{Status: StatusSuccess, SuccessReason: ReasonStopped}
		evm.captureEnd(res)
		return res, nil
	}

	f := newFrame(DecodeLenient(code), caller, addr, addr, nil, input, gas, 0, true)
	f.snapshot = snapshot
	res, err := evm.run(f, gas)
	evm.captureEnd(res)
	return res, err
}

// Create deploys the contract produced by running initcode, at the
// address derived from the caller and its current nonce.
func (evm *EVM) Create(caller types.Address, initcode []byte, gas uint64, value *uint256.Int) (*ExecutionResult, error) {
	nonce := evm.StateDB.GetNonce(caller)
	if nonce+1 < nonce {
		return nil, ErrNonceUintOverflow
	}
	evm.StateDB.SetNonce(caller, nonce+1)
	addr := crypto.CreateAddress(caller, nonce)
	return evm.createAt(caller, initcode, gas, value, addr)
}

// Create2 deploys at the EIP-1014 address derived from the caller,
// salt and initcode hash.
func (evm *EVM) Create2(caller types.Address, initcode []byte, salt *uint256.Int, gas uint64, value *uint256.Int) (*ExecutionResult, error) {
	nonce := evm.StateDB.GetNonce(caller)
	if nonce+1 < nonce {
		return nil, ErrNonceUintOverflow
	}
	evm.StateDB.SetNonce(caller, nonce+1)
	addr := crypto.CreateAddress2(caller, salt.Bytes32(), crypto.Keccak256(initcode))
	return evm.createAt(caller, initcode, gas, value, addr)
}

func (evm *EVM) createAt(caller types.Address, initcode []byte, gas uint64, value *uint256.Int, addr types.Address) (*ExecutionResult, error) {
	if len(initcode) > MaxInitCodeSize {
		return &ExecutionResult{Status: StatusHalt, HaltReason: HaltInitCodeSizeExceeded, GasUsed: gas}, nil
	}
	if value != nil && !value.IsZero() && evm.StateDB.GetBalance(caller).Lt(value) {
		return nil, ErrInsufficientBalance
	}
	if tracer := evm.Config.Tracer; tracer != nil {
		tracer.CaptureStart(caller, addr, true, initcode, gas, value)
	}

	evm.StateDB.AddAddressToAccessList(addr)
	if evm.StateDB.GetNonce(addr) != 0 ||
		(evm.StateDB.GetCodeHash(addr) != (types.Hash{}) && evm.StateDB.GetCodeHash(addr) != types.EmptyCodeHash) {
		res := &ExecutionResult{Status: StatusHalt, HaltReason: HaltAddressCollision, GasUsed: gas}
		evm.captureEnd(res)
		return res, nil
	}

	snapshot := evm.StateDB.Snapshot()
	evm.StateDB.CreateAccount(addr)
	evm.StateDB.CreateContract(addr)
	evm.StateDB.SetNonce(addr, 1)
	if value != nil && !value.IsZero() {
		evm.StateDB.SubBalance(caller, value)
		evm.StateDB.AddBalance(addr, value)
	}

	f := newFrame(DecodeLenient(initcode), caller, addr, addr, value, nil, gas, 0, false)
	f.IsCreate = true
	f.snapshot = snapshot
	res, err := evm.run(f, gas)
	evm.captureEnd(res)
	return res, err
}

// run drives the frame stack until the root frame terminates. Nested
// calls are staged by the instruction handlers as pendingCall requests
// and turned into child frames here, so there is no Go recursion and
// the machine's full state is inspectable at any point.
func (evm *EVM) run(root *Frame, allotted uint64) (*ExecutionResult, error) {
	evm.frames = append(evm.frames[:0], root)
	for len(evm.frames) > 0 {
		f := evm.frames[len(evm.frames)-1]
		out, reason, err := evm.execFrame(f)

		if f.pendingCall != nil && err == nil {
			req := f.pendingCall
			f.pendingCall = nil
			if f.Depth+1 > MaxCallDepth {
				// A depth overflow means the 63/64 forwarding
				// invariant was broken upstream.
				return nil, ErrDepthExceeded
			}
			if err := evm.beginCall(f, req); err != nil {
				return nil, err
			}
			continue
		}

		// The frame reached a terminal state.
		if f.IsCreate && err == nil && reason != ReasonSelfDestructed {
			if derr := evm.depositCode(f, out); derr != nil {
				err, out = derr, nil
			}
		}
		if err != nil {
			evm.StateDB.RevertToSnapshot(f.snapshot)
			if !errors.Is(err, ErrExecutionReverted) {
				f.Gas = 0
			}
		}

		popped, perr := evm.popFrame()
		if perr != nil {
			return nil, perr
		}
		if len(evm.frames) == 0 {
			return evm.buildResult(popped, allotted, out, reason, err), nil
		}
		evm.finishChild(evm.frames[len(evm.frames)-1], popped, out, err)
	}
	return nil, ErrEmptyFrameStack
}

// execFrame runs instructions of f until it either reaches a terminal
// state or stages a nested call in f.pendingCall.
func (evm *EVM) execFrame(f *Frame) ([]byte, SuccessReason, error) {
	tracer := evm.Config.Tracer
	for {
		inst := f.Program.OpAt(f.pc)
		if inst == nil {
			// Running off the end of code is an implicit STOP.
			return nil, ReasonStopped, nil
		}
		op := evm.table[inst.Opcode]
		if op == nil {
			return nil, 0, evm.fault(f, inst, &ErrInvalidOpcodeMsg{op: inst.Opcode})
		}
		if f.Stack.Len() < op.minStack {
			return nil, 0, evm.fault(f, inst, ErrStackUnderflow)
		}
		if f.Stack.Len() > op.maxStack {
			return nil, 0, evm.fault(f, inst, ErrStackOverflow)
		}
		if f.Static && op.writes {
			return nil, 0, evm.fault(f, inst, ErrWriteProtection)
		}

		gasBefore := f.Gas
		if op.constantGas > 0 && !f.UseGas(op.constantGas) {
			return nil, 0, evm.fault(f, inst, ErrOutOfGas)
		}
		var memorySize uint64
		if op.memorySize != nil {
			size, overflow := op.memorySize(f.Stack)
			if overflow {
				return nil, 0, evm.fault(f, inst, ErrGasUintOverflow)
			}
			memorySize = toWordSize(size) * 32
			expansion, err := MemoryExpansionGas(uint64(f.Memory.Len()), memorySize)
			if err != nil {
				return nil, 0, evm.fault(f, inst, err)
			}
			if !f.UseGas(expansion) {
				return nil, 0, evm.fault(f, inst, ErrOutOfGas)
			}
		}
		if op.dynamicGas != nil {
			cost, err := op.dynamicGas(evm, f, memorySize)
			if err != nil {
				return nil, 0, evm.fault(f, inst, err)
			}
			if !f.UseGas(cost) {
				return nil, 0, evm.fault(f, inst, ErrOutOfGas)
			}
		}
		if memorySize > 0 {
			f.Memory.Resize(memorySize)
		}
		if tracer != nil {
			tracer.CaptureState(f.pc, inst.Opcode, gasBefore, gasBefore-f.Gas, f.Stack, f.Memory, f.Depth)
		}

		ret, err := op.execute(evm, f, inst)
		if err != nil {
			if errors.Is(err, ErrExecutionReverted) {
				return ret, 0, err
			}
			return nil, 0, evm.fault(f, inst, err)
		}
		if op.halts {
			switch inst.Opcode {
			case RETURN:
				return ret, ReasonReturned, nil
			case SELFDESTRUCT:
				return nil, ReasonSelfDestructed, nil
			default:
				return ret, ReasonStopped, nil
			}
		}
		if f.pendingCall != nil {
			f.pc += 1 + uint64(inst.Width)
			return nil, 0, nil
		}
		if !op.jumps {
			f.pc += 1 + uint64(inst.Width)
		}
	}
}

func (evm *EVM) fault(f *Frame, inst *Operation, err error) error {
	if tracer := evm.Config.Tracer; tracer != nil {
		tracer.CaptureFault(f.pc, inst.Opcode, f.Gas, f.Depth, err)
	}
	return err
}

func (evm *EVM) popFrame() (*Frame, error) {
	if len(evm.frames) == 0 {
		return nil, ErrEmptyFrameStack
	}
	f := evm.frames[len(evm.frames)-1]
	evm.frames = evm.frames[:len(evm.frames)-1]
	return f, nil
}

// beginCall turns a staged call request into a child frame, or
// resolves it in place when no sub-execution is needed (precompiles,
// empty code, insufficient balance).
func (evm *EVM) beginCall(parent *Frame, req *callRequest) error {
	if req.kind == CREATE || req.kind == CREATE2 {
		evm.beginCreate(parent, req)
		return nil
	}

	var (
		address  = parent.Address // state context of the child
		caller   = parent.Address
		value    = req.value
		codeAddr = req.address
		static   = parent.Static
	)
	switch req.kind {
	case CALL:
		address = req.address
	case STATICCALL:
		address = req.address
		static = true
	case DELEGATECALL:
		caller = parent.Caller
		value = parent.Value
	case CALLCODE:
		// context stays at parent.Address
	}

	transfersValue := req.kind == CALL && !req.value.IsZero()
	if (req.kind == CALL || req.kind == CALLCODE) && !req.value.IsZero() {
		if evm.StateDB.GetBalance(parent.Address).Lt(&req.value) {
			// No sub-execution: the forwarded gas comes straight back.
			parent.Gas += req.gas
			parent.returnData = nil
			parent.Stack.Push(new(uint256.Int))
			return nil
		}
	}

	snapshot := evm.StateDB.Snapshot()
	if transfersValue {
		if !evm.StateDB.Exist(req.address) {
			evm.StateDB.CreateAccount(req.address)
		}
		evm.StateDB.SubBalance(parent.Address, &req.value)
		evm.StateDB.AddBalance(req.address, &req.value)
	}

	if p, ok := evm.precompiles[req.address]; ok {
		out, gasLeft, err := runPrecompiled(p, req.input, req.gas)
		if err != nil {
			// Precompile failures become the caller's failure
			// sentinel; the forwarded gas is consumed.
			evm.StateDB.RevertToSnapshot(snapshot)
			parent.returnData = nil
			parent.Stack.Push(new(uint256.Int))
			return nil
		}
		n := min64(uint64(len(out)), req.retSize)
		if n > 0 {
			parent.Memory.Set(req.retOffset, n, out[:n])
		}
		parent.Gas += gasLeft
		parent.returnData = out
		parent.Stack.Push(new(uint256.Int).SetOne())
		return nil
	}

	code := evm.StateDB.GetCode(codeAddr)
	if len(code) == 0 {
		// Calling an empty account succeeds without running anything.
		parent.Gas += req.gas
		parent.returnData = nil
		parent.Stack.Push(new(uint256.Int).SetOne())
		return nil
	}

	child := newFrame(DecodeLenient(code), caller, address, codeAddr, &value, req.input, req.gas, parent.Depth+1, static)
	child.snapshot = snapshot
	child.retOffset = req.retOffset
	child.retSize = req.retSize
	evm.frames = append(evm.frames, child)
	return nil
}

func (evm *EVM) beginCreate(parent *Frame, req *callRequest) {
	pushZero := func() {
		parent.returnData = nil
		parent.Stack.Push(new(uint256.Int))
	}
	if !req.value.IsZero() && evm.StateDB.GetBalance(parent.Address).Lt(&req.value) {
		parent.Gas += req.gas
		pushZero()
		return
	}
	nonce := evm.StateDB.GetNonce(parent.Address)
	if nonce+1 < nonce {
		parent.Gas += req.gas
		pushZero()
		return
	}
	evm.StateDB.SetNonce(parent.Address, nonce+1)

	var addr types.Address
	if req.kind == CREATE2 {
		addr = crypto.CreateAddress2(parent.Address, req.salt.Bytes32(), crypto.Keccak256(req.input))
	} else {
		addr = crypto.CreateAddress(parent.Address, nonce)
	}
	evm.StateDB.AddAddressToAccessList(addr)

	if evm.StateDB.GetNonce(addr) != 0 ||
		(evm.StateDB.GetCodeHash(addr) != (types.Hash{}) && evm.StateDB.GetCodeHash(addr) != types.EmptyCodeHash) {
		// Collision consumes the forwarded gas.
		pushZero()
		return
	}

	snapshot := evm.StateDB.Snapshot()
	evm.StateDB.CreateAccount(addr)
	evm.StateDB.CreateContract(addr)
	evm.StateDB.SetNonce(addr, 1)
	if !req.value.IsZero() {
		evm.StateDB.SubBalance(parent.Address, &req.value)
		evm.StateDB.AddBalance(addr, &req.value)
	}

	child := newFrame(DecodeLenient(req.input), parent.Address, addr, addr, &req.value, nil, req.gas, parent.Depth+1, false)
	child.IsCreate = true
	child.snapshot = snapshot
	evm.frames = append(evm.frames, child)
}

// finishChild folds a terminated child frame back into its parent:
// unused gas returns, the result sentinel lands on the parent's stack
// and return data becomes visible to RETURNDATA instructions.
func (evm *EVM) finishChild(parent, child *Frame, out []byte, err error) {
	parent.Gas += child.Gas

	if child.IsCreate {
		if err == nil {
			parent.returnData = nil
			parent.Stack.Push(new(uint256.Int).SetBytes(child.Address.Bytes()))
		} else {
			if errors.Is(err, ErrExecutionReverted) {
				parent.returnData = out
			} else {
				parent.returnData = nil
			}
			parent.Stack.Push(new(uint256.Int))
		}
		return
	}

	if err == nil {
		n := min64(uint64(len(out)), child.retSize)
		if n > 0 {
			parent.Memory.Set(child.retOffset, n, out[:n])
		}
		parent.returnData = out
		parent.Stack.Push(new(uint256.Int).SetOne())
		return
	}
	if errors.Is(err, ErrExecutionReverted) {
		parent.returnData = out
	} else {
		parent.returnData = nil
	}
	parent.Stack.Push(new(uint256.Int))
}

// depositCode stores a create frame's output as the contract's code,
// charging 200 gas per byte and enforcing EIP-170 and EIP-3541.
func (evm *EVM) depositCode(f *Frame, code []byte) error {
	if len(code) > MaxCodeSize {
		return ErrMaxCodeSizeExceeded
	}
	if len(code) > 0 && code[0] == 0xef {
		return ErrInvalidCode
	}
	if !f.UseGas(CreateDataGas * uint64(len(code))) {
		return ErrOutOfGas
	}
	evm.StateDB.SetCode(f.Address, code)
	return nil
}

func (evm *EVM) buildResult(root *Frame, allotted uint64, out []byte, reason SuccessReason, err error) *ExecutionResult {
	gasUsed := allotted - root.Gas
	switch {
	case err == nil:
		refund := gasUsed / MaxRefundQuotient
		if sr := evm.StateDB.GetRefund(); sr < refund {
			refund = sr
		}
		res := &ExecutionResult{
			Status:        StatusSuccess,
			SuccessReason: reason,
			Output:        out,
			GasUsed:       gasUsed,
			GasRefunded:   refund,
			Logs:          evm.StateDB.Logs(),
		}
		if root.IsCreate {
			res.CreatedAddress = root.Address
		}
		return res
	case errors.Is(err, ErrExecutionReverted):
		return &ExecutionResult{Status: StatusRevert, Output: out, GasUsed: gasUsed}
	default:
		return &ExecutionResult{Status: StatusHalt, HaltReason: haltReasonFor(err), GasUsed: gasUsed}
	}
}

func (evm *EVM) runPrecompiledTop(p PrecompiledContract, input []byte, gas uint64, snapshot int) *ExecutionResult {
	out, gasLeft, err := runPrecompiled(p, input, gas)
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		return &ExecutionResult{Status: StatusHalt, HaltReason: haltReasonFor(err), GasUsed: gas}
	}
	return &ExecutionResult{
		Status:        StatusSuccess,
		SuccessReason: ReasonReturned,
		Output:        out,
		GasUsed:       gas - gasLeft,
		Logs:          evm.StateDB.Logs(),
	}
}

func (evm *EVM) captureEnd(res *ExecutionResult) {
	tracer := evm.Config.Tracer
	if tracer == nil || res == nil {
		return
	}
	var err error
	switch res.Status {
	case StatusRevert:
		err = ErrExecutionReverted
	case StatusHalt:
		err = fmt.Errorf("execution halted: %s", res.HaltReason)
	}
	tracer.CaptureEnd(res.Output, res.GasUsed, err)
}
