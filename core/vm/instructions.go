package vm

import (
	"math"

	"github.com/holiman/uint256"

	"github.com/corevm/corevm/core/types"
	"github.com/corevm/corevm/crypto"
)

// getData returns a size-byte slice of data starting at start, zero
// padded past the end.
func getData(data []byte, start, size uint64) []byte {
	length := uint64(len(data))
	if start > length {
		start = length
	}
	end := start + size
	if end > length {
		end = length
	}
	out := make([]byte, size)
	copy(out, data[start:end])
	return out
}

func opStop(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	return nil, nil
}

func opAdd(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y := f.Stack.Pop(), f.Stack.Peek()
	y.Add(&x, y)
	return nil, nil
}

func opSub(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y := f.Stack.Pop(), f.Stack.Peek()
	y.Sub(&x, y)
	return nil, nil
}

func opMul(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y := f.Stack.Pop(), f.Stack.Peek()
	y.Mul(&x, y)
	return nil, nil
}

func opDiv(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y := f.Stack.Pop(), f.Stack.Peek()
	y.Div(&x, y)
	return nil, nil
}

func opSdiv(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y := f.Stack.Pop(), f.Stack.Peek()
	y.SDiv(&x, y)
	return nil, nil
}

func opMod(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y := f.Stack.Pop(), f.Stack.Peek()
	y.Mod(&x, y)
	return nil, nil
}

func opSmod(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y := f.Stack.Pop(), f.Stack.Peek()
	y.SMod(&x, y)
	return nil, nil
}

func opAddmod(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y, z := f.Stack.Pop(), f.Stack.Pop(), f.Stack.Peek()
	z.AddMod(&x, &y, z)
	return nil, nil
}

func opMulmod(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y, z := f.Stack.Pop(), f.Stack.Pop(), f.Stack.Peek()
	z.MulMod(&x, &y, z)
	return nil, nil
}

func opExp(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	base, exponent := f.Stack.Pop(), f.Stack.Peek()
	exponent.Exp(&base, exponent)
	return nil, nil
}

func opSignExtend(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	back, num := f.Stack.Pop(), f.Stack.Peek()
	num.ExtendSign(num, &back)
	return nil, nil
}

func opLt(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y := f.Stack.Pop(), f.Stack.Peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opGt(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y := f.Stack.Pop(), f.Stack.Peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSlt(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y := f.Stack.Pop(), f.Stack.Peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSgt(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y := f.Stack.Pop(), f.Stack.Peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opEq(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y := f.Stack.Pop(), f.Stack.Peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opIszero(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x := f.Stack.Peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opAnd(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y := f.Stack.Pop(), f.Stack.Peek()
	y.And(&x, y)
	return nil, nil
}

func opOr(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y := f.Stack.Pop(), f.Stack.Peek()
	y.Or(&x, y)
	return nil, nil
}

func opXor(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x, y := f.Stack.Pop(), f.Stack.Peek()
	y.Xor(&x, y)
	return nil, nil
}

func opNot(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x := f.Stack.Peek()
	x.Not(x)
	return nil, nil
}

func opByte(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	i, val := f.Stack.Pop(), f.Stack.Peek()
	val.Byte(&i)
	return nil, nil
}

func opSHL(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	shift, value := f.Stack.Pop(), f.Stack.Peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

func opSHR(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	shift, value := f.Stack.Pop(), f.Stack.Peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

func opSAR(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	shift, value := f.Stack.Pop(), f.Stack.Peek()
	if shift.GtUint64(255) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			value.SetAllOne()
		}
		return nil, nil
	}
	value.SRsh(value, uint(shift.Uint64()))
	return nil, nil
}

func opKeccak256(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	offset, size := f.Stack.Pop(), f.Stack.Peek()
	data := f.Memory.GetPtr(offset.Uint64(), size.Uint64())
	hash := crypto.Keccak256(data)
	size.SetBytes(hash)
	return nil, nil
}

func opAddress(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(new(uint256.Int).SetBytes(f.Address.Bytes()))
	return nil, nil
}

func opBalance(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	slot := f.Stack.Peek()
	addr := types.Address(slot.Bytes20())
	slot.Set(evm.StateDB.GetBalance(addr))
	return nil, nil
}

func opOrigin(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(new(uint256.Int).SetBytes(evm.TxContext.Origin.Bytes()))
	return nil, nil
}

func opCaller(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(new(uint256.Int).SetBytes(f.Caller.Bytes()))
	return nil, nil
}

func opCallValue(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(&f.Value)
	return nil, nil
}

func opCallDataLoad(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	x := f.Stack.Peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		x.SetBytes(getData(f.Input, offset, 32))
	} else {
		x.Clear()
	}
	return nil, nil
}

func opCallDataSize(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(new(uint256.Int).SetUint64(uint64(len(f.Input))))
	return nil, nil
}

func opCallDataCopy(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	var (
		memOffset  = f.Stack.Pop()
		dataOffset = f.Stack.Pop()
		length     = f.Stack.Pop()
	)
	dataOffset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOffset64 = math.MaxUint64
	}
	f.Memory.Set(memOffset.Uint64(), length.Uint64(), getData(f.Input, dataOffset64, length.Uint64()))
	return nil, nil
}

func opCodeSize(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(new(uint256.Int).SetUint64(uint64(f.Program.CodeSize())))
	return nil, nil
}

func opCodeCopy(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	var (
		memOffset  = f.Stack.Pop()
		codeOffset = f.Stack.Pop()
		length     = f.Stack.Pop()
	)
	codeOffset64, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		codeOffset64 = math.MaxUint64
	}
	f.Memory.Set(memOffset.Uint64(), length.Uint64(), getData(f.Program.Code(), codeOffset64, length.Uint64()))
	return nil, nil
}

func opGasprice(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	v := new(uint256.Int)
	if evm.TxContext.GasPrice != nil {
		v.Set(evm.TxContext.GasPrice)
	}
	f.Stack.Push(v)
	return nil, nil
}

func opExtCodeSize(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	slot := f.Stack.Peek()
	addr := types.Address(slot.Bytes20())
	slot.SetUint64(uint64(evm.StateDB.GetCodeSize(addr)))
	return nil, nil
}

func opExtCodeCopy(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	var (
		a          = f.Stack.Pop()
		memOffset  = f.Stack.Pop()
		codeOffset = f.Stack.Pop()
		length     = f.Stack.Pop()
	)
	codeOffset64, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		codeOffset64 = math.MaxUint64
	}
	addr := types.Address(a.Bytes20())
	f.Memory.Set(memOffset.Uint64(), length.Uint64(), getData(evm.StateDB.GetCode(addr), codeOffset64, length.Uint64()))
	return nil, nil
}

func opReturnDataSize(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(new(uint256.Int).SetUint64(uint64(len(f.returnData))))
	return nil, nil
}

func opReturnDataCopy(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	var (
		memOffset  = f.Stack.Pop()
		dataOffset = f.Stack.Pop()
		length     = f.Stack.Pop()
	)
	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		return nil, ErrReturnDataOutOfBounds
	}
	var end = new(uint256.Int).SetUint64(offset64)
	end.Add(end, &length)
	end64, overflow := end.Uint64WithOverflow()
	if overflow || uint64(len(f.returnData)) < end64 {
		return nil, ErrReturnDataOutOfBounds
	}
	f.Memory.Set(memOffset.Uint64(), length.Uint64(), f.returnData[offset64:end64])
	return nil, nil
}

func opExtCodeHash(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	slot := f.Stack.Peek()
	addr := types.Address(slot.Bytes20())
	if evm.StateDB.Empty(addr) {
		slot.Clear()
	} else {
		slot.SetBytes(evm.StateDB.GetCodeHash(addr).Bytes())
	}
	return nil, nil
}

func opBlockhash(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	num := f.Stack.Peek()
	num64, overflow := num.Uint64WithOverflow()
	if overflow || evm.Context.GetHash == nil {
		num.Clear()
		return nil, nil
	}
	var upper uint64
	if evm.Context.BlockNumber != nil {
		upper = evm.Context.BlockNumber.Uint64()
	}
	// Only the 256 most recent blocks are addressable.
	if num64 < upper && num64 >= upper-min64(upper, 256) {
		num.SetBytes(evm.Context.GetHash(num64).Bytes())
	} else {
		num.Clear()
	}
	return nil, nil
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func opCoinbase(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(new(uint256.Int).SetBytes(evm.Context.Coinbase.Bytes()))
	return nil, nil
}

func opTimestamp(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(new(uint256.Int).SetUint64(evm.Context.Time))
	return nil, nil
}

func opNumber(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	v := new(uint256.Int)
	if evm.Context.BlockNumber != nil {
		v.Set(evm.Context.BlockNumber)
	}
	f.Stack.Push(v)
	return nil, nil
}

func opPrevRandao(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(new(uint256.Int).SetBytes(evm.Context.PrevRandao.Bytes()))
	return nil, nil
}

func opGasLimit(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(new(uint256.Int).SetUint64(evm.Context.GasLimit))
	return nil, nil
}

func opChainID(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	v := new(uint256.Int)
	if evm.Config.ChainID != nil {
		v.Set(evm.Config.ChainID)
	}
	f.Stack.Push(v)
	return nil, nil
}

func opSelfBalance(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(new(uint256.Int).Set(evm.StateDB.GetBalance(f.Address)))
	return nil, nil
}

func opBaseFee(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	v := new(uint256.Int)
	if evm.Context.BaseFee != nil {
		v.Set(evm.Context.BaseFee)
	}
	f.Stack.Push(v)
	return nil, nil
}

func opBlobHash(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	index := f.Stack.Peek()
	if index.LtUint64(uint64(len(evm.TxContext.BlobHashes))) {
		index.SetBytes(evm.TxContext.BlobHashes[index.Uint64()].Bytes())
	} else {
		index.Clear()
	}
	return nil, nil
}

func opBlobBaseFee(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	v := new(uint256.Int)
	if evm.Context.BlobBaseFee != nil {
		v.Set(evm.Context.BlobBaseFee)
	}
	f.Stack.Push(v)
	return nil, nil
}

func opPop(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Pop()
	return nil, nil
}

func opMload(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	v := f.Stack.Peek()
	offset := v.Uint64()
	v.SetBytes(f.Memory.GetPtr(offset, 32))
	return nil, nil
}

func opMstore(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	mStart, val := f.Stack.Pop(), f.Stack.Pop()
	f.Memory.Set32(mStart.Uint64(), &val)
	return nil, nil
}

func opMstore8(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	off, val := f.Stack.Pop(), f.Stack.Pop()
	f.Memory.Set(off.Uint64(), 1, []byte{byte(val.Uint64())})
	return nil, nil
}

func opSload(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	loc := f.Stack.Peek()
	val := evm.StateDB.GetState(f.Address, types.Hash(loc.Bytes32()))
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opSstore(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	loc, val := f.Stack.Pop(), f.Stack.Pop()
	evm.StateDB.SetState(f.Address, types.Hash(loc.Bytes32()), types.Hash(val.Bytes32()))
	return nil, nil
}

func opJump(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	pos := f.Stack.Pop()
	if !pos.IsUint64() || !f.Program.IsJumpdest(pos.Uint64()) {
		return nil, ErrInvalidJump
	}
	f.pc = pos.Uint64()
	return nil, nil
}

func opJumpi(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	pos, cond := f.Stack.Pop(), f.Stack.Pop()
	if cond.IsZero() {
		f.pc++
		return nil, nil
	}
	if !pos.IsUint64() || !f.Program.IsJumpdest(pos.Uint64()) {
		return nil, ErrInvalidJump
	}
	f.pc = pos.Uint64()
	return nil, nil
}

func opPc(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(new(uint256.Int).SetUint64(f.pc))
	return nil, nil
}

func opMsize(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(new(uint256.Int).SetUint64(uint64(f.Memory.Len())))
	return nil, nil
}

func opGas(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(new(uint256.Int).SetUint64(f.Gas))
	return nil, nil
}

func opJumpdest(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	return nil, nil
}

func opTload(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	loc := f.Stack.Peek()
	val := evm.StateDB.GetTransientState(f.Address, types.Hash(loc.Bytes32()))
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opTstore(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	loc, val := f.Stack.Pop(), f.Stack.Pop()
	evm.StateDB.SetTransientState(f.Address, types.Hash(loc.Bytes32()), types.Hash(val.Bytes32()))
	return nil, nil
}

func opMcopy(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	var (
		dst    = f.Stack.Pop()
		src    = f.Stack.Pop()
		length = f.Stack.Pop()
	)
	f.Memory.Copy(dst.Uint64(), src.Uint64(), length.Uint64())
	return nil, nil
}

func opPush0(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(new(uint256.Int))
	return nil, nil
}

// opPush serves PUSH1..PUSH32 from the immediate captured at decode
// time.
func opPush(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	f.Stack.Push(&op.Immediate)
	return nil, nil
}

func makeDup(n int) executionFunc {
	return func(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
		f.Stack.Dup(n)
		return nil, nil
	}
}

func makeSwap(n int) executionFunc {
	return func(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
		f.Stack.Swap(n)
		return nil, nil
	}
}

func makeLog(numTopics int) executionFunc {
	return func(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
		topics := make([]types.Hash, numTopics)
		mStart, mSize := f.Stack.Pop(), f.Stack.Pop()
		for i := 0; i < numTopics; i++ {
			addr := f.Stack.Pop()
			topics[i] = types.Hash(addr.Bytes32())
		}
		data := f.Memory.Get(mStart.Uint64(), mSize.Uint64())
		evm.StateDB.AddLog(&types.Log{
			Address: f.Address,
			Topics:  topics,
			Data:    data,
		})
		return nil, nil
	}
}

func opCreate(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	var (
		value  = f.Stack.Pop()
		offset = f.Stack.Pop()
		size   = f.Stack.Pop()
	)
	if size.Uint64() > MaxInitCodeSize {
		return nil, ErrMaxInitCodeSizeExceeded
	}
	forward := f.Gas - f.Gas/CallGasFraction
	f.Gas -= forward
	f.pendingCall = &callRequest{
		kind:  CREATE,
		gas:   forward,
		value: value,
		input: f.Memory.Get(offset.Uint64(), size.Uint64()),
	}
	return nil, nil
}

func opCreate2(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	var (
		value  = f.Stack.Pop()
		offset = f.Stack.Pop()
		size   = f.Stack.Pop()
		salt   = f.Stack.Pop()
	)
	if size.Uint64() > MaxInitCodeSize {
		return nil, ErrMaxInitCodeSizeExceeded
	}
	forward := f.Gas - f.Gas/CallGasFraction
	f.Gas -= forward
	f.pendingCall = &callRequest{
		kind:  CREATE2,
		gas:   forward,
		value: value,
		salt:  salt,
		input: f.Memory.Get(offset.Uint64(), size.Uint64()),
	}
	return nil, nil
}

func opCall(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	var (
		gasReq  = f.Stack.Pop()
		addr    = f.Stack.Pop()
		value   = f.Stack.Pop()
		inOff   = f.Stack.Pop()
		inSize  = f.Stack.Pop()
		retOff  = f.Stack.Pop()
		retSize = f.Stack.Pop()
	)
	if f.Static && !value.IsZero() {
		return nil, ErrWriteProtection
	}
	forward := CallGas(f.Gas, requestedGas(&gasReq))
	f.Gas -= forward
	if !value.IsZero() {
		// EIP-150 stipend: free gas granted to the callee, not
		// deducted from the caller.
		forward += CallStipend
	}
	f.pendingCall = &callRequest{
		kind:      CALL,
		gas:       forward,
		address:   types.Address(addr.Bytes20()),
		value:     value,
		input:     f.Memory.Get(inOff.Uint64(), inSize.Uint64()),
		retOffset: retOff.Uint64(),
		retSize:   retSize.Uint64(),
	}
	return nil, nil
}

func opCallCode(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	var (
		gasReq  = f.Stack.Pop()
		addr    = f.Stack.Pop()
		value   = f.Stack.Pop()
		inOff   = f.Stack.Pop()
		inSize  = f.Stack.Pop()
		retOff  = f.Stack.Pop()
		retSize = f.Stack.Pop()
	)
	forward := CallGas(f.Gas, requestedGas(&gasReq))
	f.Gas -= forward
	if !value.IsZero() {
		forward += CallStipend
	}
	f.pendingCall = &callRequest{
		kind:      CALLCODE,
		gas:       forward,
		address:   types.Address(addr.Bytes20()),
		value:     value,
		input:     f.Memory.Get(inOff.Uint64(), inSize.Uint64()),
		retOffset: retOff.Uint64(),
		retSize:   retSize.Uint64(),
	}
	return nil, nil
}

func opDelegateCall(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	var (
		gasReq  = f.Stack.Pop()
		addr    = f.Stack.Pop()
		inOff   = f.Stack.Pop()
		inSize  = f.Stack.Pop()
		retOff  = f.Stack.Pop()
		retSize = f.Stack.Pop()
	)
	forward := CallGas(f.Gas, requestedGas(&gasReq))
	f.Gas -= forward
	f.pendingCall = &callRequest{
		kind:      DELEGATECALL,
		gas:       forward,
		address:   types.Address(addr.Bytes20()),
		input:     f.Memory.Get(inOff.Uint64(), inSize.Uint64()),
		retOffset: retOff.Uint64(),
		retSize:   retSize.Uint64(),
	}
	return nil, nil
}

func opStaticCall(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	var (
		gasReq  = f.Stack.Pop()
		addr    = f.Stack.Pop()
		inOff   = f.Stack.Pop()
		inSize  = f.Stack.Pop()
		retOff  = f.Stack.Pop()
		retSize = f.Stack.Pop()
	)
	forward := CallGas(f.Gas, requestedGas(&gasReq))
	f.Gas -= forward
	f.pendingCall = &callRequest{
		kind:      STATICCALL,
		gas:       forward,
		address:   types.Address(addr.Bytes20()),
		input:     f.Memory.Get(inOff.Uint64(), inSize.Uint64()),
		retOffset: retOff.Uint64(),
		retSize:   retSize.Uint64(),
	}
	return nil, nil
}

// requestedGas clamps the gas operand of a call to uint64. Anything
// larger is capped by the 63/64 rule anyway.
func requestedGas(v *uint256.Int) uint64 {
	if !v.IsUint64() {
		return math.MaxUint64
	}
	return v.Uint64()
}

func opReturn(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	offset, size := f.Stack.Pop(), f.Stack.Pop()
	return f.Memory.Get(offset.Uint64(), size.Uint64()), nil
}

func opRevert(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	offset, size := f.Stack.Pop(), f.Stack.Pop()
	return f.Memory.Get(offset.Uint64(), size.Uint64()), ErrExecutionReverted
}

func opInvalid(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	return nil, &ErrInvalidOpcodeMsg{op: INVALID}
}

func opSelfdestruct(evm *EVM, f *Frame, op *Operation) ([]byte, error) {
	beneficiary := f.Stack.Pop()
	addr := types.Address(beneficiary.Bytes20())
	balance := new(uint256.Int).Set(evm.StateDB.GetBalance(f.Address))
	evm.StateDB.SubBalance(f.Address, balance)
	evm.StateDB.AddBalance(addr, balance)
	// EIP-6780: the account is only removed when it was created in
	// this transaction.
	evm.StateDB.SelfDestruct6780(f.Address)
	return nil, nil
}
