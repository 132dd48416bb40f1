package vm_test

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"

	"github.com/corevm/corevm/core/state"
	"github.com/corevm/corevm/core/types"
	"github.com/corevm/corevm/core/vm"
	"github.com/corevm/corevm/crypto"
)

var (
	sender   = types.HexToAddress("0x00000000000000000000000000000000000000aa")
	contract = types.HexToAddress("0x00000000000000000000000000000000000000bb")
	callee   = types.HexToAddress("0x00000000000000000000000000000000000000cc")
)

func newTestEVM(t *testing.T) (*vm.EVM, *state.MemoryStateDB) {
	t.Helper()
	db := state.NewMemoryStateDB()
	evm := vm.NewEVM(vm.BlockContext{}, vm.TxContext{}, db, vm.Config{ChainID: uint256.NewInt(1)})
	return evm, db
}

// runCode deploys code at the contract address and calls it.
func runCode(t *testing.T, code []byte, gas uint64) (*vm.ExecutionResult, *state.MemoryStateDB) {
	t.Helper()
	evm, db := newTestEVM(t)
	db.SetCode(contract, code)
	db.Finalise()
	res, err := evm.Call(sender, contract, nil, gas, nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	return res, db
}

func TestRunAddProgram(t *testing.T) {
	// PUSH1 5 PUSH1 4 ADD PUSH1 0 MSTORE PUSH1 32 PUSH1 0 RETURN
	code := []byte{0x60, 0x05, 0x60, 0x04, 0x01, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3}
	res, _ := runCode(t, code, 100000)

	if res.Status != vm.StatusSuccess {
		t.Fatalf("status = %v, want success", res.Status)
	}
	if res.SuccessReason != vm.ReasonReturned {
		t.Errorf("reason = %v, want returned", res.SuccessReason)
	}
	if len(res.Output) != 32 || res.Output[31] != 9 {
		t.Errorf("output = %x, want 32-byte word ending in 9", res.Output)
	}
	// 5 pushes, ADD and MSTORE at 3 gas each, plus one word of memory.
	if res.GasUsed != 24 {
		t.Errorf("gas used = %d, want 24", res.GasUsed)
	}
}

func TestImplicitStop(t *testing.T) {
	res, _ := runCode(t, []byte{0x60, 0x01}, 100)
	if res.Status != vm.StatusSuccess || res.SuccessReason != vm.ReasonStopped {
		t.Fatalf("got %v/%v, want success/stopped", res.Status, res.SuccessReason)
	}
	if len(res.Output) != 0 {
		t.Errorf("output = %x, want empty", res.Output)
	}
	if res.GasUsed != 3 {
		t.Errorf("gas used = %d, want 3", res.GasUsed)
	}
}

func TestInvalidJumpHalts(t *testing.T) {
	// PUSH1 3 JUMP; position 3 is past the end of code.
	res, _ := runCode(t, []byte{0x60, 0x03, 0x56}, 1000)
	if res.Status != vm.StatusHalt {
		t.Fatalf("status = %v, want halt", res.Status)
	}
	if res.HaltReason != vm.HaltInvalidJump {
		t.Errorf("halt reason = %v, want invalid jump", res.HaltReason)
	}
	if res.GasUsed != 1000 {
		t.Errorf("gas used = %d, want all 1000", res.GasUsed)
	}
}

func TestJumpIntoPushDataHalts(t *testing.T) {
	// The JUMPDEST byte at position 4 is PUSH1 immediate data, so it
	// is not a valid target.
	res, _ := runCode(t, []byte{0x60, 0x04, 0x56, 0x60, 0x5b, 0x00}, 1000)
	if res.Status != vm.StatusHalt || res.HaltReason != vm.HaltInvalidJump {
		t.Fatalf("got %v/%v, want halt/invalid jump", res.Status, res.HaltReason)
	}
}

func TestValidJump(t *testing.T) {
	// PUSH1 4 JUMP INVALID JUMPDEST STOP
	res, _ := runCode(t, []byte{0x60, 0x04, 0x56, 0xfe, 0x5b, 0x00}, 1000)
	if res.Status != vm.StatusSuccess || res.SuccessReason != vm.ReasonStopped {
		t.Fatalf("got %v/%v, want success/stopped", res.Status, res.SuccessReason)
	}
}

func TestRevertReturnsOutput(t *testing.T) {
	// PUSH1 0x2a PUSH1 0 MSTORE PUSH1 32 PUSH1 0 REVERT
	code := []byte{0x60, 0x2a, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xfd}
	res, _ := runCode(t, code, 1000)

	if res.Status != vm.StatusRevert {
		t.Fatalf("status = %v, want revert", res.Status)
	}
	if len(res.Output) != 32 || res.Output[31] != 0x2a {
		t.Errorf("output = %x, want word ending in 0x2a", res.Output)
	}
	if res.GasUsed >= 1000 {
		t.Errorf("revert must leave unused gas, used %d", res.GasUsed)
	}
}

func TestOutOfGasConsumesEverything(t *testing.T) {
	code := []byte{0x60, 0x05, 0x60, 0x04, 0x01, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3}
	res, _ := runCode(t, code, 10)
	if res.Status != vm.StatusHalt || res.HaltReason != vm.HaltOutOfGas {
		t.Fatalf("got %v/%v, want halt/out of gas", res.Status, res.HaltReason)
	}
	if res.GasUsed != 10 {
		t.Errorf("gas used = %d, want 10", res.GasUsed)
	}
}

func TestInvalidOpcodeHalts(t *testing.T) {
	res, _ := runCode(t, []byte{0xfe}, 1000)
	if res.Status != vm.StatusHalt || res.HaltReason != vm.HaltOpcodeNotFound {
		t.Fatalf("got %v/%v, want halt/opcode not found", res.Status, res.HaltReason)
	}
	if res.GasUsed != 1000 {
		t.Errorf("gas used = %d, want all 1000", res.GasUsed)
	}
}

func TestStackUnderflowHalts(t *testing.T) {
	res, _ := runCode(t, []byte{0x01}, 1000) // ADD with nothing on the stack
	if res.Status != vm.StatusHalt || res.HaltReason != vm.HaltStackUnderflow {
		t.Fatalf("got %v/%v, want halt/stack underflow", res.Status, res.HaltReason)
	}
}

func TestStaticCallBlocksSstore(t *testing.T) {
	evm, db := newTestEVM(t)
	db.SetCode(contract, []byte{0x60, 0x01, 0x60, 0x00, 0x55, 0x00}) // SSTORE(0, 1)
	db.Finalise()

	res, err := evm.StaticCall(sender, contract, nil, 100000)
	if err != nil {
		t.Fatalf("StaticCall failed: %v", err)
	}
	if res.Status != vm.StatusHalt || res.HaltReason != vm.HaltStaticViolation {
		t.Fatalf("got %v/%v, want halt/static violation", res.Status, res.HaltReason)
	}
}

// callProgram builds caller code performing CALL(gas 0xffff, to, value 0,
// no args, 32-byte return area at offset 0) followed by tail.
func callProgram(to types.Address, tail ...byte) []byte {
	code := []byte{
		0x60, 0x20, // retSize
		0x60, 0x00, // retOffset
		0x60, 0x00, // argsSize
		0x60, 0x00, // argsOffset
		0x60, 0x00, // value
		0x73, // PUSH20 address
	}
	code = append(code, to.Bytes()...)
	code = append(code, 0x61, 0xff, 0xff, 0xf1) // PUSH2 0xffff CALL
	return append(code, tail...)
}

func TestNestedCallReturnsData(t *testing.T) {
	evm, db := newTestEVM(t)
	// Callee returns a 32-byte word holding 0x2a.
	db.SetCode(callee, []byte{0x60, 0x2a, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3})
	// Caller forwards the callee's output from its own memory.
	db.SetCode(contract, callProgram(callee, 0x60, 0x20, 0x60, 0x00, 0xf3))
	db.Finalise()

	res, err := evm.Call(sender, contract, nil, 200000, nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if res.Status != vm.StatusSuccess {
		t.Fatalf("status = %v, want success", res.Status)
	}
	if len(res.Output) != 32 || res.Output[31] != 0x2a {
		t.Errorf("output = %x, want word ending in 0x2a", res.Output)
	}
}

func TestNestedCallRevertLeavesMemoryUntouched(t *testing.T) {
	evm, db := newTestEVM(t)
	// Callee reverts with a 32-byte word holding 0xff.
	db.SetCode(callee, []byte{0x60, 0xff, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xfd})
	// Caller drops the status flag and returns its untouched memory.
	db.SetCode(contract, callProgram(callee, 0x50, 0x60, 0x20, 0x60, 0x00, 0xf3))
	db.Finalise()

	res, err := evm.Call(sender, contract, nil, 200000, nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if res.Status != vm.StatusSuccess {
		t.Fatalf("status = %v, want success", res.Status)
	}
	if !bytes.Equal(res.Output, make([]byte, 32)) {
		t.Errorf("output = %x, reverted call must not write caller memory", res.Output)
	}
}

func TestNestedCallFailureStatus(t *testing.T) {
	evm, db := newTestEVM(t)
	db.SetCode(callee, []byte{0xfe}) // INVALID
	// Caller returns the CALL status flag.
	db.SetCode(contract, callProgram(callee, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3))
	db.Finalise()

	res, err := evm.Call(sender, contract, nil, 200000, nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if res.Status != vm.StatusSuccess {
		t.Fatalf("status = %v, want success in the caller", res.Status)
	}
	if res.Output[31] != 0 {
		t.Errorf("status flag = %d, want 0 for halted child", res.Output[31])
	}
}

func TestCallEmptyAccountSucceeds(t *testing.T) {
	evm, db := newTestEVM(t)
	// Calling an address with no code pushes 1 and returns the gas.
	db.SetCode(contract, callProgram(callee, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3))
	db.Finalise()

	res, err := evm.Call(sender, contract, nil, 200000, nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if res.Status != vm.StatusSuccess {
		t.Fatalf("status = %v, want success", res.Status)
	}
	if res.Output[31] != 1 {
		t.Errorf("status flag = %d, want 1 for empty target", res.Output[31])
	}
}

// initcodeStop deploys a single STOP byte as runtime code.
var initcodeStop = []byte{0x60, 0x00, 0x60, 0x00, 0x53, 0x60, 0x01, 0x60, 0x00, 0xf3}

func TestCreateDeploysCode(t *testing.T) {
	evm, db := newTestEVM(t)

	res, err := evm.Create(sender, initcodeStop, 100000, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if res.Status != vm.StatusSuccess {
		t.Fatalf("status = %v, want success", res.Status)
	}
	if res.CreatedAddress == (types.Address{}) {
		t.Fatal("created address not set")
	}
	if got := db.GetCode(res.CreatedAddress); !bytes.Equal(got, []byte{0x00}) {
		t.Errorf("deployed code = %x, want 00", got)
	}
	if got := db.GetNonce(res.CreatedAddress); got != 1 {
		t.Errorf("created account nonce = %d, want 1", got)
	}
	if got := db.GetNonce(sender); got != 1 {
		t.Errorf("sender nonce = %d, want 1", got)
	}
}

func TestCreateRejectsEFPrefix(t *testing.T) {
	evm, _ := newTestEVM(t)
	initcode := []byte{0x60, 0xef, 0x60, 0x00, 0x53, 0x60, 0x01, 0x60, 0x00, 0xf3}

	res, err := evm.Create(sender, initcode, 100000, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if res.Status != vm.StatusHalt || res.HaltReason != vm.HaltInvalidCode {
		t.Fatalf("got %v/%v, want halt/invalid code", res.Status, res.HaltReason)
	}
}

func TestCreate2AddressDerivation(t *testing.T) {
	evm, db := newTestEVM(t)
	salt := uint256.NewInt(0x1234)

	res, err := evm.Create2(sender, initcodeStop, salt, 100000, nil)
	if err != nil {
		t.Fatalf("Create2 failed: %v", err)
	}
	if res.Status != vm.StatusSuccess {
		t.Fatalf("status = %v, want success", res.Status)
	}
	want := crypto.CreateAddress2(sender, salt.Bytes32(), crypto.Keccak256(initcodeStop))
	if res.CreatedAddress != want {
		t.Errorf("created at %v, want %v", res.CreatedAddress, want)
	}
	if db.GetCodeSize(want) != 1 {
		t.Errorf("no code deployed at derived address")
	}
}

func TestTransientStorageRoundTrip(t *testing.T) {
	// TSTORE(0, 0x2a) TLOAD(0) MSTORE RETURN
	code := []byte{
		0x60, 0x2a, 0x60, 0x00, 0x5d,
		0x60, 0x00, 0x5c,
		0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3,
	}
	res, _ := runCode(t, code, 100000)
	if res.Status != vm.StatusSuccess {
		t.Fatalf("status = %v, want success", res.Status)
	}
	if res.Output[31] != 0x2a {
		t.Errorf("output = %x, want word ending in 0x2a", res.Output)
	}
}

func TestLogEmission(t *testing.T) {
	// MSTORE(0, 0x2a) LOG1(offset 0, size 32, topic 0xaa)
	code := []byte{
		0x60, 0x2a, 0x60, 0x00, 0x52,
		0x60, 0xaa, 0x60, 0x20, 0x60, 0x00, 0xa1,
		0x00,
	}
	res, _ := runCode(t, code, 100000)
	if res.Status != vm.StatusSuccess {
		t.Fatalf("status = %v, want success", res.Status)
	}
	if len(res.Logs) != 1 {
		t.Fatalf("log count = %d, want 1", len(res.Logs))
	}
	log := res.Logs[0]
	if log.Address != contract {
		t.Errorf("log address = %v, want %v", log.Address, contract)
	}
	if len(log.Topics) != 1 || log.Topics[0] != types.HexToHash("0xaa") {
		t.Errorf("topics = %v, want [0xaa]", log.Topics)
	}
	if len(log.Data) != 32 || log.Data[31] != 0x2a {
		t.Errorf("data = %x, want word ending in 0x2a", log.Data)
	}
}

func TestSstoreRefundCap(t *testing.T) {
	evm, db := newTestEVM(t)
	// Slot 0 starts committed as 1; the code clears it.
	db.SetState(contract, types.HexToHash("0x00"), types.HexToHash("0x01"))
	db.SetCode(contract, []byte{0x60, 0x00, 0x60, 0x00, 0x55, 0x00})
	db.Finalise()

	res, err := evm.Call(sender, contract, nil, 100000, nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if res.Status != vm.StatusSuccess {
		t.Fatalf("status = %v, want success", res.Status)
	}
	// Clearing a cold slot: 3 + 3 + (2100 cold + 2900 reset) = 5006.
	if res.GasUsed != 5006 {
		t.Errorf("gas used = %d, want 5006", res.GasUsed)
	}
	// The 4800 clearing refund is capped at gasUsed/5.
	if res.GasRefunded != 1001 {
		t.Errorf("refund = %d, want 1001", res.GasRefunded)
	}
}

func TestSstoreColdThenWarmGas(t *testing.T) {
	evm, db := newTestEVM(t)
	// Two stores to the same slot: the first pays the full 2100 cold
	// cost on top of the 20000 set cost, the second is a warm no-op.
	db.SetCode(contract, []byte{
		0x60, 0x01, 0x60, 0x00, 0x55, // PUSH1 1 PUSH1 0 SSTORE
		0x60, 0x01, 0x60, 0x00, 0x55, // PUSH1 1 PUSH1 0 SSTORE
		0x00, // STOP
	})
	db.Finalise()

	res, err := evm.Call(sender, contract, nil, 100000, nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if res.Status != vm.StatusSuccess {
		t.Fatalf("status = %v, want success", res.Status)
	}
	// 4*3 push + (2100 + 20000) cold set + 100 warm no-op.
	if res.GasUsed != 22212 {
		t.Errorf("gas used = %d, want 22212", res.GasUsed)
	}
}

func TestCallPrecompileDirectly(t *testing.T) {
	evm, _ := newTestEVM(t)
	input := []byte{1, 2, 3}

	res, err := evm.Call(sender, types.BytesToAddress([]byte{0x04}), input, 1000, nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if res.Status != vm.StatusSuccess {
		t.Fatalf("status = %v, want success", res.Status)
	}
	if !bytes.Equal(res.Output, input) {
		t.Errorf("output = %x, want %x", res.Output, input)
	}
	if res.GasUsed != 18 {
		t.Errorf("gas used = %d, want 18", res.GasUsed)
	}
}

func TestValueTransfer(t *testing.T) {
	evm, db := newTestEVM(t)
	db.AddBalance(sender, uint256.NewInt(1000))
	db.Finalise()

	res, err := evm.Call(sender, callee, nil, 1000, uint256.NewInt(300))
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if res.Status != vm.StatusSuccess {
		t.Fatalf("status = %v, want success", res.Status)
	}
	if got := db.GetBalance(callee); got.Uint64() != 300 {
		t.Errorf("callee balance = %d, want 300", got.Uint64())
	}
	if got := db.GetBalance(sender); got.Uint64() != 700 {
		t.Errorf("sender balance = %d, want 700", got.Uint64())
	}
}

func TestInsufficientBalanceIsFatal(t *testing.T) {
	evm, _ := newTestEVM(t)
	if _, err := evm.Call(sender, callee, nil, 1000, uint256.NewInt(1)); err != vm.ErrInsufficientBalance {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestTracerCapturesSteps(t *testing.T) {
	db := state.NewMemoryStateDB()
	tracer := vm.NewStructLogTracer()
	evm := vm.NewEVM(vm.BlockContext{}, vm.TxContext{}, db, vm.Config{Tracer: tracer})
	code := []byte{0x60, 0x05, 0x60, 0x04, 0x01, 0x00} // PUSH1 5 PUSH1 4 ADD STOP
	db.SetCode(contract, code)
	db.Finalise()

	if _, err := evm.Call(sender, contract, nil, 1000, nil); err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if len(tracer.Entries) != 4 {
		t.Fatalf("trace length = %d, want 4", len(tracer.Entries))
	}
	if tracer.Entries[0].Op != vm.PUSH1 || tracer.Entries[2].Op != vm.ADD {
		t.Errorf("unexpected opcodes in trace: %v %v", tracer.Entries[0].Op, tracer.Entries[2].Op)
	}
	if tracer.Entries[2].GasCost != 3 {
		t.Errorf("ADD cost = %d, want 3", tracer.Entries[2].GasCost)
	}
	if got := tracer.Entries[3].Stack; len(got) != 1 || !got[0].Eq(uint256.NewInt(9)) {
		t.Errorf("stack before STOP = %v, want [9]", got)
	}
	if tracer.GasUsed() != 9 {
		t.Errorf("traced gas = %d, want 9", tracer.GasUsed())
	}
}
