package vm

import (
	"github.com/corevm/corevm/core/types"
)

// accountAccessGas returns the EIP-2929 cold surcharge for touching
// addr, warming it as a side effect. The warm cost is the opcode's
// constant gas.
func accountAccessGas(evm *EVM, addr types.Address) uint64 {
	if evm.StateDB.AddressInAccessList(addr) {
		return 0
	}
	evm.StateDB.AddAddressToAccessList(addr)
	return ColdAccountAccessCost - WarmStorageReadCost
}

// slotAccessGas returns the EIP-2929 cold surcharge for touching a
// storage slot, warming it as a side effect.
func slotAccessGas(evm *EVM, addr types.Address, slot types.Hash) uint64 {
	if _, slotOk := evm.StateDB.SlotInAccessList(addr, slot); slotOk {
		return 0
	}
	evm.StateDB.AddSlotToAccessList(addr, slot)
	return ColdSloadCost - WarmStorageReadCost
}

func gasExp(evm *EVM, f *Frame, memorySize uint64) (uint64, error) {
	// ExpGas includes the 10 gas base already charged as constant gas.
	return ExpGas(f.Stack.Back(1)) - GasSlowStep, nil
}

func gasKeccak256(evm *EVM, f *Frame, memorySize uint64) (uint64, error) {
	size := f.Stack.Back(1)
	if !size.IsUint64() {
		return 0, ErrGasUintOverflow
	}
	return GasKeccak256Word * toWordSize(size.Uint64()), nil
}

// gasCopyLen2 prices the word cost of the copy instructions whose
// length operand sits third on the stack (CALLDATACOPY, CODECOPY,
// RETURNDATACOPY, MCOPY).
func gasCopyLen2(evm *EVM, f *Frame, memorySize uint64) (uint64, error) {
	length := f.Stack.Back(2)
	if !length.IsUint64() {
		return 0, ErrGasUintOverflow
	}
	return CopyGas(length.Uint64()), nil
}

func gasExtCodeCopy(evm *EVM, f *Frame, memorySize uint64) (uint64, error) {
	length := f.Stack.Back(3)
	if !length.IsUint64() {
		return 0, ErrGasUintOverflow
	}
	addr := types.Address(f.Stack.Back(0).Bytes20())
	return accountAccessGas(evm, addr) + CopyGas(length.Uint64()), nil
}

// gasBalance and gasExtAccount charge the cold surcharge for opcodes
// whose only dynamic cost is the EIP-2929 account touch.
func gasBalance(evm *EVM, f *Frame, memorySize uint64) (uint64, error) {
	return accountAccessGas(evm, types.Address(f.Stack.Back(0).Bytes20())), nil
}

func gasExtAccount(evm *EVM, f *Frame, memorySize uint64) (uint64, error) {
	return accountAccessGas(evm, types.Address(f.Stack.Back(0).Bytes20())), nil
}

func gasSload(evm *EVM, f *Frame, memorySize uint64) (uint64, error) {
	slot := types.Hash(f.Stack.Back(0).Bytes32())
	return slotAccessGas(evm, f.Address, slot), nil
}

// gasSstore implements EIP-2200 metering with the EIP-2929 cold charge
// and EIP-3529 refunds. The 2300 gas sentry guards against reentrancy
// through low gas calls.
func gasSstore(evm *EVM, f *Frame, memorySize uint64) (uint64, error) {
	if f.Gas <= SstoreSentryGas {
		return 0, ErrOutOfGas
	}
	var (
		slot   = types.Hash(f.Stack.Back(0).Bytes32())
		newVal = types.Hash(f.Stack.Back(1).Bytes32())
		gas    uint64
	)
	// SSTORE carries no constant gas, so a cold slot pays the full
	// cold cost here rather than the surcharge SLOAD uses.
	if _, slotOk := evm.StateDB.SlotInAccessList(f.Address, slot); !slotOk {
		evm.StateDB.AddSlotToAccessList(f.Address, slot)
		gas += ColdSloadCost
	}

	current := evm.StateDB.GetState(f.Address, slot)
	if current == newVal {
		return gas + WarmStorageReadCost, nil
	}
	original := evm.StateDB.GetCommittedState(f.Address, slot)
	if original == current {
		if original.IsZero() {
			return gas + SstoreSetGas, nil
		}
		if newVal.IsZero() {
			evm.StateDB.AddRefund(SstoreClearsRefund)
		}
		return gas + SstoreResetGas, nil
	}
	// Dirty slot: adjust the refund counter for clears undone or
	// introduced by this write.
	if !original.IsZero() {
		if current.IsZero() {
			evm.StateDB.SubRefund(SstoreClearsRefund)
		} else if newVal.IsZero() {
			evm.StateDB.AddRefund(SstoreClearsRefund)
		}
	}
	if original == newVal {
		if original.IsZero() {
			evm.StateDB.AddRefund(SstoreSetGas - WarmStorageReadCost)
		} else {
			evm.StateDB.AddRefund(SstoreResetGas - WarmStorageReadCost)
		}
	}
	return gas + WarmStorageReadCost, nil
}

func makeGasLog(numTopics uint64) gasFunc {
	return func(evm *EVM, f *Frame, memorySize uint64) (uint64, error) {
		size := f.Stack.Back(1)
		if !size.IsUint64() {
			return 0, ErrGasUintOverflow
		}
		return LogGas(numTopics, size.Uint64()), nil
	}
}

// gasCall charges the EIP-2929 account touch, the value transfer
// surcharge and the new account surcharge. The gas actually forwarded
// to the callee is deducted by the handler under the 63/64 rule.
func gasCall(evm *EVM, f *Frame, memorySize uint64) (uint64, error) {
	var (
		target = types.Address(f.Stack.Back(1).Bytes20())
		value  = f.Stack.Back(2)
		gas    = accountAccessGas(evm, target)
	)
	if !value.IsZero() {
		gas += CallValueTransferGas
		if evm.StateDB.Empty(target) {
			gas += CallNewAccountGas
		}
	}
	return gas, nil
}

func gasCallCode(evm *EVM, f *Frame, memorySize uint64) (uint64, error) {
	target := types.Address(f.Stack.Back(1).Bytes20())
	gas := accountAccessGas(evm, target)
	if !f.Stack.Back(2).IsZero() {
		gas += CallValueTransferGas
	}
	return gas, nil
}

func gasDelegateCall(evm *EVM, f *Frame, memorySize uint64) (uint64, error) {
	return accountAccessGas(evm, types.Address(f.Stack.Back(1).Bytes20())), nil
}

func gasStaticCall(evm *EVM, f *Frame, memorySize uint64) (uint64, error) {
	return accountAccessGas(evm, types.Address(f.Stack.Back(1).Bytes20())), nil
}

// gasCreate charges the EIP-3860 initcode word cost.
func gasCreate(evm *EVM, f *Frame, memorySize uint64) (uint64, error) {
	size := f.Stack.Back(2)
	if !size.IsUint64() {
		return 0, ErrGasUintOverflow
	}
	return InitCodeGas(size.Uint64()), nil
}

// gasCreate2 additionally charges for hashing the initcode.
func gasCreate2(evm *EVM, f *Frame, memorySize uint64) (uint64, error) {
	size := f.Stack.Back(2)
	if !size.IsUint64() {
		return 0, ErrGasUintOverflow
	}
	return InitCodeGas(size.Uint64()) + GasKeccak256Word*toWordSize(size.Uint64()), nil
}

func gasSelfdestruct(evm *EVM, f *Frame, memorySize uint64) (uint64, error) {
	var (
		beneficiary = types.Address(f.Stack.Back(0).Bytes20())
		gas         uint64
	)
	if !evm.StateDB.AddressInAccessList(beneficiary) {
		evm.StateDB.AddAddressToAccessList(beneficiary)
		gas += ColdAccountAccessCost
	}
	if evm.StateDB.Empty(beneficiary) && !evm.StateDB.GetBalance(f.Address).IsZero() {
		gas += SelfdestructNewAccount
	}
	return gas, nil
}
