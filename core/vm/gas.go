package vm

import "github.com/holiman/uint256"

// Gas cost tiers and opcode constants at the Cancun rule set.
const (
	GasQuickStep   uint64 = 2  // PC, MSIZE, GAS, ...
	GasFastestStep uint64 = 3  // ADD, SUB, NOT, ...
	GasFastStep    uint64 = 5  // MUL, DIV, MOD, ...
	GasMidStep     uint64 = 8  // ADDMOD, MULMOD, JUMP
	GasSlowStep    uint64 = 10 // EXP base, JUMPI
	GasExtStep     uint64 = 20 // BLOCKHASH

	GasJumpDest uint64 = 1

	// EIP-2929 access costs. Warm reads are the constant gas of the
	// affected opcodes; the cold surcharge comes from the dynamic
	// gas functions.
	ColdAccountAccessCost uint64 = 2600
	ColdSloadCost         uint64 = 2100
	WarmStorageReadCost   uint64 = 100

	// EIP-2200 / EIP-3529 storage costs.
	SstoreSetGas       uint64 = 20000
	SstoreResetGas     uint64 = 2900 // non-zero to non-zero, cold charged separately
	SstoreClearsRefund uint64 = 4800 // refund for clearing a slot
	SstoreSentryGas    uint64 = 2300 // minimum gas left to attempt an SSTORE

	GasTload       uint64 = 100 // EIP-1153
	GasTstore      uint64 = 100 // EIP-1153
	GasBlobHash    uint64 = 3   // EIP-4844
	GasBlobBaseFee uint64 = 2   // EIP-7516

	GasKeccak256     uint64 = 30
	GasKeccak256Word uint64 = 6

	GasLog      uint64 = 375 // per LOG operation
	GasLogTopic uint64 = 375 // per topic
	GasLogData  uint64 = 8   // per byte of data

	GasMemoryWord uint64 = 3  // linear part of memory expansion
	GasCopyWord   uint64 = 3  // per word copied
	GasExpByte    uint64 = 50 // per significant byte of EXP exponent

	CallValueTransferGas uint64 = 9000
	CallNewAccountGas    uint64 = 25000
	CallStipend          uint64 = 2300

	GasCreate       uint64 = 32000
	CreateDataGas   uint64 = 200 // per byte of deployed code
	InitCodeWordGas uint64 = 2   // EIP-3860, per word of initcode

	SelfdestructGas        uint64 = 5000
	SelfdestructNewAccount uint64 = 25000

	// EIP-150: a call forwards at most 63/64 of the remaining gas.
	CallGasFraction uint64 = 64

	// EIP-3529: refunds are capped at gasUsed/5.
	MaxRefundQuotient uint64 = 5

	MaxCallDepth    = 1024
	MaxCodeSize     = 24576 // EIP-170
	MaxInitCodeSize = 49152 // EIP-3860

	// MaxMemorySize is the largest frame memory the cost function can
	// price: past it the quadratic term wraps uint64 and the charge
	// would stop growing with the size.
	MaxMemorySize uint64 = 0x1FFFFFFFE0
)

// toWordSize rounds size up to whole 32-byte words.
func toWordSize(size uint64) uint64 {
	if size > uint64(0xffffffffffffffff)-31 {
		return 0x7fffffffffffffff
	}
	return (size + 31) / 32
}

// memoryGasCost is the total cost of holding memSize bytes of memory:
// 3 words + words^2/512.
func memoryGasCost(memSize uint64) uint64 {
	if memSize == 0 {
		return 0
	}
	words := toWordSize(memSize)
	return words*GasMemoryWord + words*words/512
}

// MemoryExpansionGas is the incremental cost of growing memory from
// oldSize to newSize bytes. Expansion is charged on the delta, so
// touching already paid for memory is free. Sizes beyond MaxMemorySize
// are unpriceable and reported as a gas overflow.
func MemoryExpansionGas(oldSize, newSize uint64) (uint64, error) {
	if newSize > MaxMemorySize {
		return 0, ErrGasUintOverflow
	}
	if newSize <= oldSize {
		return 0, nil
	}
	return memoryGasCost(newSize) - memoryGasCost(oldSize), nil
}

// CopyGas is the word cost of a copy instruction, excluding the
// instruction's own constant gas and any memory expansion.
func CopyGas(size uint64) uint64 {
	return GasCopyWord * toWordSize(size)
}

// ExpGas prices EXP at 10 gas plus 50 per significant exponent byte.
func ExpGas(exponent *uint256.Int) uint64 {
	if exponent.IsZero() {
		return GasSlowStep
	}
	return GasSlowStep + GasExpByte*uint64((exponent.BitLen()+7)/8)
}

// LogGas prices LOGn at 375 + 375 per topic + 8 per data byte.
func LogGas(numTopics, dataSize uint64) uint64 {
	return GasLog + numTopics*GasLogTopic + dataSize*GasLogData
}

// KeccakGas prices KECCAK256 at 30 + 6 per input word.
func KeccakGas(dataSize uint64) uint64 {
	return GasKeccak256 + GasKeccak256Word*toWordSize(dataSize)
}

// InitCodeGas is the EIP-3860 word charge on CREATE and CREATE2
// initcode.
func InitCodeGas(size uint64) uint64 {
	return InitCodeWordGas * toWordSize(size)
}

// CallGas applies the EIP-150 63/64 rule: the callee receives the
// requested gas, capped at all but 1/64 of what the caller has left.
func CallGas(availableGas, requestedGas uint64) uint64 {
	maxGas := availableGas - availableGas/CallGasFraction
	if requestedGas > maxGas {
		return maxGas
	}
	return requestedGas
}
