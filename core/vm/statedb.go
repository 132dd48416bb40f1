package vm

import (
	"github.com/holiman/uint256"

	"github.com/corevm/corevm/core/types"
)

// GetHashFunc returns the hash of the block with the given number.
type GetHashFunc func(uint64) types.Hash

// BlockContext provides the engine with block-level information.
type BlockContext struct {
	GetHash     GetHashFunc
	BlockNumber *uint256.Int
	Time        uint64
	Coinbase    types.Address
	GasLimit    uint64
	BaseFee     *uint256.Int
	PrevRandao  types.Hash
	BlobBaseFee *uint256.Int
}

// TxContext provides the engine with transaction-level information.
type TxContext struct {
	Origin     types.Address
	GasPrice   *uint256.Int
	BlobHashes []types.Hash
}

// StateDB gives the engine access to world state. It is defined here
// rather than in core/state so state implementations depend on the vm
// package and not the other way around.
type StateDB interface {
	CreateAccount(addr types.Address)
	CreateContract(addr types.Address)

	GetBalance(addr types.Address) *uint256.Int
	AddBalance(addr types.Address, amount *uint256.Int)
	SubBalance(addr types.Address, amount *uint256.Int)

	GetNonce(addr types.Address) uint64
	SetNonce(addr types.Address, nonce uint64)

	GetCode(addr types.Address) []byte
	SetCode(addr types.Address, code []byte)
	GetCodeHash(addr types.Address) types.Hash
	GetCodeSize(addr types.Address) int

	GetState(addr types.Address, key types.Hash) types.Hash
	SetState(addr types.Address, key types.Hash, value types.Hash)
	GetCommittedState(addr types.Address, key types.Hash) types.Hash

	// Transient storage (EIP-1153). Cleared between transactions.
	GetTransientState(addr types.Address, key types.Hash) types.Hash
	SetTransientState(addr types.Address, key types.Hash, value types.Hash)

	// SelfDestruct6780 removes the account only when it was created
	// in the current transaction; the balance sweep to the
	// beneficiary happens regardless.
	SelfDestruct(addr types.Address)
	SelfDestruct6780(addr types.Address)
	HasSelfDestructed(addr types.Address) bool

	Exist(addr types.Address) bool
	Empty(addr types.Address) bool

	Snapshot() int
	RevertToSnapshot(id int)

	AddLog(log *types.Log)
	Logs() []*types.Log

	AddRefund(gas uint64)
	SubRefund(gas uint64)
	GetRefund() uint64

	// Access list (EIP-2929 warm/cold tracking).
	AddAddressToAccessList(addr types.Address)
	AddSlotToAccessList(addr types.Address, slot types.Hash)
	AddressInAccessList(addr types.Address) bool
	SlotInAccessList(addr types.Address, slot types.Hash) (addressOk bool, slotOk bool)
}

// Config holds optional engine settings.
type Config struct {
	// Tracer receives a callback per executed instruction when set.
	Tracer EVMLogger
	// ChainID is the value pushed by the CHAINID opcode.
	ChainID *uint256.Int
}
