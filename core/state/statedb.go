// Package state provides an in-memory implementation of the vm.StateDB
// interface with journal-based snapshot and revert support. It is suitable
// for testing and for standalone execution of bytecode; a production chain
// would back it with a trie.
package state

import (
	"github.com/holiman/uint256"

	"github.com/corevm/corevm/core/types"
	"github.com/corevm/corevm/core/vm"
	"github.com/corevm/corevm/crypto"
)

// stateObject holds the full state of a single account.
type stateObject struct {
	balance          uint256.Int
	nonce            uint64
	code             []byte
	codeHash         types.Hash
	dirtyStorage     map[types.Hash]types.Hash
	committedStorage map[types.Hash]types.Hash
	selfDestructed   bool
	// newContract is set for contracts created in the current transaction
	// and drives the EIP-6780 variant of SELFDESTRUCT.
	newContract bool
}

func newStateObject() *stateObject {
	return &stateObject{
		codeHash:         types.EmptyCodeHash,
		dirtyStorage:     make(map[types.Hash]types.Hash),
		committedStorage: make(map[types.Hash]types.Hash),
	}
}

// MemoryStateDB is a map-backed StateDB. All mutations go through the
// journal so they can be rolled back to any earlier snapshot.
type MemoryStateDB struct {
	stateObjects map[types.Address]*stateObject
	journal      *journal
	logs         []*types.Log
	refund       uint64
	accessList   *accessList
	transient    map[types.Address]map[types.Hash]types.Hash
}

// NewMemoryStateDB returns an empty in-memory state database.
func NewMemoryStateDB() *MemoryStateDB {
	return &MemoryStateDB{
		stateObjects: make(map[types.Address]*stateObject),
		journal:      newJournal(),
		accessList:   newAccessList(),
		transient:    make(map[types.Address]map[types.Hash]types.Hash),
	}
}

func (s *MemoryStateDB) getStateObject(addr types.Address) *stateObject {
	return s.stateObjects[addr]
}

func (s *MemoryStateDB) getOrNewStateObject(addr types.Address) *stateObject {
	if obj := s.stateObjects[addr]; obj != nil {
		return obj
	}
	obj := newStateObject()
	s.stateObjects[addr] = obj
	s.journal.append(createAccountChange{addr: addr})
	return obj
}

// CreateAccount creates a new, empty account. Any existing account at the
// address keeps its balance, matching consensus rules for collisions with
// value-carrying addresses.
func (s *MemoryStateDB) CreateAccount(addr types.Address) {
	prev := s.getStateObject(addr)
	obj := newStateObject()
	if prev != nil {
		obj.balance.Set(&prev.balance)
	}
	s.journal.append(resetAccountChange{addr: addr, prev: prev})
	s.stateObjects[addr] = obj
}

// CreateContract marks the account as a contract created in the current
// transaction, which makes SELFDESTRUCT remove it per EIP-6780.
func (s *MemoryStateDB) CreateContract(addr types.Address) {
	obj := s.getOrNewStateObject(addr)
	if !obj.newContract {
		s.journal.append(createContractChange{addr: addr})
		obj.newContract = true
	}
}

func (s *MemoryStateDB) GetBalance(addr types.Address) *uint256.Int {
	if obj := s.getStateObject(addr); obj != nil {
		return new(uint256.Int).Set(&obj.balance)
	}
	return new(uint256.Int)
}

func (s *MemoryStateDB) AddBalance(addr types.Address, amount *uint256.Int) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(balanceChange{addr: addr, prev: obj.balance})
	obj.balance.Add(&obj.balance, amount)
}

func (s *MemoryStateDB) SubBalance(addr types.Address, amount *uint256.Int) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(balanceChange{addr: addr, prev: obj.balance})
	obj.balance.Sub(&obj.balance, amount)
}

func (s *MemoryStateDB) GetNonce(addr types.Address) uint64 {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.nonce
	}
	return 0
}

func (s *MemoryStateDB) SetNonce(addr types.Address, nonce uint64) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(nonceChange{addr: addr, prev: obj.nonce})
	obj.nonce = nonce
}

func (s *MemoryStateDB) GetCode(addr types.Address) []byte {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.code
	}
	return nil
}

func (s *MemoryStateDB) SetCode(addr types.Address, code []byte) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(codeChange{addr: addr, prevCode: obj.code, prevHash: obj.codeHash})
	obj.code = code
	obj.codeHash = crypto.Keccak256Hash(code)
}

func (s *MemoryStateDB) GetCodeHash(addr types.Address) types.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.codeHash
	}
	return types.Hash{}
}

func (s *MemoryStateDB) GetCodeSize(addr types.Address) int {
	return len(s.GetCode(addr))
}

func (s *MemoryStateDB) GetState(addr types.Address, key types.Hash) types.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		if val, ok := obj.dirtyStorage[key]; ok {
			return val
		}
		return obj.committedStorage[key]
	}
	return types.Hash{}
}

func (s *MemoryStateDB) SetState(addr types.Address, key types.Hash, value types.Hash) {
	obj := s.getOrNewStateObject(addr)
	prevVal, prevDirty := obj.dirtyStorage[key]
	s.journal.append(storageChange{addr: addr, key: key, prev: prevVal, prevExisted: prevDirty})
	obj.dirtyStorage[key] = value
}

func (s *MemoryStateDB) GetCommittedState(addr types.Address, key types.Hash) types.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.committedStorage[key]
	}
	return types.Hash{}
}

func (s *MemoryStateDB) GetTransientState(addr types.Address, key types.Hash) types.Hash {
	if slots, ok := s.transient[addr]; ok {
		return slots[key]
	}
	return types.Hash{}
}

func (s *MemoryStateDB) SetTransientState(addr types.Address, key types.Hash, value types.Hash) {
	prev := s.GetTransientState(addr, key)
	if prev == value {
		return
	}
	s.journal.append(transientStorageChange{addr: addr, key: key, prev: prev})
	s.setTransient(addr, key, value)
}

func (s *MemoryStateDB) setTransient(addr types.Address, key types.Hash, value types.Hash) {
	slots, ok := s.transient[addr]
	if !ok {
		slots = make(map[types.Hash]types.Hash)
		s.transient[addr] = slots
	}
	slots[key] = value
}

// SelfDestruct marks the account for deletion at the end of the transaction.
// The balance sweep to the beneficiary is performed by the caller before
// this runs, so only the flag is recorded here.
func (s *MemoryStateDB) SelfDestruct(addr types.Address) {
	obj := s.getStateObject(addr)
	if obj == nil {
		return
	}
	s.journal.append(selfDestructChange{addr: addr, prev: obj.selfDestructed})
	obj.selfDestructed = true
}

// SelfDestruct6780 applies the Cancun rules: the account is only deleted
// when it was created in the same transaction.
func (s *MemoryStateDB) SelfDestruct6780(addr types.Address) {
	obj := s.getStateObject(addr)
	if obj == nil {
		return
	}
	if obj.newContract {
		s.SelfDestruct(addr)
	}
}

func (s *MemoryStateDB) HasSelfDestructed(addr types.Address) bool {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.selfDestructed
	}
	return false
}

func (s *MemoryStateDB) Exist(addr types.Address) bool {
	return s.getStateObject(addr) != nil
}

func (s *MemoryStateDB) Empty(addr types.Address) bool {
	obj := s.getStateObject(addr)
	if obj == nil {
		return true
	}
	return obj.nonce == 0 && obj.balance.IsZero() && obj.codeHash == types.EmptyCodeHash
}

func (s *MemoryStateDB) Snapshot() int {
	return s.journal.snapshot()
}

func (s *MemoryStateDB) RevertToSnapshot(id int) {
	s.journal.revertToSnapshot(id, s)
}

func (s *MemoryStateDB) AddLog(log *types.Log) {
	s.journal.append(logChange{prevLen: len(s.logs)})
	s.logs = append(s.logs, log)
}

func (s *MemoryStateDB) Logs() []*types.Log {
	return s.logs
}

func (s *MemoryStateDB) AddRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	s.refund += gas
}

func (s *MemoryStateDB) SubRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	if gas > s.refund {
		panic("refund counter below zero")
	}
	s.refund -= gas
}

func (s *MemoryStateDB) GetRefund() uint64 {
	return s.refund
}

func (s *MemoryStateDB) AddAddressToAccessList(addr types.Address) {
	if s.accessList.AddAddress(addr) {
		s.journal.append(accessListAddAccountChange{addr: addr})
	}
}

func (s *MemoryStateDB) AddSlotToAccessList(addr types.Address, slot types.Hash) {
	addrAdded, slotAdded := s.accessList.AddSlot(addr, slot)
	if addrAdded {
		s.journal.append(accessListAddAccountChange{addr: addr})
	}
	if slotAdded {
		s.journal.append(accessListAddSlotChange{addr: addr, slot: slot})
	}
}

func (s *MemoryStateDB) AddressInAccessList(addr types.Address) bool {
	return s.accessList.ContainsAddress(addr)
}

func (s *MemoryStateDB) SlotInAccessList(addr types.Address, slot types.Hash) (addressOk bool, slotOk bool) {
	return s.accessList.ContainsSlot(addr, slot)
}

// Finalise ends the current transaction: self-destructed accounts are
// removed, dirty storage is flushed to committed storage, and the
// per-transaction structures (journal, refund counter, access list,
// transient storage) are reset. Logs are kept.
func (s *MemoryStateDB) Finalise() {
	for addr, obj := range s.stateObjects {
		if obj.selfDestructed {
			delete(s.stateObjects, addr)
			continue
		}
		for key, val := range obj.dirtyStorage {
			if val == (types.Hash{}) {
				delete(obj.committedStorage, key)
			} else {
				obj.committedStorage[key] = val
			}
		}
		obj.dirtyStorage = make(map[types.Hash]types.Hash)
		obj.newContract = false
	}
	s.journal = newJournal()
	s.refund = 0
	s.accessList = newAccessList()
	s.transient = make(map[types.Address]map[types.Hash]types.Hash)
}

var _ vm.StateDB = (*MemoryStateDB)(nil)
