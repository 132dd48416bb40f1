package state

import (
	"github.com/holiman/uint256"

	"github.com/corevm/corevm/core/types"
)

// journalEntry is a single revertible state change.
type journalEntry interface {
	revert(s *MemoryStateDB)
}

// journal records state changes in order so that any suffix can be undone.
type journal struct {
	entries []journalEntry
}

func newJournal() *journal {
	return &journal{}
}

func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

// snapshot returns an identifier for the current journal position.
func (j *journal) snapshot() int {
	return len(j.entries)
}

// revertToSnapshot undoes all changes recorded after the given position,
// newest first.
func (j *journal) revertToSnapshot(id int, s *MemoryStateDB) {
	if id < 0 || id > len(j.entries) {
		panic("journal: invalid snapshot id")
	}
	for i := len(j.entries) - 1; i >= id; i-- {
		j.entries[i].revert(s)
	}
	j.entries = j.entries[:id]
}

type createAccountChange struct {
	addr types.Address
}

func (c createAccountChange) revert(s *MemoryStateDB) {
	delete(s.stateObjects, c.addr)
}

// resetAccountChange records an account being overwritten by CreateAccount.
type resetAccountChange struct {
	addr types.Address
	prev *stateObject
}

func (c resetAccountChange) revert(s *MemoryStateDB) {
	if c.prev != nil {
		s.stateObjects[c.addr] = c.prev
	} else {
		delete(s.stateObjects, c.addr)
	}
}

type createContractChange struct {
	addr types.Address
}

func (c createContractChange) revert(s *MemoryStateDB) {
	if obj := s.getStateObject(c.addr); obj != nil {
		obj.newContract = false
	}
}

type balanceChange struct {
	addr types.Address
	prev uint256.Int
}

func (c balanceChange) revert(s *MemoryStateDB) {
	if obj := s.getStateObject(c.addr); obj != nil {
		obj.balance = c.prev
	}
}

type nonceChange struct {
	addr types.Address
	prev uint64
}

func (c nonceChange) revert(s *MemoryStateDB) {
	if obj := s.getStateObject(c.addr); obj != nil {
		obj.nonce = c.prev
	}
}

type codeChange struct {
	addr     types.Address
	prevCode []byte
	prevHash types.Hash
}

func (c codeChange) revert(s *MemoryStateDB) {
	if obj := s.getStateObject(c.addr); obj != nil {
		obj.code = c.prevCode
		obj.codeHash = c.prevHash
	}
}

type storageChange struct {
	addr        types.Address
	key         types.Hash
	prev        types.Hash
	prevExisted bool
}

func (c storageChange) revert(s *MemoryStateDB) {
	obj := s.getStateObject(c.addr)
	if obj == nil {
		return
	}
	if c.prevExisted {
		obj.dirtyStorage[c.key] = c.prev
	} else {
		delete(obj.dirtyStorage, c.key)
	}
}

type transientStorageChange struct {
	addr types.Address
	key  types.Hash
	prev types.Hash
}

func (c transientStorageChange) revert(s *MemoryStateDB) {
	s.setTransient(c.addr, c.key, c.prev)
}

type selfDestructChange struct {
	addr types.Address
	prev bool
}

func (c selfDestructChange) revert(s *MemoryStateDB) {
	if obj := s.getStateObject(c.addr); obj != nil {
		obj.selfDestructed = c.prev
	}
}

type logChange struct {
	prevLen int
}

func (c logChange) revert(s *MemoryStateDB) {
	s.logs = s.logs[:c.prevLen]
}

type refundChange struct {
	prev uint64
}

func (c refundChange) revert(s *MemoryStateDB) {
	s.refund = c.prev
}

type accessListAddAccountChange struct {
	addr types.Address
}

func (c accessListAddAccountChange) revert(s *MemoryStateDB) {
	s.accessList.DeleteAddress(c.addr)
}

type accessListAddSlotChange struct {
	addr types.Address
	slot types.Hash
}

func (c accessListAddSlotChange) revert(s *MemoryStateDB) {
	s.accessList.DeleteSlot(c.addr, c.slot)
}
