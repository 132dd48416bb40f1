package state

import "github.com/corevm/corevm/core/types"

// accessList tracks warm addresses and storage slots per EIP-2929.
type accessList struct {
	addresses map[types.Address]int
	slots     []map[types.Hash]struct{}
}

func newAccessList() *accessList {
	return &accessList{
		addresses: make(map[types.Address]int),
	}
}

// AddAddress adds an address and reports whether it was newly added.
func (al *accessList) AddAddress(addr types.Address) bool {
	if _, ok := al.addresses[addr]; ok {
		return false
	}
	al.addresses[addr] = -1
	return true
}

// AddSlot adds an (address, slot) pair and reports whether the address and
// the slot were newly added.
func (al *accessList) AddSlot(addr types.Address, slot types.Hash) (addrAdded bool, slotAdded bool) {
	idx, present := al.addresses[addr]
	if present && idx != -1 {
		if _, ok := al.slots[idx][slot]; ok {
			return false, false
		}
		al.slots[idx][slot] = struct{}{}
		return false, true
	}
	al.addresses[addr] = len(al.slots)
	al.slots = append(al.slots, map[types.Hash]struct{}{slot: {}})
	return !present, true
}

// DeleteAddress removes an address with no slot entries. Used by the
// journal on revert.
func (al *accessList) DeleteAddress(addr types.Address) {
	delete(al.addresses, addr)
}

// DeleteSlot removes a slot, dropping the slot set when it becomes empty.
// Reverts must arrive in reverse order of the corresponding adds.
func (al *accessList) DeleteSlot(addr types.Address, slot types.Hash) {
	idx, ok := al.addresses[addr]
	if !ok || idx == -1 {
		return
	}
	slotMap := al.slots[idx]
	delete(slotMap, slot)
	if len(slotMap) == 0 {
		al.slots = al.slots[:idx]
		al.addresses[addr] = -1
	}
}

// ContainsAddress reports whether the address is in the access list.
func (al *accessList) ContainsAddress(addr types.Address) bool {
	_, ok := al.addresses[addr]
	return ok
}

// ContainsSlot reports whether the address and slot are in the access list.
func (al *accessList) ContainsSlot(addr types.Address, slot types.Hash) (addressOk bool, slotOk bool) {
	idx, ok := al.addresses[addr]
	if !ok {
		return false, false
	}
	if idx == -1 {
		return true, false
	}
	_, slotOk = al.slots[idx][slot]
	return true, slotOk
}
