package vm

import "github.com/holiman/uint256"

// Memory is the byte addressable scratch space of a frame. Expansion is
// charged by the run loop before any instruction touches memory, so the
// accessors assume the region has already been sized.
type Memory struct {
	store []byte
}

// NewMemory returns a new zero length memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Set copies value into memory at [offset, offset+size).
func (m *Memory) Set(offset, size uint64, value []byte) {
	if size == 0 {
		return
	}
	if offset+size > uint64(len(m.store)) {
		panic("memory: out of bounds write")
	}
	copy(m.store[offset:offset+size], value)
}

// Set32 writes val as a 32-byte big-endian word at offset.
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	if offset+32 > uint64(len(m.store)) {
		panic("memory: out of bounds write")
	}
	val.PutUint256(m.store[offset:])
}

// Resize grows memory to size bytes, zero filling the new region.
// Shrinking never happens.
func (m *Memory) Resize(size uint64) {
	if uint64(len(m.store)) < size {
		m.store = append(m.store, make([]byte, size-uint64(len(m.store)))...)
	}
}

// Get returns a copy of memory at [offset, offset+size).
func (m *Memory) Get(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	out := make([]byte, size)
	copy(out, m.store[offset:offset+size])
	return out
}

// GetPtr returns memory at [offset, offset+size) without copying.
func (m *Memory) GetPtr(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

// Copy moves length bytes from src to dst inside memory, handling
// overlap like MCOPY requires.
func (m *Memory) Copy(dst, src, length uint64) {
	if length == 0 {
		return
	}
	copy(m.store[dst:dst+length], m.store[src:src+length])
}

// Len returns the active memory size in bytes.
func (m *Memory) Len() int {
	return len(m.store)
}

// Data returns the full backing slice.
func (m *Memory) Data() []byte {
	return m.store
}
