package vm

import "github.com/holiman/uint256"

// StackLimit is the maximum depth of the operand stack.
const StackLimit = 1024

// Stack is the 256-bit operand stack. Depth limits are enforced by the
// run loop before each instruction executes, so the mutators here do
// not re-check bounds.
type Stack struct {
	data []uint256.Int
}

// NewStack returns a new empty stack.
func NewStack() *Stack {
	return &Stack{data: make([]uint256.Int, 0, 16)}
}

// Push places a copy of val on top of the stack.
func (s *Stack) Push(val *uint256.Int) {
	s.data = append(s.data, *val)
}

// Pop removes and returns the top element.
func (s *Stack) Pop() uint256.Int {
	v := s.data[len(s.data)-1]
	s.data = s.data[:len(s.data)-1]
	return v
}

// Peek returns a pointer to the top element without removing it.
func (s *Stack) Peek() *uint256.Int {
	return &s.data[len(s.data)-1]
}

// Back returns the n'th element from the top, Back(0) being the top.
func (s *Stack) Back(n int) *uint256.Int {
	return &s.data[len(s.data)-n-1]
}

// Swap swaps the top element with the n'th from the top, 1 <= n <= 16.
func (s *Stack) Swap(n int) {
	top := len(s.data) - 1
	s.data[top], s.data[top-n] = s.data[top-n], s.data[top]
}

// Dup duplicates the n'th element from the top onto the top, Dup(1)
// copying the current top.
func (s *Stack) Dup(n int) {
	s.data = append(s.data, s.data[len(s.data)-n])
}

// Len returns the number of elements on the stack.
func (s *Stack) Len() int {
	return len(s.data)
}

// Data returns the backing slice, bottom first.
func (s *Stack) Data() []uint256.Int {
	return s.data
}
