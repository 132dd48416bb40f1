package types

// Log represents a contract log event emitted by a LOG0..LOG4 instruction.
// The consensus fields are filled in by the EVM; the derived fields are left
// to the surrounding block-assembly code.
type Log struct {
	// Consensus fields.
	Address Address
	Topics  []Hash
	Data    []byte

	// Derived fields, set by the enclosing transaction/block processing.
	BlockNumber uint64
	TxHash      Hash
	TxIndex     uint
	BlockHash   Hash
	Index       uint
	Removed     bool
}

// Copy returns a deep copy of the log.
func (l *Log) Copy() *Log {
	cpy := *l
	cpy.Topics = make([]Hash, len(l.Topics))
	copy(cpy.Topics, l.Topics)
	cpy.Data = make([]byte, len(l.Data))
	copy(cpy.Data, l.Data)
	return &cpy
}
