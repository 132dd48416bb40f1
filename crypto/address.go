package crypto

import (
	"github.com/corevm/corevm/core/types"
	"github.com/corevm/corevm/rlp"
)

// CreateAddress computes the address of a contract deployed by CREATE:
// the last 20 bytes of keccak256(rlp([sender, nonce])).
func CreateAddress(sender types.Address, nonce uint64) types.Address {
	enc, _ := rlp.EncodeToBytes(struct {
		Sender []byte
		Nonce  uint64
	}{sender.Bytes(), nonce})
	return types.BytesToAddress(Keccak256(enc)[12:])
}

// CreateAddress2 computes the address of a contract deployed by
// CREATE2 (EIP-1014): the last 20 bytes of
// keccak256(0xff ++ sender ++ salt ++ keccak256(initcode)).
func CreateAddress2(sender types.Address, salt [32]byte, initCodeHash []byte) types.Address {
	return types.BytesToAddress(Keccak256([]byte{0xff}, sender.Bytes(), salt[:], initCodeHash)[12:])
}
