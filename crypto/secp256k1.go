package crypto

import (
	"errors"
	"math/big"

	"github.com/corevm/corevm/core/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	decdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// secp256k1N is the order of the secp256k1 curve.
var secp256k1N, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)

// secp256k1halfN is half the order, used for the Homestead low-S check.
var secp256k1halfN = new(big.Int).Rsh(secp256k1N, 1)

var (
	ErrInvalidSignatureLen = errors.New("signature must be 65 bytes [R || S || V]")
	ErrInvalidHashLen      = errors.New("hash must be 32 bytes")
	ErrInvalidRecoveryID   = errors.New("invalid recovery id")
)

// Ecrecover recovers the uncompressed 65-byte public key [0x04 || X || Y]
// from a 32-byte hash and a 65-byte [R || S || V] signature with V in {0,1}.
func Ecrecover(hash, sig []byte) ([]byte, error) {
	pub, err := SigToPub(hash, sig)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

// SigToPub recovers the public key from hash and an [R || S || V] signature.
func SigToPub(hash, sig []byte) (*secp256k1.PublicKey, error) {
	if len(sig) != 65 {
		return nil, ErrInvalidSignatureLen
	}
	if len(hash) != 32 {
		return nil, ErrInvalidHashLen
	}
	if sig[64] >= 4 {
		return nil, ErrInvalidRecoveryID
	}

	// The decred library expects the compact form [V+27 || R || S].
	compact := make([]byte, 65)
	compact[0] = sig[64] + 27
	copy(compact[1:], sig[:64])

	pub, _, err := decdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// ValidateSignatureValues checks r, s, v for validity. If homestead is true,
// s must lie in the lower half of the curve order.
func ValidateSignatureValues(v byte, r, s *big.Int, homestead bool) bool {
	if r == nil || s == nil {
		return false
	}
	if v > 1 {
		return false
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return false
	}
	if r.Cmp(secp256k1N) >= 0 || s.Cmp(secp256k1N) >= 0 {
		return false
	}
	if homestead && s.Cmp(secp256k1halfN) > 0 {
		return false
	}
	return true
}

// PubkeyToAddress derives the Ethereum address from a recovered public key:
// Keccak256(pubkey[1:])[12:].
func PubkeyToAddress(pub *secp256k1.PublicKey) types.Address {
	b := pub.SerializeUncompressed()
	return types.BytesToAddress(Keccak256(b[1:])[12:])
}
