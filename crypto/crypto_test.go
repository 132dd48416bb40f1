package crypto

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/corevm/corevm/core/types"
)

func TestKeccak256EmptyInput(t *testing.T) {
	got := Keccak256Hash()
	want := types.HexToHash("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
	if got != want {
		t.Errorf("Keccak256Hash() = %s, want %s", got, want)
	}
	if got != types.EmptyCodeHash {
		t.Errorf("EmptyCodeHash mismatch: %s", got)
	}
}

func TestKeccak256KnownVector(t *testing.T) {
	got := Keccak256([]byte("abc"))
	want := types.FromHex("4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45")
	if !bytes.Equal(got, want) {
		t.Errorf("Keccak256(abc) = %x, want %x", got, want)
	}
}

func TestEcrecoverKnownVector(t *testing.T) {
	hash := types.FromHex("456e9aea5e197a1f1af7a3e85a3212fa4049a3ba34c2289b4c860fc0b0c64ef3")
	r := types.FromHex("9242685bf161793cc25603c231bc2f568eb630ea16aa137d2664ac8038825608")
	s := types.FromHex("4f8ae3bd7535248d0bd448298cc2e2071e56992d0774dc340c368ae950852ada")

	sig := make([]byte, 65)
	copy(sig[32-len(r):32], r)
	copy(sig[64-len(s):64], s)
	sig[64] = 1 // v = 28 on the wire

	pub, err := SigToPub(hash, sig)
	if err != nil {
		t.Fatalf("SigToPub: %v", err)
	}
	addr := PubkeyToAddress(pub)
	want := types.HexToAddress("0x7156526fbd7a3c72969b54f64e42c10fbb768c8a")
	if addr != want {
		t.Errorf("recovered address = %s, want %s", addr, want)
	}
}

func TestEcrecoverRejectsBadInput(t *testing.T) {
	hash := make([]byte, 32)
	if _, err := Ecrecover(hash, make([]byte, 64)); err == nil {
		t.Error("Ecrecover accepted 64-byte signature")
	}
	sig := make([]byte, 65)
	sig[64] = 9
	if _, err := Ecrecover(hash, sig); err == nil {
		t.Error("Ecrecover accepted recovery id 9")
	}
	if _, err := Ecrecover(make([]byte, 31), make([]byte, 65)); err == nil {
		t.Error("Ecrecover accepted short hash")
	}
}

func TestValidateSignatureValues(t *testing.T) {
	one := big.NewInt(1)
	zero := big.NewInt(0)

	if !ValidateSignatureValues(0, one, one, true) {
		t.Error("rejected minimal valid signature values")
	}
	if ValidateSignatureValues(2, one, one, true) {
		t.Error("accepted v = 2")
	}
	if ValidateSignatureValues(0, zero, one, true) {
		t.Error("accepted r = 0")
	}
	if ValidateSignatureValues(0, one, zero, true) {
		t.Error("accepted s = 0")
	}
	if ValidateSignatureValues(0, secp256k1N, one, true) {
		t.Error("accepted r = N")
	}

	// High-S: allowed pre-Homestead, rejected after.
	highS := new(big.Int).Add(secp256k1halfN, one)
	if ValidateSignatureValues(0, one, highS, true) {
		t.Error("accepted high S under homestead rules")
	}
	if !ValidateSignatureValues(0, one, highS, false) {
		t.Error("rejected high S under frontier rules")
	}
}
