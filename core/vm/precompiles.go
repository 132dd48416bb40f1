package vm

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math"
	"math/big"
	"math/bits"

	"golang.org/x/crypto/ripemd160"

	"github.com/corevm/corevm/core/types"
	"github.com/corevm/corevm/crypto"
)

// PrecompiledContract is a contract implemented in native code rather
// than bytecode.
type PrecompiledContract interface {
	// RequiredGas is the full cost of running the contract on input.
	RequiredGas(input []byte) uint64
	Run(input []byte) ([]byte, error)
}

var (
	errBlake2FInputLength   = errors.New("blake2f: invalid input length")
	errBlake2FFinalFlag     = errors.New("blake2f: invalid final block indicator")
	errModexpLengthTooLarge = errors.New("modexp: length operand too large")
)

// PrecompiledContracts returns the contract set at addresses 0x01
// through 0x0a, the Cancun rule level.
func PrecompiledContracts() map[types.Address]PrecompiledContract {
	return map[types.Address]PrecompiledContract{
		types.BytesToAddress([]byte{0x01}): &ecrecoverContract{},
		types.BytesToAddress([]byte{0x02}): &sha256hash{},
		types.BytesToAddress([]byte{0x03}): &ripemd160hash{},
		types.BytesToAddress([]byte{0x04}): &dataCopy{},
		types.BytesToAddress([]byte{0x05}): &bigModExp{},
		types.BytesToAddress([]byte{0x06}): &bn254Add{},
		types.BytesToAddress([]byte{0x07}): &bn254ScalarMul{},
		types.BytesToAddress([]byte{0x08}): &bn254Pairing{},
		types.BytesToAddress([]byte{0x09}): &blake2F{},
		types.BytesToAddress([]byte{0x0a}): &kzgPointEvaluation{},
	}
}

// runPrecompiled charges the contract's gas up front and executes it.
// Any failure consumes the entire gas allowance.
func runPrecompiled(p PrecompiledContract, input []byte, gas uint64) ([]byte, uint64, error) {
	cost := p.RequiredGas(input)
	if gas < cost {
		return nil, 0, ErrOutOfGas
	}
	out, err := p.Run(input)
	if err != nil {
		return nil, 0, err
	}
	return out, gas - cost, nil
}

// ecrecoverContract is the signature recovery contract at 0x01.
type ecrecoverContract struct{}

func (c *ecrecoverContract) RequiredGas(input []byte) uint64 {
	return 3000
}

// Run recovers the signing address from [hash | v | r | s]. Invalid
// signatures return empty output rather than an error; the contract
// itself never fails.
func (c *ecrecoverContract) Run(input []byte) ([]byte, error) {
	input = rightPad(input, 128)

	v := new(big.Int).SetBytes(input[32:64])
	r := new(big.Int).SetBytes(input[64:96])
	s := new(big.Int).SetBytes(input[96:128])

	if v.BitLen() > 8 {
		return nil, nil
	}
	vByte := byte(v.Uint64())
	if vByte != 27 && vByte != 28 {
		return nil, nil
	}
	if !crypto.ValidateSignatureValues(vByte-27, r, s, true) {
		return nil, nil
	}

	sig := make([]byte, 65)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	sig[64] = vByte - 27

	pub, err := crypto.Ecrecover(input[:32], sig)
	if err != nil {
		return nil, nil
	}
	out := make([]byte, 32)
	copy(out[12:], crypto.Keccak256(pub[1:])[12:])
	return out, nil
}

// sha256hash is the SHA-256 contract at 0x02.
type sha256hash struct{}

func (c *sha256hash) RequiredGas(input []byte) uint64 {
	return 60 + 12*wordCount(len(input))
}

func (c *sha256hash) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

// ripemd160hash is the RIPEMD-160 contract at 0x03. The 20 byte digest
// is returned left padded to 32 bytes.
type ripemd160hash struct{}

func (c *ripemd160hash) RequiredGas(input []byte) uint64 {
	return 600 + 120*wordCount(len(input))
}

func (c *ripemd160hash) Run(input []byte) ([]byte, error) {
	h := ripemd160.New()
	h.Write(input)
	out := make([]byte, 32)
	copy(out[12:], h.Sum(nil))
	return out, nil
}

// dataCopy is the identity contract at 0x04.
type dataCopy struct{}

func (c *dataCopy) RequiredGas(input []byte) uint64 {
	return 15 + 3*wordCount(len(input))
}

func (c *dataCopy) Run(input []byte) ([]byte, error) {
	out := make([]byte, len(input))
	copy(out, input)
	return out, nil
}

// bigModExp is the arbitrary-precision modular exponentiation contract
// at 0x05, priced per EIP-2565.
type bigModExp struct{}

func (c *bigModExp) RequiredGas(input []byte) uint64 {
	header := rightPad(input, 96)
	baseLen := bigUint64OrMax(new(big.Int).SetBytes(header[0:32]))
	expLen := bigUint64OrMax(new(big.Int).SetBytes(header[32:64]))
	modLen := bigUint64OrMax(new(big.Int).SetBytes(header[64:96]))

	var tail []byte
	if len(input) > 96 {
		tail = input[96:]
	}
	adjExpLen := adjustedExpLen(expLen, baseLen, tail)

	maxLen := baseLen
	if modLen > maxLen {
		maxLen = modLen
	}
	// multiplication complexity: ceil(maxLen/8)^2
	words := (maxLen + 7) / 8
	if words > math.MaxUint32 {
		return math.MaxUint64
	}
	multComplexity := words * words

	// The product can exceed uint64 for near-maximal lengths; the
	// charge must saturate rather than wrap back below the floor.
	hi, lo := bits.Mul64(multComplexity, maxUint64(adjExpLen, 1))
	if hi != 0 {
		return math.MaxUint64
	}
	gas := lo / 3
	if gas < 200 {
		return 200
	}
	return gas
}

func (c *bigModExp) Run(input []byte) ([]byte, error) {
	header := rightPad(input, 96)
	baseLen := new(big.Int).SetBytes(header[0:32])
	expLen := new(big.Int).SetBytes(header[32:64])
	modLen := new(big.Int).SetBytes(header[64:96])
	if baseLen.BitLen() > 32 || expLen.BitLen() > 32 || modLen.BitLen() > 32 {
		return nil, errModexpLengthTooLarge
	}
	var (
		bLen = baseLen.Uint64()
		eLen = expLen.Uint64()
		mLen = modLen.Uint64()
	)
	if bLen == 0 && mLen == 0 {
		return nil, nil
	}

	var data []byte
	if len(input) > 96 {
		data = input[96:]
	}
	mod := new(big.Int).SetBytes(getData(data, bLen+eLen, mLen))
	if mod.Sign() == 0 {
		// x mod 0 is defined as 0, sized to the modulus length.
		return make([]byte, mLen), nil
	}
	base := new(big.Int).SetBytes(getData(data, 0, bLen))
	exp := new(big.Int).SetBytes(getData(data, bLen, eLen))

	result := new(big.Int).Exp(base, exp, mod)
	out := make([]byte, mLen)
	result.FillBytes(out)
	return out, nil
}

// adjustedExpLen computes the iteration count term of the modexp gas
// formula from the leading 32 bytes of the exponent.
func adjustedExpLen(expLen, baseLen uint64, data []byte) uint64 {
	head := expLen
	if head > 32 {
		head = 32
	}
	exp := new(big.Int).SetBytes(getData(data, baseLen, head))
	var adj uint64
	if exp.Sign() > 0 {
		adj = uint64(exp.BitLen() - 1)
	}
	if expLen > 32 {
		adj += 8 * (expLen - 32)
	}
	return adj
}

// blake2F is the BLAKE2b compression contract at 0x09 (EIP-152).
type blake2F struct{}

const blake2FInputLength = 213

func (c *blake2F) RequiredGas(input []byte) uint64 {
	if len(input) != blake2FInputLength {
		return 0
	}
	return uint64(binary.BigEndian.Uint32(input[:4]))
}

func (c *blake2F) Run(input []byte) ([]byte, error) {
	// rounds(4) | h(64) | m(128) | t(16) | final(1)
	if len(input) != blake2FInputLength {
		return nil, errBlake2FInputLength
	}
	if input[212] != 0 && input[212] != 1 {
		return nil, errBlake2FFinalFlag
	}
	var (
		rounds = binary.BigEndian.Uint32(input[:4])
		final  = input[212] == 1
		h      [8]uint64
		m      [16]uint64
		t      [2]uint64
	)
	for i := 0; i < 8; i++ {
		h[i] = binary.LittleEndian.Uint64(input[4+i*8:])
	}
	for i := 0; i < 16; i++ {
		m[i] = binary.LittleEndian.Uint64(input[68+i*8:])
	}
	t[0] = binary.LittleEndian.Uint64(input[196:204])
	t[1] = binary.LittleEndian.Uint64(input[204:212])

	crypto.Blake2bF(&h, m, t, final, rounds)

	out := make([]byte, 64)
	for i := 0; i < 8; i++ {
		binary.LittleEndian.PutUint64(out[i*8:], h[i])
	}
	return out, nil
}

func wordCount(size int) uint64 {
	return uint64((size + 31) / 32)
}

func rightPad(data []byte, minLen int) []byte {
	if len(data) >= minLen {
		return data
	}
	padded := make([]byte, minLen)
	copy(padded, data)
	return padded
}

func bigUint64OrMax(v *big.Int) uint64 {
	if !v.IsUint64() {
		return math.MaxUint64
	}
	return v.Uint64()
}

func maxUint64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
