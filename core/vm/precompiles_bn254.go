package vm

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
)

var (
	errBN254InvalidPoint  = errors.New("bn254: point not on curve")
	errBN254PairingLength = errors.New("bn254: pairing input not a multiple of 192 bytes")
)

// parseG1 reads a 64-byte uncompressed G1 point (x | y, big-endian).
// The all-zero encoding is the point at infinity; any other point must
// have canonical coordinates and lie on the curve.
func parseG1(in []byte) (*bn254.G1Affine, error) {
	var p bn254.G1Affine
	if err := p.X.SetBytesCanonical(in[0:32]); err != nil {
		return nil, err
	}
	if err := p.Y.SetBytesCanonical(in[32:64]); err != nil {
		return nil, err
	}
	if !p.IsInfinity() && !p.IsOnCurve() {
		return nil, errBN254InvalidPoint
	}
	return &p, nil
}

// parseG2 reads a 128-byte uncompressed G2 point. The EVM encoding
// puts the imaginary component of each coordinate first.
func parseG2(in []byte) (*bn254.G2Affine, error) {
	var p bn254.G2Affine
	if err := p.X.A1.SetBytesCanonical(in[0:32]); err != nil {
		return nil, err
	}
	if err := p.X.A0.SetBytesCanonical(in[32:64]); err != nil {
		return nil, err
	}
	if err := p.Y.A1.SetBytesCanonical(in[64:96]); err != nil {
		return nil, err
	}
	if err := p.Y.A0.SetBytesCanonical(in[96:128]); err != nil {
		return nil, err
	}
	if p.IsInfinity() {
		return &p, nil
	}
	if !p.IsOnCurve() || !p.IsInSubGroup() {
		return nil, errBN254InvalidPoint
	}
	return &p, nil
}

func marshalG1(p *bn254.G1Affine) []byte {
	out := make([]byte, 64)
	if p.IsInfinity() {
		return out
	}
	x := p.X.Bytes()
	y := p.Y.Bytes()
	copy(out[:32], x[:])
	copy(out[32:], y[:])
	return out
}

// bn254Add is the alt_bn128 point addition contract at 0x06 (EIP-196),
// priced per EIP-1108.
type bn254Add struct{}

func (c *bn254Add) RequiredGas(input []byte) uint64 {
	return 150
}

func (c *bn254Add) Run(input []byte) ([]byte, error) {
	input = rightPad(input, 128)
	a, err := parseG1(input[0:64])
	if err != nil {
		return nil, err
	}
	b, err := parseG1(input[64:128])
	if err != nil {
		return nil, err
	}
	var sum bn254.G1Affine
	sum.Add(a, b)
	return marshalG1(&sum), nil
}

// bn254ScalarMul is the alt_bn128 scalar multiplication contract at
// 0x07 (EIP-196), priced per EIP-1108.
type bn254ScalarMul struct{}

func (c *bn254ScalarMul) RequiredGas(input []byte) uint64 {
	return 6000
}

func (c *bn254ScalarMul) Run(input []byte) ([]byte, error) {
	input = rightPad(input, 96)
	p, err := parseG1(input[0:64])
	if err != nil {
		return nil, err
	}
	scalar := new(big.Int).SetBytes(input[64:96])
	var res bn254.G1Affine
	res.ScalarMultiplication(p, scalar)
	return marshalG1(&res), nil
}

// bn254Pairing is the alt_bn128 pairing check contract at 0x08
// (EIP-197), priced per EIP-1108. Empty input is the empty product and
// verifies.
type bn254Pairing struct{}

func (c *bn254Pairing) RequiredGas(input []byte) uint64 {
	return 45000 + 34000*uint64(len(input)/192)
}

func (c *bn254Pairing) Run(input []byte) ([]byte, error) {
	if len(input)%192 != 0 {
		return nil, errBN254PairingLength
	}
	k := len(input) / 192
	g1s := make([]bn254.G1Affine, 0, k)
	g2s := make([]bn254.G2Affine, 0, k)
	for i := 0; i < k; i++ {
		chunk := input[i*192 : (i+1)*192]
		p1, err := parseG1(chunk[0:64])
		if err != nil {
			return nil, err
		}
		p2, err := parseG2(chunk[64:192])
		if err != nil {
			return nil, err
		}
		// Infinity terms contribute nothing to the product.
		if p1.IsInfinity() || p2.IsInfinity() {
			continue
		}
		g1s = append(g1s, *p1)
		g2s = append(g2s, *p2)
	}
	out := make([]byte, 32)
	if len(g1s) == 0 {
		out[31] = 1
		return out, nil
	}
	ok, err := bn254.PairingCheck(g1s, g2s)
	if err != nil {
		return nil, err
	}
	if ok {
		out[31] = 1
	}
	return out, nil
}
