package vm

import (
	"crypto/sha256"
	"errors"
	"sync"

	goethkzg "github.com/crate-crypto/go-eth-kzg"
)

const (
	blobVerifyInputLength    = 192
	blobCommitmentVersionKZG = 0x01
	pointEvaluationGas       = 50000
)

var (
	errKZGInputLength   = errors.New("kzg: invalid input length")
	errKZGVersionedHash = errors.New("kzg: versioned hash does not match commitment")
	errKZGProofVerify   = errors.New("kzg: proof verification failed")
	errKZGContextFailed = errors.New("kzg: trusted setup initialization failed")
)

// kzgContext holds the shared verifier context backed by the Ethereum
// ceremony trusted setup. Initialization is expensive, so it is done
// once on first use.
var (
	kzgOnce   sync.Once
	kzgCtx    *goethkzg.Context
	kzgCtxErr error
)

func kzgVerifier() (*goethkzg.Context, error) {
	kzgOnce.Do(func() {
		kzgCtx, kzgCtxErr = goethkzg.NewContext4096Secure()
	})
	if kzgCtxErr != nil {
		return nil, errKZGContextFailed
	}
	return kzgCtx, nil
}

// pointEvaluationSuccess is the fixed return value of a successful
// verification: FIELD_ELEMENTS_PER_BLOB and BLS_MODULUS, each as a
// 32 byte big-endian word.
var pointEvaluationSuccess = []byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x73, 0xed, 0xa7, 0x53, 0x29, 0x9d, 0x7d, 0x48, 0x33, 0x39, 0xd8, 0x08, 0x09, 0xa1, 0xd8, 0x05,
	0x53, 0xbd, 0xa4, 0x02, 0xff, 0xfe, 0x5b, 0xfe, 0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x01,
}

// kzgPointEvaluation is the EIP-4844 point evaluation contract at
// 0x0a: it verifies that the blob committed to by a versioned hash
// evaluates to y at point z.
type kzgPointEvaluation struct{}

func (c *kzgPointEvaluation) RequiredGas(input []byte) uint64 {
	return pointEvaluationGas
}

func (c *kzgPointEvaluation) Run(input []byte) ([]byte, error) {
	// versioned_hash(32) | z(32) | y(32) | commitment(48) | proof(48)
	if len(input) != blobVerifyInputLength {
		return nil, errKZGInputLength
	}
	var (
		z          goethkzg.Scalar
		y          goethkzg.Scalar
		commitment goethkzg.KZGCommitment
		proof      goethkzg.KZGProof
	)
	copy(z[:], input[32:64])
	copy(y[:], input[64:96])
	copy(commitment[:], input[96:144])
	copy(proof[:], input[144:192])

	// The versioned hash commits to the commitment: sha256 with the
	// first byte replaced by the version.
	hashed := sha256.Sum256(commitment[:])
	hashed[0] = blobCommitmentVersionKZG
	for i := range hashed {
		if input[i] != hashed[i] {
			return nil, errKZGVersionedHash
		}
	}

	ctx, err := kzgVerifier()
	if err != nil {
		return nil, err
	}
	if err := ctx.VerifyKZGProof(commitment, z, y, proof); err != nil {
		return nil, errKZGProofVerify
	}
	return pointEvaluationSuccess, nil
}
