package vm

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/corevm/corevm/core/types"
)

func precompileAt(t *testing.T, addr byte) PrecompiledContract {
	t.Helper()
	p, ok := PrecompiledContracts()[types.BytesToAddress([]byte{addr})]
	if !ok {
		t.Fatalf("no precompile at 0x%02x", addr)
	}
	return p
}

func TestEcrecoverPrecompile(t *testing.T) {
	input := make([]byte, 0, 128)
	input = append(input, types.FromHex("456e9aea5e197a1f1af7a3e85a3212fa4049a3ba34c2289b4c860fc0b0c64ef3")...)
	input = append(input, types.FromHex("000000000000000000000000000000000000000000000000000000000000001c")...)
	input = append(input, types.FromHex("9242685bf161793cc25603c231bc2f568eb630ea16aa137d2664ac8038825608")...)
	input = append(input, types.FromHex("4f8ae3bd7535248d0bd448298cc2e2071e56992d0774dc340c368ae950852ada")...)

	out, gasLeft, err := runPrecompiled(precompileAt(t, 0x01), input, 5000)
	if err != nil {
		t.Fatalf("ecrecover failed: %v", err)
	}
	if gasLeft != 2000 {
		t.Errorf("gas left = %d, want 2000", gasLeft)
	}
	want := types.FromHex("0000000000000000000000007156526fbd7a3c72969b54f64e42c10fbb768c8a")
	if !bytes.Equal(out, want) {
		t.Errorf("output = %x, want %x", out, want)
	}
}

func TestEcrecoverInvalidInputs(t *testing.T) {
	p := precompileAt(t, 0x01)
	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", nil},
		{"bad v", bytes.Repeat([]byte{0xff}, 128)},
		{"zero signature", make([]byte, 128)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := p.Run(tt.input)
			if err != nil {
				t.Fatalf("ecrecover must not error: %v", err)
			}
			if len(out) != 0 {
				t.Errorf("output = %x, want empty", out)
			}
		})
	}
}

func TestSha256Precompile(t *testing.T) {
	out, gasLeft, err := runPrecompiled(precompileAt(t, 0x02), []byte("abc"), 100)
	if err != nil {
		t.Fatalf("sha256 failed: %v", err)
	}
	if gasLeft != 100-72 {
		t.Errorf("gas left = %d, want 28", gasLeft)
	}
	want := types.FromHex("ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")
	if !bytes.Equal(out, want) {
		t.Errorf("output = %x, want %x", out, want)
	}
}

func TestRipemd160Precompile(t *testing.T) {
	out, _, err := runPrecompiled(precompileAt(t, 0x03), nil, 600)
	if err != nil {
		t.Fatalf("ripemd160 failed: %v", err)
	}
	want := types.FromHex("0000000000000000000000009c1185a5c5e9fc54612808977ee8f548b2258d31")
	if !bytes.Equal(out, want) {
		t.Errorf("output = %x, want %x", out, want)
	}
}

func TestIdentityPrecompile(t *testing.T) {
	input := []byte{1, 2, 3, 4, 5}
	out, gasLeft, err := runPrecompiled(precompileAt(t, 0x04), input, 100)
	if err != nil {
		t.Fatalf("identity failed: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Errorf("output = %x, want %x", out, input)
	}
	if gasLeft != 100-18 {
		t.Errorf("gas left = %d, want 82", gasLeft)
	}
}

func TestPrecompileOutOfGas(t *testing.T) {
	_, gasLeft, err := runPrecompiled(precompileAt(t, 0x04), []byte{1}, 5)
	if !errors.Is(err, ErrOutOfGas) {
		t.Fatalf("err = %v, want ErrOutOfGas", err)
	}
	if gasLeft != 0 {
		t.Errorf("gas left = %d, want 0", gasLeft)
	}
}

func TestModExpPrecompile(t *testing.T) {
	// 8^9 mod 501 = 329.
	input := make([]byte, 0, 100)
	input = append(input, types.FromHex("0000000000000000000000000000000000000000000000000000000000000001")...)
	input = append(input, types.FromHex("0000000000000000000000000000000000000000000000000000000000000001")...)
	input = append(input, types.FromHex("0000000000000000000000000000000000000000000000000000000000000002")...)
	input = append(input, 0x08, 0x09, 0x01, 0xf5)

	p := precompileAt(t, 0x05)
	if got := p.RequiredGas(input); got != 200 {
		t.Errorf("RequiredGas = %d, want floor of 200", got)
	}
	out, err := p.Run(input)
	if err != nil {
		t.Fatalf("modexp failed: %v", err)
	}
	want := []byte{0x01, 0x49}
	if !bytes.Equal(out, want) {
		t.Errorf("output = %x, want %x", out, want)
	}
}

func TestModExpGasSaturates(t *testing.T) {
	// base and modulus lengths of 2^31 with a 64-byte zero-headed
	// exponent drive multComplexity*adjExpLen to exactly 2^64; the
	// charge must saturate instead of wrapping to the 200 floor.
	input := make([]byte, 0, 96)
	input = append(input, types.FromHex("0000000000000000000000000000000000000000000000000000000080000000")...)
	input = append(input, types.FromHex("0000000000000000000000000000000000000000000000000000000000000040")...)
	input = append(input, types.FromHex("0000000000000000000000000000000000000000000000000000000080000000")...)

	if got := precompileAt(t, 0x05).RequiredGas(input); got != math.MaxUint64 {
		t.Errorf("RequiredGas = %d, want saturation at MaxUint64", got)
	}
}

func TestModExpZeroModulus(t *testing.T) {
	input := make([]byte, 0, 98)
	input = append(input, types.FromHex("0000000000000000000000000000000000000000000000000000000000000001")...)
	input = append(input, types.FromHex("0000000000000000000000000000000000000000000000000000000000000001")...)
	input = append(input, types.FromHex("0000000000000000000000000000000000000000000000000000000000000002")...)
	input = append(input, 0x08, 0x09) // modulus bytes absent, read as zero

	out, err := precompileAt(t, 0x05).Run(input)
	if err != nil {
		t.Fatalf("modexp failed: %v", err)
	}
	if !bytes.Equal(out, []byte{0, 0}) {
		t.Errorf("output = %x, want two zero bytes", out)
	}
}

func TestBn254AddInfinity(t *testing.T) {
	// Adding the point at infinity to itself yields infinity; a short
	// input is right padded with zeros.
	out, err := precompileAt(t, 0x06).Run(nil)
	if err != nil {
		t.Fatalf("ecadd failed: %v", err)
	}
	if !bytes.Equal(out, make([]byte, 64)) {
		t.Errorf("output = %x, want 64 zero bytes", out)
	}
}

func TestBn254ScalarMulInfinity(t *testing.T) {
	out, err := precompileAt(t, 0x07).Run(nil)
	if err != nil {
		t.Fatalf("ecmul failed: %v", err)
	}
	if !bytes.Equal(out, make([]byte, 64)) {
		t.Errorf("output = %x, want 64 zero bytes", out)
	}
}

func TestBn254PairingEmptyInput(t *testing.T) {
	p := precompileAt(t, 0x08)
	if got := p.RequiredGas(nil); got != 45000 {
		t.Errorf("RequiredGas = %d, want 45000", got)
	}
	out, err := p.Run(nil)
	if err != nil {
		t.Fatalf("ecpairing failed: %v", err)
	}
	want := make([]byte, 32)
	want[31] = 1
	if !bytes.Equal(out, want) {
		t.Errorf("output = %x, want %x", out, want)
	}
}

func TestBn254PairingBadLength(t *testing.T) {
	if _, err := precompileAt(t, 0x08).Run(make([]byte, 191)); err == nil {
		t.Fatal("expected error for input not a multiple of 192")
	}
}

func TestBlake2FPrecompile(t *testing.T) {
	// EIP-152 test vector 5: 12 rounds over the "abc" block.
	input := types.FromHex(
		"0000000c" +
			"48c9bdf267e6096a3ba7ca8485ae67bb2bf894fe72f36e3cf1361d5f3af54fa5" +
			"d182e6ad7f520e511f6c3e2b8c68059b6bbd41fbabd9831f79217e1319cde05b" +
			"6162630000000000000000000000000000000000000000000000000000000000" +
			"0000000000000000000000000000000000000000000000000000000000000000" +
			"0000000000000000000000000000000000000000000000000000000000000000" +
			"0000000000000000000000000000000000000000000000000000000000000000" +
			"0300000000000000" + "0000000000000000" + "01")

	p := precompileAt(t, 0x09)
	if got := p.RequiredGas(input); got != 12 {
		t.Errorf("RequiredGas = %d, want 12", got)
	}
	out, err := p.Run(input)
	if err != nil {
		t.Fatalf("blake2f failed: %v", err)
	}
	want := types.FromHex(
		"ba80a53f981c4d0d6a2797b69f12f6e94c212f14685ac4b74b12bb6fdbffa2d1" +
			"7d87c5392aab792dc252d5de4533cc9518d38aa8dbf1925ab92386edd4009923")
	if !bytes.Equal(out, want) {
		t.Errorf("output = %x, want %x", out, want)
	}
}

func TestBlake2FInvalidInputs(t *testing.T) {
	p := precompileAt(t, 0x09)
	if _, err := p.Run(make([]byte, 212)); !errors.Is(err, errBlake2FInputLength) {
		t.Errorf("short input: err = %v, want errBlake2FInputLength", err)
	}
	bad := make([]byte, 213)
	bad[212] = 2
	if _, err := p.Run(bad); !errors.Is(err, errBlake2FFinalFlag) {
		t.Errorf("bad final flag: err = %v, want errBlake2FFinalFlag", err)
	}
}

func TestKZGPointEvaluationInvalidInputs(t *testing.T) {
	p := precompileAt(t, 0x0a)
	if got := p.RequiredGas(nil); got != 50000 {
		t.Errorf("RequiredGas = %d, want 50000", got)
	}
	if _, err := p.Run(make([]byte, 191)); !errors.Is(err, errKZGInputLength) {
		t.Errorf("short input: err = %v, want errKZGInputLength", err)
	}
	// A zero versioned hash never matches sha256 of the commitment.
	if _, err := p.Run(make([]byte, 192)); !errors.Is(err, errKZGVersionedHash) {
		t.Errorf("bad hash: err = %v, want errKZGVersionedHash", err)
	}
}
