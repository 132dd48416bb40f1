package types

import (
	"bytes"
	"testing"
)

func TestBytesToAddressPadding(t *testing.T) {
	a := BytesToAddress([]byte{1})
	want := Address{}
	want[19] = 1
	if a != want {
		t.Errorf("BytesToAddress([]byte{1}) = %s, want %s", a, want)
	}
}

func TestBytesToAddressTruncation(t *testing.T) {
	// 22 bytes in: only the rightmost 20 survive.
	in := make([]byte, 22)
	for i := range in {
		in[i] = byte(i)
	}
	a := BytesToAddress(in)
	if !bytes.Equal(a.Bytes(), in[2:]) {
		t.Errorf("BytesToAddress kept wrong bytes: got %x, want %x", a.Bytes(), in[2:])
	}
}

func TestHashSetBytes(t *testing.T) {
	h := BytesToHash([]byte{0xde, 0xad})
	if h[30] != 0xde || h[31] != 0xad {
		t.Errorf("BytesToHash misplaced bytes: %s", h)
	}
	if !BytesToHash(nil).IsZero() {
		t.Error("BytesToHash(nil).IsZero() = false, want true")
	}
}

func TestFromHex(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"0x0102", []byte{1, 2}},
		{"0102", []byte{1, 2}},
		{"0x102", []byte{1, 2}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := FromHex(tt.in); !bytes.Equal(got, tt.want) {
			t.Errorf("FromHex(%q) = %x, want %x", tt.in, got, tt.want)
		}
	}
}

func TestLogCopy(t *testing.T) {
	l := &Log{
		Address: HexToAddress("0x01"),
		Topics:  []Hash{HexToHash("0x02")},
		Data:    []byte{3, 4},
	}
	c := l.Copy()
	c.Topics[0] = HexToHash("0xff")
	c.Data[0] = 0xff
	if l.Topics[0] == c.Topics[0] {
		t.Error("Copy shares topics slice")
	}
	if l.Data[0] == c.Data[0] {
		t.Error("Copy shares data slice")
	}
}
