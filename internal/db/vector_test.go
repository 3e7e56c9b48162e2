package db

import (
	"errors"
	"testing"
)

func TestEncodeVector_Layout(t *testing.T) {
	// 1.0 = 0x3F800000, little-endian.
	got := EncodeVector([]float32{1})
	want := []byte{0x00, 0x00, 0x80, 0x3F}
	if string(got) != string(want) {
		t.Errorf("EncodeVector(1) = %x, want %x", got, want)
	}
}

func TestDecodeVector(t *testing.T) {
	in := []float32{0.6, -0.8, 0, 1e-7}
	out, err := DecodeVector(EncodeVector(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestDecodeVector_BadLength(t *testing.T) {
	if _, err := DecodeVector([]byte{1, 2, 3}); !errors.Is(err, ErrBadVector) {
		t.Errorf("expected ErrBadVector, got %v", err)
	}
	out, err := DecodeVector(nil)
	if err != nil || len(out) != 0 {
		t.Errorf("empty blob: got %v, %v", out, err)
	}
}
