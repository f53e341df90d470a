package bio

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// errWriter is an io.Writer that always returns an error after n writes.
type errWriter struct {
	n   int
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.n <= 0 {
		return 0, e.err
	}
	e.n--
	return len(p), nil
}

// =============================================================================
// Reader tests
// =============================================================================

func TestReader_ReadBits(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		n    uint
		want uint32
	}{
		{"zero bits", []byte{0xFF}, 0, 0},
		{"one bit", []byte{0x80}, 1, 1},
		{"nibble", []byte{0xA5}, 4, 0xA},
		{"byte", []byte{0xA5}, 8, 0xA5},
		{"24 bit magic", []byte{0x78, 0x76, 0x63}, 24, 0x787663},
		{"32 bit", []byte{0xDE, 0xAD, 0xBE, 0xEF}, 32, 0xDEADBEEF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(bytes.NewReader(tt.data))
			got, err := r.ReadBits(tt.n)
			if err != nil {
				t.Fatalf("ReadBits error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadBits(%d) = %#x, want %#x", tt.n, got, tt.want)
			}
			if r.NumReadBits() != uint64(tt.n) {
				t.Errorf("NumReadBits = %d, want %d", r.NumReadBits(), tt.n)
			}
		})
	}
}

func TestReader_EOF(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x01}))
	if _, err := r.ReadBits(8); err != nil {
		t.Fatalf("first byte: %v", err)
	}
	if _, err := r.ReadBit(); err != io.EOF {
		t.Errorf("ReadBit past end = %v, want io.EOF", err)
	}
}

func TestReader_AlignAndByte(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xC0, 0x5A}))
	bit, _ := r.ReadBit()
	if bit != 1 {
		t.Fatalf("first bit = %d, want 1", bit)
	}
	r.Align()
	if r.NumReadBits() != 8 {
		t.Errorf("NumReadBits after Align = %d, want 8", r.NumReadBits())
	}
	b, err := r.ReadByte()
	if err != nil || b != 0x5A {
		t.Errorf("ReadByte = %#x, %v, want 0x5a", b, err)
	}
	r.ResetBitCounting()
	if r.NumReadBits() != 0 {
		t.Errorf("NumReadBits after reset = %d", r.NumReadBits())
	}
}

// =============================================================================
// Writer tests
// =============================================================================

func TestWriter_WriteBits(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteBits(0x5, 3)
	w.WriteFlag(true)
	w.WriteBits(0x0, 4)
	w.WriteByte(0xFE)
	if got := w.NumWrittenBits(); got != 16 {
		t.Errorf("NumWrittenBits = %d, want 16", got)
	}
	w.WriteBit(1)
	w.Flush()
	want := []byte{0xB0, 0xFE, 0x80}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("bytes = %x, want %x", buf.Bytes(), want)
	}
	if got := w.NumWrittenBits(); got != 24 {
		t.Errorf("NumWrittenBits after Flush = %d, want 24", got)
	}
}

func TestWriter_ResetBitCounting(t *testing.T) {
	w := NewWriter(io.Discard)
	w.WriteBits(0x3FF, 10)
	w.ResetBitCounting()
	w.WriteBits(0x3, 3)
	if got := w.NumWrittenBits(); got != 3 {
		t.Errorf("NumWrittenBits = %d, want 3", got)
	}
}

func TestWriter_Error(t *testing.T) {
	sentinel := errors.New("write failed")
	w := NewWriter(&errWriter{n: 0, err: sentinel})
	if err := w.WriteBits(0xFF, 8); !errors.Is(err, sentinel) {
		t.Errorf("WriteBits error = %v, want %v", err, sentinel)
	}
}

func TestRoundTrip_MixedBitLengths(t *testing.T) {
	values := []struct {
		val uint32
		n   uint
	}{
		{1, 1}, {0x5, 3}, {0xABC, 12}, {0, 2}, {0x7FFF, 15}, {0x1, 4}, {0xFFFFFF, 24},
	}
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, v := range values {
		if err := w.WriteBits(v.val, v.n); err != nil {
			t.Fatal(err)
		}
	}
	w.Flush()

	r := NewReader(bytes.NewReader(buf.Bytes()))
	for i, v := range values {
		got, err := r.ReadBits(v.n)
		if err != nil {
			t.Fatalf("value %d: %v", i, err)
		}
		if got != v.val {
			t.Errorf("value %d: got %#x, want %#x", i, got, v.val)
		}
	}
}

func BenchmarkWriter_WriteBits(b *testing.B) {
	w := NewWriter(io.Discard)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.WriteBits(uint32(i), 13)
	}
}
