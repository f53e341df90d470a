// Package bio provides bit-level I/O for xvc headers and the CABAC payload.
//
// Bits are packed MSB first. Both the Reader and the Writer keep a running
// bit count which can be reset at any point, so callers can measure the size
// of a syntax structure without tracking byte offsets themselves.
package bio

import (
	"io"
)

// Reader provides bit-level reading from a byte stream.
type Reader struct {
	r        io.Reader
	buf      byte  // Current byte buffer
	cnt      uint8 // Number of valid bits in buf (0-8)
	consumed uint64
}

// NewReader creates a new bit reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadBit reads a single bit (0 or 1).
func (r *Reader) ReadBit() (int, error) {
	if r.cnt == 0 {
		var b [1]byte
		if _, err := io.ReadFull(r.r, b[:]); err != nil {
			return 0, err
		}
		r.buf = b[0]
		r.cnt = 8
	}
	r.cnt--
	r.consumed++
	return int((r.buf >> r.cnt) & 1), nil
}

// ReadBits reads n bits (0-32).
func (r *Reader) ReadBits(n uint) (uint32, error) {
	var result uint32
	for i := uint(0); i < n; i++ {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		result = (result << 1) | uint32(bit)
	}
	return result, nil
}

// ReadFlag reads one bit as a boolean.
func (r *Reader) ReadFlag() (bool, error) {
	bit, err := r.ReadBit()
	return bit == 1, err
}

// ReadByte reads 8 bits. On a byte boundary this is a plain byte read.
func (r *Reader) ReadByte() (byte, error) {
	if r.cnt == 0 {
		var b [1]byte
		if _, err := io.ReadFull(r.r, b[:]); err != nil {
			return 0, err
		}
		r.consumed += 8
		return b[0], nil
	}
	v, err := r.ReadBits(8)
	return byte(v), err
}

// Align discards any remaining bits in the current byte.
func (r *Reader) Align() {
	r.consumed += uint64(r.cnt)
	r.cnt = 0
}

// NumReadBits returns the number of bits consumed since the last reset.
func (r *Reader) NumReadBits() uint64 {
	return r.consumed
}

// ResetBitCounting restarts the consumed bit count at zero.
func (r *Reader) ResetBitCounting() {
	r.consumed = 0
}

// Writer provides bit-level writing to a byte stream.
type Writer struct {
	w       io.Writer
	buf     byte  // Current byte buffer
	cnt     uint8 // Number of valid bits in buf (0-7)
	written uint64
}

// NewWriter creates a new bit writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteBit writes a single bit.
func (w *Writer) WriteBit(bit int) error {
	w.buf = (w.buf << 1) | byte(bit&1)
	w.cnt++
	w.written++
	if w.cnt == 8 {
		if err := w.flushByte(); err != nil {
			return err
		}
	}
	return nil
}

// WriteBits writes n bits from the lowest n bits of val.
func (w *Writer) WriteBits(val uint32, n uint) error {
	for i := n; i > 0; i-- {
		bit := int((val >> (i - 1)) & 1)
		if err := w.WriteBit(bit); err != nil {
			return err
		}
	}
	return nil
}

// WriteFlag writes a boolean as one bit.
func (w *Writer) WriteFlag(flag bool) error {
	if flag {
		return w.WriteBit(1)
	}
	return w.WriteBit(0)
}

// WriteByte writes 8 bits.
func (w *Writer) WriteByte(b byte) error {
	if w.cnt == 0 {
		w.written += 8
		_, err := w.w.Write([]byte{b})
		return err
	}
	return w.WriteBits(uint32(b), 8)
}

// flushByte writes the current byte buffer.
func (w *Writer) flushByte() error {
	b := [1]byte{w.buf}
	_, err := w.w.Write(b[:])
	w.buf = 0
	w.cnt = 0
	return err
}

// Flush writes any remaining bits, padding with zeros.
func (w *Writer) Flush() error {
	if w.cnt > 0 {
		w.written += uint64(8 - w.cnt)
		w.buf <<= (8 - w.cnt)
		return w.flushByte()
	}
	return nil
}

// NumWrittenBits returns the number of bits written since the last reset,
// including padding added by Flush.
func (w *Writer) NumWrittenBits() uint64 {
	return w.written
}

// ResetBitCounting restarts the written bit count at zero.
func (w *Writer) ResetBitCounting() {
	w.written = 0
}
