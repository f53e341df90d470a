package cabac

import (
	"github.com/xxthink/xvc/internal/bio"
)

// Encoder is the binary arithmetic encoder.
//
// An Encoder is a plain value: copying one yields an independent coder that
// continues from the same interval and bit count. A copy whose output is
// detached with Detach counts bits without emitting bytes, which is how
// trial encodes are run.
type Encoder struct {
	low          uint32
	rng          uint32
	bitsLeft     int
	numBuffered  int
	bufferedByte uint32

	out      *bio.Writer // nil for a detached (counting only) encoder
	written  int64       // bits passed to out, relative to the last reset
	fracBits uint64
	frozen   bool // context adaptation disabled
	err      error
}

// NewEncoder creates an encoder writing to out. A nil out gives a counting
// encoder. When frozen is set context models are never adapted.
func NewEncoder(out *bio.Writer, frozen bool) Encoder {
	e := Encoder{out: out, frozen: frozen}
	e.Start()
	return e
}

// Start resets the coding interval.
func (e *Encoder) Start() {
	e.low = 0
	e.rng = 510
	e.bitsLeft = 23
	e.numBuffered = 0
	e.bufferedByte = 0xff
}

// Detach stops the encoder from emitting bytes. Bit counting continues.
func (e *Encoder) Detach() {
	e.out = nil
}

// EncodeBin codes one context-modelled bin and adapts ctx.
func (e *Encoder) EncodeBin(bin uint32, ctx *ContextModel) {
	e.fracBits += uint64(BinCost(*ctx, bin))
	lps := uint32(rangeTable[ctx.state][(e.rng>>6)&3])
	e.rng -= lps
	if bin != uint32(ctx.mps) {
		numBits := int(renormTable[lps>>3])
		e.low = (e.low + e.rng) << numBits
		e.rng = lps << numBits
		e.bitsLeft -= numBits
		if !e.frozen {
			ctx.updateLPS()
		}
	} else {
		if !e.frozen {
			ctx.updateMPS()
		}
		if e.rng >= 256 {
			return
		}
		e.low <<= 1
		e.rng <<= 1
		e.bitsLeft--
	}
	e.testAndWriteOut()
}

// EncodeBypass codes one equiprobable bin.
func (e *Encoder) EncodeBypass(bin uint32) {
	e.fracBits += 1 << FracBitsPrecision
	e.low <<= 1
	if bin != 0 {
		e.low += e.rng
	}
	e.bitsLeft--
	e.testAndWriteOut()
}

// EncodeBypassBins codes the numBins low bits of value, MSB first.
func (e *Encoder) EncodeBypassBins(value uint32, numBins int) {
	e.fracBits += uint64(numBins) << FracBitsPrecision
	for numBins > 8 {
		numBins -= 8
		pattern := value >> uint(numBins)
		e.low <<= 8
		e.low += e.rng * pattern
		value -= pattern << uint(numBins)
		e.bitsLeft -= 8
		e.testAndWriteOut()
	}
	e.low <<= uint(numBins)
	e.low += e.rng * value
	e.bitsLeft -= numBins
	e.testAndWriteOut()
}

// EncodeBinTrm codes a terminating bin.
func (e *Encoder) EncodeBinTrm(bin uint32) {
	e.rng -= 2
	if bin != 0 {
		e.low += e.rng
		e.low <<= 7
		e.rng = 2 << 7
		e.bitsLeft -= 7
	} else if e.rng >= 256 {
		return
	} else {
		e.low <<= 1
		e.rng <<= 1
		e.bitsLeft--
	}
	e.testAndWriteOut()
}

// Finish flushes the coding interval. The encoder must be restarted before
// further use.
func (e *Encoder) Finish() error {
	if e.low>>uint(32-e.bitsLeft) != 0 {
		e.writeByte(e.bufferedByte + 1)
		for e.numBuffered > 1 {
			e.writeByte(0x00)
			e.numBuffered--
		}
		e.low -= 1 << uint(32-e.bitsLeft)
	} else {
		if e.numBuffered > 0 {
			e.writeByte(e.bufferedByte)
		}
		for e.numBuffered > 1 {
			e.writeByte(0xff)
			e.numBuffered--
		}
	}
	e.writeBits(e.low>>8, 24-e.bitsLeft)
	return e.err
}

// NumWrittenBits returns the number of bits produced since the last reset,
// including bits still held in the coding interval.
func (e *Encoder) NumWrittenBits() int64 {
	return e.written + int64(8*e.numBuffered) + 23 - int64(e.bitsLeft)
}

// ResetBitCounting makes NumWrittenBits count from zero at this point.
func (e *Encoder) ResetBitCounting() {
	e.written = -(int64(8*e.numBuffered) + 23 - int64(e.bitsLeft))
}

// FractionalBits returns the estimated cost of all bins coded so far.
func (e *Encoder) FractionalBits() uint64 {
	return e.fracBits
}

// Err returns the first error reported by the underlying bit writer.
func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) testAndWriteOut() {
	if e.bitsLeft < 12 {
		e.writeOut()
	}
}

func (e *Encoder) writeOut() {
	leadByte := e.low >> uint(24-e.bitsLeft)
	e.bitsLeft += 8
	e.low &= 0xffffffff >> uint(e.bitsLeft)
	if leadByte == 0xff {
		e.numBuffered++
		return
	}
	if e.numBuffered > 0 {
		carry := leadByte >> 8
		b := e.bufferedByte + carry
		e.bufferedByte = leadByte & 0xff
		e.writeByte(b)
		b = (0xff + carry) & 0xff
		for e.numBuffered > 1 {
			e.writeByte(b)
			e.numBuffered--
		}
	} else {
		e.numBuffered = 1
		e.bufferedByte = leadByte
	}
}

func (e *Encoder) writeByte(b uint32) {
	e.writeBits(b&0xff, 8)
}

func (e *Encoder) writeBits(v uint32, n int) {
	if n <= 0 {
		return
	}
	e.written += int64(n)
	if e.out == nil || e.err != nil {
		return
	}
	e.err = e.out.WriteBits(v, uint(n))
}
