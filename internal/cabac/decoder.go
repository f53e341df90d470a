package cabac

import (
	"github.com/xxthink/xvc/internal/bio"
)

// Decoder is the binary arithmetic decoder matching Encoder.
//
// Reading past the end of the data yields zero bytes, so a damaged stream
// decodes to defined but meaningless symbols.
type Decoder struct {
	in         *bio.Reader
	value      uint32
	rng        uint32
	bitsNeeded int
	frozen     bool
}

// NewDecoder creates a decoder reading from in and starts it.
func NewDecoder(in *bio.Reader, frozen bool) *Decoder {
	d := &Decoder{in: in, frozen: frozen}
	d.Start()
	return d
}

// Start reads the initial interval value.
func (d *Decoder) Start() {
	d.rng = 510
	d.bitsNeeded = -8
	d.value = d.readByte() << 8
	d.value |= d.readByte()
}

// DecodeBin decodes one context-modelled bin and adapts ctx.
func (d *Decoder) DecodeBin(ctx *ContextModel) uint32 {
	lps := uint32(rangeTable[ctx.state][(d.rng>>6)&3])
	d.rng -= lps
	scaledRange := d.rng << 7
	var bin uint32
	if d.value < scaledRange {
		bin = uint32(ctx.mps)
		if !d.frozen {
			ctx.updateMPS()
		}
		if scaledRange < (256 << 7) {
			d.rng = scaledRange >> 6
			d.value += d.value
			d.bitsNeeded++
			if d.bitsNeeded == 0 {
				d.bitsNeeded = -8
				d.value += d.readByte()
			}
		}
		return bin
	}
	numBits := int(renormTable[lps>>3])
	d.value = (d.value - scaledRange) << uint(numBits)
	d.rng = lps << uint(numBits)
	bin = 1 - uint32(ctx.mps)
	if !d.frozen {
		ctx.updateLPS()
	}
	d.bitsNeeded += numBits
	if d.bitsNeeded >= 0 {
		d.value += d.readByte() << uint(d.bitsNeeded)
		d.bitsNeeded -= 8
	}
	return bin
}

// DecodeBypass decodes one equiprobable bin.
func (d *Decoder) DecodeBypass() uint32 {
	d.value += d.value
	d.bitsNeeded++
	if d.bitsNeeded >= 0 {
		d.bitsNeeded = -8
		d.value += d.readByte()
	}
	scaledRange := d.rng << 7
	if d.value >= scaledRange {
		d.value -= scaledRange
		return 1
	}
	return 0
}

// DecodeBypassBins decodes numBins equiprobable bins, MSB first.
func (d *Decoder) DecodeBypassBins(numBins int) uint32 {
	var v uint32
	for i := 0; i < numBins; i++ {
		v = (v << 1) | d.DecodeBypass()
	}
	return v
}

// DecodeBinTrm decodes a terminating bin.
func (d *Decoder) DecodeBinTrm() uint32 {
	d.rng -= 2
	scaledRange := d.rng << 7
	if d.value >= scaledRange {
		return 1
	}
	if scaledRange < (256 << 7) {
		d.rng = scaledRange >> 6
		d.value += d.value
		d.bitsNeeded++
		if d.bitsNeeded == 0 {
			d.bitsNeeded = -8
			d.value += d.readByte()
		}
	}
	return 0
}

func (d *Decoder) readByte() uint32 {
	b, err := d.in.ReadByte()
	if err != nil {
		return 0
	}
	return uint32(b)
}
