// Package segment reads and writes the segment header that opens every
// independently decodable run of pictures, and the per-picture header that
// precedes each picture payload.
package segment

import (
	"github.com/pkg/errors"

	"github.com/xxthink/xvc/internal/bio"
	"github.com/xxthink/xvc/internal/restrictions"
	"github.com/xxthink/xvc/internal/yuv"
)

const (
	// CodecIdentifier is the 24-bit magic opening a segment header ("xvc").
	CodecIdentifier = 0x787663
	// MajorVersion is the newest bitstream major version understood.
	MajorVersion = 2
	// MinorVersion is the minor version written by the encoder.
	MinorVersion = 0
	// ChromaOffsetBits is the width of each signaled chroma QP offset.
	ChromaOffsetBits = 6
	// DeblockOffsetBits is the width of each signaled deblocking offset.
	DeblockOffsetBits = 6
	// MaxBinarySplitDepth is the largest binary split depth that fits the
	// header field.
	MaxBinarySplitDepth = 3
	// MaxBitdepth is the largest internal bit depth a Sample can hold.
	MaxBitdepth = 16
	// DeblockExplicitOffsets is the deblock mode that carries offsets.
	DeblockExplicitOffsets = 3
)

// State is the outcome of reading a segment header.
type State int

const (
	NoSegmentHeader State = iota
	DecoderVersionTooLow
	BitstreamBitdepthTooHigh
	SegmentHeaderDecoded
)

func (s State) String() string {
	switch s {
	case NoSegmentHeader:
		return "no segment header"
	case DecoderVersionTooLow:
		return "decoder version too low"
	case BitstreamBitdepthTooHigh:
		return "bitstream bitdepth too high"
	case SegmentHeaderDecoded:
		return "segment header decoded"
	}
	return "unknown"
}

// Errors matching the non-success states.
var (
	ErrNoSegmentHeader      = errors.New("segment: no segment header")
	ErrDecoderVersionTooLow = errors.New("segment: bitstream version newer than decoder")
	ErrBitdepthTooHigh      = errors.New("segment: bitstream bitdepth too high")
)

// Header holds the segment-level parameters.
type Header struct {
	CodecIdentifier     uint32
	MajorVersion        int
	MinorVersion        int
	Width               int
	Height              int
	ChromaFormat        yuv.ChromaFormat
	InternalBitdepth    int
	BitstreamTicks      int
	MaxSubGopLength     int
	ColorMatrix         int
	OpenGop             bool
	NumRefPics          int
	MaxBinarySplitDepth int
	ChecksumMode        int
	AdaptiveQp          int
	ChromaQpOffsetTable int
	ChromaQpOffsetU     int
	ChromaQpOffsetV     int
	Deblock             int
	BetaOffset          int
	TcOffset            int
	Restrictions        restrictions.Restrictions

	// SegmentCounter numbers the segments seen by the decoder.
	SegmentCounter int
}

// Read parses a byte aligned segment header. The returned header is nil
// unless the state is SegmentHeaderDecoded.
func Read(br *bio.Reader, segmentCounter int) (*Header, State, error) {
	h := &Header{}
	r := fieldReader{br: br}
	h.CodecIdentifier = r.bits(24)
	if r.err != nil {
		return nil, NoSegmentHeader, errors.Wrap(r.err, "failed to read codec identifier")
	}
	if h.CodecIdentifier != CodecIdentifier {
		return nil, NoSegmentHeader, errors.Wrapf(ErrNoSegmentHeader, "identifier %#06x", h.CodecIdentifier)
	}
	h.MajorVersion = int(r.bits(16))
	if r.err == nil && h.MajorVersion > MajorVersion {
		return nil, DecoderVersionTooLow, errors.Wrapf(ErrDecoderVersionTooLow, "major version %d", h.MajorVersion)
	}
	h.MinorVersion = int(r.bits(16))
	h.Width = int(r.bits(16))
	h.Height = int(r.bits(16))
	h.ChromaFormat = yuv.ChromaFormat(r.bits(4))
	h.InternalBitdepth = int(r.bits(4)) + 8
	if r.err == nil && h.InternalBitdepth > MaxBitdepth {
		return nil, BitstreamBitdepthTooHigh, errors.Wrapf(ErrBitdepthTooHigh, "bitdepth %d", h.InternalBitdepth)
	}
	h.BitstreamTicks = int(r.bits(24))
	h.MaxSubGopLength = int(r.bits(8))
	h.ColorMatrix = int(r.bits(3))
	h.OpenGop = r.flag()
	h.NumRefPics = int(r.bits(4))
	h.MaxBinarySplitDepth = int(r.bits(2))
	h.ChecksumMode = int(r.bits(1))
	h.AdaptiveQp = int(r.bits(2))
	h.ChromaQpOffsetTable = int(r.bits(2))
	if r.flag() {
		h.ChromaQpOffsetU = r.offset(ChromaOffsetBits)
		h.ChromaQpOffsetV = r.offset(ChromaOffsetBits)
	}
	h.Deblock = int(r.bits(2))
	if h.Deblock == DeblockExplicitOffsets {
		h.BetaOffset = r.offset(DeblockOffsetBits)
		h.TcOffset = r.offset(DeblockOffsetBits)
	}

	// flags are only raised, never cleared, by the bitstream
	for g := restrictions.Group(0); g < restrictions.NumGroups; g++ {
		if !r.flag() {
			continue
		}
		for _, f := range h.Restrictions.Flags(g) {
			if r.flag() {
				*f = true
			}
		}
	}
	if r.err != nil {
		return nil, NoSegmentHeader, errors.Wrap(r.err, "truncated segment header")
	}
	br.Align()
	h.SegmentCounter = segmentCounter
	return h, SegmentHeaderDecoded, nil
}

// Write serializes h padded to a byte boundary. Reading it back reproduces
// every field except SegmentCounter.
func Write(bw *bio.Writer, h *Header) error {
	w := fieldWriter{bw: bw}
	w.bits(CodecIdentifier, 24)
	w.bits(uint32(h.MajorVersion), 16)
	w.bits(uint32(h.MinorVersion), 16)
	w.bits(uint32(h.Width), 16)
	w.bits(uint32(h.Height), 16)
	w.bits(uint32(h.ChromaFormat), 4)
	w.bits(uint32(h.InternalBitdepth-8), 4)
	w.bits(uint32(h.BitstreamTicks), 24)
	w.bits(uint32(h.MaxSubGopLength), 8)
	w.bits(uint32(h.ColorMatrix), 3)
	w.flag(h.OpenGop)
	w.bits(uint32(h.NumRefPics), 4)
	w.bits(uint32(h.MaxBinarySplitDepth), 2)
	w.bits(uint32(h.ChecksumMode), 1)
	w.bits(uint32(h.AdaptiveQp), 2)
	w.bits(uint32(h.ChromaQpOffsetTable), 2)
	offsets := h.ChromaQpOffsetU != 0 || h.ChromaQpOffsetV != 0
	w.flag(offsets)
	if offsets {
		w.offset(h.ChromaQpOffsetU, ChromaOffsetBits)
		w.offset(h.ChromaQpOffsetV, ChromaOffsetBits)
	}
	w.bits(uint32(h.Deblock), 2)
	if h.Deblock == DeblockExplicitOffsets {
		w.offset(h.BetaOffset, DeblockOffsetBits)
		w.offset(h.TcOffset, DeblockOffsetBits)
	}
	restr := h.Restrictions
	for g := restrictions.Group(0); g < restrictions.NumGroups; g++ {
		set := restr.Any(g)
		w.flag(set)
		if !set {
			continue
		}
		for _, f := range restr.Flags(g) {
			w.flag(*f)
		}
	}
	if w.err == nil {
		w.err = bw.Flush()
	}
	return errors.Wrap(w.err, "failed to write segment header")
}

// Validate checks that the header describes a picture format the codec
// supports.
func (h *Header) Validate() error {
	switch h.ChromaFormat {
	case yuv.Monochrome, yuv.Chroma420, yuv.Chroma444:
	default:
		return errors.Errorf("segment: unsupported chroma format %v", h.ChromaFormat)
	}
	if h.Width <= 0 || h.Height <= 0 || h.Width%8 != 0 || h.Height%8 != 0 {
		return errors.Errorf("segment: picture size %dx%d is not a positive multiple of 8", h.Width, h.Height)
	}
	return nil
}

type fieldReader struct {
	br  *bio.Reader
	err error
}

func (r *fieldReader) bits(n uint) uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.br.ReadBits(n)
	r.err = err
	return v
}

func (r *fieldReader) flag() bool {
	return r.bits(1) != 0
}

// offset reads a signed value stored with a bias of half its range.
func (r *fieldReader) offset(n uint) int {
	return int(r.bits(n)) - 1<<(n-1)
}

type fieldWriter struct {
	bw  *bio.Writer
	err error
}

func (w *fieldWriter) bits(v uint32, n uint) {
	if w.err == nil {
		w.err = w.bw.WriteBits(v, n)
	}
}

func (w *fieldWriter) flag(b bool) {
	if w.err == nil {
		w.err = w.bw.WriteFlag(b)
	}
}

func (w *fieldWriter) offset(v int, n uint) {
	w.bits(uint32(v+1<<(n-1)), n)
}
