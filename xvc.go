// Package xvc provides a pure Go implementation of a block-based video codec
// built around a CABAC entropy coder and a rate-distortion optimized
// quad-tree coding unit search.
//
// A stream is a segment header followed by pictures. The encoder produces
// each of them as a separate byte slice; the decoder consumes them in the
// same order.
//
// Basic usage for encoding:
//
//	enc, err := xvc.NewEncoder(opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	units := [][]byte{enc.SegmentHeader()}
//	for _, pic := range pictures {
//	    data, err := enc.Encode(pic)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    units = append(units, data)
//	}
//
// Basic usage for decoding:
//
//	dec := xvc.NewDecoder()
//	if err := dec.DecodeSegmentHeader(units[0]); err != nil {
//	    log.Fatal(err)
//	}
//	for _, data := range units[1:] {
//	    pic, err := dec.DecodePicture(data)
//	    ...
//	}
package xvc

import (
	"github.com/pkg/errors"

	"github.com/xxthink/xvc/internal/enc"
	"github.com/xxthink/xvc/internal/restrictions"
	"github.com/xxthink/xvc/internal/segment"
	"github.com/xxthink/xvc/internal/yuv"
)

// ChromaFormat is the chroma subsampling of a picture.
type ChromaFormat = yuv.ChromaFormat

// Chroma format constants.
const (
	// ChromaMonochrome has a luma plane only.
	ChromaMonochrome = yuv.Monochrome
	// Chroma420 halves both chroma dimensions.
	Chroma420 = yuv.Chroma420
	// Chroma422 halves the chroma width. It is not supported by the encoder
	// or the decoder.
	Chroma422 = yuv.Chroma422
	// Chroma444 has full resolution chroma.
	Chroma444 = yuv.Chroma444
)

// Restrictions is the set of coding tool disable flags carried in the
// segment header. The zero value enables every tool.
type Restrictions = restrictions.Restrictions

// SpeedMode selects the encoder search effort.
type SpeedMode = enc.SpeedMode

// Speed mode constants.
const (
	// SpeedPlacebo evaluates every candidate.
	SpeedPlacebo = enc.SpeedPlacebo
	// SpeedSlow prunes intra modes and merge candidates.
	SpeedSlow = enc.SpeedSlow
)

// RestrictedMode is a preset of encoder settings for a restricted profile.
type RestrictedMode = enc.RestrictedMode

// Restricted mode constants.
const (
	Unrestricted    = enc.Unrestricted
	RestrictedModeA = enc.RestrictedModeA
	RestrictedModeB = enc.RestrictedModeB
)

// TuneMode adjusts the encoder settings for an objective metric.
type TuneMode = enc.TuneMode

// Tune mode constants.
const (
	TuneDefault = enc.TuneDefault
	TunePSNR    = enc.TunePSNR
)

// State is the decoder state after the last call.
type State int

const (
	// StateNoSegmentHeader means no valid segment header has been decoded.
	StateNoSegmentHeader State = iota
	// StateDecoderVersionTooLow means the stream needs a newer decoder.
	StateDecoderVersionTooLow
	// StateBitstreamBitdepthTooHigh means the stream bit depth exceeds what
	// the decoder can represent.
	StateBitstreamBitdepthTooHigh
	// StateSegmentHeaderDecoded means a segment header was accepted.
	StateSegmentHeaderDecoded
	// StatePicDecoded means the last picture decoded successfully.
	StatePicDecoded
	// StatePicCorrupt means the last picture could not be decoded.
	StatePicCorrupt
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNoSegmentHeader:
		return "NoSegmentHeader"
	case StateDecoderVersionTooLow:
		return "DecoderVersionTooLow"
	case StateBitstreamBitdepthTooHigh:
		return "BitstreamBitdepthTooHigh"
	case StateSegmentHeaderDecoded:
		return "SegmentHeaderDecoded"
	case StatePicDecoded:
		return "PicDecoded"
	case StatePicCorrupt:
		return "PicCorrupt"
	default:
		return "Unknown"
	}
}

var (
	// ErrNoSegmentHeader is returned when data does not start with a segment
	// header, or a picture arrives before one.
	ErrNoSegmentHeader = segment.ErrNoSegmentHeader
	// ErrDecoderVersionTooLow is returned for streams of a newer major
	// version.
	ErrDecoderVersionTooLow = segment.ErrDecoderVersionTooLow
	// ErrBitdepthTooHigh is returned for streams deeper than 16 bits.
	ErrBitdepthTooHigh = segment.ErrBitdepthTooHigh
	// ErrCorruptPicture is returned when a picture payload is inconsistent.
	ErrCorruptPicture = errors.New("xvc: corrupt picture")
	// ErrInvalidOptions is returned by NewEncoder for unusable options.
	ErrInvalidOptions = errors.New("xvc: invalid options")
	// ErrPictureMismatch is returned when an input picture does not match
	// the encoder geometry.
	ErrPictureMismatch = errors.New("xvc: picture does not match encoder options")
)

// Options holds the encoding options.
type Options struct {
	// Width and Height are the luma dimensions. Both must be positive
	// multiples of 8.
	Width  int
	Height int

	// ChromaFormat is the chroma subsampling. 4:2:2 is rejected.
	ChromaFormat ChromaFormat

	// Bitdepth is the sample bit depth (8-16).
	Bitdepth int

	// Qp is the quantization parameter (0-51) of every picture.
	Qp int

	// ChromaQpOffsetU and ChromaQpOffsetV are added to the offsets chosen
	// by the tune mode.
	ChromaQpOffsetU int
	ChromaQpOffsetV int

	// IntraPeriod is the distance between intra pictures.
	// 0 means only the first picture is intra.
	IntraPeriod int

	// NumRefPics is the number of reference pictures per list (1-15).
	// 0 uses the default of the speed mode.
	NumRefPics int

	// Bipred enables bi-predicted pictures. When false, inter pictures
	// predict from list 0 only.
	Bipred bool

	// ColorMatrix is signalled in the segment header and used by the
	// image conversions of Picture.
	ColorMatrix ColorMatrix

	// Restrictions disables coding tools.
	Restrictions Restrictions

	// SpeedMode selects the encoder search effort.
	SpeedMode SpeedMode

	// RestrictedMode applies the encoder presets of a restricted profile.
	RestrictedMode RestrictedMode

	// Tune adjusts the settings for an objective metric.
	Tune TuneMode

	// StrictRdo evaluates skip and the zero residual alternatives with a
	// full rate-distortion comparison instead of the fast rule.
	StrictRdo bool
}

// DefaultOptions returns the default encoding options for a picture size.
func DefaultOptions(width, height int) *Options {
	return &Options{
		Width:        width,
		Height:       height,
		ChromaFormat: Chroma420,
		Bitdepth:     8,
		Qp:           32,
		IntraPeriod:  64,
		Bipred:       true,
		ColorMatrix:  ColorMatrix709,
		SpeedMode:    SpeedSlow,
	}
}

// validate checks the options against what the codec supports.
func (o *Options) validate() error {
	switch o.ChromaFormat {
	case ChromaMonochrome, Chroma420, Chroma444:
	default:
		return errors.Wrapf(ErrInvalidOptions, "chroma format %v", o.ChromaFormat)
	}
	if o.Width <= 0 || o.Height <= 0 || o.Width%8 != 0 || o.Height%8 != 0 {
		return errors.Wrapf(ErrInvalidOptions, "size %dx%d is not a positive multiple of 8", o.Width, o.Height)
	}
	if o.Width >= 1<<16 || o.Height >= 1<<16 {
		return errors.Wrapf(ErrInvalidOptions, "size %dx%d too large", o.Width, o.Height)
	}
	if o.Bitdepth < 8 || o.Bitdepth > segment.MaxBitdepth {
		return errors.Wrapf(ErrInvalidOptions, "bitdepth %d", o.Bitdepth)
	}
	if o.Qp < 0 || o.Qp > segment.MaxQp {
		return errors.Wrapf(ErrInvalidOptions, "qp %d", o.Qp)
	}
	if o.IntraPeriod < 0 {
		return errors.Wrapf(ErrInvalidOptions, "intra period %d", o.IntraPeriod)
	}
	if o.NumRefPics < 0 || o.NumRefPics > segment.MaxRefPics {
		return errors.Wrapf(ErrInvalidOptions, "%d reference pictures", o.NumRefPics)
	}
	if o.ColorMatrix < ColorMatrixUndefined || o.ColorMatrix > ColorMatrix2020 {
		return errors.Wrapf(ErrInvalidOptions, "color matrix %d", o.ColorMatrix)
	}
	lim := 1 << (segment.ChromaOffsetBits - 1)
	if o.ChromaQpOffsetU < -lim+1 || o.ChromaQpOffsetU >= lim-1 ||
		o.ChromaQpOffsetV < -lim+1 || o.ChromaQpOffsetV >= lim-1 {
		return errors.Wrapf(ErrInvalidOptions, "chroma qp offsets %d/%d", o.ChromaQpOffsetU, o.ChromaQpOffsetV)
	}
	return nil
}
