package xvc

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/xxthink/xvc/internal/bio"
	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/enc"
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/segment"
)

// Encoder compresses a sequence of pictures into one segment.
type Encoder struct {
	options   Options
	settings  enc.Settings
	header    *segment.Header
	headerBuf []byte
	refs      *dpb
	numRefs   int

	// Sequence state
	poc     int
	numPics int
	rec     *Picture

	listeners listeners
}

// NewEncoder validates o and creates an encoder. A nil o uses
// DefaultOptions for a 64x64 picture.
func NewEncoder(o *Options, ls ...Listener) (*Encoder, error) {
	if o == nil {
		o = DefaultOptions(64, 64)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	settings := enc.NewSettings(o.SpeedMode)
	if o.RestrictedMode != Unrestricted {
		settings.ApplyRestrictedMode(o.RestrictedMode)
	}
	settings.Tune(o.Tune)
	settings.StrictRdo = o.StrictRdo

	numRefs := o.NumRefPics
	if numRefs == 0 {
		numRefs = settings.DefaultNumRefPics
	}

	e := &Encoder{
		options:   *o,
		settings:  settings,
		numRefs:   numRefs,
		refs:      newDpb(numRefs),
		listeners: ls,
	}
	e.header = e.segmentHeader()
	if err := e.header.Validate(); err != nil {
		return nil, errors.Wrap(ErrInvalidOptions, err.Error())
	}

	var buf bytes.Buffer
	if err := segment.Write(bio.NewWriter(&buf), e.header); err != nil {
		return nil, errors.Wrap(err, "writing segment header")
	}
	e.headerBuf = buf.Bytes()
	e.listeners.notify(NewEvent(EventSegmentHeaderEncoded, -1, "", int64(len(e.headerBuf)), 0))
	return e, nil
}

// segmentHeader builds the header announced by the options and settings.
func (e *Encoder) segmentHeader() *segment.Header {
	o := &e.options
	return &segment.Header{
		CodecIdentifier:     segment.CodecIdentifier,
		MajorVersion:        segment.MajorVersion,
		MinorVersion:        segment.MinorVersion,
		Width:               o.Width,
		Height:              o.Height,
		ChromaFormat:        o.ChromaFormat,
		InternalBitdepth:    o.Bitdepth,
		MaxSubGopLength:     1,
		ColorMatrix:         int(o.ColorMatrix),
		NumRefPics:          e.numRefs,
		AdaptiveQp:          e.settings.AdaptiveQp,
		ChromaQpOffsetTable: e.settings.ChromaQpOffsetTable,
		ChromaQpOffsetU:     e.settings.ChromaQpOffsetU + o.ChromaQpOffsetU,
		ChromaQpOffsetV:     e.settings.ChromaQpOffsetV + o.ChromaQpOffsetV,
		Restrictions:        o.Restrictions,
	}
}

// AddListener registers l for subsequent events.
func (e *Encoder) AddListener(l Listener) {
	e.listeners = append(e.listeners, l)
}

// SegmentHeader returns the encoded segment header. It must precede the
// pictures in the stream.
func (e *Encoder) SegmentHeader() []byte {
	return append([]byte(nil), e.headerBuf...)
}

// Encode compresses p and returns the picture unit.
func (e *Encoder) Encode(p *Picture) ([]byte, error) {
	o := &e.options
	if p == nil || p.Width() != o.Width || p.Height() != o.Height ||
		p.ChromaFormat() != o.ChromaFormat || p.Bitdepth() != o.Bitdepth {
		return nil, ErrPictureMismatch
	}

	ph := e.nextPictureHeader()
	e.refs.startPicture(ph.PicType)
	refs, err := e.refs.refLists(ph.NumRefs)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	bw := bio.NewWriter(&buf)
	rec, stats, err := enc.EncodePicture(bw, p.pic, e.header, ph, refs, e.settings)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding picture %d", e.numPics)
	}

	e.refs.add(ph.Poc, rec)
	e.rec = wrapPicture(rec)
	e.poc = ph.Poc + 1
	e.numPics++
	e.listeners.notify(NewEvent(EventPictureEncoded, ph.Poc, ph.PicType.String(), int64(buf.Len()), stats.Distortion))
	return buf.Bytes(), nil
}

// nextPictureHeader chooses the type and references of the next picture.
// POCs restart at every intra picture.
func (e *Encoder) nextPictureHeader() segment.PictureHeader {
	o := &e.options
	intra := e.numPics == 0 || e.refs.len() == 0 ||
		(o.IntraPeriod > 0 && e.numPics%o.IntraPeriod == 0) ||
		e.poc >= 1<<16
	if intra {
		return segment.PictureHeader{PicType: quant.PicTypeIntra, Poc: 0, Qp: o.Qp}
	}
	n := min(e.refs.len(), e.numRefs)
	ph := segment.PictureHeader{PicType: quant.PicTypeUni, Poc: e.poc, Qp: o.Qp, NumRefs: [2]int{n, 0}}
	if o.Bipred && !o.Restrictions.DisableInterBipred {
		ph.PicType = quant.PicTypeBi
		ph.NumRefs[cu.L1] = n
	}
	return ph
}

// Reconstructed returns the decoder-side reconstruction of the last
// encoded picture, or nil before the first Encode.
func (e *Encoder) Reconstructed() *Picture {
	if e.rec == nil {
		return nil
	}
	return e.rec.Clone()
}

// NumEncodedPictures returns the number of pictures encoded so far.
func (e *Encoder) NumEncodedPictures() int {
	return e.numPics
}
