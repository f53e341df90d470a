package xvc

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/xxthink/xvc/internal/bio"
	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/dec"
	"github.com/xxthink/xvc/internal/segment"
)

// Decoder reconstructs the pictures of a stream.
type Decoder struct {
	header         *segment.Header
	segmentCounter int
	state          State
	refs           *dpb

	numDecoded int
	numCorrupt int

	listeners listeners
}

// NewDecoder creates a decoder waiting for a segment header.
func NewDecoder(ls ...Listener) *Decoder {
	return &Decoder{state: StateNoSegmentHeader, listeners: ls}
}

// AddListener registers l for subsequent events.
func (d *Decoder) AddListener(l Listener) {
	d.listeners = append(d.listeners, l)
}

// State returns the state after the last call.
func (d *Decoder) State() State { return d.state }

// NumDecodedPictures returns the number of pictures decoded successfully.
func (d *Decoder) NumDecodedPictures() int { return d.numDecoded }

// NumCorruptPictures returns the number of pictures that failed to decode.
func (d *Decoder) NumCorruptPictures() int { return d.numCorrupt }

// ColorMatrix returns the matrix signalled by the current segment header.
func (d *Decoder) ColorMatrix() ColorMatrix {
	if d.header == nil {
		return ColorMatrixUndefined
	}
	return ColorMatrix(d.header.ColorMatrix)
}

// DecodeSegmentHeader parses a segment header. On failure the previous
// header, if any, stays active and the state reports the reason.
func (d *Decoder) DecodeSegmentHeader(data []byte) error {
	hdr, state, err := segment.Read(bio.NewReader(bytes.NewReader(data)), d.segmentCounter)
	switch state {
	case segment.DecoderVersionTooLow:
		d.state = StateDecoderVersionTooLow
		return err
	case segment.BitstreamBitdepthTooHigh:
		d.state = StateBitstreamBitdepthTooHigh
		return err
	case segment.NoSegmentHeader:
		d.state = StateNoSegmentHeader
		if !errors.Is(err, ErrNoSegmentHeader) {
			err = errors.Wrap(ErrNoSegmentHeader, err.Error())
		}
		return err
	}
	if err == nil {
		err = hdr.Validate()
	}
	if err != nil {
		d.state = StateNoSegmentHeader
		return errors.Wrap(ErrNoSegmentHeader, err.Error())
	}

	d.header = hdr
	d.segmentCounter++
	d.refs = newDpb(hdr.NumRefPics)
	d.state = StateSegmentHeaderDecoded
	d.listeners.notify(NewEvent(EventSegmentHeaderDecoded, -1, "", int64(len(data)), 0))
	return nil
}

// DecodePicture decodes one picture unit.
func (d *Decoder) DecodePicture(data []byte) (*Picture, error) {
	if d.header == nil {
		d.state = StateNoSegmentHeader
		return nil, ErrNoSegmentHeader
	}
	pic, poc, picType, err := d.decodePicture(data)
	if err != nil {
		d.state = StatePicCorrupt
		d.numCorrupt++
		return nil, errors.Wrap(ErrCorruptPicture, err.Error())
	}
	d.state = StatePicDecoded
	d.numDecoded++
	d.listeners.notify(NewEvent(EventPictureDecoded, poc, picType, int64(len(data)), 0))
	return pic, nil
}

func (d *Decoder) decodePicture(data []byte) (*Picture, int, string, error) {
	br := bio.NewReader(bytes.NewReader(data))
	ph, err := segment.ReadPictureHeader(br)
	if err != nil {
		return nil, 0, "", err
	}
	if ph.NumRefs[cu.L0] > d.header.NumRefPics || ph.NumRefs[cu.L1] > d.header.NumRefPics {
		return nil, 0, "", errors.Errorf("picture uses %v references, segment allows %d", ph.NumRefs, d.header.NumRefPics)
	}
	d.refs.startPicture(ph.PicType)
	refs, err := d.refs.refLists(ph.NumRefs)
	if err != nil {
		return nil, 0, "", err
	}
	decoded, err := dec.DecodePicture(br, d.header, ph, refs)
	if err != nil {
		return nil, 0, "", err
	}
	d.refs.add(ph.Poc, decoded)
	// The reference copy stays private to the decoder.
	return wrapPicture(decoded).Clone(), ph.Poc, ph.PicType.String(), nil
}
