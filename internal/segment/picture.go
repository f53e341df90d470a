package segment

import (
	"github.com/pkg/errors"

	"github.com/xxthink/xvc/internal/bio"
	"github.com/xxthink/xvc/internal/quant"
)

const (
	// MaxQp is the largest QP a picture header can carry.
	MaxQp = 51
	// MaxRefPics is the largest reference count per list.
	MaxRefPics = 15
)

// PictureHeader precedes every picture payload. It is byte aligned on both
// ends so the CABAC payload starts on a byte boundary.
type PictureHeader struct {
	PicType quant.PicType
	Poc     int
	Qp      int
	// NumRefs counts the references of each list. Both are zero for intra
	// pictures and L1 is zero for uni-predicted pictures.
	NumRefs [2]int
}

// Validate checks the field ranges and the reference counts against the
// picture type.
func (p *PictureHeader) Validate() error {
	if p.PicType < quant.PicTypeBi || p.PicType > quant.PicTypeIntra {
		return errors.Errorf("segment: invalid picture type %d", p.PicType)
	}
	if p.Qp < 0 || p.Qp > MaxQp {
		return errors.Errorf("segment: qp %d out of range", p.Qp)
	}
	if p.Poc < 0 || p.Poc >= 1<<16 {
		return errors.Errorf("segment: poc %d out of range", p.Poc)
	}
	for l, n := range p.NumRefs {
		if n < 0 || n > MaxRefPics {
			return errors.Errorf("segment: %d references in list %d", n, l)
		}
	}
	switch p.PicType {
	case quant.PicTypeIntra:
		if p.NumRefs[0]+p.NumRefs[1] != 0 {
			return errors.New("segment: intra picture with references")
		}
	case quant.PicTypeUni:
		if p.NumRefs[0] == 0 || p.NumRefs[1] != 0 {
			return errors.Errorf("segment: uni picture with references %v", p.NumRefs)
		}
	case quant.PicTypeBi:
		if p.NumRefs[0] == 0 || p.NumRefs[1] == 0 {
			return errors.Errorf("segment: bi picture with references %v", p.NumRefs)
		}
	}
	return nil
}

// ReadPictureHeader reads a picture header and aligns br to the payload.
func ReadPictureHeader(br *bio.Reader) (PictureHeader, error) {
	var p PictureHeader
	r := fieldReader{br: br}
	p.PicType = quant.PicType(r.bits(2))
	p.Poc = int(r.bits(16))
	p.Qp = int(r.bits(7))
	p.NumRefs[0] = int(r.bits(4))
	p.NumRefs[1] = int(r.bits(4))
	if r.err != nil {
		return p, errors.Wrap(r.err, "failed to read picture header")
	}
	br.Align()
	return p, p.Validate()
}

// WritePictureHeader writes p and pads to a byte boundary.
func WritePictureHeader(bw *bio.Writer, p PictureHeader) error {
	if err := p.Validate(); err != nil {
		return err
	}
	w := fieldWriter{bw: bw}
	w.bits(uint32(p.PicType), 2)
	w.bits(uint32(p.Poc), 16)
	w.bits(uint32(p.Qp), 7)
	w.bits(uint32(p.NumRefs[0]), 4)
	w.bits(uint32(p.NumRefs[1]), 4)
	if w.err == nil {
		w.err = bw.Flush()
	}
	return errors.Wrap(w.err, "failed to write picture header")
}
