package dec

import (
	"github.com/pkg/errors"

	"github.com/xxthink/xvc/internal/bio"
	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/segment"
	"github.com/xxthink/xvc/internal/syntax"
	"github.com/xxthink/xvc/internal/yuv"
)

// ErrCorruptPayload is returned when the end of a picture payload is not
// where the CTU count puts it.
var ErrCorruptPayload = errors.New("dec: corrupt picture payload")

// DecodePicture decodes the payload following the picture header ph from br.
func DecodePicture(br *bio.Reader, hdr *segment.Header, ph segment.PictureHeader,
	refs [cu.NumRefLists][]cu.RefPicture) (*yuv.Picture, error) {
	if err := hdr.Validate(); err != nil {
		return nil, err
	}
	for l, n := range ph.NumRefs {
		if len(refs[l]) != n {
			return nil, errors.Errorf("dec: list %d has %d references, header announces %d", l, len(refs[l]), n)
		}
	}
	restr := &hdr.Restrictions
	format := hdr.ChromaFormat
	qp := quant.NewWithOffsets(ph.Qp, format, ph.PicType, hdr.InternalBitdepth, hdr.MaxSubGopLength, 0,
		hdr.ChromaQpOffsetU, hdr.ChromaQpOffsetV)
	pic := cu.NewPictureData(hdr.Width, hdr.Height, format, hdr.InternalBitdepth, ph.PicType, ph.Poc, restr)
	pic.SetRefPics(cu.L0, refs[cu.L0])
	pic.SetRefPics(cu.L1, refs[cu.L1])
	decoded := yuv.NewPicture(hdr.Width, hdr.Height, format, hdr.InternalBitdepth)

	reader := syntax.NewReader(qp, ph.PicType, restr, br)
	d := NewCuDecoder(qp, decoded, pic)
	numCtus := pic.NumCtus()
	for rs := 0; rs < numCtus; rs++ {
		d.DecodeCtu(rs, reader)
		last := rs == numCtus-1
		if !last && !restr.DisableExtImplicitLastCtu {
			continue
		}
		if end := reader.ReadEndOfSlice(); end != last {
			return nil, errors.Wrapf(ErrCorruptPayload, "end of slice %v after CTU %d of %d", end, rs, numCtus)
		}
	}
	return decoded, nil
}
