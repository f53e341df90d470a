package enc

import (
	"github.com/pkg/errors"

	"github.com/xxthink/xvc/internal/bio"
	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/segment"
	"github.com/xxthink/xvc/internal/syntax"
	"github.com/xxthink/xvc/internal/yuv"
)

// PictureStats summarizes an encoded picture.
type PictureStats struct {
	Bits       uint64
	Distortion uint64
}

// EncodePicture writes the picture header ph and the payload of orig to bw.
// refs are the reference lists announced by ph. The reconstruction is
// returned for use as a later reference.
func EncodePicture(bw *bio.Writer, orig *yuv.Picture, hdr *segment.Header, ph segment.PictureHeader,
	refs [cu.NumRefLists][]cu.RefPicture, settings Settings) (*yuv.Picture, PictureStats, error) {
	var stats PictureStats
	if err := hdr.Validate(); err != nil {
		return nil, stats, err
	}
	for l, n := range ph.NumRefs {
		if len(refs[l]) != n {
			return nil, stats, errors.Errorf("enc: list %d has %d references, header announces %d", l, len(refs[l]), n)
		}
	}
	start := bw.NumWrittenBits()
	if err := segment.WritePictureHeader(bw, ph); err != nil {
		return nil, stats, err
	}

	restr := &hdr.Restrictions
	format := hdr.ChromaFormat
	qp := quant.NewWithOffsets(ph.Qp, format, ph.PicType, hdr.InternalBitdepth, hdr.MaxSubGopLength, 0,
		hdr.ChromaQpOffsetU, hdr.ChromaQpOffsetV)
	pic := cu.NewPictureData(hdr.Width, hdr.Height, format, hdr.InternalBitdepth, ph.PicType, ph.Poc, restr)
	pic.SetRefPics(cu.L0, refs[cu.L0])
	pic.SetRefPics(cu.L1, refs[cu.L1])
	rec := yuv.NewPicture(hdr.Width, hdr.Height, format, hdr.InternalBitdepth)

	writer := syntax.NewWriter(qp, ph.PicType, restr, bw)
	e := NewCuEncoder(qp, orig, rec, pic, settings)
	defer e.Release()
	numCtus := pic.NumCtus()
	for rs := 0; rs < numCtus; rs++ {
		stats.Distortion += e.EncodeCtu(rs, writer)
		last := rs == numCtus-1
		if last || restr.DisableExtImplicitLastCtu {
			writer.WriteEndOfSlice(last)
		}
	}
	if err := writer.Finish(); err != nil {
		return nil, stats, errors.Wrap(err, "enc: failed to write payload")
	}
	if err := bw.WriteBit(1); err != nil {
		return nil, stats, errors.Wrap(err, "enc: failed to write stop bit")
	}
	if err := bw.Flush(); err != nil {
		return nil, stats, errors.Wrap(err, "enc: failed to flush payload")
	}
	stats.Bits = bw.NumWrittenBits() - start
	return rec, stats, nil
}
