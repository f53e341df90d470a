// Package dec reconstructs coding unit trees read from a picture payload.
package dec

import (
	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/predict"
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/syntax"
	"github.com/xxthink/xvc/internal/transform"
	"github.com/xxthink/xvc/internal/yuv"
)

const blockArea = cu.MaxBlockSize * cu.MaxBlockSize

// CuDecoder decodes the CTUs of one picture into decoded.
type CuDecoder struct {
	qp      *quant.QP
	decoded *yuv.Picture
	pic     *cu.PictureData
	reader  syntax.CuReader
	intra   *predict.Intra
	inter   *predict.Inter
	tr      *transform.Transform

	pred  [blockArea]yuv.Sample
	coeff [blockArea]yuv.Coeff
	resi  [blockArea]yuv.Coeff
}

// NewCuDecoder returns a decoder writing the samples of pic to decoded.
func NewCuDecoder(qp *quant.QP, decoded *yuv.Picture, pic *cu.PictureData) *CuDecoder {
	return &CuDecoder{
		qp:      qp,
		decoded: decoded,
		pic:     pic,
		intra:   predict.NewIntra(),
		inter:   predict.NewInter(),
		tr:      transform.New(),
	}
}

// DecodeCtu reads and reconstructs every tree of CTU rsaddr.
func (d *CuDecoder) DecodeCtu(rsaddr int, r *syntax.Reader) {
	for tree := cu.Primary; tree < d.pic.NumTrees(); tree++ {
		ctu := d.pic.Ctu(tree, rsaddr)
		d.reader.ReadCu(ctu, r)
		d.pic.ClearMarkCuInPic(ctu)
		d.decompressCu(ctu)
	}
}

func (d *CuDecoder) decompressCu(c *cu.CodingUnit) {
	if c.IsSplit() {
		for _, sub := range c.Sub {
			if sub != nil {
				d.decompressCu(sub)
			}
		}
		return
	}
	d.pic.MarkUsedInPic(c)
	c.SetQP(d.qp)
	for _, comp := range c.Components() {
		d.decompressComponent(c, comp)
	}
}

func (d *CuDecoder) decompressComponent(c *cu.CodingUnit, comp yuv.Component) {
	x, y := c.PosX(comp), c.PosY(comp)
	w, h := c.Width(comp), c.Height(comp)
	cbf := c.Cbf[comp]
	dst := d.decoded.Buffer(comp, x, y)
	pred := dst
	if cbf {
		pred = yuv.SampleBuffer{Data: d.pred[:], Stride: w}
	}

	if c.IsIntra() {
		d.intra.Predict(c, comp, c.IntraMode(comp), d.decoded, pred)
	} else {
		d.inter.Predict(c, comp, predict.MotionOf(c), pred)
	}
	if !cbf {
		return
	}

	bitdepth := d.decoded.Bitdepth()
	log2W, log2H := log2Size(w), log2Size(h)
	coeff := yuv.CoeffBuffer{Data: d.coeff[:], Stride: w}
	resi := yuv.CoeffBuffer{Data: d.resi[:], Stride: w}
	quant.Inverse(comp, c.QP(), quant.InverseShift(bitdepth, log2W), w, h, c.Coeff(comp), coeff)
	d.tr.Inverse(log2W, log2H, bitdepth, coeff, resi)
	dst.AddClip(w, h, pred, resi, bitdepth)
}

func log2Size(v int) int {
	n := 0
	for 1<<uint(n) < v {
		n++
	}
	return n
}
