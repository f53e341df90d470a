package enc

import (
	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/transform"
	"github.com/xxthink/xvc/internal/yuv"
)

const blockArea = cu.MaxBlockSize * cu.MaxBlockSize

// transformEncoder codes the residual of one component and reconstructs it.
// The residual before and after coding is kept for distortion estimates.
type transformEncoder struct {
	bitdepth int
	orig     *yuv.Picture
	tr       *transform.Transform
	resiOrig [blockArea]yuv.Coeff
	resi     [blockArea]yuv.Coeff
	coeff    [blockArea]yuv.Coeff
}

func newTransformEncoder(bitdepth int, orig *yuv.Picture) *transformEncoder {
	return &transformEncoder{bitdepth: bitdepth, orig: orig, tr: transform.New()}
}

// transformAndReconstruct quantizes orig-pred into the coefficients of c,
// stores the reconstruction in rec and returns its distortion.
func (t *transformEncoder) transformAndReconstruct(c *cu.CodingUnit, comp yuv.Component, qp *quant.QP,
	pred yuv.SampleBuffer, rec *yuv.Picture) uint64 {
	w, h := c.Width(comp), c.Height(comp)
	x, y := c.PosX(comp), c.PosY(comp)
	orig := t.orig.Buffer(comp, x, y)
	resiOrig := yuv.CoeffBuffer{Data: t.resiOrig[:], Stride: w}
	coeff := yuv.CoeffBuffer{Data: t.coeff[:], Stride: w}
	resi := yuv.CoeffBuffer{Data: t.resi[:], Stride: w}
	log2W, log2H := log2Size(w), log2Size(h)

	resiOrig.Subtract(w, h, orig, pred)
	t.tr.Forward(log2W, log2H, t.bitdepth, resiOrig, coeff)
	shift := quant.ForwardShift(qp, comp, t.bitdepth, log2W)
	offset := quant.ForwardOffset(shift, c.IsIntra())
	nonZero := quant.Forward(comp, qp, shift, offset, w, h, coeff, c.Coeff(comp))
	c.Cbf[comp] = nonZero > 0

	dst := rec.Buffer(comp, x, y)
	if !c.Cbf[comp] {
		resi.Zero(w, h)
		dst.CopyFrom(w, h, pred)
	} else {
		quant.Inverse(comp, qp, quant.InverseShift(t.bitdepth, log2W), w, h, c.Coeff(comp), coeff)
		t.tr.Inverse(log2W, log2H, t.bitdepth, coeff, resi)
		dst.AddClip(w, h, pred, resi, t.bitdepth)
	}
	return distortion(qp, comp, w, h, orig, dst)
}

// residualDistortion compares the residual before and after coding.
func (t *transformEncoder) residualDistortion(qp *quant.QP, comp yuv.Component, w, h int) uint64 {
	sse := yuv.SSECoeff(w, h, yuv.CoeffBuffer{Data: t.resiOrig[:], Stride: w},
		yuv.CoeffBuffer{Data: t.resi[:], Stride: w})
	return weight(qp, comp, sse)
}

// distortion is the SSE between a and b weighted for comp.
func distortion(qp *quant.QP, comp yuv.Component, w, h int, a, b yuv.SampleBuffer) uint64 {
	return weight(qp, comp, yuv.SSE(w, h, a, b))
}

func weight(qp *quant.QP, comp yuv.Component, sse uint64) uint64 {
	if comp.IsLuma() {
		return sse
	}
	return uint64(float64(sse) * qp.DistortionWeight(comp))
}

func log2Size(v int) int {
	n := 0
	for 1<<uint(n) < v {
		n++
	}
	return n
}
