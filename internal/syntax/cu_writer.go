package syntax

import (
	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/predict"
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/yuv"
)

// CuWriter writes coding unit trees.
type CuWriter struct{}

// WriteCu writes the tree rooted at c.
func (cw CuWriter) WriteCu(c *cu.CodingUnit, w *Writer) {
	maxDepth := c.Pic().MaxDepth()
	if c.Depth() < maxDepth && c.IsFullyWithinPicture() {
		w.WriteSplitFlag(c, maxDepth, c.IsSplit())
	}
	if c.IsSplit() {
		for _, sub := range c.Sub {
			if sub != nil {
				cw.WriteCu(sub, w)
			}
		}
		return
	}
	for _, comp := range c.Components() {
		cw.WriteComponent(c, comp, w)
	}
}

// WriteComponent writes the syntax of comp in leaf c. The prediction
// header travels with the first component of the tree.
func (cw CuWriter) WriteComponent(c *cu.CodingUnit, comp yuv.Component, w *Writer) {
	pic := c.Pic()
	restr := pic.Restrictions()
	skipCoded := !restr.DisableInterSkipMode
	first := comp == c.Components()[0]
	if first && !pic.IsIntraPic() {
		if skipCoded {
			w.WriteSkipFlag(c, c.Skip)
			if c.Skip {
				w.WriteMergeIdx(c.MergeIdx)
				return
			}
		}
		w.WritePredMode(c.PredMode)
	}
	if skipCoded && c.Skip {
		return
	}

	if c.IsIntra() {
		switch comp {
		case yuv.Y:
			w.WriteIntraMode(c.IntraModeLuma, predict.DeriveMpm(c))
		case yuv.U:
			w.WriteIntraChromaMode(c.IntraModeChroma)
		}
	} else if first {
		cw.writeInterPrediction(c, w)
		if !c.Merge || !skipCoded {
			w.WriteRootCbf(c.RootCbf)
		}
	}
	if c.IsInter() && !c.RootCbf {
		return
	}
	cw.WriteCoefficients(c, comp, w)
}

func (cw CuWriter) writeInterPrediction(c *cu.CodingUnit, w *Writer) {
	w.WriteMergeFlag(c.Merge)
	if c.Merge {
		w.WriteMergeIdx(c.MergeIdx)
		return
	}
	pic := c.Pic()
	if pic.PicType() == quant.PicTypeBi {
		w.WriteInterDir(c, c.InterDir)
	}
	for l := cu.L0; l < cu.NumRefLists; l++ {
		if c.InterDir != cu.InterDirBi && int(c.InterDir) != int(l) {
			continue
		}
		w.WriteRefIdx(c.RefIdx[l], pic.NumRefPics(l))
		w.WriteMvd(c.MVD[l])
		w.WriteMvpIdx(c.MvpIdx[l])
	}
}

// WriteCoefficients writes the cbf of comp followed by its levels.
func (cw CuWriter) WriteCoefficients(c *cu.CodingUnit, comp yuv.Component, w *Writer) {
	w.WriteCbf(c, comp, c.Cbf[comp])
	if c.Cbf[comp] {
		w.WriteCoefficients(c, comp, c.Coeff(comp))
	}
}
