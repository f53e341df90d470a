package syntax

import (
	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/predict"
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/yuv"
)

// CuReader reads coding unit trees and derives the motion of inter CUs on
// the way, so later neighbours see final motion vectors.
type CuReader struct{}

// ReadCu reads the tree rooted at c. Leaves are marked in the picture as
// they are read.
func (cr CuReader) ReadCu(c *cu.CodingUnit, r *Reader) {
	pic := c.Pic()
	maxDepth := pic.MaxDepth()
	var split bool
	switch {
	case c.Depth() >= maxDepth:
		split = false
	case c.IsFullyWithinPicture():
		split = r.ReadSplitFlag(c, maxDepth)
	default:
		split = true
	}
	if split {
		c.SplitQuad()
		for _, sub := range c.Sub {
			if sub != nil {
				cr.ReadCu(sub, r)
			}
		}
		return
	}
	c.SetSplit(false)
	for _, comp := range c.Components() {
		cr.readComponent(c, comp, r)
	}
	pic.MarkUsedInPic(c)
}

func (cr CuReader) readComponent(c *cu.CodingUnit, comp yuv.Component, r *Reader) {
	pic := c.Pic()
	restr := pic.Restrictions()
	skipCoded := !restr.DisableInterSkipMode
	first := comp == c.Components()[0]
	if first {
		c.Cbf = [yuv.MaxComponents]bool{}
		c.Skip = false
		c.Merge = false
		c.RootCbf = true
		c.PredMode = cu.Intra
		if !pic.IsIntraPic() {
			if skipCoded && r.ReadSkipFlag(c) {
				c.Skip = true
				c.Merge = true
				c.PredMode = cu.Inter
				c.RootCbf = false
				c.MergeIdx = r.ReadMergeIdx()
				applyMerge(c)
				return
			}
			c.PredMode = r.ReadPredMode()
		}
	}
	if c.Skip {
		return
	}

	if c.IsIntra() {
		switch comp {
		case yuv.Y:
			c.IntraModeLuma = r.ReadIntraMode(predict.DeriveMpm(c))
		case yuv.U:
			c.IntraModeChroma = r.ReadIntraChromaMode()
		}
	} else if first {
		cr.readInterPrediction(c, r)
		if !c.Merge || !skipCoded {
			c.RootCbf = r.ReadRootCbf()
		}
		c.Skip = c.Merge && !c.RootCbf
	}
	if c.IsInter() && !c.RootCbf {
		return
	}
	c.Cbf[comp] = r.ReadCbf(comp)
	if c.Cbf[comp] {
		if r.ReadCoefficients(c, comp, c.Coeff(comp)) == 0 {
			c.Cbf[comp] = false
		}
	}
}

func (cr CuReader) readInterPrediction(c *cu.CodingUnit, r *Reader) {
	c.Merge = r.ReadMergeFlag()
	if c.Merge {
		c.MergeIdx = r.ReadMergeIdx()
		applyMerge(c)
		return
	}
	pic := c.Pic()
	c.InterDir = cu.InterDirL0
	if pic.PicType() == quant.PicTypeBi {
		c.InterDir = r.ReadInterDir(c)
	}
	for l := cu.L0; l < cu.NumRefLists; l++ {
		if c.InterDir != cu.InterDirBi && int(c.InterDir) != int(l) {
			c.RefIdx[l] = -1
			c.MV[l] = cu.MotionVector{}
			c.MVD[l] = cu.MotionVector{}
			continue
		}
		c.RefIdx[l] = r.ReadRefIdx(pic.NumRefPics(l))
		c.MVD[l] = r.ReadMvd()
		c.MvpIdx[l] = r.ReadMvpIdx()
		mvp := predict.DeriveMvpList(c, l, c.RefIdx[l])[c.MvpIdx[l]]
		c.MV[l] = cu.MotionVector{X: mvp.X + c.MVD[l].X, Y: mvp.Y + c.MVD[l].Y}
	}
}

func applyMerge(c *cu.CodingUnit) {
	list := predict.DeriveMergeList(c)
	predict.ApplyMotion(c, list[c.MergeIdx])
}
