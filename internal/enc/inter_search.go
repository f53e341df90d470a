package enc

import (
	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/predict"
	"github.com/xxthink/xvc/internal/yuv"
)

// biRefineRange is the window of each bi-prediction refinement step.
const biRefineRange = 2

// motionCand is a searched motion for one reference list.
type motionCand struct {
	mv     cu.MotionVector
	refIdx int
	mvpIdx int
	mvd    cu.MotionVector
	bits   int
	cost   uint64
}

// searchMotion selects explicitly coded motion for c: the best uni-predicted
// candidate of each non-empty list and, unless uniOnly, an iteratively
// refined bi-predicted one.
func (e *CuEncoder) searchMotion(c *cu.CodingUnit, uniOnly bool) {
	c.PredMode = cu.Inter
	c.Merge = false
	c.Skip = false
	var best [cu.NumRefLists]motionCand
	bestDir := cu.InterDirL0
	for l := cu.L0; l < cu.NumRefLists; l++ {
		if e.pic.NumRefPics(l) == 0 {
			best[l].cost = maxCost
			continue
		}
		best[l] = e.searchList(c, l)
		if l == cu.L1 && best[l].cost < best[cu.L0].cost {
			bestDir = cu.InterDirL1
		}
	}
	result := best
	bestCost := best[bestDir].cost
	if !uniOnly && e.pic.NumRefPics(cu.L1) > 0 {
		if bi, cost := e.searchBi(c, best); cost < bestCost {
			result, bestDir = bi, cu.InterDirBi
		}
	}

	c.InterDir = bestDir
	for l := cu.L0; l < cu.NumRefLists; l++ {
		if bestDir != cu.InterDirBi && int(bestDir) != int(l) {
			c.MV[l], c.MVD[l] = cu.MotionVector{}, cu.MotionVector{}
			c.RefIdx[l], c.MvpIdx[l] = -1, 0
			continue
		}
		c.MV[l] = result[l].mv
		c.MVD[l] = result[l].mvd
		c.RefIdx[l] = result[l].refIdx
		c.MvpIdx[l] = result[l].mvpIdx
	}
}

// searchList runs a full search around the best predictor of every
// reference in list l.
func (e *CuEncoder) searchList(c *cu.CodingUnit, l cu.RefList) motionCand {
	pic := e.pic
	numRefs := pic.NumRefPics(l)
	best := motionCand{cost: maxCost}
	for ref := 0; ref < numRefs; ref++ {
		mvps := predict.DeriveMvpList(c, l, ref)
		refBits := refIdxBits(ref, numRefs)
		refPic := pic.RefPic(l, ref)

		center := mvps[0]
		centerCost := maxCost
		for _, mvp := range mvps {
			cand := e.evalMotion(c, refPic, mvp, mvps, refBits)
			if cand.cost < centerCost {
				center, centerCost = mvp, cand.cost
			}
		}
		r := e.settings.SearchRange
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				mv := cu.MotionVector{X: center.X + dx, Y: center.Y + dy}
				cand := e.evalMotion(c, refPic, mv, mvps, refBits)
				if cand.cost < best.cost {
					cand.refIdx = ref
					best = cand
				}
			}
		}
	}
	return best
}

// evalMotion prices mv by luma SAD plus the estimated motion bits.
func (e *CuEncoder) evalMotion(c *cu.CodingUnit, ref *yuv.Picture, mv cu.MotionVector,
	mvps predict.MvpList, refBits int) motionCand {
	cand := pickMvp(mv, mvps)
	cand.bits += refBits
	predict.Fetch(c, yuv.Y, ref, mv, e.search)
	sad := yuv.SAD(c.Width(yuv.Y), c.Height(yuv.Y), e.origBuffer(c, yuv.Y), e.search)
	cand.cost = sad + e.motionBitsCost(cand.bits)
	return cand
}

// searchBi refines a bi-predicted candidate starting from the uni-predicted
// results, alternating the refined list.
func (e *CuEncoder) searchBi(c *cu.CodingUnit, uni [cu.NumRefLists]motionCand) ([cu.NumRefLists]motionCand, uint64) {
	pic := e.pic
	cand := uni
	width, height := c.Width(yuv.Y), c.Height(yuv.Y)
	orig := e.origBuffer(c, yuv.Y)
	var mvps [cu.NumRefLists]predict.MvpList
	var refBits [cu.NumRefLists]int
	for l := cu.L0; l < cu.NumRefLists; l++ {
		mvps[l] = predict.DeriveMvpList(c, l, cand[l].refIdx)
		refBits[l] = refIdxBits(cand[l].refIdx, pic.NumRefPics(l))
	}

	predict.Fetch(c, yuv.Y, pic.RefPic(cu.L0, cand[cu.L0].refIdx), cand[cu.L0].mv, e.pred)
	predict.Fetch(c, yuv.Y, pic.RefPic(cu.L1, cand[cu.L1].refIdx), cand[cu.L1].mv, e.search)
	predict.Average(width, height, e.pred, e.search)
	cost := yuv.SAD(width, height, orig, e.pred) + e.motionBitsCost(cand[cu.L0].bits+cand[cu.L1].bits)

	for iter := 0; iter < e.settings.BipredRefinementIterations; iter++ {
		l := cu.RefList(1 - iter%2)
		other := 1 - l
		otherPred := e.biOther
		predict.Fetch(c, yuv.Y, pic.RefPic(other, cand[other].refIdx), cand[other].mv, otherPred)
		ref := pic.RefPic(l, cand[l].refIdx)
		start := cand[l].mv
		improved := false
		for dy := -biRefineRange; dy <= biRefineRange; dy++ {
			for dx := -biRefineRange; dx <= biRefineRange; dx++ {
				mv := cu.MotionVector{X: start.X + dx, Y: start.Y + dy}
				m := pickMvp(mv, mvps[l])
				m.bits += refBits[l]
				m.refIdx = cand[l].refIdx
				predict.Fetch(c, yuv.Y, ref, mv, e.search)
				predict.Average(width, height, e.search, otherPred)
				m.cost = yuv.SAD(width, height, orig, e.search) + e.motionBitsCost(m.bits+cand[other].bits)
				if m.cost < cost {
					cand[l], cost = m, m.cost
					improved = true
				}
			}
		}
		if !improved && iter > 0 {
			break
		}
	}
	return cand, cost
}

func (e *CuEncoder) motionBitsCost(bits int) uint64 {
	return uint64(float64(bits)*e.qp.LambdaSqrt() + 0.5)
}

func (e *CuEncoder) origBuffer(c *cu.CodingUnit, comp yuv.Component) yuv.SampleBuffer {
	return e.orig.Buffer(comp, c.PosX(comp), c.PosY(comp))
}

// pickMvp returns the predictor index and difference with the fewest bits.
func pickMvp(mv cu.MotionVector, mvps predict.MvpList) motionCand {
	best := motionCand{mv: mv, bits: -1}
	for i, mvp := range mvps {
		mvd := cu.MotionVector{X: mv.X - mvp.X, Y: mv.Y - mvp.Y}
		bits := mvdBits(mvd.X) + mvdBits(mvd.Y) + 1
		if best.bits < 0 || bits < best.bits {
			best.mvpIdx, best.mvd, best.bits = i, mvd, bits
		}
	}
	return best
}

// mvdBits is the length of the signed exp-Golomb code of v.
func mvdBits(v int) int {
	t := 2 * v
	if v <= 0 {
		t = -2*v + 1
	}
	n := 1
	for t != 1 {
		t >>= 1
		n += 2
	}
	return n
}

// refIdxBits is the truncated unary length of idx.
func refIdxBits(idx, numRefs int) int {
	if numRefs <= 1 {
		return 0
	}
	if idx == numRefs-1 {
		return idx
	}
	return idx + 1
}
