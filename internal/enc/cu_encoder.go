// Package enc makes the rate-distortion mode decisions of the coding unit
// quad-tree and writes the chosen CTUs.
package enc

import (
	"math"

	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/predict"
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/syntax"
	"github.com/xxthink/xvc/internal/yuv"
)

const maxCost uint64 = math.MaxUint64

// rdoCost is a rate-distortion cost and the distortion it includes.
type rdoCost struct {
	cost uint64
	dist uint64
}

// CuEncoder searches the CU tree of each CTU of one picture.
//
// Reconstructed samples are written to rec as decisions are made, so rec
// always holds the reconstruction of the best decision so far for every
// coded area. A CuEncoder is not safe for concurrent use.
type CuEncoder struct {
	qp       *quant.QP
	orig     *yuv.Picture
	rec      *yuv.Picture
	pic      *cu.PictureData
	settings Settings
	te       *transformEncoder
	intra    *predict.Intra
	inter    *predict.Inter
	writer   syntax.CuWriter

	// scratch CUs swapped with the tree CU when they win
	tempCu [cu.NumTrees][cu.MaxCuDepth + 1]*cu.CodingUnit
	// states[d] holds the full CU at depth d, states[d+1] its best candidate
	states     [cu.MaxCuDepth + 2]*cu.ReconstructionState
	mergeState *cu.ReconstructionState

	pred    yuv.SampleBuffer
	search  yuv.SampleBuffer
	biOther yuv.SampleBuffer
}

// NewCuEncoder returns an encoder for pic. orig is the source picture and
// rec receives the reconstruction.
func NewCuEncoder(qp *quant.QP, orig, rec *yuv.Picture, pic *cu.PictureData, settings Settings) *CuEncoder {
	e := &CuEncoder{
		qp:         qp,
		orig:       orig,
		rec:        rec,
		pic:        pic,
		settings:   settings,
		te:         newTransformEncoder(rec.Bitdepth(), orig),
		intra:      predict.NewIntra(),
		inter:      predict.NewInter(),
		mergeState: cu.NewReconstructionState(),
		pred:       newBlock(),
		search:     newBlock(),
		biOther:    newBlock(),
	}
	for tree := cu.Primary; tree < pic.NumTrees(); tree++ {
		for depth := 0; depth <= cu.MaxCuDepth; depth++ {
			size := cu.MaxBlockSize >> uint(depth)
			e.tempCu[tree][depth] = pic.CreateCu(tree, depth, -1, -1, size, size)
		}
	}
	for i := range e.states {
		e.states[i] = cu.NewReconstructionState()
	}
	return e
}

func newBlock() yuv.SampleBuffer {
	return yuv.SampleBuffer{Data: make([]yuv.Sample, blockArea), Stride: cu.MaxBlockSize}
}

// Release returns the scratch CUs to the picture's pool.
func (e *CuEncoder) Release() {
	for tree := range e.tempCu {
		for depth, c := range e.tempCu[tree] {
			if c != nil {
				e.pic.ReleaseCu(c)
				e.tempCu[tree][depth] = nil
			}
		}
	}
}

// EncodeCtu decides the CU trees of CTU rsaddr and writes them to w. It
// returns the distortion of the chosen reconstruction.
func (e *CuEncoder) EncodeCtu(rsaddr int, w *syntax.Writer) uint64 {
	var dist uint64
	for tree := cu.Primary; tree < e.pic.NumTrees(); tree++ {
		rdo := syntax.NewRdoWriter(w)
		best, d := e.compressCu(e.pic.Ctu(tree, rsaddr), &rdo)
		e.pic.SetCtu(tree, rsaddr, best)
		dist += d
	}
	e.WriteCtu(rsaddr, w)
	return dist
}

func (e *CuEncoder) maxTransformSize() int {
	if e.pic.Restrictions().DisableExtTransformSize64 {
		return 32
	}
	return 64
}

// compressCu decides between coding c whole and splitting it. The returned
// CU replaces c in the tree.
func (e *CuEncoder) compressCu(c *cu.CodingUnit, w *syntax.Writer) (*cu.CodingUnit, uint64) {
	maxTr := e.maxTransformSize()
	depth := c.Depth()
	doSplit := depth < e.pic.MaxDepth()
	doFull := c.IsFullyWithinPicture() && c.Width(yuv.Y) <= maxTr && c.Height(yuv.Y) <= maxTr
	if !doSplit && !doFull {
		panic("enc: CU can be neither split nor coded")
	}
	if !doSplit {
		return e.compressNoSplit(c, w)
	}
	startBits := w.NumWrittenBits()

	fullDist, fullCost := maxCost, maxCost
	fullState := e.states[depth]
	fullWriter := syntax.NewRdoWriter(w)
	if doFull {
		c, fullDist = e.compressNoSplit(c, &fullWriter)
		fullCost = e.cost(fullDist, fullWriter.NumWrittenBits()-startBits)
		c.SaveStateTo(fullState, e.rec)
	}

	splitWriter := syntax.NewRdoWriter(w)
	splitDist := e.compressSplitCu(c, &splitWriter)
	splitCost := e.cost(splitDist, splitWriter.NumWrittenBits()-startBits)
	if splitCost < fullCost {
		*w = splitWriter
		return c, splitDist
	}

	c.UnSplit()
	c.LoadStateFrom(fullState, e.rec)
	e.pic.MarkUsedInPic(c)
	*w = fullWriter
	return c, fullDist
}

func (e *CuEncoder) compressSplitCu(c *cu.CodingUnit, w *syntax.Writer) uint64 {
	c.SplitQuad()
	e.pic.ClearMarkCuInPic(c)
	var dist uint64
	for i, sub := range c.Sub {
		if sub == nil {
			continue
		}
		best, d := e.compressCu(sub, w)
		c.Sub[i] = best
		dist += d
	}
	if c.IsFullyWithinPicture() {
		w.WriteSplitFlag(c, e.pic.MaxDepth(), true)
	}
	return dist
}

// compressNoSplit picks the prediction of c as a leaf. In inter pictures the
// winner may be a scratch CU, which is returned in place of c.
func (e *CuEncoder) compressNoSplit(c *cu.CodingUnit, w *syntax.Writer) (*cu.CodingUnit, uint64) {
	best := rdoCost{cost: maxCost}
	bestState := e.states[c.Depth()+1]
	c.SetQP(e.qp)
	c.SetSplit(false)

	if e.pic.IsIntraPic() {
		best = e.compressIntra(c, w)
	} else {
		tree := c.Tree()
		temp := e.tempCu[tree][c.Depth()]
		temp.SetPosition(c.PosX(yuv.Y), c.PosY(yuv.Y))
		temp.SetQP(e.qp)
		temp.SetSplit(false)

		try := func(cost rdoCost) {
			if cost.cost < best.cost {
				best = cost
				temp.SaveStateTo(bestState, e.rec)
				c, temp = temp, c
			}
		}
		if !e.pic.Restrictions().DisableInterMergeMode {
			try(e.compressMerge(temp, w))
		}
		try(e.compressInter(temp, w))
		if e.settings.AlwaysEvaluateIntraInInter || c.HasAnyCbf() {
			try(e.compressIntra(temp, w))
		}
		e.tempCu[tree][c.Depth()] = temp
		c.LoadStateFrom(bestState, e.rec)
	}
	c.RootCbf = c.HasAnyCbf()
	e.pic.MarkUsedInPic(c)

	for _, comp := range c.Components() {
		e.writer.WriteComponent(c, comp, w)
	}
	if maxDepth := e.pic.MaxDepth(); c.Depth() < maxDepth {
		w.WriteSplitFlag(c, maxDepth, false)
	}
	return c, best.dist
}

func (e *CuEncoder) compressIntra(c *cu.CodingUnit, w *syntax.Writer) rdoCost {
	c.PredMode = cu.Intra
	c.Skip = false
	c.Merge = false
	var dist uint64
	for _, comp := range c.Components() {
		switch comp {
		case yuv.Y:
			c.IntraModeLuma = e.searchIntraLuma(c, w)
		case yuv.U:
			c.IntraModeChroma = e.searchIntraChroma(c, w)
		}
		dist += e.compressComponent(c, comp)
	}
	return e.distCostNoSplit(c, w, dist)
}

func (e *CuEncoder) compressInter(c *cu.CodingUnit, w *syntax.Writer) rdoCost {
	uniOnly := e.pic.PicType() == quant.PicTypeUni || e.pic.Restrictions().DisableInterBipred
	e.searchMotion(c, uniOnly)
	dist, _ := e.compressAndEvalCbf(c, w)
	return e.distCostNoSplit(c, w, dist)
}

func (e *CuEncoder) compressMerge(c *cu.CodingUnit, w *syntax.Writer) rdoCost {
	strict := e.settings.StrictRdo
	fastMerge := e.settings.FastMergeEval
	c.PredMode = cu.Inter
	c.Merge = true

	list := predict.DeriveMergeList(c)
	best := rdoCost{cost: maxCost}
	bestNonSkip := maxCost
	bestIdx := -1
	explicitSkip := false
	skipOnly := false

	numCand := syntax.NumMergeCandidates(e.pic.Restrictions())
	for idx := 0; idx < numCand; idx++ {
		applyMerge(c, list, idx)
		var distZero uint64
		reconstructed := false
		if !skipOnly {
			var dist uint64
			dist, distZero = e.compressAndEvalCbf(c, w)
			cost := e.distCostNoSplit(c, w, dist)
			biasNonSkip := strict && explicitSkip && cost.cost == best.cost
			if cost.cost < best.cost || biasNonSkip {
				best = cost
				bestIdx = idx
				explicitSkip = false
				c.SaveStateTo(e.mergeState, e.rec)
			}
			if fastMerge && cost.cost < bestNonSkip {
				skipOnly = c.Skip
				bestNonSkip = cost.cost
			}
			if c.Skip {
				continue
			}
			if strict {
				c.Skip = true
				c.RootCbf = false
				c.Cbf = [yuv.MaxComponents]bool{}
			}
		} else {
			distZero = e.compressSkipOnly(c, true)
			reconstructed = true
		}
		if strict || skipOnly {
			cost := e.distCostNoSplit(c, w, distZero)
			if cost.cost < best.cost {
				best = cost
				bestIdx = idx
				explicitSkip = true
				if !reconstructed {
					e.compressSkipOnly(c, false)
				}
				c.SaveStateTo(e.mergeState, e.rec)
			}
		}
	}

	applyMerge(c, list, bestIdx)
	c.LoadStateFrom(e.mergeState, e.rec)
	c.Skip = !c.RootCbf
	return best
}

func applyMerge(c *cu.CodingUnit, list predict.MergeList, idx int) {
	c.MergeIdx = idx
	predict.ApplyMotion(c, list[idx])
	c.MVD = [cu.NumRefLists]cu.MotionVector{}
	c.MvpIdx = [cu.NumRefLists]int{}
}

// compressAndEvalCbf codes the residual of every component of c and drops
// residuals that do not pay for their bits. It returns the distortion of the
// result and the distortion of the prediction alone.
func (e *CuEncoder) compressAndEvalCbf(c *cu.CodingUnit, w *syntax.Writer) (uint64, uint64) {
	restr := e.pic.Restrictions()
	var modified [yuv.MaxComponents]bool
	var finalDist, sumZero, sumFast uint64

	for _, comp := range c.Components() {
		distOrig := e.compressComponent(c, comp)
		width, height := c.Width(comp), c.Height(comp)
		distZero := distortion(e.qp, comp, width, height, e.origBuffer(c, comp), e.pred)
		distFast := distOrig
		if e.settings.StrictRdo && c.Cbf[comp] {
			distFast = e.te.residualDistortion(e.qp, comp, width, height)
		}
		forceZero := false
		if !restr.DisableTransformCbf {
			forceZero = e.evalCbfZero(c, comp, w, distFast, distZero)
		}
		if forceZero {
			finalDist += distZero
			sumFast += distZero
		} else {
			finalDist += distOrig
			sumFast += distFast
		}
		sumZero += distZero
		modified[comp] = forceZero
	}
	c.RootCbf = c.HasAnyCbf()
	c.Skip = c.Merge && !c.RootCbf

	if c.RootCbf && !(restr.DisableTransformCbf && restr.DisableTransformRootCbf) {
		if e.evalRootCbfZero(c, w, sumFast, sumZero) {
			for comp := range modified {
				modified[comp] = modified[comp] || c.Cbf[comp]
			}
			finalDist = sumZero
		}
	}

	for _, comp := range c.Components() {
		if !modified[comp] {
			continue
		}
		c.Cbf[comp] = false
		e.inter.Predict(c, comp, predict.MotionOf(c), e.rec.Buffer(comp, c.PosX(comp), c.PosY(comp)))
	}
	c.RootCbf = c.HasAnyCbf()
	c.Skip = c.Merge && !c.RootCbf
	return finalDist, sumZero
}

// compressSkipOnly reconstructs c from its motion alone.
func (e *CuEncoder) compressSkipOnly(c *cu.CodingUnit, calcDist bool) uint64 {
	c.Skip = true
	c.RootCbf = false
	var sum uint64
	for _, comp := range c.Components() {
		reco := e.rec.Buffer(comp, c.PosX(comp), c.PosY(comp))
		e.inter.Predict(c, comp, predict.MotionOf(c), reco)
		c.Cbf[comp] = false
		if calcDist {
			sum += distortion(e.qp, comp, c.Width(comp), c.Height(comp), e.origBuffer(c, comp), reco)
		}
	}
	return sum
}

// evalCbfZero clears the cbf of comp when dropping its residual is cheaper.
func (e *CuEncoder) evalCbfZero(c *cu.CodingUnit, comp yuv.Component, w *syntax.Writer,
	distNonZero, distZero uint64) bool {
	if !c.Cbf[comp] {
		return false
	}
	nonZero := syntax.NewRdoWriterZero(w)
	nonZero.WriteCbf(c, comp, true)
	nonZero.WriteCoefficients(c, comp, c.Coeff(comp))

	zero := syntax.NewRdoWriterZero(w)
	zero.WriteCbf(c, comp, false)

	if e.cost(distZero, zero.NumWrittenBits()) < e.cost(distNonZero, nonZero.NumWrittenBits()) {
		c.Cbf[comp] = false
		return true
	}
	return false
}

// evalRootCbfZero reports whether coding no residual at all is cheaper.
func (e *CuEncoder) evalRootCbfZero(c *cu.CodingUnit, w *syntax.Writer, distNonZero, distZero uint64) bool {
	nonZero := syntax.NewRdoWriterZero(w)
	var zero syntax.Writer
	if e.settings.StrictRdo {
		for _, comp := range c.Components() {
			nonZero.WriteCbf(c, comp, c.Cbf[comp])
			if c.Cbf[comp] {
				nonZero.WriteCoefficients(c, comp, c.Coeff(comp))
			}
		}
		zero = syntax.NewRdoWriterZero(&nonZero)
		zero.WriteRootCbf(false)
	} else {
		for _, comp := range c.Components() {
			e.writer.WriteCoefficients(c, comp, &nonZero)
		}
		zero = syntax.NewRdoWriterZero(w)
		if c.Skip {
			zero.WriteSkipFlag(c, true)
		} else {
			zero.WriteRootCbf(false)
		}
	}
	return e.cost(distZero, zero.NumWrittenBits()) < e.cost(distNonZero, nonZero.NumWrittenBits())
}

// compressComponent predicts comp into the scratch prediction buffer and
// codes its residual.
func (e *CuEncoder) compressComponent(c *cu.CodingUnit, comp yuv.Component) uint64 {
	if c.IsIntra() {
		e.intra.Predict(c, comp, c.IntraMode(comp), e.rec, e.pred)
	} else {
		e.inter.Predict(c, comp, predict.MotionOf(c), e.pred)
	}
	return e.te.transformAndReconstruct(c, comp, e.qp, e.pred, e.rec)
}

func (e *CuEncoder) distCostNoSplit(c *cu.CodingUnit, w *syntax.Writer, dist uint64) rdoCost {
	wr := syntax.NewRdoWriterZero(w)
	for _, comp := range c.Components() {
		e.writer.WriteComponent(c, comp, &wr)
	}
	return rdoCost{cost: e.cost(dist, wr.NumWrittenBits()), dist: dist}
}

func (e *CuEncoder) cost(dist uint64, bits int64) uint64 {
	return dist + uint64(float64(bits)*e.qp.Lambda()+0.5)
}

// WriteCtu writes the decided trees of CTU rsaddr.
func (e *CuEncoder) WriteCtu(rsaddr int, w *syntax.Writer) {
	w.ResetBitCounting()
	for tree := cu.Primary; tree < e.pic.NumTrees(); tree++ {
		e.writer.WriteCu(e.pic.Ctu(tree, rsaddr), w)
	}
}
