package syntax

import (
	"github.com/xxthink/xvc/internal/bio"
	"github.com/xxthink/xvc/internal/cabac"
	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/predict"
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/restrictions"
	"github.com/xxthink/xvc/internal/yuv"
)

// Writer codes syntax elements with context adaptive binary arithmetic
// coding.
//
// A Writer is a value. Copies made with NewRdoWriter or NewRdoWriterZero
// carry their own context models and never emit bytes, so a candidate can
// be priced without disturbing the writer it was copied from.
type Writer struct {
	ctx cabac.Contexts
	enc cabac.Encoder
}

// NewWriter returns a writer emitting to out with contexts initialized for
// qp and picType.
func NewWriter(qp *quant.QP, picType quant.PicType, restr *restrictions.Restrictions, out *bio.Writer) *Writer {
	w := &Writer{ctx: cabac.NewContexts(restr)}
	w.ctx.ResetStates(qp, picType)
	w.enc = cabac.NewEncoder(out, w.ctx.Restrictions().DisableCabacCtxUpdate)
	return w
}

// NewRdoWriter returns a trial copy of w that continues its bit count.
func NewRdoWriter(w *Writer) Writer {
	cp := *w
	cp.enc.Detach()
	return cp
}

// NewRdoWriterZero returns a trial copy of w that counts bits from zero.
func NewRdoWriterZero(w *Writer) Writer {
	cp := NewRdoWriter(w)
	cp.enc.ResetBitCounting()
	return cp
}

// NumWrittenBits returns the number of bits written since the last reset.
func (w *Writer) NumWrittenBits() int64 { return w.enc.NumWrittenBits() }

// FractionalBits returns the estimated cost of every bin written.
func (w *Writer) FractionalBits() uint64 { return w.enc.FractionalBits() }

// ResetBitCounting restarts the bit count at zero.
func (w *Writer) ResetBitCounting() { w.enc.ResetBitCounting() }

// Contexts exposes the context models.
func (w *Writer) Contexts() *cabac.Contexts { return &w.ctx }

// Finish flushes the arithmetic coder.
func (w *Writer) Finish() error { return w.enc.Finish() }

func (w *Writer) restr() *restrictions.Restrictions { return w.ctx.Restrictions() }

// WriteSplitFlag codes the quad split decision of c.
func (w *Writer) WriteSplitFlag(c *cu.CodingUnit, maxDepth int, split bool) {
	if c.Depth() >= maxDepth {
		panic("syntax: split flag at maximum depth")
	}
	w.enc.EncodeBin(b2u(split), splitFlagCtx(&w.ctx, c))
}

func splitFlagCtx(ctx *cabac.Contexts, c *cu.CodingUnit) *cabac.ContextModel {
	left, above := c.Left(), c.Above()
	return ctx.SplitFlagCtx(left != nil && left.Depth() > c.Depth(),
		above != nil && above.Depth() > c.Depth())
}

func skipFlagCtx(ctx *cabac.Contexts, c *cu.CodingUnit) *cabac.ContextModel {
	left, above := c.Left(), c.Above()
	return ctx.SkipFlagCtx(left != nil && left.Skip, above != nil && above.Skip)
}

// WriteSkipFlag codes the skip flag of c.
func (w *Writer) WriteSkipFlag(c *cu.CodingUnit, skip bool) {
	w.enc.EncodeBin(b2u(skip), skipFlagCtx(&w.ctx, c))
}

// WriteMergeFlag codes whether motion is inherited from a merge candidate.
func (w *Writer) WriteMergeFlag(merge bool) {
	w.enc.EncodeBin(b2u(merge), &w.ctx.MergeFlag[0])
}

// WriteMergeIdx codes a merge candidate index as truncated unary.
func (w *Writer) WriteMergeIdx(idx int) {
	numCand := NumMergeCandidates(w.restr())
	if numCand <= 1 {
		return
	}
	for i := 0; i < numCand-1; i++ {
		bin := b2u(idx > i)
		if i == 0 {
			w.enc.EncodeBin(bin, &w.ctx.MergeIdx[0])
		} else {
			w.enc.EncodeBypass(bin)
		}
		if bin == 0 {
			break
		}
	}
}

// NumMergeCandidates returns the number of selectable merge candidates.
func NumMergeCandidates(r *restrictions.Restrictions) int {
	if r.DisableInterMergeCandidates {
		return 1
	}
	return cu.MaxNumMergeCand
}

// WritePredMode codes intra or inter prediction.
func (w *Writer) WritePredMode(mode cu.PredMode) {
	w.enc.EncodeBin(b2u(mode == cu.Intra), &w.ctx.PredMode[0])
}

// WriteIntraMode codes a luma intra mode against its most probable modes.
func (w *Writer) WriteIntraMode(mode cu.IntraMode, mpm predict.Mpm) {
	if w.restr().DisableIntraMpmPrediction {
		w.enc.EncodeBypassBins(uint32(mode), 6)
		return
	}
	idx := mpm.Index(mode)
	w.enc.EncodeBin(b2u(idx >= 0), &w.ctx.IntraPredLuma[0])
	if idx < 0 {
		w.enc.EncodeBypassBins(uint32(mpm.Remainder(mode)), 5)
		return
	}
	w.enc.EncodeBypass(b2u(idx > 0))
	if idx > 0 {
		w.enc.EncodeBypass(b2u(idx > 1))
	}
}

// WriteIntraChromaMode codes the chroma intra mode.
func (w *Writer) WriteIntraChromaMode(mode cu.IntraChromaMode) {
	if mode == cu.ChromaDM {
		w.enc.EncodeBin(0, &w.ctx.IntraPredChroma[0])
		return
	}
	w.enc.EncodeBin(1, &w.ctx.IntraPredChroma[0])
	w.enc.EncodeBypassBins(uint32(mode), 2)
}

// WriteInterDir codes the reference lists used by c.
func (w *Writer) WriteInterDir(c *cu.CodingUnit, dir cu.InterDir) {
	if !w.restr().DisableInterBipred {
		w.enc.EncodeBin(b2u(dir == cu.InterDirBi), w.ctx.InterDirCtx(c.Depth()))
		if dir == cu.InterDirBi {
			return
		}
	}
	w.enc.EncodeBin(b2u(dir == cu.InterDirL1), w.ctx.InterDirUniCtx())
}

// WriteRefIdx codes a reference index into a list of numRefs pictures.
func (w *Writer) WriteRefIdx(idx, numRefs int) {
	if numRefs <= 1 {
		return
	}
	w.enc.EncodeBin(b2u(idx > 0), &w.ctx.RefIdx[0])
	if idx == 0 || numRefs == 2 {
		return
	}
	w.enc.EncodeBin(b2u(idx > 1), &w.ctx.RefIdx[1])
	if idx == 1 {
		return
	}
	for i := 2; i < numRefs-1; i++ {
		bin := b2u(idx > i)
		w.enc.EncodeBypass(bin)
		if bin == 0 {
			break
		}
	}
}

// WriteMvd codes a motion vector difference.
func (w *Writer) WriteMvd(mvd cu.MotionVector) {
	absX, absY := abs(mvd.X), abs(mvd.Y)
	if w.restr().DisableInterMvdGreaterThanFlags {
		for _, v := range [2]int{mvd.X, mvd.Y} {
			w.writeExpGolomb(uint32(abs(v)), 1)
			if v != 0 {
				w.enc.EncodeBypass(b2u(v < 0))
			}
		}
		return
	}
	w.enc.EncodeBin(b2u(absX > 0), &w.ctx.Mvd[0])
	w.enc.EncodeBin(b2u(absY > 0), &w.ctx.Mvd[0])
	if absX > 0 {
		w.enc.EncodeBin(b2u(absX > 1), &w.ctx.Mvd[1])
	}
	if absY > 0 {
		w.enc.EncodeBin(b2u(absY > 1), &w.ctx.Mvd[1])
	}
	for _, v := range [2]int{mvd.X, mvd.Y} {
		if v == 0 {
			continue
		}
		if abs(v) > 1 {
			w.writeExpGolomb(uint32(abs(v)-2), 1)
		}
		w.enc.EncodeBypass(b2u(v < 0))
	}
}

// WriteMvpIdx codes the motion vector predictor index.
func (w *Writer) WriteMvpIdx(idx int) {
	w.enc.EncodeBin(uint32(idx), &w.ctx.MvpIdx[0])
}

// WriteRootCbf codes whether an inter CU carries any residual.
func (w *Writer) WriteRootCbf(cbf bool) {
	w.enc.EncodeBin(b2u(cbf), &w.ctx.RootCbf[0])
}

// WriteCbf codes whether comp carries residual.
func (w *Writer) WriteCbf(c *cu.CodingUnit, comp yuv.Component, cbf bool) {
	if comp.IsLuma() {
		w.enc.EncodeBin(b2u(cbf), &w.ctx.CbfLuma[0])
	} else {
		w.enc.EncodeBin(b2u(cbf), &w.ctx.CbfChroma[0])
	}
}

// WriteEndOfSlice codes the end of slice terminating bin.
func (w *Writer) WriteEndOfSlice(last bool) {
	w.enc.EncodeBinTrm(b2u(last))
}

// WriteCoefficients codes the quantized levels of comp. At least one level
// must be non-zero unless the last position is not signaled.
func (w *Writer) WriteCoefficients(c *cu.CodingUnit, comp yuv.Component, coeff yuv.CoeffBuffer) {
	r := w.restr()
	log2 := log2Size(c.Width(comp))
	order := ScanOrderFor(c, comp)
	scan := newBlockScan(log2, order)

	lastIdx := scan.size() - 1
	if !r.DisableTransformLastPosition {
		for lastIdx >= 0 {
			x, y := scan.at(lastIdx)
			if coeff.Data[y*coeff.Stride+x] != 0 {
				break
			}
			lastIdx--
		}
		if lastIdx < 0 {
			panic("syntax: coefficients written for an empty block")
		}
		x, y := scan.at(lastIdx)
		w.writeLastPosition(comp, log2, order, x, y)
	}

	subW := 1 << uint(scan.subLog2)
	var csbf [256]uint8
	var levels [subblockSize]int
	c1 := 1
	for sub := lastIdx >> 4; sub >= 0; sub-- {
		sb := scan.sub[sub]
		sx, sy := int(sb.x), int(sb.y)
		csbfCtx, pattern := w.ctx.SubblockCsbfCtx(comp, csbf[:], sx, sy, subW, subW)

		first := subblockSize - 1
		if sub == lastIdx>>4 {
			first = lastIdx & (subblockSize - 1)
		}
		numNonZero := 0
		for n := first; n >= 0; n-- {
			x, y := scan.at(sub<<4 + n)
			levels[n] = int(coeff.Data[y*coeff.Stride+x])
			if levels[n] != 0 {
				numNonZero++
			}
		}

		hasLast := sub == lastIdx>>4 && !r.DisableTransformLastPosition
		inferSig := false
		switch {
		case sub == 0 || hasLast:
			csbf[sy*subW+sx] = 1
		case r.DisableTransformSubblockCsbf:
			csbf[sy*subW+sx] = 1
		default:
			flag := b2u(numNonZero > 0)
			w.enc.EncodeBin(flag, csbfCtx)
			csbf[sy*subW+sx] = uint8(flag)
			if flag == 0 {
				continue
			}
			inferSig = true
		}

		start := first
		if hasLast {
			start = first - 1
		}
		for n := start; n >= 0; n-- {
			if n == 0 && inferSig {
				break
			}
			x, y := scan.at(sub<<4 + n)
			sig := b2u(levels[n] != 0)
			w.enc.EncodeBin(sig, w.ctx.CoeffSigCtx(comp, pattern, order, x, y, log2))
			if sig != 0 {
				inferSig = false
			}
		}
		if numNonZero == 0 {
			continue
		}

		var absLevels [subblockSize]int
		var signs [subblockSize]bool
		num := 0
		for n := first; n >= 0; n-- {
			if levels[n] != 0 {
				absLevels[num] = abs(levels[n])
				signs[num] = levels[n] < 0
				num++
			}
		}
		c1 = w.writeLevels(comp, sub, absLevels[:num], signs[:num], c1)
	}
}

func (w *Writer) writeLevels(comp yuv.Component, sub int, absLevels []int, signs []bool, c1 int) int {
	r := w.restr()
	gtFlags := !r.DisableTransformResidualGreaterThanFlags
	ctxSet := 0
	if sub > 0 && comp.IsLuma() {
		ctxSet = 2
	}
	if c1 == 0 {
		ctxSet++
	}
	c1 = 1
	firstGt2 := -1
	if gtFlags {
		for i := 0; i < len(absLevels) && i < maxNumGt1Flags; i++ {
			gt1 := b2u(absLevels[i] > 1)
			w.enc.EncodeBin(gt1, w.ctx.CoeffGreater1Ctx(comp, ctxSet, c1))
			if gt1 != 0 {
				c1 = 0
				if firstGt2 < 0 {
					firstGt2 = i
				}
			} else if c1 > 0 && c1 < 3 {
				c1++
			}
		}
		if firstGt2 >= 0 && !r.DisableTransformResidualGreater2 {
			w.enc.EncodeBin(b2u(absLevels[firstGt2] > 2), w.ctx.CoeffGreater2Ctx(comp, ctxSet))
		}
	}
	for _, s := range signs {
		w.enc.EncodeBypass(b2u(s))
	}
	rice := 0
	for i, a := range absLevels {
		base := baseLevel(i, firstGt2, gtFlags, !r.DisableTransformResidualGreater2)
		if a < base {
			continue
		}
		w.writeCoeffRemain(uint32(a-base), rice)
		if a > 3<<uint(rice) && !r.DisableTransformAdaptiveExpGolomb {
			rice = min(rice+1, maxRiceParam)
		}
	}
	return c1
}

// baseLevel returns the level implied by the flags coded for the i-th
// significant coefficient of a subblock.
func baseLevel(i, firstGt2 int, gtFlags, gt2Flag bool) int {
	if !gtFlags || i >= maxNumGt1Flags {
		return 1
	}
	if i == firstGt2 && gt2Flag {
		return 3
	}
	return 2
}

func (w *Writer) writeLastPosition(comp yuv.Component, log2 int, order cabac.ScanOrder, x, y int) {
	if order == cabac.ScanVertical {
		x, y = y, x
	}
	size := 1 << uint(log2)
	maxGroup := int(lastGroupIdx[size-1])
	gx, gy := int(lastGroupIdx[x]), int(lastGroupIdx[y])
	for i, g := range [2]int{gx, gy} {
		isX := i == 0
		for j := 0; j < g; j++ {
			w.enc.EncodeBin(1, w.ctx.CoeffLastPosCtx(comp, size, size, j, isX))
		}
		if g < maxGroup {
			w.enc.EncodeBin(0, w.ctx.CoeffLastPosCtx(comp, size, size, g, isX))
		}
	}
	for i, g := range [2]int{gx, gy} {
		if g <= 3 {
			continue
		}
		v := x
		if i == 1 {
			v = y
		}
		w.enc.EncodeBypassBins(uint32(v-int(lastGroupMin[g])), (g-2)>>1)
	}
}

func (w *Writer) writeCoeffRemain(symbol uint32, rice int) {
	if symbol < coeffRemainReduction<<uint(rice) {
		length := symbol >> uint(rice)
		w.enc.EncodeBypassBins(1<<(length+1)-2, int(length)+1)
		w.enc.EncodeBypassBins(symbol&(1<<uint(rice)-1), rice)
		return
	}
	length := rice
	symbol -= coeffRemainReduction << uint(rice)
	for symbol >= 1<<uint(length) {
		symbol -= 1 << uint(length)
		length++
	}
	prefix := coeffRemainReduction + length + 1 - rice
	w.encodeOnes(prefix - 1)
	w.enc.EncodeBypass(0)
	w.enc.EncodeBypassBins(symbol, length)
}

func (w *Writer) encodeOnes(n int) {
	for ; n > 0; n-- {
		w.enc.EncodeBypass(1)
	}
}

func (w *Writer) writeExpGolomb(symbol uint32, k int) {
	for symbol >= 1<<uint(k) {
		w.enc.EncodeBypass(1)
		symbol -= 1 << uint(k)
		k++
	}
	w.enc.EncodeBypass(0)
	w.enc.EncodeBypassBins(symbol, k)
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
