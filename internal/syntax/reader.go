package syntax

import (
	"math"

	"github.com/xxthink/xvc/internal/bio"
	"github.com/xxthink/xvc/internal/cabac"
	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/predict"
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/restrictions"
	"github.com/xxthink/xvc/internal/yuv"
)

// Reader decodes the syntax elements coded by Writer.
type Reader struct {
	ctx cabac.Contexts
	dec *cabac.Decoder
}

// NewReader returns a reader decoding from in with contexts initialized for
// qp and picType.
func NewReader(qp *quant.QP, picType quant.PicType, restr *restrictions.Restrictions, in *bio.Reader) *Reader {
	r := &Reader{ctx: cabac.NewContexts(restr)}
	r.ctx.ResetStates(qp, picType)
	r.dec = cabac.NewDecoder(in, r.ctx.Restrictions().DisableCabacCtxUpdate)
	return r
}

func (r *Reader) restr() *restrictions.Restrictions { return r.ctx.Restrictions() }

// ReadSplitFlag decodes the quad split decision of c.
func (r *Reader) ReadSplitFlag(c *cu.CodingUnit, maxDepth int) bool {
	if c.Depth() >= maxDepth {
		return false
	}
	return r.dec.DecodeBin(splitFlagCtx(&r.ctx, c)) != 0
}

// ReadSkipFlag decodes the skip flag of c.
func (r *Reader) ReadSkipFlag(c *cu.CodingUnit) bool {
	return r.dec.DecodeBin(skipFlagCtx(&r.ctx, c)) != 0
}

// ReadMergeFlag decodes the merge flag.
func (r *Reader) ReadMergeFlag() bool {
	return r.dec.DecodeBin(&r.ctx.MergeFlag[0]) != 0
}

// ReadMergeIdx decodes a merge candidate index.
func (r *Reader) ReadMergeIdx() int {
	numCand := NumMergeCandidates(r.restr())
	idx := 0
	for idx < numCand-1 {
		var bin uint32
		if idx == 0 {
			bin = r.dec.DecodeBin(&r.ctx.MergeIdx[0])
		} else {
			bin = r.dec.DecodeBypass()
		}
		if bin == 0 {
			break
		}
		idx++
	}
	return idx
}

// ReadPredMode decodes intra or inter prediction.
func (r *Reader) ReadPredMode() cu.PredMode {
	if r.dec.DecodeBin(&r.ctx.PredMode[0]) != 0 {
		return cu.Intra
	}
	return cu.Inter
}

// ReadIntraMode decodes a luma intra mode.
func (r *Reader) ReadIntraMode(mpm predict.Mpm) cu.IntraMode {
	if r.restr().DisableIntraMpmPrediction {
		mode := cu.IntraMode(r.dec.DecodeBypassBins(6))
		if mode >= cu.NumIntraModes {
			mode = cu.NumIntraModes - 1
		}
		return mode
	}
	if r.dec.DecodeBin(&r.ctx.IntraPredLuma[0]) == 0 {
		return mpm.FromRemainder(int(r.dec.DecodeBypassBins(5)))
	}
	idx := 0
	if r.dec.DecodeBypass() != 0 {
		idx = 1 + int(r.dec.DecodeBypass())
	}
	return mpm[idx]
}

// ReadIntraChromaMode decodes the chroma intra mode.
func (r *Reader) ReadIntraChromaMode() cu.IntraChromaMode {
	if r.dec.DecodeBin(&r.ctx.IntraPredChroma[0]) == 0 {
		return cu.ChromaDM
	}
	return cu.IntraChromaMode(r.dec.DecodeBypassBins(2))
}

// ReadInterDir decodes the reference lists used by c.
func (r *Reader) ReadInterDir(c *cu.CodingUnit) cu.InterDir {
	if !r.restr().DisableInterBipred {
		if r.dec.DecodeBin(r.ctx.InterDirCtx(c.Depth())) != 0 {
			return cu.InterDirBi
		}
	}
	if r.dec.DecodeBin(r.ctx.InterDirUniCtx()) != 0 {
		return cu.InterDirL1
	}
	return cu.InterDirL0
}

// ReadRefIdx decodes a reference index into a list of numRefs pictures.
func (r *Reader) ReadRefIdx(numRefs int) int {
	if numRefs <= 1 {
		return 0
	}
	if r.dec.DecodeBin(&r.ctx.RefIdx[0]) == 0 {
		return 0
	}
	if numRefs == 2 {
		return 1
	}
	if r.dec.DecodeBin(&r.ctx.RefIdx[1]) == 0 {
		return 1
	}
	idx := 2
	for idx < numRefs-1 && r.dec.DecodeBypass() != 0 {
		idx++
	}
	return idx
}

// ReadMvd decodes a motion vector difference.
func (r *Reader) ReadMvd() cu.MotionVector {
	var v [2]int
	if r.restr().DisableInterMvdGreaterThanFlags {
		for i := range v {
			v[i] = int(r.readExpGolomb(1))
			if v[i] != 0 && r.dec.DecodeBypass() != 0 {
				v[i] = -v[i]
			}
		}
		return cu.MotionVector{X: v[0], Y: v[1]}
	}
	var gt0, gt1 [2]bool
	gt0[0] = r.dec.DecodeBin(&r.ctx.Mvd[0]) != 0
	gt0[1] = r.dec.DecodeBin(&r.ctx.Mvd[0]) != 0
	for i := range v {
		if gt0[i] {
			gt1[i] = r.dec.DecodeBin(&r.ctx.Mvd[1]) != 0
		}
	}
	for i := range v {
		if !gt0[i] {
			continue
		}
		v[i] = 1
		if gt1[i] {
			v[i] = 2 + int(r.readExpGolomb(1))
		}
		if r.dec.DecodeBypass() != 0 {
			v[i] = -v[i]
		}
	}
	return cu.MotionVector{X: v[0], Y: v[1]}
}

// ReadMvpIdx decodes the motion vector predictor index.
func (r *Reader) ReadMvpIdx() int {
	return int(r.dec.DecodeBin(&r.ctx.MvpIdx[0]))
}

// ReadRootCbf decodes whether an inter CU carries residual.
func (r *Reader) ReadRootCbf() bool {
	return r.dec.DecodeBin(&r.ctx.RootCbf[0]) != 0
}

// ReadCbf decodes whether comp carries residual.
func (r *Reader) ReadCbf(comp yuv.Component) bool {
	if comp.IsLuma() {
		return r.dec.DecodeBin(&r.ctx.CbfLuma[0]) != 0
	}
	return r.dec.DecodeBin(&r.ctx.CbfChroma[0]) != 0
}

// ReadEndOfSlice decodes the end of slice terminating bin.
func (r *Reader) ReadEndOfSlice() bool {
	return r.dec.DecodeBinTrm() != 0
}

// ReadCoefficients decodes the quantized levels of comp into coeff and
// returns the number of non-zero levels.
func (r *Reader) ReadCoefficients(c *cu.CodingUnit, comp yuv.Component, coeff yuv.CoeffBuffer) int {
	rs := r.restr()
	log2 := log2Size(c.Width(comp))
	order := ScanOrderFor(c, comp)
	scan := newBlockScan(log2, order)
	size := 1 << uint(log2)
	coeff.Zero(size, size)

	lastIdx := scan.size() - 1
	if !rs.DisableTransformLastPosition {
		x, y := r.readLastPosition(comp, log2, order)
		lastIdx = indexOf(scan, x, y)
	}

	subW := 1 << uint(scan.subLog2)
	var csbf [256]uint8
	var sig [subblockSize]bool
	total := 0
	c1 := 1
	for sub := lastIdx >> 4; sub >= 0; sub-- {
		sb := scan.sub[sub]
		sx, sy := int(sb.x), int(sb.y)
		csbfCtx, pattern := r.ctx.SubblockCsbfCtx(comp, csbf[:], sx, sy, subW, subW)

		first := subblockSize - 1
		if sub == lastIdx>>4 {
			first = lastIdx & (subblockSize - 1)
		}
		hasLast := sub == lastIdx>>4 && !rs.DisableTransformLastPosition
		inferSig := false
		switch {
		case sub == 0 || hasLast, rs.DisableTransformSubblockCsbf:
			csbf[sy*subW+sx] = 1
		default:
			flag := r.dec.DecodeBin(csbfCtx)
			csbf[sy*subW+sx] = uint8(flag)
			if flag == 0 {
				continue
			}
			inferSig = true
		}

		for n := range sig {
			sig[n] = false
		}
		start := first
		if hasLast {
			sig[first] = true
			start = first - 1
		}
		for n := start; n >= 0; n-- {
			if n == 0 && inferSig {
				sig[0] = true
				break
			}
			x, y := scan.at(sub<<4 + n)
			if r.dec.DecodeBin(r.ctx.CoeffSigCtx(comp, pattern, order, x, y, log2)) != 0 {
				sig[n] = true
				inferSig = false
			}
		}

		var idx [subblockSize]int
		num := 0
		for n := first; n >= 0; n-- {
			if sig[n] {
				idx[num] = n
				num++
			}
		}
		if num == 0 {
			continue
		}
		var levels [subblockSize]int
		c1 = r.readLevels(comp, sub, levels[:num], c1)
		for i := 0; i < num; i++ {
			x, y := scan.at(sub<<4 + idx[i])
			coeff.Data[y*coeff.Stride+x] = clipCoeff(levels[i])
		}
		total += num
	}
	return total
}

func indexOf(scan blockScan, x, y int) int {
	for i := scan.size() - 1; i >= 0; i-- {
		if sx, sy := scan.at(i); sx == x && sy == y {
			return i
		}
	}
	return 0
}

func (r *Reader) readLevels(comp yuv.Component, sub int, levels []int, c1 int) int {
	rs := r.restr()
	gtFlags := !rs.DisableTransformResidualGreaterThanFlags
	ctxSet := 0
	if sub > 0 && comp.IsLuma() {
		ctxSet = 2
	}
	if c1 == 0 {
		ctxSet++
	}
	c1 = 1
	firstGt2 := -1
	for i := range levels {
		levels[i] = 1
	}
	if gtFlags {
		for i := 0; i < len(levels) && i < maxNumGt1Flags; i++ {
			if r.dec.DecodeBin(r.ctx.CoeffGreater1Ctx(comp, ctxSet, c1)) != 0 {
				levels[i] = 2
				c1 = 0
				if firstGt2 < 0 {
					firstGt2 = i
				}
			} else if c1 > 0 && c1 < 3 {
				c1++
			}
		}
		if firstGt2 >= 0 && !rs.DisableTransformResidualGreater2 {
			if r.dec.DecodeBin(r.ctx.CoeffGreater2Ctx(comp, ctxSet)) != 0 {
				levels[firstGt2] = 3
			}
		}
	}
	var signs [subblockSize]bool
	for i := range levels {
		signs[i] = r.dec.DecodeBypass() != 0
	}
	rice := 0
	for i := range levels {
		base := baseLevel(i, firstGt2, gtFlags, !rs.DisableTransformResidualGreater2)
		if levels[i] < base {
			continue
		}
		levels[i] = base + int(r.readCoeffRemain(rice))
		if levels[i] > 3<<uint(rice) && !rs.DisableTransformAdaptiveExpGolomb {
			rice = min(rice+1, maxRiceParam)
		}
	}
	for i, s := range signs[:len(levels)] {
		if s {
			levels[i] = -levels[i]
		}
	}
	return c1
}

func (r *Reader) readLastPosition(comp yuv.Component, log2 int, order cabac.ScanOrder) (int, int) {
	size := 1 << uint(log2)
	maxGroup := int(lastGroupIdx[size-1])
	var g [2]int
	for i := range g {
		isX := i == 0
		for g[i] < maxGroup && r.dec.DecodeBin(r.ctx.CoeffLastPosCtx(comp, size, size, g[i], isX)) != 0 {
			g[i]++
		}
	}
	var v [2]int
	for i := range v {
		v[i] = int(lastGroupMin[g[i]])
		if g[i] > 3 {
			v[i] += int(r.dec.DecodeBypassBins((g[i] - 2) >> 1))
		}
	}
	if order == cabac.ScanVertical {
		return v[1], v[0]
	}
	return v[0], v[1]
}

func (r *Reader) readCoeffRemain(rice int) uint32 {
	prefix := 0
	for prefix < maxExpGolombPrefix && r.dec.DecodeBypass() != 0 {
		prefix++
	}
	if prefix < coeffRemainReduction {
		return uint32(prefix)<<uint(rice) + r.dec.DecodeBypassBins(rice)
	}
	length := prefix - coeffRemainReduction + rice
	suffix := r.dec.DecodeBypassBins(length)
	return (1<<uint(prefix-coeffRemainReduction)+coeffRemainReduction-1)<<uint(rice) + suffix
}

func (r *Reader) readExpGolomb(k int) uint32 {
	var symbol uint32
	for k < maxExpGolombPrefix && r.dec.DecodeBypass() != 0 {
		symbol += 1 << uint(k)
		k++
	}
	return symbol + r.dec.DecodeBypassBins(k)
}

func clipCoeff(v int) yuv.Coeff {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return yuv.Coeff(v)
}
