package cabac

import (
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/restrictions"
	"github.com/xxthink/xvc/internal/yuv"
)

// Number of context models per syntax element category.
const (
	NumTquantBypassCtx       = 1
	NumSplitFlagCtx          = 3
	NumSkipFlagCtx           = 3
	NumMergeFlagCtx          = 1
	NumMergeIdxCtx           = 1
	NumPartSizeCtx           = 4
	NumPredModeCtx           = 1
	NumIntraPredCtx          = 1
	NumInterDirCtx           = 5
	NumMvdCtx                = 2
	NumRefIdxCtx             = 2
	NumDeltaQpCtx            = 3
	NumCbfCtx                = 1
	NumRootCbfCtx            = 1
	NumLastPosLumaCtx        = 19
	NumLastPosChromaCtx      = 3
	NumSubblockCsbfCtx       = 2
	NumCoeffSigLumaCtx       = 27
	NumCoeffSigChromaCtx     = 15
	NumCoeffGreater1LumaCtx  = 16
	NumCoeffGreater1ChromaCtx = 8
	NumCoeffGreater2LumaCtx  = 4
	NumCoeffGreater2ChromaCtx = 2
	NumMvpIdxCtx             = 1
	NumSaoMergeFlagCtx       = 1
	NumSaoTypeIdxCtx         = 1
	NumTransSubdivFlagCtx    = 3
	NumTransformSkipCtx      = 1
)

// ScanOrder is the coefficient scan pattern of a transform block.
type ScanOrder int

const (
	ScanDiagonal ScanOrder = iota
	ScanHorizontal
	ScanVertical
)

// Contexts is the complete set of context models of a slice.
//
// All categories are fixed-size arrays, so assigning a Contexts value makes
// an independent deep copy of every model.
type Contexts struct {
	restr *restrictions.Restrictions

	TquantBypass        [NumTquantBypassCtx]ContextModel
	SplitFlag           [NumSplitFlagCtx]ContextModel
	SkipFlag            [NumSkipFlagCtx]ContextModel
	MergeFlag           [NumMergeFlagCtx]ContextModel
	MergeIdx            [NumMergeIdxCtx]ContextModel
	PartSize            [NumPartSizeCtx]ContextModel
	PredMode            [NumPredModeCtx]ContextModel
	IntraPredLuma       [NumIntraPredCtx]ContextModel
	IntraPredChroma     [NumIntraPredCtx]ContextModel
	InterDir            [NumInterDirCtx]ContextModel
	Mvd                 [NumMvdCtx]ContextModel
	RefIdx              [NumRefIdxCtx]ContextModel
	DeltaQp             [NumDeltaQpCtx]ContextModel
	CbfLuma             [NumCbfCtx]ContextModel
	CbfChroma           [NumCbfCtx]ContextModel
	RootCbf             [NumRootCbfCtx]ContextModel
	LastPosXLuma        [NumLastPosLumaCtx]ContextModel
	LastPosXChroma      [NumLastPosChromaCtx]ContextModel
	LastPosYLuma        [NumLastPosLumaCtx]ContextModel
	LastPosYChroma      [NumLastPosChromaCtx]ContextModel
	SubblockCsbfLuma    [NumSubblockCsbfCtx]ContextModel
	SubblockCsbfChroma  [NumSubblockCsbfCtx]ContextModel
	CoeffSigLuma        [NumCoeffSigLumaCtx]ContextModel
	CoeffSigChroma      [NumCoeffSigChromaCtx]ContextModel
	CoeffGreater1Luma   [NumCoeffGreater1LumaCtx]ContextModel
	CoeffGreater1Chroma [NumCoeffGreater1ChromaCtx]ContextModel
	CoeffGreater2Luma   [NumCoeffGreater2LumaCtx]ContextModel
	CoeffGreater2Chroma [NumCoeffGreater2ChromaCtx]ContextModel
	MvpIdx              [NumMvpIdxCtx]ContextModel
	SaoMergeFlag        [NumSaoMergeFlagCtx]ContextModel
	SaoTypeIdx          [NumSaoTypeIdxCtx]ContextModel
	TransSubdivFlag     [NumTransSubdivFlagCtx]ContextModel
	TransformSkipLuma   [NumTransformSkipCtx]ContextModel
	TransformSkipChroma [NumTransformSkipCtx]ContextModel
}

var noRestrictions restrictions.Restrictions

// NewContexts creates a context set governed by restr. A nil restr enables
// every context derivation.
func NewContexts(restr *restrictions.Restrictions) Contexts {
	if restr == nil {
		restr = &noRestrictions
	}
	return Contexts{restr: restr}
}

// Restrictions returns the flags governing the derivations.
func (c *Contexts) Restrictions() *restrictions.Restrictions {
	if c.restr == nil {
		return &noRestrictions
	}
	return c.restr
}

// ResetStates initializes every model from the luma QP and the picture type.
func (c *Contexts) ResetStates(qp *quant.QP, picType quant.PicType) {
	r := c.Restrictions()
	q := qp.Raw(yuv.Y)
	if r.DisableCabacInitPerQp {
		q = 32
	}
	s := int(picType)
	if r.DisableCabacInitPerPicType {
		s = int(quant.PicTypeBi)
	}
	initModels(c.TquantBypass[:], q, initTquantBypass[s][:])
	initModels(c.SplitFlag[:], q, initSplitFlag[s][:])
	initModels(c.SkipFlag[:], q, initSkipFlag[s][:])
	initModels(c.MergeFlag[:], q, initMergeFlag[s][:])
	initModels(c.MergeIdx[:], q, initMergeIdx[s][:])
	initModels(c.PartSize[:], q, initPartSize[s][:])
	initModels(c.PredMode[:], q, initPredMode[s][:])
	initModels(c.IntraPredLuma[:], q, initIntraPredMode[s][:1])
	initModels(c.IntraPredChroma[:], q, initIntraPredMode[s][1:])
	initModels(c.InterDir[:], q, initInterDir[s][:])
	initModels(c.Mvd[:], q, initMvd[s][:])
	initModels(c.RefIdx[:], q, initRefIdx[s][:])
	initModels(c.DeltaQp[:], q, initDeltaQp[s][:])
	initModels(c.CbfLuma[:], q, initCbf[s][:1])
	initModels(c.CbfChroma[:], q, initCbf[s][1:])
	initModels(c.RootCbf[:], q, initRootCbf[s][:])
	initModels(c.LastPosXLuma[:], q, initLastPosLuma[s][:])
	initModels(c.LastPosXChroma[:], q, initLastPos[s][15:])
	initModels(c.LastPosYLuma[:], q, initLastPosLuma[s][:])
	initModels(c.LastPosYChroma[:], q, initLastPos[s][15:])
	initModels(c.SubblockCsbfLuma[:], q, initSubblockCsbf[s][:2])
	initModels(c.SubblockCsbfChroma[:], q, initSubblockCsbf[s][2:])
	initModels(c.CoeffSigLuma[:], q, initCoeffSig[s][:NumCoeffSigLumaCtx])
	initModels(c.CoeffSigChroma[:], q, initCoeffSig[s][NumCoeffSigLumaCtx:])
	initModels(c.CoeffGreater1Luma[:], q, initCoeffGreater1[s][:NumCoeffGreater1LumaCtx])
	initModels(c.CoeffGreater1Chroma[:], q, initCoeffGreater1[s][NumCoeffGreater1LumaCtx:])
	initModels(c.CoeffGreater2Luma[:], q, initCoeffGreater2[s][:NumCoeffGreater2LumaCtx])
	initModels(c.CoeffGreater2Chroma[:], q, initCoeffGreater2[s][NumCoeffGreater2LumaCtx:])
	initModels(c.MvpIdx[:], q, initMvpIdx[s][:])
	initModels(c.SaoMergeFlag[:], q, initSaoMergeFlag[s][:])
	initModels(c.SaoTypeIdx[:], q, initSaoTypeIdx[s][:])
	initModels(c.TransSubdivFlag[:], q, initTransSubdivFlag[s][:])
	initModels(c.TransformSkipLuma[:], q, initTransformSkip[s][:1])
	initModels(c.TransformSkipChroma[:], q, initTransformSkip[s][1:])
}

func initModels(ctx []ContextModel, qp int, values []uint8) {
	for i := range ctx {
		ctx[i].Init(qp, values[i])
	}
}

// SplitFlagCtx selects the split flag model from the number of neighbours
// coded at a greater depth.
func (c *Contexts) SplitFlagCtx(leftDeeper, aboveDeeper bool) *ContextModel {
	if c.Restrictions().DisableCabacSplitFlagCtx {
		return &c.SplitFlag[0]
	}
	return &c.SplitFlag[b2i(leftDeeper)+b2i(aboveDeeper)]
}

// SkipFlagCtx selects the skip flag model from the skip flags of the left
// and above neighbours.
func (c *Contexts) SkipFlagCtx(leftSkip, aboveSkip bool) *ContextModel {
	if c.Restrictions().DisableCabacSkipFlagCtx {
		return &c.SkipFlag[0]
	}
	return &c.SkipFlag[b2i(leftSkip)+b2i(aboveSkip)]
}

// InterDirCtx selects the bi-prediction flag model from the CU depth.
func (c *Contexts) InterDirCtx(depth int) *ContextModel {
	if c.Restrictions().DisableCabacInterDirCtx {
		return &c.InterDir[0]
	}
	return &c.InterDir[clip(depth, 0, NumInterDirCtx-2)]
}

// InterDirUniCtx is the model of the L0/L1 selection bin.
func (c *Contexts) InterDirUniCtx() *ContextModel {
	return &c.InterDir[NumInterDirCtx-1]
}

// SubblockCsbfCtx derives the coded subblock flag model of subblock (x, y)
// from its right and below neighbours in a width x height grid of subblock
// flags. It also returns the pattern used by CoeffSigCtx.
func (c *Contexts) SubblockCsbfCtx(comp yuv.Component, csbf []uint8, x, y, width, height int) (*ContextModel, int) {
	base := c.SubblockCsbfChroma[:]
	if comp.IsLuma() {
		base = c.SubblockCsbfLuma[:]
	}
	right, below := 0, 0
	if x < width-1 && csbf[y*width+x+1] != 0 {
		right = 1
	}
	if y < height-1 && csbf[(y+1)*width+x] != 0 {
		below = 1
	}
	patternSigCtx := right + (below << 1)
	if c.Restrictions().DisableCabacSubblockCsbfCtx {
		return &base[0], patternSigCtx
	}
	return &base[right|below], patternSigCtx
}

var sigCtxIndexMap4x4 = [16]uint8{0, 1, 4, 5, 2, 3, 4, 5, 6, 6, 8, 8, 7, 7, 8, 8}

// CoeffSigCtx derives the significance flag model of the coefficient at
// (x, y) in a block of size 1<<log2Size.
func (c *Contexts) CoeffSigCtx(comp yuv.Component, patternSigCtx int, scan ScanOrder, x, y, log2Size int) *ContextModel {
	base := c.CoeffSigChroma[:]
	if comp.IsLuma() {
		base = c.CoeffSigLuma[:]
	}
	if (x == 0 && y == 0) || c.Restrictions().DisableCabacCoeffSigCtx {
		return &base[0]
	}
	if log2Size == 2 {
		return &base[sigCtxIndexMap4x4[4*y+x]]
	}
	var offset int
	switch {
	case log2Size == 3 && scan == ScanDiagonal:
		offset = 9
	case log2Size == 3:
		offset = 15
	case comp.IsLuma():
		offset = 21
	default:
		offset = 12
	}
	xs, ys := x&3, y&3
	cnt := 0
	switch patternSigCtx {
	case 0:
		if xs+ys <= 2 {
			cnt = 1
			if xs+ys == 0 {
				cnt = 2
			}
		}
	case 1:
		if ys <= 1 {
			cnt = 1
			if ys == 0 {
				cnt = 2
			}
		}
	case 2:
		if xs <= 1 {
			cnt = 1
			if xs == 0 {
				cnt = 2
			}
		}
	default:
		cnt = 2
	}
	compOffset := 0
	if comp.IsLuma() && (x>>2)+(y>>2) > 0 {
		compOffset = 3
	}
	return &base[compOffset+offset+cnt]
}

// CoeffGreater1Ctx derives the greater-than-one flag model.
func (c *Contexts) CoeffGreater1Ctx(comp yuv.Component, ctxSet, c1 int) *ContextModel {
	base := c.CoeffGreater1Chroma[:]
	if comp.IsLuma() {
		base = c.CoeffGreater1Luma[:]
	}
	if c.Restrictions().DisableCabacCoeffGreater1Ctx {
		return &base[0]
	}
	return &base[4*ctxSet+c1]
}

// CoeffGreater2Ctx derives the greater-than-two flag model.
func (c *Contexts) CoeffGreater2Ctx(comp yuv.Component, ctxSet int) *ContextModel {
	base := c.CoeffGreater2Chroma[:]
	if comp.IsLuma() {
		base = c.CoeffGreater2Luma[:]
	}
	if c.Restrictions().DisableCabacCoeffGreater2Ctx {
		return &base[0]
	}
	return &base[ctxSet]
}

// CoeffLastPosCtx derives the model of prefix bin pos of the last position
// in a block of the given width (isX) or height.
func (c *Contexts) CoeffLastPosCtx(comp yuv.Component, width, height, pos int, isX bool) *ContextModel {
	size := height
	if isX {
		size = width
	}
	l := sizeLog2Bits(size)
	if comp.IsLuma() {
		base := c.LastPosYLuma[:]
		if isX {
			base = c.LastPosXLuma[:]
		}
		if c.Restrictions().DisableCabacCoeffLastPosCtx {
			return &base[0]
		}
		offset := 3*l + ((l + 1) >> 2)
		shift := (l + 3) >> 2
		return &base[offset+(pos>>uint(shift))]
	}
	base := c.LastPosYChroma[:]
	if isX {
		base = c.LastPosXChroma[:]
	}
	if c.Restrictions().DisableCabacCoeffLastPosCtx {
		return &base[0]
	}
	return &base[pos>>uint(l)]
}

// sizeLog2Bits returns log2(size) - 2, the block size in 4-sample units.
func sizeLog2Bits(size int) int {
	n := 0
	for size > 4 {
		size >>= 1
		n++
	}
	return n
}

// ForEach calls fn for every context model of the set.
func (c *Contexts) ForEach(fn func(*ContextModel)) {
	groups := [][]ContextModel{
		c.TquantBypass[:], c.SplitFlag[:], c.SkipFlag[:], c.MergeFlag[:],
		c.MergeIdx[:], c.PartSize[:], c.PredMode[:], c.IntraPredLuma[:],
		c.IntraPredChroma[:], c.InterDir[:], c.Mvd[:], c.RefIdx[:],
		c.DeltaQp[:], c.CbfLuma[:], c.CbfChroma[:], c.RootCbf[:],
		c.LastPosXLuma[:], c.LastPosXChroma[:], c.LastPosYLuma[:], c.LastPosYChroma[:],
		c.SubblockCsbfLuma[:], c.SubblockCsbfChroma[:], c.CoeffSigLuma[:], c.CoeffSigChroma[:],
		c.CoeffGreater1Luma[:], c.CoeffGreater1Chroma[:], c.CoeffGreater2Luma[:],
		c.CoeffGreater2Chroma[:], c.MvpIdx[:], c.SaoMergeFlag[:], c.SaoTypeIdx[:],
		c.TransSubdivFlag[:], c.TransformSkipLuma[:], c.TransformSkipChroma[:],
	}
	for _, g := range groups {
		for i := range g {
			fn(&g[i])
		}
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
