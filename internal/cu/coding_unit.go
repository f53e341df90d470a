// Package cu holds the coding unit quad-tree and the per-picture data that
// the encoder search and the decoder share: the CTU grid, the CU object pool
// and the occupancy maps used for neighbour lookups.
package cu

import (
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/yuv"
)

const (
	// MaxBlockSizeLog2 is log2 of the CTU size.
	MaxBlockSizeLog2 = 6
	// MaxBlockSize is the CTU size in luma samples.
	MaxBlockSize = 1 << MaxBlockSizeLog2
	// MaxCuDepth is the deepest quad-tree level.
	MaxCuDepth = 3
	// MinCuSize is the smallest CU size in luma samples.
	MinCuSize = MaxBlockSize >> MaxCuDepth
	// MaxNumMergeCand is the length of the merge candidate list.
	MaxNumMergeCand = 5
	// NumMvpCand is the length of the motion vector predictor list.
	NumMvpCand = 2
)

// Tree identifies one of the CU quad-trees of a CTU.
type Tree int

const (
	// Primary carries all components, or luma only when a picture has two trees.
	Primary Tree = iota
	// Secondary carries chroma of intra pictures coded with two trees.
	Secondary
	NumTrees
)

// PredMode is the prediction mode of a CU.
type PredMode int

const (
	Inter PredMode = iota
	Intra
)

// InterDir is the set of reference lists used by an inter CU.
type InterDir int

const (
	InterDirL0 InterDir = iota
	InterDirL1
	InterDirBi
)

// RefList is a reference picture list index.
type RefList int

const (
	L0 RefList = iota
	L1
	NumRefLists
)

// IntraMode is an intra prediction direction. Numbering follows the 35-mode
// planar, DC and angular layout.
type IntraMode int

const (
	IntraPlanar     IntraMode = 0
	IntraDC         IntraMode = 1
	IntraHorizontal IntraMode = 10
	IntraVertical   IntraMode = 26
	IntraAngular34  IntraMode = 34
	NumIntraModes             = 35
)

// IntraChromaMode is the signaled chroma intra mode.
type IntraChromaMode int

const (
	ChromaPlanar IntraChromaMode = iota
	ChromaVertical
	ChromaHorizontal
	ChromaDC
	ChromaDM // derived from the co-located luma mode
	NumChromaModes
)

var chromaModeList = [4]IntraMode{IntraPlanar, IntraVertical, IntraHorizontal, IntraDC}

// ChromaModeToIntra resolves a chroma mode given the luma mode it derives from.
func ChromaModeToIntra(mode IntraChromaMode, luma IntraMode) IntraMode {
	if mode == ChromaDM {
		return luma
	}
	m := chromaModeList[mode]
	if m == luma {
		return IntraAngular34
	}
	return m
}

// MotionVector is an integer-sample motion vector.
type MotionVector struct {
	X, Y int
}

// CodingUnit is a node of a CU quad-tree.
type CodingUnit struct {
	pic    *PictureData
	tree   Tree
	depth  int
	posX   int // luma samples
	posY   int
	width  int
	height int
	split  bool
	qp     *quant.QP
	coeff  [yuv.MaxComponents][]yuv.Coeff

	// Sub holds the quadrants of a split CU. Quadrants starting outside the
	// picture are nil.
	Sub [4]*CodingUnit

	PredMode        PredMode
	Skip            bool
	Merge           bool
	MergeIdx        int
	IntraModeLuma   IntraMode
	IntraModeChroma IntraChromaMode
	InterDir        InterDir
	MV              [NumRefLists]MotionVector
	MVD             [NumRefLists]MotionVector
	RefIdx          [NumRefLists]int
	MvpIdx          [NumRefLists]int
	Cbf             [yuv.MaxComponents]bool
	RootCbf         bool
}

func (c *CodingUnit) reset(tree Tree, depth, x, y, w, h int) {
	coeff := c.coeff
	pic := c.pic
	*c = CodingUnit{pic: pic, tree: tree, depth: depth, posX: x, posY: y, width: w, height: h, coeff: coeff}
	c.IntraModeLuma = IntraDC
	c.IntraModeChroma = ChromaDM
}

// Pic returns the picture data the CU belongs to.
func (c *CodingUnit) Pic() *PictureData { return c.pic }

// Tree returns the quad-tree the CU belongs to.
func (c *CodingUnit) Tree() Tree { return c.tree }

// Depth returns the quad-tree depth, 0 for a CTU.
func (c *CodingUnit) Depth() int { return c.depth }

// SetPosition moves the CU. Used for pooled scratch CUs.
func (c *CodingUnit) SetPosition(x, y int) {
	c.posX = x
	c.posY = y
}

// PosX returns the horizontal position in samples of comp.
func (c *CodingUnit) PosX(comp yuv.Component) int {
	return c.posX >> uint(c.pic.format.ShiftX(comp))
}

// PosY returns the vertical position in samples of comp.
func (c *CodingUnit) PosY(comp yuv.Component) int {
	return c.posY >> uint(c.pic.format.ShiftY(comp))
}

// Width returns the width in samples of comp.
func (c *CodingUnit) Width(comp yuv.Component) int {
	return c.width >> uint(c.pic.format.ShiftX(comp))
}

// Height returns the height in samples of comp.
func (c *CodingUnit) Height(comp yuv.Component) int {
	return c.height >> uint(c.pic.format.ShiftY(comp))
}

// IsFullyWithinPicture reports whether the whole CU lies inside the picture.
func (c *CodingUnit) IsFullyWithinPicture() bool {
	return c.posX+c.width <= c.pic.width && c.posY+c.height <= c.pic.height
}

// QP returns the quantization parameters of the CU.
func (c *CodingUnit) QP() *quant.QP { return c.qp }

// SetQP assigns the quantization parameters.
func (c *CodingUnit) SetQP(qp *quant.QP) { c.qp = qp }

// IsSplit reports whether the CU is split into quadrants.
func (c *CodingUnit) IsSplit() bool { return c.split }

// SetSplit sets the split flag without creating or releasing quadrants.
func (c *CodingUnit) SetSplit(split bool) { c.split = split }

// SplitQuad splits the CU into four quadrants of half size.
func (c *CodingUnit) SplitQuad() {
	if c.depth >= MaxCuDepth {
		panic("cu: split beyond maximum depth")
	}
	w, h := c.width>>1, c.height>>1
	for i := range c.Sub {
		x := c.posX + (i&1)*w
		y := c.posY + (i>>1)*h
		if c.Sub[i] != nil {
			c.pic.ReleaseCu(c.Sub[i])
			c.Sub[i] = nil
		}
		if x < c.pic.width && y < c.pic.height {
			c.Sub[i] = c.pic.CreateCu(c.tree, c.depth+1, x, y, w, h)
		}
	}
	c.split = true
}

// UnSplit releases the quadrants of the CU.
func (c *CodingUnit) UnSplit() {
	for i, sub := range c.Sub {
		if sub != nil {
			c.pic.ReleaseCu(sub)
			c.Sub[i] = nil
		}
	}
	c.split = false
}

// IsIntra reports whether the CU is intra predicted.
func (c *CodingUnit) IsIntra() bool { return c.PredMode == Intra }

// IsInter reports whether the CU is inter predicted.
func (c *CodingUnit) IsInter() bool { return c.PredMode == Inter }

// HasAnyCbf reports whether any component carries coefficients.
func (c *CodingUnit) HasAnyCbf() bool {
	return c.Cbf[yuv.Y] || c.Cbf[yuv.U] || c.Cbf[yuv.V]
}

// Coeff returns the coefficient buffer of comp.
func (c *CodingUnit) Coeff(comp yuv.Component) yuv.CoeffBuffer {
	return yuv.CoeffBuffer{Data: c.coeff[comp], Stride: c.Width(comp)}
}

// Components returns the components coded in the CU's tree.
func (c *CodingUnit) Components() []yuv.Component {
	return c.pic.Components(c.tree)
}

// IntraMode returns the resolved intra mode used to predict comp.
func (c *CodingUnit) IntraMode(comp yuv.Component) IntraMode {
	if comp.IsLuma() {
		return c.IntraModeLuma
	}
	return ChromaModeToIntra(c.IntraModeChroma, c.LumaModeForChroma())
}

// LumaModeForChroma returns the luma mode a chroma DM mode derives from.
func (c *CodingUnit) LumaModeForChroma() IntraMode {
	if c.tree == Primary {
		return c.IntraModeLuma
	}
	luma := c.pic.CuAt(Primary, c.posX, c.posY)
	if luma == nil || !luma.IsIntra() {
		return IntraDC
	}
	return luma.IntraModeLuma
}

// Left returns the coded CU left of the top-left sample, or nil.
func (c *CodingUnit) Left() *CodingUnit {
	return c.pic.Neighbour(c, c.posX-1, c.posY)
}

// Above returns the coded CU above the top-left sample, or nil.
func (c *CodingUnit) Above() *CodingUnit {
	return c.pic.Neighbour(c, c.posX, c.posY-1)
}

// Leaves calls fn for every leaf of the tree rooted at c, in z-order.
func (c *CodingUnit) Leaves(fn func(*CodingUnit)) {
	if !c.split {
		fn(c)
		return
	}
	for _, sub := range c.Sub {
		if sub != nil {
			sub.Leaves(fn)
		}
	}
}

// ReconstructionState is a snapshot of the reconstructed samples,
// coefficients and residual flags of a CU.
type ReconstructionState struct {
	reco    [yuv.MaxComponents][]yuv.Sample
	coeff   [yuv.MaxComponents][]yuv.Coeff
	cbf     [yuv.MaxComponents]bool
	rootCbf bool
	skip    bool
}

// NewReconstructionState allocates a snapshot slot large enough for a CTU.
func NewReconstructionState() *ReconstructionState {
	s := &ReconstructionState{}
	for c := range s.reco {
		s.reco[c] = make([]yuv.Sample, MaxBlockSize*MaxBlockSize)
		s.coeff[c] = make([]yuv.Coeff, MaxBlockSize*MaxBlockSize)
	}
	return s
}

// SaveStateTo copies the CU's reconstruction from rec and its residual
// state into s.
func (c *CodingUnit) SaveStateTo(s *ReconstructionState, rec *yuv.Picture) {
	for _, comp := range c.Components() {
		w, h := c.Width(comp), c.Height(comp)
		dst := yuv.SampleBuffer{Data: s.reco[comp], Stride: w}
		dst.CopyFrom(w, h, rec.Buffer(comp, c.PosX(comp), c.PosY(comp)))
		copy(s.coeff[comp][:w*h], c.coeff[comp][:w*h])
	}
	s.cbf = c.Cbf
	s.rootCbf = c.RootCbf
	s.skip = c.Skip
}

// LoadStateFrom restores a snapshot taken by SaveStateTo at the same
// position and size.
func (c *CodingUnit) LoadStateFrom(s *ReconstructionState, rec *yuv.Picture) {
	for _, comp := range c.Components() {
		w, h := c.Width(comp), c.Height(comp)
		src := yuv.SampleBuffer{Data: s.reco[comp], Stride: w}
		rec.Buffer(comp, c.PosX(comp), c.PosY(comp)).CopyFrom(w, h, src)
		copy(c.coeff[comp][:w*h], s.coeff[comp][:w*h])
	}
	c.Cbf = s.cbf
	c.RootCbf = s.rootCbf
	c.Skip = s.skip
}
