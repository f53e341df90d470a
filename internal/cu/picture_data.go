package cu

import (
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/restrictions"
	"github.com/xxthink/xvc/internal/yuv"
)

const markUnitLog2 = 3 // occupancy granularity in luma samples

// RefPicture is a decoded picture usable for inter prediction.
type RefPicture struct {
	Poc int
	Pic *yuv.Picture
}

// PictureData holds the CU trees of one picture.
type PictureData struct {
	width    int
	height   int
	format   yuv.ChromaFormat
	bitdepth int
	picType  quant.PicType
	poc      int
	restr    *restrictions.Restrictions
	twoTrees bool

	ctuCols int
	ctuRows int
	ctus    [NumTrees][]*CodingUnit

	markStride int
	markRows   int
	marks      [NumTrees][]*CodingUnit

	refs [NumRefLists][]RefPicture
	pool [NumTrees][MaxCuDepth + 1][]*CodingUnit
}

// NewPictureData allocates CU trees for a picture of the given luma size.
func NewPictureData(width, height int, format yuv.ChromaFormat, bitdepth int,
	picType quant.PicType, poc int, restr *restrictions.Restrictions) *PictureData {
	if restr == nil {
		restr = &restrictions.Restrictions{}
	}
	p := &PictureData{
		width:    width,
		height:   height,
		format:   format,
		bitdepth: bitdepth,
		picType:  picType,
		poc:      poc,
		restr:    restr,
		ctuCols:  (width + MaxBlockSize - 1) / MaxBlockSize,
		ctuRows:  (height + MaxBlockSize - 1) / MaxBlockSize,
	}
	p.twoTrees = picType == quant.PicTypeIntra && !restr.DisableExtTwoCuTrees &&
		format != yuv.Monochrome
	p.markStride = (width + (1 << markUnitLog2) - 1) >> markUnitLog2
	p.markRows = (height + (1 << markUnitLog2) - 1) >> markUnitLog2
	for t := Primary; t < p.NumTrees(); t++ {
		p.marks[t] = make([]*CodingUnit, p.markStride*p.markRows)
		p.ctus[t] = make([]*CodingUnit, p.ctuCols*p.ctuRows)
		for i := range p.ctus[t] {
			x := (i % p.ctuCols) * MaxBlockSize
			y := (i / p.ctuCols) * MaxBlockSize
			p.ctus[t][i] = p.CreateCu(t, 0, x, y, MaxBlockSize, MaxBlockSize)
		}
	}
	return p
}

// Width returns the luma width.
func (p *PictureData) Width() int { return p.width }

// Height returns the luma height.
func (p *PictureData) Height() int { return p.height }

// ChromaFormat returns the subsampling format.
func (p *PictureData) ChromaFormat() yuv.ChromaFormat { return p.format }

// Bitdepth returns the sample bit depth.
func (p *PictureData) Bitdepth() int { return p.bitdepth }

// PicType returns the prediction type of the picture.
func (p *PictureData) PicType() quant.PicType { return p.picType }

// IsIntraPic reports whether the picture uses intra prediction only.
func (p *PictureData) IsIntraPic() bool { return p.picType == quant.PicTypeIntra }

// Poc returns the picture order count.
func (p *PictureData) Poc() int { return p.poc }

// Restrictions returns the coding tool restrictions in effect.
func (p *PictureData) Restrictions() *restrictions.Restrictions { return p.restr }

// MaxDepth returns the deepest quad-tree level.
func (p *PictureData) MaxDepth() int { return MaxCuDepth }

// HasSecondaryCuTree reports whether chroma is coded in its own tree.
func (p *PictureData) HasSecondaryCuTree() bool { return p.twoTrees }

// NumTrees returns the number of CU trees per CTU.
func (p *PictureData) NumTrees() Tree {
	if p.twoTrees {
		return NumTrees
	}
	return Secondary
}

// NumCtus returns the number of CTUs in the picture.
func (p *PictureData) NumCtus() int { return p.ctuCols * p.ctuRows }

// Ctu returns the root CU of CTU rsaddr in raster order.
func (p *PictureData) Ctu(tree Tree, rsaddr int) *CodingUnit {
	return p.ctus[tree][rsaddr]
}

// SetCtu replaces the root CU of CTU rsaddr.
func (p *PictureData) SetCtu(tree Tree, rsaddr int, c *CodingUnit) {
	p.ctus[tree][rsaddr] = c
}

// Components returns the components coded in tree.
func (p *PictureData) Components(tree Tree) []yuv.Component {
	switch {
	case p.format == yuv.Monochrome:
		return allComponents[:1]
	case !p.twoTrees:
		return allComponents[:]
	case tree == Primary:
		return allComponents[:1]
	default:
		return allComponents[1:]
	}
}

var allComponents = [yuv.MaxComponents]yuv.Component{yuv.Y, yuv.U, yuv.V}

// CreateCu returns a reset CU from the pool.
func (p *PictureData) CreateCu(tree Tree, depth, x, y, width, height int) *CodingUnit {
	free := p.pool[tree][depth]
	var c *CodingUnit
	if n := len(free); n > 0 {
		c = free[n-1]
		p.pool[tree][depth] = free[:n-1]
	} else {
		c = &CodingUnit{pic: p}
		for comp := 0; comp < p.format.NumComponents(); comp++ {
			c.coeff[comp] = make([]yuv.Coeff, (width*height)>>
				uint(p.format.ShiftX(yuv.Component(comp))+p.format.ShiftY(yuv.Component(comp))))
		}
	}
	c.reset(tree, depth, x, y, width, height)
	return c
}

// ReleaseCu returns c and its quadrants to the pool.
func (p *PictureData) ReleaseCu(c *CodingUnit) {
	c.UnSplit()
	p.pool[c.tree][c.depth] = append(p.pool[c.tree][c.depth], c)
}

// MarkUsedInPic records the leaves of c as coded in the occupancy map.
func (p *PictureData) MarkUsedInPic(c *CodingUnit) {
	c.Leaves(func(leaf *CodingUnit) { p.mark(leaf, leaf) })
}

// ClearMarkCuInPic removes the area of c from the occupancy map.
func (p *PictureData) ClearMarkCuInPic(c *CodingUnit) {
	p.mark(c, nil)
}

func (p *PictureData) mark(area, value *CodingUnit) {
	x0 := area.posX >> markUnitLog2
	y0 := area.posY >> markUnitLog2
	x1 := min(area.posX+area.width, p.width) + (1 << markUnitLog2) - 1
	y1 := min(area.posY+area.height, p.height) + (1 << markUnitLog2) - 1
	for y := y0; y < y1>>markUnitLog2; y++ {
		row := p.marks[area.tree][y*p.markStride:]
		for x := x0; x < x1>>markUnitLog2; x++ {
			row[x] = value
		}
	}
}

// CuAt returns the coded CU of tree covering luma sample (x, y), or nil when
// the position is outside the picture or not yet coded.
func (p *PictureData) CuAt(tree Tree, x, y int) *CodingUnit {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return nil
	}
	if !p.twoTrees {
		tree = Primary
	}
	return p.marks[tree][(y>>markUnitLog2)*p.markStride+(x>>markUnitLog2)]
}

// Neighbour returns the CU covering luma sample (x, y) if it was coded
// before cur: in an earlier CTU, or earlier in z-order within cur's CTU.
func (p *PictureData) Neighbour(cur *CodingUnit, x, y int) *CodingUnit {
	c := p.CuAt(cur.tree, x, y)
	if c == nil {
		return nil
	}
	ctuX, ctuY := x>>MaxBlockSizeLog2, y>>MaxBlockSizeLog2
	curX, curY := cur.posX>>MaxBlockSizeLog2, cur.posY>>MaxBlockSizeLog2
	if ctuX != curX || ctuY != curY {
		if ctuY < curY || (ctuY == curY && ctuX < curX) {
			return c
		}
		return nil
	}
	if zIndex(x, y) < zIndex(cur.posX, cur.posY) {
		return c
	}
	return nil
}

// zIndex returns the z-scan index of the mark unit holding (x, y) within
// its CTU.
func zIndex(x, y int) int {
	const units = MaxBlockSizeLog2 - markUnitLog2
	ux := (x >> markUnitLog2) & (1<<units - 1)
	uy := (y >> markUnitLog2) & (1<<units - 1)
	z := 0
	for b := 0; b < units; b++ {
		z |= (ux >> b & 1) << (2 * b)
		z |= (uy >> b & 1) << (2*b + 1)
	}
	return z
}

// SetRefPics assigns the reference pictures of list l.
func (p *PictureData) SetRefPics(l RefList, refs []RefPicture) {
	p.refs[l] = refs
}

// NumRefPics returns the length of reference list l.
func (p *PictureData) NumRefPics(l RefList) int {
	if l == L1 && p.picType != quant.PicTypeBi {
		return 0
	}
	if p.picType == quant.PicTypeIntra {
		return 0
	}
	return len(p.refs[l])
}

// RefPoc returns the picture order count of entry idx of reference list l.
func (p *PictureData) RefPoc(l RefList, idx int) int {
	return p.refs[l][idx].Poc
}

// RefPic returns entry idx of reference list l.
func (p *PictureData) RefPic(l RefList, idx int) *yuv.Picture {
	return p.refs[l][idx].Pic
}
