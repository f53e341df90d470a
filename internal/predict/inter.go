package predict

import (
	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/yuv"
)

// MotionInfo is the motion of an inter CU.
type MotionInfo struct {
	InterDir cu.InterDir
	MV       [cu.NumRefLists]cu.MotionVector
	RefIdx   [cu.NumRefLists]int
}

// Uses reports whether the motion references list l.
func (m MotionInfo) Uses(l cu.RefList) bool {
	return m.InterDir == cu.InterDirBi || int(m.InterDir) == int(l)
}

// MotionOf returns the motion of c.
func MotionOf(c *cu.CodingUnit) MotionInfo {
	m := MotionInfo{InterDir: c.InterDir, MV: c.MV, RefIdx: c.RefIdx}
	for l := cu.L0; l < cu.NumRefLists; l++ {
		if !m.Uses(l) {
			m.MV[l] = cu.MotionVector{}
			m.RefIdx[l] = -1
		}
	}
	return m
}

// ApplyMotion sets the motion of c to m.
func ApplyMotion(c *cu.CodingUnit, m MotionInfo) {
	c.InterDir = m.InterDir
	c.MV = m.MV
	c.RefIdx = m.RefIdx
}

// MergeList is the fixed-length merge candidate list.
type MergeList [cu.MaxNumMergeCand]MotionInfo

// DeriveMergeList builds the merge candidates of c from spatial neighbours
// A1, B1, B0, A0, B2 followed by zero motion candidates. Bi-predicted
// candidates fall back to L0 when merge bi-prediction is restricted.
func DeriveMergeList(c *cu.CodingUnit) MergeList {
	var list MergeList
	pic := c.Pic()
	x, y := c.PosX(yuv.Y), c.PosY(yuv.Y)
	w, h := c.Width(yuv.Y), c.Height(yuv.Y)
	neighbour := func(nx, ny int) (MotionInfo, bool) {
		n := pic.Neighbour(c, nx, ny)
		if n == nil || !n.IsInter() {
			return MotionInfo{}, false
		}
		return MotionOf(n), true
	}

	num := 0
	a1, okA1 := neighbour(x-1, y+h-1)
	if okA1 {
		list[num] = a1
		num++
	}
	b1, okB1 := neighbour(x+w-1, y-1)
	if okB1 && !(okA1 && a1 == b1) {
		list[num] = b1
		num++
	}
	if b0, ok := neighbour(x+w, y-1); ok && !(okB1 && b0 == b1) {
		list[num] = b0
		num++
	}
	if a0, ok := neighbour(x-1, y+h); ok && !(okA1 && a0 == a1) {
		list[num] = a0
		num++
	}
	if num < 4 {
		b2, ok := neighbour(x-1, y-1)
		if ok && !(okA1 && b2 == a1) && !(okB1 && b2 == b1) {
			list[num] = b2
			num++
		}
	}

	numRefs := pic.NumRefPics(cu.L0)
	bi := pic.NumRefPics(cu.L1) > 0
	if bi && pic.NumRefPics(cu.L1) < numRefs {
		numRefs = pic.NumRefPics(cu.L1)
	}
	for zeroIdx := 0; num < cu.MaxNumMergeCand; num++ {
		ref := 0
		if zeroIdx < numRefs {
			ref = zeroIdx
		}
		m := MotionInfo{InterDir: cu.InterDirL0, RefIdx: [cu.NumRefLists]int{ref, -1}}
		if bi {
			m.InterDir = cu.InterDirBi
			m.RefIdx[cu.L1] = ref
		}
		list[num] = m
		zeroIdx++
	}
	if pic.Restrictions().DisableInterMergeBipred {
		for i := range list {
			if list[i].InterDir == cu.InterDirBi {
				list[i].InterDir = cu.InterDirL0
				list[i].MV[cu.L1] = cu.MotionVector{}
				list[i].RefIdx[cu.L1] = -1
			}
		}
	}
	return list
}

// MvpList holds the motion vector predictors of one list and reference.
type MvpList [cu.NumMvpCand]cu.MotionVector

// DeriveMvpList builds the motion vector predictors of c for reference refIdx
// in list l from the left group (A0, A1) and the above group (B0, B1, B2).
func DeriveMvpList(c *cu.CodingUnit, l cu.RefList, refIdx int) MvpList {
	var list MvpList
	pic := c.Pic()
	if pic.Restrictions().DisableInterMvp {
		return list
	}
	x, y := c.PosX(yuv.Y), c.PosY(yuv.Y)
	w, h := c.Width(yuv.Y), c.Height(yuv.Y)
	poc := pic.RefPoc(l, refIdx)
	find := func(positions [][2]int) (cu.MotionVector, bool) {
		for _, pos := range positions {
			n := pic.Neighbour(c, pos[0], pos[1])
			if n == nil || !n.IsInter() {
				continue
			}
			m := MotionOf(n)
			if m.Uses(l) && m.RefIdx[l] == refIdx {
				return m.MV[l], true
			}
			other := 1 - l
			if m.Uses(other) && pic.RefPoc(other, m.RefIdx[other]) == poc {
				return m.MV[other], true
			}
		}
		return cu.MotionVector{}, false
	}

	num := 0
	if mv, ok := find([][2]int{{x - 1, y + h}, {x - 1, y + h - 1}}); ok {
		list[num] = mv
		num++
	}
	if mv, ok := find([][2]int{{x + w, y - 1}, {x + w - 1, y - 1}, {x - 1, y - 1}}); ok {
		if num == 0 || list[0] != mv {
			list[num] = mv
		}
	}
	return list
}

// Inter forms motion compensated predictions.
type Inter struct {
	tmp [cu.MaxBlockSize * cu.MaxBlockSize]yuv.Sample
}

// NewInter returns an inter predictor.
func NewInter() *Inter {
	return &Inter{}
}

// Predict writes the motion compensated prediction of comp for c into pred.
func (p *Inter) Predict(c *cu.CodingUnit, comp yuv.Component, m MotionInfo, pred yuv.SampleBuffer) {
	pic := c.Pic()
	w, h := c.Width(comp), c.Height(comp)
	switch m.InterDir {
	case cu.InterDirL0, cu.InterDirL1:
		l := cu.RefList(m.InterDir)
		Fetch(c, comp, pic.RefPic(l, m.RefIdx[l]), m.MV[l], pred)
	default:
		tmp := yuv.SampleBuffer{Data: p.tmp[:], Stride: w}
		Fetch(c, comp, pic.RefPic(cu.L0, m.RefIdx[cu.L0]), m.MV[cu.L0], pred)
		Fetch(c, comp, pic.RefPic(cu.L1, m.RefIdx[cu.L1]), m.MV[cu.L1], tmp)
		Average(w, h, pred, tmp)
	}
}

// Fetch copies the block of comp displaced by mv from ref, clamping to the
// picture edges.
func Fetch(c *cu.CodingUnit, comp yuv.Component, ref *yuv.Picture, mv cu.MotionVector, dst yuv.SampleBuffer) {
	format := ref.ChromaFormat()
	x0 := c.PosX(comp) + mv.X>>uint(format.ShiftX(comp))
	y0 := c.PosY(comp) + mv.Y>>uint(format.ShiftY(comp))
	w, h := c.Width(comp), c.Height(comp)
	pw, ph := ref.Width(comp), ref.Height(comp)
	if x0 >= 0 && y0 >= 0 && x0+w <= pw && y0+h <= ph {
		dst.CopyFrom(w, h, ref.Buffer(comp, x0, y0))
		return
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(x, y, ref.At(comp, x0+x, y0+y))
		}
	}
}

// Average stores the rounded mean of dst and src into dst.
func Average(w, h int, dst, src yuv.SampleBuffer) {
	for y := 0; y < h; y++ {
		d := dst.Data[y*dst.Stride : y*dst.Stride+w]
		s := src.Data[y*src.Stride : y*src.Stride+w]
		for x := range d {
			d[x] = yuv.Sample((int(d[x]) + int(s[x]) + 1) >> 1)
		}
	}
}
