package xvc

import "github.com/xxthink/xvc/internal/yuv"

// Picture is a planar picture with one uint16 plane per component.
// Plane 0 is luma; planes 1 and 2 are Cb and Cr.
type Picture struct {
	pic *yuv.Picture
}

// NewPicture allocates a zero picture. width and height are luma dimensions.
func NewPicture(width, height int, format ChromaFormat, bitdepth int) *Picture {
	return &Picture{pic: yuv.NewPicture(width, height, format, bitdepth)}
}

func wrapPicture(p *yuv.Picture) *Picture {
	return &Picture{pic: p}
}

// Width returns the luma width.
func (p *Picture) Width() int { return p.pic.Width(yuv.Y) }

// Height returns the luma height.
func (p *Picture) Height() int { return p.pic.Height(yuv.Y) }

// ChromaFormat returns the chroma subsampling.
func (p *Picture) ChromaFormat() ChromaFormat { return p.pic.ChromaFormat() }

// Bitdepth returns the sample bit depth.
func (p *Picture) Bitdepth() int { return p.pic.Bitdepth() }

// NumPlanes returns the number of planes.
func (p *Picture) NumPlanes() int { return p.pic.ChromaFormat().NumComponents() }

// Plane returns the row-major samples of plane c. The slice aliases the
// picture; its row stride is PlaneWidth(c).
func (p *Picture) Plane(c int) []uint16 {
	if c < 0 || c >= p.NumPlanes() {
		return nil
	}
	return p.pic.Plane(yuv.Component(c))
}

// PlaneWidth returns the width of plane c.
func (p *Picture) PlaneWidth(c int) int { return p.pic.Width(yuv.Component(c)) }

// PlaneHeight returns the height of plane c.
func (p *Picture) PlaneHeight(c int) int { return p.pic.Height(yuv.Component(c)) }

// Clone returns a deep copy of p.
func (p *Picture) Clone() *Picture {
	cp := yuv.NewPicture(p.Width(), p.Height(), p.ChromaFormat(), p.Bitdepth())
	cp.CopyFrom(p.pic)
	return wrapPicture(cp)
}

// Equal reports whether p and q have the same geometry and samples.
func (p *Picture) Equal(q *Picture) bool {
	if !p.sameGeometry(q) {
		return false
	}
	for c := 0; c < p.NumPlanes(); c++ {
		a, b := p.Plane(c), q.Plane(c)
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

func (p *Picture) sameGeometry(q *Picture) bool {
	return p.Width() == q.Width() && p.Height() == q.Height() &&
		p.ChromaFormat() == q.ChromaFormat() && p.Bitdepth() == q.Bitdepth()
}
