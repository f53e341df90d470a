package yuv

// Picture is a planar picture with one plane per component.
type Picture struct {
	width    int
	height   int
	format   ChromaFormat
	bitdepth int
	planes   [MaxComponents][]Sample
}

// NewPicture allocates a picture. Luma dimensions are given.
func NewPicture(width, height int, format ChromaFormat, bitdepth int) *Picture {
	p := &Picture{width: width, height: height, format: format, bitdepth: bitdepth}
	for c := 0; c < format.NumComponents(); c++ {
		comp := Component(c)
		p.planes[c] = make([]Sample, p.Width(comp)*p.Height(comp))
	}
	return p
}

// Width returns the width of plane comp.
func (p *Picture) Width(comp Component) int {
	return p.width >> uint(p.format.ShiftX(comp))
}

// Height returns the height of plane comp.
func (p *Picture) Height(comp Component) int {
	return p.height >> uint(p.format.ShiftY(comp))
}

// Stride returns the row stride of plane comp.
func (p *Picture) Stride(comp Component) int {
	return p.Width(comp)
}

// ChromaFormat returns the subsampling format.
func (p *Picture) ChromaFormat() ChromaFormat { return p.format }

// Bitdepth returns the sample bit depth.
func (p *Picture) Bitdepth() int { return p.bitdepth }

// Plane returns the raw samples of comp.
func (p *Picture) Plane(comp Component) []Sample { return p.planes[comp] }

// Buffer returns a view of comp starting at (x, y) in that plane's units.
func (p *Picture) Buffer(comp Component, x, y int) SampleBuffer {
	stride := p.Stride(comp)
	return SampleBuffer{Data: p.planes[comp][y*stride+x:], Stride: stride}
}

// At returns the sample of comp at (x, y), clamping coordinates to the plane.
func (p *Picture) At(comp Component, x, y int) Sample {
	w, h := p.Width(comp), p.Height(comp)
	if x < 0 {
		x = 0
	} else if x >= w {
		x = w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= h {
		y = h - 1
	}
	return p.planes[comp][y*p.Stride(comp)+x]
}

// CopyFrom copies all planes from src, which must have the same geometry.
func (p *Picture) CopyFrom(src *Picture) {
	for c := range p.planes {
		copy(p.planes[c], src.planes[c])
	}
}
