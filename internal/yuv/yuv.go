// Package yuv provides planar picture storage and the sample, residual and
// coefficient buffers shared by the encoder and decoder.
package yuv

// Sample is one reconstructed or source picture sample.
type Sample = uint16

// Coeff is a transform coefficient or prediction residual.
type Coeff = int16

// Component identifies a picture plane.
type Component int

const (
	Y Component = iota
	U
	V
	MaxComponents = 3
)

// String returns the component name.
func (c Component) String() string {
	switch c {
	case Y:
		return "Y"
	case U:
		return "U"
	case V:
		return "V"
	default:
		return "?"
	}
}

// IsLuma reports whether c is the luma plane.
func (c Component) IsLuma() bool { return c == Y }

// ChromaFormat is the chroma subsampling of a picture. The numeric values are
// the ones signaled in the segment header.
type ChromaFormat int

const (
	Monochrome ChromaFormat = 0
	Chroma420  ChromaFormat = 1
	Chroma422  ChromaFormat = 2
	Chroma444  ChromaFormat = 3
)

// String returns the conventional name of the format.
func (f ChromaFormat) String() string {
	switch f {
	case Monochrome:
		return "4:0:0"
	case Chroma420:
		return "4:2:0"
	case Chroma422:
		return "4:2:2"
	case Chroma444:
		return "4:4:4"
	default:
		return "unknown"
	}
}

// NumComponents returns the number of planes of the format.
func (f ChromaFormat) NumComponents() int {
	if f == Monochrome {
		return 1
	}
	return 3
}

// ShiftX returns the horizontal subsampling shift of comp.
func (f ChromaFormat) ShiftX(comp Component) int {
	if comp == Y {
		return 0
	}
	if f == Chroma420 || f == Chroma422 {
		return 1
	}
	return 0
}

// ShiftY returns the vertical subsampling shift of comp.
func (f ChromaFormat) ShiftY(comp Component) int {
	if comp == Y {
		return 0
	}
	if f == Chroma420 {
		return 1
	}
	return 0
}
