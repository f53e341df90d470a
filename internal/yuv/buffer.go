package yuv

// SampleBuffer is a strided view into sample storage.
type SampleBuffer struct {
	Data   []Sample
	Stride int
}

// At returns the sample at (x, y) relative to the view origin.
func (b SampleBuffer) At(x, y int) Sample {
	return b.Data[y*b.Stride+x]
}

// Set stores s at (x, y).
func (b SampleBuffer) Set(x, y int, s Sample) {
	b.Data[y*b.Stride+x] = s
}

// Offset returns a view starting at (x, y).
func (b SampleBuffer) Offset(x, y int) SampleBuffer {
	return SampleBuffer{Data: b.Data[y*b.Stride+x:], Stride: b.Stride}
}

// CopyFrom copies a width x height block from src.
func (b SampleBuffer) CopyFrom(width, height int, src SampleBuffer) {
	for y := 0; y < height; y++ {
		copy(b.Data[y*b.Stride:y*b.Stride+width], src.Data[y*src.Stride:y*src.Stride+width])
	}
}

// Fill sets a width x height block to s.
func (b SampleBuffer) Fill(width, height int, s Sample) {
	for y := 0; y < height; y++ {
		row := b.Data[y*b.Stride : y*b.Stride+width]
		for x := range row {
			row[x] = s
		}
	}
}

// AddClip stores clip(pred + resi) into b, clipping to [0, 2^bitdepth-1].
func (b SampleBuffer) AddClip(width, height int, pred SampleBuffer, resi CoeffBuffer, bitdepth int) {
	maxVal := (1 << uint(bitdepth)) - 1
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := int(pred.Data[y*pred.Stride+x]) + int(resi.Data[y*resi.Stride+x])
			if v < 0 {
				v = 0
			} else if v > maxVal {
				v = maxVal
			}
			b.Data[y*b.Stride+x] = Sample(v)
		}
	}
}

// CoeffBuffer is a strided view into coefficient or residual storage.
type CoeffBuffer struct {
	Data   []Coeff
	Stride int
}

// Offset returns a view starting at (x, y).
func (b CoeffBuffer) Offset(x, y int) CoeffBuffer {
	return CoeffBuffer{Data: b.Data[y*b.Stride+x:], Stride: b.Stride}
}

// Subtract stores src1 - src2 into b.
func (b CoeffBuffer) Subtract(width, height int, src1, src2 SampleBuffer) {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			b.Data[y*b.Stride+x] = Coeff(int(src1.Data[y*src1.Stride+x]) - int(src2.Data[y*src2.Stride+x]))
		}
	}
}

// Zero clears a width x height block.
func (b CoeffBuffer) Zero(width, height int) {
	for y := 0; y < height; y++ {
		row := b.Data[y*b.Stride : y*b.Stride+width]
		for x := range row {
			row[x] = 0
		}
	}
}

// CopyFrom copies a width x height block from src.
func (b CoeffBuffer) CopyFrom(width, height int, src CoeffBuffer) {
	for y := 0; y < height; y++ {
		copy(b.Data[y*b.Stride:y*b.Stride+width], src.Data[y*src.Stride:y*src.Stride+width])
	}
}

// SSE returns the sum of squared differences of two sample blocks.
func SSE(width, height int, a, b SampleBuffer) uint64 {
	var sum uint64
	for y := 0; y < height; y++ {
		ra := a.Data[y*a.Stride : y*a.Stride+width]
		rb := b.Data[y*b.Stride : y*b.Stride+width]
		for x := range ra {
			d := int64(ra[x]) - int64(rb[x])
			sum += uint64(d * d)
		}
	}
	return sum
}

// SSECoeff returns the sum of squared differences of two residual blocks.
func SSECoeff(width, height int, a, b CoeffBuffer) uint64 {
	var sum uint64
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			d := int64(a.Data[y*a.Stride+x]) - int64(b.Data[y*b.Stride+x])
			sum += uint64(d * d)
		}
	}
	return sum
}

// SAD returns the sum of absolute differences of two sample blocks.
func SAD(width, height int, a, b SampleBuffer) uint64 {
	var sum uint64
	for y := 0; y < height; y++ {
		ra := a.Data[y*a.Stride : y*a.Stride+width]
		rb := b.Data[y*b.Stride : y*b.Stride+width]
		for x := range ra {
			d := int(ra[x]) - int(rb[x])
			if d < 0 {
				d = -d
			}
			sum += uint64(d)
		}
	}
	return sum
}
