// Package predict forms intra and inter predictions and derives the
// predictor lists (most probable modes, merge and motion vector candidates)
// shared by the encoder and the decoder.
package predict

import (
	"sort"

	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/yuv"
)

// NumMpm is the number of most probable intra modes.
const NumMpm = 3

// Intra forms intra predictions from the reconstructed picture.
type Intra struct {
	// reference samples: ref[0] is the corner, above holds 2N samples to the
	// right of it and left 2N samples below it
	above   [2*cu.MaxBlockSize + 1]int
	left    [2*cu.MaxBlockSize + 1]int
	avail   [4*cu.MaxBlockSize + 1]bool
	samples [4*cu.MaxBlockSize + 1]int
}

// NewIntra returns an intra predictor.
func NewIntra() *Intra {
	return &Intra{}
}

// Predict writes the prediction of comp for c into pred using reconstructed
// neighbours from rec.
func (p *Intra) Predict(c *cu.CodingUnit, comp yuv.Component, mode cu.IntraMode, rec *yuv.Picture, pred yuv.SampleBuffer) {
	w, h := c.Width(comp), c.Height(comp)
	p.buildReference(c, comp, rec)
	switch mode {
	case cu.IntraPlanar:
		p.planar(w, h, pred)
	case cu.IntraDC:
		p.dc(w, h, pred)
	default:
		if mode < cu.IntraHorizontal+8 {
			p.horizontal(w, h, pred)
		} else {
			p.vertical(w, h, pred)
		}
	}
}

func (p *Intra) buildReference(c *cu.CodingUnit, comp yuv.Component, rec *yuv.Picture) {
	pic := c.Pic()
	format := pic.ChromaFormat()
	sx, sy := uint(format.ShiftX(comp)), uint(format.ShiftY(comp))
	x0, y0 := c.PosX(comp), c.PosY(comp)
	w, h := c.Width(comp), c.Height(comp)
	n := w + h // samples per side including the extension
	if n > 2*cu.MaxBlockSize {
		n = 2 * cu.MaxBlockSize
	}
	plane := rec.Buffer(comp, 0, 0)
	available := func(x, y int) bool {
		return pic.Neighbour(c, x<<sx, y<<sy) != nil
	}

	// order: left from bottom to top, corner, above from left to right
	total := 2*n + 1
	samples := p.samples[:0]
	avail := p.avail[:0]
	for i := n - 1; i >= 0; i-- {
		ok := available(x0-1, y0+i)
		avail = append(avail, ok)
		samples = append(samples, sampleIf(ok, plane, x0-1, y0+i))
	}
	ok := available(x0-1, y0-1)
	avail = append(avail, ok)
	samples = append(samples, sampleIf(ok, plane, x0-1, y0-1))
	for i := 0; i < n; i++ {
		ok := available(x0+i, y0-1)
		avail = append(avail, ok)
		samples = append(samples, sampleIf(ok, plane, x0+i, y0-1))
	}

	first := -1
	for i, a := range avail {
		if a {
			first = i
			break
		}
	}
	if first < 0 {
		fill := 1 << uint(pic.Bitdepth()-1)
		for i := range samples {
			samples[i] = fill
		}
	} else {
		for i := 0; i < first; i++ {
			samples[i] = samples[first]
		}
		for i := first + 1; i < total; i++ {
			if !avail[i] {
				samples[i] = samples[i-1]
			}
		}
	}

	p.left[0] = samples[n]
	p.above[0] = samples[n]
	for i := 0; i < n; i++ {
		p.left[i+1] = samples[n-1-i]
		p.above[i+1] = samples[n+1+i]
	}
}

func sampleIf(ok bool, plane yuv.SampleBuffer, x, y int) int {
	if !ok {
		return 0
	}
	return int(plane.At(x, y))
}

func (p *Intra) planar(w, h int, pred yuv.SampleBuffer) {
	log2W, log2H := log2(w), log2(h)
	topRight := p.above[w+1]
	bottomLeft := p.left[h+1]
	shift := uint(log2W + log2H + 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hor := (w-1-x)*p.left[y+1] + (x+1)*topRight
			ver := (h-1-y)*p.above[x+1] + (y+1)*bottomLeft
			v := (hor<<uint(log2H) + ver<<uint(log2W) + w*h) >> shift
			pred.Set(x, y, yuv.Sample(v))
		}
	}
}

func (p *Intra) dc(w, h int, pred yuv.SampleBuffer) {
	sum := 0
	for x := 1; x <= w; x++ {
		sum += p.above[x]
	}
	for y := 1; y <= h; y++ {
		sum += p.left[y]
	}
	pred.Fill(w, h, yuv.Sample((sum+(w+h)/2)/(w+h)))
}

func (p *Intra) horizontal(w, h int, pred yuv.SampleBuffer) {
	for y := 0; y < h; y++ {
		v := yuv.Sample(p.left[y+1])
		row := pred.Data[y*pred.Stride : y*pred.Stride+w]
		for x := range row {
			row[x] = v
		}
	}
}

func (p *Intra) vertical(w, h int, pred yuv.SampleBuffer) {
	for y := 0; y < h; y++ {
		row := pred.Data[y*pred.Stride : y*pred.Stride+w]
		for x := range row {
			row[x] = yuv.Sample(p.above[x+1])
		}
	}
}

func log2(v int) int {
	n := 0
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// Mpm is a sorted-on-demand list of most probable luma modes.
type Mpm [NumMpm]cu.IntraMode

// DeriveMpm derives the most probable luma modes of c from its left and
// above neighbours. An above neighbour in a different CTU row counts as DC.
func DeriveMpm(c *cu.CodingUnit) Mpm {
	left := neighbourMode(c.Left())
	above := cu.IntraDC
	if c.PosY(yuv.Y)%cu.MaxBlockSize != 0 {
		above = neighbourMode(c.Above())
	}
	if left == above {
		if left < 2 {
			return Mpm{cu.IntraPlanar, cu.IntraDC, cu.IntraVertical}
		}
		return Mpm{left, 2 + (left+29)%32, 2 + (left-2+1)%32}
	}
	m := Mpm{left, above}
	switch {
	case left != cu.IntraPlanar && above != cu.IntraPlanar:
		m[2] = cu.IntraPlanar
	case left != cu.IntraDC && above != cu.IntraDC:
		m[2] = cu.IntraDC
	default:
		m[2] = cu.IntraVertical
	}
	return m
}

func neighbourMode(n *cu.CodingUnit) cu.IntraMode {
	if n == nil || !n.IsIntra() {
		return cu.IntraDC
	}
	return n.IntraModeLuma
}

// Index returns the position of mode in the list, or -1.
func (m Mpm) Index(mode cu.IntraMode) int {
	for i, v := range m {
		if v == mode {
			return i
		}
	}
	return -1
}

// Remainder maps a mode outside the list to its 5-bit code.
func (m Mpm) Remainder(mode cu.IntraMode) int {
	sorted := m.sorted()
	rem := int(mode)
	for i := NumMpm - 1; i >= 0; i-- {
		if rem > int(sorted[i]) {
			rem--
		}
	}
	return rem
}

// FromRemainder is the inverse of Remainder.
func (m Mpm) FromRemainder(rem int) cu.IntraMode {
	sorted := m.sorted()
	mode := rem
	for i := 0; i < NumMpm; i++ {
		if mode >= int(sorted[i]) {
			mode++
		}
	}
	return cu.IntraMode(mode)
}

func (m Mpm) sorted() Mpm {
	s := m
	sort.Slice(s[:], func(i, j int) bool { return s[i] < s[j] })
	return s
}
