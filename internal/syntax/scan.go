// Package syntax binarizes the coding unit syntax elements onto the CABAC
// engine. Writer and Reader are exact mirrors; CuWriter and CuReader walk a
// CU tree on top of them.
package syntax

import (
	"github.com/xxthink/xvc/internal/cabac"
	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/yuv"
)

const (
	subblockLog2 = 2
	subblockSize = 1 << (2 * subblockLog2)

	maxNumGt1Flags       = 8
	maxRiceParam         = 4
	coeffRemainReduction = 3
	maxExpGolombPrefix   = 32
)

type pos struct{ x, y uint8 }

// scans[order][log2] lists the positions of a (1<<log2)-square grid.
var scans [3][5][]pos

// position groups of the last significant coefficient, sizes up to 64
var (
	lastGroupIdx [64]uint8
	lastGroupMin [12]uint8
)

func init() {
	for log2 := 0; log2 < len(scans[0]); log2++ {
		n := 1 << uint(log2)
		scans[cabac.ScanDiagonal][log2] = diagonalScan(n)
		hor := make([]pos, 0, n*n)
		ver := make([]pos, 0, n*n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				hor = append(hor, pos{uint8(j), uint8(i)})
				ver = append(ver, pos{uint8(i), uint8(j)})
			}
		}
		scans[cabac.ScanHorizontal][log2] = hor
		scans[cabac.ScanVertical][log2] = ver
	}
	for g := range lastGroupMin {
		if g < 4 {
			lastGroupMin[g] = uint8(g)
		} else {
			lastGroupMin[g] = uint8((2 + g&1) << uint(g>>1-1))
		}
	}
	g := 0
	for p := range lastGroupIdx {
		if g+1 < len(lastGroupMin) && p >= int(lastGroupMin[g+1]) {
			g++
		}
		lastGroupIdx[p] = uint8(g)
	}
}

// diagonalScan orders an n x n grid along up-right diagonals.
func diagonalScan(n int) []pos {
	out := make([]pos, 0, n*n)
	for d := 0; d < 2*n-1; d++ {
		for y := d; y >= 0; y-- {
			x := d - y
			if x < n && y < n {
				out = append(out, pos{uint8(x), uint8(y)})
			}
		}
	}
	return out
}

// ScanOrderFor returns the coefficient scan of comp in c.
func ScanOrderFor(c *cu.CodingUnit, comp yuv.Component) cabac.ScanOrder {
	if !c.IsIntra() || c.Pic().Restrictions().DisableTransformAdaptiveScanOrder {
		return cabac.ScanDiagonal
	}
	log2 := log2Size(c.Width(comp))
	if log2 > 3 || (!comp.IsLuma() && log2 > 2) {
		return cabac.ScanDiagonal
	}
	mode := c.IntraMode(comp)
	switch {
	case mode >= 6 && mode <= 14:
		return cabac.ScanVertical
	case mode >= 22 && mode <= 30:
		return cabac.ScanHorizontal
	}
	return cabac.ScanDiagonal
}

func log2Size(v int) int {
	n := 0
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// blockScan maps scan indices of a square block to positions, subblock
// by subblock.
type blockScan struct {
	log2    int
	order   cabac.ScanOrder
	sub     []pos // subblock grid scan
	coeff   []pos // scan inside a subblock
	subLog2 int
}

func newBlockScan(log2 int, order cabac.ScanOrder) blockScan {
	subLog2 := log2 - subblockLog2
	return blockScan{
		log2:    log2,
		order:   order,
		sub:     scans[order][subLog2],
		coeff:   scans[order][subblockLog2],
		subLog2: subLog2,
	}
}

// at returns the block position of scan index i.
func (s blockScan) at(i int) (int, int) {
	sb := s.sub[i>>4]
	c := s.coeff[i&(subblockSize-1)]
	return int(sb.x)<<subblockLog2 + int(c.x), int(sb.y)<<subblockLog2 + int(c.y)
}

func (s blockScan) size() int { return 1 << uint(2*s.log2) }
