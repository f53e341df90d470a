package enc

import (
	"sort"

	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/predict"
	"github.com/xxthink/xvc/internal/syntax"
	"github.com/xxthink/xvc/internal/yuv"
)

// numFastIntraCandidates is the number of luma modes kept after pre-ranking.
const numFastIntraCandidates = 2

var lumaModes = [...]cu.IntraMode{cu.IntraPlanar, cu.IntraDC, cu.IntraHorizontal, cu.IntraVertical}

var chromaModes = [...]cu.IntraChromaMode{
	cu.ChromaDM, cu.ChromaPlanar, cu.ChromaVertical, cu.ChromaHorizontal, cu.ChromaDC,
}

type rankedMode struct {
	mode cu.IntraMode
	cost uint64
}

// searchIntraLuma returns the luma mode of c with the lowest rate-distortion
// cost. The reconstruction of the last evaluated mode is left in rec.
func (e *CuEncoder) searchIntraLuma(c *cu.CodingUnit, w *syntax.Writer) cu.IntraMode {
	restr := e.pic.Restrictions()
	mpm := predict.DeriveMpm(c)
	cand := make([]rankedMode, 0, len(lumaModes))
	for _, m := range lumaModes {
		if m == cu.IntraPlanar && restr.DisableIntraPlanar {
			continue
		}
		cand = append(cand, rankedMode{mode: m})
	}

	if e.settings.FastIntraModeEvalLevel > 0 && len(cand) > numFastIntraCandidates {
		width, height := c.Width(yuv.Y), c.Height(yuv.Y)
		orig := e.orig.Buffer(yuv.Y, c.PosX(yuv.Y), c.PosY(yuv.Y))
		for i := range cand {
			e.intra.Predict(c, yuv.Y, cand[i].mode, e.rec, e.pred)
			wr := syntax.NewRdoWriterZero(w)
			wr.WriteIntraMode(cand[i].mode, mpm)
			sad := yuv.SAD(width, height, orig, e.pred)
			cand[i].cost = sad + uint64(float64(wr.NumWrittenBits())*e.qp.LambdaSqrt()+0.5)
		}
		sort.SliceStable(cand, func(i, j int) bool { return cand[i].cost < cand[j].cost })
		cand = cand[:numFastIntraCandidates]
	}

	best := cand[0].mode
	bestCost := maxCost
	for _, m := range cand {
		c.IntraModeLuma = m.mode
		dist := e.compressComponent(c, yuv.Y)
		wr := syntax.NewRdoWriterZero(w)
		wr.WriteIntraMode(m.mode, mpm)
		e.writer.WriteCoefficients(c, yuv.Y, &wr)
		if cost := e.cost(dist, wr.NumWrittenBits()); cost < bestCost {
			best, bestCost = m.mode, cost
		}
	}
	return best
}

// searchIntraChroma returns the chroma mode of c with the lowest cost over
// both chroma components.
func (e *CuEncoder) searchIntraChroma(c *cu.CodingUnit, w *syntax.Writer) cu.IntraChromaMode {
	if e.pic.Restrictions().DisableIntraChromaPredictor {
		return cu.ChromaDM
	}
	best := cu.ChromaDM
	bestCost := maxCost
	for _, m := range chromaModes {
		c.IntraModeChroma = m
		dist := e.compressComponent(c, yuv.U) + e.compressComponent(c, yuv.V)
		wr := syntax.NewRdoWriterZero(w)
		wr.WriteIntraChromaMode(m)
		e.writer.WriteCoefficients(c, yuv.U, &wr)
		e.writer.WriteCoefficients(c, yuv.V, &wr)
		if cost := e.cost(dist, wr.NumWrittenBits()); cost < bestCost {
			best, bestCost = m, cost
		}
	}
	return best
}
