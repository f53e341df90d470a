package enc

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/xxthink/xvc/internal/bio"
	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/restrictions"
	"github.com/xxthink/xvc/internal/syntax"
	"github.com/xxthink/xvc/internal/yuv"
)

const testQp = 32

// noisePicture fills every plane with a smooth gradient plus seeded noise.
func noisePicture(w, h int, format yuv.ChromaFormat, seed int64, amplitude int) *yuv.Picture {
	pic := yuv.NewPicture(w, h, format, 8)
	rng := rand.New(rand.NewSource(seed))
	for c := 0; c < format.NumComponents(); c++ {
		comp := yuv.Component(c)
		buf := pic.Buffer(comp, 0, 0)
		for y := 0; y < pic.Height(comp); y++ {
			for x := 0; x < pic.Width(comp); x++ {
				v := 64 + x + y/2
				if amplitude > 0 {
					v += rng.Intn(2*amplitude+1) - amplitude
				}
				buf.Set(x, y, yuv.Sample(min(max(v, 0), 255)))
			}
		}
	}
	return pic
}

// shifted returns src displaced so that src(x, y) == out(x+dx, y+dy).
func shifted(src *yuv.Picture, dx, dy int) *yuv.Picture {
	out := yuv.NewPicture(src.Width(yuv.Y), src.Height(yuv.Y), src.ChromaFormat(), src.Bitdepth())
	format := src.ChromaFormat()
	for c := 0; c < format.NumComponents(); c++ {
		comp := yuv.Component(c)
		sx, sy := dx>>uint(format.ShiftX(comp)), dy>>uint(format.ShiftY(comp))
		buf := out.Buffer(comp, 0, 0)
		for y := 0; y < out.Height(comp); y++ {
			for x := 0; x < out.Width(comp); x++ {
				buf.Set(x, y, src.At(comp, x-sx, y-sy))
			}
		}
	}
	return out
}

type testSetup struct {
	enc    *CuEncoder
	pic    *cu.PictureData
	rec    *yuv.Picture
	writer *syntax.Writer
	buf    *bytes.Buffer
}

func newSetup(src *yuv.Picture, picType quant.PicType, restr *restrictions.Restrictions, settings Settings,
	refs ...*yuv.Picture) *testSetup {
	w, h := src.Width(yuv.Y), src.Height(yuv.Y)
	format := src.ChromaFormat()
	qp := quant.New(testQp, format, picType, 8, 1, 0, 0)
	pic := cu.NewPictureData(w, h, format, 8, picType, len(refs), restr)
	var list []cu.RefPicture
	for i, r := range refs {
		list = append(list, cu.RefPicture{Poc: len(refs) - 1 - i, Pic: r})
	}
	pic.SetRefPics(cu.L0, list)
	pic.SetRefPics(cu.L1, list)
	rec := yuv.NewPicture(w, h, format, 8)
	buf := &bytes.Buffer{}
	writer := syntax.NewWriter(qp, picType, pic.Restrictions(), bio.NewWriter(buf))
	return &testSetup{
		enc:    NewCuEncoder(qp, src, rec, pic, settings),
		pic:    pic,
		rec:    rec,
		writer: writer,
		buf:    buf,
	}
}

func (s *testSetup) encodeAll() uint64 {
	var dist uint64
	for rs := 0; rs < s.pic.NumCtus(); rs++ {
		dist += s.enc.EncodeCtu(rs, s.writer)
	}
	return dist
}

func pictureSSE(a, b *yuv.Picture) uint64 {
	var sum uint64
	for c := 0; c < a.ChromaFormat().NumComponents(); c++ {
		comp := yuv.Component(c)
		sum += yuv.SSE(a.Width(comp), a.Height(comp), a.Buffer(comp, 0, 0), b.Buffer(comp, 0, 0))
	}
	return sum
}

func TestFlatIntraCtu(t *testing.T) {
	src := yuv.NewPicture(64, 64, yuv.Chroma420, 8)
	for c := 0; c < 3; c++ {
		comp := yuv.Component(c)
		src.Buffer(comp, 0, 0).Fill(src.Width(comp), src.Height(comp), 128)
	}
	s := newSetup(src, quant.PicTypeIntra, nil, NewSettings(SpeedSlow))
	if dist := s.encodeAll(); dist != 0 {
		t.Errorf("distortion = %d, want 0", dist)
	}
	for tree := cu.Primary; tree < s.pic.NumTrees(); tree++ {
		ctu := s.pic.Ctu(tree, 0)
		if ctu.IsSplit() {
			t.Errorf("tree %d: flat CTU was split", tree)
		}
		if ctu.HasAnyCbf() {
			t.Errorf("tree %d: flat CTU carries residual %v", tree, ctu.Cbf)
		}
	}
	if sse := pictureSSE(src, s.rec); sse != 0 {
		t.Errorf("reconstruction SSE = %d", sse)
	}
}

func TestPartitionCoversPicture(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		picType quant.PicType
	}{
		{"intra 64x64", 64, 64, quant.PicTypeIntra},
		{"intra border 72x80", 72, 80, quant.PicTypeIntra},
		{"inter border 88x72", 88, 72, quant.PicTypeUni},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := noisePicture(tt.w, tt.h, yuv.Chroma420, 1, 20)
			var refs []*yuv.Picture
			if tt.picType != quant.PicTypeIntra {
				refs = append(refs, shifted(src, 2, 1))
			}
			s := newSetup(src, tt.picType, nil, NewSettings(SpeedSlow), refs...)
			s.encodeAll()
			for tree := cu.Primary; tree < s.pic.NumTrees(); tree++ {
				cover := make([]int, tt.w*tt.h)
				for rs := 0; rs < s.pic.NumCtus(); rs++ {
					s.pic.Ctu(tree, rs).Leaves(func(leaf *cu.CodingUnit) {
						if !leaf.IsFullyWithinPicture() {
							t.Errorf("leaf at (%d,%d) crosses the picture border", leaf.PosX(yuv.Y), leaf.PosY(yuv.Y))
							return
						}
						for y := 0; y < leaf.Height(yuv.Y); y++ {
							for x := 0; x < leaf.Width(yuv.Y); x++ {
								cover[(leaf.PosY(yuv.Y)+y)*tt.w+leaf.PosX(yuv.Y)+x]++
							}
						}
					})
				}
				for i, n := range cover {
					if n != 1 {
						t.Fatalf("tree %d: sample (%d,%d) covered %d times", tree, i%tt.w, i/tt.w, n)
					}
				}
			}
		})
	}
}

func TestDistortionMatchesReconstruction(t *testing.T) {
	tests := []struct {
		name     string
		picType  quant.PicType
		settings Settings
	}{
		{"intra slow", quant.PicTypeIntra, NewSettings(SpeedSlow)},
		{"intra placebo", quant.PicTypeIntra, NewSettings(SpeedPlacebo)},
		{"uni slow", quant.PicTypeUni, NewSettings(SpeedSlow)},
		{"bi placebo", quant.PicTypeBi, NewSettings(SpeedPlacebo)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 4:4:4 keeps every distortion weight at one
			src := noisePicture(64, 64, yuv.Chroma444, 3, 12)
			var refs []*yuv.Picture
			if tt.picType != quant.PicTypeIntra {
				refs = append(refs, shifted(src, 1, 0), shifted(src, -2, 3))
			}
			s := newSetup(src, tt.picType, nil, tt.settings, refs...)
			dist := s.encodeAll()
			if sse := pictureSSE(src, s.rec); sse != dist {
				t.Errorf("reported distortion %d, reconstruction SSE %d", dist, sse)
			}
		})
	}
}

func TestSplitDecisionNotWorseThanWhole(t *testing.T) {
	tests := []struct {
		name    string
		picType quant.PicType
	}{
		{"intra", quant.PicTypeIntra},
		{"uni", quant.PicTypeUni},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := noisePicture(64, 64, yuv.Chroma420, 5, 30)
			ref := shifted(src, 3, 3)
			cost := func(split bool) uint64 {
				s := newSetup(src, tt.picType, nil, NewSettings(SpeedSlow), ref)
				rdo := syntax.NewRdoWriter(s.writer)
				start := rdo.NumWrittenBits()
				ctu := s.pic.Ctu(cu.Primary, 0)
				var dist uint64
				if split {
					_, dist = s.enc.compressCu(ctu, &rdo)
				} else {
					_, dist = s.enc.compressNoSplit(ctu, &rdo)
				}
				return s.enc.cost(dist, rdo.NumWrittenBits()-start)
			}
			searched, whole := cost(true), cost(false)
			if searched > whole {
				t.Errorf("quad-tree search cost %d exceeds unsplit cost %d", searched, whole)
			}
		})
	}
}

func TestInterFindsDisplacement(t *testing.T) {
	src := noisePicture(64, 64, yuv.Chroma420, 9, 60)
	ref := shifted(src, 3, -2)
	s := newSetup(src, quant.PicTypeUni, nil, NewSettings(SpeedSlow), ref)
	s.encodeAll()

	want := cu.MotionVector{X: 3, Y: -2}
	matched := 0
	s.pic.Ctu(cu.Primary, 0).Leaves(func(leaf *cu.CodingUnit) {
		if leaf.IsInter() && leaf.InterDir == cu.InterDirL0 && leaf.MV[cu.L0] == want {
			matched += leaf.Width(yuv.Y) * leaf.Height(yuv.Y)
		}
	})
	if matched < 64*64/2 {
		t.Errorf("only %d luma samples use motion %v", matched, want)
	}
}

func TestRestrictedEncodes(t *testing.T) {
	tests := []struct {
		name  string
		restr restrictions.Restrictions
	}{
		{"no merge", restrictions.Restrictions{DisableInterMergeMode: true}},
		{"no skip", restrictions.Restrictions{DisableInterSkipMode: true}},
		{"no bipred", restrictions.Restrictions{DisableInterBipred: true, DisableInterMergeBipred: true}},
		{"no size 64", restrictions.Restrictions{DisableExtTransformSize64: true}},
		{"no planar or chroma predictor", restrictions.Restrictions{DisableIntraPlanar: true, DisableIntraChromaPredictor: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := noisePicture(64, 64, yuv.Chroma420, 11, 8)
			restr := tt.restr
			s := newSetup(src, quant.PicTypeBi, &restr, NewSettings(SpeedPlacebo), shifted(src, 1, 1), shifted(src, -1, 0))
			s.encodeAll()
			s.pic.Ctu(cu.Primary, 0).Leaves(func(leaf *cu.CodingUnit) {
				switch {
				case restr.DisableInterMergeMode && leaf.Merge:
					t.Errorf("merge CU with merge disabled")
				case restr.DisableInterBipred && !leaf.Merge && leaf.InterDir == cu.InterDirBi:
					t.Errorf("explicit bi-prediction with bi-prediction disabled")
				case restr.DisableInterMergeBipred && leaf.Merge && leaf.InterDir == cu.InterDirBi:
					t.Errorf("bi-predicted merge with merge bi-prediction disabled")
				case restr.DisableIntraPlanar && leaf.IsIntra() && leaf.IntraModeLuma == cu.IntraPlanar:
					t.Errorf("planar with planar disabled")
				case restr.DisableIntraChromaPredictor && leaf.IsIntra() && leaf.IntraModeChroma != cu.ChromaDM:
					t.Errorf("chroma mode %v with chroma predictor disabled", leaf.IntraModeChroma)
				}
			})
			if restr.DisableExtTransformSize64 && !s.pic.Ctu(cu.Primary, 0).IsSplit() {
				t.Errorf("64x64 CU coded with 64-point transforms disabled")
			}
		})
	}
}

func TestSettingsPresets(t *testing.T) {
	tests := []struct {
		name       string
		settings   func() Settings
		fastIntra  int
		fastMerge  bool
		biIter     int
		alwaysIntr bool
		refs       int
	}{
		{"placebo", func() Settings { return NewSettings(SpeedPlacebo) }, 0, false, 4, true, 3},
		{"slow", func() Settings { return NewSettings(SpeedSlow) }, 1, true, 1, false, 2},
		{"mode b", func() Settings {
			s := NewSettings(SpeedPlacebo)
			s.ApplyRestrictedMode(RestrictedModeB)
			return s
		}, 2, true, 1, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.settings()
			if s.FastIntraModeEvalLevel != tt.fastIntra || s.FastMergeEval != tt.fastMerge ||
				s.BipredRefinementIterations != tt.biIter || s.AlwaysEvaluateIntraInInter != tt.alwaysIntr ||
				s.DefaultNumRefPics != tt.refs {
				t.Errorf("unexpected preset %+v", s)
			}
			if s.SearchRange != DefaultSearchRange {
				t.Errorf("search range = %d", s.SearchRange)
			}
		})
	}

	s := NewSettings(SpeedSlow)
	s.Tune(TunePSNR)
	if s.ChromaQpOffsetU != 1 || s.ChromaQpOffsetV != 1 || s.AdaptiveQp != 0 {
		t.Errorf("psnr tune = %+v", s)
	}
}

func TestMotionBits(t *testing.T) {
	for _, tt := range []struct{ v, bits int }{{0, 1}, {1, 3}, {-1, 3}, {2, 5}, {-3, 5}, {4, 7}} {
		if got := mvdBits(tt.v); got != tt.bits {
			t.Errorf("mvdBits(%d) = %d, want %d", tt.v, got, tt.bits)
		}
	}
	for _, tt := range []struct{ idx, n, bits int }{{0, 1, 0}, {0, 2, 1}, {1, 2, 1}, {1, 3, 2}, {2, 3, 2}} {
		if got := refIdxBits(tt.idx, tt.n); got != tt.bits {
			t.Errorf("refIdxBits(%d, %d) = %d, want %d", tt.idx, tt.n, got, tt.bits)
		}
	}
}

func BenchmarkEncodeIntraCtu(b *testing.B) {
	src := noisePicture(64, 64, yuv.Chroma420, 1, 20)
	for i := 0; i < b.N; i++ {
		s := newSetup(src, quant.PicTypeIntra, nil, NewSettings(SpeedSlow))
		s.encodeAll()
	}
}
