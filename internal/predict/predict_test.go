package predict

import (
	"testing"

	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/restrictions"
	"github.com/xxthink/xvc/internal/yuv"
)

func newPred(n int) yuv.SampleBuffer {
	return yuv.SampleBuffer{Data: make([]yuv.Sample, n*n), Stride: n}
}

func TestIntraNoNeighbours(t *testing.T) {
	for _, bd := range []int{8, 10} {
		p := cu.NewPictureData(64, 64, yuv.Chroma420, bd, quant.PicTypeIntra, 0, nil)
		rec := yuv.NewPicture(64, 64, yuv.Chroma420, bd)
		ctu := p.Ctu(cu.Primary, 0)
		intra := NewIntra()
		for _, mode := range []cu.IntraMode{cu.IntraPlanar, cu.IntraDC, cu.IntraHorizontal, cu.IntraVertical, 34} {
			pred := newPred(64)
			intra.Predict(ctu, yuv.Y, mode, rec, pred)
			want := yuv.Sample(1 << uint(bd-1))
			for i, v := range pred.Data {
				if v != want {
					t.Fatalf("bd %d mode %d: sample %d = %d, want %d", bd, mode, i, v, want)
				}
			}
		}
	}
}

func TestIntraFromNeighbours(t *testing.T) {
	p := cu.NewPictureData(64, 64, yuv.Chroma420, 8, quant.PicTypeIntra, 0, nil)
	rec := yuv.NewPicture(64, 64, yuv.Chroma420, 8)
	ctu := p.Ctu(cu.Primary, 0)
	ctu.SplitQuad()
	for i := 0; i < 3; i++ {
		ctu.Sub[i].PredMode = cu.Intra
	}
	p.MarkUsedInPic(ctu.Sub[0])
	p.MarkUsedInPic(ctu.Sub[1])
	p.MarkUsedInPic(ctu.Sub[2])
	// above row of quadrant 3 ramps, left column is constant
	for x := 0; x < 64; x++ {
		rec.Buffer(yuv.Y, 0, 0).Set(x, 31, yuv.Sample(x))
	}
	for y := 32; y < 64; y++ {
		rec.Buffer(yuv.Y, 0, 0).Set(31, y, 200)
	}
	cur := ctu.Sub[3]
	intra := NewIntra()

	pred := newPred(32)
	intra.Predict(cur, yuv.Y, cu.IntraVertical, rec, pred)
	if got := pred.At(5, 17); got != 37 {
		t.Errorf("vertical (5,17) = %d, want 37", got)
	}
	intra.Predict(cur, yuv.Y, cu.IntraHorizontal, rec, pred)
	if got := pred.At(20, 3); got != 200 {
		t.Errorf("horizontal (20,3) = %d, want 200", got)
	}
	intra.Predict(cur, yuv.Y, cu.IntraDC, rec, pred)
	// above samples 32..63 average 47.5, left 200
	if got := pred.At(0, 0); got != 124 {
		t.Errorf("dc = %d, want 124", got)
	}
}

func TestDeriveMpm(t *testing.T) {
	tests := []struct {
		name        string
		left, above cu.IntraMode
		want        Mpm
	}{
		{"both dc", cu.IntraDC, cu.IntraDC, Mpm{cu.IntraPlanar, cu.IntraDC, cu.IntraVertical}},
		{"both angular", cu.IntraHorizontal, cu.IntraHorizontal, Mpm{10, 9, 11}},
		{"wrap", 2, 2, Mpm{2, 33, 3}},
		{"distinct", cu.IntraHorizontal, cu.IntraVertical, Mpm{10, 26, cu.IntraPlanar}},
		{"planar and angular", cu.IntraPlanar, cu.IntraVertical, Mpm{0, 26, cu.IntraDC}},
		{"planar and dc", cu.IntraPlanar, cu.IntraDC, Mpm{0, 1, cu.IntraVertical}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := cu.NewPictureData(64, 64, yuv.Chroma420, 8, quant.PicTypeIntra, 0, nil)
			ctu := p.Ctu(cu.Primary, 0)
			ctu.SplitQuad()
			ctu.Sub[0].PredMode = cu.Intra
			ctu.Sub[0].IntraModeLuma = tt.above
			ctu.Sub[2].PredMode = cu.Intra
			ctu.Sub[2].IntraModeLuma = tt.left
			p.MarkUsedInPic(ctu.Sub[0])
			p.MarkUsedInPic(ctu.Sub[2])
			// quadrant 3 has quadrant 2 to the left and quadrant 1 above, so
			// move the above mode there
			ctu.Sub[1].PredMode = cu.Intra
			ctu.Sub[1].IntraModeLuma = tt.above
			p.MarkUsedInPic(ctu.Sub[1])
			if got := DeriveMpm(ctu.Sub[3]); got != tt.want {
				t.Errorf("DeriveMpm = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMpmAboveOutsideCtu(t *testing.T) {
	p := cu.NewPictureData(64, 128, yuv.Chroma420, 8, quant.PicTypeIntra, 0, nil)
	top := p.Ctu(cu.Primary, 0)
	top.PredMode = cu.Intra
	top.IntraModeLuma = cu.IntraHorizontal
	p.MarkUsedInPic(top)
	got := DeriveMpm(p.Ctu(cu.Primary, 1))
	if got != (Mpm{cu.IntraPlanar, cu.IntraDC, cu.IntraVertical}) {
		t.Errorf("DeriveMpm = %v, want the DC defaults", got)
	}
}

func TestMpmRemainder(t *testing.T) {
	m := Mpm{26, 0, 10}
	seen := make(map[int]bool)
	for mode := cu.IntraMode(0); mode < cu.NumIntraModes; mode++ {
		if m.Index(mode) >= 0 {
			continue
		}
		rem := m.Remainder(mode)
		if rem < 0 || rem >= 32 || seen[rem] {
			t.Fatalf("mode %d: remainder %d out of range or duplicate", mode, rem)
		}
		seen[rem] = true
		if back := m.FromRemainder(rem); back != mode {
			t.Errorf("FromRemainder(%d) = %d, want %d", rem, back, mode)
		}
	}
	if len(seen) != 32 {
		t.Errorf("%d remainders, want 32", len(seen))
	}
}

func interPicture(picType quant.PicType, restr *restrictions.Restrictions) *cu.PictureData {
	p := cu.NewPictureData(64, 64, yuv.Chroma420, 8, picType, 4, restr)
	refs := []cu.RefPicture{
		{Poc: 3, Pic: yuv.NewPicture(64, 64, yuv.Chroma420, 8)},
		{Poc: 2, Pic: yuv.NewPicture(64, 64, yuv.Chroma420, 8)},
	}
	p.SetRefPics(cu.L0, refs)
	p.SetRefPics(cu.L1, refs)
	return p
}

func TestMergeListZeroCandidates(t *testing.T) {
	tests := []struct {
		name    string
		picType quant.PicType
		restr   *restrictions.Restrictions
		dir     cu.InterDir
	}{
		{"uni", quant.PicTypeUni, nil, cu.InterDirL0},
		{"bi", quant.PicTypeBi, nil, cu.InterDirBi},
		{"bi restricted", quant.PicTypeBi, &restrictions.Restrictions{DisableInterMergeBipred: true}, cu.InterDirL0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := interPicture(tt.picType, tt.restr)
			list := DeriveMergeList(p.Ctu(cu.Primary, 0))
			wantRef := []int{0, 1, 0, 0, 0}
			for i, m := range list {
				if m.InterDir != tt.dir || m.RefIdx[cu.L0] != wantRef[i] || m.MV[cu.L0] != (cu.MotionVector{}) {
					t.Errorf("candidate %d = %+v", i, m)
				}
			}
		})
	}
}

func TestMergeListPrunesSpatial(t *testing.T) {
	p := interPicture(quant.PicTypeUni, nil)
	ctu := p.Ctu(cu.Primary, 0)
	ctu.SplitQuad()
	motion := MotionInfo{InterDir: cu.InterDirL0, MV: [2]cu.MotionVector{{X: 3, Y: -1}}, RefIdx: [2]int{1, -1}}
	for i := 0; i < 3; i++ {
		ctu.Sub[i].PredMode = cu.Inter
		ApplyMotion(ctu.Sub[i], motion)
		p.MarkUsedInPic(ctu.Sub[i])
	}
	list := DeriveMergeList(ctu.Sub[3])
	if list[0] != motion {
		t.Errorf("first candidate = %+v, want %+v", list[0], motion)
	}
	// B1 equals A1 and B2 equals both, so the rest are zero candidates
	if list[1].MV[cu.L0] != (cu.MotionVector{}) || list[1].RefIdx[cu.L0] != 0 {
		t.Errorf("second candidate = %+v, want zero motion", list[1])
	}
}

func TestMvpList(t *testing.T) {
	p := interPicture(quant.PicTypeUni, nil)
	ctu := p.Ctu(cu.Primary, 0)
	ctu.SplitQuad()
	ctu.Sub[0].PredMode = cu.Inter
	ApplyMotion(ctu.Sub[0], MotionInfo{InterDir: cu.InterDirL0, MV: [2]cu.MotionVector{{X: 4, Y: 2}}, RefIdx: [2]int{0, -1}})
	p.MarkUsedInPic(ctu.Sub[0])
	ctu.Sub[1].PredMode = cu.Inter
	ApplyMotion(ctu.Sub[1], MotionInfo{InterDir: cu.InterDirL0, MV: [2]cu.MotionVector{{X: -6, Y: 0}}, RefIdx: [2]int{0, -1}})
	p.MarkUsedInPic(ctu.Sub[1])

	got := DeriveMvpList(ctu.Sub[1], cu.L0, 0)
	want := MvpList{{X: 4, Y: 2}, {}}
	if got != want {
		t.Errorf("mvp list = %v, want %v", got, want)
	}

	restr := &restrictions.Restrictions{DisableInterMvp: true}
	q := interPicture(quant.PicTypeUni, restr)
	if got := DeriveMvpList(q.Ctu(cu.Primary, 0), cu.L0, 0); got != (MvpList{}) {
		t.Errorf("restricted mvp list = %v, want zeros", got)
	}
}

func TestFetchClampsAndAverages(t *testing.T) {
	p := interPicture(quant.PicTypeBi, nil)
	ref := p.RefPic(cu.L0, 0)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			ref.Buffer(yuv.Y, 0, 0).Set(x, y, yuv.Sample(x+y))
		}
	}
	c := p.Ctu(cu.Primary, 0)
	c.SplitQuad()
	sub := c.Sub[0]
	pred := newPred(32)
	Fetch(sub, yuv.Y, ref, cu.MotionVector{X: -40, Y: 3}, pred)
	if got := pred.At(0, 0); got != 3 {
		t.Errorf("clamped sample = %d, want 3", got)
	}
	if got := pred.At(31, 0); got != 3 {
		t.Errorf("clamped sample = %d, want 3", got)
	}
	other := newPred(32)
	other.Fill(32, 32, 10)
	Average(32, 32, pred, other)
	if got := pred.At(0, 0); got != 7 {
		t.Errorf("average = %d, want 7", got)
	}
}
