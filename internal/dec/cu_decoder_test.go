package dec

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/xxthink/xvc/internal/bio"
	"github.com/xxthink/xvc/internal/cu"
	"github.com/xxthink/xvc/internal/enc"
	"github.com/xxthink/xvc/internal/quant"
	"github.com/xxthink/xvc/internal/restrictions"
	"github.com/xxthink/xvc/internal/segment"
	"github.com/xxthink/xvc/internal/yuv"
)

func texture(w, h int, format yuv.ChromaFormat, bitdepth int, seed int64, dx, dy int) *yuv.Picture {
	pic := yuv.NewPicture(w, h, format, bitdepth)
	rng := rand.New(rand.NewSource(seed))
	maxVal := 1<<uint(bitdepth) - 1
	scale := 1 << uint(bitdepth-8)
	for c := 0; c < format.NumComponents(); c++ {
		comp := yuv.Component(c)
		sx, sy := format.ShiftX(comp), format.ShiftY(comp)
		buf := pic.Buffer(comp, 0, 0)
		for y := 0; y < pic.Height(comp); y++ {
			for x := 0; x < pic.Width(comp); x++ {
				gx, gy := (x<<uint(sx))+dx, (y<<uint(sy))+dy
				v := (80 + (gx*gx+3*gy)%97 + rng.Intn(9)) * scale
				buf.Set(x, y, yuv.Sample(min(v, maxVal)))
			}
		}
	}
	return pic
}

func samePicture(t *testing.T, want, got *yuv.Picture) {
	t.Helper()
	for c := 0; c < want.ChromaFormat().NumComponents(); c++ {
		comp := yuv.Component(c)
		for y := 0; y < want.Height(comp); y++ {
			for x := 0; x < want.Width(comp); x++ {
				if w, g := want.At(comp, x, y), got.At(comp, x, y); w != g {
					t.Fatalf("%v sample (%d,%d): encoder %d, decoder %d", comp, x, y, w, g)
				}
			}
		}
	}
}

type refSet struct {
	enc, dec []cu.RefPicture
}

func roundTrip(t *testing.T, hdr *segment.Header, src *yuv.Picture, ph segment.PictureHeader,
	refs refSet, settings enc.Settings) (*yuv.Picture, *yuv.Picture) {
	t.Helper()
	var encRefs, decRefs [cu.NumRefLists][]cu.RefPicture
	encRefs[cu.L0], decRefs[cu.L0] = refs.enc[:ph.NumRefs[0]], refs.dec[:ph.NumRefs[0]]
	encRefs[cu.L1], decRefs[cu.L1] = refs.enc[:ph.NumRefs[1]], refs.dec[:ph.NumRefs[1]]

	var buf bytes.Buffer
	rec, stats, err := enc.EncodePicture(bio.NewWriter(&buf), src, hdr, ph, encRefs, settings)
	if err != nil {
		t.Fatalf("EncodePicture: %v", err)
	}
	if stats.Bits != uint64(8*buf.Len()) {
		t.Errorf("stats report %d bits, wrote %d bytes", stats.Bits, buf.Len())
	}
	br := bio.NewReader(bytes.NewReader(buf.Bytes()))
	got, err := segment.ReadPictureHeader(br)
	if err != nil {
		t.Fatalf("ReadPictureHeader: %v", err)
	}
	if got != ph {
		t.Fatalf("picture header %+v, want %+v", got, ph)
	}
	decoded, err := DecodePicture(br, hdr, got, decRefs)
	if err != nil {
		t.Fatalf("DecodePicture: %v", err)
	}
	samePicture(t, rec, decoded)
	return rec, decoded
}

func allRestrictions() restrictions.Restrictions {
	var r restrictions.Restrictions
	for g := restrictions.Group(0); g < restrictions.NumGroups; g++ {
		for _, f := range r.Flags(g) {
			*f = true
		}
	}
	return r
}

func TestEncoderDecoderMatch(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		format   yuv.ChromaFormat
		bitdepth int
		restr    restrictions.Restrictions
		speed    enc.SpeedMode
		strict   bool
	}{
		{"420", 64, 64, yuv.Chroma420, 8, restrictions.Restrictions{}, enc.SpeedSlow, false},
		{"420 placebo strict", 64, 64, yuv.Chroma420, 8, restrictions.Restrictions{}, enc.SpeedPlacebo, true},
		{"400 border", 72, 56, yuv.Monochrome, 8, restrictions.Restrictions{}, enc.SpeedSlow, false},
		{"444 10 bit", 64, 64, yuv.Chroma444, 10, restrictions.Restrictions{}, enc.SpeedSlow, false},
		{"420 single tree", 80, 64, yuv.Chroma420, 8, restrictions.Restrictions{DisableExtTwoCuTrees: true}, enc.SpeedSlow, false},
		{"420 explicit last ctu", 128, 64, yuv.Chroma420, 8, restrictions.Restrictions{DisableExtImplicitLastCtu: true}, enc.SpeedSlow, false},
		{"420 no skip no mvp", 64, 64, yuv.Chroma420, 8, restrictions.Restrictions{
			DisableInterSkipMode: true, DisableInterMvp: true, DisableInterMergeCandidates: true,
		}, enc.SpeedSlow, false},
		{"420 residual restricted", 64, 64, yuv.Chroma420, 8, restrictions.Restrictions{
			DisableTransformLastPosition: true, DisableTransformSubblockCsbf: true,
			DisableTransformResidualGreaterThanFlags: true, DisableTransformAdaptiveExpGolomb: true,
		}, enc.SpeedSlow, false},
		{"420 all restrictions", 64, 64, yuv.Chroma420, 8, allRestrictions(), enc.SpeedSlow, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hdr := &segment.Header{
				CodecIdentifier:  segment.CodecIdentifier,
				MajorVersion:     segment.MajorVersion,
				Width:            tt.w,
				Height:           tt.h,
				ChromaFormat:     tt.format,
				InternalBitdepth: tt.bitdepth,
				MaxSubGopLength:  1,
				NumRefPics:       2,
				Restrictions:     tt.restr,
			}
			settings := enc.NewSettings(tt.speed)
			settings.StrictRdo = tt.strict

			var refs refSet
			add := func(poc int, rec, decoded *yuv.Picture) {
				refs.enc = append([]cu.RefPicture{{Poc: poc, Pic: rec}}, refs.enc...)
				refs.dec = append([]cu.RefPicture{{Poc: poc, Pic: decoded}}, refs.dec...)
			}

			pictures := []segment.PictureHeader{
				{PicType: quant.PicTypeIntra, Poc: 0, Qp: 30},
				{PicType: quant.PicTypeUni, Poc: 1, Qp: 32, NumRefs: [2]int{1, 0}},
				{PicType: quant.PicTypeBi, Poc: 2, Qp: 34, NumRefs: [2]int{2, 2}},
			}
			for i, ph := range pictures {
				src := texture(tt.w, tt.h, tt.format, tt.bitdepth, int64(i), 2*i, -i)
				rec, decoded := roundTrip(t, hdr, src, ph, refs, settings)
				add(ph.Poc, rec, decoded)
			}
		})
	}
}

func TestDecodeRejectsEarlyEnd(t *testing.T) {
	hdr := &segment.Header{
		Width: 128, Height: 64, ChromaFormat: yuv.Chroma420, InternalBitdepth: 8,
		Restrictions: restrictions.Restrictions{DisableExtImplicitLastCtu: true},
	}
	ph := segment.PictureHeader{PicType: quant.PicTypeIntra, Qp: 32}
	var buf bytes.Buffer
	src := texture(64, 64, yuv.Chroma420, 8, 1, 0, 0)
	small := *hdr
	small.Width = 64
	if _, _, err := enc.EncodePicture(bio.NewWriter(&buf), src, &small, ph, [2][]cu.RefPicture{}, enc.NewSettings(enc.SpeedSlow)); err != nil {
		t.Fatalf("EncodePicture: %v", err)
	}
	// a one-CTU payload signals the end after the first of two CTUs
	br := bio.NewReader(bytes.NewReader(buf.Bytes()))
	got, err := segment.ReadPictureHeader(br)
	if err != nil {
		t.Fatalf("ReadPictureHeader: %v", err)
	}
	if _, err := DecodePicture(br, hdr, got, [2][]cu.RefPicture{}); !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("err = %v, want %v", err, ErrCorruptPayload)
	}
}

func TestDecodeRejectsReferenceMismatch(t *testing.T) {
	hdr := &segment.Header{Width: 64, Height: 64, ChromaFormat: yuv.Chroma420, InternalBitdepth: 8}
	ph := segment.PictureHeader{PicType: quant.PicTypeUni, Qp: 32, NumRefs: [2]int{2, 0}}
	br := bio.NewReader(bytes.NewReader(nil))
	if _, err := DecodePicture(br, hdr, ph, [2][]cu.RefPicture{}); err == nil {
		t.Error("decoded with missing references")
	}
}

// FuzzDecodePicture checks that arbitrary payloads never panic.
// Run with: go test -fuzz=FuzzDecodePicture -fuzztime=60s
func FuzzDecodePicture(f *testing.F) {
	hdr := &segment.Header{Width: 64, Height: 64, ChromaFormat: yuv.Chroma420, InternalBitdepth: 8}
	var buf bytes.Buffer
	ph := segment.PictureHeader{PicType: quant.PicTypeIntra, Qp: 32}
	src := texture(64, 64, yuv.Chroma420, 8, 1, 0, 0)
	if _, _, err := enc.EncodePicture(bio.NewWriter(&buf), src, hdr, ph, [2][]cu.RefPicture{}, enc.NewSettings(enc.SpeedSlow)); err == nil {
		f.Add(buf.Bytes())
	}
	f.Add([]byte{0x40, 0x00, 0x40, 0x10, 0x00, 0xff, 0xff, 0x00})
	f.Add([]byte{0x80, 0x01, 0x40, 0x22, 0x00, 0x12, 0x34, 0x56, 0x78})
	f.Add([]byte{})

	gray := yuv.NewPicture(64, 64, yuv.Chroma420, 8)
	f.Fuzz(func(t *testing.T, data []byte) {
		br := bio.NewReader(bytes.NewReader(data))
		ph, err := segment.ReadPictureHeader(br)
		if err != nil {
			return
		}
		var refs [cu.NumRefLists][]cu.RefPicture
		for l, n := range ph.NumRefs {
			for i := 0; i < n; i++ {
				refs[l] = append(refs[l], cu.RefPicture{Poc: ph.Poc + i + 1, Pic: gray})
			}
		}
		_, _ = DecodePicture(br, hdr, ph, refs)
	})
}
