// +build ignore

package main

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"os/exec"
	"time"

	xvc "github.com/xxthink/xvc"
)

func main() {
	sizes := []int{64, 128, 256}
	qps := []int{22, 32, 42}
	numPics := 4

	fmt.Println("=== xvc Speed Mode Comparison ===")
	fmt.Println("Placebo vs Slow on a moving synthetic sequence")
	fmt.Println()

	fmt.Printf("%-10s | %-4s | %-20s | %-20s | %-10s\n", "Size", "QP", "Placebo", "Slow", "Ratio")
	fmt.Println("-----------+------+----------------------+----------------------+-----------")

	for _, size := range sizes {
		pics := createTestSequence(size, numPics)
		for _, qp := range qps {
			placebo := benchmarkEncode(pics, size, qp, xvc.SpeedPlacebo)
			slow := benchmarkEncode(pics, size, qp, xvc.SpeedSlow)
			ratio := float64(placebo.elapsed) / float64(slow.elapsed)
			fmt.Printf("%-10s | %-4d | %-20s | %-20s | %-10.2fx\n",
				fmt.Sprintf("%dx%d", size, size), qp, placebo, slow, ratio)
		}
	}

	fmt.Println()
	fmt.Println("=== Detailed Component Benchmarks ===")
	runDetailedBenchmarks()
}

type result struct {
	elapsed time.Duration
	bytes   int
	psnr    float64
}

func (r result) String() string {
	return fmt.Sprintf("%6dB %5.2fdB %s", r.bytes, r.psnr, r.elapsed.Round(time.Millisecond))
}

func createTestSequence(size, n int) []*xvc.Picture {
	pics := make([]*xvc.Picture, n)
	for i := range pics {
		img := image.NewRGBA(image.Rect(0, 0, size, size))
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				px := x + 2*i
				img.SetRGBA(x, y, color.RGBA{
					R: uint8((px * 255) / size),
					G: uint8((y * 255) / size),
					B: uint8(((px + y) * 127) / size),
					A: 255,
				})
			}
		}
		pic, err := xvc.PictureFromImage(img, xvc.Chroma420, 8, xvc.ColorMatrix709)
		if err != nil {
			panic(err)
		}
		pics[i] = pic
	}
	return pics
}

func benchmarkEncode(pics []*xvc.Picture, size, qp int, speed xvc.SpeedMode) result {
	opts := xvc.DefaultOptions(size, size)
	opts.Qp = qp
	opts.SpeedMode = speed
	enc, err := xvc.NewEncoder(opts)
	if err != nil {
		panic(err)
	}
	res := result{bytes: len(enc.SegmentHeader())}
	var mse float64
	start := time.Now()
	for _, pic := range pics {
		data, err := enc.Encode(pic)
		if err != nil {
			panic(err)
		}
		res.bytes += len(data)
		mse += lumaMSE(pic, enc.Reconstructed())
	}
	res.elapsed = time.Since(start)
	mse /= float64(len(pics))
	res.psnr = 10 * math.Log10(255*255/math.Max(mse, 1e-9))
	return res
}

func lumaMSE(a, b *xvc.Picture) float64 {
	pa, pb := a.Plane(0), b.Plane(0)
	var sse float64
	for i := range pa {
		d := float64(pa[i]) - float64(pb[i])
		sse += d * d
	}
	return sse / float64(len(pa))
}

func runDetailedBenchmarks() {
	fmt.Println()
	cmd := exec.Command("go", "test", "-bench=.", "-benchtime=1s", "./...")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Run()
}
