// Package quant derives quantization parameters and Lagrangian multipliers,
// and implements forward and inverse scalar quantization of transform
// coefficients.
package quant

import (
	"math"

	"github.com/xxthink/xvc/internal/yuv"
)

// PicType is the prediction type of a picture. The values index the rows of
// the CABAC initialization tables.
type PicType int

const (
	PicTypeBi PicType = iota
	PicTypeUni
	PicTypeIntra
)

// String returns the picture type name.
func (t PicType) String() string {
	switch t {
	case PicTypeBi:
		return "B"
	case PicTypeUni:
		return "P"
	case PicTypeIntra:
		return "I"
	default:
		return "?"
	}
}

const (
	// ChromaQpMax is the largest index of the chroma mapping table.
	ChromaQpMax = 57
	// MaxTrDynamicRange is the coefficient dynamic range in bits.
	MaxTrDynamicRange = 15
	// QuantShift is the precision of the forward scale table.
	QuantShift = 14
	// IQuantShift is the precision of the inverse scale table.
	IQuantShift = 20

	numScalingListRem = 6
)

var chromaScale = [ChromaQpMax + 1]uint8{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21,
	22, 23, 24, 25, 26, 27, 28, 29, 29, 30, 31, 32, 33, 33, 34, 34, 35, 35, 36,
	36, 37, 37, 38, 39, 40, 41, 42, 43, 44, 45, 46, 47, 48, 49, 50, 51,
}

var fwdQuantScales = [numScalingListRem]int{26214, 23302, 20560, 18396, 16384, 14564}

var invQuantScales = [numScalingListRem]int{40, 45, 51, 57, 64, 72}

// QP holds the quantization state of one coding unit.
type QP struct {
	raw        [yuv.MaxComponents]int
	bitdepthQP [yuv.MaxComponents]int
	distWeight [yuv.MaxComponents]float64
	lambda     float64
	lambdaSqrt float64
}

// New derives a QP with the same chroma offset for both chroma planes.
func New(qp int, format yuv.ChromaFormat, picType PicType, bitdepth, subGopLength, temporalID, chromaOffset int) *QP {
	return NewWithOffsets(qp, format, picType, bitdepth, subGopLength, temporalID, chromaOffset, chromaOffset)
}

// NewWithOffsets derives a QP with separate U and V chroma offsets.
func NewWithOffsets(qp int, format yuv.ChromaFormat, picType PicType, bitdepth, subGopLength, temporalID, offsetU, offsetV int) *QP {
	q := &QP{}
	q.raw[yuv.Y] = qp
	q.raw[yuv.U] = ChromaQP(qp+offsetU, format, bitdepth)
	q.raw[yuv.V] = ChromaQP(qp+offsetV, format, bitdepth)
	q.distWeight[yuv.Y] = 1
	q.distWeight[yuv.U] = ChromaDistWeight(qp+offsetU, format)
	q.distWeight[yuv.V] = ChromaDistWeight(qp+offsetV, format)
	for c := range q.raw {
		q.bitdepthQP[c] = q.raw[c] + numScalingListRem*(bitdepth-8)
	}
	q.lambda = Lambda(qp, picType, subGopLength, temporalID)
	q.lambdaSqrt = math.Sqrt(q.lambda)
	return q
}

// ChromaQP maps a luma QP plus offset to the chroma QP.
func ChromaQP(qp int, format yuv.ChromaFormat, bitdepth int) int {
	chromaQP := clip(qp, 0, ChromaQpMax)
	if format == yuv.Chroma420 {
		chromaQP = int(chromaScale[chromaQP])
	}
	return chromaQP
}

// ChromaDistWeight returns the distortion weight compensating the chroma QP
// mapping.
func ChromaDistWeight(qp int, format yuv.ChromaFormat) float64 {
	chromaQP := clip(qp, 0, ChromaQpMax)
	offset := 0
	if format == yuv.Chroma420 {
		offset = int(chromaScale[chromaQP]) - chromaQP
	}
	return math.Pow(2, -float64(offset)/3)
}

// Lambda returns the Lagrangian multiplier for qp.
func Lambda(qp int, picType PicType, subGopLength, temporalID int) float64 {
	qpTemp := float64(qp - 12)
	bframeFactor := 1 - clipf(0.05*float64(subGopLength-1), 0, 0.5)
	qpFactor := 1.0
	if picType == PicTypeIntra {
		qpFactor = 0.57 * bframeFactor
	}
	gopFactor := 1.0
	if temporalID != 0 {
		gopFactor = clipf(qpTemp/6, 2, 4)
	}
	return qpFactor * gopFactor * math.Pow(2, qpTemp/3)
}

// Raw returns the unscaled QP of comp.
func (q *QP) Raw(comp yuv.Component) int { return q.raw[comp] }

// Scaled returns the bit-depth adjusted QP of comp.
func (q *QP) Scaled(comp yuv.Component) int { return q.bitdepthQP[comp] }

// Per returns the QP period (scaled QP / 6) of comp.
func (q *QP) Per(comp yuv.Component) int { return q.bitdepthQP[comp] / numScalingListRem }

// FwdScale returns the forward quantization scale of comp.
func (q *QP) FwdScale(comp yuv.Component) int {
	return fwdQuantScales[q.bitdepthQP[comp]%numScalingListRem]
}

// InvScale returns the inverse quantization scale of comp.
func (q *QP) InvScale(comp yuv.Component) int {
	return invQuantScales[q.bitdepthQP[comp]%numScalingListRem] << uint(q.Per(comp))
}

// DistortionWeight returns the weight applied to comp's distortion.
func (q *QP) DistortionWeight(comp yuv.Component) float64 { return q.distWeight[comp] }

// Lambda returns the Lagrangian multiplier.
func (q *QP) Lambda() float64 { return q.lambda }

// LambdaSqrt returns the square root of the Lagrangian multiplier.
func (q *QP) LambdaSqrt() float64 { return q.lambdaSqrt }

func clip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clipf(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
