package cabac

import "math"

// renormTable gives the renormalization shift for an LPS range, indexed by lps>>3.
var renormTable = [32]uint8{
	6, 5, 4, 4, 3, 3, 3, 3,
	2, 2, 2, 2, 2, 2, 2, 2,
	1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1,
}

// rangeTable is the LPS sub-range per state, column (range>>6)&3.
var rangeTable = [NumStates][4]uint8{
	{128, 176, 208, 240}, {128, 167, 197, 227}, {128, 158, 187, 216}, {123, 150, 178, 205},
	{116, 142, 169, 195}, {111, 135, 160, 185}, {105, 128, 152, 175}, {100, 122, 144, 166},
	{95, 116, 137, 158}, {90, 110, 130, 150}, {85, 104, 123, 142}, {81, 99, 117, 135},
	{77, 94, 111, 128}, {73, 89, 105, 122}, {69, 85, 100, 116}, {66, 80, 95, 110},
	{62, 76, 90, 104}, {59, 72, 86, 99}, {56, 69, 81, 94}, {53, 65, 77, 89},
	{51, 62, 73, 85}, {48, 59, 69, 80}, {46, 56, 66, 76}, {43, 53, 63, 72},
	{41, 50, 59, 69}, {39, 48, 56, 65}, {37, 45, 54, 62}, {35, 43, 51, 59},
	{33, 41, 48, 56}, {32, 39, 46, 53}, {30, 37, 43, 50}, {29, 35, 41, 48},
	{27, 33, 39, 45}, {26, 31, 37, 43}, {24, 30, 35, 41}, {23, 28, 33, 39},
	{22, 27, 32, 37}, {21, 26, 30, 35}, {20, 24, 29, 33}, {19, 23, 27, 31},
	{18, 22, 26, 30}, {17, 21, 25, 28}, {16, 20, 23, 27}, {15, 19, 22, 25},
	{14, 18, 21, 24}, {14, 17, 20, 23}, {13, 16, 19, 22}, {12, 15, 18, 21},
	{12, 14, 17, 20}, {11, 14, 16, 19}, {11, 13, 15, 18}, {10, 12, 15, 17},
	{10, 12, 14, 16}, {9, 11, 13, 15}, {9, 11, 12, 14}, {8, 10, 12, 14},
	{8, 9, 11, 13}, {7, 9, 11, 12}, {7, 9, 10, 12}, {7, 8, 10, 11},
	{6, 8, 9, 11}, {6, 7, 9, 10}, {6, 7, 8, 9}, {2, 2, 2, 2},
}

// FracBitsPrecision is the fixed-point precision of fractional bit counts.
const FracBitsPrecision = 15

// entropyBits[s][0] is the cost of coding the MPS in state s and
// entropyBits[s][1] the cost of the LPS, in 1/(1<<FracBitsPrecision) bits.
var entropyBits [NumStates][2]uint32

func init() {
	alpha := math.Pow(0.01875/0.5, 1.0/63)
	scale := float64(int(1) << FracBitsPrecision)
	for s := 0; s < NumStates; s++ {
		pLPS := 0.5 * math.Pow(alpha, float64(s))
		entropyBits[s][0] = uint32(-math.Log2(1-pLPS)*scale + 0.5)
		entropyBits[s][1] = uint32(-math.Log2(pLPS)*scale + 0.5)
	}
}

// BinCost returns the estimated cost of coding bin with ctx, in fractional bits.
func BinCost(ctx ContextModel, bin uint32) uint32 {
	if bin == uint32(ctx.mps) {
		return entropyBits[ctx.state][0]
	}
	return entropyBits[ctx.state][1]
}
