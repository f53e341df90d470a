package cabac

// Context initialization values. Rows are indexed by picture prediction
// type: bi, uni, intra. A zero entry marks a model that is never used for
// that picture type.

var initTquantBypass = [3][NumTquantBypassCtx]uint8{
	{154},
	{154},
	{154},
}

var initSplitFlag = [3][NumSplitFlagCtx]uint8{
	{107, 139, 126},
	{107, 139, 126},
	{139, 141, 157},
}

var initSkipFlag = [3][NumSkipFlagCtx]uint8{
	{197, 185, 201},
	{197, 185, 201},
	{0, 0, 0},
}

var initMergeFlag = [3][NumMergeFlagCtx]uint8{
	{154},
	{110},
	{0},
}

var initMergeIdx = [3][NumMergeIdxCtx]uint8{
	{137},
	{122},
	{0},
}

var initPartSize = [3][NumPartSizeCtx]uint8{
	{154, 139, 154, 154},
	{154, 139, 154, 154},
	{184, 0, 0, 0},
}

var initPredMode = [3][NumPredModeCtx]uint8{
	{134},
	{149},
	{0},
}

// Luma followed by chroma.
var initIntraPredMode = [3][2 * NumIntraPredCtx]uint8{
	{183, 152},
	{154, 152},
	{184, 63},
}

var initInterDir = [3][NumInterDirCtx]uint8{
	{95, 79, 63, 31, 31},
	{95, 79, 63, 31, 31},
	{0, 0, 0, 0, 0},
}

var initMvd = [3][NumMvdCtx]uint8{
	{169, 198},
	{140, 198},
	{0, 0},
}

var initRefIdx = [3][NumRefIdxCtx]uint8{
	{153, 153},
	{153, 153},
	{0, 0},
}

var initDeltaQp = [3][NumDeltaQpCtx]uint8{
	{154, 154, 154},
	{154, 154, 154},
	{154, 154, 154},
}

// Luma followed by chroma.
var initCbf = [3][2 * NumCbfCtx]uint8{
	{111, 149},
	{111, 149},
	{141, 94},
}

var initRootCbf = [3][NumRootCbfCtx]uint8{
	{79},
	{79},
	{0},
}

// 15 luma entries for block sizes up to 32 followed by 3 chroma entries.
var initLastPos = [3][18]uint8{
	{125, 110, 124, 110, 95, 94, 125, 111, 111, 79, 125, 126, 111, 111, 79,
		108, 123, 93},
	{125, 110, 94, 110, 95, 79, 125, 111, 110, 78, 110, 111, 111, 95, 94,
		108, 123, 108},
	{110, 110, 124, 125, 140, 153, 125, 127, 140, 109, 111, 143, 127, 111, 79,
		108, 123, 63},
}

// Luma last position models including the four used only by 64-point
// transforms, which start equiprobable.
var initLastPosLuma [3][NumLastPosLumaCtx]uint8

func init() {
	for s := range initLastPos {
		copy(initLastPosLuma[s][:], initLastPos[s][:15])
		for i := 15; i < NumLastPosLumaCtx; i++ {
			initLastPosLuma[s][i] = 154
		}
	}
}

// Luma followed by chroma.
var initSubblockCsbf = [3][2 * NumSubblockCsbfCtx]uint8{
	{121, 140, 61, 154},
	{121, 140, 61, 154},
	{91, 171, 134, 141},
}

var initCoeffSig = [3][NumCoeffSigLumaCtx + NumCoeffSigChromaCtx]uint8{
	{170, 154, 139, 153, 139, 123, 123, 63, 124, 166, 183, 140, 136, 153, 154,
		166, 183, 140, 136, 153, 154, 166, 183, 140, 136, 153, 154, 170, 153, 138,
		138, 122, 121, 122, 121, 167, 151, 183, 140, 151, 183, 140},
	{155, 154, 139, 153, 139, 123, 123, 63, 153, 166, 183, 140, 136, 153, 154,
		166, 183, 140, 136, 153, 154, 166, 183, 140, 136, 153, 154, 170, 153, 123,
		123, 107, 121, 107, 121, 167, 151, 183, 140, 151, 183, 140},
	{111, 111, 125, 110, 110, 94, 124, 108, 124, 107, 125, 141, 179, 153, 125,
		107, 125, 141, 179, 153, 125, 107, 125, 141, 179, 153, 125, 140, 139, 182,
		182, 152, 136, 152, 136, 153, 136, 139, 111, 136, 139, 111},
}

var initCoeffGreater1 = [3][NumCoeffGreater1LumaCtx + NumCoeffGreater1ChromaCtx]uint8{
	{154, 196, 167, 167, 154, 152, 167, 182, 182, 134, 149, 136, 153, 121, 136,
		122, 169, 208, 166, 167, 154, 152, 167, 182},
	{154, 196, 196, 167, 154, 152, 167, 182, 182, 134, 149, 136, 153, 121, 136,
		137, 169, 194, 166, 167, 154, 167, 137, 182},
	{140, 92, 137, 138, 140, 152, 138, 139, 153, 74, 149, 92, 139, 107, 122,
		152, 140, 179, 166, 182, 140, 227, 122, 197},
}

var initCoeffGreater2 = [3][NumCoeffGreater2LumaCtx + NumCoeffGreater2ChromaCtx]uint8{
	{107, 167, 91, 107, 107, 167},
	{107, 167, 91, 122, 107, 167},
	{138, 153, 136, 167, 152, 152},
}

var initMvpIdx = [3][NumMvpIdxCtx]uint8{
	{168},
	{168},
	{0},
}

var initSaoMergeFlag = [3][NumSaoMergeFlagCtx]uint8{
	{153},
	{153},
	{153},
}

var initSaoTypeIdx = [3][NumSaoTypeIdxCtx]uint8{
	{160},
	{185},
	{200},
}

var initTransSubdivFlag = [3][NumTransSubdivFlagCtx]uint8{
	{224, 167, 122},
	{124, 138, 94},
	{153, 138, 138},
}

// Luma followed by chroma.
var initTransformSkip = [3][2 * NumTransformSkipCtx]uint8{
	{139, 139},
	{139, 139},
	{139, 139},
}
