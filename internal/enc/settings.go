package enc

// SpeedMode selects an encoder speed preset.
type SpeedMode int

const (
	SpeedPlacebo SpeedMode = iota
	SpeedSlow
)

func (m SpeedMode) String() string {
	switch m {
	case SpeedPlacebo:
		return "placebo"
	case SpeedSlow:
		return "slow"
	}
	return "unknown"
}

// RestrictedMode selects the encoder preset paired with a restricted
// profile.
type RestrictedMode int

const (
	Unrestricted RestrictedMode = iota
	RestrictedModeA
	RestrictedModeB
)

// TuneMode adjusts a preset toward an objective metric.
type TuneMode int

const (
	TuneDefault TuneMode = iota
	TunePSNR
)

// DefaultSearchRange is the full-search window in integer samples.
const DefaultSearchRange = 8

// Settings control the mode decision. The zero value is not usable; start
// from NewSettings.
type Settings struct {
	// FastIntraModeEvalLevel above zero pre-ranks luma modes by SAD and only
	// fully evaluates the best two.
	FastIntraModeEvalLevel int
	// FastMergeEval stops the full merge evaluation once a skip candidate
	// beats every non-skip candidate.
	FastMergeEval              bool
	BipredRefinementIterations int
	AlwaysEvaluateIntraInInter bool
	DefaultNumRefPics          int
	AdaptiveQp                 int
	ChromaQpOffsetTable        int
	ChromaQpOffsetU            int
	ChromaQpOffsetV            int
	RestrictedMode             RestrictedMode
	SearchRange                int

	// StrictRdo prices skip and root cbf decisions with the exact syntax
	// in every merge candidate, at the cost of speed.
	StrictRdo bool
}

// NewSettings returns the preset for speed.
func NewSettings(speed SpeedMode) Settings {
	s := Settings{
		AdaptiveQp:          1,
		ChromaQpOffsetTable: 1,
		SearchRange:         DefaultSearchRange,
	}
	switch speed {
	case SpeedPlacebo:
		s.FastIntraModeEvalLevel = 0
		s.FastMergeEval = false
		s.BipredRefinementIterations = 4
		s.AlwaysEvaluateIntraInInter = true
		s.DefaultNumRefPics = 3
	default:
		s.FastIntraModeEvalLevel = 1
		s.FastMergeEval = true
		s.BipredRefinementIterations = 1
		s.AlwaysEvaluateIntraInInter = false
		s.DefaultNumRefPics = 2
	}
	return s
}

// ApplyRestrictedMode overrides the preset for a restricted profile.
func (s *Settings) ApplyRestrictedMode(mode RestrictedMode) {
	s.RestrictedMode = mode
	switch mode {
	case RestrictedModeA:
		s.FastIntraModeEvalLevel = 1
		s.FastMergeEval = false
		s.BipredRefinementIterations = 1
		s.AlwaysEvaluateIntraInInter = false
		s.DefaultNumRefPics = 2
		s.AdaptiveQp = 0
		s.ChromaQpOffsetTable = 1
		s.ChromaQpOffsetU = 0
		s.ChromaQpOffsetV = 0
	case RestrictedModeB:
		s.FastIntraModeEvalLevel = 2
		s.FastMergeEval = true
		s.BipredRefinementIterations = 1
		s.AlwaysEvaluateIntraInInter = false
		s.DefaultNumRefPics = 2
		s.AdaptiveQp = 0
		s.ChromaQpOffsetTable = 1
		s.ChromaQpOffsetU = 1
		s.ChromaQpOffsetV = 1
	}
}

// Tune applies a tune mode on top of the preset.
func (s *Settings) Tune(mode TuneMode) {
	if mode == TunePSNR {
		s.AdaptiveQp = 0
		s.ChromaQpOffsetTable = 0
		s.ChromaQpOffsetU = 1
		s.ChromaQpOffsetV = 1
	}
}
