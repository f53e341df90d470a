// Package restrictions defines the feature-disable flags carried in the
// segment header.
//
// A zero Restrictions value enables every tool. Each set flag replaces a
// context derivation or coding tool with its simplified fallback. The value
// is shared read-only for the duration of a segment.
package restrictions

// Restrictions is the complete set of feature-disable flags.
type Restrictions struct {
	// Intra
	DisableIntraRefPadding       bool
	DisableIntraRefSampleFilter  bool
	DisableIntraDCPostFilter     bool
	DisableIntraVerHorPostFilter bool
	DisableIntraPlanar           bool
	DisableIntraMpmPrediction    bool
	DisableIntraChromaPredictor  bool

	// Inter
	DisableInterMvp                   bool
	DisableInterScalingMvp            bool
	DisableInterTmvpMvp               bool
	DisableInterTmvpMerge             bool
	DisableInterTmvpRefListDerivation bool
	DisableInterMergeCandidates       bool
	DisableInterMergeMode             bool
	DisableInterMergeBipred           bool
	DisableInterSkipMode              bool
	DisableInterChromaSubpel          bool
	DisableInterMvdGreaterThanFlags   bool
	DisableInterBipred                bool

	// Transform and residual coding
	DisableTransformAdaptiveScanOrder         bool
	DisableTransformResidualGreaterThanFlags  bool
	DisableTransformResidualGreater2          bool
	DisableTransformLastPosition              bool
	DisableTransformRootCbf                   bool
	DisableTransformCbf                       bool
	DisableTransformSubblockCsbf              bool
	DisableTransformSignHiding                bool
	DisableTransformAdaptiveExpGolomb         bool

	// CABAC
	DisableCabacCtxUpdate         bool
	DisableCabacSplitFlagCtx      bool
	DisableCabacSkipFlagCtx       bool
	DisableCabacInterDirCtx       bool
	DisableCabacSubblockCsbfCtx   bool
	DisableCabacCoeffSigCtx       bool
	DisableCabacCoeffGreater1Ctx  bool
	DisableCabacCoeffGreater2Ctx  bool
	DisableCabacCoeffLastPosCtx   bool
	DisableCabacInitPerPicType    bool
	DisableCabacInitPerQp         bool

	// Deblocking
	DisableDeblockStrongFilter           bool
	DisableDeblockWeakFilter             bool
	DisableDeblockChromaFilter           bool
	DisableDeblockBoundaryStrengthZero   bool
	DisableDeblockBoundaryStrengthOne    bool
	DisableDeblockInitialSampleDecision  bool
	DisableDeblockWeakSampleDecision     bool
	DisableDeblockTwoSamplesWeakFilter   bool
	DisableDeblockDependingOnQp          bool

	// High level
	DisableHighLevelDefaultChecksumMethod bool

	// Extensions
	DisableExtSink                        bool
	DisableExtImplicitLastCtu             bool
	DisableExtTmvpFullResolution          bool
	DisableExtTmvpExcludeIntraFromRefList bool
	DisableExtRefListL0Trim               bool
	DisableExtImplicitPartitionType       bool
	DisableExtCabacAltSplitFlagCtx        bool
	DisableExtCabacAltInterDirCtx         bool
	DisableExtCabacAltLastPosCtx          bool
	DisableExtTwoCuTrees                  bool
	DisableExtTransformSize64             bool
	DisableExtIntraUnrestrictedPredictor  bool
	DisableExtDeblockSubblockSize4        bool
}

// Group identifies one of the independently signaled flag groups.
type Group int

const (
	GroupIntra Group = iota
	GroupInter
	GroupTransform
	GroupCabac
	GroupDeblock
	GroupHighLevel
	GroupExt
	NumGroups
)

// String returns the group name.
func (g Group) String() string {
	switch g {
	case GroupIntra:
		return "intra"
	case GroupInter:
		return "inter"
	case GroupTransform:
		return "transform"
	case GroupCabac:
		return "cabac"
	case GroupDeblock:
		return "deblock"
	case GroupHighLevel:
		return "high_level"
	case GroupExt:
		return "ext"
	default:
		return "unknown"
	}
}

// Flags returns pointers to the flags of group g in bitstream order.
func (r *Restrictions) Flags(g Group) []*bool {
	switch g {
	case GroupIntra:
		return []*bool{
			&r.DisableIntraRefPadding,
			&r.DisableIntraRefSampleFilter,
			&r.DisableIntraDCPostFilter,
			&r.DisableIntraVerHorPostFilter,
			&r.DisableIntraPlanar,
			&r.DisableIntraMpmPrediction,
			&r.DisableIntraChromaPredictor,
		}
	case GroupInter:
		return []*bool{
			&r.DisableInterMvp,
			&r.DisableInterScalingMvp,
			&r.DisableInterTmvpMvp,
			&r.DisableInterTmvpMerge,
			&r.DisableInterTmvpRefListDerivation,
			&r.DisableInterMergeCandidates,
			&r.DisableInterMergeMode,
			&r.DisableInterMergeBipred,
			&r.DisableInterSkipMode,
			&r.DisableInterChromaSubpel,
			&r.DisableInterMvdGreaterThanFlags,
			&r.DisableInterBipred,
		}
	case GroupTransform:
		return []*bool{
			&r.DisableTransformAdaptiveScanOrder,
			&r.DisableTransformResidualGreaterThanFlags,
			&r.DisableTransformResidualGreater2,
			&r.DisableTransformLastPosition,
			&r.DisableTransformRootCbf,
			&r.DisableTransformCbf,
			&r.DisableTransformSubblockCsbf,
			&r.DisableTransformSignHiding,
			&r.DisableTransformAdaptiveExpGolomb,
		}
	case GroupCabac:
		return []*bool{
			&r.DisableCabacCtxUpdate,
			&r.DisableCabacSplitFlagCtx,
			&r.DisableCabacSkipFlagCtx,
			&r.DisableCabacInterDirCtx,
			&r.DisableCabacSubblockCsbfCtx,
			&r.DisableCabacCoeffSigCtx,
			&r.DisableCabacCoeffGreater1Ctx,
			&r.DisableCabacCoeffGreater2Ctx,
			&r.DisableCabacCoeffLastPosCtx,
			&r.DisableCabacInitPerPicType,
			&r.DisableCabacInitPerQp,
		}
	case GroupDeblock:
		return []*bool{
			&r.DisableDeblockStrongFilter,
			&r.DisableDeblockWeakFilter,
			&r.DisableDeblockChromaFilter,
			&r.DisableDeblockBoundaryStrengthZero,
			&r.DisableDeblockBoundaryStrengthOne,
			&r.DisableDeblockInitialSampleDecision,
			&r.DisableDeblockWeakSampleDecision,
			&r.DisableDeblockTwoSamplesWeakFilter,
			&r.DisableDeblockDependingOnQp,
		}
	case GroupHighLevel:
		return []*bool{
			&r.DisableHighLevelDefaultChecksumMethod,
		}
	case GroupExt:
		return []*bool{
			&r.DisableExtSink,
			&r.DisableExtImplicitLastCtu,
			&r.DisableExtTmvpFullResolution,
			&r.DisableExtTmvpExcludeIntraFromRefList,
			&r.DisableExtRefListL0Trim,
			&r.DisableExtImplicitPartitionType,
			&r.DisableExtCabacAltSplitFlagCtx,
			&r.DisableExtCabacAltInterDirCtx,
			&r.DisableExtCabacAltLastPosCtx,
			&r.DisableExtTwoCuTrees,
			&r.DisableExtTransformSize64,
			&r.DisableExtIntraUnrestrictedPredictor,
			&r.DisableExtDeblockSubblockSize4,
		}
	}
	return nil
}

// Any reports whether at least one flag of group g is set.
func (r *Restrictions) Any(g Group) bool {
	for _, f := range r.Flags(g) {
		if *f {
			return true
		}
	}
	return false
}
