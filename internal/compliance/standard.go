package compliance

// Standard Columbia University minimums for vendors and contractors
// performing work on university premises. Used when a vendor has no
// tailored InsuranceRequirement on file and as the baseline for new
// certificate requests.
const (
	StandardGLEachOccurrence   = 2_000_000
	StandardGLAggregate        = 4_000_000
	StandardAutoCombinedSingle = 1_000_000
	StandardExcessOccurrence   = 5_000_000
)

// StandardRequirements returns the university's default requirement
// specification: commercial general liability with additional-insured and
// waiver-of-subrogation endorsements, plus statutory workers compensation.
// Auto and excess coverage are situational and added by tailored
// requirements, not the default.
func StandardRequirements() Requirements {
	return Requirements{
		CoverageGeneralLiability: {
			MinLimits: map[string]int64{
				LimitEachOccurrence: StandardGLEachOccurrence,
				LimitAggregate:      StandardGLAggregate,
			},
			RequiredFlags: []string{
				FlagAdditionalInsured,
				FlagWaiverOfSubrogation,
			},
		},
		CoverageWorkersComp: {},
	}
}
