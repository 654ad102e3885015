package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var evalDate = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func datePtr(t time.Time) *time.Time {
	return &t
}

func glRequirement() Requirements {
	return Requirements{
		CoverageGeneralLiability: {
			MinLimits: map[string]int64{
				LimitEachOccurrence: 2_000_000,
			},
		},
	}
}

func TestEvaluateMissingCoverage(t *testing.T) {
	result, err := Evaluate(glRequirement(), nil, evalDate)
	require.NoError(t, err)

	assert.Equal(t, StatusNonCompliant, result.Status)
	require.Len(t, result.Gaps, 1)
	assert.Equal(t, GapMissingCoverage, result.Gaps[0].Kind)
	assert.Equal(t, CoverageGeneralLiability, result.Gaps[0].CoverageType)
	assert.Equal(t, SeverityCritical, result.Gaps[0].Severity)
	require.Len(t, result.Coverages, 1)
	assert.Equal(t, CoverageFail, result.Coverages[0].Status)
	assert.False(t, result.Coverages[0].Found)
}

func TestEvaluateMissingCoverageAlongsidePassing(t *testing.T) {
	spec := Requirements{
		CoverageGeneralLiability: {
			MinLimits: map[string]int64{LimitEachOccurrence: 2_000_000},
		},
		CoverageWorkersComp: {},
	}
	certs := []CertificateInput{
		{
			CoverageType:   CoverageGeneralLiability,
			PolicyNumber:   "GL-2026-002",
			Limits:         map[string]int64{LimitEachOccurrence: 2_000_000},
			ExpirationDate: datePtr(evalDate.AddDate(1, 0, 0)),
		},
	}

	result, err := Evaluate(spec, certs, evalDate)
	require.NoError(t, err)

	// A coverage with no certificate on file fails the aggregate even when
	// every other required coverage passes
	assert.Equal(t, StatusNonCompliant, result.Status)
	require.Len(t, result.Coverages, 2)
	assert.Equal(t, CoveragePass, result.Coverages[0].Status)
	assert.Equal(t, CoverageFail, result.Coverages[1].Status)
	assert.False(t, result.Coverages[1].Found)
	require.Len(t, result.Gaps, 1)
	assert.Equal(t, GapMissingCoverage, result.Gaps[0].Kind)
	assert.Equal(t, CoverageWorkersComp, result.Gaps[0].CoverageType)
}

func TestEvaluateInsufficientLimit(t *testing.T) {
	certs := []CertificateInput{
		{
			CoverageType:   CoverageGeneralLiability,
			PolicyNumber:   "GL-2026-001",
			Limits:         map[string]int64{LimitEachOccurrence: 1_000_000},
			ExpirationDate: datePtr(evalDate.AddDate(1, 0, 0)),
		},
	}

	result, err := Evaluate(glRequirement(), certs, evalDate)
	require.NoError(t, err)

	assert.Equal(t, StatusNonCompliant, result.Status)
	require.Len(t, result.Gaps, 1)
	gap := result.Gaps[0]
	assert.Equal(t, GapInsufficientLimits, gap.Kind)
	assert.Equal(t, LimitEachOccurrence, gap.LimitName)
	assert.Equal(t, int64(2_000_000), gap.Required)
	assert.Equal(t, int64(1_000_000), gap.Actual)
	assert.Contains(t, gap.Message, "$2,000,000")
	assert.Contains(t, gap.Message, "$1,000,000")
}

func TestEvaluateMissingLimitTreatedAsZero(t *testing.T) {
	certs := []CertificateInput{
		{
			CoverageType:   CoverageGeneralLiability,
			Limits:         map[string]int64{},
			ExpirationDate: datePtr(evalDate.AddDate(1, 0, 0)),
		},
	}

	result, err := Evaluate(glRequirement(), certs, evalDate)
	require.NoError(t, err)

	require.Len(t, result.Gaps, 1)
	assert.Equal(t, int64(0), result.Gaps[0].Actual)
}

func TestEvaluateExpirationBoundary(t *testing.T) {
	tests := []struct {
		name       string
		expiration time.Time
		expired    bool
	}{
		{"expired yesterday", evalDate.AddDate(0, 0, -1), true},
		{"expires today", evalDate, false},
		{"expires tomorrow", evalDate.AddDate(0, 0, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certs := []CertificateInput{
				{
					CoverageType:   CoverageGeneralLiability,
					PolicyNumber:   "GL-2026-001",
					Limits:         map[string]int64{LimitEachOccurrence: 2_000_000},
					ExpirationDate: datePtr(tt.expiration),
				},
			}

			result, err := Evaluate(glRequirement(), certs, evalDate)
			require.NoError(t, err)

			hasExpiredGap := false
			for _, g := range result.Gaps {
				if g.Kind == GapExpired {
					hasExpiredGap = true
				}
			}
			assert.Equal(t, tt.expired, hasExpiredGap)
			if tt.expired {
				assert.Equal(t, StatusNonCompliant, result.Status)
			} else {
				assert.Equal(t, StatusCompliant, result.Status)
			}
		})
	}
}

func TestEvaluateExpiredOverridesSufficientLimits(t *testing.T) {
	certs := []CertificateInput{
		{
			CoverageType:   CoverageGeneralLiability,
			PolicyNumber:   "GL-2025-001",
			Limits:         map[string]int64{LimitEachOccurrence: 5_000_000},
			ExpirationDate: datePtr(evalDate.AddDate(0, -2, 0)),
		},
	}

	result, err := Evaluate(glRequirement(), certs, evalDate)
	require.NoError(t, err)

	assert.Equal(t, StatusNonCompliant, result.Status)
	require.Len(t, result.Gaps, 1)
	assert.Equal(t, GapExpired, result.Gaps[0].Kind)
	assert.Equal(t, CoverageFail, result.Coverages[0].Status)
}

func TestEvaluateNilExpirationNeverExpires(t *testing.T) {
	certs := []CertificateInput{
		{
			CoverageType: CoverageGeneralLiability,
			Limits:       map[string]int64{LimitEachOccurrence: 2_000_000},
		},
	}

	result, err := Evaluate(glRequirement(), certs, evalDate)
	require.NoError(t, err)

	assert.Equal(t, StatusCompliant, result.Status)
	assert.Empty(t, result.Gaps)
	assert.Equal(t, CoveragePass, result.Coverages[0].Status)
}

func TestEvaluateExpiringSoonWarning(t *testing.T) {
	certs := []CertificateInput{
		{
			CoverageType:   CoverageGeneralLiability,
			PolicyNumber:   "GL-2026-001",
			Limits:         map[string]int64{LimitEachOccurrence: 2_000_000},
			ExpirationDate: datePtr(evalDate.AddDate(0, 0, 20)),
		},
	}

	result, err := Evaluate(glRequirement(), certs, evalDate)
	require.NoError(t, err)

	// A near-expiration warning never blocks compliance on its own
	assert.Equal(t, StatusCompliant, result.Status)
	assert.Equal(t, CoverageWarning, result.Coverages[0].Status)
	require.Len(t, result.Gaps, 1)
	assert.Equal(t, GapExpiringSoon, result.Gaps[0].Kind)
	assert.Equal(t, SeverityInfo, result.Gaps[0].Severity)
}

func TestEvaluateMissingFlagScenario(t *testing.T) {
	// Vendor holds adequate GL limits but lacks the additional-insured
	// endorsement; the certificate expires in 45 days.
	spec := Requirements{
		CoverageGeneralLiability: {
			MinLimits: map[string]int64{
				LimitEachOccurrence: 2_000_000,
				LimitAggregate:      4_000_000,
			},
			RequiredFlags: []string{FlagAdditionalInsured},
		},
	}
	certs := []CertificateInput{
		{
			CoverageType: CoverageGeneralLiability,
			PolicyNumber: "GL-2026-004",
			Limits: map[string]int64{
				LimitEachOccurrence: 2_000_000,
				LimitAggregate:      4_000_000,
			},
			Flags:          map[string]bool{FlagAdditionalInsured: false},
			ExpirationDate: datePtr(evalDate.AddDate(0, 0, 45)),
		},
	}

	result, err := Evaluate(spec, certs, evalDate)
	require.NoError(t, err)

	assert.Equal(t, StatusNonCompliant, result.Status)
	require.Len(t, result.Gaps, 1)
	assert.Equal(t, GapMissingFlag, result.Gaps[0].Kind)
	assert.Equal(t, FlagAdditionalInsured, result.Gaps[0].Flag)
}

func TestEvaluateMultiCoverageAggregate(t *testing.T) {
	spec := Requirements{
		CoverageGeneralLiability: {
			MinLimits: map[string]int64{LimitEachOccurrence: 2_000_000},
		},
		CoverageWorkersComp:   {},
		CoverageAutoLiability: {MinLimits: map[string]int64{LimitCombinedSingleLimit: 1_000_000}},
	}
	future := datePtr(evalDate.AddDate(1, 0, 0))
	certs := []CertificateInput{
		{CoverageType: CoverageGeneralLiability, Limits: map[string]int64{LimitEachOccurrence: 2_000_000}, ExpirationDate: future},
		{CoverageType: CoverageWorkersComp, ExpirationDate: future},
		{CoverageType: CoverageAutoLiability, Limits: map[string]int64{LimitCombinedSingleLimit: 500_000}, ExpirationDate: future},
	}

	result, err := Evaluate(spec, certs, evalDate)
	require.NoError(t, err)

	// One coverage failing makes the vendor non-compliant even when the
	// others pass; "partial" is a display concern, not an evaluator output.
	assert.Equal(t, StatusNonCompliant, result.Status)
	require.Len(t, result.Coverages, 3)
	assert.Equal(t, CoveragePass, result.Coverages[0].Status)
	assert.Equal(t, CoveragePass, result.Coverages[1].Status)
	assert.Equal(t, CoverageFail, result.Coverages[2].Status)
}

func TestEvaluateIdempotent(t *testing.T) {
	spec := Requirements{
		CoverageGeneralLiability: {
			MinLimits:     map[string]int64{LimitEachOccurrence: 2_000_000, LimitAggregate: 4_000_000},
			RequiredFlags: []string{FlagAdditionalInsured, FlagWaiverOfSubrogation},
		},
		CoverageExcessLiability: {
			MinLimits: map[string]int64{LimitEachOccurrence: 5_000_000},
		},
	}
	certs := []CertificateInput{
		{
			CoverageType:   CoverageGeneralLiability,
			PolicyNumber:   "GL-2026-010",
			Limits:         map[string]int64{LimitEachOccurrence: 1_000_000},
			ExpirationDate: datePtr(evalDate.AddDate(0, 0, 10)),
		},
	}

	first, err := Evaluate(spec, certs, evalDate)
	require.NoError(t, err)
	second, err := Evaluate(spec, certs, evalDate)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEvaluateNegativeLimitFailsLoudly(t *testing.T) {
	spec := Requirements{
		CoverageGeneralLiability: {
			MinLimits: map[string]int64{LimitEachOccurrence: -1},
		},
	}

	result, err := Evaluate(spec, nil, evalDate)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequirement)
	assert.Nil(t, result)
}

func TestEvaluatePicksLatestCertificatePerType(t *testing.T) {
	old := datePtr(evalDate.AddDate(0, -1, 0))
	fresh := datePtr(evalDate.AddDate(1, 0, 0))
	certs := []CertificateInput{
		{CoverageType: CoverageGeneralLiability, PolicyNumber: "GL-OLD", Limits: map[string]int64{LimitEachOccurrence: 2_000_000}, ExpirationDate: old},
		{CoverageType: CoverageGeneralLiability, PolicyNumber: "GL-NEW", Limits: map[string]int64{LimitEachOccurrence: 2_000_000}, ExpirationDate: fresh},
	}

	result, err := Evaluate(glRequirement(), certs, evalDate)
	require.NoError(t, err)

	assert.Equal(t, StatusCompliant, result.Status)
	assert.Equal(t, "GL-NEW", result.Coverages[0].PolicyNumber)
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, time.March, 10, 17, 45, 0, 0, time.UTC)

	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{"same day earlier hour", time.Date(2026, time.March, 10, 2, 0, 0, 0, time.UTC), 0},
		{"tomorrow", time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC), 1},
		{"yesterday", time.Date(2026, time.March, 9, 23, 59, 0, 0, time.UTC), -1},
		{"ninety days", time.Date(2026, time.June, 8, 0, 0, 0, 0, time.UTC), 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntil(tt.date, now))
		})
	}
}

func TestParseCoverageType(t *testing.T) {
	tests := []struct {
		input string
		want  CoverageType
		ok    bool
	}{
		{"gl", CoverageGeneralLiability, true},
		{"general_liability", CoverageGeneralLiability, true},
		{"workers_comp", CoverageWorkersComp, true},
		{"UMBRELLA", CoverageExcessLiability, true},
		{"commercial_auto", CoverageAutoLiability, true},
		{"environmental", CoverageEnvironmental, true},
		{"cyber", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseCoverageType(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "2,000,000", formatAmount(2_000_000))
	assert.Equal(t, "500", formatAmount(500))
	assert.Equal(t, "1,000", formatAmount(1_000))
	assert.Equal(t, "0", formatAmount(0))
}
