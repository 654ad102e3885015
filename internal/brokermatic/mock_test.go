package brokermatic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silicondon/columbia-compliance-portal/internal/compliance"
)

func TestMockParseCertificateCoverages(t *testing.T) {
	client := NewMockClient()

	parsed, err := client.ParseCertificate(context.Background(), "uploads/mock/test.pdf")
	require.NoError(t, err)

	require.Len(t, parsed.Coverages, 3)
	assert.Equal(t, "Columbia University", parsed.CertificateHolder.Name)
	assert.Greater(t, parsed.Confidence, 0.9)

	gl := parsed.Coverages[0].ToInput()
	assert.Equal(t, compliance.CoverageGeneralLiability, gl.CoverageType)
	assert.Equal(t, int64(2000000), gl.Limits["eachOccurrence"])
	assert.True(t, gl.Flags["additionalInsured"])
	require.NotNil(t, gl.ExpirationDate)
}

func TestMockSubmitRequirements(t *testing.T) {
	client := NewMockClient()

	resp, err := client.SubmitRequirements(context.Background(), RequirementSubmission{
		HolderID:    "ch_columbia_gc",
		InsuredName: "Acme Construction",
		Requirements: RequirementSpec{
			GeneralLiability: &GeneralLiabilityRequirement{
				Required:                 true,
				MinLimits:                &LimitPair{EachOccurrence: 2000000, GeneralAggregate: 4000000},
				RequireAdditionalInsured: true,
			},
			WorkersCompensation: &WorkersCompRequirement{Required: true, RequireStatutoryLimits: true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "pending", resp.Status)
	assert.Regexp(t, `^REQ-\d{8}-[0-9A-F]{4}$`, resp.RequestID)
}

func TestMockCheckComplianceUsesEvaluator(t *testing.T) {
	client := NewMockClient()

	cert, err := client.GetCertificate(context.Background(), "cert_001")
	require.NoError(t, err)

	result, err := client.CheckCompliance(context.Background(), cert.ID,
		compliance.StandardRequirements(), cert.CoverageInputs())
	require.NoError(t, err)

	assert.Equal(t, compliance.StatusCompliant, result.Status)
	assert.Empty(t, result.CriticalGaps())
}
