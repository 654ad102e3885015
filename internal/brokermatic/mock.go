package brokermatic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/silicondon/columbia-compliance-portal/internal/compliance"
)

// MockClient is the development stand-in for the Brokermatic API. Parse and
// certificate lookups return canned data; compliance checks run the local
// evaluator so mock verdicts match what the portal computes itself.
type MockClient struct{}

// NewMockClient creates a mock Brokermatic client
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) GetUploadURL(ctx context.Context, fileName string) (*UploadURLResponse, error) {
	return &UploadURLResponse{
		UploadURL:  fmt.Sprintf("https://mock-s3.example.com/upload/%s", uuid.New().String()),
		StorageKey: fmt.Sprintf("uploads/mock/%d-%s", time.Now().UnixMilli(), fileName),
		ExpiresIn:  900,
	}, nil
}

func (m *MockClient) ParseCertificate(ctx context.Context, storageKey string) (*ParseResult, error) {
	now := time.Now()
	effective := time.Date(now.Year(), time.January, 15, 0, 0, 0, 0, time.UTC)
	expiration := effective.AddDate(1, 0, 0)

	return &ParseResult{
		CertificateNumber: fmt.Sprintf("CERT-%d", now.UnixMilli()),
		IssueDate:         now.Format("2006-01-02"),
		NamedInsured: Party{
			Name:    "Sample Vendor Corp",
			Address: Address{Street: "123 Main St", City: "New York", State: "NY", Zip: "10001"},
		},
		CertificateHolder: Party{
			Name:    "Columbia University",
			Address: Address{Street: "2960 Broadway", City: "New York", State: "NY", Zip: "10027"},
		},
		Coverages: []Coverage{
			{
				Type:                 "general_liability",
				InsurerName:          "Hartford Fire Insurance",
				PolicyNumber:         fmt.Sprintf("GL-%d-001", now.Year()),
				PolicyEffectiveDate:  effective.Format("2006-01-02"),
				PolicyExpirationDate: expiration.Format("2006-01-02"),
				Limits:               map[string]float64{"eachOccurrence": 2000000, "aggregate": 4000000},
				Flags:                map[string]bool{"additionalInsured": true, "waiverOfSubrogation": true},
			},
			{
				Type:                 "auto_liability",
				InsurerName:          "Hartford Fire Insurance",
				PolicyNumber:         fmt.Sprintf("AU-%d-001", now.Year()),
				PolicyEffectiveDate:  effective.Format("2006-01-02"),
				PolicyExpirationDate: expiration.Format("2006-01-02"),
				Limits:               map[string]float64{"combinedSingleLimit": 1000000},
				Flags:                map[string]bool{},
			},
			{
				Type:                 "workers_compensation",
				InsurerName:          "Hartford Fire Insurance",
				PolicyNumber:         fmt.Sprintf("WC-%d-001", now.Year()),
				PolicyEffectiveDate:  effective.Format("2006-01-02"),
				PolicyExpirationDate: expiration.Format("2006-01-02"),
				Limits:               map[string]float64{"eachAccident": 1000000, "diseaseEachEmployee": 1000000},
				Flags:                map[string]bool{"waiverOfSubrogation": true},
			},
		},
		Confidence: 0.94,
		Warnings:   []string{},
	}, nil
}

func (m *MockClient) SubmitRequirements(ctx context.Context, sub RequirementSubmission) (*RequirementResponse, error) {
	now := time.Now().UTC()
	return &RequirementResponse{
		ID:        fmt.Sprintf("req_%d", now.UnixMilli()),
		RequestID: mockRequestID(now),
		Status:    "pending",
		CreatedAt: now.Format(time.RFC3339),
	}, nil
}

func (m *MockClient) CreateCertificate(ctx context.Context, insuredID string, coverages []Coverage) (*Certificate, error) {
	now := time.Now().UTC()
	return &Certificate{
		ID:                fmt.Sprintf("cert_%s", uuid.New().String()[:8]),
		CertificateNumber: fmt.Sprintf("CERT-%d", now.UnixMilli()),
		Status:            "active",
		ComplianceStatus:  "compliant",
		NamedInsured:      Party{Name: insuredID},
		Coverages:         coverages,
	}, nil
}

// CheckCompliance delegates to the local evaluator
func (m *MockClient) CheckCompliance(ctx context.Context, certificateID string, spec compliance.Requirements, certs []compliance.CertificateInput) (*compliance.Result, error) {
	return compliance.Evaluate(spec, certs, time.Now().UTC())
}

func (m *MockClient) GetCertificate(ctx context.Context, id string) (*Certificate, error) {
	now := time.Now()
	effective := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	expiration := effective.AddDate(1, 0, 0)
	days := int(expiration.Sub(now).Hours() / 24)

	return &Certificate{
		ID:                  id,
		CertificateNumber:   fmt.Sprintf("CERT-%d-MOCK", now.Year()),
		Status:              "active",
		ComplianceStatus:    "compliant",
		EffectiveDate:       effective.Format(time.RFC3339),
		ExpirationDate:      expiration.Format(time.RFC3339),
		DaysUntilExpiration: days,
		NamedInsured: Party{
			Name:    "ABC Construction LLC",
			Address: Address{Street: "123 Main St", City: "New York", State: "NY", Zip: "10001"},
		},
		CertificateHolder: Party{
			Name:    "Columbia University",
			Address: Address{Street: "615 West 131st Street", City: "New York", State: "NY", Zip: "10027"},
		},
		Coverages: []Coverage{
			{
				Type:                 "general_liability",
				InsurerName:          "Hartford Fire Insurance",
				PolicyNumber:         fmt.Sprintf("GL-%d-001", now.Year()),
				PolicyEffectiveDate:  effective.Format(time.RFC3339),
				PolicyExpirationDate: expiration.Format(time.RFC3339),
				Limits:               map[string]float64{"eachOccurrence": 2000000, "aggregate": 4000000},
				Flags:                map[string]bool{"additionalInsured": true, "waiverOfSubrogation": true, "primaryNonContributory": true},
			},
			{
				Type:                 "workers_compensation",
				InsurerName:          "State Compensation Insurance Fund",
				PolicyNumber:         fmt.Sprintf("WC-%d-001", now.Year()),
				PolicyEffectiveDate:  effective.Format(time.RFC3339),
				PolicyExpirationDate: expiration.Format(time.RFC3339),
				Limits:               map[string]float64{"elEachAccident": 500000, "elDiseaseEachEmployee": 500000},
				Flags:                map[string]bool{"waiverOfSubrogation": true},
			},
			{
				Type:                 "auto_liability",
				InsurerName:          "Progressive Insurance",
				PolicyNumber:         fmt.Sprintf("CA-%d-001", now.Year()),
				PolicyEffectiveDate:  effective.Format(time.RFC3339),
				PolicyExpirationDate: expiration.Format(time.RFC3339),
				Limits:               map[string]float64{"combinedSingleLimit": 1000000},
				Flags:                map[string]bool{"additionalInsured": true},
			},
		},
	}, nil
}

func (m *MockClient) DownloadCertificate(ctx context.Context, id string) (*DocumentDownload, error) {
	return &DocumentDownload{
		URL:       "https://mock-s3.example.com/download/mock-cert.pdf",
		ExpiresAt: time.Now().Add(15 * time.Minute).Format(time.RFC3339),
	}, nil
}

// mockRequestID builds ids like REQ-20260310-AB12, matching the format the
// real platform issues
func mockRequestID(now time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("REQ-%s-%s", now.Format("20060102"), suffix)
}
