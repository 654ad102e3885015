// Package brokermatic is the client for the Brokermatic Smart COI API, the
// external broker platform that collects certificates of insurance on
// Columbia's behalf. Until the production API is live the mock client stands
// in for it.
package brokermatic

import (
	"time"

	"github.com/silicondon/columbia-compliance-portal/internal/compliance"
)

// Webhook event types delivered by Brokermatic
const (
	EventCertificateIssued   = "certificate.issued"
	EventCertificateUpdated  = "certificate.updated"
	EventCertificateExpiring = "certificate.expiring"
	EventCertificateExpired  = "certificate.expired"
	EventPolicyCancelled     = "policy.cancelled"
	EventPolicyRenewed       = "policy.renewed"
	EventComplianceGap       = "compliance.gap"
)

// KnownEvents lists every webhook event type this service handles
var KnownEvents = []string{
	EventCertificateIssued,
	EventCertificateUpdated,
	EventCertificateExpiring,
	EventCertificateExpired,
	EventPolicyCancelled,
	EventPolicyRenewed,
	EventComplianceGap,
}

// Address is a postal address as Brokermatic represents it
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// Party is a named insured or certificate holder on a certificate
type Party struct {
	Name    string  `json:"name"`
	Address Address `json:"address"`
}

// Coverage is a single coverage line on a Brokermatic certificate
type Coverage struct {
	Type                 string             `json:"type"`
	InsurerName          string             `json:"insurerName"`
	PolicyNumber         string             `json:"policyNumber"`
	PolicyEffectiveDate  string             `json:"policyEffectiveDate"`
	PolicyExpirationDate string             `json:"policyExpirationDate"`
	Limits               map[string]float64 `json:"limits"`
	Flags                map[string]bool    `json:"flags"`
}

// ToInput converts a wire coverage into an evaluator input. Unparseable
// coverage types and dates degrade to zero values rather than failing the
// whole certificate.
func (c Coverage) ToInput() compliance.CertificateInput {
	in := compliance.CertificateInput{
		PolicyNumber: c.PolicyNumber,
		Limits:       map[string]int64{},
		Flags:        map[string]bool{},
	}
	if ct, ok := compliance.ParseCoverageType(c.Type); ok {
		in.CoverageType = ct
	}
	for name, value := range c.Limits {
		in.Limits[name] = int64(value)
	}
	for name, value := range c.Flags {
		in.Flags[name] = value
	}
	if exp, err := time.Parse(time.RFC3339, c.PolicyExpirationDate); err == nil {
		in.ExpirationDate = &exp
	} else if exp, err := time.Parse("2006-01-02", c.PolicyExpirationDate); err == nil {
		in.ExpirationDate = &exp
	}
	return in
}

// Certificate is a certificate of insurance as Brokermatic serves it
type Certificate struct {
	ID                  string     `json:"id"`
	CertificateNumber   string     `json:"certificateNumber"`
	Status              string     `json:"status"`
	ComplianceStatus    string     `json:"complianceStatus"`
	EffectiveDate       string     `json:"effectiveDate"`
	ExpirationDate      string     `json:"expirationDate"`
	DaysUntilExpiration int        `json:"daysUntilExpiration"`
	NamedInsured        Party      `json:"namedInsured"`
	CertificateHolder   Party      `json:"certificateHolder"`
	Coverages           []Coverage `json:"coverages"`
}

// CoverageInputs converts every coverage line to evaluator inputs
func (c *Certificate) CoverageInputs() []compliance.CertificateInput {
	inputs := make([]compliance.CertificateInput, 0, len(c.Coverages))
	for _, cov := range c.Coverages {
		inputs = append(inputs, cov.ToInput())
	}
	return inputs
}

// UploadURLResponse is a presigned upload slot for a certificate document
type UploadURLResponse struct {
	UploadURL  string `json:"uploadUrl"`
	StorageKey string `json:"storageKey"`
	ExpiresIn  int    `json:"expiresIn"`
}

// DocumentDownload is a short-lived link to a stored certificate PDF
type DocumentDownload struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}

// ParseResult is the AI extraction output for an uploaded certificate
type ParseResult struct {
	CertificateNumber string     `json:"certificateNumber"`
	IssueDate         string     `json:"issueDate"`
	NamedInsured      Party      `json:"namedInsured"`
	CertificateHolder Party      `json:"certificateHolder"`
	Coverages         []Coverage `json:"coverages"`
	Confidence        float64    `json:"confidence"`
	Warnings          []string   `json:"warnings"`
}

// LimitPair is a required min-limit pair on a requirement submission
type LimitPair struct {
	EachOccurrence   int64 `json:"eachOccurrence,omitempty"`
	GeneralAggregate int64 `json:"generalAggregate,omitempty"`
}

// GeneralLiabilityRequirement is the GL section of a requirement submission
type GeneralLiabilityRequirement struct {
	Required                      bool       `json:"required"`
	MinLimits                     *LimitPair `json:"minLimits,omitempty"`
	RequireAdditionalInsured      bool       `json:"requireAdditionalInsured,omitempty"`
	RequireWaiverOfSubrogation    bool       `json:"requireWaiverOfSubrogation,omitempty"`
	RequirePrimaryNonContributory bool       `json:"requirePrimaryNonContributory,omitempty"`
}

// AutoLiabilityRequirement is the auto section of a requirement submission
type AutoLiabilityRequirement struct {
	Required  bool `json:"required"`
	MinLimits *struct {
		CombinedSingleLimit int64 `json:"combinedSingleLimit"`
	} `json:"minLimits,omitempty"`
}

// WorkersCompRequirement is the WC section of a requirement submission
type WorkersCompRequirement struct {
	Required                   bool `json:"required"`
	RequireStatutoryLimits     bool `json:"requireStatutoryLimits,omitempty"`
	RequireWaiverOfSubrogation bool `json:"requireWaiverOfSubrogation,omitempty"`
}

// UmbrellaRequirement is the umbrella section of a requirement submission
type UmbrellaRequirement struct {
	Required  bool `json:"required"`
	MinLimits *struct {
		EachOccurrence int64 `json:"eachOccurrence"`
	} `json:"minLimits,omitempty"`
}

// RequirementSpec groups the per-coverage requirement sections
type RequirementSpec struct {
	GeneralLiability    *GeneralLiabilityRequirement `json:"generalLiability,omitempty"`
	AutoLiability       *AutoLiabilityRequirement    `json:"autoLiability,omitempty"`
	WorkersCompensation *WorkersCompRequirement      `json:"workersCompensation,omitempty"`
	UmbrellaLiability   *UmbrellaRequirement         `json:"umbrellaLiability,omitempty"`
}

// RequirementSubmission asks Brokermatic to collect a compliant certificate
// from a vendor's broker
type RequirementSubmission struct {
	HolderID           string          `json:"holderId"`
	InsuredName        string          `json:"insuredName"`
	ProjectDescription string          `json:"projectDescription"`
	Deadline           string          `json:"deadline,omitempty"`
	Requirements       RequirementSpec `json:"requirements"`
}

// RequirementResponse acknowledges a requirement submission
type RequirementResponse struct {
	ID        string `json:"id"`
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// FieldChange describes one field delta on a certificate.updated event
type FieldChange struct {
	Field    string      `json:"field"`
	OldValue interface{} `json:"oldValue"`
	NewValue interface{} `json:"newValue"`
}

// WebhookGap is a compliance gap reported via webhook
type WebhookGap struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// WebhookData is the event-specific payload body
type WebhookData struct {
	Certificate   *Certificate  `json:"certificate,omitempty"`
	RequestID     string        `json:"requestId,omitempty"`
	Changes       []FieldChange `json:"changes,omitempty"`
	DaysRemaining int           `json:"daysRemaining,omitempty"`
	Gaps          []WebhookGap  `json:"gaps,omitempty"`
}

// WebhookPayload is the envelope Brokermatic POSTs to our webhook endpoint
type WebhookPayload struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	Timestamp string      `json:"timestamp"`
	Data      WebhookData `json:"data"`
}

// ChangedField reports whether any change entry touches the named field
func (p *WebhookPayload) ChangedField(field string) bool {
	for _, c := range p.Data.Changes {
		if c.Field == field {
			return true
		}
	}
	return false
}
