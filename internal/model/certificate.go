package model

import (
	"time"

	"github.com/silicondon/columbia-compliance-portal/internal/compliance"
)

// Certificate compliance status values
const (
	CertCompliant    = "compliant"
	CertNonCompliant = "non_compliant"
	CertPending      = "pending"
	CertExpired      = "expired"
	CertExpiring     = "expiring"
)

// Certificate represents one certificate of insurance on file for a vendor.
// Records are never physically deleted by compliance or notification runs;
// deletion is an administrative action.
type Certificate struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	VendorID uint `json:"vendor_id" gorm:"index;not null"`

	CoverageType string `json:"coverage_type" gorm:"type:varchar(50);index"`
	PolicyNumber string `json:"policy_number" gorm:"type:varchar(50)"`
	CarrierName  string `json:"carrier_name" gorm:"type:varchar(100)"`

	RequiredAmount       *int64 `json:"required_amount"`
	AggregateAmount      *int64 `json:"aggregate_amount"`
	EachOccurrenceAmount *int64 `json:"each_occurrence_amount"`

	AdditionalInsured      bool `json:"additional_insured" gorm:"default:false"`
	WaiverOfSubrogation    bool `json:"waiver_of_subrogation" gorm:"default:false"`
	PrimaryNonContributory bool `json:"primary_non_contributory" gorm:"default:false"`

	EffectiveDate  *time.Time `json:"effective_date"`
	ExpirationDate *time.Time `json:"expiration_date" gorm:"index"`

	ComplianceStatus string `json:"compliance_status" gorm:"type:varchar(20);index;default:'pending'"`

	// NotifiedDate is the debounce marker: the last time an alert fired for
	// this record. Never set to a future date.
	NotifiedDate  *time.Time `json:"notified_date"`
	LastCheckedAt *time.Time `json:"last_checked_at"`

	BrokermaticCertID string `json:"brokermatic_cert_id" gorm:"type:varchar(50)"`

	Vendor *Vendor `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToInput converts the stored row into the evaluator's certificate view.
// Unknown coverage type strings pass through unparsed and simply never
// match a required coverage.
func (c *Certificate) ToInput() compliance.CertificateInput {
	coverageType := compliance.CoverageType(c.CoverageType)
	if parsed, ok := compliance.ParseCoverageType(c.CoverageType); ok {
		coverageType = parsed
	}

	limits := map[string]int64{}
	if c.AggregateAmount != nil {
		limits[compliance.LimitAggregate] = *c.AggregateAmount
	}
	if c.EachOccurrenceAmount != nil {
		limits[compliance.LimitEachOccurrence] = *c.EachOccurrenceAmount
	}

	return compliance.CertificateInput{
		CoverageType: coverageType,
		PolicyNumber: c.PolicyNumber,
		Limits:       limits,
		Flags: map[string]bool{
			compliance.FlagAdditionalInsured:      c.AdditionalInsured,
			compliance.FlagWaiverOfSubrogation:    c.WaiverOfSubrogation,
			compliance.FlagPrimaryNonContributory: c.PrimaryNonContributory,
		},
		ExpirationDate: c.ExpirationDate,
	}
}
