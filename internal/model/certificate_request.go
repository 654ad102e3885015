package model

import (
	"encoding/json"
	"time"

	"github.com/silicondon/columbia-compliance-portal/internal/compliance"
)

// Certificate request status values
const (
	RequestPending      = "pending"
	RequestFulfilled    = "fulfilled"
	RequestCompliant    = "compliant"
	RequestNonCompliant = "non_compliant"
)

// OpenRequestStatuses are the statuses that count as an outstanding ask to
// a broker. At most one open request may exist per vendor.
var OpenRequestStatuses = []string{RequestPending, RequestFulfilled}

// CertificateRequest tracks an outstanding certificate ask sent to a
// vendor's broker through Brokermatic.
type CertificateRequest struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	VendorID uint `json:"vendor_id" gorm:"index;not null"`

	BrokermaticRequestID string `json:"brokermatic_request_id" gorm:"type:varchar(50);index"`
	ExternalID           string `json:"external_id" gorm:"type:varchar(100)"`
	Status               string `json:"status" gorm:"type:varchar(20);index;default:'pending'"`
	LegalText            string `json:"legal_text" gorm:"type:text"`

	// CoverageTypes is the set of required coverage type strings snapshotted
	// at request time; MinimumLimits the structured requirement snapshot;
	// ComplianceResult the structured verdict once evaluation runs.
	CoverageTypes    StringList `json:"coverage_types" gorm:"type:jsonb"`
	MinimumLimits    JSON       `json:"minimum_limits" gorm:"type:jsonb"`
	ComplianceResult JSON       `json:"compliance_result" gorm:"type:jsonb"`

	UploadedAt  *time.Time `json:"uploaded_at"`
	ValidatedAt *time.Time `json:"validated_at"`

	Vendor *Vendor `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetComplianceResult stores the evaluator verdict as the structured JSON
// snapshot on the request
func (r *CertificateRequest) SetComplianceResult(result *compliance.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	r.ComplianceResult = JSON(data)
	return nil
}

// GetComplianceResult decodes the stored verdict; returns nil when no
// verdict has been stored yet
func (r *CertificateRequest) GetComplianceResult() (*compliance.Result, error) {
	if len(r.ComplianceResult) == 0 {
		return nil, nil
	}
	var result compliance.Result
	if err := json.Unmarshal(r.ComplianceResult, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
