package model

import (
	"time"

	"gorm.io/gorm"
)

// Vendor insurance status values
const (
	InsurancePending      = "pending"
	InsuranceRequested    = "requested"
	InsuranceCompliant    = "compliant"
	InsuranceNonCompliant = "non_compliant"
	InsuranceExpiringSoon = "expiring_soon"
	InsuranceExpired      = "expired"
)

// Vendor account status values
const (
	VendorActive    = "active"
	VendorSuspended = "suspended"
)

// Vendor represents a vendor/contractor record in the university vendor list
type Vendor struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	VmsID        string `json:"vms_id" gorm:"type:varchar(20);uniqueIndex"`
	Name         string `json:"name" gorm:"type:varchar(200);index;not null"`
	Address1     string `json:"address1" gorm:"type:varchar(200)"`
	City         string `json:"city" gorm:"type:varchar(50)"`
	State        string `json:"state" gorm:"type:varchar(50)"`
	Zip          string `json:"zip" gorm:"type:varchar(20)"`
	Phone        string `json:"phone" gorm:"type:varchar(20)"`
	Email        string `json:"email" gorm:"type:varchar(100)"`
	PrimaryTrade string `json:"primary_trade" gorm:"type:varchar(100);index"`
	UnionStatus  string `json:"union_status" gorm:"type:varchar(20)"`
	MwlStatus    string `json:"mwl_status" gorm:"type:varchar(20)"`

	MaximoEnabled bool `json:"maximo_enabled" gorm:"default:false"`
	Facilities    bool `json:"facilities" gorm:"default:false"`
	Construction  bool `json:"construction" gorm:"default:false"`

	ExemptFromInsurance bool       `json:"exempt_from_insurance" gorm:"default:false"`
	Status              string     `json:"status" gorm:"type:varchar(20);index;default:'active'"`
	SuspendedDate       *time.Time `json:"suspended_date"`
	SuspendedReason     string     `json:"suspended_reason" gorm:"type:text"`

	// Insurance/compliance tracking, mutated by compliance checks,
	// webhook ingestion and the notification scheduler
	InsuranceStatus       string     `json:"insurance_status" gorm:"type:varchar(20);index;default:'pending'"`
	InsuranceRequestedAt  *time.Time `json:"insurance_requested_at"`
	InsuranceComplianceAt *time.Time `json:"insurance_compliance_at"`
	BrokerEmail           string     `json:"broker_email" gorm:"type:varchar(100)"`
	BrokerName            string     `json:"broker_name" gorm:"type:varchar(100)"`

	ArcVendorID string `json:"arc_vendor_id" gorm:"type:varchar(50)"`

	InsuranceRequirement *InsuranceRequirement `json:"insurance_requirement,omitempty" gorm:"foreignKey:VendorID"`
	Certificates         []Certificate         `json:"certificates,omitempty" gorm:"foreignKey:VendorID"`
	CertificateRequests  []CertificateRequest  `json:"certificate_requests,omitempty" gorm:"foreignKey:VendorID"`
	Contracts            []Contract            `json:"contracts,omitempty" gorm:"foreignKey:VendorID"`
	Rates                []VendorRate          `json:"rates,omitempty" gorm:"foreignKey:VendorID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
