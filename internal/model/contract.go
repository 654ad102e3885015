package model

import "time"

// Contract represents an agreement with a vendor, displayed for reference
// alongside compliance data
type Contract struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	VendorID uint `json:"vendor_id" gorm:"index;not null"`

	ContractType    string     `json:"contract_type" gorm:"type:varchar(50)"` // task_order|term_consultant|renew_contract
	Title           string     `json:"title" gorm:"type:varchar(200)"`
	BeginDate       *time.Time `json:"begin_date"`
	EndDate         *time.Time `json:"end_date"`
	SaContractValue float64    `json:"sa_contract_value"`

	Vendor *Vendor `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
