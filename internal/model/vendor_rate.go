package model

import "time"

// VendorRate status values
const (
	RateActive   = "active"
	RateExpired  = "expired"
	RatePending  = "pending"
	RateInactive = "inactive"
)

// VendorRate holds negotiated labor and markup rates for a vendor trade
type VendorRate struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	VendorID uint `json:"vendor_id" gorm:"index;not null"`

	Status          string `json:"status" gorm:"type:varchar(20);default:'active'"`
	RateCategory    string `json:"rate_category" gorm:"type:varchar(100)"`
	RateSubCategory string `json:"rate_sub_category" gorm:"type:varchar(100)"`

	RegularHourly float64 `json:"regular_hourly"`
	PremiumHourly float64 `json:"premium_hourly"`
	DoubleHourly  float64 `json:"double_hourly"`

	MaterialMarkup  float64 `json:"material_markup"`
	SubMarkup       float64 `json:"sub_markup"`
	EquipmentMarkup float64 `json:"equipment_markup"`

	EffectiveDate  *time.Time `json:"effective_date"`
	ExpirationDate *time.Time `json:"expiration_date"`

	Vendor *Vendor `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
