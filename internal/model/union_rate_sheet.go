package model

import "time"

// UnionRateSheet holds published prevailing union labor rates by trade,
// used as a reference when reviewing vendor rate proposals
type UnionRateSheet struct {
	ID uint `json:"id" gorm:"primaryKey"`

	Trade     string `json:"trade" gorm:"type:varchar(100);index"`
	Code      string `json:"code" gorm:"type:varchar(20)"`
	UnionName string `json:"union_name" gorm:"type:varchar(200)"`

	RegularRate float64 `json:"regular_rate"`
	PremiumRate float64 `json:"premium_rate"`
	DoubleRate  float64 `json:"double_rate"`

	ForemanRegular float64 `json:"foreman_regular"`
	ForemanPremium float64 `json:"foreman_premium"`
	ForemanDouble  float64 `json:"foreman_double"`

	EffectiveDate *time.Time `json:"effective_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
