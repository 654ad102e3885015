package model

import (
	"time"

	"github.com/silicondon/columbia-compliance-portal/internal/compliance"
)

// InsuranceRequirement holds the per-vendor minimum limits by coverage
// type. A nil amount triplet means that coverage is not required for the
// vendor. Edited administratively; the compliance core only reads it.
type InsuranceRequirement struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	VendorID uint `json:"vendor_id" gorm:"uniqueIndex;not null"`

	GlRequired       *int64 `json:"gl_required"`
	GlAggregate      *int64 `json:"gl_aggregate"`
	GlEachOccurrence *int64 `json:"gl_each_occurrence"`

	ExcessRequired       *int64 `json:"excess_required"`
	ExcessAggregate      *int64 `json:"excess_aggregate"`
	ExcessEachOccurrence *int64 `json:"excess_each_occurrence"`

	AutoRequired       *int64 `json:"auto_required"`
	AutoAggregate      *int64 `json:"auto_aggregate"`
	AutoEachOccurrence *int64 `json:"auto_each_occurrence"`

	EnvRequired       *int64 `json:"env_required"`
	EnvAggregate      *int64 `json:"env_aggregate"`
	EnvEachOccurrence *int64 `json:"env_each_occurrence"`

	WorkersCompRequired bool `json:"workers_comp_required" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToRequirements converts the stored row into the evaluator's requirement
// specification. General liability carries the university's standard
// endorsement flags; a coverage whose amounts are all nil is omitted,
// which the evaluator reads as "not required".
func (r *InsuranceRequirement) ToRequirements() compliance.Requirements {
	spec := compliance.Requirements{}

	if limits := limitsFor(r.GlAggregate, r.GlEachOccurrence); limits != nil {
		spec[compliance.CoverageGeneralLiability] = compliance.CoverageRequirement{
			MinLimits: limits,
			RequiredFlags: []string{
				compliance.FlagAdditionalInsured,
				compliance.FlagWaiverOfSubrogation,
			},
		}
	}
	if limits := limitsFor(r.ExcessAggregate, r.ExcessEachOccurrence); limits != nil {
		spec[compliance.CoverageExcessLiability] = compliance.CoverageRequirement{MinLimits: limits}
	}
	if limits := limitsFor(r.AutoAggregate, r.AutoEachOccurrence); limits != nil {
		spec[compliance.CoverageAutoLiability] = compliance.CoverageRequirement{MinLimits: limits}
	}
	if limits := limitsFor(r.EnvAggregate, r.EnvEachOccurrence); limits != nil {
		spec[compliance.CoverageEnvironmental] = compliance.CoverageRequirement{MinLimits: limits}
	}
	if r.WorkersCompRequired {
		// Statutory limits; presence of an unexpired policy is what matters
		spec[compliance.CoverageWorkersComp] = compliance.CoverageRequirement{}
	}

	return spec
}

func limitsFor(aggregate, eachOccurrence *int64) map[string]int64 {
	if aggregate == nil && eachOccurrence == nil {
		return nil
	}
	limits := map[string]int64{}
	if aggregate != nil {
		limits[compliance.LimitAggregate] = *aggregate
	}
	if eachOccurrence != nil {
		limits[compliance.LimitEachOccurrence] = *eachOccurrence
	}
	return limits
}
