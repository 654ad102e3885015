package handler

import (
	"net/http"
	"time"

	"github.com/silicondon/columbia-compliance-portal/internal/compliance"
	"github.com/silicondon/columbia-compliance-portal/internal/model"
	"github.com/silicondon/columbia-compliance-portal/pkg/database"
	"github.com/silicondon/columbia-compliance-portal/pkg/logger"
	"github.com/silicondon/columbia-compliance-portal/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var expiryWindows = []int{30, 60, 90}

// GetDashboard returns the compliance summary: vendor counts per insurance
// status, certificate expiry buckets, and the partial-compliance breakdown.
// "Partial" is a display classification only; stored statuses never use it.
func GetDashboard(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Building dashboard summary")

	db := database.GetDB()
	now := time.Now()

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	// Vendor counts per insurance status
	vendorCounts := map[string]int64{}
	statuses := []string{
		model.InsurancePending,
		model.InsuranceRequested,
		model.InsuranceCompliant,
		model.InsuranceNonCompliant,
		model.InsuranceExpiringSoon,
		model.InsuranceExpired,
	}
	for _, status := range statuses {
		var count int64
		db.Model(&model.Vendor{}).Where("insurance_status = ?", status).Count(&count)
		vendorCounts[status] = count
		prometheus.UpdateVendorsByStatus(status, count)
	}

	var totalVendors int64
	db.Model(&model.Vendor{}).Count(&totalVendors)

	var suspendedVendors int64
	db.Model(&model.Vendor{}).Where("status = ?", model.VendorSuspended).Count(&suspendedVendors)

	var exemptVendors int64
	db.Model(&model.Vendor{}).Where("exempt_from_insurance = ?", true).Count(&exemptVendors)

	// Certificate expiry buckets
	expiring := map[int]int64{}
	for _, window := range expiryWindows {
		var count int64
		db.Model(&model.Certificate{}).
			Where("expiration_date >= ? AND expiration_date <= ?", now, now.AddDate(0, 0, window)).
			Count(&count)
		expiring[window] = count
		prometheus.UpdateCertificatesExpiring(window, count)
	}

	var expiredCerts int64
	db.Model(&model.Certificate{}).
		Where("expiration_date < ?", now).
		Count(&expiredCerts)

	// Split non-compliant vendors into fully non-compliant and partially
	// compliant using their latest stored verdict
	partiallyCompliant := partialComplianceCount(log)

	return c.JSON(http.StatusOK, echo.Map{
		"vendors": echo.Map{
			"total":     totalVendors,
			"by_status": vendorCounts,
			"suspended": suspendedVendors,
			"exempt":    exemptVendors,
		},
		"certificates": echo.Map{
			"expiring_within_30_days": expiring[30],
			"expiring_within_60_days": expiring[60],
			"expiring_within_90_days": expiring[90],
			"expired":                 expiredCerts,
		},
		"compliance": echo.Map{
			"compliant":           vendorCounts[model.InsuranceCompliant],
			"non_compliant":       vendorCounts[model.InsuranceNonCompliant] - partiallyCompliant,
			"partially_compliant": partiallyCompliant,
		},
		"generated_at": now.Format(time.RFC3339),
	})
}

// partialComplianceCount counts non-compliant vendors whose latest stored
// verdict has at least one passing coverage
func partialComplianceCount(log *zap.Logger) int64 {
	db := database.GetDB()

	var vendors []model.Vendor
	if err := db.Where("insurance_status = ?", model.InsuranceNonCompliant).Find(&vendors).Error; err != nil {
		log.Error("Failed to load non-compliant vendors for dashboard", zap.Error(err))
		return 0
	}

	var partial int64
	for _, vendor := range vendors {
		var req model.CertificateRequest
		err := db.Where("vendor_id = ? AND compliance_result IS NOT NULL", vendor.ID).
			Order("created_at DESC").
			First(&req).Error
		if err != nil {
			continue
		}
		result, err := req.GetComplianceResult()
		if err != nil || result == nil {
			continue
		}
		if displayLabel(result) == "partial" {
			partial++
		}
	}
	return partial
}

// displayLabel derives the UI classification from a verdict: "partial" when
// the aggregate fails but at least one required coverage passes
func displayLabel(result *compliance.Result) string {
	if result.Status == compliance.StatusCompliant {
		return string(compliance.StatusCompliant)
	}
	for _, cov := range result.Coverages {
		if cov.Status == compliance.CoveragePass || cov.Status == compliance.CoverageWarning {
			return "partial"
		}
	}
	return string(compliance.StatusNonCompliant)
}
