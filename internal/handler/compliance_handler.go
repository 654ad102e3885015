package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/silicondon/columbia-compliance-portal/internal/compliance"
	"github.com/silicondon/columbia-compliance-portal/internal/model"
	"github.com/silicondon/columbia-compliance-portal/pkg/database"
	"github.com/silicondon/columbia-compliance-portal/pkg/logger"
	"github.com/silicondon/columbia-compliance-portal/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CheckVendorCompliance runs the compliance evaluation for a vendor against
// its requirement specification (or the university standard when none is on
// file), persists per-certificate statuses, the vendor status, and the
// verdict on the latest open certificate request.
func CheckVendorCompliance(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	var vendor model.Vendor
	result := database.GetDB().
		Preload("Certificates").
		Preload("InsuranceRequirement").
		Where("id = ?", id).
		First(&vendor)
	if result.Error != nil {
		log.Error("Vendor not found for compliance check", zap.Uint64("vendor_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	if vendor.ExemptFromInsurance {
		log.Info("Vendor exempt from insurance requirements", zap.Uint64("vendor_id", id))
		return c.JSON(http.StatusOK, echo.Map{
			"vendor_id": vendor.ID,
			"exempt":    true,
			"message":   "Vendor is exempt from insurance requirements",
		})
	}

	verdict, err := runVendorComplianceCheck(log, &vendor)
	if err != nil {
		if errors.Is(err, compliance.ErrInvalidRequirement) {
			log.Error("Invalid requirement specification", zap.Uint64("vendor_id", id), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Vendor requirement specification is invalid",
			})
		}
		log.Error("Compliance check failed", zap.Uint64("vendor_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to run compliance check",
		})
	}

	log.Info("Compliance check complete",
		zap.Uint64("vendor_id", id),
		zap.String("status", string(verdict.Status)),
		zap.Int("gaps", len(verdict.Gaps)))

	return c.JSON(http.StatusOK, echo.Map{
		"vendor_id": vendor.ID,
		"result":    verdict,
	})
}

// CheckCertificateCompliance runs the compliance evaluation for the vendor
// that holds the given certificate. The whole vendor is evaluated because the
// verdict depends on every coverage on file, not just the one certificate.
func CheckCertificateCompliance(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid certificate ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid certificate ID",
		})
	}

	var cert model.Certificate
	if result := database.GetDB().Where("id = ?", id).First(&cert); result.Error != nil {
		log.Error("Certificate not found for compliance check", zap.Uint64("certificate_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Certificate not found",
		})
	}

	var vendor model.Vendor
	result := database.GetDB().
		Preload("Certificates").
		Preload("InsuranceRequirement").
		Where("id = ?", cert.VendorID).
		First(&vendor)
	if result.Error != nil {
		log.Error("Vendor not found for certificate", zap.Uint("vendor_id", cert.VendorID), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	if vendor.ExemptFromInsurance {
		return c.JSON(http.StatusOK, echo.Map{
			"vendor_id": vendor.ID,
			"exempt":    true,
			"message":   "Vendor is exempt from insurance requirements",
		})
	}

	verdict, err := runVendorComplianceCheck(log, &vendor)
	if err != nil {
		if errors.Is(err, compliance.ErrInvalidRequirement) {
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Vendor requirement specification is invalid",
			})
		}
		log.Error("Compliance check failed", zap.Uint("vendor_id", vendor.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to run compliance check",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"certificate_id": cert.ID,
		"vendor_id":      vendor.ID,
		"result":         verdict,
	})
}

// runVendorComplianceCheck evaluates the vendor's certificates and persists
// the outcome. The vendor must have Certificates and InsuranceRequirement
// preloaded.
func runVendorComplianceCheck(log *zap.Logger, vendor *model.Vendor) (*compliance.Result, error) {
	spec := compliance.StandardRequirements()
	if vendor.InsuranceRequirement != nil {
		spec = vendor.InsuranceRequirement.ToRequirements()
	}

	inputs := make([]compliance.CertificateInput, 0, len(vendor.Certificates))
	for i := range vendor.Certificates {
		inputs = append(inputs, vendor.Certificates[i].ToInput())
	}

	now := time.Now().UTC()
	verdict, err := compliance.Evaluate(spec, inputs, now)
	if err != nil {
		return nil, err
	}

	prometheus.RecordComplianceCheck(string(verdict.Status))
	for _, gap := range verdict.Gaps {
		prometheus.RecordComplianceGap(string(gap.Kind))
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	persistComplianceVerdict(log, vendor, verdict, now)
	return verdict, nil
}

// persistComplianceVerdict writes the evaluation outcome back to the
// certificates, the vendor, and the latest open certificate request.
// Persistence failures are logged but do not invalidate the verdict.
func persistComplianceVerdict(log *zap.Logger, vendor *model.Vendor, verdict *compliance.Result, now time.Time) {
	db := database.GetDB()

	// Per-certificate statuses follow the coverage results
	byType := map[compliance.CoverageType]compliance.CoverageResult{}
	for _, cov := range verdict.Coverages {
		byType[cov.CoverageType] = cov
	}
	expiredTypes := map[compliance.CoverageType]bool{}
	for _, gap := range verdict.Gaps {
		if gap.Kind == compliance.GapExpired {
			expiredTypes[gap.CoverageType] = true
		}
	}

	for i := range vendor.Certificates {
		cert := &vendor.Certificates[i]
		input := cert.ToInput()
		cov, ok := byType[input.CoverageType]
		if !ok {
			continue
		}

		status := model.CertCompliant
		switch {
		case expiredTypes[input.CoverageType]:
			status = model.CertExpired
		case cov.Status == compliance.CoverageFail:
			status = model.CertNonCompliant
		case cov.Status == compliance.CoverageWarning:
			status = model.CertExpiring
		}

		updates := map[string]interface{}{
			"compliance_status": status,
			"last_checked_at":   now,
		}
		if err := db.Model(&model.Certificate{}).Where("id = ?", cert.ID).Updates(updates).Error; err != nil {
			log.Error("Failed to persist certificate status",
				zap.Uint("certificate_id", cert.ID),
				zap.Error(err))
		}
	}

	// Vendor status follows the aggregate verdict
	vendorUpdates := map[string]interface{}{
		"insurance_status": string(verdict.Status),
	}
	if verdict.Status == compliance.StatusCompliant {
		vendorUpdates["insurance_compliance_at"] = now
	} else {
		vendorUpdates["insurance_compliance_at"] = nil
	}
	if err := db.Model(&model.Vendor{}).Where("id = ?", vendor.ID).Updates(vendorUpdates).Error; err != nil {
		log.Error("Failed to persist vendor insurance status",
			zap.Uint("vendor_id", vendor.ID),
			zap.Error(err))
	}

	// Verdict lands on the latest open certificate request, if any
	var req model.CertificateRequest
	err := db.Where("vendor_id = ? AND status IN ?", vendor.ID, model.OpenRequestStatuses).
		Order("created_at DESC").
		First(&req).Error
	if err != nil {
		return
	}

	requestStatus := model.RequestCompliant
	if verdict.Status != compliance.StatusCompliant {
		requestStatus = model.RequestNonCompliant
	}
	if err := req.SetComplianceResult(verdict); err != nil {
		log.Error("Failed to encode compliance result", zap.Uint("request_id", req.ID), zap.Error(err))
		return
	}
	req.Status = requestStatus
	req.ValidatedAt = &now
	if err := db.Save(&req).Error; err != nil {
		log.Error("Failed to persist request verdict", zap.Uint("request_id", req.ID), zap.Error(err))
	}
}
