package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/silicondon/columbia-compliance-portal/internal/brokermatic"
	"github.com/silicondon/columbia-compliance-portal/internal/compliance"
	"github.com/silicondon/columbia-compliance-portal/internal/model"
	"github.com/silicondon/columbia-compliance-portal/pkg/database"
	"github.com/silicondon/columbia-compliance-portal/pkg/logger"
	"github.com/silicondon/columbia-compliance-portal/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const columbiaHolderID = "ch_columbia_university"

// InsuranceRequest defines the body for requesting a certificate through the
// vendor's broker
type InsuranceRequest struct {
	BrokerEmail        string `json:"broker_email" validate:"required"`
	BrokerName         string `json:"broker_name"`
	ProjectDescription string `json:"project_description"`
}

// RequestInsurance submits an insurance certificate request to Brokermatic
// for a vendor. At most one open request may exist per vendor; a duplicate
// attempt returns 409 with the existing Brokermatic request ID.
func RequestInsurance(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("request_insurance")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	var req InsuranceRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.BrokerEmail == "" {
		log.Warn("Broker email is required", zap.Uint64("vendor_id", id))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Broker email is required",
		})
	}

	var vendor model.Vendor
	result := database.GetDB().
		Preload("InsuranceRequirement").
		Where("id = ?", id).
		First(&vendor)
	if result.Error != nil {
		log.Error("Vendor not found for insurance request", zap.Uint64("vendor_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// At most one open request per vendor
	var existing model.CertificateRequest
	err = database.GetDB().
		Where("vendor_id = ? AND status IN ?", vendor.ID, model.OpenRequestStatuses).
		First(&existing).Error
	if err == nil {
		log.Warn("Certificate request already pending for vendor",
			zap.Uint64("vendor_id", id),
			zap.String("request_id", existing.BrokermaticRequestID))
		return c.JSON(http.StatusConflict, echo.Map{
			"error":      "A certificate request is already pending for this vendor",
			"request_id": existing.BrokermaticRequestID,
		})
	}

	if brokermaticClient == nil {
		log.Error("Brokermatic client not configured")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error": "Insurance requests are not available",
		})
	}

	projectDescription := req.ProjectDescription
	if projectDescription == "" {
		projectDescription = fmt.Sprintf("General work for Columbia University by %s", vendor.Name)
	}

	spec := compliance.StandardRequirements()
	if vendor.InsuranceRequirement != nil {
		spec = vendor.InsuranceRequirement.ToRequirements()
	}
	submission := buildSubmission(vendor.Name, projectDescription, spec)

	resp, err := brokermaticClient.SubmitRequirements(c.Request().Context(), submission)
	if err != nil {
		log.Error("Failed to submit requirements to Brokermatic",
			zap.Uint64("vendor_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": "Failed to submit insurance request",
		})
	}

	log.Info("Brokermatic request submitted",
		zap.Uint64("vendor_id", id),
		zap.String("request_id", resp.RequestID),
		zap.String("status", resp.Status))

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	coverageTypes := make(model.StringList, 0, len(spec))
	for _, ct := range compliance.CoverageOrder() {
		if _, ok := spec[ct]; ok {
			coverageTypes = append(coverageTypes, string(ct))
		}
	}
	limitsSnapshot, err := json.Marshal(spec)
	if err != nil {
		log.Error("Failed to encode requirement snapshot", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to record insurance request",
		})
	}

	certRequest := model.CertificateRequest{
		VendorID:             vendor.ID,
		BrokermaticRequestID: resp.RequestID,
		ExternalID:           fmt.Sprintf("COLUMBIA-VENDOR-%d", vendor.ID),
		Status:               resp.Status,
		LegalText:            projectDescription,
		CoverageTypes:        coverageTypes,
		MinimumLimits:        model.JSON(limitsSnapshot),
	}
	if err := database.GetDB().Create(&certRequest).Error; err != nil {
		log.Error("Failed to record certificate request",
			zap.Uint64("vendor_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to record insurance request",
		})
	}

	// Vendor carries the broker contact and flips to requested
	now := time.Now()
	vendorUpdates := map[string]interface{}{
		"broker_email":           req.BrokerEmail,
		"broker_name":            req.BrokerName,
		"insurance_status":       model.InsuranceRequested,
		"insurance_requested_at": now,
	}
	if err := database.GetDB().Model(&vendor).Updates(vendorUpdates).Error; err != nil {
		log.Error("Failed to update vendor after insurance request",
			zap.Uint64("vendor_id", id),
			zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":                true,
		"request_id":             resp.RequestID,
		"certificate_request_id": certRequest.ID,
		"external_id":            certRequest.ExternalID,
		"status":                 resp.Status,
		"message":                "Insurance certificate request submitted successfully",
	})
}

// buildSubmission translates a requirement specification into the
// Brokermatic Smart COI submission format
func buildSubmission(insuredName, projectDescription string, spec compliance.Requirements) brokermatic.RequirementSubmission {
	sub := brokermatic.RequirementSubmission{
		HolderID:           columbiaHolderID,
		InsuredName:        insuredName,
		ProjectDescription: projectDescription,
	}

	if gl, ok := spec[compliance.CoverageGeneralLiability]; ok {
		glReq := &brokermatic.GeneralLiabilityRequirement{Required: true}
		if len(gl.MinLimits) > 0 {
			glReq.MinLimits = &brokermatic.LimitPair{
				EachOccurrence:   gl.MinLimits[compliance.LimitEachOccurrence],
				GeneralAggregate: gl.MinLimits[compliance.LimitAggregate],
			}
		}
		for _, flag := range gl.RequiredFlags {
			switch flag {
			case compliance.FlagAdditionalInsured:
				glReq.RequireAdditionalInsured = true
			case compliance.FlagWaiverOfSubrogation:
				glReq.RequireWaiverOfSubrogation = true
			case compliance.FlagPrimaryNonContributory:
				glReq.RequirePrimaryNonContributory = true
			}
		}
		sub.Requirements.GeneralLiability = glReq
	}

	if auto, ok := spec[compliance.CoverageAutoLiability]; ok {
		autoReq := &brokermatic.AutoLiabilityRequirement{Required: true}
		if csl, has := auto.MinLimits[compliance.LimitCombinedSingleLimit]; has {
			autoReq.MinLimits = &struct {
				CombinedSingleLimit int64 `json:"combinedSingleLimit"`
			}{CombinedSingleLimit: csl}
		} else if eo, has := auto.MinLimits[compliance.LimitEachOccurrence]; has {
			autoReq.MinLimits = &struct {
				CombinedSingleLimit int64 `json:"combinedSingleLimit"`
			}{CombinedSingleLimit: eo}
		}
		sub.Requirements.AutoLiability = autoReq
	}

	if _, ok := spec[compliance.CoverageWorkersComp]; ok {
		sub.Requirements.WorkersCompensation = &brokermatic.WorkersCompRequirement{
			Required:                   true,
			RequireStatutoryLimits:     true,
			RequireWaiverOfSubrogation: true,
		}
	}

	if excess, ok := spec[compliance.CoverageExcessLiability]; ok {
		umbrella := &brokermatic.UmbrellaRequirement{Required: true}
		if eo, has := excess.MinLimits[compliance.LimitEachOccurrence]; has {
			umbrella.MinLimits = &struct {
				EachOccurrence int64 `json:"eachOccurrence"`
			}{EachOccurrence: eo}
		}
		sub.Requirements.UmbrellaLiability = umbrella
	}

	return sub
}
