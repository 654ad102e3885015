package handler

import (
	"encoding/json"
	"io"
	"net/http"
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

const signatureHeader = "x-brokermatic-signature"

var webhookSecret string

// SetWebhookSecret injects the shared secret used to verify webhook signatures
func SetWebhookSecret(secret string) {
	webhookSecret = secret
}

// HandleBrokermaticWebhook ingests certificate lifecycle events pushed by
// Brokermatic. Processing failures still return 200 so the sender does not
// retry; only bad signatures and unreadable payloads are rejected.
func HandleBrokermaticWebhook(c echo.Context) error {
	log := logger.FromContext(c)

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		log.Error("Failed to read webhook body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Failed to read request body"})
	}

	if signature := c.Request().Header.Get(signatureHeader); signature != "" && webhookSecret != "" {
		if !brokermatic.VerifySignature(body, signature, webhookSecret) {
			log.Warn("Webhook signature verification failed")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid signature"})
		}
	}

	var payload brokermatic.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("Failed to decode webhook payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid payload"})
	}

	log.Info("Webhook event received",
		zap.String("event", payload.Event),
		zap.String("webhook_id", payload.ID))
	prometheus.RecordWebhookEvent(payload.Event)

	switch payload.Event {
	case brokermatic.EventCertificateIssued:
		err = handleCertificateIssued(log, &payload)
	case brokermatic.EventCertificateUpdated, brokermatic.EventPolicyCancelled, brokermatic.EventPolicyRenewed:
		err = handleCertificateChanged(log, &payload)
	case brokermatic.EventCertificateExpiring:
		err = handleCertificateExpiring(log, &payload)
	case brokermatic.EventCertificateExpired:
		err = handleCertificateExpired(log, &payload)
	case brokermatic.EventComplianceGap:
		err = handleComplianceGap(log, &payload)
	default:
		log.Warn("Unhandled webhook event type", zap.String("event", payload.Event))
	}
	if err != nil {
		// Acknowledge anyway; the event is logged for manual follow-up
		log.Error("Webhook processing failed",
			zap.String("event", payload.Event),
			zap.String("webhook_id", payload.ID),
			zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true, "event": payload.Event})
}

// WebhookHealth reports the events this endpoint handles
func WebhookHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "ok",
		"endpoint":  "brokermatic webhooks",
		"events":    brokermatic.KnownEvents,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleCertificateIssued closes out the matching certificate request and
// re-evaluates the vendor against the delivered coverages
func handleCertificateIssued(log *zap.Logger, payload *brokermatic.WebhookPayload) error {
	cert := payload.Data.Certificate
	if cert == nil || payload.Data.RequestID == "" {
		log.Warn("certificate.issued event missing certificate or request ID")
		return nil
	}

	db := database.GetDB()
	defer prometheus.TrackDBOperation("update")(time.Now())

	var req model.CertificateRequest
	if err := db.Where("brokermatic_request_id = ?", payload.Data.RequestID).First(&req).Error; err != nil {
		log.Warn("No certificate request matches webhook request ID",
			zap.String("brokermatic_request_id", payload.Data.RequestID))
		return nil
	}

	vendor, err := loadVendorWithRequirement(req.VendorID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	verdict, err := evaluateWebhookCertificate(vendor, cert, now)
	if err != nil {
		return err
	}
	prometheus.RecordComplianceCheck(string(verdict.Status))

	requestStatus := model.RequestCompliant
	if verdict.Status != compliance.StatusCompliant {
		requestStatus = model.RequestNonCompliant
	}
	if err := req.SetComplianceResult(verdict); err != nil {
		return err
	}
	req.Status = requestStatus
	req.UploadedAt = &now
	req.ValidatedAt = &now
	if err := db.Save(&req).Error; err != nil {
		return err
	}

	vendorUpdates := map[string]interface{}{
		"insurance_status": string(verdict.Status),
	}
	if verdict.Status == compliance.StatusCompliant {
		vendorUpdates["insurance_compliance_at"] = now
	} else {
		vendorUpdates["insurance_compliance_at"] = nil
	}
	if err := db.Model(&model.Vendor{}).Where("id = ?", vendor.ID).Updates(vendorUpdates).Error; err != nil {
		return err
	}

	log.Info("Certificate issued via Brokermatic",
		zap.Uint("vendor_id", vendor.ID),
		zap.String("certificate_id", cert.ID),
		zap.String("status", string(verdict.Status)))
	return nil
}

// handleCertificateChanged re-evaluates the vendor when Brokermatic reports a
// certificate update or policy change
func handleCertificateChanged(log *zap.Logger, payload *brokermatic.WebhookPayload) error {
	cert := payload.Data.Certificate
	if cert == nil {
		log.Warn("Certificate change event missing certificate", zap.String("event", payload.Event))
		return nil
	}

	db := database.GetDB()
	defer prometheus.TrackDBOperation("update")(time.Now())

	vendor, err := findVendorByBrokermaticCert(cert.ID)
	if err != nil {
		log.Warn("No vendor matches webhook certificate", zap.String("certificate_id", cert.ID))
		return nil
	}

	now := time.Now().UTC()
	verdict, err := evaluateWebhookCertificate(vendor, cert, now)
	if err != nil {
		return err
	}
	prometheus.RecordComplianceCheck(string(verdict.Status))

	// Update the latest evaluated request so the stored verdict stays current
	var req model.CertificateRequest
	if err := db.Where("vendor_id = ? AND compliance_result IS NOT NULL", vendor.ID).
		Order("created_at DESC").
		First(&req).Error; err == nil {
		if encErr := req.SetComplianceResult(verdict); encErr == nil {
			if saveErr := db.Save(&req).Error; saveErr != nil {
				log.Error("Failed to refresh stored verdict", zap.Uint("request_id", req.ID), zap.Error(saveErr))
			}
		}
	}

	if payload.ChangedField("complianceStatus") || payload.Event != brokermatic.EventCertificateUpdated {
		vendorUpdates := map[string]interface{}{
			"insurance_status": string(verdict.Status),
		}
		if verdict.Status == compliance.StatusCompliant {
			vendorUpdates["insurance_compliance_at"] = now
		} else {
			vendorUpdates["insurance_compliance_at"] = nil
		}
		if err := db.Model(&model.Vendor{}).Where("id = ?", vendor.ID).Updates(vendorUpdates).Error; err != nil {
			return err
		}
	}

	log.Info("Certificate change processed",
		zap.String("event", payload.Event),
		zap.Uint("vendor_id", vendor.ID),
		zap.String("certificate_id", cert.ID),
		zap.String("status", string(verdict.Status)))
	return nil
}

func handleCertificateExpiring(log *zap.Logger, payload *brokermatic.WebhookPayload) error {
	cert := payload.Data.Certificate
	if cert == nil {
		return nil
	}

	db := database.GetDB()
	defer prometheus.TrackDBOperation("update")(time.Now())

	vendor, err := findVendorByBrokermaticCert(cert.ID)
	if err != nil {
		log.Warn("No vendor matches expiring certificate", zap.String("certificate_id", cert.ID))
		return nil
	}

	if err := db.Model(&model.Vendor{}).Where("id = ?", vendor.ID).
		Update("insurance_status", model.InsuranceExpiringSoon).Error; err != nil {
		return err
	}

	log.Info("Vendor marked expiring soon",
		zap.Uint("vendor_id", vendor.ID),
		zap.Int("days_remaining", payload.Data.DaysRemaining))
	return nil
}

func handleCertificateExpired(log *zap.Logger, payload *brokermatic.WebhookPayload) error {
	cert := payload.Data.Certificate
	if cert == nil {
		return nil
	}

	db := database.GetDB()
	defer prometheus.TrackDBOperation("update")(time.Now())

	vendor, err := findVendorByBrokermaticCert(cert.ID)
	if err != nil {
		log.Warn("No vendor matches expired certificate", zap.String("certificate_id", cert.ID))
		return nil
	}

	updates := map[string]interface{}{
		"insurance_status":        model.InsuranceExpired,
		"insurance_compliance_at": nil,
	}
	if err := db.Model(&model.Vendor{}).Where("id = ?", vendor.ID).Updates(updates).Error; err != nil {
		return err
	}

	if err := db.Model(&model.Certificate{}).
		Where("vendor_id = ? AND brokermatic_cert_id = ?", vendor.ID, cert.ID).
		Update("compliance_status", model.CertExpired).Error; err != nil {
		log.Error("Failed to mark local certificate expired", zap.Error(err))
	}

	log.Info("Vendor marked expired", zap.Uint("vendor_id", vendor.ID))
	return nil
}

// handleComplianceGap records reported gaps on the latest request and drops
// the vendor to non-compliant
func handleComplianceGap(log *zap.Logger, payload *brokermatic.WebhookPayload) error {
	cert := payload.Data.Certificate
	if cert == nil {
		return nil
	}

	db := database.GetDB()
	defer prometheus.TrackDBOperation("update")(time.Now())

	vendor, err := findVendorByBrokermaticCert(cert.ID)
	if err != nil {
		log.Warn("No vendor matches gap report", zap.String("certificate_id", cert.ID))
		return nil
	}

	for _, gap := range payload.Data.Gaps {
		prometheus.RecordComplianceGap(gap.Type)
	}

	var req model.CertificateRequest
	if err := db.Where("vendor_id = ?", vendor.ID).
		Order("created_at DESC").
		First(&req).Error; err == nil {
		gaps := make([]compliance.Gap, 0, len(payload.Data.Gaps))
		for _, g := range payload.Data.Gaps {
			gaps = append(gaps, compliance.Gap{
				Kind:     compliance.GapKind(g.Type),
				Message:  g.Message,
				Severity: compliance.Severity(g.Severity),
			})
		}
		reported := &compliance.Result{
			Status:    compliance.StatusNonCompliant,
			CheckedAt: time.Now().UTC(),
			Gaps:      gaps,
		}
		if encErr := req.SetComplianceResult(reported); encErr == nil {
			req.Status = model.RequestNonCompliant
			if saveErr := db.Save(&req).Error; saveErr != nil {
				log.Error("Failed to record gap report", zap.Uint("request_id", req.ID), zap.Error(saveErr))
			}
		}
	}

	updates := map[string]interface{}{
		"insurance_status":        model.InsuranceNonCompliant,
		"insurance_compliance_at": nil,
	}
	if err := db.Model(&model.Vendor{}).Where("id = ?", vendor.ID).Updates(updates).Error; err != nil {
		return err
	}

	log.Info("Compliance gap recorded",
		zap.Uint("vendor_id", vendor.ID),
		zap.Int("gaps", len(payload.Data.Gaps)))
	return nil
}

func loadVendorWithRequirement(vendorID uint) (*model.Vendor, error) {
	var vendor model.Vendor
	err := database.GetDB().
		Preload("InsuranceRequirement").
		Where("id = ?", vendorID).
		First(&vendor).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

// findVendorByBrokermaticCert resolves a webhook certificate to the vendor
// holding the locally stored copy
func findVendorByBrokermaticCert(certID string) (*model.Vendor, error) {
	db := database.GetDB()

	var cert model.Certificate
	if err := db.Where("brokermatic_cert_id = ?", certID).First(&cert).Error; err != nil {
		return nil, err
	}
	return loadVendorWithRequirement(cert.VendorID)
}

// evaluateWebhookCertificate runs the evaluator over the coverages delivered
// in the webhook payload using the vendor's requirement specification
func evaluateWebhookCertificate(vendor *model.Vendor, cert *brokermatic.Certificate, now time.Time) (*compliance.Result, error) {
	spec := compliance.StandardRequirements()
	if vendor.InsuranceRequirement != nil {
		spec = vendor.InsuranceRequirement.ToRequirements()
	}
	return compliance.Evaluate(spec, cert.CoverageInputs(), now)
}
