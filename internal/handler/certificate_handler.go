package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/silicondon/columbia-compliance-portal/internal/brokermatic"
	"github.com/silicondon/columbia-compliance-portal/internal/model"
	"github.com/silicondon/columbia-compliance-portal/pkg/database"
	"github.com/silicondon/columbia-compliance-portal/pkg/logger"
	"github.com/silicondon/columbia-compliance-portal/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// brokermaticClient is the shared Brokermatic client, wired at startup
var brokermaticClient brokermatic.Client

// SetBrokermaticClient injects the Brokermatic client used by the
// certificate and request handlers
func SetBrokermaticClient(client brokermatic.Client) {
	brokermaticClient = client
}

// CertificateRequestBody defines the structure for certificate
// creation/update requests
type CertificateRequestBody struct {
	VendorID               uint   `json:"vendor_id"`
	CoverageType           string `json:"coverage_type" validate:"required"`
	PolicyNumber           string `json:"policy_number"`
	CarrierName            string `json:"carrier_name"`
	RequiredAmount         *int64 `json:"required_amount"`
	AggregateAmount        *int64 `json:"aggregate_amount"`
	EachOccurrenceAmount   *int64 `json:"each_occurrence_amount"`
	AdditionalInsured      bool   `json:"additional_insured"`
	WaiverOfSubrogation    bool   `json:"waiver_of_subrogation"`
	PrimaryNonContributory bool   `json:"primary_non_contributory"`
	EffectiveDate          string `json:"effective_date"`
	ExpirationDate         string `json:"expiration_date"`
}

// CreateCertificate creates a local certificate record in pending status and
// syncs it to Brokermatic best-effort; a sync failure never loses the local
// record
func CreateCertificate(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new certificate")
	prometheus.RecordCertificateOperation("create")

	var req CertificateRequestBody
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.VendorID == 0 || req.CoverageType == "" {
		log.Warn("Missing vendor_id or coverage_type")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "vendor_id and coverage_type are required",
		})
	}

	var vendorCount int64
	database.GetDB().Model(&model.Vendor{}).Where("id = ?", req.VendorID).Count(&vendorCount)
	if vendorCount == 0 {
		log.Warn("Vendor not found for certificate", zap.Uint("vendor_id", req.VendorID))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	cert := model.Certificate{
		VendorID:               req.VendorID,
		CoverageType:           req.CoverageType,
		PolicyNumber:           req.PolicyNumber,
		CarrierName:            req.CarrierName,
		RequiredAmount:         req.RequiredAmount,
		AggregateAmount:        req.AggregateAmount,
		EachOccurrenceAmount:   req.EachOccurrenceAmount,
		AdditionalInsured:      req.AdditionalInsured,
		WaiverOfSubrogation:    req.WaiverOfSubrogation,
		PrimaryNonContributory: req.PrimaryNonContributory,
		EffectiveDate:          parseDate(req.EffectiveDate),
		ExpirationDate:         parseDate(req.ExpirationDate),
		ComplianceStatus:       model.CertPending,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := database.GetDB().Create(&cert).Error; err != nil {
		log.Error("Failed to create certificate",
			zap.Uint("vendor_id", req.VendorID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create certificate",
		})
	}

	// Best-effort Brokermatic sync; the local record stands on its own
	if brokermaticClient != nil {
		coverage := brokermatic.Coverage{
			Type:         req.CoverageType,
			InsurerName:  req.CarrierName,
			PolicyNumber: req.PolicyNumber,
			Limits:       map[string]float64{},
			Flags: map[string]bool{
				"additionalInsured":      req.AdditionalInsured,
				"waiverOfSubrogation":    req.WaiverOfSubrogation,
				"primaryNonContributory": req.PrimaryNonContributory,
			},
		}
		if req.AggregateAmount != nil {
			coverage.Limits["aggregate"] = float64(*req.AggregateAmount)
		}
		if req.EachOccurrenceAmount != nil {
			coverage.Limits["eachOccurrence"] = float64(*req.EachOccurrenceAmount)
		}
		if req.EffectiveDate != "" {
			coverage.PolicyEffectiveDate = req.EffectiveDate
		}
		if req.ExpirationDate != "" {
			coverage.PolicyExpirationDate = req.ExpirationDate
		}

		bmCert, err := brokermaticClient.CreateCertificate(c.Request().Context(),
			strconv.FormatUint(uint64(req.VendorID), 10), []brokermatic.Coverage{coverage})
		if err != nil {
			log.Warn("Brokermatic sync failed, certificate saved locally",
				zap.Uint("certificate_id", cert.ID),
				zap.Error(err))
		} else {
			cert.BrokermaticCertID = bmCert.ID
			if err := database.GetDB().Model(&cert).Update("brokermatic_cert_id", bmCert.ID).Error; err != nil {
				log.Warn("Failed to store Brokermatic certificate ID",
					zap.Uint("certificate_id", cert.ID),
					zap.Error(err))
			}
		}
	}

	log.Info("Certificate created successfully",
		zap.Uint("id", cert.ID),
		zap.Uint("vendor_id", cert.VendorID),
		zap.String("coverage_type", cert.CoverageType))
	return c.JSON(http.StatusCreated, cert)
}

// ListCertificates retrieves certificates with vendor, coverage type, status
// and expiry-window filters
func ListCertificates(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing certificates with filters")
	prometheus.RecordCertificateOperation("list")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	offset := (page - 1) * limit

	query := database.GetDB().Model(&model.Certificate{})

	if vendorID := c.QueryParam("vendor_id"); vendorID != "" {
		query = query.Where("vendor_id = ?", vendorID)
	}
	if coverageType := c.QueryParam("coverage_type"); coverageType != "" {
		query = query.Where("coverage_type = ?", coverageType)
	}
	if status := c.QueryParam("compliance_status"); status != "" {
		query = query.Where("compliance_status = ?", status)
	}
	if days := c.QueryParam("expiring_within_days"); days != "" {
		if n, err := strconv.Atoi(days); err == nil && n > 0 {
			now := time.Now()
			query = query.Where("expiration_date >= ? AND expiration_date <= ?",
				now, now.AddDate(0, 0, n))
		}
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var certs []model.Certificate
	result := query.
		Preload("Vendor").
		Order("expiration_date asc").
		Limit(limit).
		Offset(offset).
		Find(&certs)
	if result.Error != nil {
		log.Error("Failed to retrieve certificates", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve certificates",
		})
	}

	var total int64
	query.Count(&total)

	log.Info("Certificates retrieved successfully",
		zap.Int("count", len(certs)),
		zap.Int64("total", total))

	return c.JSON(http.StatusOK, echo.Map{
		"certificates": certs,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// GetCertificate retrieves a certificate by ID
func GetCertificate(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCertificateOperation("get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid certificate ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid certificate ID",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var cert model.Certificate
	result := database.GetDB().Preload("Vendor").Where("id = ?", id).First(&cert)
	if result.Error != nil {
		log.Error("Certificate not found", zap.Uint64("certificate_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Certificate not found",
		})
	}

	return c.JSON(http.StatusOK, cert)
}

// UpdateCertificate updates an existing certificate
func UpdateCertificate(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCertificateOperation("update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid certificate ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid certificate ID",
		})
	}

	log.Info("Updating certificate", zap.Uint64("certificate_id", id))

	var req CertificateRequestBody
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("certificate_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var cert model.Certificate
	result := database.GetDB().Where("id = ?", id).First(&cert)
	if result.Error != nil {
		log.Error("Certificate not found for update", zap.Uint64("certificate_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Certificate not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	cert.CoverageType = req.CoverageType
	cert.PolicyNumber = req.PolicyNumber
	cert.CarrierName = req.CarrierName
	cert.RequiredAmount = req.RequiredAmount
	cert.AggregateAmount = req.AggregateAmount
	cert.EachOccurrenceAmount = req.EachOccurrenceAmount
	cert.AdditionalInsured = req.AdditionalInsured
	cert.WaiverOfSubrogation = req.WaiverOfSubrogation
	cert.PrimaryNonContributory = req.PrimaryNonContributory
	cert.EffectiveDate = parseDate(req.EffectiveDate)
	cert.ExpirationDate = parseDate(req.ExpirationDate)
	// A manual edit supersedes any earlier verdict
	cert.ComplianceStatus = model.CertPending
	cert.LastCheckedAt = nil

	result = database.GetDB().Save(&cert)
	if result.Error != nil {
		log.Error("Failed to update certificate", zap.Uint64("certificate_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update certificate",
		})
	}

	log.Info("Certificate updated successfully", zap.Uint64("certificate_id", id))
	return c.JSON(http.StatusOK, cert)
}

// DeleteCertificate removes a certificate record
func DeleteCertificate(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCertificateOperation("delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid certificate ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid certificate ID",
		})
	}

	var cert model.Certificate
	if err := database.GetDB().Where("id = ?", id).First(&cert).Error; err != nil {
		log.Warn("Certificate not found for delete", zap.Uint64("certificate_id", id), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Certificate not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	if err := database.GetDB().Delete(&cert).Error; err != nil {
		log.Error("Failed to delete certificate", zap.Uint64("certificate_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete certificate",
		})
	}

	log.Info("Certificate deleted successfully", zap.Uint64("certificate_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Certificate deleted successfully",
	})
}

// ParseCertificate requests an upload slot and runs the Brokermatic document
// parser. With the mock client this returns a canned extraction.
func ParseCertificate(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCertificateOperation("parse")

	if brokermaticClient == nil {
		log.Error("Brokermatic client not configured")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error": "Certificate parsing is not available",
		})
	}

	ctx := c.Request().Context()

	upload, err := brokermaticClient.GetUploadURL(ctx, "certificate.pdf")
	if err != nil {
		log.Error("Failed to get upload URL", zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": "Failed to get upload URL",
		})
	}

	parsed, err := brokermaticClient.ParseCertificate(ctx, upload.StorageKey)
	if err != nil {
		log.Error("Failed to parse certificate", zap.String("storage_key", upload.StorageKey), zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": "Failed to parse certificate",
		})
	}

	log.Info("Certificate parsed",
		zap.String("storage_key", upload.StorageKey),
		zap.Float64("confidence", parsed.Confidence),
		zap.Int("coverages", len(parsed.Coverages)))

	return c.JSON(http.StatusOK, echo.Map{
		"storage_key": upload.StorageKey,
		"result":      parsed,
	})
}

// parseDate accepts RFC3339 or date-only strings; empty or malformed input
// maps to nil
func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t
	}
	return nil
}
