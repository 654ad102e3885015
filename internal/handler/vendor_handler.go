package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/silicondon/columbia-compliance-portal/internal/model"
	"github.com/silicondon/columbia-compliance-portal/pkg/database"
	"github.com/silicondon/columbia-compliance-portal/pkg/logger"
	"github.com/silicondon/columbia-compliance-portal/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const vendorPageSize = 25

// VendorRequest defines the structure for vendor creation/update requests
type VendorRequest struct {
	VmsID               string `json:"vms_id"`
	Name                string `json:"name" validate:"required"`
	Address1            string `json:"address1"`
	City                string `json:"city"`
	State               string `json:"state"`
	Zip                 string `json:"zip"`
	Phone               string `json:"phone"`
	Email               string `json:"email"`
	PrimaryTrade        string `json:"primary_trade"`
	UnionStatus         string `json:"union_status"`
	MwlStatus           string `json:"mwl_status"`
	MaximoEnabled       bool   `json:"maximo_enabled"`
	Facilities          bool   `json:"facilities"`
	Construction        bool   `json:"construction"`
	ExemptFromInsurance bool   `json:"exempt_from_insurance"`
	BrokerEmail         string `json:"broker_email"`
	BrokerName          string `json:"broker_name"`
	ArcVendorID         string `json:"arc_vendor_id"`
}

// SuspendRequest carries the optional reason for a vendor suspension
type SuspendRequest struct {
	Reason string `json:"reason"`
}

// CreateVendor creates a new vendor record
func CreateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new vendor")
	prometheus.RecordVendorOperation("create")

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.Name == "" {
		log.Warn("Vendor name is required")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Vendor name is required",
		})
	}

	// Check for a duplicate VMS id
	if req.VmsID != "" {
		var count int64
		database.GetDB().Model(&model.Vendor{}).
			Where("vms_id = ?", req.VmsID).
			Count(&count)
		if count > 0 {
			log.Warn("Vendor with this VMS ID already exists", zap.String("vms_id", req.VmsID))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Vendor with this VMS ID already exists",
			})
		}
	}

	vendor := model.Vendor{
		VmsID:               req.VmsID,
		Name:                req.Name,
		Address1:            req.Address1,
		City:                req.City,
		State:               req.State,
		Zip:                 req.Zip,
		Phone:               req.Phone,
		Email:               req.Email,
		PrimaryTrade:        req.PrimaryTrade,
		UnionStatus:         req.UnionStatus,
		MwlStatus:           req.MwlStatus,
		MaximoEnabled:       req.MaximoEnabled,
		Facilities:          req.Facilities,
		Construction:        req.Construction,
		ExemptFromInsurance: req.ExemptFromInsurance,
		BrokerEmail:         req.BrokerEmail,
		BrokerName:          req.BrokerName,
		ArcVendorID:         req.ArcVendorID,
		Status:              model.VendorActive,
		InsuranceStatus:     model.InsurancePending,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	result := database.GetDB().Create(&vendor)
	if result.Error != nil {
		log.Error("Failed to create vendor",
			zap.String("name", req.Name),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create vendor",
		})
	}

	go updateVendorStatusGauges()

	log.Info("Vendor created successfully",
		zap.Uint("id", vendor.ID),
		zap.String("name", vendor.Name))
	return c.JSON(http.StatusCreated, vendor)
}

// ListVendors retrieves vendors with search, status and trade filters
func ListVendors(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing vendors with filters")
	prometheus.RecordVendorOperation("list")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * vendorPageSize

	query := database.GetDB().Model(&model.Vendor{})

	if search := c.QueryParam("search"); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
		log.Info("Filtering vendors by name", zap.String("search", search))
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if insuranceStatus := c.QueryParam("insurance_status"); insuranceStatus != "" {
		query = query.Where("insurance_status = ?", insuranceStatus)
	}
	if trade := c.QueryParam("trade"); trade != "" {
		query = query.Where("primary_trade = ?", trade)
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var vendors []model.Vendor
	result := query.
		Order("name asc").
		Limit(vendorPageSize).
		Offset(offset).
		Find(&vendors)
	if result.Error != nil {
		log.Error("Failed to retrieve vendors", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve vendors",
		})
	}

	var total int64
	query.Count(&total)

	log.Info("Vendors retrieved successfully",
		zap.Int("count", len(vendors)),
		zap.Int64("total", total))

	return c.JSON(http.StatusOK, echo.Map{
		"vendors": vendors,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        vendorPageSize,
			"total":        total,
			"total_pages":  (int(total) + vendorPageSize - 1) / vendorPageSize,
		},
	})
}

// GetVendor retrieves a vendor by ID with certificates, contracts, rates and
// the insurance requirement preloaded
func GetVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	log.Info("Getting vendor by ID", zap.Uint64("vendor_id", id))

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var vendor model.Vendor
	result := database.GetDB().
		Preload("Certificates", func(db *gorm.DB) *gorm.DB {
			return db.Order("coverage_type asc")
		}).
		Preload("Contracts", func(db *gorm.DB) *gorm.DB {
			return db.Order("begin_date desc")
		}).
		Preload("Rates", func(db *gorm.DB) *gorm.DB {
			return db.Order("rate_category asc")
		}).
		Preload("CertificateRequests", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at desc")
		}).
		Preload("InsuranceRequirement").
		Where("id = ?", id).
		First(&vendor)
	if result.Error != nil {
		log.Error("Vendor not found", zap.Uint64("vendor_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	log.Info("Vendor retrieved successfully",
		zap.Uint64("vendor_id", id),
		zap.String("name", vendor.Name))
	return c.JSON(http.StatusOK, vendor)
}

// UpdateVendor updates an existing vendor
func UpdateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	log.Info("Updating vendor", zap.Uint64("vendor_id", id))

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("vendor_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var vendor model.Vendor
	result := database.GetDB().Where("id = ?", id).First(&vendor)
	if result.Error != nil {
		log.Error("Vendor not found for update", zap.Uint64("vendor_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Check if the VMS id is changed and if the new one already exists
	if req.VmsID != "" && req.VmsID != vendor.VmsID {
		var count int64
		database.GetDB().Model(&model.Vendor{}).
			Where("vms_id = ? AND id != ?", req.VmsID, id).
			Count(&count)
		if count > 0 {
			log.Warn("Vendor with this VMS ID already exists", zap.String("vms_id", req.VmsID))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Vendor with this VMS ID already exists",
			})
		}
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	vendor.VmsID = req.VmsID
	vendor.Name = req.Name
	vendor.Address1 = req.Address1
	vendor.City = req.City
	vendor.State = req.State
	vendor.Zip = req.Zip
	vendor.Phone = req.Phone
	vendor.Email = req.Email
	vendor.PrimaryTrade = req.PrimaryTrade
	vendor.UnionStatus = req.UnionStatus
	vendor.MwlStatus = req.MwlStatus
	vendor.MaximoEnabled = req.MaximoEnabled
	vendor.Facilities = req.Facilities
	vendor.Construction = req.Construction
	vendor.ExemptFromInsurance = req.ExemptFromInsurance
	vendor.BrokerEmail = req.BrokerEmail
	vendor.BrokerName = req.BrokerName
	vendor.ArcVendorID = req.ArcVendorID

	result = database.GetDB().Save(&vendor)
	if result.Error != nil {
		log.Error("Failed to update vendor", zap.Uint64("vendor_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update vendor",
		})
	}

	log.Info("Vendor updated successfully",
		zap.Uint64("vendor_id", id),
		zap.String("name", vendor.Name))
	return c.JSON(http.StatusOK, vendor)
}

// DeleteVendor handles deleting a vendor (soft delete)
func DeleteVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	log.Info("Deleting vendor", zap.Uint64("vendor_id", id))

	var vendor model.Vendor
	preResult := database.GetDB().Where("id = ?", id).First(&vendor)
	if preResult.Error != nil {
		log.Warn("Vendor not found for delete", zap.Uint64("vendor_id", id), zap.Error(preResult.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	// Perform soft delete
	result := database.GetDB().Delete(&vendor)
	if result.Error != nil {
		log.Error("Failed to delete vendor", zap.Uint64("vendor_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete vendor",
		})
	}

	go updateVendorStatusGauges()

	log.Info("Vendor deleted successfully",
		zap.Uint64("vendor_id", id),
		zap.Int64("rows_affected", result.RowsAffected))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Vendor deleted successfully",
	})
}

// SuspendVendor marks a vendor as suspended
func SuspendVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("suspend")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	var req SuspendRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.Reason == "" {
		req.Reason = "Expired insurance certificates"
	}

	var vendor model.Vendor
	result := database.GetDB().Where("id = ?", id).First(&vendor)
	if result.Error != nil {
		log.Error("Vendor not found for suspend", zap.Uint64("vendor_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	now := time.Now()
	vendor.Status = model.VendorSuspended
	vendor.SuspendedDate = &now
	vendor.SuspendedReason = req.Reason

	if err := database.GetDB().Save(&vendor).Error; err != nil {
		log.Error("Failed to suspend vendor", zap.Uint64("vendor_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to suspend vendor",
		})
	}

	log.Info("Vendor suspended",
		zap.Uint64("vendor_id", id),
		zap.String("reason", req.Reason))
	return c.JSON(http.StatusOK, vendor)
}

// ReinstateVendor clears a vendor suspension
func ReinstateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("reinstate")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	var vendor model.Vendor
	result := database.GetDB().Where("id = ?", id).First(&vendor)
	if result.Error != nil {
		log.Error("Vendor not found for reinstate", zap.Uint64("vendor_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	updates := map[string]interface{}{
		"status":           model.VendorActive,
		"suspended_date":   nil,
		"suspended_reason": "",
	}
	if err := database.GetDB().Model(&vendor).Updates(updates).Error; err != nil {
		log.Error("Failed to reinstate vendor", zap.Uint64("vendor_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to reinstate vendor",
		})
	}

	log.Info("Vendor reinstated", zap.Uint64("vendor_id", id))
	return c.JSON(http.StatusOK, vendor)
}

// updateVendorStatusGauges refreshes the vendors-per-insurance-status gauges
func updateVendorStatusGauges() {
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
		database.GetDB().Model(&model.Vendor{}).
			Where("insurance_status = ?", status).
			Count(&count)
		prometheus.UpdateVendorsByStatus(status, count)
	}
}
