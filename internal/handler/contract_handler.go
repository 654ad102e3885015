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
)

// ListContracts retrieves contracts, optionally filtered by vendor and type
func ListContracts(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing contracts")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	offset := (page - 1) * limit

	query := database.GetDB().Model(&model.Contract{})

	if vendorID := c.QueryParam("vendor_id"); vendorID != "" {
		query = query.Where("vendor_id = ?", vendorID)
	}
	if contractType := c.QueryParam("contract_type"); contractType != "" {
		query = query.Where("contract_type = ?", contractType)
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var contracts []model.Contract
	result := query.
		Preload("Vendor").
		Order("begin_date desc").
		Limit(limit).
		Offset(offset).
		Find(&contracts)
	if result.Error != nil {
		log.Error("Failed to retrieve contracts", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve contracts",
		})
	}

	var total int64
	query.Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"contracts": contracts,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}
