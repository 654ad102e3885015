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

// ListVendorRates retrieves vendor labor rates, optionally filtered by
// vendor, status and category
func ListVendorRates(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing vendor rates")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	offset := (page - 1) * limit

	query := database.GetDB().Model(&model.VendorRate{})

	if vendorID := c.QueryParam("vendor_id"); vendorID != "" {
		query = query.Where("vendor_id = ?", vendorID)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if category := c.QueryParam("category"); category != "" {
		query = query.Where("rate_category = ?", category)
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var rates []model.VendorRate
	result := query.
		Preload("Vendor").
		Order("rate_category asc").
		Limit(limit).
		Offset(offset).
		Find(&rates)
	if result.Error != nil {
		log.Error("Failed to retrieve vendor rates", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve vendor rates",
		})
	}

	var total int64
	query.Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"rates": rates,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// ListUnionRates retrieves the published union rate sheets, optionally
// filtered by trade
func ListUnionRates(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing union rate sheets")

	query := database.GetDB().Model(&model.UnionRateSheet{})

	if trade := c.QueryParam("trade"); trade != "" {
		query = query.Where("trade = ?", trade)
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var sheets []model.UnionRateSheet
	result := query.Order("trade asc, code asc").Find(&sheets)
	if result.Error != nil {
		log.Error("Failed to retrieve union rate sheets", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve union rate sheets",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"union_rates": sheets,
		"total":       len(sheets),
	})
}
