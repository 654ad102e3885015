package notification

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/silicondon/columbia-compliance-portal/internal/model"
	"github.com/silicondon/columbia-compliance-portal/prometheus"
)

// GormStore implements Store on top of the shared gorm connection
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store bound to the given database handle
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindCertificatesExpiringBetween(ctx context.Context, from, to time.Time) ([]model.Certificate, error) {
	defer prometheus.TrackDBOperation("select")(time.Now())

	var certs []model.Certificate
	err := s.db.WithContext(ctx).
		Preload("Vendor").
		Where("expiration_date >= ? AND expiration_date <= ?", from, to).
		Order("expiration_date ASC").
		Find(&certs).Error
	return certs, err
}

func (s *GormStore) FindCertificatesExpiredSince(ctx context.Context, since, until time.Time) ([]model.Certificate, error) {
	defer prometheus.TrackDBOperation("select")(time.Now())

	var certs []model.Certificate
	err := s.db.WithContext(ctx).
		Preload("Vendor").
		Where("expiration_date >= ? AND expiration_date < ?", since, until).
		Where("compliance_status <> ?", model.CertExpired).
		Find(&certs).Error
	return certs, err
}

func (s *GormStore) FindVendorsNonCompliantSince(ctx context.Context, since time.Time) ([]model.Vendor, error) {
	defer prometheus.TrackDBOperation("select")(time.Now())

	var vendors []model.Vendor
	err := s.db.WithContext(ctx).
		Where("insurance_status = ? AND updated_at >= ?", model.InsuranceNonCompliant, since).
		Find(&vendors).Error
	return vendors, err
}

func (s *GormStore) LatestNonCompliantRequest(ctx context.Context, vendorID uint) (*model.CertificateRequest, error) {
	defer prometheus.TrackDBOperation("select")(time.Now())

	var req model.CertificateRequest
	err := s.db.WithContext(ctx).
		Where("vendor_id = ? AND status = ?", vendorID, model.RequestNonCompliant).
		Order("created_at DESC").
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *GormStore) FindStalePendingRequests(ctx context.Context, cutoff time.Time) ([]model.CertificateRequest, error) {
	defer prometheus.TrackDBOperation("select")(time.Now())

	var requests []model.CertificateRequest
	err := s.db.WithContext(ctx).
		Preload("Vendor").
		Where("status IN ? AND created_at <= ?", model.OpenRequestStatuses, cutoff).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

func (s *GormStore) UpdateCertificate(ctx context.Context, id uint, patch CertificatePatch) error {
	defer prometheus.TrackDBOperation("update")(time.Now())

	updates := map[string]interface{}{}
	if patch.ComplianceStatus != nil {
		updates["compliance_status"] = *patch.ComplianceStatus
	}
	if patch.NotifiedDate != nil {
		updates["notified_date"] = *patch.NotifiedDate
	}
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&model.Certificate{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (s *GormStore) UpdateVendor(ctx context.Context, id uint, patch VendorPatch) error {
	defer prometheus.TrackDBOperation("update")(time.Now())

	updates := map[string]interface{}{}
	if patch.InsuranceStatus != nil {
		updates["insurance_status"] = *patch.InsuranceStatus
	}
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&model.Vendor{}).
		Where("id = ?", id).
		Updates(updates).Error
}
