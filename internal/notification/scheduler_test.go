package notification

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/silicondon/columbia-compliance-portal/internal/compliance"
	"github.com/silicondon/columbia-compliance-portal/internal/mailer"
	"github.com/silicondon/columbia-compliance-portal/internal/model"
	"github.com/silicondon/columbia-compliance-portal/pkg/config"
	"github.com/silicondon/columbia-compliance-portal/prometheus"
)

func TestMain(m *testing.M) {
	prometheus.InitMetrics(&config.Config{
		Metrics: config.MetricsConfig{Prefix: "notification_test"},
	})
	os.Exit(m.Run())
}

var runTime = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

// fakeStore is an in-memory Store that records every patch it receives
type fakeStore struct {
	expiring     []model.Certificate
	expired      []model.Certificate
	nonCompliant []model.Vendor
	requests     map[uint]*model.CertificateRequest
	pending      []model.CertificateRequest

	certPatches   map[uint][]CertificatePatch
	vendorPatches map[uint][]VendorPatch
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests:      map[uint]*model.CertificateRequest{},
		certPatches:   map[uint][]CertificatePatch{},
		vendorPatches: map[uint][]VendorPatch{},
	}
}

func (f *fakeStore) FindCertificatesExpiringBetween(ctx context.Context, from, to time.Time) ([]model.Certificate, error) {
	return f.expiring, nil
}

func (f *fakeStore) FindCertificatesExpiredSince(ctx context.Context, since, until time.Time) ([]model.Certificate, error) {
	return f.expired, nil
}

func (f *fakeStore) FindVendorsNonCompliantSince(ctx context.Context, since time.Time) ([]model.Vendor, error) {
	return f.nonCompliant, nil
}

func (f *fakeStore) LatestNonCompliantRequest(ctx context.Context, vendorID uint) (*model.CertificateRequest, error) {
	return f.requests[vendorID], nil
}

func (f *fakeStore) FindStalePendingRequests(ctx context.Context, cutoff time.Time) ([]model.CertificateRequest, error) {
	return f.pending, nil
}

func (f *fakeStore) UpdateCertificate(ctx context.Context, id uint, patch CertificatePatch) error {
	f.certPatches[id] = append(f.certPatches[id], patch)
	return nil
}

func (f *fakeStore) UpdateVendor(ctx context.Context, id uint, patch VendorPatch) error {
	f.vendorPatches[id] = append(f.vendorPatches[id], patch)
	return nil
}

// fakeMailer records sent messages and can fail selectively by subject substring
type fakeMailer struct {
	sent       []mailer.Message
	failOn     string
	failAlways bool
}

func (f *fakeMailer) Send(ctx context.Context, msg mailer.Message) (*mailer.Result, error) {
	if f.failAlways || (f.failOn != "" && strings.Contains(msg.Subject, f.failOn)) {
		return &mailer.Result{Success: false, Error: "smtp unavailable"}, errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, msg)
	return &mailer.Result{Success: true, MessageID: fmt.Sprintf("fake-%d", len(f.sent))}, nil
}

func newTestScheduler(store Store, m mailer.Mailer) *Scheduler {
	return NewScheduler(store, m, []string{"insurance@columbia.edu"}, "http://localhost:8080", 5*time.Second, zap.NewNop())
}

func expiringCert(id uint, vendorName string, daysOut int, notified *time.Time) model.Certificate {
	exp := runTime.AddDate(0, 0, daysOut)
	return model.Certificate{
		ID:               id,
		VendorID:         id,
		CoverageType:     "general_liability",
		PolicyNumber:     fmt.Sprintf("GL-%d", id),
		ExpirationDate:   &exp,
		ComplianceStatus: model.CertCompliant,
		NotifiedDate:     notified,
		Vendor:           &model.Vendor{ID: id, Name: vendorName},
	}
}

func TestRunExpiringSendsAndRecordsNotifiedDate(t *testing.T) {
	store := newFakeStore()
	store.expiring = []model.Certificate{expiringCert(1, "Acme Construction", 30, nil)}
	mail := &fakeMailer{}

	result, err := newTestScheduler(store, mail).Run(context.Background(), runTime)
	require.NoError(t, err)

	require.Len(t, result.Expiring, 1)
	assert.Contains(t, result.Expiring[0], "Acme Construction")
	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.sent[0].Subject, "Certificate Expiring Soon")
	assert.Contains(t, mail.sent[0].HTMLBody, "30 days")

	patches := store.certPatches[1]
	require.Len(t, patches, 1)
	assert.Nil(t, patches[0].ComplianceStatus)
	require.NotNil(t, patches[0].NotifiedDate)
	assert.Equal(t, runTime, *patches[0].NotifiedDate)
}

func TestRunExpiringSkipsOffThresholdAndDebounced(t *testing.T) {
	recentlyNotified := runTime.Add(-3 * 24 * time.Hour)
	store := newFakeStore()
	store.expiring = []model.Certificate{
		expiringCert(1, "Off Threshold Co", 45, nil),              // not at a reminder mark
		expiringCert(2, "Debounced Co", 15, &recentlyNotified),    // inside window but recently notified
		expiringCert(3, "Due Co", 60, nil),                        // exactly at the 60-day mark
	}
	mail := &fakeMailer{}

	result, err := newTestScheduler(store, mail).Run(context.Background(), runTime)
	require.NoError(t, err)

	require.Len(t, result.Expiring, 1)
	assert.Contains(t, result.Expiring[0], "Due Co")
	assert.Empty(t, store.certPatches[1])
	assert.Empty(t, store.certPatches[2])
}

func TestRunExpiredTransitionsCertificateAndVendor(t *testing.T) {
	store := newFakeStore()
	store.expired = []model.Certificate{expiringCert(7, "Lapsed LLC", -1, nil)}
	mail := &fakeMailer{}

	result, err := newTestScheduler(store, mail).Run(context.Background(), runTime)
	require.NoError(t, err)

	require.Len(t, result.Expired, 1)
	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.sent[0].Subject, "URGENT: Certificate Expired - Lapsed LLC")

	patches := store.certPatches[7]
	require.Len(t, patches, 1)
	require.NotNil(t, patches[0].ComplianceStatus)
	assert.Equal(t, model.CertExpired, *patches[0].ComplianceStatus)
	require.NotNil(t, patches[0].NotifiedDate)

	vendorPatches := store.vendorPatches[7]
	require.Len(t, vendorPatches, 1)
	require.NotNil(t, vendorPatches[0].InsuranceStatus)
	assert.Equal(t, model.InsuranceExpired, *vendorPatches[0].InsuranceStatus)
}

func TestRunExpiredSkipsAlreadyMarked(t *testing.T) {
	cert := expiringCert(7, "Lapsed LLC", -1, nil)
	cert.ComplianceStatus = model.CertExpired
	store := newFakeStore()
	store.expired = []model.Certificate{cert}
	mail := &fakeMailer{}

	result, err := newTestScheduler(store, mail).Run(context.Background(), runTime)
	require.NoError(t, err)

	assert.Empty(t, result.Expired)
	assert.Empty(t, mail.sent)
	assert.Empty(t, store.certPatches[7])
}

func TestRunFailedSendLeavesStateUntouched(t *testing.T) {
	store := newFakeStore()
	store.expiring = []model.Certificate{expiringCert(1, "Acme Construction", 30, nil)}
	store.expired = []model.Certificate{expiringCert(2, "Lapsed LLC", -1, nil)}
	mail := &fakeMailer{failAlways: true}

	result, err := newTestScheduler(store, mail).Run(context.Background(), runTime)
	require.NoError(t, err)

	assert.Zero(t, result.Total())
	assert.Empty(t, store.certPatches)
	assert.Empty(t, store.vendorPatches)
}

func TestRunOneFailureDoesNotAbortOthers(t *testing.T) {
	store := newFakeStore()
	store.expiring = []model.Certificate{
		expiringCert(1, "Failing Vendor", 30, nil),
		expiringCert(2, "Healthy Vendor", 30, nil),
	}
	mail := &fakeMailer{failOn: "Failing Vendor"}

	result, err := newTestScheduler(store, mail).Run(context.Background(), runTime)
	require.NoError(t, err)

	require.Len(t, result.Expiring, 1)
	assert.Contains(t, result.Expiring[0], "Healthy Vendor")
	assert.Empty(t, store.certPatches[1])
	assert.Len(t, store.certPatches[2], 1)
}

func TestRunNonCompliantUsesStoredGaps(t *testing.T) {
	vendor := model.Vendor{ID: 4, Name: "Gappy Corp", InsuranceStatus: model.InsuranceNonCompliant}
	store := newFakeStore()
	store.nonCompliant = []model.Vendor{vendor}

	req := &model.CertificateRequest{ID: 40, VendorID: 4, Status: model.RequestNonCompliant}
	require.NoError(t, req.SetComplianceResult(&compliance.Result{
		Status: compliance.StatusNonCompliant,
		Gaps: []compliance.Gap{
			{Message: "general liability: eachOccurrence is insufficient (required: $2,000,000, actual: $1,000,000)"},
		},
	}))
	store.requests[4] = req
	mail := &fakeMailer{}

	result, err := newTestScheduler(store, mail).Run(context.Background(), runTime)
	require.NoError(t, err)

	require.Len(t, result.NonCompliant, 1)
	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.sent[0].HTMLBody, "eachOccurrence is insufficient")
}

func TestRunNonCompliantFallbackMessage(t *testing.T) {
	vendor := model.Vendor{ID: 5, Name: "Opaque Inc", InsuranceStatus: model.InsuranceNonCompliant}
	store := newFakeStore()
	store.nonCompliant = []model.Vendor{vendor}

	req := &model.CertificateRequest{ID: 50, VendorID: 5, Status: model.RequestNonCompliant}
	require.NoError(t, req.SetComplianceResult(&compliance.Result{Status: compliance.StatusNonCompliant}))
	store.requests[5] = req
	mail := &fakeMailer{}

	result, err := newTestScheduler(store, mail).Run(context.Background(), runTime)
	require.NoError(t, err)

	require.Len(t, result.NonCompliant, 1)
	assert.Contains(t, mail.sent[0].HTMLBody, "Certificate does not meet Columbia University requirements")
}

func TestRunNonCompliantSkipsVendorWithoutStoredResult(t *testing.T) {
	store := newFakeStore()
	store.nonCompliant = []model.Vendor{{ID: 6, Name: "No Record Ltd"}}
	mail := &fakeMailer{}

	result, err := newTestScheduler(store, mail).Run(context.Background(), runTime)
	require.NoError(t, err)

	assert.Empty(t, result.NonCompliant)
	assert.Empty(t, mail.sent)
}

func TestRunPendingRemindersWeeklyCadence(t *testing.T) {
	store := newFakeStore()
	store.pending = []model.CertificateRequest{
		{
			ID:       60,
			VendorID: 6,
			Status:   model.RequestPending,
			Vendor:   &model.Vendor{ID: 6, Name: "Slow Broker Co", BrokerEmail: "broker@example.com", BrokerName: "Jordan Reyes"},
		},
		{
			ID:       61,
			VendorID: 7,
			Status:   model.RequestPending,
			Vendor:   &model.Vendor{ID: 7, Name: "Thirteen Days Co", BrokerEmail: "other@example.com"},
		},
	}
	store.pending[0].CreatedAt = runTime.AddDate(0, 0, -14)
	store.pending[1].CreatedAt = runTime.AddDate(0, 0, -13)
	mail := &fakeMailer{}

	result, err := newTestScheduler(store, mail).Run(context.Background(), runTime)
	require.NoError(t, err)

	require.Len(t, result.Pending, 1)
	assert.Contains(t, result.Pending[0], "Slow Broker Co")
	assert.Contains(t, result.Pending[0], "14 days")
	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.sent[0].HTMLBody, "broker@example.com")
}
