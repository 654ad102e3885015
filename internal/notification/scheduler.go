package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/silicondon/columbia-compliance-portal/internal/compliance"
	"github.com/silicondon/columbia-compliance-portal/internal/mailer"
	"github.com/silicondon/columbia-compliance-portal/internal/model"
	"github.com/silicondon/columbia-compliance-portal/prometheus"
)

// CertificatePatch carries the certificate fields a notification run may
// update. Nil fields are left untouched.
type CertificatePatch struct {
	ComplianceStatus *string
	NotifiedDate     *time.Time
}

// VendorPatch carries the vendor fields a notification run may update
type VendorPatch struct {
	InsuranceStatus *string
}

// Store is the persistence surface the scheduler needs. The gorm-backed
// implementation lives in store.go; tests substitute a fake.
type Store interface {
	FindCertificatesExpiringBetween(ctx context.Context, from, to time.Time) ([]model.Certificate, error)
	FindCertificatesExpiredSince(ctx context.Context, since, until time.Time) ([]model.Certificate, error)
	FindVendorsNonCompliantSince(ctx context.Context, since time.Time) ([]model.Vendor, error)
	LatestNonCompliantRequest(ctx context.Context, vendorID uint) (*model.CertificateRequest, error)
	FindStalePendingRequests(ctx context.Context, cutoff time.Time) ([]model.CertificateRequest, error)
	UpdateCertificate(ctx context.Context, id uint, patch CertificatePatch) error
	UpdateVendor(ctx context.Context, id uint, patch VendorPatch) error
}

// RunResult summarizes a notification run, one line per email sent
type RunResult struct {
	Expiring     []string `json:"expiring"`
	Expired      []string `json:"expired"`
	NonCompliant []string `json:"non_compliant"`
	Pending      []string `json:"pending"`
}

// Total returns the number of notifications sent across all categories
func (r *RunResult) Total() int {
	return len(r.Expiring) + len(r.Expired) + len(r.NonCompliant) + len(r.Pending)
}

// Scheduler runs the periodic notification checks. A failure to process one
// record never aborts the rest of the run.
type Scheduler struct {
	store       Store
	mailer      mailer.Mailer
	recipients  []string
	baseURL     string
	sendTimeout time.Duration
	logger      *zap.Logger
}

// NewScheduler wires a scheduler from its collaborators
func NewScheduler(store Store, m mailer.Mailer, recipients []string, baseURL string, sendTimeout time.Duration, logger *zap.Logger) *Scheduler {
	if sendTimeout <= 0 {
		sendTimeout = 30 * time.Second
	}
	return &Scheduler{
		store:       store,
		mailer:      m,
		recipients:  recipients,
		baseURL:     baseURL,
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// Run executes all four notification checks against the given reference time
func (s *Scheduler) Run(ctx context.Context, now time.Time) (*RunResult, error) {
	s.logger.Info("Running notification checks", zap.Time("now", now))
	prometheus.NotificationRunsCounter.Inc()

	result := &RunResult{}
	result.Expiring = s.checkExpiringCertificates(ctx, now)
	result.Expired = s.checkExpiredCertificates(ctx, now)
	result.NonCompliant = s.checkNonCompliantVendors(ctx, now)
	result.Pending = s.checkPendingRequests(ctx, now)

	s.logger.Info("Notification checks complete",
		zap.Int("total", result.Total()),
		zap.Int("expiring", len(result.Expiring)),
		zap.Int("expired", len(result.Expired)),
		zap.Int("non_compliant", len(result.NonCompliant)),
		zap.Int("pending", len(result.Pending)))

	return result, ctx.Err()
}

// checkExpiringCertificates sends reminders for certificates expiring within
// 90 days, at the 90/60/30-day marks and daily in the final 30-day window,
// debounced to at most one email per certificate per week.
func (s *Scheduler) checkExpiringCertificates(ctx context.Context, now time.Time) []string {
	certs, err := s.store.FindCertificatesExpiringBetween(ctx, now, now.Add(FirstReminderDays*24*time.Hour))
	if err != nil {
		s.logger.Error("Failed to query expiring certificates", zap.Error(err))
		return nil
	}
	s.logger.Info("Found expiring certificates", zap.Int("count", len(certs)))

	var sent []string
	for _, cert := range certs {
		if cert.ExpirationDate == nil || cert.Vendor == nil {
			continue
		}
		if !ShouldNotifyExpiring(*cert.ExpirationDate, now) {
			continue
		}
		if !DebounceAllows(cert.NotifiedDate, now) {
			continue
		}

		days := compliance.DaysUntil(*cert.ExpirationDate, now)
		urgency := "warning"
		if days <= FinalReminderDays {
			urgency = "danger"
		}

		label := coverageLabel(cert.CoverageType)
		html, err := renderExpiringEmail(expiringTemplateData{
			Urgency:             urgency,
			VendorName:          cert.Vendor.Name,
			CoverageLabel:       label,
			PolicyNumber:        policyNumberOrNA(cert.PolicyNumber),
			ExpirationDate:      formatDate(*cert.ExpirationDate),
			DaysUntilExpiration: days,
			CertificateURL:      fmt.Sprintf("%s/certificates/%d", s.baseURL, cert.ID),
		})
		if err != nil {
			s.logger.Error("Failed to render expiring email", zap.Uint("certificate_id", cert.ID), zap.Error(err))
			continue
		}

		if !s.send(ctx, "expiring", mailer.Message{
			To:       s.recipients,
			Subject:  expiringSubject(cert.Vendor.Name, label),
			HTMLBody: html,
		}) {
			continue
		}

		notifiedAt := now
		if err := s.store.UpdateCertificate(ctx, cert.ID, CertificatePatch{NotifiedDate: &notifiedAt}); err != nil {
			s.logger.Error("Failed to record notified date", zap.Uint("certificate_id", cert.ID), zap.Error(err))
		}
		sent = append(sent, fmt.Sprintf("Sent expiration notice for %s - %s", cert.Vendor.Name, label))
	}
	return sent
}

// checkExpiredCertificates handles certificates that crossed their expiration
// in the last 24 hours and are not yet marked expired. Each gets exactly one
// urgent email, after which both the certificate and the vendor are flipped
// to expired so the next run skips them.
func (s *Scheduler) checkExpiredCertificates(ctx context.Context, now time.Time) []string {
	certs, err := s.store.FindCertificatesExpiredSince(ctx, now.Add(-24*time.Hour), now)
	if err != nil {
		s.logger.Error("Failed to query expired certificates", zap.Error(err))
		return nil
	}
	s.logger.Info("Found newly expired certificates", zap.Int("count", len(certs)))

	var sent []string
	for _, cert := range certs {
		if cert.ExpirationDate == nil || cert.Vendor == nil {
			continue
		}
		if cert.ComplianceStatus == model.CertExpired {
			continue
		}

		overdue := -compliance.DaysUntil(*cert.ExpirationDate, now)
		if overdue < 1 {
			overdue = 1
		}

		label := coverageLabel(cert.CoverageType)
		html, err := renderExpiredEmail(expiredTemplateData{
			VendorName:     cert.Vendor.Name,
			CoverageLabel:  label,
			PolicyNumber:   policyNumberOrNA(cert.PolicyNumber),
			ExpirationDate: formatDate(*cert.ExpirationDate),
			DaysOverdue:    overdue,
			VendorURL:      fmt.Sprintf("%s/vendors/%d/insurance", s.baseURL, cert.VendorID),
		})
		if err != nil {
			s.logger.Error("Failed to render expired email", zap.Uint("certificate_id", cert.ID), zap.Error(err))
			continue
		}

		if !s.send(ctx, "expired", mailer.Message{
			To:       s.recipients,
			Subject:  expiredSubject(cert.Vendor.Name),
			HTMLBody: html,
		}) {
			continue
		}

		status := model.CertExpired
		notifiedAt := now
		if err := s.store.UpdateCertificate(ctx, cert.ID, CertificatePatch{
			ComplianceStatus: &status,
			NotifiedDate:     &notifiedAt,
		}); err != nil {
			s.logger.Error("Failed to mark certificate expired", zap.Uint("certificate_id", cert.ID), zap.Error(err))
		}
		vendorStatus := model.InsuranceExpired
		if err := s.store.UpdateVendor(ctx, cert.VendorID, VendorPatch{InsuranceStatus: &vendorStatus}); err != nil {
			s.logger.Error("Failed to mark vendor expired", zap.Uint("vendor_id", cert.VendorID), zap.Error(err))
		}
		sent = append(sent, fmt.Sprintf("Sent expiration alert for %s - %s", cert.Vendor.Name, label))
	}
	return sent
}

// checkNonCompliantVendors emails Risk Management about vendors that became
// non-compliant in the last 24 hours, listing the gaps recorded on their
// latest non-compliant certificate request.
func (s *Scheduler) checkNonCompliantVendors(ctx context.Context, now time.Time) []string {
	vendors, err := s.store.FindVendorsNonCompliantSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		s.logger.Error("Failed to query non-compliant vendors", zap.Error(err))
		return nil
	}
	s.logger.Info("Found newly non-compliant vendors", zap.Int("count", len(vendors)))

	var sent []string
	for _, vendor := range vendors {
		req, err := s.store.LatestNonCompliantRequest(ctx, vendor.ID)
		if err != nil {
			s.logger.Error("Failed to load latest request", zap.Uint("vendor_id", vendor.ID), zap.Error(err))
			continue
		}
		if req == nil {
			continue
		}
		result, err := req.GetComplianceResult()
		if err != nil || result == nil {
			continue
		}

		gaps := result.GapMessages()
		if len(gaps) == 0 {
			gaps = []string{"Certificate does not meet Columbia University requirements"}
		}

		html, err := renderNonCompliantEmail(nonCompliantTemplateData{
			VendorName:     vendor.Name,
			ComplianceGaps: gaps,
			VendorURL:      fmt.Sprintf("%s/vendors/%d/insurance", s.baseURL, vendor.ID),
		})
		if err != nil {
			s.logger.Error("Failed to render non-compliant email", zap.Uint("vendor_id", vendor.ID), zap.Error(err))
			continue
		}

		if !s.send(ctx, "non_compliant", mailer.Message{
			To:       s.recipients,
			Subject:  nonCompliantSubject(vendor.Name),
			HTMLBody: html,
		}) {
			continue
		}
		sent = append(sent, fmt.Sprintf("Sent non-compliance notice for %s", vendor.Name))
	}
	return sent
}

// checkPendingRequests nudges Risk Management about open certificate requests
// with no broker response, weekly from the seventh day
func (s *Scheduler) checkPendingRequests(ctx context.Context, now time.Time) []string {
	requests, err := s.store.FindStalePendingRequests(ctx, now.Add(-time.Duration(PendingReminderInterval)*24*time.Hour))
	if err != nil {
		s.logger.Error("Failed to query pending requests", zap.Error(err))
		return nil
	}
	s.logger.Info("Found stale pending requests", zap.Int("count", len(requests)))

	var sent []string
	for _, req := range requests {
		if req.Vendor == nil {
			continue
		}
		daysPending := compliance.DaysUntil(now, req.CreatedAt)
		if !ShouldRemindPending(daysPending) {
			continue
		}

		html, err := renderPendingEmail(pendingTemplateData{
			VendorName:    req.Vendor.Name,
			BrokerName:    req.Vendor.BrokerName,
			BrokerEmail:   req.Vendor.BrokerEmail,
			RequestedDate: formatDate(req.CreatedAt),
			DaysPending:   daysPending,
			VendorURL:     fmt.Sprintf("%s/vendors/%d/insurance", s.baseURL, req.VendorID),
		})
		if err != nil {
			s.logger.Error("Failed to render pending reminder", zap.Uint("request_id", req.ID), zap.Error(err))
			continue
		}

		if !s.send(ctx, "pending", mailer.Message{
			To:       s.recipients,
			Subject:  pendingSubject(req.Vendor.Name, daysPending),
			HTMLBody: html,
		}) {
			continue
		}
		sent = append(sent, fmt.Sprintf("Sent pending request reminder for %s (%d days)", req.Vendor.Name, daysPending))
	}
	return sent
}

// send delivers one message within the configured timeout and records the
// outcome. Returns true only on a successful send.
func (s *Scheduler) send(ctx context.Context, category string, msg mailer.Message) bool {
	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	result, err := s.mailer.Send(sendCtx, msg)
	if err != nil || result == nil || !result.Success {
		prometheus.RecordNotificationFailure(category)
		s.logger.Error("Failed to send notification email",
			zap.String("category", category),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return false
	}

	prometheus.RecordNotificationSent(category)
	s.logger.Info("Notification email sent",
		zap.String("category", category),
		zap.String("subject", msg.Subject),
		zap.String("message_id", result.MessageID))
	return true
}

func coverageLabel(raw string) string {
	if ct, ok := compliance.ParseCoverageType(raw); ok {
		return ct.Label()
	}
	return raw
}

func policyNumberOrNA(policyNumber string) string {
	if policyNumber == "" {
		return "N/A"
	}
	return policyNumber
}
