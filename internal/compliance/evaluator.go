package compliance

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Evaluate compares a vendor's certificates against a requirement
// specification and produces a deterministic verdict.
//
// Per required coverage type: a missing certificate, an insufficient limit,
// a missing endorsement flag, or an expired policy each emit a gap. A policy
// expiring exactly on the evaluation date is still valid; only an expiration
// strictly before the evaluation date counts as expired. An
// otherwise-passing certificate expiring within ExpiringSoonDays gets a
// non-blocking informational gap and a warning status.
//
// The aggregate status is compliant only when every required coverage
// passes. Evaluate performs no I/O and is safe for concurrent use.
func Evaluate(spec Requirements, certs []CertificateInput, now time.Time) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	byType := indexCertificates(certs)

	result := &Result{
		Status:    StatusCompliant,
		CheckedAt: now,
	}

	for _, ct := range coverageOrder {
		req, required := spec[ct]
		if !required {
			continue
		}

		cert, found := byType[ct]
		if !found {
			result.Gaps = append(result.Gaps, Gap{
				CoverageType: ct,
				Kind:         GapMissingCoverage,
				Message:      fmt.Sprintf("Missing required coverage: %s", ct.Label()),
				Severity:     SeverityCritical,
			})
			result.Coverages = append(result.Coverages, CoverageResult{
				CoverageType: ct,
				Status:       CoverageFail,
				Found:        false,
			})
			result.Status = StatusNonCompliant
			continue
		}

		coverage := CoverageResult{
			CoverageType:   ct,
			Found:          true,
			PolicyNumber:   cert.PolicyNumber,
			ExpirationDate: cert.ExpirationDate,
		}

		failed := false

		// Limits, in sorted order for deterministic output
		for _, name := range sortedLimitNames(req.MinLimits) {
			required := req.MinLimits[name]
			actual := cert.Limits[name] // missing limit reads as 0
			if actual >= required {
				continue
			}
			failed = true
			result.Gaps = append(result.Gaps, Gap{
				CoverageType: ct,
				Kind:         GapInsufficientLimits,
				LimitName:    name,
				Required:     required,
				Actual:       actual,
				Message: fmt.Sprintf("%s: %s is insufficient (required: $%s, actual: $%s)",
					ct.Label(), name, formatAmount(required), formatAmount(actual)),
				Severity: SeverityCritical,
			})
		}

		// Endorsement flags; a missing flag reads as false
		for _, flag := range req.RequiredFlags {
			if cert.Flags[flag] {
				continue
			}
			failed = true
			result.Gaps = append(result.Gaps, Gap{
				CoverageType: ct,
				Kind:         GapMissingFlag,
				Flag:         flag,
				Message:      fmt.Sprintf("%s: required endorsement %s is not present", ct.Label(), flag),
				Severity:     SeverityCritical,
			})
		}

		// Expiration. A nil expiration date never expires.
		if cert.ExpirationDate != nil {
			d := DaysUntil(*cert.ExpirationDate, now)
			coverage.DaysUntilExpiration = &d
			if d < 0 {
				failed = true
				result.Gaps = append(result.Gaps, Gap{
					CoverageType: ct,
					Kind:         GapExpired,
					Message: fmt.Sprintf("%s: policy %s expired on %s",
						ct.Label(), policyLabel(cert.PolicyNumber), cert.ExpirationDate.Format("2006-01-02")),
					Severity: SeverityCritical,
				})
			}
		}

		switch {
		case failed:
			coverage.Status = CoverageFail
		case coverage.DaysUntilExpiration != nil && *coverage.DaysUntilExpiration <= ExpiringSoonDays:
			coverage.Status = CoverageWarning
			result.Gaps = append(result.Gaps, Gap{
				CoverageType: ct,
				Kind:         GapExpiringSoon,
				Message: fmt.Sprintf("%s: policy %s expires in %d days",
					ct.Label(), policyLabel(cert.PolicyNumber), *coverage.DaysUntilExpiration),
				Severity: SeverityInfo,
			})
		default:
			coverage.Status = CoveragePass
		}

		if failed {
			result.Status = StatusNonCompliant
		}
		result.Coverages = append(result.Coverages, coverage)
	}

	return result, nil
}

// DaysUntil returns the number of whole days from now until the given date,
// comparing calendar days rather than instants. Negative means the date is
// in the past; zero means it falls on today.
func DaysUntil(date, now time.Time) int {
	return int(toDay(date).Sub(toDay(now)).Hours() / 24)
}

func toDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// indexCertificates picks one certificate per coverage type. When a vendor
// holds several for the same type, the one expiring last wins (a nil
// expiration counts as furthest out).
func indexCertificates(certs []CertificateInput) map[CoverageType]CertificateInput {
	byType := make(map[CoverageType]CertificateInput, len(certs))
	for _, cert := range certs {
		existing, ok := byType[cert.CoverageType]
		if !ok || expiresAfter(cert.ExpirationDate, existing.ExpirationDate) {
			byType[cert.CoverageType] = cert
		}
	}
	return byType
}

func expiresAfter(a, b *time.Time) bool {
	if a == nil {
		return true
	}
	if b == nil {
		return false
	}
	return a.After(*b)
}

func sortedLimitNames(limits map[string]int64) []string {
	names := make([]string, 0, len(limits))
	for name := range limits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func policyLabel(policyNumber string) string {
	if policyNumber == "" {
		return "N/A"
	}
	return policyNumber
}

// formatAmount renders a dollar amount with thousands separators
func formatAmount(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	s := strconv.FormatInt(amount, 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if negative {
		return "-" + s
	}
	return s
}
