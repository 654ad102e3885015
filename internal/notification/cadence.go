package notification

import (
	"time"

	"github.com/silicondon/columbia-compliance-portal/internal/compliance"
)

// Cadence thresholds for expiring-certificate reminders, in days before
// expiration. Below the final threshold reminders fire on every run,
// subject to the debounce interval.
const (
	FirstReminderDays  = 90
	SecondReminderDays = 60
	FinalReminderDays  = 30

	// DebounceInterval is the minimum gap between reminder emails for
	// the same certificate.
	DebounceInterval = 7 * 24 * time.Hour

	// PendingReminderInterval is the weekly cadence for nudging vendors
	// with stale open certificate requests.
	PendingReminderInterval = 7
)

// ShouldNotifyExpiring reports whether an expiring-certificate reminder is
// due for a certificate that expires on the given date. Reminders fire at
// exactly 90, 60 and 30 days out, then daily inside the final 30-day window.
func ShouldNotifyExpiring(expiration, now time.Time) bool {
	d := compliance.DaysUntil(expiration, now)
	if d < 0 {
		return false
	}
	switch d {
	case FirstReminderDays, SecondReminderDays, FinalReminderDays:
		return true
	}
	return d < FinalReminderDays
}

// DebounceAllows reports whether enough time has passed since the last
// notification for the same certificate. A nil last means never notified.
func DebounceAllows(last *time.Time, now time.Time) bool {
	if last == nil {
		return true
	}
	return now.Sub(*last) >= DebounceInterval
}

// ShouldRemindPending reports whether a pending certificate request of the
// given age in days is due a weekly reminder. The first reminder goes out
// at seven days, then every seven days after.
func ShouldRemindPending(ageDays int) bool {
	if ageDays < PendingReminderInterval {
		return false
	}
	return ageDays%PendingReminderInterval == 0
}
