package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldNotifyExpiringThresholds(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		daysOut int
		want    bool
	}{
		{91, false},
		{90, true},
		{89, false},
		{61, false},
		{60, true},
		{31, false},
		{30, true},
		{29, true},
		{15, true},
		{1, true},
		{0, true},
		{-1, false},
	}

	for _, tc := range cases {
		expiration := now.AddDate(0, 0, tc.daysOut)
		got := ShouldNotifyExpiring(expiration, now)
		assert.Equal(t, tc.want, got, "days out = %d", tc.daysOut)
	}
}

func TestDebounceAllows(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	assert.True(t, DebounceAllows(nil, now), "never notified should always allow")

	threeDaysAgo := now.Add(-3 * 24 * time.Hour)
	assert.False(t, DebounceAllows(&threeDaysAgo, now), "notified 3 days ago should suppress")

	sevenDaysAgo := now.Add(-7 * 24 * time.Hour)
	assert.True(t, DebounceAllows(&sevenDaysAgo, now), "exactly 7 days should allow")

	eightDaysAgo := now.Add(-8 * 24 * time.Hour)
	assert.True(t, DebounceAllows(&eightDaysAgo, now), "notified 8 days ago should allow")
}

func TestShouldRemindPending(t *testing.T) {
	cases := []struct {
		ageDays int
		want    bool
	}{
		{0, false},
		{3, false},
		{6, false},
		{7, true},
		{8, false},
		{13, false},
		{14, true},
		{21, true},
		{28, true},
		{30, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ShouldRemindPending(tc.ageDays), "age = %d days", tc.ageDays)
	}
}
