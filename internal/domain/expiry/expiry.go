// Package expiry holds the single listing time-to-live policy shared by the
// marketplace filter, the countdown display and the cleanup job.
package expiry

import (
	"fmt"
	"time"
)

const (
	// TTL is how long a listing stays on the marketplace after creation.
	TTL = 30 * 24 * time.Hour
	// WarningLead is how long before expiry the seller is warned.
	WarningLead = 3 * 24 * time.Hour
	// ScanWindow is the width of the warning window; it matches a daily job cadence.
	ScanWindow = 24 * time.Hour
)

// Policy evaluates listing age against the TTL.
type Policy struct {
	TTL         time.Duration
	WarningLead time.Duration
	ScanWindow  time.Duration
}

// Default returns the production policy.
func Default() Policy {
	return Policy{TTL: TTL, WarningLead: WarningLead, ScanWindow: ScanWindow}
}

func (p Policy) normalized() Policy {
	if p.TTL <= 0 {
		p.TTL = TTL
	}
	if p.WarningLead <= 0 || p.WarningLead >= p.TTL {
		p.WarningLead = WarningLead
	}
	if p.ScanWindow <= 0 {
		p.ScanWindow = ScanWindow
	}
	return p
}

// ExpiresAt is the instant the listing stops being visible.
func (p Policy) ExpiresAt(createdAt time.Time) time.Time {
	return createdAt.Add(p.normalized().TTL)
}

// Remaining is createdAt + TTL - now; zero or negative means expired.
func (p Policy) Remaining(createdAt, now time.Time) time.Duration {
	return p.ExpiresAt(createdAt).Sub(now)
}

// Expired reports whether the listing has reached the end of its TTL.
func (p Policy) Expired(createdAt, now time.Time) bool {
	return p.Remaining(createdAt, now) <= 0
}

// DeleteCutoff returns the creation instant before which listings are purged.
func (p Policy) DeleteCutoff(now time.Time) time.Time {
	return now.Add(-p.normalized().TTL)
}

// WarningWindow returns the creation range (from, to] of listings that enter
// the warning lead during the current scan.
func (p Policy) WarningWindow(now time.Time) (from, to time.Time) {
	np := p.normalized()
	to = now.Add(-(np.TTL - np.WarningLead))
	from = to.Add(-np.ScanWindow)
	return from, to
}

// InWarningWindow reports whether createdAt falls inside WarningWindow(now).
func (p Policy) InWarningWindow(createdAt, now time.Time) bool {
	from, to := p.WarningWindow(now)
	return createdAt.After(from) && !createdAt.After(to)
}

// WarningDays is the lead expressed in whole days for user-facing copy.
func (p Policy) WarningDays() int {
	return int(p.normalized().WarningLead / (24 * time.Hour))
}

// WarningText is the notice sent to a seller whose listing is about to expire.
func (p Policy) WarningText(title string) string {
	return fmt.Sprintf("Your listing \"%s\" will expire and be deleted in %d days.", title, p.WarningDays())
}

// Countdown renders remaining time as "Deletes in: 2d 03h 04m 05s" or "Expired".
func Countdown(remaining time.Duration) string {
	if remaining <= 0 {
		return "Expired"
	}
	total := int64(remaining / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("Deletes in: %dd %02dh %02dm %02ds", days, hours, minutes, seconds)
}
