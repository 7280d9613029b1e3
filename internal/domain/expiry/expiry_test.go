package expiry

import (
	"testing"
	"time"
)

func TestExpiredBoundary(t *testing.T) {
	p := Default()
	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "day 29", now: created.Add(29 * 24 * time.Hour), want: false},
		{name: "one second before", now: created.Add(TTL - time.Second), want: false},
		{name: "exactly ttl", now: created.Add(TTL), want: true},
		{name: "day 31", now: created.Add(31 * 24 * time.Hour), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Expired(created, tt.now); got != tt.want {
				t.Fatalf("Expired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWarningWindowDerivedFromTTL(t *testing.T) {
	p := Default()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	from, to := p.WarningWindow(now)
	if want := now.Add(-27 * 24 * time.Hour); !to.Equal(want) {
		t.Fatalf("to = %v, want %v", to, want)
	}
	if want := now.Add(-28 * 24 * time.Hour); !from.Equal(want) {
		t.Fatalf("from = %v, want %v", from, want)
	}
	if p.InWarningWindow(from, now) {
		t.Fatalf("lower bound must be exclusive")
	}
	if !p.InWarningWindow(to, now) {
		t.Fatalf("upper bound must be inclusive")
	}

	custom := Policy{TTL: 10 * 24 * time.Hour, WarningLead: 2 * 24 * time.Hour}
	_, to = custom.WarningWindow(now)
	if want := now.Add(-8 * 24 * time.Hour); !to.Equal(want) {
		t.Fatalf("custom to = %v, want %v", to, want)
	}
}

func TestCountdown(t *testing.T) {
	if got := Countdown(0); got != "Expired" {
		t.Fatalf("got %q", got)
	}
	d := 2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second
	if got := Countdown(d); got != "Deletes in: 2d 03h 04m 05s" {
		t.Fatalf("got %q", got)
	}
}

func TestWarningText(t *testing.T) {
	got := Default().WarningText("Desk lamp")
	want := `Your listing "Desk lamp" will expire and be deleted in 3 days.`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
