package entities_test

import (
	"testing"
	"time"

	"meridian/internal/matching/domain/entities"
)

func TestDistributionTransitionTable(t *testing.T) {
	cases := []struct {
		from    entities.DistributionStatus
		to      entities.DistributionStatus
		allowed bool
	}{
		{entities.DistributionStatusPending, entities.DistributionStatusViewed, true},
		{entities.DistributionStatusPending, entities.DistributionStatusQuoted, true},
		{entities.DistributionStatusPending, entities.DistributionStatusIgnored, true},
		{entities.DistributionStatusPending, entities.DistributionStatusExpired, true},
		{entities.DistributionStatusViewed, entities.DistributionStatusQuoted, true},
		{entities.DistributionStatusViewed, entities.DistributionStatusIgnored, true},
		{entities.DistributionStatusViewed, entities.DistributionStatusExpired, true},
		{entities.DistributionStatusViewed, entities.DistributionStatusPending, false},
		{entities.DistributionStatusQuoted, entities.DistributionStatusViewed, false},
		{entities.DistributionStatusQuoted, entities.DistributionStatusExpired, false},
		{entities.DistributionStatusIgnored, entities.DistributionStatusQuoted, false},
		{entities.DistributionStatusExpired, entities.DistributionStatusViewed, false},
	}
	for _, tc := range cases {
		dist := entities.Distribution{Status: tc.from}
		if got := dist.CanTransition(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected allowed=%v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestDistributionTerminalStates(t *testing.T) {
	terminal := []entities.DistributionStatus{
		entities.DistributionStatusQuoted,
		entities.DistributionStatusIgnored,
		entities.DistributionStatusExpired,
	}
	for _, status := range terminal {
		if !(entities.Distribution{Status: status}).IsTerminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
	}
	for _, status := range []entities.DistributionStatus{
		entities.DistributionStatusPending,
		entities.DistributionStatusViewed,
	} {
		if (entities.Distribution{Status: status}).IsTerminal() {
			t.Fatalf("expected %s to be non-terminal", status)
		}
	}
}

func TestDistributionDerivedDurations(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	viewed := created.Add(2 * 24 * time.Hour)
	quoted := created.Add(3 * 24 * time.Hour)

	dist := entities.Distribution{CreatedAt: created}
	if _, ok := dist.ResponseTime(); ok {
		t.Fatal("expected no response time before viewing")
	}

	dist.ViewedAt = &viewed
	elapsed, ok := dist.ResponseTime()
	if !ok || elapsed != 48*time.Hour {
		t.Fatalf("expected 48h response time, got %v (ok=%v)", elapsed, ok)
	}

	dist.QuotedAt = &quoted
	elapsed, ok = dist.TimeToQuote()
	if !ok || elapsed != 72*time.Hour {
		t.Fatalf("expected 72h time to quote, got %v (ok=%v)", elapsed, ok)
	}
}

func TestDistributionDeadlineChecks(t *testing.T) {
	expires := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)
	dist := entities.Distribution{
		Status:    entities.DistributionStatusPending,
		ExpiresAt: expires,
	}

	if dist.DeadlineApproaching(expires.Add(-3 * 24 * time.Hour)) {
		t.Fatal("deadline should not be approaching three days out")
	}
	if !dist.DeadlineApproaching(expires.Add(-24 * time.Hour)) {
		t.Fatal("deadline should be approaching one day out")
	}
	if dist.DeadlineExpired(expires.Add(-time.Minute)) {
		t.Fatal("deadline should not be expired before expires_at")
	}
	if !dist.DeadlineExpired(expires.Add(time.Minute)) {
		t.Fatal("deadline should be expired after expires_at")
	}

	dist.Status = entities.DistributionStatusQuoted
	if dist.DeadlineApproaching(expires.Add(-24 * time.Hour)) {
		t.Fatal("terminal distributions never report approaching deadlines")
	}
}
