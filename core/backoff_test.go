package core

import (
	"testing"
	"time"
)

func TestTableBackoffPolicy_DefaultTable(t *testing.T) {
	policy := TableBackoffPolicy{}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: 30 * time.Second},
		{attempt: 2, want: 60 * time.Second},
		{attempt: 3, want: 120 * time.Second},
		{attempt: 4, want: 240 * time.Second},
		{attempt: 5, want: 480 * time.Second},
		{attempt: 6, want: 900 * time.Second},
	}
	for _, tc := range cases {
		if got := policy.NextDelay(tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: expected %s got %s", tc.attempt, tc.want, got)
		}
	}
}

func TestTableBackoffPolicy_ClampsOutOfRangeAttempts(t *testing.T) {
	policy := TableBackoffPolicy{Table: []time.Duration{
		time.Second,
		2 * time.Second,
	}}

	if got := policy.NextDelay(0); got != time.Second {
		t.Fatalf("expected clamp to first entry, got %s", got)
	}
	if got := policy.NextDelay(-3); got != time.Second {
		t.Fatalf("expected clamp to first entry, got %s", got)
	}
	if got := policy.NextDelay(9); got != 2*time.Second {
		t.Fatalf("expected clamp to last entry, got %s", got)
	}
}

func TestBackoffTableFromSeconds_SkipsNonPositive(t *testing.T) {
	table := BackoffTableFromSeconds([]int{0, 30, -5, 60})
	if len(table) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(table))
	}
	if table[0] != 30*time.Second || table[1] != 60*time.Second {
		t.Fatalf("unexpected table: %v", table)
	}
	if got := BackoffTableFromSeconds(nil); got != nil {
		t.Fatalf("expected nil table for empty input")
	}
}

func TestConfig_BackoffTableFallsBackToDefault(t *testing.T) {
	cfg := Config{BackoffSeconds: []int{0, -1}}
	table := cfg.BackoffTable()
	if len(table) != len(DefaultBackoffTable) {
		t.Fatalf("expected default table, got %v", table)
	}
}
