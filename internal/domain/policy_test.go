package domain

import (
	"testing"
	"time"
)

func TestEliminationClockVariesByKind(t *testing.T) {
	p := EliminationPolicy(100)
	if !p.Timed() {
		t.Fatalf("elimination must be timed")
	}
	cases := map[QuestionKind]time.Duration{
		KindBinary: 10 * time.Second,
		KindChoice: 20 * time.Second,
		KindText:   30 * time.Second,
	}
	for kind, want := range cases {
		if got := p.TimeFor(kind); got != want {
			t.Fatalf("kind %s: expected %s, got %s", kind, want, got)
		}
	}
}

func TestCompetitivePolicyDefaultsClock(t *testing.T) {
	if p := CompetitivePolicy(0); p.QuestionTime != DefaultCompetitiveTime {
		t.Fatalf("expected default clock, got %s", p.QuestionTime)
	}
	if p := CompetitivePolicy(45 * time.Second); p.TimeFor(KindText) != 45*time.Second {
		t.Fatalf("competitive clock must not vary by kind")
	}
}

func TestPracticeIsUntimed(t *testing.T) {
	if PracticePolicy().Timed() {
		t.Fatalf("practice must not run a countdown")
	}
}

func TestParseMode(t *testing.T) {
	for _, raw := range []string{"practice", "competitive", "elimination"} {
		if _, ok := ParseMode(raw); !ok {
			t.Fatalf("expected %q to parse", raw)
		}
	}
	if _, ok := ParseMode("speedrun"); ok {
		t.Fatalf("expected unknown mode to be rejected")
	}
}
