package components

import (
	"testing"
	"time"

	"bloodLink/internal/config"
	"bloodLink/internal/domain"
	"bloodLink/internal/matching"
)

func TestNewEngine_FromDefaults(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(config.FromEnv())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if mode := engine.Ranker.Compatibility().Mode(); mode != matching.ModeStandard {
		t.Fatalf("expected standard mode, got %s", mode)
	}

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	cls, err := engine.Classifier.Classify(domain.UrgencyCritical, now, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cls.Tier != 1 || !cls.IsOverdue {
		t.Fatalf("unexpected classification: %+v", cls)
	}
}

func TestNewEngine_ConfiguredWindowsAndMode(t *testing.T) {
	t.Parallel()

	cfg := config.FromEnv()
	cfg.Matching.CompatMode = "legacy"
	cfg.Matching.DistanceMethod = "vincenty"
	cfg.Urgency.Critical = 30 * time.Minute

	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if mode := engine.Ranker.Compatibility().Mode(); mode != matching.ModeLegacy {
		t.Fatalf("expected legacy mode, got %s", mode)
	}

	cls, err := engine.Classifier.Classify(domain.UrgencyCritical, time.Unix(0, 0), time.Unix(0, 0))
	if err != nil || cls.ExpectedResponseWindow != 30*time.Minute {
		t.Fatalf("expected 30m window, got %+v err=%v", cls, err)
	}
}

func TestNewEngine_RejectsBadSettings(t *testing.T) {
	t.Parallel()

	cfg := config.FromEnv()
	cfg.Matching.CompatMode = "anything"
	if _, err := NewEngine(cfg); err == nil {
		t.Fatalf("expected error for unknown compat mode")
	}

	cfg = config.FromEnv()
	cfg.Urgency.Routine = time.Minute
	if _, err := NewEngine(cfg); err == nil {
		t.Fatalf("expected error for inverted urgency windows")
	}
}

func TestUrgencyPolicy_KeepsTiers(t *testing.T) {
	t.Parallel()

	p := UrgencyPolicy(config.UrgencyConfig{Critical: 2 * time.Hour, Urgent: 3 * time.Hour, Moderate: 5 * time.Hour, Routine: 48 * time.Hour})
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if r := p[domain.UrgencyRoutine]; r.Tier != 4 || r.Window != 48*time.Hour {
		t.Fatalf("unexpected routine rule: %+v", r)
	}
}
