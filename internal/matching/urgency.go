package matching

import (
	"fmt"
	"time"

	"bloodLink/internal/domain"
	"bloodLink/pkg/e"
)

type UrgencyRule struct {
	Tier   int
	Window time.Duration
}

// UrgencyPolicy maps every urgency level to its priority tier and response window.
type UrgencyPolicy map[domain.UrgencyLevel]UrgencyRule

func DefaultUrgencyPolicy() UrgencyPolicy {
	return UrgencyPolicy{
		domain.UrgencyCritical: {Tier: 1, Window: time.Hour},
		domain.UrgencyUrgent:   {Tier: 2, Window: 4 * time.Hour},
		domain.UrgencyModerate: {Tier: 3, Window: 12 * time.Hour},
		domain.UrgencyRoutine:  {Tier: 4, Window: 24 * time.Hour},
	}
}

// Validate requires a positive window for each level and strictly increasing
// tiers and windows from critical to routine.
func (p UrgencyPolicy) Validate() error {
	prev := UrgencyRule{}
	for _, lvl := range domain.AllUrgencyLevels {
		rule, ok := p[lvl]
		if !ok {
			return fmt.Errorf("urgency policy: missing level %s: %w", lvl, e.ErrInvalidInput)
		}
		if rule.Window <= 0 || rule.Tier <= prev.Tier || rule.Window <= prev.Window {
			return fmt.Errorf("urgency policy: level %s out of order: %w", lvl, e.ErrInvalidInput)
		}
		prev = rule
	}
	return nil
}

type Classification struct {
	Tier                   int
	ExpectedResponseWindow time.Duration
	IsOverdue              bool
}

type Classifier struct {
	policy UrgencyPolicy
}

func NewClassifier(policy UrgencyPolicy) (*Classifier, error) {
	if policy == nil {
		policy = DefaultUrgencyPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{policy: policy}, nil
}

func (c *Classifier) Classify(level domain.UrgencyLevel, createdAt, now time.Time) (Classification, error) {
	rule, ok := c.policy[level]
	if !ok {
		return Classification{}, e.ErrInvalidUrgency
	}
	return Classification{
		Tier:                   rule.Tier,
		ExpectedResponseWindow: rule.Window,
		IsOverdue:              now.Sub(createdAt) > rule.Window,
	}, nil
}

// RespondBy is the instant after which a request created at createdAt is overdue.
func (c *Classifier) RespondBy(level domain.UrgencyLevel, createdAt time.Time) (time.Time, error) {
	rule, ok := c.policy[level]
	if !ok {
		return time.Time{}, e.ErrInvalidUrgency
	}
	return createdAt.Add(rule.Window), nil
}

var defaultClassifier = &Classifier{policy: DefaultUrgencyPolicy()}

// Classify uses the default policy.
func Classify(level domain.UrgencyLevel, createdAt, now time.Time) (Classification, error) {
	return defaultClassifier.Classify(level, createdAt, now)
}
