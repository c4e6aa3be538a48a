// Package scoring derives the integrity score from the violation timeline.
package scoring

import (
	"context"

	"github.com/17Abhi005/proctorai/internal/domain/model"
)

// Default scoring configuration constants.
const (
	maxScoreValue = 100

	defaultLowDeduction      = 2
	defaultMediumDeduction   = 5
	defaultHighDeduction     = 10
	defaultCriticalDeduction = 20
)

// Option applies a configuration option to the IntegrityScorer.
type Option func(*IntegrityScorer)

// WithDeductions overrides the per-severity deduction table. Non-positive
// entries are ignored.
func WithDeductions(deductions map[model.Severity]int) Option {
	return func(s *IntegrityScorer) {
		for sev, points := range deductions {
			if points > 0 {
				s.deductions[sev] = points
			}
		}
	}
}

// Scorer computes an integrity score from a violation timeline.
type Scorer interface {
	// Score reduces the timeline to a 0-100 score. The reduction is pure:
	// permuting the input or re-inserting lower-severity duplicates of an
	// already-seen type does not change the result.
	Score(ctx context.Context, violations []model.ViolationEvent) int
}

// IntegrityScorer implements Scorer with a per-severity deduction table.
// Duplicate violation types count once, at the maximum severity observed
// for that type.
type IntegrityScorer struct {
	deductions map[model.Severity]int
}

// NewIntegrityScorer creates a scorer with configuration options.
func NewIntegrityScorer(opts ...Option) *IntegrityScorer {
	s := &IntegrityScorer{
		deductions: map[model.Severity]int{
			model.SeverityLow:      defaultLowDeduction,
			model.SeverityMedium:   defaultMediumDeduction,
			model.SeverityHigh:     defaultHighDeduction,
			model.SeverityCritical: defaultCriticalDeduction,
		},
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score computes the integrity score for the given timeline.
func (s *IntegrityScorer) Score(_ context.Context, violations []model.ViolationEvent) int {
	// Keep only the worst severity per violation type.
	worst := make(map[model.ViolationType]model.Severity, len(violations))
	for _, v := range violations {
		if sev, ok := worst[v.Type]; !ok || v.Severity > sev {
			worst[v.Type] = v.Severity
		}
	}

	total := 0
	for _, sev := range worst {
		total += s.deductions[sev]
	}

	score := maxScoreValue - total
	if score < 0 {
		score = 0
	}
	return score
}
