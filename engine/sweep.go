// engine/sweep.go
package engine

import (
	"context"
	"time"
)

// Sweep promotes stale borrowed loans to overdue. Each transition is
// independent and conditional, so the pass is idempotent, safe to run
// concurrently with returns (a loan returned moments earlier simply no
// longer matches), and resumable from scratch after a partial failure.
type Sweep struct {
	store Store
	loans *Loans
	clock Clock
}

func NewSweep(store Store, loans *Loans, clock Clock) *Sweep {
	return &Sweep{store: store, loans: loans, clock: clock}
}

type SweepReport struct {
	RanAt    time.Time      `json:"ranAt"`
	Promoted int            `json:"promoted"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Outcomes []BatchOutcome `json:"outcomes,omitempty"`
}

func (s *Sweep) Run(ctx context.Context) (*SweepReport, error) {
	now := s.clock.Now()
	due, err := s.store.DueBorrowedLoans(ctx, now)
	if err != nil {
		return nil, err
	}
	report := &SweepReport{RanAt: now}
	for _, rec := range due {
		changed, err := s.loans.MarkOverdue(ctx, rec.ID)
		switch {
		case err != nil:
			report.Failed++
			report.Outcomes = append(report.Outcomes, BatchOutcome{ID: rec.ID, Status: OutcomeFailed, Detail: err.Error()})
		case changed:
			report.Promoted++
			report.Outcomes = append(report.Outcomes, BatchOutcome{ID: rec.ID, Status: OutcomeOK})
		default:
			// returned (or already promoted) between select and update
			report.Skipped++
			report.Outcomes = append(report.Outcomes, BatchOutcome{ID: rec.ID, Status: OutcomeSkipped})
		}
	}
	return report, nil
}
