// engine/coordinator.go
package engine

import (
	"context"

	"lablend/models"
)

// Coordinator sequences multi-record operations. Batches run strictly
// sequentially: each step may fail on its own, the per-item outcome stays
// attributable, and lines hitting the same item need no in-process
// coordination.
type Coordinator struct {
	store  Store
	ledger *Ledger
	loans  *Loans
}

func NewCoordinator(store Store, ledger *Ledger, loans *Loans) *Coordinator {
	return &Coordinator{store: store, ledger: ledger, loans: loans}
}

type OutcomeStatus string

const (
	OutcomeOK      OutcomeStatus = "ok"
	OutcomeSkipped OutcomeStatus = "skipped" // already in the desired state
	OutcomeFailed  OutcomeStatus = "failed"
)

// BatchOutcome is one entry of a batch report. Nothing is silently
// dropped: every id the caller passed gets an entry.
type BatchOutcome struct {
	ID     string        `json:"id"`
	Status OutcomeStatus `json:"status"`
	Detail string        `json:"detail,omitempty"`
}

// BulkComplete returns each loan with the all-good disposition. One
// failure is recorded and skipped, never fatal to the batch.
func (c *Coordinator) BulkComplete(ctx context.Context, ids []string) []BatchOutcome {
	outcomes := make([]BatchOutcome, 0, len(ids))
	for _, id := range ids {
		res, err := c.loans.Complete(ctx, id, nil)
		switch {
		case err != nil:
			outcomes = append(outcomes, BatchOutcome{ID: id, Status: OutcomeFailed, Detail: err.Error()})
			continue
		case !res.Applied:
			outcomes = append(outcomes, BatchOutcome{ID: id, Status: OutcomeSkipped, Detail: "already returned"})
			continue
		}
		out := BatchOutcome{ID: id, Status: OutcomeOK}
		if err := c.ResyncRequestStatus(ctx, id); err != nil {
			out.Detail = "returned, request resync failed: " + err.Error()
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// DeleteLoan retracts a loan outright. An active loan releases its
// reservation first (the units are presumed to still exist, only the paper
// trail goes); a returned loan was already released and is just removed.
func (c *Coordinator) DeleteLoan(ctx context.Context, id string) error {
	rec, err := c.store.LoanByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status.Active() {
		if err := c.ledger.Release(ctx, rec.ItemID, rec.Quantity); err != nil {
			return err
		}
		if err := c.store.RemoveLoan(ctx, id); err != nil {
			return &PartiallyAppliedError{
				Op:      "deleteLoan",
				Missing: "record removal after stock release",
				Err:     err,
			}
		}
	} else if err := c.store.RemoveLoan(ctx, id); err != nil {
		return err
	}
	return c.ResyncRequestStatus(ctx, id)
}

// BulkDeleteLoans deletes independently; one failure does not block the
// rest. An id that is already gone counts as skipped.
func (c *Coordinator) BulkDeleteLoans(ctx context.Context, ids []string) []BatchOutcome {
	outcomes := make([]BatchOutcome, 0, len(ids))
	for _, id := range ids {
		err := c.DeleteLoan(ctx, id)
		switch {
		case err == nil:
			outcomes = append(outcomes, BatchOutcome{ID: id, Status: OutcomeOK})
		case IsNotFound(err):
			outcomes = append(outcomes, BatchOutcome{ID: id, Status: OutcomeSkipped, Detail: "already gone"})
		default:
			outcomes = append(outcomes, BatchOutcome{ID: id, Status: OutcomeFailed, Detail: err.Error()})
		}
	}
	return outcomes
}

// ResyncRequestStatus recomputes the derived status of the request (if
// any) owning a line linked to this loan. Idempotent and safe to call
// redundantly: a request flips to returned only when every line is linked
// and every linked loan is returned. A dangling link (loan deleted
// directly) is cleared so the line reads as unconverted again.
func (c *Coordinator) ResyncRequestStatus(ctx context.Context, loanID string) error {
	req, err := c.store.RequestByLoanID(ctx, loanID)
	if IsNotFound(err) {
		return nil // loan not linked from any request
	}
	if err != nil {
		return err
	}
	allReturned := true
	for i := range req.Lines {
		ln := &req.Lines[i]
		if ln.LinkedLoanID == nil {
			allReturned = false
			continue
		}
		loan, err := c.store.LoanByID(ctx, *ln.LinkedLoanID)
		if IsNotFound(err) {
			if err := c.store.UnlinkLine(ctx, ln.ID); err != nil {
				return err
			}
			ln.LinkedLoanID = nil
			allReturned = false
			continue
		}
		if err != nil {
			return err
		}
		if loan.Status != models.LoanReturned {
			allReturned = false
		}
	}
	if allReturned && req.Status != models.RequestReturned {
		return c.store.SetRequestStatus(ctx, req.ID, models.RequestReturned)
	}
	return nil
}
