// engine/request.go
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lablend/models"
)

// Requests converts multi-item asks into linked loans and keeps request
// status in sync with the loans it spawned.
type Requests struct {
	store Store
	loans *Loans
	coord *Coordinator
	clock Clock
	refs  RefSource
}

func NewRequests(store Store, loans *Loans, coord *Coordinator, clock Clock, refs RefSource) *Requests {
	return &Requests{store: store, loans: loans, coord: coord, clock: clock, refs: refs}
}

type RequestLineInput struct {
	ItemID   string
	Quantity int
}

type CreateRequestInput struct {
	BorrowerName    string
	BorrowerRef     string
	DesiredReturnOn time.Time
	Lines           []RequestLineInput
}

// Create is the intake step: validate, stamp, assign a reference code,
// persist as pending. Nothing is reserved for a pending request.
func (s *Requests) Create(ctx context.Context, in CreateRequestInput) (*models.BorrowRequest, error) {
	if in.BorrowerName == "" {
		return nil, validationf("borrower name is required")
	}
	if in.DesiredReturnOn.IsZero() {
		return nil, validationf("desired return date is required")
	}
	if len(in.Lines) == 0 {
		return nil, validationf("request needs at least one line")
	}
	for _, ln := range in.Lines {
		if ln.Quantity < 1 {
			return nil, validationf("line quantity must be at least 1, got %d", ln.Quantity)
		}
		if _, err := s.store.ItemByID(ctx, ln.ItemID); err != nil {
			if IsNotFound(err) {
				return nil, fmt.Errorf("%w: item %s", ErrNotFound, ln.ItemID)
			}
			return nil, err
		}
	}
	ref, err := s.refs.NextRef(ctx)
	if err != nil {
		return nil, err
	}
	req := &models.BorrowRequest{
		ID:              uuid.NewString(),
		ReferenceCode:   ref,
		BorrowerName:    in.BorrowerName,
		BorrowerRef:     in.BorrowerRef,
		RequestedOn:     s.clock.Now(),
		DesiredReturnOn: in.DesiredReturnOn,
		Status:          models.RequestPending,
	}
	for _, ln := range in.Lines {
		req.Lines = append(req.Lines, models.RequestLine{
			ID:        uuid.NewString(),
			RequestID: req.ID,
			ItemID:    ln.ItemID,
			Quantity:  ln.Quantity,
		})
	}
	if err := s.store.InsertRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Approve converts a pending request's lines into loans.
//
// Stage one is a read-only preflight over every line; any shortfall
// rejects the whole approval with the failing item named and nothing
// mutated. Stage two processes lines sequentially; if a line fails despite
// preflight (a concurrent reservation got there first) the approval stops,
// already-converted lines keep their loans, and the caller decides whether
// to retry (Approve again skips linked lines) or cancel. A past
// DesiredReturnOn is accepted and yields immediately-overdue loans.
func (s *Requests) Approve(ctx context.Context, id string) (*models.BorrowRequest, error) {
	req, err := s.store.RequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, fmt.Errorf("%w: request %s is %s", ErrAlreadyTerminal, req.ReferenceCode, req.Status)
	}
	for _, ln := range req.Lines {
		if ln.LinkedLoanID != nil {
			continue // converted by an earlier, halted attempt
		}
		it, err := s.store.ItemByID(ctx, ln.ItemID)
		if err != nil {
			return nil, err
		}
		if avail := it.AvailableQty(); ln.Quantity > avail {
			return nil, &InsufficientStockError{
				ItemID:    it.ID,
				ItemName:  it.Name,
				Requested: ln.Quantity,
				Available: avail,
			}
		}
	}
	converted := 0
	for i := range req.Lines {
		ln := &req.Lines[i]
		if ln.LinkedLoanID != nil {
			continue
		}
		rec, err := s.loans.Create(ctx, CreateLoanInput{
			ItemID:       ln.ItemID,
			Quantity:     ln.Quantity,
			BorrowerName: req.BorrowerName,
			BorrowerRef:  req.BorrowerRef,
			DueOn:        req.DesiredReturnOn,
			Note:         "request " + req.ReferenceCode,
		})
		if err != nil {
			return req, &ApprovalHaltedError{RequestID: req.ID, ItemID: ln.ItemID, Converted: converted, Err: err}
		}
		if err := s.store.LinkLine(ctx, ln.ID, rec.ID); err != nil {
			halted := &PartiallyAppliedError{
				Op:      "approveRequest",
				Missing: "line link after loan creation",
				Err:     err,
			}
			return req, &ApprovalHaltedError{RequestID: req.ID, ItemID: ln.ItemID, Converted: converted, Err: halted}
		}
		ln.LinkedLoanID = &rec.ID
		converted++
	}
	if err := s.store.SetRequestStatus(ctx, req.ID, models.RequestApproved); err != nil {
		return req, err
	}
	req.Status = models.RequestApproved
	return req, nil
}

// Reject closes a pending request. No ledger effect: nothing was ever
// reserved for it.
func (s *Requests) Reject(ctx context.Context, id, reason string) (*models.BorrowRequest, error) {
	req, err := s.store.RequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, fmt.Errorf("%w: request %s is %s", ErrAlreadyTerminal, req.ReferenceCode, req.Status)
	}
	if err := s.store.SetRequestRejected(ctx, id, reason); err != nil {
		return nil, err
	}
	req.Status = models.RequestRejected
	req.RejectReason = reason
	return req, nil
}

// Delete cascades to the request's linked loans (restoring stock for any
// still active) before removing the request itself. If any loan deletion
// failed the request is kept, so loans are never silently orphaned.
func (s *Requests) Delete(ctx context.Context, id string) ([]BatchOutcome, error) {
	req, err := s.store.RequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var loanIDs []string
	for _, ln := range req.Lines {
		if ln.LinkedLoanID != nil {
			loanIDs = append(loanIDs, *ln.LinkedLoanID)
		}
	}
	outcomes := s.coord.BulkDeleteLoans(ctx, loanIDs)
	for _, o := range outcomes {
		if o.Status == OutcomeFailed {
			return outcomes, fmt.Errorf("request %s kept: loan %s not deleted: %s",
				req.ReferenceCode, o.ID, o.Detail)
		}
	}
	if err := s.store.RemoveRequest(ctx, id); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}
