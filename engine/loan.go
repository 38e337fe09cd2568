// engine/loan.go
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lablend/models"
)

// Loans is the loan state machine: borrowed → {overdue, returned},
// overdue → returned. Creation pairs with a reservation, completion with a
// release (plus write-off for defective/disposed units).
type Loans struct {
	store  Store
	ledger *Ledger
	clock  Clock
}

func NewLoans(store Store, ledger *Ledger, clock Clock) *Loans {
	return &Loans{store: store, ledger: ledger, clock: clock}
}

type CreateLoanInput struct {
	ItemID       string
	Quantity     int
	BorrowerName string
	BorrowerRef  string
	DueOn        time.Time
	UnitCode     *string
	Note         string
}

// Create reserves stock and inserts the record. A due date already in the
// past yields a loan that starts life overdue (backdated/late-logged
// loans). If the insert fails after the reservation succeeded the caller
// gets ErrPartiallyApplied, never a silent inconsistency.
func (s *Loans) Create(ctx context.Context, in CreateLoanInput) (*models.LoanRecord, error) {
	if in.BorrowerName == "" {
		return nil, validationf("borrower name is required")
	}
	if in.DueOn.IsZero() {
		return nil, validationf("due date is required")
	}
	res, err := s.ledger.Reserve(ctx, in.ItemID, in.Quantity, in.UnitCode)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	status := models.LoanBorrowed
	if in.DueOn.Before(now) {
		status = models.LoanOverdue
	}
	rec := &models.LoanRecord{
		ID:           uuid.NewString(),
		ItemID:       res.ItemID,
		BorrowerName: in.BorrowerName,
		BorrowerRef:  in.BorrowerRef,
		Quantity:     res.Quantity,
		UnitCode:     res.UnitCode,
		BorrowedOn:   now,
		DueOn:        in.DueOn,
		Status:       status,
		Note:         in.Note,
	}
	if err := s.store.InsertLoan(ctx, rec); err != nil {
		return nil, &PartiallyAppliedError{
			Op:      "createLoan",
			Missing: "loan record insert after stock reservation",
			Err:     err,
		}
	}
	return rec, nil
}

// MarkOverdue promotes a borrowed loan. Idempotent: changed=false when the
// record is already overdue or returned.
func (s *Loans) MarkOverdue(ctx context.Context, id string) (bool, error) {
	return s.store.SetLoanOverdue(ctx, id)
}

// CompleteResult distinguishes a real transition from the benign repeat of
// one (Applied=false: the loan was already returned).
type CompleteResult struct {
	Record  *models.LoanRecord
	Applied bool
}

// Complete returns a loan. The disposition must partition the quantity
// exactly; a nil disposition means all units came back good. Ledger order
// is release first, then write-off for defective+disposed; a failure of
// the second half surfaces as ErrPartiallyApplied.
func (s *Loans) Complete(ctx context.Context, id string, d *models.Disposition) (*CompleteResult, error) {
	rec, err := s.store.LoanByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == models.LoanReturned {
		return &CompleteResult{Record: rec, Applied: false}, nil
	}
	disp := models.AllGood(rec.Quantity)
	if d != nil {
		disp = *d
	}
	// Validation error, not a ledger error: reject before any ledger call.
	if disp.Good < 0 || disp.Defective < 0 || disp.Disposed < 0 {
		return nil, validationf("disposition counts must not be negative")
	}
	if disp.Good+disp.Defective+disp.Disposed != rec.Quantity {
		return nil, validationf("disposition %d+%d+%d does not partition quantity %d",
			disp.Good, disp.Defective, disp.Disposed, rec.Quantity)
	}
	if err := s.ledger.Release(ctx, rec.ItemID, rec.Quantity); err != nil {
		return nil, err
	}
	if w := disp.WriteOff(); w > 0 {
		if err := s.ledger.WriteOff(ctx, rec.ItemID, w); err != nil {
			return nil, &PartiallyAppliedError{
				Op:      "completeLoan",
				Missing: "write-off after stock release",
				Err:     err,
			}
		}
	}
	returnedOn := s.clock.Now()
	if err := s.store.SetLoanReturned(ctx, id, returnedOn); err != nil {
		return nil, &PartiallyAppliedError{
			Op:      "completeLoan",
			Missing: "record update after stock release",
			Err:     err,
		}
	}
	rec.Status = models.LoanReturned
	rec.ReturnedOn = &returnedOn
	return &CompleteResult{Record: rec, Applied: true}, nil
}
