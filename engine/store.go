// engine/store.go
package engine

import (
	"context"
	"time"

	"lablend/models"
)

// Store is the persistence surface the engine writes through. db.Repo is
// the Postgres implementation; MemStore backs the tests. Implementations
// translate their native not-found into ErrNotFound.
type Store interface {
	// Items. ReserveStock is the atomic reservation primitive: the
	// availability check and the InUseQty increment are one conditional
	// update evaluated by the store, never a read in one call and a write
	// in another. ReleaseStock and WriteOffStock are floored decrements.
	ItemByID(ctx context.Context, id string) (*models.InventoryItem, error)
	ItemByShortCode(ctx context.Context, code string) (*models.InventoryItem, error)
	ItemsByName(ctx context.Context, q string) ([]models.InventoryItem, error)
	ReserveStock(ctx context.Context, itemID string, quantity int) error
	ReleaseStock(ctx context.Context, itemID string, quantity int) error
	WriteOffStock(ctx context.Context, itemID string, quantity int) error

	// Loans.
	InsertLoan(ctx context.Context, rec *models.LoanRecord) error
	LoanByID(ctx context.Context, id string) (*models.LoanRecord, error)
	ActiveLoanByUnitCode(ctx context.Context, unitCode string) (*models.LoanRecord, error)
	DueBorrowedLoans(ctx context.Context, before time.Time) ([]models.LoanRecord, error)
	// SetLoanOverdue flips borrowed→overdue; changed=false means the
	// record was no longer in Borrowed (benign).
	SetLoanOverdue(ctx context.Context, id string) (changed bool, err error)
	SetLoanReturned(ctx context.Context, id string, returnedOn time.Time) error
	RemoveLoan(ctx context.Context, id string) error

	// Requests. RequestByLoanID finds the request owning a line whose
	// LinkedLoanID matches.
	InsertRequest(ctx context.Context, req *models.BorrowRequest) error
	RequestByID(ctx context.Context, id string) (*models.BorrowRequest, error)
	RequestByLoanID(ctx context.Context, loanID string) (*models.BorrowRequest, error)
	SetRequestStatus(ctx context.Context, id string, status models.RequestStatus) error
	SetRequestRejected(ctx context.Context, id string, reason string) error
	LinkLine(ctx context.Context, lineID, loanID string) error
	UnlinkLine(ctx context.Context, lineID string) error
	RemoveRequest(ctx context.Context, id string) error
}

// RefSource issues human-facing request reference codes.
type RefSource interface {
	NextRef(ctx context.Context) (string, error)
}
