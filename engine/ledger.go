// engine/ledger.go
package engine

import (
	"context"
)

// Ledger is the only writer of an item's TotalQty/InUseQty. Every mutation
// goes through the store's single-statement primitives so concurrent
// sessions cannot oversell; the engine never read-modify-writes a counter.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger { return &Ledger{store: store} }

// Reservation is the handle a successful Reserve returns; loan creation
// consumes it.
type Reservation struct {
	ItemID   string
	Quantity int
	UnitCode *string
}

// Reserve claims quantity units of an item, optionally binding one
// serialized unit. Rejections: quantity < 1 (validation), unit already
// out (ErrUnitOnLoan), not enough available (InsufficientStockError).
func (l *Ledger) Reserve(ctx context.Context, itemID string, quantity int, unitCode *string) (*Reservation, error) {
	if quantity < 1 {
		return nil, validationf("quantity must be at least 1, got %d", quantity)
	}
	if unitCode != nil {
		if quantity != 1 {
			return nil, validationf("a loan bound to unit %s must have quantity 1", *unitCode)
		}
		_, err := l.store.ActiveLoanByUnitCode(ctx, *unitCode)
		switch {
		case err == nil:
			return nil, ErrUnitOnLoan
		case !IsNotFound(err):
			return nil, err
		}
	}
	if err := l.store.ReserveStock(ctx, itemID, quantity); err != nil {
		return nil, err
	}
	return &Reservation{ItemID: itemID, Quantity: quantity, UnitCode: unitCode}, nil
}

// Release returns quantity units to availability. The store floors at
// zero; correct callers never underflow, but an underflow must not raise
// the count below zero either way.
func (l *Ledger) Release(ctx context.Context, itemID string, quantity int) error {
	if quantity < 1 {
		return validationf("release quantity must be at least 1, got %d", quantity)
	}
	return l.store.ReleaseStock(ctx, itemID, quantity)
}

// WriteOff permanently removes quantity units from total stock (damage or
// disposal). Call strictly after Release for the same units.
func (l *Ledger) WriteOff(ctx context.Context, itemID string, quantity int) error {
	if quantity < 1 {
		return validationf("write-off quantity must be at least 1, got %d", quantity)
	}
	return l.store.WriteOffStock(ctx, itemID, quantity)
}
