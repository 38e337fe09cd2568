package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"lablend/engine"
	"lablend/models"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

// flakyStore wraps the memory store to inject step failures for the
// partial-failure paths.
type flakyStore struct {
	engine.Store
	failReserveItem string // ReserveStock fails for this item
	failInsertLoan  bool
	failWriteOff    bool
	failOverdueID   string // SetLoanOverdue fails for this loan
}

var errInjected = errors.New("injected store failure")

func (f *flakyStore) ReserveStock(ctx context.Context, itemID string, quantity int) error {
	if itemID == f.failReserveItem {
		return errInjected
	}
	return f.Store.ReserveStock(ctx, itemID, quantity)
}

func (f *flakyStore) InsertLoan(ctx context.Context, rec *models.LoanRecord) error {
	if f.failInsertLoan {
		return errInjected
	}
	return f.Store.InsertLoan(ctx, rec)
}

func (f *flakyStore) WriteOffStock(ctx context.Context, itemID string, quantity int) error {
	if f.failWriteOff {
		return errInjected
	}
	return f.Store.WriteOffStock(ctx, itemID, quantity)
}

func (f *flakyStore) SetLoanOverdue(ctx context.Context, id string) (bool, error) {
	if id == f.failOverdueID {
		return false, errInjected
	}
	return f.Store.SetLoanOverdue(ctx, id)
}

type fixture struct {
	mem      *engine.MemStore
	flaky    *flakyStore
	clock    *testClock
	ledger   *engine.Ledger
	loans    *engine.Loans
	coord    *engine.Coordinator
	requests *engine.Requests
	sweep    *engine.Sweep
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := engine.NewMemStore()
	flaky := &flakyStore{Store: mem}
	clock := &testClock{now: time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)}
	ledger := engine.NewLedger(flaky)
	loans := engine.NewLoans(flaky, ledger, clock)
	coord := engine.NewCoordinator(flaky, ledger, loans)
	requests := engine.NewRequests(flaky, loans, coord, clock, mem)
	sweep := engine.NewSweep(flaky, loans, clock)
	return &fixture{
		mem: mem, flaky: flaky, clock: clock,
		ledger: ledger, loans: loans, coord: coord,
		requests: requests, sweep: sweep,
	}
}

func (f *fixture) seedItem(shortCode, name string, total int, cap *int) models.InventoryItem {
	it := models.InventoryItem{
		ID:        uuid.NewString(),
		ShortCode: shortCode,
		Name:      name,
		TotalQty:  total,
		BorrowCap: cap,
	}
	f.mem.PutItem(it)
	return it
}

func (f *fixture) item(t *testing.T, id string) *models.InventoryItem {
	t.Helper()
	it, err := f.mem.ItemByID(context.Background(), id)
	require.NoError(t, err)
	return it
}

func (f *fixture) borrow(t *testing.T, itemID string, qty int, due time.Time) *models.LoanRecord {
	t.Helper()
	rec, err := f.loans.Create(context.Background(), engine.CreateLoanInput{
		ItemID:       itemID,
		Quantity:     qty,
		BorrowerName: "Dana Osei",
		BorrowerRef:  "S-4471",
		DueOn:        due,
	})
	require.NoError(t, err)
	return rec
}

func intp(n int) *int { return &n }
