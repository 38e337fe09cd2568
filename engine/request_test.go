package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lablend/engine"
	"lablend/models"
)

func pendingRequest(t *testing.T, f *fixture, lines ...engine.RequestLineInput) *models.BorrowRequest {
	t.Helper()
	req, err := f.requests.Create(context.Background(), engine.CreateRequestInput{
		BorrowerName:    "Priya Nair",
		BorrowerRef:     "S-2210",
		DesiredReturnOn: f.clock.now.Add(72 * time.Hour),
		Lines:           lines,
	})
	require.NoError(t, err)
	return req
}

func TestRequests_Create(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem("PWR7", "Bench power supply", 6, nil)

	req := pendingRequest(t, f, engine.RequestLineInput{ItemID: it.ID, Quantity: 2})
	assert.Equal(t, models.RequestPending, req.Status)
	assert.Equal(t, "REQ-000001", req.ReferenceCode)
	assert.Equal(t, f.clock.now, req.RequestedOn)
	require.Len(t, req.Lines, 1)
	assert.Nil(t, req.Lines[0].LinkedLoanID)

	// nothing reserved for a pending request
	assert.Equal(t, 0, f.item(t, it.ID).InUseQty)

	// reference codes advance
	req2 := pendingRequest(t, f, engine.RequestLineInput{ItemID: it.ID, Quantity: 1})
	assert.Equal(t, "REQ-000002", req2.ReferenceCode)
}

func TestRequests_Create_Validation(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem("PWR7", "Bench power supply", 6, nil)
	ctx := context.Background()

	_, err := f.requests.Create(ctx, engine.CreateRequestInput{
		BorrowerName:    "Priya Nair",
		DesiredReturnOn: f.clock.now.Add(time.Hour),
	})
	assert.True(t, engine.IsValidation(err), "no lines")

	_, err = f.requests.Create(ctx, engine.CreateRequestInput{
		BorrowerName:    "Priya Nair",
		DesiredReturnOn: f.clock.now.Add(time.Hour),
		Lines:           []engine.RequestLineInput{{ItemID: it.ID, Quantity: 0}},
	})
	assert.True(t, engine.IsValidation(err), "zero quantity line")

	_, err = f.requests.Create(ctx, engine.CreateRequestInput{
		BorrowerName:    "Priya Nair",
		DesiredReturnOn: f.clock.now.Add(time.Hour),
		Lines:           []engine.RequestLineInput{{ItemID: "ghost", Quantity: 1}},
	})
	assert.True(t, engine.IsNotFound(err), "unknown item")
}

func TestRequests_Approve_PreflightIsAllOrNothing(t *testing.T) {
	// GIVEN: itemA can cover its line, itemB cannot (2 available, 5 asked)
	f := newFixture(t)
	itA := f.seedItem("PWR7", "Bench power supply", 6, nil)
	itB := f.seedItem("OSC7", "Oscilloscope", 2, nil)
	ctx := context.Background()
	req := pendingRequest(t, f,
		engine.RequestLineInput{ItemID: itA.ID, Quantity: 3},
		engine.RequestLineInput{ItemID: itB.ID, Quantity: 5},
	)

	_, err := f.requests.Approve(ctx, req.ID)

	// THEN: rejected naming the failing item, no loans for either line
	var insuff *engine.InsufficientStockError
	require.ErrorAs(t, err, &insuff)
	assert.Equal(t, itB.ID, insuff.ItemID)
	assert.Equal(t, 5, insuff.Requested)
	assert.Equal(t, 2, insuff.Available)

	got, err := f.mem.RequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, got.Status)
	assert.Nil(t, got.Lines[0].LinkedLoanID)
	assert.Nil(t, got.Lines[1].LinkedLoanID)
	assert.Equal(t, 0, f.item(t, itA.ID).InUseQty)
	assert.Equal(t, 0, f.item(t, itB.ID).InUseQty)
}

func TestRequests_Approve_FullSuccess(t *testing.T) {
	f := newFixture(t)
	itA := f.seedItem("PWR7", "Bench power supply", 6, nil)
	itB := f.seedItem("OSC7", "Oscilloscope", 3, nil)
	ctx := context.Background()
	req := pendingRequest(t, f,
		engine.RequestLineInput{ItemID: itA.ID, Quantity: 2},
		engine.RequestLineInput{ItemID: itB.ID, Quantity: 1},
	)

	approved, err := f.requests.Approve(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, approved.Status)

	for i, ln := range approved.Lines {
		require.NotNil(t, ln.LinkedLoanID, "line %d linked", i)
		loan, err := f.mem.LoanByID(ctx, *ln.LinkedLoanID)
		require.NoError(t, err)
		assert.Equal(t, req.BorrowerName, loan.BorrowerName)
		assert.Equal(t, req.DesiredReturnOn, loan.DueOn)
		assert.Equal(t, ln.Quantity, loan.Quantity)
		assert.Equal(t, models.LoanBorrowed, loan.Status)
	}
	assert.Equal(t, 2, f.item(t, itA.ID).InUseQty)
	assert.Equal(t, 1, f.item(t, itB.ID).InUseQty)

	// approving again is a terminal-state conflict
	_, err = f.requests.Approve(ctx, req.ID)
	assert.ErrorIs(t, err, engine.ErrAlreadyTerminal)
}

func TestRequests_Approve_PastReturnDateYieldsOverdueLoans(t *testing.T) {
	// preserved source behavior: approval accepts a desired return date in
	// the past and the loans start life overdue
	f := newFixture(t)
	it := f.seedItem("PWR7", "Bench power supply", 6, nil)
	ctx := context.Background()
	req, err := f.requests.Create(ctx, engine.CreateRequestInput{
		BorrowerName:    "Priya Nair",
		DesiredReturnOn: f.clock.now.Add(-24 * time.Hour),
		Lines:           []engine.RequestLineInput{{ItemID: it.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	approved, err := f.requests.Approve(ctx, req.ID)
	require.NoError(t, err)
	loan, err := f.mem.LoanByID(ctx, *approved.Lines[0].LinkedLoanID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanOverdue, loan.Status)
}

func TestRequests_Approve_MidStreamFailureHaltsWithoutRollback(t *testing.T) {
	// GIVEN: preflight passes, then the second line's reservation fails
	// (stand-in for a concurrent reservation winning the race)
	f := newFixture(t)
	itA := f.seedItem("PWR7", "Bench power supply", 6, nil)
	itB := f.seedItem("OSC7", "Oscilloscope", 3, nil)
	ctx := context.Background()
	req := pendingRequest(t, f,
		engine.RequestLineInput{ItemID: itA.ID, Quantity: 2},
		engine.RequestLineInput{ItemID: itB.ID, Quantity: 1},
	)
	f.flaky.failReserveItem = itB.ID

	_, err := f.requests.Approve(ctx, req.ID)

	var halted *engine.ApprovalHaltedError
	require.ErrorAs(t, err, &halted)
	assert.Equal(t, itB.ID, halted.ItemID)
	assert.Equal(t, 1, halted.Converted)

	// converted line keeps its loan (the borrower holds those items)
	got, err := f.mem.RequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, got.Status)
	require.NotNil(t, got.Lines[0].LinkedLoanID)
	assert.Nil(t, got.Lines[1].LinkedLoanID)
	assert.Equal(t, 2, f.item(t, itA.ID).InUseQty)
	assert.Equal(t, 0, f.item(t, itB.ID).InUseQty)

	// WHEN: the caller retries once the contention clears
	f.flaky.failReserveItem = ""
	approved, err := f.requests.Approve(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, approved.Status)

	// THEN: the already-converted line was not borrowed twice
	assert.Equal(t, 2, f.item(t, itA.ID).InUseQty)
	assert.Equal(t, 1, f.item(t, itB.ID).InUseQty)
}

func TestRequests_Reject(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem("PWR7", "Bench power supply", 6, nil)
	ctx := context.Background()
	req := pendingRequest(t, f, engine.RequestLineInput{ItemID: it.ID, Quantity: 1})

	rejected, err := f.requests.Reject(ctx, req.ID, "term ended")
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, rejected.Status)
	assert.Equal(t, "term ended", rejected.RejectReason)
	assert.Equal(t, 0, f.item(t, it.ID).InUseQty, "nothing was ever reserved")

	_, err = f.requests.Reject(ctx, req.ID, "again")
	assert.ErrorIs(t, err, engine.ErrAlreadyTerminal)
}

func TestRequests_Delete_CascadeRestoresOnlyActiveLines(t *testing.T) {
	// GIVEN: a request with one returned loan and one still-borrowed loan
	f := newFixture(t)
	itA := f.seedItem("PWR7", "Bench power supply", 6, nil)
	itB := f.seedItem("OSC7", "Oscilloscope", 3, nil)
	ctx := context.Background()
	req := pendingRequest(t, f,
		engine.RequestLineInput{ItemID: itA.ID, Quantity: 2},
		engine.RequestLineInput{ItemID: itB.ID, Quantity: 1},
	)
	_, err := f.requests.Approve(ctx, req.ID)
	require.NoError(t, err)
	req, err = f.mem.RequestByID(ctx, req.ID)
	require.NoError(t, err)

	_, err = f.loans.Complete(ctx, *req.Lines[0].LinkedLoanID, nil)
	require.NoError(t, err)
	require.Equal(t, 0, f.item(t, itA.ID).InUseQty)
	require.Equal(t, 1, f.item(t, itB.ID).InUseQty)

	// WHEN: the whole request goes away
	outcomes, err := f.requests.Delete(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	// THEN: stock restored only for the borrowed line; both items back to
	// their pre-loan in-use counts; request and loans gone
	assert.Equal(t, 0, f.item(t, itA.ID).InUseQty)
	assert.Equal(t, 6, f.item(t, itA.ID).TotalQty)
	assert.Equal(t, 0, f.item(t, itB.ID).InUseQty)

	_, err = f.mem.RequestByID(ctx, req.ID)
	assert.True(t, engine.IsNotFound(err))
	for _, ln := range req.Lines {
		_, err = f.mem.LoanByID(ctx, *ln.LinkedLoanID)
		assert.True(t, engine.IsNotFound(err))
	}
}
