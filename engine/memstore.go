// engine/memstore.go
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"lablend/models"
)

// MemStore is the in-memory Store used by tests and local development.
// All methods copy records in and out so callers never share memory with
// the store; the reservation check-and-increment runs under one lock, the
// same linearizability the SQL store gets from its conditional UPDATE.
type MemStore struct {
	mu       sync.Mutex
	items    map[string]*models.InventoryItem
	loans    map[string]*models.LoanRecord
	requests map[string]*models.BorrowRequest
	refSeq   int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		items:    make(map[string]*models.InventoryItem),
		loans:    make(map[string]*models.LoanRecord),
		requests: make(map[string]*models.BorrowRequest),
	}
}

// PutItem seeds or replaces a catalog entry.
func (m *MemStore) PutItem(it models.InventoryItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := it
	m.items[it.ID] = &cp
}

func copyItem(it *models.InventoryItem) *models.InventoryItem {
	cp := *it
	if it.BorrowCap != nil {
		cap := *it.BorrowCap
		cp.BorrowCap = &cap
	}
	return &cp
}

func copyLoan(l *models.LoanRecord) *models.LoanRecord {
	cp := *l
	if l.UnitCode != nil {
		u := *l.UnitCode
		cp.UnitCode = &u
	}
	if l.ReturnedOn != nil {
		t := *l.ReturnedOn
		cp.ReturnedOn = &t
	}
	return &cp
}

func copyRequest(r *models.BorrowRequest) *models.BorrowRequest {
	cp := *r
	cp.Lines = make([]models.RequestLine, len(r.Lines))
	for i, ln := range r.Lines {
		cp.Lines[i] = ln
		if ln.LinkedLoanID != nil {
			id := *ln.LinkedLoanID
			cp.Lines[i].LinkedLoanID = &id
		}
	}
	return &cp
}

// --- items ---

func (m *MemStore) ItemByID(_ context.Context, id string) (*models.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", ErrNotFound, id)
	}
	return copyItem(it), nil
}

func (m *MemStore) ItemByShortCode(_ context.Context, code string) (*models.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if strings.EqualFold(it.ShortCode, code) {
			return copyItem(it), nil
		}
	}
	return nil, fmt.Errorf("%w: short code %s", ErrNotFound, code)
}

func (m *MemStore) ItemsByName(_ context.Context, q string) ([]models.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	needle := strings.ToLower(q)
	var out []models.InventoryItem
	for _, it := range m.items {
		if strings.Contains(strings.ToLower(it.Name), needle) {
			out = append(out, *copyItem(it))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemStore) ReserveStock(_ context.Context, itemID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok {
		return fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}
	if it.InUseQty+quantity > it.LendableQty() {
		return &InsufficientStockError{
			ItemID:    it.ID,
			ItemName:  it.Name,
			Requested: quantity,
			Available: it.AvailableQty(),
		}
	}
	it.InUseQty += quantity
	return nil
}

func (m *MemStore) ReleaseStock(_ context.Context, itemID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok {
		return fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}
	it.InUseQty -= quantity
	if it.InUseQty < 0 {
		it.InUseQty = 0
	}
	return nil
}

func (m *MemStore) WriteOffStock(_ context.Context, itemID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok {
		return fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}
	it.TotalQty -= quantity
	if it.TotalQty < 0 {
		it.TotalQty = 0
	}
	// keep cap ≤ total
	if it.BorrowCap != nil && *it.BorrowCap > it.TotalQty {
		*it.BorrowCap = it.TotalQty
	}
	return nil
}

// --- loans ---

func (m *MemStore) InsertLoan(_ context.Context, rec *models.LoanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.loans[rec.ID]; exists {
		return fmt.Errorf("loan %s already exists", rec.ID)
	}
	m.loans[rec.ID] = copyLoan(rec)
	return nil
}

func (m *MemStore) LoanByID(_ context.Context, id string) (*models.LoanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok {
		return nil, fmt.Errorf("%w: loan %s", ErrNotFound, id)
	}
	return copyLoan(l), nil
}

func (m *MemStore) ActiveLoanByUnitCode(_ context.Context, unitCode string) (*models.LoanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.loans {
		if l.Status.Active() && l.UnitCode != nil && *l.UnitCode == unitCode {
			return copyLoan(l), nil
		}
	}
	return nil, fmt.Errorf("%w: no active loan holds unit %s", ErrNotFound, unitCode)
}

func (m *MemStore) DueBorrowedLoans(_ context.Context, before time.Time) ([]models.LoanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LoanRecord
	for _, l := range m.loans {
		if l.Status == models.LoanBorrowed && l.DueOn.Before(before) {
			out = append(out, *copyLoan(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueOn.Before(out[j].DueOn) })
	return out, nil
}

func (m *MemStore) SetLoanOverdue(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok {
		return false, fmt.Errorf("%w: loan %s", ErrNotFound, id)
	}
	if l.Status != models.LoanBorrowed {
		return false, nil
	}
	l.Status = models.LoanOverdue
	return true, nil
}

func (m *MemStore) SetLoanReturned(_ context.Context, id string, returnedOn time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok {
		return fmt.Errorf("%w: loan %s", ErrNotFound, id)
	}
	l.Status = models.LoanReturned
	t := returnedOn
	l.ReturnedOn = &t
	return nil
}

func (m *MemStore) RemoveLoan(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.loans[id]; !ok {
		return fmt.Errorf("%w: loan %s", ErrNotFound, id)
	}
	delete(m.loans, id)
	return nil
}

// --- requests ---

func (m *MemStore) InsertRequest(_ context.Context, req *models.BorrowRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.requests[req.ID]; exists {
		return fmt.Errorf("request %s already exists", req.ID)
	}
	m.requests[req.ID] = copyRequest(req)
	return nil
}

func (m *MemStore) RequestByID(_ context.Context, id string) (*models.BorrowRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: request %s", ErrNotFound, id)
	}
	return copyRequest(r), nil
}

func (m *MemStore) RequestByLoanID(_ context.Context, loanID string) (*models.BorrowRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		for _, ln := range r.Lines {
			if ln.LinkedLoanID != nil && *ln.LinkedLoanID == loanID {
				return copyRequest(r), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no request links loan %s", ErrNotFound, loanID)
}

func (m *MemStore) SetRequestStatus(_ context.Context, id string, status models.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return fmt.Errorf("%w: request %s", ErrNotFound, id)
	}
	r.Status = status
	return nil
}

func (m *MemStore) SetRequestRejected(_ context.Context, id string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return fmt.Errorf("%w: request %s", ErrNotFound, id)
	}
	r.Status = models.RequestRejected
	r.RejectReason = reason
	return nil
}

func (m *MemStore) LinkLine(_ context.Context, lineID, loanID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		for i := range r.Lines {
			if r.Lines[i].ID == lineID {
				id := loanID
				r.Lines[i].LinkedLoanID = &id
				return nil
			}
		}
	}
	return fmt.Errorf("%w: request line %s", ErrNotFound, lineID)
}

func (m *MemStore) UnlinkLine(_ context.Context, lineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		for i := range r.Lines {
			if r.Lines[i].ID == lineID {
				r.Lines[i].LinkedLoanID = nil
				return nil
			}
		}
	}
	return fmt.Errorf("%w: request line %s", ErrNotFound, lineID)
}

func (m *MemStore) RemoveRequest(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return fmt.Errorf("%w: request %s", ErrNotFound, id)
	}
	delete(m.requests, id)
	return nil
}

// NextRef makes MemStore a RefSource for tests.
func (m *MemStore) NextRef(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refSeq++
	return fmt.Sprintf("REQ-%06d", m.refSeq), nil
}
