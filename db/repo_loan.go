package db

import (
	"context"
	"time"

	"lablend/models"
)

// Loans

func (r *Repo) InsertLoan(ctx context.Context, rec *models.LoanRecord) error {
	return r.DB.WithContext(ctx).Create(rec).Error
}

func (r *Repo) LoanByID(ctx context.Context, id string) (*models.LoanRecord, error) {
	var l models.LoanRecord
	if err := r.DB.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "loan", id)
	}
	return &l, nil
}

func (r *Repo) ActiveLoanByUnitCode(ctx context.Context, unitCode string) (*models.LoanRecord, error) {
	var l models.LoanRecord
	err := r.DB.WithContext(ctx).
		Where("unit_code = ? AND status IN ?", unitCode,
			[]models.LoanStatus{models.LoanBorrowed, models.LoanOverdue}).
		First(&l).Error
	if err != nil {
		return nil, notFound(err, "active loan for unit", unitCode)
	}
	return &l, nil
}

func (r *Repo) DueBorrowedLoans(ctx context.Context, before time.Time) ([]models.LoanRecord, error) {
	var ls []models.LoanRecord
	err := r.DB.WithContext(ctx).
		Where("status = ? AND due_on < ?", models.LoanBorrowed, before).
		Order("due_on ASC").
		Find(&ls).Error
	return ls, err
}

// SetLoanOverdue is conditional on the current status, so a loan returned
// between the sweep's select and this update is left alone.
func (r *Repo) SetLoanOverdue(ctx context.Context, id string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.LoanRecord{}).
		Where("id = ? AND status = ?", id, models.LoanBorrowed).
		Update("status", models.LoanOverdue)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.LoanByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil // already overdue or returned
	}
	return true, nil
}

func (r *Repo) SetLoanReturned(ctx context.Context, id string, returnedOn time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.LoanRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      models.LoanReturned,
			"returned_on": returnedOn,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.LoanByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) RemoveLoan(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&models.LoanRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFoundDirect("loan", id)
	}
	return nil
}

// Listings for the UI layer.

type LoansQuery struct {
	ItemID   string
	Borrower string
	Status   string // "", "active", "borrowed", "overdue", "returned"
	Page     int
	Size     int
}

func (r *Repo) ListLoans(ctx context.Context, q LoansQuery) ([]models.LoanRecord, int64, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > 100 {
		q.Size = 20
	}

	tx := r.DB.WithContext(ctx).Model(&models.LoanRecord{})
	if q.ItemID != "" {
		tx = tx.Where("item_id = ?", q.ItemID)
	}
	if q.Borrower != "" {
		like := "%" + q.Borrower + "%"
		tx = tx.Where("borrower_name ILIKE ? OR borrower_ref ILIKE ?", like, like)
	}
	switch q.Status {
	case "active":
		tx = tx.Where("status IN ?", []models.LoanStatus{models.LoanBorrowed, models.LoanOverdue})
	case "borrowed", "overdue", "returned":
		tx = tx.Where("status = ?", q.Status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var ls []models.LoanRecord
	err := tx.Order("borrowed_on DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&ls).Error
	return ls, total, err
}
