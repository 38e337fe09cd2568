package db

import (
	"context"

	"gorm.io/gorm"

	"lablend/models"
)

// Requests

func (r *Repo) InsertRequest(ctx context.Context, req *models.BorrowRequest) error {
	// lines ride along via the association
	return r.DB.WithContext(ctx).Create(req).Error
}

func (r *Repo) RequestByID(ctx context.Context, id string) (*models.BorrowRequest, error) {
	var req models.BorrowRequest
	err := r.DB.WithContext(ctx).Preload("Lines").First(&req, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "request", id)
	}
	return &req, nil
}

func (r *Repo) RequestByLoanID(ctx context.Context, loanID string) (*models.BorrowRequest, error) {
	var ln models.RequestLine
	err := r.DB.WithContext(ctx).First(&ln, "linked_loan_id = ?", loanID).Error
	if err != nil {
		return nil, notFound(err, "request line for loan", loanID)
	}
	return r.RequestByID(ctx, ln.RequestID)
}

func (r *Repo) SetRequestStatus(ctx context.Context, id string, status models.RequestStatus) error {
	res := r.DB.WithContext(ctx).Model(&models.BorrowRequest{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFoundDirect("request", id)
	}
	return nil
}

func (r *Repo) SetRequestRejected(ctx context.Context, id string, reason string) error {
	res := r.DB.WithContext(ctx).Model(&models.BorrowRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.RequestRejected,
			"reject_reason": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFoundDirect("request", id)
	}
	return nil
}

func (r *Repo) LinkLine(ctx context.Context, lineID, loanID string) error {
	res := r.DB.WithContext(ctx).Model(&models.RequestLine{}).
		Where("id = ?", lineID).
		Update("linked_loan_id", loanID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFoundDirect("request line", lineID)
	}
	return nil
}

func (r *Repo) UnlinkLine(ctx context.Context, lineID string) error {
	res := r.DB.WithContext(ctx).Model(&models.RequestLine{}).
		Where("id = ?", lineID).
		Update("linked_loan_id", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFoundDirect("request line", lineID)
	}
	return nil
}

func (r *Repo) RemoveRequest(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", id).Delete(&models.RequestLine{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.BorrowRequest{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFoundDirect("request", id)
		}
		return nil
	})
}

func (r *Repo) ListRequests(ctx context.Context, status string, page, size int) ([]models.BorrowRequest, int64, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	tx := r.DB.WithContext(ctx).Model(&models.BorrowRequest{})
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reqs []models.BorrowRequest
	err := tx.Preload("Lines").
		Order("requested_on DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&reqs).Error
	return reqs, total, err
}
