package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"lablend/engine"
	"lablend/models"
)

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// compile-time: Repo is the engine's store
var _ engine.Store = (*Repo)(nil)

func notFound(err error, what string, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s", engine.ErrNotFound, what, id)
	}
	return err
}

func notFoundDirect(what string, id string) error {
	return fmt.Errorf("%w: %s %s", engine.ErrNotFound, what, id)
}

// Items

func (r *Repo) CreateItem(ctx context.Context, it *models.InventoryItem) error {
	return r.DB.WithContext(ctx).Create(it).Error
}

func (r *Repo) ItemByID(ctx context.Context, id string) (*models.InventoryItem, error) {
	var it models.InventoryItem
	if err := r.DB.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "item", id)
	}
	return &it, nil
}

func (r *Repo) ItemByShortCode(ctx context.Context, code string) (*models.InventoryItem, error) {
	var it models.InventoryItem
	if err := r.DB.WithContext(ctx).First(&it, "UPPER(short_code) = UPPER(?)", code).Error; err != nil {
		return nil, notFound(err, "short code", code)
	}
	return &it, nil
}

func (r *Repo) ItemsByName(ctx context.Context, q string) ([]models.InventoryItem, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	var items []models.InventoryItem
	err := r.DB.WithContext(ctx).
		Where("LOWER(name) LIKE ?", like).
		Order("name ASC").
		Limit(50).
		Find(&items).Error
	return items, err
}

func (r *Repo) ListItems(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&items).Error
	return items, err
}

// SetBorrowCap sets or clears the lendable cap. The conditional guard
// keeps the ordering invariant: cap must fit between current in-use and
// total.
func (r *Repo) SetBorrowCap(ctx context.Context, itemID string, cap *int) error {
	q := r.DB.WithContext(ctx).Model(&models.InventoryItem{}).Where("id = ?", itemID)
	if cap == nil {
		res := q.Update("borrow_cap", nil)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: item %s", engine.ErrNotFound, itemID)
		}
		return nil
	}
	res := q.Where("? BETWEEN in_use_qty AND total_qty", *cap).Update("borrow_cap", *cap)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.ItemByID(ctx, itemID); err != nil {
			return err
		}
		return fmt.Errorf("borrow cap %d outside [in_use, total] for item %s", *cap, itemID)
	}
	return nil
}

// Stock primitives. ReserveStock is the atomic reservation: the
// availability test and the increment are one UPDATE evaluated by
// Postgres, so two sessions can never both see "2 available" and each
// take 2. Zero rows means either the item is unknown or the test failed;
// a follow-up read tells which.
func (r *Repo) ReserveStock(ctx context.Context, itemID string, quantity int) error {
	res := r.DB.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("id = ? AND in_use_qty + ? <= COALESCE(borrow_cap, total_qty)", itemID, quantity).
		Update("in_use_qty", gorm.Expr("in_use_qty + ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		it, err := r.ItemByID(ctx, itemID)
		if err != nil {
			return err
		}
		return &engine.InsufficientStockError{
			ItemID:    it.ID,
			ItemName:  it.Name,
			Requested: quantity,
			Available: it.AvailableQty(),
		}
	}
	return nil
}

func (r *Repo) ReleaseStock(ctx context.Context, itemID string, quantity int) error {
	res := r.DB.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("id = ?", itemID).
		Update("in_use_qty", gorm.Expr("GREATEST(in_use_qty - ?, 0)", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: item %s", engine.ErrNotFound, itemID)
	}
	return nil
}

func (r *Repo) WriteOffStock(ctx context.Context, itemID string, quantity int) error {
	res := r.DB.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"total_qty": gorm.Expr("GREATEST(total_qty - ?, 0)", quantity),
			// NULL cap stays NULL; a set cap is clamped down to the new total
			"borrow_cap": gorm.Expr("CASE WHEN borrow_cap IS NULL THEN NULL ELSE LEAST(borrow_cap, GREATEST(total_qty - ?, 0)) END", quantity),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: item %s", engine.ErrNotFound, itemID)
	}
	return nil
}
