// models/inventory.go
package models

import "time"

const ItemTable = "lab_items"

// InventoryItem is one catalog entry for a kind of equipment. Quantities are
// bulk counts; individual units are addressed by serialized codes derived
// from ShortCode (see engine.SequenceCode).
type InventoryItem struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	ShortCode string `gorm:"size:60;uniqueIndex;not null" json:"shortCode"` // scannable prefix, e.g. CHEM-BEAKER
	Name      string `gorm:"size:200;not null" json:"name"`

	TotalQty int `gorm:"not null;default:0" json:"totalQuantity"`
	InUseQty int `gorm:"not null;default:0" json:"inUseQuantity"`

	// BorrowCap restricts how much of the stock may ever be lent; the rest
	// is sealed reserve. NULL means the whole total is lendable.
	BorrowCap  *int `json:"borrowCap,omitempty"`
	Consumable bool `gorm:"not null;default:false" json:"consumable"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (InventoryItem) TableName() string { return ItemTable }

// LendableQty is the cap that reservations are checked against.
func (it *InventoryItem) LendableQty() int {
	if it.BorrowCap != nil && *it.BorrowCap < it.TotalQty {
		return *it.BorrowCap
	}
	return it.TotalQty
}

// AvailableQty is never negative given the ledger invariant.
func (it *InventoryItem) AvailableQty() int {
	a := it.LendableQty() - it.InUseQty
	if a < 0 {
		return 0
	}
	return a
}
