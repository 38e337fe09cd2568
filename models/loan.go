// models/loan.go
package models

import "time"

const LoanTable = "lab_loans"

type LoanStatus string

const (
	LoanBorrowed LoanStatus = "borrowed"
	LoanOverdue  LoanStatus = "overdue"
	LoanReturned LoanStatus = "returned"
)

// Active reports whether the loan still counts against its item's InUseQty.
func (s LoanStatus) Active() bool { return s == LoanBorrowed || s == LoanOverdue }

// LoanRecord is one loan transaction against one item. Quantity is fixed at
// creation; while the record is active it is counted in the item's InUseQty.
type LoanRecord struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID string `gorm:"type:uuid;index;not null" json:"itemId"`

	BorrowerName string `gorm:"size:200;not null" json:"borrowerName"`
	BorrowerRef  string `gorm:"size:120" json:"borrowerRef,omitempty"` // student/staff number etc.

	Quantity int `gorm:"not null" json:"quantity"`
	// UnitCode binds the loan to one serialized physical unit instead of
	// fungible stock, e.g. "CHEM-BEAKER-007".
	UnitCode *string `gorm:"size:120;index" json:"specificUnitCode,omitempty"`

	BorrowedOn time.Time  `gorm:"index;not null" json:"borrowedOn"`
	DueOn      time.Time  `gorm:"index;not null" json:"dueOn"`
	ReturnedOn *time.Time `gorm:"index" json:"returnedOn,omitempty"`

	Status LoanStatus `gorm:"size:20;index;not null;default:'borrowed'" json:"status"`
	Note   string     `gorm:"size:255" json:"note,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (LoanRecord) TableName() string { return LoanTable }

// Disposition partitions a returned loan's quantity. Good units go back to
// availability; defective and disposed units are written off the catalog.
type Disposition struct {
	Good      int `json:"good"`
	Defective int `json:"defective"`
	Disposed  int `json:"disposed"`
}

// WriteOff is the part of the quantity that permanently leaves total stock.
func (d Disposition) WriteOff() int { return d.Defective + d.Disposed }

// AllGood is the default disposition when the caller omits one.
func AllGood(quantity int) Disposition { return Disposition{Good: quantity} }
