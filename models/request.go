// models/request.go
package models

import "time"

const (
	RequestTable     = "lab_requests"
	RequestLineTable = "lab_request_lines"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
	RequestReturned RequestStatus = "returned"
)

// BorrowRequest is a pending multi-item ask. Approval converts each line
// into a LoanRecord via the request pipeline; the line then carries a
// non-owning back-reference to its loan.
type BorrowRequest struct {
	ID            string `gorm:"type:uuid;primaryKey" json:"id"`
	ReferenceCode string `gorm:"size:40;uniqueIndex;not null" json:"referenceCode"` // e.g. REQ-000042

	BorrowerName string `gorm:"size:200;not null" json:"borrowerName"`
	BorrowerRef  string `gorm:"size:120" json:"borrowerRef,omitempty"`

	RequestedOn     time.Time `gorm:"index;not null" json:"requestedOn"`
	DesiredReturnOn time.Time `gorm:"not null" json:"desiredReturnOn"`

	Status       RequestStatus `gorm:"size:20;index;not null;default:'pending'" json:"status"`
	RejectReason string        `gorm:"size:255" json:"rejectReason,omitempty"`

	Lines []RequestLine `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"lineItems"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type RequestLine struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID string `gorm:"type:uuid;index;not null" json:"requestId"`
	ItemID    string `gorm:"type:uuid;not null" json:"itemId"`
	Quantity  int    `gorm:"not null" json:"quantity"`
	// LinkedLoanID is set once approval has created the loan for this line.
	// The reference is non-owning: deleting the loan does not delete the
	// request, the coordinator resyncs instead.
	LinkedLoanID *string `gorm:"type:uuid;index" json:"linkedLoanId,omitempty"`
}

func (BorrowRequest) TableName() string { return RequestTable }
func (RequestLine) TableName() string   { return RequestLineTable }
