package payment

import (
	"time"

	"github.com/google/uuid"
)

// AdvanceToken is the idempotency record behind the PO advance-paid
// accumulator: one row per (po_number, pay_request), unique, so a resubmitted
// settlement can never increment the accumulator twice.
type AdvanceToken struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	PONumber     string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_advance_po_request,priority:1"`
	PayRequestID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_advance_po_request,priority:2"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AdvanceToken) TableName() string {
	return "po_advance_tokens"
}

// NewAdvanceToken creates a token for one settlement application
func NewAdvanceToken(poNumber string, payRequestID uuid.UUID) *AdvanceToken {
	return &AdvanceToken{
		ID:           uuid.New(),
		PONumber:     poNumber,
		PayRequestID: payRequestID,
		CreatedAt:    time.Now(),
	}
}
