package project

import (
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared/valueobject"
)

// AdjustmentType signs an adjustment entry. Amounts are stored absolute.
type AdjustmentType string

const (
	AdjustmentAdd      AdjustmentType = "Add"
	AdjustmentSubtract AdjustmentType = "Subtract"
)

// IsValid reports whether the adjustment type is known
func (t AdjustmentType) IsValid() bool {
	return t == AdjustmentAdd || t == AdjustmentSubtract
}

// AdjustmentEvent is an append-only manual correction to a project ledger
type AdjustmentEvent struct {
	shared.BaseEntity
	ProjectNumber int64                  `gorm:"not null;index"`
	Type          AdjustmentType         `gorm:"type:varchar(10);not null"`
	Amount        valueobject.FlexAmount `gorm:"type:varchar(40);not null"` // absolute; signed via Type
	Reason        string                 `gorm:"type:text"`
	PONumber      valueobject.FlexString `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (AdjustmentEvent) TableName() string {
	return "adjustment_events"
}

// NewAdjustmentEvent creates an adjustment, storing the amount absolute
func NewAdjustmentEvent(projectNumber int64, adjType AdjustmentType, amount valueobject.FlexAmount, reason string, poNumber valueobject.FlexString) (*AdjustmentEvent, error) {
	if projectNumber <= 0 {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project number is required")
	}
	if !adjType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ADJUSTMENT_TYPE", "Adjustment type must be Add or Subtract")
	}
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Adjustment amount cannot be zero")
	}
	return &AdjustmentEvent{
		BaseEntity:    shared.NewBaseEntity(),
		ProjectNumber: projectNumber,
		Type:          adjType,
		Amount:        valueobject.NewFlexAmount(amount.Abs()),
		Reason:        reason,
		PONumber:      poNumber,
	}, nil
}

// SignedAmount returns the amount with the sign implied by the type
func (a *AdjustmentEvent) SignedAmount() valueobject.FlexAmount {
	if a.Type == AdjustmentSubtract {
		return valueobject.NewFlexAmount(a.Amount.Abs().Neg())
	}
	return valueobject.NewFlexAmount(a.Amount.Abs())
}
