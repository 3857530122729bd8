package project

import (
	"time"

	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared/valueobject"
)

// CreditEvent is an append-only record of money received against a project
type CreditEvent struct {
	shared.BaseEntity
	ProjectNumber int64                  `gorm:"not null;index"`
	Amount        valueobject.FlexAmount `gorm:"type:varchar(40);not null"`
	Mode          string                 `gorm:"type:varchar(50)"` // NEFT, RTGS, cheque, cash
	CreditedOn    time.Time              `gorm:"not null;index"`
	SubmittedBy   string                 `gorm:"type:varchar(100)"`
	Comment       string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CreditEvent) TableName() string {
	return "credit_events"
}

// NewCreditEvent creates a credit entry after validating the essentials
func NewCreditEvent(projectNumber int64, amount valueobject.FlexAmount, mode string, creditedOn time.Time, submittedBy, comment string) (*CreditEvent, error) {
	if projectNumber <= 0 {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project number is required")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	if creditedOn.IsZero() {
		creditedOn = time.Now()
	}
	return &CreditEvent{
		BaseEntity:    shared.NewBaseEntity(),
		ProjectNumber: projectNumber,
		Amount:        amount,
		Mode:          mode,
		CreditedOn:    creditedOn,
		SubmittedBy:   submittedBy,
		Comment:       comment,
	}, nil
}
