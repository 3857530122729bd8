package project

import (
	"strings"
	"time"

	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared/valueobject"
)

// ApprovalFlag mirrors the free-form approval column carried by legacy debit
// rows. Only the "Approved" value has ledger significance.
type ApprovalFlag string

const (
	DebitApproved ApprovalFlag = "Approved"
	DebitPending  ApprovalFlag = "Pending"
	DebitRejected ApprovalFlag = "Rejected"
)

// PurposeCustomerAdjustment is the one debit purpose with special ledger
// treatment: it reduces netBalance, ordinary vendor debits do not.
const PurposeCustomerAdjustment = "Customer Adjustment"

// DebitEvent is a record of money paid out against a project. Rows are either
// entered directly by accounts or mirrored from a settled payment request.
type DebitEvent struct {
	shared.BaseEntity
	ProjectNumber int64                  `gorm:"not null;index"`
	Amount        valueobject.FlexAmount `gorm:"type:varchar(40);not null"`
	Purpose       string                 `gorm:"type:varchar(200)"`
	PaidTo        string                 `gorm:"type:varchar(200)"`
	PONumber      valueobject.FlexString `gorm:"type:varchar(50);index"`
	UTR           string                 `gorm:"type:varchar(50);index"`
	Approved      ApprovalFlag           `gorm:"type:varchar(20);not null;default:'Pending'"`
	DebitedOn     time.Time              `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (DebitEvent) TableName() string {
	return "debit_events"
}

// NewDebitEvent creates a debit entry
func NewDebitEvent(projectNumber int64, amount valueobject.FlexAmount, purpose, paidTo string, poNumber valueobject.FlexString, debitedOn time.Time) (*DebitEvent, error) {
	if projectNumber <= 0 {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project number is required")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Debit amount must be positive")
	}
	if debitedOn.IsZero() {
		debitedOn = time.Now()
	}
	return &DebitEvent{
		BaseEntity:    shared.NewBaseEntity(),
		ProjectNumber: projectNumber,
		Amount:        amount,
		Purpose:       purpose,
		PaidTo:        paidTo,
		PONumber:      poNumber,
		Approved:      DebitPending,
		DebitedOn:     debitedOn,
	}, nil
}

// IsCustomerAdjustment reports whether this debit refunds the customer
func (d *DebitEvent) IsCustomerAdjustment() bool {
	return strings.TrimSpace(d.Purpose) == PurposeCustomerAdjustment
}

// CountsAsVendorPayment reports whether this debit counts toward "paid to
// vendor": it must be approved and carry a settlement reference.
func (d *DebitEvent) CountsAsVendorPayment() bool {
	return d.Approved == DebitApproved && strings.TrimSpace(d.UTR) != ""
}
