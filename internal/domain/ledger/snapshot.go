package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecentEntry is one row of the last-3 credit/debit display capture
type RecentEntry struct {
	Amount decimal.Decimal `json:"amount"`
	On     time.Time       `json:"on"`
	Detail string          `json:"detail"` // credit mode or debit purpose
	By     string          `json:"by"`     // submitter or payee
}

// RecentEntries is a JSON-encoded column of RecentEntry rows
type RecentEntries []RecentEntry

// Value implements driver.Valuer
func (r RecentEntries) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (r *RecentEntries) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*r = RecentEntries{}
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("cannot scan %T into RecentEntries", value)
	}
}

// BalanceSnapshot is the cached, derived per-project balance record. It is
// never authoritative: every field is re-derivable from the source event
// collections, and the whole row is replaced on each recompute.
type BalanceSnapshot struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ProjectNumber int64     `gorm:"not null;uniqueIndex"`
	ProjectCode   string    `gorm:"type:varchar(50)"`
	ProjectName   string    `gorm:"type:varchar(200)"`
	Customer      string    `gorm:"type:varchar(200)"`
	GroupName     string    `gorm:"type:varchar(100);index"`
	Capacity      decimal.Decimal `gorm:"type:decimal(12,4)"`

	TotalPOBasic   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	GSTAsPOBasic   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalPOWithGST decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	TotalCredit     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalDebit      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	AvailableAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	CustomerAdjustmentTotal decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	CreditAdjustment decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DebitAdjustment  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalAdjustment  decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	TotalPOValue   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalBillValue decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	NetBalance      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalAmountPaid decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	BalancePayable  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	BalanceSlnko    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TCS             decimal.Decimal `gorm:"type:decimal(18,0);not null"`
	BalanceRequired decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	RecentCredits RecentEntries `gorm:"type:text"`
	RecentDebits  RecentEntries `gorm:"type:text"`

	RecomputedAt time.Time `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (BalanceSnapshot) TableName() string {
	return "balance_snapshots"
}
