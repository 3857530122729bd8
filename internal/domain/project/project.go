package project

import (
	"github.com/shopspring/decimal"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
)

// Project represents a solar-EPC project master record. Master data is owned
// by the CRM side of the house; this module only reads it, keyed either by the
// external numeric project number (ledger events) or the internal id (POs).
type Project struct {
	shared.BaseEntity
	ProjectNumber int64           `gorm:"not null;uniqueIndex"`
	Code          string          `gorm:"type:varchar(50);not null;index"`
	Name          string          `gorm:"type:varchar(200);not null"`
	Customer      string          `gorm:"type:varchar(200)"`
	GroupName     string          `gorm:"type:varchar(100);index"`
	CapacityRaw   decimal.Decimal `gorm:"column:capacity;type:decimal(12,4)"`
}

// TableName returns the table name for GORM
func (Project) TableName() string {
	return "projects"
}

var capacityThreshold = decimal.NewFromInt(100)
var capacityDivisor = decimal.NewFromInt(1000)

// NormalizeCapacity converts a stored capacity value to the canonical unit.
// Legacy records mix kWp and MWp in the same column; anything above 100 is
// assumed to be kWp and divided by 1000.
// TODO: confirm the 100 boundary with product - a genuine 100.5 MWp plant
// would be silently reinterpreted as 0.1005.
func NormalizeCapacity(raw decimal.Decimal) decimal.Decimal {
	if raw.GreaterThan(capacityThreshold) {
		return raw.Div(capacityDivisor)
	}
	return raw
}

// Capacity returns the project capacity in canonical units
func (p *Project) Capacity() decimal.Decimal {
	return NormalizeCapacity(p.CapacityRaw)
}
