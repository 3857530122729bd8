package procurement

import (
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared/valueobject"
)

// Bill is a vendor bill raised against a purchase order
type Bill struct {
	shared.BaseEntity
	PONumber        valueobject.FlexString `gorm:"type:varchar(50);not null;index"`
	BillNumber      string                 `gorm:"type:varchar(50);not null"`
	Value           valueobject.FlexAmount `gorm:"type:varchar(40);not null"`
	ItemDescription string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Bill) TableName() string {
	return "bills"
}

// Ref returns the canonical string form of the PO number
func (b *Bill) Ref() string {
	return valueobject.NormalizeRef(b.PONumber)
}
