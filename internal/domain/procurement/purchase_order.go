package procurement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared/valueobject"
)

// PurchaseOrder is a procurement commitment against a vendor. Rows are
// produced by the procurement module and consumed read-only here, except for
// the advance-paid accumulator which settlement increments.
type PurchaseOrder struct {
	shared.BaseEntity
	ProjectID   uuid.UUID              `gorm:"type:uuid;not null;index"`
	PONumber    valueobject.FlexString `gorm:"type:varchar(50);not null;uniqueIndex"`
	Vendor      string                 `gorm:"type:varchar(200);not null"`
	Basic       valueobject.FlexAmount `gorm:"type:varchar(40);not null"`
	GST         valueobject.FlexAmount `gorm:"type:varchar(40);not null"`
	POValue     valueobject.FlexAmount `gorm:"type:varchar(40);not null"`
	TotalBilled valueobject.FlexAmount `gorm:"type:varchar(40)"`
	AdvancePaid valueobject.FlexAmount `gorm:"type:varchar(40)"`
	IsSales     bool                   `gorm:"not null;default:false"`
	SalesDetail string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// TotalWithGST returns basic plus GST
func (po *PurchaseOrder) TotalWithGST() decimal.Decimal {
	return po.Basic.Add(po.GST.Decimal)
}

// Ref returns the canonical string form of the PO number
func (po *PurchaseOrder) Ref() string {
	return valueobject.NormalizeRef(po.PONumber)
}
