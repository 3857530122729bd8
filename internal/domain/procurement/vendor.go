package procurement

import (
	"context"

	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
)

// Vendor is the slice of the vendor master this module reads: the bank-file
// fields needed to flatten a settlement batch. Vendor CRUD lives elsewhere.
type Vendor struct {
	shared.BaseEntity
	Name          string `gorm:"type:varchar(200);not null;uniqueIndex"`
	Beneficiary   string `gorm:"type:varchar(200)"`
	AccountNumber string `gorm:"type:varchar(50)"`
	IFSC          string `gorm:"type:varchar(20)"`
	BankName      string `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (Vendor) TableName() string {
	return "vendors"
}

// VendorDirectory is read-only lookup over the vendor master
type VendorDirectory interface {
	FindByName(ctx context.Context, name string) (*Vendor, error)
}
