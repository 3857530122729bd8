package persistence

import (
	"context"
	"errors"

	"github.com/slnkoenergy/epc-backend/internal/domain/procurement"
	"gorm.io/gorm"
)

// GormVendorDirectory implements procurement.VendorDirectory using GORM
type GormVendorDirectory struct {
	db *gorm.DB
}

// NewGormVendorDirectory creates a new GormVendorDirectory
func NewGormVendorDirectory(db *gorm.DB) *GormVendorDirectory {
	return &GormVendorDirectory{db: db}
}

// FindByName looks up a vendor's bank record by exact name
func (r *GormVendorDirectory) FindByName(ctx context.Context, name string) (*procurement.Vendor, error) {
	var v procurement.Vendor
	if err := connFor(ctx, r.db).First(&v, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

var _ procurement.VendorDirectory = (*GormVendorDirectory)(nil)
