package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/slnkoenergy/epc-backend/internal/domain/procurement"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared/valueobject"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements procurement.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByPONumber finds a purchase order by its normalized PO number
func (r *GormPurchaseOrderRepository) FindByPONumber(ctx context.Context, poNumber string) (*procurement.PurchaseOrder, error) {
	var po procurement.PurchaseOrder
	if err := connFor(ctx, r.db).First(&po, "po_number = ?", poNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &po, nil
}

// ListByProject returns all purchase orders raised for a project
func (r *GormPurchaseOrderRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]procurement.PurchaseOrder, error) {
	var orders []procurement.PurchaseOrder
	if err := connFor(ctx, r.db).
		Where("project_id = ?", projectID).
		Order("po_number ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// IncrementAdvancePaid adds amount to the PO's advance-paid accumulator under
// a row lock. The column carries legacy mixed formats, so the value is
// normalized in Go rather than summed in SQL.
func (r *GormPurchaseOrderRepository) IncrementAdvancePaid(ctx context.Context, poNumber string, amount decimal.Decimal) error {
	db := connFor(ctx, r.db)

	var po procurement.PurchaseOrder
	if err := db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&po, "po_number = ?", poNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.NewDomainError("NOT_FOUND", "Purchase order not found")
		}
		return err
	}

	next := valueobject.NewFlexAmount(po.AdvancePaid.Add(amount))
	return db.Model(&procurement.PurchaseOrder{}).
		Where("id = ?", po.ID).
		Update("advance_paid", next).Error
}

var _ procurement.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)

// GormBillRepository implements procurement.BillRepository using GORM
type GormBillRepository struct {
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

// ListByPONumbers returns every bill raised against the given PO set
func (r *GormBillRepository) ListByPONumbers(ctx context.Context, poNumbers []string) ([]procurement.Bill, error) {
	if len(poNumbers) == 0 {
		return nil, nil
	}
	var bills []procurement.Bill
	if err := connFor(ctx, r.db).
		Where("po_number IN ?", poNumbers).
		Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

var _ procurement.BillRepository = (*GormBillRepository)(nil)

// MaterialCategory is the narrow slice of the materials master this module
// reads: category names only, used to gate SCM approval validation.
type MaterialCategory struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key"`
	Name string    `gorm:"type:varchar(200);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (MaterialCategory) TableName() string {
	return "material_categories"
}

// GormMaterialCategories implements procurement.MaterialCategories using GORM
type GormMaterialCategories struct {
	db *gorm.DB
}

// NewGormMaterialCategories creates a new GormMaterialCategories
func NewGormMaterialCategories(db *gorm.DB) *GormMaterialCategories {
	return &GormMaterialCategories{db: db}
}

// IsKnownCategory reports whether the purpose string names a material category
func (r *GormMaterialCategories) IsKnownCategory(ctx context.Context, purpose string) (bool, error) {
	var count int64
	if err := connFor(ctx, r.db).
		Model(&MaterialCategory{}).
		Where("name = ?", purpose).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ procurement.MaterialCategories = (*GormMaterialCategories)(nil)
