package procurement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderRepository provides access to purchase orders
type PurchaseOrderRepository interface {
	FindByPONumber(ctx context.Context, poNumber string) (*PurchaseOrder, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]PurchaseOrder, error)
	// IncrementAdvancePaid adds amount to the advance-paid accumulator of one
	// PO with a single atomic update.
	IncrementAdvancePaid(ctx context.Context, poNumber string, amount decimal.Decimal) error
}

// BillRepository provides access to vendor bills
type BillRepository interface {
	ListByPONumbers(ctx context.Context, poNumbers []string) ([]Bill, error)
}

// MaterialCategories is a narrow read model over the materials master. The
// approval flow only needs to know whether a purpose string names a known
// material category.
type MaterialCategories interface {
	IsKnownCategory(ctx context.Context, purpose string) (bool, error)
}
