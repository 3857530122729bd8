package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
)

// ListingTotals is the aggregate footer for a filtered balance listing
type ListingTotals struct {
	TotalCredit     decimal.Decimal `json:"total_credit"`
	TotalDebit      decimal.Decimal `json:"total_debit"`
	TotalAdjustment decimal.Decimal `json:"total_adjustment"`
	BalanceSlnko    decimal.Decimal `json:"balance_slnko"`
	BalanceRequired decimal.Decimal `json:"balance_required"`
}

// SnapshotCache is a read-through cache over snapshot rows. A miss or any
// cache failure falls back to the repository; Invalidate is called after every
// recompute so readers never see a stale row for longer than the TTL.
type SnapshotCache interface {
	Get(ctx context.Context, projectNumber int64) (*BalanceSnapshot, bool)
	Set(ctx context.Context, snapshot *BalanceSnapshot)
	Invalidate(ctx context.Context, projectNumber int64)
}

// SnapshotRepository stores the cached derived balance records
type SnapshotRepository interface {
	// Upsert replaces the whole snapshot row for a project. Fields are
	// mutually dependent, so partial updates are never allowed.
	Upsert(ctx context.Context, snapshot *BalanceSnapshot) error
	// BatchUpsert writes many snapshots in one unordered batched statement.
	BatchUpsert(ctx context.Context, snapshots []BalanceSnapshot) error
	FindByProjectNumber(ctx context.Context, projectNumber int64) (*BalanceSnapshot, error)
	List(ctx context.Context, filter shared.Filter) ([]BalanceSnapshot, int64, error)
	Totals(ctx context.Context, filter shared.Filter) (ListingTotals, error)
	FindByProjectNumbers(ctx context.Context, projectNumbers []int64) ([]BalanceSnapshot, error)
}
