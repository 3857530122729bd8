package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository provides access to payment requests
type Repository interface {
	Create(ctx context.Context, pr *PayRequest) error
	Save(ctx context.Context, pr *PayRequest) error
	// SaveWithLock persists with an optimistic version check so two concurrent
	// approvals of one request cannot both win.
	SaveWithLock(ctx context.Context, pr *PayRequest) error
	AppendHistory(ctx context.Context, entries []StatusHistoryEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*PayRequest, error)
	FindByPayID(ctx context.Context, payID string) (*PayRequest, error)
	FindByCrID(ctx context.Context, crID string) (*PayRequest, error)
	FindByUTR(ctx context.Context, utr string) (*PayRequest, error)
	// ListApprovedByPONumbers returns approved, settled requests whose
	// po_number (string-normalized) is in the given set.
	ListApprovedByPONumbers(ctx context.Context, poNumbers []string) ([]PayRequest, error)
	// SumApprovedByPO totals approved payments already raised against one PO.
	SumApprovedByPO(ctx context.Context, poNumber string) (decimal.Decimal, error)
	ListExpiredTrash(ctx context.Context, before time.Time) ([]PayRequest, error)
	ListForSettlementBatch(ctx context.Context, filter SettlementBatchFilter) ([]PayRequest, error)
}

// SettlementBatchFilter narrows the settlement batch export
type SettlementBatchFilter struct {
	Vendor       string
	From         *time.Time
	To           *time.Time
	ApprovedOnly bool
	OrderBy      string
	OrderDir     string
}

// SettlementCounter allocates the per-project monotonic counter backing
// generated settlement references. Implementations must be atomic.
type SettlementCounter interface {
	Next(ctx context.Context, projectNumber int64) (int64, error)
}

// AdvanceTokenStore records that a request's settlement has been applied to a
// PO's advance-paid accumulator. Record returns false when the token already
// exists, making the increment exactly-once.
type AdvanceTokenStore interface {
	Record(ctx context.Context, poNumber string, payRequestID uuid.UUID) (bool, error)
}

// Notification is an outbound, fire-and-forget message
type Notification struct {
	Type          string
	PayRequestID  uuid.UUID
	ProjectNumber int64
	Message       string
}

// Notifier dispatches notifications after the owning transaction commits.
// Failures are logged, never surfaced to the caller.
type Notifier interface {
	Dispatch(ctx context.Context, n Notification)
}
