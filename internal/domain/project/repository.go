package project

import (
	"context"

	"github.com/google/uuid"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
)

// Repository provides read access to project master data
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	FindByNumber(ctx context.Context, projectNumber int64) (*Project, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Project, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	FindAllNumbers(ctx context.Context) ([]int64, error)
}

// CreditRepository stores the append-only credit stream
type CreditRepository interface {
	Append(ctx context.Context, credit *CreditEvent) error
	ListByProject(ctx context.Context, projectNumber int64) ([]CreditEvent, error)
	Recent(ctx context.Context, projectNumber int64, limit int) ([]CreditEvent, error)
}

// DebitRepository stores the debit stream, including settlement mirrors
type DebitRepository interface {
	Append(ctx context.Context, debit *DebitEvent) error
	Save(ctx context.Context, debit *DebitEvent) error
	ListByProject(ctx context.Context, projectNumber int64) ([]DebitEvent, error)
	Recent(ctx context.Context, projectNumber int64, limit int) ([]DebitEvent, error)
	FindByUTR(ctx context.Context, utr string) (*DebitEvent, error)
}

// AdjustmentRepository stores the append-only adjustment stream
type AdjustmentRepository interface {
	Append(ctx context.Context, adjustment *AdjustmentEvent) error
	ListByProject(ctx context.Context, projectNumber int64) ([]AdjustmentEvent, error)
}
