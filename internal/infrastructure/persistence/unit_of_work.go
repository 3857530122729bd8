package persistence

import (
	"context"

	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"gorm.io/gorm"
)

type txContextKey struct{}

// withTx stores a transactional connection in the context
func withTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// connFor resolves the connection a repository should use: the transaction
// carried by the context when inside a unit of work, the base connection
// otherwise. Either way the returned handle is context-bound.
func connFor(ctx context.Context, base *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return base.WithContext(ctx)
}

// GormUnitOfWork implements shared.UnitOfWork on a single gorm connection
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a unit of work bound to the given connection
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute runs fn inside one database transaction. Nested calls reuse the
// transaction already carried by the context.
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(withTx(shared.MarkUnitOfWork(ctx), tx))
	})
}

var _ shared.UnitOfWork = (*GormUnitOfWork)(nil)
