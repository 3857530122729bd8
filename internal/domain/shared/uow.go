package shared

import "context"

// UnitOfWork runs a function inside a single storage transaction. Repositories
// participating in the transaction resolve the transactional connection from
// the context the function receives; outside a unit of work they fall back to
// the base connection. Cross-document consistency relies entirely on this plus
// the storage layer's unique indexes - there are no in-process locks.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

type uowContextKey struct{}

// MarkUnitOfWork tags ctx as running inside a unit of work. Implementations
// call it when opening a transaction so services can tell whether their
// writes are still provisional.
func MarkUnitOfWork(ctx context.Context) context.Context {
	return context.WithValue(ctx, uowContextKey{}, true)
}

// InUnitOfWork reports whether ctx runs inside a unit of work, i.e. whether
// the surrounding transaction may still roll back.
func InUnitOfWork(ctx context.Context) bool {
	marked, ok := ctx.Value(uowContextKey{}).(bool)
	return ok && marked
}
