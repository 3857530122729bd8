package persistence

import (
	"context"
	"errors"

	"github.com/slnkoenergy/epc-backend/internal/domain/project"
	"gorm.io/gorm"
)

// GormCreditRepository implements project.CreditRepository using GORM
type GormCreditRepository struct {
	db *gorm.DB
}

// NewGormCreditRepository creates a new GormCreditRepository
func NewGormCreditRepository(db *gorm.DB) *GormCreditRepository {
	return &GormCreditRepository{db: db}
}

// Append inserts a credit entry. The stream is append-only: no update path.
func (r *GormCreditRepository) Append(ctx context.Context, credit *project.CreditEvent) error {
	return connFor(ctx, r.db).Create(credit).Error
}

// ListByProject returns the full credit stream for one project
func (r *GormCreditRepository) ListByProject(ctx context.Context, projectNumber int64) ([]project.CreditEvent, error) {
	var credits []project.CreditEvent
	if err := connFor(ctx, r.db).
		Where("project_number = ?", projectNumber).
		Order("credited_on ASC").
		Find(&credits).Error; err != nil {
		return nil, err
	}
	return credits, nil
}

// Recent returns the newest entries, for snapshot display capture
func (r *GormCreditRepository) Recent(ctx context.Context, projectNumber int64, limit int) ([]project.CreditEvent, error) {
	var credits []project.CreditEvent
	if err := connFor(ctx, r.db).
		Where("project_number = ?", projectNumber).
		Order("credited_on DESC").
		Limit(limit).
		Find(&credits).Error; err != nil {
		return nil, err
	}
	return credits, nil
}

var _ project.CreditRepository = (*GormCreditRepository)(nil)

// GormDebitRepository implements project.DebitRepository using GORM
type GormDebitRepository struct {
	db *gorm.DB
}

// NewGormDebitRepository creates a new GormDebitRepository
func NewGormDebitRepository(db *gorm.DB) *GormDebitRepository {
	return &GormDebitRepository{db: db}
}

// Append inserts a debit entry
func (r *GormDebitRepository) Append(ctx context.Context, debit *project.DebitEvent) error {
	return connFor(ctx, r.db).Create(debit).Error
}

// Save updates a debit entry (settlement mirrors rewrite the UTR in place)
func (r *GormDebitRepository) Save(ctx context.Context, debit *project.DebitEvent) error {
	return connFor(ctx, r.db).Save(debit).Error
}

// ListByProject returns the full debit stream for one project
func (r *GormDebitRepository) ListByProject(ctx context.Context, projectNumber int64) ([]project.DebitEvent, error) {
	var debits []project.DebitEvent
	if err := connFor(ctx, r.db).
		Where("project_number = ?", projectNumber).
		Order("debited_on ASC").
		Find(&debits).Error; err != nil {
		return nil, err
	}
	return debits, nil
}

// Recent returns the newest entries, for snapshot display capture
func (r *GormDebitRepository) Recent(ctx context.Context, projectNumber int64, limit int) ([]project.DebitEvent, error) {
	var debits []project.DebitEvent
	if err := connFor(ctx, r.db).
		Where("project_number = ?", projectNumber).
		Order("debited_on DESC").
		Limit(limit).
		Find(&debits).Error; err != nil {
		return nil, err
	}
	return debits, nil
}

// FindByUTR finds the debit mirror row for a settlement reference
func (r *GormDebitRepository) FindByUTR(ctx context.Context, utr string) (*project.DebitEvent, error) {
	var debit project.DebitEvent
	if err := connFor(ctx, r.db).First(&debit, "utr = ?", utr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &debit, nil
}

var _ project.DebitRepository = (*GormDebitRepository)(nil)

// GormAdjustmentRepository implements project.AdjustmentRepository using GORM
type GormAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormAdjustmentRepository creates a new GormAdjustmentRepository
func NewGormAdjustmentRepository(db *gorm.DB) *GormAdjustmentRepository {
	return &GormAdjustmentRepository{db: db}
}

// Append inserts an adjustment entry
func (r *GormAdjustmentRepository) Append(ctx context.Context, adjustment *project.AdjustmentEvent) error {
	return connFor(ctx, r.db).Create(adjustment).Error
}

// ListByProject returns the full adjustment stream for one project
func (r *GormAdjustmentRepository) ListByProject(ctx context.Context, projectNumber int64) ([]project.AdjustmentEvent, error) {
	var adjustments []project.AdjustmentEvent
	if err := connFor(ctx, r.db).
		Where("project_number = ?", projectNumber).
		Order("created_at ASC").
		Find(&adjustments).Error; err != nil {
		return nil, err
	}
	return adjustments, nil
}

var _ project.AdjustmentRepository = (*GormAdjustmentRepository)(nil)
