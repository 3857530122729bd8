package persistence

import (
	"context"
	"errors"

	"github.com/slnkoenergy/epc-backend/internal/domain/ledger"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSnapshotRepository implements ledger.SnapshotRepository using GORM
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewGormSnapshotRepository creates a new GormSnapshotRepository
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

// Upsert replaces the whole snapshot row for a project, keyed by project number
func (r *GormSnapshotRepository) Upsert(ctx context.Context, snapshot *ledger.BalanceSnapshot) error {
	return connFor(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_number"}},
			UpdateAll: true,
		}).
		Create(snapshot).Error
}

// BatchUpsert writes many snapshots in one statement. Order is not significant:
// each row is independent and fully derived.
func (r *GormSnapshotRepository) BatchUpsert(ctx context.Context, snapshots []ledger.BalanceSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	return connFor(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_number"}},
			UpdateAll: true,
		}).
		Create(&snapshots).Error
}

// FindByProjectNumber finds a snapshot by external project number
func (r *GormSnapshotRepository) FindByProjectNumber(ctx context.Context, projectNumber int64) (*ledger.BalanceSnapshot, error) {
	var snapshot ledger.BalanceSnapshot
	if err := connFor(ctx, r.db).First(&snapshot, "project_number = ?", projectNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

// FindByProjectNumbers finds snapshots for a set of project numbers
func (r *GormSnapshotRepository) FindByProjectNumbers(ctx context.Context, projectNumbers []int64) ([]ledger.BalanceSnapshot, error) {
	if len(projectNumbers) == 0 {
		return nil, nil
	}
	var snapshots []ledger.BalanceSnapshot
	if err := connFor(ctx, r.db).
		Where("project_number IN ?", projectNumbers).
		Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

// List returns snapshots with filtering, pagination and the total row count
func (r *GormSnapshotRepository) List(ctx context.Context, filter shared.Filter) ([]ledger.BalanceSnapshot, int64, error) {
	query := r.filtered(ctx, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	field := ValidateSortField(filter.OrderBy, SnapshotSortFields, "project_number")
	orderBy := field + " " + ValidateSortOrder(filter.OrderDir)

	var snapshots []ledger.BalanceSnapshot
	if err := query.Order(orderBy).Find(&snapshots).Error; err != nil {
		return nil, 0, err
	}
	return snapshots, total, nil
}

// Totals computes the aggregate footer over the filtered set
func (r *GormSnapshotRepository) Totals(ctx context.Context, filter shared.Filter) (ledger.ListingTotals, error) {
	var totals ledger.ListingTotals
	if err := r.filtered(ctx, filter).
		Select(`COALESCE(SUM(total_credit), 0) AS total_credit,
			COALESCE(SUM(total_debit), 0) AS total_debit,
			COALESCE(SUM(total_adjustment), 0) AS total_adjustment,
			COALESCE(SUM(balance_slnko), 0) AS balance_slnko,
			COALESCE(SUM(balance_required), 0) AS balance_required`).
		Scan(&totals).Error; err != nil {
		return ledger.ListingTotals{}, err
	}
	return totals, nil
}

func (r *GormSnapshotRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := connFor(ctx, r.db).Model(&ledger.BalanceSnapshot{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("project_code ILIKE ? OR project_name ILIKE ? OR customer ILIKE ?", like, like, like)
	}
	if group, ok := filter.Filters["group_name"]; ok {
		query = query.Where("group_name = ?", group)
	}
	return query
}

var _ ledger.SnapshotRepository = (*GormSnapshotRepository)(nil)
