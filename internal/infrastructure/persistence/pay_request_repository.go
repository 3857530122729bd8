package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/slnkoenergy/epc-backend/internal/domain/payment"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormPayRequestRepository implements payment.Repository using GORM
type GormPayRequestRepository struct {
	db *gorm.DB
}

// NewGormPayRequestRepository creates a new GormPayRequestRepository
func NewGormPayRequestRepository(db *gorm.DB) *GormPayRequestRepository {
	return &GormPayRequestRepository{db: db}
}

// Create inserts a new payment request with its initial history
func (r *GormPayRequestRepository) Create(ctx context.Context, pr *payment.PayRequest) error {
	err := connFor(ctx, r.db).Create(pr).Error
	if isUniqueViolation(err, "") {
		return shared.ErrAlreadyExists
	}
	return err
}

// Save persists the full aggregate state
func (r *GormPayRequestRepository) Save(ctx context.Context, pr *payment.PayRequest) error {
	err := connFor(ctx, r.db).Session(&gorm.Session{FullSaveAssociations: false}).Save(pr).Error
	if isUniqueViolation(err, "idx_pay_requests_utr") {
		return shared.ErrDuplicateUTR
	}
	return err
}

// SaveWithLock saves with optimistic locking (version check). The history
// slice is not written here; AppendHistory owns audit rows.
func (r *GormPayRequestRepository) SaveWithLock(ctx context.Context, pr *payment.PayRequest) error {
	result := connFor(ctx, r.db).
		Model(&payment.PayRequest{}).
		Where("id = ? AND version = ?", pr.ID, pr.Version-1).
		Updates(map[string]interface{}{
			"stage":      pr.Stage,
			"approved":   pr.Approved,
			"utr":        pr.UTR,
			"trashed_at": pr.TrashedAt,
			"frozen_at":  pr.FrozenAt,
			"version":    pr.Version,
			"updated_at": pr.UpdatedAt,
		})

	if result.Error != nil {
		if isUniqueViolation(result.Error, "idx_pay_requests_utr") {
			return shared.ErrDuplicateUTR
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// AppendHistory inserts audit rows. History is append-only.
func (r *GormPayRequestRepository) AppendHistory(ctx context.Context, entries []payment.StatusHistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return connFor(ctx, r.db).Create(&entries).Error
}

// FindByID finds a payment request by id, history included
func (r *GormPayRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.PayRequest, error) {
	var pr payment.PayRequest
	if err := connFor(ctx, r.db).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&pr, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pr, nil
}

// FindByPayID finds a request by its human pay identifier
func (r *GormPayRequestRepository) FindByPayID(ctx context.Context, payID string) (*payment.PayRequest, error) {
	return r.findOne(ctx, "pay_id = ?", payID)
}

// FindByCrID finds a request by its credit identifier
func (r *GormPayRequestRepository) FindByCrID(ctx context.Context, crID string) (*payment.PayRequest, error) {
	return r.findOne(ctx, "cr_id = ?", crID)
}

// FindByUTR finds the request holding a settlement reference
func (r *GormPayRequestRepository) FindByUTR(ctx context.Context, utr string) (*payment.PayRequest, error) {
	return r.findOne(ctx, "utr = ?", utr)
}

func (r *GormPayRequestRepository) findOne(ctx context.Context, query string, arg interface{}) (*payment.PayRequest, error) {
	var pr payment.PayRequest
	if err := connFor(ctx, r.db).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&pr, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pr, nil
}

// ListApprovedByPONumbers returns approved, settled requests on the PO set
func (r *GormPayRequestRepository) ListApprovedByPONumbers(ctx context.Context, poNumbers []string) ([]payment.PayRequest, error) {
	if len(poNumbers) == 0 {
		return nil, nil
	}
	var requests []payment.PayRequest
	if err := connFor(ctx, r.db).
		Where("po_number IN ? AND approved = ? AND utr IS NOT NULL AND utr <> ''",
			poNumbers, payment.StatusApproved).
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// SumApprovedByPO totals approved payments already raised against one PO
func (r *GormPayRequestRepository) SumApprovedByPO(ctx context.Context, poNumber string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := connFor(ctx, r.db).
		Model(&payment.PayRequest{}).
		Select("COALESCE(SUM(CAST(amount AS DECIMAL)), 0)").
		Where("po_number = ? AND approved = ?", poNumber, payment.StatusApproved).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// ListExpiredTrash returns trashed requests whose retention elapsed before the
// given cutoff
func (r *GormPayRequestRepository) ListExpiredTrash(ctx context.Context, before time.Time) ([]payment.PayRequest, error) {
	var requests []payment.PayRequest
	if err := connFor(ctx, r.db).
		Where("stage = ? AND trashed_at IS NOT NULL AND trashed_at < ?",
			payment.StageTrashPending, before).
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// ListForSettlementBatch returns requests for the settlement batch export
func (r *GormPayRequestRepository) ListForSettlementBatch(ctx context.Context, filter payment.SettlementBatchFilter) ([]payment.PayRequest, error) {
	query := connFor(ctx, r.db).Model(&payment.PayRequest{})

	if filter.ApprovedOnly {
		query = query.Where("approved = ?", payment.StatusApproved)
	}
	if filter.Vendor != "" {
		query = query.Where("vendor = ?", filter.Vendor)
	}
	if filter.From != nil {
		query = query.Where("requested_on >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("requested_on <= ?", *filter.To)
	}

	field := ValidateSortField(filter.OrderBy, PayRequestSortFields, "requested_on")
	orderBy := field + " " + ValidateSortOrder(filter.OrderDir)

	var requests []payment.PayRequest
	if err := query.Order(orderBy).Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

var _ payment.Repository = (*GormPayRequestRepository)(nil)
