package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/slnkoenergy/epc-backend/internal/domain/payment"
	"gorm.io/gorm"
)

// settlementCounterRow backs the per-project settlement reference sequence
type settlementCounterRow struct {
	ProjectNumber int64     `gorm:"primary_key;autoIncrement:false"`
	Counter       int64     `gorm:"not null;default:0"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (settlementCounterRow) TableName() string {
	return "settlement_counters"
}

// GormSettlementCounter implements payment.SettlementCounter with an atomic
// upsert-and-return so two concurrent settlements can never draw the same
// number for one project.
type GormSettlementCounter struct {
	db *gorm.DB
}

// NewGormSettlementCounter creates a new GormSettlementCounter
func NewGormSettlementCounter(db *gorm.DB) *GormSettlementCounter {
	return &GormSettlementCounter{db: db}
}

// Next allocates the next counter value for a project
func (c *GormSettlementCounter) Next(ctx context.Context, projectNumber int64) (int64, error) {
	var next int64
	err := connFor(ctx, c.db).Raw(`
		INSERT INTO settlement_counters (project_number, counter, updated_at)
		VALUES (?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (project_number)
		DO UPDATE SET counter = settlement_counters.counter + 1, updated_at = CURRENT_TIMESTAMP
		RETURNING counter`,
		projectNumber,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

var _ payment.SettlementCounter = (*GormSettlementCounter)(nil)

// GormAdvanceTokenStore implements payment.AdvanceTokenStore. The composite
// unique index makes Record exactly-once per (po_number, pay_request).
type GormAdvanceTokenStore struct {
	db *gorm.DB
}

// NewGormAdvanceTokenStore creates a new GormAdvanceTokenStore
func NewGormAdvanceTokenStore(db *gorm.DB) *GormAdvanceTokenStore {
	return &GormAdvanceTokenStore{db: db}
}

// Record inserts the idempotency token, reporting false when it already exists
func (s *GormAdvanceTokenStore) Record(ctx context.Context, poNumber string, payRequestID uuid.UUID) (bool, error) {
	token := payment.NewAdvanceToken(poNumber, payRequestID)
	if err := connFor(ctx, s.db).Create(token).Error; err != nil {
		if isUniqueViolation(err, "") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var _ payment.AdvanceTokenStore = (*GormAdvanceTokenStore)(nil)
