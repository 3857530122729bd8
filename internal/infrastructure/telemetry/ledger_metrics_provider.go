package telemetry

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// GormLedgerMetricsProvider implements LedgerMetricsProvider backed by the
// service's own tables. Queries are read-only aggregates and run on the plain
// connection, never inside an application transaction.
type GormLedgerMetricsProvider struct {
	db *gorm.DB
}

// NewGormLedgerMetricsProvider creates a provider backed by the given database
func NewGormLedgerMetricsProvider(db *gorm.DB) *GormLedgerMetricsProvider {
	return &GormLedgerMetricsProvider{db: db}
}

// CountRequestsByStage counts live (non-trashed) payment requests per stage
func (p *GormLedgerMetricsProvider) CountRequestsByStage(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Stage string
		Count int64
	}

	var rows []row
	err := p.db.WithContext(ctx).
		Table("pay_requests").
		Select("stage, COUNT(*) AS count").
		Where("trashed_at IS NULL").
		Group("stage").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Stage] = r.Count
	}
	return counts, nil
}

// CountStaleSnapshots counts balance snapshots not refreshed within the window
func (p *GormLedgerMetricsProvider) CountStaleSnapshots(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	var count int64
	err := p.db.WithContext(ctx).
		Table("balance_snapshots").
		Where("updated_at < ?", cutoff).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

var _ LedgerMetricsProvider = (*GormLedgerMetricsProvider)(nil)
