// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks payment-lifecycle and ledger health metrics: request
// creation, approval decisions, settlements, and the stock of requests parked
// at each stage.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	requestCreatedTotal *Counter
	decisionTotal       *Counter
	settlementTotal     *Counter
	settlementAmount    *Counter

	// Gauge metrics (point-in-time values)
	requestsByStage *Gauge
	staleSnapshots  *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	provider LedgerMetricsProvider
}

// LedgerMetricsProvider supplies point-in-time data for periodic gauge
// collection without coupling telemetry to the domain packages.
type LedgerMetricsProvider interface {
	// CountRequestsByStage returns how many live requests sit at each stage
	CountRequestsByStage(ctx context.Context) (map[string]int64, error)

	// CountStaleSnapshots returns how many balance snapshots are older than
	// the given age
	CountStaleSnapshots(ctx context.Context, olderThan time.Duration) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	Provider        LedgerMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:    cfg.Meter,
		logger:   logger,
		stopChan: make(chan struct{}),
		provider: cfg.Provider,
	}

	var err error

	bm.requestCreatedTotal, err = NewCounter(
		cfg.Meter,
		"slnko_pay_request_created_total",
		"Total number of payment requests created",
		"{requests}",
	)
	if err != nil {
		return nil, err
	}

	bm.decisionTotal, err = NewCounter(
		cfg.Meter,
		"slnko_pay_request_decision_total",
		"Total number of approval decisions applied",
		"{decisions}",
	)
	if err != nil {
		return nil, err
	}

	bm.settlementTotal, err = NewCounter(
		cfg.Meter,
		"slnko_settlement_total",
		"Total number of settlement references recorded",
		"{settlements}",
	)
	if err != nil {
		return nil, err
	}

	bm.settlementAmount, err = NewCounter(
		cfg.Meter,
		"slnko_settlement_amount_total",
		"Total settled amount in paise",
		"{paise}",
	)
	if err != nil {
		return nil, err
	}

	bm.requestsByStage, err = NewGauge(
		cfg.Meter,
		"slnko_pay_requests_by_stage",
		"Live payment requests parked at each approval stage",
		"{requests}",
	)
	if err != nil {
		return nil, err
	}

	bm.staleSnapshots, err = NewGauge(
		cfg.Meter,
		"slnko_stale_balance_snapshots",
		"Balance snapshots older than the staleness window",
		"{snapshots}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordRequestCreated records a new payment request, labeled by flow
// ("instant" or "credit")
func (bm *BusinessMetrics) RecordRequestCreated(ctx context.Context, flow string) {
	bm.requestCreatedTotal.Inc(ctx, AttrPaymentFlow.String(flow))
}

// RecordDecision records one approval decision outcome
func (bm *BusinessMetrics) RecordDecision(ctx context.Context, decision, stage, department string) {
	bm.decisionTotal.Inc(ctx,
		AttrDecision.String(decision),
		AttrStage.String(stage),
		AttrDepartment.String(department),
	)
}

// RecordSettlement records a recorded settlement reference and its amount.
// Amount is in paise (the smallest currency unit).
func (bm *BusinessMetrics) RecordSettlement(ctx context.Context, amountPaise int64) {
	bm.settlementTotal.Inc(ctx)
	bm.settlementAmount.Add(ctx, amountPaise)
}

// snapshotStaleAge is the age beyond which a balance snapshot counts as stale
const snapshotStaleAge = 24 * time.Hour

// StartPeriodicCollection starts periodic collection of gauge metrics.
// Non-blocking; use Stop to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectGauges(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			bm.collectGauges(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectGauges(ctx context.Context) {
	if bm.provider == nil {
		return
	}

	byStage, err := bm.provider.CountRequestsByStage(ctx)
	if err != nil {
		bm.logger.Warn("failed to count requests by stage", zap.Error(err))
	} else {
		for stage, count := range byStage {
			bm.requestsByStage.Record(ctx, count, AttrStage.String(stage))
		}
	}

	stale, err := bm.provider.CountStaleSnapshots(ctx, snapshotStaleAge)
	if err != nil {
		bm.logger.Warn("failed to count stale snapshots", zap.Error(err))
	} else {
		bm.staleSnapshots.Record(ctx, stale)
	}
}

// Stop stops the periodic collection
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
