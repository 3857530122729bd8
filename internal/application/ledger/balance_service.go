package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/slnkoenergy/epc-backend/internal/domain/ledger"
	"github.com/slnkoenergy/epc-backend/internal/domain/payment"
	"github.com/slnkoenergy/epc-backend/internal/domain/procurement"
	"github.com/slnkoenergy/epc-backend/internal/domain/project"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// recentEntryCount is how many of the newest credits/debits each snapshot
// carries for display
const recentEntryCount = 3

// BalanceService derives and serves per-project balance snapshots
type BalanceService struct {
	projectRepo    project.Repository
	creditRepo     project.CreditRepository
	debitRepo      project.DebitRepository
	adjustmentRepo project.AdjustmentRepository
	poRepo         procurement.PurchaseOrderRepository
	billRepo       procurement.BillRepository
	payRepo        payment.Repository
	snapshotRepo   ledger.SnapshotRepository
	cache          ledger.SnapshotCache
	syncBatchSize  int
	syncWorkers    int
	logger         *zap.Logger
}

// NewBalanceService creates a new BalanceService
func NewBalanceService(
	projectRepo project.Repository,
	creditRepo project.CreditRepository,
	debitRepo project.DebitRepository,
	adjustmentRepo project.AdjustmentRepository,
	poRepo procurement.PurchaseOrderRepository,
	billRepo procurement.BillRepository,
	payRepo payment.Repository,
	snapshotRepo ledger.SnapshotRepository,
	cache ledger.SnapshotCache,
	syncBatchSize, syncWorkers int,
	logger *zap.Logger,
) *BalanceService {
	if syncBatchSize <= 0 {
		syncBatchSize = 200
	}
	if syncWorkers <= 0 {
		syncWorkers = 8
	}
	return &BalanceService{
		projectRepo:    projectRepo,
		creditRepo:     creditRepo,
		debitRepo:      debitRepo,
		adjustmentRepo: adjustmentRepo,
		poRepo:         poRepo,
		billRepo:       billRepo,
		payRepo:        payRepo,
		snapshotRepo:   snapshotRepo,
		cache:          cache,
		syncBatchSize:  syncBatchSize,
		syncWorkers:    syncWorkers,
		logger:         logger.Named("balance-service"),
	}
}

// Recompute derives the balance snapshot for one project from the source
// streams and replaces the stored row. It returns the fresh snapshot.
func (s *BalanceService) Recompute(ctx context.Context, projectNumber int64) (*ledger.BalanceSnapshot, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "balance", "recompute")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrProjectNumber, projectNumber)

	proj, err := s.projectRepo.FindByNumber(ctx, projectNumber)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if proj == nil {
		err := shared.NewDomainError("PROJECT_NOT_FOUND", "Project not found")
		telemetry.RecordError(span, err)
		return nil, err
	}

	snapshot, err := s.buildSnapshot(ctx, proj)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.snapshotRepo.Upsert(ctx, snapshot); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	// Inside a unit of work the upsert is still provisional; caching the
	// snapshot would serve figures the commit may roll back. Invalidate only
	// and let the next read repopulate from the committed row.
	s.cache.Invalidate(ctx, projectNumber)
	if !shared.InUnitOfWork(ctx) {
		s.cache.Set(ctx, snapshot)
	}
	return snapshot, nil
}

// buildSnapshot gathers the six source streams concurrently and folds them
func (s *BalanceService) buildSnapshot(ctx context.Context, proj *project.Project) (*ledger.BalanceSnapshot, error) {
	var (
		src           ledger.SourceData
		recentCredits []project.CreditEvent
		recentDebits  []project.DebitEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		src.Credits, err = s.creditRepo.ListByProject(gctx, proj.ProjectNumber)
		return err
	})
	g.Go(func() error {
		var err error
		src.Debits, err = s.debitRepo.ListByProject(gctx, proj.ProjectNumber)
		return err
	})
	g.Go(func() error {
		var err error
		src.Adjustments, err = s.adjustmentRepo.ListByProject(gctx, proj.ProjectNumber)
		return err
	})
	g.Go(func() error {
		var err error
		src.PurchaseOrders, err = s.poRepo.ListByProject(gctx, proj.ID)
		return err
	})
	g.Go(func() error {
		var err error
		recentCredits, err = s.creditRepo.Recent(gctx, proj.ProjectNumber, recentEntryCount)
		return err
	})
	g.Go(func() error {
		var err error
		recentDebits, err = s.debitRepo.Recent(gctx, proj.ProjectNumber, recentEntryCount)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load ledger sources: %w", err)
	}

	// Bills and payments join on the PO set, so they wait for the POs.
	poRefs := make([]string, 0, len(src.PurchaseOrders))
	for i := range src.PurchaseOrders {
		if ref := src.PurchaseOrders[i].Ref(); ref != "" {
			poRefs = append(poRefs, ref)
		}
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		src.Bills, err = s.billRepo.ListByPONumbers(gctx, poRefs)
		return err
	})
	g.Go(func() error {
		var err error
		src.Payments, err = s.payRepo.ListApprovedByPONumbers(gctx, poRefs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load PO-joined sources: %w", err)
	}

	figures := ledger.Aggregate(src)
	return assembleSnapshot(proj, figures, recentCredits, recentDebits), nil
}

func assembleSnapshot(
	proj *project.Project,
	f ledger.Figures,
	recentCredits []project.CreditEvent,
	recentDebits []project.DebitEvent,
) *ledger.BalanceSnapshot {
	now := time.Now()

	credits := make(ledger.RecentEntries, 0, len(recentCredits))
	for i := range recentCredits {
		c := &recentCredits[i]
		credits = append(credits, ledger.RecentEntry{
			Amount: c.Amount.Decimal,
			On:     c.CreditedOn,
			Detail: c.Mode,
			By:     c.SubmittedBy,
		})
	}
	debits := make(ledger.RecentEntries, 0, len(recentDebits))
	for i := range recentDebits {
		d := &recentDebits[i]
		debits = append(debits, ledger.RecentEntry{
			Amount: d.Amount.Decimal,
			On:     d.DebitedOn,
			Detail: d.Purpose,
			By:     d.PaidTo,
		})
	}

	return &ledger.BalanceSnapshot{
		ID:            uuid.New(),
		ProjectID:     proj.ID,
		ProjectNumber: proj.ProjectNumber,
		ProjectCode:   proj.Code,
		ProjectName:   proj.Name,
		Customer:      proj.Customer,
		GroupName:     proj.GroupName,
		Capacity:      proj.Capacity(),

		TotalPOBasic:   f.TotalPOBasic,
		GSTAsPOBasic:   f.GSTAsPOBasic,
		TotalPOWithGST: f.TotalPOWithGST,

		TotalCredit:     f.TotalCredit,
		TotalDebit:      f.TotalDebit,
		AvailableAmount: f.AvailableAmount,

		CustomerAdjustmentTotal: f.CustomerAdjustmentTotal,

		CreditAdjustment: f.CreditAdjustment,
		DebitAdjustment:  f.DebitAdjustment,
		TotalAdjustment:  f.TotalAdjustment,

		TotalPOValue:   f.TotalPOValue,
		TotalBillValue: f.TotalBillValue,

		NetBalance:      f.NetBalance,
		PaidAmount:      f.PaidAmount,
		TotalAmountPaid: f.TotalAmountPaid,
		BalancePayable:  f.BalancePayable,
		BalanceSlnko:    f.BalanceSlnko,
		TCS:             f.TCS,
		BalanceRequired: f.BalanceRequired,

		RecentCredits: credits,
		RecentDebits:  debits,

		RecomputedAt: now,
	}
}

// GetBalance returns the snapshot for one project, from cache when possible.
// A project with no stored snapshot is recomputed on demand.
func (s *BalanceService) GetBalance(ctx context.Context, projectNumber int64) (*ledger.BalanceSnapshot, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "balance", "get")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrProjectNumber, projectNumber)

	if snapshot, ok := s.cache.Get(ctx, projectNumber); ok {
		return snapshot, nil
	}

	snapshot, err := s.snapshotRepo.FindByProjectNumber(ctx, projectNumber)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snapshot == nil {
		return s.Recompute(ctx, projectNumber)
	}

	s.cache.Set(ctx, snapshot)
	return snapshot, nil
}

// SyncResult reports the outcome of a full-ledger sync pass
type SyncResult struct {
	Projects int           `json:"projects"`
	Failed   int           `json:"failed"`
	Elapsed  time.Duration `json:"elapsed"`
}

// SyncAll recomputes every project's snapshot with bounded concurrency.
// Individual project failures are logged and counted, never fatal: a nightly
// sync should not abort on one corrupt ledger.
func (s *BalanceService) SyncAll(ctx context.Context) (*SyncResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "balance", "sync_all")
	defer span.End()

	start := time.Now()
	numbers, err := s.projectRepo.FindAllNumbers(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	result := &SyncResult{}
	for batchStart := 0; batchStart < len(numbers); batchStart += s.syncBatchSize {
		end := batchStart + s.syncBatchSize
		if end > len(numbers) {
			end = len(numbers)
		}
		batch := numbers[batchStart:end]

		snapshots := make([]ledger.BalanceSnapshot, 0, len(batch))
		var failed int

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.syncWorkers)
		results := make([]*ledger.BalanceSnapshot, len(batch))
		for i, number := range batch {
			g.Go(func() error {
				proj, err := s.projectRepo.FindByNumber(gctx, number)
				if err != nil || proj == nil {
					s.logger.Warn("sync: project load failed",
						zap.Int64("project", number), zap.Error(err))
					return nil
				}
				snapshot, err := s.buildSnapshot(gctx, proj)
				if err != nil {
					s.logger.Warn("sync: snapshot build failed",
						zap.Int64("project", number), zap.Error(err))
					return nil
				}
				results[i] = snapshot
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}

		for _, snapshot := range results {
			if snapshot == nil {
				failed++
				continue
			}
			snapshots = append(snapshots, *snapshot)
		}

		if err := s.snapshotRepo.BatchUpsert(ctx, snapshots); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to store snapshot batch: %w", err)
		}
		for i := range snapshots {
			s.cache.Invalidate(ctx, snapshots[i].ProjectNumber)
		}

		result.Projects += len(snapshots)
		result.Failed += failed
	}

	result.Elapsed = time.Since(start)
	s.logger.Info("ledger sync complete",
		zap.Int("projects", result.Projects),
		zap.Int("failed", result.Failed),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// Listing is one page of the balance sheet plus its aggregate footer
type Listing struct {
	Items  shared.Paginated[ledger.BalanceSnapshot] `json:"items"`
	Totals ledger.ListingTotals                     `json:"totals"`
}

// List returns a filtered, paginated balance listing with totals over the
// whole filtered set (not just the page)
func (s *BalanceService) List(ctx context.Context, filter shared.Filter) (*Listing, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "balance", "list")
	defer span.End()

	snapshots, total, err := s.snapshotRepo.List(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	totals, err := s.snapshotRepo.Totals(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to compute listing totals: %w", err)
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = len(snapshots)
		if pageSize == 0 {
			pageSize = 1
		}
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	return &Listing{
		Items:  shared.NewPaginated(snapshots, total, page, pageSize),
		Totals: totals,
	}, nil
}
