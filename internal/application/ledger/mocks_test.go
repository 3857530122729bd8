package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/slnkoenergy/epc-backend/internal/domain/ledger"
	"github.com/slnkoenergy/epc-backend/internal/domain/payment"
	"github.com/slnkoenergy/epc-backend/internal/domain/procurement"
	"github.com/slnkoenergy/epc-backend/internal/domain/project"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// Mock implementations

type mockProjectRepository struct {
	mock.Mock
}

func (m *mockProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *mockProjectRepository) FindByNumber(ctx context.Context, projectNumber int64) (*project.Project, error) {
	args := m.Called(ctx, projectNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *mockProjectRepository) FindAll(ctx context.Context, filter shared.Filter) ([]project.Project, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.Project), args.Error(1)
}

func (m *mockProjectRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockProjectRepository) FindAllNumbers(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type mockCreditRepository struct {
	mock.Mock
}

func (m *mockCreditRepository) Append(ctx context.Context, credit *project.CreditEvent) error {
	args := m.Called(ctx, credit)
	return args.Error(0)
}

func (m *mockCreditRepository) ListByProject(ctx context.Context, projectNumber int64) ([]project.CreditEvent, error) {
	args := m.Called(ctx, projectNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.CreditEvent), args.Error(1)
}

func (m *mockCreditRepository) Recent(ctx context.Context, projectNumber int64, limit int) ([]project.CreditEvent, error) {
	args := m.Called(ctx, projectNumber, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.CreditEvent), args.Error(1)
}

type mockDebitRepository struct {
	mock.Mock
}

func (m *mockDebitRepository) Append(ctx context.Context, debit *project.DebitEvent) error {
	args := m.Called(ctx, debit)
	return args.Error(0)
}

func (m *mockDebitRepository) Save(ctx context.Context, debit *project.DebitEvent) error {
	args := m.Called(ctx, debit)
	return args.Error(0)
}

func (m *mockDebitRepository) ListByProject(ctx context.Context, projectNumber int64) ([]project.DebitEvent, error) {
	args := m.Called(ctx, projectNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.DebitEvent), args.Error(1)
}

func (m *mockDebitRepository) Recent(ctx context.Context, projectNumber int64, limit int) ([]project.DebitEvent, error) {
	args := m.Called(ctx, projectNumber, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.DebitEvent), args.Error(1)
}

func (m *mockDebitRepository) FindByUTR(ctx context.Context, utr string) (*project.DebitEvent, error) {
	args := m.Called(ctx, utr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.DebitEvent), args.Error(1)
}

type mockAdjustmentRepository struct {
	mock.Mock
}

func (m *mockAdjustmentRepository) Append(ctx context.Context, adjustment *project.AdjustmentEvent) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

func (m *mockAdjustmentRepository) ListByProject(ctx context.Context, projectNumber int64) ([]project.AdjustmentEvent, error) {
	args := m.Called(ctx, projectNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.AdjustmentEvent), args.Error(1)
}

type mockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *mockPurchaseOrderRepository) FindByPONumber(ctx context.Context, poNumber string) (*procurement.PurchaseOrder, error) {
	args := m.Called(ctx, poNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.PurchaseOrder), args.Error(1)
}

func (m *mockPurchaseOrderRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]procurement.PurchaseOrder, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]procurement.PurchaseOrder), args.Error(1)
}

func (m *mockPurchaseOrderRepository) IncrementAdvancePaid(ctx context.Context, poNumber string, amount decimal.Decimal) error {
	args := m.Called(ctx, poNumber, amount)
	return args.Error(0)
}

type mockBillRepository struct {
	mock.Mock
}

func (m *mockBillRepository) ListByPONumbers(ctx context.Context, poNumbers []string) ([]procurement.Bill, error) {
	args := m.Called(ctx, poNumbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]procurement.Bill), args.Error(1)
}

type mockPayRequestRepository struct {
	mock.Mock
}

func (m *mockPayRequestRepository) Create(ctx context.Context, pr *payment.PayRequest) error {
	args := m.Called(ctx, pr)
	return args.Error(0)
}

func (m *mockPayRequestRepository) Save(ctx context.Context, pr *payment.PayRequest) error {
	args := m.Called(ctx, pr)
	return args.Error(0)
}

func (m *mockPayRequestRepository) SaveWithLock(ctx context.Context, pr *payment.PayRequest) error {
	args := m.Called(ctx, pr)
	return args.Error(0)
}

func (m *mockPayRequestRepository) AppendHistory(ctx context.Context, entries []payment.StatusHistoryEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *mockPayRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.PayRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PayRequest), args.Error(1)
}

func (m *mockPayRequestRepository) FindByPayID(ctx context.Context, payID string) (*payment.PayRequest, error) {
	args := m.Called(ctx, payID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PayRequest), args.Error(1)
}

func (m *mockPayRequestRepository) FindByCrID(ctx context.Context, crID string) (*payment.PayRequest, error) {
	args := m.Called(ctx, crID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PayRequest), args.Error(1)
}

func (m *mockPayRequestRepository) FindByUTR(ctx context.Context, utr string) (*payment.PayRequest, error) {
	args := m.Called(ctx, utr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PayRequest), args.Error(1)
}

func (m *mockPayRequestRepository) ListApprovedByPONumbers(ctx context.Context, poNumbers []string) ([]payment.PayRequest, error) {
	args := m.Called(ctx, poNumbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.PayRequest), args.Error(1)
}

func (m *mockPayRequestRepository) SumApprovedByPO(ctx context.Context, poNumber string) (decimal.Decimal, error) {
	args := m.Called(ctx, poNumber)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockPayRequestRepository) ListExpiredTrash(ctx context.Context, before time.Time) ([]payment.PayRequest, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.PayRequest), args.Error(1)
}

func (m *mockPayRequestRepository) ListForSettlementBatch(ctx context.Context, filter payment.SettlementBatchFilter) ([]payment.PayRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.PayRequest), args.Error(1)
}

type mockSnapshotRepository struct {
	mock.Mock
}

func (m *mockSnapshotRepository) Upsert(ctx context.Context, snapshot *ledger.BalanceSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *mockSnapshotRepository) BatchUpsert(ctx context.Context, snapshots []ledger.BalanceSnapshot) error {
	args := m.Called(ctx, snapshots)
	return args.Error(0)
}

func (m *mockSnapshotRepository) FindByProjectNumber(ctx context.Context, projectNumber int64) (*ledger.BalanceSnapshot, error) {
	args := m.Called(ctx, projectNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.BalanceSnapshot), args.Error(1)
}

func (m *mockSnapshotRepository) List(ctx context.Context, filter shared.Filter) ([]ledger.BalanceSnapshot, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]ledger.BalanceSnapshot), args.Get(1).(int64), args.Error(2)
}

func (m *mockSnapshotRepository) Totals(ctx context.Context, filter shared.Filter) (ledger.ListingTotals, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(ledger.ListingTotals), args.Error(1)
}

func (m *mockSnapshotRepository) FindByProjectNumbers(ctx context.Context, projectNumbers []int64) ([]ledger.BalanceSnapshot, error) {
	args := m.Called(ctx, projectNumbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.BalanceSnapshot), args.Error(1)
}

// fakeCache is a map-backed ledger.SnapshotCache for service tests
type fakeCache struct {
	entries     map[int64]*ledger.BalanceSnapshot
	invalidated []int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[int64]*ledger.BalanceSnapshot)}
}

func (c *fakeCache) Get(_ context.Context, projectNumber int64) (*ledger.BalanceSnapshot, bool) {
	snap, ok := c.entries[projectNumber]
	return snap, ok
}

func (c *fakeCache) Set(_ context.Context, snapshot *ledger.BalanceSnapshot) {
	c.entries[snapshot.ProjectNumber] = snapshot
}

func (c *fakeCache) Invalidate(_ context.Context, projectNumber int64) {
	delete(c.entries, projectNumber)
	c.invalidated = append(c.invalidated, projectNumber)
}
