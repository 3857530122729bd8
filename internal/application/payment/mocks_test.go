package payment

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

type mockMaterialCategories struct {
	mock.Mock
}

func (m *mockMaterialCategories) IsKnownCategory(ctx context.Context, purpose string) (bool, error) {
	args := m.Called(ctx, purpose)
	return args.Bool(0), args.Error(1)
}

type mockSettlementCounter struct {
	mock.Mock
}

func (m *mockSettlementCounter) Next(ctx context.Context, projectNumber int64) (int64, error) {
	args := m.Called(ctx, projectNumber)
	return args.Get(0).(int64), args.Error(1)
}

type mockAdvanceTokenStore struct {
	mock.Mock
}

func (m *mockAdvanceTokenStore) Record(ctx context.Context, poNumber string, payRequestID uuid.UUID) (bool, error) {
	args := m.Called(ctx, poNumber, payRequestID)
	return args.Bool(0), args.Error(1)
}

type mockVendorDirectory struct {
	mock.Mock
}

func (m *mockVendorDirectory) FindByName(ctx context.Context, name string) (*procurement.Vendor, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.Vendor), args.Error(1)
}

type mockRecomputer struct {
	mock.Mock
}

func (m *mockRecomputer) Recompute(ctx context.Context, projectNumber int64) (*ledger.BalanceSnapshot, error) {
	args := m.Called(ctx, projectNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.BalanceSnapshot), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Dispatch(ctx context.Context, n payment.Notification) {
	m.Called(ctx, n)
}

// passthroughUOW runs the function without a real transaction; the mocks
// record the calls either way.
type passthroughUOW struct{}

func (passthroughUOW) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
