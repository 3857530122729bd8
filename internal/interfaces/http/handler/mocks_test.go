package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	ledgerapp "github.com/slnkoenergy/epc-backend/internal/application/ledger"
	paymentapp "github.com/slnkoenergy/epc-backend/internal/application/payment"
	"github.com/slnkoenergy/epc-backend/internal/domain/ledger"
	"github.com/slnkoenergy/epc-backend/internal/domain/payment"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
)

type mockBalanceProvider struct {
	mock.Mock
}

func (m *mockBalanceProvider) GetBalance(ctx context.Context, projectNumber int64) (*ledger.BalanceSnapshot, error) {
	args := m.Called(ctx, projectNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.BalanceSnapshot), args.Error(1)
}

func (m *mockBalanceProvider) List(ctx context.Context, filter shared.Filter) (*ledgerapp.Listing, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.Listing), args.Error(1)
}

func (m *mockBalanceProvider) ExportCSV(ctx context.Context, filter shared.Filter, projectNumbers []int64) ([]byte, error) {
	args := m.Called(ctx, filter, projectNumbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockBalanceProvider) SyncAll(ctx context.Context) (*ledgerapp.SyncResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.SyncResult), args.Error(1)
}

type mockApprovalOps struct {
	mock.Mock
}

func (m *mockApprovalOps) CreateRequest(ctx context.Context, input paymentapp.CreateRequestInput) (*payment.PayRequest, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PayRequest), args.Error(1)
}

func (m *mockApprovalOps) ProcessApprovals(ctx context.Context, input paymentapp.BatchApprovalInput, actor payment.Actor) ([]paymentapp.ApprovalItemResult, error) {
	args := m.Called(ctx, input, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]paymentapp.ApprovalItemResult), args.Error(1)
}

func (m *mockApprovalOps) Trash(ctx context.Context, id uuid.UUID, actor payment.Actor, remarks string) (*payment.PayRequest, error) {
	args := m.Called(ctx, id, actor, remarks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PayRequest), args.Error(1)
}

func (m *mockApprovalOps) Restore(ctx context.Context, id uuid.UUID, actor payment.Actor, remarks string) (*payment.PayRequest, error) {
	args := m.Called(ctx, id, actor, remarks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PayRequest), args.Error(1)
}

type mockSettlementOps struct {
	mock.Mock
}

func (m *mockSettlementOps) AssignUTR(ctx context.Context, input paymentapp.AssignUTRInput) (*payment.PayRequest, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PayRequest), args.Error(1)
}

func (m *mockSettlementOps) SettlementBatch(ctx context.Context, filter payment.SettlementBatchFilter) ([]paymentapp.BatchRow, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]paymentapp.BatchRow), args.Error(1)
}
