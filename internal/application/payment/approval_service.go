package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/slnkoenergy/epc-backend/internal/domain/ledger"
	"github.com/slnkoenergy/epc-backend/internal/domain/payment"
	"github.com/slnkoenergy/epc-backend/internal/domain/procurement"
	"github.com/slnkoenergy/epc-backend/internal/domain/project"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared/valueobject"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Recomputer refreshes a project's derived balance after a lifecycle change
type Recomputer interface {
	Recompute(ctx context.Context, projectNumber int64) (*ledger.BalanceSnapshot, error)
}

// ApprovalService drives payment requests along the approval path
type ApprovalService struct {
	payRepo     payment.Repository
	projectRepo project.Repository
	poRepo      procurement.PurchaseOrderRepository
	materials   procurement.MaterialCategories
	counter     payment.SettlementCounter
	debitRepo   project.DebitRepository
	uow         shared.UnitOfWork
	recomputer  Recomputer
	notifier    payment.Notifier
	logger      *zap.Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	payRepo payment.Repository,
	projectRepo project.Repository,
	poRepo procurement.PurchaseOrderRepository,
	materials procurement.MaterialCategories,
	counter payment.SettlementCounter,
	debitRepo project.DebitRepository,
	uow shared.UnitOfWork,
	recomputer Recomputer,
	notifier payment.Notifier,
	logger *zap.Logger,
) *ApprovalService {
	return &ApprovalService{
		payRepo:     payRepo,
		projectRepo: projectRepo,
		poRepo:      poRepo,
		materials:   materials,
		counter:     counter,
		debitRepo:   debitRepo,
		uow:         uow,
		recomputer:  recomputer,
		notifier:    notifier,
		logger:      logger.Named("approval-service"),
	}
}

// CreateRequestInput carries a new payment request
type CreateRequestInput struct {
	ProjectNumber  int64      `json:"project_number" binding:"required,gt=0"`
	PayID          string     `json:"pay_id"`
	CrID           string     `json:"cr_id"`
	Amount         string     `json:"amount" binding:"required"`
	Vendor         string     `json:"vendor" binding:"required"`
	Purpose        string     `json:"purpose"`
	PONumber       string     `json:"po_number"`
	RequestedOn    *time.Time `json:"requested_on"`
	CreditDeadline *time.Time `json:"credit_deadline"`
	CreditExtended bool       `json:"credit_extension"`
	CreditRemarks  string     `json:"credit_remarks"`
}

// CreateRequest opens a payment request in Draft (pay_id) or Credit Pending
// (cr_id)
func (s *ApprovalService) CreateRequest(ctx context.Context, input CreateRequestInput) (*payment.PayRequest, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "pay_request", "create")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrProjectNumber, input.ProjectNumber)

	proj, err := s.projectRepo.FindByNumber(ctx, input.ProjectNumber)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if proj == nil {
		err := shared.NewDomainError("PROJECT_NOT_FOUND", "Project not found")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var requestedOn time.Time
	if input.RequestedOn != nil {
		requestedOn = *input.RequestedOn
	}
	pr, err := payment.NewPayRequest(
		input.ProjectNumber,
		input.PayID, input.CrID,
		valueobject.FlexAmountFromString(input.Amount),
		input.Vendor, input.Purpose,
		valueobject.FlexString(input.PONumber),
		payment.CreditTerms{
			Deadline:  input.CreditDeadline,
			Extension: input.CreditExtended,
			Remarks:   input.CreditRemarks,
		},
		requestedOn,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.payRepo.Create(ctx, pr); err != nil {
		telemetry.RecordError(span, err)
		var de *shared.DomainError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create pay request: %w", err)
	}

	s.logger.Info("pay request created",
		zap.String("id", pr.ID.String()),
		zap.String("identifier", pr.Identifier()),
		zap.Int64("project", pr.ProjectNumber),
		zap.String("stage", string(pr.Stage)),
	)
	return pr, nil
}

// Decision is the requested batch action
type Decision string

const (
	DecisionApprove Decision = "Approved"
	DecisionReject  Decision = "Rejected"
)

// BatchApprovalInput carries one batch of approval decisions. All listed
// requests receive the same decision and remarks.
type BatchApprovalInput struct {
	IDs     []uuid.UUID `json:"ids" binding:"required,min=1"`
	Status  Decision    `json:"status" binding:"required"`
	Remarks string      `json:"remarks"`
}

// ApprovalItemResult is the per-request outcome of a batch decision
type ApprovalItemResult struct {
	ID      uuid.UUID     `json:"id"`
	OK      bool          `json:"ok"`
	Stage   payment.Stage `json:"stage,omitempty"`
	UTR     string        `json:"utr,omitempty"`
	Code    string        `json:"code,omitempty"`
	Message string        `json:"message,omitempty"`
}

// ProcessApprovals applies one decision to many requests. Each request runs in
// its own transaction so one bad item never poisons the batch; the caller gets
// a per-item result either way.
func (s *ApprovalService) ProcessApprovals(ctx context.Context, input BatchApprovalInput, actor payment.Actor) ([]ApprovalItemResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "pay_request", "batch_decision")
	defer span.End()
	telemetry.SetAttributes(span,
		"batch_size", len(input.IDs),
		"decision", string(input.Status),
	)

	if input.Status != DecisionApprove && input.Status != DecisionReject {
		err := shared.NewDomainError("INVALID_INPUT", "Status must be Approved or Rejected")
		telemetry.RecordError(span, err)
		return nil, err
	}

	results := make([]ApprovalItemResult, 0, len(input.IDs))
	recomputeSet := make(map[int64]struct{})

	for _, id := range input.IDs {
		var pr *payment.PayRequest
		var err error
		if input.Status == DecisionApprove {
			pr, err = s.approveOne(ctx, id, actor, input.Remarks)
		} else {
			pr, err = s.rejectOne(ctx, id, actor, input.Remarks)
		}

		item := ApprovalItemResult{ID: id}
		if err != nil {
			var de *shared.DomainError
			if errors.As(err, &de) {
				item.Code = de.Code
				item.Message = de.Message
			} else {
				item.Code = "INTERNAL"
				item.Message = "Internal error"
				s.logger.Error("approval failed",
					zap.String("id", id.String()), zap.Error(err))
			}
		} else {
			item.OK = true
			item.Stage = pr.Stage
			item.UTR = pr.CurrentUTR()
			recomputeSet[pr.ProjectNumber] = struct{}{}
			s.notifier.Dispatch(ctx, payment.Notification{
				Type:          string(input.Status),
				PayRequestID:  pr.ID,
				ProjectNumber: pr.ProjectNumber,
				Message:       fmt.Sprintf("Request %s moved to %s", pr.Identifier(), pr.Stage),
			})
		}
		results = append(results, item)
	}

	for number := range recomputeSet {
		if _, err := s.recomputer.Recompute(ctx, number); err != nil {
			s.logger.Warn("post-approval recompute failed",
				zap.Int64("project", number), zap.Error(err))
		}
	}
	return results, nil
}

// approveOne advances a single request one step, with the SCM purchase-order
// gate and the credit-flow settlement-reference issue applied inside the same
// transaction as the save.
func (s *ApprovalService) approveOne(ctx context.Context, id uuid.UUID, actor payment.Actor, remarks string) (*payment.PayRequest, error) {
	var pr *payment.PayRequest
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		var err error
		pr, err = s.payRepo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load pay request: %w", err)
		}
		if pr == nil {
			return shared.NewDomainError("NOT_FOUND", "Pay request not found")
		}

		// PO budget gate: SCM moving a material purchase forward must not push
		// cumulative approved payments past the PO value.
		if actor.Department == payment.DeptSCM &&
			(pr.Stage == payment.StageDraft || pr.Stage == payment.StageCreditPending) {
			if err := s.validatePOBudget(ctx, pr); err != nil {
				return err
			}
		}

		historyMark := len(pr.History)
		if err := pr.Advance(actor, remarks); err != nil {
			return err
		}

		if pr.Stage == payment.StageInitialAccount && pr.IsCreditFlow() {
			if err := s.issueSettlementRef(ctx, pr); err != nil {
				return err
			}
		}

		if err := s.payRepo.SaveWithLock(ctx, pr); err != nil {
			return err
		}
		return s.payRepo.AppendHistory(ctx, pr.History[historyMark:])
	})
	if err != nil {
		return nil, err
	}
	return pr, nil
}

func (s *ApprovalService) rejectOne(ctx context.Context, id uuid.UUID, actor payment.Actor, remarks string) (*payment.PayRequest, error) {
	var pr *payment.PayRequest
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		var err error
		pr, err = s.payRepo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load pay request: %w", err)
		}
		if pr == nil {
			return shared.NewDomainError("NOT_FOUND", "Pay request not found")
		}

		historyMark := len(pr.History)
		if err := pr.Reject(actor, remarks); err != nil {
			return err
		}
		if err := s.payRepo.SaveWithLock(ctx, pr); err != nil {
			return err
		}
		return s.payRepo.AppendHistory(ctx, pr.History[historyMark:])
	})
	if err != nil {
		return nil, err
	}
	return pr, nil
}

// validatePOBudget enforces the material-purchase gate: when the purpose names
// a known material category, the PO must exist and cumulative approved
// payments plus this request must stay within the PO value.
func (s *ApprovalService) validatePOBudget(ctx context.Context, pr *payment.PayRequest) error {
	known, err := s.materials.IsKnownCategory(ctx, pr.Purpose)
	if err != nil {
		return fmt.Errorf("failed to check material category: %w", err)
	}
	if !known {
		return nil
	}

	ref := pr.Ref()
	if ref == "" {
		return shared.NewDomainError("PO_REQUIRED", "Material purchases require a purchase order")
	}
	po, err := s.poRepo.FindByPONumber(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to load purchase order: %w", err)
	}
	if po == nil {
		return shared.NewDomainError("PO_NOT_FOUND", "Purchase order not found")
	}

	approvedSoFar, err := s.payRepo.SumApprovedByPO(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to sum approved payments: %w", err)
	}
	if approvedSoFar.Add(pr.Amount.Decimal).GreaterThan(po.POValue.Decimal) {
		return shared.ErrPOValueExceeded
	}
	return nil
}

// issueSettlementRef assigns the generated CR/{project}/{counter} reference on
// credit-flow entry into Initial Account and mirrors it into the debit stream.
// Already-settled requests keep their reference; the counter is only consumed
// for a fresh assignment. The debit mirror is best effort.
func (s *ApprovalService) issueSettlementRef(ctx context.Context, pr *payment.PayRequest) error {
	if pr.HasUTR() {
		return nil
	}

	n, err := s.counter.Next(ctx, pr.ProjectNumber)
	if err != nil {
		return fmt.Errorf("failed to allocate settlement counter: %w", err)
	}
	utr, err := pr.AssignUTR(payment.SettlementRef(pr.ProjectNumber, n))
	if err != nil {
		return err
	}

	if err := s.mirrorDebit(ctx, pr, utr); err != nil {
		s.logger.Warn("settlement debit mirror failed",
			zap.String("id", pr.ID.String()),
			zap.String("utr", utr),
			zap.Error(err),
		)
	}
	return nil
}

// mirrorDebit writes the ledger-side reflection of a settled payment
func (s *ApprovalService) mirrorDebit(ctx context.Context, pr *payment.PayRequest, utr string) error {
	debit, err := project.NewDebitEvent(
		pr.ProjectNumber,
		pr.Amount,
		pr.Purpose,
		pr.Vendor,
		pr.PONumber,
		time.Now(),
	)
	if err != nil {
		return err
	}
	debit.UTR = utr
	debit.Approved = project.DebitApproved
	return s.debitRepo.Append(ctx, debit)
}

// Trash parks a request in the time-boxed trash
func (s *ApprovalService) Trash(ctx context.Context, id uuid.UUID, actor payment.Actor, remarks string) (*payment.PayRequest, error) {
	return s.mutate(ctx, id, "trash", func(pr *payment.PayRequest) error {
		return pr.Trash(actor, remarks)
	})
}

// Restore pulls a trashed request back to Draft. Remarks are mandatory.
func (s *ApprovalService) Restore(ctx context.Context, id uuid.UUID, actor payment.Actor, remarks string) (*payment.PayRequest, error) {
	return s.mutate(ctx, id, "restore", func(pr *payment.PayRequest) error {
		return pr.Restore(actor, remarks)
	})
}

func (s *ApprovalService) mutate(ctx context.Context, id uuid.UUID, op string, fn func(*payment.PayRequest) error) (*payment.PayRequest, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "pay_request", op)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrPayRequestID, id.String())

	var pr *payment.PayRequest
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		var err error
		pr, err = s.payRepo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load pay request: %w", err)
		}
		if pr == nil {
			return shared.NewDomainError("NOT_FOUND", "Pay request not found")
		}

		historyMark := len(pr.History)
		if err := fn(pr); err != nil {
			return err
		}
		if err := s.payRepo.SaveWithLock(ctx, pr); err != nil {
			return err
		}
		return s.payRepo.AppendHistory(ctx, pr.History[historyMark:])
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return pr, nil
}

// SweepExpiredTrash rejects every trashed request whose retention window has
// elapsed, acting as the system user. Returns how many were swept.
func (s *ApprovalService) SweepExpiredTrash(ctx context.Context) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "pay_request", "trash_sweep")
	defer span.End()

	cutoff := time.Now().Add(-payment.TrashRetention)
	expired, err := s.payRepo.ListExpiredTrash(ctx, cutoff)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to list expired trash: %w", err)
	}

	swept := 0
	for i := range expired {
		pr := &expired[i]
		_, err := s.mutate(ctx, pr.ID, "trash_expire", func(pr *payment.PayRequest) error {
			return pr.Reject(payment.System, "Trash retention window elapsed")
		})
		if err != nil {
			s.logger.Warn("trash sweep item failed",
				zap.String("id", pr.ID.String()), zap.Error(err))
			continue
		}
		swept++
	}

	if swept > 0 {
		s.logger.Info("trash sweep complete", zap.Int("swept", swept))
	}
	return swept, nil
}
