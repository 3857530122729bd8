package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slnkoenergy/epc-backend/internal/domain/payment"
	"github.com/slnkoenergy/epc-backend/internal/domain/procurement"
	"github.com/slnkoenergy/epc-backend/internal/domain/project"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// rtgsThreshold splits bank-file rows between NEFT and RTGS
var rtgsThreshold = decimal.NewFromInt(200_000)

// SettlementService records bank settlement references against approved
// requests and keeps the ledger mirror and PO advance accumulator consistent
type SettlementService struct {
	payRepo   payment.Repository
	debitRepo project.DebitRepository
	poRepo    procurement.PurchaseOrderRepository
	tokens    payment.AdvanceTokenStore
	vendors   procurement.VendorDirectory
	uow       shared.UnitOfWork
	recompute Recomputer
	notifier  payment.Notifier
	// DebitAccount is the house account quoted in bank-file exports
	debitAccount string
	logger       *zap.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	payRepo payment.Repository,
	debitRepo project.DebitRepository,
	poRepo procurement.PurchaseOrderRepository,
	tokens payment.AdvanceTokenStore,
	vendors procurement.VendorDirectory,
	uow shared.UnitOfWork,
	recompute Recomputer,
	notifier payment.Notifier,
	debitAccount string,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		payRepo:      payRepo,
		debitRepo:    debitRepo,
		poRepo:       poRepo,
		tokens:       tokens,
		vendors:      vendors,
		uow:          uow,
		recompute:    recompute,
		notifier:     notifier,
		debitAccount: debitAccount,
		logger:       logger.Named("settlement-service"),
	}
}

// AssignUTRInput identifies one request by exactly one of its human codes and
// carries the bank reference to record
type AssignUTRInput struct {
	PayID string `json:"pay_id"`
	CrID  string `json:"cr_id"`
	UTR   string `json:"utr" binding:"required"`
}

// AssignUTR records a bank settlement reference on a request. The whole
// operation is one transaction: on any failure (including a duplicate
// reference on another request) nothing is written. Resubmitting the
// reference a request already holds is a no-op.
func (s *SettlementService) AssignUTR(ctx context.Context, input AssignUTRInput) (*payment.PayRequest, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "assign_utr")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrUTR, input.UTR)

	payID := strings.TrimSpace(input.PayID)
	crID := strings.TrimSpace(input.CrID)
	if (payID == "") == (crID == "") {
		err := shared.NewDomainError("INVALID_IDENTIFIER", "Exactly one of pay_id and cr_id must be set")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var pr *payment.PayRequest
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		var err error
		if payID != "" {
			pr, err = s.payRepo.FindByPayID(ctx, payID)
		} else {
			pr, err = s.payRepo.FindByCrID(ctx, crID)
		}
		if err != nil {
			return fmt.Errorf("failed to load pay request: %w", err)
		}
		if pr == nil {
			return shared.NewDomainError("NOT_FOUND", "Pay request not found")
		}

		newUTR := strings.TrimSpace(input.UTR)
		oldUTR := pr.CurrentUTR()
		if oldUTR == newUTR && oldUTR != "" {
			// Resubmission of the held reference: nothing to do.
			return nil
		}

		// A reference held by a different request is a hard conflict. The
		// unique index is the real guard; this read just gives a clean error
		// without consuming the transaction.
		holder, err := s.payRepo.FindByUTR(ctx, newUTR)
		if err != nil {
			return fmt.Errorf("failed to check settlement reference: %w", err)
		}
		if holder != nil && holder.ID != pr.ID {
			return shared.ErrDuplicateUTR
		}

		if _, err := pr.ReplaceUTR(newUTR); err != nil {
			return err
		}
		if err := s.payRepo.SaveWithLock(ctx, pr); err != nil {
			return err
		}

		if err := s.syncMirror(ctx, pr, oldUTR, newUTR); err != nil {
			return err
		}
		if err := s.applyAdvance(ctx, pr); err != nil {
			return err
		}

		if _, err := s.recompute.Recompute(ctx, pr.ProjectNumber); err != nil {
			return fmt.Errorf("failed to recompute balance: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.notifier.Dispatch(ctx, payment.Notification{
		Type:          "utr_assigned",
		PayRequestID:  pr.ID,
		ProjectNumber: pr.ProjectNumber,
		Message:       fmt.Sprintf("Settlement reference %s recorded for %s", pr.CurrentUTR(), pr.Identifier()),
	})
	return pr, nil
}

// syncMirror keeps the ledger debit stream aligned with the request's
// settlement reference: rewrite the row keyed by the old reference when one
// exists, create it when it does not.
func (s *SettlementService) syncMirror(ctx context.Context, pr *payment.PayRequest, oldUTR, newUTR string) error {
	var mirror *project.DebitEvent
	if oldUTR != "" {
		var err error
		mirror, err = s.debitRepo.FindByUTR(ctx, oldUTR)
		if err != nil {
			return fmt.Errorf("failed to load debit mirror: %w", err)
		}
	}

	if mirror == nil {
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
		debit.UTR = newUTR
		debit.Approved = project.DebitApproved
		return s.debitRepo.Append(ctx, debit)
	}

	mirror.UTR = newUTR
	mirror.Amount = pr.Amount
	mirror.Purpose = pr.Purpose
	mirror.PaidTo = pr.Vendor
	mirror.PONumber = pr.PONumber
	mirror.Approved = project.DebitApproved
	return s.debitRepo.Save(ctx, mirror)
}

// applyAdvance increments the PO advance-paid accumulator exactly once per
// (po, request). The token insert loses on resubmission, so replaying a
// settlement can never double-count.
func (s *SettlementService) applyAdvance(ctx context.Context, pr *payment.PayRequest) error {
	ref := pr.Ref()
	if ref == "" {
		return nil
	}
	po, err := s.poRepo.FindByPONumber(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to load purchase order: %w", err)
	}
	if po == nil {
		return nil
	}

	fresh, err := s.tokens.Record(ctx, ref, pr.ID)
	if err != nil {
		return fmt.Errorf("failed to record advance token: %w", err)
	}
	if !fresh {
		return nil
	}
	if err := s.poRepo.IncrementAdvancePaid(ctx, ref, pr.Amount.Decimal); err != nil {
		return fmt.Errorf("failed to increment advance paid: %w", err)
	}
	return nil
}

// BatchRow is one flattened bank-file line for the settlement batch export
type BatchRow struct {
	Identifier    string `json:"identifier"`
	ProjectNumber int64  `json:"project_number"`
	DebitAccount  string `json:"debit_account"`
	Beneficiary   string `json:"beneficiary"`
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc"`
	Amount        string `json:"amount"`
	Mode          string `json:"mode"` // NEFT below the RTGS threshold
	Comment       string `json:"comment"`
}

// SettlementBatch flattens pending settlements into bank-file rows. Requests
// whose vendor has no bank record still appear, with empty bank fields, so
// the exporting clerk sees the gap instead of silently losing the payment.
func (s *SettlementService) SettlementBatch(ctx context.Context, filter payment.SettlementBatchFilter) ([]BatchRow, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "batch_export")
	defer span.End()

	requests, err := s.payRepo.ListForSettlementBatch(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list settlement batch: %w", err)
	}

	rows := make([]BatchRow, 0, len(requests))
	vendorCache := make(map[string]*procurement.Vendor)
	for i := range requests {
		pr := &requests[i]

		vendor, seen := vendorCache[pr.Vendor]
		if !seen {
			vendor, err = s.vendors.FindByName(ctx, pr.Vendor)
			if err != nil {
				telemetry.RecordError(span, err)
				return nil, fmt.Errorf("failed to load vendor: %w", err)
			}
			vendorCache[pr.Vendor] = vendor
		}

		row := BatchRow{
			Identifier:    pr.Identifier(),
			ProjectNumber: pr.ProjectNumber,
			DebitAccount:  s.debitAccount,
			Amount:        pr.Amount.Decimal.StringFixed(2),
			Mode:          paymentMode(pr.Amount.Decimal),
			Comment:       synthesizeComment(pr),
		}
		if vendor != nil {
			row.Beneficiary = vendor.Beneficiary
			row.AccountNumber = vendor.AccountNumber
			row.IFSC = vendor.IFSC
		}
		rows = append(rows, row)
	}

	telemetry.SetAttribute(span, "rows", len(rows))
	return rows, nil
}

func paymentMode(amount decimal.Decimal) string {
	if amount.GreaterThan(rtgsThreshold) {
		return "RTGS"
	}
	return "NEFT"
}

// synthesizeComment builds the narration the bank file carries, capped at the
// usual 40-character bank limit
func synthesizeComment(pr *payment.PayRequest) string {
	comment := fmt.Sprintf("%d %s", pr.ProjectNumber, pr.Identifier())
	if pr.Purpose != "" {
		comment = comment + " " + pr.Purpose
	}
	if len(comment) > 40 {
		comment = comment[:40]
	}
	return strings.TrimSpace(comment)
}
