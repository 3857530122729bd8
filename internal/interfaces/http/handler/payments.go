package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	paymentapp "github.com/slnkoenergy/epc-backend/internal/application/payment"
	"github.com/slnkoenergy/epc-backend/internal/domain/payment"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/telemetry"
	"github.com/slnkoenergy/epc-backend/internal/interfaces/http/dto"
)

// ApprovalOps is the slice of the approval service the handler needs
type ApprovalOps interface {
	CreateRequest(ctx context.Context, input paymentapp.CreateRequestInput) (*payment.PayRequest, error)
	ProcessApprovals(ctx context.Context, input paymentapp.BatchApprovalInput, actor payment.Actor) ([]paymentapp.ApprovalItemResult, error)
	Trash(ctx context.Context, id uuid.UUID, actor payment.Actor, remarks string) (*payment.PayRequest, error)
	Restore(ctx context.Context, id uuid.UUID, actor payment.Actor, remarks string) (*payment.PayRequest, error)
}

// SettlementOps is the slice of the settlement service the handler needs
type SettlementOps interface {
	AssignUTR(ctx context.Context, input paymentapp.AssignUTRInput) (*payment.PayRequest, error)
	SettlementBatch(ctx context.Context, filter payment.SettlementBatchFilter) ([]paymentapp.BatchRow, error)
}

// PaymentHandler drives payment requests over HTTP
type PaymentHandler struct {
	BaseHandler
	approvals  ApprovalOps
	settlement SettlementOps
	metrics    *telemetry.BusinessMetrics
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(approvals ApprovalOps, settlement SettlementOps) *PaymentHandler {
	return &PaymentHandler{approvals: approvals, settlement: settlement}
}

// WithMetrics attaches business metric recording. Handlers built without it
// skip recording, which keeps tests and local runs free of telemetry wiring.
func (h *PaymentHandler) WithMetrics(m *telemetry.BusinessMetrics) *PaymentHandler {
	h.metrics = m
	return h
}

// Create opens a payment request in Draft (pay_id) or Credit Pending (cr_id)
func (h *PaymentHandler) Create(c *gin.Context) {
	var input paymentapp.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BindingError(c, err)
		return
	}

	pr, err := h.approvals.CreateRequest(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if h.metrics != nil {
		flow := "instant"
		if pr.CrID != nil {
			flow = "credit"
		}
		h.metrics.RecordRequestCreated(c.Request.Context(), flow)
	}
	h.Created(c, pr)
}

// Approvals applies one decision to a batch of requests and returns the
// per-item outcomes. The HTTP status is 200 even when individual items fail;
// callers read the per-item codes.
func (h *PaymentHandler) Approvals(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var input paymentapp.BatchApprovalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BindingError(c, err)
		return
	}

	results, err := h.approvals.ProcessApprovals(c.Request.Context(), input, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if h.metrics != nil {
		for _, r := range results {
			if r.OK {
				h.metrics.RecordDecision(c.Request.Context(),
					string(input.Status), string(r.Stage), string(actor.Department))
			}
		}
	}
	h.Success(c, results)
}

// AssignUTR records a bank settlement reference on a request
func (h *PaymentHandler) AssignUTR(c *gin.Context) {
	var input paymentapp.AssignUTRInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BindingError(c, err)
		return
	}

	pr, err := h.settlement.AssignUTR(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordSettlement(c.Request.Context(), pr.Amount.Shift(2).IntPart())
	}
	h.Success(c, pr)
}

// SettlementBatchRequest filters the bank-file export
type SettlementBatchRequest struct {
	Vendor       string     `form:"vendor"`
	From         *time.Time `form:"from" time_format:"2006-01-02"`
	To           *time.Time `form:"to" time_format:"2006-01-02"`
	ApprovedOnly bool       `form:"approved_only"`
	OrderBy      string     `form:"order_by"`
	OrderDir     string     `form:"order_dir"`
}

// SettlementBatch returns flattened bank-file rows for pending settlements
func (h *PaymentHandler) SettlementBatch(c *gin.Context) {
	var req SettlementBatchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	rows, err := h.settlement.SettlementBatch(c.Request.Context(), payment.SettlementBatchFilter{
		Vendor:       req.Vendor,
		From:         req.From,
		To:           req.To,
		ApprovedOnly: req.ApprovedOnly,
		OrderBy:      req.OrderBy,
		OrderDir:     req.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// RemarksRequest carries the remarks accompanying a trash or restore action
type RemarksRequest struct {
	Remarks string `json:"remarks"`
}

// Trash parks a request in the time-boxed trash
func (h *PaymentHandler) Trash(c *gin.Context) {
	h.mutate(c, h.approvals.Trash)
}

// Restore pulls a trashed request back to Draft
func (h *PaymentHandler) Restore(c *gin.Context) {
	h.mutate(c, h.approvals.Restore)
}

func (h *PaymentHandler) mutate(c *gin.Context, op func(context.Context, uuid.UUID, payment.Actor, string) (*payment.PayRequest, error)) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "id must be a valid UUID")
		return
	}

	var req RemarksRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindingError(c, err)
			return
		}
	}

	pr, err := op(c.Request.Context(), id, actor, req.Remarks)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pr)
}
