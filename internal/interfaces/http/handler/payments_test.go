package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	paymentapp "github.com/slnkoenergy/epc-backend/internal/application/payment"
	"github.com/slnkoenergy/epc-backend/internal/domain/payment"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared/valueobject"
	"github.com/slnkoenergy/epc-backend/internal/interfaces/http/dto"
	"github.com/slnkoenergy/epc-backend/internal/interfaces/http/middleware"
)

var testActor = payment.Actor{
	UserID:     "u-1",
	Name:       "Asha",
	Department: payment.DeptAccounts,
	Role:       "executive",
}

// newPaymentRouter wires the payment routes; when actor is non-nil every
// request runs as that user, mimicking the authentication middleware.
func newPaymentRouter(approvals ApprovalOps, settlement SettlementOps, actor *payment.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPaymentHandler(approvals, settlement)
	r := gin.New()
	if actor != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ActorKey, *actor)
			c.Next()
		})
	}
	r.POST("/payments", h.Create)
	r.POST("/payments/approvals", h.Approvals)
	r.POST("/payments/utr", h.AssignUTR)
	r.GET("/payments/settlement-batch", h.SettlementBatch)
	r.POST("/payments/:id/trash", h.Trash)
	r.POST("/payments/:id/restore", h.Restore)
	return r
}

func samplePayRequest(t *testing.T) *payment.PayRequest {
	t.Helper()
	pr, err := payment.NewPayRequest(
		42, "PAY-100", "",
		valueobject.FlexAmountFromString("60000"),
		"Sunshine Cables", "Cables",
		valueobject.FlexString("PO/42/11"),
		payment.CreditTerms{},
		time.Now(),
	)
	require.NoError(t, err)
	return pr
}

func TestPaymentCreate(t *testing.T) {
	approvals := new(mockApprovalOps)
	router := newPaymentRouter(approvals, new(mockSettlementOps), nil)

	pr := samplePayRequest(t)
	approvals.On("CreateRequest", mock.Anything, mock.MatchedBy(func(in paymentapp.CreateRequestInput) bool {
		return in.ProjectNumber == 42 && in.PayID == "PAY-100" && in.Amount == "60000"
	})).Return(pr, nil)

	body := `{"project_number":42,"pay_id":"PAY-100","amount":"60000","vendor":"Sunshine Cables","purpose":"Cables","po_number":"PO/42/11"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	approvals.AssertExpectations(t)
}

func TestPaymentCreate_ValidationDetails(t *testing.T) {
	approvals := new(mockApprovalOps)
	router := newPaymentRouter(approvals, new(mockSettlementOps), nil)

	// Missing amount and vendor.
	body := `{"project_number":42,"pay_id":"PAY-100"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Details)
	approvals.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything)
}

func TestPaymentApprovals(t *testing.T) {
	approvals := new(mockApprovalOps)
	router := newPaymentRouter(approvals, new(mockSettlementOps), &testActor)

	id1, id2 := uuid.New(), uuid.New()
	results := []paymentapp.ApprovalItemResult{
		{ID: id1, OK: true, Stage: payment.StageCAM},
		{ID: id2, Code: "NOT_FOUND", Message: "Pay request not found"},
	}
	approvals.On("ProcessApprovals", mock.Anything, mock.MatchedBy(func(in paymentapp.BatchApprovalInput) bool {
		return len(in.IDs) == 2 && in.Status == paymentapp.DecisionApprove
	}), testActor).Return(results, nil)

	body, _ := json.Marshal(paymentapp.BatchApprovalInput{
		IDs:    []uuid.UUID{id1, id2},
		Status: paymentapp.DecisionApprove,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/approvals", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp.Data.([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, true, first["ok"])
	second := items[1].(map[string]interface{})
	assert.Equal(t, "NOT_FOUND", second["code"])
}

func TestPaymentApprovals_RequiresActor(t *testing.T) {
	approvals := new(mockApprovalOps)
	router := newPaymentRouter(approvals, new(mockSettlementOps), nil)

	body := `{"ids":["` + uuid.NewString() + `"],"status":"Approved"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/approvals", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	approvals.AssertNotCalled(t, "ProcessApprovals", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentAssignUTR(t *testing.T) {
	settlement := new(mockSettlementOps)
	router := newPaymentRouter(new(mockApprovalOps), settlement, nil)

	pr := samplePayRequest(t)
	settlement.On("AssignUTR", mock.Anything, paymentapp.AssignUTRInput{
		PayID: "PAY-100",
		UTR:   "SBIN0001",
	}).Return(pr, nil)

	body := `{"pay_id":"PAY-100","utr":"SBIN0001"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/utr", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	settlement.AssertExpectations(t)
}

func TestPaymentAssignUTR_DuplicateConflict(t *testing.T) {
	settlement := new(mockSettlementOps)
	router := newPaymentRouter(new(mockApprovalOps), settlement, nil)

	settlement.On("AssignUTR", mock.Anything, mock.Anything).
		Return(nil, shared.ErrDuplicateUTR)

	body := `{"cr_id":"CR-9","utr":"SBIN0001"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/utr", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeDuplicateUTR, resp.Error.Code)
}

func TestPaymentSettlementBatch(t *testing.T) {
	settlement := new(mockSettlementOps)
	router := newPaymentRouter(new(mockApprovalOps), settlement, nil)

	rows := []paymentapp.BatchRow{
		{Identifier: "PAY-100", ProjectNumber: 42, Mode: "NEFT", Amount: "60000.00"},
	}
	settlement.On("SettlementBatch", mock.Anything, mock.MatchedBy(func(f payment.SettlementBatchFilter) bool {
		return f.Vendor == "Sunshine Cables" && f.ApprovedOnly && f.From != nil
	})).Return(rows, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/payments/settlement-batch?vendor=Sunshine+Cables&approved_only=true&from=2026-08-01", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp.Data.([]interface{})
	require.Len(t, items, 1)
	row := items[0].(map[string]interface{})
	assert.Equal(t, "NEFT", row["mode"])
}

func TestPaymentTrashRestore(t *testing.T) {
	approvals := new(mockApprovalOps)
	router := newPaymentRouter(approvals, new(mockSettlementOps), &testActor)

	pr := samplePayRequest(t)
	approvals.On("Trash", mock.Anything, pr.ID, testActor, "duplicate entry").Return(pr, nil)
	approvals.On("Restore", mock.Anything, pr.ID, testActor, "raised in error").Return(pr, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/"+pr.ID.String()+"/trash",
		bytes.NewBufferString(`{"remarks":"duplicate entry"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/payments/"+pr.ID.String()+"/restore",
		bytes.NewBufferString(`{"remarks":"raised in error"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	approvals.AssertExpectations(t)
}

func TestPaymentRestore_MissingRemarks(t *testing.T) {
	approvals := new(mockApprovalOps)
	router := newPaymentRouter(approvals, new(mockSettlementOps), &testActor)

	id := uuid.New()
	approvals.On("Restore", mock.Anything, id, testActor, "").
		Return(nil, shared.NewDomainError("REMARKS_REQUIRED", "Restore requires remarks"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/"+id.String()+"/restore", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeRemarksRequired, resp.Error.Code)
}

func TestPaymentTrash_BadID(t *testing.T) {
	approvals := new(mockApprovalOps)
	router := newPaymentRouter(approvals, new(mockSettlementOps), &testActor)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/not-a-uuid/trash", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	approvals.AssertNotCalled(t, "Trash", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
