package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	ledgerapp "github.com/slnkoenergy/epc-backend/internal/application/ledger"
	"github.com/slnkoenergy/epc-backend/internal/domain/ledger"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"github.com/slnkoenergy/epc-backend/internal/interfaces/http/dto"
)

// BalanceProvider is the slice of the balance service the handler needs
type BalanceProvider interface {
	GetBalance(ctx context.Context, projectNumber int64) (*ledger.BalanceSnapshot, error)
	List(ctx context.Context, filter shared.Filter) (*ledgerapp.Listing, error)
	ExportCSV(ctx context.Context, filter shared.Filter, projectNumbers []int64) ([]byte, error)
	SyncAll(ctx context.Context) (*ledgerapp.SyncResult, error)
}

// BalanceHandler serves the project balance sheet
type BalanceHandler struct {
	BaseHandler
	balances BalanceProvider
}

// NewBalanceHandler creates a new BalanceHandler
func NewBalanceHandler(balances BalanceProvider) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

// listFilter converts list query parameters into a repository filter
func listFilter(req dto.ListRequest) shared.Filter {
	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	filter.Search = req.Search
	if req.Group != "" {
		filter.Filters["group_name"] = req.Group
	}
	return filter
}

// List returns one page of the balance sheet plus aggregate totals over the
// whole filtered set
func (h *BalanceHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	listing, err := h.balances.List(c.Request.Context(), listFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, listing)
}

// Get returns the balance snapshot for one project
func (h *BalanceHandler) Get(c *gin.Context) {
	number, err := strconv.ParseInt(c.Param("project_number"), 10, 64)
	if err != nil || number <= 0 {
		h.BadRequest(c, "project_number must be a positive integer")
		return
	}

	snapshot, err := h.balances.GetBalance(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, snapshot)
}

// ExportRequest narrows the CSV export: explicit project numbers win over the
// search filter
type ExportRequest struct {
	ProjectNumbers []int64 `json:"project_numbers"`
	Search         string  `json:"search"`
	Group          string  `json:"group"`
}

// Export streams the balance sheet as a CSV attachment
func (h *BalanceHandler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	filter := shared.DefaultFilter()
	filter.Search = req.Search
	if req.Group != "" {
		filter.Filters["group_name"] = req.Group
	}

	data, err := h.balances.ExportCSV(c.Request.Context(), filter, req.ProjectNumbers)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("balance-sheet-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// Sync recomputes every project's snapshot and reports counts
func (h *BalanceHandler) Sync(c *gin.Context) {
	result, err := h.balances.SyncAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
