package ledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/slnkoenergy/epc-backend/internal/domain/ledger"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/telemetry"
)

var exportHeader = []string{
	"project_number", "project_code", "project_name", "customer", "group",
	"capacity_mwp", "total_credit", "total_debit", "available_amount",
	"total_adjustment", "total_po_with_gst", "total_billed",
	"net_balance", "amount_paid", "balance_payable", "balance_slnko",
	"tcs", "balance_required",
}

// ExportCSV renders the balance sheet as CSV. When projectNumbers is
// non-empty only those rows are exported; otherwise the filter governs,
// without pagination.
func (s *BalanceService) ExportCSV(ctx context.Context, filter shared.Filter, projectNumbers []int64) ([]byte, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "balance", "export_csv")
	defer span.End()

	var (
		snapshots []ledger.BalanceSnapshot
		err       error
	)
	if len(projectNumbers) > 0 {
		snapshots, err = s.snapshotRepo.FindByProjectNumbers(ctx, projectNumbers)
	} else {
		filter.Page = 0
		filter.PageSize = 0
		snapshots, _, err = s.snapshotRepo.List(ctx, filter)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load snapshots for export: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}
	for i := range snapshots {
		snap := &snapshots[i]
		record := []string{
			fmt.Sprintf("%d", snap.ProjectNumber),
			snap.ProjectCode,
			snap.ProjectName,
			snap.Customer,
			snap.GroupName,
			snap.Capacity.String(),
			snap.TotalCredit.StringFixed(2),
			snap.TotalDebit.StringFixed(2),
			snap.AvailableAmount.StringFixed(2),
			snap.TotalAdjustment.StringFixed(2),
			snap.TotalPOWithGST.StringFixed(2),
			snap.TotalBillValue.StringFixed(2),
			snap.NetBalance.StringFixed(2),
			snap.TotalAmountPaid.StringFixed(2),
			snap.BalancePayable.StringFixed(2),
			snap.BalanceSlnko.StringFixed(2),
			snap.TCS.StringFixed(0),
			snap.BalanceRequired.StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush export: %w", err)
	}

	telemetry.SetAttribute(span, "rows", len(snapshots))
	return buf.Bytes(), nil
}
