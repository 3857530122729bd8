package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/slnkoenergy/epc-backend/internal/domain/payment"
	"github.com/slnkoenergy/epc-backend/internal/domain/procurement"
	"github.com/slnkoenergy/epc-backend/internal/domain/project"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared/valueobject"
)

// TCS (tax collected at source) applies at 0.1% on the net balance above the
// statutory threshold.
var (
	tcsThreshold = decimal.NewFromInt(5_000_000)
	tcsRate      = decimal.NewFromFloat(0.001)
)

// SourceData is everything the fold needs for one project. Bills and payments
// may be fetched broadly; the fold joins them to the project's PO set by
// string-normalized po_number, since legacy rows mix numeric and string forms.
type SourceData struct {
	Credits        []project.CreditEvent
	Debits         []project.DebitEvent
	Adjustments    []project.AdjustmentEvent
	PurchaseOrders []procurement.PurchaseOrder
	Bills          []procurement.Bill
	Payments       []payment.PayRequest
}

// Figures is the derived balance set for one project. Every field is always
// present; empty sources yield zeros, not errors.
type Figures struct {
	TotalPOBasic   decimal.Decimal
	GSTAsPOBasic   decimal.Decimal
	TotalPOWithGST decimal.Decimal

	TotalCredit     decimal.Decimal
	TotalDebit      decimal.Decimal
	AvailableAmount decimal.Decimal

	CustomerAdjustmentTotal decimal.Decimal

	CreditAdjustment decimal.Decimal
	DebitAdjustment  decimal.Decimal
	TotalAdjustment  decimal.Decimal

	TotalPOValue   decimal.Decimal
	TotalBillValue decimal.Decimal

	NetBalance      decimal.Decimal
	PaidAmount      decimal.Decimal
	TotalAmountPaid decimal.Decimal
	BalancePayable  decimal.Decimal
	BalanceSlnko    decimal.Decimal
	TCS             decimal.Decimal
	BalanceRequired decimal.Decimal
}

// Aggregate folds the source streams into the derived balance set. It is a
// pure function: no I/O, deterministic, safe to re-run concurrently.
func Aggregate(src SourceData) Figures {
	var f Figures

	// PO totals and the project's PO reference set.
	poRefs := make(map[string]struct{}, len(src.PurchaseOrders))
	totalPOBasic := decimal.Zero
	gstAsPOBasic := decimal.Zero
	totalPOValue := decimal.Zero
	for i := range src.PurchaseOrders {
		po := &src.PurchaseOrders[i]
		if ref := po.Ref(); ref != "" {
			poRefs[ref] = struct{}{}
		}
		totalPOBasic = totalPOBasic.Add(po.Basic.Decimal)
		gstAsPOBasic = gstAsPOBasic.Add(po.GST.Decimal)
		totalPOValue = totalPOValue.Add(po.POValue.Decimal)
	}
	f.TotalPOBasic = valueobject.Round2(totalPOBasic)
	f.GSTAsPOBasic = valueobject.Round2(gstAsPOBasic)
	f.TotalPOWithGST = valueobject.Round2(totalPOBasic.Add(gstAsPOBasic))
	f.TotalPOValue = valueobject.Round2(totalPOValue)

	// Credit and debit streams.
	totalCredit := decimal.Zero
	for i := range src.Credits {
		totalCredit = totalCredit.Add(src.Credits[i].Amount.Decimal)
	}
	totalDebit := decimal.Zero
	customerAdjustment := decimal.Zero
	legacyPaid := decimal.Zero
	for i := range src.Debits {
		d := &src.Debits[i]
		totalDebit = totalDebit.Add(d.Amount.Decimal)
		if d.IsCustomerAdjustment() {
			customerAdjustment = customerAdjustment.Add(d.Amount.Decimal)
		}
		if d.CountsAsVendorPayment() {
			legacyPaid = legacyPaid.Add(d.Amount.Decimal)
		}
	}
	f.TotalCredit = valueobject.Round2(totalCredit)
	f.TotalDebit = valueobject.Round2(totalDebit)
	f.AvailableAmount = valueobject.Round2(totalCredit.Sub(totalDebit))
	f.CustomerAdjustmentTotal = valueobject.Round2(customerAdjustment)

	// Adjustments: stored absolute, signed via type.
	creditAdj := decimal.Zero
	debitAdj := decimal.Zero
	for i := range src.Adjustments {
		a := &src.Adjustments[i]
		if a.Type == project.AdjustmentAdd {
			creditAdj = creditAdj.Add(a.Amount.Abs())
		} else {
			debitAdj = debitAdj.Add(a.Amount.Abs())
		}
	}
	f.CreditAdjustment = valueobject.Round2(creditAdj)
	f.DebitAdjustment = valueobject.Round2(debitAdj)
	f.TotalAdjustment = valueobject.Round2(creditAdj.Sub(debitAdj))

	// Bills joined to the PO set.
	totalBill := decimal.Zero
	for i := range src.Bills {
		b := &src.Bills[i]
		if _, ok := poRefs[b.Ref()]; ok {
			totalBill = totalBill.Add(b.Value.Decimal)
		}
	}
	f.TotalBillValue = valueobject.Round2(totalBill)

	// Paid amount: approved settled payments against the PO set when any
	// exist (the modern path), otherwise the legacy approved-debit fallback.
	modernPaid := decimal.Zero
	modernSeen := false
	for i := range src.Payments {
		p := &src.Payments[i]
		if p.Approved != payment.StatusApproved || !p.HasUTR() {
			continue
		}
		if _, ok := poRefs[p.Ref()]; !ok {
			continue
		}
		modernSeen = true
		modernPaid = modernPaid.Add(p.Amount.Decimal)
	}
	paid := legacyPaid
	if modernSeen {
		paid = modernPaid
	}
	f.PaidAmount = valueobject.Round2(paid)
	f.TotalAmountPaid = f.PaidAmount
	f.BalancePayable = valueobject.Round2(f.TotalPOWithGST.Sub(f.PaidAmount))

	// Net balance deliberately excludes ordinary vendor debits: only
	// customer-refund debits reduce it. Vendor payments instead flow through
	// TotalAmountPaid into BalanceSlnko. Preserve the asymmetry.
	f.NetBalance = valueobject.Round2(totalCredit.Sub(customerAdjustment))
	f.BalanceSlnko = valueobject.Round2(f.NetBalance.Sub(f.TotalAmountPaid).Sub(f.TotalAdjustment))
	f.TCS = computeTCS(f.NetBalance)
	f.BalanceRequired = valueobject.Round2(f.BalanceSlnko.Sub(f.BalancePayable).Sub(f.TCS))

	return f
}

// computeTCS applies the statutory formula: 0.1% of the net balance above the
// threshold, rounded to whole currency units.
func computeTCS(netBalance decimal.Decimal) decimal.Decimal {
	if netBalance.LessThanOrEqual(tcsThreshold) {
		return decimal.Zero
	}
	return valueobject.RoundWhole(netBalance.Sub(tcsThreshold).Mul(tcsRate))
}
