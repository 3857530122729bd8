package project

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCapacity(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"already canonical", "2.5", "2.5"},
		{"boundary stays", "100", "100"},
		{"kilowatt form divided", "2500", "2.5"},
		{"just above boundary", "100.5", "0.1005"},
		{"zero", "0", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := decimal.NewFromString(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, NormalizeCapacity(raw).String())
		})
	}
}

func TestNewCreditEvent_Validation(t *testing.T) {
	_, err := NewCreditEvent(0, valueobject.FlexAmountFromString("100"), "IMPS", time.Now(), "ops", "")
	require.Error(t, err)

	_, err = NewCreditEvent(42, valueobject.FlexAmountFromString("0"), "IMPS", time.Now(), "ops", "")
	require.Error(t, err)

	ce, err := NewCreditEvent(42, valueobject.FlexAmountFromString("1,500.00"), "IMPS", time.Time{}, "ops", "")
	require.NoError(t, err)
	assert.Equal(t, "1500", ce.Amount.Decimal.String())
	assert.False(t, ce.CreditedOn.IsZero())
}

func TestDebitEvent_Classification(t *testing.T) {
	d := DebitEvent{
		BaseEntity: shared.NewBaseEntity(),
		Purpose:    " Customer Adjustment ",
		Approved:   DebitPending,
	}
	assert.True(t, d.IsCustomerAdjustment())
	assert.False(t, d.CountsAsVendorPayment(), "pending debit never counts as paid")

	d.Approved = DebitApproved
	assert.False(t, d.CountsAsVendorPayment(), "approved but unsettled debit does not count")

	d.UTR = "UTR-1"
	assert.True(t, d.CountsAsVendorPayment())
}

func TestAdjustmentEvent_SignedAmount(t *testing.T) {
	add, err := NewAdjustmentEvent(42, AdjustmentAdd, valueobject.FlexAmountFromString("500"), "reconciliation", "")
	require.NoError(t, err)
	assert.Equal(t, "500", add.SignedAmount().String())

	sub, err := NewAdjustmentEvent(42, AdjustmentSubtract, valueobject.FlexAmountFromString("500"), "reconciliation", "")
	require.NoError(t, err)
	assert.Equal(t, "-500", sub.SignedAmount().String())

	_, err = NewAdjustmentEvent(42, "weird", valueobject.FlexAmountFromString("500"), "reconciliation", "")
	require.Error(t, err)
}
