package payment

import (
	"testing"
	"time"

	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	scmActor      = Actor{UserID: "u-scm", Name: "SCM User", Department: DeptSCM}
	camActor      = Actor{UserID: "u-cam", Name: "CAM Visitor", Department: DeptProjects, Role: RoleVisitor}
	accountsActor = Actor{UserID: "u-acc", Name: "Accounts User", Department: DeptAccounts}
)

func newInstantRequest(t *testing.T) *PayRequest {
	t.Helper()
	pr, err := NewPayRequest(42, "PAY-2026-001", "",
		valueobject.FlexAmountFromString("125000"),
		"Acme Solar Supplies", "Module procurement", "3041", CreditTerms{}, time.Now())
	require.NoError(t, err)
	return pr
}

func newCreditRequest(t *testing.T) *PayRequest {
	t.Helper()
	deadline := time.Now().Add(30 * 24 * time.Hour)
	pr, err := NewPayRequest(42, "", "CR-2026-001",
		valueobject.FlexAmountFromString("125000"),
		"Acme Solar Supplies", "Module procurement", "3041",
		CreditTerms{Deadline: &deadline}, time.Now())
	require.NoError(t, err)
	return pr
}

func TestNewPayRequest_IdentifierExclusivity(t *testing.T) {
	amount := valueobject.FlexAmountFromString("100")

	_, err := NewPayRequest(42, "PAY-1", "CR-1", amount, "v", "", "", CreditTerms{}, time.Time{})
	assertDomainCode(t, err, "INVALID_IDENTIFIER")

	_, err = NewPayRequest(42, "", "", amount, "v", "", "", CreditTerms{}, time.Time{})
	assertDomainCode(t, err, "INVALID_IDENTIFIER")
}

func TestNewPayRequest_InitialStages(t *testing.T) {
	assert.Equal(t, StageDraft, newInstantRequest(t).Stage)
	assert.Equal(t, StageCreditPending, newCreditRequest(t).Stage)
}

func TestAdvance_InstantFlowFullPath(t *testing.T) {
	pr := newInstantRequest(t)

	require.NoError(t, pr.Advance(scmActor, "scm ok"))
	assert.Equal(t, StageCAM, pr.Stage)
	assert.Equal(t, StatusPending, pr.Approved)

	require.NoError(t, pr.Advance(camActor, "cam ok"))
	assert.Equal(t, StageAccount, pr.Stage)
	assert.Equal(t, StatusPending, pr.Approved)

	require.NoError(t, pr.Advance(accountsActor, "pay it"))
	assert.Equal(t, StageFinal, pr.Stage)
	assert.Equal(t, StatusApproved, pr.Approved)
	assert.NotNil(t, pr.FrozenAt)

	assert.Len(t, pr.History, 3)
	assert.Equal(t, "u-acc", pr.History[2].ActorID)
}

func TestAdvance_CreditFlowRoutesThroughInitialAccount(t *testing.T) {
	pr := newCreditRequest(t)

	require.NoError(t, pr.Advance(scmActor, ""))
	require.NoError(t, pr.Advance(camActor, ""))
	require.NoError(t, pr.Advance(accountsActor, ""))

	// Credit requests stop at Initial Account, already approved, awaiting
	// settlement before the final step.
	assert.Equal(t, StageInitialAccount, pr.Stage)
	assert.Equal(t, StatusApproved, pr.Approved)
	assert.Nil(t, pr.FrozenAt)

	require.NoError(t, pr.Advance(accountsActor, ""))
	assert.Equal(t, StageFinal, pr.Stage)
	assert.NotNil(t, pr.FrozenAt)
}

func TestAdvance_StageSkipRejectedWithoutSideEffects(t *testing.T) {
	pr := newInstantRequest(t)

	// Accounts cannot act while the request sits in Draft.
	err := pr.Advance(accountsActor, "skip ahead")
	assertDomainCode(t, err, "FORBIDDEN")

	assert.Equal(t, StageDraft, pr.Stage)
	assert.Empty(t, pr.History, "a refused transition must not append history")
}

func TestAdvance_WrongRoleAtCAM(t *testing.T) {
	pr := newInstantRequest(t)
	require.NoError(t, pr.Advance(scmActor, ""))

	plain := Actor{UserID: "u-p", Department: DeptProjects, Role: "engineer"}
	err := pr.Advance(plain, "")
	assertDomainCode(t, err, "FORBIDDEN")
	assert.Equal(t, StageCAM, pr.Stage)
}

func TestAdvance_TerminalStagesAreFrozen(t *testing.T) {
	pr := newInstantRequest(t)
	require.NoError(t, pr.Reject(scmActor, "not needed"))

	err := pr.Advance(scmActor, "")
	assertDomainCode(t, err, "INVALID_STATE")
}

func TestReject(t *testing.T) {
	t.Run("requires remarks", func(t *testing.T) {
		pr := newInstantRequest(t)
		assertDomainCode(t, pr.Reject(scmActor, "   "), "REMARKS_REQUIRED")
	})

	t.Run("allowed from any non-terminal stage", func(t *testing.T) {
		pr := newInstantRequest(t)
		require.NoError(t, pr.Advance(scmActor, ""))
		require.NoError(t, pr.Advance(camActor, ""))

		require.NoError(t, pr.Reject(accountsActor, "budget hold"))
		assert.Equal(t, StageRejected, pr.Stage)
		assert.Equal(t, StatusRejected, pr.Approved)
	})

	t.Run("refused once terminal", func(t *testing.T) {
		pr := newInstantRequest(t)
		require.NoError(t, pr.Reject(scmActor, "dup"))
		assertDomainCode(t, pr.Reject(scmActor, "again"), "INVALID_STATE")
	})
}

func TestTrashAndRestore(t *testing.T) {
	pr := newInstantRequest(t)
	require.NoError(t, pr.Trash(scmActor, "raised by mistake"))
	assert.Equal(t, StageTrashPending, pr.Stage)
	require.NotNil(t, pr.TrashedAt)

	// No approvals while trashed.
	assertDomainCode(t, pr.Advance(scmActor, ""), "INVALID_STATE")

	// Restore needs remarks and lands back in Draft.
	assertDomainCode(t, pr.Restore(scmActor, ""), "REMARKS_REQUIRED")
	require.NoError(t, pr.Restore(scmActor, "vendor confirmed"))
	assert.Equal(t, StageDraft, pr.Stage)
	assert.Nil(t, pr.TrashedAt)
}

func TestTrashExpired(t *testing.T) {
	pr := newInstantRequest(t)
	require.NoError(t, pr.Trash(scmActor, "park"))

	trashedAt := *pr.TrashedAt
	assert.False(t, pr.TrashExpired(trashedAt.Add(14*24*time.Hour)))
	assert.True(t, pr.TrashExpired(trashedAt.Add(16*24*time.Hour)))
}

func TestAssignUTR_Idempotent(t *testing.T) {
	pr := newInstantRequest(t)

	got, err := pr.AssignUTR("CR/42/01")
	require.NoError(t, err)
	assert.Equal(t, "CR/42/01", got)

	// A second assignment keeps the original reference.
	got, err = pr.AssignUTR("CR/42/02")
	require.NoError(t, err)
	assert.Equal(t, "CR/42/01", got)
	assert.Equal(t, "CR/42/01", pr.CurrentUTR())
}

func TestReplaceUTR_ReturnsOld(t *testing.T) {
	pr := newInstantRequest(t)
	_, err := pr.AssignUTR("UTR-OLD")
	require.NoError(t, err)

	old, err := pr.ReplaceUTR("UTR-NEW")
	require.NoError(t, err)
	assert.Equal(t, "UTR-OLD", old)
	assert.Equal(t, "UTR-NEW", pr.CurrentUTR())

	_, err = pr.ReplaceUTR(" ")
	assertDomainCode(t, err, "INVALID_UTR")
}

func TestSettlementRef_Format(t *testing.T) {
	assert.Equal(t, "CR/42/01", SettlementRef(42, 1))
	assert.Equal(t, "CR/42/02", SettlementRef(42, 2))
	// Two-digit padding stops growing past 99.
	assert.Equal(t, "CR/7/100", SettlementRef(7, 100))
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code)
}
