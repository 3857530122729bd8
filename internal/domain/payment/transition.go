package payment

import (
	"fmt"

	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
)

// transitionKey gates a forward transition on where the request is and who is
// acting. An empty Role matches any role within the department.
type transitionKey struct {
	From       Stage
	Department Department
	Role       string
}

// transitionOutcome is the result of a legal forward transition. When the
// outcome depends on whether the request carries an instant pay_id, Next is
// taken for pay_id requests and CreditNext for credit-only (cr_id) requests.
type transitionOutcome struct {
	Next       Stage
	CreditNext Stage
	Approved   ApprovalStatus
}

// transitions is the complete forward path. Reject and trash are cross-cutting
// and handled separately; anything not in this table is an illegal skip.
var transitions = map[transitionKey]transitionOutcome{
	{StageDraft, DeptSCM, ""}:         {Next: StageCAM, CreditNext: StageCAM, Approved: StatusPending},
	{StageCreditPending, DeptSCM, ""}: {Next: StageCAM, CreditNext: StageCAM, Approved: StatusPending},
	{StageCAM, DeptProjects, RoleVisitor}: {
		Next: StageAccount, CreditNext: StageAccount, Approved: StatusPending,
	},
	{StageAccount, DeptAccounts, ""}: {
		Next: StageFinal, CreditNext: StageInitialAccount, Approved: StatusApproved,
	},
	{StageInitialAccount, DeptAccounts, ""}: {
		Next: StageFinal, CreditNext: StageFinal, Approved: StatusApproved,
	},
}

// ResolveTransition returns the stage and approved flag a forward approval
// moves the request to, or a domain error when the actor cannot advance the
// request from its current stage.
func ResolveTransition(current Stage, actor Actor, hasPayID bool) (Stage, ApprovalStatus, error) {
	if current.IsTerminal() {
		return "", "", shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot approve a request in %s stage", current))
	}

	// Exact role gate first, then the department-wide rule.
	outcome, ok := transitions[transitionKey{current, actor.Department, actor.Role}]
	if !ok {
		outcome, ok = transitions[transitionKey{current, actor.Department, ""}]
	}
	if !ok {
		return "", "", shared.NewDomainError("FORBIDDEN",
			fmt.Sprintf("%s/%s cannot approve a request in %s stage", actor.Department, actor.Role, current))
	}

	if hasPayID {
		return outcome.Next, outcome.Approved, nil
	}
	return outcome.CreditNext, outcome.Approved, nil
}
