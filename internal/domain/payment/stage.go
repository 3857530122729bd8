package payment

// Stage is a payment request's position in the approval path
type Stage string

const (
	StageDraft          Stage = "Draft"
	StageCreditPending  Stage = "Credit Pending"
	StageCAM            Stage = "CAM"
	StageAccount        Stage = "Account"
	StageInitialAccount Stage = "Initial Account"
	StageFinal          Stage = "Final"
	StageRejected       Stage = "Rejected"
	StageTrashPending   Stage = "Trash Pending"
)

// IsTerminal reports whether no further transitions are possible
func (s Stage) IsTerminal() bool {
	return s == StageFinal || s == StageRejected
}

// IsValid reports whether the stage is known
func (s Stage) IsValid() bool {
	switch s {
	case StageDraft, StageCreditPending, StageCAM, StageAccount,
		StageInitialAccount, StageFinal, StageRejected, StageTrashPending:
		return true
	}
	return false
}

// ApprovalStatus is the coarse approved flag carried alongside the stage
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "Pending"
	StatusApproved ApprovalStatus = "Approved"
	StatusRejected ApprovalStatus = "Rejected"
)

// IsValid reports whether the approval status is known
func (s ApprovalStatus) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Department identifies the actor's department for transition gating
type Department string

const (
	DeptSCM      Department = "SCM"
	DeptProjects Department = "Projects"
	DeptAccounts Department = "Accounts"
)

// RoleVisitor is the one role with a gate of its own (Projects dept, CAM stage)
const RoleVisitor = "visitor"

// Actor is the authenticated user driving a transition
type Actor struct {
	UserID     string
	Name       string
	Department Department
	Role       string
}

// System is the actor recorded for automated transitions (expiry sweeps)
var System = Actor{UserID: "system", Name: "system", Department: DeptAccounts, Role: "system"}
