package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared/valueobject"
)

// TrashRetention is how long a trashed request stays restorable
const TrashRetention = 15 * 24 * time.Hour

// CreditTerms is the credit sub-object carried by credit-flow requests
type CreditTerms struct {
	Deadline  *time.Time `gorm:"column:credit_deadline"`
	Extension bool       `gorm:"column:credit_extension;not null;default:false"`
	Remarks   string     `gorm:"column:credit_remarks;type:text"`
}

// StatusHistoryEntry is one immutable audit row in a request's history
type StatusHistoryEntry struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key"`
	PayRequestID uuid.UUID      `gorm:"type:uuid;not null;index"`
	Stage        Stage          `gorm:"type:varchar(20);not null"`
	Status       ApprovalStatus `gorm:"type:varchar(20);not null"`
	ActorID      string         `gorm:"type:varchar(50);not null"`
	ActorName    string         `gorm:"type:varchar(100)"`
	Department   Department     `gorm:"type:varchar(20)"`
	Role         string         `gorm:"type:varchar(50)"`
	Remarks      string         `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StatusHistoryEntry) TableName() string {
	return "pay_request_status_history"
}

// PayRequest is the payment approval aggregate root. A request carries either
// an instant pay_id or a credit cr_id, never both, and moves along the fixed
// approval path until Final or Rejected.
type PayRequest struct {
	shared.BaseAggregateRoot
	ProjectNumber int64                  `gorm:"not null;index"`
	PayID         *string                `gorm:"type:varchar(30);uniqueIndex"`
	CrID          *string                `gorm:"type:varchar(30);uniqueIndex"`
	Amount        valueobject.FlexAmount `gorm:"type:varchar(40);not null"`
	Vendor        string                 `gorm:"type:varchar(200);not null"`
	Purpose       string                 `gorm:"type:varchar(200)"`
	PONumber      valueobject.FlexString `gorm:"type:varchar(50);index"`
	Stage         Stage                  `gorm:"type:varchar(20);not null;index"`
	Approved      ApprovalStatus         `gorm:"type:varchar(20);not null;default:'Pending'"`
	UTR           *string                `gorm:"type:varchar(50);uniqueIndex"`
	Credit        CreditTerms            `gorm:"embedded"`
	RequestedOn   time.Time              `gorm:"not null"`
	TrashedAt     *time.Time
	FrozenAt      *time.Time
	History       []StatusHistoryEntry `gorm:"foreignKey:PayRequestID;references:ID"`
}

// TableName returns the table name for GORM
func (PayRequest) TableName() string {
	return "pay_requests"
}

// NewPayRequest creates a request in Draft (instant) or Credit Pending
// (credit terms requested). Exactly one of payID/crID must be supplied.
func NewPayRequest(
	projectNumber int64,
	payID, crID string,
	amount valueobject.FlexAmount,
	vendor, purpose string,
	poNumber valueobject.FlexString,
	credit CreditTerms,
	requestedOn time.Time,
) (*PayRequest, error) {
	if projectNumber <= 0 {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project number is required")
	}
	payID = strings.TrimSpace(payID)
	crID = strings.TrimSpace(crID)
	if (payID == "") == (crID == "") {
		return nil, shared.NewDomainError("INVALID_IDENTIFIER", "Exactly one of pay_id and cr_id must be set")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if vendor == "" {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor is required")
	}
	if requestedOn.IsZero() {
		requestedOn = time.Now()
	}

	pr := &PayRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProjectNumber:     projectNumber,
		Amount:            amount,
		Vendor:            vendor,
		Purpose:           purpose,
		PONumber:          poNumber,
		Approved:          StatusPending,
		Credit:            credit,
		RequestedOn:       requestedOn,
		History:           make([]StatusHistoryEntry, 0),
	}
	if payID != "" {
		pr.PayID = &payID
		pr.Stage = StageDraft
	} else {
		pr.CrID = &crID
		pr.Stage = StageCreditPending
	}

	pr.AddDomainEvent(NewPayRequestCreatedEvent(pr))
	return pr, nil
}

// HasPayID reports whether the request is on the instant-payment flow
func (pr *PayRequest) HasPayID() bool {
	return pr.PayID != nil && *pr.PayID != ""
}

// IsCreditFlow reports whether the request is on the credit flow
func (pr *PayRequest) IsCreditFlow() bool {
	return pr.CrID != nil && *pr.CrID != "" && !pr.HasPayID()
}

// Identifier returns the active human identifier (pay_id or cr_id)
func (pr *PayRequest) Identifier() string {
	if pr.HasPayID() {
		return *pr.PayID
	}
	if pr.CrID != nil {
		return *pr.CrID
	}
	return ""
}

// HasUTR reports whether a settlement reference is assigned
func (pr *PayRequest) HasUTR() bool {
	return pr.UTR != nil && strings.TrimSpace(*pr.UTR) != ""
}

// CurrentUTR returns the assigned settlement reference, or ""
func (pr *PayRequest) CurrentUTR() string {
	if pr.UTR == nil {
		return ""
	}
	return *pr.UTR
}

// Ref returns the canonical string form of the PO number
func (pr *PayRequest) Ref() string {
	return valueobject.NormalizeRef(pr.PONumber)
}

// Advance moves the request one step along the approval path for the given
// actor, appending the audit entry. The caller is responsible for any
// pre-transition PO validation.
func (pr *PayRequest) Advance(actor Actor, remarks string) error {
	if pr.Stage == StageTrashPending {
		return shared.NewDomainError("INVALID_STATE", "Trashed requests must be restored before approval")
	}
	next, approved, err := ResolveTransition(pr.Stage, actor, pr.HasPayID())
	if err != nil {
		return err
	}

	from := pr.Stage
	pr.Stage = next
	pr.Approved = approved
	pr.appendHistory(actor, remarks)
	pr.touch()

	if next == StageFinal {
		pr.Freeze()
	}

	pr.AddDomainEvent(NewPayRequestStageChangedEvent(pr, from))
	return nil
}

// Reject moves the request to Rejected from any non-terminal stage.
// Remarks are mandatory.
func (pr *PayRequest) Reject(actor Actor, remarks string) error {
	if pr.Stage.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot reject a request in %s stage", pr.Stage))
	}
	if strings.TrimSpace(remarks) == "" {
		return shared.NewDomainError("REMARKS_REQUIRED", "Rejection requires remarks")
	}

	from := pr.Stage
	pr.Stage = StageRejected
	pr.Approved = StatusRejected
	pr.appendHistory(actor, remarks)
	pr.touch()

	pr.AddDomainEvent(NewPayRequestStageChangedEvent(pr, from))
	return nil
}

// Trash parks the request in the time-boxed trash
func (pr *PayRequest) Trash(actor Actor, remarks string) error {
	if pr.Stage.IsTerminal() || pr.Stage == StageTrashPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot trash a request in %s stage", pr.Stage))
	}
	now := time.Now()
	from := pr.Stage
	pr.Stage = StageTrashPending
	pr.TrashedAt = &now
	pr.appendHistory(actor, remarks)
	pr.touch()

	pr.AddDomainEvent(NewPayRequestStageChangedEvent(pr, from))
	return nil
}

// Restore pulls the request back to Draft. Only trashed requests can be
// restored, and remarks are mandatory.
func (pr *PayRequest) Restore(actor Actor, remarks string) error {
	if pr.Stage != StageTrashPending {
		return shared.NewDomainError("INVALID_STATE", "Only trashed requests can be restored")
	}
	if strings.TrimSpace(remarks) == "" {
		return shared.NewDomainError("REMARKS_REQUIRED", "Restoring a trashed request requires remarks")
	}

	pr.Stage = StageDraft
	pr.Approved = StatusPending
	pr.TrashedAt = nil
	pr.appendHistory(actor, remarks)
	pr.touch()

	pr.AddDomainEvent(NewPayRequestStageChangedEvent(pr, StageTrashPending))
	return nil
}

// TrashExpired reports whether the trash retention window has elapsed
func (pr *PayRequest) TrashExpired(now time.Time) bool {
	return pr.Stage == StageTrashPending && pr.TrashedAt != nil &&
		now.Sub(*pr.TrashedAt) > TrashRetention
}

// AssignUTR sets the settlement reference. Assignment is idempotent: an
// already-set reference is kept and returned, never regenerated.
func (pr *PayRequest) AssignUTR(utr string) (string, error) {
	utr = strings.TrimSpace(utr)
	if utr == "" {
		return "", shared.NewDomainError("INVALID_UTR", "Settlement reference cannot be empty")
	}
	if pr.HasUTR() {
		return *pr.UTR, nil
	}
	pr.UTR = &utr
	pr.touch()
	return utr, nil
}

// ReplaceUTR swaps in a new settlement reference, returning the old one
func (pr *PayRequest) ReplaceUTR(utr string) (old string, err error) {
	utr = strings.TrimSpace(utr)
	if utr == "" {
		return "", shared.NewDomainError("INVALID_UTR", "Settlement reference cannot be empty")
	}
	old = pr.CurrentUTR()
	pr.UTR = &utr
	pr.touch()
	return old, nil
}

// Freeze marks the point the request's economics became immutable. Idempotent.
func (pr *PayRequest) Freeze() {
	if pr.FrozenAt == nil {
		now := time.Now()
		pr.FrozenAt = &now
	}
}

// SettlementRef builds the per-project settlement reference, zero-padded
func SettlementRef(projectNumber, counter int64) string {
	return fmt.Sprintf("CR/%d/%02d", projectNumber, counter)
}

func (pr *PayRequest) appendHistory(actor Actor, remarks string) {
	pr.History = append(pr.History, StatusHistoryEntry{
		ID:           uuid.New(),
		PayRequestID: pr.ID,
		Stage:        pr.Stage,
		Status:       pr.Approved,
		ActorID:      actor.UserID,
		ActorName:    actor.Name,
		Department:   actor.Department,
		Role:         actor.Role,
		Remarks:      remarks,
		CreatedAt:    time.Now(),
	})
}

func (pr *PayRequest) touch() {
	pr.UpdatedAt = time.Now()
	pr.IncrementVersion()
}
