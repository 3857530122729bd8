package payment

import (
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
)

// Event types
const (
	EventPayRequestCreated      = "pay_request.created"
	EventPayRequestStageChanged = "pay_request.stage_changed"
	EventPayRequestSettled      = "pay_request.settled"
)

const aggregateType = "PayRequest"

// PayRequestCreatedEvent fires when a request enters the pipeline
type PayRequestCreatedEvent struct {
	shared.BaseDomainEvent
	ProjectNumber int64  `json:"project_number"`
	Identifier    string `json:"identifier"`
	Stage         Stage  `json:"stage"`
}

// NewPayRequestCreatedEvent creates a PayRequestCreatedEvent
func NewPayRequestCreatedEvent(pr *PayRequest) *PayRequestCreatedEvent {
	return &PayRequestCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPayRequestCreated, aggregateType, pr.ID),
		ProjectNumber:   pr.ProjectNumber,
		Identifier:      pr.Identifier(),
		Stage:           pr.Stage,
	}
}

// PayRequestStageChangedEvent fires on every lifecycle transition
type PayRequestStageChangedEvent struct {
	shared.BaseDomainEvent
	ProjectNumber int64          `json:"project_number"`
	From          Stage          `json:"from"`
	To            Stage          `json:"to"`
	Approved      ApprovalStatus `json:"approved"`
}

// NewPayRequestStageChangedEvent creates a PayRequestStageChangedEvent
func NewPayRequestStageChangedEvent(pr *PayRequest, from Stage) *PayRequestStageChangedEvent {
	return &PayRequestStageChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPayRequestStageChanged, aggregateType, pr.ID),
		ProjectNumber:   pr.ProjectNumber,
		From:            from,
		To:              pr.Stage,
		Approved:        pr.Approved,
	}
}

// PayRequestSettledEvent fires after a settlement reference is committed
type PayRequestSettledEvent struct {
	shared.BaseDomainEvent
	ProjectNumber int64  `json:"project_number"`
	UTR           string `json:"utr"`
}

// NewPayRequestSettledEvent creates a PayRequestSettledEvent
func NewPayRequestSettledEvent(pr *PayRequest, utr string) *PayRequestSettledEvent {
	return &PayRequestSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPayRequestSettled, aggregateType, pr.ID),
		ProjectNumber:   pr.ProjectNumber,
		UTR:             utr,
	}
}
