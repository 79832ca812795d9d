package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const EventTypePaymentSettled = "payment.settled"

// DomainEvent is anything the settlement path announces after commit.
// AggregateID is the payment reference, which downstream consumers use as
// their idempotency key.
type DomainEvent interface {
	GetEventID() string
	GetEventType() string
	GetAggregateID() string
	GetOccurredAt() time.Time
}

type EventMeta struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	AggregateID string    `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func newEventMeta(eventType, aggregateID string) EventMeta {
	return EventMeta{
		EventID:     uuid.New().String(),
		EventType:   eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
	}
}

func (m EventMeta) GetEventID() string       { return m.EventID }
func (m EventMeta) GetEventType() string     { return m.EventType }
func (m EventMeta) GetAggregateID() string   { return m.AggregateID }
func (m EventMeta) GetOccurredAt() time.Time { return m.OccurredAt }

// PaymentSettledEvent is emitted once per intent, when it leaves PENDING.
type PaymentSettledEvent struct {
	EventMeta
	Payload PaymentSettledPayload `json:"payload"`
}

type PaymentSettledPayload struct {
	Reference     string    `json:"reference"`
	WalletID      string    `json:"wallet_id"`
	Purpose       string    `json:"purpose"`
	Status        string    `json:"status"`
	Amount        int64     `json:"amount"`
	PhoneNumber   string    `json:"phone_number"`
	ResolvedVia   string    `json:"resolved_via"`
	Receipt       string    `json:"receipt,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	SettledAt     time.Time `json:"settled_at"`
}

func NewPaymentSettledEvent(intent *PaymentIntent) *PaymentSettledEvent {
	settledAt := intent.UpdatedAt
	if intent.ResolvedAt != nil {
		settledAt = *intent.ResolvedAt
	}

	return &PaymentSettledEvent{
		EventMeta: newEventMeta(EventTypePaymentSettled, intent.Reference),
		Payload: PaymentSettledPayload{
			Reference:     intent.Reference,
			WalletID:      intent.WalletID,
			Purpose:       string(intent.Purpose),
			Status:        string(intent.Status),
			Amount:        intent.Amount,
			PhoneNumber:   intent.PhoneNumber,
			ResolvedVia:   string(intent.ResolvedVia),
			Receipt:       intent.ProviderReceipt,
			FailureReason: intent.FailureReason,
			SettledAt:     settledAt,
		},
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// EventHandler returning an error leaves the message pending for redelivery.
type EventHandler func(ctx context.Context, event DomainEvent) error
