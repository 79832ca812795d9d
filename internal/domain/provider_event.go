package domain

import (
	"context"
	"encoding/json"
	"time"
)

// ProviderEvent is one message received from the provider about a
// reference, either a callback body or a status-check response. Kept
// verbatim for reconciliation disputes.
type ProviderEvent struct {
	ID             string
	Reference      string
	Source         ResolutionSource
	ProviderStatus string
	ResultCode     int
	Outcome        string
	Payload        json.RawMessage
	ReceivedAt     time.Time
}

type ProviderEventRepository interface {
	Record(ctx context.Context, event *ProviderEvent) error
	FindByReference(ctx context.Context, reference string) ([]*ProviderEvent, error)
}
