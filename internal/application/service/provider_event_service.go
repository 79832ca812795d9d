package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProviderEventService exposes the provider message log of a payment.
type ProviderEventService struct {
	eventLog   domain.ProviderEventRepository
	intentRepo domain.PaymentIntentRepository
	logger     *zap.Logger
}

func NewProviderEventService(eventLog domain.ProviderEventRepository, intentRepo domain.PaymentIntentRepository, logger *zap.Logger) *ProviderEventService {
	return &ProviderEventService{
		eventLog:   eventLog,
		intentRepo: intentRepo,
		logger:     logger,
	}
}

// ListForReference returns the provider messages for a payment, oldest first.
func (s *ProviderEventService) ListForReference(ctx context.Context, reference string) ([]*domain.ProviderEvent, error) {
	if _, err := s.intentRepo.FindByReference(ctx, reference); err != nil {
		return nil, err
	}

	events, err := s.eventLog.FindByReference(ctx, reference)
	if err != nil {
		s.logger.Error("failed to list provider events",
			zap.Error(err),
			zap.String("reference", reference),
		)
		return nil, fmt.Errorf("failed to list provider events: %w", err)
	}

	return events, nil
}

// recordProviderEvent appends to the log. A failed write never affects
// settlement; it is only logged.
func recordProviderEvent(ctx context.Context, eventLog domain.ProviderEventRepository, logger *zap.Logger, event *domain.ProviderEvent, payload any) {
	if eventLog == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("failed to encode provider payload",
			zap.Error(err),
			zap.String("reference", event.Reference),
		)
		raw = []byte("null")
	}

	event.ID = uuid.New().String()
	event.Payload = raw
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now()
	}

	if err := eventLog.Record(ctx, event); err != nil {
		logger.Warn("failed to record provider event",
			zap.Error(err),
			zap.String("reference", event.Reference),
			zap.String("source", string(event.Source)),
		)
	}
}
