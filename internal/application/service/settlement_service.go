package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"go.uber.org/zap"
)

type ResolveOutcome string

const (
	ResolveApplied         ResolveOutcome = "applied"
	ResolveAlreadyTerminal ResolveOutcome = "already_resolved"
)

type ResolveResult struct {
	Outcome ResolveOutcome
	Intent  *domain.PaymentIntent
}

// SettlementService is the single path through which an intent leaves
// PENDING. Callback, poller and initiation failures all go through Resolve.
type SettlementService struct {
	intentRepo     domain.PaymentIntentRepository
	locker         domain.ReferenceLocker
	eventPublisher domain.EventPublisher // Optional - can be nil
	logger         *zap.Logger
	now            func() time.Time
}

func NewSettlementService(
	intentRepo domain.PaymentIntentRepository,
	locker domain.ReferenceLocker,
	eventPublisher domain.EventPublisher,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		intentRepo:     intentRepo,
		locker:         locker,
		eventPublisher: eventPublisher,
		logger:         logger,
		now:            time.Now,
	}
}

// Resolve moves the intent to res.Status at most once. A second resolution
// for the same reference returns ResolveAlreadyTerminal and the stored intent.
func (s *SettlementService) Resolve(ctx context.Context, res domain.Resolution) (*ResolveResult, error) {
	if res.ResolvedAt.IsZero() {
		res.ResolvedAt = s.now()
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, res.Reference)
	if err != nil {
		s.logger.Error("failed to lock reference",
			zap.Error(err),
			zap.String("reference", res.Reference),
		)
		return nil, fmt.Errorf("failed to lock reference: %w", err)
	}
	defer release()

	intent, err := s.intentRepo.FindByReference(ctx, res.Reference)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment intent: %w", err)
	}

	if intent.IsTerminal() {
		s.logger.Info("payment intent already resolved",
			zap.String("reference", res.Reference),
			zap.String("status", string(intent.Status)),
			zap.String("resolved_via", string(intent.ResolvedVia)),
			zap.String("attempted_via", string(res.Via)),
		)
		return &ResolveResult{Outcome: ResolveAlreadyTerminal, Intent: intent}, nil
	}

	if res.Status == domain.IntentStatusSucceeded && res.Amount != 0 && res.Amount != intent.Amount {
		s.logger.Error("provider amount does not match intent",
			zap.String("reference", res.Reference),
			zap.Int64("expected", intent.Amount),
			zap.Int64("reported", res.Amount),
			zap.String("via", string(res.Via)),
		)
		res.Status = domain.IntentStatusFailed
		res.Reason = domain.FailureReasonAmountMismatch
	}

	resolved, applied, err := s.intentRepo.Resolve(ctx, res)
	if errors.Is(err, domain.ErrOptimisticLock) {
		s.logger.Warn("optimistic lock conflict, retrying once",
			zap.String("reference", res.Reference),
		)
		resolved, applied, err = s.intentRepo.Resolve(ctx, res)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve payment intent: %w", err)
	}

	if !applied {
		s.logger.Info("payment intent resolved concurrently",
			zap.String("reference", res.Reference),
			zap.String("status", string(resolved.Status)),
		)
		return &ResolveResult{Outcome: ResolveAlreadyTerminal, Intent: resolved}, nil
	}

	s.logger.Info("payment intent resolved",
		zap.String("reference", resolved.Reference),
		zap.String("wallet_id", resolved.WalletID),
		zap.String("status", string(resolved.Status)),
		zap.String("resolved_via", string(resolved.ResolvedVia)),
		zap.Int64("amount", resolved.Amount),
	)

	if s.eventPublisher != nil {
		s.publishSettledEvent(resolved)
	}

	return &ResolveResult{Outcome: ResolveApplied, Intent: resolved}, nil
}

func (s *SettlementService) publishSettledEvent(intent *domain.PaymentIntent) {
	// Detached from the request so a client disconnect does not drop it
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := domain.NewPaymentSettledEvent(intent)
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish payment settled event",
			zap.Error(err),
			zap.String("reference", intent.Reference),
			zap.String("event_id", event.GetEventID()),
		)
	}
}
