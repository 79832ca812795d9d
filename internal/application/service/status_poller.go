package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gigmile/mobile-money-service/internal/config"
	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/gigmile/mobile-money-service/internal/gateway/payhero"
	"go.uber.org/zap"
)

type PollOutcome string

const (
	PollApplied         PollOutcome = "applied"
	PollAlreadyResolved PollOutcome = "already_resolved"
	PollStillPending    PollOutcome = "pending"
	PollCheckFailed     PollOutcome = "check_failed"
)

const (
	defaultPollInterval    = 30 * time.Second
	statusUnknownReference = "HTTP_404"
)

type PollResult struct {
	Reference      string
	Outcome        PollOutcome
	ProviderStatus string
	Intent         *domain.PaymentIntent
}

type PollSummary struct {
	Checked         int
	Resolved        int
	AlreadyResolved int
	StillPending    int
	CheckFailed     int
	Errors          int
}

// StatusPoller resolves intents whose callback is late or never arrives.
type StatusPoller struct {
	intentRepo domain.PaymentIntentRepository
	gateway    PaymentGateway
	settlement *SettlementService
	eventLog   domain.ProviderEventRepository // Optional - can be nil
	cfg        config.PollerConfig
	logger     *zap.Logger
	now        func() time.Time
}

func NewStatusPoller(
	intentRepo domain.PaymentIntentRepository,
	gateway PaymentGateway,
	settlement *SettlementService,
	eventLog domain.ProviderEventRepository,
	cfg config.PollerConfig,
	logger *zap.Logger,
) *StatusPoller {
	return &StatusPoller{
		intentRepo: intentRepo,
		gateway:    gateway,
		settlement: settlement,
		eventLog:   eventLog,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Start runs RunOnce on every tick until ctx is cancelled.
func (p *StatusPoller) Start(ctx context.Context) {
	interval := p.cfg.Interval
	if interval <= 0 {
		p.logger.Warn("invalid poll interval, using default",
			zap.Duration("configured", p.cfg.Interval),
			zap.Duration("default", defaultPollInterval),
		)
		interval = defaultPollInterval
	}
	p.logger.Info("status poller started",
		zap.Duration("interval", interval),
		zap.Duration("grace_period", p.cfg.GracePeriod),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("status poller stopped")
			return
		case <-ticker.C:
			summary := p.RunOnce(ctx)
			if summary.Checked > 0 {
				p.logger.Info("status poll completed",
					zap.Int("checked", summary.Checked),
					zap.Int("resolved", summary.Resolved),
					zap.Int("still_pending", summary.StillPending),
					zap.Int("check_failed", summary.CheckFailed),
					zap.Int("errors", summary.Errors),
				)
			}
		}
	}
}

// RunOnce checks every PENDING intent older than the grace period, up to
// the batch size.
func (p *StatusPoller) RunOnce(ctx context.Context) PollSummary {
	var summary PollSummary

	cutoff := p.now().Add(-p.cfg.GracePeriod)
	intents, err := p.intentRepo.FindPendingCreatedBefore(ctx, cutoff, p.cfg.BatchSize)
	if err != nil {
		p.logger.Error("failed to list pending intents", zap.Error(err))
		summary.Errors++
		return summary
	}

	for _, intent := range intents {
		if ctx.Err() != nil {
			break
		}

		summary.Checked++
		result, err := p.poll(ctx, intent)
		if err != nil {
			p.logger.Error("failed to poll payment intent",
				zap.Error(err),
				zap.String("reference", intent.Reference),
			)
			summary.Errors++
			continue
		}

		switch result.Outcome {
		case PollApplied:
			summary.Resolved++
		case PollAlreadyResolved:
			summary.AlreadyResolved++
		case PollStillPending:
			summary.StillPending++
		case PollCheckFailed:
			summary.CheckFailed++
		}
	}

	return summary
}

// CheckOne polls a single reference on demand. The grace period does not
// apply; terminal intents are returned without asking the provider.
func (p *StatusPoller) CheckOne(ctx context.Context, reference string) (*PollResult, error) {
	intent, err := p.intentRepo.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	if intent.IsTerminal() {
		return &PollResult{
			Reference: reference,
			Outcome:   PollAlreadyResolved,
			Intent:    intent,
		}, nil
	}

	return p.poll(ctx, intent)
}

func (p *StatusPoller) poll(ctx context.Context, intent *domain.PaymentIntent) (*PollResult, error) {
	status := p.gateway.CheckStatus(ctx, intent.Reference)
	if !status.Success {
		p.logger.Warn("status check failed",
			zap.String("reference", intent.Reference),
			zap.String("status", status.Status),
			zap.String("message", status.Message),
		)
		// A provider that never recorded the request answers 404 forever.
		if status.Status != statusUnknownReference || !p.expired(intent) {
			return &PollResult{
				Reference:      intent.Reference,
				Outcome:        PollCheckFailed,
				ProviderStatus: status.Status,
				Intent:         intent,
			}, nil
		}
	}

	res, terminal := resolutionFromStatus(intent.Reference, status)
	if !terminal {
		if !p.expired(intent) {
			p.recordStatus(ctx, intent.Reference, status, PollStillPending)
			return &PollResult{
				Reference:      intent.Reference,
				Outcome:        PollStillPending,
				ProviderStatus: status.Status,
				Intent:         intent,
			}, nil
		}

		p.logger.Warn("payment intent expired",
			zap.String("reference", intent.Reference),
			zap.Time("created_at", intent.CreatedAt),
		)
		res = domain.Resolution{
			Reference: intent.Reference,
			Status:    domain.IntentStatusFailed,
			Via:       domain.ResolvedViaPoll,
			Reason:    domain.FailureReasonExpired,
		}
	}

	resolved, err := p.settlement.Resolve(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("failed to settle polled status: %w", err)
	}

	outcome := PollApplied
	if resolved.Outcome == ResolveAlreadyTerminal {
		outcome = PollAlreadyResolved
	}
	p.recordStatus(ctx, intent.Reference, status, outcome)

	return &PollResult{
		Reference:      intent.Reference,
		Outcome:        outcome,
		ProviderStatus: status.Status,
		Intent:         resolved.Intent,
	}, nil
}

func (p *StatusPoller) expired(intent *domain.PaymentIntent) bool {
	return p.cfg.MaxAge > 0 && intent.CreatedAt.Before(p.now().Add(-p.cfg.MaxAge))
}

func (p *StatusPoller) recordStatus(ctx context.Context, reference string, status payhero.StatusResult, outcome PollOutcome) {
	recordProviderEvent(ctx, p.eventLog, p.logger, &domain.ProviderEvent{
		Reference:      reference,
		Source:         domain.ResolvedViaPoll,
		ProviderStatus: status.Status,
		Outcome:        string(outcome),
		ReceivedAt:     p.now(),
	}, status.Data)
}

// resolutionFromStatus maps the provider's transaction status onto a
// resolution. terminal is false while the provider still reports the
// payment as in flight.
func resolutionFromStatus(reference string, status payhero.StatusResult) (domain.Resolution, bool) {
	res := domain.Resolution{
		Reference: reference,
		Via:       domain.ResolvedViaPoll,
	}

	switch strings.ToUpper(status.Status) {
	case payhero.ProviderStatusSuccess:
		res.Status = domain.IntentStatusSucceeded
		res.Receipt = stringField(status.Data, "provider_reference")
		if amount, ok := status.Data["amount"].(float64); ok {
			res.Amount = payhero.RoundAmount(amount)
		}
	case payhero.ProviderStatusFailed, payhero.ProviderStatusCancelled:
		res.Status = domain.IntentStatusFailed
		res.Reason = stringField(status.Data, "result_desc")
		if res.Reason == "" {
			res.Reason = strings.ToLower(status.Status)
		}
	default:
		return res, false
	}

	return res, true
}

func stringField(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}
