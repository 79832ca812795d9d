package service

import (
	"context"
	"errors"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/gigmile/mobile-money-service/internal/gateway/payhero"
	"go.uber.org/zap"
)

type CallbackResult string

const (
	CallbackApplied          CallbackResult = "applied"
	CallbackAlreadyResolved  CallbackResult = "already_resolved"
	CallbackUnknownReference CallbackResult = "unknown_reference"
	CallbackRejected         CallbackResult = "rejected"
)

type CallbackOutcome struct {
	Result    CallbackResult
	Reference string
	Status    domain.IntentStatus
}

type CallbackService struct {
	gateway    PaymentGateway
	settlement *SettlementService
	eventLog   domain.ProviderEventRepository // Optional - can be nil
	logger     *zap.Logger
}

func NewCallbackService(gateway PaymentGateway, settlement *SettlementService, eventLog domain.ProviderEventRepository, logger *zap.Logger) *CallbackService {
	return &CallbackService{
		gateway:    gateway,
		settlement: settlement,
		eventLog:   eventLog,
		logger:     logger,
	}
}

// HandleCallback resolves the intent a provider callback refers to. Only
// storage failures are returned as errors; every application-level mismatch
// is reported through the outcome.
func (s *CallbackService) HandleCallback(ctx context.Context, payload payhero.CallbackPayload) (*CallbackOutcome, error) {
	result := s.gateway.ProcessCallback(payload)

	outcome, err := s.resolve(ctx, result)
	if err != nil {
		return nil, err
	}

	recordProviderEvent(ctx, s.eventLog, s.logger, &domain.ProviderEvent{
		Reference:      result.Reference,
		Source:         domain.ResolvedViaCallback,
		ProviderStatus: result.Status,
		ResultCode:     result.ResultCode,
		Outcome:        string(outcome.Result),
	}, payload)

	return outcome, nil
}

func (s *CallbackService) resolve(ctx context.Context, result payhero.CallbackResult) (*CallbackOutcome, error) {
	logger := s.logger.With(
		zap.String("reference", result.Reference),
		zap.String("checkout_request_id", result.CheckoutRequestID),
		zap.Int("result_code", result.ResultCode),
	)

	if result.Reference == "" {
		logger.Warn("rejected callback without reference")
		return &CallbackOutcome{Result: CallbackRejected}, nil
	}

	res := domain.Resolution{
		Reference:  result.Reference,
		Via:        domain.ResolvedViaCallback,
		CheckoutID: result.CheckoutRequestID,
	}
	if result.Success {
		res.Status = domain.IntentStatusSucceeded
		res.Receipt = result.MpesaReceiptNumber
		res.Amount = payhero.RoundAmount(result.Amount)
	} else {
		res.Status = domain.IntentStatusFailed
		res.Reason = result.ResultDesc
	}

	resolved, err := s.settlement.Resolve(ctx, res)
	if err != nil {
		if errors.Is(err, domain.ErrIntentNotFound) {
			logger.Warn("callback for unknown reference")
			return &CallbackOutcome{Result: CallbackUnknownReference, Reference: result.Reference}, nil
		}
		logger.Error("failed to settle callback", zap.Error(err))
		return nil, err
	}

	outcome := &CallbackOutcome{
		Result:    CallbackApplied,
		Reference: result.Reference,
		Status:    resolved.Intent.Status,
	}
	if resolved.Outcome == ResolveAlreadyTerminal {
		outcome.Result = CallbackAlreadyResolved
	}

	logger.Info("callback processed",
		zap.String("outcome", string(outcome.Result)),
		zap.String("status", string(outcome.Status)),
	)

	return outcome, nil
}
