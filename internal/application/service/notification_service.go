package service

import (
	"context"
	"fmt"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"go.uber.org/zap"
)

// NotificationService handles side effects like SMS, emails, etc.
type NotificationService struct {
	walletRepo domain.WalletRepository
	logger     *zap.Logger
}

func NewNotificationService(walletRepo domain.WalletRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		walletRepo: walletRepo,
		logger:     logger,
	}
}

// HandlePaymentSettled tells the payer how their payment ended.
func (s *NotificationService) HandlePaymentSettled(ctx context.Context, event domain.DomainEvent) error {
	settled, ok := event.(*domain.PaymentSettledEvent)
	if !ok {
		return fmt.Errorf("invalid event type")
	}

	payload := settled.Payload
	message, err := s.settlementMessage(ctx, payload)
	if err != nil {
		return err
	}

	// SMS gateway not integrated yet; the message is logged instead.
	s.logger.Info("SMS notification sent",
		zap.String("event_id", event.GetEventID()),
		zap.String("reference", payload.Reference),
		zap.String("phone_number", payload.PhoneNumber),
		zap.String("message", message),
	)

	return nil
}

func (s *NotificationService) settlementMessage(ctx context.Context, p domain.PaymentSettledPayload) (string, error) {
	switch domain.IntentStatus(p.Status) {
	case domain.IntentStatusSucceeded:
		if domain.PaymentPurpose(p.Purpose) == domain.PurposeCardPurchase {
			return fmt.Sprintf("%s confirmed. KES %d received, your virtual card is now active.", p.Receipt, p.Amount), nil
		}

		wallet, err := s.walletRepo.FindByID(ctx, p.WalletID)
		if err != nil {
			return "", fmt.Errorf("failed to get wallet: %w", err)
		}
		return fmt.Sprintf("%s confirmed. KES %d deposited. New wallet balance: KES %d.", p.Receipt, p.Amount, wallet.Balance), nil

	case domain.IntentStatusFailed:
		return fmt.Sprintf("Payment %s of KES %d was not completed.", p.Reference, p.Amount), nil

	default:
		return fmt.Sprintf("Payment %s of KES %d could not be started. Please try again.", p.Reference, p.Amount), nil
	}
}
