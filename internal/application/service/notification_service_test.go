package service

import (
	"context"
	"testing"
	"time"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func settledIntent(purpose domain.PaymentPurpose, status domain.IntentStatus) *domain.PaymentIntent {
	now := time.Now()
	return &domain.PaymentIntent{
		Reference:       "GPY12345678ABC",
		WalletID:        "WAL001",
		Purpose:         purpose,
		Amount:          60,
		PhoneNumber:     "0712345678",
		Status:          status,
		ResolvedVia:     domain.ResolvedViaCallback,
		ProviderReceipt: "SAE3YULR0Y",
		ResolvedAt:      &now,
	}
}

func TestNotificationService_SettlementMessage(t *testing.T) {
	ctx := context.Background()
	walletRepo := new(MockWalletRepository)
	walletRepo.On("FindByID", ctx, "WAL001").Return(&domain.Wallet{ID: "WAL001", Balance: 560}, nil)
	svc := NewNotificationService(walletRepo, zap.NewNop())

	tests := []struct {
		name   string
		intent *domain.PaymentIntent
		want   string
	}{
		{"deposit", settledIntent(domain.PurposeDeposit, domain.IntentStatusSucceeded), "SAE3YULR0Y confirmed. KES 60 deposited. New wallet balance: KES 560."},
		{"card", settledIntent(domain.PurposeCardPurchase, domain.IntentStatusSucceeded), "SAE3YULR0Y confirmed. KES 60 received, your virtual card is now active."},
		{"failed", settledIntent(domain.PurposeDeposit, domain.IntentStatusFailed), "Payment GPY12345678ABC of KES 60 was not completed."},
		{"error", settledIntent(domain.PurposeDeposit, domain.IntentStatusError), "Payment GPY12345678ABC of KES 60 could not be started. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := domain.NewPaymentSettledEvent(tt.intent)

			msg, err := svc.settlementMessage(ctx, event.Payload)

			require.NoError(t, err)
			assert.Equal(t, tt.want, msg)
			assert.NoError(t, svc.HandlePaymentSettled(ctx, event))
		})
	}
}

func TestNotificationService_RejectsOtherEvents(t *testing.T) {
	svc := NewNotificationService(new(MockWalletRepository), zap.NewNop())

	err := svc.HandlePaymentSettled(context.Background(), domain.PaymentSettledEvent{})

	assert.Error(t, err)
}
