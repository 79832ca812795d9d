package service

import (
	"context"

	"github.com/gigmile/mobile-money-service/internal/gateway/payhero"
)

// PaymentGateway is the mobile-money provider as seen by the services.
type PaymentGateway interface {
	Initiate(ctx context.Context, req payhero.InitiateRequest) payhero.InitiateResult
	CheckStatus(ctx context.Context, reference string) payhero.StatusResult
	ProcessCallback(payload payhero.CallbackPayload) payhero.CallbackResult
}
