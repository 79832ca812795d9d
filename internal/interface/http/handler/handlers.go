package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gigmile/mobile-money-service/internal/application/service"
	"github.com/gigmile/mobile-money-service/internal/interface/http/dto"
	"go.uber.org/zap"
)

type Handlers struct {
	Payment  *PaymentHandler
	Callback *CallbackHandler
	Events   *ProviderEventHandler
}

func NewHandlers(
	paymentService *service.PaymentService,
	callbackService *service.CallbackService,
	poller *service.StatusPoller,
	eventService *service.ProviderEventService,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		Payment:  NewPaymentHandler(paymentService, poller, logger),
		Callback: NewCallbackHandler(callbackService, logger),
		Events:   NewProviderEventHandler(eventService, logger),
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error: message,
	}
	if err != nil {
		response.Message = err.Error()
	}
	var verr *dto.ValidationError
	if errors.As(err, &verr) {
		response.Fields = verr.Fields
	}

	respondJSON(w, status, response)
}
