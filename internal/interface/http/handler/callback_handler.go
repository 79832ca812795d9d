package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gigmile/mobile-money-service/internal/application/service"
	"github.com/gigmile/mobile-money-service/internal/gateway/payhero"
	"github.com/gigmile/mobile-money-service/internal/interface/http/dto"
	"go.uber.org/zap"
)

var callbackAccepted = dto.CallbackAck{ResultCode: 0, ResultDesc: "Accepted"}

type CallbackHandler struct {
	callbackService *service.CallbackService
	logger          *zap.Logger
}

func NewCallbackHandler(callbackService *service.CallbackService, logger *zap.Logger) *CallbackHandler {
	return &CallbackHandler{
		callbackService: callbackService,
		logger:          logger,
	}
}

// HandlePayHero receives payment outcomes from PayHero. Application-level
// mismatches are acknowledged so the provider stops redelivering; only a
// storage failure asks for a retry.
func (h *CallbackHandler) HandlePayHero(w http.ResponseWriter, r *http.Request) {
	var payload payhero.CallbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Warn("rejected malformed callback", zap.Error(err))
		respondJSON(w, http.StatusOK, callbackAccepted)
		return
	}

	if _, err := h.callbackService.HandleCallback(r.Context(), payload); err != nil {
		h.logger.Error("failed to handle callback",
			zap.Error(err),
			zap.String("reference", payload.Response.ExternalReference),
		)
		respondError(w, http.StatusInternalServerError, "failed to process callback", nil)
		return
	}

	respondJSON(w, http.StatusOK, callbackAccepted)
}
