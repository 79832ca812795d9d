package handler

import (
	"net/http"

	"github.com/gigmile/mobile-money-service/internal/application/service"
	"github.com/gigmile/mobile-money-service/internal/interface/http/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProviderEventHandler struct {
	eventService *service.ProviderEventService
	logger       *zap.Logger
}

func NewProviderEventHandler(eventService *service.ProviderEventService, logger *zap.Logger) *ProviderEventHandler {
	return &ProviderEventHandler{
		eventService: eventService,
		logger:       logger,
	}
}

// List returns every callback and status response seen for a payment.
func (h *ProviderEventHandler) List(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	events, err := h.eventService.ListForReference(r.Context(), reference)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("failed to list provider events", zap.Error(err), zap.String("reference", reference))
		}
		respondError(w, status, "failed to list provider events", err)
		return
	}

	resp := dto.ProviderEventsResponse{
		Reference: reference,
		Events:    make([]dto.ProviderEventResponse, len(events)),
	}
	for i, e := range events {
		resp.Events[i] = dto.NewProviderEventResponse(e)
	}

	respondJSON(w, http.StatusOK, resp)
}
