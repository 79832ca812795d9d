package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gigmile/mobile-money-service/internal/application/service"
	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/gigmile/mobile-money-service/internal/interface/http/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
	poller         *service.StatusPoller
	logger         *zap.Logger
}

func NewPaymentHandler(paymentService *service.PaymentService, poller *service.StatusPoller, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		poller:         poller,
		logger:         logger,
	}
}

// InitiateDeposit starts a wallet top-up
func (h *PaymentHandler) InitiateDeposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	result, err := h.paymentService.InitiateDeposit(r.Context(), service.InitiateDepositRequest{
		WalletID:     req.WalletID,
		Amount:       req.Amount,
		PhoneNumber:  req.PhoneNumber,
		CustomerName: req.CustomerName,
	})
	if err != nil {
		h.respondServiceError(w, "failed to initiate deposit", err, zap.String("wallet_id", req.WalletID))
		return
	}

	h.respondInitiation(w, result)
}

// InitiateCardPurchase starts a virtual card purchase priced in USD
func (h *PaymentHandler) InitiateCardPurchase(w http.ResponseWriter, r *http.Request) {
	var req dto.CardPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	result, err := h.paymentService.InitiateCardPurchase(r.Context(), service.InitiateCardPurchaseRequest{
		WalletID:     req.WalletID,
		AmountUSD:    req.AmountUSD,
		PhoneNumber:  req.PhoneNumber,
		CustomerName: req.CustomerName,
	})
	if err != nil {
		h.respondServiceError(w, "failed to initiate card purchase", err, zap.String("wallet_id", req.WalletID))
		return
	}

	h.respondInitiation(w, result)
}

func (h *PaymentHandler) respondInitiation(w http.ResponseWriter, result *service.InitiatePaymentResponse) {
	status := http.StatusAccepted
	switch {
	case result.Success, result.Status == domain.IntentStatusPending:
	case result.Status == domain.IntentStatusError:
		status = http.StatusBadGateway
	default:
		status = http.StatusUnprocessableEntity
	}

	respondJSON(w, status, dto.InitiatePaymentResponse{
		Success:           result.Success,
		Message:           result.Message,
		Reference:         result.Reference,
		CheckoutRequestID: result.CheckoutRequestID,
		Status:            string(result.Status),
		Amount:            result.Amount,
	})
}

// GetPayment returns a payment intent by reference
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	intent, err := h.paymentService.GetPayment(r.Context(), reference)
	if err != nil {
		h.respondServiceError(w, "failed to get payment", err, zap.String("reference", reference))
		return
	}

	respondJSON(w, http.StatusOK, dto.NewPaymentIntentResponse(intent))
}

// CheckStatus asks the provider for the current state of a payment
func (h *PaymentHandler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	result, err := h.poller.CheckOne(r.Context(), reference)
	if err != nil {
		h.respondServiceError(w, "failed to check payment status", err, zap.String("reference", reference))
		return
	}

	respondJSON(w, http.StatusOK, dto.StatusCheckResponse{
		Outcome:        string(result.Outcome),
		ProviderStatus: result.ProviderStatus,
		Payment:        dto.NewPaymentIntentResponse(result.Intent),
	})
}

// GetWallet returns the wallet balance
func (h *PaymentHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "wallet_id")

	wallet, err := h.paymentService.GetWallet(r.Context(), walletID)
	if err != nil {
		h.respondServiceError(w, "failed to get wallet", err, zap.String("wallet_id", walletID))
		return
	}

	respondJSON(w, http.StatusOK, dto.NewWalletResponse(wallet))
}

// GetWalletPayments returns a page of the wallet's statement
func (h *PaymentHandler) GetWalletPayments(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "wallet_id")

	params := service.PaginationParams{Page: 1, PageSize: 10}
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		params.Page = p
	}
	if ps, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && ps > 0 {
		params.PageSize = ps
	}

	result, err := h.paymentService.GetWalletPayments(r.Context(), walletID, params)
	if err != nil {
		h.respondServiceError(w, "failed to get wallet payments", err,
			zap.String("wallet_id", walletID),
			zap.Int("page", params.Page),
			zap.Int("page_size", params.PageSize),
		)
		return
	}

	payments := make([]dto.PaymentIntentResponse, len(result.Payments))
	for i, intent := range result.Payments {
		payments[i] = dto.NewPaymentIntentResponse(intent)
	}

	respondJSON(w, http.StatusOK, dto.WalletPaymentsResponse{
		WalletID: walletID,
		Payments: payments,
		Pagination: dto.PaginationResponse{
			Page:       result.Page,
			PageSize:   result.PageSize,
			TotalCount: result.TotalCount,
			TotalPages: result.TotalPages,
		},
	})
}

// QuoteUSD converts a USD amount to KES at the configured rate
func (h *PaymentHandler) QuoteUSD(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil || amount < 0 {
		respondError(w, http.StatusBadRequest, "amount must be a non-negative number", err)
		return
	}

	kes, rate := h.paymentService.QuoteUSD(amount)
	respondJSON(w, http.StatusOK, dto.QuoteResponse{
		AmountUSD: amount,
		AmountKES: kes,
		Rate:      rate.String(),
	})
}

// HealthCheck handles health check endpoint
func (h *PaymentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (h *PaymentHandler) respondServiceError(w http.ResponseWriter, message string, err error, fields ...zap.Field) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, append(fields, zap.Error(err))...)
	}
	respondError(w, status, message, err)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrIntentNotFound),
		errors.Is(err, domain.ErrWalletNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidPhoneNumber),
		errors.Is(err, domain.ErrInvalidWalletID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrWalletInactive):
		return http.StatusConflict
	case errors.Is(err, domain.ErrReferenceLockTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
