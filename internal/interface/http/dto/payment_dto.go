package dto

import (
	"encoding/json"
	"time"

	"github.com/gigmile/mobile-money-service/internal/domain"
)

type DepositRequest struct {
	WalletID     string  `json:"wallet_id" validate:"required,max=50"`
	Amount       float64 `json:"amount" validate:"gt=0"`
	PhoneNumber  string  `json:"phone_number" validate:"required,max=20"`
	CustomerName string  `json:"customer_name" validate:"omitempty,max=100"`
}

func (r *DepositRequest) Validate() error {
	return validateStruct(r)
}

type CardPurchaseRequest struct {
	WalletID     string  `json:"wallet_id" validate:"required,max=50"`
	AmountUSD    float64 `json:"amount_usd" validate:"gt=0"`
	PhoneNumber  string  `json:"phone_number" validate:"required,max=20"`
	CustomerName string  `json:"customer_name" validate:"omitempty,max=100"`
}

func (r *CardPurchaseRequest) Validate() error {
	return validateStruct(r)
}

type InitiatePaymentResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	Reference         string `json:"reference"`
	CheckoutRequestID string `json:"checkout_request_id,omitempty"`
	Status            string `json:"status"`
	Amount            int64  `json:"amount"`
}

type PaymentIntentResponse struct {
	Reference          string  `json:"reference"`
	WalletID           string  `json:"wallet_id"`
	Purpose            string  `json:"purpose"`
	Amount             int64   `json:"amount"`
	SourceAmountUSD    string  `json:"source_amount_usd,omitempty"`
	PhoneNumber        string  `json:"phone_number"`
	ProviderCheckoutID string  `json:"provider_checkout_id,omitempty"`
	ProviderReceipt    string  `json:"provider_receipt,omitempty"`
	Status             string  `json:"status"`
	ResolvedVia        string  `json:"resolved_via,omitempty"`
	FailureReason      string  `json:"failure_reason,omitempty"`
	CreatedAt          string  `json:"created_at"`
	ResolvedAt         *string `json:"resolved_at,omitempty"`
}

func NewPaymentIntentResponse(intent *domain.PaymentIntent) PaymentIntentResponse {
	resp := PaymentIntentResponse{
		Reference:          intent.Reference,
		WalletID:           intent.WalletID,
		Purpose:            string(intent.Purpose),
		Amount:             intent.Amount,
		PhoneNumber:        intent.PhoneNumber,
		ProviderCheckoutID: intent.ProviderCheckoutID,
		ProviderReceipt:    intent.ProviderReceipt,
		Status:             string(intent.Status),
		ResolvedVia:        string(intent.ResolvedVia),
		FailureReason:      intent.FailureReason,
		CreatedAt:          intent.CreatedAt.Format(time.RFC3339),
	}
	if intent.SourceAmountUSD != nil {
		resp.SourceAmountUSD = intent.SourceAmountUSD.StringFixed(2)
	}
	if intent.ResolvedAt != nil {
		resolvedAt := intent.ResolvedAt.Format(time.RFC3339)
		resp.ResolvedAt = &resolvedAt
	}
	return resp
}

type StatusCheckResponse struct {
	Outcome        string                `json:"outcome"`
	ProviderStatus string                `json:"provider_status,omitempty"`
	Payment        PaymentIntentResponse `json:"payment"`
}

type WalletResponse struct {
	WalletID       string  `json:"wallet_id"`
	OwnerName      string  `json:"owner_name,omitempty"`
	Balance        int64   `json:"balance"`
	TotalDeposited int64   `json:"total_deposited"`
	LastDepositAt  *string `json:"last_deposit_at,omitempty"`
	Status         string  `json:"status"`
}

func NewWalletResponse(wallet *domain.Wallet) WalletResponse {
	resp := WalletResponse{
		WalletID:       wallet.ID,
		OwnerName:      wallet.OwnerName,
		Balance:        wallet.Balance,
		TotalDeposited: wallet.TotalDeposited,
		Status:         string(wallet.Status),
	}
	if wallet.LastDepositAt != nil {
		at := wallet.LastDepositAt.Format(time.RFC3339)
		resp.LastDepositAt = &at
	}
	return resp
}

type PaginationResponse struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

type WalletPaymentsResponse struct {
	WalletID   string                  `json:"wallet_id"`
	Payments   []PaymentIntentResponse `json:"payments"`
	Pagination PaginationResponse      `json:"pagination"`
}

type QuoteResponse struct {
	AmountUSD float64 `json:"amount_usd"`
	AmountKES int64   `json:"amount_kes"`
	Rate      string  `json:"rate"`
}

// CallbackAck is the body the provider expects back from the callback URL.
type CallbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ProviderEventResponse struct {
	ID             string          `json:"id"`
	Source         string          `json:"source"`
	ProviderStatus string          `json:"provider_status,omitempty"`
	ResultCode     int             `json:"result_code"`
	Outcome        string          `json:"outcome"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	ReceivedAt     string          `json:"received_at"`
}

func NewProviderEventResponse(event *domain.ProviderEvent) ProviderEventResponse {
	return ProviderEventResponse{
		ID:             event.ID,
		Source:         string(event.Source),
		ProviderStatus: event.ProviderStatus,
		ResultCode:     event.ResultCode,
		Outcome:        event.Outcome,
		Payload:        event.Payload,
		ReceivedAt:     event.ReceivedAt.Format(time.RFC3339),
	}
}

type ProviderEventsResponse struct {
	Reference string                  `json:"reference"`
	Events    []ProviderEventResponse `json:"events"`
}
