package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/gigmile/mobile-money-service/internal/fx"
	"github.com/gigmile/mobile-money-service/internal/gateway/payhero"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxReferenceAttempts = 3
	recordTimeout        = 10 * time.Second
)

type PaymentService struct {
	walletRepo  domain.WalletRepository
	intentRepo  domain.PaymentIntentRepository
	gateway     PaymentGateway
	settlement  *SettlementService
	converter   *fx.Converter
	callbackURL string
	logger      *zap.Logger
	now         func() time.Time
}

func NewPaymentService(
	walletRepo domain.WalletRepository,
	intentRepo domain.PaymentIntentRepository,
	gateway PaymentGateway,
	settlement *SettlementService,
	converter *fx.Converter,
	callbackURL string,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		walletRepo:  walletRepo,
		intentRepo:  intentRepo,
		gateway:     gateway,
		settlement:  settlement,
		converter:   converter,
		callbackURL: callbackURL,
		logger:      logger,
		now:         time.Now,
	}
}

type InitiateDepositRequest struct {
	WalletID     string
	Amount       float64 // KES
	PhoneNumber  string
	CustomerName string
}

type InitiateCardPurchaseRequest struct {
	WalletID     string
	AmountUSD    float64
	PhoneNumber  string
	CustomerName string
}

type InitiatePaymentResponse struct {
	Success           bool
	Message           string
	Reference         string
	CheckoutRequestID string
	Status            domain.IntentStatus
	ProviderStatus    string
	Amount            int64
}

// InitiateDeposit starts an STK push that credits the wallet on success.
func (s *PaymentService) InitiateDeposit(ctx context.Context, req InitiateDepositRequest) (*InitiatePaymentResponse, error) {
	return s.initiate(ctx, initiation{
		walletID:     req.WalletID,
		purpose:      domain.PurposeDeposit,
		amount:       payhero.RoundAmount(req.Amount),
		phone:        req.PhoneNumber,
		customerName: req.CustomerName,
	})
}

// InitiateCardPurchase prices the card in KES and starts an STK push that
// activates a virtual card on success.
func (s *PaymentService) InitiateCardPurchase(ctx context.Context, req InitiateCardPurchaseRequest) (*InitiatePaymentResponse, error) {
	if req.AmountUSD <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	usd := decimal.NewFromFloat(req.AmountUSD)

	return s.initiate(ctx, initiation{
		walletID:     req.WalletID,
		purpose:      domain.PurposeCardPurchase,
		amount:       s.converter.ConvertUSDtoKES(req.AmountUSD),
		sourceUSD:    &usd,
		phone:        req.PhoneNumber,
		customerName: req.CustomerName,
	})
}

type initiation struct {
	walletID     string
	purpose      domain.PaymentPurpose
	amount       int64
	sourceUSD    *decimal.Decimal
	phone        string
	customerName string
}

func (s *PaymentService) initiate(ctx context.Context, in initiation) (*InitiatePaymentResponse, error) {
	if in.amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	phone := payhero.NormalizePhone(in.phone)
	if phone == "" {
		return nil, domain.ErrInvalidPhoneNumber
	}

	wallet, err := s.walletRepo.FindByID(ctx, in.walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if err := wallet.CanInitiate(); err != nil {
		return nil, err
	}

	intent, err := s.createIntent(ctx, in, phone)
	if err != nil {
		return nil, err
	}

	result := s.gateway.Initiate(ctx, payhero.InitiateRequest{
		Amount:       float64(intent.Amount),
		PhoneNumber:  intent.PhoneNumber,
		Reference:    intent.Reference,
		CustomerName: intent.CustomerName,
		CallbackURL:  s.callbackURL,
	})

	// The request may have reached the provider; record what follows even
	// if the caller has gone away.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if !result.Success {
		if result.Indeterminate() {
			return s.awaitConfirmation(intent, result), nil
		}
		return s.failInitiation(wctx, intent, result)
	}

	if result.CheckoutRequestID != "" {
		if err := s.intentRepo.AttachCheckout(wctx, intent.Reference, result.CheckoutRequestID); err != nil {
			// The push is already on the phone; the poller finds the intent by reference.
			s.logger.Error("failed to record checkout id",
				zap.Error(err),
				zap.String("reference", intent.Reference),
			)
		}
	}

	s.logger.Info("payment initiated",
		zap.String("reference", intent.Reference),
		zap.String("wallet_id", intent.WalletID),
		zap.String("purpose", string(intent.Purpose)),
		zap.Int64("amount", intent.Amount),
		zap.String("checkout_request_id", result.CheckoutRequestID),
	)

	return &InitiatePaymentResponse{
		Success:           true,
		Message:           "payment request sent to phone",
		Reference:         intent.Reference,
		CheckoutRequestID: result.CheckoutRequestID,
		Status:            domain.IntentStatusPending,
		ProviderStatus:    result.Status,
		Amount:            intent.Amount,
	}, nil
}

func (s *PaymentService) createIntent(ctx context.Context, in initiation, phone string) (*domain.PaymentIntent, error) {
	for attempt := 1; ; attempt++ {
		reference, err := domain.NewReference(s.now())
		if err != nil {
			return nil, err
		}

		intent, err := domain.NewPaymentIntent(uuid.New().String(), reference, in.walletID, in.purpose, in.amount, phone, s.now())
		if err != nil {
			return nil, err
		}
		intent.CustomerName = in.customerName
		intent.SourceAmountUSD = in.sourceUSD

		err = s.intentRepo.Create(ctx, intent)
		if err == nil {
			return intent, nil
		}
		if !errors.Is(err, domain.ErrDuplicateReference) || attempt == maxReferenceAttempts {
			s.logger.Error("failed to create payment intent",
				zap.Error(err),
				zap.String("wallet_id", in.walletID),
			)
			return nil, fmt.Errorf("failed to create payment intent: %w", err)
		}

		s.logger.Warn("reference collision, regenerating", zap.String("reference", reference))
	}
}

// awaitConfirmation leaves the intent PENDING after an initiation whose
// outcome is unknown. A callback or the status poller settles it.
func (s *PaymentService) awaitConfirmation(intent *domain.PaymentIntent, result payhero.InitiateResult) *InitiatePaymentResponse {
	s.logger.Warn("payment initiation outcome unknown, awaiting confirmation",
		zap.String("reference", intent.Reference),
		zap.String("provider_status", result.Status),
	)

	return &InitiatePaymentResponse{
		Success:        false,
		Message:        "payment request not confirmed by provider; awaiting confirmation",
		Reference:      intent.Reference,
		Status:         domain.IntentStatusPending,
		ProviderStatus: result.Status,
		Amount:         intent.Amount,
	}
}

// failInitiation terminalises an intent the provider refused or that was
// never sent.
func (s *PaymentService) failInitiation(ctx context.Context, intent *domain.PaymentIntent, result payhero.InitiateResult) (*InitiatePaymentResponse, error) {
	status := domain.IntentStatusFailed
	message := result.Message
	if result.Status == payhero.StatusError || strings.HasPrefix(result.Status, "HTTP_") {
		status = domain.IntentStatusError
		message = "payment could not be started"
	}
	if message == "" {
		message = "payment was rejected by the provider"
	}

	reason := result.Message
	if reason == "" {
		reason = result.Status
	}

	s.logger.Warn("payment initiation failed",
		zap.String("reference", intent.Reference),
		zap.String("provider_status", result.Status),
		zap.String("reason", reason),
	)

	if _, err := s.settlement.Resolve(ctx, domain.Resolution{
		Reference: intent.Reference,
		Status:    status,
		Via:       domain.ResolvedViaUnresolved,
		Reason:    reason,
	}); err != nil {
		return nil, fmt.Errorf("failed to record initiation failure: %w", err)
	}

	return &InitiatePaymentResponse{
		Success:        false,
		Message:        message,
		Reference:      intent.Reference,
		Status:         status,
		ProviderStatus: result.Status,
		Amount:         intent.Amount,
	}, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, reference string) (*domain.PaymentIntent, error) {
	return s.intentRepo.FindByReference(ctx, reference)
}

func (s *PaymentService) GetWallet(ctx context.Context, walletID string) (*domain.Wallet, error) {
	return s.walletRepo.FindByID(ctx, walletID)
}

type PaginationParams struct {
	Page     int
	PageSize int
}

type PaginatedPayments struct {
	Payments   []*domain.PaymentIntent
	Page       int
	PageSize   int
	TotalCount int64
	TotalPages int
}

// GetWalletPayments returns the wallet's statement, newest first.
func (s *PaymentService) GetWalletPayments(ctx context.Context, walletID string, params PaginationParams) (*PaginatedPayments, error) {
	if _, err := s.walletRepo.FindByID(ctx, walletID); err != nil {
		s.logger.Error("failed to get wallet",
			zap.Error(err),
			zap.String("wallet_id", walletID),
		)
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 10
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}

	totalCount, err := s.intentRepo.CountByWalletID(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	payments, err := s.intentRepo.FindByWalletIDWithPagination(ctx, walletID, params.PageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}

	totalPages := int(totalCount) / params.PageSize
	if int(totalCount)%params.PageSize != 0 {
		totalPages++
	}

	return &PaginatedPayments{
		Payments:   payments,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// QuoteUSD prices a USD amount in KES at the configured rate.
func (s *PaymentService) QuoteUSD(usd float64) (int64, decimal.Decimal) {
	return s.converter.ConvertUSDtoKES(usd), s.converter.Rate()
}
