package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/gigmile/mobile-money-service/internal/fx"
	"github.com/gigmile/mobile-money-service/internal/gateway/payhero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testCallbackURL = "https://pay.example.co.ke/api/v1/callbacks/payhero"

func activeWallet(id string) *domain.Wallet {
	return &domain.Wallet{ID: id, Status: domain.WalletStatusActive, Version: 1}
}

func newTestPaymentService(walletRepo *MockWalletRepository, repo *memoryIntentRepository, gateway *MockPaymentGateway) *PaymentService {
	return NewPaymentService(walletRepo, repo, gateway, newTestSettlement(repo, nil), fx.NewConverter(129), testCallbackURL, zap.NewNop())
}

func TestInitiateDeposit_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	walletRepo := new(MockWalletRepository)
	walletRepo.On("FindByID", ctx, "WAL001").Return(activeWallet("WAL001"), nil)

	repo := newMemoryIntentRepository()
	gateway := new(MockPaymentGateway)
	gateway.On("Initiate", ctx, mock.MatchedBy(func(req payhero.InitiateRequest) bool {
		return req.Amount == 60 &&
			req.PhoneNumber == "0712345678" &&
			req.CallbackURL == testCallbackURL &&
			req.CustomerName == "Jane Wanjiku"
	})).Return(payhero.InitiateResult{
		Success:           true,
		Status:            "QUEUED",
		Reference:         "E8UWT7CLUW",
		CheckoutRequestID: "ws_CO_15052024145500",
	})

	svc := newTestPaymentService(walletRepo, repo, gateway)

	// Act
	resp, err := svc.InitiateDeposit(ctx, InitiateDepositRequest{
		WalletID:     "WAL001",
		Amount:       59.6,
		PhoneNumber:  "+254712345678",
		CustomerName: "Jane Wanjiku",
	})

	// Assert
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, domain.IntentStatusPending, resp.Status)
	assert.Equal(t, int64(60), resp.Amount)
	assert.Regexp(t, `^GPY\d{8}[A-Z]{3}$`, resp.Reference)

	intent, err := repo.FindByReference(ctx, resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentStatusPending, intent.Status)
	assert.Equal(t, domain.PurposeDeposit, intent.Purpose)
	assert.Equal(t, "ws_CO_15052024145500", intent.ProviderCheckoutID)
	assert.Equal(t, "0712345678", intent.PhoneNumber)

	walletRepo.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestInitiateDeposit_PersistsBeforeGatewayCall(t *testing.T) {
	ctx := context.Background()
	walletRepo := new(MockWalletRepository)
	walletRepo.On("FindByID", ctx, "WAL001").Return(activeWallet("WAL001"), nil)

	repo := newMemoryIntentRepository()
	gateway := new(MockPaymentGateway)
	gateway.On("Initiate", ctx, mock.Anything).Run(func(args mock.Arguments) {
		req := args.Get(1).(payhero.InitiateRequest)
		intent, err := repo.FindByReference(ctx, req.Reference)
		assert.NoError(t, err, "intent must exist before the provider is called")
		if intent != nil {
			assert.Equal(t, domain.IntentStatusPending, intent.Status)
		}
	}).Return(payhero.InitiateResult{Success: true, Status: "QUEUED", CheckoutRequestID: "ws_CO_1"})

	svc := newTestPaymentService(walletRepo, repo, gateway)

	_, err := svc.InitiateDeposit(ctx, InitiateDepositRequest{WalletID: "WAL001", Amount: 100, PhoneNumber: "0712345678"})

	require.NoError(t, err)
	gateway.AssertExpectations(t)
}

func TestInitiateDeposit_GatewayFailure(t *testing.T) {
	tests := []struct {
		name        string
		result      payhero.InitiateResult
		wantStatus  domain.IntentStatus
		wantMessage string
		wantReason  string
	}{
		{
			name:        "request never sent",
			result:      payhero.InitiateResult{Success: false, Status: payhero.StatusError},
			wantStatus:  domain.IntentStatusError,
			wantMessage: "payment could not be started",
			wantReason:  "ERROR",
		},
		{
			name:        "request refused",
			result:      payhero.InitiateResult{Success: false, Submitted: true, Status: "HTTP_400"},
			wantStatus:  domain.IntentStatusError,
			wantMessage: "payment could not be started",
			wantReason:  "HTTP_400",
		},
		{
			name:        "business rejection",
			result:      payhero.InitiateResult{Success: false, Submitted: true, Status: "FAILED", Message: "channel inactive"},
			wantStatus:  domain.IntentStatusFailed,
			wantMessage: "channel inactive",
			wantReason:  "channel inactive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			walletRepo := new(MockWalletRepository)
			walletRepo.On("FindByID", ctx, "WAL001").Return(activeWallet("WAL001"), nil)
			repo := newMemoryIntentRepository()
			gateway := new(MockPaymentGateway)
			gateway.On("Initiate", ctx, mock.Anything).Return(tt.result)

			svc := newTestPaymentService(walletRepo, repo, gateway)

			resp, err := svc.InitiateDeposit(ctx, InitiateDepositRequest{WalletID: "WAL001", Amount: 60, PhoneNumber: "0712345678"})

			require.NoError(t, err)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantMessage, resp.Message)

			intent, err := repo.FindByReference(ctx, resp.Reference)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, intent.Status)
			assert.Equal(t, domain.ResolvedViaUnresolved, intent.ResolvedVia)
			assert.Equal(t, tt.wantReason, intent.FailureReason)
			assert.Empty(t, intent.ProviderCheckoutID)
			assert.Equal(t, 0, repo.sideEffectCount(resp.Reference))
		})
	}
}

func TestInitiateDeposit_UnknownOutcomeStaysPending(t *testing.T) {
	tests := []struct {
		name   string
		result payhero.InitiateResult
	}{
		{name: "garbled 2xx body", result: payhero.InitiateResult{Success: false, Submitted: true, Status: payhero.StatusError}},
		{name: "provider 5xx", result: payhero.InitiateResult{Success: false, Submitted: true, Status: "HTTP_503"}},
		{name: "gateway timeout", result: payhero.InitiateResult{Success: false, Submitted: true, Status: "HTTP_408"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			walletRepo := new(MockWalletRepository)
			walletRepo.On("FindByID", ctx, "WAL001").Return(activeWallet("WAL001"), nil)
			repo := newMemoryIntentRepository()
			gateway := new(MockPaymentGateway)
			gateway.On("Initiate", ctx, mock.Anything).Return(tt.result)

			svc := newTestPaymentService(walletRepo, repo, gateway)
			resp, err := svc.InitiateDeposit(ctx, InitiateDepositRequest{WalletID: "WAL001", Amount: 60, PhoneNumber: "0712345678"})

			require.NoError(t, err)
			assert.False(t, resp.Success)
			assert.Equal(t, domain.IntentStatusPending, resp.Status)

			intent, err := repo.FindByReference(ctx, resp.Reference)
			require.NoError(t, err)
			assert.Equal(t, domain.IntentStatusPending, intent.Status)

			// The push did reach the phone: the customer's payment must land.
			callbacks := NewCallbackService(gateway, newTestSettlement(repo, nil), nil, zap.NewNop())
			outcome, err := callbacks.HandleCallback(ctx, successCallback(resp.Reference, 60))
			require.NoError(t, err)
			assert.Equal(t, CallbackApplied, outcome.Result)
			assert.Equal(t, domain.IntentStatusSucceeded, outcome.Status)
			assert.Equal(t, 1, repo.sideEffectCount(resp.Reference))
		})
	}
}

func TestInitiateDeposit_CancelledCallerStillRecordsRejection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	walletRepo := new(MockWalletRepository)
	walletRepo.On("FindByID", ctx, "WAL001").Return(activeWallet("WAL001"), nil)
	repo := newMemoryIntentRepository()
	gateway := new(MockPaymentGateway)
	gateway.On("Initiate", ctx, mock.Anything).Run(func(args mock.Arguments) {
		cancel()
	}).Return(payhero.InitiateResult{Success: false, Submitted: true, Status: "FAILED", Message: "channel inactive"})

	svc := newTestPaymentService(walletRepo, repo, gateway)
	resp, err := svc.InitiateDeposit(ctx, InitiateDepositRequest{WalletID: "WAL001", Amount: 60, PhoneNumber: "0712345678"})

	require.NoError(t, err)
	intent, err := repo.FindByReference(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentStatusFailed, intent.Status)
}

func TestInitiateDeposit_CallbackBeforeInitiateResponse(t *testing.T) {
	ctx := context.Background()
	walletRepo := new(MockWalletRepository)
	walletRepo.On("FindByID", ctx, "WAL001").Return(activeWallet("WAL001"), nil)
	repo := newMemoryIntentRepository()
	gateway := new(MockPaymentGateway)
	callbacks := NewCallbackService(gateway, newTestSettlement(repo, nil), nil, zap.NewNop())

	gateway.On("Initiate", ctx, mock.Anything).Run(func(args mock.Arguments) {
		req := args.Get(1).(payhero.InitiateRequest)
		outcome, err := callbacks.HandleCallback(ctx, successCallback(req.Reference, 60))
		assert.NoError(t, err)
		assert.Equal(t, CallbackApplied, outcome.Result)
	}).Return(payhero.InitiateResult{Success: true, Submitted: true, Status: "QUEUED", CheckoutRequestID: "ws_CO_late"})

	svc := newTestPaymentService(walletRepo, repo, gateway)
	resp, err := svc.InitiateDeposit(ctx, InitiateDepositRequest{WalletID: "WAL001", Amount: 60, PhoneNumber: "0712345678"})
	require.NoError(t, err)

	intent, err := repo.FindByReference(ctx, resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentStatusSucceeded, intent.Status)
	assert.Equal(t, "ws_CO_"+resp.Reference, intent.ProviderCheckoutID)
	assert.Equal(t, 1, repo.sideEffectCount(resp.Reference))
}

func TestInitiateDeposit_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		req     InitiateDepositRequest
		wallet  *domain.Wallet
		findErr error
		wantErr error
	}{
		{"zero amount", InitiateDepositRequest{WalletID: "WAL001", Amount: 0, PhoneNumber: "0712345678"}, nil, nil, domain.ErrInvalidAmount},
		{"rounds to zero", InitiateDepositRequest{WalletID: "WAL001", Amount: 0.4, PhoneNumber: "0712345678"}, nil, nil, domain.ErrInvalidAmount},
		{"empty phone", InitiateDepositRequest{WalletID: "WAL001", Amount: 60, PhoneNumber: " "}, nil, nil, domain.ErrInvalidPhoneNumber},
		{"unknown wallet", InitiateDepositRequest{WalletID: "WAL404", Amount: 60, PhoneNumber: "0712345678"}, nil, domain.ErrWalletNotFound, domain.ErrWalletNotFound},
		{"frozen wallet", InitiateDepositRequest{WalletID: "WAL002", Amount: 60, PhoneNumber: "0712345678"}, &domain.Wallet{ID: "WAL002", Status: domain.WalletStatusFrozen}, nil, domain.ErrWalletInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			walletRepo := new(MockWalletRepository)
			if tt.wallet != nil || tt.findErr != nil {
				walletRepo.On("FindByID", ctx, tt.req.WalletID).Return(tt.wallet, tt.findErr)
			}
			gateway := new(MockPaymentGateway)
			repo := newMemoryIntentRepository()

			svc := newTestPaymentService(walletRepo, repo, gateway)

			resp, err := svc.InitiateDeposit(ctx, tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, resp)
			gateway.AssertNotCalled(t, "Initiate", mock.Anything, mock.Anything)
			count, _ := repo.CountByWalletID(ctx, tt.req.WalletID)
			assert.Zero(t, count)
		})
	}
}

func TestInitiateCardPurchase_ConvertsUSD(t *testing.T) {
	ctx := context.Background()
	walletRepo := new(MockWalletRepository)
	walletRepo.On("FindByID", ctx, "WAL001").Return(activeWallet("WAL001"), nil)

	repo := newMemoryIntentRepository()
	gateway := new(MockPaymentGateway)
	gateway.On("Initiate", ctx, mock.MatchedBy(func(req payhero.InitiateRequest) bool {
		return req.Amount == 7740
	})).Return(payhero.InitiateResult{Success: true, Status: "QUEUED", CheckoutRequestID: "ws_CO_2"})

	svc := newTestPaymentService(walletRepo, repo, gateway)

	resp, err := svc.InitiateCardPurchase(ctx, InitiateCardPurchaseRequest{WalletID: "WAL001", AmountUSD: 60, PhoneNumber: "0712345678"})

	require.NoError(t, err)
	assert.Equal(t, int64(7740), resp.Amount)

	intent, err := repo.FindByReference(ctx, resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.PurposeCardPurchase, intent.Purpose)
	require.NotNil(t, intent.SourceAmountUSD)
	assert.Equal(t, "60", intent.SourceAmountUSD.String())
	gateway.AssertExpectations(t)
}

func TestGetWalletPayments_Pagination(t *testing.T) {
	// Arrange
	ctx := context.Background()
	walletRepo := new(MockWalletRepository)
	walletRepo.On("FindByID", ctx, "WAL001").Return(activeWallet("WAL001"), nil)

	repo := newMemoryIntentRepository()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		repo.seedPending(fmt.Sprintf("GPY%08dAAA", i), "WAL001", domain.PurposeDeposit, int64(100+i), base.Add(time.Duration(i)*time.Minute))
	}
	repo.seedPending("GPY99999999ZZZ", "WAL002", domain.PurposeDeposit, 50, base)

	svc := newTestPaymentService(walletRepo, repo, new(MockPaymentGateway))

	// Act
	page1, err := svc.GetWalletPayments(ctx, "WAL001", PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	page3, err := svc.GetWalletPayments(ctx, "WAL001", PaginationParams{Page: 3, PageSize: 10})
	require.NoError(t, err)

	// Assert
	assert.Len(t, page1.Payments, 10)
	assert.Equal(t, int64(25), page1.TotalCount)
	assert.Equal(t, 3, page1.TotalPages)
	assert.Equal(t, "GPY00000024AAA", page1.Payments[0].Reference)
	assert.Len(t, page3.Payments, 5)
	assert.Equal(t, "GPY00000000AAA", page3.Payments[4].Reference)
}

func TestGetWalletPayments_WalletNotFound(t *testing.T) {
	ctx := context.Background()
	walletRepo := new(MockWalletRepository)
	walletRepo.On("FindByID", ctx, "WAL404").Return(nil, domain.ErrWalletNotFound)

	svc := newTestPaymentService(walletRepo, newMemoryIntentRepository(), new(MockPaymentGateway))

	result, err := svc.GetWalletPayments(ctx, "WAL404", PaginationParams{Page: 1, PageSize: 10})

	assert.ErrorIs(t, err, domain.ErrWalletNotFound)
	assert.Nil(t, result)
	walletRepo.AssertExpectations(t)
}
