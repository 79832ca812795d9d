package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/gigmile/mobile-money-service/internal/gateway/payhero"
	"github.com/gigmile/mobile-money-service/internal/infrastructure/lock"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) FindByID(ctx context.Context, walletID string) (*domain.Wallet, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

// MockPaymentGateway is a mock implementation of PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) Initiate(ctx context.Context, req payhero.InitiateRequest) payhero.InitiateResult {
	args := m.Called(ctx, req)
	return args.Get(0).(payhero.InitiateResult)
}

func (m *MockPaymentGateway) CheckStatus(ctx context.Context, reference string) payhero.StatusResult {
	args := m.Called(ctx, reference)
	return args.Get(0).(payhero.StatusResult)
}

func (m *MockPaymentGateway) ProcessCallback(payload payhero.CallbackPayload) payhero.CallbackResult {
	return payhero.ProcessCallback(payload)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// memoryIntentRepository mirrors the compare-and-set semantics of the MySQL
// repository and counts ledger side effects per reference.
type memoryIntentRepository struct {
	mu          sync.Mutex
	intents     map[string]*domain.PaymentIntent
	sideEffects map[string]int
	balances    map[string]int64
	resolveErr  error
}

func newMemoryIntentRepository() *memoryIntentRepository {
	return &memoryIntentRepository{
		intents:     make(map[string]*domain.PaymentIntent),
		sideEffects: make(map[string]int),
		balances:    make(map[string]int64),
	}
}

func (r *memoryIntentRepository) Create(ctx context.Context, intent *domain.PaymentIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.intents[intent.Reference]; ok {
		return domain.ErrDuplicateReference
	}
	stored := *intent
	r.intents[intent.Reference] = &stored
	return nil
}

func (r *memoryIntentRepository) FindByReference(ctx context.Context, reference string) (*domain.PaymentIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	intent, ok := r.intents[reference]
	if !ok {
		return nil, domain.ErrIntentNotFound
	}
	found := *intent
	return &found, nil
}

func (r *memoryIntentRepository) AttachCheckout(ctx context.Context, reference, checkoutID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	intent, ok := r.intents[reference]
	if !ok {
		return domain.ErrIntentNotFound
	}
	if intent.Status == domain.IntentStatusPending {
		intent.ProviderCheckoutID = checkoutID
	}
	return nil
}

func (r *memoryIntentRepository) Resolve(ctx context.Context, res domain.Resolution) (*domain.PaymentIntent, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolveErr != nil {
		return nil, false, r.resolveErr
	}
	intent, ok := r.intents[res.Reference]
	if !ok {
		return nil, false, domain.ErrIntentNotFound
	}
	if err := intent.Apply(res); err != nil {
		found := *intent
		return &found, false, nil
	}
	if intent.Status == domain.IntentStatusSucceeded {
		r.sideEffects[intent.Reference]++
		if intent.Purpose == domain.PurposeDeposit {
			r.balances[intent.WalletID] += intent.Amount
		}
	}
	found := *intent
	return &found, true, nil
}

func (r *memoryIntentRepository) FindPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.PaymentIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []*domain.PaymentIntent
	for _, intent := range r.intents {
		if intent.Status == domain.IntentStatusPending && intent.CreatedAt.Before(cutoff) {
			found := *intent
			pending = append(pending, &found)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r *memoryIntentRepository) FindByWalletIDWithPagination(ctx context.Context, walletID string, limit, offset int) ([]*domain.PaymentIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []*domain.PaymentIntent
	for _, intent := range r.intents {
		if intent.WalletID == walletID {
			copied := *intent
			found = append(found, &copied)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].CreatedAt.After(found[j].CreatedAt) })
	if offset >= len(found) {
		return []*domain.PaymentIntent{}, nil
	}
	end := offset + limit
	if end > len(found) {
		end = len(found)
	}
	return found[offset:end], nil
}

func (r *memoryIntentRepository) CountByWalletID(ctx context.Context, walletID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, intent := range r.intents {
		if intent.WalletID == walletID {
			count++
		}
	}
	return count, nil
}

func (r *memoryIntentRepository) sideEffectCount(reference string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sideEffects[reference]
}

func (r *memoryIntentRepository) seedPending(reference, walletID string, purpose domain.PaymentPurpose, amount int64, createdAt time.Time) *domain.PaymentIntent {
	intent, err := domain.NewPaymentIntent("id-"+reference, reference, walletID, purpose, amount, "0712345678", createdAt)
	if err != nil {
		panic(err)
	}
	intent.ProviderCheckoutID = "ws_CO_" + reference
	_ = r.Create(context.Background(), intent)
	return intent
}

func newTestSettlement(repo domain.PaymentIntentRepository, publisher domain.EventPublisher) *SettlementService {
	return NewSettlementService(repo, lock.NewKeyedMutex(), publisher, zap.NewNop())
}

func successCallback(reference string, amount float64) payhero.CallbackPayload {
	return payhero.CallbackPayload{
		Status: true,
		Response: payhero.CallbackResponse{
			Amount:             amount,
			CheckoutRequestID:  "ws_CO_" + reference,
			ExternalReference:  reference,
			MerchantRequestID:  "3202-70921557-1",
			MpesaReceiptNumber: "SAE3YULR0Y",
			Phone:              "+254712345678",
			ResultCode:         0,
			ResultDesc:         "The service request is processed successfully.",
			Status:             payhero.CallbackStatusSuccess,
		},
	}
}

type memoryEventLog struct {
	mu        sync.Mutex
	events    []*domain.ProviderEvent
	recordErr error
}

func (l *memoryEventLog) Record(ctx context.Context, event *domain.ProviderEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.recordErr != nil {
		return l.recordErr
	}
	copied := *event
	l.events = append(l.events, &copied)
	return nil
}

func (l *memoryEventLog) FindByReference(ctx context.Context, reference string) ([]*domain.ProviderEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var found []*domain.ProviderEvent
	for _, e := range l.events {
		if e.Reference == reference {
			found = append(found, e)
		}
	}
	return found, nil
}
