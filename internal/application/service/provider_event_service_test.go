package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/gigmile/mobile-money-service/internal/gateway/payhero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCallbackService_RecordsProviderEvents(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryIntentRepository()
	repo.seedPending("GPY12345678ABC", "WAL001", domain.PurposeDeposit, 60, time.Now())
	eventLog := &memoryEventLog{}
	svc := NewCallbackService(new(MockPaymentGateway), newTestSettlement(repo, nil), eventLog, zap.NewNop())

	_, err := svc.HandleCallback(ctx, successCallback("GPY12345678ABC", 60))
	require.NoError(t, err)
	_, err = svc.HandleCallback(ctx, successCallback("GPY12345678ABC", 60))
	require.NoError(t, err)

	events, err := eventLog.FindByReference(ctx, "GPY12345678ABC")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, string(CallbackApplied), events[0].Outcome)
	assert.Equal(t, string(CallbackAlreadyResolved), events[1].Outcome)
	assert.Equal(t, domain.ResolvedViaCallback, events[0].Source)
	assert.Equal(t, payhero.CallbackStatusSuccess, events[0].ProviderStatus)
	assert.NotEmpty(t, events[0].ID)

	var payload payhero.CallbackPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, "SAE3YULR0Y", payload.Response.MpesaReceiptNumber)
}

func TestCallbackService_EventLogFailureDoesNotBlockSettlement(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryIntentRepository()
	repo.seedPending("GPY12345678ABC", "WAL001", domain.PurposeDeposit, 60, time.Now())
	eventLog := &memoryEventLog{recordErr: errors.New("disk full")}
	svc := NewCallbackService(new(MockPaymentGateway), newTestSettlement(repo, nil), eventLog, zap.NewNop())

	outcome, err := svc.HandleCallback(ctx, successCallback("GPY12345678ABC", 60))

	require.NoError(t, err)
	assert.Equal(t, CallbackApplied, outcome.Result)
	assert.Equal(t, 1, repo.sideEffectCount("GPY12345678ABC"))
}

func TestStatusPoller_RecordsProviderEvents(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repo := newMemoryIntentRepository()
	repo.seedPending("GPY00000001AAA", "WAL001", domain.PurposeDeposit, 60, now.Add(-5*time.Minute))
	eventLog := &memoryEventLog{}

	gateway := new(MockPaymentGateway)
	gateway.On("CheckStatus", mock.Anything, "GPY00000001AAA").Return(payhero.StatusResult{
		Success: true,
		Status:  payhero.ProviderStatusQueued,
		Data:    map[string]any{"status": "QUEUED"},
	}).Once()
	gateway.On("CheckStatus", mock.Anything, "GPY00000001AAA").Return(payhero.StatusResult{
		Success: false,
		Status:  "HTTP_503",
	}).Once()

	poller := NewStatusPoller(repo, gateway, newTestSettlement(repo, nil), eventLog, testPollerConfig, zap.NewNop())
	poller.now = func() time.Time { return now }

	_, err := poller.CheckOne(ctx, "GPY00000001AAA")
	require.NoError(t, err)
	_, err = poller.CheckOne(ctx, "GPY00000001AAA")
	require.NoError(t, err)

	// Failed status checks carry no provider data and are not logged.
	events, err := eventLog.FindByReference(ctx, "GPY00000001AAA")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.ResolvedViaPoll, events[0].Source)
	assert.Equal(t, string(PollStillPending), events[0].Outcome)
	assert.JSONEq(t, `{"status":"QUEUED"}`, string(events[0].Payload))
	assert.Equal(t, now, events[0].ReceivedAt)
}

func TestProviderEventService_ListForReference(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryIntentRepository()
	repo.seedPending("GPY12345678ABC", "WAL001", domain.PurposeDeposit, 60, time.Now())
	eventLog := &memoryEventLog{}
	require.NoError(t, eventLog.Record(ctx, &domain.ProviderEvent{ID: "e1", Reference: "GPY12345678ABC"}))
	svc := NewProviderEventService(eventLog, repo, zap.NewNop())

	events, err := svc.ListForReference(ctx, "GPY12345678ABC")
	require.NoError(t, err)
	assert.Len(t, events, 1)

	_, err = svc.ListForReference(ctx, "GPY00000000ZZZ")
	assert.ErrorIs(t, err, domain.ErrIntentNotFound)
}
