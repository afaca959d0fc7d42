package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/carevoice/backend/internal/application/services"
	"github.com/carevoice/backend/internal/domain/entities"
	"github.com/carevoice/backend/internal/infrastructure/clients/calllogapi"
	"github.com/carevoice/backend/internal/infrastructure/observability"
	apperrors "github.com/carevoice/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func phoneField(number string) calllogapi.PhoneField {
	return calllogapi.PhoneField{Number: number}
}

func TestCallSyncService_SyncRaw(t *testing.T) {
	t.Run("creates call and transcript for new record", func(t *testing.T) {
		callRepo := new(MockCallRepository)
		userRepo := new(MockUserRepository)
		service := services.NewCallSyncService(nil, callRepo, userRepo, nil, 25)

		callRepo.On("GetByCallID", mock.Anything, "call-1").
			Return(nil, apperrors.NewNotFoundError("not found"))
		userRepo.On("GetByPhone", mock.Anything, "+15550001111").
			Return(nil, apperrors.NewNotFoundError("not found"))
		callRepo.On("CreateWithTranscript", mock.Anything, mock.Anything, mock.Anything).
			Return(nil)

		created, err := service.SyncRaw(context.Background(), calllogapi.CallLogRecord{
			CallID:         "call-1",
			CallerPhone:    phoneField("+15550001111"),
			CallDate:       "2026-08-01T10:30:00Z",
			CallDuration:   180,
			FullTranscript: "I took my metformin this morning.",
		})

		assert.NoError(t, err)
		assert.True(t, created)

		call := callRepo.Calls[1].Arguments.Get(1).(*entities.CallRecord)
		transcript := callRepo.Calls[1].Arguments.Get(2).(*entities.CallTranscript)
		assert.Equal(t, "call-1", call.CallID)
		assert.Equal(t, "+15550001111", call.Phone)
		assert.Equal(t, 180, call.DurationSeconds)
		assert.False(t, call.Processed)
		assert.Nil(t, call.UserID)
		assert.Equal(t, time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC), call.StartedAt.UTC())
		assert.Equal(t, call.ID, transcript.CallRecordID)
		assert.Equal(t, "I took my metformin this morning.", transcript.Content)
	})

	t.Run("skips record already synced", func(t *testing.T) {
		callRepo := new(MockCallRepository)
		service := services.NewCallSyncService(nil, callRepo, nil, nil, 25)

		callRepo.On("GetByCallID", mock.Anything, "call-1").
			Return(&entities.CallRecord{ID: "db-1", CallID: "call-1"}, nil)

		created, err := service.SyncRaw(context.Background(), calllogapi.CallLogRecord{
			CallID:         "call-1",
			FullTranscript: "repeat delivery of the same call",
		})

		assert.NoError(t, err)
		assert.False(t, created)
		callRepo.AssertNotCalled(t, "CreateWithTranscript", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("links call to known user by phone", func(t *testing.T) {
		callRepo := new(MockCallRepository)
		userRepo := new(MockUserRepository)
		service := services.NewCallSyncService(nil, callRepo, userRepo, nil, 25)

		callRepo.On("GetByCallID", mock.Anything, "call-2").
			Return(nil, apperrors.NewNotFoundError("not found"))
		userRepo.On("GetByPhone", mock.Anything, "+15550002222").
			Return(&entities.User{ID: "user-7", Phone: "+15550002222"}, nil)
		callRepo.On("CreateWithTranscript", mock.Anything, mock.Anything, mock.Anything).
			Return(nil)

		created, err := service.SyncRaw(context.Background(), calllogapi.CallLogRecord{
			CallID:         "call-2",
			CallerPhone:    phoneField("+15550002222"),
			FullTranscript: "checking in after breakfast",
		})

		assert.NoError(t, err)
		assert.True(t, created)

		call := callRepo.Calls[1].Arguments.Get(1).(*entities.CallRecord)
		if assert.NotNil(t, call.UserID) {
			assert.Equal(t, "user-7", *call.UserID)
		}
	})

	t.Run("falls back to current time for bad call date", func(t *testing.T) {
		callRepo := new(MockCallRepository)
		service := services.NewCallSyncService(nil, callRepo, nil, nil, 25)

		callRepo.On("GetByCallID", mock.Anything, "call-3").
			Return(nil, apperrors.NewNotFoundError("not found"))
		callRepo.On("CreateWithTranscript", mock.Anything, mock.Anything, mock.Anything).
			Return(nil)

		before := time.Now()
		created, err := service.SyncRaw(context.Background(), calllogapi.CallLogRecord{
			CallID:         "call-3",
			CallDate:       "yesterday afternoon",
			FullTranscript: "transcript with an unparseable date",
		})

		assert.NoError(t, err)
		assert.True(t, created)

		call := callRepo.Calls[1].Arguments.Get(1).(*entities.CallRecord)
		assert.False(t, call.StartedAt.Before(before))
	})

	t.Run("rejects record without call id", func(t *testing.T) {
		callRepo := new(MockCallRepository)
		service := services.NewCallSyncService(nil, callRepo, nil, nil, 25)

		created, err := service.SyncRaw(context.Background(), calllogapi.CallLogRecord{
			CallID:         "   ",
			FullTranscript: "no natural key on this one",
		})

		assert.Error(t, err)
		assert.False(t, created)
		callRepo.AssertNotCalled(t, "GetByCallID", mock.Anything, mock.Anything)
	})
}

func TestCallSyncService_FetchAndSync(t *testing.T) {
	t.Run("pages until short page and counts outcomes", func(t *testing.T) {
		client := new(MockCallLogClient)
		callRepo := new(MockCallRepository)
		service := services.NewCallSyncService(client, callRepo, nil, nil, 2)

		client.On("FetchCallLogs", mock.Anything, calllogapi.FetchRequest{Limit: 2, Offset: 0}).
			Return(&calllogapi.CallLogResponse{Data: []calllogapi.CallLogRecord{
				{CallID: "call-1", FullTranscript: "first call transcript"},
				{CallID: "call-2", FullTranscript: "second call transcript"},
			}}, nil)
		client.On("FetchCallLogs", mock.Anything, calllogapi.FetchRequest{Limit: 2, Offset: 2}).
			Return(&calllogapi.CallLogResponse{Data: []calllogapi.CallLogRecord{
				{CallID: "call-3", FullTranscript: "third call transcript"},
			}}, nil)

		callRepo.On("GetByCallID", mock.Anything, "call-1").
			Return(&entities.CallRecord{ID: "db-1", CallID: "call-1"}, nil)
		callRepo.On("GetByCallID", mock.Anything, "call-2").
			Return(nil, apperrors.NewNotFoundError("not found"))
		callRepo.On("GetByCallID", mock.Anything, "call-3").
			Return(nil, apperrors.NewNotFoundError("not found"))
		callRepo.On("CreateWithTranscript", mock.Anything, mock.Anything, mock.Anything).
			Return(nil)

		summary, err := service.FetchAndSync(context.Background(), "")

		assert.NoError(t, err)
		assert.Equal(t, 3, summary.Fetched)
		assert.Equal(t, 2, summary.Synced)
		assert.Equal(t, 1, summary.Skipped)
		assert.Equal(t, 0, summary.Failed)
	})

	t.Run("continues past a record that fails to store", func(t *testing.T) {
		client := new(MockCallLogClient)
		callRepo := new(MockCallRepository)
		service := services.NewCallSyncService(client, callRepo, nil, nil, 25)

		client.On("FetchCallLogs", mock.Anything, mock.Anything).
			Return(&calllogapi.CallLogResponse{Data: []calllogapi.CallLogRecord{
				{CallID: "call-bad", FullTranscript: "this one will not store"},
				{CallID: "call-good", FullTranscript: "this one stores fine"},
			}}, nil)

		callRepo.On("GetByCallID", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewNotFoundError("not found"))
		callRepo.On("CreateWithTranscript", mock.Anything, mock.MatchedBy(func(c *entities.CallRecord) bool {
			return c.CallID == "call-bad"
		}), mock.Anything).Return(errors.New("insert failed"))
		callRepo.On("CreateWithTranscript", mock.Anything, mock.MatchedBy(func(c *entities.CallRecord) bool {
			return c.CallID == "call-good"
		}), mock.Anything).Return(nil)

		summary, err := service.FetchAndSync(context.Background(), "")

		assert.NoError(t, err)
		assert.Equal(t, 2, summary.Fetched)
		assert.Equal(t, 1, summary.Synced)
		assert.Equal(t, 1, summary.Failed)
		assert.Len(t, summary.Failures, 1)
	})

	t.Run("propagates transport errors", func(t *testing.T) {
		client := new(MockCallLogClient)
		callRepo := new(MockCallRepository)
		service := services.NewCallSyncService(client, callRepo, nil, nil, 25)

		client.On("FetchCallLogs", mock.Anything, mock.Anything).
			Return(nil, errors.New("upstream unavailable"))

		_, err := service.FetchAndSync(context.Background(), "")

		assert.Error(t, err)
	})

	t.Run("passes phone filter through to the client", func(t *testing.T) {
		client := new(MockCallLogClient)
		callRepo := new(MockCallRepository)
		service := services.NewCallSyncService(client, callRepo, nil, nil, 25)

		client.On("FetchCallLogs", mock.Anything, calllogapi.FetchRequest{Phone: "+15550003333", Limit: 25, Offset: 0}).
			Return(&calllogapi.CallLogResponse{}, nil)

		summary, err := service.FetchAndSync(context.Background(), "+15550003333")

		assert.NoError(t, err)
		assert.Equal(t, 0, summary.Fetched)
		client.AssertExpectations(t)
	})

	t.Run("records synced calls on the pipeline counter", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("sync-test")
		counter, err := meter.Int64Counter("pipeline.calls.synced")
		assert.NoError(t, err)
		metrics := &observability.Metrics{CallsSynced: counter}

		client := new(MockCallLogClient)
		callRepo := new(MockCallRepository)
		service := services.NewCallSyncService(client, callRepo, nil, metrics, 25)

		client.On("FetchCallLogs", mock.Anything, mock.Anything).
			Return(&calllogapi.CallLogResponse{Data: []calllogapi.CallLogRecord{
				{CallID: "call-m1", FullTranscript: "first metered transcript"},
				{CallID: "call-m2", FullTranscript: "second metered transcript"},
			}}, nil)
		callRepo.On("GetByCallID", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewNotFoundError("not found"))
		callRepo.On("CreateWithTranscript", mock.Anything, mock.Anything, mock.Anything).
			Return(nil)

		summary, err := service.FetchAndSync(context.Background(), "")
		assert.NoError(t, err)
		assert.Equal(t, 2, summary.Synced)

		var rm metricdata.ResourceMetrics
		assert.NoError(t, reader.Collect(context.Background(), &rm))

		var total int64
		for _, scope := range rm.ScopeMetrics {
			for _, m := range scope.Metrics {
				if m.Name != "pipeline.calls.synced" {
					continue
				}
				if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
					for _, dp := range sum.DataPoints {
						total += dp.Value
					}
				}
			}
		}
		assert.Equal(t, int64(2), total)
	})
}
