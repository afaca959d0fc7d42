package services_test

import (
	"context"

	"github.com/carevoice/backend/internal/domain/entities"
	"github.com/carevoice/backend/internal/domain/repositories"
	"github.com/carevoice/backend/internal/infrastructure/clients/calllogapi"
	"github.com/stretchr/testify/mock"
)

// Mocks shared by the service tests

type MockCallRepository struct {
	mock.Mock
}

func (m *MockCallRepository) CreateWithTranscript(ctx context.Context, call *entities.CallRecord, transcript *entities.CallTranscript) error {
	args := m.Called(ctx, call, transcript)
	return args.Error(0)
}

func (m *MockCallRepository) GetByCallID(ctx context.Context, callID string) (*entities.CallRecord, error) {
	args := m.Called(ctx, callID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CallRecord), args.Error(1)
}

func (m *MockCallRepository) GetByID(ctx context.Context, id string) (*entities.CallRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CallRecord), args.Error(1)
}

func (m *MockCallRepository) GetTranscript(ctx context.Context, callRecordID string) (*entities.CallTranscript, error) {
	args := m.Called(ctx, callRecordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CallTranscript), args.Error(1)
}

func (m *MockCallRepository) ListUnprocessed(ctx context.Context, limit int) ([]*entities.CallRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.CallRecord), args.Error(1)
}

func (m *MockCallRepository) ResetProcessed(ctx context.Context, callID string) (int64, error) {
	args := m.Called(ctx, callID)
	return args.Get(0).(int64), args.Error(1)
}

type MockCheckInRepository struct {
	mock.Mock
}

func (m *MockCheckInRepository) GetByCallRecordID(ctx context.Context, callRecordID string) (*entities.CheckIn, error) {
	args := m.Called(ctx, callRecordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CheckIn), args.Error(1)
}

func (m *MockCheckInRepository) GetByCheckinID(ctx context.Context, checkinID string) (*entities.CheckIn, error) {
	args := m.Called(ctx, checkinID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CheckIn), args.Error(1)
}

func (m *MockCheckInRepository) SaveCallResult(ctx context.Context, input *repositories.SaveCallResultInput) (*entities.CheckIn, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CheckIn), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*entities.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

type MockCallLogClient struct {
	mock.Mock
}

func (m *MockCallLogClient) FetchCallLogs(ctx context.Context, req calllogapi.FetchRequest) (*calllogapi.CallLogResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*calllogapi.CallLogResponse), args.Error(1)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, transcript string) (*entities.ExtractionResult, error) {
	args := m.Called(ctx, transcript)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ExtractionResult), args.Error(1)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.CheckInEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.CheckInEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.CheckInEvent), args.Error(1)
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()
	return args.Error(0)
}
