package standup

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/standsync/server/internal/model"
	"github.com/standsync/server/internal/port/outbound"
)

// --- Mock implementations ---

type MockTeamStore struct {
	mock.Mock
}

func (m *MockTeamStore) FindTeamsWithActiveConfig(ctx context.Context) ([]*model.Team, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Team), args.Error(1)
}

func (m *MockTeamStore) FindTeamWithConfigs(ctx context.Context, teamID uuid.UUID) (*model.Team, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Team), args.Error(1)
}

type MockInstanceStore struct {
	mock.Mock
}

func (m *MockInstanceStore) CreateIfAbsent(ctx context.Context, teamID uuid.UUID, targetDate string, snapshot model.ConfigSnapshot) (*model.StandupInstance, bool, error) {
	args := m.Called(ctx, teamID, targetDate, snapshot)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.StandupInstance), args.Bool(1), args.Error(2)
}

func (m *MockInstanceStore) Get(ctx context.Context, id uuid.UUID) (*model.StandupInstance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StandupInstance), args.Error(1)
}

func (m *MockInstanceStore) Find(ctx context.Context, teamID uuid.UUID, targetDate string) (*model.StandupInstance, error) {
	args := m.Called(ctx, teamID, targetDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StandupInstance), args.Error(1)
}

func (m *MockInstanceStore) UpdateState(ctx context.Context, id uuid.UUID, from, to model.InstanceState) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockInstanceStore) FindInState(ctx context.Context, state model.InstanceState) ([]*model.StandupInstance, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.StandupInstance), args.Error(1)
}

func (m *MockInstanceStore) DeleteOlderThan(ctx context.Context, cutoffDate string) (int64, error) {
	args := m.Called(ctx, cutoffDate)
	return args.Get(0).(int64), args.Error(1)
}

type MockJobScheduler struct {
	mock.Mock
}

func (m *MockJobScheduler) ScheduleAt(ctx context.Context, at time.Time, job outbound.TimedJob) error {
	args := m.Called(ctx, at, job)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) CollectionStarted(ctx context.Context, instance *model.StandupInstance) error {
	args := m.Called(ctx, instance)
	return args.Error(0)
}

func (m *MockNotifier) CollectionEnded(ctx context.Context, instance *model.StandupInstance) error {
	args := m.Called(ctx, instance)
	return args.Error(0)
}

func (m *MockNotifier) CollectionReminder(ctx context.Context, instance *model.StandupInstance) error {
	args := m.Called(ctx, instance)
	return args.Error(0)
}

type MockResponseReader struct {
	mock.Mock
}

func (m *MockResponseReader) CountForInstance(ctx context.Context, instanceID uuid.UUID) (int, error) {
	args := m.Called(ctx, instanceID)
	return args.Int(0), args.Error(1)
}
