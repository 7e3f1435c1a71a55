package standup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/standsync/server/internal/model"
	"github.com/standsync/server/internal/port/outbound"
	apperrors "github.com/standsync/server/internal/shared/errors"
)

type serviceMocks struct {
	teams     *MockTeamStore
	instances *MockInstanceStore
	jobs      *MockJobScheduler
	notifier  *MockNotifier
	responses *MockResponseReader
}

func newTestService(now time.Time) (*Service, *serviceMocks) {
	logger := zap.NewNop()
	m := &serviceMocks{
		teams:     new(MockTeamStore),
		instances: new(MockInstanceStore),
		jobs:      new(MockJobScheduler),
		notifier:  new(MockNotifier),
		responses: new(MockResponseReader),
	}

	factory := NewFactory(m.teams, m.instances, logger)
	scheduler := NewScheduler(m.teams, factory, m.jobs, &Config{WorkerCount: 2}, nil, logger)
	lifecycle := NewLifecycle(m.instances, nil, nil, logger)
	recovery := NewRecovery(m.teams, m.instances, factory, scheduler, lifecycle, nil, logger)
	status := NewStatus(m.responses)

	service := NewService(scheduler, recovery, lifecycle, status, m.teams, m.instances, m.notifier, logger)
	service.now = func() time.Time { return now }
	return service, m
}

func TestService_NextDueDate(t *testing.T) {
	// 2024-06-10 00:30 UTC is Monday 09:30 in Tokyo.
	now := time.Date(2024, 6, 10, 0, 30, 0, 0, time.UTC)

	t.Run("due today in the team's timezone", func(t *testing.T) {
		service, m := newTestService(now)

		team := testTeam("tokyo", "Asia/Tokyo")
		cfg := testConfig(team.ID, true, time.Now())
		cfg.Weekdays = pq.Int32Array{1, 3}
		team.Configs = []model.StandupConfig{cfg}

		m.teams.On("FindTeamWithConfigs", mock.Anything, team.ID).Return(team, nil)

		next, err := service.NextDueDate(context.Background(), team.ID)

		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, "2024-06-10", next.String())
	})

	t.Run("skips to the next scheduled weekday", func(t *testing.T) {
		service, m := newTestService(now)

		team := testTeam("tokyo", "Asia/Tokyo")
		cfg := testConfig(team.ID, true, time.Now())
		cfg.Weekdays = pq.Int32Array{4} // Thursday only
		team.Configs = []model.StandupConfig{cfg}

		m.teams.On("FindTeamWithConfigs", mock.Anything, team.ID).Return(team, nil)

		next, err := service.NextDueDate(context.Background(), team.ID)

		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, "2024-06-13", next.String())
	})

	t.Run("nil without an active config", func(t *testing.T) {
		service, m := newTestService(now)

		team := testTeam("idle", "UTC")
		team.Configs = []model.StandupConfig{testConfig(team.ID, false, time.Now())}

		m.teams.On("FindTeamWithConfigs", mock.Anything, team.ID).Return(team, nil)

		next, err := service.NextDueDate(context.Background(), team.ID)

		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("nil for an empty weekday set", func(t *testing.T) {
		service, m := newTestService(now)

		team := testTeam("paused", "UTC")
		cfg := testConfig(team.ID, true, time.Now())
		cfg.Weekdays = pq.Int32Array{}
		team.Configs = []model.StandupConfig{cfg}

		m.teams.On("FindTeamWithConfigs", mock.Anything, team.ID).Return(team, nil)

		next, err := service.NextDueDate(context.Background(), team.ID)

		require.NoError(t, err)
		assert.Nil(t, next)
	})
}

func TestService_IsDueToday(t *testing.T) {
	service, m := newTestService(time.Now())

	team := testTeam("alpha", "UTC")
	cfg := testConfig(team.ID, true, time.Now())
	team.Configs = []model.StandupConfig{cfg}

	m.teams.On("FindTeamWithConfigs", mock.Anything, team.ID).Return(team, nil)

	due, err := service.IsDueToday(context.Background(), team.ID, monday)
	require.NoError(t, err)
	assert.True(t, due)

	saturday := monday.AddDays(5)
	due, err = service.IsDueToday(context.Background(), team.ID, saturday)
	require.NoError(t, err)
	assert.False(t, due)
}

func TestService_GetInstanceStatus(t *testing.T) {
	service, m := newTestService(time.Now())

	instance := instanceWithParticipants(2)
	m.instances.On("Get", mock.Anything, instance.ID).Return(instance, nil)
	m.responses.On("CountForInstance", mock.Anything, instance.ID).Return(1, nil)

	got, err := service.GetInstanceStatus(context.Background(), instance.ID)

	require.NoError(t, err)
	assert.Equal(t, instance.ID, got.Instance.ID)
	assert.False(t, got.Complete)
	assert.InDelta(t, 0.5, got.ResponseRate, 1e-9)
}

func TestService_HandleTimedJob(t *testing.T) {
	t.Run("begin collection", func(t *testing.T) {
		service, m := newTestService(time.Now())

		instance := &model.StandupInstance{ID: uuid.New(), State: model.InstanceStatePending}
		m.instances.On("Get", mock.Anything, instance.ID).Return(instance, nil)
		m.instances.On("UpdateState", mock.Anything, instance.ID,
			model.InstanceStatePending, model.InstanceStateCollecting).Return(true, nil)

		err := service.HandleTimedJob(context.Background(), outbound.TimedJob{
			Kind:       outbound.JobBeginCollection,
			InstanceID: instance.ID,
		})

		require.NoError(t, err)
		m.instances.AssertExpectations(t)
	})

	t.Run("end collection", func(t *testing.T) {
		service, m := newTestService(time.Now())

		instance := &model.StandupInstance{ID: uuid.New(), State: model.InstanceStateCollecting}
		m.instances.On("Get", mock.Anything, instance.ID).Return(instance, nil)
		m.instances.On("UpdateState", mock.Anything, instance.ID,
			model.InstanceStateCollecting, model.InstanceStatePosted).Return(true, nil)

		err := service.HandleTimedJob(context.Background(), outbound.TimedJob{
			Kind:       outbound.JobEndCollection,
			InstanceID: instance.ID,
		})

		require.NoError(t, err)
	})

	t.Run("reminder while collecting notifies", func(t *testing.T) {
		service, m := newTestService(time.Now())

		instance := &model.StandupInstance{ID: uuid.New(), State: model.InstanceStateCollecting}
		m.instances.On("Get", mock.Anything, instance.ID).Return(instance, nil)
		m.notifier.On("CollectionReminder", mock.Anything, instance).Return(nil)

		err := service.HandleTimedJob(context.Background(), outbound.TimedJob{
			Kind:       outbound.JobReminder,
			InstanceID: instance.ID,
		})

		require.NoError(t, err)
		m.notifier.AssertExpectations(t)
	})

	t.Run("stale reminder is dropped", func(t *testing.T) {
		service, m := newTestService(time.Now())

		instance := &model.StandupInstance{ID: uuid.New(), State: model.InstanceStatePosted}
		m.instances.On("Get", mock.Anything, instance.ID).Return(instance, nil)

		err := service.HandleTimedJob(context.Background(), outbound.TimedJob{
			Kind:       outbound.JobReminder,
			InstanceID: instance.ID,
		})

		require.NoError(t, err)
		m.notifier.AssertNotCalled(t, "CollectionReminder", mock.Anything, mock.Anything)
	})

	t.Run("reminder for a deleted instance is dropped", func(t *testing.T) {
		service, m := newTestService(time.Now())

		instanceID := uuid.New()
		m.instances.On("Get", mock.Anything, instanceID).
			Return(nil, apperrors.NotFound("standup instance"))

		err := service.HandleTimedJob(context.Background(), outbound.TimedJob{
			Kind:       outbound.JobReminder,
			InstanceID: instanceID,
		})

		require.NoError(t, err)
		m.notifier.AssertNotCalled(t, "CollectionReminder", mock.Anything, mock.Anything)
	})

	t.Run("reminder delivery failure never triggers redelivery", func(t *testing.T) {
		service, m := newTestService(time.Now())

		instance := &model.StandupInstance{ID: uuid.New(), State: model.InstanceStateCollecting}
		m.instances.On("Get", mock.Anything, instance.ID).Return(instance, nil)
		m.notifier.On("CollectionReminder", mock.Anything, instance).
			Return(errors.New("gateway timeout"))

		err := service.HandleTimedJob(context.Background(), outbound.TimedJob{
			Kind:       outbound.JobReminder,
			InstanceID: instance.ID,
		})

		assert.NoError(t, err)
	})

	t.Run("unknown kind is an error", func(t *testing.T) {
		service, _ := newTestService(time.Now())

		err := service.HandleTimedJob(context.Background(), outbound.TimedJob{
			Kind:       "defrost",
			InstanceID: uuid.New(),
		})

		assert.Error(t, err)
	})
}
