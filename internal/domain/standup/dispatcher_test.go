package standup

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/standsync/server/internal/model"
)

func TestNotificationDispatcher(t *testing.T) {
	logger := zap.NewNop()

	instance := &model.StandupInstance{
		ID:         uuid.New(),
		TeamID:     uuid.New(),
		TargetDate: "2024-06-10",
		State:      model.InstanceStateCollecting,
	}

	t.Run("started event notifies the gateway", func(t *testing.T) {
		mockInstances := new(MockInstanceStore)
		mockNotifier := new(MockNotifier)
		dispatcher := NewNotificationDispatcher(mockInstances, mockNotifier, logger)

		mockInstances.On("Get", mock.Anything, instance.ID).Return(instance, nil)
		mockNotifier.On("CollectionStarted", mock.Anything, instance).Return(nil)

		err := dispatcher.Handle(NewCollectionStartedEvent(instance))

		require.NoError(t, err)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("ended event notifies the gateway", func(t *testing.T) {
		mockInstances := new(MockInstanceStore)
		mockNotifier := new(MockNotifier)
		dispatcher := NewNotificationDispatcher(mockInstances, mockNotifier, logger)

		mockInstances.On("Get", mock.Anything, instance.ID).Return(instance, nil)
		mockNotifier.On("CollectionEnded", mock.Anything, instance).Return(nil)

		err := dispatcher.Handle(NewCollectionEndedEvent(instance))

		require.NoError(t, err)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("handles both lifecycle event types", func(t *testing.T) {
		dispatcher := NewNotificationDispatcher(nil, nil, logger)
		assert.ElementsMatch(t, []string{CollectionStartedType, CollectionEndedType}, dispatcher.Handles())
	})
}
