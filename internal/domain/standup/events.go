package standup

import (
	"github.com/standsync/server/internal/infra/events"
	"github.com/standsync/server/internal/model"
)

// Standup event type constants.
const (
	CollectionStartedType = "CollectionStarted"
	CollectionEndedType   = "CollectionEnded"
)

const aggregateType = "StandupInstance"

// CollectionStartedEvent is emitted when an instance enters the
// collecting state.
type CollectionStartedEvent struct {
	events.BaseEvent

	InstanceID string `json:"instance_id"`
	TeamID     string `json:"team_id"`
	TargetDate string `json:"target_date"`
}

// NewCollectionStartedEvent creates a CollectionStartedEvent for an instance.
func NewCollectionStartedEvent(instance *model.StandupInstance) *CollectionStartedEvent {
	return &CollectionStartedEvent{
		BaseEvent:  events.NewBaseEvent(CollectionStartedType, instance.ID, aggregateType),
		InstanceID: instance.ID.String(),
		TeamID:     instance.TeamID.String(),
		TargetDate: instance.TargetDate,
	}
}

// CollectionEndedEvent is emitted when an instance reaches the posted
// state and its collection window closes.
type CollectionEndedEvent struct {
	events.BaseEvent

	InstanceID string `json:"instance_id"`
	TeamID     string `json:"team_id"`
	TargetDate string `json:"target_date"`
}

// NewCollectionEndedEvent creates a CollectionEndedEvent for an instance.
func NewCollectionEndedEvent(instance *model.StandupInstance) *CollectionEndedEvent {
	return &CollectionEndedEvent{
		BaseEvent:  events.NewBaseEvent(CollectionEndedType, instance.ID, aggregateType),
		InstanceID: instance.ID.String(),
		TeamID:     instance.TeamID.String(),
		TargetDate: instance.TargetDate,
	}
}
