package standup

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/standsync/server/internal/infra/events"
	"github.com/standsync/server/internal/port/outbound"
)

// NotificationDispatcher subscribes to lifecycle events and forwards
// them to the messaging gateway. Keeping delivery behind the event bus
// decouples it from state transitions: a failed notification is logged
// by the bus and never rolls back or blocks a transition.
type NotificationDispatcher struct {
	instances outbound.InstanceStore
	notifier  outbound.Notifier
	logger    *zap.Logger
}

// NewNotificationDispatcher creates a dispatcher for lifecycle events.
func NewNotificationDispatcher(instances outbound.InstanceStore, notifier outbound.Notifier, logger *zap.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationDispatcher{
		instances: instances,
		notifier:  notifier,
		logger:    logger,
	}
}

// Handles returns the event types the dispatcher consumes.
func (d *NotificationDispatcher) Handles() []string {
	return []string{CollectionStartedType, CollectionEndedType}
}

// Handle delivers the notification for a lifecycle event.
func (d *NotificationDispatcher) Handle(event events.Event) error {
	ctx := context.Background()

	instance, err := d.instances.Get(ctx, event.AggregateID())
	if err != nil {
		return fmt.Errorf("load instance for %s event: %w", event.EventType(), err)
	}

	switch event.EventType() {
	case CollectionStartedType:
		return d.notifier.CollectionStarted(ctx, instance)
	case CollectionEndedType:
		return d.notifier.CollectionEnded(ctx, instance)
	default:
		d.logger.Warn("unexpected event type", zap.String("event_type", event.EventType()))
		return nil
	}
}
