package standup

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/standsync/server/internal/infra/events"
	"github.com/standsync/server/internal/model"
	"github.com/standsync/server/internal/port/outbound"
	apperrors "github.com/standsync/server/internal/shared/errors"
	"github.com/standsync/server/internal/shared/metrics"
)

// Lifecycle drives the instance state machine:
//
//	pending -> collecting -> posted
//
// Both transitions are idempotent against duplicate or out-of-order
// callbacks. Callbacks fire at-least-once, may fire late or early, and
// may race manual operator actions; the state guard in the store is the
// only deduplication mechanism, so a stale firing is logged as a warning
// and ignored, never surfaced as an error.
type Lifecycle struct {
	instances outbound.InstanceStore
	bus       *events.Bus
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewLifecycle creates a new lifecycle driver.
func NewLifecycle(instances outbound.InstanceStore, bus *events.Bus, m *metrics.Metrics, logger *zap.Logger) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{
		instances: instances,
		bus:       bus,
		metrics:   m,
		logger:    logger,
	}
}

// BeginCollection opens the response collection window for an instance.
// A no-op unless the instance is pending.
func (l *Lifecycle) BeginCollection(ctx context.Context, instanceID uuid.UUID) error {
	return l.transition(ctx, instanceID, model.InstanceStatePending, model.InstanceStateCollecting)
}

// EndCollection closes the response collection window for an instance.
// A no-op unless the instance is collecting; fired before BeginCollection
// (clock skew) it is ignored with a warning, never retried.
func (l *Lifecycle) EndCollection(ctx context.Context, instanceID uuid.UUID) error {
	return l.transition(ctx, instanceID, model.InstanceStateCollecting, model.InstanceStatePosted)
}

func (l *Lifecycle) transition(ctx context.Context, instanceID uuid.UUID, from, to model.InstanceState) error {
	instance, err := l.instances.Get(ctx, instanceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// A stale callback can outlive an archived instance.
			l.logger.Warn("transition for unknown instance ignored",
				zap.String("instance_id", instanceID.String()),
				zap.String("to_state", string(to)),
			)
			return nil
		}
		return fmt.Errorf("load instance %s: %w", instanceID, err)
	}

	if instance.State != from {
		l.logger.Warn("transition ignored by state guard",
			zap.String("instance_id", instanceID.String()),
			zap.String("state", string(instance.State)),
			zap.String("expected", string(from)),
			zap.String("to_state", string(to)),
		)
		if l.metrics != nil {
			l.metrics.StaleCallbacksTotal.Inc()
		}
		return nil
	}

	updated, err := l.instances.UpdateState(ctx, instanceID, from, to)
	if err != nil {
		return fmt.Errorf("transition instance %s to %s: %w", instanceID, to, err)
	}
	if !updated {
		// Lost a race with a duplicate callback; the winner already
		// advanced the state.
		l.logger.Warn("transition lost state race",
			zap.String("instance_id", instanceID.String()),
			zap.String("to_state", string(to)),
		)
		if l.metrics != nil {
			l.metrics.StaleCallbacksTotal.Inc()
		}
		return nil
	}

	instance.State = to
	l.logger.Info("instance state advanced",
		zap.String("instance_id", instanceID.String()),
		zap.String("team_id", instance.TeamID.String()),
		zap.String("target_date", instance.TargetDate),
		zap.String("state", string(to)),
	)
	if l.metrics != nil {
		l.metrics.TransitionsTotal.WithLabelValues(string(to)).Inc()
	}

	if l.bus != nil {
		switch to {
		case model.InstanceStateCollecting:
			l.bus.Publish(NewCollectionStartedEvent(instance))
		case model.InstanceStatePosted:
			l.bus.Publish(NewCollectionEndedEvent(instance))
		}
	}
	return nil
}
