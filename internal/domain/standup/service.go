package standup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/standsync/server/internal/domain/schedule"
	"github.com/standsync/server/internal/model"
	"github.com/standsync/server/internal/port/outbound"
	apperrors "github.com/standsync/server/internal/shared/errors"
)

// Service is the facade the transport layer and the job queue talk to.
// It composes the scheduler, recovery sweep, lifecycle driver and status
// views behind one contract.
type Service struct {
	scheduler *Scheduler
	recovery  *Recovery
	lifecycle *Lifecycle
	status    *Status
	teams     outbound.TeamStore
	instances outbound.InstanceStore
	notifier  outbound.Notifier
	logger    *zap.Logger

	// now is injected for tests.
	now func() time.Time
}

// NewService creates the standup scheduling service.
func NewService(
	scheduler *Scheduler,
	recovery *Recovery,
	lifecycle *Lifecycle,
	status *Status,
	teams outbound.TeamStore,
	instances outbound.InstanceStore,
	notifier outbound.Notifier,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		scheduler: scheduler,
		recovery:  recovery,
		lifecycle: lifecycle,
		status:    status,
		teams:     teams,
		instances: instances,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// RunForDate runs the daily scheduler for a target date.
func (s *Service) RunForDate(ctx context.Context, targetDate schedule.Date) (*RunSummary, error) {
	return s.scheduler.RunForDate(ctx, targetDate)
}

// RecoverMissed runs the recovery sweep for a target date.
func (s *Service) RecoverMissed(ctx context.Context, targetDate schedule.Date) (*RecoverySummary, error) {
	return s.recovery.RecoverMissed(ctx, targetDate)
}

// CheckOverdue drives lifecycle transitions whose callbacks were lost.
func (s *Service) CheckOverdue(ctx context.Context) error {
	return s.recovery.CheckOverdue(ctx)
}

// ArchiveOlderThan removes instances older than the cutoff date.
func (s *Service) ArchiveOlderThan(ctx context.Context, cutoff schedule.Date) (int64, error) {
	return s.recovery.ArchiveOlderThan(ctx, cutoff)
}

// NextDueDate returns the next date the team's schedule is due, starting
// from today in the team's timezone, or nil when the team has no active
// config or an empty weekday set.
func (s *Service) NextDueDate(ctx context.Context, teamID uuid.UUID) (*schedule.Date, error) {
	team, err := s.teams.FindTeamWithConfigs(ctx, teamID)
	if err != nil {
		return nil, err
	}
	cfg := PrimaryConfig(team.Configs)
	if cfg == nil {
		return nil, nil
	}

	today, err := s.localToday(team.Timezone)
	if err != nil {
		return nil, err
	}
	return schedule.NextDueDate(weekdayInts(cfg.Weekdays), team.Timezone, today)
}

// IsDueToday reports whether the team's schedule is due on the given date.
func (s *Service) IsDueToday(ctx context.Context, teamID uuid.UUID, targetDate schedule.Date) (bool, error) {
	team, err := s.teams.FindTeamWithConfigs(ctx, teamID)
	if err != nil {
		return false, err
	}
	cfg := PrimaryConfig(team.Configs)
	if cfg == nil {
		return false, nil
	}
	return schedule.IsDue(weekdayInts(cfg.Weekdays), team.Timezone, targetDate)
}

// InstanceStatus is a read-only completion view over an instance.
type InstanceStatus struct {
	Instance     *model.StandupInstance `json:"instance"`
	Complete     bool                   `json:"complete"`
	ResponseRate float64                `json:"response_rate"`
}

// GetInstanceStatus loads an instance with its completion metrics.
func (s *Service) GetInstanceStatus(ctx context.Context, instanceID uuid.UUID) (*InstanceStatus, error) {
	instance, err := s.instances.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	complete, err := s.status.IsComplete(ctx, instance)
	if err != nil {
		return nil, err
	}
	rate, err := s.status.ResponseRate(ctx, instance)
	if err != nil {
		return nil, err
	}
	return &InstanceStatus{
		Instance:     instance,
		Complete:     complete,
		ResponseRate: rate,
	}, nil
}

// HandleTimedJob dispatches a fired one-shot callback to the lifecycle
// driver. Delivery is at-least-once, so every branch is idempotent.
func (s *Service) HandleTimedJob(ctx context.Context, job outbound.TimedJob) error {
	switch job.Kind {
	case outbound.JobBeginCollection:
		return s.lifecycle.BeginCollection(ctx, job.InstanceID)
	case outbound.JobEndCollection:
		return s.lifecycle.EndCollection(ctx, job.InstanceID)
	case outbound.JobReminder:
		return s.remind(ctx, job.InstanceID)
	default:
		return fmt.Errorf("unknown timed job kind %q", job.Kind)
	}
}

// remind sends a reminder while the instance is still collecting. A
// reminder for an instance in any other state, or for an instance that
// no longer exists, is stale and dropped.
func (s *Service) remind(ctx context.Context, instanceID uuid.UUID) error {
	instance, err := s.instances.Get(ctx, instanceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// A stale reminder can outlive an archived instance.
			s.logger.Warn("reminder for unknown instance dropped",
				zap.String("instance_id", instanceID.String()),
			)
			return nil
		}
		return err
	}
	if instance.State != model.InstanceStateCollecting {
		s.logger.Debug("dropping stale reminder",
			zap.String("instance_id", instanceID.String()),
			zap.String("state", string(instance.State)),
		)
		return nil
	}
	if err := s.notifier.CollectionReminder(ctx, instance); err != nil {
		// Reminder delivery is best effort; do not trigger redelivery.
		s.logger.Error("reminder delivery failed",
			zap.String("instance_id", instanceID.String()),
			zap.Error(err),
		)
	}
	return nil
}

func (s *Service) localToday(tz string) (schedule.Date, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return schedule.Date{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return schedule.DateOf(s.now().In(loc)), nil
}
