package standup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/standsync/server/internal/domain/schedule"
	"github.com/standsync/server/internal/model"
	"github.com/standsync/server/internal/port/outbound"
	apperrors "github.com/standsync/server/internal/shared/errors"
	"github.com/standsync/server/internal/shared/metrics"
)

// RecoverySummary is the result of one recovery sweep.
type RecoverySummary struct {
	Date      string `json:"date"`
	Recovered int    `json:"recovered"`
	Failed    int    `json:"failed"`
}

// Recovery compensates for missed or failed scheduling runs. It is safe
// to run repeatedly and concurrently with the daily scheduler: creation
// is idempotent, so a race between the two resolves to already-exists
// for the loser.
type Recovery struct {
	teams     outbound.TeamStore
	instances outbound.InstanceStore
	factory   *Factory
	scheduler *Scheduler
	lifecycle *Lifecycle
	metrics   *metrics.Metrics
	logger    *zap.Logger

	// now is injected for tests.
	now func() time.Time
}

// NewRecovery creates a new recovery sweep.
func NewRecovery(
	teams outbound.TeamStore,
	instances outbound.InstanceStore,
	factory *Factory,
	scheduler *Scheduler,
	lifecycle *Lifecycle,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Recovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recovery{
		teams:     teams,
		instances: instances,
		factory:   factory,
		scheduler: scheduler,
		lifecycle: lifecycle,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// RecoverMissed re-runs the due-check for every team with an active
// config and creates the instance for any team that was due on
// targetDate but has none. Per-team failures are counted and never abort
// the sweep. After a complete daily run the sweep is a pure no-op.
func (r *Recovery) RecoverMissed(ctx context.Context, targetDate schedule.Date) (*RecoverySummary, error) {
	teams, err := r.teams.FindTeamsWithActiveConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate teams: %w", err)
	}

	summary := &RecoverySummary{Date: targetDate.String()}

	for _, team := range teams {
		recovered, err := r.recoverTeam(ctx, team, targetDate)
		if err != nil {
			summary.Failed++
			r.logger.Error("team recovery failed",
				zap.String("team_id", team.ID.String()),
				zap.String("team", team.Name),
				zap.String("target_date", targetDate.String()),
				zap.Error(err),
			)
			continue
		}
		if recovered {
			summary.Recovered++
			if r.metrics != nil {
				r.metrics.RecoveredInstancesTotal.Inc()
			}
		}
	}

	if summary.Recovered > 0 || summary.Failed > 0 {
		r.logger.Info("recovery sweep finished",
			zap.String("target_date", summary.Date),
			zap.Int("recovered", summary.Recovered),
			zap.Int("failed", summary.Failed),
		)
	}
	return summary, nil
}

func (r *Recovery) recoverTeam(ctx context.Context, team *model.Team, targetDate schedule.Date) (bool, error) {
	cfg := PrimaryConfig(team.Configs)
	if cfg == nil {
		return false, nil
	}

	due, err := schedule.IsDue(weekdayInts(cfg.Weekdays), team.Timezone, targetDate)
	if err != nil {
		return false, err
	}
	if !due {
		return false, nil
	}

	_, err = r.instances.Find(ctx, team.ID, targetDate.String())
	if err == nil {
		// Instance exists; nothing to recover.
		return false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return false, err
	}

	instance, outcome, err := r.factory.CreateForTeam(ctx, team.ID, targetDate)
	if err != nil {
		return false, err
	}
	if outcome != OutcomeCreated {
		// Lost the race to a concurrent scheduler run, or the config
		// was deactivated since the listing. Either way nothing to do.
		return false, nil
	}

	r.logger.Info("missed instance recovered",
		zap.String("team_id", team.ID.String()),
		zap.String("target_date", targetDate.String()),
		zap.String("instance_id", instance.ID.String()),
	)
	return true, r.scheduler.armWindow(ctx, instance)
}

// CheckOverdue drives instances whose armed callbacks never fired: a
// pending instance past its window start is begun, and a collecting
// instance past its window end is ended. Windows are recomputed from
// snapshots, so this needs no stored timestamps.
func (r *Recovery) CheckOverdue(ctx context.Context) error {
	now := r.now().UTC()

	pending, err := r.instances.FindInState(ctx, model.InstanceStatePending)
	if err != nil {
		return fmt.Errorf("list pending instances: %w", err)
	}
	for _, instance := range pending {
		start, end, err := r.instanceWindow(instance)
		if err != nil {
			r.logger.Warn("skipping instance with malformed snapshot",
				zap.String("instance_id", instance.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !now.Before(start) {
			if err := r.lifecycle.BeginCollection(ctx, instance.ID); err != nil {
				r.logger.Error("overdue begin failed",
					zap.String("instance_id", instance.ID.String()),
					zap.Error(err),
				)
				continue
			}
		}
		if !now.Before(end) {
			if err := r.lifecycle.EndCollection(ctx, instance.ID); err != nil {
				r.logger.Error("overdue end failed",
					zap.String("instance_id", instance.ID.String()),
					zap.Error(err),
				)
			}
		}
	}

	collecting, err := r.instances.FindInState(ctx, model.InstanceStateCollecting)
	if err != nil {
		return fmt.Errorf("list collecting instances: %w", err)
	}
	for _, instance := range collecting {
		_, end, err := r.instanceWindow(instance)
		if err != nil {
			r.logger.Warn("skipping instance with malformed snapshot",
				zap.String("instance_id", instance.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !now.Before(end) {
			if err := r.lifecycle.EndCollection(ctx, instance.ID); err != nil {
				r.logger.Error("overdue end failed",
					zap.String("instance_id", instance.ID.String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// ArchiveOlderThan deletes instances with a target date before the
// cutoff. This retention sweep is the only deletion path for instances
// and never touches lifecycle state.
func (r *Recovery) ArchiveOlderThan(ctx context.Context, cutoff schedule.Date) (int64, error) {
	deleted, err := r.instances.DeleteOlderThan(ctx, cutoff.String())
	if err != nil {
		return 0, fmt.Errorf("archive instances before %s: %w", cutoff, err)
	}
	if deleted > 0 {
		r.logger.Info("archived standup instances",
			zap.String("cutoff", cutoff.String()),
			zap.Int64("deleted", deleted),
		)
	}
	return deleted, nil
}

func (r *Recovery) instanceWindow(instance *model.StandupInstance) (time.Time, time.Time, error) {
	targetDate, err := schedule.ParseDate(instance.TargetDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return schedule.Window(&instance.Snapshot, targetDate)
}
