package standup

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/standsync/server/internal/domain/schedule"
	"github.com/standsync/server/internal/model"
	"github.com/standsync/server/internal/port/outbound"
	"github.com/standsync/server/internal/shared/metrics"
)

// SkipReason categorizes why a team produced no new instance during a
// run. Skips are expected outcomes of a normal run, not failures.
type SkipReason string

const (
	SkipNotScheduledDay SkipReason = "not_scheduled_day"
	SkipAlreadyExists   SkipReason = "already_exists"
	SkipNoActiveConfig  SkipReason = "no_active_config"
	SkipTeamNotFound    SkipReason = "team_not_found"
)

// TeamError records a per-team failure inside a run.
type TeamError struct {
	TeamID  uuid.UUID `json:"team_id"`
	Team    string    `json:"team"`
	Message string    `json:"message"`
}

// RunSummary is the accumulated result of one scheduling run.
type RunSummary struct {
	Date      string             `json:"date"`
	Processed int                `json:"processed"`
	Created   int                `json:"created"`
	Skipped   int                `json:"skipped"`
	Errored   int                `json:"errored"`
	Skips     map[SkipReason]int `json:"skips"`
	Errors    []TeamError        `json:"errors"`
}

// Scheduler materializes due standup instances for a date and arms their
// lifecycle callbacks. Teams are processed independently: one team's
// failure never aborts the rest, and duplicate concurrent runs are safe
// because creation is idempotent.
type Scheduler struct {
	teams   outbound.TeamStore
	factory *Factory
	jobs    outbound.JobScheduler
	cfg     *Config
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewScheduler creates a new daily scheduler.
func NewScheduler(
	teams outbound.TeamStore,
	factory *Factory,
	jobs outbound.JobScheduler,
	cfg *Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Scheduler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Validate()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		teams:   teams,
		factory: factory,
		jobs:    jobs,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// RunForDate runs the scheduler over every team with an active config.
// Only the team enumeration itself is fatal; everything after that is
// accumulated into the summary.
func (s *Scheduler) RunForDate(ctx context.Context, targetDate schedule.Date) (*RunSummary, error) {
	teams, err := s.teams.FindTeamsWithActiveConfig(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.SchedulingRunsTotal.WithLabelValues("failed").Inc()
		}
		return nil, fmt.Errorf("enumerate teams: %w", err)
	}

	summary := &RunSummary{
		Date:  targetDate.String(),
		Skips: make(map[SkipReason]int),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.cfg.WorkerCount)

	for _, team := range teams {
		wg.Add(1)
		sem <- struct{}{}
		go func(team *model.Team) {
			defer wg.Done()
			defer func() { <-sem }()

			created, skip, err := s.processTeam(ctx, team, targetDate)

			mu.Lock()
			defer mu.Unlock()
			summary.Processed++
			switch {
			case err != nil:
				summary.Errored++
				summary.Errors = append(summary.Errors, TeamError{
					TeamID:  team.ID,
					Team:    team.Name,
					Message: err.Error(),
				})
				s.logger.Error("team scheduling failed",
					zap.String("team_id", team.ID.String()),
					zap.String("team", team.Name),
					zap.String("target_date", targetDate.String()),
					zap.Error(err),
				)
				if s.metrics != nil {
					s.metrics.TeamErrorsTotal.Inc()
				}
			case skip != "":
				summary.Skipped++
				summary.Skips[skip]++
				if s.metrics != nil {
					s.metrics.SchedulingSkipsTotal.WithLabelValues(string(skip)).Inc()
				}
			case created:
				summary.Created++
				if s.metrics != nil {
					s.metrics.InstancesCreatedTotal.Inc()
				}
			}
		}(team)
	}
	wg.Wait()

	s.logger.Info("scheduling run finished",
		zap.String("target_date", summary.Date),
		zap.Int("processed", summary.Processed),
		zap.Int("created", summary.Created),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errored", summary.Errored),
	)
	if s.metrics != nil {
		s.metrics.SchedulingRunsTotal.WithLabelValues("completed").Inc()
	}
	return summary, nil
}

// processTeam handles one team: due-check, creation, callback arming.
// A panic in team processing is converted to a per-team error so it
// cannot take down the run.
func (s *Scheduler) processTeam(ctx context.Context, team *model.Team, targetDate schedule.Date) (created bool, skip SkipReason, err error) {
	defer func() {
		if r := recover(); r != nil {
			created, skip, err = false, "", fmt.Errorf("panic: %v", r)
		}
	}()

	cfg := PrimaryConfig(team.Configs)
	if cfg == nil {
		return false, SkipNoActiveConfig, nil
	}

	due, err := schedule.IsDue(weekdayInts(cfg.Weekdays), team.Timezone, targetDate)
	if err != nil {
		return false, "", err
	}
	if !due {
		return false, SkipNotScheduledDay, nil
	}

	instance, outcome, err := s.factory.CreateForTeam(ctx, team.ID, targetDate)
	if err != nil {
		return false, "", err
	}
	switch outcome {
	case OutcomeAlreadyExists:
		return false, SkipAlreadyExists, nil
	case OutcomeNoActiveConfig:
		return false, SkipNoActiveConfig, nil
	case OutcomeTeamNotFound:
		return false, SkipTeamNotFound, nil
	}

	if err := s.armWindow(ctx, instance); err != nil {
		// The instance exists; the overdue sweep will drive its
		// lifecycle if these callbacks were lost.
		return false, "", fmt.Errorf("arm callbacks: %w", err)
	}
	return true, "", nil
}

// armWindow computes the collection window and schedules the begin and
// end callbacks, plus a reminder when the snapshot configures a lead.
// Callbacks carry the instance id only.
func (s *Scheduler) armWindow(ctx context.Context, instance *model.StandupInstance) error {
	targetDate, err := schedule.ParseDate(instance.TargetDate)
	if err != nil {
		return err
	}
	start, end, err := schedule.Window(&instance.Snapshot, targetDate)
	if err != nil {
		return err
	}

	if err := s.jobs.ScheduleAt(ctx, start, outbound.TimedJob{
		Kind:       outbound.JobBeginCollection,
		InstanceID: instance.ID,
	}); err != nil {
		return fmt.Errorf("schedule begin: %w", err)
	}
	if err := s.jobs.ScheduleAt(ctx, end, outbound.TimedJob{
		Kind:       outbound.JobEndCollection,
		InstanceID: instance.ID,
	}); err != nil {
		return fmt.Errorf("schedule end: %w", err)
	}
	if s.metrics != nil {
		s.metrics.JobsScheduledTotal.WithLabelValues(string(outbound.JobBeginCollection)).Inc()
		s.metrics.JobsScheduledTotal.WithLabelValues(string(outbound.JobEndCollection)).Inc()
	}

	if at := schedule.ReminderAt(end, instance.Snapshot.ReminderLeadMinutes); at != nil {
		if err := s.jobs.ScheduleAt(ctx, *at, outbound.TimedJob{
			Kind:       outbound.JobReminder,
			InstanceID: instance.ID,
		}); err != nil {
			return fmt.Errorf("schedule reminder: %w", err)
		}
		if s.metrics != nil {
			s.metrics.JobsScheduledTotal.WithLabelValues(string(outbound.JobReminder)).Inc()
		}
	}

	s.logger.Debug("collection window armed",
		zap.String("instance_id", instance.ID.String()),
		zap.Time("start", start),
		zap.Time("end", end),
	)
	return nil
}

// weekdayInts converts a stored weekday array to plain ints.
func weekdayInts(days pq.Int32Array) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		out = append(out, int(d))
	}
	return out
}
