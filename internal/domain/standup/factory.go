package standup

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/standsync/server/internal/domain/schedule"
	"github.com/standsync/server/internal/model"
	"github.com/standsync/server/internal/port/outbound"
	apperrors "github.com/standsync/server/internal/shared/errors"
)

// CreateOutcome categorizes the result of an instance creation attempt.
type CreateOutcome string

const (
	OutcomeCreated        CreateOutcome = "created"
	OutcomeAlreadyExists  CreateOutcome = "already_exists"
	OutcomeNoActiveConfig CreateOutcome = "no_active_config"
	OutcomeTeamNotFound   CreateOutcome = "team_not_found"
)

// Factory creates standup instances. It performs no locking: the store's
// uniqueness constraint on (team, target date) is the idempotency
// boundary, so retries and the recovery sweep may call CreateForTeam
// concurrently for the same pair.
type Factory struct {
	teams     outbound.TeamStore
	instances outbound.InstanceStore
	logger    *zap.Logger
}

// NewFactory creates a new instance factory.
func NewFactory(teams outbound.TeamStore, instances outbound.InstanceStore, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		teams:     teams,
		instances: instances,
		logger:    logger,
	}
}

// PrimaryConfig returns the config that drives scheduling for a team: the
// most recently created active config. This is the single tie-break rule
// for teams with several active configs; every read path goes through it.
func PrimaryConfig(configs []model.StandupConfig) *model.StandupConfig {
	var newest *model.StandupConfig
	for i := range configs {
		cfg := &configs[i]
		if !cfg.Active {
			continue
		}
		if newest == nil || cfg.CreatedAt.After(newest.CreatedAt) {
			newest = cfg
		}
	}
	return newest
}

// BuildSnapshot freezes a config into an immutable snapshot. Questions
// and weekdays are copied, the team's timezone is captured, and only
// members with an explicit include record participate.
func BuildSnapshot(team *model.Team, cfg *model.StandupConfig) model.ConfigSnapshot {
	questions := make([]string, len(cfg.Questions))
	copy(questions, cfg.Questions)

	weekdays := make([]int, 0, len(cfg.Weekdays))
	for _, d := range cfg.Weekdays {
		weekdays = append(weekdays, int(d))
	}

	members := make([]model.SnapshotMember, 0, len(cfg.Members))
	for _, m := range cfg.Members {
		if !m.Include {
			continue
		}
		members = append(members, model.SnapshotMember{
			UserID: m.UserID,
			Role:   m.Role,
		})
	}

	return model.ConfigSnapshot{
		ConfigID:             cfg.ID,
		Questions:            questions,
		Weekdays:             weekdays,
		LocalTime:            cfg.LocalTime,
		Timezone:             team.Timezone,
		ResponseTimeoutHours: cfg.ResponseTimeoutHours,
		ReminderLeadMinutes:  cfg.ReminderLeadMinutes,
		Members:              members,
	}
}

// CreateForTeam creates the instance for a team and target date. Missing
// teams and teams without an active config are outcomes, not errors; the
// caller treats them as skips. On a uniqueness conflict the existing
// instance is returned with OutcomeAlreadyExists.
func (f *Factory) CreateForTeam(ctx context.Context, teamID uuid.UUID, targetDate schedule.Date) (*model.StandupInstance, CreateOutcome, error) {
	team, err := f.teams.FindTeamWithConfigs(ctx, teamID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, OutcomeTeamNotFound, nil
		}
		return nil, "", fmt.Errorf("load team %s: %w", teamID, err)
	}

	cfg := PrimaryConfig(team.Configs)
	if cfg == nil {
		return nil, OutcomeNoActiveConfig, nil
	}

	snapshot := BuildSnapshot(team, cfg)

	instance, created, err := f.instances.CreateIfAbsent(ctx, teamID, targetDate.String(), snapshot)
	if err != nil {
		return nil, "", fmt.Errorf("create instance for team %s on %s: %w", teamID, targetDate, err)
	}
	if !created {
		f.logger.Debug("instance already exists",
			zap.String("team_id", teamID.String()),
			zap.String("target_date", targetDate.String()),
			zap.String("instance_id", instance.ID.String()),
		)
		return instance, OutcomeAlreadyExists, nil
	}

	f.logger.Info("standup instance created",
		zap.String("team_id", teamID.String()),
		zap.String("target_date", targetDate.String()),
		zap.String("instance_id", instance.ID.String()),
		zap.Int("participants", instance.Snapshot.ParticipantCount()),
	)
	return instance, OutcomeCreated, nil
}
