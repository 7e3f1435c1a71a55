package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/standsync/server/internal/model"
	apperrors "github.com/standsync/server/internal/shared/errors"
)

// ========== Team Adapter ==========

// TeamAdapter implements outbound.TeamStore.
type TeamAdapter struct {
	db *gorm.DB
}

// NewTeamAdapter creates a new team adapter.
func NewTeamAdapter(db *gorm.DB) *TeamAdapter {
	return &TeamAdapter{db: db}
}

func (a *TeamAdapter) FindTeamsWithActiveConfig(ctx context.Context) ([]*model.Team, error) {
	var teams []*model.Team
	err := a.db.WithContext(ctx).
		Where("EXISTS (SELECT 1 FROM standup_configs sc WHERE sc.team_id = teams.id AND sc.active)").
		Preload("Configs", "active = ?", true).
		Preload("Configs.Members").
		Order("teams.created_at ASC").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (a *TeamAdapter) FindTeamWithConfigs(ctx context.Context, teamID uuid.UUID) (*model.Team, error) {
	var team model.Team
	err := a.db.WithContext(ctx).
		Preload("Configs").
		Preload("Configs.Members").
		Where("id = ?", teamID).
		First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("team")
		}
		return nil, err
	}
	return &team, nil
}

// ========== Instance Adapter ==========

// InstanceAdapter implements outbound.InstanceStore. The table's unique
// index on (team_id, target_date) is the idempotency boundary for
// creation; no advisory locks are taken.
type InstanceAdapter struct {
	db *gorm.DB
}

// NewInstanceAdapter creates a new instance adapter.
func NewInstanceAdapter(db *gorm.DB) *InstanceAdapter {
	return &InstanceAdapter{db: db}
}

func (a *InstanceAdapter) CreateIfAbsent(ctx context.Context, teamID uuid.UUID, targetDate string, snapshot model.ConfigSnapshot) (*model.StandupInstance, bool, error) {
	instance := &model.StandupInstance{
		TeamID:     teamID,
		TargetDate: targetDate,
		State:      model.InstanceStatePending,
		Snapshot:   snapshot,
	}

	res := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "team_id"}, {Name: "target_date"}},
			DoNothing: true,
		}).
		Create(instance)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		// Conflict: another caller created the row first. Return it.
		existing, err := a.Find(ctx, teamID, targetDate)
		if err != nil {
			return nil, false, fmt.Errorf("load conflicting instance: %w", err)
		}
		return existing, false, nil
	}
	return instance, true, nil
}

func (a *InstanceAdapter) Get(ctx context.Context, id uuid.UUID) (*model.StandupInstance, error) {
	var instance model.StandupInstance
	err := a.db.WithContext(ctx).
		Where("id = ?", id).
		First(&instance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("standup instance")
		}
		return nil, err
	}
	return &instance, nil
}

func (a *InstanceAdapter) Find(ctx context.Context, teamID uuid.UUID, targetDate string) (*model.StandupInstance, error) {
	var instance model.StandupInstance
	err := a.db.WithContext(ctx).
		Where("team_id = ? AND target_date = ?", teamID, targetDate).
		First(&instance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("standup instance")
		}
		return nil, err
	}
	return &instance, nil
}

// UpdateState performs a guarded compare-and-set on the instance state.
// RowsAffected tells the caller whether it won the transition.
func (a *InstanceAdapter) UpdateState(ctx context.Context, id uuid.UUID, from, to model.InstanceState) (bool, error) {
	res := a.db.WithContext(ctx).
		Model(&model.StandupInstance{}).
		Where("id = ? AND state = ?", id, from).
		Update("state", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (a *InstanceAdapter) FindInState(ctx context.Context, state model.InstanceState) ([]*model.StandupInstance, error) {
	var instances []*model.StandupInstance
	err := a.db.WithContext(ctx).
		Where("state = ?", state).
		Order("target_date ASC").
		Find(&instances).Error
	if err != nil {
		return nil, err
	}
	return instances, nil
}

func (a *InstanceAdapter) DeleteOlderThan(ctx context.Context, cutoffDate string) (int64, error) {
	res := a.db.WithContext(ctx).
		Where("target_date < ?", cutoffDate).
		Delete(&model.StandupInstance{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ========== Response Reader ==========

// ResponseReaderAdapter implements outbound.ResponseReader over the
// answer collection component's table. Only counts are read; the schema
// is owned elsewhere.
type ResponseReaderAdapter struct {
	db *gorm.DB
}

// NewResponseReaderAdapter creates a new response reader.
func NewResponseReaderAdapter(db *gorm.DB) *ResponseReaderAdapter {
	return &ResponseReaderAdapter{db: db}
}

func (a *ResponseReaderAdapter) CountForInstance(ctx context.Context, instanceID uuid.UUID) (int, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Table("standup_responses").
		Where("instance_id = ?", instanceID).
		Distinct("user_id").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
