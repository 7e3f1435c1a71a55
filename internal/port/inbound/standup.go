package inbound

import (
	"context"

	"github.com/google/uuid"

	"github.com/standsync/server/internal/domain/schedule"
	"github.com/standsync/server/internal/domain/standup"
)

// StandupScheduling is the contract the standup scheduling core exposes
// to thin callers such as the HTTP layer or an ops CLI.
type StandupScheduling interface {
	// RunForDate runs the daily scheduler for a target date.
	RunForDate(ctx context.Context, targetDate schedule.Date) (*standup.RunSummary, error)

	// RecoverMissed runs the recovery sweep for a target date.
	RecoverMissed(ctx context.Context, targetDate schedule.Date) (*standup.RecoverySummary, error)

	// CheckOverdue drives lifecycle transitions whose callbacks were lost.
	CheckOverdue(ctx context.Context) error

	// ArchiveOlderThan removes instances older than the cutoff date.
	ArchiveOlderThan(ctx context.Context, cutoff schedule.Date) (int64, error)

	// NextDueDate returns the team's next due date, or nil when none.
	NextDueDate(ctx context.Context, teamID uuid.UUID) (*schedule.Date, error)

	// IsDueToday reports whether the team's schedule is due on the date.
	IsDueToday(ctx context.Context, teamID uuid.UUID, targetDate schedule.Date) (bool, error)

	// GetInstanceStatus loads an instance with completion metrics.
	GetInstanceStatus(ctx context.Context, instanceID uuid.UUID) (*standup.InstanceStatus, error)
}
