package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/standsync/server/internal/model"
)

// TeamStore defines team and config persistence operations.
type TeamStore interface {
	// FindTeamsWithActiveConfig lists teams that own at least one active
	// config, with active configs and their member records preloaded.
	FindTeamsWithActiveConfig(ctx context.Context) ([]*model.Team, error)

	// FindTeamWithConfigs retrieves a team with its configs and member
	// records preloaded.
	FindTeamWithConfigs(ctx context.Context, teamID uuid.UUID) (*model.Team, error)
}

// InstanceStore defines standup instance persistence operations. The
// store's uniqueness constraint on (team, target date) is the only
// mechanism guarding concurrent or retried creation.
type InstanceStore interface {
	// CreateIfAbsent atomically inserts an instance unless one already
	// exists for (teamID, targetDate). It returns the stored instance and
	// whether this call created it; on conflict the existing row is
	// returned with created=false.
	CreateIfAbsent(ctx context.Context, teamID uuid.UUID, targetDate string, snapshot model.ConfigSnapshot) (*model.StandupInstance, bool, error)

	// Get retrieves an instance by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.StandupInstance, error)

	// Find retrieves the instance for a team and target date.
	Find(ctx context.Context, teamID uuid.UUID, targetDate string) (*model.StandupInstance, error)

	// UpdateState transitions an instance from one state to another with a
	// guarded compare-and-set. It reports whether the row was updated; a
	// false result means the instance was not in the expected state.
	UpdateState(ctx context.Context, id uuid.UUID, from, to model.InstanceState) (bool, error)

	// FindInState lists instances currently in the given state.
	FindInState(ctx context.Context, state model.InstanceState) ([]*model.StandupInstance, error)

	// DeleteOlderThan removes instances with a target date before the
	// cutoff and returns how many rows were deleted. This is the only
	// deletion path for instances.
	DeleteOlderThan(ctx context.Context, cutoffDate string) (int64, error)
}

// TimedJobKind identifies the lifecycle callback a timed job triggers.
type TimedJobKind string

const (
	JobBeginCollection TimedJobKind = "begin_collection"
	JobEndCollection   TimedJobKind = "end_collection"
	JobReminder        TimedJobKind = "reminder"
)

// TimedJob is the payload of a one-shot scheduled callback. It carries
// only the instance identity; all timing is recomputed from the snapshot
// when the job fires.
type TimedJob struct {
	Kind       TimedJobKind `json:"kind"`
	InstanceID uuid.UUID    `json:"instance_id"`
}

// JobScheduler schedules one-shot callbacks at absolute times.
// Delivery is at-least-once; consumers must be idempotent.
type JobScheduler interface {
	ScheduleAt(ctx context.Context, at time.Time, job TimedJob) error
}

// Notifier delivers standup lifecycle notifications to an external
// messaging gateway. Failures never affect lifecycle transitions.
type Notifier interface {
	CollectionStarted(ctx context.Context, instance *model.StandupInstance) error
	CollectionEnded(ctx context.Context, instance *model.StandupInstance) error
	CollectionReminder(ctx context.Context, instance *model.StandupInstance) error
}

// ResponseReader reads response counts for completion metrics. Response
// content and storage are owned by the answer collection component.
type ResponseReader interface {
	// CountForInstance counts distinct participating members with a
	// stored response for the instance.
	CountForInstance(ctx context.Context, instanceID uuid.UUID) (int, error)
}
