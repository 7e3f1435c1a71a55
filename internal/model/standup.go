package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// InstanceState represents the lifecycle state of a standup instance.
type InstanceState string

const (
	InstanceStatePending    InstanceState = "pending"
	InstanceStateCollecting InstanceState = "collecting"
	InstanceStatePosted     InstanceState = "posted"
)

// IsValid checks if the state is a known lifecycle state.
func (s InstanceState) IsValid() bool {
	switch s {
	case InstanceStatePending, InstanceStateCollecting, InstanceStatePosted:
		return true
	default:
		return false
	}
}

// Next returns the state that follows s in the lifecycle, or empty when s
// is terminal. No transition skips a state.
func (s InstanceState) Next() InstanceState {
	switch s {
	case InstanceStatePending:
		return InstanceStateCollecting
	case InstanceStateCollecting:
		return InstanceStatePosted
	default:
		return ""
	}
}

// Team represents a team that runs standups.
type Team struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null"`
	Timezone  string    `json:"timezone" gorm:"not null;default:UTC"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations (not loaded by default)
	Configs []StandupConfig `json:"configs,omitempty" gorm:"foreignKey:TeamID"`
}

// TableName returns the database table name.
func (Team) TableName() string {
	return "teams"
}

// StandupConfig represents a team's recurring standup configuration.
// A team may own several configs; only active ones participate in
// scheduling. Weekdays use 0-6 with Sunday as 0.
type StandupConfig struct {
	ID                   uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TeamID               uuid.UUID      `json:"team_id" gorm:"type:uuid;not null;index"`
	Questions            pq.StringArray `json:"questions" gorm:"type:text[]"`
	Weekdays             pq.Int32Array  `json:"weekdays" gorm:"type:integer[]"`
	LocalTime            string         `json:"local_time" gorm:"not null;default:09:00"`
	ResponseTimeoutHours int            `json:"response_timeout_hours" gorm:"not null;default:4"`
	ReminderLeadMinutes  int            `json:"reminder_lead_minutes" gorm:"not null;default:0"`
	Active               bool           `json:"active" gorm:"not null;default:true"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`

	// Relations (not loaded by default)
	Members []ConfigMember `json:"members,omitempty" gorm:"foreignKey:ConfigID"`
}

// TableName returns the database table name.
func (StandupConfig) TableName() string {
	return "standup_configs"
}

// ConfigMember represents a member record on a standup config.
// Participation requires an explicit include record; members without one
// are excluded.
type ConfigMember struct {
	ConfigID  uuid.UUID `json:"config_id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	Include   bool      `json:"include" gorm:"not null;default:false"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (ConfigMember) TableName() string {
	return "config_members"
}

// SnapshotMember is a participating member captured in a config snapshot.
type SnapshotMember struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role,omitempty"`
}

// ConfigSnapshot is an immutable copy of a config's scheduling settings,
// captured when an instance is created. Later config or team edits never
// alter it.
type ConfigSnapshot struct {
	ConfigID             uuid.UUID        `json:"config_id"`
	Questions            []string         `json:"questions"`
	Weekdays             []int            `json:"weekdays"`
	LocalTime            string           `json:"local_time"`
	Timezone             string           `json:"timezone"`
	ResponseTimeoutHours int              `json:"response_timeout_hours"`
	ReminderLeadMinutes  int              `json:"reminder_lead_minutes"`
	Members              []SnapshotMember `json:"members"`
}

// ParticipantCount returns the number of participating members.
func (s *ConfigSnapshot) ParticipantCount() int {
	return len(s.Members)
}

// StandupInstance is one concrete occurrence of a team's standup for one
// local calendar date. At most one instance exists per (team, target date);
// the composite unique index is the idempotency boundary for creation.
type StandupInstance struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TeamID     uuid.UUID      `json:"team_id" gorm:"type:uuid;not null;uniqueIndex:idx_standup_instances_team_date"`
	TargetDate string         `json:"target_date" gorm:"not null;uniqueIndex:idx_standup_instances_team_date"`
	State      InstanceState  `json:"state" gorm:"not null;default:pending"`
	Snapshot   ConfigSnapshot `json:"snapshot" gorm:"type:jsonb;serializer:json"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName returns the database table name.
func (StandupInstance) TableName() string {
	return "standup_instances"
}
