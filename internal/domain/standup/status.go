package standup

import (
	"context"
	"fmt"

	"github.com/standsync/server/internal/model"
	"github.com/standsync/server/internal/port/outbound"
)

// Status provides read-only completion views over an instance. It never
// mutates state; response content is owned by the answer collection
// component and only counts are read here.
type Status struct {
	responses outbound.ResponseReader
}

// NewStatus creates a new status view.
func NewStatus(responses outbound.ResponseReader) *Status {
	return &Status{responses: responses}
}

// IsComplete reports whether every participating member has a stored
// response. An instance with no participating members has nothing
// outstanding and counts as complete.
func (s *Status) IsComplete(ctx context.Context, instance *model.StandupInstance) (bool, error) {
	participants := instance.Snapshot.ParticipantCount()
	if participants == 0 {
		return true, nil
	}
	count, err := s.responses.CountForInstance(ctx, instance.ID)
	if err != nil {
		return false, fmt.Errorf("count responses for %s: %w", instance.ID, err)
	}
	return count >= participants, nil
}

// ResponseRate returns responses divided by participating members. An
// instance with zero participating members has a rate of 0, not an error.
func (s *Status) ResponseRate(ctx context.Context, instance *model.StandupInstance) (float64, error) {
	participants := instance.Snapshot.ParticipantCount()
	if participants == 0 {
		return 0, nil
	}
	count, err := s.responses.CountForInstance(ctx, instance.ID)
	if err != nil {
		return 0, fmt.Errorf("count responses for %s: %w", instance.ID, err)
	}
	return float64(count) / float64(participants), nil
}
