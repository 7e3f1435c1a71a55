// Package notify holds Notifier adapters. The real messaging gateway
// lives outside this subsystem; the logging notifier stands in for it
// and is the default wiring.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/standsync/server/internal/model"
)

// LoggingNotifier implements outbound.Notifier by logging deliveries.
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier creates a notifier that logs instead of delivering.
func NewLoggingNotifier(logger *zap.Logger) *LoggingNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingNotifier{logger: logger}
}

func (n *LoggingNotifier) CollectionStarted(ctx context.Context, instance *model.StandupInstance) error {
	n.logger.Info("collection started notification",
		zap.String("instance_id", instance.ID.String()),
		zap.String("team_id", instance.TeamID.String()),
		zap.String("target_date", instance.TargetDate),
		zap.Int("participants", instance.Snapshot.ParticipantCount()),
	)
	return nil
}

func (n *LoggingNotifier) CollectionEnded(ctx context.Context, instance *model.StandupInstance) error {
	n.logger.Info("collection ended notification",
		zap.String("instance_id", instance.ID.String()),
		zap.String("team_id", instance.TeamID.String()),
		zap.String("target_date", instance.TargetDate),
	)
	return nil
}

func (n *LoggingNotifier) CollectionReminder(ctx context.Context, instance *model.StandupInstance) error {
	n.logger.Info("collection reminder notification",
		zap.String("instance_id", instance.ID.String()),
		zap.String("team_id", instance.TeamID.String()),
		zap.String("target_date", instance.TargetDate),
	)
	return nil
}
