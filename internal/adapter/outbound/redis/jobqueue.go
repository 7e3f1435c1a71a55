package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/standsync/server/internal/port/outbound"
	"github.com/standsync/server/internal/shared/metrics"
)

const jobQueueKey = "standsync:timed_jobs"

// retryDelay is how long a failed job waits before the poller sees it
// again.
const retryDelay = 30 * time.Second

// JobHandler processes a fired timed job. Returning an error leaves the
// job in the queue for redelivery, so handlers must be idempotent.
type JobHandler func(ctx context.Context, job outbound.TimedJob) error

// JobQueue implements outbound.JobScheduler on a Redis sorted set: the
// member is the serialized job, the score its fire time. Delivery is
// at-least-once; a job is only removed after its handler succeeds, and
// horizontally scaled pollers may each deliver the same job once. The
// state guards downstream make that safe.
type JobQueue struct {
	client       redis.UniversalClient
	handler      JobHandler
	pollInterval time.Duration
	metrics      *metrics.Metrics
	logger       *zap.Logger

	stopCh chan struct{}
	doneWg sync.WaitGroup
}

// NewJobQueue creates a new Redis-backed timed job queue. The handler
// is attached afterwards with SetHandler so the queue can be built
// before the service that consumes its jobs.
func NewJobQueue(client redis.UniversalClient, pollInterval time.Duration, m *metrics.Metrics, logger *zap.Logger) *JobQueue {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobQueue{
		client:       client,
		pollInterval: pollInterval,
		metrics:      m,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}
}

// SetHandler attaches the job handler. Must be called before Start.
func (q *JobQueue) SetHandler(handler JobHandler) {
	q.handler = handler
}

// ScheduleAt adds a one-shot job firing at the given time. Scheduling
// the same job twice collapses to one entry because the member encoding
// is deterministic.
func (q *JobQueue) ScheduleAt(ctx context.Context, at time.Time, job outbound.TimedJob) error {
	member, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.ZAdd(ctx, jobQueueKey, redis.Z{
		Score:  float64(at.Unix()),
		Member: string(member),
	}).Err()
}

// Start launches the poll loop. Panics when no handler has been set;
// that is a wiring bug, not a runtime condition.
func (q *JobQueue) Start() {
	if q.handler == nil {
		panic("redis: job queue started without a handler")
	}
	q.doneWg.Add(1)
	go q.pollLoop()
	q.logger.Info("timed job queue started",
		zap.Duration("poll_interval", q.pollInterval),
	)
}

// Stop signals the poll loop to stop and waits for it to finish.
func (q *JobQueue) Stop() {
	close(q.stopCh)
	q.doneWg.Wait()
	q.logger.Info("timed job queue stopped")
}

func (q *JobQueue) pollLoop() {
	defer q.doneWg.Done()

	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.deliverDue(context.Background())
		}
	}
}

// deliverDue fires every job whose score has passed. Successful jobs are
// removed; failed jobs are pushed retryDelay into the future so a
// persistently failing job cannot hot-loop the poller.
func (q *JobQueue) deliverDue(ctx context.Context) {
	now := time.Now().Unix()
	members, err := q.client.ZRangeByScore(ctx, jobQueueKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now, 10),
	}).Result()
	if err != nil {
		q.logger.Error("poll timed jobs", zap.Error(err))
		return
	}

	for _, member := range members {
		var job outbound.TimedJob
		if err := json.Unmarshal([]byte(member), &job); err != nil {
			// Unparseable entries can never succeed; drop them.
			q.logger.Error("dropping malformed timed job", zap.String("member", member), zap.Error(err))
			if err := q.client.ZRem(ctx, jobQueueKey, member).Err(); err != nil {
				q.logger.Error("remove malformed timed job", zap.Error(err))
			}
			continue
		}

		if err := q.handler(ctx, job); err != nil {
			q.logger.Error("timed job failed",
				zap.String("kind", string(job.Kind)),
				zap.String("instance_id", job.InstanceID.String()),
				zap.Error(err),
			)
			rescore := q.client.ZAdd(ctx, jobQueueKey, redis.Z{
				Score:  float64(time.Now().Add(retryDelay).Unix()),
				Member: member,
			})
			if err := rescore.Err(); err != nil {
				q.logger.Error("reschedule failed timed job",
					zap.String("kind", string(job.Kind)),
					zap.Error(err),
				)
			}
			continue
		}

		if err := q.client.ZRem(ctx, jobQueueKey, member).Err(); err != nil {
			// The job already ran; a failed ZRem means at most one redelivery.
			q.logger.Error("remove delivered timed job", zap.Error(err))
		}
		if q.metrics != nil {
			q.metrics.JobsFiredTotal.WithLabelValues(string(job.Kind)).Inc()
		}
		q.logger.Debug("timed job delivered",
			zap.String("kind", string(job.Kind)),
			zap.String("instance_id", job.InstanceID.String()),
		)
	}
}
