package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
)

// Ensure Queue implements TaskQueue
var _ driven.TaskQueue = (*Queue)(nil)

const (
	taskStream    = "legalese:tasks"
	taskGroup     = "legalese:workers"
	delayedTasks  = "legalese:tasks:delayed"
	taskStatuses  = "legalese:tasks:status"
	taskKeyPrefix = "legalese:task:"

	// taskTTL bounds how long finished task records linger
	taskTTL = 24 * time.Hour

	// claimTimeout is how long a delivered message may sit unacked before
	// another worker takes it over
	claimTimeout = 5 * time.Minute
)

// Queue implements TaskQueue on Redis Streams with a consumer group.
// Task bodies live under legalese:task:<id>; the stream only carries IDs.
// Retries wait in a sorted set scored by their ScheduledFor time.
type Queue struct {
	client       *redis.Client
	consumerName string
}

// NewQueue creates a Redis-backed task queue and makes sure the consumer
// group exists.
func NewQueue(ctx context.Context, client *redis.Client, consumerName string) (*Queue, error) {
	err := client.XGroupCreateMkStream(ctx, taskStream, taskGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}
	return &Queue{client: client, consumerName: consumerName}, nil
}

func msgKey(taskID string) string {
	return taskKeyPrefix + taskID + ":msg"
}

// save writes the task body and its status index entry into pipe
func (q *Queue) save(ctx context.Context, pipe redis.Pipeliner, task *domain.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	pipe.Set(ctx, taskKeyPrefix+task.ID, data, taskTTL)
	pipe.HSet(ctx, taskStatuses, task.ID, string(task.Status))
	return nil
}

func (q *Queue) publish(ctx context.Context, pipe redis.Pipeliner, task *domain.Task) {
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: taskStream,
		Values: map[string]any{
			"task_id": task.ID,
			"type":    string(task.Type),
			"user_id": task.UserID,
		},
	})
}

// Enqueue stores the task and publishes it, or parks it in the delayed set
// when it is scheduled for later.
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	pipe := q.client.TxPipeline()
	if err := q.save(ctx, pipe, task); err != nil {
		return err
	}
	if task.ScheduledFor.After(time.Now()) {
		pipe.ZAdd(ctx, delayedTasks, redis.Z{Score: float64(task.ScheduledFor.UnixMilli()), Member: task.ID})
	} else {
		q.publish(ctx, pipe, task)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

// DequeueWithTimeout returns the next task, blocking on the stream for up to
// timeout seconds. Returns nil, nil when nothing arrived.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	if err := q.promoteDue(ctx); err != nil {
		return nil, fmt.Errorf("promote delayed tasks: %w", err)
	}

	if task, err := q.claimAbandoned(ctx); err != nil || task != nil {
		return task, err
	}

	block := time.Duration(timeout) * time.Second
	if block <= 0 {
		// XREADGROUP treats 0 as forever
		block = time.Millisecond
	}
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    taskGroup,
		Consumer: q.consumerName,
		Streams:  []string{taskStream, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read task stream: %w", err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}
	return q.start(ctx, streams[0].Messages[0])
}

// start loads the task behind a delivered message and marks it processing.
// Messages whose task body has vanished are dropped.
func (q *Queue) start(ctx context.Context, msg redis.XMessage) (*domain.Task, error) {
	taskID, _ := msg.Values["task_id"].(string)
	task, err := q.GetTask(ctx, taskID)
	if errors.Is(err, domain.ErrNotFound) {
		q.client.XAck(ctx, taskStream, taskGroup, msg.ID)
		q.client.XDel(ctx, taskStream, msg.ID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	task.MarkProcessing()
	pipe := q.client.TxPipeline()
	if err := q.save(ctx, pipe, task); err != nil {
		return nil, err
	}
	pipe.Set(ctx, msgKey(task.ID), msg.ID, taskTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("mark task processing: %w", err)
	}
	return task, nil
}

// promoteDue moves delayed tasks whose time has come onto the stream
func (q *Queue) promoteDue(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	ids, err := q.client.ZRangeByScore(ctx, delayedTasks, &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil {
		return err
	}

	for _, id := range ids {
		// ZRem decides which worker promotes a task
		removed, err := q.client.ZRem(ctx, delayedTasks, id).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			continue
		}
		task, err := q.GetTask(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		pipe := q.client.TxPipeline()
		q.publish(ctx, pipe, task)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// claimAbandoned takes over one message a crashed worker left pending
func (q *Queue) claimAbandoned(ctx context.Context) (*domain.Task, error) {
	msgs, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   taskStream,
		Group:    taskGroup,
		Consumer: q.consumerName,
		MinIdle:  claimTimeout,
		Start:    "0-0",
		Count:    1,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("claim abandoned task: %w", err)
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return q.start(ctx, msgs[0])
}

// finish acks the delivery of taskID and stores its final state
func (q *Queue) finish(ctx context.Context, task *domain.Task) error {
	msgID, err := q.client.Get(ctx, msgKey(task.ID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("get message id: %w", err)
	}

	pipe := q.client.TxPipeline()
	if msgID != "" {
		pipe.XAck(ctx, taskStream, taskGroup, msgID)
		pipe.XDel(ctx, taskStream, msgID)
	}
	pipe.Del(ctx, msgKey(task.ID))
	if err := q.save(ctx, pipe, task); err != nil {
		return err
	}
	if task.Status == domain.TaskStatusPending {
		pipe.ZAdd(ctx, delayedTasks, redis.Z{Score: float64(task.ScheduledFor.UnixMilli()), Member: task.ID})
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Ack marks a task completed
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	task.MarkCompleted()
	if err := q.finish(ctx, task); err != nil {
		return fmt.Errorf("ack task: %w", err)
	}
	return nil
}

// Nack records a failure and either delays the task for a retry or marks
// it failed once its attempts are used up
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task.CanRetry() {
		task.Retry(reason)
	} else {
		task.MarkFailed(reason)
	}
	if err := q.finish(ctx, task); err != nil {
		return fmt.Errorf("nack task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID
func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	data, err := q.client.Get(ctx, taskKeyPrefix+taskID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	return &task, nil
}

// PurgeTasks drops status entries of completed and failed tasks last touched
// before cutoff. The task bodies themselves expire after taskTTL.
func (q *Queue) PurgeTasks(ctx context.Context, cutoff time.Time) (int, error) {
	statuses, err := q.client.HGetAll(ctx, taskStatuses).Result()
	if err != nil {
		return 0, fmt.Errorf("read task statuses: %w", err)
	}

	var purged int
	for id, status := range statuses {
		switch domain.TaskStatus(status) {
		case domain.TaskStatusCompleted, domain.TaskStatusFailed:
		default:
			continue
		}
		task, err := q.GetTask(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return purged, err
		}
		if task != nil && !task.UpdatedAt.Before(cutoff) {
			continue
		}
		if err := q.client.HDel(ctx, taskStatuses, id).Err(); err != nil {
			return purged, err
		}
		q.client.Del(ctx, taskKeyPrefix+id)
		purged++
	}
	return purged, nil
}

// Stats counts tasks by status from the status index
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	statuses, err := q.client.HVals(ctx, taskStatuses).Result()
	if err != nil {
		return nil, fmt.Errorf("read task statuses: %w", err)
	}

	stats := &driven.QueueStats{}
	for _, status := range statuses {
		switch domain.TaskStatus(status) {
		case domain.TaskStatusPending:
			stats.PendingCount++
		case domain.TaskStatusProcessing:
			stats.ProcessingCount++
		case domain.TaskStatusCompleted:
			stats.CompletedCount++
		case domain.TaskStatusFailed:
			stats.FailedCount++
		}
	}
	return stats, nil
}

// Ping checks if the queue backend is healthy.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close is a no-op; the Redis client is shared and closed by its owner.
func (q *Queue) Close() error {
	return nil
}
