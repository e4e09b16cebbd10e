package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/czachandrew/tru-server/internal/domain/affiliate"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	pendingKeyPrefix          = "pending_affiliate_task:"
	statusKeyPrefix           = "affiliate_task_status:"
	standaloneStatusKeyPrefix = "standalone_task_status:"

	// scanBatchSize bounds each SCAN page during the pending-task sweep
	scanBatchSize = 100
)

// RedisTaskStore persists in-flight affiliate tasks in Redis so that the
// API, the worker fleet, and the stalled-task sweep all see the same state
type RedisTaskStore struct {
	client *redis.Client
}

// NewRedisTaskStore creates a task store backed by an existing Redis client
func NewRedisTaskStore(client *redis.Client) *RedisTaskStore {
	return &RedisTaskStore{client: client}
}

// SavePending stores a claimable task under pending_affiliate_task:{id}
// with the task TTL
func (s *RedisTaskStore) SavePending(ctx context.Context, task affiliate.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	key := pendingKeyPrefix + task.ID.String()
	if err := s.client.Set(ctx, key, payload, affiliate.TaskTTL).Err(); err != nil {
		return fmt.Errorf("failed to store pending task: %w", err)
	}
	return nil
}

// TakePending atomically retrieves and removes a pending task. Returns
// (nil, nil) when the task has expired or was already claimed.
func (s *RedisTaskStore) TakePending(ctx context.Context, taskID uuid.UUID) (*affiliate.Task, error) {
	key := pendingKeyPrefix + taskID.String()

	payload, err := s.client.GetDel(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to take pending task: %w", err)
	}

	var task affiliate.Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

// ListPending scans all claimable tasks for the stalled-task sweep
func (s *RedisTaskStore) ListPending(ctx context.Context) ([]affiliate.Task, error) {
	var tasks []affiliate.Task

	iter := s.client.Scan(ctx, 0, pendingKeyPrefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		payload, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Expired between SCAN and GET
				continue
			}
			return nil, fmt.Errorf("failed to read pending task: %w", err)
		}

		var task affiliate.Task
		if err := json.Unmarshal(payload, &task); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan pending tasks: %w", err)
	}

	return tasks, nil
}

// PendingTaskCount counts claimable tasks without deserializing them.
// Feeds the pending-task gauge.
func (s *RedisTaskStore) PendingTaskCount(ctx context.Context) (int64, error) {
	var count int64

	iter := s.client.Scan(ctx, 0, pendingKeyPrefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan pending tasks: %w", err)
	}

	return count, nil
}

// SetState writes the poll-visible task state with the task TTL
func (s *RedisTaskStore) SetState(ctx context.Context, state affiliate.TaskState, standalone bool) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal task state: %w", err)
	}

	if err := s.client.Set(ctx, statusKey(state.TaskID, standalone), payload, affiliate.TaskTTL).Err(); err != nil {
		return fmt.Errorf("failed to store task state: %w", err)
	}
	return nil
}

// GetState reads the poll-visible task state
func (s *RedisTaskStore) GetState(ctx context.Context, taskID uuid.UUID, standalone bool) (*affiliate.TaskState, error) {
	payload, err := s.client.Get(ctx, statusKey(taskID, standalone)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read task state: %w", err)
	}

	var state affiliate.TaskState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task state: %w", err)
	}
	return &state, nil
}

func statusKey(taskID uuid.UUID, standalone bool) string {
	if standalone {
		return standaloneStatusKeyPrefix + taskID.String()
	}
	return statusKeyPrefix + taskID.String()
}

// Ensure RedisTaskStore implements TaskStore
var _ affiliate.TaskStore = (*RedisTaskStore)(nil)
