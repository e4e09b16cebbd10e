package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/czachandrew/tru-server/internal/domain/affiliate"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// taskMessage is the payload published to the worker fleet. Field names
// match what the Puppeteer workers expect.
type taskMessage struct {
	TaskID      string `json:"taskId"`
	ASIN        string `json:"asin"`
	Platform    string `json:"platform"`
	CallbackURL string `json:"callbackUrl"`
	Standalone  bool   `json:"standalone"`
}

// RedisDispatcher hands tasks to an external worker fleet over Redis pub/sub
type RedisDispatcher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisDispatcher creates a dispatcher publishing on the given channel
func NewRedisDispatcher(client *redis.Client, channel string, logger *zap.Logger) *RedisDispatcher {
	if channel == "" {
		channel = "affiliate_tasks"
	}
	return &RedisDispatcher{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

// Dispatch publishes the task for any listening worker to claim
func (d *RedisDispatcher) Dispatch(ctx context.Context, task affiliate.Task, callbackURL string) error {
	msg := taskMessage{
		TaskID:      task.ID.String(),
		ASIN:        task.ASIN,
		Platform:    string(task.Platform),
		CallbackURL: callbackURL,
		Standalone:  task.IsStandalone(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal task message: %w", err)
	}

	receivers, err := d.client.Publish(ctx, d.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("failed to publish task: %w", err)
	}

	d.logger.Info("Dispatched affiliate task",
		zap.String("task_id", msg.TaskID),
		zap.String("platform", msg.Platform),
		zap.String("channel", d.channel),
		zap.Int64("receivers", receivers))

	if receivers == 0 {
		d.logger.Warn("No workers subscribed to task channel",
			zap.String("channel", d.channel))
	}
	return nil
}

// Ensure RedisDispatcher implements Dispatcher
var _ affiliate.Dispatcher = (*RedisDispatcher)(nil)
