package worker

import (
	"fmt"

	"github.com/czachandrew/tru-server/internal/domain/affiliate"
	"github.com/czachandrew/tru-server/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewDispatcher builds the dispatcher selected by worker.mode
func NewDispatcher(cfg *config.Config, client *redis.Client, logger *zap.Logger) (affiliate.Dispatcher, error) {
	switch cfg.Worker.Mode {
	case "redis", "":
		return NewRedisDispatcher(client, cfg.Worker.Channel, logger), nil
	case "chromedp":
		return NewChromedpDispatcher(ChromedpConfig{
			Timeout:   cfg.Worker.ChromedpTimeout,
			AmazonTag: cfg.Affiliate.AmazonTag,
			NoSandbox: true,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown worker mode: %s", cfg.Worker.Mode)
	}
}
