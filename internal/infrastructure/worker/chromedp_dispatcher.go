package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/czachandrew/tru-server/internal/domain/affiliate"
	"go.uber.org/zap"
)

const defaultScrapeTimeout = 45 * time.Second

// ChromedpConfig configures the in-process resolver
type ChromedpConfig struct {
	// Timeout bounds a single page load
	Timeout time.Duration
	// AmazonTag is the Associates tracking tag appended to resolved links
	AmazonTag string
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
}

// ChromedpDispatcher resolves affiliate URLs in-process with a headless
// browser instead of handing tasks to an external worker fleet. It is meant
// for development and small deployments; results are posted back through
// the same callback endpoint external workers use.
type ChromedpDispatcher struct {
	config     ChromedpConfig
	httpClient *http.Client
	logger     *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	wg          sync.WaitGroup
}

// NewChromedpDispatcher creates the in-process dispatcher and its shared
// Chrome allocator
func NewChromedpDispatcher(config ChromedpConfig, logger *zap.Logger) (*ChromedpDispatcher, error) {
	if config.Timeout == 0 {
		config.Timeout = defaultScrapeTimeout
	}
	if config.AmazonTag == "" {
		return nil, fmt.Errorf("chromedp dispatcher requires an Amazon associate tag")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
	)
	if config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromedpDispatcher{
		config:      config,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Dispatch resolves the task in a background goroutine and posts the
// result to the callback URL
func (d *ChromedpDispatcher) Dispatch(ctx context.Context, task affiliate.Task, callbackURL string) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		affiliateURL, err := d.resolve(task)

		result := struct {
			TaskID       string `json:"task_id"`
			AffiliateURL string `json:"affiliate_url"`
			Error        string `json:"error"`
			Standalone   bool   `json:"standalone"`
		}{
			TaskID:       task.ID.String(),
			AffiliateURL: affiliateURL,
			Standalone:   task.IsStandalone(),
		}
		if err != nil {
			result.Error = err.Error()
			d.logger.Warn("In-process link resolution failed",
				zap.String("task_id", result.TaskID),
				zap.Error(err))
		}

		if err := d.postResult(callbackURL, result); err != nil {
			d.logger.Error("Failed to deliver task result",
				zap.String("task_id", result.TaskID),
				zap.Error(err))
		}
	}()
	return nil
}

// Close waits for in-flight scrapes and releases the browser allocator
func (d *ChromedpDispatcher) Close() {
	d.wg.Wait()
	d.allocCancel()
}

// resolve loads the product page to confirm the listing exists, then builds
// the tagged URL. Only Amazon is resolvable in-process.
func (d *ChromedpDispatcher) resolve(task affiliate.Task) (string, error) {
	if task.Platform != affiliate.PlatformAmazon {
		return "", fmt.Errorf("platform %s requires the external worker fleet", task.Platform)
	}

	productURL := "https://www.amazon.com/dp/" + url.PathEscape(task.ASIN)

	taskCtx, cancel := chromedp.NewContext(d.allocCtx)
	defer cancel()
	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, d.config.Timeout)
	defer timeoutCancel()

	var title string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(productURL),
		chromedp.Title(&title),
	)
	if err != nil {
		return "", fmt.Errorf("failed to load product page: %w", err)
	}
	if title == "" || strings.Contains(title, "Page Not Found") {
		return "", fmt.Errorf("no listing found for ASIN %s", task.ASIN)
	}

	return productURL + "?tag=" + url.QueryEscape(d.config.AmazonTag), nil
}

func (d *ChromedpDispatcher) postResult(callbackURL string, result any) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("callback request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return nil
}

// Ensure ChromedpDispatcher implements Dispatcher
var _ affiliate.Dispatcher = (*ChromedpDispatcher)(nil)
