package affiliate

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskStatus tracks an asynchronous link-generation task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusStalled    TaskStatus = "stalled"
)

const (
	// TaskTTL is how long a pending task stays claimable before it expires
	TaskTTL = 24 * time.Hour

	// MaxStatusAttempts bounds the status polling schedule
	MaxStatusAttempts = 12

	// StalledAfter is the age at which an unanswered task counts as stalled
	StalledAfter = time.Hour
)

// Task is the unit of work handed to the scraping worker
type Task struct {
	ID        uuid.UUID  `json:"task_id"`
	LinkID    *uuid.UUID `json:"link_id,omitempty"` // nil for standalone lookups
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	ASIN      string     `json:"asin"`
	Platform  Platform   `json:"platform"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewTask creates a generation task bound to an affiliate link
func NewTask(link *AffiliateLink) Task {
	return Task{
		ID:        uuid.New(),
		LinkID:    &link.ID,
		ProductID: &link.ProductID,
		ASIN:      link.PlatformID,
		Platform:  link.Platform,
		CreatedAt: time.Now(),
	}
}

// NewStandaloneTask creates a task for an ASIN with no product record yet
func NewStandaloneTask(asin string) Task {
	return Task{
		ID:        uuid.New(),
		ASIN:      asin,
		Platform:  PlatformAmazon,
		CreatedAt: time.Now(),
	}
}

// IsStandalone reports whether the task has no backing link
func (t Task) IsStandalone() bool {
	return t.LinkID == nil
}

// IsStalled reports whether the task has been unanswered for too long
func (t Task) IsStalled(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= StalledAfter
}

// StatusBackoff returns the delay before the given status poll attempt:
// 10s, 20s, 40s, ... doubling each retry
func StatusBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return 10 * time.Second << uint(attempt)
}

// TaskState is the poll-visible state of a task
type TaskState struct {
	TaskID       uuid.UUID  `json:"task_id"`
	Status       TaskStatus `json:"status"`
	Attempts     int        `json:"attempts"`
	AffiliateURL string     `json:"affiliate_url,omitempty"`
	Error        string     `json:"error,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TaskStore persists in-flight tasks and their poll-visible state
type TaskStore interface {
	// SavePending stores a claimable task with TaskTTL
	SavePending(ctx context.Context, task Task) error

	// TakePending retrieves and removes a pending task, if still present
	TakePending(ctx context.Context, taskID uuid.UUID) (*Task, error)

	// ListPending returns all pending tasks (for the stalled-task sweep)
	ListPending(ctx context.Context) ([]Task, error)

	// SetState writes the poll-visible task state
	SetState(ctx context.Context, state TaskState, standalone bool) error

	// GetState reads the poll-visible task state
	GetState(ctx context.Context, taskID uuid.UUID, standalone bool) (*TaskState, error)
}

// Dispatcher hands tasks to whatever worker fleet resolves affiliate URLs
type Dispatcher interface {
	// Dispatch queues a task for the worker; callbackURL is where the
	// worker posts its result
	Dispatch(ctx context.Context, task Task, callbackURL string) error
}
