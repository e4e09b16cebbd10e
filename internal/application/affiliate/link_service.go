package affiliate

import (
	"context"
	"errors"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/affiliate"
	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LinkService coordinates affiliate link generation between the catalog,
// the task store, and the scraping worker fleet
type LinkService struct {
	linkRepo    affiliate.LinkRepository
	productRepo catalog.ProductRepository
	taskStore   affiliate.TaskStore
	dispatcher  affiliate.Dispatcher
	eventBus    shared.EventPublisher
	// callbackURL is where workers post finished tasks
	callbackURL string
}

// NewLinkService creates a new LinkService
func NewLinkService(
	linkRepo affiliate.LinkRepository,
	productRepo catalog.ProductRepository,
	taskStore affiliate.TaskStore,
	dispatcher affiliate.Dispatcher,
	eventBus shared.EventPublisher,
	callbackURL string,
) *LinkService {
	return &LinkService{
		linkRepo:    linkRepo,
		productRepo: productRepo,
		taskStore:   taskStore,
		dispatcher:  dispatcher,
		eventBus:    eventBus,
		callbackURL: callbackURL,
	}
}

// Generate returns the affiliate link for a product on a platform,
// queueing a generation task when no usable link exists yet. Callers get
// the current link state immediately and poll the task for the URL.
func (s *LinkService) Generate(ctx context.Context, req GenerateLinkRequest) (*LinkResponse, error) {
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	platform := affiliate.Platform(req.Platform)
	platformID := req.PlatformID
	if platformID == "" {
		if platform == affiliate.PlatformAmazon && catalog.IsASIN(product.PartNumber) {
			platformID = product.PartNumber
		} else {
			return nil, shared.NewDomainError("MISSING_PLATFORM_ID",
				"No marketplace identifier available for this product")
		}
	}

	link, err := s.linkRepo.FindByProductAndPlatform(ctx, req.ProductID, platform)
	switch {
	case err == nil:
		// Existing usable links are returned as-is; an in-flight task
		// means someone else already queued generation
		if link.IsAvailable() || link.IsProcessing {
			response := ToLinkResponse(link, nil)
			return &response, nil
		}
	case errors.Is(err, shared.ErrNotFound):
		link, err = affiliate.NewAffiliateLink(req.ProductID, platform, platformID, req.OriginalURL)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	taskID, err := s.queueGeneration(ctx, link)
	if err != nil {
		return nil, err
	}

	response := ToLinkResponse(link, &taskID)
	return &response, nil
}

// GenerateStandalone queues URL generation for a bare ASIN that has no
// catalog product behind it
func (s *LinkService) GenerateStandalone(ctx context.Context, req StandaloneRequest) (*TaskStatusResponse, error) {
	if !catalog.IsASIN(req.ASIN) {
		return nil, shared.NewDomainError("INVALID_ASIN", "Not a valid Amazon ASIN")
	}

	task := affiliate.NewStandaloneTask(req.ASIN)
	if err := s.taskStore.SavePending(ctx, task); err != nil {
		return nil, err
	}
	state := affiliate.TaskState{
		TaskID:    task.ID,
		Status:    affiliate.TaskStatusPending,
		UpdatedAt: time.Now(),
	}
	if err := s.taskStore.SetState(ctx, state, true); err != nil {
		return nil, err
	}
	if err := s.dispatcher.Dispatch(ctx, task, s.callbackURL); err != nil {
		return nil, err
	}

	response := ToTaskStatusResponse(&state)
	return &response, nil
}

// TaskStatus answers a status poll, counting the attempt against the
// polling budget
func (s *LinkService) TaskStatus(ctx context.Context, taskID uuid.UUID, standalone bool) (*TaskStatusResponse, error) {
	state, err := s.taskStore.GetState(ctx, taskID, standalone)
	if err != nil {
		return nil, err
	}

	if state.Status == affiliate.TaskStatusPending || state.Status == affiliate.TaskStatusProcessing {
		state.Attempts++
		if state.Attempts >= affiliate.MaxStatusAttempts {
			state.Status = affiliate.TaskStatusStalled
		}
		state.UpdatedAt = time.Now()
		if err := s.taskStore.SetState(ctx, *state, standalone); err != nil {
			return nil, err
		}
	}

	response := ToTaskStatusResponse(state)
	return &response, nil
}

// Callback ingests a worker's result for a task
func (s *LinkService) Callback(ctx context.Context, req CallbackRequest) error {
	task, err := s.taskStore.TakePending(ctx, req.TaskID)
	if err != nil {
		return err
	}
	if task == nil {
		// Task expired or was already answered; nothing to update
		return shared.NewDomainError("UNKNOWN_TASK", "Task is not pending")
	}

	state := affiliate.TaskState{
		TaskID:       req.TaskID,
		Status:       affiliate.TaskStatusCompleted,
		AffiliateURL: req.AffiliateURL,
		Error:        req.Error,
		UpdatedAt:    time.Now(),
	}
	if req.Error != "" || req.AffiliateURL == "" {
		state.Status = affiliate.TaskStatusFailed
	}

	if task.IsStandalone() {
		return s.taskStore.SetState(ctx, state, true)
	}

	link, err := s.linkRepo.FindByID(ctx, *task.LinkID)
	if err != nil {
		return err
	}

	if req.Error != "" {
		link.FailGeneration(req.Error)
	} else {
		link.CompleteGeneration(req.AffiliateURL)
	}
	if link.HasError() {
		state.Status = affiliate.TaskStatusFailed
		state.AffiliateURL = ""
	}

	if err := s.linkRepo.Save(ctx, link); err != nil {
		return err
	}
	s.publishEvents(ctx, link)

	return s.taskStore.SetState(ctx, state, false)
}

// GetByProduct returns all links for a product
func (s *LinkService) GetByProduct(ctx context.Context, productID uuid.UUID) ([]LinkResponse, error) {
	links, err := s.linkRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	responses := make([]LinkResponse, 0, len(links))
	for i := range links {
		responses = append(responses, ToLinkResponse(&links[i], nil))
	}
	return responses, nil
}

// Click records a click and returns the URL to redirect the visitor to
func (s *LinkService) Click(ctx context.Context, linkID uuid.UUID) (string, error) {
	link, err := s.linkRepo.FindByID(ctx, linkID)
	if err != nil {
		return "", err
	}
	if !link.IsAvailable() {
		return "", shared.NewDomainError("LINK_UNAVAILABLE", "Affiliate link is not ready")
	}

	link.RecordClick()
	if err := s.linkRepo.Save(ctx, link); err != nil {
		return "", err
	}
	s.publishEvents(ctx, link)

	return link.AffiliateURL, nil
}

// RecordConversion attributes a purchase to a link. When the reporting
// platform resolved the earning user, the wallet listens for the resulting
// event and projects that user's earning.
func (s *LinkService) RecordConversion(ctx context.Context, linkID uuid.UUID, revenue decimal.Decimal, orderRef string, userID *uuid.UUID) (*LinkResponse, error) {
	link, err := s.linkRepo.FindByID(ctx, linkID)
	if err != nil {
		return nil, err
	}

	if err := link.RecordConversion(revenue, orderRef, userID); err != nil {
		return nil, err
	}
	if err := s.linkRepo.Save(ctx, link); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, link)

	response := ToLinkResponse(link, nil)
	return &response, nil
}

// RequeueStalled re-dispatches tasks that have gone unanswered for too
// long and abandons those whose links disappeared. Run from the scheduler.
func (s *LinkService) RequeueStalled(ctx context.Context) (*RequeueResponse, error) {
	tasks, err := s.taskStore.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	result := &RequeueResponse{Scanned: len(tasks)}
	now := time.Now()

	for _, task := range tasks {
		if !task.IsStalled(now) {
			continue
		}

		if task.IsStandalone() {
			// Standalone lookups have no durable record to requeue from
			state := affiliate.TaskState{
				TaskID:    task.ID,
				Status:    affiliate.TaskStatusFailed,
				Error:     "worker did not answer in time",
				UpdatedAt: now,
			}
			if err := s.taskStore.SetState(ctx, state, true); err != nil {
				return result, err
			}
			result.Abandoned++
			continue
		}

		link, err := s.linkRepo.FindByID(ctx, *task.LinkID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				result.Abandoned++
				continue
			}
			return result, err
		}

		link.ClearProcessing()
		if _, err := s.queueGeneration(ctx, link); err != nil {
			return result, err
		}
		result.Requeued++
	}

	return result, nil
}

// RegenerateFailed queues fresh tasks for links whose generation failed
func (s *LinkService) RegenerateFailed(ctx context.Context, limit int) (*RequeueResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	links, err := s.linkRepo.FindNeedingRegeneration(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := &RequeueResponse{Scanned: len(links)}
	for i := range links {
		if _, err := s.queueGeneration(ctx, &links[i]); err != nil {
			if errors.Is(err, shared.ErrLinkProcessing) {
				continue
			}
			return result, err
		}
		result.Requeued++
	}
	return result, nil
}

// queueGeneration marks the link in-flight, persists the task, and hands
// it to the worker
func (s *LinkService) queueGeneration(ctx context.Context, link *affiliate.AffiliateLink) (uuid.UUID, error) {
	if err := link.BeginProcessing(); err != nil {
		return uuid.Nil, err
	}
	if err := s.linkRepo.Save(ctx, link); err != nil {
		return uuid.Nil, err
	}

	task := affiliate.NewTask(link)
	if err := s.taskStore.SavePending(ctx, task); err != nil {
		return uuid.Nil, err
	}
	state := affiliate.TaskState{
		TaskID:    task.ID,
		Status:    affiliate.TaskStatusPending,
		UpdatedAt: time.Now(),
	}
	if err := s.taskStore.SetState(ctx, state, false); err != nil {
		return uuid.Nil, err
	}
	if err := s.dispatcher.Dispatch(ctx, task, s.callbackURL); err != nil {
		return uuid.Nil, err
	}

	return task.ID, nil
}

func (s *LinkService) publishEvents(ctx context.Context, link *affiliate.AffiliateLink) {
	if s.eventBus == nil {
		return
	}
	_ = s.eventBus.Publish(ctx, link.GetDomainEvents()...)
	link.ClearDomainEvents()
}
