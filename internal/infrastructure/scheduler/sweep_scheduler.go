package scheduler

import (
	"context"
	"sync"
	"time"

	affiliateapp "github.com/czachandrew/tru-server/internal/application/affiliate"
	offerapp "github.com/czachandrew/tru-server/internal/application/offer"
	storeapp "github.com/czachandrew/tru-server/internal/application/store"
	walletapp "github.com/czachandrew/tru-server/internal/application/wallet"
	"github.com/czachandrew/tru-server/internal/infrastructure/config"
	"go.uber.org/zap"
)

// tickInterval is how often the scheduler checks whether a job is due
const tickInterval = time.Minute

// Job names as persisted in scheduler_jobs
const (
	JobStalledSweep = "affiliate_stalled_sweep"
	JobPayoutRetry  = "payout_retry"
	JobReconcile    = "earnings_reconcile"
	JobCleanup      = "cleanup"
)

// sweepBatchLimit bounds how much one sweep run processes
const sweepBatchLimit = 200

// SweepScheduler runs the periodic maintenance sweeps: re-dispatching
// stalled affiliate tasks, retrying failed payouts, reconciling stale
// projected earnings, and expiring quotes and abandoned carts.
type SweepScheduler struct {
	config  config.SchedulerConfig
	links   *affiliateapp.LinkService
	wallets *walletapp.WalletService
	payouts *walletapp.WithdrawalService
	offers  *offerapp.OfferService
	carts   *storeapp.CartService
	records *JobRecordRepository
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSweepScheduler creates a new sweep scheduler
func NewSweepScheduler(
	cfg config.SchedulerConfig,
	links *affiliateapp.LinkService,
	wallets *walletapp.WalletService,
	payouts *walletapp.WithdrawalService,
	offers *offerapp.OfferService,
	carts *storeapp.CartService,
	records *JobRecordRepository,
	logger *zap.Logger,
) *SweepScheduler {
	return &SweepScheduler{
		config:  cfg,
		links:   links,
		wallets: wallets,
		payouts: payouts,
		offers:  offers,
		carts:   carts,
		records: records,
		logger:  logger,
	}
}

type sweepJob struct {
	name     string
	schedule Schedule
	run      func(ctx context.Context) error
}

// Start launches one goroutine per configured sweep. It is a no-op when the
// scheduler is disabled or already running.
func (s *SweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Sweep scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	jobs, err := s.buildJobs()
	if err != nil {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, job := range jobs {
		s.wg.Add(1)
		go s.runLoop(ctx, job)
	}

	s.logger.Info("Sweep scheduler started", zap.Int("jobs", len(jobs)))
	return nil
}

// Stop stops the scheduler and waits for in-flight sweeps to finish
func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Sweep scheduler stopped")
}

// IsRunning reports whether the scheduler is active
func (s *SweepScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *SweepScheduler) buildJobs() ([]sweepJob, error) {
	specs := []struct {
		name string
		expr string
		run  func(ctx context.Context) error
	}{
		{JobStalledSweep, s.config.StalledSweepSchedule, s.sweepStalled},
		{JobPayoutRetry, s.config.PayoutRetrySchedule, s.retryPayouts},
		{JobReconcile, s.config.ReconcileSchedule, s.reconcileEarnings},
		{JobCleanup, s.config.CleanupSchedule, s.cleanup},
	}

	jobs := make([]sweepJob, 0, len(specs))
	for _, spec := range specs {
		schedule, err := ParseSchedule(spec.expr)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, sweepJob{name: spec.name, schedule: schedule, run: spec.run})
	}
	return jobs, nil
}

func (s *SweepScheduler) runLoop(ctx context.Context, job sweepJob) {
	defer s.wg.Done()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	next := job.schedule.Next(time.Now())
	s.logger.Debug("Sweep job scheduled",
		zap.String("job", job.name),
		zap.Time("next_run", next))

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if now.Before(next) {
				continue
			}
			s.execute(ctx, job)
			next = job.schedule.Next(now)
		}
	}
}

func (s *SweepScheduler) execute(ctx context.Context, job sweepJob) {
	timeout := s.config.JobTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	recordID, recErr := s.records.RecordStart(runCtx, job.name)
	if recErr != nil {
		s.logger.Warn("Failed to record job start",
			zap.String("job", job.name), zap.Error(recErr))
	}

	start := time.Now()
	err := job.run(runCtx)

	if recErr == nil {
		if err := s.records.RecordComplete(runCtx, recordID, err); err != nil {
			s.logger.Warn("Failed to record job completion",
				zap.String("job", job.name), zap.Error(err))
		}
	}

	if err != nil {
		s.logger.Error("Sweep job failed",
			zap.String("job", job.name),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return
	}
	s.logger.Info("Sweep job completed",
		zap.String("job", job.name),
		zap.Duration("took", time.Since(start)))
}

func (s *SweepScheduler) sweepStalled(ctx context.Context) error {
	result, err := s.links.RequeueStalled(ctx)
	if err != nil {
		return err
	}
	if result.Requeued > 0 || result.Abandoned > 0 {
		s.logger.Info("Stalled affiliate tasks swept",
			zap.Int("scanned", result.Scanned),
			zap.Int("requeued", result.Requeued),
			zap.Int("abandoned", result.Abandoned))
	}
	return nil
}

func (s *SweepScheduler) retryPayouts(ctx context.Context) error {
	result, err := s.payouts.RetryFailed(ctx, sweepBatchLimit)
	if err != nil {
		return err
	}
	if result.Scanned > 0 {
		s.logger.Info("Failed payouts retried",
			zap.Int("scanned", result.Scanned),
			zap.Int("succeeded", result.Succeeded),
			zap.Int("failed", result.Failed))
	}
	return nil
}

func (s *SweepScheduler) reconcileEarnings(ctx context.Context) error {
	cancelled, err := s.wallets.ReconcileStaleProjections(ctx, sweepBatchLimit)
	if err != nil {
		return err
	}
	if cancelled > 0 {
		s.logger.Info("Stale projected earnings cancelled", zap.Int("cancelled", cancelled))
	}
	return nil
}

func (s *SweepScheduler) cleanup(ctx context.Context) error {
	expired, err := s.offers.ExpireQuotes(ctx, sweepBatchLimit)
	if err != nil {
		return err
	}
	abandoned, err := s.carts.CleanupStale(ctx, sweepBatchLimit)
	if err != nil {
		return err
	}
	if expired.Expired > 0 || abandoned.Abandoned > 0 {
		s.logger.Info("Cleanup sweep completed",
			zap.Int("quotes_expired", expired.Expired),
			zap.Int("carts_abandoned", abandoned.Abandoned))
	}
	return nil
}
