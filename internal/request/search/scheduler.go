package search

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/harpoonmedia/harpoon/internal/request/lifecycle"
	"github.com/harpoonmedia/harpoon/internal/request/repository"
	pkgerrors "github.com/harpoonmedia/harpoon/pkg/errors"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
	"github.com/harpoonmedia/harpoon/pkg/models"
)

// Options tune the scheduler's ticks and batching.
type Options struct {
	SearchInterval time.Duration
	BatchSize      int
	BatchDelay     time.Duration

	// ExpiryInterval drives the maintenance tick: expiring spent requests and
	// pruning old search logs.
	ExpiryInterval     time.Duration
	ExpiryWindow       time.Duration
	SearchLogRetention time.Duration
}

func (o *Options) withDefaults() {
	if o.SearchInterval <= 0 {
		o.SearchInterval = 5 * time.Minute
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 3
	}
	if o.BatchDelay < 0 {
		o.BatchDelay = 0
	}
	if o.ExpiryInterval <= 0 {
		o.ExpiryInterval = time.Hour
	}
	if o.ExpiryWindow <= 0 {
		o.ExpiryWindow = 14 * 24 * time.Hour
	}
	if o.SearchLogRetention <= 0 {
		o.SearchLogRetention = 30 * 24 * time.Hour
	}
}

// Scheduler runs the periodic search tick: it selects due requests, drives
// indexer queries through the per-content-type strategies in rate-limited
// batches, and routes every outcome through the orchestrator. A companion
// maintenance tick expires spent requests and prunes old search logs.
type Scheduler struct {
	repo       repository.Repository
	orch       *lifecycle.Orchestrator
	strategies map[models.ContentType]ContentStrategy
	logger     interfaces.Logger
	opts       Options

	// searching is the single-flight guard: an overlapping tick is skipped,
	// never queued.
	searching atomic.Bool

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler creates a search scheduler.
func NewScheduler(
	repo repository.Repository,
	orch *lifecycle.Orchestrator,
	strategies map[models.ContentType]ContentStrategy,
	logger interfaces.Logger,
	opts Options,
) *Scheduler {
	opts.withDefaults()
	return &Scheduler{
		repo:       repo,
		orch:       orch,
		strategies: strategies,
		logger:     logger,
		opts:       opts,
		stopCh:     make(chan struct{}),
	}
}

// Start launches the search and maintenance tick loops. They run until Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(2)

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.SearchInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.RunSearchTick(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.ExpiryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.RunMaintenanceTick(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	s.logger.Info("search scheduler started",
		interfaces.Duration("search_interval", s.opts.SearchInterval),
		interfaces.Int("batch_size", s.opts.BatchSize),
		interfaces.Duration("batch_delay", s.opts.BatchDelay))
}

// Stop halts both tick loops and waits for them to exit. An in-progress tick
// finishes its current batch.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	s.logger.Info("search scheduler stopped")
}

// RunSearchTick performs one search pass over the due requests. A tick
// overlapping a still-running one is skipped; that is not an error, the work
// waits for the next tick.
func (s *Scheduler) RunSearchTick(ctx context.Context) {
	if !s.searching.CompareAndSwap(false, true) {
		s.logger.Debug("search tick skipped, previous tick still running")
		return
	}
	defer s.searching.Store(false)

	requests, err := s.repo.ListDueRequests(ctx, time.Now(), 0)
	if err != nil {
		s.logger.Error("failed to list due requests", interfaces.Error(err))
		return
	}
	if len(requests) == 0 {
		return
	}

	s.logger.Info("search tick", interfaces.Int("due_requests", len(requests)))
	s.processBatches(ctx, requests)
}

// SearchRequest runs the per-request search processing for one request
// outside the normal tick, for operator-triggered re-search. Soft-terminal
// requests are re-armed by the orchestrator as part of the search start.
func (s *Scheduler) SearchRequest(ctx context.Context, id uuid.UUID) error {
	request, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	return s.processOne(ctx, request)
}

// SearchAll runs the per-request search processing over every pending
// request, regardless of schedule.
func (s *Scheduler) SearchAll(ctx context.Context) error {
	requests, err := s.repo.ListRequestsByStatus(ctx, models.RequestStatusPending)
	if err != nil {
		return err
	}
	s.processBatches(ctx, requests)
	return nil
}

// RunMaintenanceTick expires pending requests whose retry budget and time
// window are both spent, and prunes search logs past retention.
func (s *Scheduler) RunMaintenanceTick(ctx context.Context) {
	cutoff := time.Now().Add(-s.opts.ExpiryWindow)
	candidates, err := s.repo.ListExpiryCandidates(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to list expiry candidates", interfaces.Error(err))
	} else {
		for _, request := range candidates {
			if _, err := s.orch.MarkExpired(ctx, request.ID); err != nil {
				s.logger.Warn("failed to expire request",
					interfaces.String("request_id", request.ID.String()),
					interfaces.Error(err))
			}
		}
		if len(candidates) > 0 {
			s.logger.Info("expired spent requests", interfaces.Int("count", len(candidates)))
		}
	}

	pruned, err := s.repo.DeleteSearchLogsBefore(ctx, time.Now().Add(-s.opts.SearchLogRetention))
	if err != nil {
		s.logger.Error("failed to prune search logs", interfaces.Error(err))
		return
	}
	if pruned > 0 {
		s.logger.Info("pruned search logs", interfaces.Int64("count", pruned))
	}
}

// processBatches partitions the requests into fixed-size batches with a short
// inter-batch delay, a rate-limit courtesy to the indexer. Requests within a
// batch run concurrently and in isolation: one failure never aborts the rest.
func (s *Scheduler) processBatches(ctx context.Context, requests []*models.Request) {
	for start := 0; start < len(requests); start += s.opts.BatchSize {
		end := start + s.opts.BatchSize
		if end > len(requests) {
			end = len(requests)
		}

		var wg sync.WaitGroup
		for _, request := range requests[start:end] {
			wg.Add(1)
			go func(request *models.Request) {
				defer wg.Done()
				if err := s.processOne(ctx, request); err != nil {
					s.logger.Warn("request search round failed",
						interfaces.String("request_id", request.ID.String()),
						interfaces.String("title", request.Title),
						interfaces.Error(err))
				}
			}(request)
		}
		wg.Wait()

		if end < len(requests) && s.opts.BatchDelay > 0 {
			select {
			case <-time.After(s.opts.BatchDelay):
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			}
		}
	}
}

// processOne runs one full search round for a request: charge the attempt,
// execute the content strategy, write the search log, and route the outcome.
// A SearchLog entry is written regardless of outcome, including on panics and
// errors.
func (s *Scheduler) processOne(ctx context.Context, request *models.Request) (err error) {
	started := time.Now()
	var result *Result

	defer func() {
		if r := recover(); r != nil {
			err = pkgerrors.Internal(fmt.Sprintf("search round panic: %v", r))
		}
		s.writeSearchLog(ctx, request, result, started, err)
	}()

	updated, err := s.orch.StartSearch(ctx, request.ID)
	if err != nil {
		return err
	}

	strategy, ok := s.strategies[updated.ContentType]
	if !ok {
		err = pkgerrors.Internal(fmt.Sprintf("no strategy for content type %q", updated.ContentType))
		s.routeFailure(ctx, updated)
		return err
	}

	result, err = strategy.Execute(ctx, updated)
	if err != nil {
		s.routeFailure(ctx, updated)
		return err
	}

	if result.Initiated {
		if updated.IsOngoing {
			_, err = s.orch.ResumeOngoing(ctx, updated.ID)
		}
		return err
	}

	// Nothing found this round.
	if updated.AttemptsExhausted() {
		_, err = s.orch.MarkFailed(ctx, updated.ID, "search attempts exhausted")
		return err
	}
	_, err = s.orch.DeferSearch(ctx, updated.ID)
	return err
}

// routeFailure settles a request after a failed search round: back to PENDING
// while budget remains, FAILED once it is spent. A request no longer in
// SEARCHING (e.g. cancelled mid-round) is left alone.
func (s *Scheduler) routeFailure(ctx context.Context, request *models.Request) {
	current, err := s.repo.GetRequest(ctx, request.ID)
	if err != nil {
		s.logger.Warn("failed to reload request after search error",
			interfaces.String("request_id", request.ID.String()),
			interfaces.Error(err))
		return
	}
	if current.Status != models.RequestStatusSearching {
		return
	}

	if current.AttemptsExhausted() {
		if _, err := s.orch.MarkFailed(ctx, current.ID, "search attempts exhausted"); err != nil {
			s.logger.Warn("failed to mark request failed",
				interfaces.String("request_id", current.ID.String()),
				interfaces.Error(err))
		}
		return
	}
	if _, err := s.orch.DeferSearch(ctx, current.ID); err != nil {
		s.logger.Warn("failed to defer request search",
			interfaces.String("request_id", current.ID.String()),
			interfaces.Error(err))
	}
}

// writeSearchLog appends the audit record for one search round. Errored
// rounds are tagged with an "error" indexer entry and zero results.
func (s *Scheduler) writeSearchLog(ctx context.Context, request *models.Request, result *Result, started time.Time, roundErr error) {
	log := &models.SearchLog{
		RequestID:  request.ID,
		DurationMS: time.Since(started).Milliseconds(),
	}

	if result != nil {
		log.Query = result.Query
		log.ResultCount = result.ResultCount
		log.Indexers = result.Indexers
		log.Success = result.Initiated
		if result.Candidate != nil {
			log.BestTitle = result.Candidate.Title
		}
	}
	if roundErr != nil {
		log.Success = false
		log.ResultCount = 0
		log.Indexers = []string{"error"}
		log.ErrorMessage = roundErr.Error()
	}

	if err := s.repo.CreateSearchLog(ctx, log); err != nil {
		s.logger.Error("failed to write search log",
			interfaces.String("request_id", request.ID.String()),
			interfaces.Error(err))
	}
}
