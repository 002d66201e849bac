package downloads

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harpoonmedia/harpoon/internal/request/lifecycle"
	"github.com/harpoonmedia/harpoon/internal/request/repository"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
	"github.com/harpoonmedia/harpoon/pkg/models"
)

// Tracker is the periodic progress poll. Every tick it asks the aggregator
// about each in-flight download, whole-request handles and sub-tracker handle
// records alike, and routes completion or failure through the orchestrator.
// Per-download work is isolated: one download's failure never aborts the tick
// for the rest.
type Tracker struct {
	repo      repository.Repository
	orch      *lifecycle.Orchestrator
	agg       *Aggregator
	organizer interfaces.FileOrganizer
	logger    interfaces.Logger

	pollInterval time.Duration

	polling  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewTracker creates a progress tracker. organizer may be nil; file
// organization is then skipped.
func NewTracker(
	repo repository.Repository,
	orch *lifecycle.Orchestrator,
	agg *Aggregator,
	organizer interfaces.FileOrganizer,
	logger interfaces.Logger,
	pollInterval time.Duration,
) *Tracker {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &Tracker{
		repo:         repo,
		orch:         orch,
		agg:          agg,
		organizer:    organizer,
		logger:       logger,
		pollInterval: pollInterval,
		stopCh:       make(chan struct{}),
	}
}

// Start launches the poll loop. It runs until Stop.
func (t *Tracker) Start(ctx context.Context) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.RunTick(ctx)
			case <-t.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	t.logger.Info("progress tracker started", interfaces.Duration("poll_interval", t.pollInterval))
}

// Stop halts the poll loop and waits for it to exit.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
	t.wg.Wait()
	t.logger.Info("progress tracker stopped")
}

// RunTick polls every in-flight download once. An overlapping tick is
// skipped, not queued.
func (t *Tracker) RunTick(ctx context.Context) {
	if !t.polling.CompareAndSwap(false, true) {
		t.logger.Debug("tracker tick skipped, previous tick still running")
		return
	}
	defer t.polling.Store(false)

	requests, err := t.repo.ListRequestsByStatus(ctx, models.RequestStatusDownloading)
	if err != nil {
		t.logger.Error("failed to list downloading requests", interfaces.Error(err))
	} else {
		for _, request := range requests {
			t.pollRequest(ctx, request)
		}
	}

	downloads, err := t.repo.ListActiveTorrentDownloads(ctx)
	if err != nil {
		t.logger.Error("failed to list active torrent downloads", interfaces.Error(err))
		return
	}
	for _, download := range downloads {
		t.pollTorrentDownload(ctx, download)
	}
}

// pollRequest handles a simple (movie/game/one-shot) download tracked on the
// request itself.
func (t *Tracker) pollRequest(ctx context.Context, request *models.Request) {
	defer t.recoverPanic("request", request.ID.String())

	if request.DownloadGID == "" {
		t.logger.Warn("downloading request has no engine handle",
			interfaces.String("request_id", request.ID.String()))
		return
	}

	view, err := t.agg.Status(ctx, request.DownloadGID)
	if err != nil {
		// Transient engine trouble; the next tick retries.
		t.logger.Warn("failed to aggregate download status",
			interfaces.String("request_id", request.ID.String()),
			interfaces.String("gid", request.DownloadGID),
			interfaces.Error(err))
		return
	}

	switch {
	case view.Complete():
		t.organizeFiles(ctx, request, view)
		if _, err := t.orch.MarkCompleted(ctx, request.ID); err != nil {
			t.logger.Error("failed to complete request",
				interfaces.String("request_id", request.ID.String()),
				interfaces.Error(err))
		}
	case view.Failed():
		reason := view.ErrorMessage
		if reason == "" {
			reason = "download failed in engine"
		}
		if _, err := t.orch.MarkFailed(ctx, request.ID, reason); err != nil {
			t.logger.Error("failed to fail request",
				interfaces.String("request_id", request.ID.String()),
				interfaces.Error(err))
		}
	}
}

// pollTorrentDownload handles a sub-tracker download: season packs and
// individual episodes of ongoing series. Completion routes through the
// season/episode-aware orchestrator methods so TV granularity is respected.
func (t *Tracker) pollTorrentDownload(ctx context.Context, download *models.TorrentDownload) {
	defer t.recoverPanic("torrent_download", download.ID.String())

	view, err := t.agg.Status(ctx, download.GID)
	if err != nil {
		t.logger.Warn("failed to aggregate torrent download status",
			interfaces.String("download_id", download.ID.String()),
			interfaces.String("gid", download.GID),
			interfaces.Error(err))
		return
	}

	switch {
	case view.Complete():
		if err := t.orch.MarkTorrentDownloadCompleted(ctx, download.ID); err != nil {
			t.logger.Error("failed to complete torrent download",
				interfaces.String("download_id", download.ID.String()),
				interfaces.Error(err))
			return
		}
		t.routeCompletion(ctx, download, view)
	case view.Failed():
		reason := view.ErrorMessage
		if reason == "" {
			reason = "download failed in engine"
		}
		if err := t.orch.MarkTorrentDownloadFailed(ctx, download.ID, reason); err != nil {
			t.logger.Error("failed to fail torrent download",
				interfaces.String("download_id", download.ID.String()),
				interfaces.Error(err))
			return
		}
		t.routeFailure(ctx, download, reason)
	}
}

func (t *Tracker) routeCompletion(ctx context.Context, download *models.TorrentDownload, view *models.DownloadStatusView) {
	var err error
	switch {
	case download.SeasonID != nil:
		err = t.orch.MarkSeasonPackCompleted(ctx, *download.SeasonID)
	case download.EpisodeID != nil:
		err = t.orch.MarkEpisodeCompleted(ctx, *download.EpisodeID)
	default:
		// A handle record with no sub-tracker belongs to the request as a
		// whole.
		request, getErr := t.repo.GetRequest(ctx, download.RequestID)
		if getErr != nil {
			err = getErr
			break
		}
		t.organizeFiles(ctx, request, view)
		_, err = t.orch.MarkCompleted(ctx, download.RequestID)
	}
	if err != nil {
		t.logger.Error("failed to route download completion",
			interfaces.String("download_id", download.ID.String()),
			interfaces.Error(err))
	}
}

func (t *Tracker) routeFailure(ctx context.Context, download *models.TorrentDownload, reason string) {
	var err error
	switch {
	case download.SeasonID != nil:
		err = t.orch.MarkSeasonPackFailed(ctx, *download.SeasonID, reason)
	case download.EpisodeID != nil:
		err = t.orch.MarkEpisodeFailed(ctx, *download.EpisodeID, reason)
	default:
		_, err = t.orch.MarkFailed(ctx, download.RequestID, reason)
	}
	if err != nil {
		t.logger.Error("failed to route download failure",
			interfaces.String("download_id", download.ID.String()),
			interfaces.Error(err))
	}
}

// organizeFiles hands each organizable downloaded file to the organizer with
// hints extracted from the file and release names. Best-effort: failures are
// logged and never block completion.
func (t *Tracker) organizeFiles(ctx context.Context, request *models.Request, view *models.DownloadStatusView) {
	if t.organizer == nil {
		return
	}

	for _, path := range OrganizableFiles(view.FilePaths) {
		hintSource := path
		if request.FoundTitle != "" {
			hintSource = fmt.Sprintf("%s %s", request.FoundTitle, path)
		}
		result, err := t.organizer.OrganizeFile(ctx, interfaces.OrganizeFileRequest{
			RequestID:   request.ID,
			SourcePath:  path,
			Title:       request.Title,
			Year:        request.Year,
			ContentType: string(request.ContentType),
			Quality:     ExtractQuality(hintSource),
			Format:      ExtractFormat(hintSource),
			Edition:     ExtractEdition(hintSource),
		})
		if err != nil {
			t.logger.Warn("file organization failed",
				interfaces.String("request_id", request.ID.String()),
				interfaces.String("path", path),
				interfaces.Error(err))
			continue
		}
		if result != nil && !result.Success {
			t.logger.Warn("organizer rejected file",
				interfaces.String("request_id", request.ID.String()),
				interfaces.String("path", path),
				interfaces.String("reason", result.Error))
		}
	}
}

func (t *Tracker) recoverPanic(kind, id string) {
	if r := recover(); r != nil {
		t.logger.Error("tracker tick item panicked",
			interfaces.String("kind", kind),
			interfaces.String("id", id),
			interfaces.Any("panic", r))
	}
}
