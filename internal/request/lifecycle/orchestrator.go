package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harpoonmedia/harpoon/internal/request/domain"
	"github.com/harpoonmedia/harpoon/internal/request/repository"
	pkgerrors "github.com/harpoonmedia/harpoon/pkg/errors"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
	"github.com/harpoonmedia/harpoon/pkg/models"
)

// DownloadViewer is the live progress view the orchestrator delegates
// read-only status queries to. Progress and speed are never persisted; they
// are always fetched fresh through this interface.
type DownloadViewer interface {
	Status(ctx context.Context, gid string) (*models.DownloadStatusView, error)
	Summary(ctx context.Context) (*models.DownloadSummary, error)
}

// Orchestrator owns every write to request and sub-entity status. All other
// components request transitions through it; none mutate status directly.
// Each operation validates the edge against the state machine, performs one
// persisted state change, and publishes a transition event.
type Orchestrator struct {
	repo      repository.Repository
	machine   *StateMachine
	engine    interfaces.DownloadEngine
	organizer interfaces.FileOrganizer
	viewer    DownloadViewer
	eventBus  interfaces.EventBus
	logger    interfaces.Logger

	searchBackoff time.Duration
}

// NewOrchestrator creates a lifecycle orchestrator. organizer and viewer may
// be nil; the corresponding side effects and queries are then disabled.
func NewOrchestrator(
	repo repository.Repository,
	engine interfaces.DownloadEngine,
	organizer interfaces.FileOrganizer,
	viewer DownloadViewer,
	eventBus interfaces.EventBus,
	logger interfaces.Logger,
	searchBackoff time.Duration,
) *Orchestrator {
	return &Orchestrator{
		repo:          repo,
		machine:       NewStateMachine(),
		engine:        engine,
		organizer:     organizer,
		viewer:        viewer,
		eventBus:      eventBus,
		logger:        logger,
		searchBackoff: searchBackoff,
	}
}

// Machine exposes the transition table for read-only edge checks.
func (o *Orchestrator) Machine() *StateMachine {
	return o.machine
}

// CreateRequest registers a new request in PENDING.
func (o *Orchestrator) CreateRequest(ctx context.Context, request *models.Request) error {
	if request.Title == "" {
		return pkgerrors.BadRequest("request title is required")
	}
	switch request.ContentType {
	case models.ContentTypeMovie, models.ContentTypeTV, models.ContentTypeGame:
	default:
		return pkgerrors.BadRequest(fmt.Sprintf("unknown content type %q", request.ContentType))
	}
	if request.IsOngoing && request.ContentType != models.ContentTypeTV {
		return pkgerrors.BadRequest("only tv_show requests can be ongoing")
	}
	if request.MaxSearchAttempts <= 0 {
		request.MaxSearchAttempts = 5
	}
	request.Status = models.RequestStatusPending
	return o.repo.CreateRequest(ctx, request)
}

// GetRequest retrieves a request by ID.
func (o *Orchestrator) GetRequest(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	return o.repo.GetRequest(ctx, id)
}

// StartSearch moves a request into SEARCHING and charges one search attempt.
// The attempt is charged before any indexer work so a crash mid-search cannot
// cause infinite reprocessing. Soft-terminal requests are re-armed first, so
// an operator can restart a failed, cancelled or expired request directly.
func (o *Orchestrator) StartSearch(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	request, err := o.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.Status.IsSoftTerminal() {
		o.clearSearchState(request)
		request.Status = models.RequestStatusPending
	}

	request.SearchAttempts++
	now := time.Now()
	request.LastSearchAt = &now

	if err := o.transition(ctx, request, models.RequestStatusSearching, "search started"); err != nil {
		return nil, err
	}
	return request, nil
}

// DeferSearch returns a SEARCHING request to PENDING after a fruitless
// attempt, scheduling the next attempt after the configured backoff. Attempts
// stay charged.
func (o *Orchestrator) DeferSearch(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	request, err := o.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	next := time.Now().Add(o.searchBackoff)
	request.NextSearchAt = &next

	if err := o.transition(ctx, request, models.RequestStatusPending, "no candidate found"); err != nil {
		return nil, err
	}
	return request, nil
}

// ResumeOngoing returns an ongoing request from SEARCHING to PENDING after a
// download was initiated for one of its sub-trackers. The request never enters
// FOUND on this path; acquisition is tracked per season and episode. The
// attempt budget resets so it applies per acquisition round, not per request
// lifetime.
func (o *Orchestrator) ResumeOngoing(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	request, err := o.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !request.IsOngoing {
		return nil, pkgerrors.Conflict(fmt.Sprintf("request %s is not ongoing", id))
	}

	request.SearchAttempts = 0
	request.NextSearchAt = nil

	if err := o.transition(ctx, request, models.RequestStatusPending, "ongoing acquisition continues"); err != nil {
		return nil, err
	}
	return request, nil
}

// MarkFound records the selected candidate and moves the request to FOUND.
func (o *Orchestrator) MarkFound(ctx context.Context, id uuid.UUID, candidate *interfaces.ReleaseCandidate) (*models.Request, error) {
	if candidate == nil {
		return nil, pkgerrors.BadRequest("candidate is required")
	}

	request, err := o.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	request.FoundTitle = candidate.Title
	request.FoundLink = candidate.Link
	request.FoundMagnetURI = candidate.MagnetURI
	request.FoundSize = candidate.Size
	request.FoundSeeders = candidate.Seeders
	request.FoundIndexer = candidate.Indexer

	if err := o.transition(ctx, request, models.RequestStatusFound, "candidate selected"); err != nil {
		return nil, err
	}
	return request, nil
}

// StartDownload records the engine handle and moves the request to
// DOWNLOADING.
func (o *Orchestrator) StartDownload(ctx context.Context, id uuid.UUID, gid string) (*models.Request, error) {
	if gid == "" {
		return nil, pkgerrors.BadRequest("engine gid is required")
	}

	request, err := o.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	request.DownloadGID = gid

	if err := o.transition(ctx, request, models.RequestStatusDownloading, "download started"); err != nil {
		return nil, err
	}
	return request, nil
}

// PauseDownload pauses the engine transfer behind a request. The request
// status is untouched; a paused download is still DOWNLOADING from the
// lifecycle's point of view.
func (o *Orchestrator) PauseDownload(ctx context.Context, id uuid.UUID) error {
	if o.engine == nil {
		return pkgerrors.Internal("download engine not configured")
	}
	request, err := o.repo.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	if request.DownloadGID == "" {
		return pkgerrors.BadRequest(fmt.Sprintf("request %s has no download handle", id))
	}
	return o.engine.Pause(ctx, request.DownloadGID)
}

// ResumeDownload resumes a paused engine transfer. Like PauseDownload it
// never touches the request status.
func (o *Orchestrator) ResumeDownload(ctx context.Context, id uuid.UUID) error {
	if o.engine == nil {
		return pkgerrors.Internal("download engine not configured")
	}
	request, err := o.repo.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	if request.DownloadGID == "" {
		return pkgerrors.BadRequest(fmt.Sprintf("request %s has no download handle", id))
	}
	return o.engine.Unpause(ctx, request.DownloadGID)
}

// MarkCompleted moves a request to COMPLETED and asynchronously hands it to
// the file organizer. Organization is best-effort: a failure is logged and
// never reverts the completed status.
func (o *Orchestrator) MarkCompleted(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	request, err := o.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	request.CompletedAt = &now

	if err := o.transition(ctx, request, models.RequestStatusCompleted, "download complete"); err != nil {
		return nil, err
	}

	if err := o.closeOpenTrackers(ctx, request.ID); err != nil {
		o.logger.Warn("failed to close sub-trackers on completion",
			interfaces.String("request_id", request.ID.String()),
			interfaces.Error(err))
	}

	o.organizeAsync(request.ID)
	return request, nil
}

// closeOpenTrackers completes any season or episode record still open after
// the request itself completed. A whole-request download can satisfy a
// sub-tracker-scoped query, and a record left open would contradict the
// completed request.
func (o *Orchestrator) closeOpenTrackers(ctx context.Context, requestID uuid.UUID) error {
	seasons, err := o.repo.ListSeasons(ctx, requestID)
	if err != nil {
		return err
	}
	for _, season := range seasons {
		if season.Status == models.TrackStatusCompleted || season.Status == models.TrackStatusFailed {
			continue
		}
		season.Status = models.TrackStatusCompleted
		if err := o.repo.UpdateSeason(ctx, season); err != nil {
			return err
		}
	}

	episodes, err := o.repo.ListEpisodes(ctx, requestID)
	if err != nil {
		return err
	}
	for _, episode := range episodes {
		if episode.Status == models.TrackStatusCompleted || episode.Status == models.TrackStatusFailed {
			continue
		}
		episode.Status = models.TrackStatusCompleted
		if err := o.repo.UpdateEpisode(ctx, episode); err != nil {
			return err
		}
	}
	return nil
}

// MarkFailed moves a request to FAILED with a reason.
func (o *Orchestrator) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (*models.Request, error) {
	request, err := o.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	request.FailureReason = reason

	if err := o.transition(ctx, request, models.RequestStatusFailed, reason); err != nil {
		return nil, err
	}
	return request, nil
}

// MarkCancelled cancels a request from any cancellable state. If an engine
// handle is active, removal is requested best-effort; a handle already gone
// from the engine is harmless.
func (o *Orchestrator) MarkCancelled(ctx context.Context, id uuid.UUID, reason string) (*models.Request, error) {
	request, err := o.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if !o.machine.CanCancel(request.Status) {
		return nil, pkgerrors.Conflict(fmt.Sprintf("request %s in status %s cannot be cancelled", id, request.Status))
	}

	if request.DownloadGID != "" && o.engine != nil {
		if err := o.engine.Remove(ctx, request.DownloadGID); err != nil {
			o.logger.Warn("failed to remove engine handle on cancel",
				interfaces.String("request_id", id.String()),
				interfaces.String("gid", request.DownloadGID),
				interfaces.Error(err))
		}
	}

	request.FailureReason = reason

	if err := o.transition(ctx, request, models.RequestStatusCancelled, reason); err != nil {
		return nil, err
	}
	return request, nil
}

// MarkExpired moves a PENDING request whose retry budget and time window are
// both spent to EXPIRED.
func (o *Orchestrator) MarkExpired(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	request, err := o.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := o.transition(ctx, request, models.RequestStatusExpired, "retry budget and time window exhausted"); err != nil {
		return nil, err
	}
	return request, nil
}

// Reset re-arms a soft-terminal request: search attempts, schedule and prior
// selection are cleared and the request re-enters PENDING. This is an
// administrative operation, not a state machine edge.
func (o *Orchestrator) Reset(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	request, err := o.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if !request.Status.IsSoftTerminal() {
		return nil, pkgerrors.Conflict(fmt.Sprintf("request %s in status %s cannot be reset", id, request.Status))
	}

	from := request.Status
	o.clearSearchState(request)
	request.Status = models.RequestStatusPending

	if err := o.repo.UpdateRequest(ctx, request); err != nil {
		return nil, err
	}

	o.eventBus.PublishAsync(ctx, domain.NewRequestTransitionedEvent(request, from, models.RequestStatusPending, "administrative reset"))
	return request, nil
}

// RecordTorrentDownload creates an engine handle record bound to a request
// and, optionally, a season or episode sub-tracker. The bound sub-tracker is
// moved to DOWNLOADING. This is the ongoing-TV path: the request itself stays
// where it is and per-unit progress is tracked on the sub-entities.
func (o *Orchestrator) RecordTorrentDownload(
	ctx context.Context,
	requestID uuid.UUID,
	seasonID, episodeID *uuid.UUID,
	gid string,
	candidate *interfaces.ReleaseCandidate,
) (*models.TorrentDownload, error) {
	if gid == "" {
		return nil, pkgerrors.BadRequest("engine gid is required")
	}

	download := &models.TorrentDownload{
		RequestID: requestID,
		SeasonID:  seasonID,
		EpisodeID: episodeID,
		GID:       gid,
		Status:    models.TrackStatusDownloading,
	}
	if candidate != nil {
		download.Title = candidate.Title
		download.MagnetURI = candidate.MagnetURI
		download.Size = candidate.Size
	}

	if err := o.repo.CreateTorrentDownload(ctx, download); err != nil {
		return nil, err
	}

	if seasonID != nil {
		season, err := o.repo.GetSeason(ctx, *seasonID)
		if err != nil {
			return nil, err
		}
		season.Status = models.TrackStatusDownloading
		season.TorrentDownloadID = &download.ID
		if err := o.repo.UpdateSeason(ctx, season); err != nil {
			return nil, err
		}
	}

	if episodeID != nil {
		episode, err := o.repo.GetEpisode(ctx, *episodeID)
		if err != nil {
			return nil, err
		}
		episode.Status = models.TrackStatusDownloading
		episode.TorrentDownloadID = &download.ID
		if err := o.repo.UpdateEpisode(ctx, episode); err != nil {
			return nil, err
		}
	}

	return download, nil
}

// MarkSeasonPackCompleted marks a season pack download finished. Every
// episode tracked under the season is marked completed with it, the request's
// last known season advances, and the season roll-up runs.
func (o *Orchestrator) MarkSeasonPackCompleted(ctx context.Context, seasonID uuid.UUID) error {
	season, err := o.repo.GetSeason(ctx, seasonID)
	if err != nil {
		return err
	}

	if season.Status != models.TrackStatusCompleted {
		season.Status = models.TrackStatusCompleted
		if err := o.repo.UpdateSeason(ctx, season); err != nil {
			return err
		}

		episodes, err := o.repo.ListSeasonEpisodes(ctx, season.RequestID, season.SeasonNumber)
		if err != nil {
			return err
		}
		for _, episode := range episodes {
			if episode.Status == models.TrackStatusCompleted {
				continue
			}
			episode.Status = models.TrackStatusCompleted
			if err := o.repo.UpdateEpisode(ctx, episode); err != nil {
				return err
			}
		}

		o.eventBus.PublishAsync(ctx, domain.NewSeasonCompletedEvent(season.RequestID, season.SeasonNumber))
	}

	return o.rollUp(ctx, season.RequestID, season.SeasonNumber)
}

// MarkSeasonPackFailed marks a season pack download failed. The season stays
// eligible for re-acquisition, including the per-episode fallback.
func (o *Orchestrator) MarkSeasonPackFailed(ctx context.Context, seasonID uuid.UUID, reason string) error {
	season, err := o.repo.GetSeason(ctx, seasonID)
	if err != nil {
		return err
	}

	if season.Status != models.TrackStatusFailed {
		season.Status = models.TrackStatusFailed
		season.TorrentDownloadID = nil
		if err := o.repo.UpdateSeason(ctx, season); err != nil {
			return err
		}
		o.logger.Warn("season pack download failed",
			interfaces.String("request_id", season.RequestID.String()),
			interfaces.Int("season", season.SeasonNumber),
			interfaces.String("reason", reason))
	}

	return o.rollUp(ctx, season.RequestID, 0)
}

// MarkEpisodeCompleted marks one episode finished. When it was the season's
// last outstanding episode the season completes with it, then the roll-up
// runs.
func (o *Orchestrator) MarkEpisodeCompleted(ctx context.Context, episodeID uuid.UUID) error {
	episode, err := o.repo.GetEpisode(ctx, episodeID)
	if err != nil {
		return err
	}

	if episode.Status != models.TrackStatusCompleted {
		episode.Status = models.TrackStatusCompleted
		if err := o.repo.UpdateEpisode(ctx, episode); err != nil {
			return err
		}
		o.eventBus.PublishAsync(ctx, domain.NewEpisodeCompletedEvent(episode.RequestID, episode.SeasonNumber, episode.EpisodeNumber))
	}

	siblings, err := o.repo.ListSeasonEpisodes(ctx, episode.RequestID, episode.SeasonNumber)
	if err != nil {
		return err
	}
	completedCount := 0
	for _, sibling := range siblings {
		if sibling.Status == models.TrackStatusCompleted {
			completedCount++
		}
	}
	allRecordedDone := len(siblings) > 0 && completedCount == len(siblings)

	completedSeason := 0
	if allRecordedDone {
		if season, err := o.repo.GetSeasonByNumber(ctx, episode.RequestID, episode.SeasonNumber); err == nil {
			// A season with a known episode count stays open until that many
			// episodes are in, not just the ones recorded so far.
			if season.EpisodeCount > 0 && completedCount < season.EpisodeCount {
				return o.rollUp(ctx, episode.RequestID, 0)
			}
			if season.Status != models.TrackStatusCompleted {
				season.Status = models.TrackStatusCompleted
				if err := o.repo.UpdateSeason(ctx, season); err != nil {
					return err
				}
				o.eventBus.PublishAsync(ctx, domain.NewSeasonCompletedEvent(season.RequestID, season.SeasonNumber))
			}
			completedSeason = season.SeasonNumber
		} else if !pkgerrors.IsNotFound(err) {
			return err
		}
	}

	return o.rollUp(ctx, episode.RequestID, completedSeason)
}

// MarkEpisodeFailed marks one episode download failed and runs the roll-up.
func (o *Orchestrator) MarkEpisodeFailed(ctx context.Context, episodeID uuid.UUID, reason string) error {
	episode, err := o.repo.GetEpisode(ctx, episodeID)
	if err != nil {
		return err
	}

	if episode.Status != models.TrackStatusFailed {
		episode.Status = models.TrackStatusFailed
		episode.TorrentDownloadID = nil
		if err := o.repo.UpdateEpisode(ctx, episode); err != nil {
			return err
		}
		o.logger.Warn("episode download failed",
			interfaces.String("request_id", episode.RequestID.String()),
			interfaces.Int("season", episode.SeasonNumber),
			interfaces.Int("episode", episode.EpisodeNumber),
			interfaces.String("reason", reason))
	}

	return o.rollUp(ctx, episode.RequestID, 0)
}

// MarkTorrentDownloadCompleted stamps a handle record completed.
func (o *Orchestrator) MarkTorrentDownloadCompleted(ctx context.Context, downloadID uuid.UUID) error {
	download, err := o.repo.GetTorrentDownload(ctx, downloadID)
	if err != nil {
		return err
	}
	if download.Status == models.TrackStatusCompleted {
		return nil
	}
	now := time.Now()
	download.Status = models.TrackStatusCompleted
	download.CompletedAt = &now
	return o.repo.UpdateTorrentDownload(ctx, download)
}

// MarkTorrentDownloadFailed stamps a handle record failed with the engine's
// error message.
func (o *Orchestrator) MarkTorrentDownloadFailed(ctx context.Context, downloadID uuid.UUID, errorMessage string) error {
	download, err := o.repo.GetTorrentDownload(ctx, downloadID)
	if err != nil {
		return err
	}
	if download.Status == models.TrackStatusFailed {
		return nil
	}
	now := time.Now()
	download.Status = models.TrackStatusFailed
	download.ErrorMessage = errorMessage
	download.CompletedAt = &now
	return o.repo.UpdateTorrentDownload(ctx, download)
}

// GetRequestDownloadStatus returns the live unified download view for a
// request. Nothing is read from persisted progress fields; there are none.
func (o *Orchestrator) GetRequestDownloadStatus(ctx context.Context, id uuid.UUID) (*models.DownloadStatusView, error) {
	if o.viewer == nil {
		return nil, pkgerrors.Internal("download viewer not configured")
	}

	request, err := o.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.DownloadGID == "" {
		return nil, pkgerrors.BadRequest(fmt.Sprintf("request %s has no download handle", id))
	}

	return o.viewer.Status(ctx, request.DownloadGID)
}

// GetDownloadSummary returns the live service-wide download overview.
func (o *Orchestrator) GetDownloadSummary(ctx context.Context) (*models.DownloadSummary, error) {
	if o.viewer == nil {
		return nil, pkgerrors.Internal("download viewer not configured")
	}

	summary, err := o.viewer.Summary(ctx)
	if err != nil {
		return nil, err
	}

	active, err := o.repo.CountRequestsByStatus(ctx, models.RequestStatusDownloading)
	if err != nil {
		return nil, err
	}
	summary.ActiveRequests = int(active)
	return summary, nil
}

// transition validates the edge, persists the request, and publishes the
// transition event. It is the single choke point for request status writes.
func (o *Orchestrator) transition(ctx context.Context, request *models.Request, to models.RequestStatus, reason string) error {
	from := request.Status
	if err := o.machine.Apply(request, to); err != nil {
		return err
	}
	if err := o.repo.UpdateRequest(ctx, request); err != nil {
		return err
	}

	o.logger.Info("request transitioned",
		interfaces.String("request_id", request.ID.String()),
		interfaces.String("from", string(from)),
		interfaces.String("to", string(to)),
		interfaces.String("reason", reason))

	o.eventBus.PublishAsync(ctx, domain.NewRequestTransitionedEvent(request, from, to, reason))
	return nil
}

// rollUp recomputes the request status from its sub-trackers. The roll-up is
// idempotent: recomputing on an unchanged set of children performs no write.
// Ongoing requests never complete through the roll-up; they keep discovering
// new seasons. completedSeason, when nonzero, advances LastKnownSeason.
func (o *Orchestrator) rollUp(ctx context.Context, requestID uuid.UUID, completedSeason int) error {
	request, err := o.repo.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}

	dirty := false
	if completedSeason > request.LastKnownSeason {
		request.LastKnownSeason = completedSeason
		dirty = true
	}

	if request.IsOngoing {
		if dirty {
			return o.repo.UpdateRequest(ctx, request)
		}
		return nil
	}

	seasons, err := o.repo.ListSeasons(ctx, requestID)
	if err != nil {
		return err
	}
	episodes, err := o.repo.ListEpisodes(ctx, requestID)
	if err != nil {
		return err
	}
	if len(seasons) == 0 && len(episodes) == 0 {
		if dirty {
			return o.repo.UpdateRequest(ctx, request)
		}
		return nil
	}

	var anyFailed, anyOpen bool
	allDone := true
	for _, season := range seasons {
		switch season.Status {
		case models.TrackStatusFailed:
			anyFailed = true
			allDone = false
		case models.TrackStatusCompleted:
		default:
			anyOpen = true
			allDone = false
		}
	}
	for _, episode := range episodes {
		switch episode.Status {
		case models.TrackStatusFailed:
			anyFailed = true
			allDone = false
		case models.TrackStatusCompleted:
		default:
			anyOpen = true
			allDone = false
		}
	}

	switch {
	case allDone:
		if o.machine.CanTransition(request.Status, models.RequestStatusCompleted) {
			now := time.Now()
			request.CompletedAt = &now
			if err := o.transition(ctx, request, models.RequestStatusCompleted, "all sub-trackers complete"); err != nil {
				return err
			}
			o.organizeAsync(request.ID)
			return nil
		}
	case anyFailed && !anyOpen:
		if o.machine.CanTransition(request.Status, models.RequestStatusFailed) {
			request.FailureReason = "sub-tracker downloads failed with no pending alternative"
			return o.transition(ctx, request, models.RequestStatusFailed, request.FailureReason)
		}
	}

	if dirty {
		return o.repo.UpdateRequest(ctx, request)
	}
	return nil
}

// organizeAsync hands a completed request to the file organizer without
// blocking the caller. The ongoing acquisition outcome is already persisted;
// a placement failure is logged and nothing more.
func (o *Orchestrator) organizeAsync(requestID uuid.UUID) {
	if o.organizer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := o.organizer.OrganizeRequest(ctx, requestID); err != nil {
			o.logger.Warn("file organization failed",
				interfaces.String("request_id", requestID.String()),
				interfaces.Error(err))
		}
	}()
}

// clearSearchState wipes the search bookkeeping and prior selection ahead of
// a re-arm.
func (o *Orchestrator) clearSearchState(request *models.Request) {
	request.SearchAttempts = 0
	request.NextSearchAt = nil
	request.LastSearchAt = nil
	request.FailureReason = ""
	request.FoundTitle = ""
	request.FoundLink = ""
	request.FoundMagnetURI = ""
	request.FoundSize = 0
	request.FoundSeeders = 0
	request.FoundIndexer = ""
	request.DownloadGID = ""
	request.CompletedAt = nil
}
