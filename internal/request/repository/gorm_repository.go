package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harpoonmedia/harpoon/pkg/models"
	"github.com/harpoonmedia/harpoon/pkg/repository"
)

// GormRepository implements the repository interfaces using GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GORM repository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// CreateRequest creates a new request.
func (r *GormRepository) CreateRequest(ctx context.Context, request *models.Request) error {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	return repository.Create(ctx, r.db, request)
}

// GetRequest retrieves a request by ID.
func (r *GormRepository) GetRequest(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	return repository.FindByID[models.Request](ctx, r.db, id)
}

// UpdateRequest saves a request.
func (r *GormRepository) UpdateRequest(ctx context.Context, request *models.Request) error {
	return repository.Update(ctx, r.db, request)
}

// DeleteRequest deletes a request; seasons, episodes, downloads and search
// logs cascade.
func (r *GormRepository) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	return repository.Delete[models.Request](ctx, r.db, id)
}

// ListDueRequests lists pending requests whose next search time has passed.
func (r *GormRepository) ListDueRequests(ctx context.Context, now time.Time, limit int) ([]*models.Request, error) {
	var items []*models.Request
	q := r.db.WithContext(ctx).
		Where("status = ?", models.RequestStatusPending).
		Where("next_search_at IS NULL OR next_search_at <= ?", now).
		Order("priority DESC, created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list due requests: %w", err)
	}
	return items, nil
}

// ListRequestsByStatus lists all requests in a status.
func (r *GormRepository) ListRequestsByStatus(ctx context.Context, status models.RequestStatus) ([]*models.Request, error) {
	return repository.FindAllBy[models.Request](ctx, r.db, "created_at ASC", "status = ?", status)
}

// ListExpiryCandidates lists pending requests whose budget is spent and
// which are older than the cutoff.
func (r *GormRepository) ListExpiryCandidates(ctx context.Context, cutoff time.Time) ([]*models.Request, error) {
	var items []*models.Request
	err := r.db.WithContext(ctx).
		Where("status = ?", models.RequestStatusPending).
		Where("search_attempts >= max_search_attempts").
		Where("created_at < ?", cutoff).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expiry candidates: %w", err)
	}
	return items, nil
}

// CountRequestsByStatus counts requests in a status.
func (r *GormRepository) CountRequestsByStatus(ctx context.Context, status models.RequestStatus) (int64, error) {
	return repository.Count[models.Request](ctx, r.db, "status = ?", status)
}

// CreateSeason creates a season sub-tracker.
func (r *GormRepository) CreateSeason(ctx context.Context, season *models.Season) error {
	if season.ID == uuid.Nil {
		season.ID = uuid.New()
	}
	return repository.Create(ctx, r.db, season)
}

// GetSeason retrieves a season by ID.
func (r *GormRepository) GetSeason(ctx context.Context, id uuid.UUID) (*models.Season, error) {
	return repository.FindByID[models.Season](ctx, r.db, id)
}

// GetSeasonByNumber retrieves a season by request and season number.
func (r *GormRepository) GetSeasonByNumber(ctx context.Context, requestID uuid.UUID, seasonNumber int) (*models.Season, error) {
	return repository.FindOneBy[models.Season](ctx, r.db, "request_id = ? AND season_number = ?", requestID, seasonNumber)
}

// ListSeasons lists a request's seasons in order.
func (r *GormRepository) ListSeasons(ctx context.Context, requestID uuid.UUID) ([]*models.Season, error) {
	return repository.FindAllBy[models.Season](ctx, r.db, "season_number ASC", "request_id = ?", requestID)
}

// UpdateSeason saves a season.
func (r *GormRepository) UpdateSeason(ctx context.Context, season *models.Season) error {
	return repository.Update(ctx, r.db, season)
}

// CreateEpisode creates an episode sub-tracker.
func (r *GormRepository) CreateEpisode(ctx context.Context, episode *models.Episode) error {
	if episode.ID == uuid.Nil {
		episode.ID = uuid.New()
	}
	return repository.Create(ctx, r.db, episode)
}

// GetEpisode retrieves an episode by ID.
func (r *GormRepository) GetEpisode(ctx context.Context, id uuid.UUID) (*models.Episode, error) {
	return repository.FindByID[models.Episode](ctx, r.db, id)
}

// GetEpisodeByNumber retrieves an episode by request, season and episode
// numbers.
func (r *GormRepository) GetEpisodeByNumber(ctx context.Context, requestID uuid.UUID, seasonNumber, episodeNumber int) (*models.Episode, error) {
	return repository.FindOneBy[models.Episode](ctx, r.db,
		"request_id = ? AND season_number = ? AND episode_number = ?", requestID, seasonNumber, episodeNumber)
}

// ListEpisodes lists all of a request's episodes in order.
func (r *GormRepository) ListEpisodes(ctx context.Context, requestID uuid.UUID) ([]*models.Episode, error) {
	return repository.FindAllBy[models.Episode](ctx, r.db, "season_number ASC, episode_number ASC", "request_id = ?", requestID)
}

// ListSeasonEpisodes lists the episodes of one season in order.
func (r *GormRepository) ListSeasonEpisodes(ctx context.Context, requestID uuid.UUID, seasonNumber int) ([]*models.Episode, error) {
	return repository.FindAllBy[models.Episode](ctx, r.db, "episode_number ASC",
		"request_id = ? AND season_number = ?", requestID, seasonNumber)
}

// UpdateEpisode saves an episode.
func (r *GormRepository) UpdateEpisode(ctx context.Context, episode *models.Episode) error {
	return repository.Update(ctx, r.db, episode)
}

// CreateTorrentDownload creates an engine handle record.
func (r *GormRepository) CreateTorrentDownload(ctx context.Context, download *models.TorrentDownload) error {
	if download.ID == uuid.Nil {
		download.ID = uuid.New()
	}
	return repository.Create(ctx, r.db, download)
}

// GetTorrentDownload retrieves a handle record by ID.
func (r *GormRepository) GetTorrentDownload(ctx context.Context, id uuid.UUID) (*models.TorrentDownload, error) {
	return repository.FindByID[models.TorrentDownload](ctx, r.db, id)
}

// GetTorrentDownloadByGID retrieves a handle record by engine GID.
func (r *GormRepository) GetTorrentDownloadByGID(ctx context.Context, gid string) (*models.TorrentDownload, error) {
	return repository.FindOneBy[models.TorrentDownload](ctx, r.db, "gid = ?", gid)
}

// ListTorrentDownloads lists a request's handle records, newest first.
func (r *GormRepository) ListTorrentDownloads(ctx context.Context, requestID uuid.UUID) ([]*models.TorrentDownload, error) {
	return repository.FindAllBy[models.TorrentDownload](ctx, r.db, "created_at DESC", "request_id = ?", requestID)
}

// ListActiveTorrentDownloads lists every handle record still downloading.
func (r *GormRepository) ListActiveTorrentDownloads(ctx context.Context) ([]*models.TorrentDownload, error) {
	return repository.FindAllBy[models.TorrentDownload](ctx, r.db, "created_at ASC", "status = ?", models.TrackStatusDownloading)
}

// UpdateTorrentDownload saves a handle record.
func (r *GormRepository) UpdateTorrentDownload(ctx context.Context, download *models.TorrentDownload) error {
	return repository.Update(ctx, r.db, download)
}

// CreateSearchLog appends a search audit record.
func (r *GormRepository) CreateSearchLog(ctx context.Context, log *models.SearchLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	return repository.Create(ctx, r.db, log)
}

// ListSearchLogs lists a request's search history, newest first.
func (r *GormRepository) ListSearchLogs(ctx context.Context, requestID uuid.UUID, limit, offset int) ([]*models.SearchLog, error) {
	var items []*models.SearchLog
	q := r.db.WithContext(ctx).Where("request_id = ?", requestID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list search logs: %w", err)
	}
	return items, nil
}

// DeleteSearchLogsBefore prunes search logs older than the cutoff and
// returns the number of rows removed.
func (r *GormRepository) DeleteSearchLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&models.SearchLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune search logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

var _ Repository = (*GormRepository)(nil)
