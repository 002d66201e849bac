package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/harpoonmedia/harpoon/pkg/models"
)

// Repository is the durable store consumed by the lifecycle orchestrator,
// search scheduler and progress tracker.
type Repository interface {
	RequestRepository
	SeasonRepository
	EpisodeRepository
	TorrentDownloadRepository
	SearchLogRepository
}

// RequestRepository provides CRUD and scheduling queries over requests.
type RequestRepository interface {
	CreateRequest(ctx context.Context, request *models.Request) error
	GetRequest(ctx context.Context, id uuid.UUID) (*models.Request, error)
	UpdateRequest(ctx context.Context, request *models.Request) error
	DeleteRequest(ctx context.Context, id uuid.UUID) error

	// ListDueRequests returns requests eligible for a search tick: status
	// pending and nextSearchAt unset or in the past, highest priority first.
	ListDueRequests(ctx context.Context, now time.Time, limit int) ([]*models.Request, error)

	// ListRequestsByStatus returns all requests in the given status.
	ListRequestsByStatus(ctx context.Context, status models.RequestStatus) ([]*models.Request, error)

	// ListExpiryCandidates returns pending requests whose retry budget is
	// spent and which were created before the cutoff.
	ListExpiryCandidates(ctx context.Context, cutoff time.Time) ([]*models.Request, error)

	// CountRequestsByStatus returns the number of requests in the status.
	CountRequestsByStatus(ctx context.Context, status models.RequestStatus) (int64, error)
}

// SeasonRepository provides access to per-season sub-trackers.
type SeasonRepository interface {
	CreateSeason(ctx context.Context, season *models.Season) error
	GetSeason(ctx context.Context, id uuid.UUID) (*models.Season, error)
	GetSeasonByNumber(ctx context.Context, requestID uuid.UUID, seasonNumber int) (*models.Season, error)
	ListSeasons(ctx context.Context, requestID uuid.UUID) ([]*models.Season, error)
	UpdateSeason(ctx context.Context, season *models.Season) error
}

// EpisodeRepository provides access to per-episode sub-trackers.
type EpisodeRepository interface {
	CreateEpisode(ctx context.Context, episode *models.Episode) error
	GetEpisode(ctx context.Context, id uuid.UUID) (*models.Episode, error)
	GetEpisodeByNumber(ctx context.Context, requestID uuid.UUID, seasonNumber, episodeNumber int) (*models.Episode, error)
	ListEpisodes(ctx context.Context, requestID uuid.UUID) ([]*models.Episode, error)
	ListSeasonEpisodes(ctx context.Context, requestID uuid.UUID, seasonNumber int) ([]*models.Episode, error)
	UpdateEpisode(ctx context.Context, episode *models.Episode) error
}

// TorrentDownloadRepository provides access to engine handle records.
type TorrentDownloadRepository interface {
	CreateTorrentDownload(ctx context.Context, download *models.TorrentDownload) error
	GetTorrentDownload(ctx context.Context, id uuid.UUID) (*models.TorrentDownload, error)
	GetTorrentDownloadByGID(ctx context.Context, gid string) (*models.TorrentDownload, error)
	ListTorrentDownloads(ctx context.Context, requestID uuid.UUID) ([]*models.TorrentDownload, error)

	// ListActiveTorrentDownloads returns every handle record still in the
	// downloading state, across all requests. The progress tracker polls these.
	ListActiveTorrentDownloads(ctx context.Context) ([]*models.TorrentDownload, error)
	UpdateTorrentDownload(ctx context.Context, download *models.TorrentDownload) error
}

// SearchLogRepository provides the append-only search audit log.
type SearchLogRepository interface {
	CreateSearchLog(ctx context.Context, log *models.SearchLog) error
	ListSearchLogs(ctx context.Context, requestID uuid.UUID, limit, offset int) ([]*models.SearchLog, error)
	DeleteSearchLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
