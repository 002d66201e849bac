package interfaces

import (
	"context"

	"github.com/google/uuid"
)

// EngineTaskStatus is the status vocabulary reported by the download engine
// for a single handle. The engine is pull-based: callers poll Status.
type EngineTaskStatus string

const (
	EngineStatusActive   EngineTaskStatus = "active"
	EngineStatusWaiting  EngineTaskStatus = "waiting"
	EngineStatusPaused   EngineTaskStatus = "paused"
	EngineStatusError    EngineTaskStatus = "error"
	EngineStatusComplete EngineTaskStatus = "complete"
	EngineStatusRemoved  EngineTaskStatus = "removed"
)

// EngineFile is a single file within an engine download.
type EngineFile struct {
	Path            string
	Length          int64
	CompletedLength int64
	Selected        bool
}

// EngineStatus is the live status of one engine handle. A torrent handle may
// spawn follow-up content handles once its metadata resolves; their GIDs are
// reported in FollowedBy and must be polled separately.
type EngineStatus struct {
	GID             string
	Status          EngineTaskStatus
	TotalLength     int64
	CompletedLength int64
	DownloadSpeed   int64
	UploadSpeed     int64
	ErrorCode       string
	ErrorMessage    string
	FollowedBy      []string
	Files           []EngineFile
}

// EngineGlobalStats is the engine-wide transfer summary.
type EngineGlobalStats struct {
	DownloadSpeed int64
	UploadSpeed   int64
	NumActive     int
	NumWaiting    int
	NumStopped    int
}

// AddOptions carries per-download options for the engine.
type AddOptions struct {
	Dir      string
	Pause    bool
	Priority int
}

// DownloadEngine is the consumed contract of the external download engine.
// The engine identifies every download task by an opaque GID.
type DownloadEngine interface {
	// AddURI starts a download from one or more URIs and returns the handle GID.
	AddURI(ctx context.Context, uris []string, opts AddOptions) (string, error)

	// AddMagnet starts a magnet download and returns the handle GID.
	AddMagnet(ctx context.Context, magnetURI string, opts AddOptions) (string, error)

	// AddTorrent starts a download from raw torrent metainfo bytes.
	AddTorrent(ctx context.Context, torrent []byte, opts AddOptions) (string, error)

	// Status fetches the live status of a handle.
	Status(ctx context.Context, gid string) (*EngineStatus, error)

	// Pause pauses a handle.
	Pause(ctx context.Context, gid string) error

	// Unpause resumes a paused handle.
	Unpause(ctx context.Context, gid string) error

	// Remove removes a handle from the engine.
	Remove(ctx context.Context, gid string) error

	// GlobalStats fetches the engine-wide transfer statistics.
	GlobalStats(ctx context.Context) (*EngineGlobalStats, error)
}

// SearchCriteria describes one indexer query.
type SearchCriteria struct {
	Query   string
	Year    int
	ImdbID  string
	TmdbID  int
	Season  int // 0 means not season-scoped
	Episode int // 0 means not episode-scoped
	Limit   int
}

// IndexerAggregator is the consumed contract of the external indexer
// aggregator, which fans a query out to multiple indexers and returns
// unified release candidates.
type IndexerAggregator interface {
	SearchMovies(ctx context.Context, criteria SearchCriteria) ([]ReleaseCandidate, error)
	SearchTV(ctx context.Context, criteria SearchCriteria) ([]ReleaseCandidate, error)
	SearchGames(ctx context.Context, criteria SearchCriteria) ([]ReleaseCandidate, error)
}

// ReleaseCandidate is a single release returned by the indexer aggregator.
type ReleaseCandidate struct {
	Title     string
	Link      string
	MagnetURI string
	InfoHash  string
	Size      int64
	Seeders   int
	Leechers  int
	Indexer   string
}

// SelectionPreferences are the per-request filter preferences applied when
// choosing a candidate.
type SelectionPreferences struct {
	QualityAllowlist []string
	FormatAllowlist  []string
	BlacklistWords   []string
	TrustedIndexers  []string
	MinSeeders       int
	MaxSize          int64
}

// ReleaseSelector picks at most one candidate from an indexer result set.
// Ranking heuristics live behind this interface, outside the core.
type ReleaseSelector interface {
	SelectBest(candidates []ReleaseCandidate, prefs SelectionPreferences) *ReleaseCandidate
}

// OrganizeFileRequest hands one downloaded file to the external organizer.
type OrganizeFileRequest struct {
	RequestID     uuid.UUID
	SourcePath    string
	Title         string
	Year          int
	ContentType   string
	SeasonNumber  int
	EpisodeNumber int
	Quality       string
	Format        string
	Edition       string
}

// OrganizeResult is the organizer's outcome for one file.
type OrganizeResult struct {
	Success       bool
	OrganizedPath string
	Error         string
}

// FileOrganizer is the consumed contract of the external file organization
// collaborator. Organization is best-effort: a failed organization never
// reverts an acquisition outcome.
type FileOrganizer interface {
	// OrganizeFile places a single downloaded file.
	OrganizeFile(ctx context.Context, req OrganizeFileRequest) (*OrganizeResult, error)

	// OrganizeRequest sweeps everything the organizer can find for a request.
	OrganizeRequest(ctx context.Context, requestID uuid.UUID) error
}
