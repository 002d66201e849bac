package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TorrentDownload binds one engine download to a request and, optionally, to
// a season or episode. It is created when the download is initiated and is
// immutable once terminal except for the terminal timestamp.
type TorrentDownload struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	RequestID uuid.UUID  `json:"request_id" gorm:"type:uuid;not null;index"`
	SeasonID  *uuid.UUID `json:"season_id,omitempty" gorm:"type:uuid;index"`
	EpisodeID *uuid.UUID `json:"episode_id,omitempty" gorm:"type:uuid;index"`

	GID       string `json:"gid" gorm:"type:varchar(40);not null;uniqueIndex"`
	Title     string `json:"title"`
	MagnetURI string `json:"magnet_uri,omitempty" gorm:"type:text"`
	Size      int64  `json:"size,omitempty"`

	Status       TrackStatus `json:"status" gorm:"type:varchar(20);not null;default:'downloading';index"`
	ErrorMessage string      `json:"error_message,omitempty" gorm:"type:text"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// SearchLog is an append-only audit record of one search attempt.
type SearchLog struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	RequestID uuid.UUID `json:"request_id" gorm:"type:uuid;not null;index"`

	Query        string   `json:"query" gorm:"type:text"`
	Indexers     []string `json:"indexers,omitempty" gorm:"serializer:json"`
	ResultCount  int      `json:"result_count"`
	BestTitle    string   `json:"best_title,omitempty"`
	Success      bool     `json:"success"`
	ErrorMessage string   `json:"error_message,omitempty" gorm:"type:text"`
	DurationMS   int64    `json:"duration_ms"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// UnifiedDownloadStatus is the single status the aggregator reconciles a
// parent handle and its children into.
type UnifiedDownloadStatus string

const (
	DownloadStateWaiting  UnifiedDownloadStatus = "waiting"
	DownloadStateActive   UnifiedDownloadStatus = "active"
	DownloadStateError    UnifiedDownloadStatus = "error"
	DownloadStateComplete UnifiedDownloadStatus = "complete"
	// DownloadStateSettling means the children are neither all complete nor
	// erroring yet; the view is left unresolved until the next poll.
	DownloadStateSettling UnifiedDownloadStatus = "settling"
)

// DownloadStatusView is the live, never-persisted progress view of one
// request's download across its parent and child handles.
type DownloadStatusView struct {
	GID            string                `json:"gid"`
	Status         UnifiedDownloadStatus `json:"status"`
	TotalBytes     int64                 `json:"total_bytes"`
	CompletedBytes int64                 `json:"completed_bytes"`
	Speed          int64                 `json:"speed"`
	Progress       int                   `json:"progress"`
	ChildGIDs      []string              `json:"child_gids,omitempty"`
	FilePaths      []string              `json:"file_paths,omitempty"`
	ErrorMessage   string                `json:"error_message,omitempty"`
}

// Complete reports whether the unified status means the download finished.
func (v *DownloadStatusView) Complete() bool {
	return v.Status == DownloadStateComplete
}

// Failed reports whether the unified status means the download failed.
func (v *DownloadStatusView) Failed() bool {
	return v.Status == DownloadStateError
}

// DownloadSummary is the service-wide live download overview.
type DownloadSummary struct {
	ActiveRequests int   `json:"active_requests"`
	DownloadSpeed  int64 `json:"download_speed"`
	UploadSpeed    int64 `json:"upload_speed"`
	NumActive      int   `json:"num_active"`
	NumWaiting     int   `json:"num_waiting"`
	NumStopped     int   `json:"num_stopped"`
}

// TableName customizations.
func (TorrentDownload) TableName() string {
	return "torrent_downloads"
}

func (SearchLog) TableName() string {
	return "search_logs"
}
