package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harpoonmedia/harpoon/pkg/interfaces"
)

// ContentType represents the kind of media a request is for.
type ContentType string

const (
	ContentTypeMovie ContentType = "movie"
	ContentTypeTV    ContentType = "tv_show"
	ContentTypeGame  ContentType = "game"
)

// RequestStatus represents where a request is in its acquisition lifecycle.
type RequestStatus string

const (
	RequestStatusPending     RequestStatus = "pending"
	RequestStatusSearching   RequestStatus = "searching"
	RequestStatusFound       RequestStatus = "found"
	RequestStatusDownloading RequestStatus = "downloading"
	RequestStatusCompleted   RequestStatus = "completed"
	RequestStatusFailed      RequestStatus = "failed"
	RequestStatusCancelled   RequestStatus = "cancelled"
	RequestStatusExpired     RequestStatus = "expired"
)

// IsTerminal reports whether the status ends the normal flow for good.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted
}

// IsSoftTerminal reports whether the status is terminal but re-armable
// through an administrative reset.
func (s RequestStatus) IsSoftTerminal() bool {
	return s == RequestStatusFailed || s == RequestStatusCancelled || s == RequestStatusExpired
}

// TrackStatus is the status of a season, episode or torrent download record.
type TrackStatus string

const (
	TrackStatusPending     TrackStatus = "pending"
	TrackStatusDownloading TrackStatus = "downloading"
	TrackStatusCompleted   TrackStatus = "completed"
	TrackStatusFailed      TrackStatus = "failed"
)

// Request is the unit of user intent: one piece of media to acquire.
type Request struct {
	ID          uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	ContentType ContentType `json:"content_type" gorm:"type:varchar(20);not null;index"`
	Title       string      `json:"title" gorm:"not null;index"`
	Year        int         `json:"year,omitempty"`
	ImdbID      string      `json:"imdb_id,omitempty" gorm:"type:varchar(20);index"`
	TmdbID      int         `json:"tmdb_id,omitempty" gorm:"index"`
	IgdbID      int         `json:"igdb_id,omitempty"`

	Status        RequestStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	FailureReason string        `json:"failure_reason,omitempty" gorm:"type:text"`

	// Search bookkeeping
	SearchAttempts    int        `json:"search_attempts" gorm:"default:0"`
	MaxSearchAttempts int        `json:"max_search_attempts" gorm:"default:5"`
	NextSearchAt      *time.Time `json:"next_search_at,omitempty" gorm:"index"`
	LastSearchAt      *time.Time `json:"last_search_at,omitempty"`

	// Selection result, populated when a candidate is chosen
	FoundTitle     string `json:"found_title,omitempty"`
	FoundLink      string `json:"found_link,omitempty"`
	FoundMagnetURI string `json:"found_magnet_uri,omitempty" gorm:"type:text"`
	FoundSize      int64  `json:"found_size,omitempty"`
	FoundSeeders   int    `json:"found_seeders,omitempty"`
	FoundIndexer   string `json:"found_indexer,omitempty"`

	// Primary engine handle, present while the request is downloading
	DownloadGID string `json:"download_gid,omitempty" gorm:"type:varchar(40);index"`

	// TV only: keep discovering new seasons instead of terminating after one
	// acquisition.
	IsOngoing       bool `json:"is_ongoing" gorm:"default:false"`
	LastKnownSeason int  `json:"last_known_season,omitempty"`

	// Selection preferences
	QualityAllowlist []string `json:"quality_allowlist,omitempty" gorm:"serializer:json"`
	FormatAllowlist  []string `json:"format_allowlist,omitempty" gorm:"serializer:json"`
	BlacklistWords   []string `json:"blacklist_words,omitempty" gorm:"serializer:json"`
	TrustedIndexers  []string `json:"trusted_indexers,omitempty" gorm:"serializer:json"`
	MinSeeders       int      `json:"min_seeders,omitempty"`
	MaxSize          int64    `json:"max_size,omitempty"`

	Priority    int        `json:"priority" gorm:"default:0;index"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Seasons          []Season          `json:"seasons,omitempty" gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
	Episodes         []Episode         `json:"episodes,omitempty" gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
	TorrentDownloads []TorrentDownload `json:"-" gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
	SearchLogs       []SearchLog       `json:"-" gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
}

// SelectionPreferences renders the request's filter preferences for the
// release selector.
func (r *Request) SelectionPreferences() interfaces.SelectionPreferences {
	return interfaces.SelectionPreferences{
		QualityAllowlist: r.QualityAllowlist,
		FormatAllowlist:  r.FormatAllowlist,
		BlacklistWords:   r.BlacklistWords,
		TrustedIndexers:  r.TrustedIndexers,
		MinSeeders:       r.MinSeeders,
		MaxSize:          r.MaxSize,
	}
}

// AttemptsExhausted reports whether the retry budget is spent.
func (r *Request) AttemptsExhausted() bool {
	return r.SearchAttempts >= r.MaxSearchAttempts
}

// Season tracks acquisition of one TV season for an ongoing request. A season
// is satisfied either by a single season-pack download or by per-episode
// downloads, never both at once.
type Season struct {
	ID           uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	RequestID    uuid.UUID   `json:"request_id" gorm:"type:uuid;not null;index"`
	SeasonNumber int         `json:"season_number" gorm:"not null;index"`
	EpisodeCount int         `json:"episode_count,omitempty"`
	Status       TrackStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`

	TorrentDownloadID *uuid.UUID `json:"torrent_download_id,omitempty" gorm:"type:uuid"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Episodes []Episode `json:"episodes,omitempty" gorm:"foreignKey:SeasonID;constraint:OnDelete:CASCADE"`
}

// Episode tracks acquisition of a single TV episode.
type Episode struct {
	ID            uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	RequestID     uuid.UUID   `json:"request_id" gorm:"type:uuid;not null;index"`
	SeasonID      *uuid.UUID  `json:"season_id,omitempty" gorm:"type:uuid;index"`
	SeasonNumber  int         `json:"season_number" gorm:"not null;index"`
	EpisodeNumber int         `json:"episode_number" gorm:"not null;index"`
	Title         string      `json:"title,omitempty"`
	Status        TrackStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`

	TorrentDownloadID *uuid.UUID `json:"torrent_download_id,omitempty" gorm:"type:uuid"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName customizations.
func (Request) TableName() string {
	return "requests"
}

func (Season) TableName() string {
	return "seasons"
}

func (Episode) TableName() string {
	return "episodes"
}
