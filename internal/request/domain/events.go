package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/harpoonmedia/harpoon/pkg/models"
)

// Event type constants for the request lifecycle.
const (
	EventRequestSearching   = "request.searching"
	EventRequestFound       = "request.found"
	EventRequestDownloading = "request.downloading"
	EventRequestCompleted   = "request.completed"
	EventRequestFailed      = "request.failed"
	EventRequestCancelled   = "request.cancelled"
	EventRequestExpired     = "request.expired"
	EventRequestReset       = "request.reset"
	EventSeasonCompleted    = "season.completed"
	EventEpisodeCompleted   = "episode.completed"
)

// RequestTransitionedEvent is published by the orchestrator after every
// persisted status change on a request.
type RequestTransitionedEvent struct {
	Request   *models.Request
	From      models.RequestStatus
	To        models.RequestStatus
	Reason    string
	eventType string
	timestamp int64
}

// NewRequestTransitionedEvent builds a transition event; the event type is
// derived from the target status.
func NewRequestTransitionedEvent(request *models.Request, from, to models.RequestStatus, reason string) *RequestTransitionedEvent {
	return &RequestTransitionedEvent{
		Request:   request,
		From:      from,
		To:        to,
		Reason:    reason,
		eventType: eventTypeFor(to),
		timestamp: time.Now().Unix(),
	}
}

func eventTypeFor(to models.RequestStatus) string {
	switch to {
	case models.RequestStatusSearching:
		return EventRequestSearching
	case models.RequestStatusFound:
		return EventRequestFound
	case models.RequestStatusDownloading:
		return EventRequestDownloading
	case models.RequestStatusCompleted:
		return EventRequestCompleted
	case models.RequestStatusFailed:
		return EventRequestFailed
	case models.RequestStatusCancelled:
		return EventRequestCancelled
	case models.RequestStatusExpired:
		return EventRequestExpired
	default:
		return EventRequestReset
	}
}

func (e *RequestTransitionedEvent) EventType() string {
	return e.eventType
}

func (e *RequestTransitionedEvent) Timestamp() int64 {
	return e.timestamp
}

func (e *RequestTransitionedEvent) AggregateID() string {
	return e.Request.ID.String()
}

// SeasonCompletedEvent is published when a season pack finishes downloading.
type SeasonCompletedEvent struct {
	RequestID    uuid.UUID
	SeasonNumber int
	timestamp    int64
}

func NewSeasonCompletedEvent(requestID uuid.UUID, seasonNumber int) *SeasonCompletedEvent {
	return &SeasonCompletedEvent{
		RequestID:    requestID,
		SeasonNumber: seasonNumber,
		timestamp:    time.Now().Unix(),
	}
}

func (e *SeasonCompletedEvent) EventType() string {
	return EventSeasonCompleted
}

func (e *SeasonCompletedEvent) Timestamp() int64 {
	return e.timestamp
}

func (e *SeasonCompletedEvent) AggregateID() string {
	return e.RequestID.String()
}

// EpisodeCompletedEvent is published when a single episode finishes
// downloading.
type EpisodeCompletedEvent struct {
	RequestID     uuid.UUID
	SeasonNumber  int
	EpisodeNumber int
	timestamp     int64
}

func NewEpisodeCompletedEvent(requestID uuid.UUID, season, episode int) *EpisodeCompletedEvent {
	return &EpisodeCompletedEvent{
		RequestID:     requestID,
		SeasonNumber:  season,
		EpisodeNumber: episode,
		timestamp:     time.Now().Unix(),
	}
}

func (e *EpisodeCompletedEvent) EventType() string {
	return EventEpisodeCompleted
}

func (e *EpisodeCompletedEvent) Timestamp() int64 {
	return e.timestamp
}

func (e *EpisodeCompletedEvent) AggregateID() string {
	return e.RequestID.String()
}
