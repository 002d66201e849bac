package downloads

import (
	"context"
	"math"

	pkgerrors "github.com/harpoonmedia/harpoon/pkg/errors"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
	"github.com/harpoonmedia/harpoon/pkg/models"
)

// metadataSizeThreshold separates a metadata-only torrent handle from real
// content. An engine handle reporting complete under this size is the
// resolved metadata blob, not the download.
const metadataSizeThreshold = 100 * 1024

// Aggregator reconciles a hierarchical engine download into one progress and
// status view. A torrent starts as a single metadata-resolving handle that
// later spawns content handles; the aggregator polls the parent, discovers
// the children, and computes totals from the children alone so the metadata
// handle never double-counts or masquerades as a finished download.
type Aggregator struct {
	engine interfaces.DownloadEngine
	logger interfaces.Logger
}

// NewAggregator creates a download aggregator over the engine.
func NewAggregator(engine interfaces.DownloadEngine, logger interfaces.Logger) *Aggregator {
	return &Aggregator{engine: engine, logger: logger}
}

// Status produces the unified view for a primary handle and its children.
func (a *Aggregator) Status(ctx context.Context, gid string) (*models.DownloadStatusView, error) {
	parent, err := a.engine.Status(ctx, gid)
	if err != nil {
		return nil, pkgerrors.Unavailable("failed to fetch engine status", err)
	}

	children := make([]*interfaces.EngineStatus, 0, len(parent.FollowedBy))
	for _, childGID := range parent.FollowedBy {
		child, err := a.engine.Status(ctx, childGID)
		if err != nil {
			return nil, pkgerrors.Unavailable("failed to fetch child engine status", err)
		}
		children = append(children, child)
	}

	view := &models.DownloadStatusView{GID: gid}

	if len(children) > 0 {
		a.aggregateChildren(view, parent, children)
	} else {
		a.aggregateParentOnly(view, parent)
	}

	view.Progress = progressPercent(view.CompletedBytes, view.TotalBytes)
	return view, nil
}

// Summary returns the engine-wide transfer overview.
func (a *Aggregator) Summary(ctx context.Context) (*models.DownloadSummary, error) {
	stats, err := a.engine.GlobalStats(ctx)
	if err != nil {
		return nil, pkgerrors.Unavailable("failed to fetch engine global stats", err)
	}
	return &models.DownloadSummary{
		DownloadSpeed: stats.DownloadSpeed,
		UploadSpeed:   stats.UploadSpeed,
		NumActive:     stats.NumActive,
		NumWaiting:    stats.NumWaiting,
		NumStopped:    stats.NumStopped,
	}, nil
}

// aggregateChildren computes the view from the content handles only. The
// parent's metadata-handle byte counts are discarded.
func (a *Aggregator) aggregateChildren(view *models.DownloadStatusView, parent *interfaces.EngineStatus, children []*interfaces.EngineStatus) {
	var anyError, anyActive bool
	allComplete := true

	for _, child := range children {
		view.ChildGIDs = append(view.ChildGIDs, child.GID)
		view.TotalBytes += child.TotalLength
		view.CompletedBytes += child.CompletedLength
		view.Speed += child.DownloadSpeed
		appendFilePaths(view, child)

		switch child.Status {
		case interfaces.EngineStatusError:
			anyError = true
			allComplete = false
			if view.ErrorMessage == "" {
				view.ErrorMessage = child.ErrorMessage
			}
		case interfaces.EngineStatusActive:
			anyActive = true
			allComplete = false
		case interfaces.EngineStatusComplete:
		default:
			allComplete = false
		}
	}

	switch {
	case anyError:
		view.Status = models.DownloadStateError
	case anyActive:
		view.Status = models.DownloadStateActive
	case allComplete && parent.Status == interfaces.EngineStatusComplete:
		view.Status = models.DownloadStateComplete
	default:
		// Neither done nor erroring yet; leave the view unresolved until the
		// next poll.
		view.Status = models.DownloadStateSettling
	}
}

// aggregateParentOnly computes the view from the parent handle when no child
// has appeared yet.
func (a *Aggregator) aggregateParentOnly(view *models.DownloadStatusView, parent *interfaces.EngineStatus) {
	// A "complete" handle under the metadata threshold is the resolved
	// torrent metadata, not content: report 0% waiting, never a false 100%.
	if parent.Status == interfaces.EngineStatusComplete && parent.TotalLength < metadataSizeThreshold {
		view.Status = models.DownloadStateWaiting
		return
	}

	view.TotalBytes = parent.TotalLength
	view.CompletedBytes = parent.CompletedLength
	view.Speed = parent.DownloadSpeed
	appendFilePaths(view, parent)

	switch parent.Status {
	case interfaces.EngineStatusActive:
		view.Status = models.DownloadStateActive
	case interfaces.EngineStatusComplete:
		view.Status = models.DownloadStateComplete
	case interfaces.EngineStatusError:
		view.Status = models.DownloadStateError
		view.ErrorMessage = parent.ErrorMessage
	case interfaces.EngineStatusRemoved:
		view.Status = models.DownloadStateError
		view.ErrorMessage = "download removed from engine"
	default:
		view.Status = models.DownloadStateWaiting
	}
}

func appendFilePaths(view *models.DownloadStatusView, status *interfaces.EngineStatus) {
	for _, file := range status.Files {
		if file.Path != "" {
			view.FilePaths = append(view.FilePaths, file.Path)
		}
	}
}

// progressPercent is round(completed/total*100) clamped to [0,100].
func progressPercent(completed, total int64) int {
	if total <= 0 {
		return 0
	}
	progress := int(math.Round(float64(completed) / float64(total) * 100))
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}
