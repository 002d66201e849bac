package search

import (
	"context"
	"fmt"

	"github.com/harpoonmedia/harpoon/internal/request/lifecycle"
	"github.com/harpoonmedia/harpoon/internal/request/repository"
	pkgerrors "github.com/harpoonmedia/harpoon/pkg/errors"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
	"github.com/harpoonmedia/harpoon/pkg/models"
)

// Result summarizes one search round for a request. It feeds the SearchLog
// entry and the scheduler's outcome routing.
type Result struct {
	Query       string
	ResultCount int
	// Indexers are the distinct indexer names seen across the round's
	// queries, hit or miss.
	Indexers  []string
	Candidate *interfaces.ReleaseCandidate
	Initiated bool
}

// mergeIndexers folds the distinct indexer names of a candidate batch into
// seen, preserving first-seen order.
func mergeIndexers(seen []string, candidates []interfaces.ReleaseCandidate) []string {
	for _, candidate := range candidates {
		if candidate.Indexer == "" {
			continue
		}
		known := false
		for _, name := range seen {
			if name == candidate.Indexer {
				known = true
				break
			}
		}
		if !known {
			seen = append(seen, candidate.Indexer)
		}
	}
	return seen
}

// ContentStrategy performs one search round for a request of its content
// type: query building, indexer dispatch, candidate selection and download
// initiation. Status changes flow through the orchestrator only.
type ContentStrategy interface {
	Execute(ctx context.Context, request *models.Request) (*Result, error)
}

// Deps are the collaborators shared by all content strategies.
type Deps struct {
	Repo        repository.Repository
	Orch        *lifecycle.Orchestrator
	Indexer     interfaces.IndexerAggregator
	Selector    interfaces.ReleaseSelector
	Engine      interfaces.DownloadEngine
	Logger      interfaces.Logger
	DownloadDir string

	// EpisodeFallbackCount is how many not-yet-downloaded episodes the
	// ongoing-TV path probes when no season pack is found.
	EpisodeFallbackCount int
}

// NewStrategies builds the per-content-type strategy table, selected once per
// request by content type.
func NewStrategies(deps Deps) map[models.ContentType]ContentStrategy {
	if deps.EpisodeFallbackCount <= 0 {
		deps.EpisodeFallbackCount = 3
	}
	return map[models.ContentType]ContentStrategy{
		models.ContentTypeMovie: &movieStrategy{deps},
		models.ContentTypeGame:  &gameStrategy{deps},
		models.ContentTypeTV:    &tvStrategy{deps},
	}
}

// movieStrategy searches "title [year]" and drives the simple whole-request
// download flow.
type movieStrategy struct {
	deps Deps
}

func (s *movieStrategy) Execute(ctx context.Context, request *models.Request) (*Result, error) {
	query := request.Title
	if request.Year > 0 {
		query = fmt.Sprintf("%s %d", request.Title, request.Year)
	}

	candidates, err := s.deps.Indexer.SearchMovies(ctx, interfaces.SearchCriteria{
		Query:  query,
		Year:   request.Year,
		ImdbID: request.ImdbID,
		TmdbID: request.TmdbID,
	})
	if err != nil {
		return &Result{Query: query}, pkgerrors.Unavailable("movie search failed", err)
	}

	return initiateSimple(ctx, s.deps, request, query, candidates)
}

// gameStrategy searches by title and drives the simple whole-request flow.
type gameStrategy struct {
	deps Deps
}

func (s *gameStrategy) Execute(ctx context.Context, request *models.Request) (*Result, error) {
	query := request.Title

	candidates, err := s.deps.Indexer.SearchGames(ctx, interfaces.SearchCriteria{Query: query})
	if err != nil {
		return &Result{Query: query}, pkgerrors.Unavailable("game search failed", err)
	}

	return initiateSimple(ctx, s.deps, request, query, candidates)
}

// initiateSimple selects a candidate and, if one passes the filters, runs the
// FOUND → engine → DOWNLOADING sequence on the whole request.
func initiateSimple(ctx context.Context, deps Deps, request *models.Request, query string, candidates []interfaces.ReleaseCandidate) (*Result, error) {
	result := &Result{Query: query, ResultCount: len(candidates), Indexers: mergeIndexers(nil, candidates)}

	candidate := deps.Selector.SelectBest(candidates, request.SelectionPreferences())
	if candidate == nil {
		return result, nil
	}
	result.Candidate = candidate

	if _, err := deps.Orch.MarkFound(ctx, request.ID, candidate); err != nil {
		return result, err
	}

	gid, err := addToEngine(ctx, deps, candidate)
	if err != nil {
		// The request sits in FOUND with no handle; cancel it so it can be
		// re-armed instead of stranding outside the searchable states.
		if _, cancelErr := deps.Orch.MarkCancelled(ctx, request.ID, "download initiation failed"); cancelErr != nil {
			deps.Logger.Error("failed to cancel request after engine error",
				interfaces.String("request_id", request.ID.String()),
				interfaces.Error(cancelErr))
		}
		return result, pkgerrors.Unavailable("failed to initiate download", err)
	}

	if _, err := deps.Orch.StartDownload(ctx, request.ID, gid); err != nil {
		return result, err
	}

	result.Initiated = true
	return result, nil
}

// addToEngine hands a candidate to the download engine, preferring the magnet
// link over the indexer download URL.
func addToEngine(ctx context.Context, deps Deps, candidate *interfaces.ReleaseCandidate) (string, error) {
	opts := interfaces.AddOptions{Dir: deps.DownloadDir}
	if candidate.MagnetURI != "" {
		return deps.Engine.AddMagnet(ctx, candidate.MagnetURI, opts)
	}
	if candidate.Link != "" {
		return deps.Engine.AddURI(ctx, []string{candidate.Link}, opts)
	}
	return "", pkgerrors.BadRequest("candidate has neither magnet nor link")
}
