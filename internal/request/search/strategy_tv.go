package search

import (
	"context"
	"fmt"

	pkgerrors "github.com/harpoonmedia/harpoon/pkg/errors"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
	"github.com/harpoonmedia/harpoon/pkg/models"
)

// tvStrategy handles both scoped TV requests and ongoing series.
//
// A non-ongoing TV request follows the simple whole-request flow with a
// season/episode-scoped query when sub-trackers exist. An ongoing request
// never enters FOUND: it searches for a season pack for the next season
// needing acquisition and falls back to probing individual episodes, binding
// every initiated download to its season or episode sub-tracker. At most one
// new download is initiated per round to avoid saturating the engine.
type tvStrategy struct {
	deps Deps
}

func (s *tvStrategy) Execute(ctx context.Context, request *models.Request) (*Result, error) {
	if !request.IsOngoing {
		return s.executeScoped(ctx, request)
	}
	return s.executeOngoing(ctx, request)
}

// executeScoped searches a one-shot TV request. The query narrows to the
// first open episode or season sub-tracker when one exists.
func (s *tvStrategy) executeScoped(ctx context.Context, request *models.Request) (*Result, error) {
	criteria := interfaces.SearchCriteria{
		Query:  request.Title,
		ImdbID: request.ImdbID,
		TmdbID: request.TmdbID,
	}

	episodes, err := s.deps.Repo.ListEpisodes(ctx, request.ID)
	if err != nil {
		return &Result{Query: criteria.Query}, err
	}
	if episode := firstOpenEpisode(episodes); episode != nil {
		criteria.Season = episode.SeasonNumber
		criteria.Episode = episode.EpisodeNumber
		criteria.Query = fmt.Sprintf("%s S%02dE%02d", request.Title, episode.SeasonNumber, episode.EpisodeNumber)
	} else {
		seasons, err := s.deps.Repo.ListSeasons(ctx, request.ID)
		if err != nil {
			return &Result{Query: criteria.Query}, err
		}
		if season := firstOpenSeason(seasons); season != nil {
			criteria.Season = season.SeasonNumber
			criteria.Query = fmt.Sprintf("%s S%02d", request.Title, season.SeasonNumber)
		}
	}

	candidates, err := s.deps.Indexer.SearchTV(ctx, criteria)
	if err != nil {
		return &Result{Query: criteria.Query}, pkgerrors.Unavailable("tv search failed", err)
	}

	return initiateSimple(ctx, s.deps, request, criteria.Query, candidates)
}

// executeOngoing runs one acquisition round for an ongoing series: season
// pack first, per-episode fallback second.
func (s *tvStrategy) executeOngoing(ctx context.Context, request *models.Request) (*Result, error) {
	season, err := s.nextSeason(ctx, request)
	if err != nil {
		return &Result{}, err
	}

	packQuery := fmt.Sprintf("%s S%02d", request.Title, season.SeasonNumber)
	result := &Result{Query: packQuery}

	candidates, err := s.deps.Indexer.SearchTV(ctx, interfaces.SearchCriteria{
		Query:  packQuery,
		ImdbID: request.ImdbID,
		TmdbID: request.TmdbID,
		Season: season.SeasonNumber,
	})
	if err != nil {
		return result, pkgerrors.Unavailable("season pack search failed", err)
	}
	result.ResultCount = len(candidates)
	result.Indexers = mergeIndexers(result.Indexers, candidates)

	if candidate := s.deps.Selector.SelectBest(candidates, request.SelectionPreferences()); candidate != nil {
		result.Candidate = candidate
		gid, err := addToEngine(ctx, s.deps, candidate)
		if err != nil {
			return result, pkgerrors.Unavailable("failed to initiate season pack download", err)
		}
		if _, err := s.deps.Orch.RecordTorrentDownload(ctx, request.ID, &season.ID, nil, gid, candidate); err != nil {
			return result, err
		}
		result.Initiated = true
		return result, nil
	}

	// No season pack; probe the first few open episodes individually.
	episodes, err := s.fallbackEpisodes(ctx, request, season)
	if err != nil {
		return result, err
	}

	for _, episode := range episodes {
		episodeQuery := fmt.Sprintf("%s S%02dE%02d", request.Title, episode.SeasonNumber, episode.EpisodeNumber)
		candidates, err := s.deps.Indexer.SearchTV(ctx, interfaces.SearchCriteria{
			Query:   episodeQuery,
			ImdbID:  request.ImdbID,
			TmdbID:  request.TmdbID,
			Season:  episode.SeasonNumber,
			Episode: episode.EpisodeNumber,
		})
		if err != nil {
			result.Query = episodeQuery
			return result, pkgerrors.Unavailable("episode search failed", err)
		}
		result.ResultCount += len(candidates)
		result.Indexers = mergeIndexers(result.Indexers, candidates)

		candidate := s.deps.Selector.SelectBest(candidates, request.SelectionPreferences())
		if candidate == nil {
			continue
		}

		result.Query = episodeQuery
		result.Candidate = candidate

		gid, err := addToEngine(ctx, s.deps, candidate)
		if err != nil {
			return result, pkgerrors.Unavailable("failed to initiate episode download", err)
		}
		if _, err := s.deps.Orch.RecordTorrentDownload(ctx, request.ID, nil, &episode.ID, gid, candidate); err != nil {
			return result, err
		}

		// One new download per round.
		result.Initiated = true
		return result, nil
	}

	return result, nil
}

// nextSeason picks the next season needing acquisition: the first recorded
// season with no completed or active download, else last known season + 1,
// else season 1. The record is created when missing.
func (s *tvStrategy) nextSeason(ctx context.Context, request *models.Request) (*models.Season, error) {
	seasons, err := s.deps.Repo.ListSeasons(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	if season := firstOpenSeason(seasons); season != nil {
		return season, nil
	}

	number := request.LastKnownSeason + 1
	if len(seasons) == 0 && request.LastKnownSeason == 0 {
		number = 1
	}

	season := &models.Season{
		RequestID:    request.ID,
		SeasonNumber: number,
		Status:       models.TrackStatusPending,
	}
	if err := s.deps.Repo.CreateSeason(ctx, season); err != nil {
		return nil, err
	}
	return season, nil
}

// fallbackEpisodes returns the open episodes to probe for a season. Records
// are created on demand, a window of EpisodeFallbackCount at a time: the
// first window when nothing is recorded yet, then past the highest recorded
// number up to the season's known episode count once earlier records fill up.
func (s *tvStrategy) fallbackEpisodes(ctx context.Context, request *models.Request, season *models.Season) ([]*models.Episode, error) {
	episodes, err := s.deps.Repo.ListSeasonEpisodes(ctx, request.ID, season.SeasonNumber)
	if err != nil {
		return nil, err
	}

	highest := 0
	open := make([]*models.Episode, 0, s.deps.EpisodeFallbackCount)
	for _, episode := range episodes {
		if episode.EpisodeNumber > highest {
			highest = episode.EpisodeNumber
		}
		if len(open) == s.deps.EpisodeFallbackCount {
			continue
		}
		if episode.Status == models.TrackStatusPending || episode.Status == models.TrackStatusFailed {
			open = append(open, episode)
		}
	}

	// With no known count only the initial window is ever created; a known
	// count keeps extending the records until the whole season is covered.
	limit := season.EpisodeCount
	if limit == 0 && len(episodes) == 0 {
		limit = s.deps.EpisodeFallbackCount
	}

	for number := highest + 1; len(open) < s.deps.EpisodeFallbackCount && number <= limit; number++ {
		episode := &models.Episode{
			RequestID:     request.ID,
			SeasonID:      &season.ID,
			SeasonNumber:  season.SeasonNumber,
			EpisodeNumber: number,
			Status:        models.TrackStatusPending,
		}
		if err := s.deps.Repo.CreateEpisode(ctx, episode); err != nil {
			return nil, err
		}
		open = append(open, episode)
	}
	return open, nil
}

func firstOpenSeason(seasons []*models.Season) *models.Season {
	for _, season := range seasons {
		if season.Status == models.TrackStatusPending || season.Status == models.TrackStatusFailed {
			return season
		}
	}
	return nil
}

func firstOpenEpisode(episodes []*models.Episode) *models.Episode {
	for _, episode := range episodes {
		if episode.Status == models.TrackStatusPending || episode.Status == models.TrackStatusFailed {
			return episode
		}
	}
	return nil
}
