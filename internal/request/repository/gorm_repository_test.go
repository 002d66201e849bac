package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/harpoonmedia/harpoon/internal/request/repository"
	"github.com/harpoonmedia/harpoon/internal/testutil"
	pkgerrors "github.com/harpoonmedia/harpoon/pkg/errors"
	"github.com/harpoonmedia/harpoon/pkg/models"
)

type GormRepositoryTestSuite struct {
	suite.Suite

	ctx  context.Context
	repo *repository.GormRepository
}

func (s *GormRepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = repository.NewGormRepository(testutil.NewTestDB(s.T()))
}

func (s *GormRepositoryTestSuite) newRequest(mutate func(*models.Request)) *models.Request {
	request := &models.Request{
		ID:                uuid.New(),
		ContentType:       models.ContentTypeMovie,
		Title:             "Example Movie",
		Status:            models.RequestStatusPending,
		MaxSearchAttempts: 5,
	}
	if mutate != nil {
		mutate(request)
	}
	s.Require().NoError(s.repo.CreateRequest(s.ctx, request))
	return request
}

func (s *GormRepositoryTestSuite) TestCreateAndGetRequest() {
	request := s.newRequest(func(r *models.Request) {
		r.QualityAllowlist = []string{"1080p", "2160p"}
		r.BlacklistWords = []string{"CAM"}
	})

	stored, err := s.repo.GetRequest(s.ctx, request.ID)

	s.Require().NoError(err)
	s.Equal(request.Title, stored.Title)
	s.Equal([]string{"1080p", "2160p"}, stored.QualityAllowlist)
	s.Equal([]string{"CAM"}, stored.BlacklistWords)
}

func (s *GormRepositoryTestSuite) TestGetRequest_NotFound() {
	_, err := s.repo.GetRequest(s.ctx, uuid.New())

	s.True(pkgerrors.IsNotFound(err))
}

func (s *GormRepositoryTestSuite) TestListDueRequests_FiltersAndOrders() {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	dueLow := s.newRequest(func(r *models.Request) {
		r.Title = "Due Low Priority"
		r.NextSearchAt = &past
	})
	dueHigh := s.newRequest(func(r *models.Request) {
		r.Title = "Due High Priority"
		r.Priority = 10
		r.NextSearchAt = &past
	})
	neverSearched := s.newRequest(func(r *models.Request) {
		r.Title = "Never Searched"
		r.Priority = 5
	})
	s.newRequest(func(r *models.Request) {
		r.Title = "Backed Off"
		r.NextSearchAt = &future
	})
	s.newRequest(func(r *models.Request) {
		r.Title = "Already Downloading"
		r.Status = models.RequestStatusDownloading
	})

	due, err := s.repo.ListDueRequests(s.ctx, now, 0)

	s.Require().NoError(err)
	s.Require().Len(due, 3)
	s.Equal(dueHigh.ID, due[0].ID, "highest priority first")
	s.Equal(neverSearched.ID, due[1].ID)
	s.Equal(dueLow.ID, due[2].ID)
}

func (s *GormRepositoryTestSuite) TestListDueRequests_Limit() {
	past := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		s.newRequest(func(r *models.Request) { r.NextSearchAt = &past })
	}

	due, err := s.repo.ListDueRequests(s.ctx, time.Now(), 2)

	s.Require().NoError(err)
	s.Len(due, 2)
}

func (s *GormRepositoryTestSuite) TestListExpiryCandidates() {
	old := time.Now().Add(-30 * 24 * time.Hour)
	spent := s.newRequest(func(r *models.Request) {
		r.Title = "Spent And Old"
		r.SearchAttempts = 5
		r.CreatedAt = old
	})
	s.newRequest(func(r *models.Request) {
		r.Title = "Spent But Recent"
		r.SearchAttempts = 5
	})
	s.newRequest(func(r *models.Request) {
		r.Title = "Old But Budget Remains"
		r.SearchAttempts = 2
		r.CreatedAt = old
	})

	candidates, err := s.repo.ListExpiryCandidates(s.ctx, time.Now().Add(-14*24*time.Hour))

	s.Require().NoError(err)
	s.Require().Len(candidates, 1)
	s.Equal(spent.ID, candidates[0].ID)
}

func (s *GormRepositoryTestSuite) TestCountRequestsByStatus() {
	s.newRequest(nil)
	s.newRequest(nil)
	s.newRequest(func(r *models.Request) { r.Status = models.RequestStatusDownloading })

	pending, err := s.repo.CountRequestsByStatus(s.ctx, models.RequestStatusPending)
	s.Require().NoError(err)
	s.Equal(int64(2), pending)

	downloading, err := s.repo.CountRequestsByStatus(s.ctx, models.RequestStatusDownloading)
	s.Require().NoError(err)
	s.Equal(int64(1), downloading)
}

func (s *GormRepositoryTestSuite) TestSeasonAndEpisodeLookups() {
	request := s.newRequest(func(r *models.Request) {
		r.ContentType = models.ContentTypeTV
		r.IsOngoing = true
	})
	season := &models.Season{RequestID: request.ID, SeasonNumber: 2, Status: models.TrackStatusPending}
	s.Require().NoError(s.repo.CreateSeason(s.ctx, season))

	for episodeNumber := 1; episodeNumber <= 3; episodeNumber++ {
		episode := &models.Episode{
			RequestID:     request.ID,
			SeasonID:      &season.ID,
			SeasonNumber:  2,
			EpisodeNumber: episodeNumber,
			Status:        models.TrackStatusPending,
		}
		s.Require().NoError(s.repo.CreateEpisode(s.ctx, episode))
	}

	found, err := s.repo.GetSeasonByNumber(s.ctx, request.ID, 2)
	s.Require().NoError(err)
	s.Equal(season.ID, found.ID)

	_, err = s.repo.GetSeasonByNumber(s.ctx, request.ID, 9)
	s.True(pkgerrors.IsNotFound(err))

	episode, err := s.repo.GetEpisodeByNumber(s.ctx, request.ID, 2, 3)
	s.Require().NoError(err)
	s.Equal(3, episode.EpisodeNumber)

	episodes, err := s.repo.ListSeasonEpisodes(s.ctx, request.ID, 2)
	s.Require().NoError(err)
	s.Require().Len(episodes, 3)
	s.Equal(1, episodes[0].EpisodeNumber)
	s.Equal(3, episodes[2].EpisodeNumber)
}

func (s *GormRepositoryTestSuite) TestTorrentDownloadsByGIDAndActive() {
	request := s.newRequest(nil)
	active := &models.TorrentDownload{
		RequestID: request.ID,
		GID:       "gid-active",
		Status:    models.TrackStatusDownloading,
	}
	finished := &models.TorrentDownload{
		RequestID: request.ID,
		GID:       "gid-finished",
		Status:    models.TrackStatusCompleted,
	}
	s.Require().NoError(s.repo.CreateTorrentDownload(s.ctx, active))
	s.Require().NoError(s.repo.CreateTorrentDownload(s.ctx, finished))

	byGID, err := s.repo.GetTorrentDownloadByGID(s.ctx, "gid-active")
	s.Require().NoError(err)
	s.Equal(active.ID, byGID.ID)

	_, err = s.repo.GetTorrentDownloadByGID(s.ctx, "gid-unknown")
	s.True(pkgerrors.IsNotFound(err))

	activeList, err := s.repo.ListActiveTorrentDownloads(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(activeList, 1)
	s.Equal(active.ID, activeList[0].ID)
}

func (s *GormRepositoryTestSuite) TestDuplicateGIDIsConflict() {
	request := s.newRequest(nil)
	first := &models.TorrentDownload{RequestID: request.ID, GID: "gid-dup", Status: models.TrackStatusDownloading}
	second := &models.TorrentDownload{RequestID: request.ID, GID: "gid-dup", Status: models.TrackStatusDownloading}

	s.Require().NoError(s.repo.CreateTorrentDownload(s.ctx, first))
	err := s.repo.CreateTorrentDownload(s.ctx, second)

	s.True(pkgerrors.IsConflict(err))
}

func (s *GormRepositoryTestSuite) TestSearchLogRetention() {
	request := s.newRequest(nil)
	oldLog := &models.SearchLog{
		ID:        uuid.New(),
		RequestID: request.ID,
		Query:     "old",
		CreatedAt: time.Now().Add(-45 * 24 * time.Hour),
	}
	newLog := &models.SearchLog{
		ID:        uuid.New(),
		RequestID: request.ID,
		Query:     "new",
	}
	s.Require().NoError(s.repo.CreateSearchLog(s.ctx, oldLog))
	s.Require().NoError(s.repo.CreateSearchLog(s.ctx, newLog))

	pruned, err := s.repo.DeleteSearchLogsBefore(s.ctx, time.Now().Add(-30*24*time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), pruned)

	logs, err := s.repo.ListSearchLogs(s.ctx, request.ID, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Equal("new", logs[0].Query)
}

func (s *GormRepositoryTestSuite) TestDeleteRequest() {
	request := s.newRequest(func(r *models.Request) { r.ContentType = models.ContentTypeTV })
	season := &models.Season{RequestID: request.ID, SeasonNumber: 1, Status: models.TrackStatusPending}
	s.Require().NoError(s.repo.CreateSeason(s.ctx, season))

	s.Require().NoError(s.repo.DeleteRequest(s.ctx, request.ID))

	_, err := s.repo.GetRequest(s.ctx, request.ID)
	s.True(pkgerrors.IsNotFound(err))
}

func TestGormRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(GormRepositoryTestSuite))
}
