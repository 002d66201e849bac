package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/harpoonmedia/harpoon/pkg/interfaces"
	"github.com/harpoonmedia/harpoon/pkg/models"
)

// MockDownloadEngine is a mock for the download engine collaborator
type MockDownloadEngine struct {
	mock.Mock
}

func (m *MockDownloadEngine) AddURI(ctx context.Context, uris []string, opts interfaces.AddOptions) (string, error) {
	args := m.Called(ctx, uris, opts)
	return args.String(0), args.Error(1)
}

func (m *MockDownloadEngine) AddMagnet(ctx context.Context, magnetURI string, opts interfaces.AddOptions) (string, error) {
	args := m.Called(ctx, magnetURI, opts)
	return args.String(0), args.Error(1)
}

func (m *MockDownloadEngine) AddTorrent(ctx context.Context, torrent []byte, opts interfaces.AddOptions) (string, error) {
	args := m.Called(ctx, torrent, opts)
	return args.String(0), args.Error(1)
}

func (m *MockDownloadEngine) Status(ctx context.Context, gid string) (*interfaces.EngineStatus, error) {
	args := m.Called(ctx, gid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.EngineStatus), args.Error(1)
}

func (m *MockDownloadEngine) Pause(ctx context.Context, gid string) error {
	args := m.Called(ctx, gid)
	return args.Error(0)
}

func (m *MockDownloadEngine) Unpause(ctx context.Context, gid string) error {
	args := m.Called(ctx, gid)
	return args.Error(0)
}

func (m *MockDownloadEngine) Remove(ctx context.Context, gid string) error {
	args := m.Called(ctx, gid)
	return args.Error(0)
}

func (m *MockDownloadEngine) GlobalStats(ctx context.Context) (*interfaces.EngineGlobalStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.EngineGlobalStats), args.Error(1)
}

// MockIndexerAggregator is a mock for the indexer aggregator collaborator
type MockIndexerAggregator struct {
	mock.Mock
}

func (m *MockIndexerAggregator) SearchMovies(ctx context.Context, criteria interfaces.SearchCriteria) ([]interfaces.ReleaseCandidate, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.ReleaseCandidate), args.Error(1)
}

func (m *MockIndexerAggregator) SearchTV(ctx context.Context, criteria interfaces.SearchCriteria) ([]interfaces.ReleaseCandidate, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.ReleaseCandidate), args.Error(1)
}

func (m *MockIndexerAggregator) SearchGames(ctx context.Context, criteria interfaces.SearchCriteria) ([]interfaces.ReleaseCandidate, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.ReleaseCandidate), args.Error(1)
}

// MockReleaseSelector is a mock for the release selector collaborator
type MockReleaseSelector struct {
	mock.Mock
}

func (m *MockReleaseSelector) SelectBest(candidates []interfaces.ReleaseCandidate, prefs interfaces.SelectionPreferences) *interfaces.ReleaseCandidate {
	args := m.Called(candidates, prefs)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*interfaces.ReleaseCandidate)
}

// MockFileOrganizer is a mock for the file organizer collaborator
type MockFileOrganizer struct {
	mock.Mock
}

func (m *MockFileOrganizer) OrganizeFile(ctx context.Context, req interfaces.OrganizeFileRequest) (*interfaces.OrganizeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.OrganizeResult), args.Error(1)
}

func (m *MockFileOrganizer) OrganizeRequest(ctx context.Context, requestID uuid.UUID) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

// MockDownloadViewer is a mock for the live download status view
type MockDownloadViewer struct {
	mock.Mock
}

func (m *MockDownloadViewer) Status(ctx context.Context, gid string) (*models.DownloadStatusView, error) {
	args := m.Called(ctx, gid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DownloadStatusView), args.Error(1)
}

func (m *MockDownloadViewer) Summary(ctx context.Context) (*models.DownloadSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DownloadSummary), args.Error(1)
}
