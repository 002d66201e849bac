package downloads_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/harpoonmedia/harpoon/internal/downloads"
	"github.com/harpoonmedia/harpoon/internal/testutil"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
	"github.com/harpoonmedia/harpoon/pkg/logger"
	"github.com/harpoonmedia/harpoon/pkg/models"
)

func newAggregator(engine *testutil.MockDownloadEngine) *downloads.Aggregator {
	return downloads.NewAggregator(engine, logger.NewNoop())
}

func stubStatus(engine *testutil.MockDownloadEngine, status *interfaces.EngineStatus) {
	engine.On("Status", mock.Anything, status.GID).Return(status, nil)
}

func TestStatus_ChildrenOnlyTotals(t *testing.T) {
	engine := new(testutil.MockDownloadEngine)
	// The parent is the resolved metadata blob; its 5000 bytes must never
	// leak into the totals.
	stubStatus(engine, &interfaces.EngineStatus{
		GID:             "parent",
		Status:          interfaces.EngineStatusComplete,
		TotalLength:     5000,
		CompletedLength: 5000,
		FollowedBy:      []string{"child-1", "child-2"},
	})
	stubStatus(engine, &interfaces.EngineStatus{
		GID:             "child-1",
		Status:          interfaces.EngineStatusActive,
		TotalLength:     1_200_000_000,
		CompletedLength: 300_000_000,
		DownloadSpeed:   2048,
	})
	stubStatus(engine, &interfaces.EngineStatus{
		GID:             "child-2",
		Status:          interfaces.EngineStatusComplete,
		TotalLength:     800_000_000,
		CompletedLength: 800_000_000,
	})

	view, err := newAggregator(engine).Status(context.Background(), "parent")

	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000_000), view.TotalBytes, "parent bytes excluded")
	assert.Equal(t, int64(1_100_000_000), view.CompletedBytes)
	assert.Equal(t, int64(2048), view.Speed)
	assert.Equal(t, models.DownloadStateActive, view.Status)
	assert.Equal(t, []string{"child-1", "child-2"}, view.ChildGIDs)
	assert.Equal(t, 55, view.Progress)
}

func TestStatus_ErrorChildTakesPrecedence(t *testing.T) {
	engine := new(testutil.MockDownloadEngine)
	stubStatus(engine, &interfaces.EngineStatus{
		GID:        "parent",
		Status:     interfaces.EngineStatusComplete,
		FollowedBy: []string{"child-1", "child-2"},
	})
	stubStatus(engine, &interfaces.EngineStatus{
		GID:          "child-1",
		Status:       interfaces.EngineStatusError,
		ErrorMessage: "disk full",
	})
	stubStatus(engine, &interfaces.EngineStatus{
		GID:             "child-2",
		Status:          interfaces.EngineStatusComplete,
		TotalLength:     100,
		CompletedLength: 100,
	})

	view, err := newAggregator(engine).Status(context.Background(), "parent")

	require.NoError(t, err)
	assert.Equal(t, models.DownloadStateError, view.Status)
	assert.Equal(t, "disk full", view.ErrorMessage)
	assert.True(t, view.Failed())
}

func TestStatus_AllChildrenAndParentComplete(t *testing.T) {
	engine := new(testutil.MockDownloadEngine)
	stubStatus(engine, &interfaces.EngineStatus{
		GID:        "parent",
		Status:     interfaces.EngineStatusComplete,
		FollowedBy: []string{"child-1", "child-2"},
	})
	stubStatus(engine, &interfaces.EngineStatus{
		GID:             "child-1",
		Status:          interfaces.EngineStatusComplete,
		TotalLength:     100,
		CompletedLength: 100,
	})
	stubStatus(engine, &interfaces.EngineStatus{
		GID:             "child-2",
		Status:          interfaces.EngineStatusComplete,
		TotalLength:     100,
		CompletedLength: 100,
	})

	view, err := newAggregator(engine).Status(context.Background(), "parent")

	require.NoError(t, err)
	assert.Equal(t, models.DownloadStateComplete, view.Status)
	assert.True(t, view.Complete())
	assert.Equal(t, 100, view.Progress)
}

func TestStatus_WaitingChildLeavesViewSettling(t *testing.T) {
	engine := new(testutil.MockDownloadEngine)
	stubStatus(engine, &interfaces.EngineStatus{
		GID:        "parent",
		Status:     interfaces.EngineStatusComplete,
		FollowedBy: []string{"child-1", "child-2"},
	})
	stubStatus(engine, &interfaces.EngineStatus{
		GID:    "child-1",
		Status: interfaces.EngineStatusWaiting,
	})
	stubStatus(engine, &interfaces.EngineStatus{
		GID:             "child-2",
		Status:          interfaces.EngineStatusComplete,
		TotalLength:     100,
		CompletedLength: 100,
	})

	view, err := newAggregator(engine).Status(context.Background(), "parent")

	require.NoError(t, err)
	assert.Equal(t, models.DownloadStateSettling, view.Status)
	assert.False(t, view.Complete())
	assert.False(t, view.Failed())
}

func TestStatus_MetadataOnlyHandleReportsWaiting(t *testing.T) {
	engine := new(testutil.MockDownloadEngine)
	// A tiny "complete" handle is resolved metadata, not content.
	stubStatus(engine, &interfaces.EngineStatus{
		GID:             "parent",
		Status:          interfaces.EngineStatusComplete,
		TotalLength:     48_000,
		CompletedLength: 48_000,
	})

	view, err := newAggregator(engine).Status(context.Background(), "parent")

	require.NoError(t, err)
	assert.Equal(t, models.DownloadStateWaiting, view.Status)
	assert.Zero(t, view.Progress)
	assert.Zero(t, view.TotalBytes)
}

func TestStatus_ParentFallbackWhenNoChildren(t *testing.T) {
	engine := new(testutil.MockDownloadEngine)
	stubStatus(engine, &interfaces.EngineStatus{
		GID:             "parent",
		Status:          interfaces.EngineStatusActive,
		TotalLength:     1000,
		CompletedLength: 499,
		DownloadSpeed:   64,
		Files: []interfaces.EngineFile{
			{Path: "/downloads/example.mkv", Length: 1000},
		},
	})

	view, err := newAggregator(engine).Status(context.Background(), "parent")

	require.NoError(t, err)
	assert.Equal(t, models.DownloadStateActive, view.Status)
	assert.Equal(t, int64(1000), view.TotalBytes)
	assert.Equal(t, 50, view.Progress)
	assert.Equal(t, []string{"/downloads/example.mkv"}, view.FilePaths)
}

func TestStatus_RemovedHandleIsError(t *testing.T) {
	engine := new(testutil.MockDownloadEngine)
	stubStatus(engine, &interfaces.EngineStatus{
		GID:         "parent",
		Status:      interfaces.EngineStatusRemoved,
		TotalLength: 200_000,
	})

	view, err := newAggregator(engine).Status(context.Background(), "parent")

	require.NoError(t, err)
	assert.Equal(t, models.DownloadStateError, view.Status)
	assert.NotEmpty(t, view.ErrorMessage)
}

func TestStatus_ProgressClampedToHundred(t *testing.T) {
	engine := new(testutil.MockDownloadEngine)
	// An engine briefly over-reporting completed bytes must not exceed 100%.
	stubStatus(engine, &interfaces.EngineStatus{
		GID:             "parent",
		Status:          interfaces.EngineStatusActive,
		TotalLength:     1000,
		CompletedLength: 1100,
	})

	view, err := newAggregator(engine).Status(context.Background(), "parent")

	require.NoError(t, err)
	assert.Equal(t, 100, view.Progress)
}

func TestSummary_MapsGlobalStats(t *testing.T) {
	engine := new(testutil.MockDownloadEngine)
	engine.On("GlobalStats", mock.Anything).Return(&interfaces.EngineGlobalStats{
		DownloadSpeed: 4096,
		UploadSpeed:   512,
		NumActive:     2,
		NumWaiting:    1,
		NumStopped:    7,
	}, nil)

	summary, err := newAggregator(engine).Summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(4096), summary.DownloadSpeed)
	assert.Equal(t, 2, summary.NumActive)
	assert.Equal(t, 7, summary.NumStopped)
}
