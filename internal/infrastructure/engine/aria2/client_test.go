package aria2_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harpoonmedia/harpoon/internal/infrastructure/engine/aria2"
	pkgerrors "github.com/harpoonmedia/harpoon/pkg/errors"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
	"github.com/harpoonmedia/harpoon/pkg/logger"
)

type rpcCall struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// newRPCServer records each call and answers from the results map, keyed by
// method name.
func newRPCServer(t *testing.T, calls *[]rpcCall, results map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		require.NoError(t, json.NewDecoder(r.Body).Decode(&call))
		*calls = append(*calls, call)

		result, ok := results[call.Method]
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":    "1",
				"error": map[string]any{"code": 1, "message": "GID xyz is not found"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "1", "result": result})
	}))
}

func newClient(url string) *aria2.Client {
	return aria2.NewClient(url, "s3cret", 5*time.Second, logger.NewNoop())
}

func TestAddURI_SendsTokenAndOptions(t *testing.T) {
	var calls []rpcCall
	server := newRPCServer(t, &calls, map[string]any{"aria2.addUri": "gid-1"})
	defer server.Close()

	gid, err := newClient(server.URL).AddURI(context.Background(),
		[]string{"https://example.org/file.iso"},
		interfaces.AddOptions{Dir: "/downloads", Pause: true})

	require.NoError(t, err)
	assert.Equal(t, "gid-1", gid)
	require.Len(t, calls, 1)
	assert.Equal(t, "aria2.addUri", calls[0].Method)
	require.Len(t, calls[0].Params, 3)
	assert.Equal(t, "token:s3cret", calls[0].Params[0])
	opts, ok := calls[0].Params[2].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/downloads", opts["dir"])
	assert.Equal(t, "true", opts["pause"])
}

func TestAddURI_RequiresURI(t *testing.T) {
	_, err := newClient("http://unused").AddURI(context.Background(), nil, interfaces.AddOptions{})

	assert.True(t, pkgerrors.IsBadRequest(err))
}

func TestStatus_ParsesNumericStrings(t *testing.T) {
	var calls []rpcCall
	server := newRPCServer(t, &calls, map[string]any{
		"aria2.tellStatus": map[string]any{
			"gid":             "gid-1",
			"status":          "active",
			"totalLength":     "2000000000",
			"completedLength": "1100000000",
			"downloadSpeed":   "2048",
			"uploadSpeed":     "0",
			"followedBy":      []string{"gid-2"},
			"files": []map[string]any{
				{"path": "/downloads/movie.mkv", "length": "2000000000", "completedLength": "1100000000", "selected": "true"},
			},
		},
	})
	defer server.Close()

	status, err := newClient(server.URL).Status(context.Background(), "gid-1")

	require.NoError(t, err)
	assert.Equal(t, interfaces.EngineStatusActive, status.Status)
	assert.Equal(t, int64(2_000_000_000), status.TotalLength)
	assert.Equal(t, int64(1_100_000_000), status.CompletedLength)
	assert.Equal(t, int64(2048), status.DownloadSpeed)
	assert.Equal(t, []string{"gid-2"}, status.FollowedBy)
	require.Len(t, status.Files, 1)
	assert.Equal(t, "/downloads/movie.mkv", status.Files[0].Path)
	assert.True(t, status.Files[0].Selected)
}

func TestStatus_UnknownGIDIsNotFound(t *testing.T) {
	var calls []rpcCall
	server := newRPCServer(t, &calls, nil)
	defer server.Close()

	_, err := newClient(server.URL).Status(context.Background(), "gid-unknown")

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestStatus_UnreachableEngineIsUnavailable(t *testing.T) {
	server := httptest.NewServer(nil)
	server.Close()

	_, err := newClient(server.URL).Status(context.Background(), "gid-1")

	assert.True(t, pkgerrors.IsUnavailable(err))
}

func TestGlobalStats(t *testing.T) {
	var calls []rpcCall
	server := newRPCServer(t, &calls, map[string]any{
		"aria2.getGlobalStat": map[string]any{
			"downloadSpeed": "4096",
			"uploadSpeed":   "512",
			"numActive":     "2",
			"numWaiting":    "1",
			"numStopped":    "7",
		},
	})
	defer server.Close()

	stats, err := newClient(server.URL).GlobalStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(4096), stats.DownloadSpeed)
	assert.Equal(t, 2, stats.NumActive)
	assert.Equal(t, 7, stats.NumStopped)
}
