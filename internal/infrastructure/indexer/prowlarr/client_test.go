package prowlarr_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harpoonmedia/harpoon/internal/infrastructure/indexer/prowlarr"
	pkgerrors "github.com/harpoonmedia/harpoon/pkg/errors"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
	"github.com/harpoonmedia/harpoon/pkg/logger"
)

func newSearchServer(t *testing.T, requests *[]*http.Request, results []map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests = append(*requests, r)
		if r.Header.Get("X-Api-Key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(results)
	}))
}

func TestSearchMovies_MapsResults(t *testing.T) {
	var requests []*http.Request
	server := newSearchServer(t, &requests, []map[string]any{
		{
			"title":       "Example.Movie.2020.1080p.BluRay.x264",
			"downloadUrl": "https://indexer.example/dl/1",
			"magnetUrl":   "magnet:?xt=urn:btih:abc",
			"infoHash":    "abc",
			"size":        2_000_000_000,
			"seeders":     42,
			"leechers":    3,
			"indexer":     "ExampleIndexer",
		},
	})
	defer server.Close()
	client := prowlarr.NewClient(server.URL, "key", 5*time.Second, logger.NewNoop())

	candidates, err := client.SearchMovies(context.Background(), interfaces.SearchCriteria{
		Query: "Example Movie 2020",
	})

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Example.Movie.2020.1080p.BluRay.x264", candidates[0].Title)
	assert.Equal(t, "magnet:?xt=urn:btih:abc", candidates[0].MagnetURI)
	assert.Equal(t, 42, candidates[0].Seeders)
	assert.Equal(t, "ExampleIndexer", candidates[0].Indexer)

	require.Len(t, requests, 1)
	params := requests[0].URL.Query()
	assert.Equal(t, "/api/v1/search", requests[0].URL.Path)
	assert.Equal(t, "Example Movie 2020", params.Get("query"))
	assert.Equal(t, "2000", params.Get("categories"))
	assert.Equal(t, "100", params.Get("limit"))
}

func TestSearchTVAndGames_UseOwnCategories(t *testing.T) {
	var requests []*http.Request
	server := newSearchServer(t, &requests, nil)
	defer server.Close()
	client := prowlarr.NewClient(server.URL, "key", 5*time.Second, logger.NewNoop())

	_, err := client.SearchTV(context.Background(), interfaces.SearchCriteria{Query: "Example Show S01"})
	require.NoError(t, err)
	_, err = client.SearchGames(context.Background(), interfaces.SearchCriteria{Query: "Example Game"})
	require.NoError(t, err)

	require.Len(t, requests, 2)
	assert.Equal(t, "5000", requests[0].URL.Query().Get("categories"))
	assert.Equal(t, "4000", requests[1].URL.Query().Get("categories"))
}

func TestSearch_BadAPIKeyIsUnavailable(t *testing.T) {
	var requests []*http.Request
	server := newSearchServer(t, &requests, nil)
	defer server.Close()
	client := prowlarr.NewClient(server.URL, "wrong", 5*time.Second, logger.NewNoop())

	_, err := client.SearchMovies(context.Background(), interfaces.SearchCriteria{Query: "x"})

	assert.True(t, pkgerrors.IsUnavailable(err))
}

func TestSearch_EmptyResultSet(t *testing.T) {
	var requests []*http.Request
	server := newSearchServer(t, &requests, []map[string]any{})
	defer server.Close()
	client := prowlarr.NewClient(server.URL, "key", 5*time.Second, logger.NewNoop())

	candidates, err := client.SearchMovies(context.Background(), interfaces.SearchCriteria{Query: "nothing"})

	require.NoError(t, err)
	assert.Empty(t, candidates)
}
