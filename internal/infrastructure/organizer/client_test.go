package organizer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harpoonmedia/harpoon/internal/infrastructure/organizer"
	pkgerrors "github.com/harpoonmedia/harpoon/pkg/errors"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
	"github.com/harpoonmedia/harpoon/pkg/logger"
)

func TestOrganizeFile(t *testing.T) {
	requestID := uuid.New()
	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":        true,
			"organized_path": "/library/Example Movie (2020)/Example Movie (2020).mkv",
		})
	}))
	defer server.Close()
	client := organizer.NewClient(server.URL, 5*time.Second, logger.NewNoop())

	result, err := client.OrganizeFile(context.Background(), interfaces.OrganizeFileRequest{
		RequestID:   requestID,
		SourcePath:  "/downloads/movie.mkv",
		Title:       "Example Movie",
		Year:        2020,
		ContentType: "movie",
		Quality:     "1080p",
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "/library/Example Movie (2020)/Example Movie (2020).mkv", result.OrganizedPath)
	assert.Equal(t, "/api/v1/organize/file", gotPath)
	assert.Equal(t, requestID.String(), gotBody["request_id"])
	assert.Equal(t, "1080p", gotBody["quality"])
}

func TestOrganizeRequest(t *testing.T) {
	requestID := uuid.New()
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()
	client := organizer.NewClient(server.URL, 5*time.Second, logger.NewNoop())

	err := client.OrganizeRequest(context.Background(), requestID)

	require.NoError(t, err)
	assert.Equal(t, "/api/v1/organize/request/"+requestID.String(), gotPath)
}

func TestOrganizeFile_ServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	client := organizer.NewClient(server.URL, 5*time.Second, logger.NewNoop())

	_, err := client.OrganizeFile(context.Background(), interfaces.OrganizeFileRequest{
		RequestID:  uuid.New(),
		SourcePath: "/downloads/movie.mkv",
	})

	assert.True(t, pkgerrors.IsUnavailable(err))
}
