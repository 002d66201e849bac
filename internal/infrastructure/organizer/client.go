// Package organizer implements the file organizer contract over the
// organizer service's HTTP API.
package organizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/harpoonmedia/harpoon/pkg/errors"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
)

// Client calls the external organizer service. Organization is best-effort;
// callers treat every error here as non-fatal.
type Client struct {
	baseURL string
	http    *http.Client
	logger  interfaces.Logger
}

// NewClient creates an organizer client.
func NewClient(baseURL string, timeout time.Duration, logger interfaces.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type organizeFilePayload struct {
	RequestID     string `json:"request_id"`
	SourcePath    string `json:"source_path"`
	Title         string `json:"title"`
	Year          int    `json:"year,omitempty"`
	ContentType   string `json:"content_type"`
	SeasonNumber  int    `json:"season_number,omitempty"`
	EpisodeNumber int    `json:"episode_number,omitempty"`
	Quality       string `json:"quality,omitempty"`
	Format        string `json:"format,omitempty"`
	Edition       string `json:"edition,omitempty"`
}

type organizeResultPayload struct {
	Success       bool   `json:"success"`
	OrganizedPath string `json:"organized_path"`
	Error         string `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to encode organizer request", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to build organizer request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Unavailable("organizer unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pkgerrors.Unavailable(
			fmt.Sprintf("organizer returned status %d", resp.StatusCode), nil)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return pkgerrors.Unavailable("organizer returned malformed response", err)
		}
	}
	return nil
}

// OrganizeFile places a single downloaded file into the library.
func (c *Client) OrganizeFile(ctx context.Context, req interfaces.OrganizeFileRequest) (*interfaces.OrganizeResult, error) {
	payload := organizeFilePayload{
		RequestID:     req.RequestID.String(),
		SourcePath:    req.SourcePath,
		Title:         req.Title,
		Year:          req.Year,
		ContentType:   req.ContentType,
		SeasonNumber:  req.SeasonNumber,
		EpisodeNumber: req.EpisodeNumber,
		Quality:       req.Quality,
		Format:        req.Format,
		Edition:       req.Edition,
	}
	var result organizeResultPayload
	if err := c.post(ctx, "/api/v1/organize/file", payload, &result); err != nil {
		return nil, err
	}
	return &interfaces.OrganizeResult{
		Success:       result.Success,
		OrganizedPath: result.OrganizedPath,
		Error:         result.Error,
	}, nil
}

// OrganizeRequest asks the organizer to sweep everything it can find for the
// request.
func (c *Client) OrganizeRequest(ctx context.Context, requestID uuid.UUID) error {
	return c.post(ctx, "/api/v1/organize/request/"+requestID.String(), nil, nil)
}

var _ interfaces.FileOrganizer = (*Client)(nil)
