// Package prowlarr implements the indexer aggregator contract against a
// Prowlarr instance, which fans queries out to its configured indexers.
package prowlarr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	pkgerrors "github.com/harpoonmedia/harpoon/pkg/errors"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
)

// Newznab top-level categories understood by every aggregated indexer.
const (
	categoryMovies = 2000
	categoryTV     = 5000
	categoryGames  = 4000
)

const defaultLimit = 100

// Client queries the Prowlarr v1 search API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  interfaces.Logger
}

// NewClient creates a Prowlarr client.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger interfaces.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// releasePayload mirrors the fields of a Prowlarr search result we consume.
type releasePayload struct {
	Title       string `json:"title"`
	DownloadURL string `json:"downloadUrl"`
	MagnetURL   string `json:"magnetUrl"`
	InfoHash    string `json:"infoHash"`
	Size        int64  `json:"size"`
	Seeders     int    `json:"seeders"`
	Leechers    int    `json:"leechers"`
	Indexer     string `json:"indexer"`
}

func (c *Client) search(ctx context.Context, criteria interfaces.SearchCriteria, category int) ([]interfaces.ReleaseCandidate, error) {
	limit := criteria.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	query := url.Values{}
	query.Set("query", criteria.Query)
	query.Set("categories", strconv.Itoa(category))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("type", "search")

	endpoint := fmt.Sprintf("%s/api/v1/search?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to build indexer request", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Unavailable("indexer aggregator unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, pkgerrors.Unavailable("indexer aggregator rejected api key", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.Unavailable(
			fmt.Sprintf("indexer aggregator returned status %d", resp.StatusCode), nil)
	}

	var payloads []releasePayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		return nil, pkgerrors.Unavailable("indexer aggregator returned malformed response", err)
	}

	candidates := make([]interfaces.ReleaseCandidate, 0, len(payloads))
	for _, p := range payloads {
		candidates = append(candidates, interfaces.ReleaseCandidate{
			Title:     p.Title,
			Link:      p.DownloadURL,
			MagnetURI: p.MagnetURL,
			InfoHash:  p.InfoHash,
			Size:      p.Size,
			Seeders:   p.Seeders,
			Leechers:  p.Leechers,
			Indexer:   p.Indexer,
		})
	}
	c.logger.Debug("indexer search finished",
		interfaces.String("query", criteria.Query),
		interfaces.Int("category", category),
		interfaces.Int("results", len(candidates)))
	return candidates, nil
}

// SearchMovies queries the movie categories.
func (c *Client) SearchMovies(ctx context.Context, criteria interfaces.SearchCriteria) ([]interfaces.ReleaseCandidate, error) {
	return c.search(ctx, criteria, categoryMovies)
}

// SearchTV queries the TV categories.
func (c *Client) SearchTV(ctx context.Context, criteria interfaces.SearchCriteria) ([]interfaces.ReleaseCandidate, error) {
	return c.search(ctx, criteria, categoryTV)
}

// SearchGames queries the PC/games categories.
func (c *Client) SearchGames(ctx context.Context, criteria interfaces.SearchCriteria) ([]interfaces.ReleaseCandidate, error) {
	return c.search(ctx, criteria, categoryGames)
}

var _ interfaces.IndexerAggregator = (*Client)(nil)
