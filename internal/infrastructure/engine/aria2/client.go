// Package aria2 implements the download engine contract over the aria2
// JSON-RPC interface.
package aria2

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/harpoonmedia/harpoon/pkg/errors"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
)

// Client talks to a single aria2 daemon over its JSON-RPC HTTP endpoint.
type Client struct {
	rpcURL string
	secret string
	http   *http.Client
	logger interfaces.Logger
}

// NewClient creates an aria2 RPC client. secret may be empty when the daemon
// runs without --rpc-secret.
func NewClient(rpcURL, secret string, timeout time.Duration, logger interfaces.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		rpcURL: rpcURL,
		secret: secret,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC round trip. The secret token, when configured,
// is always the first positional parameter.
func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	if c.secret != "" {
		params = append([]any{"token:" + c.secret}, params...)
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to encode rpc request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to build rpc request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Unavailable("download engine unreachable", err)
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return pkgerrors.Unavailable("download engine returned malformed response", err)
	}
	if rpcResp.Error != nil {
		if strings.Contains(rpcResp.Error.Message, "not found") {
			return pkgerrors.NotFound(rpcResp.Error.Message)
		}
		return pkgerrors.Unavailable(
			fmt.Sprintf("download engine rejected %s: %s", method, rpcResp.Error.Message), nil)
	}
	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return pkgerrors.Unavailable("download engine returned malformed result", err)
		}
	}
	return nil
}

// optionsMap converts engine add options to aria2's string-valued option map.
func optionsMap(opts interfaces.AddOptions) map[string]string {
	m := map[string]string{}
	if opts.Dir != "" {
		m["dir"] = opts.Dir
	}
	if opts.Pause {
		m["pause"] = "true"
	}
	return m
}

// AddURI starts a download from one or more URIs and returns its GID.
func (c *Client) AddURI(ctx context.Context, uris []string, opts interfaces.AddOptions) (string, error) {
	if len(uris) == 0 {
		return "", pkgerrors.BadRequest("at least one uri is required")
	}
	var gid string
	if err := c.call(ctx, "aria2.addUri", []any{uris, optionsMap(opts)}, &gid); err != nil {
		return "", err
	}
	c.logger.Debug("added uri download", interfaces.String("gid", gid))
	return gid, nil
}

// AddMagnet starts a magnet download. aria2 treats magnets as URIs; the
// returned GID is the metadata handle that later spawns content handles.
func (c *Client) AddMagnet(ctx context.Context, magnetURI string, opts interfaces.AddOptions) (string, error) {
	if magnetURI == "" {
		return "", pkgerrors.BadRequest("magnet uri is required")
	}
	return c.AddURI(ctx, []string{magnetURI}, opts)
}

// AddTorrent starts a download from raw torrent metainfo bytes.
func (c *Client) AddTorrent(ctx context.Context, torrent []byte, opts interfaces.AddOptions) (string, error) {
	if len(torrent) == 0 {
		return "", pkgerrors.BadRequest("torrent payload is required")
	}
	encoded := base64.StdEncoding.EncodeToString(torrent)
	var gid string
	if err := c.call(ctx, "aria2.addTorrent", []any{encoded, []string{}, optionsMap(opts)}, &gid); err != nil {
		return "", err
	}
	c.logger.Debug("added torrent download", interfaces.String("gid", gid))
	return gid, nil
}

// statusPayload mirrors aria2.tellStatus. aria2 reports every numeric field
// as a decimal string.
type statusPayload struct {
	GID             string        `json:"gid"`
	Status          string        `json:"status"`
	TotalLength     string        `json:"totalLength"`
	CompletedLength string        `json:"completedLength"`
	DownloadSpeed   string        `json:"downloadSpeed"`
	UploadSpeed     string        `json:"uploadSpeed"`
	ErrorCode       string        `json:"errorCode"`
	ErrorMessage    string        `json:"errorMessage"`
	FollowedBy      []string      `json:"followedBy"`
	Files           []filePayload `json:"files"`
}

type filePayload struct {
	Path            string `json:"path"`
	Length          string `json:"length"`
	CompletedLength string `json:"completedLength"`
	Selected        string `json:"selected"`
}

func parseLength(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Status fetches the live status of one handle.
func (c *Client) Status(ctx context.Context, gid string) (*interfaces.EngineStatus, error) {
	var payload statusPayload
	if err := c.call(ctx, "aria2.tellStatus", []any{gid}, &payload); err != nil {
		return nil, err
	}

	status := &interfaces.EngineStatus{
		GID:             payload.GID,
		Status:          interfaces.EngineTaskStatus(payload.Status),
		TotalLength:     parseLength(payload.TotalLength),
		CompletedLength: parseLength(payload.CompletedLength),
		DownloadSpeed:   parseLength(payload.DownloadSpeed),
		UploadSpeed:     parseLength(payload.UploadSpeed),
		ErrorCode:       payload.ErrorCode,
		ErrorMessage:    payload.ErrorMessage,
		FollowedBy:      payload.FollowedBy,
	}
	for _, f := range payload.Files {
		status.Files = append(status.Files, interfaces.EngineFile{
			Path:            f.Path,
			Length:          parseLength(f.Length),
			CompletedLength: parseLength(f.CompletedLength),
			Selected:        f.Selected == "true",
		})
	}
	return status, nil
}

// Pause pauses a handle.
func (c *Client) Pause(ctx context.Context, gid string) error {
	return c.call(ctx, "aria2.pause", []any{gid}, nil)
}

// Unpause resumes a paused handle.
func (c *Client) Unpause(ctx context.Context, gid string) error {
	return c.call(ctx, "aria2.unpause", []any{gid}, nil)
}

// Remove removes a handle from the engine.
func (c *Client) Remove(ctx context.Context, gid string) error {
	return c.call(ctx, "aria2.remove", []any{gid}, nil)
}

type globalStatPayload struct {
	DownloadSpeed string `json:"downloadSpeed"`
	UploadSpeed   string `json:"uploadSpeed"`
	NumActive     string `json:"numActive"`
	NumWaiting    string `json:"numWaiting"`
	NumStopped    string `json:"numStopped"`
}

// GlobalStats fetches engine-wide transfer statistics.
func (c *Client) GlobalStats(ctx context.Context) (*interfaces.EngineGlobalStats, error) {
	var payload globalStatPayload
	if err := c.call(ctx, "aria2.getGlobalStat", nil, &payload); err != nil {
		return nil, err
	}
	return &interfaces.EngineGlobalStats{
		DownloadSpeed: parseLength(payload.DownloadSpeed),
		UploadSpeed:   parseLength(payload.UploadSpeed),
		NumActive:     int(parseLength(payload.NumActive)),
		NumWaiting:    int(parseLength(payload.NumWaiting)),
		NumStopped:    int(parseLength(payload.NumStopped)),
	}, nil
}

var _ interfaces.DownloadEngine = (*Client)(nil)
