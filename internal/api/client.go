package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jj-tsao/reelix-ai-sub001/internal/config"
	"github.com/jj-tsao/reelix-ai-sub001/internal/stream"
	"github.com/jj-tsao/reelix-ai-sub001/internal/watchlist"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	mediaKind  string
	log        zerolog.Logger
}

func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.Server, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		token:     cfg.Token,
		mediaKind: cfg.MediaKind,
		log:       log,
	}
}

// Token reports the bearer token in use, empty when logged out.
func (c *Client) Token() string {
	return c.token
}

// SetToken swaps the bearer token, e.g. right after login.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// --- Auth ---

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error,omitempty"`
}

func (c *Client) Login(username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.doJSON("POST", "/v1/auth/login", LoginRequest{Username: username, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("server error: %s", resp.Error)
	}
	c.token = resp.AccessToken
	return &resp, nil
}

// --- Recommendation stream ---

type RecommendRequest struct {
	RequestID string `json:"request_id,omitempty"`
	Question  string `json:"question"`
	MediaKind string `json:"media_kind,omitempty"`
}

// ChunkCallback receives raw body chunks as they arrive. Chunk bounds
// carry no meaning; the stream engine reassembles them.
type ChunkCallback func(chunk []byte)

// RecommendStream posts a question and forwards the plain-text reply
// stream chunk by chunk. Transport and read failures are terminal.
func (c *Client) RecommendStream(ctx context.Context, question string, cb ChunkCallback) error {
	reqBody := RecommendRequest{
		RequestID: uuid.NewString(),
		Question:  question,
		MediaKind: c.mediaKind,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/recommend/stream", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	return c.consumeStream(req, cb)
}

// DiscoverStream opens the discovery feed and forwards its raw chunks.
func (c *Client) DiscoverStream(ctx context.Context, cb ChunkCallback) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/v1/discover/stream", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")

	return c.consumeStream(req, cb)
}

func (c *Client) consumeStream(req *http.Request, cb ChunkCallback) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(errBody))
	}

	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			cb(chunk)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading stream: %w", err)
		}
	}
}

// --- Watchlist ---

type watchlistLookupRequest struct {
	RequestID string         `json:"request_id,omitempty"`
	Items     []watchlistRef `json:"items"`
}

type watchlistRef struct {
	MediaID int    `json:"media_id"`
	Kind    string `json:"kind"`
}

type watchlistLookupResponse struct {
	Entries map[string]watchlist.RemoteEntry `json:"entries"`
	Error   string                           `json:"error,omitempty"`
}

// LookupWatchlist resolves membership for all items in one call,
// keyed by "<kind>:<media_id>".
func (c *Client) LookupWatchlist(ctx context.Context, items []watchlist.Item) (map[string]watchlist.RemoteEntry, error) {
	reqBody := watchlistLookupRequest{RequestID: uuid.NewString()}
	for _, it := range items {
		reqBody.Items = append(reqBody.Items, watchlistRef{MediaID: it.MediaID, Kind: it.Kind})
	}
	var resp watchlistLookupResponse
	if err := c.doJSONCtx(ctx, "POST", "/v1/watchlist/lookup", reqBody, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("server error: %s", resp.Error)
	}
	return resp.Entries, nil
}

type watchlistCreateRequest struct {
	MediaID int              `json:"media_id"`
	Kind    string           `json:"kind"`
	Status  watchlist.Status `json:"status"`
}

type watchlistItemResponse struct {
	Entry *watchlist.RemoteEntry `json:"entry"`
	Error string                 `json:"error,omitempty"`
}

func (c *Client) CreateWatchlistItem(ctx context.Context, item watchlist.Item, status watchlist.Status) (watchlist.RemoteEntry, error) {
	reqBody := watchlistCreateRequest{MediaID: item.MediaID, Kind: item.Kind, Status: status}
	var resp watchlistItemResponse
	if err := c.doJSONCtx(ctx, "POST", "/v1/watchlist", reqBody, &resp); err != nil {
		return watchlist.RemoteEntry{}, err
	}
	if resp.Error != "" || resp.Entry == nil {
		return watchlist.RemoteEntry{}, fmt.Errorf("server error: %s", resp.Error)
	}
	return *resp.Entry, nil
}

func (c *Client) UpdateWatchlistItem(ctx context.Context, id string, patch watchlist.Patch) (watchlist.RemoteEntry, error) {
	var resp watchlistItemResponse
	if err := c.doJSONCtx(ctx, "PATCH", "/v1/watchlist/"+id, patch, &resp); err != nil {
		return watchlist.RemoteEntry{}, err
	}
	if resp.Error != "" || resp.Entry == nil {
		return watchlist.RemoteEntry{}, fmt.Errorf("server error: %s", resp.Error)
	}
	return *resp.Entry, nil
}

func (c *Client) DeleteWatchlistItem(ctx context.Context, id string) error {
	return c.doJSONCtx(ctx, "DELETE", "/v1/watchlist/"+id, nil, nil)
}

// --- Analytics ---

type recommendationLog struct {
	RequestID string   `json:"request_id"`
	MediaIDs  []int    `json:"media_ids"`
	Titles    []string `json:"titles"`
}

// LogRecommendations reports the final emitted record set. Best
// effort: failures are logged and swallowed.
func (c *Client) LogRecommendations(records []stream.Record) {
	if len(records) == 0 {
		return
	}
	entry := recommendationLog{RequestID: uuid.NewString()}
	for _, rec := range records {
		entry.MediaIDs = append(entry.MediaIDs, rec.MediaID)
		entry.Titles = append(entry.Titles, rec.Title)
	}
	if err := c.doJSON("POST", "/v1/analytics/recommendations", entry, nil); err != nil {
		c.log.Debug().Err(err).Msg("recommendation analytics post failed")
	}
}

// --- Generic JSON helper ---

func (c *Client) doJSON(method, path string, reqBody interface{}, result interface{}) error {
	return c.doJSONCtx(context.Background(), method, path, reqBody, result)
}

func (c *Client) doJSONCtx(ctx context.Context, method, path string, reqBody interface{}, result interface{}) error {
	var bodyReader io.Reader
	if reqBody != nil && method != "GET" {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}
