package api

import (
	"context"

	"github.com/jj-tsao/reelix-ai-sub001/internal/stream"
	"github.com/jj-tsao/reelix-ai-sub001/internal/watchlist"
)

// ReelixAPI defines the interface for the Reelix API client.
// *Client satisfies this interface. TUI and tests can use mock implementations.
type ReelixAPI interface {
	Login(username, password string) (*LoginResponse, error)
	Token() string
	RecommendStream(ctx context.Context, question string, cb ChunkCallback) error
	DiscoverStream(ctx context.Context, cb ChunkCallback) error
	LookupWatchlist(ctx context.Context, items []watchlist.Item) (map[string]watchlist.RemoteEntry, error)
	CreateWatchlistItem(ctx context.Context, item watchlist.Item, status watchlist.Status) (watchlist.RemoteEntry, error)
	UpdateWatchlistItem(ctx context.Context, id string, patch watchlist.Patch) (watchlist.RemoteEntry, error)
	DeleteWatchlistItem(ctx context.Context, id string) error
	LogRecommendations(records []stream.Record)
}
