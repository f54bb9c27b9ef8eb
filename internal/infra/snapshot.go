package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"book_mirror/internal/book"
	"book_mirror/internal/domain"
)

// SnapshotClient fetches the upstream's full order book and swaps it into
// the registry. The snapshot endpoint returns, per symbol, both sides
// already sorted and deduplicated, so replacement bypasses the
// incremental machinery entirely.
type SnapshotClient struct {
	baseURL    string
	books      *book.Registry
	httpClient *http.Client
	retryDelay time.Duration

	// Serializes concurrent Sync calls (startup fetch racing the first
	// connect callback). The later caller waits and refetches, which is
	// harmless: replacement is idempotent.
	mu sync.Mutex
}

// NewSnapshotClient creates a snapshot client against the upstream REST base URL.
func NewSnapshotClient(baseURL string, timeout, retryDelay time.Duration, books *book.Registry) *SnapshotClient {
	return &SnapshotClient{
		baseURL:    baseURL,
		books:      books,
		httpClient: &http.Client{Timeout: timeout},
		retryDelay: retryDelay,
	}
}

// Sync fetches the full book, retrying on a fixed delay until it succeeds
// or ctx is canceled. There is no attempt cap: this is a background
// daemon, and the mirror stays not-ready until a snapshot lands.
func (c *SnapshotClient) Sync(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		err := c.fetch(ctx)
		if err == nil {
			GlobalMetrics.RecordSnapshotLoad()
			return nil
		}
		slog.Warn("snapshot fetch failed, retrying",
			slog.Duration("delay", c.retryDelay), slog.Any("error", err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
}

// fetch performs one GET /orderbook and replaces the whole registry.
func (c *SnapshotClient) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/orderbook", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewNetworkError("snapshot", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewNetworkError("snapshot", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewNetworkError("snapshot", err)
	}

	var snapshot map[string]book.OrderBook
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	c.books.ReplaceAll(snapshot)
	slog.Info("snapshot loaded", slog.Int("symbols", len(snapshot)))
	return nil
}
