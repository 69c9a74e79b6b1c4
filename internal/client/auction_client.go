package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/openbid/auction-platform/internal/model"
)

// ErrNotFound means the auction service does not know the auction.
var ErrNotFound = errors.New("auction not found")

// AuctionClient is the synchronous fallback to the authoritative auction
// store. Calls carry a bounded timeout and are never retried inline; callers
// decide what a failure means.
type AuctionClient struct {
	baseURL string
	http    *http.Client
}

// NewAuctionClient builds a client with the given request timeout.
func NewAuctionClient(baseURL string, timeout time.Duration) *AuctionClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &AuctionClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// GetAuction fetches one auction by ID.
func (c *AuctionClient) GetAuction(ctx context.Context, id uuid.UUID) (*model.Auction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/auctions/%s", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auction service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("auction service: unexpected status %d", resp.StatusCode)
	}

	var a model.Auction
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode auction: %w", err)
	}
	return &a, nil
}

// FetchUpdatedSince lists auctions updated after the watermark, for the
// search projector's catch-up pull. A zero time returns everything.
func (c *AuctionClient) FetchUpdatedSince(ctx context.Context, since time.Time) ([]model.Auction, error) {
	u := fmt.Sprintf("%s/v1/auctions", c.baseURL)
	if !since.IsZero() {
		u += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339Nano))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auction service: unexpected status %d", resp.StatusCode)
	}

	var auctions []model.Auction
	if err := json.NewDecoder(resp.Body).Decode(&auctions); err != nil {
		return nil, fmt.Errorf("decode auctions: %w", err)
	}
	return auctions, nil
}
