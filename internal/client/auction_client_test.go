package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/openbid/auction-platform/internal/model"
)

func TestGetAuction(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/auctions/"+id.String(), r.URL.Path)
		json.NewEncoder(w).Encode(model.Auction{
			ID:           id,
			Seller:       "alice",
			ReservePrice: 10000,
			Status:       model.StatusLive,
		})
	}))
	defer srv.Close()

	c := NewAuctionClient(srv.URL, time.Second)
	a, err := c.GetAuction(context.Background(), id)
	assert.NoError(t, err)
	assert.Equal(t, id, a.ID)
	assert.Equal(t, "alice", a.Seller)
}

func TestGetAuction_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewAuctionClient(srv.URL, time.Second)
	_, err := c.GetAuction(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAuction_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewAuctionClient(srv.URL, time.Second)
	_, err := c.GetAuction(context.Background(), uuid.New())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestGetAuction_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	// the bounded timeout fires before the handler responds
	c := NewAuctionClient(srv.URL, 50*time.Millisecond)
	_, err := c.GetAuction(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestFetchUpdatedSince(t *testing.T) {
	since := time.Now().UTC().Add(-time.Hour)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/auctions", r.URL.Path)
		assert.Equal(t, since.Format(time.RFC3339Nano), r.URL.Query().Get("since"))
		json.NewEncoder(w).Encode([]model.Auction{{ID: uuid.New()}, {ID: uuid.New()}})
	}))
	defer srv.Close()

	c := NewAuctionClient(srv.URL, time.Second)
	auctions, err := c.FetchUpdatedSince(context.Background(), since)
	assert.NoError(t, err)
	assert.Len(t, auctions, 2)
}

func TestFetchUpdatedSince_ZeroTimeOmitsParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("since"))
		json.NewEncoder(w).Encode([]model.Auction{})
	}))
	defer srv.Close()

	c := NewAuctionClient(srv.URL, time.Second)
	auctions, err := c.FetchUpdatedSince(context.Background(), time.Time{})
	assert.NoError(t, err)
	assert.Empty(t, auctions)
}
