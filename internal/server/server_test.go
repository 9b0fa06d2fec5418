package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x0BSoD/craigsBot/internal/model"
)

type fakeListings struct {
	listings  []model.Listing
	err       error
	lastLimit int
}

func (f *fakeListings) Recent(_ context.Context, limit int) ([]model.Listing, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.listings, nil
}

func TestServer_Healthz(t *testing.T) {
	rr := httptest.NewRecorder()
	New(&fakeListings{}, "").Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestServer_Listings(t *testing.T) {
	store := &fakeListings{listings: []model.Listing{
		{
			ID:       1,
			CLID:     42,
			Link:     "http://x/42",
			Name:     "Desk",
			Price:    lo.ToPtr(500.0),
			Location: "Ann Arbor",
			Created:  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{ID: 2, CLID: 43, Link: "http://x/43", Name: "Lamp", Location: "Ann Arbor"},
	}}

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantLimit  int
	}{
		{"default limit", "/listings", http.StatusOK, defaultLimit},
		{"explicit limit", "/listings?limit=5", http.StatusOK, 5},
		{"capped limit", "/listings?limit=100000", http.StatusOK, maxLimit},
		{"bad limit", "/listings?limit=abc", http.StatusBadRequest, 0},
		{"zero limit", "/listings?limit=0", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store.lastLimit = 0
			rr := httptest.NewRecorder()
			New(store, "").Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.target, nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantLimit, store.lastLimit)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var got []listingResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			require.Len(t, got, 2)
			assert.Equal(t, int64(42), got[0].CLID)
			require.NotNil(t, got[0].Price)
			assert.Equal(t, 500.0, *got[0].Price)
			assert.Equal(t, "2020-01-01T00:00:00Z", got[0].Created)
			assert.Nil(t, got[1].Price)
			assert.Empty(t, got[1].Created)
		})
	}
}

func TestServer_ListingsStoreError(t *testing.T) {
	rr := httptest.NewRecorder()
	New(&fakeListings{err: errors.New("database is closed")}, "").Router().
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/listings", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	New(&fakeListings{}, "").Router().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/listings", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(&fakeListings{}, "127.0.0.1:0").Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
