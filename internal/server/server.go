// Package server exposes a small read-only HTTP status surface for the daemon mode.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/0x0BSoD/craigsBot/internal/model"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

type ListingProvider interface {
	Recent(ctx context.Context, limit int) ([]model.Listing, error)
}

type Server struct {
	listings ListingProvider
	addr     string
}

func New(listings ListingProvider, addr string) *Server {
	return &Server{listings: listings, addr: addr}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	r.HandleFunc("/listings", s.handleListings).Methods(http.MethodGet)
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("Status server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

type listingResponse struct {
	ID       int64    `json:"id"`
	CLID     int64    `json:"cl_id"`
	Link     string   `json:"link"`
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
	Location string   `json:"location"`
	Created  string   `json:"created,omitempty"`
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLimit)
	}

	listings, err := s.listings.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load recent listings")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := lo.Map(listings, func(l model.Listing, _ int) listingResponse {
		out := listingResponse{
			ID:       l.ID,
			CLID:     l.CLID,
			Link:     l.Link,
			Name:     l.Name,
			Price:    l.Price,
			Location: l.Location,
		}
		if !l.Created.IsZero() {
			out.Created = l.Created.Format(time.RFC3339)
		}
		return out
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("Failed to encode listings")
	}
}
