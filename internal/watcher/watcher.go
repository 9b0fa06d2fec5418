// Package watcher runs passes: scrape new postings, then post each one to the channel.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/0x0BSoD/craigsBot/internal/model"
)

type Scraper interface {
	Scrape(ctx context.Context) ([]model.Posting, error)
}

type Poster interface {
	PostListing(ctx context.Context, posting model.Posting) error
}

type Reporter interface {
	Notify(msg string)
}

// UndeliveredError is returned when a notification fails mid-pass. Postings
// holds the failed posting and every one after it; all of them are already
// stored as seen and will not be offered again.
type UndeliveredError struct {
	Postings []model.Posting
	Err      error
}

func (e *UndeliveredError) Error() string {
	return fmt.Sprintf("%d listing(s) stored but not posted: %v", len(e.Postings), e.Err)
}

func (e *UndeliveredError) Unwrap() error {
	return e.Err
}

type Watcher struct {
	scraper  Scraper
	poster   Poster
	reporter Reporter
	interval time.Duration
}

func New(scraper Scraper, poster Poster, reporter Reporter, interval time.Duration) *Watcher {
	return &Watcher{
		scraper:  scraper,
		poster:   poster,
		reporter: reporter,
		interval: interval,
	}
}

// RunOnce runs a single pass. Notifications go out in discovery order and the
// first delivery failure stops the rest.
func (w *Watcher) RunOnce(ctx context.Context) error {
	postings, err := w.scraper.Scrape(ctx)
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}

	log.Info().Int("results", len(postings)).Msg("Got results")

	for i, posting := range postings {
		if err := w.poster.PostListing(ctx, posting); err != nil {
			return &UndeliveredError{Postings: postings[i:], Err: err}
		}
	}

	return nil
}

// Start runs a pass immediately and then once per interval until ctx is done.
// A failed pass is logged and reported; the next tick runs regardless.
func (w *Watcher) Start(ctx context.Context) error {
	log.Info().Dur("interval", w.interval).Msg("Watcher started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runAndReport(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.runAndReport(ctx)
		}
	}
}

func (w *Watcher) runAndReport(ctx context.Context) {
	err := w.RunOnce(ctx)
	if err == nil || ctx.Err() != nil {
		return
	}

	log.Error().Err(err).Msg("Pass failed")
	w.reporter.Notify(ReportText(err))
}

// ReportText renders a pass failure for the admin chat, listing the links that
// were marked seen without being posted.
func ReportText(err error) string {
	var undelivered *UndeliveredError
	if !errors.As(err, &undelivered) {
		return "craigsbot pass failed: " + err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "craigsbot: %d listing(s) stored but not posted (%v):", len(undelivered.Postings), undelivered.Err)
	for _, p := range undelivered.Postings {
		fmt.Fprintf(&b, "\n%s", p.URL)
	}
	return b.String()
}
