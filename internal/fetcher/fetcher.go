package fetcher

import (
	"context"
	"fmt"
	"iter"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog/log"

	"github.com/0x0BSoD/craigsBot/internal/model"
)

type ListingStorage interface {
	ListingByCLID(ctx context.Context, clID int64) (*model.Listing, error)
	Store(ctx context.Context, listing model.Listing) (int64, error)
}

type Source interface {
	Postings(ctx context.Context, q model.Query) iter.Seq2[model.Posting, error]
}

type Fetcher struct {
	listings ListingStorage
	source   Source

	query    model.Query
	location string
}

// New creates a fetcher. Only postings whose location equals location are
// kept; an empty location keeps every posting.
func New(
	listings ListingStorage,
	source Source,
	query model.Query,
	location string,
) *Fetcher {
	return &Fetcher{
		listings: listings,
		source:   source,
		query:    query,
		location: location,
	}
}

// Scrape runs the query once and stores every unseen posting that passes the
// location filter, one commit per posting. It returns those postings in the
// order the source produced them.
func (f *Fetcher) Scrape(ctx context.Context) ([]model.Posting, error) {
	var results []model.Posting

	for posting, err := range f.source.Postings(ctx, f.query) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return results, ctxErr
			}
			log.Debug().Err(err).Msg("Skipping posting")
			continue
		}

		existing, err := f.listings.ListingByCLID(ctx, posting.ID)
		if err != nil {
			return results, fmt.Errorf("lookup cl_id %d: %w", posting.ID, err)
		}
		if existing != nil {
			continue
		}

		if f.itemMustSkipped(posting) {
			continue
		}

		listing, err := newListing(posting)
		if err != nil {
			log.Warn().Err(err).Int64("cl_id", posting.ID).Msg("Skipping posting")
			continue
		}

		if _, err := f.listings.Store(ctx, listing); err != nil {
			return results, fmt.Errorf("store cl_id %d: %w", posting.ID, err)
		}

		results = append(results, posting)
	}

	return results, nil
}

func (f *Fetcher) itemMustSkipped(posting model.Posting) bool {
	return f.location != "" && posting.Where != f.location
}

func newListing(posting model.Posting) (model.Listing, error) {
	created, err := dateparse.ParseAny(posting.Datetime)
	if err != nil {
		return model.Listing{}, fmt.Errorf("parse datetime %q: %w", posting.Datetime, err)
	}

	listing := model.Listing{
		Link:     posting.URL,
		Created:  created,
		Name:     posting.Name,
		Location: posting.Where,
		CLID:     posting.ID,
	}
	if price, ok := ParsePrice(posting.Price); ok {
		listing.Price = &price
	}

	return listing, nil
}
