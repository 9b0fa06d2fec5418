// Package storage implements the persistent record of listings that have already been seen.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/0x0BSoD/craigsBot/internal/model"
)

// ErrDuplicate is returned by Store when the cl_id or link is already taken.
var ErrDuplicate = errors.New("listing already stored")

type ListingStorage struct {
	db *sqlx.DB
}

func NewListingStorage(db *sqlx.DB) *ListingStorage {
	return &ListingStorage{db: db}
}

// ListingByCLID returns the stored listing with the given source id, or nil
// if there is none.
func (s *ListingStorage) ListingByCLID(ctx context.Context, clID int64) (*model.Listing, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var listing dbListing
	err = conn.GetContext(
		ctx,
		&listing,
		s.db.Rebind(`SELECT id, link, created, name, price, location, cl_id FROM listings WHERE cl_id = ?`),
		clID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	result := listing.toModel()
	return &result, nil
}

// Store inserts a new listing and returns its id. Listings are never updated.
func (s *ListingStorage) Store(ctx context.Context, listing model.Listing) (int64, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var (
		id    int64
		price sql.NullFloat64
	)
	if listing.Price != nil {
		price = sql.NullFloat64{Float64: *listing.Price, Valid: true}
	}

	err = conn.GetContext(
		ctx,
		&id,
		s.db.Rebind(`INSERT INTO listings (link, created, name, price, location, cl_id)
			VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		listing.Link,
		sql.NullTime{Time: listing.Created, Valid: !listing.Created.IsZero()},
		listing.Name,
		price,
		listing.Location,
		listing.CLID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("cl_id %d: %w: %v", listing.CLID, ErrDuplicate, err)
		}
		return 0, err
	}

	return id, nil
}

// Recent returns up to limit listings, newest first.
func (s *ListingStorage) Recent(ctx context.Context, limit int) ([]model.Listing, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var listings []dbListing
	if err := conn.SelectContext(
		ctx,
		&listings,
		s.db.Rebind(`SELECT id, link, created, name, price, location, cl_id FROM listings ORDER BY id DESC LIMIT ?`),
		limit,
	); err != nil {
		return nil, err
	}

	result := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		result = append(result, l.toModel())
	}
	return result, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}

type dbListing struct {
	ID       int64           `db:"id"`
	Link     string          `db:"link"`
	Created  sql.NullTime    `db:"created"`
	Name     string          `db:"name"`
	Price    sql.NullFloat64 `db:"price"`
	Location string          `db:"location"`
	CLID     int64           `db:"cl_id"`
}

func (l dbListing) toModel() model.Listing {
	listing := model.Listing{
		ID:       l.ID,
		Link:     l.Link,
		Name:     l.Name,
		Location: l.Location,
		CLID:     l.CLID,
	}
	if l.Created.Valid {
		listing.Created = l.Created.Time.In(time.UTC)
	}
	if l.Price.Valid {
		price := l.Price.Float64
		listing.Price = &price
	}
	return listing
}
