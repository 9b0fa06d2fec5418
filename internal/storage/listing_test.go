package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x0BSoD/craigsBot/internal/model"
)

func newTestStorage(t *testing.T) (*ListingStorage, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data", "listings.db")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewListingStorage(db), path
}

func desk() model.Listing {
	return model.Listing{
		Link:     "http://x/42",
		Created:  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Name:     "Desk",
		Price:    lo.ToPtr(500.0),
		Location: "Ann Arbor",
		CLID:     42,
	}
}

func TestListingStorage_LookupAbsent(t *testing.T) {
	s, _ := newTestStorage(t)

	listing, err := s.ListingByCLID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, listing)
}

func TestListingStorage_StoreAndLookup(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	id, err := s.Store(ctx, desk())
	require.NoError(t, err)
	assert.NotZero(t, id)

	listing, err := s.ListingByCLID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, listing)

	assert.Equal(t, id, listing.ID)
	assert.Equal(t, "http://x/42", listing.Link)
	assert.Equal(t, "Desk", listing.Name)
	assert.Equal(t, "Ann Arbor", listing.Location)
	assert.Equal(t, int64(42), listing.CLID)
	require.NotNil(t, listing.Price)
	assert.Equal(t, 500.0, *listing.Price)
	assert.True(t, listing.Created.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestListingStorage_StoreUnknownPrice(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	l := desk()
	l.Price = nil
	_, err := s.Store(ctx, l)
	require.NoError(t, err)

	listing, err := s.ListingByCLID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, listing)
	assert.Nil(t, listing.Price)
}

func TestListingStorage_StoreDuplicate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(l *model.Listing)
	}{
		{
			name:   "same cl_id",
			mutate: func(l *model.Listing) { l.Link = "http://x/other" },
		},
		{
			name:   "same link",
			mutate: func(l *model.Listing) { l.CLID = 43 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStorage(t)
			ctx := context.Background()

			_, err := s.Store(ctx, desk())
			require.NoError(t, err)

			dup := desk()
			tt.mutate(&dup)
			_, err = s.Store(ctx, dup)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDuplicate)
		})
	}
}

func TestOpen_SchemaIsIdempotent(t *testing.T) {
	s, path := newTestStorage(t)
	ctx := context.Background()

	_, err := s.Store(ctx, desk())
	require.NoError(t, err)

	db, err := Open(ctx, "sqlite://"+path)
	require.NoError(t, err)
	defer db.Close()

	listing, err := NewListingStorage(db).ListingByCLID(ctx, 42)
	require.NoError(t, err)
	assert.NotNil(t, listing)
}

func TestListingStorage_Recent(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		l := desk()
		l.CLID = i
		l.Link = "http://x/" + string(rune('a'+i))
		_, err := s.Store(ctx, l)
		require.NoError(t, err)
	}

	listings, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, int64(3), listings[0].CLID)
	assert.Equal(t, int64(2), listings[1].CLID)
}

func TestResolveDSN(t *testing.T) {
	driver, source, err := resolveDSN("postgres://u:p@localhost:5432/cl?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, driverPostgres, driver)
	assert.Equal(t, "postgres://u:p@localhost:5432/cl?sslmode=disable", source)

	driver, source, err = resolveDSN("listings.db")
	require.NoError(t, err)
	assert.Equal(t, driverSQLite, driver)
	assert.Equal(t, "listings.db?_busy_timeout=5000&_journal=WAL", source)

	_, _, err = resolveDSN("sqlite://")
	assert.Error(t, err)
}
