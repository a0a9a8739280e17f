package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/mmcdole/arcade/internal/domain"
	"github.com/mmcdole/arcade/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.DiscardHandler)

type fakeMetadata struct {
	gameCalls     atomic.Int32
	platformCalls atomic.Int32
	genreCalls    atomic.Int32
	genreErr      error
}

func (f *fakeMetadata) GetGame(_ context.Context, id int) (domain.CatalogItem, error) {
	f.gameCalls.Add(1)
	if id == 404 {
		return domain.CatalogItem{}, &domain.RemoteError{Kind: domain.RemoteStatus, StatusCode: 404, Err: domain.ErrNotFound}
	}
	return domain.CatalogItem{ID: id, Name: "Game", Description: "details"}, nil
}

func (f *fakeMetadata) GetPlatforms(context.Context) ([]domain.Platform, error) {
	f.platformCalls.Add(1)
	return []domain.Platform{{ID: 4, Name: "PC"}, {ID: 187, Name: "PlayStation 5"}}, nil
}

func (f *fakeMetadata) GetGenres(context.Context) ([]domain.Genre, error) {
	f.genreCalls.Add(1)
	if f.genreErr != nil {
		return nil, f.genreErr
	}
	return []domain.Genre{{ID: 4, Name: "Action"}}, nil
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestService_DetailsCached(t *testing.T) {
	client := &fakeMetadata{}
	svc := NewService(client, nil, quiet)
	ctx := context.Background()

	item, err := svc.Details(ctx, 3328)
	require.NoError(t, err)
	assert.Equal(t, "details", item.Description)

	_, err = svc.Details(ctx, 3328)
	require.NoError(t, err)
	assert.Equal(t, int32(1), client.gameCalls.Load())
}

func TestService_DetailsErrorNotCached(t *testing.T) {
	client := &fakeMetadata{}
	svc := NewService(client, nil, quiet)

	for range 2 {
		_, err := svc.Details(context.Background(), 404)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Equal(t, int32(2), client.gameCalls.Load())
}

func TestService_LoadFacetsCachesInStore(t *testing.T) {
	client := &fakeMetadata{}
	st := newStore(t)
	svc := NewService(client, st, quiet)
	ctx := context.Background()

	facets, err := svc.LoadFacets(ctx, false)
	require.NoError(t, err)
	assert.Len(t, facets.Platforms, 2)
	assert.Len(t, facets.Genres, 1)

	facets, err = svc.LoadFacets(ctx, false)
	require.NoError(t, err)
	assert.Len(t, facets.Platforms, 2)
	assert.Equal(t, int32(1), client.platformCalls.Load())

	_, err = svc.LoadFacets(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), client.platformCalls.Load())
	assert.Equal(t, int32(2), client.genreCalls.Load())
}

func TestService_LoadFacetsFailure(t *testing.T) {
	boom := errors.New("offline")
	client := &fakeMetadata{genreErr: boom}
	st := newStore(t)
	svc := NewService(client, st, quiet)

	_, err := svc.LoadFacets(context.Background(), false)
	assert.ErrorIs(t, err, boom)

	_, ok := st.GetPlatforms()
	assert.False(t, ok, "partial results are not cached")
}

func TestFind(t *testing.T) {
	refs := []domain.Ref{
		{ID: 187, Name: "PlayStation 5"},
		{ID: 18, Name: "PlayStation 4"},
		{ID: 4, Name: "PC"},
		{ID: 7, Name: "Nintendo Switch"},
	}

	assert.Equal(t, refs, Find(refs, " "))

	got := Find(refs, "playstation")
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Contains(t, []int{187, 18}, r.ID)
	}

	got = Find(refs, "SWITCH")
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].ID)

	assert.Empty(t, Find(refs, "xbox"))
}

func TestNames(t *testing.T) {
	refs := []domain.Ref{{ID: 4, Name: "Action"}, {ID: 51, Name: "Indie"}}
	assert.Equal(t, []string{"Indie", "Action"}, Names(refs, []int{51, 99, 4}))
	assert.Nil(t, Names(refs, nil))
}
