package saved

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/mmcdole/arcade/internal/domain"
	"github.com/mmcdole/arcade/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var quiet = slog.New(slog.DiscardHandler)

func game(id int, name string) domain.CatalogItem {
	rating := 4.0
	return domain.CatalogItem{ID: id, Name: name, Released: "2020-01-01", Rating: &rating}
}

func newSync(t *testing.T) (*Sync, *store.Store) {
	t.Helper()
	st, err := store.New("")
	require.NoError(t, err)
	s := NewSync(st, quiet)
	t.Cleanup(func() {
		s.Close()
		st.Close()
	})
	return s, st
}

// failingStore rejects every write.
type failingStore struct {
	domain.SavedStore
	err error
}

func (f failingStore) Upsert(domain.SavedItem) error { return f.err }
func (f failingStore) DeleteByID(int) error          { return f.err }
func (f failingStore) DeleteAll() error              { return f.err }
func (f failingStore) Exists(int) (bool, error)      { return false, nil }

func TestSync_SaveSnapshotsItem(t *testing.T) {
	s, st := newSync(t)
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, game(42, "Outer Wilds")))

	got, ok, err := st.GetByID(42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Outer Wilds", got.Name)
	assert.Equal(t, at, got.SavedAt)
	assert.Equal(t, 4.0, *got.Rating)

	found, err := s.Contains(ctx, 42)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSync_RemoveMissingIsNoError(t *testing.T) {
	s, _ := newSync(t)
	assert.NoError(t, s.Remove(context.Background(), 999))
}

func TestSync_ToggleTwiceRestoresState(t *testing.T) {
	s, _ := newSync(t)
	ctx := context.Background()
	item := game(5, "Hollow Knight")

	on, err := s.Toggle(ctx, item)
	require.NoError(t, err)
	assert.True(t, on)

	off, err := s.Toggle(ctx, item)
	require.NoError(t, err)
	assert.False(t, off)

	found, err := s.Contains(ctx, 5)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSync_ToggleUsesStoreWhenUnknown(t *testing.T) {
	st, err := store.New("")
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Upsert(domain.SavedItem{ID: 9, Name: "Already saved"}))

	s := NewSync(st, quiet)
	defer s.Close()

	_, known := s.IsMarked(9)
	assert.False(t, known)

	on, err := s.Toggle(context.Background(), game(9, "Already saved"))
	require.NoError(t, err)
	assert.False(t, on)
}

func TestSync_ListAllIsLiveAndOrdered(t *testing.T) {
	s, _ := newSync(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.ListAll(ctx)
	assert.Empty(t, <-ch)

	require.NoError(t, s.Save(ctx, game(2, "Tetris")))
	require.NoError(t, s.Save(ctx, game(1, "Minecraft")))

	require.Eventually(t, func() bool {
		select {
		case items := <-ch:
			return len(items) == 2 && items[0].Name == "Minecraft" && items[1].Name == "Tetris"
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestSync_Clear(t *testing.T) {
	s, st := newSync(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, game(1, "A")))
	require.NoError(t, s.Save(ctx, game(2, "B")))

	require.NoError(t, s.Clear(ctx))

	items, err := st.ListSaved()
	require.NoError(t, err)
	assert.Empty(t, items)
	_, known := s.IsMarked(1)
	assert.False(t, known)
}

func TestSync_FailedToggleKeepsOptimisticState(t *testing.T) {
	boom := errors.New("disk full")
	s := NewSync(failingStore{err: &domain.StoreError{Op: "upsert", Err: boom}}, quiet)
	defer s.Close()

	on, err := s.Toggle(context.Background(), game(3, "Stardew Valley"))
	assert.True(t, on)
	assert.ErrorIs(t, err, boom)

	marked, known := s.IsMarked(3)
	assert.True(t, known)
	assert.True(t, marked, "optimistic state is not rolled back")

	assert.ErrorIs(t, s.Err(), boom)
	select {
	case got := <-s.Errors():
		assert.ErrorIs(t, got, boom)
	case <-time.After(time.Second):
		t.Fatal("error not published")
	}

	s.DismissErr()
	assert.NoError(t, s.Err())
}

func TestSync_CallerCancelDoesNotCancelWrite(t *testing.T) {
	s, st := newSync(t)

	// Occupy the worker so the save is queued behind it.
	started := make(chan struct{})
	release := make(chan struct{})
	go s.submit(context.Background(), func() error {
		close(started)
		<-release
		return nil
	})
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Save(ctx, game(11, "Queued")) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	close(release)

	require.Eventually(t, func() bool {
		ok, _ := st.Exists(11)
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestSync_ClosedRejectsWork(t *testing.T) {
	st, err := store.New("")
	require.NoError(t, err)
	defer st.Close()

	s := NewSync(st, quiet)
	s.Close()
	s.Close()

	assert.ErrorIs(t, s.Save(context.Background(), game(1, "x")), domain.ErrClosed)
	_, err = s.Contains(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrClosed)
}

func TestProperty_SyncMatchesModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		st, err := store.New("")
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		defer st.Close()
		s := NewSync(st, quiet)
		defer s.Close()

		ctx := context.Background()
		model := map[int]string{}
		idGen := rapid.IntRange(1, 8)
		nameGen := rapid.SampledFrom([]string{"Doom", "Celeste", "Hades", "Braid"})

		t.Repeat(map[string]func(*rapid.T){
			"save": func(rt *rapid.T) {
				id := idGen.Draw(rt, "id")
				name := nameGen.Draw(rt, "name")
				if err := s.Save(ctx, game(id, name)); err != nil {
					rt.Fatalf("save: %v", err)
				}
				model[id] = name
			},
			"remove": func(rt *rapid.T) {
				id := idGen.Draw(rt, "id")
				if err := s.Remove(ctx, id); err != nil {
					rt.Fatalf("remove: %v", err)
				}
				delete(model, id)
			},
			"toggle": func(rt *rapid.T) {
				id := idGen.Draw(rt, "id")
				name := nameGen.Draw(rt, "name")
				on, err := s.Toggle(ctx, game(id, name))
				if err != nil {
					rt.Fatalf("toggle: %v", err)
				}
				_, had := model[id]
				if on == had {
					rt.Fatalf("toggle of %d returned %v, model had it: %v", id, on, had)
				}
				if on {
					model[id] = name
				} else {
					delete(model, id)
				}
			},
			"contains": func(rt *rapid.T) {
				id := idGen.Draw(rt, "id")
				found, err := s.Contains(ctx, id)
				if err != nil {
					rt.Fatalf("contains: %v", err)
				}
				_, want := model[id]
				if found != want {
					rt.Fatalf("contains(%d) = %v, want %v", id, found, want)
				}
			},
			"": func(rt *rapid.T) {
				items, err := st.ListSaved()
				if err != nil {
					rt.Fatalf("list: %v", err)
				}
				if len(items) != len(model) {
					rt.Fatalf("store has %d items, model %d", len(items), len(model))
				}
				sorted := slices.IsSortedFunc(items, func(a, b domain.SavedItem) int {
					if a.Name != b.Name {
						if a.Name < b.Name {
							return -1
						}
						return 1
					}
					return a.ID - b.ID
				})
				if !sorted {
					rt.Fatalf("saved list not ordered: %v", items)
				}
				for _, it := range items {
					if model[it.ID] != it.Name {
						rt.Fatalf("item %d named %q, model %q", it.ID, it.Name, model[it.ID])
					}
				}
			},
		})
	})
}
