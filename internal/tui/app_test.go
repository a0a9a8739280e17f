package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/arcade/internal/browse"
	"github.com/mmcdole/arcade/internal/catalog"
	"github.com/mmcdole/arcade/internal/domain"
	"github.com/mmcdole/arcade/internal/paging"
	"github.com/mmcdole/arcade/internal/saved"
	"github.com/mmcdole/arcade/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.DiscardHandler)

// fakeCatalog serves a fixed number of pages and records every page request.
type fakeCatalog struct {
	mu     sync.Mutex
	pages  int
	calls  []int
	params []map[string]string
}

func (f *fakeCatalog) FetchPage(_ context.Context, page, size int, params map[string]string) (domain.RemotePage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, page)
	f.params = append(f.params, params)
	f.mu.Unlock()

	items := make([]domain.CatalogItem, size)
	for i := range items {
		id := (page-1)*size + i + 1
		items[i] = domain.CatalogItem{ID: id, Name: fmt.Sprintf("Game %d", id)}
	}
	return domain.RemotePage{TotalCount: f.pages * size, HasNext: page < f.pages, Items: items}, nil
}

func (f *fakeCatalog) GetGame(_ context.Context, id int) (domain.CatalogItem, error) {
	return domain.CatalogItem{ID: id, Name: fmt.Sprintf("Game %d", id), Description: "full details"}, nil
}

func (f *fakeCatalog) GetPlatforms(context.Context) ([]domain.Platform, error) {
	return []domain.Platform{{ID: 4, Name: "PC"}, {ID: 7, Name: "Nintendo Switch"}}, nil
}

func (f *fakeCatalog) GetGenres(context.Context) ([]domain.Genre, error) {
	return []domain.Genre{{ID: 4, Name: "Action"}}, nil
}

func (f *fakeCatalog) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCatalog) lastParams() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.params) == 0 {
		return nil
	}
	return f.params[len(f.params)-1]
}

type harness struct {
	client  *fakeCatalog
	pager   *paging.Coordinator
	sync    *saved.Sync
	session *browse.Session
}

func newHarness(t *testing.T, pageSize int) (Model, *harness) {
	t.Helper()

	st, err := store.New("")
	require.NoError(t, err)

	client := &fakeCatalog{pages: 3}
	pager := paging.NewCoordinator(client, paging.WithPageSize(pageSize), paging.WithLogger(quiet))
	sync := saved.NewSync(st, quiet)
	session := browse.NewSession(pager, browse.NewPrefs(st, quiet), quiet)
	svc := catalog.NewService(client, st, quiet)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		pager.Close()
		sync.Close()
		st.Close()
	})

	m := NewModel(ctx, pager, sync, session, svc, quiet)
	return m, &harness{client: client, pager: pager, sync: sync, session: session}
}

func update(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func keys(s string) []tea.Msg {
	msgs := make([]tea.Msg, 0, len(s))
	for _, r := range s {
		msgs = append(msgs, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return msgs
}

var (
	enter  = tea.KeyMsg{Type: tea.KeyEnter}
	escape = tea.KeyMsg{Type: tea.KeyEsc}
	space  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}}
)

func sized(width, height int) tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: width, Height: height}
}

func itemsFrom(first, n int) []domain.CatalogItem {
	items := make([]domain.CatalogItem, n)
	for i := range items {
		id := first + i
		items[i] = domain.CatalogItem{ID: id, Name: fmt.Sprintf("Game %d", id)}
	}
	return items
}

func snapshotOf(q domain.QuerySpec, items []domain.CatalogItem) SnapshotMsg {
	return SnapshotMsg{Snapshot: paging.Snapshot{Query: q, Items: items, State: paging.StateIdle}}
}

func waitForItems(t *testing.T, pager *paging.Coordinator, n int) paging.Snapshot {
	t.Helper()
	var snap paging.Snapshot
	require.Eventually(t, func() bool {
		snap = pager.Snapshot()
		return len(snap.Items) >= n && snap.State == paging.StateIdle
	}, 2*time.Second, 5*time.Millisecond)
	return snap
}

func TestModel_SearchSubmitsQuery(t *testing.T) {
	m, h := newHarness(t, 20)
	m, _ = update(t, m, sized(80, 30))

	m, _ = update(t, m, keys("/")...)
	assert.Equal(t, InputSearch, m.inputMode)

	m, _ = update(t, m, keys("zelda")...)
	m, _ = update(t, m, enter)

	assert.Equal(t, InputNone, m.inputMode)
	assert.Equal(t, "zelda", h.session.SearchText())
	assert.True(t, h.pager.Snapshot().Query.IsSearch())
	require.Eventually(t, func() bool {
		return h.client.lastParams()[domain.ParamSearch] == "zelda"
	}, 2*time.Second, 5*time.Millisecond)

	// esc on the list drops the search
	m, _ = update(t, m, escape)
	assert.False(t, h.session.IsSearching())
}

func TestModel_EscapeLeavesSearchUnchanged(t *testing.T) {
	m, h := newHarness(t, 20)
	m, _ = update(t, m, sized(80, 30))

	m, _ = update(t, m, keys("/mario")...)
	m, _ = update(t, m, escape)

	assert.Equal(t, InputNone, m.inputMode)
	assert.Empty(t, h.session.SearchText())
}

func TestModel_SortCyclesFilter(t *testing.T) {
	m, h := newHarness(t, 20)
	m, _ = update(t, m, sized(80, 30))

	m, _ = update(t, m, keys("s")...)
	assert.Equal(t, domain.SortName, h.session.Filter().Sort())
	assert.Equal(t, "Sort: Name", m.status)

	m, _ = update(t, m, keys("s")...)
	assert.Equal(t, domain.SortReleased, h.session.Filter().Sort())
	assert.Equal(t, "-released", h.pager.Snapshot().Query.RemoteParams()[domain.ParamOrdering])
}

func TestModel_SortIgnoredWhileSearching(t *testing.T) {
	m, h := newHarness(t, 20)
	m, _ = update(t, m, sized(80, 30))
	h.session.SetSearch("halo")

	m, _ = update(t, m, keys("s")...)
	assert.Equal(t, domain.SortNone, h.session.Filter().Sort())
	assert.Contains(t, m.status, "clear the search")
}

func TestModel_ShortScreenFillsWithNextPage(t *testing.T) {
	m, h := newHarness(t, 20)
	h.session.Start()
	snap := waitForItems(t, h.pager, 20)

	// 26 list rows but only 20 items
	m, _ = update(t, m, sized(80, 30), SnapshotMsg{Snapshot: snap})
	require.Eventually(t, func() bool { return h.client.callCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestModel_ScrollingNearEndRequestsMore(t *testing.T) {
	m, h := newHarness(t, 40)
	h.session.Start()
	snap := waitForItems(t, h.pager, 40)

	m, _ = update(t, m, sized(80, 14), SnapshotMsg{Snapshot: snap})
	assert.Equal(t, 1, h.client.callCount(), "cursor at the top does not page")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnd})
	assert.Equal(t, 39, m.list.cursor)
	require.Eventually(t, func() bool { return h.client.callCount() == 2 }, 2*time.Second, 5*time.Millisecond)

	snap = waitForItems(t, h.pager, 80)
	m, _ = update(t, m, SnapshotMsg{Snapshot: snap})
	assert.Equal(t, 39, m.list.cursor, "appending keeps the cursor")
}

func TestModel_PrependKeepsSelection(t *testing.T) {
	m, _ := newHarness(t, 20)
	all := domain.Filtered(domain.Filter{})
	m, _ = update(t, m, sized(80, 30), snapshotOf(all, itemsFrom(41, 20)))
	m, _ = update(t, m, keys("jjj")...)

	id, ok := m.selectedCatalogID()
	require.True(t, ok)
	assert.Equal(t, 44, id)

	m, _ = update(t, m, snapshotOf(all, itemsFrom(21, 40)))
	id, _ = m.selectedCatalogID()
	assert.Equal(t, 44, id)
	assert.Equal(t, 23, m.list.cursor)
}

func TestModel_QueryChangeResetsCursor(t *testing.T) {
	m, _ := newHarness(t, 20)
	m, _ = update(t, m, sized(80, 30), snapshotOf(domain.Filtered(domain.Filter{}), itemsFrom(1, 20)))
	m, _ = update(t, m, keys("jjjj")...)
	require.Equal(t, 4, m.list.cursor)

	m, _ = update(t, m, snapshotOf(domain.Search("doom"), itemsFrom(100, 20)))
	assert.Equal(t, 0, m.list.cursor)
}

func TestModel_RefreshReselectsAnchor(t *testing.T) {
	m, _ := newHarness(t, 20)
	all := domain.Filtered(domain.Filter{})
	m, _ = update(t, m, sized(80, 50), snapshotOf(all, itemsFrom(1, 40)))
	m, _ = update(t, m, keys("G")...)
	m, _ = update(t, m, keys("kkkkkkkkk")...)
	require.Equal(t, 30, m.list.cursor)

	m, _ = update(t, m, keys("R")...)
	assert.Equal(t, 31, m.pendingAnchor)

	// The reloaded sequence starts empty, then resumes at page 2
	m, _ = update(t, m, SnapshotMsg{Snapshot: paging.Snapshot{Query: all, State: paging.StateLoadingInitial}})
	m, _ = update(t, m, snapshotOf(all, itemsFrom(21, 20)))

	id, _ := m.selectedCatalogID()
	assert.Equal(t, 31, id)
	assert.Zero(t, m.pendingAnchor)
}

func TestModel_ToggleSaved(t *testing.T) {
	m, h := newHarness(t, 20)
	m, _ = update(t, m, sized(80, 30), snapshotOf(domain.Filtered(domain.Filter{}), itemsFrom(1, 5)))

	m, cmd := update(t, m, space)
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, SavedToggledMsg{ItemID: 1, Name: "Game 1", Saved: true}, msg)

	m, _ = update(t, m, msg)
	assert.True(t, m.isSaved(1))
	assert.Equal(t, "Saved Game 1", m.status)

	found, err := h.sync.Contains(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestModel_SavedViewFilterAndClear(t *testing.T) {
	m, h := newHarness(t, 20)
	m, _ = update(t, m, sized(80, 30))

	ctx := context.Background()
	for i, name := range []string{"Halo", "Hades", "Celeste"} {
		require.NoError(t, h.sync.Save(ctx, domain.CatalogItem{ID: i + 1, Name: name}))
	}
	list := []domain.SavedItem{{ID: 3, Name: "Celeste"}, {ID: 2, Name: "Hades"}, {ID: 1, Name: "Halo"}}

	m, _ = update(t, m, keys("w")...)
	require.Equal(t, ViewSaved, m.mode)
	m, _ = update(t, m, SavedListMsg{Items: list})

	m, _ = update(t, m, keys("/ha")...)
	assert.Equal(t, "ha", m.savedFilter)
	assert.Len(t, m.filteredSaved(), 2)

	m, _ = update(t, m, escape)
	assert.Empty(t, m.savedFilter)
	assert.Len(t, m.filteredSaved(), 3)

	m, _ = update(t, m, keys("D")...)
	assert.True(t, m.confirming)
	assert.Contains(t, m.View(), "Remove every saved game?")

	m, cmd := update(t, m, keys("y")...)
	require.NotNil(t, cmd)
	assert.Equal(t, SavedClearedMsg{}, cmd())
	assert.False(t, m.confirming)

	found, err := h.sync.Contains(ctx, 2)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestModel_ClearSavedDenied(t *testing.T) {
	m, _ := newHarness(t, 20)
	m, _ = update(t, m, sized(80, 30), keys("w")[0], SavedListMsg{Items: []domain.SavedItem{{ID: 1, Name: "Halo"}}})

	m, _ = update(t, m, keys("D")...)
	m, cmd := update(t, m, keys("n")...)
	assert.Nil(t, cmd)
	assert.False(t, m.confirming)
	assert.Equal(t, ViewSaved, m.mode)
}

func TestModel_BlockingErrorView(t *testing.T) {
	m, _ := newHarness(t, 20)
	snap := paging.Snapshot{
		Query:    domain.Filtered(domain.Filter{}),
		State:    paging.StateError,
		Err:      errors.New("connection refused"),
		Failed:   paging.LoadInitial,
		Blocking: true,
	}
	m, _ = update(t, m, sized(100, 20), SnapshotMsg{Snapshot: snap})

	view := m.View()
	assert.Contains(t, view, "Couldn't load games: connection refused")
	assert.Contains(t, view, "Press r to retry")
}

func TestModel_RetryableErrorKeepsItems(t *testing.T) {
	m, _ := newHarness(t, 20)
	snap := paging.Snapshot{
		Query:     domain.Filtered(domain.Filter{}),
		Items:     itemsFrom(1, 3),
		State:     paging.StateError,
		Err:       errors.New("timeout"),
		Failed:    paging.LoadForward,
		Retryable: true,
		HasMore:   true,
	}
	m, _ = update(t, m, sized(100, 20), SnapshotMsg{Snapshot: snap})

	view := m.View()
	assert.Contains(t, view, "Game 3")
	assert.Contains(t, view, "Couldn't load more games: timeout")
}

func TestModel_FacetPickerTogglesPlatform(t *testing.T) {
	m, h := newHarness(t, 20)
	facets := catalog.Facets{
		Platforms: []domain.Platform{{ID: 4, Name: "PC"}, {ID: 7, Name: "Nintendo Switch"}},
		Genres:    []domain.Genre{{ID: 4, Name: "Action"}},
	}
	m, _ = update(t, m, sized(80, 30), FacetsLoadedMsg{Facets: facets})

	m, _ = update(t, m, keys("p")...)
	require.Equal(t, ViewFacets, m.mode)
	require.Equal(t, InputFacetFilter, m.inputMode)

	m, _ = update(t, m, keys("switch")...)
	require.Len(t, m.facetRefs(), 1)

	m, _ = update(t, m, enter)
	assert.True(t, h.session.Filter().HasPlatform(7))
	assert.Equal(t, "7", h.pager.Snapshot().Query.RemoteParams()[domain.ParamPlatforms])

	m, _ = update(t, m, escape)
	assert.Equal(t, ViewBrowse, m.mode)
	assert.Equal(t, InputNone, m.inputMode)
	assert.Equal(t, "Nintendo Switch", m.describeQuery(h.session.Query()))
}

func TestModel_FacetsNotLoadedYet(t *testing.T) {
	m, _ := newHarness(t, 20)
	m, _ = update(t, m, sized(80, 30), ErrMsg{Err: errors.New("offline"), Context: ctxLoadingFilters})

	m, cmd := update(t, m, keys("t")...)
	assert.Equal(t, ViewBrowse, m.mode)
	assert.NotNil(t, cmd, "reloads the lists")
	assert.True(t, m.facetsFetching)
}

func TestModel_DetailsLoad(t *testing.T) {
	m, _ := newHarness(t, 20)
	m, _ = update(t, m, sized(80, 30), snapshotOf(domain.Filtered(domain.Filter{}), itemsFrom(1, 5)))
	m, _ = update(t, m, keys("j")...)

	m, cmd := update(t, m, enter)
	require.Equal(t, ViewDetails, m.mode)
	assert.Contains(t, m.View(), "Loading details...")

	m, _ = update(t, m, cmd())
	require.NotNil(t, m.details)
	assert.Contains(t, m.View(), "full details")

	m, _ = update(t, m, escape)
	assert.Equal(t, ViewBrowse, m.mode)
	assert.Equal(t, 1, m.list.cursor)
}

func TestModel_StaleStatusNotCleared(t *testing.T) {
	m, _ := newHarness(t, 20)
	m.setStatus("first", false)
	m.setStatus("second", false)

	m, _ = update(t, m, ClearStatusMsg{Seq: 1})
	assert.Equal(t, "second", m.status)
	m, _ = update(t, m, ClearStatusMsg{Seq: 2})
	assert.Empty(t, m.status)
}
