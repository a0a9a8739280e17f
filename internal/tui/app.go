package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/arcade/internal/browse"
	"github.com/mmcdole/arcade/internal/catalog"
	"github.com/mmcdole/arcade/internal/domain"
	"github.com/mmcdole/arcade/internal/paging"
	"github.com/mmcdole/arcade/internal/saved"
	"github.com/mmcdole/arcade/internal/tui/styles"
)

// ViewMode is the screen currently shown
type ViewMode int

const (
	ViewBrowse ViewMode = iota
	ViewSaved
	ViewDetails
	ViewFacets
)

// InputMode says what the text input is editing, if anything
type InputMode int

const (
	InputNone InputMode = iota
	InputSearch
	InputSavedFilter
	InputFacetFilter
)

// FacetKind selects which reference list the picker shows
type FacetKind int

const (
	FacetPlatforms FacetKind = iota
	FacetGenres
)

const statusDuration = 4 * time.Second

// Model is the main Bubble Tea model for the application
type Model struct {
	// Services
	pager   *paging.Coordinator
	saved   *saved.Sync
	session *browse.Session
	catalog *catalog.Service
	logger  *slog.Logger
	feeds   feeds

	// UI components
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	input   textinput.Model

	mode       ViewMode
	returnMode ViewMode // Where ViewDetails goes back to
	inputMode  InputMode
	confirming bool // Waiting for y/n on clearing the saved list
	showHelp   bool

	// Browse list
	snap           paging.Snapshot
	list           listWindow
	pendingAnchor  int // Item id to reselect after a refresh, 0 for none
	facets         catalog.Facets
	facetsLoaded   bool
	facetsFetching bool

	// Saved list
	savedItems  []domain.SavedItem
	savedIDs    map[int]bool
	savedFilter string
	savedList   listWindow

	// Details
	detailsID   int
	details     *domain.CatalogItem
	detailsBase domain.CatalogItem // Row data shown while details load

	// Facet picker
	facetKind  FacetKind
	facetQuery string
	facetList  listWindow

	// Dimensions
	width  int
	height int
	ready  bool

	// Status line
	status      string
	statusIsErr bool
	statusSeq   int
}

// NewModel creates the application model. Subscriptions opened here end
// when ctx is done.
func NewModel(
	ctx context.Context,
	pager *paging.Coordinator,
	sync *saved.Sync,
	session *browse.Session,
	catalogSvc *catalog.Service,
	logger *slog.Logger,
) Model {
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.CharLimit = 100
	ti.Width = 40
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	return Model{
		pager:   pager,
		saved:   sync,
		session: session,
		catalog: catalogSvc,
		logger:  logger,
		feeds: feeds{
			snapshots: pager.Observe(ctx),
			saved:     sync.ListAll(ctx),
			errs:      sync.Errors(),
		},
		keys:     DefaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		input:    ti,
		snap:     pager.Snapshot(),
		savedIDs: make(map[int]bool),

		facetsFetching: true,
	}
}

// Init starts the subscriptions and loads the filter lists
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.feeds.listen(),
		m.spinner.Tick,
		LoadFacetsCmd(m.catalog, false),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.list.clamp(len(m.snap.Items), m.listRows())
		m.requestEdges()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SnapshotMsg:
		m.applySnapshot(msg.Snapshot)
		m.requestEdges()
		return m, listenSnapshotsCmd(m.feeds.snapshots)

	case SavedListMsg:
		m.applySaved(msg.Items)
		return m, listenSavedCmd(m.feeds.saved)

	case SaveFailedMsg:
		cmd := m.setStatus("Saved list not updated: "+msg.Err.Error(), true)
		return m, tea.Batch(cmd, listenSaveErrorsCmd(m.feeds.errs))

	case SavedToggledMsg:
		text := "Removed " + msg.Name
		if msg.Saved {
			text = "Saved " + msg.Name
		}
		cmd := m.setStatus(text, false)
		return m, cmd

	case SavedClearedMsg:
		m.savedList.reset()
		cmd := m.setStatus("Saved list cleared", false)
		return m, cmd

	case DetailsLoadedMsg:
		if m.mode == ViewDetails && msg.Item.ID == m.detailsID {
			item := msg.Item
			m.details = &item
		}
		return m, nil

	case FacetsLoadedMsg:
		m.facets = msg.Facets
		m.facetsLoaded = true
		m.facetsFetching = false
		return m, nil

	case ErrMsg:
		m.logger.Error("operation failed", "context", msg.Context, "error", msg.Err)
		if msg.Context == ctxLoadingFilters {
			m.facetsFetching = false
		}
		cmd := m.setStatus(msg.Error(), true)
		return m, cmd

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.status = ""
			if m.statusIsErr {
				m.saved.DismissErr()
			}
			m.statusIsErr = false
		}
		return m, nil

	case FeedClosedMsg:
		m.logger.Debug("feed closed", "feed", msg.Feed)
		return m, nil
	}

	return m, nil
}

// applySnapshot swaps in a new snapshot and keeps the selected item under
// the cursor when it is still present.
func (m *Model) applySnapshot(snap paging.Snapshot) {
	prev := m.snap
	prevID, hadSelection := m.selectedCatalogID()
	m.snap = snap
	rows := m.listRows()

	if !snap.Query.Equal(prev.Query) {
		m.pendingAnchor = 0
		m.list.reset()
		m.list.clamp(len(snap.Items), rows)
		return
	}

	want := prevID
	if m.pendingAnchor != 0 {
		want, hadSelection = m.pendingAnchor, true
	}
	if hadSelection {
		if i := indexOfItem(snap.Items, want); i >= 0 {
			m.pendingAnchor = 0
			m.list.jump(i, len(snap.Items), rows)
			return
		}
	}
	if len(snap.Items) > 0 {
		m.pendingAnchor = 0
	}
	m.list.clamp(len(snap.Items), rows)
}

func (m *Model) applySaved(items []domain.SavedItem) {
	m.savedItems = items
	ids := make(map[int]bool, len(items))
	for _, item := range items {
		ids[item.ID] = true
	}
	m.savedIDs = ids
	m.savedList.clamp(len(m.filteredSaved()), m.listRows())
}

// requestEdges asks for the next or previous page once the cursor nears an
// edge of the cached range. The coordinator ignores duplicate requests.
func (m Model) requestEdges() {
	if m.mode != ViewBrowse || len(m.snap.Items) == 0 || m.snap.Err != nil {
		return
	}
	rows := m.listRows()
	if m.snap.HasMore && m.list.nearEnd(len(m.snap.Items), rows) {
		m.pager.RequestMore()
	}
	if m.snap.HasPrevious && m.list.nearStart() {
		m.pager.RequestPrevious()
	}
}

// isSaved prefers the optimistic mark from a toggle over the stored list
func (m Model) isSaved(id int) bool {
	if marked, known := m.saved.IsMarked(id); known {
		return marked
	}
	return m.savedIDs[id]
}

func (m Model) selectedCatalogID() (int, bool) {
	item, ok := m.selectedCatalogItem()
	return item.ID, ok
}

func (m Model) selectedCatalogItem() (domain.CatalogItem, bool) {
	items := m.snap.Items
	if m.list.cursor < 0 || m.list.cursor >= len(items) {
		return domain.CatalogItem{}, false
	}
	return items[m.list.cursor], true
}

func (m Model) filteredSaved() []saved.Match {
	return saved.Filter(m.savedItems, m.savedFilter)
}

func (m Model) selectedSaved() (domain.SavedItem, bool) {
	matches := m.filteredSaved()
	if m.savedList.cursor < 0 || m.savedList.cursor >= len(matches) {
		return domain.SavedItem{}, false
	}
	return matches[m.savedList.cursor].Item, true
}

func (m Model) facetRefs() []domain.Ref {
	refs := m.facets.Platforms
	if m.facetKind == FacetGenres {
		refs = m.facets.Genres
	}
	return catalog.Find(refs, m.facetQuery)
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusIsErr = isErr
	return ClearStatusCmd(m.statusSeq, statusDuration)
}

func indexOfItem(items []domain.CatalogItem, id int) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
