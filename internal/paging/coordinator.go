package paging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmcdole/arcade/internal/domain"
)

// DefaultPageSize is the page size requested from the remote.
const DefaultPageSize = 20

// LoadState describes what the coordinator is doing for the active query.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoadingInitial
	StateLoadingForward
	StateLoadingBackward
	StateError
)

func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadingInitial:
		return "loading"
	case StateLoadingForward:
		return "loading more"
	case StateLoadingBackward:
		return "loading previous"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// LoadKind names which load a request or failure belongs to.
type LoadKind int

const (
	LoadNone LoadKind = iota
	LoadInitial
	LoadForward
	LoadBackward
)

// Snapshot is an immutable view of the paged sequence. Items must not be
// modified; the slice is shared with other subscribers.
type Snapshot struct {
	Generation  uint64
	Query       domain.QuerySpec
	Items       []domain.CatalogItem
	State       LoadState
	Err         error
	Failed      LoadKind
	Blocking    bool // First page failed; nothing to show
	Retryable   bool // A later page failed; Items are intact
	HasMore     bool
	HasPrevious bool
	TotalCount  int
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithPageSize sets the page size. Values below 1 are ignored.
func WithPageSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// generation is everything tied to one QuerySpec. Replacing it cancels
// in-flight loads and orphans its cache.
type generation struct {
	id        uint64
	source    *Source
	cache     *pageCache
	ctx       context.Context
	cancel    context.CancelFunc
	inflight  map[LoadKind]bool
	failed    LoadKind
	failedKey PageKey
	err       error
}

func (g *generation) state() LoadState {
	switch {
	case g.inflight[LoadInitial]:
		return StateLoadingInitial
	case g.inflight[LoadForward]:
		return StateLoadingForward
	case g.inflight[LoadBackward]:
		return StateLoadingBackward
	case g.err != nil:
		return StateError
	default:
		return StateIdle
	}
}

// Coordinator owns the paged sequence for whichever query is currently
// active. All methods are safe for concurrent use and never block on the
// network.
type Coordinator struct {
	client   domain.CatalogClient
	pageSize int
	logger   *slog.Logger

	root       context.Context
	cancelRoot context.CancelFunc
	bc         *broadcaster
	wg         sync.WaitGroup

	mu     sync.Mutex
	gen    *generation
	nextID uint64
	closed bool
}

// NewCoordinator creates a coordinator with no active query.
func NewCoordinator(client domain.CatalogClient, opts ...Option) *Coordinator {
	c := &Coordinator{
		client:   client,
		pageSize: DefaultPageSize,
		logger:   slog.Default(),
		bc:       newBroadcaster(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.root, c.cancelRoot = context.WithCancel(context.Background())
	return c
}

// SetQuery makes spec the active query. An equal spec is a no-op; any other
// spec discards the cache and starts again from the first page.
func (c *Coordinator) SetQuery(spec domain.QuerySpec) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.gen != nil && c.gen.source.Spec().Equal(spec) {
		return
	}
	c.logger.Debug("query changed", "query", spec.String())
	c.replaceLocked(NewSource(c.client, spec), NoKey)
}

// Observe streams snapshots until ctx is done or the coordinator closes.
// The current snapshot is delivered first.
func (c *Coordinator) Observe(ctx context.Context) <-chan Snapshot {
	c.mu.Lock()
	id, ch := c.bc.subscribe(c.snapshotLocked())
	c.mu.Unlock()

	if id >= 0 {
		go func() {
			select {
			case <-ctx.Done():
			case <-c.root.Done():
			}
			c.bc.unsubscribe(id)
		}()
	}
	return ch
}

// RequestMore loads the page after the cached range if one exists and no
// forward load is already running. A failed forward load must be retried.
func (c *Coordinator) RequestMore() {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := c.gen
	if c.closed || g == nil || g.cache.empty() {
		return
	}
	if g.inflight[LoadInitial] || g.inflight[LoadForward] || g.failed == LoadForward {
		return
	}
	next := g.cache.nextKey()
	if next == NoKey {
		return
	}
	c.startLoadLocked(g, LoadForward, next)
}

// RequestPrevious loads the page before the cached range. Only a refreshed
// sequence that started past page 1 has one.
func (c *Coordinator) RequestPrevious() {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := c.gen
	if c.closed || g == nil || g.cache.empty() {
		return
	}
	if g.inflight[LoadInitial] || g.inflight[LoadBackward] || g.failed == LoadBackward {
		return
	}
	prev := g.cache.prevKey()
	if prev == NoKey {
		return
	}
	c.startLoadLocked(g, LoadBackward, prev)
}

// Retry re-issues the load that last failed.
func (c *Coordinator) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := c.gen
	if c.closed || g == nil || g.failed == LoadNone {
		return
	}
	kind, key := g.failed, g.failedKey
	g.failed, g.failedKey, g.err = LoadNone, NoKey, nil
	c.startLoadLocked(g, kind, key)
}

// Refresh drops the cache for the active query and reloads starting at the
// page around anchor (an item index, or NoAnchor for page 1).
func (c *Coordinator) Refresh(anchor int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := c.gen
	if c.closed || g == nil {
		return
	}
	key := g.source.RefreshKey(g.cache.state(anchor))
	c.logger.Debug("refreshing", "query", g.source.Spec().String(), "anchor", anchor, "page", int(key))
	c.replaceLocked(NewSource(c.client, g.source.Spec()), key)
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close cancels in-flight loads, closes every observer channel and waits for
// load goroutines to exit.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.gen != nil {
		c.gen.cancel()
	}
	c.cancelRoot()
	c.bc.close()
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Coordinator) replaceLocked(source *Source, start PageKey) {
	if c.gen != nil {
		c.gen.cancel()
	}
	ctx, cancel := context.WithCancel(c.root)
	c.nextID++
	g := &generation{
		id:       c.nextID,
		source:   source,
		cache:    newPageCache(),
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[LoadKind]bool),
	}
	c.gen = g
	c.startLoadLocked(g, LoadInitial, start)
}

func (c *Coordinator) startLoadLocked(g *generation, kind LoadKind, key PageKey) {
	g.inflight[kind] = true
	c.publishLocked()

	c.wg.Add(1)
	go c.load(g, kind, key)
}

func (c *Coordinator) load(g *generation, kind LoadKind, key PageKey) {
	defer c.wg.Done()

	page, err := g.source.Load(g.ctx, key, c.pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != g || g.ctx.Err() != nil {
		c.logger.Debug("discarding stale page", "generation", g.id, "page", int(key))
		return
	}
	delete(g.inflight, kind)

	if err != nil {
		g.err = err
		g.failed = kind
		g.failedKey = key
		c.logger.Warn("page load failed",
			"query", g.source.Spec().String(),
			"page", int(key),
			"error", err)
		c.publishLocked()
		return
	}

	pageKey := key
	if pageKey == NoKey {
		pageKey = 1
	}
	if kind == LoadBackward {
		g.cache.prependPage(pageKey, page)
	} else {
		g.cache.appendPage(pageKey, page)
	}
	c.logger.Debug("page loaded",
		"query", g.source.Spec().String(),
		"page", int(pageKey),
		"items", len(page.Items),
		"cached", g.cache.len())
	c.publishLocked()
}

func (c *Coordinator) publishLocked() {
	c.bc.publish(c.snapshotLocked())
}

func (c *Coordinator) snapshotLocked() Snapshot {
	g := c.gen
	if g == nil {
		return Snapshot{State: StateIdle}
	}
	return Snapshot{
		Generation:  g.id,
		Query:       g.source.Spec(),
		Items:       g.cache.view(),
		State:       g.state(),
		Err:         g.err,
		Failed:      g.failed,
		Blocking:    g.err != nil && g.failed == LoadInitial,
		Retryable:   g.err != nil && g.failed != LoadInitial,
		HasMore:     g.cache.nextKey() != NoKey,
		HasPrevious: g.cache.prevKey() != NoKey,
		TotalCount:  g.cache.total,
	}
}
