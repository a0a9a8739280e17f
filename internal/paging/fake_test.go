package paging

import (
	"context"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/arcade/internal/domain"
)

// searchIDOffset separates item ids of search results from filtered results.
const searchIDOffset = 10000

type fetchCall struct {
	page   int
	size   int
	params map[string]string
}

// fakeClient serves a fixed number of pages. Failures and gates are one-shot
// and keyed by page number.
type fakeClient struct {
	mu           sync.Mutex
	pages        int
	calls        []fetchCall
	failures     map[int]error
	panics       map[int]bool
	gates        map[int]chan struct{}
	returned     int
	canceled     int
	mutateParams bool
}

func newFakeClient(pages int) *fakeClient {
	return &fakeClient{
		pages:    pages,
		failures: make(map[int]error),
		panics:   make(map[int]bool),
		gates:    make(map[int]chan struct{}),
	}
}

func (f *fakeClient) failOn(page int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[page] = err
}

func (f *fakeClient) panicOn(page int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panics[page] = true
}

// gate makes the next fetch of page block until the returned func is called.
// A gated fetch ignores cancellation so it can deliver a late result.
func (f *fakeClient) gate(page int) (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[page] = ch
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *fakeClient) FetchPage(ctx context.Context, page, size int, params map[string]string) (domain.RemotePage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{page: page, size: size, params: maps.Clone(params)})
	gate := f.gates[page]
	delete(f.gates, page)
	err := f.failures[page]
	delete(f.failures, page)
	shouldPanic := f.panics[page]
	delete(f.panics, page)
	f.mu.Unlock()

	if f.mutateParams {
		params["platforms"] = "999"
	}
	if shouldPanic {
		panic("boom")
	}
	if gate != nil {
		<-gate
	}

	defer func() {
		f.mu.Lock()
		f.returned++
		if ctx.Err() != nil {
			f.canceled++
		}
		f.mu.Unlock()
	}()

	if err != nil {
		return domain.RemotePage{}, err
	}

	base := 0
	if params[domain.ParamSearch] != "" {
		base = searchIDOffset
	}
	items := make([]domain.CatalogItem, 0, size)
	for i := range size {
		id := base + (page-1)*size + i + 1
		items = append(items, domain.CatalogItem{ID: id, Name: "Game"})
	}
	return domain.RemotePage{
		TotalCount: f.pages * size,
		HasNext:    page < f.pages,
		Items:      items,
	}, nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeClient) lastCall() fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return fetchCall{}
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeClient) stats() (returned, canceled int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.returned, f.canceled
}

// await reads snapshots until cond holds. Only stable states can be awaited
// reliably since observers see the latest snapshot, not every one.
func await(t *testing.T, ch <-chan Snapshot, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				t.Fatal("snapshot channel closed")
			}
			if cond(s) {
				return s
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
			return Snapshot{}
		}
	}
}

func idleWith(n int) func(Snapshot) bool {
	return func(s Snapshot) bool {
		return s.State == StateIdle && len(s.Items) == n
	}
}

func inState(state LoadState) func(Snapshot) bool {
	return func(s Snapshot) bool { return s.State == state }
}
