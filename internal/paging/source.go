// Package paging turns a remote catalog into a single continuously growing
// sequence of items for the active query.
package paging

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/mmcdole/arcade/internal/domain"
)

// PageKey is a 1-based page number. NoKey means "absent".
type PageKey int

// NoKey marks a missing next/previous page, or "first page" when loading.
const NoKey PageKey = 0

// NoAnchor means there is no scroll position to preserve.
const NoAnchor = -1

// Page is an ordered run of items plus its neighbouring keys.
type Page struct {
	Items      []domain.CatalogItem
	PrevKey    PageKey
	NextKey    PageKey
	TotalCount int // Total matches reported by the remote
}

// HasNext reports whether a following page exists
func (p Page) HasNext() bool { return p.NextKey != NoKey }

// HasPrev reports whether a preceding page exists
func (p Page) HasPrev() bool { return p.PrevKey != NoKey }

// Source fetches pages for one fixed QuerySpec. A spec change always builds a new Source.
type Source struct {
	client domain.CatalogClient
	spec   domain.QuerySpec
	params map[string]string
}

// NewSource binds a client to a query
func NewSource(client domain.CatalogClient, spec domain.QuerySpec) *Source {
	return &Source{client: client, spec: spec, params: spec.RemoteParams()}
}

// Spec returns the query this source serves
func (s *Source) Spec() domain.QuerySpec { return s.spec }

// Load fetches the page for key (NoKey = page 1). Every failure, including a
// panicking client, comes back as a *domain.FetchError.
func (s *Source) Load(ctx context.Context, key PageKey, size int) (page Page, err error) {
	pageNum := int(key)
	if key == NoKey {
		pageNum = 1
	}

	defer func() {
		if r := recover(); r != nil {
			page = Page{}
			err = &domain.FetchError{
				Page: pageNum,
				Err:  &domain.RemoteError{Kind: domain.RemoteNetwork, Err: fmt.Errorf("client panic: %v", r)},
			}
		}
	}()

	// Params are copied so a client can never alter the source's query.
	remote, err := s.client.FetchPage(ctx, pageNum, size, maps.Clone(s.params))
	if err != nil {
		return Page{}, &domain.FetchError{Page: pageNum, Err: asRemoteError(err)}
	}

	page = Page{Items: remote.Items, TotalCount: remote.TotalCount}
	if remote.HasNext {
		page.NextKey = PageKey(pageNum + 1)
	}
	if pageNum > 1 {
		page.PrevKey = PageKey(pageNum - 1)
	}
	return page, nil
}

func asRemoteError(err error) error {
	var re *domain.RemoteError
	if errors.As(err, &re) {
		return err
	}
	return &domain.RemoteError{Kind: domain.RemoteNetwork, Err: err}
}

// PagingState is the set of loaded pages plus the consumer's scroll anchor.
type PagingState struct {
	Pages  []Page
	Anchor int // Item index, or NoAnchor
}

// ClosestPageToPosition returns the page holding item index pos. Positions
// past either end resolve to the first or last page.
func (s PagingState) ClosestPageToPosition(pos int) (Page, bool) {
	if len(s.Pages) == 0 {
		return Page{}, false
	}
	if pos < 0 {
		return s.Pages[0], true
	}
	offset := 0
	for _, p := range s.Pages {
		offset += len(p.Items)
		if pos < offset {
			return p, true
		}
	}
	return s.Pages[len(s.Pages)-1], true
}

// RefreshKey picks the page to reload first after an invalidation so the
// user's scroll context survives.
func (s *Source) RefreshKey(state PagingState) PageKey {
	if state.Anchor == NoAnchor {
		return NoKey
	}
	page, ok := state.ClosestPageToPosition(state.Anchor)
	if !ok {
		return NoKey
	}
	if page.PrevKey != NoKey {
		return page.PrevKey + 1
	}
	if page.NextKey != NoKey {
		return page.NextKey - 1
	}
	return NoKey
}
