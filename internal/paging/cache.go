package paging

import "github.com/mmcdole/arcade/internal/domain"

// pageEntry locates one page inside the item arena.
type pageEntry struct {
	key     PageKey
	start   int
	count   int
	prevKey PageKey
	nextKey PageKey
}

// pageCache is an append-only item arena plus a side table of pages, ordered
// by page number. Views handed out are capped at their length so later
// appends never touch memory a reader can see.
type pageCache struct {
	items []domain.CatalogItem
	pages []pageEntry
	total int
}

func newPageCache() *pageCache {
	return &pageCache{}
}

func (c *pageCache) empty() bool { return len(c.pages) == 0 }

func (c *pageCache) len() int { return len(c.items) }

// appendPage stores a page after the cached range.
func (c *pageCache) appendPage(key PageKey, p Page) {
	c.pages = append(c.pages, pageEntry{
		key:     key,
		start:   len(c.items),
		count:   len(p.Items),
		prevKey: p.PrevKey,
		nextKey: p.NextKey,
	})
	c.items = append(c.items, p.Items...)
	c.total = p.TotalCount
}

// prependPage stores a page before the cached range. It always builds a new
// arena; readers keep the old one.
func (c *pageCache) prependPage(key PageKey, p Page) {
	items := make([]domain.CatalogItem, 0, len(p.Items)+len(c.items))
	items = append(items, p.Items...)
	items = append(items, c.items...)

	pages := make([]pageEntry, 0, len(c.pages)+1)
	pages = append(pages, pageEntry{
		key:     key,
		start:   0,
		count:   len(p.Items),
		prevKey: p.PrevKey,
		nextKey: p.NextKey,
	})
	for _, e := range c.pages {
		e.start += len(p.Items)
		pages = append(pages, e)
	}

	c.items = items
	c.pages = pages
	c.total = p.TotalCount
}

// nextKey is the key after the last cached page.
func (c *pageCache) nextKey() PageKey {
	if c.empty() {
		return NoKey
	}
	return c.pages[len(c.pages)-1].nextKey
}

// prevKey is the key before the first cached page.
func (c *pageCache) prevKey() PageKey {
	if c.empty() {
		return NoKey
	}
	return c.pages[0].prevKey
}

// view returns the items in order. Callers must treat it as read-only.
func (c *pageCache) view() []domain.CatalogItem {
	n := len(c.items)
	return c.items[:n:n]
}

// state rebuilds the page list for refresh-key calculation.
func (c *pageCache) state(anchor int) PagingState {
	pages := make([]Page, len(c.pages))
	for i, e := range c.pages {
		end := e.start + e.count
		pages[i] = Page{
			Items:   c.items[e.start:end:end],
			PrevKey: e.prevKey,
			NextKey: e.nextKey,
		}
	}
	return PagingState{Pages: pages, Anchor: anchor}
}
