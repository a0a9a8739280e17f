package domain

import (
	"slices"
	"strconv"
	"strings"
)

// Remote parameter names understood by the catalog
const (
	ParamSearch    = "search"
	ParamPlatforms = "platforms"
	ParamGenres    = "genres"
	ParamOrdering  = "ordering"
)

const idDelimiter = ","

// SortOrder is the optional ordering applied to filtered queries
type SortOrder int

const (
	SortNone SortOrder = iota
	SortName
	SortReleased
	SortRating
	SortMetacritic
)

var sortParams = map[SortOrder]string{
	SortName:       "name",
	SortReleased:   "-released",
	SortRating:     "-rating",
	SortMetacritic: "-metacritic",
}

var sortLabels = map[SortOrder]string{
	SortNone:       "Default",
	SortName:       "Name",
	SortReleased:   "Release date",
	SortRating:     "Rating",
	SortMetacritic: "Metacritic",
}

// SortOrders returns every settable sort order in display order
func SortOrders() []SortOrder {
	return []SortOrder{SortName, SortReleased, SortRating, SortMetacritic}
}

// Param returns the remote ordering value, or "" for SortNone
func (s SortOrder) Param() string { return sortParams[s] }

// Label returns the display name
func (s SortOrder) Label() string {
	if l, ok := sortLabels[s]; ok {
		return l
	}
	return "Unknown"
}

// IsSet reports whether an ordering is selected
func (s SortOrder) IsSet() bool {
	_, ok := sortParams[s]
	return ok
}

// Next cycles through SortNone and the settable orders
func (s SortOrder) Next() SortOrder {
	if s >= SortMetacritic || s < SortNone {
		return SortNone
	}
	return s + 1
}

// ParseSortOrder maps a remote ordering value back to a SortOrder
func ParseSortOrder(param string) (SortOrder, bool) {
	for s, p := range sortParams {
		if p == param {
			return s, true
		}
	}
	return SortNone, false
}

// Filter is an immutable structured filter. The zero value has no active filters.
type Filter struct {
	platforms []int // sorted, unique
	genres    []int // sorted, unique
	sort      SortOrder
}

// NewFilter builds a filter; duplicate ids are collapsed and order is ignored.
func NewFilter(platforms, genres []int, sort SortOrder) Filter {
	if !sort.IsSet() {
		sort = SortNone
	}
	return Filter{
		platforms: normalizeIDs(platforms),
		genres:    normalizeIDs(genres),
		sort:      sort,
	}
}

func normalizeIDs(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// Platforms returns the selected platform ids in ascending order
func (f Filter) Platforms() []int { return slices.Clone(f.platforms) }

// Genres returns the selected genre ids in ascending order
func (f Filter) Genres() []int { return slices.Clone(f.genres) }

// Sort returns the selected ordering
func (f Filter) Sort() SortOrder { return f.sort }

// HasPlatform reports whether id is selected
func (f Filter) HasPlatform(id int) bool {
	_, ok := slices.BinarySearch(f.platforms, id)
	return ok
}

// HasGenre reports whether id is selected
func (f Filter) HasGenre(id int) bool {
	_, ok := slices.BinarySearch(f.genres, id)
	return ok
}

// TogglePlatform adds id if absent, removes it if present.
func (f Filter) TogglePlatform(id int) Filter {
	f.platforms = toggleID(f.platforms, id)
	return f
}

// ToggleGenre adds id if absent, removes it if present.
func (f Filter) ToggleGenre(id int) Filter {
	f.genres = toggleID(f.genres, id)
	return f
}

// WithSort returns a copy with the given ordering
func (f Filter) WithSort(s SortOrder) Filter {
	if !s.IsSet() {
		s = SortNone
	}
	f.sort = s
	return f
}

// toggleID never mutates ids; filters share their backing arrays.
func toggleID(ids []int, id int) []int {
	i, found := slices.BinarySearch(ids, id)
	if found {
		out := slices.Delete(slices.Clone(ids), i, i+1)
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return slices.Insert(slices.Clone(ids), i, id)
}

// HasActiveFilters reports whether any platform, genre, or ordering is set
func (f Filter) HasActiveFilters() bool {
	return len(f.platforms) > 0 || len(f.genres) > 0 || f.sort.IsSet()
}

// Equal compares filters as sets
func (f Filter) Equal(o Filter) bool {
	return f.sort == o.sort &&
		slices.Equal(f.platforms, o.platforms) &&
		slices.Equal(f.genres, o.genres)
}

func (f Filter) params() map[string]string {
	params := make(map[string]string, 3)
	if len(f.platforms) > 0 {
		params[ParamPlatforms] = joinIDs(f.platforms)
	}
	if len(f.genres) > 0 {
		params[ParamGenres] = joinIDs(f.genres)
	}
	if f.sort.IsSet() {
		params[ParamOrdering] = f.sort.Param()
	}
	return params
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, idDelimiter)
}

// ParseIDs parses a comma-separated id list, skipping invalid entries
func ParseIDs(s string) []int {
	var ids []int
	for _, part := range strings.Split(s, idDelimiter) {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// QueryKind distinguishes the two QuerySpec variants
type QueryKind int

const (
	QueryFiltered QueryKind = iota
	QuerySearch
)

// QuerySpec describes which subset and order of the catalog is requested.
// A search and a structured filter are mutually exclusive. The zero value is
// an unfiltered query.
type QuerySpec struct {
	kind   QueryKind
	text   string
	filter Filter
}

// Search returns a text search. Blank text falls back to an empty filter.
func Search(text string) QuerySpec {
	if strings.TrimSpace(text) == "" {
		return Filtered(Filter{})
	}
	return QuerySpec{kind: QuerySearch, text: text}
}

// Filtered returns a structured filter query
func Filtered(f Filter) QuerySpec {
	return QuerySpec{kind: QueryFiltered, filter: f}
}

// Kind returns the variant
func (q QuerySpec) Kind() QueryKind { return q.kind }

// IsSearch reports whether this is a text search
func (q QuerySpec) IsSearch() bool { return q.kind == QuerySearch }

// Text returns the search text ("" for filtered queries)
func (q QuerySpec) Text() string { return q.text }

// Filter returns the structured filter (empty for searches)
func (q QuerySpec) Filter() Filter { return q.filter }

// HasActiveFilters is always false for searches
func (q QuerySpec) HasActiveFilters() bool {
	return q.kind == QueryFiltered && q.filter.HasActiveFilters()
}

// RemoteParams serializes the query into remote request parameters.
// Searches never carry platform, genre, or ordering parameters.
func (q QuerySpec) RemoteParams() map[string]string {
	if q.kind == QuerySearch {
		return map[string]string{ParamSearch: q.text}
	}
	return q.filter.params()
}

// Equal reports whether two specs describe the same query
func (q QuerySpec) Equal(o QuerySpec) bool {
	if q.kind != o.kind {
		return false
	}
	if q.kind == QuerySearch {
		return q.text == o.text
	}
	return q.filter.Equal(o.filter)
}

// Key returns a canonical string; equal specs have equal keys.
func (q QuerySpec) Key() string {
	if q.kind == QuerySearch {
		return "s:" + q.text
	}
	return "f:p=" + joinIDs(q.filter.platforms) +
		";g=" + joinIDs(q.filter.genres) +
		";o=" + q.filter.sort.Param()
}

// String returns a short description for logging
func (q QuerySpec) String() string {
	if q.kind == QuerySearch {
		return strconv.Quote(q.text)
	}
	if !q.filter.HasActiveFilters() {
		return "all"
	}
	return q.Key()
}
