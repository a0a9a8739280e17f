// Package browse combines search text and filter selection into the query
// the pager runs, and remembers the last filter across restarts.
package browse

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mmcdole/arcade/internal/domain"
)

// SavedQueryKey is the settings key holding the persisted query.
const SavedQueryKey = "saved_query"

const (
	kindFiltered = "filtered"
	kindSearch   = "search"
)

// savedQuery is the on-disk form of a QuerySpec.
type savedQuery struct {
	Kind      string `json:"kind"`
	Text      string `json:"text,omitempty"`
	Platforms []int  `json:"platforms,omitempty"`
	Genres    []int  `json:"genres,omitempty"`
	Ordering  string `json:"ordering,omitempty"`
}

// Prefs reads and writes the persisted query.
type Prefs struct {
	settings domain.SettingsStore
	logger   *slog.Logger
}

func NewPrefs(settings domain.SettingsStore, logger *slog.Logger) *Prefs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prefs{settings: settings, logger: logger}
}

// LoadSavedQuery returns the persisted query, if any. An unreadable entry is
// logged and treated as absent.
func (p *Prefs) LoadSavedQuery() (domain.QuerySpec, bool, error) {
	data, ok, err := p.settings.GetSetting(SavedQueryKey)
	if err != nil {
		return domain.QuerySpec{}, false, fmt.Errorf("loading saved query: %w", err)
	}
	if !ok {
		return domain.QuerySpec{}, false, nil
	}

	var sq savedQuery
	if err := json.Unmarshal(data, &sq); err != nil {
		p.logger.Warn("ignoring unreadable saved query", "error", err)
		return domain.QuerySpec{}, false, nil
	}

	if sq.Kind == kindSearch {
		return domain.Search(sq.Text), true, nil
	}
	sort := domain.SortNone
	if sq.Ordering != "" {
		parsed, ok := domain.ParseSortOrder(sq.Ordering)
		if !ok {
			p.logger.Warn("ignoring unknown saved ordering", "ordering", sq.Ordering)
		}
		sort = parsed
	}
	return domain.Filtered(domain.NewFilter(sq.Platforms, sq.Genres, sort)), true, nil
}

// StoreSavedQuery persists spec, replacing any previous value.
func (p *Prefs) StoreSavedQuery(spec domain.QuerySpec) error {
	sq := savedQuery{Kind: kindFiltered}
	if spec.IsSearch() {
		sq = savedQuery{Kind: kindSearch, Text: spec.Text()}
	} else {
		f := spec.Filter()
		sq.Platforms = f.Platforms()
		sq.Genres = f.Genres()
		sq.Ordering = f.Sort().Param()
	}

	data, err := json.Marshal(sq)
	if err != nil {
		return fmt.Errorf("encoding saved query: %w", err)
	}
	if err := p.settings.PutSetting(SavedQueryKey, data); err != nil {
		return fmt.Errorf("storing saved query: %w", err)
	}
	return nil
}

// ClearSavedQuery removes the persisted query.
func (p *Prefs) ClearSavedQuery() error {
	if err := p.settings.DeleteSetting(SavedQueryKey); err != nil {
		return fmt.Errorf("clearing saved query: %w", err)
	}
	return nil
}
