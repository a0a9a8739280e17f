package browse

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/mmcdole/arcade/internal/domain"
)

// QuerySink receives the active query. *paging.Coordinator implements it.
type QuerySink interface {
	SetQuery(spec domain.QuerySpec)
}

// Session holds the user's search text and filter selection and pushes the
// combined query to the sink on every change. Non-blank text wins over the
// filter; clearing the text brings the filter back.
type Session struct {
	sink   QuerySink
	prefs  *Prefs
	logger *slog.Logger

	mu     sync.Mutex
	text   string
	filter domain.Filter
}

// NewSession creates a session. prefs may be nil to skip persistence.
func NewSession(sink QuerySink, prefs *Prefs, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{sink: sink, prefs: prefs, logger: logger}
}

// Start restores the persisted query and issues the first one.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prefs != nil {
		spec, ok, err := s.prefs.LoadSavedQuery()
		switch {
		case err != nil:
			s.logger.Warn("failed to load saved query", "error", err)
		case ok && spec.IsSearch():
			s.text = spec.Text()
		case ok:
			s.filter = spec.Filter()
		}
	}
	s.pushLocked()
}

// SetSearch replaces the search text.
func (s *Session) SetSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.pushLocked()
}

func (s *Session) ClearSearch() {
	s.SetSearch("")
}

// SetFilter replaces the filter and persists it. The new filter is applied
// even when persisting fails.
func (s *Session) SetFilter(f domain.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	s.pushLocked()
	return s.persistLocked()
}

// UpdateFilter applies fn to the current filter.
func (s *Session) UpdateFilter(fn func(domain.Filter) domain.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = fn(s.filter)
	s.pushLocked()
	return s.persistLocked()
}

// ClearFilters resets the filter and forgets the persisted one.
func (s *Session) ClearFilters() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = domain.Filter{}
	s.pushLocked()

	if s.prefs == nil {
		return nil
	}
	if err := s.prefs.ClearSavedQuery(); err != nil {
		s.logger.Warn("failed to clear saved query", "error", err)
		return err
	}
	return nil
}

// Query returns the combined query.
func (s *Session) Query() domain.QuerySpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked()
}

func (s *Session) SearchText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

func (s *Session) Filter() domain.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// IsSearching reports whether the search text is non-blank.
func (s *Session) IsSearching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.TrimSpace(s.text) != ""
}

func (s *Session) queryLocked() domain.QuerySpec {
	if strings.TrimSpace(s.text) != "" {
		return domain.Search(s.text)
	}
	return domain.Filtered(s.filter)
}

func (s *Session) pushLocked() {
	if s.sink != nil {
		s.sink.SetQuery(s.queryLocked())
	}
}

func (s *Session) persistLocked() error {
	if s.prefs == nil {
		return nil
	}
	if err := s.prefs.StoreSavedQuery(domain.Filtered(s.filter)); err != nil {
		s.logger.Warn("failed to persist filter", "error", err)
		return err
	}
	return nil
}
