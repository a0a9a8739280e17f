package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/arcade/internal/domain"
	"github.com/mmcdole/arcade/internal/paging"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	// The text input owns the keyboard while it is focused
	if m.inputMode != InputNone {
		return m.handleInputKey(msg)
	}

	if m.confirming {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirming = false
			return m, ClearSavedCmd(m.saved)
		case key.Matches(msg, m.keys.Deny):
			m.confirming = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.list.clamp(len(m.snap.Items), m.listRows())
		return m, nil
	}

	switch m.mode {
	case ViewSaved:
		return m.handleSavedKey(msg)
	case ViewDetails:
		return m.handleDetailsKey(msg)
	case ViewFacets:
		return m.handleFacetKey(msg)
	default:
		return m.handleBrowseKey(msg)
	}
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n, rows := len(m.snap.Items), m.listRows()

	switch {
	case key.Matches(msg, m.keys.Up):
		m.list.move(-1, n, rows)
	case key.Matches(msg, m.keys.Down):
		m.list.move(1, n, rows)
	case key.Matches(msg, m.keys.PageUp):
		m.list.move(-rows, n, rows)
	case key.Matches(msg, m.keys.PageDown):
		m.list.move(rows, n, rows)
	case key.Matches(msg, m.keys.Home):
		m.list.top(n, rows)
	case key.Matches(msg, m.keys.End):
		m.list.bottom(n, rows)

	case key.Matches(msg, m.keys.Search):
		cmd := m.openInput(InputSearch, "/ ", "Search games...", m.session.SearchText())
		return m, cmd

	case key.Matches(msg, m.keys.Back):
		if m.session.IsSearching() {
			m.session.ClearSearch()
		}
		return m, nil

	case key.Matches(msg, m.keys.Sort):
		if m.session.IsSearching() {
			cmd := m.setStatus("Sorting applies to filters; clear the search first", false)
			return m, cmd
		}
		err := m.session.UpdateFilter(func(f domain.Filter) domain.Filter {
			return f.WithSort(f.Sort().Next())
		})
		label := "Sort: " + m.session.Filter().Sort().Label()
		if err != nil {
			cmd := m.setStatus(label+" (not saved: "+err.Error()+")", true)
			return m, cmd
		}
		cmd := m.setStatus(label, false)
		return m, cmd

	case key.Matches(msg, m.keys.Platforms):
		return m.openFacets(FacetPlatforms)
	case key.Matches(msg, m.keys.Genres):
		return m.openFacets(FacetGenres)

	case key.Matches(msg, m.keys.ClearFilters):
		if err := m.session.ClearFilters(); err != nil {
			cmd := m.setStatus("Filters cleared but not saved: "+err.Error(), true)
			return m, cmd
		}
		cmd := m.setStatus("Filters cleared", false)
		return m, cmd

	case key.Matches(msg, m.keys.ToggleSaved):
		if item, ok := m.selectedCatalogItem(); ok {
			return m, ToggleSavedCmd(m.saved, item)
		}
		return m, nil

	case key.Matches(msg, m.keys.SavedView):
		m.mode = ViewSaved
		m.savedList.clamp(len(m.filteredSaved()), rows)
		return m, nil

	case key.Matches(msg, m.keys.Retry):
		if m.snap.Err != nil {
			m.pager.Retry()
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		anchor := paging.NoAnchor
		if id, ok := m.selectedCatalogID(); ok {
			anchor = m.list.cursor
			m.pendingAnchor = id
		}
		m.pager.Refresh(anchor)
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		if item, ok := m.selectedCatalogItem(); ok {
			return m.openDetails(item, ViewBrowse)
		}
		return m, nil

	default:
		return m, nil
	}

	m.requestEdges()
	return m, nil
}

func (m Model) handleSavedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n, rows := len(m.filteredSaved()), m.listRows()

	switch {
	case key.Matches(msg, m.keys.Up):
		m.savedList.move(-1, n, rows)
	case key.Matches(msg, m.keys.Down):
		m.savedList.move(1, n, rows)
	case key.Matches(msg, m.keys.PageUp):
		m.savedList.move(-rows, n, rows)
	case key.Matches(msg, m.keys.PageDown):
		m.savedList.move(rows, n, rows)
	case key.Matches(msg, m.keys.Home):
		m.savedList.top(n, rows)
	case key.Matches(msg, m.keys.End):
		m.savedList.bottom(n, rows)

	case key.Matches(msg, m.keys.Search):
		cmd := m.openInput(InputSavedFilter, "filter: ", "Filter saved...", m.savedFilter)
		return m, cmd

	case key.Matches(msg, m.keys.ToggleSaved):
		if item, ok := m.selectedSaved(); ok {
			return m, RemoveSavedCmd(m.saved, item)
		}

	case key.Matches(msg, m.keys.ClearSaved):
		if len(m.savedItems) > 0 {
			m.confirming = true
		}

	case key.Matches(msg, m.keys.Enter):
		if item, ok := m.selectedSaved(); ok {
			return m.openDetails(domain.CatalogItem{
				ID:       item.ID,
				Name:     item.Name,
				ImageURL: item.ImageURL,
				Released: item.Released,
				Rating:   item.Rating,
			}, ViewSaved)
		}

	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.SavedView):
		if m.savedFilter != "" && key.Matches(msg, m.keys.Back) {
			m.savedFilter = ""
			m.savedList.reset()
			return m, nil
		}
		m.mode = ViewBrowse
		m.requestEdges()
	}
	return m, nil
}

func (m Model) handleDetailsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Enter):
		m.mode = m.returnMode
		m.details = nil
		m.detailsID = 0
	case key.Matches(msg, m.keys.ToggleSaved):
		item := m.detailsBase
		if m.details != nil {
			item = *m.details
		}
		return m, ToggleSavedCmd(m.saved, item)
	case key.Matches(msg, m.keys.Retry):
		if m.details == nil {
			return m, LoadDetailsCmd(m.catalog, m.detailsID)
		}
	}
	return m, nil
}

// handleFacetKey handles the picker: arrows move, enter toggles the row and
// every other key edits the name filter.
func (m Model) handleFacetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	refs := m.facetRefs()
	n, rows := len(refs), m.listRows()

	switch msg.Type {
	case tea.KeyUp:
		m.facetList.move(-1, n, rows)
		return m, nil
	case tea.KeyDown:
		m.facetList.move(1, n, rows)
		return m, nil
	case tea.KeyPgUp:
		m.facetList.move(-rows, n, rows)
		return m, nil
	case tea.KeyPgDown:
		m.facetList.move(rows, n, rows)
		return m, nil
	case tea.KeyEsc:
		m.mode = ViewBrowse
		m.inputMode = InputNone
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		if m.facetList.cursor >= n {
			return m, nil
		}
		ref := refs[m.facetList.cursor]
		kind := m.facetKind
		err := m.session.UpdateFilter(func(f domain.Filter) domain.Filter {
			if kind == FacetGenres {
				return f.ToggleGenre(ref.ID)
			}
			return f.TogglePlatform(ref.ID)
		})
		if err != nil {
			cmd := m.setStatus("Filter applied but not saved: "+err.Error(), true)
			return m, cmd
		}
		if m.session.IsSearching() {
			cmd := m.setStatus("Filters apply once the search is cleared", false)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := m.input.Value(); q != m.facetQuery {
		m.facetQuery = q
		m.facetList.reset()
	}
	return m, cmd
}

// handleInputKey routes keys to the search or saved-filter input
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputMode == InputFacetFilter {
		return m.handleFacetKey(msg)
	}

	switch msg.Type {
	case tea.KeyEnter:
		value := m.input.Value()
		mode := m.closeInput()
		if mode == InputSearch {
			m.session.SetSearch(value)
		}
		return m, nil
	case tea.KeyEsc:
		if m.closeInput() == InputSavedFilter {
			m.savedFilter = ""
			m.savedList.reset()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.inputMode == InputSavedFilter {
		// Saved list filters as you type
		m.savedFilter = m.input.Value()
		m.savedList.reset()
	}
	return m, cmd
}

func (m *Model) openInput(mode InputMode, prompt, placeholder, value string) tea.Cmd {
	m.inputMode = mode
	m.input.Prompt = prompt
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) closeInput() InputMode {
	mode := m.inputMode
	m.inputMode = InputNone
	m.input.Blur()
	return mode
}

func (m Model) openFacets(kind FacetKind) (tea.Model, tea.Cmd) {
	if !m.facetsLoaded {
		if m.facetsFetching {
			cmd := m.setStatus("Still loading filters...", false)
			return m, cmd
		}
		m.facetsFetching = true
		status := m.setStatus("Loading filters...", false)
		return m, tea.Batch(status, LoadFacetsCmd(m.catalog, false))
	}
	m.mode = ViewFacets
	m.facetKind = kind
	m.facetQuery = ""
	m.facetList.reset()

	placeholder := "Filter platforms..."
	if kind == FacetGenres {
		placeholder = "Filter genres..."
	}
	cmd := m.openInput(InputFacetFilter, "> ", placeholder, "")
	return m, cmd
}

func (m Model) openDetails(item domain.CatalogItem, from ViewMode) (tea.Model, tea.Cmd) {
	m.returnMode = from
	m.mode = ViewDetails
	m.detailsID = item.ID
	m.detailsBase = item
	m.details = nil
	return m, LoadDetailsCmd(m.catalog, item.ID)
}
