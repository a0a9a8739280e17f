package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/arcade/internal/catalog"
	"github.com/mmcdole/arcade/internal/domain"
	"github.com/mmcdole/arcade/internal/saved"
)

// Command factories for async operations

// ErrMsg contexts
const (
	ctxLoadingDetails = "loading details"
	ctxLoadingFilters = "loading filters"
	ctxUpdatingSaved  = "updating saved list"
	ctxRemovingSaved  = "removing saved item"
	ctxClearingSaved  = "clearing saved list"
)

// LoadDetailsCmd fetches full details for one catalog item
func LoadDetailsCmd(svc *catalog.Service, id int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		item, err := svc.Details(ctx, id)
		if err != nil {
			return ErrMsg{Err: err, Context: ctxLoadingDetails}
		}
		return DetailsLoadedMsg{Item: item}
	}
}

// LoadFacetsCmd loads the platform and genre lists
func LoadFacetsCmd(svc *catalog.Service, refresh bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		facets, err := svc.LoadFacets(ctx, refresh)
		if err != nil {
			return ErrMsg{Err: err, Context: ctxLoadingFilters}
		}
		return FacetsLoadedMsg{Facets: facets}
	}
}

// ToggleSavedCmd flips the saved state of item
func ToggleSavedCmd(sync *saved.Sync, item domain.CatalogItem) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		now, err := sync.Toggle(ctx, item)
		if err != nil {
			return ErrMsg{Err: err, Context: ctxUpdatingSaved}
		}
		return SavedToggledMsg{ItemID: item.ID, Name: item.Name, Saved: now}
	}
}

// RemoveSavedCmd removes a saved item by id
func RemoveSavedCmd(sync *saved.Sync, item domain.SavedItem) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := sync.Remove(ctx, item.ID); err != nil {
			return ErrMsg{Err: err, Context: ctxRemovingSaved}
		}
		return SavedToggledMsg{ItemID: item.ID, Name: item.Name, Saved: false}
	}
}

// ClearSavedCmd removes every saved item
func ClearSavedCmd(sync *saved.Sync) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := sync.Clear(ctx); err != nil {
			return ErrMsg{Err: err, Context: ctxClearingSaved}
		}
		return SavedClearedMsg{}
	}
}

// ClearStatusCmd returns a command that clears status message seq after a delay
func ClearStatusCmd(seq int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
