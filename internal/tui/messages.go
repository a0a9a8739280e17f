package tui

import (
	"github.com/mmcdole/arcade/internal/catalog"
	"github.com/mmcdole/arcade/internal/domain"
	"github.com/mmcdole/arcade/internal/paging"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// SnapshotMsg carries a new paging snapshot
type SnapshotMsg struct {
	Snapshot paging.Snapshot
}

// SavedListMsg carries the current saved list
type SavedListMsg struct {
	Items []domain.SavedItem
}

// SaveFailedMsg reports a saved-item write that failed in the background
type SaveFailedMsg struct {
	Err error
}

// SavedToggledMsg signals that a toggle finished
type SavedToggledMsg struct {
	ItemID int
	Name   string
	Saved  bool
}

// SavedClearedMsg signals that the saved list was emptied
type SavedClearedMsg struct{}

// DetailsLoadedMsg signals that full details for an item have been loaded
type DetailsLoadedMsg struct {
	Item domain.CatalogItem
}

// FacetsLoadedMsg signals that platform and genre lists are available
type FacetsLoadedMsg struct {
	Facets catalog.Facets
}

// FeedClosedMsg signals that a subscription channel was closed
type FeedClosedMsg struct {
	Feed string
}

// ClearStatusMsg clears the status line if it is still showing message Seq
type ClearStatusMsg struct {
	Seq int
}
