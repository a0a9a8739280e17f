package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/arcade/internal/domain"
	"github.com/mmcdole/arcade/internal/paging"
)

// Feed names reported in FeedClosedMsg
const (
	feedSnapshots = "snapshots"
	feedSaved     = "saved"
	feedErrors    = "errors"
)

// feeds are the long-lived channels the model listens on. Each listen
// command reads one value; Update re-arms it after handling the message.
type feeds struct {
	snapshots <-chan paging.Snapshot
	saved     <-chan []domain.SavedItem
	errs      <-chan error
}

func (f feeds) listen() tea.Cmd {
	return tea.Batch(
		listenSnapshotsCmd(f.snapshots),
		listenSavedCmd(f.saved),
		listenSaveErrorsCmd(f.errs),
	)
}

func listenSnapshotsCmd(ch <-chan paging.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return FeedClosedMsg{Feed: feedSnapshots}
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

func listenSavedCmd(ch <-chan []domain.SavedItem) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		items, ok := <-ch
		if !ok {
			return FeedClosedMsg{Feed: feedSaved}
		}
		return SavedListMsg{Items: items}
	}
}

func listenSaveErrorsCmd(ch <-chan error) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return FeedClosedMsg{Feed: feedErrors}
		}
		return SaveFailedMsg{Err: err}
	}
}
