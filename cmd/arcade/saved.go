package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/mmcdole/arcade/internal/log"
	"github.com/mmcdole/arcade/internal/saved"
	"github.com/mmcdole/arcade/internal/store"
)

// SavedCmd groups the saved-list commands
type SavedCmd struct {
	List  SavedListCmd  `cmd:"" default:"1" aliases:"ls" help:"List saved games"`
	Clear SavedClearCmd `cmd:"" help:"Remove every saved game"`
}

type SavedListCmd struct{}

func (cmd *SavedListCmd) Run(g *Globals) error {
	st, err := store.New(g.Config.Storage.Dir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	items, err := st.ListSaved()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(g.Out, "No saved games.")
		return nil
	}

	w := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tRELEASED\tRATING\tSAVED")
	for _, item := range items {
		released := item.Released
		if released == "" {
			released = "-"
		}
		rating := item.FormattedRating()
		if rating == "" {
			rating = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			item.ID, item.Name, released, rating, item.SavedAt.Local().Format(time.DateOnly))
	}
	return w.Flush()
}

type SavedClearCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation"`
}

func (cmd *SavedClearCmd) Run(g *Globals) error {
	if !cmd.Yes {
		return errors.New("refusing to clear saved games without --yes")
	}

	st, err := store.New(g.Config.Storage.Dir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	sync := saved.NewSync(st, log.NullLogger())
	defer sync.Close()

	if err := sync.Clear(context.Background()); err != nil {
		return fmt.Errorf("failed to clear saved games: %w", err)
	}
	fmt.Fprintln(g.Out, "Saved games cleared.")
	return nil
}
