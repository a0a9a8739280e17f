package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/arcade/internal/config"
	"github.com/mmcdole/arcade/internal/domain"
	"github.com/mmcdole/arcade/internal/log"
)

const maxKeyAttempts = 3

var errEmptyKey = errors.New("empty API key")

// SetupCmd prompts for an API key, checks it and saves the config
type SetupCmd struct{}

func (cmd *SetupCmd) Run(g *Globals) error {
	if !g.Interactive {
		return errors.New("setup needs an interactive terminal; set ARCADE_API_KEY instead")
	}
	if err := runSetup(g); err != nil {
		return err
	}
	fmt.Fprintln(g.Out, "Run arcade to start browsing.")
	return nil
}

// runSetup asks for a key until the catalog accepts one, then writes it to
// the config file.
func runSetup(g *Globals) error {
	out := g.Out
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Welcome to arcade!")
	fmt.Fprintln(out, "Get a free API key at https://rawg.io/apidocs")
	fmt.Fprintln(out)

	for attempt := 1; ; attempt++ {
		fmt.Fprint(out, "API key: ")
		key, err := g.ReadSecret()
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}

		key = strings.TrimSpace(key)
		switch {
		case key == "":
			err = errEmptyKey
			fmt.Fprintln(out, "The API key cannot be empty. Please try again.")
		default:
			fmt.Fprintln(out, "Checking key...")
			err = verifyKey(g.Config, key)
		}
		if err == nil {
			g.Config.API.Key = key
			break
		}

		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			fmt.Fprintln(out, "✗ The catalog rejected that key.")
		case !errors.Is(err, errEmptyKey):
			fmt.Fprintf(out, "✗ Could not reach the catalog: %v\n", err)
		}
		if attempt >= maxKeyAttempts {
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}
	}

	if err := config.Save(g.ConfigDir, g.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintln(out, "✓ Configuration saved!")
	fmt.Fprintln(out)
	return nil
}

// verifyKey requests one tiny page with key
func verifyKey(cfg *config.Config, key string) error {
	probe := *cfg
	probe.API.Key = key

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err := newClient(&probe, log.NullLogger()).FetchPage(ctx, 1, 1, nil)
	return err
}
