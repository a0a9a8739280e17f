package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/arcade/internal/browse"
	"github.com/mmcdole/arcade/internal/catalog"
	"github.com/mmcdole/arcade/internal/config"
	"github.com/mmcdole/arcade/internal/log"
	"github.com/mmcdole/arcade/internal/paging"
	"github.com/mmcdole/arcade/internal/rawg"
	"github.com/mmcdole/arcade/internal/saved"
	"github.com/mmcdole/arcade/internal/store"
	"github.com/mmcdole/arcade/internal/tui"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

var errNotConfigured = errors.New("no API key configured: run 'arcade setup' or set ARCADE_API_KEY")

// Globals is shared by every command
type Globals struct {
	Config    *config.Config
	ConfigDir string
	Out       io.Writer

	// Interactive reports whether prompts can be shown
	Interactive bool
	// ReadSecret reads a line without echoing it
	ReadSecret func() (string, error)
}

type CLI struct {
	Browse BrowseCmd `cmd:"" default:"1" help:"Browse the game catalog"`
	Setup  SetupCmd  `cmd:"" help:"Configure the RAWG API key"`
	Saved  SavedCmd  `cmd:"" help:"List or clear saved games"`

	ConfigDir string           `name:"config-dir" type:"path" help:"Directory holding config.yaml"`
	LogLevel  string           `name:"log-level" help:"Override the configured log level (DEBUG, INFO, WARN, ERROR)"`
	Version   kong.VersionFlag `short:"v" help:"Print version and exit"`
}

func (c *CLI) AfterApply(ctx *kong.Context) error {
	dir := c.ConfigDir
	if dir == "" {
		dir = config.DefaultDir()
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}

	stdin := int(os.Stdin.Fd())
	ctx.Bind(&Globals{
		Config:      cfg,
		ConfigDir:   dir,
		Out:         ctx.Stdout,
		Interactive: term.IsTerminal(stdin),
		ReadSecret: func() (string, error) {
			b, err := term.ReadPassword(stdin)
			return string(b), err
		},
	})
	return nil
}

// BrowseCmd runs the terminal browser
type BrowseCmd struct {
	Search        string `short:"s" help:"Start with this search instead of the saved filters"`
	RefreshFacets bool   `name:"refresh-filters" help:"Reload platform and genre lists from the catalog"`
}

func (cmd *BrowseCmd) Run(g *Globals) error {
	cfg := g.Config
	if !cfg.IsConfigured() {
		if !g.Interactive {
			return errNotConfigured
		}
		if err := runSetup(g); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, closer, err := log.SetupLogger(cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger, closer = log.NullLogger(), io.NopCloser(nil)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	logger.Info("starting arcade", "version", Version)

	st, err := store.New(cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	if cmd.RefreshFacets {
		if err := st.InvalidateReference(); err != nil {
			logger.Warn("failed to drop cached filter lists", "error", err)
		}
	}

	client := newClient(cfg, logger)

	pager := paging.NewCoordinator(client,
		paging.WithPageSize(cfg.Paging.PageSize),
		paging.WithLogger(logger),
	)
	defer pager.Close()

	sync := saved.NewSync(st, logger)
	defer sync.Close()

	session := browse.NewSession(pager, browse.NewPrefs(st, logger), logger)
	catalogSvc := catalog.NewService(client, st, logger)

	session.Start()
	if cmd.Search != "" {
		session.SetSearch(cmd.Search)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := tui.NewModel(ctx, pager, sync, session, catalogSvc, logger)
	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

func newClient(cfg *config.Config, logger *slog.Logger) *rawg.Client {
	return rawg.NewClient(cfg.API.BaseURL, cfg.API.Key, logger,
		rawg.WithTimeout(cfg.API.Timeout),
		rawg.WithRateLimit(cfg.API.RequestsPerSecond),
	)
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("arcade"),
		kong.Description("Browse the RAWG game catalog from the terminal"),
		kong.UsageOnError(),
		kong.Vars{"version": "arcade " + Version},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
