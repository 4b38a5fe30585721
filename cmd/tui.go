package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/petitions/internal/config"
	"github.com/matheuskafuri/petitions/internal/feed"
	"github.com/matheuskafuri/petitions/internal/history"
	"github.com/matheuskafuri/petitions/internal/logging"
	"github.com/matheuskafuri/petitions/internal/tui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagSource < 0 || flagSource >= len(cfg.Sources) {
		return fmt.Errorf("--source %d: %w", flagSource, feed.ErrUnknownSource)
	}

	// The alternate screen owns stdout, so logs go to a file.
	log, logFile, err := logging.NewFile(config.LogPath(), logLevel(cfg))
	if err != nil {
		return err
	}
	defer logFile.Close()

	loader := newLoader(cfg, log)
	opts := tui.RunOpts{
		Loader:   loader,
		Sources:  cfg.SourceNames(),
		StartTab: flagSource,
		Credits:  cfg.Credits,
		Log:      log,
	}

	if store := openHistory(log); store != nil {
		defer store.Close()
		opts.Observer = history.NewObserver(store, loader.URL, log)
	}

	return tui.Run(opts)
}

func logLevel(cfg *config.Config) string {
	if flagLogLevel != "" {
		return flagLogLevel
	}
	return cfg.LogLevel
}

func newLoader(cfg *config.Config, log *slog.Logger) *feed.Loader {
	return feed.NewLoader(cfg.Sources, cfg.RequestTimeoutDuration(),
		feed.WithUserAgent(cfg.UserAgent),
		feed.WithLogger(log),
	)
}

// openHistory returns nil when the store is unavailable; browsing works
// without it.
func openHistory(log *slog.Logger) *history.Store {
	store, err := history.Open(config.HistoryPath())
	if err != nil {
		log.Warn("load history disabled", "err", err)
		return nil
	}
	return store
}
