package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matheuskafuri/petitions/internal/config"
	"github.com/matheuskafuri/petitions/internal/feed"
	"github.com/matheuskafuri/petitions/internal/history"
	"github.com/matheuskafuri/petitions/internal/logging"
	"github.com/matheuskafuri/petitions/internal/petition"
	"github.com/matheuskafuri/petitions/internal/presenter"
)

var (
	flagListSource int
	flagListFilter string
	flagListShow   int
	flagListJSON   bool
)

var errLoadFailed = errors.New(presenter.LoadErrorTitle + ": " + presenter.LoadErrorMessage)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print a feed without starting the interactive UI",
	Long: `Load one feed, optionally filter it, and print the petitions that remain.

--show N prints the detail of row N of the filtered list (0-based).`,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVar(&flagListSource, "source", 0, "feed to load (0-based)")
	listCmd.Flags().StringVar(&flagListFilter, "filter", "", "only keep petitions whose title or body contains this text")
	listCmd.Flags().IntVar(&flagListShow, "show", -1, "print the detail of this row of the filtered list")
	listCmd.Flags().BoolVar(&flagListJSON, "json", false, "print the filtered petitions as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logging.New(os.Stderr, logLevel(cfg))

	loader := newLoader(cfg, log)
	opts := []presenter.Option{presenter.WithLogger(log)}
	if store := openHistory(log); store != nil {
		defer store.Close()
		opts = append(opts, presenter.WithObserver(history.NewObserver(store, loader.URL, log)))
	}

	if _, err := loader.URL(flagListSource); err != nil {
		return fmt.Errorf("--source %d: %w", flagListSource, feed.ErrUnknownSource)
	}

	surface := &textSurface{}
	p := presenter.New(loader, surface, flagListSource, opts...)
	defer p.Close()

	ctx := cmd.Context()
	done, err := p.Activate(ctx)
	if err != nil {
		return err
	}
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if p.State() != presenter.StateLoaded {
		return errLoadFailed
	}

	if flagListFilter != "" {
		if err := p.ApplyFilter(flagListFilter); err != nil {
			return err
		}
	}
	if flagListShow >= 0 {
		if _, err := p.Select(flagListShow); err != nil {
			return fmt.Errorf("--show %d: %w", flagListShow, err)
		}
	}

	out := cmd.OutOrStdout()
	if flagListJSON {
		return writeJSON(out, p.Visible())
	}
	surface.flush(out)
	return nil
}

func writeJSON(w io.Writer, records []petition.Petition) error {
	if records == nil {
		records = []petition.Petition{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

var (
	listTitleStyle = lipgloss.NewStyle().Bold(true)
	listDimStyle   = lipgloss.NewStyle().Faint(true)
)

// textSurface keeps only the latest rows and detail; flush prints them once
// all presenter calls are done.
type textSurface struct {
	rows   []petition.Row
	detail *petition.Petition
	errMsg string
}

func (s *textSurface) Render(rows []petition.Row) {
	s.rows = rows
	s.detail = nil
}

func (s *textSurface) RenderDetail(p petition.Petition) { s.detail = &p }

func (s *textSurface) ShowError(message string) { s.errMsg = message }

func (s *textSurface) flush(w io.Writer) {
	if s.detail != nil {
		fmt.Fprintln(w, listTitleStyle.Render(s.detail.Title))
		fmt.Fprintln(w, listDimStyle.Render(humanize.Comma(int64(s.detail.SignatureCount))+" signatures"))
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.detail.Body)
		return
	}
	if len(s.rows) == 0 {
		fmt.Fprintln(w, "No petitions found.")
		return
	}
	for i, r := range s.rows {
		fmt.Fprintf(w, "%3d  %s\n", i, listTitleStyle.Render(r.Title))
		if body := oneLine(r.Body); body != "" {
			fmt.Fprintf(w, "     %s\n", listDimStyle.Render(truncate(body, 100)))
		}
	}
}
