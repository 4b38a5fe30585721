package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matheuskafuri/petitions/internal/config"
	"github.com/matheuskafuri/petitions/internal/history"
)

var (
	flagHistoryLimit    int
	flagPruneOlderThan string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent feed loads",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := history.Open(config.HistoryPath())
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer db.Close()

		entries, err := db.Recent(flagHistoryLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No loads recorded yet.")
			return nil
		}
		fmt.Fprintln(out, historyTable(entries, time.Now()))
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old entries from the load history",
	Long: `Delete load history older than the retention period and reclaim disk space.

Uses history_retention from config (default: 90d) unless overridden with --older-than.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		db, err := history.Open(config.HistoryPath())
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer db.Close()

		retention := cfg.RetentionDuration()
		if flagPruneOlderThan != "" {
			d, err := config.ParseDuration(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = d
		}

		deleted, err := db.Prune(retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		out := cmd.OutOrStdout()
		if deleted == 0 {
			fmt.Fprintln(out, "Nothing to prune.")
		} else {
			fmt.Fprintf(out, "Pruned %d load(s) older than %s.\n", deleted, formatDuration(retention))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show load history statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := config.HistoryPath()
		db, err := history.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer db.Close()

		count, size, err := db.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "History: %s\n", dbPath)
		fmt.Fprintf(out, "Loads: %d\n", count)
		fmt.Fprintf(out, "Size: %s\n", humanize.Bytes(uint64(size)))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "number of entries to show")
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 30d, 720h)")
}

func historyTable(entries []history.Entry, now time.Time) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		outcome := fmt.Sprintf("ok (%d)", e.Count)
		if !e.OK {
			outcome = "failed: " + truncate(e.Error, 60)
		}
		rows = append(rows, []string{
			humanize.RelTime(e.At, now, "ago", "from now"),
			strconv.Itoa(e.SourceID),
			outcome,
			e.Took.Round(time.Millisecond).String(),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("WHEN", "SOURCE", "OUTCOME", "TOOK").
		Rows(rows...).
		String()
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
