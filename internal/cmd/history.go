package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adamancini/ota/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past update transactions",
		Long: `History lists the update transactions recorded on this device, newest first.

Records are stored as JSON files in history.dir (default: .ota/history under
the device root). Runs that found no new version are not recorded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd)
		},
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryPruneCmd())

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd)
		},
	}
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one transaction",
		Long: `Show prints a recorded transaction. The ID may be abbreviated to a unique
prefix; use 'latest' for the most recent one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, args[0])
		},
	}
}

func newHistoryPruneCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old records",
		Long: `Prune deletes old records, keeping only the most recent N.

By default, keeps history.keep records (30 unless configured).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryPrune(cmd, keep)
		},
	}

	cmd.Flags().IntVar(&keep, "keep", -1, "Number of records to keep")

	return cmd
}

type historyList struct {
	dir   string
	infos []history.Info
}

func (l historyList) WriteText(w io.Writer) error {
	if len(l.infos) == 0 {
		_, _ = fmt.Fprintln(w, "No transactions recorded.")
		_, err := fmt.Fprintf(w, "History directory: %s\n", l.dir)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTime\tStatus\tVersion")
	for _, info := range l.infos {
		version := info.Version
		if version == "" {
			version = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			shortID(info.ID),
			info.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			info.Status,
			version,
		)
	}
	return tw.Flush()
}

type historyRecord struct {
	*history.Record
}

func (r historyRecord) WriteText(w io.Writer) error {
	previous := r.PreviousVersion
	if previous == "" {
		previous = "none"
	}
	lines := []string{
		fmt.Sprintf("ID:       %s", r.ID),
		fmt.Sprintf("Time:     %s", r.CreatedAt.Local().Format("2006-01-02 15:04:05")),
		fmt.Sprintf("Remote:   %s/%s", strings.TrimSuffix(r.Host, "/"), r.Project),
		fmt.Sprintf("Status:   %s", r.Status),
		fmt.Sprintf("Version:  %s -> %s", previous, r.Version),
		fmt.Sprintf("Bytes:    %s", formatSize(r.Bytes)),
		fmt.Sprintf("Duration: %s", r.Duration),
	}
	if r.Reset != "" {
		lines = append(lines, fmt.Sprintf("Reset:    %s", r.Reset))
	}
	if len(r.Entries) > 0 {
		lines = append(lines, fmt.Sprintf("Entries:  %s", strings.Join(r.Entries, " ")))
	}
	if len(r.Failed) > 0 {
		lines = append(lines, fmt.Sprintf("Missing:  %s", strings.Join(r.Failed, " ")))
	}
	if r.Error != "" {
		lines = append(lines, fmt.Sprintf("Error:    %s", r.Error))
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

type pruneSummary struct {
	*history.PruneResult
}

func (p pruneSummary) WriteText(w io.Writer) error {
	if len(p.Deleted) == 0 {
		_, err := fmt.Fprintf(w, "Nothing to prune (%d records kept)\n", p.Kept)
		return err
	}
	_, err := fmt.Fprintf(w, "Deleted %d records, kept %d\n", len(p.Deleted), p.Kept)
	return err
}

func runHistoryList(cmd *cobra.Command) error {
	cfg, err := readConfig(nil)
	if err != nil {
		return err
	}
	w, err := newWriter(cmd)
	if err != nil {
		return err
	}

	store := historyStore(cfg)
	infos, err := store.List()
	if err != nil {
		return err
	}

	if w.IsText() {
		return w.Write(historyList{dir: store.Dir(), infos: infos})
	}
	return w.Write(infos)
}

func runHistoryShow(cmd *cobra.Command, id string) error {
	cfg, err := readConfig(nil)
	if err != nil {
		return err
	}
	w, err := newWriter(cmd)
	if err != nil {
		return err
	}

	rec, err := historyStore(cfg).Get(id)
	if err != nil {
		return err
	}

	if w.IsText() {
		return w.Write(historyRecord{rec})
	}
	return w.Write(rec)
}

func runHistoryPrune(cmd *cobra.Command, keep int) error {
	cfg, err := readConfig(nil)
	if err != nil {
		return err
	}
	w, err := newWriter(cmd)
	if err != nil {
		return err
	}

	if keep < 0 {
		keep = cfg.History.Keep
	}
	result, err := historyStore(cfg).Prune(keep)
	if err != nil {
		return err
	}

	if w.IsText() {
		return w.Write(pruneSummary{result})
	}
	return w.Write(result)
}

// shortID abbreviates a record ID for listing.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatSize formats a byte size as a human-readable string.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

