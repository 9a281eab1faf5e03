package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/restcheck/restcheck/packages/core/config"
	"github.com/restcheck/restcheck/packages/history"
)

var historyLimitFlag int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved runs",
	Long: `List runs previously saved with restcheck run --save.

Examples:
  restcheck history
  restcheck history --limit 50`,
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimitFlag, "limit", 20, "Maximum number of runs to list")
	historyCmd.Flags().StringVar(&historyPathFlag, "history", "", "Path to the history database")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	path := historyPathFlag
	if path == "" {
		fileConfig, err := config.LoadConfig(configFlag)
		if err != nil {
			return err
		}
		path = fileConfig.HistoryPath
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no history database at %s (run with --save first)", path)
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.ListRuns(historyLimitFlag)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved runs.")
		return nil
	}

	for _, rec := range records {
		status := "passed"
		if rec.Failed > 0 {
			status = fmt.Sprintf("%d failed", rec.Failed)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d requests, %s  (%dms)\n",
			rec.StartedAt.Format("2006-01-02 15:04:05"), rec.ID[:8], rec.Total, status,
			rec.Duration.Milliseconds())
	}
	return nil
}
