/*
Copyright © 2026 Super2Brain
*/
package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

// statusCmd prints the persisted run counters and the most recent tasks.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show import progress and recent tasks",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runStatus(cmd); err != nil {
			log.Fatalf("Status failed: %v", err)
		}
	},
}

func runStatus(cmd *cobra.Command) error {
	cfg := loadConfig(cmd)

	st, err := initStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	state, err := st.LoadRunState()
	if err != nil {
		return err
	}

	fmt.Printf("Processing:  %t\n", state.IsProcessing)
	fmt.Printf("Progress:    %d%%\n", state.Progress)
	fmt.Printf("Bookmarks:   %d total, %d succeeded, %d failed\n", state.TotalBookmarks, state.SuccessCount, state.FailedCount)
	if state.HasError {
		fmt.Println("Last run hit a setup error before processing finished.")
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("failed to read --limit: %w", err)
	}
	tasks, err := st.ListTasks(limit)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks recorded.")
		return nil
	}

	fmt.Printf("\nTasks (newest first):\n")
	for _, t := range tasks {
		fmt.Printf("  %-10s %s  %s\n", t.Status, t.TaskID, t.URL)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().Int("limit", 20, "Maximum number of tasks to show (0 = all)")
}
