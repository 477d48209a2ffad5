/*
Copyright © 2026 Super2Brain
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/super2brain/importd/internal/config"
	"github.com/super2brain/importd/internal/core"
	"github.com/super2brain/importd/internal/core/store"
	"github.com/super2brain/importd/internal/core/web"
)

// rootCmd runs the import daemon: it serves the message/progress API, polls
// pending tasks, and resumes any import run that was interrupted by a
// previous shutdown.
var rootCmd = &cobra.Command{
	Use:   "importd",
	Short: "Background bookmark import daemon for the Super2Brain note backend",
	Long: `importd drives bookmark imports into the Super2Brain note backend.

It flattens a selected part of the browser's bookmark tree, visits each URL
in a headless browser tab, extracts the readable content as markdown, submits
it to the remote note-creation endpoint, and tracks every submitted task
until the backend reports a terminal status. Progress counters and the task
list are persisted, so interrupted runs resume on the next startup.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)

		st, err := initStore(cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to initialize store: %v", err)
		}
		defer st.Close()

		// Resolve the token per request: the UI may hand one over while the
		// daemon is running, and that token must authorize the request it
		// arrived with.
		backend := core.NewBackendClientWithTokenSource(cfg.Backend.BaseURL, func() string {
			if cfg.Backend.Token != "" {
				return cfg.Backend.Token
			}
			token, err := st.GetToken()
			if err != nil {
				log.Printf("Failed to read stored token: %v", err)
				return ""
			}
			return token
		})

		browser, err := core.NewBrowser(context.Background(), core.BrowserOptions{
			ChromePath: cfg.Browser.ChromePath,
			Headless:   cfg.Browser.Headless,
			Timeout:    cfg.Browser.Timeout,
		})
		if err != nil {
			log.Fatalf("Failed to start browser: %v", err)
		}
		defer browser.Close()

		keepAlive := core.NewKeepAlive(cfg.Import.KeepAliveEvery, func() {
			if err := st.Ping(); err != nil {
				log.Printf("Keep-alive ping failed: %v", err)
			}
		})

		mode := core.SelectExplicit
		if cfg.Import.ExpandFolders {
			mode = core.SelectSubtrees
		}
		extractor := core.NewExtractor(browser, core.ExtractorOptions{
			MaxAttempts: cfg.Import.MaxAttempts,
			RetryDelay:  cfg.Import.RetryDelay,
		})
		importer := core.NewImporter(st, extractor, backend, keepAlive, core.ImporterOptions{
			ChunkSize: cfg.Import.ChunkSize,
			Mode:      mode,
		})

		// Nudge the poller whenever a new task is recorded, so it wakes up
		// from its drained state without waiting for the next import.
		newTasks := make(chan struct{}, 1)
		st.RegisterEventListener(store.OnTaskCreatedEvent, func(event store.Event) error {
			ev := event.(store.TaskCreatedEvent)
			log.Printf("New task created: %s - %s", ev.Task.TaskID, ev.Task.URL)
			select {
			case newTasks <- struct{}{}:
			default:
			}
			return nil
		})
		st.RegisterEventListener(store.OnTaskStatusChangedEvent, func(event store.Event) error {
			ev := event.(store.TaskStatusChangedEvent)
			log.Printf("Task %s moved to %s", ev.Task.TaskID, ev.Task.Status)
			return nil
		})

		poller := core.NewPoller(st, backend, cfg.Poll.Interval)
		go func() {
			ctx := context.Background()
			for {
				if err := poller.Run(ctx); err != nil {
					log.Printf("Poller stopped: %v", err)
					return
				}
				// Drained; wait for the next submitted task.
				<-newTasks
			}
		}()

		// A previous run may have been interrupted mid-import; pick it up.
		go func() {
			if err := importer.Resume(context.Background()); err != nil {
				log.Printf("Resume failed: %v", err)
			}
		}()

		addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		web.StartServer(addr, st, importer, backend, loadBookmarksFile(cfg.Import.BookmarksFile))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("db", "d", "", "Path to the SQLite database file")
	rootCmd.PersistentFlags().String("base-url", "", "Base URL of the note-creation backend")
	rootCmd.PersistentFlags().String("token", "", "Bearer token for the backend (overrides the stored token)")
	rootCmd.Flags().IntP("port", "p", 0, "Port to listen on")
	rootCmd.Flags().String("host", "", "Host to listen on")
	rootCmd.Flags().String("bookmarks", "", "Path to the exported bookmark tree JSON file")
	rootCmd.Flags().String("chrome-path", "", "Path to Chrome/Chromium executable")
	rootCmd.Flags().Bool("headful", false, "Run Chrome with a visible window (not headless)")
	rootCmd.Flags().Bool("expand-folders", false, "Treat selected folders as selecting all descendant bookmarks")
}

// loadConfig merges environment configuration with any CLI flags the user
// set explicitly. The shared flags live on the root's persistent set, which
// is only merged into a command's own set during execution, so they are read
// from there directly.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.NewConfig()

	persistent := cmd.Root().PersistentFlags()
	if v, _ := persistent.GetString("db"); v != "" {
		cfg.Database.Path = v
	}
	if v, _ := persistent.GetString("base-url"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v, _ := persistent.GetString("token"); v != "" {
		cfg.Backend.Token = v
	}
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		cfg.HTTP.Port = v
	}
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		cfg.HTTP.Host = v
	}
	if v, _ := cmd.Flags().GetString("bookmarks"); v != "" {
		cfg.Import.BookmarksFile = v
	}
	if v, _ := cmd.Flags().GetString("chrome-path"); v != "" {
		cfg.Browser.ChromePath = v
	}
	if v, _ := cmd.Flags().GetBool("headful"); v {
		cfg.Browser.Headless = false
	}
	if v, _ := cmd.Flags().GetBool("expand-folders"); v {
		cfg.Import.ExpandFolders = true
	}

	return cfg
}

func initStore(path string) (*store.Store, error) {
	st, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	if err := st.Migrate(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	return st, nil
}

// resolveToken prefers an explicitly configured token and falls back to the
// one persisted by the UI.
func resolveToken(st *store.Store, cfg *config.Config) (string, error) {
	if cfg.Backend.Token != "" {
		return cfg.Backend.Token, nil
	}
	return st.GetToken()
}

// loadBookmarksFile reads the exported bookmark tree's root children from a
// JSON file. Failures surface as run-level errors, the same way a denied
// bookmarks permission would in the extension.
func loadBookmarksFile(path string) core.TreeLoader {
	return func(ctx context.Context) ([]core.BookmarkNode, error) {
		if path == "" {
			return nil, fmt.Errorf("no bookmarks file configured")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read bookmarks file: %w", err)
		}
		var roots []core.BookmarkNode
		if err := json.Unmarshal(data, &roots); err != nil {
			return nil, fmt.Errorf("failed to parse bookmarks file: %w", err)
		}
		return roots, nil
	}
}
