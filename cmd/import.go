/*
Copyright © 2026 Super2Brain
*/

// The import command runs one batch import from the command line, without the
// daemon's message API.
//
// Example usage:
//
//	importd import --bookmarks=bookmarks.json --urls=12,37,41
//	importd import --bookmarks=bookmarks.json --folders=3 --expand-folders
//	importd import --bookmarks=bookmarks.json --all
package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/super2brain/importd/internal/core"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import selected bookmarks into the note backend",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runImport(cmd); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
	},
}

func runImport(cmd *cobra.Command) error {
	cfg := loadConfig(cmd)

	st, err := initStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	folders, err := cmd.Flags().GetStringSlice("folders")
	if err != nil {
		return fmt.Errorf("failed to read --folders: %w", err)
	}
	urls, err := cmd.Flags().GetStringSlice("urls")
	if err != nil {
		return fmt.Errorf("failed to read --urls: %w", err)
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to read --all: %w", err)
	}
	chunkSize, err := cmd.Flags().GetInt("chunk-size")
	if err != nil {
		return fmt.Errorf("failed to read --chunk-size: %w", err)
	}
	if chunkSize > 0 {
		cfg.Import.ChunkSize = chunkSize
	}

	loadTree := loadBookmarksFile(cfg.Import.BookmarksFile)
	sel := core.Selection{Folders: folders, Bookmarks: urls}
	mode := core.SelectExplicit
	if cfg.Import.ExpandFolders {
		mode = core.SelectSubtrees
	}

	if all {
		roots, err := loadTree(cmd.Context())
		if err != nil {
			return err
		}
		sel = core.Selection{Bookmarks: collectLeafIDs(roots)}
	} else if len(folders) == 0 && len(urls) == 0 {
		return fmt.Errorf("nothing selected: pass --folders, --urls, or --all")
	}

	token, err := resolveToken(st, cfg)
	if err != nil {
		return err
	}
	backend := core.NewBackendClient(cfg.Backend.BaseURL, token)

	browser, err := core.NewBrowser(context.Background(), core.BrowserOptions{
		ChromePath: cfg.Browser.ChromePath,
		Headless:   cfg.Browser.Headless,
		Timeout:    cfg.Browser.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer browser.Close()

	keepAlive := core.NewKeepAlive(cfg.Import.KeepAliveEvery, func() {
		if err := st.Ping(); err != nil {
			log.Printf("Keep-alive ping failed: %v", err)
		}
	})
	extractor := core.NewExtractor(browser, core.ExtractorOptions{
		MaxAttempts: cfg.Import.MaxAttempts,
		RetryDelay:  cfg.Import.RetryDelay,
	})
	importer := core.NewImporter(st, extractor, backend, keepAlive, core.ImporterOptions{
		ChunkSize: cfg.Import.ChunkSize,
		Mode:      mode,
	})

	if err := importer.Run(cmd.Context(), loadTree, sel); err != nil {
		return err
	}

	state, err := st.LoadRunState()
	if err != nil {
		return err
	}
	log.Printf("Imported %d bookmark(s): %d succeeded, %d failed", state.TotalBookmarks, state.SuccessCount, state.FailedCount)
	return nil
}

// collectLeafIDs walks the tree and returns every bookmark leaf id.
func collectLeafIDs(nodes []core.BookmarkNode) []string {
	var ids []string
	for _, node := range nodes {
		if len(node.Children) > 0 {
			ids = append(ids, collectLeafIDs(node.Children)...)
			continue
		}
		if node.URL != "" {
			ids = append(ids, node.ID)
		}
	}
	return ids
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("bookmarks", "", "Path to the exported bookmark tree JSON file")
	importCmd.Flags().StringSlice("folders", nil, "Selected folder node ids")
	importCmd.Flags().StringSlice("urls", nil, "Selected bookmark node ids")
	importCmd.Flags().Bool("all", false, "Import every bookmark in the tree")
	importCmd.Flags().Int("chunk-size", 0, "Bookmarks per progress checkpoint (0 = default)")
	importCmd.Flags().String("chrome-path", "", "Path to Chrome/Chromium executable")
	importCmd.Flags().Bool("headful", false, "Run Chrome with a visible window (not headless)")
	importCmd.Flags().Bool("expand-folders", false, "Treat selected folders as selecting all descendant bookmarks")
}
