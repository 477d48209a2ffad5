/*
Copyright © 2026 Super2Brain
*/
package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/super2brain/importd/internal/core"
)

// resumeCmd continues an import run that was interrupted before all chunks
// finished. Completed chunks are never reprocessed.
var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume an interrupted import run",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runResume(cmd); err != nil {
			log.Fatalf("Resume failed: %v", err)
		}
	},
}

func runResume(cmd *cobra.Command) error {
	cfg := loadConfig(cmd)

	st, err := initStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	chunks, err := st.LoadRemainingChunks()
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		log.Println("Nothing to resume.")
		return nil
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
	})

	if err := importer.Resume(cmd.Context()); err != nil {
		return err
	}

	state, err := st.LoadRunState()
	if err != nil {
		return err
	}
	log.Printf("Resume finished: %d succeeded, %d failed of %d", state.SuccessCount, state.FailedCount, state.TotalBookmarks)
	return nil
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().String("chrome-path", "", "Path to Chrome/Chromium executable")
	resumeCmd.Flags().Bool("headful", false, "Run Chrome with a visible window (not headless)")
}
