package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"path"
	"strings"
	"sync/atomic"

	"github.com/super2brain/importd/internal/core/store"
)

// ErrImportInProgress is returned when a run is triggered while another run
// is still active. Triggers are rejected outright rather than queued.
var ErrImportInProgress = errors.New("import already in progress")

// PageExtractor produces readable markdown for a URL. Extractor is the real
// implementation.
type PageExtractor interface {
	Extract(ctx context.Context, url string) (ExtractedPage, error)
}

// NoteSubmitter creates remote note tasks. BackendClient is the real
// implementation.
type NoteSubmitter interface {
	CreateNote(ctx context.Context, sub NoteSubmission) (TaskHandle, error)
}

// TreeLoader fetches the bookmark tree's root children. A failing loader
// models the bookmarks permission being denied: the run records hasError and
// stops before processing anything.
type TreeLoader func(ctx context.Context) ([]BookmarkNode, error)

// ImporterOptions tunes one Importer.
type ImporterOptions struct {
	// ChunkSize bounds bookmarks per progress checkpoint. <= 0 means
	// DefaultChunkSize.
	ChunkSize int
	// Mode selects how folder selections are expanded.
	Mode FlattenMode
}

// Importer drives the import pipeline: flatten, chunk, extract, submit,
// checkpoint. URLs are processed strictly one at a time; each extraction
// opens a real browser tab, so throughput is traded for resource containment.
type Importer struct {
	store     *store.Store
	extractor PageExtractor
	submitter NoteSubmitter
	keepAlive *KeepAlive
	opts      ImporterOptions

	running atomic.Bool
}

func NewImporter(st *store.Store, extractor PageExtractor, submitter NoteSubmitter, keepAlive *KeepAlive, opts ImporterOptions) *Importer {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return &Importer{
		store:     st,
		extractor: extractor,
		submitter: submitter,
		keepAlive: keepAlive,
		opts:      opts,
	}
}

// Run executes one full import of the user's selection. A second trigger
// while a run is active fails with ErrImportInProgress. isProcessing is
// cleared on every exit path, so a failed run can never leave the UI stuck
// in "processing".
func (imp *Importer) Run(ctx context.Context, load TreeLoader, sel Selection) error {
	if !imp.running.CompareAndSwap(false, true) {
		return ErrImportInProgress
	}
	defer imp.running.Store(false)
	defer func() {
		if err := imp.store.SetProcessing(false); err != nil {
			log.Printf("Failed to clear processing flag: %v", err)
		}
	}()

	// Reset all counters for the new run before any work happens. A stale
	// checkpoint from an earlier interrupted run is superseded by this run,
	// so drop it; otherwise a later startup would resurrect it.
	state := store.RunState{IsProcessing: true}
	if err := imp.store.SaveRunState(state); err != nil {
		return err
	}
	if err := imp.store.SaveRemainingChunks(nil); err != nil {
		return err
	}

	roots, err := load(ctx)
	if err != nil {
		if saveErr := imp.store.SetHasError(true); saveErr != nil {
			log.Printf("Failed to record run error: %v", saveErr)
		}
		return fmt.Errorf("failed to load bookmark tree: %w", err)
	}

	flat := FlattenBookmarks(roots, sel, imp.opts.Mode)
	state.TotalBookmarks = len(flat)
	if err := imp.store.SaveRunState(state); err != nil {
		return err
	}
	if len(flat) == 0 {
		log.Println("No bookmarks selected, nothing to import.")
		state.Progress = 100
		return imp.store.SaveRunState(state)
	}

	chunks := ChunkBookmarks(flat, imp.opts.ChunkSize)
	if err := imp.store.SaveRemainingChunks(chunks); err != nil {
		if saveErr := imp.store.SetHasError(true); saveErr != nil {
			log.Printf("Failed to record run error: %v", saveErr)
		}
		return err
	}
	if err := imp.store.SaveTotalChunks(len(chunks)); err != nil {
		return err
	}

	imp.keepAlive.Acquire()
	defer imp.keepAlive.Release()

	log.Printf("Importing %d bookmark(s) in %d chunk(s)...", len(flat), len(chunks))
	return imp.processChunks(ctx, chunks, &state, len(chunks), 0)
}

// Resume continues an interrupted run from the persisted remaining chunks.
// Counters are not reset: they still reflect the URLs finished before the
// interruption, so the drained-run invariant
// successCount+failedCount == totalBookmarks holds across restarts.
func (imp *Importer) Resume(ctx context.Context) error {
	if !imp.running.CompareAndSwap(false, true) {
		return ErrImportInProgress
	}
	defer imp.running.Store(false)

	chunks, err := imp.store.LoadRemainingChunks()
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	defer func() {
		if err := imp.store.SetProcessing(false); err != nil {
			log.Printf("Failed to clear processing flag: %v", err)
		}
	}()

	state, err := imp.store.LoadRunState()
	if err != nil {
		return err
	}
	state.IsProcessing = true
	state.HasError = false
	if err := imp.store.SaveRunState(state); err != nil {
		return err
	}

	// The interrupted run recorded its own chunk total; our configured chunk
	// size may differ, so never re-derive the total from it.
	totalChunks, err := imp.store.LoadTotalChunks()
	if err != nil {
		return err
	}
	if totalChunks < len(chunks) {
		totalChunks = len(chunks)
	}
	completed := totalChunks - len(chunks)

	imp.keepAlive.Acquire()
	defer imp.keepAlive.Release()

	log.Printf("Resuming import: %d of %d chunk(s) remaining", len(chunks), totalChunks)
	return imp.processChunks(ctx, chunks, &state, totalChunks, completed)
}

// Running reports whether a run is currently active.
func (imp *Importer) Running() bool {
	return imp.running.Load()
}

// processChunks drives the sequential per-URL pipeline. completedChunks is
// how many chunks a previous run already finished, so resumed runs report
// progress against the original total.
func (imp *Importer) processChunks(ctx context.Context, chunks [][]store.FlatBookmark, state *store.RunState, totalChunks, completedChunks int) error {
	for i, chunk := range chunks {
		for _, bm := range chunk {
			if err := ctx.Err(); err != nil {
				return err
			}
			imp.processBookmark(ctx, bm, state)
		}

		done := completedChunks + i + 1
		state.Progress = int(math.Ceil(float64(done) / float64(totalChunks) * 100))
		if err := imp.store.SaveRunState(*state); err != nil {
			return err
		}
		// Commit "this chunk is done" before the next chunk starts, so a
		// restart resumes at the first unfinished chunk.
		if err := imp.store.SaveRemainingChunks(chunks[i+1:]); err != nil {
			return err
		}
	}

	log.Printf("Import finished: %d succeeded, %d failed", state.SuccessCount, state.FailedCount)
	return nil
}

// processBookmark handles one URL. Failures are converted into counter
// increments and never abort the run.
func (imp *Importer) processBookmark(ctx context.Context, bm store.FlatBookmark, state *store.RunState) {
	sub := NoteSubmission{URL: bm.URL, Title: bm.Title}

	if isPDFURL(bm.URL) {
		// PDFs are submitted as document references, no tab extraction.
		sub.IsPDF = true
		sub.FileName = path.Base(bm.URL)
	} else {
		page, err := imp.extractor.Extract(ctx, bm.URL)
		if err != nil {
			log.Printf("Extraction failed for %s: %v", bm.URL, err)
			imp.recordFailure(state)
			return
		}
		sub.Markdown = page.Markdown
		if page.Title != "" {
			sub.Title = page.Title
		}
	}

	handle, err := imp.submitter.CreateNote(ctx, sub)
	if err != nil {
		log.Printf("Submission failed for %s: %v", bm.URL, err)
		imp.recordFailure(state)
		return
	}

	task := store.Task{
		TaskID: handle.TaskID,
		URL:    bm.URL,
		Title:  sub.Title,
		Status: handle.Status,
	}
	if err := imp.store.InsertTask(task); err != nil {
		log.Printf("Failed to record task for %s: %v", bm.URL, err)
	}

	state.SuccessCount++
	if err := imp.store.SaveRunState(*state); err != nil {
		log.Printf("Failed to persist success count: %v", err)
	}
}

func (imp *Importer) recordFailure(state *store.RunState) {
	state.FailedCount++
	if err := imp.store.SaveRunState(*state); err != nil {
		log.Printf("Failed to persist failure count: %v", err)
	}
}

func isPDFURL(rawURL string) bool {
	trimmed := rawURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return strings.HasSuffix(strings.ToLower(trimmed), ".pdf")
}
