package core

import (
	"github.com/samber/lo"

	"github.com/super2brain/importd/internal/core/store"
)

// ChunkBookmarks splits the flattened list into fixed-size chunks, preserving
// order. The last chunk may be shorter. Chunks exist to create progress
// checkpoints, not for concurrency.
func ChunkBookmarks(items []store.FlatBookmark, size int) [][]store.FlatBookmark {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(items) == 0 {
		return nil
	}
	return lo.Chunk(items, size)
}
