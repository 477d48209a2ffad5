package core

import (
	"reflect"
	"testing"

	"github.com/super2brain/importd/internal/core/store"
)

// TestChunkBookmarks tests batch chunking.
func TestChunkBookmarks(t *testing.T) {
	items := func(n int) []store.FlatBookmark {
		out := make([]store.FlatBookmark, n)
		for i := range out {
			out[i] = store.FlatBookmark{URL: "https://example.com", Title: "x"}
		}
		return out
	}

	t.Run("12 items at size 5 yields 5,5,2", func(t *testing.T) {
		chunks := ChunkBookmarks(items(12), 5)
		if len(chunks) != 3 {
			t.Fatalf("expected 3 chunks, got %d", len(chunks))
		}
		if len(chunks[0]) != 5 || len(chunks[1]) != 5 || len(chunks[2]) != 2 {
			t.Errorf("expected shape [5 5 2], got [%d %d %d]", len(chunks[0]), len(chunks[1]), len(chunks[2]))
		}
	})

	t.Run("concatenating chunks reconstructs the input", func(t *testing.T) {
		in := []store.FlatBookmark{
			{URL: "https://a.com"}, {URL: "https://b.com"}, {URL: "https://c.com"},
			{URL: "https://d.com"}, {URL: "https://e.com"},
		}
		chunks := ChunkBookmarks(in, 2)

		var flat []store.FlatBookmark
		for _, c := range chunks {
			flat = append(flat, c...)
		}
		if !reflect.DeepEqual(flat, in) {
			t.Errorf("expected %v, got %v", in, flat)
		}
	})

	t.Run("empty input yields no chunks", func(t *testing.T) {
		if chunks := ChunkBookmarks(nil, 5); len(chunks) != 0 {
			t.Errorf("expected no chunks, got %v", chunks)
		}
	})

	t.Run("non-positive size falls back to default", func(t *testing.T) {
		chunks := ChunkBookmarks(items(7), 0)
		if len(chunks) != 2 {
			t.Fatalf("expected 2 chunks with default size, got %d", len(chunks))
		}
		if len(chunks[0]) != DefaultChunkSize {
			t.Errorf("expected first chunk of %d, got %d", DefaultChunkSize, len(chunks[0]))
		}
	})
}
