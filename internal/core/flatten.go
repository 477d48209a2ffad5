package core

import (
	"github.com/super2brain/importd/internal/core/store"
)

// BookmarkNode is one node of the browser's bookmark tree. Nodes with
// Children are folders; nodes with a URL are bookmarks.
type BookmarkNode struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	URL      string         `json:"url,omitempty"`
	Children []BookmarkNode `json:"children,omitempty"`
}

// Selection is the set of node ids the user picked in the UI.
type Selection struct {
	Folders   []string `json:"folders"`
	Bookmarks []string `json:"bookmarks"`
}

// FlattenMode controls how folder selections are interpreted. The UI is
// expected to pre-expand folder selections into individual bookmark ids, but
// that contract is not nailed down, so both readings are supported.
type FlattenMode int

const (
	// SelectExplicit emits only leaves whose ids appear in the selection.
	SelectExplicit FlattenMode = iota
	// SelectSubtrees additionally emits every leaf under a selected folder.
	SelectSubtrees
)

// FlattenBookmarks walks the bookmark tree depth-first, left to right, and
// returns the selected leaves as FlatBookmark records. The first tree level
// is organizational: its folder titles never contribute to Tag. Duplicate
// node ids are emitted once.
func FlattenBookmarks(roots []BookmarkNode, sel Selection, mode FlattenMode) []store.FlatBookmark {
	selected := make(map[string]struct{}, len(sel.Folders)+len(sel.Bookmarks))
	for _, id := range sel.Folders {
		selected[id] = struct{}{}
	}
	for _, id := range sel.Bookmarks {
		selected[id] = struct{}{}
	}

	f := &flattener{mode: mode, selected: selected, seen: make(map[string]struct{})}
	f.walk(roots, "", true, false)
	return f.out
}

type flattener struct {
	mode     FlattenMode
	selected map[string]struct{}
	seen     map[string]struct{}
	out      []store.FlatBookmark
}

func (f *flattener) walk(nodes []BookmarkNode, tag string, firstLevel bool, inSelectedFolder bool) {
	for _, node := range nodes {
		_, isSelected := f.selected[node.ID]

		if len(node.Children) > 0 {
			childTag := tag
			if !firstLevel {
				if childTag == "" {
					childTag = node.Title
				} else {
					childTag = childTag + "/" + node.Title
				}
			}
			childInSelected := inSelectedFolder || (f.mode == SelectSubtrees && isSelected)
			f.walk(node.Children, childTag, false, childInSelected)
			continue
		}

		if node.URL == "" {
			// Empty folder, contributes nothing.
			continue
		}
		if !isSelected && !inSelectedFolder {
			continue
		}
		if _, dup := f.seen[node.ID]; dup {
			continue
		}
		f.seen[node.ID] = struct{}{}
		f.out = append(f.out, store.FlatBookmark{
			URL:   node.URL,
			Title: node.Title,
			Tag:   tag,
		})
	}
}
