package web

import (
	"log"
	"net/http"

	"github.com/super2brain/importd/internal/core"
	"github.com/super2brain/importd/internal/core/store"
)

// Server exposes the import pipeline to a local UI. The UI triggers work
// through the message endpoint and observes progress by polling the progress
// and task endpoints; there is no push channel beyond the one-shot acks.
type Server struct {
	store    *store.Store
	importer *core.Importer
	backend  core.NoteSubmitter
	loadTree core.TreeLoader
}

func StartServer(addr string, st *store.Store, importer *core.Importer, backend core.NoteSubmitter, loadTree core.TreeLoader) {
	ws := newServer(st, importer, backend, loadTree)

	mux := http.NewServeMux()
	ws.registerRoutes(mux)

	log.Printf("Starting web server at %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Web server failed: %v", err)
	}
}

func newServer(st *store.Store, importer *core.Importer, backend core.NoteSubmitter, loadTree core.TreeLoader) *Server {
	return &Server{
		store:    st,
		importer: importer,
		backend:  backend,
		loadTree: loadTree,
	}
}

func (ws *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/messages", ws.handleMessage)
	mux.HandleFunc("/api/progress", ws.handleProgress)
	mux.HandleFunc("/api/tasks", ws.handleTasks)
}
