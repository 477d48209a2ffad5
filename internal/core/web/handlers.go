package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/super2brain/importd/internal/core"
	"github.com/super2brain/importd/internal/core/store"
)

// message mirrors the browser extension's message-passing contract.
type message struct {
	Action string         `json:"action"`
	Items  core.Selection `json:"items"`
	Data   sendURLData    `json:"data"`
}

type sendURLData struct {
	URL      string `json:"url"`
	Token    string `json:"token"`
	Markdown string `json:"markdown"`
	Title    string `json:"title"`
}

// writeJSON serializes a response body with the standard JSON content-type
// header. If encoding fails, it logs the error; headers are already sent at
// that point.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// requireMethod checks if the request method matches the expected method.
// Returns true if the method matches, false otherwise (and sends 405 response).
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (ws *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var msg message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid message body"})
		return
	}

	switch msg.Action {
	case "processBookmarks":
		ws.processBookmarks(w, msg)
	case "sendURL":
		ws.sendURL(r.Context(), w, msg.Data)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown action: " + msg.Action})
	}
}

// processBookmarks acks immediately and runs the import in the background;
// the UI learns the outcome by polling /api/progress.
func (ws *Server) processBookmarks(w http.ResponseWriter, msg message) {
	if ws.importer.Running() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "import already in progress"})
		return
	}

	go func() {
		if err := ws.importer.Run(context.Background(), ws.loadTree, msg.Items); err != nil {
			if errors.Is(err, core.ErrImportInProgress) {
				log.Printf("Import trigger rejected: %v", err)
				return
			}
			log.Printf("Import run failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusOK, map[string]string{"status": "processing"})
}

// sendURL is the single-URL submission path outside the batch flow. The
// caller supplies already-extracted markdown; we only forward it. The token
// is persisted before submitting, so a backend client with a store-backed
// token source authorizes this very request with it.
func (ws *Server) sendURL(ctx context.Context, w http.ResponseWriter, data sendURLData) {
	if data.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "missing url"})
		return
	}

	if data.Token != "" {
		if err := ws.store.SetToken(data.Token); err != nil {
			log.Printf("Failed to persist token: %v", err)
		}
	}

	handle, err := ws.backend.CreateNote(ctx, core.NoteSubmission{
		URL:      data.URL,
		Title:    data.Title,
		Markdown: data.Markdown,
	})
	if err != nil {
		log.Printf("Single-URL submission failed for %s: %v", data.URL, err)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": false})
		return
	}

	task := store.Task{
		TaskID: handle.TaskID,
		URL:    data.URL,
		Title:  data.Title,
		Status: handle.Status,
	}
	if err := ws.store.InsertTask(task); err != nil {
		log.Printf("Failed to record task for %s: %v", data.URL, err)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (ws *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	state, err := ws.store.LoadRunState()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Printf("Failed to load run state: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (ws *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	tasks, err := ws.store.ListTasks(limit)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Printf("Failed to list tasks: %v", err)
		return
	}
	if tasks == nil {
		tasks = []store.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}
