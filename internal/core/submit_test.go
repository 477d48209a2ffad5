package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/super2brain/importd/internal/core/store"
)

// TestCreateNote tests page and PDF submissions.
func TestCreateNote(t *testing.T) {
	t.Run("posts page content to the content-note endpoint", func(t *testing.T) {
		var gotPath, gotAuth, gotKey string
		var gotBody map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			gotKey = r.Header.Get("Idempotency-Key")
			if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
				t.Errorf("failed to decode request body: %v", err)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]string{"task_id": "t-42", "status": "PROCESSING"},
			})
		}))
		defer srv.Close()

		c := NewBackendClient(srv.URL, "secret")
		handle, err := c.CreateNote(context.Background(), NoteSubmission{
			URL:      "https://go.dev/blog",
			Title:    "Go Blog",
			Markdown: "# Go Blog",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if gotPath != "/common/tasks/content-note" {
			t.Errorf("expected content-note path, got %q", gotPath)
		}
		if gotAuth != "Bearer secret" {
			t.Errorf("expected bearer auth, got %q", gotAuth)
		}
		if gotKey != IdempotencyKey("https://go.dev/blog") {
			t.Errorf("expected stable idempotency key, got %q", gotKey)
		}
		if gotBody["content"] != "# Go Blog" || gotBody["title"] != "Go Blog" {
			t.Errorf("unexpected body %v", gotBody)
		}
		if handle.TaskID != "t-42" || handle.Status != "PROCESSING" {
			t.Errorf("unexpected handle %+v", handle)
		}
	})

	t.Run("posts PDF references to the doc-note endpoint", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
				t.Errorf("failed to decode request body: %v", err)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]string{"task_id": "t-7"},
			})
		}))
		defer srv.Close()

		c := NewBackendClient(srv.URL, "secret")
		handle, err := c.CreateNote(context.Background(), NoteSubmission{
			URL:      "https://raft.github.io/raft.pdf",
			Title:    "Raft",
			IsPDF:    true,
			FileName: "raft.pdf",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if gotPath != "/common/tasks/doc-note" {
			t.Errorf("expected doc-note path, got %q", gotPath)
		}
		if gotBody["fileName"] != "raft.pdf" {
			t.Errorf("expected fileName in body, got %v", gotBody)
		}
		if _, ok := gotBody["content"]; ok {
			t.Error("expected no content field for PDF submissions")
		}
		if handle.Status != store.StatusPending {
			t.Errorf("expected default PENDING status, got %q", handle.Status)
		}
	})

	t.Run("token source is resolved per request", func(t *testing.T) {
		var gotAuth []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = append(gotAuth, r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]string{"task_id": "t-1"},
			})
		}))
		defer srv.Close()

		token := "first"
		c := NewBackendClientWithTokenSource(srv.URL, func() string { return token })

		if _, err := c.CreateNote(context.Background(), NoteSubmission{URL: "https://a.com"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		token = "second"
		if _, err := c.CreateNote(context.Background(), NoteSubmission{URL: "https://a.com"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []string{"Bearer first", "Bearer second"}
		if len(gotAuth) != 2 || gotAuth[0] != want[0] || gotAuth[1] != want[1] {
			t.Errorf("expected %v, got %v", want, gotAuth)
		}
	})

	t.Run("non-2xx response is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewBackendClient(srv.URL, "secret")
		if _, err := c.CreateNote(context.Background(), NoteSubmission{URL: "https://a.com"}); err == nil {
			t.Error("expected error for HTTP 500, got nil")
		}
	})

	t.Run("missing task_id is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{}})
		}))
		defer srv.Close()

		c := NewBackendClient(srv.URL, "secret")
		if _, err := c.CreateNote(context.Background(), NoteSubmission{URL: "https://a.com"}); err == nil {
			t.Error("expected error for missing task_id, got nil")
		}
	})
}

// TestTaskStatus tests status polling requests.
func TestTaskStatus(t *testing.T) {
	t.Run("fetches task status", func(t *testing.T) {
		var gotPath, gotMethod string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotMethod = r.Method
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]string{"task_id": "t-42", "status": store.StatusSuccess},
			})
		}))
		defer srv.Close()

		c := NewBackendClient(srv.URL, "secret")
		handle, err := c.TaskStatus(context.Background(), "t-42")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotMethod != http.MethodGet || gotPath != "/common/tasks/t-42" {
			t.Errorf("expected GET /common/tasks/t-42, got %s %s", gotMethod, gotPath)
		}
		if handle.Status != store.StatusSuccess {
			t.Errorf("expected SUCCESS, got %q", handle.Status)
		}
	})

	t.Run("network failure is an error", func(t *testing.T) {
		c := NewBackendClient("http://127.0.0.1:1", "secret")
		if _, err := c.TaskStatus(context.Background(), "t-1"); err == nil {
			t.Error("expected error for unreachable backend, got nil")
		}
	})
}

// TestIdempotencyKey tests submission key derivation.
func TestIdempotencyKey(t *testing.T) {
	a := IdempotencyKey("https://a.com")
	b := IdempotencyKey("https://b.com")
	if a == b {
		t.Error("expected distinct keys for distinct URLs")
	}
	if a != IdempotencyKey("https://a.com") {
		t.Error("expected stable key for the same URL")
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}
}
