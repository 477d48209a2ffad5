package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/super2brain/importd/internal/core/store"
)

// TaskHandle is the backend's acknowledgement of a submitted note.
type TaskHandle struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

type taskResponse struct {
	Data TaskHandle `json:"data"`
}

// NoteSubmission is one page (or PDF reference) to be turned into a note by
// the backend.
type NoteSubmission struct {
	URL      string
	Title    string
	Markdown string
	IsPDF    bool
	FileName string
}

// BackendClient talks to the remote note-creation backend with bearer-token
// auth. It does not retry: submission failures are counted per-URL by the
// orchestrator, not retried.
type BackendClient struct {
	baseURL    string
	token      func() string
	httpClient *http.Client
}

func NewBackendClient(baseURL, token string) *BackendClient {
	return NewBackendClientWithTokenSource(baseURL, func() string { return token })
}

// NewBackendClientWithTokenSource builds a client that resolves the bearer
// token on every request. The daemon uses this with a store-backed source, so
// a token handed over by the UI mid-session authorizes the very request it
// arrived with instead of waiting for a restart.
func NewBackendClientWithTokenSource(baseURL string, token func() string) *BackendClient {
	return &BackendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultRequestTimeout},
	}
}

// CreateNote submits extracted page content (or a PDF reference) and returns
// the backend's task handle. PDF sources go to the doc-note endpoint, page
// content to the content-note endpoint.
func (c *BackendClient) CreateNote(ctx context.Context, sub NoteSubmission) (TaskHandle, error) {
	endpoint := c.baseURL + "/common/tasks/content-note"
	body := map[string]string{
		"url":     sub.URL,
		"content": sub.Markdown,
		"title":   sub.Title,
	}
	if sub.IsPDF {
		endpoint = c.baseURL + "/common/tasks/doc-note"
		body = map[string]string{
			"url":      sub.URL,
			"title":    sub.Title,
			"fileName": sub.FileName,
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return TaskHandle{}, fmt.Errorf("failed to marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return TaskHandle{}, fmt.Errorf("failed to build submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token())
	req.Header.Set("User-Agent", UserAgent)
	// The backend treats repeated submissions of the same URL within one key
	// as the same task, so a crash-and-resume cannot create duplicate notes.
	req.Header.Set("Idempotency-Key", IdempotencyKey(sub.URL))

	handle, err := c.do(req)
	if err != nil {
		return TaskHandle{}, err
	}
	if handle.Status == "" {
		handle.Status = store.StatusPending
	}
	return handle, nil
}

// TaskStatus fetches the current status of a previously created task.
func (c *BackendClient) TaskStatus(ctx context.Context, taskID string) (TaskHandle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/common/tasks/"+taskID, nil)
	if err != nil {
		return TaskHandle{}, fmt.Errorf("failed to build status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token())
	req.Header.Set("User-Agent", UserAgent)

	return c.do(req)
}

func (c *BackendClient) do(req *http.Request) (TaskHandle, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TaskHandle{}, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body for the error message, then give up.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return TaskHandle{}, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var parsed taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return TaskHandle{}, fmt.Errorf("failed to decode backend response: %w", err)
	}
	if parsed.Data.TaskID == "" {
		return TaskHandle{}, fmt.Errorf("backend response missing task_id")
	}
	return parsed.Data, nil
}

// IdempotencyKey derives a stable submission key from a URL.
func IdempotencyKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:16])
}
