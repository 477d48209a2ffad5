package store

// Task statuses mirrored from the remote note-creation backend. Anything that
// is not SUCCESS or FAILURE counts as pending and keeps the task eligible for
// polling.
const (
	StatusPending = "PENDING"
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

// IsTerminalStatus reports whether a task status will never change again.
func IsTerminalStatus(status string) bool {
	return status == StatusSuccess || status == StatusFailure
}

// FlatBookmark is one importable leaf produced by flattening the bookmark
// tree. Tag is the /-joined path of ancestor folder titles, with the first
// tree level skipped.
type FlatBookmark struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Tag   string `json:"tag"`
}

// Task is the durable record of one URL submitted to the backend. TaskID is
// unique; CreatedAt is stored as RFC3339 text.
type Task struct {
	TaskID    string `json:"taskId"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// RunState holds every progress counter for one import run. It is persisted
// as a unit inside a single transaction so the UI never observes a torn
// update across counters.
type RunState struct {
	SuccessCount   int  `json:"successCount"`
	FailedCount    int  `json:"failedCount"`
	Progress       int  `json:"progress"`
	TotalBookmarks int  `json:"totalBookmarks"`
	IsProcessing   bool `json:"isProcessing"`
	HasError       bool `json:"hasError"`
}
