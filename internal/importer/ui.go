package importer

import (
	"context"
	"sync"
)

// Overlay is the progress surface shown while an import runs.
// Implementations must be safe for concurrent use: Cancel may update the
// overlay while the import goroutine does.
type Overlay interface {
	// ShowActivityBar shows a message with a progress indicator that has no
	// known end.
	ShowActivityBar(messageID string, indeterminate bool)
	// ShowProgressBar shows a message with a determinate bar of total steps.
	ShowProgressBar(messageID string, total int)
	// UpdateProgressBar advances the bar by one step.
	UpdateProgressBar()
	// Hide removes the overlay.
	Hide()
}

// StatusNotifier shows a transient status message.
type StatusNotifier interface {
	ShowStatus(primary Message, secondary *Message)
}

// Choice is the user's answer to the retry dialog.
type Choice int

const (
	ChoiceCancel Choice = iota
	ChoiceRetry
)

// Dialog asks the user whether to retry a failed import. attempt counts
// failed attempts so far, starting at 1.
type Dialog interface {
	Confirm(ctx context.Context, messageID string, attempt int) Choice
}

// RetryDialog answers retry for the first Max failures and cancel after.
// It is used where no user is present to answer.
type RetryDialog struct {
	Max int
}

func (d RetryDialog) Confirm(_ context.Context, _ string, attempt int) Choice {
	if attempt <= d.Max {
		return ChoiceRetry
	}
	return ChoiceCancel
}

type nopOverlay struct{}

func (nopOverlay) ShowActivityBar(string, bool) {}
func (nopOverlay) ShowProgressBar(string, int)  {}
func (nopOverlay) UpdateProgressBar()           {}
func (nopOverlay) Hide()                        {}

type nopNotifier struct{}

func (nopNotifier) ShowStatus(Message, *Message) {}

// Progress is a point-in-time copy of what a Tracker displays.
type Progress struct {
	Visible       bool   `json:"visible"`
	MessageID     string `json:"message_id,omitempty"`
	Message       string `json:"message,omitempty"`
	Indeterminate bool   `json:"indeterminate"`
	Total         int    `json:"total"`
	Done          int    `json:"done"`
	Status        string `json:"status,omitempty"`
	StatusDetail  string `json:"status_detail,omitempty"`
}

// Tracker is an Overlay and StatusNotifier that records state instead of
// drawing it, for clients that poll.
type Tracker struct {
	renderer *Renderer

	mu       sync.Mutex
	progress Progress
}

// NewTracker creates a Tracker rendering messages with r.
func NewTracker(r *Renderer) *Tracker {
	return &Tracker{renderer: r}
}

func (t *Tracker) ShowActivityBar(messageID string, indeterminate bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress.Visible = true
	t.progress.MessageID = messageID
	t.progress.Message = t.renderer.Render(Message{ID: messageID})
	t.progress.Indeterminate = indeterminate
}

func (t *Tracker) ShowProgressBar(messageID string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress.Visible = true
	t.progress.MessageID = messageID
	t.progress.Message = t.renderer.Render(Message{ID: messageID})
	t.progress.Indeterminate = false
	t.progress.Total = total
	t.progress.Done = 0
}

func (t *Tracker) UpdateProgressBar() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.progress.Done < t.progress.Total {
		t.progress.Done++
	}
}

func (t *Tracker) Hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress.Visible = false
}

func (t *Tracker) ShowStatus(primary Message, secondary *Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress.Status = t.renderer.Render(primary)
	t.progress.StatusDetail = ""
	if secondary != nil {
		t.progress.StatusDetail = t.renderer.Render(*secondary)
	}
}

// Reset clears everything recorded so far.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = Progress{}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}
