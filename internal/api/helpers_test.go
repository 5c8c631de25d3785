package api

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/handset/internal/importer"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeImporter blocks every import until released or cancelled.
type fakeImporter struct {
	summary importer.Summary
	err     error

	release     chan struct{}
	releaseOnce sync.Once
	cancelled   atomic.Bool

	mu    sync.Mutex
	calls []string
}

func newFakeImporter() *fakeImporter {
	return &fakeImporter{release: make(chan struct{})}
}

// releasedImporter returns immediately from every import.
func releasedImporter() *fakeImporter {
	f := newFakeImporter()
	f.Release()
	return f
}

func (f *fakeImporter) Release() {
	f.releaseOnce.Do(func() { close(f.release) })
}

func (f *fakeImporter) run(ctx context.Context, call string) (importer.Summary, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	select {
	case <-f.release:
	case <-ctx.Done():
		return importer.Summary{}, ctx.Err()
	}
	if f.cancelled.Load() {
		return importer.Summary{Cancelled: true}, nil
	}
	return f.summary, f.err
}

func (f *fakeImporter) ImportFromSIM(ctx context.Context, iccID string) (importer.Summary, error) {
	return f.run(ctx, "sim:"+iccID)
}

func (f *fakeImporter) ImportFromSDCard(ctx context.Context) (importer.Summary, error) {
	return f.run(ctx, "sd")
}

func (f *fakeImporter) ImportVCard(ctx context.Context, text string) (importer.Summary, error) {
	return f.run(ctx, "vcard:"+text)
}

func (f *fakeImporter) Cancel() bool {
	if f.cancelled.Swap(true) {
		return false
	}
	f.Release()
	return true
}

func (f *fakeImporter) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// steppingClock advances one second per call.
func steppingClock() func() time.Time {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var n atomic.Int64
	return func() time.Time {
		return base.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

func newTestRegistry(t *testing.T, imp Importer, tracker ProgressTracker) *JobRegistry {
	t.Helper()
	r := NewJobRegistry(context.Background(), imp, tracker, discardLogger())
	r.now = steppingClock()
	t.Cleanup(r.Wait)
	return r
}

func waitForState(t *testing.T, job *Job, want JobState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for job.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("job %s stayed %s, want %s", job.ID, job.State(), want)
		}
		time.Sleep(time.Millisecond)
	}
}
