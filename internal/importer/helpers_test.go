package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/phrazzld/handset/internal/contacts"
	"github.com/phrazzld/handset/internal/device"
	"github.com/phrazzld/handset/internal/ril"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource returns fixed items, or delegates to ReadFn when set.
type fakeSource struct {
	name   string
	items  []contacts.Contact
	err    error
	ReadFn func(ctx context.Context) ([]contacts.Contact, error)
}

func (s *fakeSource) Name() string {
	if s.name == "" {
		return "fake"
	}
	return s.name
}

func (s *fakeSource) Read(ctx context.Context) ([]contacts.Contact, error) {
	if s.ReadFn != nil {
		return s.ReadFn(ctx)
	}
	return s.items, s.err
}

// fakeMerger imports everything as new unless ImportFn is set.
type fakeMerger struct {
	ImportFn func(ctx context.Context, c contacts.Contact) (contacts.ImportResult, error)
}

func (m *fakeMerger) Import(ctx context.Context, c contacts.Contact) (contacts.ImportResult, error) {
	if m.ImportFn != nil {
		return m.ImportFn(ctx, c)
	}
	c.ID = uuid.New()
	return contacts.ImportResult{Contact: c}, nil
}

func named(names ...string) []contacts.Contact {
	out := make([]contacts.Contact, 0, len(names))
	for _, n := range names {
		out = append(out, contacts.Contact{Name: n})
	}
	return out
}

// trace renders events compactly for order assertions.
func trace(evs []Event) []string {
	out := make([]string, 0, len(evs))
	for _, e := range evs {
		switch e.Kind {
		case EventRead:
			out = append(out, fmt.Sprintf("read(%d)", e.Total))
		case EventImported:
			out = append(out, "imported("+e.Contact.Name+")")
		case EventFinished:
			out = append(out, "finished")
		case EventFailed:
			out = append(out, "failed")
		}
	}
	return out
}

func collect(ctx context.Context, p *Pipeline) []Event {
	var evs []Event
	for e := range p.Events(ctx) {
		evs = append(evs, e)
	}
	return evs
}

// recordingOverlay logs every overlay call.
type recordingOverlay struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingOverlay) add(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, s)
}

func (o *recordingOverlay) ShowActivityBar(id string, _ bool) { o.add("activity:" + id) }
func (o *recordingOverlay) ShowProgressBar(id string, total int) {
	o.add(fmt.Sprintf("progress:%s:%d", id, total))
}
func (o *recordingOverlay) UpdateProgressBar() { o.add("update") }
func (o *recordingOverlay) Hide()              { o.add("hide") }

func (o *recordingOverlay) Calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.calls...)
}

// recordingNotifier keeps every status shown.
type recordingNotifier struct {
	mu       sync.Mutex
	statuses [][2]*Message
}

func (n *recordingNotifier) ShowStatus(primary Message, secondary *Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, [2]*Message{&primary, secondary})
}

func (n *recordingNotifier) Statuses() [][2]*Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([][2]*Message(nil), n.statuses...)
}

// countingLocker counts acquisitions and releases across all locks.
type countingLocker struct {
	acquired atomic.Int32
	released atomic.Int32
}

type countedLock struct {
	locker *countingLocker
}

func (l *countingLocker) Acquire(topic string) device.WakeLock {
	l.acquired.Add(1)
	return &countedLock{locker: l}
}

func (l *countedLock) Topic() string { return WakeLockTopic }

// Release counts every call so double releases are visible.
func (l *countedLock) Release() { l.locker.released.Add(1) }

// scriptedDialog answers from a fixed list and records the prompts.
type scriptedDialog struct {
	mu      sync.Mutex
	answers []Choice
	asked   []string
}

func (d *scriptedDialog) Confirm(_ context.Context, id string, _ int) Choice {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.asked = append(d.asked, id)
	if len(d.answers) == 0 {
		return ChoiceCancel
	}
	c := d.answers[0]
	d.answers = d.answers[1:]
	return c
}

// fakeICCs serves one card whose phonebook comes from ReadFn.
type fakeICCs struct {
	ReadFn func(ctx context.Context) ([]contacts.Contact, error)
}

type fakeICC struct {
	id     string
	readFn func(ctx context.Context) ([]contacts.Contact, error)
}

func (p *fakeICCs) ICC(_ context.Context, id string) (ril.ICC, error) {
	if id == "missing" {
		return nil, ril.ErrUnknownICC
	}
	return &fakeICC{id: id, readFn: p.ReadFn}, nil
}

func (c *fakeICC) ID() string { return c.id }

func (c *fakeICC) ReadContacts(ctx context.Context) ([]contacts.Contact, error) {
	return c.readFn(ctx)
}
