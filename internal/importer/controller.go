package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/handset/internal/device"
	"github.com/phrazzld/handset/internal/events"
	"github.com/phrazzld/handset/internal/redact"
	"github.com/phrazzld/handset/internal/ril"
	"github.com/phrazzld/handset/internal/settings"
	"github.com/spf13/afero"
)

// ErrImportInProgress is returned when an import is requested while
// another one, including its retry dialog, is still running.
var ErrImportInProgress = errors.New("an import is already in progress")

// DefaultFeedbackDelay keeps the final progress visible briefly before the
// overlay is hidden.
const DefaultFeedbackDelay = 200 * time.Millisecond

// Settings keys written after an import.
const (
	// TimestampKeyPrefix is followed by the source name.
	TimestampKeyPrefix = "contacts.import.timestamp."
	// ChangesKey holds the pending change notifications, newest first.
	ChangesKey = "contacts.import.changes"
)

// maxPendingChanges bounds the stored change list.
const maxPendingChanges = 1000

// WakeLockTopic is the wake-lock held while importing.
const WakeLockTopic = "cpu"

// Change is a pending notification that a contact was written by an import.
type Change struct {
	ContactID uuid.UUID `json:"contact_id"`
	Reason    string    `json:"reason"`
}

// Options configures a Controller. Merger, ICCs, FS, WakeLocks and Settings
// are required; the UI collaborators default to no-ops.
type Options struct {
	Merger     Merger
	ICCs       ril.ICCProvider
	FS         afero.Fs
	SDCardRoot string

	Overlay   Overlay
	Status    StatusNotifier
	Dialog    Dialog
	WakeLocks device.WakeLocker
	Settings  settings.Store
	Emitter   events.EventEmitter

	FeedbackDelay time.Duration
	Logger        *slog.Logger
}

// Controller runs imports one at a time and drives the UI around them.
type Controller struct {
	opts   Options
	logger *slog.Logger

	busy atomic.Bool

	mu     sync.Mutex
	token  *CancelToken
	read   bool
	source string
}

// NewController creates a Controller.
func NewController(opts Options) *Controller {
	if opts.Overlay == nil {
		opts.Overlay = nopOverlay{}
	}
	if opts.Status == nil {
		opts.Status = nopNotifier{}
	}
	if opts.Dialog == nil {
		opts.Dialog = RetryDialog{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		opts:   opts,
		logger: opts.Logger.With("component", "import_controller"),
	}
}

type job struct {
	messages  jobMessages
	newSource func() Source
}

type jobMessages struct {
	reading, importing, imported, failed string
}

// ImportFromSIM imports the phonebook of the SIM card iccID.
func (c *Controller) ImportFromSIM(ctx context.Context, iccID string) (Summary, error) {
	return c.run(ctx, job{
		messages:  jobMessages{MsgSIMReading, MsgSIMImporting, MsgSIMImported, MsgSIMError},
		newSource: func() Source { return NewSIMSource(c.opts.ICCs, iccID) },
	})
}

// ImportFromSDCard imports every vCard file on the memory card.
func (c *Controller) ImportFromSDCard(ctx context.Context) (Summary, error) {
	return c.run(ctx, job{
		messages:  jobMessages{MsgSDReading, MsgSDImporting, MsgSDImported, MsgSDError},
		newSource: func() Source { return NewSDCardSource(c.opts.FS, c.opts.SDCardRoot) },
	})
}

// ImportVCard imports contacts from vCard text.
func (c *Controller) ImportVCard(ctx context.Context, text string) (Summary, error) {
	return c.run(ctx, job{
		messages:  jobMessages{MsgVCardReading, MsgVCardImport, MsgVCardImported, MsgVCardError},
		newSource: func() Source { return NewVCardSource(text) },
	})
}

// Cancel asks the running import to stop. It returns false when there is
// nothing to cancel or the import was already cancelled. Once contacts are
// being imported the overlay switches to a cancelling message until the
// current contact is done.
func (c *Controller) Cancel() bool {
	// The overlay update happens under mu so it cannot land after the
	// attempt has detached and hidden the overlay.
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil || !c.token.Cancel() {
		return false
	}
	c.logger.Info("import cancel requested", "source", c.source, "contacts_read", c.read)
	if c.read {
		c.opts.Overlay.ShowActivityBar(MsgCancelling, true)
	}
	return true
}

// Busy reports whether an import is running.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

func (c *Controller) run(ctx context.Context, j job) (Summary, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return Summary{}, ErrImportInProgress
	}
	defer c.busy.Store(false)

	for attempt := 1; ; attempt++ {
		summary, err := c.attempt(ctx, j)
		if err == nil {
			return summary, nil
		}
		if ctx.Err() != nil {
			return summary, err
		}
		if c.opts.Dialog.Confirm(ctx, j.messages.failed, attempt) != ChoiceRetry {
			return summary, err
		}
		c.logger.Info("retrying import", "attempt", attempt+1)
	}
}

// attempt runs one fresh pipeline. The wake-lock is released and the
// overlay hidden exactly once whichever way the attempt ends.
func (c *Controller) attempt(ctx context.Context, j job) (Summary, error) {
	src := j.newSource()
	token := NewCancelToken()
	log := c.logger.With("source", src.Name())

	c.mu.Lock()
	c.token, c.read, c.source = token, false, src.Name()
	c.mu.Unlock()
	defer c.detach()

	lock := c.opts.WakeLocks.Acquire(WakeLockTopic)
	release := sync.OnceFunc(func() {
		c.opts.Overlay.Hide()
		lock.Release()
	})
	defer release()

	c.opts.Overlay.ShowActivityBar(j.messages.reading, true)

	var (
		summary Summary
		failure error
		changes []Change
	)
	pipeline := NewPipeline(src, c.opts.Merger, token, c.opts.Logger)
	for ev := range pipeline.Events(ctx) {
		switch ev.Kind {
		case EventRead:
			c.mu.Lock()
			c.read = true
			c.mu.Unlock()
			if ev.Total > 0 {
				c.opts.Overlay.ShowProgressBar(j.messages.importing, ev.Total)
			}
		case EventImported:
			changes = append(changes, Change{ContactID: ev.Contact.ID, Reason: "update"})
			if !token.Cancelled() {
				c.opts.Overlay.UpdateProgressBar()
			}
		case EventFinished:
			summary = ev.Summary
		case EventFailed:
			failure = ev.Err
		}
	}
	// The outcome is fixed from here on; later cancels are refused.
	c.detach()

	if failure != nil {
		release()
		log.Warn("import failed", "error", redact.Error(failure))
		return summary, failure
	}

	c.pause(ctx)
	release()

	if summary.Imported > 0 {
		slices.Reverse(changes)
		c.persist(ctx, log, src.Name(), summary, changes)
	}
	if !summary.Cancelled {
		primary := Message{ID: j.messages.imported, Args: []any{summary.Imported}}
		var secondary *Message
		if summary.DuplicatesMerged > 0 {
			secondary = &Message{ID: MsgMerged, Args: []any{summary.DuplicatesMerged}}
		}
		c.opts.Status.ShowStatus(primary, secondary)
	}
	return summary, nil
}

// detach clears the active attempt so Cancel has nothing to fire.
func (c *Controller) detach() {
	c.mu.Lock()
	c.token, c.read, c.source = nil, false, ""
	c.mu.Unlock()
}

func (c *Controller) pause(ctx context.Context) {
	if c.opts.FeedbackDelay <= 0 {
		return
	}
	t := time.NewTimer(c.opts.FeedbackDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// persist records the import timestamp and pending changes, then announces
// the import. Failures are logged; the contacts are already stored.
func (c *Controller) persist(ctx context.Context, log *slog.Logger, source string, summary Summary, changes []Change) {
	// The import itself succeeded; bookkeeping must not be lost to a
	// cancelled request context.
	ctx = context.WithoutCancel(ctx)

	if err := settings.SetTimestamp(ctx, c.opts.Settings, TimestampKeyPrefix+source, time.Now()); err != nil {
		log.Error("failed to store import timestamp", "error", err)
	}

	var pending []Change
	if err := settings.GetJSON(ctx, c.opts.Settings, ChangesKey, &pending); err != nil && !errors.Is(err, settings.ErrNotFound) {
		log.Warn("discarding unreadable pending changes", "error", err)
		pending = nil
	}
	pending = slices.Concat(changes, pending)
	if len(pending) > maxPendingChanges {
		pending = pending[:maxPendingChanges]
	}
	if err := settings.SetJSON(ctx, c.opts.Settings, ChangesKey, pending); err != nil {
		log.Error("failed to store pending changes", "error", err)
	}

	if c.opts.Emitter == nil {
		return
	}
	ids := make([]uuid.UUID, 0, len(changes))
	for _, ch := range changes {
		ids = append(ids, ch.ContactID)
	}
	event, err := events.NewEvent(events.TypeImportDone, events.ImportDonePayload{
		Source:           source,
		Imported:         summary.Imported,
		DuplicatesMerged: summary.DuplicatesMerged,
		ContactIDs:       ids,
	})
	if err != nil {
		log.Error("failed to build import event", "error", err)
		return
	}
	if err := c.opts.Emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("import event handler failed", "error", fmt.Errorf("emit %s: %w", event.Type, err))
	}
}

// LastImport returns when source was last imported from.
func LastImport(ctx context.Context, s settings.Store, source string) (time.Time, bool, error) {
	return settings.Timestamp(ctx, s, TimestampKeyPrefix+source)
}
