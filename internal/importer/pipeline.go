package importer

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/phrazzld/handset/internal/contacts"
	"github.com/phrazzld/handset/internal/redact"
)

// ErrAlreadyConsumed is reported when a pipeline's events are iterated a
// second time. Pipelines are single-use; retry with a new one.
var ErrAlreadyConsumed = errors.New("import pipeline already consumed")

// Source enumerates the contacts to import.
type Source interface {
	// Name identifies the source, e.g. "sim-<iccid>" or "sd".
	Name() string
	// Read returns every record in source order.
	Read(ctx context.Context) ([]contacts.Contact, error)
}

// Merger stores one imported record, merging it into an existing contact
// when it is a duplicate.
type Merger interface {
	Import(ctx context.Context, c contacts.Contact) (contacts.ImportResult, error)
}

// Pipeline runs one import from a Source into a Merger.
type Pipeline struct {
	source Source
	merger Merger
	token  *CancelToken
	logger *slog.Logger

	consumed atomic.Bool
	mu       sync.Mutex
	state    State
}

// NewPipeline creates a pipeline. A nil token gets a fresh one and a nil
// logger falls back to slog.Default.
func NewPipeline(source Source, merger Merger, token *CancelToken, logger *slog.Logger) *Pipeline {
	if token == nil {
		token = NewCancelToken()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source: source,
		merger: merger,
		token:  token,
		logger: logger.With("component", "import_pipeline", "source", source.Name()),
		state:  StateIdle,
	}
}

// Finish requests cooperative cancellation. Calling it more than once has
// no further effect.
func (p *Pipeline) Finish() {
	if p.token.Cancel() {
		p.logger.Debug("import cancellation requested", "state", p.State())
	}
}

// State returns the pipeline's current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Events returns the pipeline's event stream. The stream can be iterated
// once; a second iteration yields a single EventFailed with
// ErrAlreadyConsumed. Cancelling ctx abandons the import with EventFailed.
func (p *Pipeline) Events(ctx context.Context) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if !p.consumed.CompareAndSwap(false, true) {
			yield(Event{Kind: EventFailed, Err: ErrAlreadyConsumed})
			return
		}
		p.run(ctx, yield)
	}
}

func (p *Pipeline) run(ctx context.Context, yield func(Event) bool) {
	var summary Summary

	if p.token.Cancelled() {
		p.finish(summary, yield)
		return
	}

	p.setState(StateReading)
	items, cancelled, err := p.read(ctx)
	switch {
	case cancelled:
		p.logger.Info("import cancelled while reading source")
		p.finish(summary, yield)
		return
	case err != nil:
		p.setState(StateFailed)
		p.logger.Error("failed to read import source", "error", redact.Error(err))
		yield(Event{Kind: EventFailed, Err: err})
		return
	}

	// Reading completed, but the token may have fired meanwhile.
	if p.token.Cancelled() {
		p.finish(summary, yield)
		return
	}

	summary.Total = len(items)
	p.setState(StateImporting)
	p.logger.Debug("import source read", "total", summary.Total)
	if !yield(Event{Kind: EventRead, Total: summary.Total}) {
		p.abandon(summary)
		return
	}

	for i, item := range items {
		if p.token.Cancelled() {
			break
		}

		res, err := p.merger.Import(ctx, item)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				p.setState(StateFailed)
				yield(Event{Kind: EventFailed, Err: ctxErr})
				return
			}
			summary.Failed++
			p.logger.Warn("skipping contact that could not be imported",
				"index", i,
				"error", redact.Error(err))
			continue
		}

		summary.Imported++
		if res.Merged {
			summary.DuplicatesMerged++
		}
		contact := res.Contact
		if !yield(Event{Kind: EventImported, Contact: &contact}) {
			p.abandon(summary)
			return
		}
	}

	p.setState(StateFinishing)
	p.finish(summary, yield)
}

func (p *Pipeline) finish(summary Summary, yield func(Event) bool) {
	summary.Cancelled = p.token.Cancelled()
	if summary.Cancelled {
		p.setState(StateCancelled)
	} else {
		p.setState(StateDone)
	}
	p.logger.Info("import finished",
		"total", summary.Total,
		"imported", summary.Imported,
		"duplicates_merged", summary.DuplicatesMerged,
		"failed", summary.Failed,
		"cancelled", summary.Cancelled)
	yield(Event{Kind: EventFinished, Summary: summary})
}

// abandon ends a run whose consumer stopped iterating. No terminal event
// can be delivered, so the pipeline is marked cancelled.
func (p *Pipeline) abandon(summary Summary) {
	p.setState(StateCancelled)
	p.logger.Info("import abandoned by consumer",
		"total", summary.Total,
		"imported", summary.Imported)
}

type readResult struct {
	items []contacts.Contact
	err   error
}

// read runs the source until it answers, the token fires or ctx ends. A
// read abandoned by cancellation keeps running in the background until the
// source notices its context was cancelled.
func (p *Pipeline) read(ctx context.Context) (items []contacts.Contact, cancelled bool, err error) {
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan readResult, 1)
	go func() {
		items, err := p.source.Read(readCtx)
		results <- readResult{items: items, err: err}
	}()

	select {
	case r := <-results:
		return r.items, false, r.err
	case <-p.token.Done():
		return nil, true, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}
