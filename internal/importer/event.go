package importer

import (
	"fmt"

	"github.com/phrazzld/handset/internal/contacts"
)

// EventKind tags an Event.
type EventKind int

const (
	// EventRead announces the number of items found in the source.
	EventRead EventKind = iota + 1
	// EventImported reports one successfully imported item.
	EventImported
	// EventFinished is the terminal event of a pipeline that read its source.
	EventFinished
	// EventFailed is the terminal event of a pipeline whose source could not
	// be read. No EventFinished follows it.
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventRead:
		return "read"
	case EventImported:
		return "imported"
	case EventFinished:
		return "finished"
	case EventFailed:
		return "failed"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one step of an import. Only the fields for its Kind are set.
type Event struct {
	Kind EventKind

	// Total is set on EventRead.
	Total int
	// Contact is set on EventImported.
	Contact *contacts.Contact
	// Summary is set on EventFinished.
	Summary Summary
	// Err is set on EventFailed.
	Err error
}

// Summary is the outcome of a pipeline run.
type Summary struct {
	Total            int  `json:"total"`
	Imported         int  `json:"imported"`
	DuplicatesMerged int  `json:"duplicates_merged"`
	Failed           int  `json:"failed"`
	Cancelled        bool `json:"cancelled"`
}

// State is the lifecycle position of a pipeline.
type State string

const (
	StateIdle      State = "idle"
	StateReading   State = "reading"
	StateImporting State = "importing"
	StateFinishing State = "finishing"
	StateDone      State = "done"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled || s == StateFailed
}
