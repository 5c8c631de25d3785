package api

import (
	"time"

	"github.com/phrazzld/handset/internal/callsettings"
	"github.com/phrazzld/handset/internal/importer"
)

// ImportVCardRequest carries vCard text for POST /api/imports/vcard.
type ImportVCardRequest struct {
	VCard string `json:"vcard" validate:"required"`
}

// JobResponse describes an import job.
type JobResponse struct {
	ID         string             `json:"id"`
	Source     string             `json:"source"`
	State      JobState           `json:"state"`
	Summary    *importer.Summary  `json:"summary,omitempty"`
	Error      string             `json:"error,omitempty"`
	Progress   *importer.Progress `json:"progress,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
}

// LastImportResponse tells when a source was last imported from.
type LastImportResponse struct {
	Source     string     `json:"source"`
	ImportedAt *time.Time `json:"imported_at"`
}

// ToggleBarringRequest is the body of POST /api/call-barring/{program}/toggle.
type ToggleBarringRequest struct {
	Password string `json:"password" validate:"required,len=4,numeric"`
}

// ToggleBarringResponse reports the program's new state.
type ToggleBarringResponse struct {
	Program string `json:"program"`
	Active  bool   `json:"active"`
}

// ChangePasscodeRequest is the body of POST /api/call-barring/passcode.
type ChangePasscodeRequest struct {
	Pin    string `json:"pin" validate:"required,len=4,numeric"`
	NewPin string `json:"new_pin" validate:"required,len=4,numeric"`
}

// SetForwardingRequest is the body of PUT /api/call-forwarding/{reason}.
type SetForwardingRequest struct {
	Enabled *bool  `json:"enabled" validate:"required"`
	Number  string `json:"number" validate:"omitempty,max=32"`
}

// ForwardingResponse lists every forwarding reason.
type ForwardingResponse struct {
	Rules []callsettings.ForwardingStatus `json:"rules"`
}

// CallWaitingRequest is the body of PUT /api/call-waiting.
type CallWaitingRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// CallWaitingResponse reports the call waiting state.
type CallWaitingResponse struct {
	Enabled bool `json:"enabled"`
}
