package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/handset/internal/api/shared"
	"github.com/phrazzld/handset/internal/callsettings"
	"github.com/phrazzld/handset/internal/platform/logger"
	"github.com/phrazzld/handset/internal/ril"
)

// BarringPanel is the call barring panel.
type BarringPanel interface {
	Refresh(ctx context.Context) error
	Toggle(ctx context.Context, program ril.Program, password string) (bool, error)
	ChangePasscode(ctx context.Context, pin, newPin string) error
	Snapshot() callsettings.BarringSnapshot
}

// ForwardingPanel is the call forwarding panel.
type ForwardingPanel interface {
	Query(ctx context.Context) ([]callsettings.ForwardingStatus, error)
	Set(ctx context.Context, change callsettings.ForwardingChange) (callsettings.ForwardingStatus, error)
}

// WaitingPanel is the call waiting panel.
type WaitingPanel interface {
	Get(ctx context.Context) (bool, error)
	Set(ctx context.Context, enabled bool) (bool, error)
}

// CallSettingsHandler exposes the call settings panels.
type CallSettingsHandler struct {
	barring    BarringPanel
	forwarding ForwardingPanel
	waiting    WaitingPanel
	logger     *slog.Logger
}

// NewCallSettingsHandler creates a new CallSettingsHandler.
func NewCallSettingsHandler(
	barring BarringPanel,
	forwarding ForwardingPanel,
	waiting WaitingPanel,
	logger *slog.Logger,
) *CallSettingsHandler {
	return &CallSettingsHandler{
		barring:    barring,
		forwarding: forwarding,
		waiting:    waiting,
		logger:     logger,
	}
}

// GetBarring handles GET /api/call-barring. It re-queries every program
// unless refresh=false is given.
func (h *CallSettingsHandler) GetBarring(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") != "false" {
		if err := h.barring.Refresh(r.Context()); err != nil {
			handleServiceError(w, r, err)
			return
		}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, h.barring.Snapshot())
}

// ToggleBarring handles POST /api/call-barring/{program}/toggle.
func (h *CallSettingsHandler) ToggleBarring(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	program, err := ril.ParseProgram(chi.URLParam(r, "program"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req ToggleBarringRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	active, err := h.barring.Toggle(r.Context(), program, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	log.Debug("call barring toggled", slog.String("program", program.String()), slog.Bool("active", active))
	shared.RespondWithJSON(w, r, http.StatusOK, ToggleBarringResponse{Program: program.String(), Active: active})
}

// ChangePasscode handles POST /api/call-barring/passcode.
func (h *CallSettingsHandler) ChangePasscode(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req ChangePasscodeRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}
	if err := h.barring.ChangePasscode(r.Context(), req.Pin, req.NewPin); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetForwarding handles GET /api/call-forwarding.
func (h *CallSettingsHandler) GetForwarding(w http.ResponseWriter, r *http.Request) {
	rules, err := h.forwarding.Query(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ForwardingResponse{Rules: rules})
}

// SetForwarding handles PUT /api/call-forwarding/{reason}.
func (h *CallSettingsHandler) SetForwarding(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	reason, err := ril.ParseReason(chi.URLParam(r, "reason"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req SetForwardingRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	status, err := h.forwarding.Set(r.Context(), callsettings.ForwardingChange{
		Reason:  reason,
		Enabled: *req.Enabled,
		Number:  req.Number,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

// GetWaiting handles GET /api/call-waiting.
func (h *CallSettingsHandler) GetWaiting(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.waiting.Get(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CallWaitingResponse{Enabled: enabled})
}

// SetWaiting handles PUT /api/call-waiting.
func (h *CallSettingsHandler) SetWaiting(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CallWaitingRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}
	enabled, err := h.waiting.Set(r.Context(), *req.Enabled)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CallWaitingResponse{Enabled: enabled})
}
