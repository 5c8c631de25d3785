package api

import (
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/handset/internal/api/shared"
	"github.com/phrazzld/handset/internal/importer"
	"github.com/phrazzld/handset/internal/platform/logger"
	"github.com/phrazzld/handset/internal/settings"
)

// ImportHandler starts and tracks contact imports.
type ImportHandler struct {
	jobs     *JobRegistry
	settings settings.Store
	logger   *slog.Logger
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(jobs *JobRegistry, s settings.Store, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{jobs: jobs, settings: s, logger: logger}
}

// ImportFromSIM handles POST /api/imports/sim/{iccID}.
func (h *ImportHandler) ImportFromSIM(w http.ResponseWriter, r *http.Request) {
	iccID := chi.URLParam(r, "iccID")
	if iccID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "SIM card ID is required")
		return
	}
	h.started(w, r)(h.jobs.StartSIM(iccID))
}

// ImportFromSDCard handles POST /api/imports/sdcard.
func (h *ImportHandler) ImportFromSDCard(w http.ResponseWriter, r *http.Request) {
	h.started(w, r)(h.jobs.StartSDCard())
}

// ImportVCard handles POST /api/imports/vcard. The body is either a JSON
// ImportVCardRequest or raw text/vcard.
func (h *ImportHandler) ImportVCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var text string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "text/vcard", "text/x-vcard", "text/directory":
		body, err := shared.ReadBody(w, r)
		if shared.IsBodyTooLarge(err) {
			respondBodyTooLarge(w, r, log)
			return
		}
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
			return
		}
		text = string(body)
	default:
		var req ImportVCardRequest
		if !decodeAndValidate(w, r, &req, log) {
			return
		}
		text = req.VCard
	}

	h.started(w, r)(h.jobs.StartVCard(text))
}

func (h *ImportHandler) started(w http.ResponseWriter, r *http.Request) func(*Job, error) {
	return func(job *Job, err error) {
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		logger.FromContextOrDefault(r.Context(), h.logger).Debug("import job accepted",
			slog.String("job_id", job.ID.String()),
			slog.String("source", job.Source))
		shared.RespondWithJSON(w, r, http.StatusAccepted, job.Response(h.jobs.Progress()))
	}
}

// ListImports handles GET /api/imports.
func (h *ImportHandler) ListImports(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobs.List()
	progress := h.jobs.Progress()
	resp := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		resp = append(resp, job.Response(progress))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetImport handles GET /api/imports/{id}.
func (h *ImportHandler) GetImport(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid import job ID format")
		return
	}
	job, err := h.jobs.Get(id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, job.Response(h.jobs.Progress()))
}

// CancelImport handles DELETE /api/imports/{id}. A finished job is returned
// unchanged.
func (h *ImportHandler) CancelImport(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid import job ID format")
		return
	}
	job, err := h.jobs.Cancel(id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, job.Response(h.jobs.Progress()))
}

// GetLastImport handles GET /api/imports/last/{source}.
func (h *ImportHandler) GetLastImport(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	at, ok, err := importer.LastImport(r.Context(), h.settings, source)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	resp := LastImportResponse{Source: source}
	if ok {
		resp.ImportedAt = &at
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
