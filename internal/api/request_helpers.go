package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/handset/internal/api/shared"
	"github.com/phrazzld/handset/internal/redact"
)

var errInvalidID = errors.New("invalid id")

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, paramName))
	if err != nil {
		return uuid.Nil, errInvalidID
	}
	return id, nil
}

// decodeAndValidate decodes the JSON body into req and validates it,
// writing a 400 response on failure, or 413 when the body is too large.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any, log *slog.Logger) bool {
	if err := shared.DecodeJSON(w, r, req); err != nil {
		if shared.IsBodyTooLarge(err) {
			respondBodyTooLarge(w, r, log)
			return false
		}
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

func respondBodyTooLarge(w http.ResponseWriter, r *http.Request, log *slog.Logger) {
	log.Warn("request body too large", slog.Int64("limit_bytes", shared.MaxBodyBytes))
	shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
}

// handleServiceError maps err to a status code and a safe message.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
