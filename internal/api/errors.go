package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/handset/internal/callsettings"
	"github.com/phrazzld/handset/internal/importer"
	"github.com/phrazzld/handset/internal/ril"
	"github.com/phrazzld/handset/internal/scheduler"
	"github.com/phrazzld/handset/internal/store"
)

// ErrJobNotFound is returned for an unknown import job ID.
var ErrJobNotFound = errors.New("import job not found")

// MapErrorToStatusCode maps internal errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, ErrJobNotFound),
		errors.Is(err, ril.ErrUnknownICC),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, ril.ErrIncorrectPassword):
		return http.StatusForbidden

	case errors.Is(err, importer.ErrImportInProgress),
		errors.Is(err, scheduler.ErrSuperseded),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, ril.ErrInvalidPasscode),
		errors.Is(err, ril.ErrInvalidProgram),
		errors.Is(err, ril.ErrInvalidReason),
		errors.Is(err, ril.ErrInvalidAction),
		errors.Is(err, callsettings.ErrInvalidNumber),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, importer.ErrNoFiles),
		errors.Is(err, importer.ErrNoContacts):
		return http.StatusUnprocessableEntity

	case errors.Is(err, callsettings.ErrForwardingNotApplied):
		return http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that carries
// no numbers, addresses or other internal detail.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, ErrJobNotFound):
		return "Import job not found"
	case errors.Is(err, ril.ErrUnknownICC):
		return "SIM card not found"
	case errors.Is(err, ril.ErrIncorrectPassword):
		return "Incorrect call barring password"
	case errors.Is(err, ril.ErrInvalidPasscode):
		return "Passcode must be 4 digits"
	case errors.Is(err, ril.ErrInvalidProgram):
		return "Unknown call barring program"
	case errors.Is(err, ril.ErrInvalidReason):
		return "Unknown call forwarding reason"
	case errors.Is(err, callsettings.ErrInvalidNumber):
		return "Invalid phone number"
	case errors.Is(err, callsettings.ErrForwardingNotApplied):
		return "The network did not apply the call forwarding change"
	case errors.Is(err, importer.ErrImportInProgress):
		return "An import is already in progress"
	case errors.Is(err, scheduler.ErrSuperseded):
		return "Request superseded by a newer one"
	case errors.Is(err, importer.ErrNoFiles):
		return "No vCard files found on the memory card"
	case errors.Is(err, importer.ErrNoContacts):
		return "No contacts were found"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"
	case errors.Is(err, context.DeadlineExceeded):
		return "The device did not answer in time"
	case errors.Is(err, context.Canceled):
		return "Request cancelled"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator errors into a short message
// naming the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "len":
		return "wrong length"
	case "numeric":
		return "digits only"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
