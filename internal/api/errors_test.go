package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/handset/internal/callsettings"
	"github.com/phrazzld/handset/internal/importer"
	"github.com/phrazzld/handset/internal/ril"
	"github.com/phrazzld/handset/internal/scheduler"
	"github.com/phrazzld/handset/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrJobNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: 8934", ril.ErrUnknownICC), http.StatusNotFound},
		{ril.ErrIncorrectPassword, http.StatusForbidden},
		{importer.ErrImportInProgress, http.StatusConflict},
		{scheduler.ErrSuperseded, http.StatusConflict},
		{fmt.Errorf("%w: %q", ril.ErrInvalidProgram, "x"), http.StatusBadRequest},
		{callsettings.ErrInvalidNumber, http.StatusBadRequest},
		{importer.ErrNoFiles, http.StatusUnprocessableEntity},
		{callsettings.ErrForwardingNotApplied, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{store.NewStoreError("contact", "create", "failed", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("radio not available"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err), tc.err.Error())
	}
}

func TestGetSafeErrorMessageHidesDetail(t *testing.T) {
	err := fmt.Errorf("dial 10.0.0.7:5432 for +15551234: %w", errors.New("refused"))
	msg := GetSafeErrorMessage(err)
	assert.Equal(t, "An unexpected error occurred", msg)
	assert.NotContains(t, msg, "10.0.0.7")

	assert.Equal(t, "SIM card not found", GetSafeErrorMessage(fmt.Errorf("%w: 8934071100276980483", ril.ErrUnknownICC)))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}

func TestSanitizeValidationError(t *testing.T) {
	err := validator.New().Struct(ChangePasscodeRequest{Pin: "0000", NewPin: "12ab"})
	assert.Equal(t, "Invalid NewPin: wrong length", SanitizeValidationError(err))
	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}
