package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/handset/internal/api/shared"
	"github.com/phrazzld/handset/internal/callsettings"
	"github.com/phrazzld/handset/internal/events"
	"github.com/phrazzld/handset/internal/importer"
	"github.com/phrazzld/handset/internal/ril"
	"github.com/phrazzld/handset/internal/scheduler"
	"github.com/phrazzld/handset/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	imp     *fakeImporter
	jobs    *JobRegistry
	store   *settings.MemoryStore
	handler http.Handler
}

func newAPIFixture(t *testing.T, imp *fakeImporter) *apiFixture {
	t.Helper()
	logger := discardLogger()
	store := settings.NewMemoryStore()
	jobs := newTestRegistry(t, imp, nil)

	conn := ril.NewStoreConnection(store, logger)
	sched := scheduler.New(logger)
	emitter := events.NewInMemoryEventEmitter(logger)

	calls := NewCallSettingsHandler(
		callsettings.NewBarring(conn, sched, emitter, ril.ServiceClassVoice, logger),
		callsettings.NewForwarding(conn, sched, emitter, ril.ServiceClassVoice, logger),
		callsettings.NewWaiting(conn, sched, emitter, logger),
		logger,
	)
	return &apiFixture{
		imp:     imp,
		jobs:    jobs,
		store:   store,
		handler: NewRouter(NewImportHandler(jobs, store, logger), calls, logger),
	}
}

func (f *apiFixture) do(t *testing.T, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t, releasedImporter())
	rec := f.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestImportLifecycle(t *testing.T) {
	f := newAPIFixture(t, newFakeImporter())

	rec := f.do(t, http.MethodPost, "/api/imports/sim/8934071100276980483", "", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	job := decodeBody[JobResponse](t, rec)
	assert.Equal(t, "sim-8934071100276980483", job.Source)
	assert.Equal(t, JobRunning, job.State)
	assert.Nil(t, job.Summary)

	rec = f.do(t, http.MethodPost, "/api/imports/sdcard", "", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	errResp := decodeBody[shared.ErrorResponse](t, rec)
	assert.Equal(t, "An import is already in progress", errResp.Error)
	assert.NotEmpty(t, errResp.TraceID)

	rec = f.do(t, http.MethodGet, "/api/imports/"+job.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, JobRunning, decodeBody[JobResponse](t, rec).State)

	rec = f.do(t, http.MethodDelete, "/api/imports/"+job.ID, "", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	f.jobs.Wait()

	rec = f.do(t, http.MethodGet, "/api/imports/"+job.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	final := decodeBody[JobResponse](t, rec)
	assert.Equal(t, JobCancelled, final.State)
	require.NotNil(t, final.Summary)
	assert.True(t, final.Summary.Cancelled)
	assert.NotNil(t, final.FinishedAt)

	rec = f.do(t, http.MethodGet, "/api/imports", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]JobResponse](t, rec), 1)
}

func TestImportJobLookupErrors(t *testing.T) {
	f := newAPIFixture(t, releasedImporter())

	rec := f.do(t, http.MethodGet, "/api/imports/not-a-uuid", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/imports/7d4f3bb0-5c1e-4d63-9a4e-6b1e9c0f2a11", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Import job not found", decodeBody[shared.ErrorResponse](t, rec).Error)

	rec = f.do(t, http.MethodDelete, "/api/imports/7d4f3bb0-5c1e-4d63-9a4e-6b1e9c0f2a11", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportVCard(t *testing.T) {
	const card = "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Ada Lovelace\r\nEND:VCARD\r\n"

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantError   string
		wantCall    string
	}{
		{
			name:        "JSON body",
			contentType: "application/json",
			body:        `{"vcard":"BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Ada Lovelace\r\nEND:VCARD\r\n"}`,
			wantStatus:  http.StatusAccepted,
			wantCall:    "vcard:" + card,
		},
		{
			name:        "raw vCard body",
			contentType: "text/vcard; charset=utf-8",
			body:        card,
			wantStatus:  http.StatusAccepted,
			wantCall:    "vcard:" + card,
		},
		{
			name:        "missing vcard field",
			contentType: "application/json",
			body:        `{}`,
			wantStatus:  http.StatusBadRequest,
			wantError:   "Invalid VCard: required field",
		},
		{
			name:        "unknown field",
			contentType: "application/json",
			body:        `{"vcard":"x","extra":1}`,
			wantStatus:  http.StatusBadRequest,
			wantError:   "Invalid request format",
		},
		{
			name:        "oversized raw vCard body",
			contentType: "text/vcard",
			body:        strings.Repeat(card, shared.MaxBodyBytes/len(card)+1),
			wantStatus:  http.StatusRequestEntityTooLarge,
			wantError:   "Request body too large",
		},
		{
			name:        "oversized JSON body",
			contentType: "application/json",
			body:        `{"vcard":"` + strings.Repeat("x", shared.MaxBodyBytes) + `"}`,
			wantStatus:  http.StatusRequestEntityTooLarge,
			wantError:   "Request body too large",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newAPIFixture(t, releasedImporter())

			rec := f.do(t, http.MethodPost, "/api/imports/vcard", tc.contentType, tc.body)
			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			if tc.wantError != "" {
				assert.Equal(t, tc.wantError, decodeBody[shared.ErrorResponse](t, rec).Error)
				assert.Empty(t, f.imp.Calls())
				return
			}
			f.jobs.Wait()
			assert.Equal(t, []string{tc.wantCall}, f.imp.Calls())
		})
	}
}

func TestGetLastImport(t *testing.T) {
	f := newAPIFixture(t, releasedImporter())

	rec := f.do(t, http.MethodGet, "/api/imports/last/sd", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[LastImportResponse](t, rec)
	assert.Equal(t, "sd", resp.Source)
	assert.Nil(t, resp.ImportedAt)

	at := time.Date(2026, 2, 14, 18, 30, 0, 0, time.UTC)
	require.NoError(t, settings.SetTimestamp(context.Background(), f.store, importer.TimestampKeyPrefix+"sd", at))

	rec = f.do(t, http.MethodGet, "/api/imports/last/sd", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeBody[LastImportResponse](t, rec)
	require.NotNil(t, resp.ImportedAt)
	assert.True(t, at.Equal(*resp.ImportedAt))
}

func TestCallBarringRoutes(t *testing.T) {
	f := newAPIFixture(t, releasedImporter())

	rec := f.do(t, http.MethodGet, "/api/call-barring", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeBody[callsettings.BarringSnapshot](t, rec)
	assert.False(t, snap.Updating)
	assert.Len(t, snap.Programs, len(ril.Programs))

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"wrong password", "/api/call-barring/baic/toggle", `{"password":"9999"}`, http.StatusForbidden, "Incorrect call barring password"},
		{"malformed password", "/api/call-barring/baic/toggle", `{"password":"12"}`, http.StatusBadRequest, "Invalid Password: wrong length"},
		{"unknown program", "/api/call-barring/nope/toggle", `{"password":"0000"}`, http.StatusBadRequest, "Unknown call barring program"},
		{"malformed body", "/api/call-barring/baic/toggle", `{`, http.StatusBadRequest, "Invalid request format"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tc.path, "application/json", tc.body)
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantError, decodeBody[shared.ErrorResponse](t, rec).Error)
		})
	}

	rec = f.do(t, http.MethodPost, "/api/call-barring/BAIC/toggle", "application/json", `{"password":"0000"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ToggleBarringResponse{Program: "baic", Active: true}, decodeBody[ToggleBarringResponse](t, rec))

	rec = f.do(t, http.MethodGet, "/api/call-barring?refresh=false", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeBody[callsettings.BarringSnapshot](t, rec)
	for _, p := range snap.Programs {
		switch p.Name {
		case "baic":
			assert.True(t, p.Active)
		case "baicR":
			assert.False(t, p.Enabled)
		}
	}

	rec = f.do(t, http.MethodPost, "/api/call-barring/passcode", "application/json", `{"pin":"0000","new_pin":"4321"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/call-barring/baic/toggle", "application/json", `{"password":"4321"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[ToggleBarringResponse](t, rec).Active)
}

func TestCallForwardingRoutes(t *testing.T) {
	f := newAPIFixture(t, releasedImporter())

	rec := f.do(t, http.MethodPut, "/api/call-forwarding/noreply", "application/json", `{"enabled":true,"number":"+15551234"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	status := decodeBody[callsettings.ForwardingStatus](t, rec)
	assert.Equal(t, "noreply", status.Name)
	assert.True(t, status.Active)
	assert.Equal(t, "+15551234", status.Number)
	assert.Equal(t, 20, status.TimeSeconds)

	rec = f.do(t, http.MethodGet, "/api/call-forwarding", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rules := decodeBody[ForwardingResponse](t, rec).Rules
	require.Len(t, rules, len(ril.Reasons))
	assert.False(t, rules[0].Active)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"missing enabled", "/api/call-forwarding/mobilebusy", `{"number":"5551234"}`, http.StatusBadRequest, "Invalid Enabled: required field"},
		{"bad number", "/api/call-forwarding/mobilebusy", `{"enabled":true,"number":"call me"}`, http.StatusBadRequest, "Invalid phone number"},
		{"missing number", "/api/call-forwarding/mobilebusy", `{"enabled":true}`, http.StatusBadRequest, "Invalid phone number"},
		{"unknown reason", "/api/call-forwarding/sometimes", `{"enabled":false}`, http.StatusBadRequest, "Unknown call forwarding reason"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPut, tc.path, "application/json", tc.body)
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantError, decodeBody[shared.ErrorResponse](t, rec).Error)
		})
	}

	rec = f.do(t, http.MethodPut, "/api/call-forwarding/noreply", "application/json", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[callsettings.ForwardingStatus](t, rec).Active)
}

func TestCallWaitingRoutes(t *testing.T) {
	f := newAPIFixture(t, releasedImporter())

	rec := f.do(t, http.MethodGet, "/api/call-waiting", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[CallWaitingResponse](t, rec).Enabled)

	rec = f.do(t, http.MethodPut, "/api/call-waiting", "application/json", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[CallWaitingResponse](t, rec).Enabled)

	rec = f.do(t, http.MethodGet, "/api/call-waiting", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[CallWaitingResponse](t, rec).Enabled)

	rec = f.do(t, http.MethodPut, "/api/call-waiting", "application/json", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
