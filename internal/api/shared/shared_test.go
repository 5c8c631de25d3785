package shared

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/handset/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	withTrace := SetTraceID(ctx)
	id := GetTraceID(withTrace)
	assert.Len(t, id, 32)
	_, err := hex.DecodeString(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, GetTraceID(SetTraceID(ctx)))

	assert.Empty(t, GetTraceID(context.WithValue(ctx, TraceIDKey, 123)))
}

type toggleBody struct {
	Password string `json:"password" validate:"required,len=4,numeric"`
}

type customBody struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

func (b *customBody) Validate() error {
	if b.From == b.To {
		return errors.New("from and to must differ")
	}
	return nil
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"password":"1234"}`},
		{name: "syntax error", body: `{"password":"1234",}`, wantErr: "invalid character"},
		{name: "unknown field", body: `{"pin":"1234"}`, wantErr: "unknown field"},
		{name: "trailing object", body: `{"password":"1"} {}`, wantErr: "single JSON object"},
		{name: "empty", body: ``, wantErr: "EOF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var got toggleBody
			err := DecodeJSON(httptest.NewRecorder(), req, &got)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "1234", got.Password)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDecodeJSONRejectsOversizedBody(t *testing.T) {
	body := `{"password":"` + strings.Repeat("1", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var got toggleBody
	err := DecodeJSON(httptest.NewRecorder(), req, &got)
	require.Error(t, err)
	assert.True(t, IsBodyTooLarge(err))
}

func TestReadBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", MaxBodyBytes)))
	body, err := ReadBody(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.Len(t, body, MaxBodyBytes)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", MaxBodyBytes+1)))
	_, err = ReadBody(httptest.NewRecorder(), req)
	require.Error(t, err)
	assert.True(t, IsBodyTooLarge(err))
	assert.False(t, IsBodyTooLarge(errors.New("unexpected EOF")))
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(&toggleBody{Password: "0000"}))
	assert.Error(t, ValidateRequest(&toggleBody{Password: "12a4"}))
	assert.Error(t, ValidateRequest(&toggleBody{}))

	assert.NoError(t, ValidateRequest(&customBody{From: "a", To: "b"}))
	assert.ErrorContains(t, ValidateRequest(&customBody{From: "a", To: "a"}), "must differ")
	assert.Error(t, ValidateRequest(&customBody{From: "a"}))
}

func TestRespondWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithJSON(rec, req, http.StatusAccepted, map[string]string{"id": "42"})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"42"}`, rec.Body.String())
}

func TestRespondWithError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(SetTraceID(req.Context()))

	RespondWithError(rec, req, http.StatusNotFound, "Import job not found")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Import job not found", body.Error)
	assert.Equal(t, GetTraceID(req.Context()), body.TraceID)
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusInternalServerError, "ERROR"},
		{http.StatusConflict, "WARN"},
		{http.StatusBadRequest, "DEBUG"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			buf, l := logger.NewTestLogger(t)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/call-waiting", nil)
			req = req.WithContext(logger.WithLogger(req.Context(), l))

			err := errors.New("forward to +15551234567 failed for ada@example.org")
			RespondWithErrorAndLog(rec, req, tt.status, "Request failed", err)

			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "ada@example.org")

			entries, err := buf.GetLogEntries()
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0]["level"])
			assert.NotContains(t, entries[0]["error"], "ada@example.org")
			assert.NotContains(t, entries[0]["error"], "15551234567")
		})
	}
}
