package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postWebhook(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Inbound(rec, req)

	var envelope Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return rec, envelope
}

func TestHandlerBookingSuccess(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.orch, nil, nil)

	payload, err := json.Marshal(map[string]string{
		"senderPhone": "+60123456789",
		"messageText": bookingMessage,
	})
	require.NoError(t, err)

	rec, envelope := postWebhook(t, h, string(payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.AppointmentID)
	assert.Empty(t, envelope.Issues)
}

func TestHandlerReportsIssues(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.orch, nil, nil)

	payload, err := json.Marshal(map[string]string{
		"senderPhone": "+60123456789",
		"messageText": "New appointment\nName: Aina\nPhone: 0123456789",
	})
	require.NoError(t, err)

	rec, envelope := postWebhook(t, h, string(payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.Issues)
}

func TestHandlerIntentResponse(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.orch, nil, nil)

	rec, envelope := postWebhook(t, h, `{"senderPhone":"+60123456789","messageText":"I need to cancel"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, envelope.Success)
	assert.Equal(t, "cancel", envelope.Intent)
}

func TestHandlerBadRequest(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.orch, nil, nil)

	rec, envelope := postWebhook(t, h, `{"messageText":"hello"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, envelope.Success)
	assert.Equal(t, "missing sender phone", envelope.Error)

	rec, envelope = postWebhook(t, h, `{{{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, envelope.Success)
	assert.Equal(t, "malformed payload", envelope.Error)
}

func TestHandlerInternalError(t *testing.T) {
	f := newFixture(t)
	f.orch.directory = &fakeDirectory{err: assertErr("directory down")}
	h := NewHandler(f.orch, nil, nil)

	payload, err := json.Marshal(map[string]string{
		"senderPhone": "+60123456789",
		"messageText": bookingMessage,
	})
	require.NoError(t, err)

	rec, envelope := postWebhook(t, h, string(payload))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, envelope.Success)
	assert.Equal(t, "internal error", envelope.Error)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
