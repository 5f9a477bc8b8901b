package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSend(t *testing.T) {
	var got struct {
		To   string `json:"to"`
		Body string `json:"body"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, Token: "secret"})
	require.NoError(t, err)

	err = client.Send(context.Background(), "+60123456789", "See you at 3:00 PM")
	require.NoError(t, err)
	assert.Equal(t, "+60123456789", got.To)
	assert.Equal(t, "See you at 3:00 PM", got.Body)
}

func TestClientSendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	err = client.Send(context.Background(), "+60123456789", "hi")
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "rate limited")
}

func TestClientSendValidation(t *testing.T) {
	client, err := New(Config{BaseURL: "http://localhost:1"})
	require.NoError(t, err)

	assert.Error(t, client.Send(context.Background(), "", "hi"))
	assert.Error(t, client.Send(context.Background(), "+60123456789", ""))

	_, err = New(Config{})
	assert.Error(t, err)
}

type failingMessenger struct {
	err   error
	calls int
}

func (f *failingMessenger) Send(ctx context.Context, to, body string) error {
	f.calls++
	return f.err
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failingMessenger{err: errors.New("boom")}
	b := NewBreakerMessenger(inner, nil)

	for i := 0; i < 5; i++ {
		err := b.Send(context.Background(), "+60123456789", "hi")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}

	err := b.Send(context.Background(), "+60123456789", "hi")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 5, inner.calls)
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	inner := &failingMessenger{err: nil}
	b := NewBreakerMessenger(inner, nil)

	require.NoError(t, b.Send(context.Background(), "+60123456789", "hi"))
	assert.Equal(t, 1, inner.calls)
}
