package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPostsPayload(t *testing.T) {
	t.Parallel()

	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	s := NewSender(srv.URL, "testbot", nil)
	require.True(t, s.Enabled())

	s.Send(context.Background(), "filled BUY 0.1 BTC-USD @ 50000")

	require.NotNil(t, got)
	assert.Equal(t, "testbot", got["username"])
	assert.Contains(t, got["text"], "[testbot] filled BUY")
}

func TestSendDisabledWithoutURL(t *testing.T) {
	t.Parallel()

	s := NewSender("", "", nil)
	assert.False(t, s.Enabled())

	// Must be a no-op, not a panic.
	s.Send(context.Background(), "ignored")
}

func TestSendSurvivesServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	s := NewSender(srv.URL, "testbot", nil)
	s.Send(context.Background(), "still fine")
}
