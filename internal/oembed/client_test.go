package oembed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(Config{Endpoint: srv.URL + "/oembed", Timeout: time.Second, Attempts: 3}, nil), &calls
}

func TestClient_Details(t *testing.T) {
	cl, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oembed", r.URL.Path)
		assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", r.URL.Query().Get("url"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"title": "Never Gonna Give You Up",
			"author_name": "Rick Astley",
			"author_url": "https://www.youtube.com/@RickAstleyYT",
			"thumbnail_url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
			"type": "video"
		}`))
	})

	d, err := cl.Details(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	require.Equal(t, "Never Gonna Give You Up", d.Title)
	require.Equal(t, "Rick Astley", d.CreatorName)
	require.Equal(t, "https://www.youtube.com/@RickAstleyYT", d.CreatorURL)
	require.Equal(t, "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg", d.ThumbnailURL)
	require.EqualValues(t, 1, calls.Load())
}

func TestClient_NotFoundIsNotRetried(t *testing.T) {
	cl, calls := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	_, err := cl.Details(context.Background(), "https://example.com/nope")
	require.ErrorIs(t, err, ErrVideoNotFound)
	require.EqualValues(t, 1, calls.Load())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var n atomic.Int32
	cl, calls := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		if n.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"title":"ok"}`))
	})

	d, err := cl.Details(context.Background(), "https://www.youtube.com/watch?v=x")
	require.NoError(t, err)
	require.Equal(t, "ok", d.Title)
	require.EqualValues(t, 2, calls.Load())
}

func TestClient_GivesUpAfterAttempts(t *testing.T) {
	cl, calls := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := cl.Details(context.Background(), "https://www.youtube.com/watch?v=x")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrVideoNotFound)
	require.EqualValues(t, 3, calls.Load())
}
