package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NordCoder/Vidrate/internal/domain/auth"
	"github.com/NordCoder/Vidrate/internal/domain/content"
	"github.com/NordCoder/Vidrate/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid username or password"},
		{"missing", auth.ErrTokenMissing, http.StatusUnauthorized, "unauthenticated"},
		{"invalid", auth.ErrTokenInvalid, http.StatusUnauthorized, "unauthenticated"},
		{"expired", fmt.Errorf("verify: %w", auth.ErrTokenExpired), http.StatusUnauthorized, "unauthenticated"},
		{"revoked", auth.ErrTokenRevoked, http.StatusUnauthorized, "unauthenticated"},
		{"store down", fmt.Errorf("%w: dial tcp: refused", auth.ErrStoreUnavailable), http.StatusServiceUnavailable, "service unavailable"},
		{"taken", user.ErrUsernameTaken, http.StatusConflict, "username already taken"},
		{"bad video", content.ErrUnsupportedVideo, http.StatusBadRequest, "unsupported video url"},
		{"provider down", fmt.Errorf("%w: 502", content.ErrVideoLookup), http.StatusBadGateway, "video provider unavailable"},
		{"content missing", content.ErrNotFound, http.StatusNotFound, "not found"},
		{"user missing", user.ErrNotFound, http.StatusNotFound, "not found"},
		{"explicit", BadRequest("missing information"), http.StatusBadRequest, "missing information"},
		{"unknown", errors.New("pq: relation does not exist"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, msg := Translate(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.msg, msg)
		})
	}
}

func TestWriteErr_Body(t *testing.T) {
	rec := httptest.NewRecorder()
	status := WriteErr(rec, fmt.Errorf("%w: i/o timeout", auth.ErrStoreUnavailable))

	require.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"service unavailable","statusCode":503}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "timeout")
}

type signup struct {
	Name     string `json:"name" validate:"required,notblank"`
	Password string `json:"password" validate:"required,min=8"`
	Rating   int    `json:"rating" validate:"omitempty,min=1,max=5"`
}

func decode(t *testing.T, body string) (signup, error) {
	t.Helper()
	var dst signup
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := DecodeJSON(httptest.NewRecorder(), req, &dst)
	return dst, err
}

func TestDecodeJSON(t *testing.T) {
	got, err := decode(t, `{"name":"Alice","password":"secret123"}`)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"empty body", ``, "missing information"},
		{"missing field", `{"name":"Alice"}`, "missing information"},
		{"blank field", `{"name":" \t ","password":"secret123"}`, "missing information"},
		{"malformed", `{"name":`, "malformed json body"},
		{"short password", `{"name":"A","password":"short"}`, "password must satisfy min=8"},
		{"rating range", `{"name":"A","password":"secret123","rating":9}`, "rating must satisfy max=5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decode(t, tc.body)
			var he *Error
			require.ErrorAs(t, err, &he)
			assert.Equal(t, http.StatusBadRequest, he.Status)
			assert.Equal(t, tc.msg, he.Message)
		})
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	big := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	_, err := decode(t, big)

	var he *Error
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusRequestEntityTooLarge, he.Status)
}

func TestPathInt64(t *testing.T) {
	id, err := PathInt64(map[string]string{"id": "42"}, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "abc", "-1", "0", "1.5"} {
		_, err := PathInt64(map[string]string{"id": raw}, "id")
		var he *Error
		require.ErrorAs(t, err, &he, raw)
		assert.Equal(t, http.StatusBadRequest, he.Status)
	}
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(0.001, 2, 0, nil)
	t.Cleanup(l.Close)

	h := l.Middleware()(func(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
		w.WriteHeader(http.StatusNoContent)
	})
	call := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/user/login", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h(rec, req, nil)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1").Code)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1").Code)

	rec := call("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusTooManyRequests, body.StatusCode)

	assert.Equal(t, http.StatusNoContent, call("10.0.0.2").Code, "buckets are per client")
}

func TestRateLimiter_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	l := NewRateLimiter(0.001, 2, 0, nil)
	t.Cleanup(l.Close)

	h := l.Middleware()(func(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
		w.WriteHeader(http.StatusNoContent)
	})

	limited := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/user/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		h(rec, req, nil)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Equal(t, 18, limited)
}

func TestRateLimiter_TrustedProxyKeysOnForwardedClient(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	l := NewRateLimiter(0.001, 1, 0, proxies)
	t.Cleanup(l.Close)

	h := l.Middleware()(func(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
		w.WriteHeader(http.StatusNoContent)
	})
	call := func(xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/user/login", nil)
		req.RemoteAddr = "10.1.2.3:443"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h(rec, req, nil)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("203.0.113.1"))
	assert.Equal(t, http.StatusNoContent, call("203.0.113.2"))
	// a forged leftmost entry does not move the client off its bucket
	assert.Equal(t, http.StatusTooManyRequests, call("198.51.100.7, 203.0.113.1"))
}

func TestClientIP(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.0.2.10 ", ""})
	require.NoError(t, err)

	cases := []struct {
		name   string
		remote string
		xff    []string
		tp     TrustedProxies
		want   string
	}{
		{name: "no proxies", remote: "192.0.2.7:4000", want: "192.0.2.7"},
		{name: "untrusted peer ignores header", remote: "192.0.2.7:4000", xff: []string{"203.0.113.9"}, want: "192.0.2.7"},
		{name: "trusted peer", remote: "10.0.0.1:80", xff: []string{"203.0.113.9"}, tp: proxies, want: "203.0.113.9"},
		{name: "rightmost untrusted hop wins", remote: "10.0.0.1:80", xff: []string{"198.51.100.1, 203.0.113.9, 192.0.2.10"}, tp: proxies, want: "203.0.113.9"},
		{name: "repeated headers", remote: "10.0.0.1:80", xff: []string{"198.51.100.1", "203.0.113.9"}, tp: proxies, want: "203.0.113.9"},
		{name: "all hops trusted", remote: "10.0.0.1:80", xff: []string{"10.0.0.2, 10.0.0.3"}, tp: proxies, want: "10.0.0.2"},
		{name: "garbage hop", remote: "10.0.0.1:80", xff: []string{"not-an-ip"}, tp: proxies, want: "10.0.0.1"},
		{name: "trusted peer without header", remote: "10.0.0.1:80", tp: proxies, want: "10.0.0.1"},
		{name: "unparseable remote", remote: "pipe", tp: proxies, want: "pipe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for _, v := range tc.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			assert.Equal(t, tc.want, tc.tp.ClientIP(req))
		})
	}
}

func TestParseTrustedProxies_Rejects(t *testing.T) {
	_, err := ParseTrustedProxies([]string{"10.0.0.0/33"})
	require.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.internal"})
	require.Error(t, err)
}

func TestLogging_RemoteIsResolvedClient(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := Logging(zap.New(core), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/content", nil)
	req.RemoteAddr = "192.0.2.7:4000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "192.0.2.7", entries[0].ContextMap()["remote"])
	assert.EqualValues(t, http.StatusNoContent, entries[0].ContextMap()["status"])
}

func TestRecover(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error","statusCode":500}`, rec.Body.String())
}
