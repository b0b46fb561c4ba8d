//go:build integration

package integration

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"
)

func signUpAndLogin(t *testing.T, cfg Cfg, username string) string {
	t.Helper()
	HTTPDoJSON(t, http.MethodPost, cfg.APIBase+"/user", "", map[string]string{
		"name": "IT " + username, "username": username, "password": "secret123",
	}, http.StatusCreated)
	login := HTTPDoJSON(t, http.MethodPost, cfg.APIBase+"/user/login", "", map[string]string{
		"username": username, "password": "secret123",
	}, http.StatusCreated)
	tok, _ := login["accessToken"].(string)
	if tok == "" {
		t.Fatalf("login returned no token: %v", login)
	}
	return tok
}

func TestSessionLifecycle(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.APIBase+"/healthz", 60*time.Second)
	db := DBOpen(t, cfg.DBDSN)
	rdb := RedisClient(t, cfg.RedisAddr)

	username := "it-" + RandSuffix()
	t.Cleanup(func() { DeleteUser(t, db, username) })

	tok := signUpAndLogin(t, cfg, username)

	me := HTTPDoJSON(t, http.MethodGet, cfg.APIBase+"/user/me", tok, nil, http.StatusOK)
	if me["username"] != username {
		t.Fatalf("me: got %v", me)
	}
	if n := CountOutbox(t, db, 1, username); n != 1 {
		t.Fatalf("user.registered outbox rows: got %d want 1", n)
	}

	HTTPDoJSON(t, http.MethodPost, cfg.APIBase+"/user/logout", tok, nil, http.StatusOK)
	HTTPDoJSON(t, http.MethodGet, cfg.APIBase+"/user/me", tok, nil, http.StatusUnauthorized)

	sum := sha256.Sum256([]byte(tok))
	key := cfg.RevokedPrefix + base64.RawURLEncoding.EncodeToString(sum[:])
	ttl, err := rdb.TTL(context.Background(), key).Result()
	if err != nil {
		t.Fatalf("[redis] ttl: %v", err)
	}
	if ttl <= 0 || ttl > 24*time.Hour {
		t.Fatalf("revocation entry ttl out of range: %s", ttl)
	}

	// the wrong password never yields a token
	bad := HTTPDoJSON(t, http.MethodPost, cfg.APIBase+"/user/login", "", map[string]string{
		"username": username, "password": "not-the-password",
	}, http.StatusUnauthorized)
	if _, ok := bad["accessToken"]; ok {
		t.Fatalf("token leaked on failed login: %v", bad)
	}
}

func TestContentLifecycleEmitsEvents(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.APIBase+"/healthz", 60*time.Second)
	db := DBOpen(t, cfg.DBDSN)

	username := "it-" + RandSuffix()
	t.Cleanup(func() { DeleteUser(t, db, username) })
	tok := signUpAndLogin(t, cfg, username)

	created := HTTPDoJSON(t, http.MethodPost, cfg.APIBase+"/content", tok, map[string]any{
		"videoUrl": getenv("IT_VIDEO_URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"),
		"comment":  "integration",
		"rating":   4,
	}, http.StatusCreated)
	id := int64(created["id"].(float64))
	path := fmt.Sprintf("%s/content/%d", cfg.APIBase, id)

	HTTPDoJSON(t, http.MethodPatch, path, tok, map[string]any{"comment": "changed", "rating": 2}, http.StatusOK)
	HTTPDoJSON(t, http.MethodDelete, path, tok, nil, http.StatusOK)
	HTTPDoJSON(t, http.MethodGet, path, "", nil, http.StatusNotFound)

	if os.Getenv("IT_SKIP_KAFKA") != "" {
		t.Skip("IT_SKIP_KAFKA set")
	}
	key := strconv.FormatInt(id, 10)
	for _, typ := range []string{"content.created", "content.updated", "content.deleted"} {
		if _, ok := WaitEvent(t, cfg, typ, key, 30*time.Second); !ok {
			t.Fatalf("[kafka] %s for content %d not seen", typ, id)
		}
	}
}
