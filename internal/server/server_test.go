package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/xpboard/internal/auth"
	"github.com/dukerupert/xpboard/internal/database"
	"github.com/dukerupert/xpboard/internal/model"
	"github.com/dukerupert/xpboard/internal/store"
	xws "github.com/dukerupert/xpboard/internal/websocket"
)

const testSecret = "server-test-secret"

func setupServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := New(Deps{
		DB:             db,
		Verifier:       auth.NewVerifier(testSecret, ""),
		MaxUploadBytes: 1 << 20,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func token(t *testing.T, id auth.Identity) string {
	t.Helper()
	tok, err := auth.NewVerifier(testSecret, "").Sign(id, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func do(t *testing.T, method, url, tok string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, url, r)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var m map[string]any
	json.Unmarshal(raw, &m)
	return resp, m
}

func TestHealth(t *testing.T) {
	_, ts := setupServer(t)

	resp, body := do(t, "GET", ts.URL+"/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestAPIRequiresIdentity(t *testing.T) {
	_, ts := setupServer(t)

	resp, body := do(t, "GET", ts.URL+"/api/challenges", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if body["error"] != "unauthorized" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestChallengeFlow(t *testing.T) {
	_, ts := setupServer(t)
	alice := token(t, auth.Identity{Subject: "user_alice", Email: "alice@example.com", Name: "Alice"})
	bob := token(t, auth.Identity{Subject: "user_bob", Email: "bob@example.com", Name: "Bob"})

	// Not yet mirrored locally.
	resp, body := do(t, "GET", ts.URL+"/api/me", alice, nil)
	if resp.StatusCode != http.StatusUnauthorized || body["error"] != "User not found" {
		t.Fatalf("me before sync = %d %v", resp.StatusCode, body)
	}

	for _, tok := range []string{alice, bob} {
		if resp, _ := do(t, "POST", ts.URL+"/api/me/sync", tok, nil); resp.StatusCode != http.StatusOK {
			t.Fatalf("sync status = %d", resp.StatusCode)
		}
	}

	resp, body = do(t, "GET", ts.URL+"/api/me", alice, nil)
	if resp.StatusCode != http.StatusOK || body["userId"] == "" {
		t.Fatalf("me after sync = %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, "POST", ts.URL+"/api/challenges", alice, map[string]any{
		"title": "Run 5k", "description": "Outdoors", "xpReward": 50,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body %v", resp.StatusCode, body)
	}
	id := body["challenge"].(map[string]any)["id"].(string)

	resp, body = do(t, "POST", ts.URL+"/api/challenges/"+id+"/toggle", alice, nil)
	if resp.StatusCode != http.StatusOK || body["success"] != true {
		t.Fatalf("toggle = %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, "POST", ts.URL+"/api/challenges/"+id+"/toggle", bob, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("bob toggle status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
	if body["error"] != "You are not a participant of this challenge" {
		t.Errorf("bob toggle error = %v", body["error"])
	}

	req, _ := http.NewRequest("GET", ts.URL+"/api/challenges", nil)
	req.AddCookie(&http.Cookie{Name: "__session", Value: bob})
	listResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer listResp.Body.Close()
	var views []model.ChallengeView
	if err := json.NewDecoder(listResp.Body).Decode(&views); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("len(views) = %d, want 1", len(views))
	}
	if len(views[0].Participants) != 1 || !views[0].Participants[0].Completed {
		t.Errorf("participants = %+v, want alice completed", views[0].Participants)
	}
}

func TestMutationRateLimit(t *testing.T) {
	srv, ts := setupServer(t)
	alice := token(t, auth.Identity{Subject: "user_alice"})

	for i := 0; i < mutationLimit; i++ {
		srv.RateLimiter().Allow("sub:user_alice")
	}

	resp, _ := do(t, "POST", ts.URL+"/api/me/sync", alice, nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}

	// Reads are not limited.
	resp, _ = do(t, "GET", ts.URL+"/api/challenges", alice, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("list status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestWebSocketInvalidation(t *testing.T) {
	srv, ts := setupServer(t)

	db := srv.db
	if _, err := store.NewUserStore(db).Upsert(context.Background(), model.User{ExternalID: "user_alice", Name: "Alice"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?path=/challenges"
	conn, _, err := ws.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	for srv.Hub().ClientCount() == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("client never registered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	alice := token(t, auth.Identity{Subject: "user_alice"})
	if resp, body := do(t, "POST", ts.URL+"/api/challenges", alice, map[string]any{"title": "Run 5k"}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("create = %d %v", resp.StatusCode, body)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg xws.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != xws.TypeViewInvalidated || msg.Path != "/challenges" {
		t.Errorf("message = %+v", msg)
	}
}
