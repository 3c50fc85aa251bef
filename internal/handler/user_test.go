package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/xpboard/internal/auth"
)

func TestMe(t *testing.T) {
	env := setupEnv(t)
	u := env.addUser(t, "user_alice", "Alice")

	rec := httptest.NewRecorder()
	env.userH.Me(rec, request("GET", "/api/me", nil, "user_alice"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	resp := decode(t, rec)
	if resp["userId"] != u.ID {
		t.Errorf("userId = %v, want %q", resp["userId"], u.ID)
	}
}

func TestMeUnknownUser(t *testing.T) {
	env := setupEnv(t)

	rec := httptest.NewRecorder()
	env.userH.Me(rec, request("GET", "/api/me", nil, "user_ghost"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	resp := decode(t, rec)
	if resp["success"] != false || resp["error"] != "User not found" {
		t.Errorf("body = %v", resp)
	}
}

func TestSyncMirrorsIdentity(t *testing.T) {
	env := setupEnv(t)

	id := auth.Identity{
		Subject:  "user_carol",
		Email:    "carol@example.com",
		Name:     "Carol",
		Username: "carol",
		Image:    "https://img.example.com/carol.png",
	}
	req := httptest.NewRequest("POST", "/api/me/sync", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	env.userH.Sync(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	u, err := env.users.GetByExternalID(context.Background(), "user_carol")
	if err != nil || u == nil {
		t.Fatalf("GetByExternalID = %v, %v", u, err)
	}
	if u.Name != "Carol" || u.Email != "carol@example.com" {
		t.Errorf("user = %+v", u)
	}
	if u.Username == nil || *u.Username != "carol" {
		t.Errorf("username = %v, want carol", u.Username)
	}

	// A second sync updates in place.
	id.Name = "Carol B."
	req = httptest.NewRequest("POST", "/api/me/sync", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), id))
	env.userH.Sync(httptest.NewRecorder(), req)

	again, _ := env.users.GetByExternalID(context.Background(), "user_carol")
	if again.ID != u.ID {
		t.Errorf("ID changed from %q to %q", u.ID, again.ID)
	}
	if again.Name != "Carol B." {
		t.Errorf("Name = %q, want %q", again.Name, "Carol B.")
	}
}

func TestSyncAnonymous(t *testing.T) {
	env := setupEnv(t)

	rec := httptest.NewRecorder()
	env.userH.Sync(rec, httptest.NewRequest("POST", "/api/me/sync", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
