package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dukerupert/xpboard/internal/auth"
	"github.com/dukerupert/xpboard/internal/challenge"
	"github.com/dukerupert/xpboard/internal/database"
	"github.com/dukerupert/xpboard/internal/model"
	"github.com/dukerupert/xpboard/internal/post"
	"github.com/dukerupert/xpboard/internal/store"
	"github.com/dukerupert/xpboard/internal/viewcache"
)

// memCache mirrors PageCache's generation protocol in memory.
type memCache struct {
	mu      sync.Mutex
	gens    map[string]int64
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{gens: make(map[string]int64), entries: make(map[string][]byte)}
}

func memKey(path string, gen int64) string {
	return fmt.Sprintf("%s@%d", path, gen)
}

func (c *memCache) Get(_ context.Context, path string) ([]byte, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.gens[path]
	b, ok := c.entries[memKey(path, gen)]
	return b, gen, ok
}

func (c *memCache) Set(_ context.Context, path string, gen int64, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[memKey(path, gen)] = body
}

func (c *memCache) Invalidate(_ context.Context, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[path]++
}

// cached reports whether path has a body at its current generation.
func (c *memCache) cached(path string) bool {
	_, _, ok := c.Get(context.Background(), path)
	return ok
}

type testEnv struct {
	db         *sql.DB
	users      *store.UserStore
	challenges *store.ChallengeStore
	cache      *memCache
	challengeH *ChallengeHandler
	postH      *PostHandler
	userH      *UserHandler
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	cs := store.NewChallengeStore(db)
	resolver := auth.NewResolver(users)
	cache := newMemCache()
	inv := viewcache.Fanout{cache}

	return &testEnv{
		db:         db,
		users:      users,
		challenges: cs,
		cache:      cache,
		challengeH: NewChallengeHandler(challenge.NewService(cs, resolver, inv, discardLogger()), cache, discardLogger()),
		postH:      NewPostHandler(post.NewService(store.NewPostStore(db), resolver, inv, discardLogger()), nil, 1<<20, discardLogger()),
		userH:      NewUserHandler(users, resolver, discardLogger()),
	}
}

func (e *testEnv) addUser(t *testing.T, subject, name string) *model.User {
	t.Helper()
	u, err := e.users.Upsert(context.Background(), model.User{ExternalID: subject, Email: subject + "@example.com", Name: name})
	if err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	return u
}

func request(method, target string, body any, subject string) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if subject != "" {
		req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{Subject: subject}))
	}
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return m
}
