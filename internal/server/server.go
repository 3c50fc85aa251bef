package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/xpboard/internal/auth"
	"github.com/dukerupert/xpboard/internal/challenge"
	"github.com/dukerupert/xpboard/internal/handler"
	"github.com/dukerupert/xpboard/internal/media"
	"github.com/dukerupert/xpboard/internal/middleware"
	"github.com/dukerupert/xpboard/internal/post"
	"github.com/dukerupert/xpboard/internal/store"
	"github.com/dukerupert/xpboard/internal/viewcache"
	ws "github.com/dukerupert/xpboard/internal/websocket"
)

// Mutations allowed per caller per minute.
const mutationLimit = 30

// Deps are the external resources the server is built from. Cache and
// Uploader may be nil.
type Deps struct {
	DB             *sql.DB
	Verifier       *auth.Verifier
	Cache          *viewcache.PageCache
	Uploader       *media.Uploader
	MaxUploadBytes int64
	AllowedOrigins []string
	Logger         *slog.Logger
}

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	verifier       *auth.Verifier
	allowedOrigins []string
	challengeH     *handler.ChallengeHandler
	postH          *handler.PostHandler
	userH          *handler.UserHandler
	rateLimiter    *middleware.RateLimiter
	logger         *slog.Logger
}

func New(d Deps) *Server {
	logger := d.Logger
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(d.DB)
	challengeStore := store.NewChallengeStore(d.DB)
	postStore := store.NewPostStore(d.DB)

	resolver := auth.NewResolver(userStore)

	// Every mutation clears the cached view and tells open browsers to refetch.
	invalidator := viewcache.Fanout{d.Cache, hub}

	challengeSvc := challenge.NewService(challengeStore, resolver, invalidator, logger.With("component", "challenge"))
	postSvc := post.NewService(postStore, resolver, invalidator, logger.With("component", "post"))

	return &Server{
		db:             d.DB,
		hub:            hub,
		verifier:       d.Verifier,
		allowedOrigins: d.AllowedOrigins,
		challengeH:     handler.NewChallengeHandler(challengeSvc, d.Cache, logger.With("component", "challenge_handler")),
		postH:          handler.NewPostHandler(postSvc, d.Uploader, d.MaxUploadBytes, logger.With("component", "post_handler")),
		userH:          handler.NewUserHandler(userStore, resolver, logger.With("component", "user_handler")),
		rateLimiter:    middleware.NewRateLimiter(mutationLimit, time.Minute),
		logger:         logger,
	}
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.allowedOrigins))

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	outerMux.Handle("/api/", middleware.RequireIdentity(s.verifier)(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err.Error())
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.CallerKey)(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/me", s.userH.Me)
	mux.Handle("POST /api/me/sync", s.rateLimited(s.userH.Sync))
	mux.HandleFunc("GET /api/me/posts", s.postH.ListMine)

	mux.HandleFunc("GET /api/challenges", s.challengeH.List)
	mux.Handle("POST /api/challenges", s.rateLimited(s.challengeH.Create))
	mux.Handle("POST /api/challenges/{id}/toggle", s.rateLimited(s.challengeH.Toggle))

	mux.Handle("POST /api/posts", s.rateLimited(s.postH.Create))
	mux.Handle("POST /api/uploads/post-image", s.rateLimited(s.postH.UploadImage))
}
