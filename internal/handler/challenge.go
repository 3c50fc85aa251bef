package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/xpboard/internal/auth"
	"github.com/dukerupert/xpboard/internal/challenge"
	"github.com/dukerupert/xpboard/internal/viewcache"
)

// ViewCache holds rendered list responses keyed by view path. Get reports
// the generation it looked under; Set stores under that generation so a body
// rendered before an invalidation is never served after it.
type ViewCache interface {
	Get(ctx context.Context, path string) (body []byte, gen int64, ok bool)
	Set(ctx context.Context, path string, gen int64, body []byte)
}

type ChallengeHandler struct {
	svc    *challenge.Service
	cache  ViewCache
	logger *slog.Logger
}

func NewChallengeHandler(svc *challenge.Service, cache ViewCache, logger *slog.Logger) *ChallengeHandler {
	return &ChallengeHandler{svc: svc, cache: cache, logger: logger}
}

type challengeRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	XPReward    int    `json:"xpReward"`
	DueDate     string `json:"dueDate"`
}

// parseDate accepts RFC 3339 timestamps and bare YYYY-MM-DD dates.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	due, err := parseDate(req.DueDate)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid due date")
		return
	}

	c, err := h.svc.Create(r.Context(), auth.Caller(r.Context()), challenge.Input{
		Title:       req.Title,
		Description: req.Description,
		XPReward:    req.XPReward,
		DueDate:     due,
	})
	if err != nil {
		writeFailure(w, challengeStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "challenge": c})
}

// List serves the challenge listing, from the view cache when warm.
func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, gen, ok := h.cache.Get(ctx, viewcache.ChallengesPath)
	if ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.Write(body)
		return
	}

	views, err := h.svc.List(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	body, err = json.Marshal(views)
	if err != nil {
		h.logger.Error("encode challenges", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": challenge.MsgFetchFailed})
		return
	}
	h.cache.Set(ctx, viewcache.ChallengesPath, gen, body)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.Write(body)
}

func (h *ChallengeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeFailure(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.svc.ToggleCompletion(r.Context(), auth.Caller(r.Context()), id); err != nil {
		writeFailure(w, challengeStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
