package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/xpboard/internal/auth"
	"github.com/dukerupert/xpboard/internal/model"
)

type UserStore interface {
	Upsert(ctx context.Context, u model.User) (*model.User, error)
}

type Resolver interface {
	Resolve(ctx context.Context, caller *auth.Identity) (*model.User, error)
}

type UserHandler struct {
	users    UserStore
	resolver Resolver
	logger   *slog.Logger
}

func NewUserHandler(users UserStore, resolver Resolver, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, resolver: resolver, logger: logger}
}

// Me resolves the caller to a local user id.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.resolver.Resolve(r.Context(), auth.Caller(r.Context()))
	if err != nil {
		h.logger.Error("resolve caller", "error", err.Error())
		writeFailure(w, http.StatusInternalServerError, "Failed to resolve user")
		return
	}
	if u == nil {
		writeFailure(w, http.StatusUnauthorized, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "userId": u.ID})
}

// Sync mirrors the caller's identity claims into the local users table.
func (h *UserHandler) Sync(w http.ResponseWriter, r *http.Request) {
	caller := auth.Caller(r.Context())
	if caller == nil || caller.Subject == "" {
		writeFailure(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var username *string
	if caller.Username != "" {
		username = &caller.Username
	}

	u, err := h.users.Upsert(r.Context(), model.User{
		ExternalID: caller.Subject,
		Email:      caller.Email,
		Name:       caller.Name,
		Username:   username,
		Image:      caller.Image,
	})
	if err != nil {
		h.logger.Error("failed to sync user", "error", err.Error())
		writeFailure(w, http.StatusInternalServerError, "Failed to sync user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
}
