package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/xpboard/internal/challenge"
	"github.com/dukerupert/xpboard/internal/post"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeFailure writes the {success:false,error} shape the UI expects from
// mutations.
func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func challengeStatus(err error) int {
	switch challenge.KindOf(err) {
	case challenge.KindUnauthenticated:
		return http.StatusUnauthorized
	case challenge.KindNotAParticipant:
		return http.StatusForbidden
	case challenge.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func postStatus(err error) int {
	switch post.KindOf(err) {
	case post.KindUnauthenticated:
		return http.StatusUnauthorized
	case post.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
