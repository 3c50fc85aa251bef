package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/xpboard/internal/auth"
	"github.com/dukerupert/xpboard/internal/media"
	"github.com/dukerupert/xpboard/internal/post"
)

type PostHandler struct {
	svc       *post.Service
	uploader  *media.Uploader
	maxUpload int64
	logger    *slog.Logger
}

func NewPostHandler(svc *post.Service, uploader *media.Uploader, maxUpload int64, logger *slog.Logger) *PostHandler {
	return &PostHandler{svc: svc, uploader: uploader, maxUpload: maxUpload, logger: logger}
}

type postRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Todos       []string `json:"todos"`
	Date        string   `json:"date"`
	Image       string   `json:"image"`
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid date")
		return
	}
	d := post.Draft{
		Title:       req.Title,
		Description: req.Description,
		Todos:       req.Todos,
	}
	if date != nil {
		d.Date = *date
	}

	p, err := h.svc.Create(r.Context(), auth.Caller(r.Context()), d, req.Image)
	if err != nil {
		writeFailure(w, postStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "post": p, "xp": d.XP()})
}

// UploadImage accepts a multipart "image" field and stores it via the uploader.
func (h *PostHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil || !h.uploader.Enabled() {
		writeFailure(w, http.StatusServiceUnavailable, "image uploads are not configured")
		return
	}

	if r.ContentLength > h.maxUpload {
		writeFailure(w, http.StatusRequestEntityTooLarge, "image is too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, http.StatusRequestEntityTooLarge, "image is too large")
			return
		}
		writeFailure(w, http.StatusBadRequest, "invalid upload")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	url, err := h.uploader.Upload(ctx, header.Filename, header.Header.Get("Content-Type"), file)
	switch {
	case errors.Is(err, media.ErrNotImage), errors.Is(err, media.ErrEmpty):
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("failed to upload image", "error", err.Error())
		writeFailure(w, http.StatusInternalServerError, "Failed to upload image")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "url": url})
}

func (h *PostHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListMine(r.Context(), auth.Caller(r.Context()))
	if err != nil {
		writeFailure(w, postStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, posts)
}
