package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/sagarc03/photoblog"
	"github.com/sagarc03/photoblog/objectstore/filesystem"
)

// ObjectServer is the local object store served under /objects/.
type ObjectServer interface {
	Open(ctx context.Context, key string) (*os.File, error)
	Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error
}

func (h *Handler) handleGetObject(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if !photoblog.IsValidKey(key) {
		WriteError(w, http.StatusBadRequest, photoblog.KindValidationFailed, "Invalid object key")
		return
	}

	f, err := h.config.Objects.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, photoblog.ErrObjectNotFound) {
			WriteError(w, http.StatusNotFound, photoblog.KindNotFound, "Object not found")
			return
		}
		HandleError(w, err)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", filesystem.ContentType(key))
	http.ServeContent(w, r, key, info.ModTime(), f)
}

func (h *Handler) handlePutObject(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if !photoblog.IsValidKey(key) {
		WriteError(w, http.StatusBadRequest, photoblog.KindValidationFailed, "Invalid object key")
		return
	}

	if h.config.MaxUploadSize > 0 && r.ContentLength > h.config.MaxUploadSize {
		WriteError(w, http.StatusRequestEntityTooLarge, photoblog.KindValidationFailed, "Request body too large")
		return
	}

	body := io.Reader(r.Body)
	if h.config.MaxUploadSize > 0 {
		body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	if err := h.config.Objects.Put(r.Context(), key, body, r.ContentLength, r.Header.Get("Content-Type")); err != nil {
		HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
