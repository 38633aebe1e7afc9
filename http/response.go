package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/photoblog"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// DataResponse is the envelope of every successful response.
type DataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ListResponse is the envelope of a photo listing.
type ListResponse struct {
	Success     bool                  `json:"success"`
	Data        []photoblog.PhotoView `json:"data"`
	TotalPages  int                   `json:"totalPages"`
	CurrentPage int                   `json:"currentPage"`
	Total       int                   `json:"total"`
	PageSize    int                   `json:"pageSize"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError logs err and writes the error envelope for its kind.
func HandleError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusRequestEntityTooLarge, photoblog.KindValidationFailed, "Request body too large")
		return
	}

	kind := photoblog.Kind(err)
	code := StatusForKind(kind)

	switch kind {
	case photoblog.KindStoreUnavailable:
		slog.Error("request error", "kind", kind, "error", err)
		WriteError(w, code, kind, "Storage is temporarily unavailable")
	case photoblog.KindConflictOnCleanup:
		slog.Error("request error", "kind", kind, "error", err)
		WriteError(w, code, kind, err.Error())
	default:
		slog.Warn("request error", "kind", kind, "error", err)
		WriteError(w, code, kind, err.Error())
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

// WriteData writes data inside the success envelope.
func WriteData(w http.ResponseWriter, code int, data any) {
	if err := WriteJSON(w, code, DataResponse{Success: true, Data: data}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
