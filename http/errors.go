package http

import (
	"net/http"

	"github.com/sagarc03/photoblog"
)

// StatusForKind returns the HTTP status reported for an error kind.
func StatusForKind(kind string) int {
	switch kind {
	case photoblog.KindValidationFailed:
		return http.StatusBadRequest
	case photoblog.KindNotFound:
		return http.StatusNotFound
	case photoblog.KindConflictOnCleanup:
		return http.StatusConflict
	case photoblog.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusServiceUnavailable
	}
}
