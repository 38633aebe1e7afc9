package http_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sagarc03/photoblog"
	photobloghttp "github.com/sagarc03/photoblog/http"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{name: "validation", err: photoblog.ErrValidationFailed, wantCode: http.StatusBadRequest, wantKind: "validation_failed"},
		{name: "not found", err: photoblog.ErrNotFound, wantCode: http.StatusNotFound, wantKind: "not_found"},
		{name: "conflict", err: photoblog.ErrConflictOnCleanup, wantCode: http.StatusConflict, wantKind: "conflict_on_cleanup"},
		{name: "unauthorized", err: photoblog.ErrUnauthorized, wantCode: http.StatusUnauthorized, wantKind: "unauthorized"},
		{name: "store unavailable", err: photoblog.ErrStoreUnavailable, wantCode: http.StatusServiceUnavailable, wantKind: "store_unavailable"},
		{name: "unknown error", err: errors.New("some unexpected error"), wantCode: http.StatusServiceUnavailable, wantKind: "store_unavailable"},
		{name: "wrapped not found", err: errors.Join(errors.New("context"), photoblog.ErrNotFound), wantCode: http.StatusNotFound, wantKind: "not_found"},
		{name: "body too large", err: fmt.Errorf("decode: %w", &http.MaxBytesError{Limit: 10}), wantCode: http.StatusRequestEntityTooLarge, wantKind: "validation_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			photobloghttp.HandleError(rec, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), `"success":false`)
			assert.Contains(t, rec.Body.String(), `"error":"`+tt.wantKind+`"`)
		})
	}
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, photobloghttp.StatusForKind(photoblog.KindValidationFailed))
	assert.Equal(t, http.StatusServiceUnavailable, photobloghttp.StatusForKind("something_else"))
}

func TestWriteError_Success(t *testing.T) {
	rec := httptest.NewRecorder()

	photobloghttp.WriteError(rec, http.StatusBadRequest, "validation_failed", "Invalid request")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":false,"error":"validation_failed","message":"Invalid request"}`, rec.Body.String())
}

func TestWriteData_Success(t *testing.T) {
	rec := httptest.NewRecorder()

	photobloghttp.WriteData(rec, http.StatusCreated, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"key":"value"}}`, rec.Body.String())
}

func TestWriteJSON_Success(t *testing.T) {
	rec := httptest.NewRecorder()

	data := map[string]string{"key": "value"}
	err := photobloghttp.WriteJSON(rec, http.StatusOK, data)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"key":"value"`)
}

func TestWriteJSON_EncodingError(t *testing.T) {
	rec := httptest.NewRecorder()

	// Channels cannot be JSON encoded
	data := make(chan int)
	err := photobloghttp.WriteJSON(rec, http.StatusOK, data)

	assert.Error(t, err)
}
