package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrom(t *testing.T) {
	notDir := New(http.StatusBadRequest, "path is not a directory")

	tests := []struct {
		name string
		err  error
		want *Error
	}{
		{"classified", notDir, notDir},
		{"wrapped", fmt.Errorf("delete docs: %w", notDir), notDir},
		{"unclassified", errors.New("disk full"), InternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, From(tt.err))
		})
	}
}

func TestWrite(t *testing.T) {
	w := httptest.NewRecorder()

	e := Write(w, fmt.Errorf("open: %w", NotFound))
	assert.Same(t, NotFound, e)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not found", body.Error)
}

func TestWrite_HidesInternalCause(t *testing.T) {
	w := httptest.NewRecorder()

	Write(w, errors.New("open /srv/files/alice: permission denied"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}
