package util

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(rec, ErrCredentialRequired)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, ContentTypeJSON, rec.Header().Get(HeaderContentType))
	assert.JSONEq(t, `{"error":"API key required"}`, rec.Body.String())
}

func TestWriteError_PlainError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestErrorJSON(t *testing.T) {
	t.Parallel()

	assert.JSONEq(t, `{"error":"Bad Gateway"}`, string(ErrorJSON(ErrBadGateway)))
}

func TestStatusCapturingResponseWriter(t *testing.T) {
	t.Parallel()

	t.Run("default status", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		w := NewStatusCapturingResponseWriter(rec)

		n, err := w.Write([]byte("hello"))

		assert.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, http.StatusOK, w.StatusCode)
		assert.Equal(t, 5, w.BytesWritten)
		assert.True(t, w.HeaderWritten)
	})

	t.Run("first WriteHeader wins", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		w := NewStatusCapturingResponseWriter(rec)

		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusInternalServerError)

		assert.Equal(t, http.StatusTeapot, w.StatusCode)
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("flush", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		w := NewStatusCapturingResponseWriter(rec)
		w.Flush()
		assert.True(t, rec.Flushed)
	})
}
