package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTypePredicatesSeeThroughWrapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		is     func(error) bool
		status int
	}{
		{"duplicate key", NewDuplicateKeyError("https://en.wikipedia.org/wiki/Moon", 3), IsDuplicateKey, http.StatusConflict},
		{"not found", NewNotFoundError("node 7"), IsNotFound, http.StatusNotFound},
		{"invalid format", NewInvalidFormatError("Invalid graph file"), IsInvalidFormat, http.StatusBadRequest},
		{"fetch failed", NewFetchFailedError("https://example.org", errors.New("HTTP 502")), IsFetchFailed, http.StatusBadGateway},
		{"rejected upload", NewRejectedUploadError("setup.exe"), IsRejectedUpload, http.StatusUnsupportedMediaType},
		{"cancelled", NewCancelledError("add node"), IsCancelled, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tt.err)

			assert.True(t, tt.is(wrapped))
			assert.Equal(t, tt.status, HTTPStatusOf(wrapped))
		})
	}

	assert.False(t, IsNotFound(errors.New("plain")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusOf(errors.New("plain")))
}

func TestFetchFailedUnwrapsToCause(t *testing.T) {
	cause := errors.New("connection refused")

	err := NewFetchFailedError("https://example.org", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "load"))

	err := Wrap(NewNotFoundError("snapshot trip"), "load snapshot")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "NOT_FOUND: load snapshot: snapshot trip not found", err.Error())

	err = Wrap(errors.New("disk full"), "save")
	assert.True(t, IsType(err, ErrorTypeInternal))
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		debug       bool
		wantStatus  int
		wantType    string
		wantMessage string
	}{
		{
			name:        "app error keeps its type",
			err:         NewRejectedUploadError("run.sh"),
			wantStatus:  http.StatusUnsupportedMediaType,
			wantType:    "REJECTED_UPLOAD",
			wantMessage: `file type of "run.sh" is not allowed`,
		},
		{
			name:        "plain errors are hidden",
			err:         errors.New("secret path /home/x"),
			wantStatus:  http.StatusInternalServerError,
			wantType:    "INTERNAL",
			wantMessage: "An internal error occurred",
		},
		{
			name:        "debug shows plain errors",
			err:         errors.New("secret path /home/x"),
			debug:       true,
			wantStatus:  http.StatusInternalServerError,
			wantType:    "INTERNAL",
			wantMessage: "secret path /home/x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewErrorHandler(zap.NewNop(), tt.debug)
			rec := httptest.NewRecorder()

			h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v2/graph", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, tt.wantType, body.Type)
			assert.Equal(t, tt.wantMessage, body.Message)
		})
	}
}
