package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUpstreamErrorMapping(t *testing.T) {
	tests := []struct {
		status     int
		code       string
		httpStatus int
	}{
		{http.StatusBadRequest, CodeValidation, http.StatusBadRequest},
		{http.StatusUnprocessableEntity, CodeValidation, http.StatusBadRequest},
		{http.StatusUnauthorized, CodeUnauthorized, http.StatusUnauthorized},
		{http.StatusForbidden, CodeForbidden, http.StatusForbidden},
		{http.StatusNotFound, CodeNotFound, http.StatusNotFound},
		{http.StatusConflict, CodeConflict, http.StatusConflict},
		{http.StatusInternalServerError, CodeUpstreamFailed, http.StatusBadGateway},
		{http.StatusTeapot, CodeUpstreamFailed, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			de := ToDomainError(NewUpstreamError(http.MethodGet, "/v1/tickets", tt.status, ""))
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, tt.httpStatus, de.HTTPStatus)
			assert.Equal(t, tt.status, de.Details["upstream_status"])
			assert.Contains(t, de.Message, "failed with status")
		})
	}
}

func TestNewUpstreamErrorKeepsBackendMessage(t *testing.T) {
	err := NewUpstreamError(http.MethodPost, "/v1/tickets", http.StatusBadRequest, "  title too short ")
	assert.Equal(t, "title too short", err.Error())
}

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	wrapped := fmt.Errorf("loading: %w", NewNotFound("ticket", nil))
	de := ToDomainError(wrapped)
	assert.Equal(t, CodeNotFound, de.Code)
	assert.Equal(t, "ticket not found", de.Message)
	assert.NotNil(t, de.Details)

	plain := ToDomainError(errors.New("boom"))
	assert.Equal(t, CodeInternal, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.HTTPStatus)
	assert.Equal(t, "internal server error: boom", plain.Error())
}

func TestHasCodeAndUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewUpstreamUnavailable(http.MethodGet, "/v1/health", cause)

	assert.True(t, HasCode(err, CodeUpstreamUnavailable))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(cause, CodeUpstreamUnavailable))
	require.ErrorIs(t, err, cause)
}
