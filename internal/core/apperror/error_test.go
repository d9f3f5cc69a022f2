package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTemplateProtected(t *testing.T) {
	err := NewTemplateProtected("partner.treatment", "0190a1b2")

	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, "Template record can't be deleted!!", err.Message)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.Equal(t, "partner.treatment", err.Details["model"])
	assert.True(t, IsValidation(err))
}

func TestAsAppError_ThroughWrapping(t *testing.T) {
	base := NewNotFound("partner", "42")
	wrapped := fmt.Errorf("load partner: %w", base)

	got, ok := AsAppError(wrapped)
	assert.True(t, ok)
	assert.Same(t, base, got)
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(wrapped))
}

func TestGetHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
}

func TestAppError_ErrorString(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternal(cause)

	assert.Contains(t, err.Error(), CodeInternal)
	assert.Contains(t, err.Error(), "connection reset")
	assert.ErrorIs(t, err, cause)
}
