package errors

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(http.StatusNotFound, "NOT_FOUND", "thing not found")

	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "NOT_FOUND", err.ErrorCode)
	assert.Equal(t, "thing not found", err.Message)
	assert.Equal(t, "thing not found", err.Error())
	assert.Nil(t, err.Details)
}

func TestNewWithDetails(t *testing.T) {
	details := map[string]string{"file": "2024.csv"}
	err := NewWithDetails(http.StatusBadRequest, "PARSE_FAILED", "could not parse file", details)

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, details, err.Details)
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("source", "Source institution is required")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)

	ve, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "source", ve.Field)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeSessionNotFound,
		"Session Not Found",
		"no session with that id",
		"/api/sessions/abc",
	).WithExtension("trace_id", "t-1")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, TypeSessionNotFound, decoded["type"])
	assert.Equal(t, "Session Not Found", decoded["title"])
	assert.Equal(t, float64(http.StatusNotFound), decoded["status"])
	assert.Equal(t, "no session with that id", decoded["detail"])
	assert.Equal(t, "/api/sessions/abc", decoded["instance"])
	assert.Equal(t, "t-1", decoded["trace_id"])
}

func TestProblemDetails_OmitsEmptyFields(t *testing.T) {
	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal", "", "")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	_, hasDetail := decoded["detail"]
	_, hasInstance := decoded["instance"]
	assert.False(t, hasDetail)
	assert.False(t, hasInstance)
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(ErrSessionNotFound)

	assert.False(t, resp.Success)
	assert.Equal(t, "SESSION_NOT_FOUND", resp.Error.ErrorCode)
}
