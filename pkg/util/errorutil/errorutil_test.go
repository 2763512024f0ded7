package errorutil

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamFailureCarriesOriginalText(t *testing.T) {
	cause := errors.New("connection refused")

	err := NewUpstreamFailure(cause)

	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, CodeUpstreamFailure, domainErr.Code)
	assert.Equal(t, "connection refused", domainErr.Message)
	assert.ErrorIs(t, err, cause)
}

func TestToDomainErrorPassesDomainErrorsThrough(t *testing.T) {
	original := NewForbidden("nope")

	mapped := ToDomainError(original)

	assert.Equal(t, CodeForbidden, mapped.Code)
	assert.Equal(t, http.StatusForbidden, mapped.HTTPStatus)
}

func TestToDomainErrorMapsNoRowsToNotFound(t *testing.T) {
	mapped := ToDomainError(pgx.ErrNoRows)

	assert.Equal(t, CodeNotFound, mapped.Code)
}

func TestToDomainErrorHidesUnknownErrors(t *testing.T) {
	mapped := ToDomainError(errors.New("pq: relation does not exist"))

	assert.Equal(t, CodeInternalError, mapped.Code)
	assert.Equal(t, "internal server error", mapped.Message)
}

func TestUnknownMessageTypeDetails(t *testing.T) {
	err := NewUnknownMessageType("voicemail")

	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, CodeUnknownMessageType, domainErr.Code)
	assert.Equal(t, "voicemail", domainErr.Details["message_type"])
}
