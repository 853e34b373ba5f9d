package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneStillMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("enroll: %w", Clone(ErrModuleFull, "CS101 has no seats left"))

	assert.ErrorIs(t, err, ErrModuleFull)
	assert.NotErrorIs(t, err, ErrAlreadyEnrolled)
	assert.Equal(t, KindCapacity, KindOf(err))
	assert.Equal(t, "module is full", ErrModuleFull.Message)
}

func TestRemoteCarriesUpstreamStatus(t *testing.T) {
	cause := errors.New("500 Internal Server Error")
	err := Remote(cause, http.StatusInternalServerError, "")

	assert.ErrorIs(t, err, ErrRemote)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, err.UpstreamStatus)
	assert.Equal(t, http.StatusBadGateway, err.Status)
	assert.Equal(t, KindRemote, KindOf(err))
}

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	assert.Nil(t, FromError(nil))

	got := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestKindForStatus(t *testing.T) {
	cases := map[int]Kind{
		http.StatusBadRequest:          KindValidation,
		http.StatusForbidden:           KindAuthorization,
		http.StatusNotFound:            KindNotFound,
		http.StatusPreconditionFailed:  KindConflict,
		http.StatusServiceUnavailable:  KindRemote,
		http.StatusInternalServerError: KindInternal,
	}
	for status, kind := range cases {
		assert.Equal(t, kind, New("X", status, "x").Kind, "status %d", status)
	}
	assert.True(t, HasCode(Wrap(errors.New("bad json"), ErrValidation.Code, http.StatusBadRequest, "invalid"), "VALIDATION_ERROR"))
}
