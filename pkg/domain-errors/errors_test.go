package dErrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	err := New(CodeNotFound, "visitor not found")
	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeBadRequest))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeRetrieval, "failed to retrieve visitors", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to retrieve visitors: connection refused", err.Error())
	assert.Equal(t, "failed to retrieve visitors", MessageOf(err))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, CodePersistence, CodeOf(New(CodePersistence, "save failed")))
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(CodeBadRequest))
	assert.Equal(t, http.StatusNotFound, ToHTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(CodeRetrieval))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(CodePersistence))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(Code("unknown")))
}
