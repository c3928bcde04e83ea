package yggdrasil

import (
	"fmt"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestDomainErrorClassification(t *testing.T) {
	assert.True(t, IsInvalidCredentials(ErrInvalidUser))
	assert.True(t, IsInvalidCredentials(ErrWrongPassword))
	assert.True(t, IsInvalidToken(ErrInvalidToken))
	assert.True(t, IsReassignProfile(ErrReassignProfile))

	assert.False(t, IsInvalidCredentials(ErrInvalidToken))
	assert.False(t, IsInvalidToken(ErrInvalidUser))
	assert.False(t, IsDomainError(fmt.Errorf("disk on fire")))
	assert.False(t, IsDomainError(nil))
}

func TestWrapQueryError(t *testing.T) {
	assert.Nil(t, wrapQueryError(nil, "lookup failed"))

	// domain conditions pass through so boundary mapping still matches
	assert.Equal(t, ErrInvalidToken, wrapQueryError(ErrInvalidToken, "lookup failed"))

	wrapped := wrapQueryError(fmt.Errorf("disk on fire"), "lookup failed")
	assert.False(t, IsDomainError(wrapped))

	var rich *errors.Error
	assert.ErrorAs(t, wrapped, &rich)
	assert.Equal(t, errors.CategoryInternal, rich.Category)
	assert.Equal(t, "lookup failed", rich.Message)
}

// Wrap clones an existing *Error rather than chaining it, so sentinel
// identity does not survive a wrap; the boundary depends on wrapQueryError
// passing domain errors through untouched. The text code and category do
// survive the clone.
func TestWrapKeepsTextCode(t *testing.T) {
	wrapped := errors.Wrap(ErrInvalidUser, errors.CategoryAuth, "login failed")

	var rich *errors.Error
	assert.ErrorAs(t, wrapped, &rich)
	assert.Equal(t, "INVALID_USER", rich.TextCode)
	assert.Equal(t, errors.CategoryAuth, rich.Category)
}
