package yggdrasil

import (
	"github.com/goliatone/go-errors"
)

// ErrInvalidUser is returned when no account matches the given credentials
var ErrInvalidUser = errors.New("invalid username or password", errors.CategoryAuth).
	WithTextCode("INVALID_USER").
	WithCode(errors.CodeUnauthorized)

// ErrWrongPassword is reserved for a future salted-hash verification step.
// Today the password is part of the account match predicate, so a bad
// password surfaces as ErrInvalidUser; the sentinel exists so the boundary
// mapping is already in place when hashing lands.
var ErrWrongPassword = errors.New("wrong password", errors.CategoryAuth).
	WithTextCode("WRONG_PASSWORD").
	WithCode(errors.CodeUnauthorized)

// ErrInvalidToken is returned when an access token cannot be resolved or is
// permanently invalid
var ErrInvalidToken = errors.New("invalid access token", errors.CategoryAuth).
	WithTextCode("INVALID_TOKEN").
	WithCode(errors.CodeUnauthorized)

// ErrReassignProfile is returned when a refresh tries to bind a token that
// already carries a different profile
var ErrReassignProfile = errors.New("access token already has a profile bound", errors.CategoryConflict).
	WithTextCode("REASSIGN_PROFILE").
	WithCode(errors.CodeConflict)

// IsInvalidCredentials reports whether the error maps to the boundary's
// "invalid credentials" condition.
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidUser) || errors.Is(err, ErrWrongPassword)
}

// IsInvalidToken reports whether the error maps to "invalid token".
func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

// IsReassignProfile reports whether the error maps to the reassign-profile
// conflict.
func IsReassignProfile(err error) bool {
	return errors.Is(err, ErrReassignProfile)
}

// IsDomainError reports whether the error is one of the four conditions the
// transactions produce on purpose, as opposed to a persistence failure.
func IsDomainError(err error) bool {
	return IsInvalidCredentials(err) || IsInvalidToken(err) || IsReassignProfile(err)
}

// wrapQueryError normalizes persistence failures. Domain conditions pass
// through untouched so the boundary mapping keeps working after a wrap.
func wrapQueryError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return errors.Wrap(err, errors.CategoryInternal, msg)
}
