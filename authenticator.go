package yggdrasil

import (
	"context"
	"strings"

	"github.com/uptrace/bun"
)

// CredentialVerifier matches a login request to exactly one account. It has
// no side effects of its own and always runs inside the caller's
// transaction.
type CredentialVerifier struct {
	users    Users
	profiles Profiles
	logger   Logger
}

func NewCredentialVerifier(users Users, profiles Profiles) *CredentialVerifier {
	return &CredentialVerifier{
		users:    users,
		profiles: profiles,
		logger:   defLogger{},
	}
}

func (v *CredentialVerifier) WithLogger(logger Logger) *CredentialVerifier {
	if logger != nil {
		v.logger = logger
	}
	return v
}

// Verify resolves the username/password pair to a user and, in the
// "displayName:email" form, the named profile. Two modes, tried in order:
//
//  1. A username containing ":" splits into displayName:email. The account
//     must match email and password and own a profile with that display
//     name; the profile is resolved for binding.
//  2. Otherwise the username is the email; the login is account-only and the
//     profile is chosen at refresh time.
//
// The password participates in the match predicate rather than being checked
// separately, so a wrong password and an unknown account are both
// ErrInvalidUser. ErrWrongPassword stays reserved for a dedicated hash
// verification step.
func (v *CredentialVerifier) Verify(ctx context.Context, tx bun.IDB, username, password string) (*User, *Profile, error) {
	if displayName, email, ok := strings.Cut(username, ":"); ok {
		user, err := v.users.GetByCredentialsTx(ctx, tx, email, password)
		if err != nil {
			return nil, nil, wrapQueryError(err, "credential lookup failed")
		}
		if user == nil {
			return nil, nil, ErrInvalidUser
		}

		profile, err := v.profiles.GetByDisplayNameTx(ctx, tx, displayName)
		if err != nil {
			return nil, nil, wrapQueryError(err, "profile lookup failed")
		}
		if profile == nil || profile.OwnerID != user.ID {
			v.logger.Debug("login rejected: profile %q does not belong to account", displayName)
			return nil, nil, ErrInvalidUser
		}

		return user, profile, nil
	}

	user, err := v.users.GetByCredentialsTx(ctx, tx, username, password)
	if err != nil {
		return nil, nil, wrapQueryError(err, "credential lookup failed")
	}
	if user == nil {
		return nil, nil, ErrInvalidUser
	}

	return user, nil, nil
}
