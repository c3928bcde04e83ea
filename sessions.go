package yggdrasil

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// SessionService owns the login, refresh, validate, invalidate, and signout
// transactions. Each one opens a single transaction through the repository
// manager; the verifier resolves the account, the lifecycle engine
// rebalances that account's tokens, and the binder issues the new row before
// the transaction commits. Presentation happens outside the transaction.
type SessionService struct {
	repo      RepositoryManager
	verifier  *CredentialVerifier
	lifecycle *TokenLifecycle
	logger    Logger
}

// SessionResult is what a successful login or refresh resolves to, before
// presentation.
type SessionResult struct {
	User              *User
	Profile           *Profile
	AvailableProfiles []*Profile
	AccessToken       string
	ClientToken       string
}

func NewSessionService(repo RepositoryManager, policy TokenPolicy) *SessionService {
	return &SessionService{
		repo:      repo,
		verifier:  NewCredentialVerifier(repo.Users(), repo.Profiles()),
		lifecycle: NewTokenLifecycle(repo.Tokens(), repo.Settings(), policy),
		logger:    defLogger{},
	}
}

func (s *SessionService) WithLogger(logger Logger) *SessionService {
	if logger != nil {
		s.logger = logger
		s.verifier.WithLogger(logger)
		s.lifecycle.WithLogger(logger)
	}
	return s
}

// WithClock overrides the lifecycle time source. Used by tests.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.lifecycle.WithClock(now)
	return s
}

// Lifecycle exposes the engine for maintenance sweeps.
func (s *SessionService) Lifecycle() *TokenLifecycle {
	return s.lifecycle
}

// issueToken creates a fresh token row bound to the user and, when given, a
// profile. The caller supplies the access and client token values; the row
// starts available.
func (s *SessionService) issueToken(ctx context.Context, tx bun.IDB, user *User, profile *Profile, accessToken, clientToken string) (*Token, error) {
	record := &Token{
		AccessToken: accessToken,
		ClientToken: clientToken,
		OwnerID:     user.ID,
		Status:      TokenAvailable,
	}
	if profile != nil {
		record.ProfileID = &profile.ID
	}

	return s.repo.Tokens().CreateTx(ctx, tx, record)
}

// Login authenticates a username/password pair and issues a fresh token.
// clientToken may be empty, in which case one is generated.
func (s *SessionService) Login(ctx context.Context, username, password, clientToken string) (*SessionResult, error) {
	result := &SessionResult{}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, profile, err := s.verifier.Verify(ctx, tx, username, password)
		if err != nil {
			return err
		}

		if err := s.lifecycle.Rebalance(ctx, tx, user.ID); err != nil {
			return wrapQueryError(err, "token rebalance failed")
		}

		available, err := s.repo.Profiles().ListByOwnerTx(ctx, tx, user.ID)
		if err != nil {
			return wrapQueryError(err, "profile listing failed")
		}

		result.User = user
		result.Profile = profile
		result.AvailableProfiles = available
		result.AccessToken = NewAccessToken()
		result.ClientToken = clientToken
		if result.ClientToken == "" {
			result.ClientToken = NewClientToken()
		}

		_, err = s.issueToken(ctx, tx, user, profile, result.AccessToken, result.ClientToken)
		return wrapQueryError(err, "token issuance failed")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("issued token for user %d", result.User.ID)
	return result, nil
}

// Refresh exchanges an existing token for a fresh one. selectedUUID is the
// wire id of the profile the client wants bound, or "" for no selection; an
// unresolvable id counts as no selection. A token's profile binding is set
// at most once: refreshing with a different profile fails with
// ErrReassignProfile, refreshing with no selection preserves the binding.
func (s *SessionService) Refresh(ctx context.Context, accessToken, clientToken, selectedUUID string) (*SessionResult, error) {
	result := &SessionResult{}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		token, err := s.repo.Tokens().GetByAccessTokenTx(ctx, tx, accessToken, clientToken)
		if err != nil {
			return wrapQueryError(err, "token lookup failed")
		}
		if token == nil {
			return ErrInvalidToken
		}

		if err := s.lifecycle.Rebalance(ctx, tx, token.OwnerID); err != nil {
			return wrapQueryError(err, "token rebalance failed")
		}

		// The rebalance may have demoted or evicted the token; decide on
		// its committed state, not the pre-walk snapshot.
		token, err = s.repo.Tokens().GetByAccessTokenTx(ctx, tx, accessToken, clientToken)
		if err != nil {
			return wrapQueryError(err, "token lookup failed")
		}
		if token == nil || token.Status == TokenInvalid {
			return ErrInvalidToken
		}

		profile := token.Profile
		if selectedUUID != "" {
			selected, err := s.repo.Profiles().GetByUUIDTx(ctx, tx, HexToUUID(selectedUUID))
			if err != nil {
				return wrapQueryError(err, "profile lookup failed")
			}
			if selected != nil {
				if token.ProfileID != nil && *token.ProfileID != selected.ID {
					return ErrReassignProfile
				}
				profile = selected
			}
		}

		result.User = token.Owner
		result.Profile = profile
		result.AccessToken = NewAccessToken()
		result.ClientToken = clientToken
		if result.ClientToken == "" {
			result.ClientToken = token.ClientToken
		}

		_, err = s.issueToken(ctx, tx, token.Owner, profile, result.AccessToken, result.ClientToken)
		return wrapQueryError(err, "token issuance failed")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("refreshed token for user %d", result.User.ID)
	return result, nil
}

// Validate reports whether the token is currently usable for
// authentication: it must resolve and still be available after a rebalance.
func (s *SessionService) Validate(ctx context.Context, accessToken, clientToken string) error {
	return s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		token, err := s.repo.Tokens().GetByAccessTokenTx(ctx, tx, accessToken, clientToken)
		if err != nil {
			return wrapQueryError(err, "token lookup failed")
		}
		if token == nil {
			return ErrInvalidToken
		}

		if err := s.lifecycle.Rebalance(ctx, tx, token.OwnerID); err != nil {
			return wrapQueryError(err, "token rebalance failed")
		}

		token, err = s.repo.Tokens().GetByAccessTokenTx(ctx, tx, accessToken, clientToken)
		if err != nil {
			return wrapQueryError(err, "token lookup failed")
		}
		if token == nil || token.Status != TokenAvailable {
			return ErrInvalidToken
		}

		return nil
	})
}

// Invalidate revokes a single token by access token. Revoking a token that
// does not exist is not an error.
func (s *SessionService) Invalidate(ctx context.Context, accessToken string) error {
	return s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := s.repo.Tokens().DeleteByAccessTokenTx(ctx, tx, accessToken)
		return wrapQueryError(err, "token delete failed")
	})
}

// Signout verifies credentials and revokes every token the account owns.
func (s *SessionService) Signout(ctx context.Context, username, password string) error {
	return s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, _, err := s.verifier.Verify(ctx, tx, username, password)
		if err != nil {
			return err
		}

		err = s.repo.Tokens().DeleteByOwnerTx(ctx, tx, user.ID)
		return wrapQueryError(err, "token delete failed")
	})
}
