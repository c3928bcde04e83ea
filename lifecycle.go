package yggdrasil

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// TokenLifecycle ages, demotes, and evicts tokens. It is the only component
// that mutates Token.Status outside direct issuance.
//
// Transitions are monotonic: available tokens age into need_refresh and fall
// to invalid when they overflow the account ceiling; need_refresh tokens fall
// to invalid past the combined duration; invalid is terminal.
type TokenLifecycle struct {
	tokens   Tokens
	settings AccountSettings
	policy   TokenPolicy
	logger   Logger
	now      func() time.Time
}

// NewTokenLifecycle creates the engine with the process-wide policy.
// Per-account AccountSetting rows override the policy during Rebalance.
func NewTokenLifecycle(tokens Tokens, settings AccountSettings, policy TokenPolicy) *TokenLifecycle {
	return &TokenLifecycle{
		tokens:   tokens,
		settings: settings,
		policy:   policy,
		logger:   defLogger{},
		now:      time.Now,
	}
}

func (l *TokenLifecycle) WithLogger(logger Logger) *TokenLifecycle {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// WithClock overrides the time source. Used by tests to age tokens without
// sleeping.
func (l *TokenLifecycle) WithClock(now func() time.Time) *TokenLifecycle {
	if now != nil {
		l.now = now
	}
	return l
}

// Rebalance applies the state machine to every token of the given accounts
// inside the caller's transaction. Login and refresh call it for the single
// authenticating account; the batch form exists for maintenance sweeps.
//
// For each account, the available list is walked newest-first against the
// effective ceiling: the N newest stay (aging into need_refresh when past the
// need-refresh duration), everything beyond the ceiling becomes invalid
// regardless of age. The need_refresh list then drops to invalid past
// need-refresh plus invalid duration. Any update error aborts the walk so
// the surrounding transaction rolls back with no partial eviction.
func (l *TokenLifecycle) Rebalance(ctx context.Context, tx bun.IDB, userIDs ...int64) error {
	now := l.now()

	for _, userID := range userIDs {
		available, err := l.tokens.ListByOwnerAndStatusTx(ctx, tx, userID, TokenAvailable)
		if err != nil {
			return err
		}

		needRefresh, err := l.tokens.ListByOwnerAndStatusTx(ctx, tx, userID, TokenNeedRefresh)
		if err != nil {
			return err
		}

		setting, err := l.settings.GetByUserTx(ctx, tx, userID)
		if err != nil {
			return err
		}

		policy := l.policy
		if setting != nil {
			policy = setting.Policy()
		}

		counter := policy.MaxTokens
		for _, token := range available {
			counter--
			if counter >= 0 {
				if token.Age(now) > policy.NeedRefreshDuration {
					l.logger.Debug("token %d of user %d aged into need_refresh", token.ID, userID)
					if err := l.tokens.UpdateStatusTx(ctx, tx, token.ID, TokenNeedRefresh); err != nil {
						return err
					}
				}
				continue
			}

			l.logger.Info("token %d of user %d evicted over ceiling %d", token.ID, userID, policy.MaxTokens)
			if err := l.tokens.UpdateStatusTx(ctx, tx, token.ID, TokenInvalid); err != nil {
				return err
			}
		}

		expiry := policy.NeedRefreshDuration + policy.InvalidDuration
		for _, token := range needRefresh {
			if token.Age(now) > expiry {
				l.logger.Info("token %d of user %d expired", token.ID, userID)
				if err := l.tokens.UpdateStatusTx(ctx, tx, token.ID, TokenInvalid); err != nil {
					return err
				}
			}
		}
	}

	return nil
}
