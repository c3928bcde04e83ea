package yggdrasil

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// TokenSweeper periodically rebalances every account that holds tokens, so
// stale sessions age out even when their owner never comes back. Each
// transaction handles a single sweep pass.
type TokenSweeper struct {
	repo     RepositoryManager
	sessions *SessionService
	interval time.Duration
	logger   Logger
}

// NewTokenSweeper builds a sweeper over the session service's lifecycle
// engine. interval defaults to one hour when zero.
func NewTokenSweeper(repo RepositoryManager, sessions *SessionService, interval time.Duration) *TokenSweeper {
	if interval <= 0 {
		interval = time.Hour
	}

	return &TokenSweeper{
		repo:     repo,
		sessions: sessions,
		interval: interval,
		logger:   defLogger{},
	}
}

func (s *TokenSweeper) WithLogger(logger Logger) *TokenSweeper {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Sweep runs one pass over every account with live token rows.
func (s *TokenSweeper) Sweep(ctx context.Context) error {
	return s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		owners, err := s.repo.Tokens().ListOwnerIDsTx(ctx, tx)
		if err != nil {
			return wrapQueryError(err, "owner listing failed")
		}
		if len(owners) == 0 {
			return nil
		}

		if err := s.sessions.Lifecycle().Rebalance(ctx, tx, owners...); err != nil {
			return wrapQueryError(err, "token rebalance failed")
		}

		s.logger.Debug("swept tokens for %d accounts", len(owners))
		return nil
	})
}

// Run sweeps on the configured interval until the context is cancelled. A
// failed pass is logged and retried on the next tick.
func (s *TokenSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("token sweep failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
