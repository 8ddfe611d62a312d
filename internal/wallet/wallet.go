// Package wallet reads customer wallet balances from the backend.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/remote"
)

// Repository reads balances by user id.
type Repository interface {
	Balance(ctx context.Context, userID string) (float64, error)
}

// PGRepository reads user_wallets through pgx.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Balance returns the stored balance. A user without a wallet row has 0.
func (r *PGRepository) Balance(ctx context.Context, userID string) (float64, error) {
	var balance float64
	err := r.pool.QueryRow(ctx, `SELECT balance FROM user_wallets WHERE user_id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("wallet: balance: %w", err)
	}
	return balance, nil
}

var _ Repository = (*PGRepository)(nil)

// Hook tracks the balance of one wallet view. Balances are fetched on
// demand and never cached across sessions.
type Hook struct {
	repo   Repository
	logger *slog.Logger
	op     remote.Op[float64]
}

// NewHook builds a Hook.
func NewHook(repo Repository, logger *slog.Logger) *Hook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hook{repo: repo, logger: logger}
}

// Fetch loads the balance for actor. Without an actor it settles on a zero
// balance without touching the repository. A fetch already in flight is left
// to finish. A repository failure leaves the
// hook in the Error state with a zero balance; it is not returned.
func (h *Hook) Fetch(ctx context.Context, actor *identity.Actor) remote.State[float64] {
	_, err := h.op.Run(ctx, func(ctx context.Context) (float64, error) {
		if actor == nil {
			return 0, nil
		}
		return h.repo.Balance(ctx, actor.ID)
	})
	if actor == nil {
		return h.op.State()
	}
	if err != nil && !errors.Is(err, remote.ErrInFlight) {
		h.logger.Error("fetch wallet balance", slog.String("user_id", actor.ID), slog.Any("error", err))
	}
	return h.op.State()
}

// Refresh is Fetch under the name the wallet screen uses.
func (h *Hook) Refresh(ctx context.Context, actor *identity.Actor) remote.State[float64] {
	return h.Fetch(ctx, actor)
}

// State returns the current snapshot.
func (h *Hook) State() remote.State[float64] {
	return h.op.State()
}

// Balance returns the last known balance, zero unless a fetch succeeded.
func (h *Hook) Balance() float64 {
	state := h.op.State()
	if state.Status != remote.Success {
		return 0
	}
	return state.Data
}
