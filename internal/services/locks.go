package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// lockAccountPairForUpdate row-locks both accounts in byte order so two
// transactions touching the same pair cannot deadlock. A missing account is
// reported as ErrAccountNotFound.
func lockAccountPairForUpdate(ctx context.Context, q DBConn, a, b uuid.UUID) error {
	first, second := a, b
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}

	if err := lockAccountForUpdate(ctx, q, first); err != nil {
		return err
	}
	if first == second {
		return nil
	}
	return lockAccountForUpdate(ctx, q, second)
}

func lockAccountForUpdate(ctx context.Context, q DBConn, id uuid.UUID) error {
	var locked uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	return nil
}
