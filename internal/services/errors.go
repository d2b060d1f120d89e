package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is the parent of every "no such record" error, so callers can
// match either the specific kind or any of them.
var ErrNotFound = errors.New("not found")

var (
	ErrAccountNotFound    = fmt.Errorf("account %w", ErrNotFound)
	ErrFriendshipNotFound = fmt.Errorf("friendship %w", ErrNotFound)
	ErrPostNotFound       = fmt.Errorf("post %w", ErrNotFound)
	ErrMediaNotFound      = fmt.Errorf("media %w", ErrNotFound)
	ErrSessionNotFound    = fmt.Errorf("session %w", ErrNotFound)
)

var (
	ErrDuplicateUsername    = errors.New("username already taken")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrAuthenticationFailed = errors.New("invalid email or password")
	ErrUnauthorized         = errors.New("not permitted")
	ErrCannotFriendSelf     = errors.New("cannot befriend yourself")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnsupportedMedia     = errors.New("unsupported media type")
	ErrStorage              = errors.New("storage failure")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// storageError marks err as a store-level fault raised while doing op.
func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// uniqueViolation reports the violated constraint when err is a 23505.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
