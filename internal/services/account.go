package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ShiplakeCS/fakebook/internal/models"
)

const (
	DefaultMinPasswordLength = 8
	maxUsernameLength        = 64

	accountUsernameConstraint = "accounts_username_key"
	accountEmailConstraint    = "accounts_email_key"
)

const accountSelect = `SELECT a.id, a.username, a.email, a.password_hash, a.first_name, a.surname, a.bio,
	       a.date_of_birth, a.joined_at, a.last_active_at, m.id, m.path
	FROM accounts a
	LEFT JOIN media m ON m.id = a.profile_pic_id`

type AccountService struct {
	db                DB
	media             *MediaService
	minPasswordLength int
}

func NewAccountService(db DB, media *MediaService, minPasswordLength int) *AccountService {
	if minPasswordLength < 1 {
		minPasswordLength = DefaultMinPasswordLength
	}
	return &AccountService{db: db, media: media, minPasswordLength: minPasswordLength}
}

func (s *AccountService) validateCreate(params *models.CreateAccountParams) error {
	params.Username = strings.TrimSpace(params.Username)
	params.Email = normalizeEmail(params.Email)
	params.ProfilePicPath = strings.TrimSpace(params.ProfilePicPath)

	if params.Username == "" {
		return invalidInput("username is required")
	}
	if len(params.Username) > maxUsernameLength {
		return invalidInput("username is too long")
	}
	if params.Email == "" || !strings.Contains(params.Email, "@") {
		return invalidInput("a valid email is required")
	}
	if len(params.Password) < s.minPasswordLength {
		return invalidInput(fmt.Sprintf("password must be at least %d characters", s.minPasswordLength))
	}
	if params.ProfilePicPath != "" {
		if err := s.media.ValidatePath(params.ProfilePicPath); err != nil {
			return err
		}
	}
	return nil
}

// Create registers a new account. The uniqueness checks, the optional
// profile picture and the insert commit together or not at all.
func (s *AccountService) Create(ctx context.Context, params models.CreateAccountParams) (*models.Account, error) {
	if err := s.validateCreate(&params); err != nil {
		return nil, err
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, storageError("begin create account", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE LOWER(username) = LOWER($1))`,
		params.Username,
	).Scan(&exists)
	if err != nil {
		return nil, storageError("check username", err)
	}
	if exists {
		return nil, ErrDuplicateUsername
	}

	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`,
		params.Email,
	).Scan(&exists)
	if err != nil {
		return nil, storageError("check email", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	var pic *models.Media
	var picID *uuid.UUID
	if params.ProfilePicPath != "" {
		pic, err = insertMedia(ctx, tx, params.ProfilePicPath)
		if err != nil {
			return nil, err
		}
		picID = &pic.ID
	}

	account := &models.Account{}
	err = tx.QueryRow(ctx,
		`INSERT INTO accounts (username, email, password_hash, first_name, surname, bio, date_of_birth, profile_pic_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, username, email, password_hash, first_name, surname, bio, date_of_birth, joined_at, last_active_at`,
		params.Username, params.Email, hash, params.FirstName, params.Surname, params.Bio, params.DateOfBirth, picID,
	).Scan(&account.ID, &account.Username, &account.Email, &account.PasswordHash, &account.FirstName,
		&account.Surname, &account.Bio, &account.DateOfBirth, &account.JoinedAt, &account.LastActiveAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			switch constraint {
			case accountUsernameConstraint:
				return nil, ErrDuplicateUsername
			case accountEmailConstraint:
				return nil, ErrDuplicateEmail
			}
		}
		return nil, storageError("insert account", err)
	}
	account.ProfilePic = pic

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError("commit create account", err)
	}
	committed = true

	return account, nil
}

var dummyPasswordHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("no-such-account"), bcryptCost)
	return hash
})

// Authenticate reports ErrAuthenticationFailed for both an unknown email and a
// wrong password, and spends the same bcrypt work in either case.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.getByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrAccountNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash(), []byte(password))
		return nil, ErrAuthenticationFailed
	}
	if err != nil {
		return nil, err
	}
	if !VerifyPassword(account.PasswordHash, password) {
		return nil, ErrAuthenticationFailed
	}
	return account, nil
}

func (s *AccountService) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return s.getOne(ctx, s.db, "get account by id", accountSelect+` WHERE a.id = $1`, id)
}

func (s *AccountService) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.getOne(ctx, s.db, "get account by username",
		accountSelect+` WHERE LOWER(a.username) = LOWER($1)`, strings.TrimSpace(username))
}

func (s *AccountService) getByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getOne(ctx, s.db, "get account by email", accountSelect+` WHERE a.email = $1`, email)
}

func (s *AccountService) getOne(ctx context.Context, q DBConn, op, sql string, args ...any) (*models.Account, error) {
	account, err := scanAccount(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, storageError(op, err)
	}
	return account, nil
}

// TouchLastActive stamps the account's last-active time. A zero at means now.
func (s *AccountService) TouchLastActive(ctx context.Context, id uuid.UUID, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	result, err := s.db.Exec(ctx,
		`UPDATE accounts SET last_active_at = $2 WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return storageError("touch last active", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, id uuid.UUID, params models.UpdateProfileParams) (*models.Account, error) {
	if params.ProfilePicPath != nil {
		if err := s.media.ValidatePath(*params.ProfilePicPath); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, storageError("begin update profile", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	var picID *uuid.UUID
	if params.ProfilePicPath != nil {
		pic, err := insertMedia(ctx, tx, *params.ProfilePicPath)
		if err != nil {
			return nil, err
		}
		picID = &pic.ID
	}

	result, err := tx.Exec(ctx,
		`UPDATE accounts
		 SET first_name = COALESCE($2, first_name),
		     surname = COALESCE($3, surname),
		     bio = COALESCE($4, bio),
		     date_of_birth = COALESCE($5, date_of_birth),
		     profile_pic_id = COALESCE($6, profile_pic_id),
		     updated_at = NOW()
		 WHERE id = $1`,
		id, params.FirstName, params.Surname, params.Bio, params.DateOfBirth, picID,
	)
	if err != nil {
		return nil, storageError("update profile", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrAccountNotFound
	}

	account, err := s.getOne(ctx, tx, "reload profile", accountSelect+` WHERE a.id = $1`, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError("commit update profile", err)
	}
	committed = true

	return account, nil
}

func scanAccount(row Row) (*models.Account, error) {
	account := &models.Account{}
	var picID *uuid.UUID
	var picPath *string
	err := row.Scan(&account.ID, &account.Username, &account.Email, &account.PasswordHash,
		&account.FirstName, &account.Surname, &account.Bio, &account.DateOfBirth,
		&account.JoinedAt, &account.LastActiveAt, &picID, &picPath)
	if err != nil {
		return nil, err
	}
	account.ProfilePic = mediaFromColumns(picID, picPath)
	return account, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
