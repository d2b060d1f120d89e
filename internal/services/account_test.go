package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ShiplakeCS/fakebook/internal/models"
)

func useFastBcrypt(t *testing.T) {
	t.Helper()
	orig := bcryptCost
	bcryptCost = bcrypt.MinCost
	t.Cleanup(func() { bcryptCost = orig })
}

func newTestAccountService(db DB) *AccountService {
	return NewAccountService(db, NewMediaService(db, nil), DefaultMinPasswordLength)
}

func accountRow(id uuid.UUID, username, email, hash string) Row {
	now := time.Now()
	return rowFromValues(id, username, email, hash, "First", "Last", "", nil, now, now, nil, nil)
}

func insertedAccountRow(args []any) Row {
	now := time.Now()
	return rowFromValues(uuid.New(), args[0], args[1], args[2], args[3], args[4], args[5], args[6], now, now)
}

func TestAccountService_CreateSuccess(t *testing.T) {
	useFastBcrypt(t)

	var insertArgs []any
	tx := &fakeTx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			switch {
			case strings.Contains(sql, "LOWER(username)"), strings.Contains(sql, "WHERE email"):
				return rowFromValues(false)
			case strings.Contains(sql, "INSERT INTO accounts"):
				insertArgs = args
				return insertedAccountRow(args)
			}
			t.Fatalf("unexpected sql: %q", sql)
			return nil
		},
	}
	svc := newTestAccountService(dbWithTx(tx))

	account, err := svc.Create(context.Background(), models.CreateAccountParams{
		Username:  " alice ",
		Email:     "Alice@Example.COM",
		Password:  "correct horse",
		FirstName: "Alice",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tx.committed {
		t.Fatal("expected commit")
	}
	if account.Username != "alice" || account.Email != "alice@example.com" {
		t.Fatalf("unexpected account: %+v", account)
	}
	hash := insertArgs[2].(string)
	if hash == "correct horse" || !VerifyPassword(hash, "correct horse") {
		t.Fatal("expected password to be stored as a bcrypt hash")
	}
	if insertArgs[7].(*uuid.UUID) != nil {
		t.Fatal("expected no profile picture")
	}
}

func TestAccountService_CreateDuplicateUsername(t *testing.T) {
	useFastBcrypt(t)

	tx := &fakeTx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if strings.Contains(sql, "LOWER(username)") {
				return rowFromValues(true)
			}
			t.Fatalf("unexpected sql after duplicate username: %q", sql)
			return nil
		},
	}
	svc := newTestAccountService(dbWithTx(tx))

	_, err := svc.Create(context.Background(), models.CreateAccountParams{Username: "Alice", Email: "b@x.com", Password: "password1"})
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	if tx.committed || !tx.rolledBack {
		t.Fatal("expected rollback without commit")
	}
}

// memAccounts backs the registration scenario with a tiny in-memory table.
type memAccounts struct {
	byEmail    map[string]uuid.UUID
	byUsername map[string]uuid.UUID
}

func (m *memAccounts) db() *fakeDB {
	return &fakeDB{BeginFunc: func(ctx context.Context) (Tx, error) {
		return &fakeTx{QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			switch {
			case strings.Contains(sql, "LOWER(username)"):
				_, ok := m.byUsername[strings.ToLower(args[0].(string))]
				return rowFromValues(ok)
			case strings.Contains(sql, "WHERE email"):
				_, ok := m.byEmail[args[0].(string)]
				return rowFromValues(ok)
			case strings.Contains(sql, "INSERT INTO accounts"):
				row := insertedAccountRow(args)
				id := uuid.New()
				m.byUsername[strings.ToLower(args[0].(string))] = id
				m.byEmail[args[1].(string)] = id
				return row
			}
			return rowWithError(errors.New("unexpected sql"))
		}}, nil
	}}
}

func TestAccountService_SecondRegistrationWithSameEmailFails(t *testing.T) {
	useFastBcrypt(t)

	store := &memAccounts{byEmail: map[string]uuid.UUID{}, byUsername: map[string]uuid.UUID{}}
	svc := newTestAccountService(store.db())

	if _, err := svc.Create(context.Background(), models.CreateAccountParams{Username: "alice", Email: "a@x.com", Password: "password1"}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	_, err := svc.Create(context.Background(), models.CreateAccountParams{Username: "alicia", Email: "A@x.com", Password: "password2"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if len(store.byEmail) != 1 {
		t.Fatalf("expected a single stored account, got %d", len(store.byEmail))
	}
}

func TestAccountService_CreateMapsConcurrentUniqueViolation(t *testing.T) {
	useFastBcrypt(t)

	for constraint, want := range map[string]error{
		accountUsernameConstraint: ErrDuplicateUsername,
		accountEmailConstraint:    ErrDuplicateEmail,
	} {
		tx := &fakeTx{
			QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
				if strings.Contains(sql, "INSERT INTO accounts") {
					return rowWithError(pgError(pgUniqueViolation, constraint))
				}
				return rowFromValues(false)
			},
		}
		_, err := newTestAccountService(dbWithTx(tx)).Create(context.Background(),
			models.CreateAccountParams{Username: "bob", Email: "bob@x.com", Password: "password1"})
		if !errors.Is(err, want) {
			t.Fatalf("constraint %s: expected %v, got %v", constraint, want, err)
		}
		if tx.committed {
			t.Fatal("unexpected commit")
		}
	}
}

func TestAccountService_CreateValidation(t *testing.T) {
	db := &fakeDB{BeginFunc: func(ctx context.Context) (Tx, error) {
		t.Fatal("validation failures must not open a transaction")
		return nil, nil
	}}
	svc := newTestAccountService(db)

	cases := []struct {
		params models.CreateAccountParams
		want   error
	}{
		{models.CreateAccountParams{Email: "a@x.com", Password: "password1"}, ErrInvalidInput},
		{models.CreateAccountParams{Username: "a", Email: "nope", Password: "password1"}, ErrInvalidInput},
		{models.CreateAccountParams{Username: "a", Email: "a@x.com", Password: "short"}, ErrInvalidInput},
		{models.CreateAccountParams{Username: strings.Repeat("a", 65), Email: "a@x.com", Password: "password1"}, ErrInvalidInput},
		{models.CreateAccountParams{Username: "a", Email: "a@x.com", Password: "password1", ProfilePicPath: "me.tiff"}, ErrUnsupportedMedia},
	}
	for i, tc := range cases {
		if _, err := svc.Create(context.Background(), tc.params); !errors.Is(err, tc.want) {
			t.Errorf("case %d: expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestAccountService_CreateWithProfilePicture(t *testing.T) {
	useFastBcrypt(t)

	mediaID := uuid.New()
	var picArg *uuid.UUID
	tx := &fakeTx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			switch {
			case strings.Contains(sql, "INSERT INTO media"):
				return rowFromValues(mediaID, time.Now())
			case strings.Contains(sql, "INSERT INTO accounts"):
				picArg = args[7].(*uuid.UUID)
				return insertedAccountRow(args)
			}
			return rowFromValues(false)
		},
	}

	account, err := newTestAccountService(dbWithTx(tx)).Create(context.Background(), models.CreateAccountParams{
		Username: "carol", Email: "c@x.com", Password: "password1", ProfilePicPath: "pics/carol.png",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if picArg == nil || *picArg != mediaID {
		t.Fatalf("expected profile_pic_id %s, got %v", mediaID, picArg)
	}
	if account.ProfilePic == nil || account.ProfilePic.Path != "pics/carol.png" {
		t.Fatalf("unexpected profile picture: %+v", account.ProfilePic)
	}
}

func TestAccountService_Authenticate(t *testing.T) {
	useFastBcrypt(t)

	hash, err := HashPassword("password1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	id := uuid.New()
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if !strings.Contains(sql, "a.email = $1") {
				t.Fatalf("unexpected sql: %q", sql)
			}
			if args[0] == "a@x.com" {
				return accountRow(id, "alice", "a@x.com", hash)
			}
			return rowWithError(pgx.ErrNoRows)
		},
	}
	svc := newTestAccountService(db)

	account, err := svc.Authenticate(context.Background(), " A@X.com ", "password1")
	if err != nil || account.ID != id {
		t.Fatalf("expected success, got %+v %v", account, err)
	}
	if _, err := svc.Authenticate(context.Background(), "a@x.com", "wrong-password"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("wrong password: expected ErrAuthenticationFailed, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody@x.com", "password1"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("unknown email: expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestAccountService_AuthenticateStorageError(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowWithError(errors.New("db down"))
		},
	}
	_, err := newTestAccountService(db).Authenticate(context.Background(), "a@x.com", "password1")
	if !errors.Is(err, ErrStorage) || errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected a storage error, got %v", err)
	}
}

func TestAccountService_GetByIDAndUsername(t *testing.T) {
	id := uuid.New()
	mediaID := uuid.New()
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if strings.Contains(sql, "LOWER(a.username)") && args[0] == "Alice" {
				now := time.Now()
				return rowFromValues(id, "alice", "a@x.com", "h", "A", "L", "bio", nil, now, now, mediaID, "p.png")
			}
			return rowWithError(pgx.ErrNoRows)
		},
	}
	svc := newTestAccountService(db)

	account, err := svc.GetByUsername(context.Background(), " Alice ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.ProfilePic == nil || account.ProfilePic.ID != mediaID {
		t.Fatalf("expected joined profile picture, got %+v", account.ProfilePic)
	}
	if _, err := svc.GetByID(context.Background(), uuid.New()); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountService_TouchLastActive(t *testing.T) {
	id := uuid.New()
	var gotAt time.Time
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "last_active_at") {
				t.Fatalf("unexpected sql: %q", sql)
			}
			gotAt = args[1].(time.Time)
			if args[0].(uuid.UUID) == id {
				return fakeCommandTag{rowsAffected: 1}, nil
			}
			return fakeCommandTag{}, nil
		},
	}
	svc := newTestAccountService(db)

	before := time.Now()
	if err := svc.TouchLastActive(context.Background(), id, time.Time{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAt.Before(before) {
		t.Fatalf("expected zero time to mean now, got %v", gotAt)
	}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := svc.TouchLastActive(context.Background(), id, at); err != nil || !gotAt.Equal(at) {
		t.Fatalf("expected explicit time, got %v %v", gotAt, err)
	}
	if err := svc.TouchLastActive(context.Background(), uuid.New(), at); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountService_UpdateProfile(t *testing.T) {
	id := uuid.New()
	bio := "hello"
	var updateArgs []any
	tx := &fakeTx{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "COALESCE") {
				t.Fatalf("unexpected sql: %q", sql)
			}
			updateArgs = args
			return fakeCommandTag{rowsAffected: 1}, nil
		},
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return accountRow(id, "alice", "a@x.com", "h")
		},
	}

	account, err := newTestAccountService(dbWithTx(tx)).UpdateProfile(context.Background(), id, models.UpdateProfileParams{Bio: &bio})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.ID != id || !tx.committed {
		t.Fatalf("expected committed reload, got %+v", account)
	}
	if updateArgs[3].(*string) != &bio || updateArgs[1].(*string) != nil {
		t.Fatalf("expected only bio to be set, got %v", updateArgs)
	}
}

func TestAccountService_UpdateProfileMissingAccount(t *testing.T) {
	tx := &fakeTx{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{}, nil
		},
	}
	_, err := newTestAccountService(dbWithTx(tx)).UpdateProfile(context.Background(), uuid.New(), models.UpdateProfileParams{})
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if tx.committed {
		t.Fatal("unexpected commit")
	}
}
