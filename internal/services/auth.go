package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ShiplakeCS/fakebook/internal/models"
)

const (
	DefaultSessionTTL = 30 * 24 * time.Hour
	sessionKeyPrefix  = "session:"
	sessionTokenBytes = 32
)

var bcryptCost = bcrypt.DefaultCost

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// AccountAuthenticator is the part of AccountService the gateway relies on.
type AccountAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	TouchLastActive(ctx context.Context, id uuid.UUID, at time.Time) error
}

// AuthService issues opaque session tokens. Only a hash of each token is
// stored, keyed to the account id, with a sliding expiry.
type AuthService struct {
	accounts AccountAuthenticator
	redis    RedisClient
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(accounts AccountAuthenticator, redis RedisClient, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{accounts: accounts, redis: redis, ttl: ttl, now: time.Now}
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.ttl
}

// Login authenticates the credentials and opens a session for the account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	account, err := s.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", err
	}

	token, err := generateSessionToken()
	if err != nil {
		return nil, "", fmt.Errorf("generating session token: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(token), account.ID.String(), s.ttl); err != nil {
		return nil, "", storageError("store session", err)
	}
	return account, token, nil
}

// ValidateSession resolves a token to its account and extends the session.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*models.Account, error) {
	accountID, err := s.sessionAccount(ctx, token)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if errors.Is(err, ErrAccountNotFound) {
		_ = s.redis.Del(ctx, sessionKey(token))
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Logout ends the session and records the account's last activity. Logging
// out of a session that no longer exists is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	accountID, err := s.sessionAccount(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.redis.Del(ctx, sessionKey(token)); err != nil {
		return storageError("delete session", err)
	}
	if err := s.accounts.TouchLastActive(ctx, accountID, s.now()); err != nil && !errors.Is(err, ErrAccountNotFound) {
		return err
	}
	return nil
}

func (s *AuthService) sessionAccount(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrSessionNotFound
	}
	value, err := s.redis.GetEx(ctx, sessionKey(token), s.ttl)
	if errors.Is(err, ErrCacheMiss) {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, storageError("load session", err)
	}
	accountID, err := uuid.Parse(value)
	if err != nil {
		_ = s.redis.Del(ctx, sessionKey(token))
		return uuid.Nil, ErrSessionNotFound
	}
	return accountID, nil
}

func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return sessionKeyPrefix + hex.EncodeToString(sum[:])
}
