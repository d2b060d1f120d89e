package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func stubPostgres(t *testing.T, cfg *pgxpool.Config, pingErr error) *bool {
	t.Helper()
	origParse := parsePGConfig
	origNew := newPGPool
	origPing := pingPGPool
	origClose := closePGPool
	t.Cleanup(func() {
		parsePGConfig = origParse
		newPGPool = origNew
		pingPGPool = origPing
		closePGPool = origClose
	})

	closed := false
	parsePGConfig = func(dsn string) (*pgxpool.Config, error) {
		return cfg, nil
	}
	newPGPool = func(ctx context.Context, config *pgxpool.Config) (*pgxpool.Pool, error) {
		return &pgxpool.Pool{}, nil
	}
	pingPGPool = func(ctx context.Context, pool *pgxpool.Pool) error {
		return pingErr
	}
	closePGPool = func(pool *pgxpool.Pool) {
		closed = true
	}
	return &closed
}

func TestNewPostgresDB_ParseError(t *testing.T) {
	origParse := parsePGConfig
	t.Cleanup(func() { parsePGConfig = origParse })
	parseErr := errors.New("bad dsn")
	parsePGConfig = func(dsn string) (*pgxpool.Config, error) {
		return nil, parseErr
	}

	_, err := NewPostgresDB("bad", PoolOptions{})
	if !errors.Is(err, parseErr) {
		t.Fatalf("expected parse error to wrap %v, got %v", parseErr, err)
	}
	if !strings.Contains(err.Error(), "parsing database config") {
		t.Fatalf("expected parse error message context, got %q", err.Error())
	}
}

func TestNewPostgresDB_NewPoolError(t *testing.T) {
	stubPostgres(t, &pgxpool.Config{}, nil)
	newErr := errors.New("new pool error")
	newPGPool = func(ctx context.Context, config *pgxpool.Config) (*pgxpool.Pool, error) {
		return nil, newErr
	}

	_, err := NewPostgresDB("dsn", PoolOptions{})
	if !errors.Is(err, newErr) {
		t.Fatalf("expected pool error to wrap %v, got %v", newErr, err)
	}
	if !strings.Contains(err.Error(), "creating connection pool") {
		t.Fatalf("expected pool error message context, got %q", err.Error())
	}
}

func TestNewPostgresDB_PingErrorClosesPool(t *testing.T) {
	pingErr := errors.New("ping failed")
	closed := stubPostgres(t, &pgxpool.Config{}, pingErr)

	_, err := NewPostgresDB("dsn", PoolOptions{})
	if !errors.Is(err, pingErr) {
		t.Fatalf("expected ping error to wrap %v, got %v", pingErr, err)
	}
	if !*closed {
		t.Fatal("expected pool to be closed after failed ping")
	}
}

func TestNewPostgresDB_DefaultPoolValues(t *testing.T) {
	cfg := &pgxpool.Config{}
	stubPostgres(t, cfg, nil)

	db, err := NewPostgresDB("dsn", PoolOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db.Pool == nil {
		t.Fatal("expected pool")
	}
	if cfg.MaxConns != 25 || cfg.MinConns != 5 {
		t.Fatalf("unexpected conns: max=%d min=%d", cfg.MaxConns, cfg.MinConns)
	}
	if cfg.MaxConnLifetime != time.Hour {
		t.Fatalf("expected MaxConnLifetime 1h, got %v", cfg.MaxConnLifetime)
	}
	if cfg.MaxConnIdleTime != 30*time.Minute {
		t.Fatalf("expected MaxConnIdleTime 30m, got %v", cfg.MaxConnIdleTime)
	}
	if cfg.HealthCheckPeriod != time.Minute {
		t.Fatalf("expected HealthCheckPeriod 1m, got %v", cfg.HealthCheckPeriod)
	}
}

func TestNewPostgresDB_CustomPoolValues(t *testing.T) {
	cfg := &pgxpool.Config{}
	stubPostgres(t, cfg, nil)

	_, err := NewPostgresDB("dsn", PoolOptions{MaxConns: 4, MinConns: 10, MaxConnLifetime: time.Minute})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxConns != 4 {
		t.Fatalf("expected MaxConns 4, got %d", cfg.MaxConns)
	}
	if cfg.MinConns != 4 {
		t.Fatalf("expected MinConns clamped to 4, got %d", cfg.MinConns)
	}
	if cfg.MaxConnLifetime != time.Minute {
		t.Fatalf("expected MaxConnLifetime 1m, got %v", cfg.MaxConnLifetime)
	}
}

func TestPostgresDB_Close_CallsPoolClose(t *testing.T) {
	closed := stubPostgres(t, &pgxpool.Config{}, nil)

	db := &PostgresDB{Pool: &pgxpool.Pool{}}
	db.Close()

	if !*closed {
		t.Fatal("expected closePGPool to be called")
	}
}
