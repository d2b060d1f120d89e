package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ShiplakeCS/fakebook/internal/config"
	"github.com/ShiplakeCS/fakebook/internal/database"
	"github.com/ShiplakeCS/fakebook/internal/handlers"
	"github.com/ShiplakeCS/fakebook/internal/logging"
	"github.com/ShiplakeCS/fakebook/internal/middleware"
	"github.com/ShiplakeCS/fakebook/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	// Initialize logger
	logger := logging.New()

	// Load configuration
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := logging.ParseLevel(cfg.Server.LogLevel)
	if cfg.Server.Debug {
		level = logging.LevelDebug
	}
	logger.SetLevel(level)
	logging.SetDefaultLevel(level)
	logger.Debug("Debug logging enabled", map[string]interface{}{"env": cfg.Server.Environment})

	logger.Info("Starting Fakebook server...")

	// Connect to PostgreSQL
	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN(), database.DefaultPoolOptions())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Run migrations
	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	if version, dirty, err := migrator.Version(); err == nil {
		logger.Info("Migrations completed", map[string]interface{}{"version": version, "dirty": dirty})
	}
	_ = migrator.Close()

	// Connect to Redis
	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	// Initialize services
	dbAdapter := services.NewPoolAdapter(db.Pool)
	redisAdapter := services.NewRedisAdapter(redisDB.Client)

	mediaService := services.NewMediaService(dbAdapter, cfg.Media.AllowedExtensions)
	accountService := services.NewAccountService(dbAdapter, mediaService, cfg.Auth.MinPasswordLength)
	authService := services.NewAuthService(accountService, redisAdapter, cfg.Auth.SessionTTL)
	friendshipService := services.NewFriendshipService(dbAdapter)
	postService := services.NewPostService(dbAdapter, friendshipService, mediaService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redisDB)
	authHandler := handlers.NewAuthHandler(accountService, authService, cfg.Server.Secure)
	accountHandler := handlers.NewAccountHandler(accountService)
	friendHandler := handlers.NewFriendHandler(friendshipService, accountService)
	postHandler := handlers.NewPostHandler(postService, accountService)

	// Initialize middleware
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(registry)
	authMiddleware := middleware.NewAuthMiddleware(authService)
	requestLogger := middleware.NewRequestLogger(logger)

	loginRateLimit := resolveLoginRateLimit(cfg, logger, os.LookupEnv)
	loginRateLimiter := middleware.NewRateLimiter(redisDB.Client, loginRateLimit, cfg.Auth.LoginRateWindow, "ratelimit:login:", nil, true)

	requireAuth := authMiddleware.RequireAuth

	mux := newRouter(routes{
		health:      healthHandler,
		auth:        authHandler,
		account:     accountHandler,
		friend:      friendHandler,
		post:        postHandler,
		metrics:     metrics.Handler(),
		requireAuth: requireAuth,
		loginLimit:  loginRateLimiter.Middleware,
	})

	// Build middleware chain (order matters: outermost last)
	var handler http.Handler = mux
	handler = metrics.Apply(handler)
	handler = authMiddleware.Authenticate(handler)
	handler = requestLogger.Apply(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}

type routes struct {
	health      *handlers.HealthHandler
	auth        *handlers.AuthHandler
	account     *handlers.AccountHandler
	friend      *handlers.FriendHandler
	post        *handlers.PostHandler
	metrics     http.Handler
	requireAuth func(http.Handler) http.Handler
	loginLimit  func(http.Handler) http.Handler
}

func newRouter(rt routes) *http.ServeMux {
	requireAuth := func(fn http.HandlerFunc) http.Handler {
		return rt.requireAuth(fn)
	}

	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("GET /health", rt.health.Health)
	mux.HandleFunc("GET /ready", rt.health.Ready)
	mux.HandleFunc("GET /live", rt.health.Live)
	mux.Handle("GET /metrics", rt.metrics)

	// Auth endpoints
	mux.HandleFunc("POST /api/auth/register", rt.auth.Register)
	mux.Handle("POST /api/auth/login", rt.loginLimit(http.HandlerFunc(rt.auth.Login)))
	mux.HandleFunc("POST /api/auth/logout", rt.auth.Logout)
	mux.Handle("GET /api/auth/me", requireAuth(rt.auth.Me))

	// Account endpoints
	mux.HandleFunc("GET /api/accounts/{username}", rt.account.GetProfile)
	mux.Handle("PUT /api/accounts/me", requireAuth(rt.account.UpdateMe))
	mux.HandleFunc("GET /api/accounts/{id}/posts", rt.post.ListByAuthor)
	mux.HandleFunc("GET /api/accounts/{id}/tagged", rt.post.Tagged)

	// Friend endpoints
	mux.Handle("GET /api/friends", requireAuth(rt.friend.List))
	mux.Handle("GET /api/friends/invitations", requireAuth(rt.friend.Invitations))
	mux.Handle("GET /api/friends/invitations/sent", requireAuth(rt.friend.SentInvitations))
	mux.Handle("POST /api/friends/request", requireAuth(rt.friend.SendRequest))
	mux.Handle("PUT /api/friends/{id}/accept", requireAuth(rt.friend.AcceptRequest))
	mux.Handle("DELETE /api/friends/{id}", requireAuth(rt.friend.Remove))

	// Post endpoints
	mux.Handle("POST /api/posts", requireAuth(rt.post.Create))
	mux.HandleFunc("GET /api/posts/{id}", rt.post.Get)
	mux.Handle("POST /api/posts/{id}/likes", requireAuth(rt.post.Like))
	mux.HandleFunc("GET /api/posts/{id}/likes", rt.post.Likes)
	mux.Handle("POST /api/posts/{id}/tags", requireAuth(rt.post.Tag))
	mux.HandleFunc("GET /api/posts/{id}/tags", rt.post.Tags)

	return mux
}

func resolveLoginRateLimit(cfg *config.Config, logger *logging.Logger, lookupEnv func(string) (string, bool)) int64 {
	limit := cfg.Auth.LoginRateLimit
	if cfg.Server.Environment == "development" {
		limit = 100
		logger.Info("Using development login rate limit", map[string]interface{}{"limit": limit})
	}
	if v, ok := lookupEnv("LOGIN_RATE_LIMIT"); ok && v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			limit = parsed
			logger.Info("Using login rate limit from env", map[string]interface{}{"limit": limit})
		} else {
			logger.Warn("Invalid LOGIN_RATE_LIMIT; using default", map[string]interface{}{
				"value": v,
				"limit": limit,
			})
		}
	}
	return limit
}
