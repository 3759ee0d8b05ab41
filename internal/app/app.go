package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ssi-studios/auth-service/internal/config"
	"github.com/ssi-studios/auth-service/internal/database"
	"github.com/ssi-studios/auth-service/internal/handler"
	"github.com/ssi-studios/auth-service/internal/middleware"
	"github.com/ssi-studios/auth-service/internal/model"
	"github.com/ssi-studios/auth-service/internal/observability"
	"github.com/ssi-studios/auth-service/internal/repository"
	"github.com/ssi-studios/auth-service/internal/router"
	"github.com/ssi-studios/auth-service/internal/service"
	"github.com/ssi-studios/auth-service/internal/token"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Environment); err != nil {
		return nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)

	if err := seedBootstrapAdmin(context.Background(), cfg, adminRepo); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed bootstrap admin: %w", err)
	}

	codec, err := token.NewCodec(cfg.JWTSecret)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	authService := service.NewAuthService(userRepo, adminRepo, sessionRepo, codec)
	authMiddleware := middleware.NewAuthMiddleware(authService)

	handler.SetProduction(cfg.IsProduction())
	authHandler := handler.NewAuthHandler(authService, cfg.IsProduction())
	sessionHandler := handler.NewSessionHandler(authService, cfg.IsProduction())

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:    authHandler,
		Session: sessionHandler,
	}, func(r *http.Request) error {
		return db.Health(r.Context())
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			db.Close,
			observability.FlushSentry,
		},
	}, nil
}

// seedBootstrapAdmin provisions one elevated account from the environment.
// The secret is stored hashed; there is no plaintext admin path.
func seedBootstrapAdmin(ctx context.Context, cfg *config.Config, admins *repository.AdminRepository) error {
	if cfg.AdminUsername == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), 12)
	if err != nil {
		return err
	}

	return admins.Upsert(ctx, model.AdminAccount{
		ID:           uuid.NewString(),
		Username:     cfg.AdminUsername,
		PasswordHash: string(hash),
		DisplayName:  cfg.AdminUsername,
		Role:         "admin",
	})
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
