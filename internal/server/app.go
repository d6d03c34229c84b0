// Package server initializes and runs the application server: it opens the
// database, runs migrations, wires the services and serves the HTTP API with
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/appp2p/authvault/internal/logging"
	"github.com/appp2p/authvault/internal/server/api"
	"github.com/appp2p/authvault/internal/server/api/middleware"
	"github.com/appp2p/authvault/internal/server/auth"
	"github.com/appp2p/authvault/internal/server/blob"
	"github.com/appp2p/authvault/internal/server/config"
	"github.com/appp2p/authvault/internal/server/email"
	"github.com/appp2p/authvault/internal/server/hash"
	"github.com/appp2p/authvault/internal/server/repositories/repomanager"
	"github.com/appp2p/authvault/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	router http.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := blob.NewS3Store(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	codec := auth.NewCodec([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
	notifier := email.NewSMTPNotifier(cfg.SMTPAddr, cfg.SMTPFrom, cfg.ResetURLBase)

	tokens := services.NewResetTokenService(db, rm, cfg, logger)
	authSvc := services.NewAuthService(db, rm, hash.NewBcryptHasher(), codec, tokens, notifier, logger)
	vaultSvc := services.NewVaultService(db, rm, store, logger)

	gate := middleware.Authenticate(codec, rm.Users(db), logger)
	router := api.NewRouter(
		api.NewAuthHandler(authSvc, logger),
		api.NewVaultHandler(vaultSvc, logger),
		gate,
	)

	return &App{config: cfg, logger: logger, db: db, router: router}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			app.logger.Error(ctx, "server error", "error", err)
		}
	case <-ctx.Done():
		app.logger.Info(ctx, "Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "shutdown error", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
