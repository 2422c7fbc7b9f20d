// Package server initializes and runs the vault server: it opens the
// database, applies migrations, wires the services, and serves the HTTP API
// until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/avilks/passvault/internal/logging"
	"github.com/avilks/passvault/internal/server/config"
	"github.com/avilks/passvault/internal/server/email"
	"github.com/avilks/passvault/internal/server/httpapi"
	"github.com/avilks/passvault/internal/server/repositories/repomanager"
	"github.com/avilks/passvault/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *httpapi.API
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	sender := newEmailSender(cfg, logger)

	accountService := services.NewAccountService(db, rm, sender, logger, cfg)
	vaultService := services.NewVaultService(db, rm, logger)
	attachmentService := services.NewAttachmentService(db, rm, vaultService, cfg, logger)

	api := httpapi.New(accountService, vaultService, attachmentService, []byte(cfg.SecretKey), logger)

	return &App{config: cfg, logger: logger, db: db, api: api}, nil
}

// newEmailSender picks Postmark when tokens are configured, otherwise the
// log-only dev sender.
func newEmailSender(cfg *config.Config, logger logging.Logger) email.Sender {
	if cfg.PostmarkServerToken == "" || cfg.PostmarkAccountToken == "" {
		return email.NewDevSender(logger)
	}
	sender, err := email.NewPostmarkSender(email.Config{
		PostmarkServerToken:  cfg.PostmarkServerToken,
		PostmarkAccountToken: cfg.PostmarkAccountToken,
		SenderEmail:          cfg.SenderEmail,
		BaseURL:              cfg.BaseURL,
	})
	if err != nil {
		logger.Warn(context.Background(), "postmark config rejected, falling back to dev sender", "error", err.Error())
		return email.NewDevSender(logger)
	}
	return sender
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.api.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddrHTTP)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
	app.logger.Info(ctx, "app stopped")
}
