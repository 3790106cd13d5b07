package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	sqliteadapter "github.com/mfreeland/deploybridge/internal/adapter/driven/sqlite"
	"github.com/mfreeland/deploybridge/internal/adapter/driven/vercel"
	"github.com/mfreeland/deploybridge/internal/adapter/driven/webflow"
	"github.com/mfreeland/deploybridge/internal/adapter/driven/webflowcli"
	httphandler "github.com/mfreeland/deploybridge/internal/adapter/driving/http"
	"github.com/mfreeland/deploybridge/internal/application"
	"github.com/mfreeland/deploybridge/internal/config"
	"github.com/mfreeland/deploybridge/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed values).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"api_timeout", cfg.APITimeout,
		"export_timeout", cfg.ExportTimeout,
	)

	// 2. Signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database and run migrations.
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("database ready", "path", cfg.DBPath)

	// 4. Wire driven adapters.
	key, err := cfg.EncryptionKey()
	if err != nil {
		return err
	}
	if key == nil {
		slog.Warn("no encryption key configured, credential operations disabled until DEPLOYBRIDGE_SECRET_KEY is set")
	}

	credStore, err := sqliteadapter.NewCredentialRepo(db, key)
	if err != nil {
		return err
	}
	exportStore := sqliteadapter.NewExportRepo(db)

	vercelCfg := vercel.Config{
		ClientID:        cfg.VercelClientID,
		ClientSecret:    cfg.VercelClientSecret,
		RedirectURI:     cfg.VercelRedirectURI,
		AuthorizeURL:    cfg.VercelAuthorizeURL,
		IntegrationSlug: cfg.VercelIntegrationSlug,
		Timeout:         cfg.APITimeout,
	}
	if !cfg.HasVercelOAuth() {
		slog.Warn("vercel oauth settings incomplete, authorization flow will fail until configured")
	}

	newVercel := func(token string) driven.CloudProvider {
		return vercel.NewClient(vercelCfg, token)
	}
	verifyWorkspaceToken := func(ctx context.Context, token string) error {
		_, err := webflow.NewClient(token, cfg.APITimeout).AuthorizedBy(ctx)
		return err
	}

	builder := webflowcli.NewRunner(webflowcli.Config{
		BundleCommand:   cfg.BundleCommand(),
		PublishCommand:  cfg.PublishCommand(),
		Timeout:         cfg.ExportTimeout,
		BundleSizeLimit: cfg.BundleSizeLimit,
	}, slog.Default())

	// 5. Wire application services.
	integrationSvc := application.NewIntegrationService(credStore, verifyWorkspaceToken)
	oauthSvc := application.NewOAuthService(newVercel(""), credStore)
	provisionSvc := application.NewProvisionService(credStore, newVercel)
	exportSvc := application.NewExportService(credStore, builder, exportStore, slog.Default())

	// 6. HTTP server.
	handler := httphandler.NewHandler(integrationSvc, oauthSvc, provisionSvc, exportSvc, slog.Default())
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(handler, slog.Default()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
