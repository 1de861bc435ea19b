package main

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

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/erazemk/zaloga/internal/api"
	"github.com/erazemk/zaloga/internal/blob"
	"github.com/erazemk/zaloga/internal/config"
	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/imaging"
	"github.com/erazemk/zaloga/internal/service"
	"github.com/erazemk/zaloga/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server. The database is created and migrated on first
start, and an administrator is bootstrapped if none exists.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	deps, err := initializeDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.DB.Close()

	password, created, err := deps.Service.BootstrapAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email)
	if err != nil {
		return fmt.Errorf("bootstrapping admin: %w", err)
	}
	if created {
		printInitResult(cfg.DB, cfg.Admin.Email, password)
		fmt.Println()
	}

	handler := api.NewRouter(deps.Service, api.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		Uploads:        deps.Blobs.Handler(),
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// Dependencies holds what the commands build from configuration.
type Dependencies struct {
	DB      *sqlx.DB
	Blobs   *blob.Store
	Service *service.Service
}

// initializeDependencies opens and migrates the database and wires the
// service layer.
func initializeDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	database, err := db.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, err
	}
	slog.Info("database ready", "path", cfg.DB)

	// A configured secret wins; otherwise one is generated and kept in the
	// database so tokens survive restarts.
	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret, err = store.GetJWTSecret(ctx, database)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("loading JWT secret: %w", err)
		}
	}

	blobs, err := blob.New(cfg.UploadsDir)
	if err != nil {
		database.Close()
		return nil, err
	}

	svc := service.New(database, service.Config{
		JWTSecret:           jwtSecret,
		TokenTTL:            cfg.Auth.TokenTTL,
		BcryptCost:          cfg.Auth.BcryptCost,
		AdminRegisterSecret: cfg.Auth.AdminRegisterSecret,
		Images: imaging.Options{
			MaxDimension: imaging.DefaultMaxDimension,
			Quality:      imaging.DefaultQuality,
		},
	}, blobs)

	return &Dependencies{DB: database, Blobs: blobs, Service: svc}, nil
}
