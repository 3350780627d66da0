package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/emilythestrangee/ystore/backend/internal/auth"
	"github.com/emilythestrangee/ystore/backend/internal/config"
	"github.com/emilythestrangee/ystore/backend/internal/database"
	"github.com/emilythestrangee/ystore/backend/internal/logger"
	"github.com/emilythestrangee/ystore/backend/internal/models"
	"github.com/emilythestrangee/ystore/backend/internal/server"
)

var (
	configPath   string
	promoteEmail string
	promoteRole  string

	rootCmd = &cobra.Command{
		Use:          "ystore",
		Short:        "Marketplace comment and identity service",
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes for the configured storage driver",
		RunE:  runMigrate,
	}

	promoteCmd = &cobra.Command{
		Use:   "promote",
		Short: "Change the role of an existing account",
		RunE:  runPromote,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml, json or toml)")

	promoteCmd.Flags().StringVar(&promoteEmail, "email", "", "account email")
	promoteCmd.Flags().StringVar(&promoteRole, "role", string(models.RoleAdmin), "customer, seller or admin")
	_ = promoteCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(serveCmd, migrateCmd, promoteCmd)
}

// bootstrap loads configuration, starts logging and opens the backend.
func bootstrap(ctx context.Context) (*config.Config, database.Backend, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Path:       cfg.Logger.Path,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		Compress:   cfg.Logger.Compress,
		Console:    cfg.Logger.Console,
		Develop:    cfg.Develop(),
	})
	gin.SetMode(cfg.Server.Mode)

	backend, err := database.New(ctx, cfg.Database, cfg.Develop())
	if err != nil {
		return nil, nil, err
	}
	logger.Infof("Initializing %s storage successfully", cfg.Database.Driver)
	return cfg, backend, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, backend, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer backend.Close()

	if err := backend.Migrate(ctx); err != nil {
		return err
	}

	srv := server.New(cfg, backend).HTTPServer()

	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()

		// Waits for in-flight requests, but gives up after the configured timeout.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Infof("Shutting down HTTP server (waiting for open connections)...")

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("HTTP server shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "main:runServe: ListenAndServe")
	}

	<-idleConnsClosed
	logger.Infof("Server closed successfully")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, backend, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer backend.Close()

	if err := backend.Migrate(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s storage migrated\n", cfg.Database.Driver)
	return nil
}

func runPromote(cmd *cobra.Command, _ []string) error {
	cfg, backend, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer backend.Close()

	ttl := time.Duration(cfg.Auth.ExpirationMinutes) * time.Minute
	svc := auth.NewService(backend, auth.NewTokenManager(cfg.Auth.JWTSecret, ttl))

	user, err := svc.SetRole(cmd.Context(), promoteEmail, models.Role(promoteRole))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", user.Email, user.ID, user.Role)
	return nil
}
