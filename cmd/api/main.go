package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anime-storefront/internal/config"
	"anime-storefront/internal/middleware"
	"anime-storefront/internal/repository"
	"anime-storefront/internal/server"
	"anime-storefront/internal/worker"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "storefront",
		Short:        "Anime merchandise storefront API",
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(cleanupCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the order cleanup scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			scheduler := worker.NewCleanupScheduler(a.services.Cleanup, a.cfg.Cleanup.Interval, a.log)
			if a.cfg.Cleanup.Enabled {
				go scheduler.Start(ctx)
			} else {
				a.log.Info("order cleanup scheduler disabled")
			}

			if a.cfg.Auth.JWTSecret == "" {
				a.log.Warn("AUTH_JWT_SECRET not set, all requests run as the demo customer")
			}

			srv := server.NewServer(a.services, scheduler, a.cfg.Auth.JWTSecret, a.log)
			serverAddr := a.cfg.HTTP.Host + ":" + a.cfg.HTTP.Port

			errCh := make(chan error, 1)
			go func() {
				a.log.WithField("addr", serverAddr).Info("starting HTTP server")
				if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.log.Info("signal received, starting graceful shutdown")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("http server shutdown: %w", err)
			}
			return nil
		},
	}
}

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Cancel expired pending-payment orders once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.services.Cleanup.CancelExpiredPendingOrders(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "cancelled %d orders pending since before %s\n",
				result.CancelledCount, result.Cutoff.Format(time.RFC3339))
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := openDB()
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := repository.NewSettingRepository(db).SeedDefaults(cmd.Context()); err != nil {
				return fmt.Errorf("seed settings: %w", err)
			}

			log.Info("migrations applied")
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token [user-id]",
		Short: "Issue a signed access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("AUTH_JWT_SECRET is not set")
			}

			role, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			token, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecret), args[0], role, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringP("role", "r", middleware.RoleCustomer, "Role claim (customer, admin)")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")

	return cmd
}
