package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		log.Fatal("main:", err)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "quick-forms",
		Short:         "Form builder REST backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := config.AddFlags(cmd.PersistentFlags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, db, err := setup(flags)
		if err != nil {
			return err
		}
		defer db.Close()

		return runServer(cfg, routes.Wire(app.New(db, cfg)))
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := setup(flags)
			if err != nil {
				return err
			}
			defer db.Close()

			version, dirty, err := database.SchemaVersion(cmd.Context(), db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	})

	cmd.AddCommand(userCmd(flags))

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	return cmd
}

func userCmd(flags *config.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(
		setActiveCmd(flags, "disable", false),
		setActiveCmd(flags, "enable", true),
	)
	return cmd
}

// setActiveCmd toggles the account of the given email. Disabling an account
// also revokes its token.
func setActiveCmd(flags *config.Flags, name string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <email>",
		Short: "Set the account of <email> " + name + "d",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := setup(flags)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			user, err := database.UserByEmail(ctx, db, model.NormalizeEmail(args[0]))
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("no user with email %q", args[0])
			}
			if err != nil {
				return err
			}

			err = database.SetActive(ctx, db, user.ID, active)
			if err != nil {
				return err
			}
			if !active {
				err = database.DeleteToken(ctx, db, user.ID)
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "user %s %sd\n", user.Email, name)
			return nil
		},
	}
}

// setup resolves the configuration and opens the migrated database.
func setup(flags *config.Flags) (config.Config, *sql.DB, error) {
	cfg, err := flags.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		return cfg, nil, fmt.Errorf("db.open: %w", err)
	}
	return cfg, db, nil
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("Listening on " + cfg.Url())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
