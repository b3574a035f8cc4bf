package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vinizap/lumi-notes/assistant"
	"github.com/vinizap/lumi-notes/config"
	"github.com/vinizap/lumi-notes/events"
	httpapi "github.com/vinizap/lumi-notes/http"
	"github.com/vinizap/lumi-notes/logging"
	"github.com/vinizap/lumi-notes/store"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

const (
	shutdownTimeout      = 10 * time.Second
	migrateRetryInterval = 5 * time.Second
)

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "lumi",
		Short:         "Lumi notes server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configFile)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default lumi.yaml if present)")

	rootCmd.AddCommand(serveCmd(&configFile), migrateCmd(&configFile), versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *configFile)
		},
	}
}

func migrateCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	run := func(down bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configFile)
			if err != nil {
				return err
			}
			st, err := store.Open(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			defer st.Close()

			if down {
				err = st.MigrateDown()
			} else {
				err = st.Migrate()
			}
			if err != nil {
				return err
			}
			log.Info().Str("database", st.Dialect().Name()).Bool("down", down).Msg("migrations applied")
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: run(false)},
		&cobra.Command{Use: "down", Short: "Roll back every migration", RunE: run(true)},
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "lumi", Version)
		},
	}
}

func setup(configFile string) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	return cfg, nil
}

// serve starts the API. An unreachable database does not stop the server:
// requests report 503 until it comes back and migrations have been applied.
func serve(ctx context.Context, configFile string) error {
	cfg, err := setup(configFile)
	if err != nil {
		return err
	}

	st, err := store.New(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer st.Close()

	// Until the database answers and is migrated, store calls report 503.
	go func() {
		err := st.MigrateWhenReady(ctx, migrateRetryInterval)
		switch {
		case err == nil:
			log.Info().Str("database", st.Dialect().Name()).Msg("database ready")
		case !errors.Is(err, context.Canceled):
			log.Error().Err(err).Msg("migration failed")
		}
	}()

	if cfg.AI.Token == "" {
		log.Warn().Msg("AI token not configured, AI endpoints will report errors")
	}
	ai := assistant.New(assistant.NewClient(assistant.ClientConfig{
		Token:    cfg.AI.Token,
		Endpoint: cfg.AI.Endpoint,
		Model:    cfg.AI.Model,
		Timeout:  cfg.AI.Timeout,
	}), st)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	hub := events.NewHub()
	go hub.Run(hubCtx)

	srv := httpapi.NewServer(st, ai, hub, httpapi.Options{
		Environment:  cfg.Environment,
		DatabaseType: st.Dialect().Name(),
		Token:        cfg.Server.Token,
		CORSOrigins:  cfg.Server.CORSOrigins,
	})

	errc := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Addr()).
			Str("database", st.Dialect().Name()).
			Str("environment", cfg.Environment).
			Bool("auth", cfg.Server.Token != "").
			Msg("server starting")
		errc <- srv.Listen(cfg.Addr())
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	// Closing the hub ends open event streams so shutdown does not wait on them.
	stopHub()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
