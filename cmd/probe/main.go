package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	apperrors "github.com/Proton-105/liveness-probe/internal/errors"
	"github.com/Proton-105/liveness-probe/internal/health"
	"github.com/Proton-105/liveness-probe/internal/lifecycle"
	"github.com/Proton-105/liveness-probe/internal/mirror"
	"github.com/Proton-105/liveness-probe/internal/probe"
	"github.com/Proton-105/liveness-probe/internal/server"
	"github.com/Proton-105/liveness-probe/internal/state"
	"github.com/Proton-105/liveness-probe/internal/statusfile"
	"github.com/Proton-105/liveness-probe/internal/version"
	"github.com/Proton-105/liveness-probe/pkg/config"
	"github.com/Proton-105/liveness-probe/pkg/graceful"
	"github.com/Proton-105/liveness-probe/pkg/logger"
	"github.com/Proton-105/liveness-probe/pkg/redis"
)

const (
	sentryFlushTimeout = 2 * time.Second
	redisDialTimeout   = 2 * time.Second
	redisIOTimeout     = 250 * time.Millisecond
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var exitErr exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitCodeError carries a non-zero exit code out of the command.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "liveness-probe",
		Short:         "Keeps a liveness status file fresh and randomly deletes it",
		Version:       version.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.LoadWithFlags(configPath, cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if code := run(ctx, cfg); code != 0 {
				return exitCodeError{code: code}
			}
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&configPath, "config", "", "Path to the config file (default ./configs/<APP_ENV>.yaml)")
	flags.String("status-file", "./liveness.txt", "Path of the status file")
	flags.Duration("interval", time.Second, "Interval between two cycles of the same chain")
	flags.Uint64("seed", 0, "Seed of the random source, 0 seeds from the runtime")
	flags.Bool("exit-on-death", false, "Exit with code 1 once the status file was removed")
	flags.Bool("http", false, "Serve /livez, /readyz, /healthz, /status and /metrics")
	flags.String("http-addr", ":8080", "Listen address of the HTTP server")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")

	return root
}

func run(ctx context.Context, cfg *config.Config) int {
	if cfg.Sentry.Enabled() {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			Release:     version.Version,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "failed to init sentry: %v\n", err)
			return 1
		}
		defer sentry.Flush(sentryFlushTimeout)
	}

	log, closeLog, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
		Sentry:     cfg.Sentry.Enabled(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		return 1
	}
	defer func() { _ = closeLog() }()

	runID := logger.NewCorrelationID()
	ctx = logger.ContextWithCorrelationID(ctx, runID)
	log = log.With(slog.String("run_id", runID))
	slog.SetDefault(log)

	fmt.Fprintf(os.Stdout, "Version: %s\n\n", version.Version)
	log.Info("liveness probe starting",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("env", cfg.AppEnv),
	)

	errHandler := apperrors.NewHandler(log)
	store := statusfile.NewFileStore(afero.NewOsFs(), cfg.Probe.StatusFile)
	shutdown := lifecycle.NewShutdown(log, cfg.HTTP.ShutdownTimeout)

	checker := health.NewChecker(log)
	checker.AddCheck("status_file", health.NewStatusFileChecker(store))

	opts := []probe.Option{
		probe.WithErrorHandler(errHandler),
		probe.WithMachine(state.NewMachine(log)),
		probe.WithConsole(os.Stdout),
	}

	closeMirror := func(context.Context) error { return nil }
	if cfg.Redis.Enabled {
		rdb, err := redis.New(ctx, redis.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  redisDialTimeout,
			ReadTimeout:  redisIOTimeout,
			WriteTimeout: redisIOTimeout,
		})
		if err != nil {
			// the status file is the signal that matters; run without the mirror.
			errHandler.Handle(ctx, apperrors.NewMirrorError("connect", err))
		} else {
			checker.AddCheck("redis", rdb)
			pub := mirror.NewAsyncPublisher(
				mirror.NewRedisMirror(rdb, cfg.Redis.Key, cfg.MirrorTTL(), runID, log),
				cfg.Probe.Interval/2, errHandler, log,
			)
			pub.Start(ctx)
			closeMirror = func(ctx context.Context) error {
				return errors.Join(pub.Close(ctx), rdb.Close())
			}
			opts = append(opts, probe.WithPublisher(pub))
		}
	}

	loop, err := probe.New(probe.Config{
		Interval:     cfg.Probe.Interval,
		InitialDelay: cfg.Probe.InitialDelay,
	}, store, probe.NewRandom(cfg.Probe.Seed), log, opts...)
	if err != nil {
		log.Error("failed to create probe loop", slog.Any("error", err))
		return 1
	}
	checker.AddCheck("loop", health.NewLoopChecker(loop))
	// Stop queues the mirror clear, so the mirror closes only afterwards.
	shutdown.Register("probe", func(ctx context.Context) error {
		stopErr := loop.Stop(ctx)
		return errors.Join(stopErr, closeMirror(ctx))
	})

	surfaceCtx, cancelSurfaces := context.WithCancel(ctx)
	defer cancelSurfaces()

	if cfg.Probe.WatchStatusFile {
		watcher := statusfile.NewWatcher(store.Path(), log)
		go func() {
			if err := watcher.Run(surfaceCtx, nil); err != nil {
				log.Warn("status file watcher stopped", slog.Any("error", err))
			}
		}()
	}

	if cfg.HTTP.Enabled {
		router := server.NewRouter(server.Deps{
			Log:     log,
			Probes:  lifecycle.NewProbes(log, loop, health.NewStatusFileChecker(store)),
			Checker: checker,
			Loop:    loop,
		})
		srv := graceful.NewServer(log, cfg.HTTP.Addr, router, cfg.HTTP.ShutdownTimeout)

		httpDone := make(chan error, 1)
		go func() { httpDone <- srv.ListenAndServe(surfaceCtx) }()

		shutdown.Register("http", func(ctx context.Context) error {
			cancelSurfaces()
			select {
			case err := <-httpDone:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	code := 0
	runErr := loop.Run(ctx)
	switch {
	case runErr == nil:
		if cfg.Probe.ExitOnDeath {
			log.Warn("probe loop is dead, exiting")
			code = 1
			break
		}
		log.Warn("probe loop is dead, waiting for the supervisor to restart the container")
		<-ctx.Done()
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		log.Info("shutdown signal received")
	default:
		errHandler.Handle(ctx, runErr)
		code = 1
	}

	shutdownCtx := logger.ContextWithCorrelationID(context.Background(), runID)
	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}

	log.Info("liveness probe stopped", slog.Int("exit_code", code))
	return code
}
