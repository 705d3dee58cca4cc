package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/config"
	"github.com/sagarc03/zipstream/database"
	"github.com/sagarc03/zipstream/filesystem"
	zshttp "github.com/sagarc03/zipstream/http"
	"github.com/sagarc03/zipstream/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the zipstream HTTP server.

Examples:
  # Serve ./test_photos on port 8080
  zipstream serve

  # Serve another directory, slowing every chunk down by one second
  zipstream serve --photos-dir /srv/photos --delay 1s

  # Allow at most four archives to be built at the same time
  zipstream serve --max-jobs 4

  # Record finished jobs in SQLite (run "zipstream init" first)
  zipstream serve --history --db-dsn zipstream.db`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port (env: ZIPSTREAM_SERVER_PORT)")
	serveCmd.Flags().Duration("delay", 0, "pause between streamed chunks (env: ZIPSTREAM_ARCHIVE_DELAY)")
	serveCmd.Flags().String("executable", "", "compression executable (default: zip)")
	serveCmd.Flags().Int("chunk-size", 0, "maximum streamed chunk size in bytes (default: 100000)")
	serveCmd.Flags().Int64("max-jobs", 0, "maximum concurrent archive jobs, 0 for no limit")
	serveCmd.Flags().Duration("grace-period", 0, "time a stopped archive process gets before it is killed (default: 5s)")
	serveCmd.Flags().String("index", "", "landing page file served at / (default: built-in page)")
	serveCmd.Flags().Bool("metrics", true, "expose Prometheus metrics at /metrics")
	serveCmd.Flags().Bool("history", false, "record finished jobs and serve them at /jobs")
	addDatabaseFlags(serveCmd)

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	basePath, err := filepath.Abs(cfg.Archive.Path)
	if err != nil {
		return fmt.Errorf("resolve photo directory: %w", err)
	}

	root, err := os.OpenRoot(basePath)
	if err != nil {
		return fmt.Errorf("open photo directory: %w", err)
	}
	defer func() { _ = root.Close() }()

	store := filesystem.NewStore(root)

	index, err := filesystem.NewIndex(store, basePath, filesystem.DefaultIndexMaxAge, slog.Default())
	if err != nil {
		return fmt.Errorf("create archive index: %w", err)
	}
	defer func() { _ = index.Close() }()

	resolver, err := zipstream.NewResolver(basePath, store)
	if err != nil {
		return fmt.Errorf("create resolver: %w", err)
	}

	var (
		recorder       zipstream.Recorder = zipstream.NopRecorder{}
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		registry := metrics.NewRegistry()
		recorder = metrics.New(registry)
		metricsHandler = metrics.Handler(registry)
	}

	var history zipstream.JobHistory
	if cfg.History.Enabled {
		db, err := openHistory(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		history = db.GetRepo()
	}

	service, err := zipstream.NewArchiveService(resolver, index, zipstream.ServiceConfig{
		Command:     cfg.Archive.Command(),
		ChunkSize:   cfg.Archive.ChunkSize,
		PacingDelay: cfg.Archive.Delay,
		GracePeriod: cfg.Archive.GracePeriod,
		MaxJobs:     cfg.Archive.MaxJobs,
		Recorder:    recorder,
		History:     history,
		Logger:      slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	handlerConfig := zshttp.HandlerConfig{
		IndexPath: cfg.Index.Path,
		Metrics:   metricsHandler,
		History:   history,
		CORS:      cfg.CORS,
	}

	handler := zshttp.NewHandler(&handlerConfig, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		// Request contexts derive from ctx so that canceling it stops every
		// running archive process.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown timed out, stopping running archives", "err", err)
			cancel()

			// canceled requests return once their archive process is reaped
			reapCtx, reapCancel := context.WithTimeout(context.Background(), 2*cfg.Archive.GracePeriod)
			defer reapCancel()
			if err := server.Shutdown(reapCtx); err != nil {
				slog.Error("server shutdown error", "err", err)
				_ = server.Close()
			}
		}
		cancel()
	}()

	slog.Info("starting server",
		"addr", addr,
		"photos_dir", basePath,
		"executable", cfg.Archive.Executable,
		"chunk_size", cfg.Archive.ChunkSize,
		"delay", cfg.Archive.Delay,
		"max_jobs", cfg.Archive.MaxJobs,
		"history", cfg.History.Enabled,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-shutdownDone
	return nil
}

// openHistory connects the job history database and checks its schema,
// creating the table first when history.auto_migrate is set.
func openHistory(ctx context.Context, cfg *config.Config) (database.Database, error) {
	db, err := database.Open(ctx, cfg.Database, cfg.History.AutoMigrate)
	if err != nil {
		return nil, err
	}

	slog.Info("connected to database",
		"type", cfg.Database.Type,
		"table", cfg.Database.Tables.Jobs,
		"auto_migrate", cfg.History.AutoMigrate,
	)
	return db, nil
}
