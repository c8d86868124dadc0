package main

import (
	"campus-chat/internal"
	"campus-chat/observability"
	"campus-chat/repositories"
	"campus-chat/runtime"
	"campus-chat/runtime/workers"
	"campus-chat/sink"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, drives the console and centralizes error reporting.
// Deferred cleanups (database, metrics server) run before main exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB), in memory when no path is given
	opts := badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING)
	if config.BadgerFilepath == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Stores & directory seed
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users := repositories.NewUserRepository(db)
	seeded, err := users.SeedFromFile(ctx, config.DirectorySeedFile)
	if err != nil {
		return fmt.Errorf("directory seed failed: %w", err)
	}
	log.Info("Directory loaded", "users", seeded, "file", config.DirectorySeedFile)
	threads := repositories.NewThreadRepository(db, log)
	messages := repositories.NewMessageRepository(db, log, config.LimitMessages)

	// 4. Supervision & Orchestration
	orchestrator, err := runtime.NewOrchestrator(log,
		workers.NewSupervisor(log, config.RestartInterval), runtime.NewRegistry(),
		threads, messages, users, runtime.Settings{
			BufferSize:        config.BufferSize,
			SinkTimeout:       config.SinkTimeout,
			SignalLatency:     config.SignalLatency,
			RingTimeout:       config.RingTimeout,
			ModerationEnabled: config.ModerationEnabled,
			CharReplacement:   charReplacement,
		})
	if err != nil {
		return fmt.Errorf("orchestrator setup failed: %w", err)
	}
	metrics := observability.NewMetrics()
	orchestrator.Add(metrics, sink.NewAuditSink(repositories.NewAuditRepository(db), log))

	console, err := newConsole(ctx, log, orchestrator, os.Stdout)
	if err != nil {
		return err
	}

	// 5. Start the engine
	errChan := make(chan error, 2)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if err := orchestrator.Start(ctx); err != nil {
			errChan <- fmt.Errorf("orchestrator failed to start: %w", err)
		}
	}()

	// 6. Metrics endpoint
	var server *http.Server
	if config.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		server = &http.Server{Addr: fmt.Sprintf(":%d", config.MetricsPort), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info("Serving metrics", "address", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	// 7. Console until EOF, stop or error
	lines := readLines(os.Stdin)
	console.prompt()
loop:
	for {
		select {
		case <-ctx.Done():
			log.Info("Shutting down gracefully...")
			break loop
		case err := <-errChan:
			orchestrator.Stop()
			<-stopped
			return err
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			if quit := console.exec(ctx, line); quit {
				break loop
			}
			console.prompt()
		}
	}

	// 8. Final cleanup
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
	orchestrator.Stop()
	<-stopped
	log.Info("Program stopped cleanly")
	return nil
}
