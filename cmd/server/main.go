package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chatter-box/auth"
	"chatter-box/infrastructure/rest"
	"chatter-box/infrastructure/ws"
	"chatter-box/internal"
	"chatter-box/moderation"
	"chatter-box/observability"
	"chatter-box/repositories"
	"chatter-box/runtime"
	"chatter-box/runtime/workers"
	"chatter-box/services"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and background workers.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	monitor := observability.NewMonitor()

	if config.Debug && config.DebugPort > 0 {
		endpoint := "/inspect"
		logger.Info("Debug store inspector available",
			"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		internal.StartDebugServer(db, config.DebugPort, endpoint, ChatMapper, func() map[string]any {
			stats := monitor.Snapshot()
			return map[string]any{
				"active_connections": stats.ActiveConnections,
				"messages_sent":      stats.MessagesSent,
				"broadcasts":         stats.Broadcasts,
				"goroutines":         stats.Goroutines,
			}
		})
	}

	// 3. Repositories
	userRepository := repositories.NewUserRepository(db)
	roomRepository, err := repositories.NewRoomRepository(db, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("room repository init failed: %w", err)
	}
	defer func() { _ = roomRepository.Close() }()

	messageRepository, err := repositories.NewMessageRepository(db, logger, config.LimitMessages)
	if err != nil {
		return exitRuntime, fmt.Errorf("message repository init failed: %w", err)
	}
	defer func() { _ = messageRepository.Close() }()

	// 4. Moderation
	censoredWords, err := moderation.LoadWords()
	if err != nil {
		return exitRuntime, fmt.Errorf("loading censored words failed: %w", err)
	}
	moderator, err := moderation.NewModerator(censoredWords, charReplacement)
	if err != nil {
		return exitRuntime, fmt.Errorf("moderator init failed: %w", err)
	}

	// 5. Routing & Services
	registry := runtime.NewRegistry()
	router := runtime.NewRouter(logger, registry, monitor)
	authority := services.NewAuthority(roomRepository)
	tokenService := auth.NewTokenService([]byte(config.JWTSecret), config.AuthTokenDuration)

	messageService := services.NewMessageService(logger, authority, messageRepository, router, &moderator, monitor)
	roomService := services.NewRoomService(logger, roomRepository, userRepository, messageRepository, authority, router)
	authService := services.NewAuthService(userRepository, tokenService)

	// 6. Background workers
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(
		workers.NewHeartbeatWorker(logger, monitor, config.HeartbeatInterval),
		workers.NewGCWorker(logger, db, config.GCInterval),
	)

	// 7. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	// 8. HTTP server (REST + websocket endpoint)
	mux := http.NewServeMux()
	restHandler := rest.NewHandler(
		logger, authService, roomService, messageService,
		tokenService, config.CookieSecure, config.AuthTokenDuration,
	)
	restHandler.Register(mux)

	wsServer := ws.NewServer(
		logger, tokenService, authority, router, messageService,
		monitor, config.AllowedOrigin, config.ConnectionBufferSize,
	)
	mux.HandleFunc("GET /ws", wsServer.ServeWS)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	// The execution blocks here until either a signal is received or the server crashes.
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 10. Final Cleanup (Graceful Shutdown)
	// We allow in-flight requests to finish and workers to observe the cancellation.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "err", err)
	}
	sup.Stop()
	<-supDone
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}

// ChatMapper decodes store entries for the debug inspector based on their
// key family.
func ChatMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)

	switch {
	case len(key) > 4 && key[:4] == "msg:":
		var m repositories.DiskMessage
		if err := cbor.Unmarshal(val, &m); err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.Type = "MESSAGE"
		row.EntityID = strconv.FormatInt(m.ID, 10)
		row.Timestamp = time.Unix(0, m.At).Format("15:04:05")
		row.Detail = fmt.Sprintf("%s: %s", m.Sender, m.Content)
	case len(key) > 5 && key[:5] == "room:":
		var r repositories.DiskRoom
		if err := cbor.Unmarshal(val, &r); err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.Type = "ROOM"
		row.EntityID = strconv.FormatInt(r.ID, 10)
		row.Timestamp = time.Unix(0, r.At).Format("15:04:05")
		row.Detail = fmt.Sprintf("%s (creator %s)", r.Name, r.Creator)
	case len(key) > 5 && key[:5] == "user:":
		var u repositories.DiskUser
		if err := cbor.Unmarshal(val, &u); err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.Type = "USER"
		row.EntityID = u.ID
		row.Timestamp = time.Unix(0, u.At).Format("15:04:05")
		row.Detail = u.Username
	}
	return row
}
