package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"project-relay/ai"
	"project-relay/auth"
	"project-relay/directory"
	"project-relay/internal"
	"project-relay/moderation"
	"project-relay/relay"
	"project-relay/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so that deferred cleanup always executes
// before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.LoggerFromString(config.LogLevel)

	// 2. Project directory (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	store := directory.NewBadgerStore(db)

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Seed configured rooms so connections have projects to bind to
	seeds := lo.Filter(strings.Split(config.SeedProjects, ","), func(name string, _ int) bool {
		return strings.TrimSpace(name) != ""
	})
	for _, name := range seeds {
		project, err := store.EnsureProject(ctx, strings.TrimSpace(name))
		if err != nil {
			return fmt.Errorf("seeding project %q failed: %w", name, err)
		}
		log.Info("room available", "project_id", project.ID, "name", project.Name)
	}

	// 5. Completion capabilities
	gemini, err := ai.NewGemini(ctx, config.GoogleAIKey, ai.WithModel(config.GeminiModel))
	if err != nil {
		return fmt.Errorf("completion client failed: %w", err)
	}

	// 6. Optional moderation
	moderator, err := loadModerator(config)
	if err != nil {
		return err
	}

	// 7. Core wiring
	registry := relay.NewRegistry()
	core := relay.NewRelay(log, registry, gemini.Chat(), gemini.Code(),
		moderator, config.AITimeout, config.SinkTimeout)
	gatekeeper := relay.NewGatekeeper(auth.NewVerifier(config.JWTSecret), store)
	gateway := ws.NewGateway(log, gatekeeper, registry, core, config.ConnectionBufferSize)

	mux := http.NewServeMux()
	mux.Handle("/ws", gateway)

	// 8. Background supervision
	sup := internal.NewSupervisor(log)
	sup.Add(internal.NewMonitorWorker(log, config.MetricInterval))
	go sup.Run(ctx)

	// 9. HTTP server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 10. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 11. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

// loadModerator builds the censor pass from the configured word list.
// No file configured means plain bodies are relayed verbatim.
func loadModerator(config Config) (*moderation.Moderator, error) {
	if config.CensoredWordsFile == "" {
		return nil, nil
	}

	data, err := os.ReadFile(config.CensoredWordsFile)
	if err != nil {
		return nil, fmt.Errorf("reading censored words failed: %w", err)
	}

	replacement, err := CharacterRune(config.ModerationChar)
	if err != nil {
		return nil, err
	}

	words := strings.Fields(string(data))
	moderator, err := moderation.NewModerator(words, replacement)
	if err != nil {
		return nil, fmt.Errorf("building moderator failed: %w", err)
	}
	return moderator, nil
}
