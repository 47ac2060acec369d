/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Warp Timeclock Engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and parse command-line flags
  2. Initialize SQLite store
  3. Wire session manager, corrector, payroll engine, event hub
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port       HTTP server port (default: 8080)
  -db         SQLite database path (default: timeclock.db)
              Use ":memory:" for in-memory database
  -base-pay   Fallback hourly base pay for staff with no configured rate
              (default: 25)

ENVIRONMENT:
  Read from the process environment, with a .env file loaded first when
  present. Environment values override flag defaults; explicit flags win.
    PORT               HTTP server port
    DB_PATH            SQLite database path
    BASE_PAY_FALLBACK  Fallback hourly base pay

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close event hub and database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/timeclock.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/warp/timeclock-engine/api"
	"github.com/warp/timeclock-engine/clock"
	"github.com/warp/timeclock-engine/payroll"
	"github.com/warp/timeclock-engine/store/sqlite"
)

func main() {
	// .env is optional; absence is not an error
	_ = godotenv.Load()

	// Flags, defaulted from the environment
	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envString("DB_PATH", "timeclock.db"), "SQLite database path")
	basePay := flag.String("base-pay", envString("BASE_PAY_FALLBACK", "25"), "fallback hourly base pay")
	flag.Parse()

	fallback, err := decimal.NewFromString(*basePay)
	if err != nil {
		log.Fatalf("Invalid base pay %q: %v", *basePay, err)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Wire dependencies
	hub := api.NewEventHub()
	defer hub.Close()

	sessions := clock.NewSessionManager(store)
	sessions.Notifier = hub

	fixer := clock.NewCorrector(store)
	fixer.Notifier = hub

	engine := payroll.NewEngine(fallback)

	handler := api.NewHandler(store, sessions, fixer, engine)
	router := api.NewRouter(handler, hub)

	// Create server
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", *port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /api/events holds its response open indefinitely
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Warning: ignoring non-numeric %s=%q", key, v)
	}
	return fallback
}
