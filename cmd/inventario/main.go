package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/erazemk/inventario/internal/api"
	"github.com/erazemk/inventario/internal/auth"
	"github.com/erazemk/inventario/internal/config"
	"github.com/erazemk/inventario/internal/db"
	"github.com/erazemk/inventario/internal/gemini"
	"github.com/erazemk/inventario/internal/ledger"
	"github.com/erazemk/inventario/internal/metrics"
	"github.com/erazemk/inventario/internal/recognition"
	"github.com/erazemk/inventario/internal/scanner"
	"github.com/erazemk/inventario/internal/store"
)

const usage = `Usage: inventario [serve|scan] [flags]

Commands:
  serve (default)         run the HTTP API
  scan                    recognize a label photo and print the candidate

Serve flags:
  -d, -db <path>          SQLite database path (default: inventario.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -e, -env <path>         env file with recognition settings (default: .env)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)

Scan flags:
  -i, -image <path>       label photo (JPEG or PNG)
  -t, -target <target>    newItem or search (default: newItem)
  -e, -env <path>         env file with recognition settings (default: .env)
  -l, -log <path>         log file path

  -h, -help               show this help and exit
`

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = cmdServe(args)
	case "scan":
		err = cmdScan(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", cmd, usage)
		os.Exit(1)
	}

	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		os.Exit(1)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stdout, usage) }
	return fs
}

func cmdServe(args []string) error {
	fs := newFlagSet("serve")

	var dbPath string
	fs.StringVar(&dbPath, "db", "inventario.sqlite3", "")
	fs.StringVar(&dbPath, "d", "inventario.sqlite3", "")

	var addr string
	fs.StringVar(&addr, "addr", ":8080", "")
	fs.StringVar(&addr, "a", ":8080", "")

	var envPath string
	fs.StringVar(&envPath, "env", config.DefaultEnvFile, "")
	fs.StringVar(&envPath, "e", config.DefaultEnvFile, "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	// INFO/WARN → stdout, ERROR → stderr, optionally also a log file.
	closeLog, err := setupLogger(logPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	if closeLog != nil {
		defer closeLog()
	}

	cfg, err := config.Load(envPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		database, password, err := initDatabase(dbPath)
		if err != nil {
			slog.Error("failed to initialize database", "error", err)
			return err
		}
		database.Close()

		printInitResult(dbPath, password)
		fmt.Println()
	}

	database, err := db.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		return err
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		return err
	}
	slog.Info("database ready", "path", dbPath)

	ctx := context.Background()
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		slog.Error("failed to get JWT secret", "error", err)
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	inventory, err := ledger.Open(ctx, store.NewKV(database), ledger.WithMetrics(metrics.NewLedger(reg)))
	if err != nil {
		slog.Error("failed to load inventory", "error", err)
		return err
	}

	pipeline, err := newPipeline(cfg, reg)
	if err != nil {
		slog.Error("failed to set up recognition", "error", err)
		return err
	}
	var sc *scanner.Scanner
	if pipeline != nil {
		sc = scanner.New(nil, pipeline)
	} else {
		slog.Warn("recognition disabled, INVENTARIO_GEMINI_API_KEY is not set")
	}

	router := api.NewRouter(api.Config{
		DB:        database,
		JWTSecret: jwtSecret,
		Ledger:    inventory,
		Scanner:   sc,
		Gatherer:  reg,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           api.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Scans wait on two recognition calls.
		WriteTimeout: 2*cfg.Gemini.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		return err
	}

	slog.Info("server stopped, closing database")
	return nil
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return nil
}

// newPipeline builds the recognition stack, or returns nil when no API key
// is configured.
func newPipeline(cfg *config.Config, reg prometheus.Registerer) (*recognition.Pipeline, error) {
	if !cfg.RecognitionEnabled() {
		return nil, nil
	}

	client, err := gemini.New(cfg.Gemini.Client())
	if err != nil {
		return nil, err
	}
	cached, err := recognition.NewCachedService(client, cfg.EnrichmentCacheSize)
	if err != nil {
		return nil, err
	}

	slog.Info("recognition enabled", "model", client.Model())
	return recognition.NewPipeline(cached, recognition.WithMetrics(metrics.NewRecognition(reg))), nil
}

// initDatabase creates a new database, ensures the schema, and sets a
// generated operator password.
func initDatabase(path string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", err
	}

	if err := db.EnsureSchema(database); err != nil {
		return fail(fmt.Errorf("ensuring schema: %w", err))
	}

	password, err := auth.GeneratePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fail(err)
	}

	if err := store.SetOperatorPasswordHash(context.Background(), database, hash); err != nil {
		return fail(err)
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Operator password:")
	fmt.Printf("  %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("It can be changed after logging in.")
}
