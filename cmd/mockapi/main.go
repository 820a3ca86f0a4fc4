package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/soporte/internal/logging"
	"github.com/erazemk/soporte/internal/mockapi"
)

func main() {
	fs := flag.NewFlagSet("mockapi", flag.ContinueOnError)

	var addr string
	fs.StringVar(&addr, "addr", ":8000", "")
	fs.StringVar(&addr, "a", ":8000", "")

	var email string
	fs.StringVar(&email, "email", "admin@soporte.test", "")
	fs.StringVar(&email, "e", "admin@soporte.test", "")

	var password string
	fs.StringVar(&password, "password", "", "")
	fs.StringVar(&password, "p", "", "")

	var secret string
	fs.StringVar(&secret, "jwt-secret", "", "")

	var demo bool
	fs.BoolVar(&demo, "demo", false, "")

	var logPath, logLevel string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")
	fs.StringVar(&logLevel, "log-level", "info", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: mockapi [flags]

In-memory backend serving the soporte API under /api.

Flags:
  -a, -addr <host:port>    listen address (default: :8000)
  -e, -email <email>       admin account email (default: admin@soporte.test)
  -p, -password <secret>   admin password (default: generated and printed)
  -jwt-secret <key>        JWT signing key (default: generated)
  -demo                    seed demo products, transfers and tickets
  -l, -log <path>          log file path (default: no file, stdout/stderr only)
  -log-level <level>       debug, info, warn or error (default: info)
  -h, -help                show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	closeLog, err := logging.Setup(logging.Options{Level: logLevel, File: logPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if password == "" {
		password, err = generatePassword(16)
		if err != nil {
			slog.Error("failed to generate admin password", "error", err)
			os.Exit(1)
		}
		fmt.Println("Admin account created:")
		fmt.Printf("  Email:    %s\n", email)
		fmt.Printf("  Password: %s\n", password)
		fmt.Println()
	}

	backend, err := mockapi.New(mockapi.Options{
		Secret:        secret,
		AdminEmail:    email,
		AdminPassword: password,
	})
	if err != nil {
		slog.Error("failed to create backend", "error", err)
		os.Exit(1)
	}
	if demo {
		backend.SeedDemo()
		slog.Info("demo data seeded")
	}

	// The API lives under /api; uploaded files are served from the root so
	// asset URLs resolve against the origin.
	api := backend.Handler()
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", api))
	mux.Handle("/storage/", api)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
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
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
