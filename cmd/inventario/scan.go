package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/erazemk/inventario/internal/capture"
	"github.com/erazemk/inventario/internal/config"
	"github.com/erazemk/inventario/internal/scanner"
)

func cmdScan(args []string) error {
	fs := newFlagSet("scan")

	var imagePath string
	fs.StringVar(&imagePath, "image", "", "")
	fs.StringVar(&imagePath, "i", "", "")

	var target string
	fs.StringVar(&target, "target", string(scanner.TargetNewItem), "")
	fs.StringVar(&target, "t", string(scanner.TargetNewItem), "")

	var envPath string
	fs.StringVar(&envPath, "env", config.DefaultEnvFile, "")
	fs.StringVar(&envPath, "e", config.DefaultEnvFile, "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if imagePath == "" {
		fmt.Fprintln(os.Stderr, "error: -image is required")
		return errors.New("missing image")
	}
	if !scanner.Target(target).Valid() {
		fmt.Fprintf(os.Stderr, "error: unknown target %q\n", target)
		return errors.New("invalid target")
	}

	// Stdout carries the JSON result, so logs go to stderr.
	closeLog, err := setupLogger(logPath, true)
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

	pipeline, err := newPipeline(cfg, prometheus.NewRegistry())
	if err != nil {
		slog.Error("failed to set up recognition", "error", err)
		return err
	}
	if pipeline == nil {
		slog.Error("recognition disabled, INVENTARIO_GEMINI_API_KEY is not set")
		return errors.New("recognition disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := capture.NewSession(capture.FileCamera{Path: imagePath}, capture.DefaultConstraints)
	sc := scanner.New(session, pipeline)
	defer func() {
		if err := sc.Stop(); err != nil {
			slog.Warn("failed to release camera", "error", err)
		}
	}()

	if err := sc.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	res, err := sc.Scan(ctx, scanner.Target(target))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
