package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	appintegration "github.com/storebridge/backend/internal/application/integration"
	"github.com/storebridge/backend/internal/bootstrap"
	"github.com/storebridge/backend/internal/domain/integration"
	"github.com/storebridge/backend/internal/infrastructure/config"
	"github.com/storebridge/backend/internal/infrastructure/logger"
)

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

type options struct {
	productID     int64
	publicationID string
	status        string
	noPublish     bool
	session       bool
	logLevel      string
}

func parseOptions(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("importctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }

	opts := &options{}
	fs.Int64Var(&opts.productID, "id", 0, "Fake Store product id to import")
	fs.StringVar(&opts.publicationID, "publication", "", "Publication id to publish to (skips lookup)")
	fs.StringVar(&opts.status, "status", "", "Initial product status: DRAFT or ACTIVE")
	fs.BoolVar(&opts.noPublish, "no-publish", false, "Create the product without publishing it")
	fs.BoolVar(&opts.session, "session", false, "Print shop and publication info, then exit")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if !opts.session && opts.productID <= 0 {
		return nil, errors.New("-id must be a positive integer")
	}
	opts.status = strings.ToUpper(strings.TrimSpace(opts.status))
	if opts.status != "" && !integration.ProductStatus(opts.status).IsValid() {
		return nil, fmt.Errorf("-status must be DRAFT or ACTIVE, got %q", opts.status)
	}
	return opts, nil
}

func (o *options) command() appintegration.ImportCommand {
	return appintegration.ImportCommand{
		ProductToFetchID:         o.productID,
		OnlineStorePublicationID: o.publicationID,
		InitialStatus:            integration.ProductStatus(o.status),
		SkipPublish:              o.noPublish,
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "importctl: %v\n", err)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "importctl: load configuration: %v\n", err)
		return exitFailed
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	// stdout carries the JSON result
	if cfg.Log.Output == "" || cfg.Log.Output == "stdout" {
		cfg.Log.Output = "stderr"
	}

	log, err := bootstrap.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "importctl: initialize logger: %v\n", err)
		return exitFailed
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, log, err := bootstrap.NewTelemetry(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize telemetry", zap.Error(err))
		return exitFailed
	}
	defer func() {
		_ = tel.Shutdown(context.WithoutCancel(ctx))
	}()

	importer, err := bootstrap.NewImporter(cfg, log, tel)
	if err != nil {
		log.Error("Failed to initialize catalog import", zap.Error(err))
		return exitFailed
	}
	defer func() {
		_ = importer.Close()
	}()

	if opts.session {
		session, err := importer.Service.LoadSession(ctx)
		if err != nil {
			log.Error("Failed to load session", zap.Error(err))
			return exitFailed
		}
		return writeJSON(stdout, stderr, session)
	}

	result, err := importer.Service.Import(ctx, opts.command())
	if err != nil {
		log.Error("Import rejected", zap.Error(err))
		return exitFailed
	}
	if code := writeJSON(stdout, stderr, result); code != exitOK {
		return code
	}
	if result.Failed() {
		return exitFailed
	}
	return exitOK
}

func writeJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "importctl: write result: %v\n", err)
		return exitFailed
	}
	return exitOK
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Catalog import tool

Usage:
  importctl -id <n> [flags]
  importctl -session

Flags:
  -id int               Fake Store product id to import
  -publication string   Publication id to publish to (skips lookup)
  -status string        Initial product status: DRAFT or ACTIVE
  -no-publish           Create the product without publishing it
  -session              Print shop and publication info, then exit
  -log-level string     Log level override (debug, info, warn, error)

Configuration is read from config.toml and STOREBRIDGE_* environment variables,
e.g. STOREBRIDGE_SHOPIFY_SHOP_DOMAIN and STOREBRIDGE_SHOPIFY_ACCESS_TOKEN.

Examples:
  importctl -id 1
  importctl -id 3 -status ACTIVE -no-publish`)
}
