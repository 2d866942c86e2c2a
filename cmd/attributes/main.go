// Command attributes searches product attributes in the configured PostgreSQL database
// and prints the result as JSON.
//
//	attributes -config attributes.yaml -domain product -type color -sort position -include text,media
//	attributes -where '{"==": {"attribute.code": ["red", "blue"]}}' -limit 10
//
// The configuration file is optional; every setting can also be given by an ATTRIBUTES_* environment variable,
// e.g. ATTRIBUTES_DATABASE_DSN.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/attribute-query-go/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "attributes: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: cfg.Log.Level})).
		With("request_id", uuid.NewString())

	controller, closeDB, err := buildController(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	logger.Debug("searching attributes",
		"adapter", cfg.Database.Adapter,
		"domain", flags.domain,
		"types", flags.types,
		"include", flags.include,
	)

	return execute(ctx, controller, flags, stdout)
}
