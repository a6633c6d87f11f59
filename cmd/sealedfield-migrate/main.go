// Command sealedfield-migrate encrypts legacy plaintext confidential fields
// in place. It is safe to run repeatedly.
//
// With -f entity.field=value it instead finds the record holding that
// confidential value and prints its id.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ai8future/sealedfield/internal/config"
	"github.com/ai8future/sealedfield/internal/migrator"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		logger.Error("config error", "error", err)
		os.Exit(2)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := migrator.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup error", "error", err)
		os.Exit(1)
	}

	var runErr error
	if cfg.Lookup != "" {
		rec, err := app.Find(ctx, cfg.Lookup)
		if err != nil {
			logger.Error("lookup failed", "error", err)
		} else {
			fmt.Println(rec.ID())
		}
		runErr = err
	} else {
		_, runErr = app.Run(ctx)
	}

	if err := app.Close(); err != nil {
		logger.Error("close error", "error", err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
