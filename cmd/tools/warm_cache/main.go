package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/quickaccess-catalog-go/internal/app"
	"github.com/kapu/quickaccess-catalog-go/internal/config"
	"github.com/kapu/quickaccess-catalog-go/internal/util"
)

const pollInterval = 500 * time.Millisecond

func main() {
	var timeout time.Duration
	flag.DurationVar(&timeout, "timeout", 10*time.Minute, "maximum time to wait for translations")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Cache.Backend == "none" {
		logger.Error("Warming needs a persistent cache backend (CACHE_BACKEND=file or redis)")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	started := time.Now()
	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to assemble catalog", zap.Error(err))
		os.Exit(1)
	}

	if container.AI != nil {
		ticker := time.NewTicker(pollInterval)
	wait:
		for pending := container.AI.Pending(); pending > 0; pending = container.AI.Pending() {
			logger.Debug("Waiting for translations", zap.Int("pending", pending))
			select {
			case <-ticker.C:
			case <-ctx.Done():
				logger.Warn("Timed out waiting for translations", zap.Int("pending", pending))
				break wait
			}
		}
		ticker.Stop()
	} else {
		logger.Info("No AI translator configured, persisting dictionary translations only")
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer flushCancel()

	// Close stops the translators before flushing, so late deliveries are included.
	if err := container.Close(flushCtx); err != nil {
		logger.Error("Failed to persist translation cache", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Translation cache warmed",
		zap.Int("entries", container.Index.Len()),
		zap.Int("skipped", container.Skipped()),
		zap.Int("cached", container.Cache.Len()),
		zap.Duration("elapsed", time.Since(started)),
	)
}
