package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/quickaccess-catalog-go/internal/app"
	"github.com/kapu/quickaccess-catalog-go/internal/config"
	"github.com/kapu/quickaccess-catalog-go/internal/domain"
	"github.com/kapu/quickaccess-catalog-go/internal/util"
)

type multiString []string

func (m *multiString) String() string {
	return strings.Join(*m, ",")
}

func (m *multiString) Set(value string) error {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*m = append(*m, trimmed)
	}
	return nil
}

func main() {
	var (
		query      string
		limit      int
		spawnFlags multiString
		devSearch  bool
		wait       time.Duration
	)

	flag.StringVar(&query, "q", "", "search query (whitespace separated terms must all match)")
	flag.IntVar(&limit, "limit", 0, "maximum number of results (0 uses SEARCH_LIMIT)")
	flag.Var(&spawnFlags, "spawn", "item to spawn as group:category:item (can be specified multiple times)")
	flag.BoolVar(&devSearch, "dev", false, "include developer fields in search")
	flag.DurationVar(&wait, "wait", 0, "time to wait for background translations before searching")
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

	coords := make([]domain.Coordinate, 0, len(spawnFlags))
	for _, raw := range spawnFlags {
		coord, err := domain.ParseCoordinate(raw)
		if err != nil {
			logger.Error("Invalid -spawn value", zap.Error(err))
			os.Exit(2)
		}
		coords = append(coords, coord)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to assemble catalog", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := container.Close(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	}()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "dev" {
			container.Index.SetDeveloperSearch(devSearch)
		}
	})

	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
	}

	if query != "" {
		if limit <= 0 {
			limit = cfg.Search.Limit
		}
		results := container.Index.Search(query, limit)
		for _, entry := range results {
			fmt.Printf("%-14s %s\n", entry.Coordinate().String(), entry.FullName())
		}
		logger.Info("Search finished", zap.String("query", query), zap.Int("results", len(results)))
	}

	if len(coords) > 0 {
		spawned := container.Index.SpawnAll(ctx, coords)
		logger.Info("Spawn finished", zap.Int("requested", len(coords)), zap.Int("spawned", spawned))
	}
}
