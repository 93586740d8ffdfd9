package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/quickaccess-catalog-go/internal/itemdb"
)

var (
	input   = flag.String("input", "data/items.yaml", "YAML item database dump")
	schema  = flag.String("schema", "", "schema override (kk, ai); defaults to the dump's schema")
	dryRun  = flag.Bool("dry-run", false, "parse and validate without touching the database")
	dbHost  = flag.String("db-host", "localhost", "PostgreSQL host")
	dbPort  = flag.Int("db-port", 5432, "PostgreSQL port")
	dbUser  = flag.String("db-user", "quickaccess", "PostgreSQL user")
	dbPass  = flag.String("db-pass", "", "PostgreSQL password")
	dbName  = flag.String("db-name", "quickaccess", "PostgreSQL database")
	verbose = flag.Bool("verbose", false, "verbose output")
)

func main() {
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	var override itemdb.Schema
	if *schema != "" {
		s, err := itemdb.SchemaByName(*schema)
		if err != nil {
			log.Fatalf("Invalid schema: %v", err)
		}
		override = s
	}

	src, err := itemdb.LoadFile(*input, override)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", *input, err)
	}
	log.Printf("✓ Loaded %d items in %d groups (schema %s)", src.Len(), len(src.Groups()), src.Schema().Name())

	if *dryRun {
		log.Println("✓ Dry-run completed successfully")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	stats, err := itemdb.Import(ctx, itemdb.PostgresConfig{
		Host:     *dbHost,
		Port:     *dbPort,
		User:     *dbUser,
		Password: *dbPass,
		Database: *dbName,
	}, src, logger)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("✓ Imported %d groups, %d categories, %d items", stats.Groups, stats.Categories, stats.Items)
}
