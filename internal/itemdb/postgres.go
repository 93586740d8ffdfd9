package itemdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kapu/quickaccess-catalog-go/internal/domain"
)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (c PostgresConfig) dsn() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// PostgresDatabase snapshots the item tables once at open and serves lookups from memory.
type PostgresDatabase struct {
	*Memory
	db     *sql.DB
	logger *zap.Logger
}

func OpenPostgres(ctx context.Context, cfg PostgresConfig, schema Schema, logger *zap.Logger) (*PostgresDatabase, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	pg := &PostgresDatabase{
		Memory: NewMemory(schema),
		db:     db,
		logger: logger,
	}
	if err := pg.load(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return pg, nil
}

// load reads groups, categories and items into a fresh snapshot.
func (p *PostgresDatabase) load(ctx context.Context) error {
	snapshot := NewMemory(p.Memory.Schema())

	groups, err := p.db.QueryContext(ctx, `SELECT group_no, name FROM item_groups`)
	if err != nil {
		return fmt.Errorf("failed to query item groups: %w", err)
	}
	for groups.Next() {
		var no int
		var name string
		if err := groups.Scan(&no, &name); err != nil {
			groups.Close()
			return fmt.Errorf("failed to scan item group: %w", err)
		}
		snapshot.AddGroup(no, name)
	}
	groups.Close()
	if err := groups.Err(); err != nil {
		return fmt.Errorf("failed to read item groups: %w", err)
	}

	categories, err := p.db.QueryContext(ctx, `SELECT group_no, category_no, name FROM item_categories`)
	if err != nil {
		return fmt.Errorf("failed to query item categories: %w", err)
	}
	for categories.Next() {
		var groupNo, categoryNo int
		var name string
		if err := categories.Scan(&groupNo, &categoryNo, &name); err != nil {
			categories.Close()
			return fmt.Errorf("failed to scan item category: %w", err)
		}
		snapshot.AddCategory(groupNo, categoryNo, name)
	}
	categories.Close()
	if err := categories.Err(); err != nil {
		return fmt.Errorf("failed to read item categories: %w", err)
	}

	items, err := p.db.QueryContext(ctx, `
		SELECT group_no, category_no, item_no, name,
		       child_root, bundle_path, file_name, manifest
		FROM items
	`)
	if err != nil {
		return fmt.Errorf("failed to query items: %w", err)
	}
	defer items.Close()

	for items.Next() {
		var (
			coord      domain.Coordinate
			name       string
			childRoot  sql.NullString
			bundlePath sql.NullString
			fileName   sql.NullString
			manifest   sql.NullString
		)
		if err := items.Scan(&coord.GroupNo, &coord.CategoryNo, &coord.ItemNo, &name,
			&childRoot, &bundlePath, &fileName, &manifest); err != nil {
			return fmt.Errorf("failed to scan item: %w", err)
		}
		snapshot.AddItem(coord, domain.ItemRecord{
			Name:       name,
			ChildRoot:  childRoot.String,
			BundlePath: bundlePath.String,
			FileName:   fileName.String,
			Manifest:   manifest.String,
		})
	}
	if err := items.Err(); err != nil {
		return fmt.Errorf("failed to read items: %w", err)
	}

	p.Memory = snapshot
	p.logger.Info("Item database loaded from PostgreSQL", zap.Int("items", snapshot.Len()))
	return nil
}

func (p *PostgresDatabase) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func connect(ctx context.Context, cfg PostgresConfig, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info("PostgreSQL connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
	)
	return db, nil
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS item_groups (
	group_no INTEGER PRIMARY KEY,
	name     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS item_categories (
	group_no    INTEGER NOT NULL,
	category_no INTEGER NOT NULL,
	name        TEXT NOT NULL,
	PRIMARY KEY (group_no, category_no)
);
CREATE TABLE IF NOT EXISTS items (
	group_no    INTEGER NOT NULL,
	category_no INTEGER NOT NULL,
	item_no     INTEGER NOT NULL,
	name        TEXT NOT NULL,
	child_root  TEXT,
	bundle_path TEXT,
	file_name   TEXT,
	manifest    TEXT,
	PRIMARY KEY (group_no, category_no, item_no)
);`

// ImportStats counts the rows written by Import.
type ImportStats struct {
	Groups     int
	Categories int
	Items      int
}

// Import replaces the item tables with the content of src in one transaction,
// creating the tables when they do not exist.
func Import(ctx context.Context, cfg PostgresConfig, src *Memory, logger *zap.Logger) (ImportStats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var stats ImportStats

	db, err := connect(ctx, cfg, logger)
	if err != nil {
		return stats, err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createTablesSQL); err != nil {
		return stats, fmt.Errorf("failed to create item tables: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"items", "item_categories", "item_groups"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return stats, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, group := range src.Groups() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO item_groups (group_no, name) VALUES ($1, $2)`, group.No, group.Name); err != nil {
			return stats, fmt.Errorf("failed to insert group %d: %w", group.No, err)
		}
		stats.Groups++

		for categoryNo, name := range group.Categories {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO item_categories (group_no, category_no, name) VALUES ($1, $2, $3)`,
				group.No, categoryNo, name); err != nil {
				return stats, fmt.Errorf("failed to insert category %d/%d: %w", group.No, categoryNo, err)
			}
			stats.Categories++
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (group_no, category_no, item_no, name, child_root, bundle_path, file_name, manifest)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
	`)
	if err != nil {
		return stats, fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for _, coord := range src.Coordinates() {
		record, _ := src.Item(coord)
		if _, err := stmt.ExecContext(ctx, coord.GroupNo, coord.CategoryNo, coord.ItemNo, record.Name,
			record.ChildRoot, record.BundlePath, record.FileName, record.Manifest); err != nil {
			return stats, fmt.Errorf("failed to insert item %s: %w", coord, err)
		}
		stats.Items++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit item import: %w", err)
	}

	logger.Info("Item database imported into PostgreSQL",
		zap.Int("groups", stats.Groups),
		zap.Int("categories", stats.Categories),
		zap.Int("items", stats.Items),
	)
	return stats, nil
}
