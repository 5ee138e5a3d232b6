package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pagescore/internal/store"
)

// FileName is the database file created inside the store folder.
const FileName = "pagescore.db"

// SheetDB stores sheets in a SQLite database.
type SheetDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

var _ store.Backend = (*SheetDB)(nil)

// Options configures SheetDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a SheetDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error
// wrapping store.ErrUnavailable is returned.
func Open(dbDir string, opts Options) (*SheetDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: database not found at %s", store.ErrUnavailable, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("%w: failed to check database path: %w", store.ErrUnavailable, err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("%w: failed to create database directory: %w", store.ErrUnavailable, err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", store.ErrUnavailable, err)
	}

	// A transaction holds the only connection, so no other statement can
	// interleave with a reconciliation.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SheetDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: failed to enable WAL mode: %w", store.ErrUnavailable, err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to create tables: %w", store.ErrUnavailable, err)
	}

	return sdb, nil
}

// Path returns the database file path.
func (sdb *SheetDB) Path() string {
	return sdb.dbPath
}

// Close closes the database connection.
func (sdb *SheetDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *SheetDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sheets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Header labels in column order; position 0 is the key column
	CREATE TABLE IF NOT EXISTS sheet_columns (
		sheet_id INTEGER NOT NULL REFERENCES sheets(id),
		position INTEGER NOT NULL,
		label TEXT NOT NULL,
		PRIMARY KEY (sheet_id, position)
	);

	CREATE TABLE IF NOT EXISTS sheet_rows (
		sheet_id INTEGER NOT NULL REFERENCES sheets(id),
		position INTEGER NOT NULL,
		PRIMARY KEY (sheet_id, position)
	);

	CREATE TABLE IF NOT EXISTS sheet_cells (
		sheet_id INTEGER NOT NULL REFERENCES sheets(id),
		row INTEGER NOT NULL,
		col INTEGER NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (sheet_id, row, col)
	);

	CREATE INDEX IF NOT EXISTS idx_cells_key ON sheet_cells(sheet_id, col, value);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// OpenOrCreate implements store.Backend.
func (sdb *SheetDB) OpenOrCreate(ctx context.Context, name string) (store.Sheet, error) {
	if err := store.ValidateSheetName(name); err != nil {
		return nil, err
	}

	query := `INSERT INTO sheets (name) VALUES (?) ON CONFLICT(name) DO NOTHING`
	if _, err := sdb.db.ExecContext(ctx, query, name); err != nil {
		return nil, fmt.Errorf("%w: failed to create sheet: %w", store.ErrUnavailable, err)
	}
	return sdb.Open(ctx, name)
}

// Open implements store.Backend.
func (sdb *SheetDB) Open(ctx context.Context, name string) (store.Sheet, error) {
	var id int64
	err := sdb.db.QueryRowContext(ctx, `SELECT id FROM sheets WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrSheetNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get sheet: %w", store.ErrUnavailable, err)
	}
	return &sheet{db: sdb.db, id: id, name: name}, nil
}

// List implements store.Backend.
func (sdb *SheetDB) List(ctx context.Context) ([]store.SheetInfo, error) {
	rows, err := sdb.db.QueryContext(ctx, `SELECT name, updated_at FROM sheets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list sheets: %w", store.ErrUnavailable, err)
	}
	defer rows.Close()

	var infos []store.SheetInfo
	for rows.Next() {
		var info store.SheetInfo
		var timestamp string
		if err := rows.Scan(&info.Name, &timestamp); err != nil {
			return nil, fmt.Errorf("%w: failed to scan sheet: %w", store.ErrUnavailable, err)
		}
		info.UpdatedAt = parseTimestamp(timestamp)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
