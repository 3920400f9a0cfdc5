package packbit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	// SQLite driver using pure Go implementation
	_ "modernc.org/sqlite"
)

// CatalogConfig configures the SQLite archive catalog.
type CatalogConfig struct {
	// Enabled turns on the catalog.
	Enabled bool `yaml:"enabled"`

	// Path to the SQLite database file.
	Path string `yaml:"path"`

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.)
	JournalMode string `yaml:"journal_mode"`

	// BusyTimeout is the lock acquisition timeout in milliseconds.
	BusyTimeout int `yaml:"busy_timeout"`

	// MaxConnections is the max number of database connections.
	MaxConnections int `yaml:"max_connections"`
}

// DefaultCatalogConfig returns default catalog configuration.
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Path:           "packbit-catalog.db",
		JournalMode:    "WAL",
		BusyTimeout:    5000,
		MaxConnections: 10,
	}
}

// ArchiveInfo describes a stored archive.
type ArchiveInfo struct {
	Key          string    `json:"key"`
	Codec        CodecType `json:"-"`
	CodecName    string    `json:"codec"`
	OriginalSize uint64    `json:"original_size"`
	StoredSize   uint64    `json:"stored_size"`
	Checksum     uint32    `json:"checksum"`
	Encrypted    bool      `json:"encrypted"`
	CreatedAt    time.Time `json:"created_at"`
}

// Ratio returns the compression ratio, original over stored size.
func (i ArchiveInfo) Ratio() float64 {
	if i.StoredSize == 0 {
		return 0
	}
	return float64(i.OriginalSize) / float64(i.StoredSize)
}

// Catalog records archive metadata in a SQLite database so stored
// archives stay queryable with standard SQLite tools.
type Catalog struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool

	upsertStmt *sql.Stmt
	selectStmt *sql.Stmt
	deleteStmt *sql.Stmt
	listStmt   *sql.Stmt
}

// OpenCatalog opens (and if needed creates) a catalog database.
func OpenCatalog(cfg CatalogConfig) (*Catalog, error) {
	if cfg.Path == "" {
		cfg.Path = "packbit-catalog.db"
	}
	if cfg.JournalMode == "" {
		cfg.JournalMode = "WAL"
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5000
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 10
	}

	dsn := fmt.Sprintf("%s?_journal_mode=%s&_busy_timeout=%d",
		cfg.Path, cfg.JournalMode, cfg.BusyTimeout)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections / 2)

	c := &Catalog{db: db}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}
	if err := c.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare catalog statements: %w", err)
	}
	return c, nil
}

func (c *Catalog) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS archives (
			key           TEXT PRIMARY KEY,
			codec         INTEGER NOT NULL,
			original_size INTEGER NOT NULL,
			stored_size   INTEGER NOT NULL,
			checksum      INTEGER NOT NULL,
			encrypted     INTEGER NOT NULL DEFAULT 0,
			created_at    INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_archives_created ON archives(created_at);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (c *Catalog) prepareStatements() error {
	var err error

	c.upsertStmt, err = c.db.Prepare(`
		INSERT OR REPLACE INTO archives
			(key, codec, original_size, stored_size, checksum, encrypted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	c.selectStmt, err = c.db.Prepare(`
		SELECT key, codec, original_size, stored_size, checksum, encrypted, created_at
		FROM archives WHERE key = ?
	`)
	if err != nil {
		return err
	}
	c.deleteStmt, err = c.db.Prepare(`DELETE FROM archives WHERE key = ?`)
	if err != nil {
		return err
	}
	c.listStmt, err = c.db.Prepare(`
		SELECT key, codec, original_size, stored_size, checksum, encrypted, created_at
		FROM archives WHERE key LIKE ? || '%' ORDER BY key
	`)
	return err
}

// Put inserts or replaces an archive record.
func (c *Catalog) Put(ctx context.Context, info ArchiveInfo) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}

	encrypted := 0
	if info.Encrypted {
		encrypted = 1
	}
	_, err := c.upsertStmt.ExecContext(ctx, info.Key, int(info.Codec),
		int64(info.OriginalSize), int64(info.StoredSize), int64(info.Checksum),
		encrypted, info.CreatedAt.UnixNano())
	return err
}

// Get returns the record for a key, or ErrArchiveNotFound.
func (c *Catalog) Get(ctx context.Context, key string) (ArchiveInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ArchiveInfo{}, ErrClosed
	}

	return scanArchiveInfo(c.selectStmt.QueryRowContext(ctx, key))
}

// Delete removes the record for a key.
func (c *Catalog) Delete(ctx context.Context, key string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}

	_, err := c.deleteStmt.ExecContext(ctx, key)
	return err
}

// List returns records whose keys start with prefix, ordered by key.
func (c *Catalog) List(ctx context.Context, prefix string) ([]ArchiveInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrClosed
	}

	rows, err := c.listStmt.QueryContext(ctx, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []ArchiveInfo
	for rows.Next() {
		info, err := scanArchiveInfo(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Close closes the catalog database.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	for _, stmt := range []*sql.Stmt{c.upsertStmt, c.selectStmt, c.deleteStmt, c.listStmt} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	return c.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArchiveInfo(row rowScanner) (ArchiveInfo, error) {
	var (
		info      ArchiveInfo
		codec     int
		origSize  int64
		stored    int64
		checksum  int64
		encrypted int
		createdAt int64
	)
	err := row.Scan(&info.Key, &codec, &origSize, &stored, &checksum, &encrypted, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ArchiveInfo{}, ErrArchiveNotFound
	}
	if err != nil {
		return ArchiveInfo{}, err
	}
	info.Codec = CodecType(codec)
	info.CodecName = info.Codec.String()
	info.OriginalSize = uint64(origSize)
	info.StoredSize = uint64(stored)
	info.Checksum = uint32(checksum)
	info.Encrypted = encrypted != 0
	info.CreatedAt = time.Unix(0, createdAt)
	return info, nil
}
