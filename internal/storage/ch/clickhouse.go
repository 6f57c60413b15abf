package ch

import (
	"context"
	"crypto/tls"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Migrations holds the goose migrations of the key-value schema, used by cmd/migrate
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations to hand to goose
const MigrationsDir = "migrations"

// createTable mirrors migrations/00001_create_kv.sql
const createTable = `
	CREATE TABLE IF NOT EXISTS kv (
		key String,
		value String,
		deleted Bool,
		version UInt64
	) ENGINE = ReplacingMergeTree(version)
	ORDER BY key
`

// ClickHouseDB keeps records in a ReplacingMergeTree table. Every write
// inserts a new version of the key; removes insert a tombstone.
type ClickHouseDB struct {
	conn clickhouse.Conn
	now  func() time.Time
	last uint64
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn, now: time.Now}, nil
}

// Initialize creates the table if the migrations have not been run
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	if err := db.conn.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}
	return nil
}

// Get returns the newest value stored under key
func (db *ClickHouseDB) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value   string
		deleted bool
	)
	row := db.conn.QueryRow(ctx, `SELECT value, deleted FROM kv FINAL WHERE key = ? LIMIT 1`, key)
	if err := row.Scan(&value, &deleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if deleted {
		return "", false, nil
	}
	return value, true, nil
}

// Set inserts a new version of key
func (db *ClickHouseDB) Set(ctx context.Context, key, value string) error {
	return db.insert(ctx, key, value, false)
}

// Remove inserts a tombstone for key
func (db *ClickHouseDB) Remove(ctx context.Context, key string) error {
	return db.insert(ctx, key, "", true)
}

func (db *ClickHouseDB) insert(ctx context.Context, key, value string, deleted bool) error {
	// Versions grow strictly so back-to-back writes never tie
	version := uint64(db.now().UnixNano())
	if version <= db.last {
		version = db.last + 1
	}
	db.last = version
	err := db.conn.Exec(ctx, `INSERT INTO kv (key, value, deleted, version) VALUES (?, ?, ?, ?)`,
		key, value, deleted, version)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
