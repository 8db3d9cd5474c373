// Package database provides the relational punishment store.
// It wraps sqlx over SQLite and exposes the punishment repository and the
// per-guild policy store.
package database

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/clock"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Database owns the SQLite connection pool.
type Database struct {
	db    *sqlx.DB
	clock clock.Clock
	path  string
	mu    sync.RWMutex
}

var (
	database *Database
	dbOnce   sync.Once
)

// Init opens the global database instance.
func Init(path string) (*Database, error) {
	var err error
	dbOnce.Do(func() {
		database, err = Open(path, clock.Real())
	})
	return database, err
}

// Get returns the global database instance.
func Get() *Database {
	return database
}

// Open connects to the SQLite file at path and applies the schema.
func Open(path string, clk clock.Clock) (*Database, error) {
	logger.System("Abriendo base de datos de sanciones...", "DB")

	db, err := sqlx.Connect("sqlite3", dsn(path))
	if err != nil {
		logger.Critical(fmt.Sprintf("Fallo al abrir la base de datos %s: %v", path, err), "DB")
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// SQLite serialises writers anyway; one connection keeps :memory: shared.
	db.SetMaxOpenConns(1)

	d := &Database{db: db, clock: clk, path: path}
	if err := d.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Success("Base de datos de sanciones lista.", "DB")
	return d, nil
}

func dsn(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
}

func (d *Database) migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	return nil
}

// Close closes the connection pool.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	logger.Warn("La base de datos ha sido cerrada", "DB")
	return err
}

// Ping measures the database response time.
func (d *Database) Ping(ctx context.Context) (time.Duration, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return 0, fmt.Errorf("database is closed")
	}
	start := time.Now()
	err := d.db.PingContext(ctx)
	return time.Since(start), err
}

// GetStatus returns a human readable status and whether the store answers.
func (d *Database) GetStatus() (string, bool) {
	if d == nil {
		return "🔴 | Desconectado", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := d.Ping(ctx); err != nil {
		return "🔴 | Desconectado", false
	}
	return "🟢 | En linea", true
}

// Punishments returns the punishment repository backed by this database.
func (d *Database) Punishments() *PunishmentRepository {
	return &PunishmentRepository{db: d.db, clock: d.clock}
}

// Policies returns the policy store backed by this database.
func (d *Database) Policies() *PolicyStore {
	return &PolicyStore{db: d.db, clock: d.clock}
}
