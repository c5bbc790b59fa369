// Package database owns the sqlite connection, schema migrations, and the
// write-side wake channel the scheduler listens on.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlite connection pool plus the coalescing notify channel
// repositories signal after every mutating write.
type DB struct {
	Conn     *sql.DB
	wakeCh   chan struct{}
}

// New opens path (a sqlite file), applying maxConns as the pool's maximum
// open connection count (sqlite tolerates only a small number of
// concurrent writers; the CLI exposes this as --sqlite-max-connections).
func New(path string, maxConns int) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", path, err)
	}
	if maxConns <= 0 {
		maxConns = 1
	}
	conn.SetMaxOpenConns(maxConns)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database: ping %s: %w", path, err)
	}
	return &DB{Conn: conn, wakeCh: make(chan struct{}, 1)}, nil
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	return db.Conn.Close()
}

// Wake signals the scheduler that reminder or occurrence state changed,
// coalescing multiple signals raised before the scheduler next wakes.
func (db *DB) Wake() {
	select {
	case db.wakeCh <- struct{}{}:
	default:
	}
}

// WakeChan is the channel the scheduler selects on alongside its sleep timer.
func (db *DB) WakeChan() <-chan struct{} {
	return db.wakeCh
}
