// Package audit records generation events to SQLite. Events are
// buffered and written in batches so logging never sits on the request
// path.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one generation request.
type Event struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	API        string    `json:"api"`
	Version    string    `json:"version"`
	ClientAddr string    `json:"client_addr,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	OutputSize int64     `json:"output_size"`
	Success    bool      `json:"success"`
	ErrorMsg   string    `json:"error_msg,omitempty"`
}

// Logger handles audit logging to SQLite.
type Logger struct {
	db          *sql.DB
	mu          sync.Mutex
	batchSize   int
	flushTicker *time.Ticker
	done        chan struct{}
	buffer      []Event
	bufferMu    sync.Mutex
}

// NewLogger opens (creating if needed) the audit database at dbPath and
// starts the background flusher.
func NewLogger(dbPath string) (*Logger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS generation_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		api TEXT NOT NULL,
		version TEXT NOT NULL,
		client_addr TEXT,
		duration_ms INTEGER,
		output_size INTEGER,
		success BOOLEAN NOT NULL,
		error_msg TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_generation_timestamp ON generation_events(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_generation_api ON generation_events(api);
	`

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger := &Logger{
		db:        db,
		batchSize: 100,
		buffer:    make([]Event, 0, 100),
		done:      make(chan struct{}),
	}

	logger.flushTicker = time.NewTicker(5 * time.Second)
	go logger.backgroundFlush()

	return logger, nil
}

// Record buffers one generation event for batch insertion.
func (l *Logger) Record(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	l.bufferMu.Lock()
	defer l.bufferMu.Unlock()

	l.buffer = append(l.buffer, event)
	if len(l.buffer) >= l.batchSize {
		go l.Flush()
	}
}

// Flush writes all buffered events to the database.
func (l *Logger) Flush() error {
	l.bufferMu.Lock()
	if len(l.buffer) == 0 {
		l.bufferMu.Unlock()
		return nil
	}
	events := make([]Event, len(l.buffer))
	copy(events, l.buffer)
	l.buffer = l.buffer[:0]
	l.bufferMu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO generation_events (
			timestamp, api, version, client_addr, duration_ms,
			output_size, success, error_msg
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		if _, err := stmt.Exec(
			event.Timestamp, event.API, event.Version, event.ClientAddr,
			event.DurationMs, event.OutputSize, event.Success, event.ErrorMsg,
		); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (l *Logger) backgroundFlush() {
	for {
		select {
		case <-l.flushTicker.C:
			_ = l.Flush()
		case <-l.done:
			return
		}
	}
}

// Recent returns the most recent events, newest first.
func (l *Logger) Recent(ctx context.Context, limit int) ([]Event, error) {
	if err := l.Flush(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, timestamp, api, version, client_addr, duration_ms,
		       output_size, success, error_msg
		FROM generation_events
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var errMsg sql.NullString
		var clientAddr sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.API, &e.Version, &clientAddr,
			&e.DurationMs, &e.OutputSize, &e.Success, &errMsg); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.ClientAddr = clientAddr.String
		e.ErrorMsg = errMsg.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close flushes pending events and closes the database.
func (l *Logger) Close() error {
	l.flushTicker.Stop()
	close(l.done)
	if err := l.Flush(); err != nil {
		return err
	}
	return l.db.Close()
}
