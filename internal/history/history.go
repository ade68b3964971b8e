// Package history keeps an append-only log of sent alerts in SQLite, backing
// the !history command. It is an observability aid: failures are logged and
// never block alerting.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"restockbot/internal/catalog"
	"restockbot/internal/stock"
	"restockbot/pkg/logx"
)

const schema = `
CREATE TABLE IF NOT EXISTS alerts (
	id          TEXT PRIMARY KEY,
	sku         TEXT NOT NULL,
	zip_code    TEXT NOT NULL,
	name        TEXT NOT NULL,
	priority    TEXT NOT NULL,
	store_count INTEGER NOT NULL,
	sent_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS alerts_sent_at ON alerts(sent_at DESC);
`

// Entry is one recorded alert.
type Entry struct {
	ID         string
	SKU        string
	ZipCode    string
	Name       string
	Priority   catalog.Priority
	StoreCount int
	SentAt     time.Time
}

type Store struct {
	db  *sql.DB
	log logx.Logger
}

// Open creates or opens the alert log database.
func Open(path string, log logx.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history db path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	_, _ = db.Exec("PRAGMA busy_timeout = 5000")
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record implements monitor.Recorder.
func (s *Store) Record(ctx context.Context, p catalog.Product, av *stock.Availability) {
	if s == nil || s.db == nil {
		return
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts(id, sku, zip_code, name, priority, store_count, sent_at) VALUES(?,?,?,?,?,?,?)`,
		uuid.NewString(), p.SKU, p.ZipCode, p.DisplayName(), string(p.EffectivePriority()),
		len(av.Stores), av.CheckedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		s.log.Warn("alert history write failed", logx.Err(err), logx.String("sku", p.SKU))
	}
}

// Recent returns the latest n alerts, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sku, zip_code, name, priority, store_count, sent_at
		 FROM alerts ORDER BY sent_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var sentAt string
		if err := rows.Scan(&e.ID, &e.SKU, &e.ZipCode, &e.Name, &e.Priority, &e.StoreCount, &sentAt); err != nil {
			return nil, err
		}
		if t, perr := time.Parse(time.RFC3339Nano, sentAt); perr == nil {
			e.SentAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
