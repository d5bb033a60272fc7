package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/glabrego/tipfeed-cli/internal/model"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS activity (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  entity_id TEXT NOT NULL,
  amount INTEGER NOT NULL DEFAULT 0,
  balance_after INTEGER NOT NULL DEFAULT 0,
  at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_at ON activity(at);
CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CheckWritable fails when the database file is read-only.
func (r *Repository) CheckWritable(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES ('_write_check', '1')`); err != nil {
		return fmt.Errorf("write check: %w", err)
	}
	return nil
}

func (r *Repository) SaveActivity(ctx context.Context, a model.Activity) error {
	if a.ID == "" {
		return errors.New("activity id is required")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO activity (id, kind, entity_id, amount, balance_after, at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING
`,
		a.ID,
		string(a.Kind),
		a.EntityID,
		a.Amount,
		a.BalanceAfter,
		a.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save activity %s: %w", a.ID, err)
	}
	return nil
}

// ListActivity returns the newest limit activities first.
func (r *Repository) ListActivity(ctx context.Context, limit int) ([]model.Activity, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, kind, entity_id, amount, balance_after, at
FROM activity
ORDER BY at DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	out := make([]model.Activity, 0, limit)
	for rows.Next() {
		var a model.Activity
		var kind, at string
		if err := rows.Scan(&a.ID, &kind, &a.EntityID, &a.Amount, &a.BalanceAfter, &at); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Kind = model.ActionKind(kind)
		a.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse activity at %q: %w", at, err)
		}
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return out, nil
}

// TotalTipped sums the amounts of every recorded tip.
func (r *Repository) TotalTipped(ctx context.Context) (int64, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT SUM(amount) FROM activity WHERE kind = ?`, string(model.ActionTip)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum tips: %w", err)
	}
	return total.Int64, nil
}

type Preferences struct {
	Compact      bool
	RelativeTime bool
}

const (
	keyCompact      = "ui.compact"
	keyRelativeTime = "ui.relative_time"
)

// LoadPreferences returns ok=false when nothing has been saved yet.
func (r *Repository) LoadPreferences(ctx context.Context) (Preferences, bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings WHERE key IN (?, ?)`, keyCompact, keyRelativeTime)
	if err != nil {
		return Preferences{}, false, fmt.Errorf("query preferences: %w", err)
	}
	defer rows.Close()

	var prefs Preferences
	found := false
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Preferences{}, false, fmt.Errorf("scan preference: %w", err)
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return Preferences{}, false, fmt.Errorf("parse preference %s=%q: %w", key, value, err)
		}
		switch key {
		case keyCompact:
			prefs.Compact = b
		case keyRelativeTime:
			prefs.RelativeTime = b
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return Preferences{}, false, fmt.Errorf("rows iteration: %w", err)
	}
	return prefs, found, nil
}

func (r *Repository) SavePreferences(ctx context.Context, prefs Preferences) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value
`)
	if err != nil {
		return fmt.Errorf("prepare preference statement: %w", err)
	}
	defer stmt.Close()

	for key, value := range map[string]bool{keyCompact: prefs.Compact, keyRelativeTime: prefs.RelativeTime} {
		if _, err := stmt.ExecContext(ctx, key, strconv.FormatBool(value)); err != nil {
			return fmt.Errorf("save preference %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
