package store

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"mastogone/internal/model"
)

// Archive wraps a SQLite database recording what a purge run did: one row
// per deleted status and one per delete failure. It is a local audit trail
// on top of the JSONL backup, never read back by the run itself.
type Archive struct{ sql *sql.DB }

func Open(path string) (*Archive, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		return nil, err
	}
	a := &Archive{sql: d}
	if err := a.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) Close() error { return a.sql.Close() }

func (a *Archive) migrate() error {
	_, err := a.sql.Exec(`
	CREATE TABLE IF NOT EXISTS deleted_posts (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  status_id TEXT NOT NULL,
	  content TEXT,
	  posted_at INTEGER NOT NULL,
	  deleted_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deleted_posts_status ON deleted_posts(status_id);
	CREATE TABLE IF NOT EXISTS delete_failures (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  status_id TEXT NOT NULL,
	  status_code INTEGER,
	  failed_at INTEGER NOT NULL
	);
	`)
	return err
}

// RecordDeleted stores a deleted status. content should already be stripped
// of markup.
func (a *Archive) RecordDeleted(ctx context.Context, st model.Status, content string, deletedAt time.Time) error {
	_, err := a.sql.ExecContext(ctx,
		`INSERT INTO deleted_posts(status_id, content, posted_at, deleted_at) VALUES(?,?,?,?)`,
		st.ID, content, st.CreatedAt.Unix(), deletedAt.Unix())
	return err
}

// RecordFailure stores a failed delete attempt. statusCode is 0 when the
// failure was not an HTTP error.
func (a *Archive) RecordFailure(ctx context.Context, statusID string, statusCode int, failedAt time.Time) error {
	_, err := a.sql.ExecContext(ctx,
		`INSERT INTO delete_failures(status_id, status_code, failed_at) VALUES(?,?,?)`,
		statusID, statusCode, failedAt.Unix())
	return err
}

// CountDeleted returns the total number of recorded deletions.
func (a *Archive) CountDeleted(ctx context.Context) (int, error) {
	row := a.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM deleted_posts`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
