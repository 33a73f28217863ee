package intel

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/mattn/go-sqlite3"

	"github.com/opsbolt/opsbolt/errors"
)

// Store persists domain snapshots to SQLite so runs can be compared over
// time (expiry drift, registrar changes, liveness history).
type Store struct {
	db *sql.DB
}

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS domain_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	domain TEXT NOT NULL,
	fetched_at TIMESTAMP NOT NULL,
	registrar TEXT NOT NULL DEFAULT '',
	expires TEXT NOT NULL DEFAULT '',
	alive INTEGER NOT NULL DEFAULT 0,
	status_code INTEGER NOT NULL DEFAULT 0,
	report_json TEXT NOT NULL,
	UNIQUE(domain, fetched_at)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_domain_time
	ON domain_snapshots(domain, fetched_at DESC);
`

// Open opens (creating if needed) a snapshot store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening snapshot store %s", path)
	}
	if _, err := db.Exec(snapshotSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating snapshot schema")
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle. Used by tests with sqlmock.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts one snapshot keyed by (domain, fetched_at).
func (s *Store) Save(ctx context.Context, r *Report) error {
	blob, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encoding report")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO domain_snapshots (domain, fetched_at, registrar, expires, alive, status_code, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain, fetched_at) DO UPDATE SET
			registrar = excluded.registrar,
			expires = excluded.expires,
			alive = excluded.alive,
			status_code = excluded.status_code,
			report_json = excluded.report_json`,
		r.Domain, r.FetchedAt.UTC(), r.Whois.Registrar, r.Whois.Expires,
		boolToInt(r.HTTP.Alive), r.HTTP.StatusCode, string(blob))
	if err != nil {
		return errors.Wrapf(err, "saving snapshot for %s", r.Domain)
	}
	return nil
}

// History returns the most recent snapshots for a domain, newest first.
func (s *Store) History(ctx context.Context, domain string, limit int) ([]*Report, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT report_json FROM domain_snapshots
		WHERE domain = ? ORDER BY fetched_at DESC LIMIT ?`,
		domain, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "querying history for %s", domain)
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, errors.Wrap(err, "scanning snapshot")
		}
		var r Report
		if err := json.Unmarshal([]byte(blob), &r); err != nil {
			return nil, errors.Wrap(err, "decoding snapshot")
		}
		reports = append(reports, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating snapshots")
	}
	if len(reports) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "no snapshots for %s", domain)
	}
	return reports, nil
}

// Latest returns the newest snapshot for a domain.
func (s *Store) Latest(ctx context.Context, domain string) (*Report, error) {
	reports, err := s.History(ctx, domain, 1)
	if err != nil {
		return nil, err
	}
	return reports[0], nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
