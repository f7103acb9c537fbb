// Package sqlite implements the override-rule store on an embedded SQLite
// database. The database is opened in WAL mode so schedule reads keep running
// while a rule mutation commits; the service is the single writer.
package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/classboard/classboard/core/autorun"
	"github.com/classboard/classboard/core/model"
	"github.com/classboard/classboard/core/rulestore"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
    hashid     TEXT PRIMARY KEY,
    etype      INTEGER NOT NULL,
    scope      TEXT    NOT NULL,
    parameters TEXT    NOT NULL,
    level      INTEGER NOT NULL,
    status     INTEGER NOT NULL
);
`

// Store is the SQLite-backed rule store. The column names keep the legacy
// records layout so existing databases open unchanged.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ rulestore.Store = (*Store)(nil)

// Open creates or opens the rule database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// SetClock overrides the time source used to derive statuses, for tests.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// FetchAll returns every rule ordered by (priority desc, id desc), the order
// the admin UI displays.
func (s *Store) FetchAll(ctx context.Context) ([]model.OverrideRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hashid, etype, scope, parameters, level, status FROM records ORDER BY level DESC, hashid DESC`)
	if err != nil {
		return nil, fmt.Errorf("fetch rules: %w", err)
	}
	defer rows.Close()

	var out []model.OverrideRule
	for rows.Next() {
		var (
			rule       model.OverrideRule
			kind       int
			scopeText  string
			params     string
			statusCode int
		)
		if err := rows.Scan(&rule.ID, &kind, &scopeText, &params, &rule.Priority, &statusCode); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rule.Kind = model.RuleKind(kind)
		rule.Status = model.RuleStatus(statusCode)
		rule.Payload = json.RawMessage(params)
		if err := json.Unmarshal([]byte(scopeText), &rule.Scope); err != nil {
			// Early revisions stored a bare declaration string.
			rule.Scope = []string{scopeText}
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces a rule and recomputes its status. An empty id is
// derived from the rule content so identical rules collapse to one record.
func (s *Store) Upsert(ctx context.Context, kind model.RuleKind, scope []string, priority int, payload json.RawMessage, id string) (string, error) {
	if id == "" {
		id = DeriveID(kind, scope, priority, payload)
	}
	scopeText, err := json.Marshal(scope)
	if err != nil {
		return "", fmt.Errorf("encode scope: %w", err)
	}
	status := autorun.DeriveStatus(kind, payload, s.now())
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO records (hashid, etype, scope, parameters, level, status) VALUES (?, ?, ?, ?, ?, ?)`,
		id, int(kind), string(scopeText), string(payload), priority, int(status))
	if err != nil {
		return "", fmt.Errorf("upsert rule %s: %w", id, err)
	}
	return id, nil
}

// Delete removes a rule by id, reporting the affected row count. A miss is
// zero rows, not an error.
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE hashid = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete rule %s: %w", id, err)
	}
	return res.RowsAffected()
}

// RefreshStatuses re-derives every stored status for today and persists the
// changed rows. Statuses are updated per row, so concurrent readers observe
// either the old or the new value, never a torn one.
func (s *Store) RefreshStatuses(ctx context.Context, today time.Time) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT hashid, etype, parameters, status FROM records`)
	if err != nil {
		return 0, fmt.Errorf("refresh statuses: %w", err)
	}
	type pending struct {
		id     string
		status int
	}
	var updates []pending
	for rows.Next() {
		var (
			id     string
			kind   int
			params string
			status int
		)
		if err := rows.Scan(&id, &kind, &params, &status); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan status row: %w", err)
		}
		derived := autorun.DeriveStatus(model.RuleKind(kind), json.RawMessage(params), today)
		if int(derived) != status {
			updates = append(updates, pending{id: id, status: int(derived)})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	for _, u := range updates {
		if _, err := s.db.ExecContext(ctx, `UPDATE records SET status = ? WHERE hashid = ?`, u.status, u.id); err != nil {
			return 0, fmt.Errorf("update status of %s: %w", u.id, err)
		}
	}
	return len(updates), nil
}

// DeriveID computes the deterministic identifier of a rule: the first 16 hex
// characters of sha256 over the kind, priority and canonical content.
func DeriveID(kind model.RuleKind, scope []string, priority int, payload json.RawMessage) string {
	canonical := struct {
		Kind     int             `json:"etype"`
		Scope    []string        `json:"scope"`
		Priority int             `json:"level"`
		Payload  json.RawMessage `json:"parameters"`
	}{int(kind), scope, priority, payload}
	body, _ := json.Marshal(canonical)
	seed := fmt.Sprintf("%d|%d|%s", int(kind), priority, body)
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:16]
}
