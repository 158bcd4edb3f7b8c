package auditor

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration

	"github.com/torrkit/seedsweep/internal/core"
)

// SQLiteAuditor persists the decision trail to a SQLite database: one row
// per decision and per removal outcome. A single file is easy to back up
// and query long after the torrents are gone, and row checksums make
// after-the-fact tampering detectable.
type SQLiteAuditor struct {
	db *sql.DB
	mu sync.Mutex
}

// AuditRecord is a single persisted audit row.
type AuditRecord struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Action    string    `json:"action"`
	Hash      string    `json:"hash,omitempty"`
	Name      string    `json:"name,omitempty"`
	RunID     string    `json:"run_id,omitempty"`
	Mode      string    `json:"mode,omitempty"`
	Verdict   string    `json:"verdict,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Error     string    `json:"error,omitempty"`
	Fields    string    `json:"fields,omitempty"` // JSON-encoded extra fields
	Checksum  string    `json:"checksum"`
}

// NewSQLite opens (creating if needed) the audit database at path.
func NewSQLite(path string) (*SQLiteAuditor, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL keeps writes cheap while the sweep is running
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteAuditor{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		level TEXT NOT NULL,
		action TEXT NOT NULL,
		hash TEXT,
		name TEXT,
		run_id TEXT,
		mode TEXT,
		verdict TEXT,
		reason TEXT,
		error TEXT,
		fields TEXT,
		checksum TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_log(action);
	CREATE INDEX IF NOT EXISTS idx_audit_hash ON audit_log(hash);
	CREATE INDEX IF NOT EXISTS idx_audit_run ON audit_log(run_id);
	`

	_, err := db.Exec(schema)
	return err
}

// Record persists an audit event. Auditing is fail-open: write errors are
// swallowed so a broken audit store never blocks a sweep.
func (a *SQLiteAuditor) Record(ctx context.Context, evt core.AuditEvent) {
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var runID, mode, verdict, reason, errStr string
	if evt.Err != nil {
		errStr = evt.Err.Error()
	}
	if evt.Fields != nil {
		if v, ok := evt.Fields["run_id"].(string); ok {
			runID = v
		}
		if v, ok := evt.Fields["mode"].(string); ok {
			mode = v
		}
		if v, ok := evt.Fields["verdict"].(string); ok {
			verdict = v
		}
		if v, ok := evt.Fields["reason"].(string); ok {
			reason = v
		}
	}

	fieldsJSON := ""
	if len(evt.Fields) > 0 {
		if b, err := json.Marshal(evt.Fields); err == nil {
			fieldsJSON = string(b)
		}
	}

	ts := evt.Time.UTC().Format(time.RFC3339Nano)
	checksum := computeChecksum(ts, evt.Level, evt.Action, evt.Hash, evt.Name, runID, mode, verdict, reason, errStr, fieldsJSON)

	_, _ = a.db.ExecContext(ctx, `
		INSERT INTO audit_log (timestamp, level, action, hash, name, run_id, mode, verdict, reason, error, fields, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ts,
		evt.Level,
		evt.Action,
		evt.Hash,
		evt.Name,
		runID,
		mode,
		verdict,
		reason,
		errStr,
		fieldsJSON,
		checksum,
	)
}

// computeChecksum generates a SHA-256 checksum over the row data so that
// tampering with historical records is detectable.
func computeChecksum(parts ...string) string {
	data := ""
	for i, p := range parts {
		if i > 0 {
			data += "|"
		}
		data += p
	}
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// Close closes the database connection.
func (a *SQLiteAuditor) Close() error {
	return a.db.Close()
}

// QueryFilter selects audit records.
type QueryFilter struct {
	Since  time.Time
	Until  time.Time
	Action string // decision, remove
	RunID  string
	Hash   string
	Limit  int
}

// Query retrieves audit records matching the given filters, newest first.
func (a *SQLiteAuditor) Query(ctx context.Context, filter QueryFilter) ([]AuditRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	query := `SELECT id, timestamp, level, action, hash, name, run_id, mode, verdict, reason, error, fields, checksum FROM audit_log WHERE 1=1`
	args := []any{}

	if !filter.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}
	if !filter.Until.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.Until.UTC().Format(time.RFC3339Nano))
	}
	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, filter.Action)
	}
	if filter.RunID != "" {
		query += " AND run_id = ?"
		args = append(args, filter.RunID)
	}
	if filter.Hash != "" {
		query += " AND hash = ?"
		args = append(args, filter.Hash)
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var r AuditRecord
		var ts string
		var hash, name, runID, mode, verdict, reason, errStr, fields sql.NullString

		if err := rows.Scan(&r.ID, &ts, &r.Level, &r.Action, &hash, &name, &runID, &mode, &verdict, &reason, &errStr, &fields, &r.Checksum); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		r.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		r.Hash = hash.String
		r.Name = name.String
		r.RunID = runID.String
		r.Mode = mode.String
		r.Verdict = verdict.String
		r.Reason = reason.String
		r.Error = errStr.String
		r.Fields = fields.String

		records = append(records, r)
	}

	return records, rows.Err()
}

// VerifyIntegrity re-computes every row checksum and returns the IDs of
// rows whose stored checksum does not match.
func (a *SQLiteAuditor) VerifyIntegrity(ctx context.Context) ([]int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, timestamp, level, action, hash, name, run_id, mode, verdict, reason, error, fields, checksum
		FROM audit_log ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query for integrity check: %w", err)
	}
	defer rows.Close()

	var tampered []int64
	for rows.Next() {
		var id int64
		var ts, level, action, checksum string
		var hash, name, runID, mode, verdict, reason, errStr, fields sql.NullString

		if err := rows.Scan(&id, &ts, &level, &action, &hash, &name, &runID, &mode, &verdict, &reason, &errStr, &fields, &checksum); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		want := computeChecksum(ts, level, action, hash.String, name.String, runID.String, mode.String, verdict.String, reason.String, errStr.String, fields.String)
		if want != checksum {
			tampered = append(tampered, id)
		}
	}

	return tampered, rows.Err()
}

// Ensure SQLiteAuditor implements core.Auditor
var _ core.Auditor = (*SQLiteAuditor)(nil)
