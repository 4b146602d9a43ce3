package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/webmirror/internal/model"
)

// DBFileName is the SQLite file created inside the database directory.
const DBFileName = "webmirror.db"

// ManifestDB provides SQLite-based storage for mirror sessions and
// their asset manifests.
//
// Design decision: We use a single database file for all sessions
// rather than one file per mirrored site. This keeps history queries
// ("show me every run of this seed") trivial and makes backup a single
// file copy.
type ManifestDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ManifestDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ManifestDB inside dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an
// error is returned instead of silently creating an empty history.
func Open(dbDir string, opts Options) (*ManifestDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating a
	// new file, mode=rwc allows it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer; a single connection avoids
	// SQLITE_BUSY churn under concurrent session saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	mdb := &ManifestDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := mdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return mdb, nil
}

// Close closes the database connection.
func (mdb *ManifestDB) Close() error {
	return mdb.db.Close()
}

// Path returns the path of the underlying database file.
func (mdb *ManifestDB) Path() string {
	return mdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (mdb *ManifestDB) createTables() error {
	schema := `
	-- Sessions store one row per mirror run, with the full report as JSON
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		total INTEGER NOT NULL,
		downloaded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		cancelled INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_seed ON sessions(seed);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);

	-- Assets store the per-file manifest of each session
	CREATE TABLE IF NOT EXISTS assets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		local_path TEXT,
		kind TEXT NOT NULL,
		status_code INTEGER,
		content_type TEXT,
		size INTEGER NOT NULL DEFAULT 0,
		sha256 TEXT,
		fetched_at DATETIME,
		error TEXT,
		UNIQUE(session_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_assets_session ON assets(session_id);
	CREATE INDEX IF NOT EXISTS idx_assets_url ON assets(url);
	CREATE INDEX IF NOT EXISTS idx_assets_sha256 ON assets(sha256);
	`

	_, err := mdb.db.ExecContext(context.Background(), schema)
	return err
}

// SessionRecord is the session-level metadata of one stored mirror run.
type SessionRecord struct {
	ID         int64
	Seed       string
	OutputDir  string
	StartedAt  time.Time
	Elapsed    time.Duration
	Total      int
	Downloaded int
	Failed     int
	Cancelled  bool
	Error      string
}

// SaveReport stores a completed mirror report: the session row plus one
// asset row per downloaded (or attempted) file, in a single transaction.
// Returns the new session ID.
func (mdb *ManifestDB) SaveReport(ctx context.Context, report *model.MirrorReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := mdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // No-op after commit.

	result, err := tx.ExecContext(ctx, `
	INSERT INTO sessions (seed, output_dir, started_at, elapsed_ms, total, downloaded, failed, cancelled, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Seed,
		report.OutputDir,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.Elapsed.Milliseconds(),
		report.Stats.Total,
		report.Stats.Downloaded,
		report.Stats.Failed,
		report.Cancelled,
		report.ErrorMessage,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}

	sessionID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get session ID: %w", err)
	}

	// Duplicate URLs within one session collapse onto the latest attempt.
	insertAsset := `
	INSERT INTO assets (session_id, url, local_path, kind, status_code, content_type, size, sha256, fetched_at, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id, url) DO UPDATE SET
		local_path = excluded.local_path,
		kind = excluded.kind,
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		size = excluded.size,
		sha256 = excluded.sha256,
		fetched_at = excluded.fetched_at,
		error = excluded.error
	`

	for _, a := range report.Assets {
		if _, err := tx.ExecContext(ctx, insertAsset,
			sessionID,
			a.URL,
			a.LocalPath,
			string(a.Kind),
			a.StatusCode,
			a.ContentType,
			a.Size,
			a.SHA256,
			a.FetchedAt.UTC().Format(time.RFC3339Nano),
			a.Error,
		); err != nil {
			return 0, fmt.Errorf("failed to insert asset %s: %w", a.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit session: %w", err)
	}

	return sessionID, nil
}

// ListSessions returns metadata for every stored session, newest first.
func (mdb *ManifestDB) ListSessions(ctx context.Context) ([]SessionRecord, error) {
	rows, err := mdb.db.QueryContext(ctx, `
	SELECT id, seed, output_dir, started_at, elapsed_ms, total, downloaded, failed, cancelled, error
	FROM sessions
	ORDER BY started_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// SessionHistory returns metadata for every stored session of the given
// seed, newest first.
func (mdb *ManifestDB) SessionHistory(ctx context.Context, seed string) ([]SessionRecord, error) {
	rows, err := mdb.db.QueryContext(ctx, `
	SELECT id, seed, output_dir, started_at, elapsed_ms, total, downloaded, failed, cancelled, error
	FROM sessions
	WHERE seed = ?
	ORDER BY started_at DESC, id DESC
	`, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to query session history: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// GetSessionReport retrieves the full report of a session by ID.
// Returns nil without error when the session does not exist.
func (mdb *ManifestDB) GetSessionReport(ctx context.Context, id int64) (*model.MirrorReport, error) {
	var reportJSON string
	err := mdb.db.QueryRowContext(ctx,
		`SELECT report_json FROM sessions WHERE id = ?`, id,
	).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %d: %w", id, err)
	}

	var report model.MirrorReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report of session %d: %w", id, err)
	}
	return &report, nil
}

// SessionAssets returns the stored asset manifest of a session.
func (mdb *ManifestDB) SessionAssets(ctx context.Context, sessionID int64) ([]model.Asset, error) {
	rows, err := mdb.db.QueryContext(ctx, `
	SELECT url, local_path, kind, status_code, content_type, size, sha256, fetched_at, error
	FROM assets
	WHERE session_id = ?
	ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	assets := make([]model.Asset, 0)
	for rows.Next() {
		var a model.Asset
		var kind, fetchedAt string
		if err := rows.Scan(
			&a.URL,
			&a.LocalPath,
			&kind,
			&a.StatusCode,
			&a.ContentType,
			&a.Size,
			&a.SHA256,
			&fetchedAt,
			&a.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		a.Kind = model.AssetKind(kind)
		a.FetchedAt = parseTimestamp(fetchedAt)
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}

	return assets, nil
}

// HasRecentSession reports whether the seed was mirrored within the
// given duration. Used to skip re-mirroring fresh sites.
func (mdb *ManifestDB) HasRecentSession(ctx context.Context, seed string, within time.Duration) (bool, error) {
	cutoff := time.Now().Add(-within).UTC().Format(time.RFC3339Nano)

	var count int
	err := mdb.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE seed = ? AND started_at > ?`,
		seed, cutoff,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent sessions: %w", err)
	}

	return count > 0, nil
}

// scanSessions reads session metadata rows.
func scanSessions(rows *sql.Rows) ([]SessionRecord, error) {
	records := make([]SessionRecord, 0)
	for rows.Next() {
		var rec SessionRecord
		var startedAt string
		var elapsedMS int64
		if err := rows.Scan(
			&rec.ID,
			&rec.Seed,
			&rec.OutputDir,
			&startedAt,
			&elapsedMS,
			&rec.Total,
			&rec.Downloaded,
			&rec.Failed,
			&rec.Cancelled,
			&rec.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		rec.StartedAt = parseTimestamp(startedAt)
		rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return records, nil
}

// parseTimestamp parses a stored timestamp. SQLite may hand back
// different formats depending on how the value was written.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
