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

	"github.com/nao1215/contactscan/internal/model"
)

// HarvestDB provides SQLite-based storage for harvest history.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all targets rather
// than separate files per website. This simplifies cross-target queries
// and backup/restore operations.
type HarvestDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HarvestDB behavior.
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

// Open opens or creates a HarvestDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HarvestDB, error) {
	dbPath := filepath.Join(dbDir, "contactscan.db")

	// Check if we should create the database or require it to exist
	if !opts.CreateIfNotExists {
		// Check if database file exists
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		// Ensure directory exists
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
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

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but multiple readers can improve performance
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HarvestDB{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HarvestDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HarvestDB) createTables() error {
	schema := `
	-- Page records store individual page fetches
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		target TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		status_code INTEGER,
		content_type TEXT,
		body_hash TEXT,
		headers TEXT,
		UNIQUE(url, target)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	CREATE INDEX IF NOT EXISTS idx_pages_target ON pages(target);
	CREATE INDEX IF NOT EXISTS idx_pages_timestamp ON pages(timestamp);

	-- Finding records track contact signals per target across runs
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		kind TEXT NOT NULL,
		value TEXT NOT NULL,
		source_url TEXT,
		attributes TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(target, kind, value)
	);

	CREATE INDEX IF NOT EXISTS idx_findings_target ON findings(target);
	CREATE INDEX IF NOT EXISTS idx_findings_kind ON findings(kind);
	CREATE INDEX IF NOT EXISTS idx_findings_value ON findings(value);

	-- Harvest reports store complete harvest results as JSON
	CREATE TABLE IF NOT EXISTS harvests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		recursive INTEGER DEFAULT 0,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL,
		signal_summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_harvests_target ON harvests(target);
	CREATE INDEX IF NOT EXISTS idx_harvests_timestamp ON harvests(timestamp);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// PageRecord represents a stored page fetch.
type PageRecord struct {
	ID          int64
	URL         string
	Target      string
	Timestamp   time.Time
	StatusCode  int
	ContentType string
	BodyHash    string
	Headers     map[string][]string
}

// InsertPageRecord inserts or updates a page record.
// Uses UPSERT to handle duplicates (same URL + target).
func (hdb *HarvestDB) InsertPageRecord(ctx context.Context, record *PageRecord) (int64, error) {
	// Serialize headers to JSON
	headersJSON, err := json.Marshal(record.Headers)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize headers: %w", err)
	}

	query := `
	INSERT INTO pages (url, target, status_code, content_type, body_hash, headers)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(url, target) DO UPDATE SET
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		body_hash = excluded.body_hash,
		headers = excluded.headers,
		timestamp = CURRENT_TIMESTAMP
	`

	result, err := hdb.db.ExecContext(ctx, query,
		record.URL,
		record.Target,
		record.StatusCode,
		record.ContentType,
		record.BodyHash,
		string(headersJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert page record: %w", err)
	}

	return result.LastInsertId()
}

// GetPageRecord retrieves a page record by URL and target.
func (hdb *HarvestDB) GetPageRecord(ctx context.Context, url, target string) (*PageRecord, error) {
	query := `
	SELECT id, url, target, timestamp, status_code, content_type, body_hash, headers
	FROM pages
	WHERE url = ? AND target = ?
	`

	var record PageRecord
	var headersJSON string
	var timestamp string

	err := hdb.db.QueryRowContext(ctx, query, url, target).Scan(
		&record.ID,
		&record.URL,
		&record.Target,
		&timestamp,
		&record.StatusCode,
		&record.ContentType,
		&record.BodyHash,
		&headersJSON,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page record: %w", err)
	}

	// Parse timestamp (SQLite may return different formats depending on version/configuration)
	record.Timestamp = parseTimestamp(timestamp)

	// Parse headers
	if headersJSON != "" {
		if err := json.Unmarshal([]byte(headersJSON), &record.Headers); err != nil {
			return nil, fmt.Errorf("failed to parse headers: %w", err)
		}
	}

	return &record, nil
}

// HasRecentFetch checks if a URL was fetched within the specified duration.
func (hdb *HarvestDB) HasRecentFetch(ctx context.Context, url string, duration time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM pages
	WHERE url = ? AND timestamp > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(duration.Seconds()))

	var count int
	err := hdb.db.QueryRowContext(ctx, query, url, modifier).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent fetch: %w", err)
	}

	return count > 0, nil
}

// FindingRecord represents a stored contact signal.
type FindingRecord struct {
	ID         int64
	Target     string
	Kind       model.Kind
	Value      string
	SourceURL  string
	Attributes map[string]string
	Timestamp  time.Time
}

// InsertFinding inserts or refreshes a finding record.
// Uses UPSERT on (target, kind, value) so re-harvesting a target keeps one
// row per signal with the latest source and attributes.
func (hdb *HarvestDB) InsertFinding(ctx context.Context, record *FindingRecord) error {
	attrsJSON, err := json.Marshal(record.Attributes)
	if err != nil {
		return fmt.Errorf("failed to serialize attributes: %w", err)
	}

	query := `
	INSERT INTO findings (target, kind, value, source_url, attributes)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(target, kind, value) DO UPDATE SET
		source_url = excluded.source_url,
		attributes = excluded.attributes,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err = hdb.db.ExecContext(ctx, query,
		record.Target,
		record.Kind.String(),
		record.Value,
		record.SourceURL,
		string(attrsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert finding: %w", err)
	}

	return nil
}

// SaveFindings stores all findings of a harvest for the given target.
func (hdb *HarvestDB) SaveFindings(ctx context.Context, target string, findings []model.Finding) error {
	for _, f := range findings {
		record := &FindingRecord{
			Target:     target,
			Kind:       f.Kind,
			Value:      f.Value,
			SourceURL:  f.SourceURL,
			Attributes: f.Attributes,
		}
		if err := hdb.InsertFinding(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// QueryFindings queries stored findings with optional filters.
func (hdb *HarvestDB) QueryFindings(ctx context.Context, target string, kind model.Kind) ([]FindingRecord, error) {
	query := `
	SELECT id, target, kind, value, source_url, attributes, timestamp
	FROM findings
	WHERE 1=1
	`
	args := make([]interface{}, 0)

	if target != "" {
		query += " AND target = ?"
		args = append(args, target)
	}
	if kind != model.KindUnknown {
		query += " AND kind = ?"
		args = append(args, kind.String())
	}

	query += " ORDER BY timestamp DESC, id DESC"

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var results []FindingRecord
	for rows.Next() {
		var record FindingRecord
		var kindStr string
		var attrsJSON sql.NullString
		var timestamp string

		err := rows.Scan(
			&record.ID,
			&record.Target,
			&kindStr,
			&record.Value,
			&record.SourceURL,
			&attrsJSON,
			&timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}

		record.Kind = model.ParseKind(kindStr)
		record.Timestamp = parseTimestamp(timestamp)
		if attrsJSON.Valid && attrsJSON.String != "" {
			if err := json.Unmarshal([]byte(attrsJSON.String), &record.Attributes); err != nil {
				record.Attributes = nil
			}
		}

		results = append(results, record)
	}

	return results, rows.Err()
}

// SaveHarvestReport saves a complete harvest report as JSON.
func (hdb *HarvestDB) SaveHarvestReport(ctx context.Context, report *model.HarvestReport) error {
	// Serialize report to JSON
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	// Create per-kind signal summary
	summary := report.Summary
	if summary == nil {
		summary = model.NewHarvestSummary(report)
	}
	signalSummary := map[string]int{
		model.KindEmail.String():    summary.EmailCount,
		model.KindPhone.String():    summary.PhoneCount,
		model.KindSocial.String():   summary.SocialCount,
		model.KindMetadata.String(): summary.MetadataCount,
	}
	signalJSON, _ := json.Marshal(signalSummary) //nolint:errcheck,errchkjson // signalSummary is a simple map; Marshal won't fail

	query := `
	INSERT INTO harvests (target, recursive, report_json, signal_summary)
	VALUES (?, ?, ?, ?)
	`

	_, err = hdb.db.ExecContext(ctx, query,
		report.Target,
		report.Recursive,
		string(reportJSON),
		string(signalJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save harvest report: %w", err)
	}

	return nil
}

// GetLatestHarvestReport retrieves the most recent harvest report for a target.
func (hdb *HarvestDB) GetLatestHarvestReport(ctx context.Context, target string) (*model.HarvestReport, error) {
	query := `
	SELECT report_json FROM harvests
	WHERE target = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, target).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get harvest report: %w", err)
	}

	var report model.HarvestReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListTargets returns a list of all harvested targets.
func (hdb *HarvestDB) ListTargets(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT target FROM harvests
	ORDER BY target
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}

	return targets, rows.Err()
}

// GetHarvestHistory retrieves all harvest reports for a target,
// ordered newest first. Harvests saved within the same second are
// ordered by insertion.
func (hdb *HarvestDB) GetHarvestHistory(ctx context.Context, target string) ([]*model.HarvestReport, error) {
	query := `
	SELECT report_json FROM harvests
	WHERE target = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, target)
	if err != nil {
		return nil, fmt.Errorf("failed to get harvest history: %w", err)
	}
	defer rows.Close()

	var reports []*model.HarvestReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.HarvestReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// HarvestRecordMetadata contains summary information about a stored harvest.
// This is used for displaying harvest history without loading the full report.
type HarvestRecordMetadata struct {
	// ID is the unique identifier of the harvest in the database.
	ID int64

	// Target is the harvested website.
	Target string

	// Timestamp is when the harvest was performed.
	Timestamp time.Time

	// SignalSummary contains counts of findings by kind.
	SignalSummary map[string]int
}

// GetHarvestHistoryWithMetadata retrieves harvest metadata for a target.
// This is more efficient than GetHarvestHistory when only metadata is needed.
func (hdb *HarvestDB) GetHarvestHistoryWithMetadata(ctx context.Context, target string) ([]HarvestRecordMetadata, error) {
	query := `
	SELECT id, target, timestamp, signal_summary
	FROM harvests
	WHERE target = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, target)
	if err != nil {
		return nil, fmt.Errorf("failed to get harvest history: %w", err)
	}
	defer rows.Close()

	var results []HarvestRecordMetadata
	for rows.Next() {
		var meta HarvestRecordMetadata
		var timestamp string
		var signalJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.Target, &timestamp, &signalJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		// Parse timestamp
		meta.Timestamp = parseTimestamp(timestamp)

		// Parse signal summary
		if signalJSON.Valid && signalJSON.String != "" {
			if err := json.Unmarshal([]byte(signalJSON.String), &meta.SignalSummary); err != nil {
				meta.SignalSummary = make(map[string]int)
			}
		} else {
			meta.SignalSummary = make(map[string]int)
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetHarvestByID retrieves a harvest report by its database ID.
func (hdb *HarvestDB) GetHarvestByID(ctx context.Context, id int64) (*model.HarvestReport, error) {
	query := `
	SELECT report_json FROM harvests
	WHERE id = ?
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get harvest report: %w", err)
	}

	var report model.HarvestReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	// Return zero time if no format matches
	// This is a fallback to avoid breaking functionality for edge cases
	return time.Time{}
}
