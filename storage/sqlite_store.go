package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"timeboard/worklog"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timestampLayout is fixed-width UTC so lexical order equals chronological order.
const timestampLayout = "2006-01-02T15:04:05.000Z"

var (
	ErrEntryNotFound  = errors.New("time entry not found")
	ErrDuplicateEntry = errors.New("duplicate time entry")
)

// DuplicateEntryError reports a (source, external_id) collision on a plain insert or edit.
type DuplicateEntryError struct {
	Source     worklog.Source
	ExternalID string
	Cause      error
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("%s: source=%s externalId=%s: %v", ErrDuplicateEntry, e.Source, e.ExternalID, e.Cause)
}

func (e *DuplicateEntryError) Unwrap() error {
	return ErrDuplicateEntry
}

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Filter narrows queries. From is inclusive, To exclusive; zero values are unbounded.
type Filter struct {
	Source worklog.Source
	From   time.Time
	To     time.Time
}

type DaySummary struct {
	Day   string  `json:"day"`
	Hours float64 `json:"hours"`
	Count int     `json:"count"`
}

type SourceSummary struct {
	Source worklog.Source `json:"source"`
	Hours  float64        `json:"hours"`
	Count  int            `json:"count"`
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// sqliteDSN applies the busy timeout and immediate write locks to every pooled connection.
func sqliteDSN(path string) string {
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return path + separator + "_pragma=busy_timeout(5000)&_txlock=immediate"
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS time_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	external_id TEXT,
	date TEXT NOT NULL,
	duration REAL NOT NULL CHECK(duration >= 0),
	project TEXT,
	description TEXT,
	created_at TEXT NOT NULL,
	UNIQUE(source, external_id)
);
CREATE INDEX IF NOT EXISTS idx_time_entries_date ON time_entries(date);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CreateEntry inserts a new row. A (source, external_id) collision is returned as
// *DuplicateEntryError.
func (s *SQLiteStore) CreateEntry(entry worklog.Entry) (worklog.Entry, error) {
	if err := validateEntry(entry); err != nil {
		return worklog.Entry{}, err
	}

	const insertStmt = `
INSERT INTO time_entries (
	source,
	external_id,
	date,
	duration,
	project,
	description,
	created_at
) VALUES (?, ?, ?, ?, ?, ?, ?);`

	createdAt := s.now().UTC()
	res, err := s.db.Exec(
		insertStmt,
		string(entry.Source),
		nullString(entry.ExternalID),
		formatTimestamp(entry.Date),
		entry.Duration,
		nullString(entry.Project),
		nullString(entry.Description),
		formatTimestamp(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return worklog.Entry{}, &DuplicateEntryError{Source: entry.Source, ExternalID: worklog.Deref(entry.ExternalID), Cause: err}
		}
		return worklog.Entry{}, fmt.Errorf("insert time entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return worklog.Entry{}, fmt.Errorf("read inserted row id: %w", err)
	}

	entry.ID = id
	entry.Date = entry.Date.UTC()
	entry.CreatedAt = createdAt.Truncate(time.Millisecond)
	return entry, nil
}

const upsertStmt = `
INSERT INTO time_entries (
	source,
	external_id,
	date,
	duration,
	project,
	description,
	created_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source, external_id) DO UPDATE SET
	duration = excluded.duration,
	description = excluded.description,
	project = excluded.project,
	date = excluded.date
RETURNING id;`

// UpsertEntry inserts the entry or, when (source, external_id) already exists, overwrites
// duration, description, project and date in one statement. It returns the row id.
func (s *SQLiteStore) UpsertEntry(entry worklog.Entry) (int64, error) {
	if err := validateUpsert(entry); err != nil {
		return 0, err
	}

	var id int64
	err := s.db.QueryRow(upsertStmt, upsertArgs(entry, s.now())...).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, &DuplicateEntryError{Source: entry.Source, ExternalID: worklog.Deref(entry.ExternalID), Cause: err}
		}
		return 0, fmt.Errorf("upsert time entry %s/%s: %w", entry.Source, worklog.Deref(entry.ExternalID), err)
	}
	return id, nil
}

// UpsertEntries applies UpsertEntry to a batch inside one transaction.
func (s *SQLiteStore) UpsertEntries(entries []worklog.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(upsertStmt)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare upsert statement: %w", err)
	}
	defer stmt.Close()

	now := s.now()
	upserted := 0
	for _, entry := range entries {
		if err := validateUpsert(entry); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		var id int64
		if err := stmt.QueryRow(upsertArgs(entry, now)...).Scan(&id); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("upsert time entry %s/%s: %w", entry.Source, worklog.Deref(entry.ExternalID), err)
		}
		upserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return upserted, nil
}

// UpdateEntry replaces every editable field of the row with the given ID.
func (s *SQLiteStore) UpdateEntry(entry worklog.Entry) (worklog.Entry, error) {
	if entry.ID <= 0 {
		return worklog.Entry{}, fmt.Errorf("time entry id must be > 0")
	}
	if err := validateEntry(entry); err != nil {
		return worklog.Entry{}, err
	}

	const updateStmt = `
UPDATE time_entries
SET source = ?,
	external_id = ?,
	date = ?,
	duration = ?,
	project = ?,
	description = ?
WHERE id = ?;`

	res, err := s.db.Exec(
		updateStmt,
		string(entry.Source),
		nullString(entry.ExternalID),
		formatTimestamp(entry.Date),
		entry.Duration,
		nullString(entry.Project),
		nullString(entry.Description),
		entry.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return worklog.Entry{}, &DuplicateEntryError{Source: entry.Source, ExternalID: worklog.Deref(entry.ExternalID), Cause: err}
		}
		return worklog.Entry{}, fmt.Errorf("update time entry %d: %w", entry.ID, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return worklog.Entry{}, fmt.Errorf("read updated row count: %w", err)
	}
	if rowsAffected == 0 {
		return worklog.Entry{}, ErrEntryNotFound
	}

	updated, found, err := s.GetEntry(entry.ID)
	if err != nil {
		return worklog.Entry{}, err
	}
	if !found {
		return worklog.Entry{}, ErrEntryNotFound
	}
	return updated, nil
}

// DeleteEntry removes the row with the given ID.
func (s *SQLiteStore) DeleteEntry(id int64) (bool, error) {
	if id <= 0 {
		return false, fmt.Errorf("time entry id must be > 0")
	}

	res, err := s.db.Exec(`DELETE FROM time_entries WHERE id = ?;`, id)
	if err != nil {
		return false, fmt.Errorf("delete time entry %d: %w", id, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read deleted row count: %w", err)
	}
	return rowsAffected > 0, nil
}

const selectColumns = `
SELECT
	id,
	source,
	external_id,
	date,
	duration,
	project,
	description,
	created_at
FROM time_entries`

// GetEntry returns one entry by ID.
func (s *SQLiteStore) GetEntry(id int64) (worklog.Entry, bool, error) {
	if id <= 0 {
		return worklog.Entry{}, false, fmt.Errorf("time entry id must be > 0")
	}

	entry, err := scanEntry(s.db.QueryRow(selectColumns+` WHERE id = ?;`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return worklog.Entry{}, false, nil
		}
		return worklog.Entry{}, false, fmt.Errorf("query time entry %d: %w", id, err)
	}
	return entry, true, nil
}

// ListEntries returns matching entries ordered by date, then id.
func (s *SQLiteStore) ListEntries(filter Filter) ([]worklog.Entry, error) {
	where, args := filter.clause()
	rows, err := s.db.Query(selectColumns+where+` ORDER BY date, id;`, args...)
	if err != nil {
		return nil, fmt.Errorf("query time entries: %w", err)
	}
	defer rows.Close()

	entries := make([]worklog.Entry, 0, 256)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time entries: %w", err)
	}

	return entries, nil
}

func (s *SQLiteStore) CountEntries(filter Filter) (int, error) {
	where, args := filter.clause()
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM time_entries`+where+`;`, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count time entries: %w", err)
	}
	return count, nil
}

// SumDuration returns the summed hours of matching entries.
func (s *SQLiteStore) SumDuration(filter Filter) (float64, error) {
	where, args := filter.clause()
	var total float64
	if err := s.db.QueryRow(`SELECT COALESCE(SUM(duration), 0) FROM time_entries`+where+`;`, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum time entry durations: %w", err)
	}
	return total, nil
}

// SummaryBySource groups matching entries by source.
func (s *SQLiteStore) SummaryBySource(filter Filter) ([]SourceSummary, error) {
	where, args := filter.clause()
	rows, err := s.db.Query(
		`SELECT source, COALESCE(SUM(duration), 0), COUNT(*) FROM time_entries`+where+` GROUP BY source ORDER BY source;`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query source summary: %w", err)
	}
	defer rows.Close()

	out := make([]SourceSummary, 0, len(worklog.Sources()))
	for rows.Next() {
		var (
			source  string
			summary SourceSummary
		)
		if err := rows.Scan(&source, &summary.Hours, &summary.Count); err != nil {
			return nil, fmt.Errorf("scan source summary: %w", err)
		}
		summary.Source = worklog.Source(source)
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source summary: %w", err)
	}
	return out, nil
}

// SummaryByDay groups matching entries by calendar day in loc.
// SQLite has no IANA zone support, so the grouping happens after the range query.
func (s *SQLiteStore) SummaryByDay(filter Filter, loc *time.Location) ([]DaySummary, error) {
	if loc == nil {
		loc = time.UTC
	}

	where, args := filter.clause()
	rows, err := s.db.Query(`SELECT date, duration FROM time_entries`+where+` ORDER BY date;`, args...)
	if err != nil {
		return nil, fmt.Errorf("query day summary: %w", err)
	}
	defer rows.Close()

	byDay := make(map[string]*DaySummary)
	for rows.Next() {
		var (
			dateRaw  string
			duration float64
		)
		if err := rows.Scan(&dateRaw, &duration); err != nil {
			return nil, fmt.Errorf("scan day summary: %w", err)
		}
		date, err := parseTimestamp(dateRaw)
		if err != nil {
			return nil, err
		}
		key := date.In(loc).Format("2006-01-02")
		summary, ok := byDay[key]
		if !ok {
			summary = &DaySummary{Day: key}
			byDay[key] = summary
		}
		summary.Hours += duration
		summary.Count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day summary: %w", err)
	}

	out := make([]DaySummary, 0, len(byDay))
	for _, summary := range byDay {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// LastCreatedAt returns the newest created_at of a source, the proxy for its last sync.
func (s *SQLiteStore) LastCreatedAt(source worklog.Source) (time.Time, bool, error) {
	var raw sql.NullString
	if err := s.db.QueryRow(`SELECT MAX(created_at) FROM time_entries WHERE source = ?;`, string(source)).Scan(&raw); err != nil {
		return time.Time{}, false, fmt.Errorf("query last created_at for %s: %w", source, err)
	}
	if !raw.Valid {
		return time.Time{}, false, nil
	}
	parsed, err := parseTimestamp(raw.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return parsed, true, nil
}

func (f Filter) clause() (string, []any) {
	conditions := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if f.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, string(f.Source))
	}
	if !f.From.IsZero() {
		conditions = append(conditions, "date >= ?")
		args = append(args, formatTimestamp(f.From))
	}
	if !f.To.IsZero() {
		conditions = append(conditions, "date < ?")
		args = append(args, formatTimestamp(f.To))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (worklog.Entry, error) {
	var (
		entry       worklog.Entry
		source      string
		externalID  sql.NullString
		dateRaw     string
		project     sql.NullString
		description sql.NullString
		createdRaw  string
	)
	if err := row.Scan(
		&entry.ID,
		&source,
		&externalID,
		&dateRaw,
		&entry.Duration,
		&project,
		&description,
		&createdRaw,
	); err != nil {
		return worklog.Entry{}, err
	}

	var err error
	entry.Source = worklog.Source(source)
	entry.ExternalID = stringPtr(externalID)
	entry.Project = stringPtr(project)
	entry.Description = stringPtr(description)
	if entry.Date, err = parseTimestamp(dateRaw); err != nil {
		return worklog.Entry{}, err
	}
	if entry.CreatedAt, err = parseTimestamp(createdRaw); err != nil {
		return worklog.Entry{}, err
	}
	return entry, nil
}

func upsertArgs(entry worklog.Entry, now time.Time) []any {
	return []any{
		string(entry.Source),
		nullString(entry.ExternalID),
		formatTimestamp(entry.Date),
		entry.Duration,
		nullString(entry.Project),
		nullString(entry.Description),
		formatTimestamp(now),
	}
}

func validateEntry(entry worklog.Entry) error {
	if _, err := worklog.ParseSource(string(entry.Source)); err != nil {
		return err
	}
	if entry.Date.IsZero() {
		return fmt.Errorf("time entry date is required")
	}
	if entry.Duration < 0 {
		return fmt.Errorf("time entry duration must be >= 0")
	}
	return nil
}

func validateUpsert(entry worklog.Entry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}
	if entry.ExternalID == nil || strings.TrimSpace(*entry.ExternalID) == "" {
		return fmt.Errorf("upsert into %s requires an external id", entry.Source)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func formatTimestamp(value time.Time) string {
	return value.UTC().Format(timestampLayout)
}

func parseTimestamp(raw string) (time.Time, error) {
	parsed, err := time.Parse(timestampLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return parsed.UTC(), nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	out := value.String
	return &out
}
