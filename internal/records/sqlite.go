package records

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const historyDateLayout = "02/01/2006"

// SQLiteStore is a local Sink and Roster for deployments without the
// spreadsheet backend.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens (and if needed creates) the database at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		birthdate TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS inr_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		birthdate TEXT NOT NULL DEFAULT '',
		inr REAL NOT NULL,
		bleeding TEXT NOT NULL DEFAULT '',
		supplement TEXT NOT NULL DEFAULT '',
		mon TEXT NOT NULL DEFAULT '', tue TEXT NOT NULL DEFAULT '', wed TEXT NOT NULL DEFAULT '',
		thu TEXT NOT NULL DEFAULT '', fri TEXT NOT NULL DEFAULT '', sat TEXT NOT NULL DEFAULT '',
		sun TEXT NOT NULL DEFAULT '',
		logged_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_inr_records_user ON inr_records(user_id, logged_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// SubmitRecord inserts the record and creates the profile on first use.
func (s *SQLiteStore) SubmitRecord(ctx context.Context, r Record) (string, error) {
	at := r.LoggedAt
	if at.IsZero() {
		at = s.now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	d := r.Doses
	_, err = tx.ExecContext(ctx, `
		INSERT INTO inr_records (user_id, name, birthdate, inr, bleeding, supplement,
			mon, tue, wed, thu, fri, sat, sun, logged_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.Name, r.Birthdate, r.INR, r.Bleeding, r.Supplement,
		d[0], d[1], d[2], d[3], d[4], d[5], d[6], at.Unix())
	if err != nil {
		return "", fmt.Errorf("insert record: %w", err)
	}

	first, last := SplitName(r.Name)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (user_id, first_name, last_name, birthdate, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		r.UserID, first, last, r.Birthdate, at.Unix())
	if err != nil {
		return "", fmt.Errorf("insert profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return "saved", nil
}

// FetchHistory returns every logged INR for the user, oldest first.
func (s *SQLiteStore) FetchHistory(ctx context.Context, userID string) ([]HistoryPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT inr, logged_at FROM inr_records WHERE user_id = ? ORDER BY logged_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []HistoryPoint
	for rows.Next() {
		var inr float64
		var at int64
		if err := rows.Scan(&inr, &at); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, HistoryPoint{Date: time.Unix(at, 0).In(s.now().Location()).Format(historyDateLayout), INR: inr})
	}
	return out, rows.Err()
}

// FetchProfile returns the stored profile or a zero Profile.
func (s *SQLiteStore) FetchProfile(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT first_name, last_name, birthdate FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.FirstName, &p.LastName, &p.Birthdate)
	if err == sql.ErrNoRows {
		return Profile{}, nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("query profile: %w", err)
	}
	return p, nil
}

// UpdateProfile overwrites the fields that are non-empty.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, userID, name, birthdate string) error {
	first, last := SplitName(name)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, first_name, last_name, birthdate, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			first_name = CASE WHEN excluded.first_name != '' THEN excluded.first_name ELSE first_name END,
			last_name = CASE WHEN excluded.first_name != '' THEN excluded.last_name ELSE last_name END,
			birthdate = CASE WHEN excluded.birthdate != '' THEN excluded.birthdate ELSE birthdate END,
			updated_at = excluded.updated_at`,
		userID, first, last, birthdate, s.now().Unix())
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// LatestSchedule returns the weekly plan of the newest record.
func (s *SQLiteStore) LatestSchedule(ctx context.Context, userID string) (Schedule, error) {
	var d Schedule
	err := s.db.QueryRowContext(ctx, `
		SELECT mon, tue, wed, thu, fri, sat, sun FROM inr_records
		WHERE user_id = ? ORDER BY logged_at DESC, id DESC LIMIT 1`, userID).
		Scan(&d[0], &d[1], &d[2], &d[3], &d[4], &d[5], &d[6])
	if err == sql.ErrNoRows {
		return Schedule{}, ErrNotFound
	}
	if err != nil {
		return Schedule{}, fmt.Errorf("query schedule: %w", err)
	}
	return d, nil
}

// Roster lists every profile with the plan from its newest record.
func (s *SQLiteStore) Roster(ctx context.Context) ([]RosterEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.user_id, p.first_name, p.last_name,
			r.mon, r.tue, r.wed, r.thu, r.fri, r.sat, r.sun
		FROM profiles p
		JOIN inr_records r ON r.id = (
			SELECT id FROM inr_records WHERE user_id = p.user_id
			ORDER BY logged_at DESC, id DESC LIMIT 1)
		ORDER BY p.user_id`)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RosterEntry
	for rows.Next() {
		var e RosterEntry
		d := &e.Schedule
		if err := rows.Scan(&e.UserID, &e.FirstName, &e.LastName, &d[0], &d[1], &d[2], &d[3], &d[4], &d[5], &d[6]); err != nil {
			return nil, fmt.Errorf("scan roster: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
