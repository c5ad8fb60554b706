package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timestamps are stored as fixed-width UTC text so range queries compare lexically
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

type SQLite struct {
	DB *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	maxConns := 4
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)
	if path == ":memory:" || path == "" {
		// every connection to :memory: would see its own database
		dsn = "file::memory:?_pragma=foreign_keys(ON)"
		maxConns = 1
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return &SQLite{DB: db}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS leads (
	id                TEXT PRIMARY KEY,
	first_name        TEXT NOT NULL,
	last_name         TEXT NOT NULL,
	email             TEXT NOT NULL,
	company           TEXT NOT NULL,
	phone             TEXT NOT NULL DEFAULT '',
	start_at_utc      TEXT NOT NULL,
	end_at_utc        TEXT NOT NULL,
	status            TEXT NOT NULL,
	source            TEXT NOT NULL DEFAULT '',
	calendar_event_id TEXT NOT NULL DEFAULT '',
	created_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS leads_start_idx ON leads (start_at_utc);
CREATE UNIQUE INDEX IF NOT EXISTS leads_confirmed_slot_idx ON leads (start_at_utc) WHERE status = 'confirmed';
CREATE TABLE IF NOT EXISTS oauth_tokens (
	name       TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func fmtTime(t time.Time) string { return t.UTC().Format(sqliteTime) }

func (s *SQLite) InsertLead(ctx context.Context, l *Lead) error {
	l.ID = uuid.NewString()
	l.Status = StatusConfirmed
	l.CreatedAt = time.Now().UTC()
	q := `INSERT INTO leads
	      (id, first_name, last_name, email, company, phone, start_at_utc, end_at_utc, status, source, calendar_event_id, created_at)
	      VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`
	_, err := s.DB.ExecContext(ctx, q, l.ID, l.FirstName, l.LastName, l.Email, l.Company, l.Phone,
		fmtTime(l.StartAtUTC), fmtTime(l.EndAtUTC), l.Status, l.Source, l.CalendarEventID, fmtTime(l.CreatedAt))
	if isUniqueViolation(err) {
		l.ID = ""
		return ErrSlotTaken
	}
	if err != nil {
		l.ID = ""
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	// the primary code is reported when extended codes are off
	return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		(liteErr.Code() == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE"))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteLead(row rowScanner) (Lead, error) {
	var (
		l                 Lead
		start, end, added string
	)
	if err := row.Scan(&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Company, &l.Phone,
		&start, &end, &l.Status, &l.Source, &l.CalendarEventID, &added); err != nil {
		return Lead{}, err
	}
	var err error
	if l.StartAtUTC, err = time.Parse(sqliteTime, start); err != nil {
		return Lead{}, fmt.Errorf("lead %s start: %w", l.ID, err)
	}
	if l.EndAtUTC, err = time.Parse(sqliteTime, end); err != nil {
		return Lead{}, fmt.Errorf("lead %s end: %w", l.ID, err)
	}
	if l.CreatedAt, err = time.Parse(sqliteTime, added); err != nil {
		return Lead{}, fmt.Errorf("lead %s created_at: %w", l.ID, err)
	}
	return l, nil
}

func (s *SQLite) ListLeads(ctx context.Context, from, to time.Time, filtered bool) ([]Lead, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if filtered {
		q := `SELECT ` + leadColumns + ` FROM leads
		      WHERE start_at_utc >= ? AND start_at_utc < ?
		      ORDER BY start_at_utc`
		rows, err = s.DB.QueryContext(ctx, q, fmtTime(from), fmtTime(to))
	} else {
		rows, err = s.DB.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY start_at_utc`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Lead{}
	for rows.Next() {
		l, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLite) GetLead(ctx context.Context, id string) (Lead, error) {
	l, err := scanSQLiteLead(s.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return l, err
}

func (s *SQLite) CancelLead(ctx context.Context, id string) error {
	var status string
	err := s.DB.QueryRowContext(ctx, `SELECT status FROM leads WHERE id=?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if status == StatusCancelled {
		return ErrAlreadyCancelled
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE leads SET status='cancelled' WHERE id=? AND status != 'cancelled'`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadyCancelled
	}
	return nil
}

func (s *SQLite) SetCalendarEventID(ctx context.Context, id, eventID string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE leads SET calendar_event_id=? WHERE id=?`, eventID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) SaveCalendarToken(ctx context.Context, tok *oauth2.Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	q := `INSERT INTO oauth_tokens (name, token, updated_at) VALUES (?,?,?)
	      ON CONFLICT (name) DO UPDATE SET token=excluded.token, updated_at=excluded.updated_at`
	_, err = s.DB.ExecContext(ctx, q, calendarTokenKey, string(b), fmtTime(time.Now()))
	return err
}

func (s *SQLite) LoadCalendarToken(ctx context.Context) (*oauth2.Token, error) {
	var raw string
	err := s.DB.QueryRowContext(ctx, `SELECT token FROM oauth_tokens WHERE name=?`, calendarTokenKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("decode calendar token: %w", err)
	}
	return &tok, nil
}

func (s *SQLite) Close() error {
	return s.DB.Close()
}
