package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/oauth2"
)

type Postgres struct {
	DB *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{DB: pool}, nil
}

const pgUniqueViolation = "23505"

const postgresSchema = `
CREATE TABLE IF NOT EXISTS leads (
	id                TEXT PRIMARY KEY,
	first_name        TEXT NOT NULL,
	last_name         TEXT NOT NULL,
	email             TEXT NOT NULL,
	company           TEXT NOT NULL,
	phone             TEXT NOT NULL DEFAULT '',
	start_at_utc      TIMESTAMPTZ NOT NULL,
	end_at_utc        TIMESTAMPTZ NOT NULL,
	status            TEXT NOT NULL,
	source            TEXT NOT NULL DEFAULT '',
	calendar_event_id TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS leads_start_idx ON leads (start_at_utc);
CREATE UNIQUE INDEX IF NOT EXISTS leads_confirmed_slot_idx ON leads (start_at_utc) WHERE status = 'confirmed';
CREATE TABLE IF NOT EXISTS oauth_tokens (
	name       TEXT PRIMARY KEY,
	token      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);`

func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.DB.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// InsertLead stores a confirmed lead. The partial unique index on confirmed
// start times settles concurrent submits for the same slot.
func (p *Postgres) InsertLead(ctx context.Context, l *Lead) error {
	l.ID = uuid.NewString()
	l.Status = StatusConfirmed
	l.CreatedAt = time.Now().UTC()
	q := `INSERT INTO leads
	      (id, first_name, last_name, email, company, phone, start_at_utc, end_at_utc, status, source, calendar_event_id, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := p.DB.Exec(ctx, q, l.ID, l.FirstName, l.LastName, l.Email, l.Company, l.Phone,
		l.StartAtUTC.UTC(), l.EndAtUTC.UTC(), l.Status, l.Source, l.CalendarEventID, l.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		l.ID = ""
		return ErrSlotTaken
	}
	if err != nil {
		l.ID = ""
		return err
	}
	return nil
}

const leadColumns = `id,first_name,last_name,email,company,phone,start_at_utc,end_at_utc,status,source,calendar_event_id,created_at`

func (p *Postgres) ListLeads(ctx context.Context, from, to time.Time, filtered bool) ([]Lead, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if filtered {
		q := `SELECT ` + leadColumns + ` FROM leads
		      WHERE start_at_utc >= $1 AND start_at_utc < $2
		      ORDER BY start_at_utc`
		rows, err = p.DB.Query(ctx, q, from.UTC(), to.UTC())
	} else {
		rows, err = p.DB.Query(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY start_at_utc`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Lead{}
	for rows.Next() {
		l, err := scanPgLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanPgLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Company, &l.Phone,
		&l.StartAtUTC, &l.EndAtUTC, &l.Status, &l.Source, &l.CalendarEventID, &l.CreatedAt)
	return l, err
}

func (p *Postgres) GetLead(ctx context.Context, id string) (Lead, error) {
	l, err := scanPgLead(p.DB.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return l, err
}

func (p *Postgres) CancelLead(ctx context.Context, id string) error {
	var status string
	err := p.DB.QueryRow(ctx, `SELECT status FROM leads WHERE id=$1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if status == StatusCancelled {
		return ErrAlreadyCancelled
	}

	res, err := p.DB.Exec(ctx, `UPDATE leads SET status='cancelled' WHERE id=$1 AND status != 'cancelled'`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrAlreadyCancelled
	}
	return nil
}

func (p *Postgres) SetCalendarEventID(ctx context.Context, id, eventID string) error {
	res, err := p.DB.Exec(ctx, `UPDATE leads SET calendar_event_id=$1 WHERE id=$2`, eventID, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) SaveCalendarToken(ctx context.Context, tok *oauth2.Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	q := `INSERT INTO oauth_tokens (name, token, updated_at) VALUES ($1,$2,$3)
	      ON CONFLICT (name) DO UPDATE SET token=EXCLUDED.token, updated_at=EXCLUDED.updated_at`
	_, err = p.DB.Exec(ctx, q, calendarTokenKey, b, time.Now().UTC())
	return err
}

func (p *Postgres) LoadCalendarToken(ctx context.Context) (*oauth2.Token, error) {
	var b []byte
	err := p.DB.QueryRow(ctx, `SELECT token FROM oauth_tokens WHERE name=$1`, calendarTokenKey).Scan(&b)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("decode calendar token: %w", err)
	}
	return &tok, nil
}

func (p *Postgres) Close() error {
	p.DB.Close()
	return nil
}
