// Package store persists submitted demo requests and the connected calendar
// credentials. Postgres backs production; SQLite serves local runs and tests.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

var (
	ErrNotFound         = errors.New("lead not found")
	ErrAlreadyCancelled = errors.New("lead already cancelled")
	ErrSlotTaken        = errors.New("slot already booked")
	ErrNoToken          = errors.New("no calendar token stored")
)

type Lead struct {
	ID              string    `json:"id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email"`
	Company         string    `json:"company"`
	Phone           string    `json:"phone,omitempty"`
	StartAtUTC      time.Time `json:"start_at_utc"`
	EndAtUTC        time.Time `json:"end_at_utc"`
	Status          string    `json:"status"`
	Source          string    `json:"source,omitempty"`
	CalendarEventID string    `json:"calendar_event_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type Store interface {
	Migrate(ctx context.Context) error
	// InsertLead assigns ID, Status and CreatedAt. It fails with ErrSlotTaken
	// when a confirmed lead already holds the same start time.
	InsertLead(ctx context.Context, l *Lead) error
	// ListLeads returns leads ordered by start. When filtered is false the
	// range is ignored.
	ListLeads(ctx context.Context, from, to time.Time, filtered bool) ([]Lead, error)
	GetLead(ctx context.Context, id string) (Lead, error)
	CancelLead(ctx context.Context, id string) error
	SetCalendarEventID(ctx context.Context, id, eventID string) error
	SaveCalendarToken(ctx context.Context, tok *oauth2.Token) error
	LoadCalendarToken(ctx context.Context) (*oauth2.Token, error)
	Close() error
}

// Open picks a backend from the URL scheme: postgres:// or postgresql:// for
// pgx, sqlite:<path> for SQLite (sqlite::memory: for an in-memory database).
func Open(ctx context.Context, url string) (Store, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return OpenPostgres(ctx, url)
	case strings.HasPrefix(url, "sqlite:"):
		return OpenSQLite(ctx, strings.TrimPrefix(url, "sqlite:"))
	default:
		return nil, fmt.Errorf("unsupported database url %q", redact(url))
	}
}

func redact(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		return url[:i] + "://..."
	}
	return url
}

const calendarTokenKey = "google"
