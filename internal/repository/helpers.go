package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prudhvimanvith/Gourmet/internal/database"
)

// timeLayout is fixed width so created_at sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// base carries the handle shared by every repository. Calls made with a
// non-nil tx run inside it; the sqlite pool has a single connection, so a
// caller holding a tx must pass it to reads as well.
type base struct {
	db *database.DB
}

func (b base) getExecer(tx *sql.Tx) execer {
	if tx != nil {
		return tx
	}
	return b.db
}

func (b base) getQueryer(tx *sql.Tx) queryer {
	if tx != nil {
		return tx
	}
	return b.db
}

func (b base) q(query string) string {
	return b.db.Rebind(query)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a stored timestamp in timeLayout or RFC 3339. A value in
// neither format is an error rather than the zero time.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// parseStamps parses a created_at and updated_at pair.
func parseStamps(created, updated string) (time.Time, time.Time, error) {
	c, err := parseTime(created)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("created_at: %w", err)
	}
	u, err := parseTime(updated)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("updated_at: %w", err)
	}
	return c, u, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullableStringPtr(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func now() time.Time {
	return time.Now().UTC()
}
