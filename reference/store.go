// Package reference reads the external medicines reference table that backs
// the therapeutic class fallback of the interaction resolver.
package reference

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medhub/medhub-api/entities"
	"github.com/medhub/medhub-api/interfaces"
)

// ErrUnavailable is returned when no reference source is configured and the
// snapshot is empty
var ErrUnavailable = errors.New("reference store unavailable")

// UpstreamError wraps a failure of the reference store
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("reference store %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

type queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// pinger is implemented by *pgxpool.Pool
type pinger interface {
	Ping(ctx context.Context) error
}

// Compile-time check to ensure PGStore implements ReferenceSource
var _ interfaces.ReferenceSource = (*PGStore)(nil)

// PGStore reads the medicines table
type PGStore struct {
	conn queryable
}

// NewPGStore accepts a *pgxpool.Pool or any other pgx connection
func NewPGStore(conn queryable) *PGStore {
	return &PGStore{conn: conn}
}

const refCols = `name, generic_name, therapeutic_class`

func scanRow(row pgx.Row) (*entities.ReferenceMedicine, error) {
	var m entities.ReferenceMedicine
	err := row.Scan(&m.Name, &m.GenericName, &m.TherapeuticClass)
	return &m, err
}

// FindByName returns the first row, by name, whose name contains the term
// case-insensitively. LIKE wildcards in the term are matched literally.
func (s *PGStore) FindByName(ctx context.Context, name string) (*entities.ReferenceMedicine, error) {
	m, err := scanRow(s.conn.QueryRow(ctx,
		`SELECT `+refCols+` FROM medicines WHERE name ILIKE '%' || $1 || '%' ESCAPE '\' ORDER BY name LIMIT 1`,
		escapeLike(name)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &UpstreamError{Op: "find", Err: err}
	}
	return m, nil
}

// All returns every row ordered by name
func (s *PGStore) All(ctx context.Context) ([]entities.ReferenceMedicine, error) {
	rows, err := s.conn.Query(ctx, `SELECT `+refCols+` FROM medicines ORDER BY name`)
	if err != nil {
		return nil, &UpstreamError{Op: "list", Err: err}
	}
	defer rows.Close()

	var items []entities.ReferenceMedicine
	for rows.Next() {
		m, err := scanRow(rows)
		if err != nil {
			return nil, &UpstreamError{Op: "list", Err: err}
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, &UpstreamError{Op: "list", Err: err}
	}
	return items, nil
}

// Ping checks connectivity
func (s *PGStore) Ping(ctx context.Context) error {
	if p, ok := s.conn.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return &UpstreamError{Op: "ping", Err: err}
		}
		return nil
	}
	if _, err := s.conn.Exec(ctx, `SELECT 1`); err != nil {
		return &UpstreamError{Op: "ping", Err: err}
	}
	return nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
