// Package cabinet stores the personal medicine cabinet of each user and
// derives exports, statistics and reminder schedules from it.
package cabinet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medhub/medhub-api/entities"
	"github.com/medhub/medhub-api/interfaces"
)

// ErrNotFound is returned when the medicine does not exist or belongs to
// another user
var ErrNotFound = errors.New("medicine not found")

type queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// txStarter is implemented by *pgxpool.Pool
type txStarter interface {
	queryable
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Schema creates the cabinet table. It is safe to run on every start.
const Schema = `
CREATE TABLE IF NOT EXISTS cabinet_medicines (
	id             uuid PRIMARY KEY,
	user_id        uuid NOT NULL,
	name           text NOT NULL,
	generic_name   text NOT NULL DEFAULT '',
	dosage         text NOT NULL DEFAULT '',
	frequency      text NOT NULL DEFAULT '',
	quantity       integer NOT NULL DEFAULT 0 CHECK (quantity >= 0),
	expiry_date    date,
	reminder_times text[] NOT NULL DEFAULT '{}',
	notes          text NOT NULL DEFAULT '',
	created_at     timestamptz NOT NULL DEFAULT NOW(),
	updated_at     timestamptz NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS cabinet_medicines_user_idx ON cabinet_medicines (user_id, name);`

// Compile-time check to ensure PGRepository implements CabinetRepository
var _ interfaces.CabinetRepository = (*PGRepository)(nil)

// PGRepository keeps cabinet entries in Postgres
type PGRepository struct {
	pool txStarter
}

// NewPGRepository accepts a *pgxpool.Pool
func NewPGRepository(pool txStarter) *PGRepository {
	return &PGRepository{pool: pool}
}

// EnsureSchema creates the table and index if they are missing
func (r *PGRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create cabinet schema: %w", err)
	}
	return nil
}

const medCols = `id, user_id, name, generic_name, dosage, frequency, quantity,
	expiry_date, reminder_times, notes, created_at, updated_at`

func scanMedicine(row pgx.Row) (*entities.Medicine, error) {
	var m entities.Medicine
	err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.GenericName, &m.Dosage, &m.Frequency,
		&m.Quantity, &m.ExpiryDate, &m.ReminderTimes, &m.Notes, &m.CreatedAt, &m.UpdatedAt)
	if m.ReminderTimes == nil {
		m.ReminderTimes = []string{}
	}
	return &m, err
}

// List returns the user's medicines ordered by name
func (r *PGRepository) List(ctx context.Context, userID uuid.UUID) ([]entities.Medicine, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+medCols+` FROM cabinet_medicines WHERE user_id = $1 ORDER BY lower(name), created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cabinet: %w", err)
	}
	defer rows.Close()

	items := []entities.Medicine{}
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cabinet row: %w", err)
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cabinet: %w", err)
	}
	return items, nil
}

func (r *PGRepository) Get(ctx context.Context, userID, id uuid.UUID) (*entities.Medicine, error) {
	m, err := scanMedicine(r.pool.QueryRow(ctx,
		`SELECT `+medCols+` FROM cabinet_medicines WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cabinet medicine: %w", err)
	}
	return m, nil
}

// Create assigns a new id and stores the medicine. CreatedAt and UpdatedAt
// are set from the database clock.
func (r *PGRepository) Create(ctx context.Context, m *entities.Medicine) error {
	return insert(ctx, r.pool, m)
}

// CreateMany stores all medicines in one transaction
func (r *PGRepository) CreateMany(ctx context.Context, medicines []entities.Medicine) (int, error) {
	if len(medicines) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range medicines {
		if err := insert(ctx, tx, &medicines[i]); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(medicines), nil
}

func insert(ctx context.Context, conn queryable, m *entities.Medicine) error {
	m.ID = uuid.New()
	if m.ReminderTimes == nil {
		m.ReminderTimes = []string{}
	}
	err := conn.QueryRow(ctx, `
		INSERT INTO cabinet_medicines (id, user_id, name, generic_name, dosage, frequency,
			quantity, expiry_date, reminder_times, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		m.ID, m.UserID, m.Name, m.GenericName, m.Dosage, m.Frequency,
		m.Quantity, m.ExpiryDate, m.ReminderTimes, m.Notes).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert cabinet medicine: %w", err)
	}
	return nil
}

// Update replaces every editable field of an existing medicine
func (r *PGRepository) Update(ctx context.Context, m *entities.Medicine) error {
	if m.ReminderTimes == nil {
		m.ReminderTimes = []string{}
	}
	err := r.pool.QueryRow(ctx, `
		UPDATE cabinet_medicines SET name=$3, generic_name=$4, dosage=$5, frequency=$6,
			quantity=$7, expiry_date=$8, reminder_times=$9, notes=$10, updated_at=NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING created_at, updated_at`,
		m.ID, m.UserID, m.Name, m.GenericName, m.Dosage, m.Frequency,
		m.Quantity, m.ExpiryDate, m.ReminderTimes, m.Notes).Scan(&m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update cabinet medicine: %w", err)
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cabinet_medicines WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete cabinet medicine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
