package university

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectColumns = `id, short_name, name, domain, judge_subdivision, active, created_at`

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// GetByID retrieves a single university by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*University, error) {
	query := `SELECT ` + selectColumns + ` FROM universities WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetByShortName retrieves a single university by its short name.
func (r *PostgresRepository) GetByShortName(ctx context.Context, shortName string) (*University, error) {
	query := `SELECT ` + selectColumns + ` FROM universities WHERE short_name = $1`
	return r.scanOne(ctx, query, shortName)
}

// List retrieves all universities ordered by short name.
func (r *PostgresRepository) List(ctx context.Context) ([]University, error) {
	query := `SELECT ` + selectColumns + ` FROM universities ORDER BY short_name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing universities: %w", err)
	}
	defer rows.Close()

	var unis []University
	for rows.Next() {
		var u University
		if err := rows.Scan(&u.ID, &u.ShortName, &u.Name, &u.Domain, &u.JudgeSubdivision, &u.Active, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning university row: %w", err)
		}
		unis = append(unis, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating university rows: %w", err)
	}

	if unis == nil {
		unis = []University{}
	}
	return unis, nil
}

// ListSummaries retrieves every university with the number of teams that have
// at least one member and the number of verified students.
func (r *PostgresRepository) ListSummaries(ctx context.Context) ([]Summary, error) {
	query := `
		SELECT u.id, u.short_name, u.name, u.domain, u.judge_subdivision, u.active, u.created_at,
		       (SELECT COUNT(*) FROM teams t
		         WHERE t.university_id = u.id
		           AND EXISTS (SELECT 1 FROM users m WHERE m.team_id = t.id)),
		       (SELECT COUNT(*) FROM users s
		         WHERE s.university_id = u.id AND s.is_verified)
		FROM universities u
		ORDER BY u.short_name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing university summaries: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var s Summary
		err := rows.Scan(
			&s.ID, &s.ShortName, &s.Name, &s.Domain, &s.JudgeSubdivision, &s.Active, &s.CreatedAt,
			&s.Teams, &s.Students,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning university summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating university summary rows: %w", err)
	}

	if summaries == nil {
		summaries = []Summary{}
	}
	return summaries, nil
}

// Upsert inserts a university or updates the existing row with the same short name.
func (r *PostgresRepository) Upsert(ctx context.Context, u *University) error {
	query := `
		INSERT INTO universities (short_name, name, domain, judge_subdivision, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (short_name) DO UPDATE
		SET name = EXCLUDED.name,
		    domain = EXCLUDED.domain,
		    judge_subdivision = EXCLUDED.judge_subdivision,
		    active = EXCLUDED.active
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, u.ShortName, u.Name, u.Domain, u.JudgeSubdivision, u.Active).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("upserting university %s: %w", u.ShortName, err)
	}
	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*University, error) {
	var u University
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&u.ID, &u.ShortName, &u.Name, &u.Domain, &u.JudgeSubdivision, &u.Active, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUniversityNotFound
		}
		return nil, fmt.Errorf("querying university: %w", err)
	}
	return &u, nil
}
