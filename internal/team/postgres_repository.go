package team

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itacpc/teams/internal/database"
	"github.com/itacpc/teams/internal/student"
)

const selectColumns = `id, name, university_id, secret, created_at`

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new team, moves the founder into it and logs the join.
func (r *PostgresRepository) Create(ctx context.Context, t *Team, founderID uuid.UUID) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var currentTeam *uuid.UUID
		var universityID uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT team_id, university_id FROM users WHERE id = $1 FOR UPDATE`, founderID,
		).Scan(&currentTeam, &universityID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return student.ErrStudentNotFound
			}
			return fmt.Errorf("locking founder: %w", err)
		}
		if currentTeam != nil {
			return ErrAlreadyInTeam
		}
		if universityID != t.UniversityID {
			return ErrWrongUniversity
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO teams (name, university_id, secret)
			VALUES ($1, $2, $3)
			RETURNING id, created_at`,
			t.Name, t.UniversityID, t.Secret,
		).Scan(&t.ID, &t.CreatedAt)
		if err != nil {
			if database.IsUniqueViolation(err, "teams_name_key") {
				return ErrDuplicateTeamName
			}
			return fmt.Errorf("inserting team: %w", err)
		}

		if err := setTeam(ctx, tx, founderID, &t.ID); err != nil {
			return err
		}
		return logEvent(ctx, tx, founderID, t.ID, true)
	})
}

// GetByID retrieves a single team by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Team, error) {
	return scanOne(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM teams WHERE id = $1`, id))
}

// GetBySecret retrieves a single team by its join secret.
func (r *PostgresRepository) GetBySecret(ctx context.Context, secret string) (*Team, error) {
	return scanOne(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM teams WHERE secret = $1`, secret))
}

// List retrieves all teams ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]Team, error) {
	return r.scanMany(ctx, `SELECT `+selectColumns+` FROM teams ORDER BY name ASC`)
}

// ListByUniversity retrieves the teams of a university ordered by name.
func (r *PostgresRepository) ListByUniversity(ctx context.Context, universityID uuid.UUID) ([]Team, error) {
	return r.scanMany(ctx,
		`SELECT `+selectColumns+` FROM teams WHERE university_id = $1 ORDER BY name ASC`, universityID)
}

// AddMember admits a student into a team. The team row is locked before the
// member count is read, so concurrent joins of the same team are serialized
// and at most maxMembers of them succeed. The secret is matched under the same
// lock, so a secret rotated by a concurrent leave no longer admits anyone.
func (r *PostgresRepository) AddMember(ctx context.Context, teamID uuid.UUID, joinSecret string, userID uuid.UUID, maxMembers int) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var teamUniversity uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT university_id FROM teams WHERE id = $1 AND secret = $2 FOR UPDATE`, teamID, joinSecret,
		).Scan(&teamUniversity)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("locking team: %w", err)
		}

		var currentTeam *uuid.UUID
		var userUniversity uuid.UUID
		err = tx.QueryRow(ctx,
			`SELECT team_id, university_id FROM users WHERE id = $1 FOR UPDATE`, userID,
		).Scan(&currentTeam, &userUniversity)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return student.ErrStudentNotFound
			}
			return fmt.Errorf("locking student: %w", err)
		}

		if currentTeam != nil {
			if *currentTeam == teamID {
				return ErrAlreadyMember
			}
			return ErrAlreadyInTeam
		}
		if userUniversity != teamUniversity {
			return ErrWrongUniversity
		}

		count, err := countMembers(ctx, tx, teamID)
		if err != nil {
			return err
		}
		if count >= maxMembers {
			return ErrTeamFull
		}

		if err := setTeam(ctx, tx, userID, &teamID); err != nil {
			return err
		}
		return logEvent(ctx, tx, userID, teamID, true)
	})
}

// RemoveMember takes a student out of their team. The team row is locked
// before the student row, in the same order as AddMember.
func (r *PostgresRepository) RemoveMember(ctx context.Context, userID uuid.UUID, policy EmptyTeamPolicy, newSecret string) (*LeaveOutcome, error) {
	var outcome *LeaveOutcome

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var teamID *uuid.UUID
		err := tx.QueryRow(ctx, `SELECT team_id FROM users WHERE id = $1`, userID).Scan(&teamID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return student.ErrStudentNotFound
			}
			return fmt.Errorf("reading student team: %w", err)
		}
		if teamID == nil {
			return ErrNotInTeam
		}

		var locked uuid.UUID
		err = tx.QueryRow(ctx, `SELECT id FROM teams WHERE id = $1 FOR UPDATE`, *teamID).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotInTeam
			}
			return fmt.Errorf("locking team: %w", err)
		}

		var current *uuid.UUID
		err = tx.QueryRow(ctx, `SELECT team_id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&current)
		if err != nil {
			return fmt.Errorf("locking student: %w", err)
		}
		if current == nil || *current != locked {
			return ErrNotInTeam
		}

		if err := logEvent(ctx, tx, userID, locked, false); err != nil {
			return err
		}
		if err := setTeam(ctx, tx, userID, nil); err != nil {
			return err
		}

		remaining, err := countMembers(ctx, tx, locked)
		if err != nil {
			return err
		}

		outcome = &LeaveOutcome{TeamID: locked, Remaining: remaining}
		if remaining == 0 && policy == PolicyDelete {
			if _, err := tx.Exec(ctx, `DELETE FROM teams WHERE id = $1`, locked); err != nil {
				return fmt.Errorf("deleting empty team: %w", err)
			}
			outcome.Deleted = true
			return nil
		}

		if _, err := tx.Exec(ctx, `UPDATE teams SET secret = $2 WHERE id = $1`, locked, newSecret); err != nil {
			return fmt.Errorf("rotating team secret: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// ListEvents retrieves the join log of a team, oldest first, with the name of
// the student behind each event.
func (r *PostgresRepository) ListEvents(ctx context.Context, teamID uuid.UUID) ([]JoinEvent, error) {
	query := `
		SELECT e.id, e.user_id, e.team_id, e.joining, e.created_at,
		       COALESCE(u.first_name || ' ' || u.last_name, '')
		FROM team_join_events e
		LEFT JOIN users u ON u.id = e.user_id
		WHERE e.team_id = $1
		ORDER BY e.created_at ASC, e.id ASC`

	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("listing join events: %w", err)
	}
	defer rows.Close()

	var events []JoinEvent
	for rows.Next() {
		var e JoinEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.TeamID, &e.Joining, &e.CreatedAt, &e.StudentName); err != nil {
			return nil, fmt.Errorf("scanning join event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating join event rows: %w", err)
	}

	if events == nil {
		events = []JoinEvent{}
	}
	return events, nil
}

func (r *PostgresRepository) scanMany(ctx context.Context, query string, args ...any) ([]Team, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name, &t.UniversityID, &t.Secret, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating team rows: %w", err)
	}

	if teams == nil {
		teams = []Team{}
	}
	return teams, nil
}

func scanOne(row pgx.Row) (*Team, error) {
	var t Team
	if err := row.Scan(&t.ID, &t.Name, &t.UniversityID, &t.Secret, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("querying team: %w", err)
	}
	return &t, nil
}

func countMembers(ctx context.Context, tx pgx.Tx, teamID uuid.UUID) (int, error) {
	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE team_id = $1`, teamID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting team members: %w", err)
	}
	return count, nil
}

func setTeam(ctx context.Context, tx pgx.Tx, userID uuid.UUID, teamID *uuid.UUID) error {
	if _, err := tx.Exec(ctx, `UPDATE users SET team_id = $2, updated_at = NOW() WHERE id = $1`, userID, teamID); err != nil {
		return fmt.Errorf("updating student team: %w", err)
	}
	return nil
}

func logEvent(ctx context.Context, tx pgx.Tx, userID, teamID uuid.UUID, joining bool) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO team_join_events (user_id, team_id, joining) VALUES ($1, $2, $3)`,
		userID, teamID, joining)
	if err != nil {
		return fmt.Errorf("logging join event: %w", err)
	}
	return nil
}
