package student

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itacpc/teams/internal/database"
)

const selectColumns = `
	id, email, password_hash, first_name, last_name, university_id, team_id,
	is_verified, is_superuser, subscribed, is_swerc_eligible,
	codeforces_handle, kattis_handle, olinfo_handle, github_handle,
	confirmation_token, password_reset_token, password_reset_expires_at,
	password_reset_requested_at, credentials, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new student. afterInsert, when non-nil, runs before commit
// and aborts the insert if it fails.
func (r *PostgresRepository) Create(ctx context.Context, s *Student, afterInsert Hook) error {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, university_id,
		                   is_verified, is_superuser, subscribed, is_swerc_eligible,
		                   codeforces_handle, kattis_handle, olinfo_handle, github_handle,
		                   confirmation_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			s.Email, s.PasswordHash, s.FirstName, s.LastName, s.UniversityID,
			s.IsVerified, s.IsSuperuser, s.Subscribed, s.IsSwercEligible,
			s.Handles.Codeforces, s.Handles.Kattis, s.Handles.Olinfo, s.Handles.Github,
			s.ConfirmationToken,
		).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			if database.IsUniqueViolation(err, "users_email_key") {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("inserting student: %w", err)
		}

		if afterInsert != nil {
			return afterInsert(ctx, s)
		}
		return nil
	})
}

// GetByID retrieves a single student by UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Student, error) {
	query := `SELECT ` + selectColumns + ` FROM users WHERE id = $1`
	return scanOne(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a single student by email, case-insensitively.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Student, error) {
	query := `SELECT ` + selectColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanOne(r.pool.QueryRow(ctx, query, email))
}

// Confirm verifies the student owning token. The token is cleared so a second
// redemption returns ErrTokenNotFound.
func (r *PostgresRepository) Confirm(ctx context.Context, token string) (*Student, error) {
	query := `
		UPDATE users
		SET is_verified = TRUE, confirmation_token = NULL, updated_at = NOW()
		WHERE confirmation_token = $1
		RETURNING ` + selectColumns

	s, err := scanOne(r.pool.QueryRow(ctx, query, token))
	if errors.Is(err, ErrStudentNotFound) {
		return nil, ErrTokenNotFound
	}
	return s, err
}

// RequestPasswordReset stores a new reset token under a row lock so that
// concurrent requests observe each other's request time.
func (r *PostgresRepository) RequestPasswordReset(ctx context.Context, email string, req ResetRequest, afterStore Hook) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `SELECT ` + selectColumns + ` FROM users WHERE LOWER(email) = LOWER($1) FOR UPDATE`
		s, err := scanOne(tx.QueryRow(ctx, query, email))
		if err != nil {
			return err
		}

		if s.PasswordResetRequestedAt != nil && req.RequestedAt.Sub(*s.PasswordResetRequestedAt) < req.Cooldown {
			return ErrResetCooldown
		}

		_, err = tx.Exec(ctx, `
			UPDATE users
			SET password_reset_token = $2, password_reset_expires_at = $3,
			    password_reset_requested_at = $4, updated_at = NOW()
			WHERE id = $1`,
			s.ID, req.Token, req.ExpiresAt, req.RequestedAt)
		if err != nil {
			return fmt.Errorf("storing password reset token: %w", err)
		}

		s.PasswordResetToken = &req.Token
		s.PasswordResetExpiresAt = &req.ExpiresAt
		s.PasswordResetRequestedAt = &req.RequestedAt

		if afterStore != nil {
			return afterStore(ctx, s)
		}
		return nil
	})
}

// GetByResetToken retrieves the student owning an unexpired reset token.
func (r *PostgresRepository) GetByResetToken(ctx context.Context, token string, now time.Time) (*Student, error) {
	query := `SELECT ` + selectColumns + `
		FROM users
		WHERE password_reset_token = $1 AND password_reset_expires_at > $2`

	s, err := scanOne(r.pool.QueryRow(ctx, query, token, now))
	if errors.Is(err, ErrStudentNotFound) {
		return nil, ErrTokenNotFound
	}
	return s, err
}

// ResetPassword sets a new password hash and clears the reset token. Completing
// a reset also proves control of the address, so the student becomes verified.
func (r *PostgresRepository) ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error {
	query := `
		UPDATE users
		SET password_hash = $2, password_reset_token = NULL, password_reset_expires_at = NULL,
		    is_verified = TRUE, updated_at = NOW()
		WHERE password_reset_token = $1 AND password_reset_expires_at > $3`

	result, err := r.pool.Exec(ctx, query, token, passwordHash, now)
	if err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// UpdateProfile updates the editable profile fields of a student.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileUpdate) (*Student, error) {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3,
		    codeforces_handle = $4, kattis_handle = $5, olinfo_handle = $6, github_handle = $7,
		    subscribed = $8, is_swerc_eligible = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + selectColumns

	return scanOne(r.pool.QueryRow(ctx, query, id,
		p.FirstName, p.LastName,
		p.Handles.Codeforces, p.Handles.Kattis, p.Handles.Olinfo, p.Handles.Github,
		p.Subscribed, p.IsSwercEligible,
	))
}

// ListVerifiedByUniversity lists the verified students of a university.
func (r *PostgresRepository) ListVerifiedByUniversity(ctx context.Context, universityID uuid.UUID) ([]Student, error) {
	query := `SELECT ` + selectColumns + `
		FROM users
		WHERE university_id = $1 AND is_verified
		ORDER BY last_name ASC, first_name ASC`
	return r.scanMany(ctx, query, universityID)
}

// ListByTeam lists the members of a team.
func (r *PostgresRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]Student, error) {
	query := `SELECT ` + selectColumns + `
		FROM users
		WHERE team_id = $1
		ORDER BY first_name ASC, last_name ASC`
	return r.scanMany(ctx, query, teamID)
}

// ListTeamMembers lists every verified student that belongs to a team.
func (r *PostgresRepository) ListTeamMembers(ctx context.Context) ([]Student, error) {
	query := `SELECT ` + selectColumns + `
		FROM users
		WHERE team_id IS NOT NULL AND is_verified
		ORDER BY team_id ASC, last_name ASC, first_name ASC`
	return r.scanMany(ctx, query)
}

// SetCredentials stores judging credentials unless the student already has some.
func (r *PostgresRepository) SetCredentials(ctx context.Context, id uuid.UUID, c Credentials) (bool, error) {
	blob, err := json.Marshal(c)
	if err != nil {
		return false, fmt.Errorf("encoding credentials: %w", err)
	}

	query := `
		UPDATE users
		SET credentials = $2::jsonb, updated_at = NOW()
		WHERE id = $1 AND credentials IS NULL`

	result, err := r.pool.Exec(ctx, query, id, string(blob))
	if err != nil {
		return false, fmt.Errorf("storing credentials: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// ClearExpiredResetTokens removes reset tokens whose expiry is before now.
func (r *PostgresRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE users
		SET password_reset_token = NULL, password_reset_expires_at = NULL, updated_at = NOW()
		WHERE password_reset_token IS NOT NULL AND password_reset_expires_at < $1`

	result, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("clearing expired reset tokens: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *PostgresRepository) scanMany(ctx context.Context, query string, args ...any) ([]Student, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning student row: %w", err)
		}
		students = append(students, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating student rows: %w", err)
	}

	if students == nil {
		students = []Student{}
	}
	return students, nil
}

func scanOne(row pgx.Row) (*Student, error) {
	s, err := scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("querying student: %w", err)
	}
	return s, nil
}

func scan(row scanner) (*Student, error) {
	var s Student
	var creds []byte
	err := row.Scan(
		&s.ID, &s.Email, &s.PasswordHash, &s.FirstName, &s.LastName, &s.UniversityID, &s.TeamID,
		&s.IsVerified, &s.IsSuperuser, &s.Subscribed, &s.IsSwercEligible,
		&s.Handles.Codeforces, &s.Handles.Kattis, &s.Handles.Olinfo, &s.Handles.Github,
		&s.ConfirmationToken, &s.PasswordResetToken, &s.PasswordResetExpiresAt,
		&s.PasswordResetRequestedAt, &creds, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(creds) > 0 {
		var c Credentials
		if err := json.Unmarshal(creds, &c); err != nil {
			return nil, fmt.Errorf("decoding credentials: %w", err)
		}
		s.Credentials = &c
	}
	return &s, nil
}
