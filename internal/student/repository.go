package student

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrStudentNotFound is returned when a student record is not found.
var ErrStudentNotFound = errors.New("student not found")

// ErrDuplicateEmail is returned when the email address is already registered.
var ErrDuplicateEmail = errors.New("email address already in use")

// ErrTokenNotFound is returned when a confirmation or reset token does not
// match any student, has already been used, or has expired.
var ErrTokenNotFound = errors.New("token not found")

// ErrResetCooldown is returned when a password reset was requested too recently.
var ErrResetCooldown = errors.New("password reset requested too recently")

// Hook runs inside the enclosing transaction; returning an error rolls it back.
type Hook func(ctx context.Context, s *Student) error

// ResetRequest describes a password reset token to store.
type ResetRequest struct {
	Token       string
	ExpiresAt   time.Time
	RequestedAt time.Time
	Cooldown    time.Duration
}

// Repository provides operations on the users table.
type Repository interface {
	// Create inserts a student and runs afterInsert before committing.
	Create(ctx context.Context, s *Student, afterInsert Hook) error
	GetByID(ctx context.Context, id uuid.UUID) (*Student, error)
	GetByEmail(ctx context.Context, email string) (*Student, error)
	// Confirm marks the student owning token as verified and clears the token.
	Confirm(ctx context.Context, token string) (*Student, error)
	// RequestPasswordReset stores a reset token for the student with email,
	// rejecting with ErrResetCooldown when the previous request is too recent.
	RequestPasswordReset(ctx context.Context, email string, req ResetRequest, afterStore Hook) error
	GetByResetToken(ctx context.Context, token string, now time.Time) (*Student, error)
	// ResetPassword replaces the password of the student owning an unexpired
	// token and clears the token.
	ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error
	UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileUpdate) (*Student, error)
	ListVerifiedByUniversity(ctx context.Context, universityID uuid.UUID) ([]Student, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]Student, error)
	// ListTeamMembers returns every verified student that belongs to a team.
	ListTeamMembers(ctx context.Context) ([]Student, error)
	// SetCredentials stores credentials for a student that has none yet.
	// It reports false when credentials were already present.
	SetCredentials(ctx context.Context, id uuid.UUID, c Credentials) (bool, error)
	// ClearExpiredResetTokens drops reset tokens that expired before now. The
	// request time is kept so that the cooldown still applies.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
