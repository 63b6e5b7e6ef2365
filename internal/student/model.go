package student

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Student represents a row in the users table.
type Student struct {
	ID              uuid.UUID
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	UniversityID    uuid.UUID
	TeamID          *uuid.UUID
	IsVerified      bool
	IsSuperuser     bool
	Subscribed      bool
	IsSwercEligible bool
	Handles         Handles

	ConfirmationToken        *string
	PasswordResetToken       *string
	PasswordResetExpiresAt   *time.Time
	PasswordResetRequestedAt *time.Time

	Credentials *Credentials
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Handles are the optional usernames on competitive programming platforms.
type Handles struct {
	Codeforces *string
	Kattis     *string
	Olinfo     *string
	Github     *string
}

// Normalize trims every handle and drops the empty ones.
func (h Handles) Normalize() Handles {
	return Handles{
		Codeforces: optional(h.Codeforces),
		Kattis:     optional(h.Kattis),
		Olinfo:     optional(h.Olinfo),
		Github:     optional(h.Github),
	}
}

// Optional returns a pointer to the trimmed value, or nil when it is blank.
func Optional(v string) *string {
	return optional(&v)
}

func optional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Credentials are the judging-system account issued to a student.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ProfileUpdate holds the fields a student may change on their profile.
type ProfileUpdate struct {
	FirstName       string
	LastName        string
	Handles         Handles
	Subscribed      bool
	IsSwercEligible bool
}

// FullName returns "First Last".
func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// InTeam reports whether the student references teamID.
func (s *Student) InTeam(teamID uuid.UUID) bool {
	return s.TeamID != nil && *s.TeamID == teamID
}

// NormalizeEmail trims and lowercases an email address. Addresses are stored
// in this form and are unique regardless of case.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
