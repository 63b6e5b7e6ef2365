package auth

import (
	"github.com/google/uuid"

	"github.com/itacpc/teams/internal/student"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// Identity is stored in the session and in the request context after login.
type Identity struct {
	UserID              uuid.UUID
	Email               string
	Name                string
	UniversityID        uuid.UUID
	UniversityShortName string
	IsSuperuser         bool
}

// Registration holds a validated self-registration form.
type Registration struct {
	UniversityShortName string
	FirstName           string
	LastName            string
	Email               string
	Password            string
	Handles             student.Handles
	Subscribed          bool
	IsSwercEligible     bool
}

// Superuser holds the fields of a staff account created from the command line.
type Superuser struct {
	UniversityShortName string
	FirstName           string
	LastName            string
	Email               string
	Password            string
}
