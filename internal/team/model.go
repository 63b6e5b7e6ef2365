package team

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/itacpc/teams/internal/student"
	"github.com/itacpc/teams/internal/university"
)

// DefaultMaxMembers is the maximum number of students in a team.
const DefaultMaxMembers = 3

// MaxNameLength is the maximum length of a team name.
const MaxNameLength = 50

// Team represents a row in the teams table.
type Team struct {
	ID           uuid.UUID
	Name         string
	UniversityID uuid.UUID
	Secret       string
	CreatedAt    time.Time
}

// JoinEvent represents a row in the append-only team_join_events table.
type JoinEvent struct {
	ID        int64
	UserID    *uuid.UUID
	TeamID    *uuid.UUID
	Joining   bool
	CreatedAt time.Time

	// StudentName is read from users and is empty when the user reference is null.
	StudentName string
}

// EmptyTeamPolicy decides what happens to a team when its last member leaves.
type EmptyTeamPolicy string

const (
	// PolicyDelete removes the team row.
	PolicyDelete EmptyTeamPolicy = "delete"
	// PolicyRotate keeps the team and rotates its join secret.
	PolicyRotate EmptyTeamPolicy = "rotate"
)

// ParsePolicy validates an EmptyTeamPolicy name.
func ParsePolicy(s string) (EmptyTeamPolicy, error) {
	switch p := EmptyTeamPolicy(s); p {
	case PolicyDelete, PolicyRotate:
		return p, nil
	default:
		return "", fmt.Errorf("unknown empty team policy %q", s)
	}
}

// Member identifies the session user acting on teams.
type Member struct {
	UserID       uuid.UUID
	UniversityID uuid.UUID
}

// JoinPreview is what a student sees before confirming a join.
type JoinPreview struct {
	Team          *Team
	Members       []student.Student
	AlreadyMember bool
	Full          bool
}

// JoinResult reports the outcome of a successful join.
type JoinResult struct {
	Team          *Team
	AlreadyMember bool
}

// LeaveOutcome reports what happened to the team a student left.
type LeaveOutcome struct {
	TeamID    uuid.UUID
	Remaining int
	Deleted   bool
}

// RosterTeam is a team with its verified members.
type RosterTeam struct {
	Team
	Members []student.Student
}

// Roster is the public page of a university.
type Roster struct {
	University *university.University
	Teams      []RosterTeam
	Unassigned []student.Student
}
