package team

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTeamNotFound is returned when a team record is not found.
var ErrTeamNotFound = errors.New("team not found")

// ErrDuplicateTeamName is returned when a team with the same name already exists.
var ErrDuplicateTeamName = errors.New("team name already exists")

// ErrTeamFull is returned when a team already has the maximum number of members.
var ErrTeamFull = errors.New("team is full")

// ErrAlreadyMember is returned by the repository when the student already
// belongs to the target team.
var ErrAlreadyMember = errors.New("already a member of this team")

// ErrAlreadyInTeam is returned when the student belongs to another team.
var ErrAlreadyInTeam = errors.New("already in a team")

// ErrNotInTeam is returned when a student without a team tries to leave one.
var ErrNotInTeam = errors.New("not in a team")

// ErrWrongUniversity is returned when a student acts on a team of another university.
var ErrWrongUniversity = errors.New("team belongs to another university")

// Repository provides operations on the teams and team_join_events tables.
// Membership changes run in a single transaction each.
type Repository interface {
	// Create inserts t and makes founderID its first member.
	Create(ctx context.Context, t *Team, founderID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Team, error)
	GetBySecret(ctx context.Context, secret string) (*Team, error)
	List(ctx context.Context) ([]Team, error)
	ListByUniversity(ctx context.Context, universityID uuid.UUID) ([]Team, error)
	// AddMember admits userID into teamID unless the team holds maxMembers
	// already. It returns ErrTeamNotFound when the team no longer exists or its
	// secret is no longer joinSecret.
	AddMember(ctx context.Context, teamID uuid.UUID, joinSecret string, userID uuid.UUID, maxMembers int) error
	// RemoveMember takes userID out of their team, then deletes the team when
	// it is empty and policy is PolicyDelete, or sets its secret to newSecret.
	RemoveMember(ctx context.Context, userID uuid.UUID, policy EmptyTeamPolicy, newSecret string) (*LeaveOutcome, error)
	ListEvents(ctx context.Context, teamID uuid.UUID) ([]JoinEvent, error)
}
