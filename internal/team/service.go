package team

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/itacpc/teams/internal/student"
	"github.com/itacpc/teams/internal/university"
)

// ErrSecretNotRecognized is returned when a join secret matches no team.
var ErrSecretNotRecognized = errors.New("join secret not recognized")

// ErrInvalidTeamName is returned when a team name is empty or too long.
var ErrInvalidTeamName = errors.New("invalid team name")

// StudentReader is the subset of the student repository used by the team service.
type StudentReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*student.Student, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]student.Student, error)
	ListVerifiedByUniversity(ctx context.Context, universityID uuid.UUID) ([]student.Student, error)
}

// UniversityReader resolves universities by short name.
type UniversityReader interface {
	GetByShortName(ctx context.Context, shortName string) (*university.University, error)
}

// Options configures the team Service.
type Options struct {
	MaxMembers      int
	EmptyTeamPolicy EmptyTeamPolicy
	NewSecret       func() (string, error)
}

// Service implements team creation, joining and leaving.
type Service struct {
	repo         Repository
	students     StudentReader
	universities UniversityReader
	opts         Options
}

// NewService creates a new team Service.
func NewService(repo Repository, students StudentReader, universities UniversityReader, opts Options) *Service {
	if opts.MaxMembers < 1 {
		opts.MaxMembers = DefaultMaxMembers
	}
	if opts.EmptyTeamPolicy == "" {
		opts.EmptyTeamPolicy = PolicyDelete
	}
	return &Service{
		repo:         repo,
		students:     students,
		universities: universities,
		opts:         opts,
	}
}

// MaxMembers returns the configured team capacity.
func (s *Service) MaxMembers() int {
	return s.opts.MaxMembers
}

// Create registers a new team in the member's university with the member as
// its first student.
func (s *Service) Create(ctx context.Context, m Member, universityShortName, name string) (*Team, error) {
	uni, err := s.universities.GetByShortName(ctx, universityShortName)
	if err != nil {
		return nil, err
	}
	if uni.ID != m.UniversityID {
		return nil, ErrWrongUniversity
	}

	st, err := s.students.GetByID(ctx, m.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading student: %w", err)
	}
	if st.TeamID != nil {
		return nil, ErrAlreadyInTeam
	}

	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return nil, ErrInvalidTeamName
	}

	joinSecret, err := s.opts.NewSecret()
	if err != nil {
		return nil, fmt.Errorf("generating team secret: %w", err)
	}

	t := &Team{Name: name, UniversityID: uni.ID, Secret: joinSecret}
	if err := s.repo.Create(ctx, t, m.UserID); err != nil {
		return nil, err
	}

	slog.Info("team created", "teamId", t.ID, "name", t.Name, "university", uni.ShortName, "userId", m.UserID)
	return t, nil
}

// Preview runs the join checks without changing anything, for the
// confirmation page.
func (s *Service) Preview(ctx context.Context, m Member, joinSecret string) (*JoinPreview, error) {
	t, st, err := s.resolve(ctx, m, joinSecret)
	if err != nil {
		return nil, err
	}

	members, err := s.students.ListByTeam(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("listing team members: %w", err)
	}

	preview := &JoinPreview{
		Team:          t,
		Members:       members,
		AlreadyMember: st.InTeam(t.ID),
		Full:          len(members) >= s.opts.MaxMembers,
	}
	if !preview.AlreadyMember && st.TeamID != nil {
		return nil, ErrAlreadyInTeam
	}
	return preview, nil
}

// Join admits the member into the team owning joinSecret. Joining a team the
// member already belongs to succeeds without changes.
func (s *Service) Join(ctx context.Context, m Member, joinSecret string) (*JoinResult, error) {
	t, st, err := s.resolve(ctx, m, joinSecret)
	if err != nil {
		return nil, err
	}

	if st.InTeam(t.ID) {
		return &JoinResult{Team: t, AlreadyMember: true}, nil
	}
	if st.TeamID != nil {
		return nil, ErrAlreadyInTeam
	}

	err = s.repo.AddMember(ctx, t.ID, joinSecret, m.UserID, s.opts.MaxMembers)
	switch {
	case errors.Is(err, ErrAlreadyMember):
		return &JoinResult{Team: t, AlreadyMember: true}, nil
	case errors.Is(err, ErrTeamNotFound):
		// The team was deleted, or its secret rotated, after it was resolved.
		return nil, ErrSecretNotRecognized
	case err != nil:
		return nil, err
	}

	slog.Info("student joined team", "teamId", t.ID, "userId", m.UserID)
	return &JoinResult{Team: t}, nil
}

// Leave removes the student from their team, applying the empty team policy.
func (s *Service) Leave(ctx context.Context, userID uuid.UUID) (*LeaveOutcome, error) {
	newSecret, err := s.opts.NewSecret()
	if err != nil {
		return nil, fmt.Errorf("generating team secret: %w", err)
	}

	outcome, err := s.repo.RemoveMember(ctx, userID, s.opts.EmptyTeamPolicy, newSecret)
	if err != nil {
		return nil, err
	}

	slog.Info("student left team",
		"teamId", outcome.TeamID, "userId", userID,
		"remaining", outcome.Remaining, "deleted", outcome.Deleted)
	return outcome, nil
}

// Membership returns a team with its members.
func (s *Service) Membership(ctx context.Context, teamID uuid.UUID) (*Team, []student.Student, error) {
	t, err := s.repo.GetByID(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.students.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing team members: %w", err)
	}
	return t, members, nil
}

// History returns the join log of a team, oldest first.
func (s *Service) History(ctx context.Context, teamID uuid.UUID) ([]JoinEvent, error) {
	events, err := s.repo.ListEvents(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("listing join events: %w", err)
	}
	return events, nil
}

// Roster builds the public page of a university: teams with at least one
// verified member, and verified students without a team.
func (s *Service) Roster(ctx context.Context, universityShortName string) (*Roster, error) {
	uni, err := s.universities.GetByShortName(ctx, universityShortName)
	if err != nil {
		return nil, err
	}

	teams, err := s.repo.ListByUniversity(ctx, uni.ID)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}

	students, err := s.students.ListVerifiedByUniversity(ctx, uni.ID)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}

	grouped, unassigned := GroupRoster(teams, students)
	return &Roster{University: uni, Teams: grouped, Unassigned: unassigned}, nil
}

// GroupRoster attaches students to their teams, dropping teams without
// members, and returns the students that have no team.
func GroupRoster(teams []Team, students []student.Student) ([]RosterTeam, []student.Student) {
	byTeam := make(map[uuid.UUID][]student.Student, len(teams))
	unassigned := []student.Student{}
	for _, st := range students {
		if st.TeamID == nil {
			unassigned = append(unassigned, st)
			continue
		}
		byTeam[*st.TeamID] = append(byTeam[*st.TeamID], st)
	}

	grouped := []RosterTeam{}
	for _, t := range teams {
		if members := byTeam[t.ID]; len(members) > 0 {
			grouped = append(grouped, RosterTeam{Team: t, Members: members})
		}
	}
	return grouped, unassigned
}

// resolve runs the checks shared by Preview and Join: the secret must match a
// team of the member's university.
func (s *Service) resolve(ctx context.Context, m Member, joinSecret string) (*Team, *student.Student, error) {
	t, err := s.repo.GetBySecret(ctx, joinSecret)
	if err != nil {
		if errors.Is(err, ErrTeamNotFound) {
			return nil, nil, ErrSecretNotRecognized
		}
		return nil, nil, fmt.Errorf("resolving join secret: %w", err)
	}

	if t.UniversityID != m.UniversityID {
		return nil, nil, ErrWrongUniversity
	}

	st, err := s.students.GetByID(ctx, m.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading student: %w", err)
	}
	return t, st, nil
}
