package handler_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itacpc/teams/internal/auth"
	"github.com/itacpc/teams/internal/student"
	"github.com/itacpc/teams/internal/team"
	"github.com/itacpc/teams/internal/university"
	"github.com/itacpc/teams/internal/web/handler"
	"github.com/itacpc/teams/internal/web/session"
)

type teamFixture struct {
	mit      *university.University
	other    *university.University
	id       *auth.Identity
	student  *student.Student
	teams    *mockTeams
	students *mockStudents
	handler  *handler.TeamHandler
}

func newTeamFixture(t *testing.T) *teamFixture {
	t.Helper()
	f := &teamFixture{
		mit:   newUniversity("mit", "mit.edu"),
		other: newUniversity("other", "*"),
		teams: &mockTeams{},
	}
	f.id = identityOf(f.mit)
	f.student = &student.Student{ID: f.id.UserID, FirstName: "Ada", LastName: "Lovelace", UniversityID: f.mit.ID}
	f.students = &mockStudents{students: map[uuid.UUID]*student.Student{f.id.UserID: f.student}}
	f.handler = handler.NewTeamHandler(newPages(t), f.teams, f.students, &mockUniversities{unis: []*university.University{f.mit, f.other}})
	return f
}

// ===== /{uni}/new-team =====

func TestNewTeamForm(t *testing.T) {
	f := newTeamFixture(t)

	req, w := makeRequest(http.MethodGet, "/mit/new-team", nil, map[string]string{"uni": "mit"}, f.id)
	f.handler.NewTeamForm(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Create a team at MIT University")
}

func TestNewTeamForm_OtherUniversity(t *testing.T) {
	f := newTeamFixture(t)

	req, w := makeRequest(http.MethodGet, "/other/new-team", nil, map[string]string{"uni": "other"}, f.id)
	f.handler.NewTeamForm(w, req)

	requireRedirect(t, w, "/mit/new-team", session.LevelError, "You can only create teams in your own university!")
}

func TestNewTeamForm_AlreadyInTeam(t *testing.T) {
	f := newTeamFixture(t)
	teamID := uuid.New()
	f.student.TeamID = &teamID

	req, w := makeRequest(http.MethodGet, "/mit/new-team", nil, map[string]string{"uni": "mit"}, f.id)
	f.handler.NewTeamForm(w, req)

	requireRedirect(t, w, "/my-profile", session.LevelError, "You are already part of a team!")
}

func TestNewTeam_Success(t *testing.T) {
	f := newTeamFixture(t)
	f.teams.createFn = func(_ context.Context, m team.Member, uni, name string) (*team.Team, error) {
		assert.Equal(t, f.id.UserID, m.UserID)
		assert.Equal(t, f.mit.ID, m.UniversityID)
		assert.Equal(t, "mit", uni)
		assert.Equal(t, "Foo", name)
		return &team.Team{ID: uuid.New(), Name: name, Secret: "s3cr3t"}, nil
	}

	req, w := makeRequest(http.MethodPost, "/mit/new-team", url.Values{"name": {" Foo "}}, map[string]string{"uni": "mit"}, f.id)
	f.handler.NewTeam(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Team Foo created!")
	assert.Contains(t, w.Body.String(), "https://teams.example/join/s3cr3t")
}

func TestNewTeam_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		location string
		msg      string
	}{
		{"duplicate name", team.ErrDuplicateTeamName, http.StatusOK, "", "A team with this name already exists"},
		{"invalid name", team.ErrInvalidTeamName, http.StatusOK, "", "The team name must be between 1 and 50 characters"},
		{"already in team", team.ErrAlreadyInTeam, http.StatusSeeOther, "/my-profile", "You are already part of a team!"},
		{"wrong university", team.ErrWrongUniversity, http.StatusSeeOther, "/mit/new-team", "You can only create teams in your own university!"},
		{"unexpected", errBoom, http.StatusInternalServerError, "", "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTeamFixture(t)
			f.teams.createFn = func(context.Context, team.Member, string, string) (*team.Team, error) {
				return nil, tt.err
			}

			req, w := makeRequest(http.MethodPost, "/mit/new-team", url.Values{"name": {"Foo"}}, map[string]string{"uni": "mit"}, f.id)
			f.handler.NewTeam(w, req)

			if tt.location != "" {
				requireRedirect(t, w, tt.location, session.LevelError, tt.msg)
				return
			}
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.msg)
		})
	}
}

func TestNewTeam_NameTooLong(t *testing.T) {
	f := newTeamFixture(t)
	called := false
	f.teams.createFn = func(context.Context, team.Member, string, string) (*team.Team, error) {
		called = true
		return nil, errBoom
	}

	long := url.Values{"name": {"abcdefghijabcdefghijabcdefghijabcdefghijabcdefghijX"}}
	req, w := makeRequest(http.MethodPost, "/mit/new-team", long, map[string]string{"uni": "mit"}, f.id)
	f.handler.NewTeam(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "invalid-feedback")
	assert.False(t, called)
}

// ===== /join/{secret} =====

func TestJoinForm(t *testing.T) {
	f := newTeamFixture(t)
	f.teams.previewFn = func(_ context.Context, _ team.Member, secret string) (*team.JoinPreview, error) {
		assert.Equal(t, "foo-secret", secret)
		return &team.JoinPreview{
			Team:    &team.Team{Name: "Foo"},
			Members: []student.Student{{FirstName: "Grace", LastName: "Hopper"}},
		}, nil
	}

	req, w := makeRequest(http.MethodGet, "/join/foo-secret", nil, map[string]string{"secret": "foo-secret"}, f.id)
	f.handler.JoinForm(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Join team Foo")
	assert.Contains(t, w.Body.String(), "Grace Hopper")
	assert.Contains(t, w.Body.String(), `<form method="post">`)
}

func TestJoinForm_Full(t *testing.T) {
	f := newTeamFixture(t)
	f.teams.previewFn = func(context.Context, team.Member, string) (*team.JoinPreview, error) {
		return &team.JoinPreview{Team: &team.Team{Name: "Foo"}, Full: true}, nil
	}

	req, w := makeRequest(http.MethodGet, "/join/foo-secret", nil, map[string]string{"secret": "foo-secret"}, f.id)
	f.handler.JoinForm(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "This team has reached the maximum number of members")
	assert.NotContains(t, w.Body.String(), `<form method="post">`)
}

func TestJoin_Success(t *testing.T) {
	f := newTeamFixture(t)
	f.teams.joinFn = func(_ context.Context, m team.Member, secret string) (*team.JoinResult, error) {
		assert.Equal(t, f.id.UserID, m.UserID)
		return &team.JoinResult{Team: &team.Team{Name: "Foo"}}, nil
	}

	req, w := makeRequest(http.MethodPost, "/join/foo-secret", nil, map[string]string{"secret": "foo-secret"}, f.id)
	f.handler.Join(w, req)

	requireRedirect(t, w, "/my-profile", session.LevelInfo, "Welcome to team Foo!")
}

func TestJoin_AlreadyMember(t *testing.T) {
	f := newTeamFixture(t)
	f.teams.joinFn = func(context.Context, team.Member, string) (*team.JoinResult, error) {
		return &team.JoinResult{Team: &team.Team{Name: "Foo"}, AlreadyMember: true}, nil
	}

	req, w := makeRequest(http.MethodPost, "/join/foo-secret", nil, map[string]string{"secret": "foo-secret"}, f.id)
	f.handler.Join(w, req)

	requireRedirect(t, w, "/my-profile", session.LevelInfo, "You are already part of team Foo")
}

func TestJoin_Rejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"unknown secret", team.ErrSecretNotRecognized, "The secret string to join the team was not recognized, did you copy and paste the link correctly?"},
		{"other university", team.ErrWrongUniversity, "You can only join teams from your university!"},
		{"in another team", team.ErrAlreadyInTeam, "You can't join a new team, you should first leave your current team."},
		{"team full", team.ErrTeamFull, "This team has reached the maximum number of members"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTeamFixture(t)
			f.teams.joinFn = func(context.Context, team.Member, string) (*team.JoinResult, error) {
				return nil, tt.err
			}
			f.teams.previewFn = func(context.Context, team.Member, string) (*team.JoinPreview, error) {
				return nil, tt.err
			}

			req, w := makeRequest(http.MethodPost, "/join/x", nil, map[string]string{"secret": "x"}, f.id)
			f.handler.Join(w, req)
			requireRedirect(t, w, "/my-profile", session.LevelError, tt.msg)

			req, w = makeRequest(http.MethodGet, "/join/x", nil, map[string]string{"secret": "x"}, f.id)
			f.handler.JoinForm(w, req)
			requireRedirect(t, w, "/my-profile", session.LevelError, tt.msg)
		})
	}
}

func TestJoin_UnexpectedError(t *testing.T) {
	f := newTeamFixture(t)
	f.teams.joinFn = func(context.Context, team.Member, string) (*team.JoinResult, error) {
		return nil, errBoom
	}

	req, w := makeRequest(http.MethodPost, "/join/x", nil, map[string]string{"secret": "x"}, f.id)
	f.handler.Join(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ===== /leave-team =====

func TestLeaveForm(t *testing.T) {
	f := newTeamFixture(t)
	teamID := uuid.New()
	f.student.TeamID = &teamID
	f.teams.membershipFn = func(_ context.Context, id uuid.UUID) (*team.Team, []student.Student, error) {
		require.Equal(t, teamID, id)
		return &team.Team{ID: id, Name: "Foo"}, []student.Student{*f.student}, nil
	}
	f.teams.historyFn = func(context.Context, uuid.UUID) ([]team.JoinEvent, error) {
		t.Fatal("the leave page does not read the join log")
		return nil, nil
	}

	req, w := makeRequest(http.MethodGet, "/leave-team", nil, nil, f.id)
	f.handler.LeaveForm(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Leave team Foo?")
	assert.Contains(t, w.Body.String(), "You are the last member")
}

func TestLeaveForm_NotInTeam(t *testing.T) {
	f := newTeamFixture(t)

	req, w := makeRequest(http.MethodGet, "/leave-team", nil, nil, f.id)
	f.handler.LeaveForm(w, req)

	requireRedirect(t, w, "/my-profile", session.LevelError, "You are not part of a team")
}

func TestLeave(t *testing.T) {
	f := newTeamFixture(t)
	f.teams.leaveFn = func(_ context.Context, userID uuid.UUID) (*team.LeaveOutcome, error) {
		assert.Equal(t, f.id.UserID, userID)
		return &team.LeaveOutcome{Remaining: 2}, nil
	}

	req, w := makeRequest(http.MethodPost, "/leave-team", nil, nil, f.id)
	f.handler.Leave(w, req)

	requireRedirect(t, w, "/my-profile", session.LevelInfo, "You left the team")
}

func TestLeave_NotInTeam(t *testing.T) {
	f := newTeamFixture(t)

	req, w := makeRequest(http.MethodPost, "/leave-team", nil, nil, f.id)
	f.handler.Leave(w, req)

	requireRedirect(t, w, "/my-profile", session.LevelError, "You are not part of a team")
}
