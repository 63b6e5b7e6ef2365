package handler_test

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/itacpc/teams/internal/auth"
	"github.com/itacpc/teams/internal/student"
	"github.com/itacpc/teams/internal/team"
	"github.com/itacpc/teams/internal/university"
)

var errBoom = errors.New("boom")

// --- Mock Authenticator ---

type mockAuth struct {
	registerFn      func(ctx context.Context, r auth.Registration) (*student.Student, error)
	confirmFn       func(ctx context.Context, token string) (*student.Student, error)
	loginFn         func(ctx context.Context, email, password string) (*auth.Identity, error)
	requestResetFn  func(ctx context.Context, email string) error
	checkResetFn    func(ctx context.Context, token string) (*student.Student, error)
	resetPasswordFn func(ctx context.Context, token, password string) error
}

func (m *mockAuth) Register(ctx context.Context, r auth.Registration) (*student.Student, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, r)
	}
	return &student.Student{ID: uuid.New(), Email: r.Email, FirstName: r.FirstName, LastName: r.LastName}, nil
}

func (m *mockAuth) Confirm(ctx context.Context, token string) (*student.Student, error) {
	if m.confirmFn != nil {
		return m.confirmFn(ctx, token)
	}
	return nil, auth.ErrInvalidToken
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (*auth.Identity, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, auth.ErrInvalidCredentials
}

func (m *mockAuth) RequestPasswordReset(ctx context.Context, email string) error {
	if m.requestResetFn != nil {
		return m.requestResetFn(ctx, email)
	}
	return nil
}

func (m *mockAuth) CheckResetToken(ctx context.Context, token string) (*student.Student, error) {
	if m.checkResetFn != nil {
		return m.checkResetFn(ctx, token)
	}
	return nil, auth.ErrInvalidToken
}

func (m *mockAuth) ResetPassword(ctx context.Context, token, password string) error {
	if m.resetPasswordFn != nil {
		return m.resetPasswordFn(ctx, token, password)
	}
	return nil
}

// --- Mock Universities ---

type mockUniversities struct {
	unis       []*university.University
	overviewFn func(ctx context.Context, own *uuid.UUID) (*university.Overview, error)
}

func (m *mockUniversities) GetByID(_ context.Context, id uuid.UUID) (*university.University, error) {
	for _, u := range m.unis {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, university.ErrUniversityNotFound
}

func (m *mockUniversities) GetByShortName(_ context.Context, shortName string) (*university.University, error) {
	for _, u := range m.unis {
		if u.ShortName == shortName {
			return u, nil
		}
	}
	return nil, university.ErrUniversityNotFound
}

func (m *mockUniversities) Overview(ctx context.Context, own *uuid.UUID) (*university.Overview, error) {
	if m.overviewFn != nil {
		return m.overviewFn(ctx, own)
	}
	return &university.Overview{}, nil
}

// --- Mock Teams ---

type mockTeams struct {
	createFn     func(ctx context.Context, m team.Member, uni, name string) (*team.Team, error)
	previewFn    func(ctx context.Context, m team.Member, secret string) (*team.JoinPreview, error)
	joinFn       func(ctx context.Context, m team.Member, secret string) (*team.JoinResult, error)
	leaveFn      func(ctx context.Context, userID uuid.UUID) (*team.LeaveOutcome, error)
	membershipFn func(ctx context.Context, teamID uuid.UUID) (*team.Team, []student.Student, error)
	historyFn    func(ctx context.Context, teamID uuid.UUID) ([]team.JoinEvent, error)
	rosterFn     func(ctx context.Context, uni string) (*team.Roster, error)
}

func (m *mockTeams) MaxMembers() int { return team.DefaultMaxMembers }

func (m *mockTeams) Create(ctx context.Context, mem team.Member, uni, name string) (*team.Team, error) {
	if m.createFn != nil {
		return m.createFn(ctx, mem, uni, name)
	}
	return &team.Team{ID: uuid.New(), Name: name, Secret: "s3cr3t"}, nil
}

func (m *mockTeams) Preview(ctx context.Context, mem team.Member, secret string) (*team.JoinPreview, error) {
	if m.previewFn != nil {
		return m.previewFn(ctx, mem, secret)
	}
	return nil, team.ErrSecretNotRecognized
}

func (m *mockTeams) Join(ctx context.Context, mem team.Member, secret string) (*team.JoinResult, error) {
	if m.joinFn != nil {
		return m.joinFn(ctx, mem, secret)
	}
	return nil, team.ErrSecretNotRecognized
}

func (m *mockTeams) Leave(ctx context.Context, userID uuid.UUID) (*team.LeaveOutcome, error) {
	if m.leaveFn != nil {
		return m.leaveFn(ctx, userID)
	}
	return nil, team.ErrNotInTeam
}

func (m *mockTeams) Membership(ctx context.Context, teamID uuid.UUID) (*team.Team, []student.Student, error) {
	if m.membershipFn != nil {
		return m.membershipFn(ctx, teamID)
	}
	return nil, nil, team.ErrTeamNotFound
}

func (m *mockTeams) History(ctx context.Context, teamID uuid.UUID) ([]team.JoinEvent, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, teamID)
	}
	return []team.JoinEvent{}, nil
}

func (m *mockTeams) Roster(ctx context.Context, uni string) (*team.Roster, error) {
	if m.rosterFn != nil {
		return m.rosterFn(ctx, uni)
	}
	return nil, university.ErrUniversityNotFound
}

// --- Mock Students ---

type mockStudents struct {
	students map[uuid.UUID]*student.Student
	updateFn func(ctx context.Context, id uuid.UUID, p student.ProfileUpdate) (*student.Student, error)
}

func (m *mockStudents) Get(_ context.Context, id uuid.UUID) (*student.Student, error) {
	if st, ok := m.students[id]; ok {
		return st, nil
	}
	return nil, student.ErrStudentNotFound
}

func (m *mockStudents) UpdateProfile(ctx context.Context, id uuid.UUID, p student.ProfileUpdate) (*student.Student, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, p)
	}
	return m.students[id], nil
}

// --- Mock Exporter ---

type mockExporter struct {
	writeFn func(ctx context.Context, w io.Writer, dataset string) error
	issueFn func(ctx context.Context) (int, error)
}

func (m *mockExporter) Write(ctx context.Context, w io.Writer, dataset string) error {
	if m.writeFn != nil {
		return m.writeFn(ctx, w, dataset)
	}
	_, err := io.WriteString(w, "[]\n")
	return err
}

func (m *mockExporter) IssueCredentials(ctx context.Context) (int, error) {
	if m.issueFn != nil {
		return m.issueFn(ctx)
	}
	return 0, nil
}
