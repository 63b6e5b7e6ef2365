package team_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/itacpc/teams/internal/student"
	"github.com/itacpc/teams/internal/team"
	"github.com/itacpc/teams/internal/university"
)

// memStore is an in-memory implementation of team.Repository,
// team.StudentReader and team.UniversityReader. A single mutex stands in for
// the row locks taken by the Postgres repository.
type memStore struct {
	mu       sync.Mutex
	unis     map[string]*university.University
	teams    map[uuid.UUID]*team.Team
	students map[uuid.UUID]*student.Student
	events   []team.JoinEvent
}

func newMemStore() *memStore {
	return &memStore{
		unis:     make(map[string]*university.University),
		teams:    make(map[uuid.UUID]*team.Team),
		students: make(map[uuid.UUID]*student.Student),
	}
}

func (m *memStore) addUniversity(short string) *university.University {
	u := &university.University{ID: uuid.New(), ShortName: short, Name: short, Domain: short + ".edu", Active: true}
	m.unis[short] = u
	return u
}

func (m *memStore) addStudent(uni *university.University, name string) *student.Student {
	s := &student.Student{
		ID:           uuid.New(),
		Email:        name + "@" + uni.Domain,
		FirstName:    name,
		LastName:     "Tester",
		UniversityID: uni.ID,
		IsVerified:   true,
	}
	m.students[s.ID] = s
	return s
}

func (m *memStore) addTeam(uni *university.University, name, joinSecret string, members ...*student.Student) *team.Team {
	t := &team.Team{ID: uuid.New(), Name: name, UniversityID: uni.ID, Secret: joinSecret, CreatedAt: time.Now()}
	m.teams[t.ID] = t
	for _, s := range members {
		id := t.ID
		s.TeamID = &id
	}
	return t
}

func (m *memStore) member(s *student.Student) team.Member {
	return team.Member{UserID: s.ID, UniversityID: s.UniversityID}
}

func (m *memStore) countLocked(teamID uuid.UUID) int {
	n := 0
	for _, s := range m.students {
		if s.InTeam(teamID) {
			n++
		}
	}
	return n
}

func (m *memStore) count(teamID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countLocked(teamID)
}

// --- team.Repository ---

func (m *memStore) Create(_ context.Context, t *team.Team, founderID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.students[founderID]
	if !ok {
		return student.ErrStudentNotFound
	}
	if s.TeamID != nil {
		return team.ErrAlreadyInTeam
	}
	if s.UniversityID != t.UniversityID {
		return team.ErrWrongUniversity
	}
	for _, existing := range m.teams {
		if existing.Name == t.Name {
			return team.ErrDuplicateTeamName
		}
	}

	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	stored := *t
	m.teams[t.ID] = &stored
	id := t.ID
	s.TeamID = &id
	m.logLocked(founderID, t.ID, true)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*team.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok {
		return nil, team.ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) GetBySecret(_ context.Context, joinSecret string) (*team.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.teams {
		if t.Secret == joinSecret {
			cp := *t
			return &cp, nil
		}
	}
	return nil, team.ErrTeamNotFound
}

func (m *memStore) List(_ context.Context) ([]team.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []team.Team{}
	for _, t := range m.teams {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) ListByUniversity(ctx context.Context, universityID uuid.UUID) ([]team.Team, error) {
	all, _ := m.List(ctx)
	out := []team.Team{}
	for _, t := range all {
		if t.UniversityID == universityID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) AddMember(_ context.Context, teamID uuid.UUID, joinSecret string, userID uuid.UUID, maxMembers int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.teams[teamID]
	if !ok || t.Secret != joinSecret {
		return team.ErrTeamNotFound
	}
	s, ok := m.students[userID]
	if !ok {
		return student.ErrStudentNotFound
	}
	if s.TeamID != nil {
		if *s.TeamID == teamID {
			return team.ErrAlreadyMember
		}
		return team.ErrAlreadyInTeam
	}
	if s.UniversityID != t.UniversityID {
		return team.ErrWrongUniversity
	}

	if m.countLocked(teamID) >= maxMembers {
		return team.ErrTeamFull
	}

	id := teamID
	s.TeamID = &id
	m.logLocked(userID, teamID, true)
	return nil
}

func (m *memStore) RemoveMember(_ context.Context, userID uuid.UUID, policy team.EmptyTeamPolicy, newSecret string) (*team.LeaveOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.students[userID]
	if !ok {
		return nil, student.ErrStudentNotFound
	}
	if s.TeamID == nil {
		return nil, team.ErrNotInTeam
	}
	teamID := *s.TeamID

	m.logLocked(userID, teamID, false)
	s.TeamID = nil

	out := &team.LeaveOutcome{TeamID: teamID, Remaining: m.countLocked(teamID)}
	if out.Remaining == 0 && policy == team.PolicyDelete {
		delete(m.teams, teamID)
		for i := range m.events {
			if m.events[i].TeamID != nil && *m.events[i].TeamID == teamID {
				m.events[i].TeamID = nil
			}
		}
		out.Deleted = true
		return out, nil
	}
	m.teams[teamID].Secret = newSecret
	return out, nil
}

func (m *memStore) ListEvents(_ context.Context, teamID uuid.UUID) ([]team.JoinEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []team.JoinEvent{}
	for _, e := range m.events {
		if e.TeamID != nil && *e.TeamID == teamID {
			if s, ok := m.students[*e.UserID]; ok {
				e.StudentName = s.FullName()
			}
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) logLocked(userID, teamID uuid.UUID, joining bool) {
	u, t := userID, teamID
	m.events = append(m.events, team.JoinEvent{
		ID:        int64(len(m.events) + 1),
		UserID:    &u,
		TeamID:    &t,
		Joining:   joining,
		CreatedAt: time.Now(),
	})
}

// --- team.StudentReader ---

func (m *memStore) GetStudent(id uuid.UUID) *student.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.students[id]
	return &cp
}

type studentReader struct{ *memStore }

func (r studentReader) GetByID(_ context.Context, id uuid.UUID) (*student.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok {
		return nil, student.ErrStudentNotFound
	}
	cp := *s
	return &cp, nil
}

func (r studentReader) ListByTeam(_ context.Context, teamID uuid.UUID) ([]student.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []student.Student{}
	for _, s := range r.students {
		if s.InTeam(teamID) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstName < out[j].FirstName })
	return out, nil
}

func (r studentReader) ListVerifiedByUniversity(_ context.Context, universityID uuid.UUID) ([]student.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []student.Student{}
	for _, s := range r.students {
		if s.UniversityID == universityID && s.IsVerified {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstName < out[j].FirstName })
	return out, nil
}

// --- team.UniversityReader ---

type universityReader struct{ *memStore }

func (r universityReader) GetByShortName(_ context.Context, short string) (*university.University, error) {
	u, ok := r.unis[short]
	if !ok {
		return nil, university.ErrUniversityNotFound
	}
	return u, nil
}
