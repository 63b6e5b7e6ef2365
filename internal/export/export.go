// Package export reshapes the roster into the import formats of the contest
// judging system (JSON) and of the mail-merge tool (CSV).
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/itacpc/teams/internal/secret"
	"github.com/itacpc/teams/internal/student"
	"github.com/itacpc/teams/internal/team"
	"github.com/itacpc/teams/internal/university"
)

// ErrUnknownDataset is returned by Write for an unsupported dataset name.
var ErrUnknownDataset = errors.New("unknown dataset")

// Dataset names, as served under /data-export/.
const (
	DatasetGroups        = "groups.json"
	DatasetOrganizations = "organizations.json"
	DatasetTeams         = "teams.json"
	DatasetAccounts      = "accounts.json"
	DatasetAccountsCSV   = "accounts.csv"
)

// Datasets lists every dataset name in display order.
var Datasets = []string{DatasetGroups, DatasetOrganizations, DatasetTeams, DatasetAccounts, DatasetAccountsCSV}

// PasswordLength is the length of generated judge passwords.
const PasswordLength = 12

// Group is a judge team category.
type Group struct {
	ID     string `json:"id"`
	ICPCID string `json:"icpc_id"`
	Name   string `json:"name"`
	Hidden bool   `json:"hidden"`
}

// Organization is a university as seen by the judge.
type Organization struct {
	ID                 string `json:"id"`
	ICPCID             string `json:"icpc_id"`
	Name               string `json:"name"`
	FormalName         string `json:"formal_name"`
	ShortName          string `json:"shortname"`
	Country            string `json:"country"`
	CountrySubdivision string `json:"country_subdivision,omitempty"`
}

// Team is a team as seen by the judge.
type Team struct {
	ID             string   `json:"id"`
	ICPCID         string   `json:"icpc_id"`
	GroupIDs       []string `json:"group_ids"`
	Name           string   `json:"name"`
	DisplayName    string   `json:"display_name"`
	OrganizationID string   `json:"organization_id"`
	Members        string   `json:"members"`
}

// Account is a judge login bound to a team.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Type     string `json:"type"`
	TeamID   string `json:"team_id"`
	Name     string `json:"name"`
}

// UniversityLister lists universities.
type UniversityLister interface {
	List(ctx context.Context) ([]university.University, error)
}

// TeamLister lists teams.
type TeamLister interface {
	List(ctx context.Context) ([]team.Team, error)
}

// MemberStore reads team members and stores their judge credentials.
type MemberStore interface {
	ListTeamMembers(ctx context.Context) ([]student.Student, error)
	SetCredentials(ctx context.Context, id uuid.UUID, c student.Credentials) (bool, error)
}

// Options configures the Exporter.
type Options struct {
	GroupID   string
	GroupName string
	Country   string
}

// Exporter builds the export datasets.
type Exporter struct {
	universities UniversityLister
	teams        TeamLister
	members      MemberStore
	opts         Options
	newPassword  func() (string, error)
}

// NewExporter creates a new Exporter.
func NewExporter(universities UniversityLister, teams TeamLister, members MemberStore, opts Options) *Exporter {
	return &Exporter{
		universities: universities,
		teams:        teams,
		members:      members,
		opts:         opts,
		newPassword:  secret.Generator(PasswordLength),
	}
}

type rosterTeam struct {
	team.Team
	university university.University
	members    []student.Student
}

// roster returns the teams with at least one verified member, by name.
func (e *Exporter) roster(ctx context.Context) ([]rosterTeam, error) {
	unis, err := e.universities.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing universities: %w", err)
	}
	teams, err := e.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	members, err := e.members.ListTeamMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing team members: %w", err)
	}

	uniByID := make(map[uuid.UUID]university.University, len(unis))
	for _, u := range unis {
		uniByID[u.ID] = u
	}
	byTeam := make(map[uuid.UUID][]student.Student)
	for _, m := range members {
		byTeam[*m.TeamID] = append(byTeam[*m.TeamID], m)
	}

	out := []rosterTeam{}
	for _, t := range teams {
		if len(byTeam[t.ID]) == 0 {
			continue
		}
		out = append(out, rosterTeam{Team: t, university: uniByID[t.UniversityID], members: byTeam[t.ID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Groups returns the single configured participant group.
func (e *Exporter) Groups() []Group {
	return []Group{{ID: e.opts.GroupID, ICPCID: e.opts.GroupID, Name: e.opts.GroupName}}
}

// Organizations returns every university with at least one non-empty team.
func (e *Exporter) Organizations(ctx context.Context) ([]Organization, error) {
	roster, err := e.roster(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool)
	orgs := []Organization{}
	for _, t := range roster {
		u := t.university
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true

		org := Organization{
			ID:         u.ShortName,
			ICPCID:     u.ShortName,
			Name:       u.Name,
			FormalName: u.Name,
			ShortName:  u.ShortName,
			Country:    e.opts.Country,
		}
		if u.JudgeSubdivision != nil {
			org.CountrySubdivision = *u.JudgeSubdivision
		}
		orgs = append(orgs, org)
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].ID < orgs[j].ID })
	return orgs, nil
}

// Teams returns every team with at least one verified member.
func (e *Exporter) Teams(ctx context.Context) ([]Team, error) {
	roster, err := e.roster(ctx)
	if err != nil {
		return nil, err
	}

	teams := make([]Team, 0, len(roster))
	for _, t := range roster {
		names := make([]string, 0, len(t.members))
		for _, m := range t.members {
			names = append(names, m.FullName())
		}
		teams = append(teams, Team{
			ID:             t.ID.String(),
			ICPCID:         t.ID.String(),
			GroupIDs:       []string{e.opts.GroupID},
			Name:           t.Name,
			DisplayName:    t.Name,
			OrganizationID: t.university.ShortName,
			Members:        strings.Join(names, ", "),
		})
	}
	return teams, nil
}

// Accounts returns one account per team member with issued credentials.
func (e *Exporter) Accounts(ctx context.Context) ([]Account, error) {
	roster, err := e.roster(ctx)
	if err != nil {
		return nil, err
	}

	accounts := []Account{}
	for _, t := range roster {
		for _, m := range t.members {
			if m.Credentials == nil {
				continue
			}
			accounts = append(accounts, Account{
				ID:       m.Credentials.Username,
				Username: m.Credentials.Username,
				Password: m.Credentials.Password,
				Type:     "team",
				TeamID:   t.ID.String(),
				Name:     m.FullName(),
			})
		}
	}
	return accounts, nil
}

// WriteAccountsCSV writes the mail-merge rows of every team member.
// Members without credentials get empty username and password columns.
func (e *Exporter) WriteAccountsCSV(ctx context.Context, w io.Writer) error {
	roster, err := e.roster(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"email", "first_name", "last_name", "university", "team", "username", "password"}); err != nil {
		return err
	}
	for _, t := range roster {
		for _, m := range t.members {
			var username, password string
			if m.Credentials != nil {
				username, password = m.Credentials.Username, m.Credentials.Password
			}
			row := []string{m.Email, m.FirstName, m.LastName, t.university.Name, t.Name, username, password}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// IssueCredentials gives judge credentials to every team member that has
// none. Existing credentials are never rotated. Returns how many were issued.
func (e *Exporter) IssueCredentials(ctx context.Context) (int, error) {
	roster, err := e.roster(ctx)
	if err != nil {
		return 0, err
	}

	taken := make(map[string]bool)
	for _, t := range roster {
		for _, m := range t.members {
			if m.Credentials != nil {
				taken[m.Credentials.Username] = true
			}
		}
	}

	issued := 0
	for _, t := range roster {
		for _, m := range t.members {
			if m.Credentials != nil {
				continue
			}
			password, err := e.newPassword()
			if err != nil {
				return issued, fmt.Errorf("generating password: %w", err)
			}

			username := uniqueUsername(taken, t.university.ShortName, m.ID)
			ok, err := e.members.SetCredentials(ctx, m.ID, student.Credentials{
				Username: username,
				Password: password,
			})
			if err != nil {
				return issued, err
			}
			if ok {
				taken[username] = true
				issued++
			}
		}
	}

	slog.Info("judge credentials issued", "count", issued)
	return issued, nil
}

const usernameDigits = 8

// Username derives the judge username of a student from the first digits of
// their id.
func Username(universityShortName string, userID uuid.UUID) string {
	return username(universityShortName, userID, usernameDigits)
}

func username(universityShortName string, userID uuid.UUID, digits int) string {
	hex := strings.ReplaceAll(userID.String(), "-", "")
	return universityShortName + "-" + hex[:digits]
}

// uniqueUsername lengthens the id suffix until the username is not taken. The
// full id is unique, so the loop always ends.
func uniqueUsername(taken map[string]bool, universityShortName string, userID uuid.UUID) string {
	digits := usernameDigits
	for ; digits < 32; digits += 4 {
		if name := username(universityShortName, userID, digits); !taken[name] {
			return name
		}
	}
	return username(universityShortName, userID, digits)
}

// Write encodes the named dataset to w.
func (e *Exporter) Write(ctx context.Context, w io.Writer, dataset string) error {
	var v any
	var err error

	switch dataset {
	case DatasetGroups:
		v = e.Groups()
	case DatasetOrganizations:
		v, err = e.Organizations(ctx)
	case DatasetTeams:
		v, err = e.Teams(ctx)
	case DatasetAccounts:
		v, err = e.Accounts(ctx)
	case DatasetAccountsCSV:
		return e.WriteAccountsCSV(ctx, w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDataset, dataset)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ContentType returns the MIME type of a dataset.
func ContentType(dataset string) string {
	if strings.HasSuffix(dataset, ".csv") {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}
