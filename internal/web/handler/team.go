package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/itacpc/teams/internal/student"
	"github.com/itacpc/teams/internal/team"
	"github.com/itacpc/teams/internal/university"
	"github.com/itacpc/teams/internal/web/form"
	"github.com/itacpc/teams/internal/web/session"
	"github.com/itacpc/teams/internal/web/view"
)

// Teams creates, joins and leaves teams.
type Teams interface {
	MaxMembers() int
	Create(ctx context.Context, m team.Member, universityShortName, name string) (*team.Team, error)
	Preview(ctx context.Context, m team.Member, joinSecret string) (*team.JoinPreview, error)
	Join(ctx context.Context, m team.Member, joinSecret string) (*team.JoinResult, error)
	Leave(ctx context.Context, userID uuid.UUID) (*team.LeaveOutcome, error)
	Membership(ctx context.Context, teamID uuid.UUID) (*team.Team, []student.Student, error)
	History(ctx context.Context, teamID uuid.UUID) ([]team.JoinEvent, error)
	Roster(ctx context.Context, universityShortName string) (*team.Roster, error)
}

// Students reads and updates student profiles.
type Students interface {
	Get(ctx context.Context, id uuid.UUID) (*student.Student, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, p student.ProfileUpdate) (*student.Student, error)
}

// TeamHandler handles team creation and membership pages. Every route
// requires a logged-in student.
type TeamHandler struct {
	*Pages
	teams        Teams
	students     Students
	universities Universities
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(pages *Pages, teams Teams, students Students, universities Universities) *TeamHandler {
	return &TeamHandler{Pages: pages, teams: teams, students: students, universities: universities}
}

// NewTeamForm handles GET /{uni}/new-team.
func (h *TeamHandler) NewTeamForm(w http.ResponseWriter, r *http.Request) {
	uni, ok := h.ownUniversity(w, r)
	if !ok {
		return
	}

	st, err := h.students.Get(r.Context(), identity(r).UserID)
	if err != nil {
		h.serverError(w, r, "failed to load student", err)
		return
	}
	if st.TeamID != nil {
		h.redirect(w, r, "/my-profile", session.LevelError, msgAlreadyInTeam)
		return
	}

	h.render(w, r, http.StatusOK, view.PageNewTeam, &view.Page{
		Title: "New team",
		Form:  &form.NewTeam{},
		Data:  uni,
	})
}

// NewTeam handles POST /{uni}/new-team.
func (h *TeamHandler) NewTeam(w http.ResponseWriter, r *http.Request) {
	uni, ok := h.ownUniversity(w, r)
	if !ok {
		return
	}

	page := &view.Page{Title: "New team", Data: uni}
	var f form.NewTeam
	if !h.decode(w, r, &f, view.PageNewTeam, page) {
		return
	}

	t, err := h.teams.Create(r.Context(), member(r), uni.ShortName, f.Name)
	switch {
	case err == nil:
	case errors.Is(err, team.ErrWrongUniversity):
		h.redirect(w, r, "/"+identity(r).UniversityShortName+"/new-team", session.LevelError, msgCreateOtherUni)
		return
	case errors.Is(err, team.ErrAlreadyInTeam):
		h.redirect(w, r, "/my-profile", session.LevelError, msgAlreadyInTeam)
		return
	case errors.Is(err, team.ErrDuplicateTeamName), errors.Is(err, team.ErrInvalidTeamName):
		msg := msgTeamNameTaken
		if errors.Is(err, team.ErrInvalidTeamName) {
			msg = msgTeamNameInvalid
		}
		page.Form = &f
		page.Errors = form.Errors{"name": msg}
		h.render(w, r, http.StatusOK, view.PageNewTeam, page)
		return
	default:
		h.serverError(w, r, "failed to create team", err)
		return
	}

	h.render(w, r, http.StatusOK, view.PageTeamCreated, &view.Page{
		Title: t.Name,
		Data:  &view.TeamCreatedPage{Team: t, JoinURL: h.joinURL(t.Secret)},
	})
}

// JoinForm handles GET /join/{secret}.
func (h *TeamHandler) JoinForm(w http.ResponseWriter, r *http.Request) {
	preview, err := h.teams.Preview(r.Context(), member(r), chi.URLParam(r, "secret"))
	if err != nil {
		h.joinFailed(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, view.PageJoin, &view.Page{
		Title: preview.Team.Name,
		Data:  &view.JoinPage{Preview: preview},
	})
}

// Join handles POST /join/{secret}.
func (h *TeamHandler) Join(w http.ResponseWriter, r *http.Request) {
	res, err := h.teams.Join(r.Context(), member(r), chi.URLParam(r, "secret"))
	if err != nil {
		h.joinFailed(w, r, err)
		return
	}

	msg := fmt.Sprintf(msgJoinedTeam, res.Team.Name)
	if res.AlreadyMember {
		msg = fmt.Sprintf(msgAlreadyTeamMember, res.Team.Name)
	}
	h.redirect(w, r, "/my-profile", session.LevelInfo, msg)
}

func (h *TeamHandler) joinFailed(w http.ResponseWriter, r *http.Request, err error) {
	var msg string
	switch {
	case errors.Is(err, team.ErrSecretNotRecognized):
		msg = msgSecretUnknown
	case errors.Is(err, team.ErrWrongUniversity):
		msg = msgJoinOtherUni
	case errors.Is(err, team.ErrAlreadyInTeam):
		msg = msgJoinInTeam
	case errors.Is(err, team.ErrTeamFull):
		msg = msgTeamFull
	default:
		h.serverError(w, r, "failed to join team", err)
		return
	}
	h.redirect(w, r, "/my-profile", session.LevelError, msg)
}

// LeaveForm handles GET /leave-team.
func (h *TeamHandler) LeaveForm(w http.ResponseWriter, r *http.Request) {
	st, err := h.students.Get(r.Context(), identity(r).UserID)
	if err != nil {
		h.serverError(w, r, "failed to load student", err)
		return
	}
	if st.TeamID == nil {
		h.redirect(w, r, "/my-profile", session.LevelError, msgNotInTeam)
		return
	}

	t, members, err := h.teams.Membership(r.Context(), *st.TeamID)
	if err != nil {
		h.serverError(w, r, "failed to load team", err)
		return
	}
	h.render(w, r, http.StatusOK, view.PageLeaveTeam, &view.Page{
		Title: "Leave " + t.Name,
		Data:  &view.LeavePage{Team: t, Members: members},
	})
}

// Leave handles POST /leave-team.
func (h *TeamHandler) Leave(w http.ResponseWriter, r *http.Request) {
	_, err := h.teams.Leave(r.Context(), identity(r).UserID)
	switch {
	case err == nil:
		h.redirect(w, r, "/my-profile", session.LevelInfo, msgLeftTeam)
	case errors.Is(err, team.ErrNotInTeam):
		h.redirect(w, r, "/my-profile", session.LevelError, msgNotInTeam)
	default:
		h.serverError(w, r, "failed to leave team", err)
	}
}

// ownUniversity resolves the {uni} parameter, which must be the university
// of the session user.
func (h *TeamHandler) ownUniversity(w http.ResponseWriter, r *http.Request) (*university.University, bool) {
	id := identity(r)
	uni, err := h.universities.GetByShortName(r.Context(), chi.URLParam(r, "uni"))
	if err != nil {
		if errors.Is(err, university.ErrUniversityNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		h.serverError(w, r, "failed to load university", err)
		return nil, false
	}
	if uni.ID != id.UniversityID {
		h.redirect(w, r, "/"+id.UniversityShortName+"/new-team", session.LevelError, msgCreateOtherUni)
		return nil, false
	}
	return uni, true
}

func member(r *http.Request) team.Member {
	id := identity(r)
	return team.Member{UserID: id.UserID, UniversityID: id.UniversityID}
}
