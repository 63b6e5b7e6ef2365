package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/itacpc/teams/internal/student"
	"github.com/itacpc/teams/internal/web/form"
	"github.com/itacpc/teams/internal/web/session"
	"github.com/itacpc/teams/internal/web/view"
)

// ProfileHandler handles GET and POST /my-profile.
type ProfileHandler struct {
	*Pages
	students     Students
	teams        Teams
	universities Universities
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(pages *Pages, students Students, teams Teams, universities Universities) *ProfileHandler {
	return &ProfileHandler{Pages: pages, students: students, teams: teams, universities: universities}
}

// Show handles GET /my-profile.
func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	data, err := h.profile(r.Context(), identity(r).UserID)
	if err != nil {
		h.serverError(w, r, "failed to load profile", err)
		return
	}
	h.render(w, r, http.StatusOK, view.PageMyProfile, &view.Page{
		Title: "My profile",
		Form:  profileForm(data.Student),
		Data:  data,
	})
}

// Update handles POST /my-profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := identity(r).UserID
	data, err := h.profile(r.Context(), userID)
	if err != nil {
		h.serverError(w, r, "failed to load profile", err)
		return
	}

	page := &view.Page{Title: "My profile", Data: data}
	var f form.Profile
	if !h.decode(w, r, &f, view.PageMyProfile, page) {
		return
	}

	_, err = h.students.UpdateProfile(r.Context(), userID, student.ProfileUpdate{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Handles: student.Handles{
			Codeforces: student.Optional(f.Codeforces),
			Kattis:     student.Optional(f.Kattis),
			Olinfo:     student.Optional(f.Olinfo),
			Github:     student.Optional(f.Github),
		},
		Subscribed:      f.Subscribed,
		IsSwercEligible: f.SwercEligible,
	})
	switch {
	case err == nil:
		h.redirect(w, r, "/my-profile", session.LevelInfo, msgProfileUpdated)
	case errors.Is(err, student.ErrInvalidProfile):
		page.Form = &f
		page.Errors = form.Errors{"first_name": "This field is required"}
		h.render(w, r, http.StatusOK, view.PageMyProfile, page)
	default:
		h.serverError(w, r, "failed to update profile", err)
	}
}

func (h *ProfileHandler) profile(ctx context.Context, userID uuid.UUID) (*view.ProfilePage, error) {
	st, err := h.students.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	uni, err := h.universities.GetByID(ctx, st.UniversityID)
	if err != nil {
		return nil, err
	}

	data := &view.ProfilePage{Student: st, University: uni}
	if st.TeamID != nil {
		t, members, err := h.teams.Membership(ctx, *st.TeamID)
		if err != nil {
			return nil, err
		}
		history, err := h.teams.History(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		data.Team = t
		data.Members = members
		data.History = history
		data.InviteURL = h.joinURL(t.Secret)
	}
	return data, nil
}

func profileForm(st *student.Student) *form.Profile {
	return &form.Profile{
		FirstName:     st.FirstName,
		LastName:      st.LastName,
		Codeforces:    deref(st.Handles.Codeforces),
		Kattis:        deref(st.Handles.Kattis),
		Olinfo:        deref(st.Handles.Olinfo),
		Github:        deref(st.Handles.Github),
		SwercEligible: st.IsSwercEligible,
		Subscribed:    st.Subscribed,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
