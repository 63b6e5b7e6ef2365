package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/itacpc/teams/internal/team"
	"github.com/itacpc/teams/internal/university"
	"github.com/itacpc/teams/internal/web/view"
)

// Universities resolves universities and builds the home page overview.
type Universities interface {
	GetByID(ctx context.Context, id uuid.UUID) (*university.University, error)
	GetByShortName(ctx context.Context, shortName string) (*university.University, error)
	Overview(ctx context.Context, own *uuid.UUID) (*university.Overview, error)
}

// PublicHandler serves the pages visible without logging in.
type PublicHandler struct {
	*Pages
	universities Universities
	teams        Teams
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(pages *Pages, universities Universities, teams Teams) *PublicHandler {
	return &PublicHandler{Pages: pages, universities: universities, teams: teams}
}

// Home handles GET /.
func (h *PublicHandler) Home(w http.ResponseWriter, r *http.Request) {
	var own *uuid.UUID
	if id := identity(r); id != nil {
		own = &id.UniversityID
	}

	overview, err := h.universities.Overview(r.Context(), own)
	if err != nil {
		h.serverError(w, r, "failed to build home page", err)
		return
	}

	h.render(w, r, http.StatusOK, view.PageHome, &view.Page{Data: overview})
}

// University handles GET /{uni}.
func (h *PublicHandler) University(w http.ResponseWriter, r *http.Request) {
	roster, err := h.teams.Roster(r.Context(), chi.URLParam(r, "uni"))
	if err != nil {
		if errors.Is(err, university.ErrUniversityNotFound) {
			http.NotFound(w, r)
			return
		}
		h.serverError(w, r, "failed to build university page", err)
		return
	}

	canCreate := false
	if id := identity(r); id != nil && id.UniversityID == roster.University.ID {
		canCreate = !inRoster(roster, id.UserID)
	}

	h.render(w, r, http.StatusOK, view.PageUniversity, &view.Page{
		Title: roster.University.Name,
		Data: &view.UniversityPage{
			Roster:        roster,
			MaxMembers:    h.teams.MaxMembers(),
			CanCreateTeam: canCreate,
		},
	})
}

func inRoster(roster *team.Roster, userID uuid.UUID) bool {
	for _, t := range roster.Teams {
		for _, m := range t.Members {
			if m.ID == userID {
				return true
			}
		}
	}
	return false
}
