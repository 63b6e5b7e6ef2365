package handler

import (
	"net/http"
	"strings"

	"github.com/itacpc/teams/internal/auth"
	"github.com/itacpc/teams/internal/web/form"
	"github.com/itacpc/teams/internal/web/middleware"
	"github.com/itacpc/teams/internal/web/session"
	"github.com/itacpc/teams/internal/web/view"
)

// Messages shown to users.
const (
	msgBadLink           = "The URL looks wrong, did you copy and paste it correctly?"
	msgEmailInUse        = "Email address already in use"
	msgEmailInvalid      = "Email address is invalid"
	msgEmailDomain       = "Use your institutional email address"
	msgEmailConfirmed    = "Email address confirmed!"
	msgWrongCredentials  = "Wrong email or password!"
	msgNotVerified       = "You should first confirm your email address"
	msgResetSent         = "If the address is registered, you will receive an email with a link to choose a new password"
	msgResetCooldown     = "A password reset email was already sent recently, check your inbox"
	msgPasswordUpdated   = "Password updated"
	msgSecretUnknown     = "The secret string to join the team was not recognized, did you copy and paste the link correctly?"
	msgJoinOtherUni      = "You can only join teams from your university!"
	msgJoinInTeam        = "You can't join a new team, you should first leave your current team."
	msgTeamFull          = "This team has reached the maximum number of members"
	msgCreateOtherUni    = "You can only create teams in your own university!"
	msgAlreadyInTeam     = "You are already part of a team!"
	msgTeamNameTaken     = "A team with this name already exists"
	msgTeamNameInvalid   = "The team name must be between 1 and 50 characters"
	msgNotInTeam         = "You are not part of a team"
	msgLeftTeam          = "You left the team"
	msgProfileUpdated    = "Profile successfully updated!"
	msgInternalError     = "Internal Server Error"
	msgCredentialsIssued = "Judge credentials issued to %d students"
	msgJoinedTeam        = "Welcome to team %s!"
	msgAlreadyTeamMember = "You are already part of team %s"
)

// Pages holds what every HTML handler needs to render a page.
type Pages struct {
	views     *view.Renderer
	sessions  *session.Manager
	validator *form.Validator
	baseURL   string
}

// NewPages creates a new Pages. baseURL is used to build absolute links.
func NewPages(views *view.Renderer, sessions *session.Manager, baseURL string) *Pages {
	return &Pages{
		views:     views,
		sessions:  sessions,
		validator: form.NewValidator(),
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// render fills in the session state of p and writes page name.
func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, name string, page *view.Page) {
	page.Identity = middleware.GetIdentity(r.Context())
	page.Flashes = p.sessions.PopFlashes(w, r)
	p.views.Render(w, status, name, page)
}

// redirect queues a flash message and sends the client to url.
func (p *Pages) redirect(w http.ResponseWriter, r *http.Request, url, level, text string) {
	if text != "" {
		p.sessions.AddFlash(w, r, level, text)
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (p *Pages) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	middleware.Logger(r.Context()).Error(msg, "error", err, "path", r.URL.Path)
	http.Error(w, msgInternalError, http.StatusInternalServerError)
}

// decode parses and validates the posted form into dst. It reports false
// after rendering page name with the field errors, or a 400 when the body
// cannot be parsed.
func (p *Pages) decode(w http.ResponseWriter, r *http.Request, dst any, name string, page *view.Page) bool {
	if err := form.Decode(r, dst); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return false
	}
	if errs := p.validator.Validate(dst); errs != nil {
		page.Form = dst
		page.Errors = errs
		p.render(w, r, http.StatusOK, name, page)
		return false
	}
	return true
}

// Maintenance renders the maintenance page.
func (p *Pages) Maintenance(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "300")
	p.render(w, r, http.StatusServiceUnavailable, view.PageMaintenance, &view.Page{Title: "Maintenance"})
}

func (p *Pages) joinURL(secret string) string {
	return p.baseURL + "/join/" + secret
}

func identity(r *http.Request) *auth.Identity {
	return middleware.GetIdentity(r.Context())
}
