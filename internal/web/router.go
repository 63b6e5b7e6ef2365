package web

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"

	"github.com/itacpc/teams/internal/web/handler"
	"github.com/itacpc/teams/internal/web/middleware"
	"github.com/itacpc/teams/internal/web/session"
	"github.com/itacpc/teams/internal/web/view"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger     handler.DBPinger
	Version      string
	BaseURL      string
	Maintenance  bool
	Views        *view.Renderer
	Sessions     *session.Manager
	Auth         handler.Authenticator
	Universities handler.Universities
	Teams        handler.Teams
	Students     handler.Students
	Exporter     handler.Exporter
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	pages := handler.NewPages(deps.Views, deps.Sessions, deps.BaseURL)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Maintenance(deps.Maintenance, http.HandlerFunc(pages.Maintenance)))
	r.Use(middleware.LoadSession(deps.Sessions))

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	public := handler.NewPublicHandler(pages, deps.Universities, deps.Teams)
	account := handler.NewAccountHandler(pages, deps.Auth, deps.Universities)
	teams := handler.NewTeamHandler(pages, deps.Teams, deps.Students, deps.Universities)
	profile := handler.NewProfileHandler(pages, deps.Students, deps.Teams, deps.Universities)
	exports := handler.NewExportHandler(pages, deps.Exporter)

	r.Get("/", public.Home)

	r.Get("/login", account.LoginForm)
	r.Post("/login", account.Login)
	r.Post("/logout", account.Logout)
	r.Get("/confirm-email/{secret}", account.ConfirmEmail)
	r.Get("/forgot-password", account.ForgotPasswordForm)
	r.Post("/forgot-password", account.ForgotPassword)
	r.Get("/reset-password/{secret}", account.ResetPasswordForm)
	r.Post("/reset-password/{secret}", account.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireLogin)
		r.Get("/my-profile", profile.Show)
		r.Post("/my-profile", profile.Update)
		r.Get("/join/{secret}", teams.JoinForm)
		r.Post("/join/{secret}", teams.Join)
		r.Get("/leave-team", teams.LeaveForm)
		r.Post("/leave-team", teams.Leave)
		r.Get("/{uni}/new-team", teams.NewTeamForm)
		r.Post("/{uni}/new-team", teams.NewTeam)
	})

	r.Route("/data-export", func(r chi.Router) {
		r.Use(middleware.RequireSuperuser)
		r.Get("/", exports.Index)
		r.Post("/credentials", exports.IssueCredentials)
		r.Get("/{dataset}", exports.Dataset)
	})

	r.Get("/{uni}", public.University)
	r.Get("/{uni}/new-student", account.NewStudentForm)
	r.Post("/{uni}/new-student", account.NewStudent)

	return r
}
