package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/itacpc/teams/internal/auth"
	"github.com/itacpc/teams/internal/mail"
	"github.com/itacpc/teams/internal/student"
	"github.com/itacpc/teams/internal/university"
	"github.com/itacpc/teams/internal/web/form"
	"github.com/itacpc/teams/internal/web/session"
	"github.com/itacpc/teams/internal/web/view"
)

// Authenticator registers students and checks their credentials.
type Authenticator interface {
	Register(ctx context.Context, r auth.Registration) (*student.Student, error)
	Confirm(ctx context.Context, token string) (*student.Student, error)
	Login(ctx context.Context, email, password string) (*auth.Identity, error)
	RequestPasswordReset(ctx context.Context, email string) error
	CheckResetToken(ctx context.Context, token string) (*student.Student, error)
	ResetPassword(ctx context.Context, token, password string) error
}

// AccountHandler handles registration, login and password reset.
type AccountHandler struct {
	*Pages
	auth         Authenticator
	universities Universities
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(pages *Pages, a Authenticator, universities Universities) *AccountHandler {
	return &AccountHandler{Pages: pages, auth: a, universities: universities}
}

// NewStudentForm handles GET /{uni}/new-student.
func (h *AccountHandler) NewStudentForm(w http.ResponseWriter, r *http.Request) {
	if identity(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	uni, ok := h.activeUniversity(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, view.PageNewStudent, &view.Page{
		Title: "Register",
		Form:  &form.Register{},
		Data:  uni,
	})
}

// NewStudent handles POST /{uni}/new-student.
func (h *AccountHandler) NewStudent(w http.ResponseWriter, r *http.Request) {
	if identity(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	uni, ok := h.activeUniversity(w, r)
	if !ok {
		return
	}

	page := &view.Page{Title: "Register", Data: uni}
	var f form.Register
	if !h.decode(w, r, &f, view.PageNewStudent, page) {
		return
	}

	st, err := h.auth.Register(r.Context(), auth.Registration{
		UniversityShortName: uni.ShortName,
		FirstName:           f.FirstName,
		LastName:            f.LastName,
		Email:               f.Email,
		Password:            f.Password,
		Handles: student.Handles{
			Codeforces: student.Optional(f.Codeforces),
			Kattis:     student.Optional(f.Kattis),
			Olinfo:     student.Optional(f.Olinfo),
			Github:     student.Optional(f.Github),
		},
		Subscribed:      f.Subscribed,
		IsSwercEligible: f.SwercEligible,
	})

	status, field, msg := http.StatusOK, "", ""
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrEmailDomain):
		field, msg = "email", msgEmailDomain
	case errors.Is(err, auth.ErrWeakPassword):
		field, msg = "password", "Password must be at least 8 characters long"
	case errors.Is(err, student.ErrDuplicateEmail):
		status, field, msg = http.StatusConflict, "email", msgEmailInUse
	case errors.Is(err, mail.ErrRecipientRejected):
		status, field, msg = http.StatusBadRequest, "email", msgEmailInvalid
	case errors.Is(err, university.ErrUniversityNotFound):
		http.NotFound(w, r)
		return
	default:
		h.serverError(w, r, "failed to register student", err)
		return
	}
	if field != "" {
		page.Form = &f
		page.Errors = form.Errors{field: msg}
		h.render(w, r, status, view.PageNewStudent, page)
		return
	}

	h.render(w, r, http.StatusOK, view.PageCheckInbox, &view.Page{
		Title: "Check your inbox",
		Data: &view.CheckInboxPage{
			University: uni,
			Email:      st.Email,
			Name:       st.FirstName,
		},
	})
}

// ConfirmEmail handles GET /confirm-email/{secret}.
func (h *AccountHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	_, err := h.auth.Confirm(r.Context(), chi.URLParam(r, "secret"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			http.Error(w, msgBadLink, http.StatusBadRequest)
			return
		}
		h.serverError(w, r, "failed to confirm email address", err)
		return
	}
	h.redirect(w, r, "/login", session.LevelInfo, msgEmailConfirmed)
}

// LoginForm handles GET /login.
func (h *AccountHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if identity(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, view.PageLogin, &view.Page{Title: "Login", Form: &form.Login{}})
}

// Login handles POST /login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	if identity(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	var f form.Login
	if !h.decode(w, r, &f, view.PageLogin, &view.Page{Title: "Login"}) {
		return
	}

	id, err := h.auth.Login(r.Context(), f.Email, f.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.redirect(w, r, "/login", session.LevelError, msgWrongCredentials)
		return
	case errors.Is(err, auth.ErrNotVerified):
		h.redirect(w, r, "/login", session.LevelError, msgNotVerified)
		return
	case err != nil:
		h.serverError(w, r, "failed to log in", err)
		return
	}

	if err := h.sessions.Issue(w, id); err != nil {
		h.serverError(w, r, "failed to issue session", err)
		return
	}
	http.Redirect(w, r, "/"+id.UniversityShortName, http.StatusSeeOther)
}

// Logout handles POST /logout.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ForgotPasswordForm handles GET /forgot-password.
func (h *AccountHandler) ForgotPasswordForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageForgotPassword, &view.Page{
		Title: "Forgot password",
		Form:  &form.ForgotPassword{},
	})
}

// ForgotPassword handles POST /forgot-password.
func (h *AccountHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var f form.ForgotPassword
	if !h.decode(w, r, &f, view.PageForgotPassword, &view.Page{Title: "Forgot password"}) {
		return
	}

	err := h.auth.RequestPasswordReset(r.Context(), f.Email)
	switch {
	case err == nil:
		h.redirect(w, r, "/login", session.LevelInfo, msgResetSent)
	case errors.Is(err, student.ErrResetCooldown):
		h.redirect(w, r, "/forgot-password", session.LevelError, msgResetCooldown)
	case errors.Is(err, mail.ErrRecipientRejected):
		h.redirect(w, r, "/forgot-password", session.LevelError, msgEmailInvalid)
	default:
		h.serverError(w, r, "failed to request password reset", err)
	}
}

// ResetPasswordForm handles GET /reset-password/{secret}.
func (h *AccountHandler) ResetPasswordForm(w http.ResponseWriter, r *http.Request) {
	st, ok := h.resetToken(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, view.PageResetPassword, &view.Page{
		Title: "Reset password",
		Form:  &form.ResetPassword{},
		Data:  st,
	})
}

// ResetPassword handles POST /reset-password/{secret}.
func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	st, ok := h.resetToken(w, r)
	if !ok {
		return
	}

	var f form.ResetPassword
	if !h.decode(w, r, &f, view.PageResetPassword, &view.Page{Title: "Reset password", Data: st}) {
		return
	}

	err := h.auth.ResetPassword(r.Context(), chi.URLParam(r, "secret"), f.Password)
	switch {
	case err == nil:
		h.redirect(w, r, "/login", session.LevelInfo, msgPasswordUpdated)
	case errors.Is(err, auth.ErrInvalidToken):
		http.Error(w, msgBadLink, http.StatusBadRequest)
	default:
		h.serverError(w, r, "failed to reset password", err)
	}
}

func (h *AccountHandler) resetToken(w http.ResponseWriter, r *http.Request) (*student.Student, bool) {
	st, err := h.auth.CheckResetToken(r.Context(), chi.URLParam(r, "secret"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			http.Error(w, msgBadLink, http.StatusBadRequest)
			return nil, false
		}
		h.serverError(w, r, "failed to check reset token", err)
		return nil, false
	}
	return st, true
}

func (h *AccountHandler) activeUniversity(w http.ResponseWriter, r *http.Request) (*university.University, bool) {
	uni, err := h.universities.GetByShortName(r.Context(), chi.URLParam(r, "uni"))
	if err != nil {
		if errors.Is(err, university.ErrUniversityNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		h.serverError(w, r, "failed to load university", err)
		return nil, false
	}
	if !uni.Active {
		http.NotFound(w, r)
		return nil, false
	}
	return uni, true
}
