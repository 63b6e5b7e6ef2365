package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/itacpc/teams/internal/auth"
	"github.com/itacpc/teams/internal/university"
	"github.com/itacpc/teams/internal/web/handler"
	"github.com/itacpc/teams/internal/web/middleware"
	"github.com/itacpc/teams/internal/web/session"
	"github.com/itacpc/teams/internal/web/view"
)

const (
	testSecret  = "test-session-secret"
	testBaseURL = "https://teams.example"
)

func newPages(t *testing.T) *handler.Pages {
	t.Helper()
	views, err := view.New()
	require.NoError(t, err)
	return handler.NewPages(views, session.NewManager(testSecret, time.Hour, false), testBaseURL+"/")
}

func newUniversity(shortName, domain string) *university.University {
	return &university.University{
		ID:        uuid.New(),
		ShortName: shortName,
		Name:      strings.ToUpper(shortName) + " University",
		Domain:    domain,
		Active:    true,
	}
}

func identityOf(uni *university.University) *auth.Identity {
	return &auth.Identity{
		UserID:              uuid.New(),
		Email:               "ada@" + uni.Domain,
		Name:                "Ada Lovelace",
		UniversityID:        uni.ID,
		UniversityShortName: uni.ShortName,
	}
}

// makeRequest builds a request with chi URL params, an optional posted form
// and an optional logged-in identity.
func makeRequest(method, target string, form url.Values, params map[string]string, id *auth.Identity) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if id != nil {
		ctx = middleware.WithIdentity(ctx, id)
	}
	return req.WithContext(ctx), httptest.NewRecorder()
}

// flashesOf returns the flash messages queued by a response.
func flashesOf(w *httptest.ResponseRecorder) []session.Flash {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return session.NewManager(testSecret, time.Hour, false).PopFlashes(httptest.NewRecorder(), req)
}

func requireRedirect(t *testing.T, w *httptest.ResponseRecorder, location, level, text string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, location, w.Header().Get("Location"))
	if text != "" {
		require.Equal(t, []session.Flash{{Level: level, Text: text}}, flashesOf(w))
	}
}
