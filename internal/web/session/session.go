// Package session stores the logged-in identity in a signed cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/itacpc/teams/internal/auth"
)

// CookieName is the name of the session cookie.
const CookieName = "itacpc_session"

// ErrNoSession is returned by Read when the request carries no valid session.
var ErrNoSession = errors.New("no session")

// Claims are the JWT claims of a session.
type Claims struct {
	Email               string `json:"email"`
	Name                string `json:"name"`
	UniversityID        string `json:"uni_id"`
	UniversityShortName string `json:"uni"`
	IsSuperuser         bool   `json:"su,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and reads session cookies.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager creates a Manager signing sessions with secret.
func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

// Issue sets the session cookie for id.
func (m *Manager) Issue(w http.ResponseWriter, id *auth.Identity) error {
	now := m.now()
	claims := Claims{
		Email:               id.Email,
		Name:                id.Name,
		UniversityID:        id.UniversityID.String(),
		UniversityShortName: id.UniversityShortName,
		IsSuperuser:         id.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("signing session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(m.ttl),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read returns the identity stored in the request's session cookie.
func (m *Manager) Read(r *http.Request) (*auth.Identity, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, ErrNoSession
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(c.Value, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrNoSession)
	}
	uniID, err := uuid.Parse(claims.UniversityID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad university", ErrNoSession)
	}

	return &auth.Identity{
		UserID:              userID,
		Email:               claims.Email,
		Name:                claims.Name,
		UniversityID:        uniID,
		UniversityShortName: claims.UniversityShortName,
		IsSuperuser:         claims.IsSuperuser,
	}, nil
}

// Clear removes the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
