package session

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// FlashCookieName is the name of the cookie carrying pending flash messages.
const FlashCookieName = "itacpc_flash"

// Flash levels.
const (
	LevelInfo  = "info"
	LevelError = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// AddFlash queues a message for the next page render. Messages already queued
// on the request are kept.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, level, text string) {
	flashes := append(readFlashes(r), Flash{Level: level, Text: text})
	blob, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(blob),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlashes returns the queued messages and clears them.
func (m *Manager) PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	flashes := readFlashes(r)
	if len(flashes) > 0 {
		http.SetCookie(w, &http.Cookie{
			Name:     FlashCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return flashes
}

func readFlashes(r *http.Request) []Flash {
	c, err := r.Cookie(FlashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	blob, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(blob, &flashes); err != nil {
		return nil
	}
	return flashes
}
