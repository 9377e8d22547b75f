package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/salvationministries/console/internal/web/templates"
)

const (
	flashCookie = "console_flash"
	flashMaxAge = 60 // seconds
)

// setFlash stores a notification for the next page render.
func setFlash(w http.ResponseWriter, kind, message string) {
	b, err := json.Marshal(templates.Flash{Kind: kind, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash returns the pending notification, if any, and clears it.
func takeFlash(w http.ResponseWriter, r *http.Request) *templates.Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var f templates.Flash
	if err := json.Unmarshal(raw, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}
