package delivery

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const (
	sessionHeader = "X-Session-ID"
	sessionCookie = "tutor_session"
)

var sessionKeyRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// sessionKey reads the client's session key from the header or the cookie.
// When create is set and the client has none, a new key is issued.
func sessionKey(w http.ResponseWriter, r *http.Request, create bool) (string, bool) {
	if key := r.Header.Get(sessionHeader); sessionKeyRe.MatchString(key) {
		return key, true
	}
	if c, err := r.Cookie(sessionCookie); err == nil && sessionKeyRe.MatchString(c.Value) {
		return c.Value, true
	}
	if !create {
		return "", false
	}

	key := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(sessionHeader, key)
	return key, true
}
