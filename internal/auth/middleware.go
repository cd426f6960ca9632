package auth

import (
	"net/http"
	"time"
)

// SlidingSession renews the session cookie once it is more than halfway
// through its lifetime. It never rejects a request; operations authorize
// their callers themselves.
func (h *AuthHandler) SlidingSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := h.parseToken(cookie.Value)
		if err == nil && time.Until(claims.ExpiresAt.Time) < TokenDuration/2 {
			if token, err := h.GenerateToken(claims.Subject); err == nil {
				http.SetCookie(w, sessionCookie(token))
			}
		}
		next.ServeHTTP(w, r)
	})
}
