// ABOUTME: Bearer token authentication middleware for the board API.
// ABOUTME: Accepts an Authorization header or a kanban_token cookie set by /login.
package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// TokenCookie is the cookie set by LoginHandler for browser sessions.
const TokenCookie = "kanban_token"

// AuthMiddleware rejects /api requests that lack the shared token. Health
// checks and the login endpoint pass through.
func AuthMiddleware(token string) func(http.Handler) http.Handler {
	expected := "Bearer " + token
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path != "/api" && !strings.HasPrefix(path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}

			if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), []byte(expected)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
			if cookie, err := r.Cookie(TokenCookie); err == nil &&
				subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(token)) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", `Bearer realm="kanban"`)
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		})
	}
}

// LoginHandler exchanges ?token=... for a session cookie and redirects to next
// (default /api/boards).
func LoginHandler(expectedToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("kanban: append ?token=YOUR_TOKEN to this URL to sign in\n"))
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     TokenCookie,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteStrictMode,
		})

		next := r.URL.Query().Get("next")
		if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
			next = "/api/boards"
		}
		http.Redirect(w, r, next, http.StatusSeeOther)
	}
}
