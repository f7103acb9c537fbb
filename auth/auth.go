// Package auth guards mutating endpoints with HTTP basic authentication.
// There is a single capability: callers present the fixed management username
// and the access token from the service configuration.
package auth

import (
	"crypto/subtle"
	"net/http"
)

// Username is the management account expected in the basic auth header.
const Username = "ElectronClassSchedule"

// Conf holds the shared access token.
type Conf struct {
	Token string `json:"token" koanf:"token"`
}

// Guard wraps handlers that require the management capability.
type Guard struct {
	token string
}

// NewGuard builds a Guard for the configured token.
func NewGuard(conf Conf) *Guard {
	return &Guard{token: conf.Token}
}

// Check reports whether the request carries valid credentials. Comparison is
// constant time on both fields.
func (g *Guard) Check(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(g.token)) == 1
	return userOK && passOK
}

// Middleware rejects unauthenticated requests with 401 and a basic auth
// challenge.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Check(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="classboard"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
