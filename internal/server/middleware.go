package server

import (
	"net/http"
)

const sessionHeader = "server_session"

// requireSession rejects requests whose server_session header is not the
// current session token.
func requireSession(g *gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := g.session.Check(r.Header.Get(sessionHeader)); err != nil {
				writeGameError(w, g.logger, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
