// Package session holds the process-wide session token. One token is issued
// when the server starts and stays valid until the process exits; a restart
// supersedes it and every client has to log in again.
package session

import (
	"crypto/subtle"
	"fmt"

	"github.com/google/uuid"

	"github.com/leapfxp/gamenight/internal/gamenight"
)

type Authority struct {
	token string
}

// Issue creates the authority and its token. Call it once at startup.
func Issue() *Authority {
	return &Authority{token: uuid.NewString()}
}

// Token returns the current token. Login reveals it to authenticated teams.
func (a *Authority) Token() string {
	return a.token
}

// Validate reports whether presented is the current token.
func (a *Authority) Validate(presented string) bool {
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(a.token)) == 1
}

// Check is Validate as an error, wrapping gamenight.ErrSessionExpired.
func (a *Authority) Check(presented string) error {
	if !a.Validate(presented) {
		return fmt.Errorf("%w: log in again", gamenight.ErrSessionExpired)
	}
	return nil
}
