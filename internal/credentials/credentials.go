// Package credentials verifies team passwords against the fixed set of
// bcrypt hashes provisioned for the event.
package credentials

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/crypto/bcrypt"

	"github.com/leapfxp/gamenight/internal/gamenight"
)

// Both wrap gamenight.ErrAuthFailed. Callers log the specific reason but
// must answer the client with the generic one.
var (
	ErrUnknownTeam   = fmt.Errorf("%w: unknown team", gamenight.ErrAuthFailed)
	ErrWrongPassword = fmt.Errorf("%w: wrong password", gamenight.ErrAuthFailed)
)

// dummyHash keeps the unknown-team path as slow as a real comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("unknown-team"), bcrypt.DefaultCost)

type Store struct {
	hashes map[string][]byte
}

// NewStore builds a store from team name to bcrypt hash.
func NewStore(hashes map[string]string) (*Store, error) {
	s := &Store{hashes: make(map[string][]byte, len(hashes))}
	for name, h := range hashes {
		if name == "" {
			return nil, errors.New("team name must not be empty")
		}
		if _, err := bcrypt.Cost([]byte(h)); err != nil {
			return nil, fmt.Errorf("team %q: invalid password hash: %w", name, err)
		}
		s.hashes[name] = []byte(h)
	}
	return s, nil
}

// Verify checks password for team.
func (s *Store) Verify(team, password string) error {
	h, ok := s.hashes[team]
	if !ok {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return ErrUnknownTeam
	}
	if err := bcrypt.CompareHashAndPassword(h, []byte(password)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// Teams returns the provisioned team names, sorted.
func (s *Store) Teams() []string {
	names := make([]string, 0, len(s.hashes))
	for name := range s.hashes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
