// Package gamenight defines the domain types shared by the session authority,
// the team registry and the mini-game engines. It has no external dependencies.
package gamenight

import (
	"errors"
	"fmt"
	"sort"
)

// Game identifies one mini-game of the event.
type Game string

const (
	GameAIOrNot     Game = "ai_or_not"
	GameInterroRoom Game = "interro_room"
	GameStoryHunt   Game = "story_hunt"
	GamePixelFog    Game = "pixel_fog"
)

// Games lists every mini-game in display order.
var Games = []Game{GameAIOrNot, GameInterroRoom, GameStoryHunt, GamePixelFog}

// Valid reports whether g names a known mini-game.
func (g Game) Valid() bool {
	for _, known := range Games {
		if g == known {
			return true
		}
	}
	return false
}

// Error taxonomy. Packages wrap these with fmt.Errorf("%w: ...") and the
// gateway maps them to HTTP status codes with errors.Is.
var (
	ErrSessionExpired   = errors.New("session expired")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrAlreadyCompleted = errors.New("already completed")
	ErrGameClosed       = errors.New("game is closed")
	ErrValidation       = errors.New("invalid input")
	ErrExternalService  = errors.New("external service failure")
	ErrNotFound         = errors.New("not found")
)

// Status holds the open/closed flag of each mini-game. It is fixed at startup.
type Status map[Game]bool

// Open reports whether g is open. Unknown games are closed.
func (s Status) Open(g Game) bool {
	return s[g]
}

// OpenGames returns the names of the open games, sorted.
func (s Status) OpenGames() []string {
	names := make([]string, 0, len(s))
	for g, open := range s {
		if open {
			names = append(names, string(g))
		}
	}
	sort.Strings(names)
	return names
}

// ParseStatus builds a Status from configured flags. Unknown game names are
// rejected and games that are not mentioned stay closed.
func ParseStatus(flags map[string]bool) (Status, error) {
	s := make(Status, len(Games))
	for _, g := range Games {
		s[g] = false
	}
	for name, open := range flags {
		g := Game(name)
		if !g.Valid() {
			return nil, fmt.Errorf("unknown game %q", name)
		}
		s[g] = open
	}
	return s, nil
}
