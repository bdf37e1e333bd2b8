package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/leapfxp/gamenight/internal/credentials"
	"github.com/leapfxp/gamenight/internal/gamenight"
	"github.com/leapfxp/gamenight/internal/session"
	"github.com/leapfxp/gamenight/internal/teams"
)

// TeamCredentials are carried in the body of every authenticated request.
type TeamCredentials struct {
	TeamName      string `json:"team_name"`
	Password      string `json:"password"`
	ServerSession string `json:"server_session"`
}

// gate runs the checks every mutating request goes through before any game
// state is touched: session token, then team credentials, then the game's
// open flag.
type gate struct {
	session *session.Authority
	creds   *credentials.Store
	teams   *teams.Registry
	status  gamenight.Status
	logger  *slog.Logger
}

func (g *gate) authenticate(r *http.Request, c TeamCredentials) error {
	if err := g.session.Check(c.ServerSession); err != nil {
		return err
	}
	if err := g.creds.Verify(c.TeamName, c.Password); err != nil {
		g.logger.Warn("authentication failed",
			"team", c.TeamName,
			"reason", err,
			"path", r.URL.Path,
		)
		return gamenight.ErrAuthFailed
	}
	return nil
}

// identify is used by the endpoints that carry a team name but no password.
func (g *gate) identify(r *http.Request, serverSession, team string) error {
	if err := g.session.Check(serverSession); err != nil {
		return err
	}
	if !g.teams.Known(team) {
		g.logger.Warn("authentication failed", "team", team, "reason", "unknown team", "path", r.URL.Path)
		return gamenight.ErrAuthFailed
	}
	return nil
}

func (g *gate) open(game gamenight.Game) error {
	if !g.status.Open(game) {
		return fmt.Errorf("%w: %s", gamenight.ErrGameClosed, game)
	}
	return nil
}
