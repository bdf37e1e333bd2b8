package server

import (
	"net/http"
)

func handleGamesStatus(g *gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := make(map[string]bool, len(g.status))
		for game, open := range g.status {
			resp[string(game)] = open
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleScores(g *gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scores, err := g.teams.Scores(r.Context())
		if err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, scores)
	}
}
