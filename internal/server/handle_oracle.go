package server

import (
	"net/http"

	"github.com/leapfxp/gamenight/internal/gamenight"
	"github.com/leapfxp/gamenight/internal/oracle"
)

type AskRequest struct {
	TeamCredentials
	UserInput string `json:"user_input"`
	SessionID string `json:"session_id"`
}

type AskResponse struct {
	Response     string `json:"response"`
	Stage        int    `json:"stage"`
	StageCleared bool   `json:"stageCleared"`
	Completed    bool   `json:"completed"`
}

func handleAsk(g *gate, engine *oracle.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AskRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := g.authenticate(r, req.TeamCredentials); err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		if err := g.open(gamenight.GameInterroRoom); err != nil {
			writeGameError(w, g.logger, err)
			return
		}

		res, err := engine.Ask(r.Context(), req.TeamName, req.UserInput)
		if err != nil {
			writeGameError(w, g.logger, err)
			return
		}

		writeJSON(w, http.StatusOK, AskResponse{
			Response:     res.Response,
			Stage:        res.Stage,
			StageCleared: res.StageCleared,
			Completed:    res.Completed,
		})
	}
}
