package server

import (
	"fmt"
	"net/http"

	"github.com/leapfxp/gamenight/internal/gamenight"
	"github.com/leapfxp/gamenight/internal/quiz"
)

type ImageRequest struct {
	TeamCredentials
	SessionID string `json:"session_id"`
	ImageIter int    `json:"imageiter"`
}

type ImageResponse struct {
	ImageURL string `json:"image_url"`
}

type VerifyRequest struct {
	TeamCredentials
	SessionID string `json:"session_id"`
	UserGuess string `json:"user_guess"`
	ImageIter int    `json:"imageiter"`
}

type VerifyResponse struct {
	Result  string `json:"result"`
	Correct bool   `json:"correct"`
	Score   int    `json:"score"`
}

type SubmitScoreRequest struct {
	TeamName      string `json:"team_name"`
	ServerSession string `json:"server_session"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func handleQuizImage(g *gate, engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImageRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := g.authenticate(r, req.TeamCredentials); err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		if err := g.open(gamenight.GameAIOrNot); err != nil {
			writeGameError(w, g.logger, err)
			return
		}

		url, err := engine.NextImage(r.Context(), req.TeamName, req.ImageIter)
		if err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ImageResponse{ImageURL: url})
	}
}

func handleQuizVerify(g *gate, engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VerifyRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := g.authenticate(r, req.TeamCredentials); err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		if err := g.open(gamenight.GameAIOrNot); err != nil {
			writeGameError(w, g.logger, err)
			return
		}

		v, err := engine.Verify(r.Context(), req.TeamName, req.UserGuess)
		if err != nil {
			writeGameError(w, g.logger, err)
			return
		}

		resp := VerifyResponse{Result: "✗ WRONG!", Correct: v.Correct, Score: v.Score}
		if v.Correct {
			resp.Result = "✓ CORRECT!"
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleQuizSubmit is the explicit end of the quiz for a team.
func handleQuizSubmit(g *gate, engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitScoreRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := g.identify(r, req.ServerSession, req.TeamName); err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		if err := g.open(gamenight.GameAIOrNot); err != nil {
			writeGameError(w, g.logger, err)
			return
		}

		final, err := engine.Submit(r.Context(), req.TeamName)
		if err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{
			Message: fmt.Sprintf("Score submitted for %s: %d", req.TeamName, final),
		})
	}
}
