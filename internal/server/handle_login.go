package server

import (
	"net/http"
	"strings"
)

type LoginRequest struct {
	TeamName string `json:"team_name"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	ServerSession string `json:"server_session"`
}

// handleLogin reveals the process-wide session token to a team with valid
// credentials. It never creates a new session.
func handleLogin(g *gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.TeamName = strings.TrimSpace(req.TeamName)
		if req.TeamName == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "team_name and password are required")
			return
		}

		if err := g.creds.Verify(req.TeamName, req.Password); err != nil {
			g.logger.Warn("login failed", "team", req.TeamName, "reason", err)
			writeError(w, http.StatusUnauthorized, "authentication failed")
			return
		}

		g.logger.Info("team logged in", "team", req.TeamName)
		writeJSON(w, http.StatusOK, LoginResponse{
			Status:        "success",
			Message:       "Login successful",
			ServerSession: g.session.Token(),
		})
	}
}
