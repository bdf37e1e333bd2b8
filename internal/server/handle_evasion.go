package server

import (
	"net/http"

	"github.com/leapfxp/gamenight/internal/evasion"
	"github.com/leapfxp/gamenight/internal/gamenight"
)

type PixelFogImageRequest struct {
	ServerSession string `json:"server_session"`
	ImageIter     int    `json:"imageiter"`
}

type PixelFogImageResponse struct {
	ImageData string `json:"image_data"`
	ImageIter int    `json:"image_iter"`
}

type EvasionSubmitRequest struct {
	ServerSession string `json:"serversession"`
	TeamName      string `json:"team_name"`
	ImageData     string `json:"image_data"`
	ImageIter     int    `json:"imageiter"`
	// Changed is the client's own opinion; the classifier decides.
	Changed bool `json:"changed"`
}

type EvasionSubmitResponse struct {
	Message   string `json:"message"`
	ImageIter int    `json:"image_iter"`
}

func handlePixelFogImage(g *gate, feed *evasion.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PixelFogImageRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := g.session.Check(req.ServerSession); err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		if err := g.open(gamenight.GamePixelFog); err != nil {
			writeGameError(w, g.logger, err)
			return
		}

		data, err := feed.Image(req.ImageIter)
		if err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, PixelFogImageResponse{ImageData: data, ImageIter: req.ImageIter})
	}
}

func handleEvasionSubmit(g *gate, engine *evasion.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EvasionSubmitRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := g.identify(r, req.ServerSession, req.TeamName); err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		if err := g.open(gamenight.GamePixelFog); err != nil {
			writeGameError(w, g.logger, err)
			return
		}

		changed, err := engine.Submit(r.Context(), req.TeamName, req.ImageIter, req.ImageData)
		if err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		if changed != req.Changed {
			g.logger.Debug("client and classifier disagree", "team", req.TeamName, "client", req.Changed, "classifier", changed)
		}

		if changed {
			writeJSON(w, http.StatusOK, EvasionSubmitResponse{
				Message:   "Success! The classifier no longer recognizes the image.",
				ImageIter: 1,
			})
			return
		}
		writeJSON(w, http.StatusOK, EvasionSubmitResponse{
			Message:   "The classifier still recognizes the image. Keep painting!",
			ImageIter: 0,
		})
	}
}
