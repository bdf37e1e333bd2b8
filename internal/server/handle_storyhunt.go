package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/leapfxp/gamenight/internal/gamenight"
	"github.com/leapfxp/gamenight/internal/storyhunt"
)

type UploadResponse struct {
	Status string           `json:"status"`
	Count  int              `json:"count"`
	Items  []storyhunt.Item `json:"items"`
}

type ListImagesResponse struct {
	Images []storyhunt.Item `json:"images"`
}

type StoryRequest struct {
	TeamCredentials
	Story string `json:"story"`
}

func handleImagesUpload(g *gate, engine *storyhunt.Engine, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll()

		creds := TeamCredentials{
			TeamName:      r.FormValue("team_name"),
			Password:      r.FormValue("password"),
			ServerSession: r.FormValue("server_session"),
		}
		if err := g.authenticate(r, creds); err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		if err := g.open(gamenight.GameStoryHunt); err != nil {
			writeGameError(w, g.logger, err)
			return
		}

		headers := r.MultipartForm.File["files"]
		files := make([]storyhunt.File, 0, len(headers))
		for _, fh := range headers {
			files = append(files, storyhunt.File{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Open:        opener(fh),
			})
		}

		items, err := engine.Upload(r.Context(), creds.TeamName, files)
		if err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, UploadResponse{Status: "success", Count: len(items), Items: items})
	}
}

func opener(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return fh.Open()
	}
}

func handleImagesList(g *gate, engine *storyhunt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		creds := TeamCredentials{
			TeamName:      q.Get("team_name"),
			Password:      q.Get("password"),
			ServerSession: q.Get("server_session"),
		}
		if err := g.authenticate(r, creds); err != nil {
			writeGameError(w, g.logger, err)
			return
		}

		items, err := engine.List(creds.TeamName)
		if err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ListImagesResponse{Images: items})
	}
}

// handleStorySubmit overwrites the team's story. It is not gated by the
// upload completion flag, so a team can revise its text after uploading.
func handleStorySubmit(g *gate, engine *storyhunt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StoryRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := g.authenticate(r, req.TeamCredentials); err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		if err := g.open(gamenight.GameStoryHunt); err != nil {
			writeGameError(w, g.logger, err)
			return
		}

		if err := engine.SubmitStory(req.TeamName, req.Story); err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Story submitted successfully!"})
	}
}
