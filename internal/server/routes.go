package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/leapfxp/gamenight/internal/handler/health"
)

// UploadsPrefix is the URL prefix stored story hunt images are served under.
const UploadsPrefix = "/uploads"

func addRoutes(r chi.Router, d Deps) {
	g := &gate{
		session: d.Session,
		creds:   d.Credentials,
		teams:   d.Teams,
		status:  d.Status,
		logger:  d.Logger,
	}

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Game Night API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(d.Logger, d.HealthChecks).Routes())

	r.Post("/login", handleLogin(g))
	r.With(requireSession(g)).Get("/games/status", handleGamesStatus(g))
	r.Get("/scores", handleScores(g))
	r.Get("/scores/events", handleScoreEvents(g, d.Broker))

	// Interrogation room.
	r.Post("/ask", handleAsk(g, d.Oracle))

	// AI or not.
	r.Post("/image", handleQuizImage(g, d.Quiz))
	r.Post("/verify", handleQuizVerify(g, d.Quiz))
	r.Post("/submitaiornot", handleQuizSubmit(g, d.Quiz))

	// Pixel fog.
	r.Post("/pixelfog/image", handlePixelFogImage(g, d.PixelFog))
	r.Post("/beatleap/submit", handleEvasionSubmit(g, d.Evasion))

	// Story hunt.
	r.Post("/images/upload", handleImagesUpload(g, d.StoryHunt, d.MaxUploadBytes))
	r.Get("/images/list", handleImagesList(g, d.StoryHunt))
	r.Post("/story/submit", handleStorySubmit(g, d.StoryHunt))
	r.Get(UploadsPrefix+"/*", handleUploads(d.UploadDir, UploadsPrefix))
}
