package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse documents the /healthz body.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Status     string `json:"status"`
	DurationMS int64  `json:"duration_ms"`
}

type gamesStatusHeader struct {
	ServerSession string `header:"server_session" required:"true"`
}

type listImagesQuery struct {
	TeamName      string `query:"team_name" required:"true"`
	Password      string `query:"password" required:"true"`
	ServerSession string `query:"server_session" required:"true"`
}

type uploadForm struct {
	TeamName      string `formData:"team_name" required:"true"`
	Password      string `formData:"password" required:"true"`
	ServerSession string `formData:"server_session" required:"true"`
}

type operation struct {
	method, path, summary, description string
	req                                any
	resp                               any
	contentType                        string
	errors                             []int
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Game Night API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the team mini-games night.")

	authErrors := []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden}

	ops := []operation{
		{
			method: http.MethodGet, path: "/healthz",
			summary:     "Health check",
			description: "Returns the health status of backend dependencies.",
			resp:        HealthResponse{},
		},
		{
			method: http.MethodPost, path: "/login",
			summary:     "Team login",
			description: "Verifies team credentials and returns the current server session token.",
			req:         LoginRequest{}, resp: LoginResponse{},
			errors: []int{http.StatusBadRequest, http.StatusUnauthorized},
		},
		{
			method: http.MethodGet, path: "/games/status",
			summary:     "Game open flags",
			description: "Returns which mini-games are open. Requires the server_session header.",
			req:         gamesStatusHeader{}, resp: map[string]bool{},
			errors: []int{http.StatusUnauthorized},
		},
		{
			method: http.MethodGet, path: "/scores",
			summary: "Scoreboard",
			resp:    map[string]int{},
		},
		{
			method: http.MethodGet, path: "/scores/events",
			summary:     "Scoreboard event stream",
			description: "Server-Sent Events stream of score changes and game completions. Starts with a snapshot.",
			contentType: "text/event-stream",
		},
		{
			method: http.MethodPost, path: "/ask",
			summary:     "Ask the oracle",
			description: "Sends one prompt to the interrogation room oracle for the team's current stage.",
			req:         AskRequest{}, resp: AskResponse{},
			errors: append(authErrors, http.StatusInternalServerError),
		},
		{
			method: http.MethodPost, path: "/image",
			summary:     "Next quiz image",
			description: "Returns the image at imageiter, or \"game over\" once the catalog is exhausted.",
			req:         ImageRequest{}, resp: ImageResponse{},
			errors: authErrors,
		},
		{
			method: http.MethodPost, path: "/verify",
			summary:     "Verify quiz guess",
			description: "Checks a human or ai guess against the image last served to the team.",
			req:         VerifyRequest{}, resp: VerifyResponse{},
			errors: authErrors,
		},
		{
			method: http.MethodPost, path: "/submitaiornot",
			summary:     "Finish the quiz",
			description: "Marks the quiz completed for the team and returns its final score.",
			req:         SubmitScoreRequest{}, resp: MessageResponse{},
			errors: authErrors,
		},
		{
			method: http.MethodPost, path: "/pixelfog/image",
			summary:     "Pixel fog source image",
			description: "Returns the source image at imageiter as a data URL.",
			req:         PixelFogImageRequest{}, resp: PixelFogImageResponse{},
			errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
		},
		{
			method: http.MethodPost, path: "/beatleap/submit",
			summary:     "Submit perturbed image",
			description: "Asks the classifier whether the perturbed image is no longer recognized.",
			req:         EvasionSubmitRequest{}, resp: EvasionSubmitResponse{},
			errors: append(authErrors, http.StatusInternalServerError),
		},
		{
			method: http.MethodPost, path: "/images/upload",
			summary:     "Upload story hunt photos",
			description: "Multipart upload of up to 10 images under the files field. Completes the story hunt for the team.",
			req:         uploadForm{}, resp: UploadResponse{},
			errors: append(authErrors, http.StatusRequestEntityTooLarge),
		},
		{
			method: http.MethodGet, path: "/images/list",
			summary: "List story hunt photos",
			req:     listImagesQuery{}, resp: ListImagesResponse{},
			errors: []int{http.StatusUnauthorized, http.StatusNotFound},
		},
		{
			method: http.MethodPost, path: "/story/submit",
			summary:     "Submit story",
			description: "Stores the team's story text, replacing any earlier version.",
			req:         StoryRequest{}, resp: MessageResponse{},
			errors: authErrors,
		},
	}

	for _, op := range ops {
		oc, _ := r.NewOperationContext(op.method, op.path)
		oc.SetSummary(op.summary)
		if op.description != "" {
			oc.SetDescription(op.description)
		}
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		if op.contentType != "" {
			oc.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), openapi.WithContentType(op.contentType))
		} else {
			oc.AddRespStructure(op.resp, openapi.WithHTTPStatus(http.StatusOK))
		}
		if op.path == "/healthz" {
			oc.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
		}
		for _, status := range op.errors {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(status))
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
