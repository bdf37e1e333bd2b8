package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/leapfxp/gamenight/internal/credentials"
	"github.com/leapfxp/gamenight/internal/evasion"
	"github.com/leapfxp/gamenight/internal/gamenight"
	"github.com/leapfxp/gamenight/internal/handler/health"
	"github.com/leapfxp/gamenight/internal/oracle"
	"github.com/leapfxp/gamenight/internal/quiz"
	"github.com/leapfxp/gamenight/internal/session"
	"github.com/leapfxp/gamenight/internal/storyhunt"
	"github.com/leapfxp/gamenight/internal/teams"
	"github.com/leapfxp/gamenight/internal/teams/teamstest"
)

const testPassword = "hunter2"

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

var testSecrets = []string{"frame drop", "vibe coding", "case sensitive"}

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	reply oracle.Reply
	err   error
}

func (f *fakeGenerator) Generate(_ context.Context, _ oracle.Request) (oracle.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.reply, f.err
}

func (f *fakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeClassifier struct {
	mu      sync.Mutex
	calls   int
	changed bool
	err     error
}

func (f *fakeClassifier) Changed(_ context.Context, _ []byte, _ int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.changed, f.err
}

func (f *fakeClassifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type testEnv struct {
	router     http.Handler
	token      string
	teams      *teams.Registry
	broker     *Broker
	gen        *fakeGenerator
	classifier *fakeClassifier
	uploadDir  string
	storyDir   string
}

// newTestEnv builds the full router over teams alpha and bravo with every
// game open except the ones listed in closed.
func newTestEnv(t *testing.T, closed ...gamenight.Game) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	creds, err := credentials.NewStore(map[string]string{
		"alpha": string(hash),
		"bravo": string(hash),
	})
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}

	broker := NewBroker()
	reg := teamstest.New(t, broker, creds.Teams()...)

	status := gamenight.Status{}
	for _, g := range gamenight.Games {
		status[g] = true
	}
	for _, g := range closed {
		status[g] = false
	}

	gen := &fakeGenerator{reply: oracle.Reply{Text: "The keeper says nothing useful."}}
	oracleEngine, err := oracle.NewEngine(gen, reg, logger, oracle.Config{
		Secrets:    testSecrets,
		MaxGuesses: 3,
		Password:   "monkey",
	})
	if err != nil {
		t.Fatalf("oracle: %v", err)
	}

	fogDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(fogDir, "01.png"), pngHeader, 0o644); err != nil {
		t.Fatalf("writing fog image: %v", err)
	}
	feed, err := evasion.LoadFeed(fogDir)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	classifier := &fakeClassifier{}

	uploadDir, storyDir := t.TempDir(), t.TempDir()
	sess := session.Issue()

	d := Deps{
		Logger:         logger,
		Session:        sess,
		Credentials:    creds,
		Teams:          reg,
		Status:         status,
		Broker:         broker,
		Oracle:         oracleEngine,
		Quiz:           quiz.NewEngine(quiz.DefaultCatalog, reg, logger),
		Evasion:        evasion.NewEngine(classifier, logger, 0),
		PixelFog:       feed,
		StoryHunt:      storyhunt.NewEngine(uploadDir, storyDir, UploadsPrefix, reg, logger),
		UploadDir:      uploadDir,
		MaxUploadBytes: 1 << 20,
		HealthChecks:   map[string]health.Checker{},
	}

	return &testEnv{
		router:     newRouter(d),
		token:      sess.Token(),
		teams:      reg,
		broker:     broker,
		gen:        gen,
		classifier: classifier,
		uploadDir:  uploadDir,
		storyDir:   storyDir,
	}
}

func (e *testEnv) creds(team string) TeamCredentials {
	return TeamCredentials{TeamName: team, Password: testPassword, ServerSession: e.token}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("encoding body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(t *testing.T, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) score(t *testing.T, team string) int {
	t.Helper()
	s, err := e.teams.Score(context.Background(), team)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	return s
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return v
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d: %s", w.Code, want, w.Body.String())
	}
}
