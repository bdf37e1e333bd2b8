// Package quiz runs the "AI or not" game: teams walk through a fixed
// sequence of images and guess whether each one was made by a human or by
// an AI. The image a team is looking at is tracked per team.
package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/leapfxp/gamenight/internal/gamenight"
	"github.com/leapfxp/gamenight/internal/teams"
)

// GameOver is returned instead of a URL once the sequence is exhausted.
const GameOver = "game over"

type Image struct {
	URL   string `json:"url"`
	Label string `json:"type"`
}

var DefaultCatalog = []Image{
	{URL: "https://picsum.photos/600/400?random=1", Label: "human"},
	{URL: "https://picsum.photos/600/400?random=2", Label: "ai"},
	{URL: "https://picsum.photos/600/400?random=3", Label: "human"},
	{URL: "https://picsum.photos/600/400?random=4", Label: "ai"},
}

// LoadCatalog reads a JSON array of {"url","type"} items. An empty path
// yields DefaultCatalog.
func LoadCatalog(path string) ([]Image, error) {
	if path == "" {
		return DefaultCatalog, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading quiz catalog: %w", err)
	}
	var images []Image
	if err := json.Unmarshal(data, &images); err != nil {
		return nil, fmt.Errorf("parsing quiz catalog: %w", err)
	}
	for i, img := range images {
		if img.URL == "" || img.Label == "" {
			return nil, fmt.Errorf("quiz catalog item %d needs url and type", i)
		}
	}
	return images, nil
}

type teamState struct {
	mu      sync.Mutex
	served  bool
	current Image
	// scored is set once the current image has awarded its point.
	scored bool
}

type Engine struct {
	images []Image
	reg    *teams.Registry
	logger *slog.Logger
	states gamenight.Keyed[teamState]
}

func NewEngine(images []Image, reg *teams.Registry, logger *slog.Logger) *Engine {
	return &Engine{images: images, reg: reg, logger: logger}
}

// NextImage serves image index to team. The index comes from the client and
// is trusted as is. Past the end of the sequence the game is completed for
// the team and GameOver is returned.
func (e *Engine) NextImage(ctx context.Context, team string, index int) (string, error) {
	st := e.states.Get(team)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := e.reg.CheckOpen(ctx, gamenight.GameAIOrNot, team); err != nil {
		return "", err
	}
	if index < 0 {
		return "", fmt.Errorf("%w: imageiter must not be negative", gamenight.ErrValidation)
	}

	if index >= len(e.images) {
		if _, err := e.reg.MarkCompleted(ctx, gamenight.GameAIOrNot, team); err != nil {
			return "", err
		}
		st.served = false
		e.logger.Info("quiz finished", "team", team)
		return GameOver, nil
	}

	st.current = e.images[index]
	st.served = true
	st.scored = false
	return st.current.URL, nil
}

type Verdict struct {
	Correct bool
	Score   int
}

// Verify compares guess with the label of the image last served to team,
// ignoring case. A correct guess is worth one point per served image.
func (e *Engine) Verify(ctx context.Context, team, guess string) (Verdict, error) {
	st := e.states.Get(team)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := e.reg.CheckOpen(ctx, gamenight.GameAIOrNot, team); err != nil {
		return Verdict{}, err
	}
	guess = strings.TrimSpace(guess)
	if guess == "" {
		return Verdict{}, fmt.Errorf("%w: user_guess is required", gamenight.ErrValidation)
	}
	if !st.served {
		return Verdict{}, fmt.Errorf("%w: no image has been sent yet", gamenight.ErrValidation)
	}

	if !strings.EqualFold(guess, st.current.Label) {
		score, err := e.reg.Score(ctx, team)
		return Verdict{Score: score}, err
	}

	if st.scored {
		score, err := e.reg.Score(ctx, team)
		return Verdict{Correct: true, Score: score}, err
	}
	score, err := e.reg.RecordScore(ctx, team, 1)
	if err != nil {
		return Verdict{}, err
	}
	st.scored = true
	return Verdict{Correct: true, Score: score}, nil
}

// Submit closes the quiz for team and returns its final score. Submitting
// after the sequence already ended is allowed.
func (e *Engine) Submit(ctx context.Context, team string) (int, error) {
	st := e.states.Get(team)
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, err := e.reg.MarkCompleted(ctx, gamenight.GameAIOrNot, team); err != nil {
		return 0, err
	}
	st.served = false
	return e.reg.Score(ctx, team)
}
