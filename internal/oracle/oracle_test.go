package oracle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leapfxp/gamenight/internal/gamenight"
	"github.com/leapfxp/gamenight/internal/teams"
	"github.com/leapfxp/gamenight/internal/teams/teamstest"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls []Request
	reply Reply
	err   error
	wait  time.Duration
}

func (f *fakeGenerator) Generate(ctx context.Context, req Request) (Reply, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.wait > 0 {
		select {
		case <-time.After(f.wait):
		case <-ctx.Done():
			return Reply{}, ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var threeStages = []string{"frame drop", "vibe coding", "case sensitive"}

func newEngine(t *testing.T, gen Generator, secrets []string) (*Engine, *teams.Registry) {
	t.Helper()
	reg := teamstest.New(t, nil, "alpha", "bravo")
	e, err := NewEngine(gen, reg, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{
		Secrets:    secrets,
		MaxGuesses: 3,
		Password:   "monkey",
		Timeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e, reg
}

func TestAskThreeStages(t *testing.T) {
	gen := &fakeGenerator{reply: Reply{Text: "The keeper smiles."}}
	e, reg := newEngine(t, gen, threeStages)
	ctx := context.Background()

	res, err := e.Ask(ctx, "alpha", "My official guess is frame drop")
	if err != nil {
		t.Fatalf("stage 1: %v", err)
	}
	if !res.StageCleared || res.Completed || res.Stage != 2 {
		t.Fatalf("stage 1 result = %+v", res)
	}
	if !strings.Contains(res.Response, "Stage 1 cleared") {
		t.Errorf("stage 1 response = %q", res.Response)
	}

	// A miss returns the model text verbatim.
	res, err = e.Ask(ctx, "alpha", "is it about music?")
	if err != nil {
		t.Fatalf("hint: %v", err)
	}
	if res.Response != "The keeper smiles." || res.StageCleared || res.Stage != 2 {
		t.Fatalf("hint result = %+v", res)
	}

	res, err = e.Ask(ctx, "alpha", "VIBE CODING?")
	if err != nil {
		t.Fatalf("stage 2: %v", err)
	}
	if !res.StageCleared || res.Stage != 3 {
		t.Fatalf("stage 2 result = %+v", res)
	}

	res, err = e.Ask(ctx, "alpha", "my official guess is case sensitive")
	if err != nil {
		t.Fatalf("stage 3: %v", err)
	}
	if !res.Completed {
		t.Fatalf("stage 3 result = %+v, want completed", res)
	}
	if !strings.Contains(res.Response, "CONGRATULATIONS") || !strings.Contains(res.Response, "Score(Number of Prompts): 4") {
		t.Errorf("victory response = %q", res.Response)
	}

	done, err := reg.IsCompleted(ctx, gamenight.GameInterroRoom, "alpha")
	if err != nil || !done {
		t.Fatalf("IsCompleted = %v, %v", done, err)
	}

	calls := gen.callCount()
	if _, err := e.Ask(ctx, "alpha", "hello again"); !errors.Is(err, gamenight.ErrAlreadyCompleted) {
		t.Fatalf("after completion err = %v, want ErrAlreadyCompleted", err)
	}
	if gen.callCount() != calls {
		t.Fatal("completed team reached the model")
	}
}

func TestAskStagesArePerTeam(t *testing.T) {
	gen := &fakeGenerator{reply: Reply{Text: "hmm"}}
	e, _ := newEngine(t, gen, threeStages)
	ctx := context.Background()

	if _, err := e.Ask(ctx, "alpha", "frame drop"); err != nil {
		t.Fatalf("alpha: %v", err)
	}

	// bravo is still on stage 1: the stage 2 phrase does not clear anything.
	res, err := e.Ask(ctx, "bravo", "vibe coding")
	if err != nil {
		t.Fatalf("bravo: %v", err)
	}
	if res.StageCleared || res.Stage != 1 {
		t.Fatalf("bravo result = %+v, want stage 1 uncleared", res)
	}
}

func TestAskSingleStage(t *testing.T) {
	gen := &fakeGenerator{reply: Reply{Text: "no"}}
	e, reg := newEngine(t, gen, []string{"high resolution"})

	res, err := e.Ask(context.Background(), "bravo", "I think it is High Resolution")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !res.Completed {
		t.Fatalf("result = %+v, want completed", res)
	}
	if done, _ := reg.IsCompleted(context.Background(), gamenight.GameInterroRoom, "bravo"); !done {
		t.Fatal("bravo should be completed")
	}
}

func TestAskModelFailure(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{name: "error", gen: &fakeGenerator{err: errors.New("boom")}},
		{name: "timeout", gen: &fakeGenerator{wait: 5 * time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, reg := newEngine(t, tt.gen, threeStages)
			e.cfg.Timeout = 20 * time.Millisecond

			res, err := e.Ask(context.Background(), "alpha", "frame drop")
			if err != nil {
				t.Fatalf("Ask = %v, want malfunction message instead", err)
			}
			if res.Response != MsgMalfunction {
				t.Fatalf("response = %q, want malfunction", res.Response)
			}
			if res.StageCleared || res.Stage != 1 {
				t.Fatalf("result = %+v, turn should be wasted", res)
			}
			if done, _ := reg.IsCompleted(context.Background(), gamenight.GameInterroRoom, "alpha"); done {
				t.Fatal("failed turn completed the game")
			}
		})
	}
}

func TestAskBlocked(t *testing.T) {
	e, _ := newEngine(t, &fakeGenerator{reply: Reply{Text: "should not show", Blocked: true}}, threeStages)

	res, err := e.Ask(context.Background(), "alpha", "something rude")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if res.Response != MsgBlocked {
		t.Fatalf("response = %q, want blocked message", res.Response)
	}
}

func TestAskContainmentBeatsBlock(t *testing.T) {
	e, _ := newEngine(t, &fakeGenerator{reply: Reply{Blocked: true}}, threeStages)

	res, err := e.Ask(context.Background(), "alpha", "frame drop")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !res.StageCleared {
		t.Fatalf("result = %+v, containment should clear the stage", res)
	}
}

func TestAskEmptyInput(t *testing.T) {
	gen := &fakeGenerator{}
	e, _ := newEngine(t, gen, threeStages)

	if _, err := e.Ask(context.Background(), "alpha", "   "); !errors.Is(err, gamenight.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if gen.callCount() != 0 {
		t.Fatal("empty input reached the model")
	}
}

func TestInstructionTracksOfficialGuesses(t *testing.T) {
	gen := &fakeGenerator{reply: Reply{Text: "no"}}
	e, _ := newEngine(t, gen, threeStages)
	ctx := context.Background()

	e.Ask(ctx, "alpha", "My official guess is pizza")
	e.Ask(ctx, "alpha", "is it edible?")

	gen.mu.Lock()
	defer gen.mu.Unlock()
	if !strings.Contains(gen.calls[0].System, "Official guesses remaining: 3") {
		t.Errorf("first instruction should have 3 guesses:\n%s", gen.calls[0].System)
	}
	if !strings.Contains(gen.calls[1].System, "Official guesses remaining: 2") {
		t.Errorf("second instruction should have 2 guesses:\n%s", gen.calls[1].System)
	}
	if !strings.Contains(gen.calls[0].System, `"frame drop"`) || !strings.Contains(gen.calls[0].System, "Stage: 1 of 3") {
		t.Errorf("instruction missing secret or stage:\n%s", gen.calls[0].System)
	}
	if gen.calls[1].Prompt != "is it edible?" {
		t.Errorf("prompt = %q", gen.calls[1].Prompt)
	}
}

func TestNewEngineRejectsEmptySecrets(t *testing.T) {
	reg := teamstest.New(t, nil, "alpha")
	if _, err := NewEngine(&fakeGenerator{}, reg, slog.Default(), Config{}); err == nil {
		t.Fatal("expected error for no secrets")
	}
	if _, err := NewEngine(&fakeGenerator{}, reg, slog.Default(), Config{Secrets: []string{"ok", " "}}); err == nil {
		t.Fatal("expected error for blank secret")
	}
}
