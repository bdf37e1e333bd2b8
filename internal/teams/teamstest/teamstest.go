// Package teamstest builds registries backed by in-memory databases for tests.
package teamstest

import (
	"context"
	"sync"
	"testing"

	"github.com/leapfxp/gamenight/internal/database"
	"github.com/leapfxp/gamenight/internal/gamenight"
	"github.com/leapfxp/gamenight/internal/migrations"
	"github.com/leapfxp/gamenight/internal/teams"
)

// New returns a migrated registry for names. The database is closed when the
// test ends.
func New(t *testing.T, notifier teams.Notifier, names ...string) *teams.Registry {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Memory)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := migrations.Run(ctx, db, nil); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	reg, err := teams.New(ctx, db, names, notifier)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg
}

// Recorder is a teams.Notifier that remembers what it was told.
type Recorder struct {
	mu        sync.Mutex
	Scores    []ScoreEvent
	Completed []CompletedEvent
}

type ScoreEvent struct {
	Team  string
	Score int
}

type CompletedEvent struct {
	Game gamenight.Game
	Team string
}

func (r *Recorder) ScoreChanged(team string, score int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Scores = append(r.Scores, ScoreEvent{Team: team, Score: score})
}

func (r *Recorder) GameCompleted(game gamenight.Game, team string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Completed = append(r.Completed, CompletedEvent{Game: game, Team: team})
}
