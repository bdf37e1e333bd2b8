// Package teams is the team registry and scoreboard. It owns each team's
// score, its per-game completion flags and its upload sequence. The set of
// teams is fixed when the registry is created.
package teams

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/leapfxp/gamenight/internal/gamenight"
)

// Notifier is told about every scoreboard change after it is committed.
type Notifier interface {
	ScoreChanged(team string, score int)
	GameCompleted(game gamenight.Game, team string)
}

type Registry struct {
	db       *sql.DB
	known    map[string]struct{}
	notifier Notifier
}

// New seeds a row for every team name. Existing rows keep their state.
// notifier may be nil.
func New(ctx context.Context, db *sql.DB, names []string, notifier Notifier) (*Registry, error) {
	r := &Registry{
		db:       db,
		known:    make(map[string]struct{}, len(names)),
		notifier: notifier,
	}
	for _, name := range names {
		if _, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO teams (name) VALUES (?)`, name,
		); err != nil {
			return nil, fmt.Errorf("seeding team %q: %w", name, err)
		}
		r.known[name] = struct{}{}
	}
	return r, nil
}

// Known reports whether team is one of the provisioned teams.
func (r *Registry) Known(team string) bool {
	_, ok := r.known[team]
	return ok
}

func (r *Registry) mustKnow(team string) error {
	if !r.Known(team) {
		return fmt.Errorf("%w: team %q", gamenight.ErrNotFound, team)
	}
	return nil
}

// RecordScore atomically adds delta to the team's score and returns the new
// total. Scores never decrease, so delta must be positive.
func (r *Registry) RecordScore(ctx context.Context, team string, delta int) (int, error) {
	if err := r.mustKnow(team); err != nil {
		return 0, err
	}
	if delta <= 0 {
		return 0, fmt.Errorf("%w: score delta must be positive, got %d", gamenight.ErrValidation, delta)
	}

	var score int
	err := r.db.QueryRowContext(ctx,
		`UPDATE teams SET score = score + ? WHERE name = ? RETURNING score`,
		delta, team,
	).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("recording score for %q: %w", team, err)
	}

	if r.notifier != nil {
		r.notifier.ScoreChanged(team, score)
	}
	return score, nil
}

// Score returns one team's score.
func (r *Registry) Score(ctx context.Context, team string) (int, error) {
	if err := r.mustKnow(team); err != nil {
		return 0, err
	}
	var score int
	err := r.db.QueryRowContext(ctx,
		`SELECT score FROM teams WHERE name = ?`, team,
	).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("reading score for %q: %w", team, err)
	}
	return score, nil
}

// Scores returns every team's score.
func (r *Registry) Scores(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, score FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[string]int, len(r.known))
	for rows.Next() {
		var (
			name  string
			score int
		)
		if err := rows.Scan(&name, &score); err != nil {
			return nil, err
		}
		if r.Known(name) {
			scores[name] = score
		}
	}
	return scores, rows.Err()
}

// MarkCompleted sets the completion flag for (game, team). Flags are never
// cleared. It reports whether this call set the flag.
func (r *Registry) MarkCompleted(ctx context.Context, game gamenight.Game, team string) (bool, error) {
	if err := r.mustKnow(team); err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO completions (game, team, completed_at) VALUES (?, ?, ?)`,
		string(game), team, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("marking %s completed for %q: %w", game, team, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}

	if r.notifier != nil {
		r.notifier.GameCompleted(game, team)
	}
	return true, nil
}

// IsCompleted reports the completion flag for (game, team).
func (r *Registry) IsCompleted(ctx context.Context, game gamenight.Game, team string) (bool, error) {
	if err := r.mustKnow(team); err != nil {
		return false, err
	}
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM completions WHERE game = ? AND team = ?`, string(game), team,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading completion of %s for %q: %w", game, team, err)
	}
	return true, nil
}

// CheckOpen fails with gamenight.ErrAlreadyCompleted once (game, team) is done.
func (r *Registry) CheckOpen(ctx context.Context, game gamenight.Game, team string) error {
	done, err := r.IsCompleted(ctx, game, team)
	if err != nil {
		return err
	}
	if done {
		return fmt.Errorf("%w: %s for team %q", gamenight.ErrAlreadyCompleted, game, team)
	}
	return nil
}

// UploadSeq returns the highest upload index recorded for team, 0 if none.
func (r *Registry) UploadSeq(ctx context.Context, team string) (int, error) {
	if err := r.mustKnow(team); err != nil {
		return 0, err
	}
	var seq int
	err := r.db.QueryRowContext(ctx,
		`SELECT upload_seq FROM teams WHERE name = ?`, team,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("reading upload seq for %q: %w", team, err)
	}
	return seq, nil
}

// CommitUploads records last as the team's highest used upload index. The
// sequence never moves backwards.
func (r *Registry) CommitUploads(ctx context.Context, team string, last int) error {
	if err := r.mustKnow(team); err != nil {
		return err
	}
	if last <= 0 {
		return fmt.Errorf("%w: upload index must be positive", gamenight.ErrValidation)
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE teams SET upload_seq = MAX(upload_seq, ?) WHERE name = ?`, last, team,
	); err != nil {
		return fmt.Errorf("committing uploads for %q: %w", team, err)
	}
	return nil
}
