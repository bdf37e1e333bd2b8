// Package migrations holds the registry schema.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var fs embed.FS

// Run brings the registry schema up to date and returns the versions it
// applied. logger may be nil.
func Run(ctx context.Context, db *sql.DB, logger *slog.Logger) ([]int64, error) {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fs)
	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}

	results, err := p.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	applied := make([]int64, 0, len(results))
	for _, res := range results {
		applied = append(applied, res.Source.Version)
		if logger != nil {
			logger.Info("migration applied",
				"version", res.Source.Version,
				"duration_ms", res.Duration.Milliseconds(),
			)
		}
	}
	return applied, nil
}
