package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"
)

// Memory is the path of a private in-memory registry.
const Memory = ":memory:"

// Open opens the registry database at path through libSQL. File databases
// run in WAL mode; the in-memory one is pinned to a single connection since
// each connection would otherwise get its own empty database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening registry db: %w", err)
	}

	pragmas := []string{"PRAGMA foreign_keys=ON"}
	if path == Memory {
		db.SetMaxOpenConns(1)
	} else {
		pragmas = append(pragmas,
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout=5000",
			"PRAGMA synchronous=NORMAL",
		)
	}

	// Some PRAGMAs return a row and libSQL refuses those through Exec.
	for _, p := range pragmas {
		rows, err := db.QueryContext(ctx, p)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		rows.Close()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging registry db: %w", err)
	}
	return db, nil
}
