package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/codeGROOVE-dev/minik/internal/config"
	"github.com/codeGROOVE-dev/minik/internal/db"
	"github.com/codeGROOVE-dev/minik/internal/events"
	"github.com/codeGROOVE-dev/minik/internal/migrate"
	"github.com/codeGROOVE-dev/minik/internal/state"
)

// App bundles the per-workspace collaborators the CLI and server share:
// config, preference store, and audit log, all backed by one database.
type App struct {
	DB     *sql.DB
	Config *config.Config
	Store  state.Store
	Events events.Writer
}

// Open prepares the workspace: ensures the .minik directory, opens and
// migrates the database, and loads minik.yml (defaults if absent).
func Open(workspace string) (*App, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &App{
		DB:     conn,
		Config: cfg,
		Store:  state.Store{DB: conn},
		Events: events.Writer{DB: conn},
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}

// ResolveBoard picks the board to operate on: an explicit override
// wins, otherwise the stored selection.
func (a *App) ResolveBoard(ctx context.Context, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	id, err := a.Store.SelectedBoard(ctx)
	if errors.Is(err, state.ErrNotFound) || id == "" {
		return "", fmt.Errorf("board not specified; use --board or run 'minik board use <id>'")
	}
	return id, err
}
