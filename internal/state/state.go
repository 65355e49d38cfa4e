// Package state persists local per-workspace preferences: the selected
// board, per-board hidden column sets, the last-seen status field id,
// and display toggles. The sync engine never touches this store; its
// values are injected into fetch results by the CLI and server.
package state

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Store struct {
	DB  *sql.DB
	Now func() time.Time
}

var ErrNotFound = errors.New("not found")

const (
	keySelectedBoard = "selected_board"
	keyShowOnlyMine  = "show_only_my_items"
)

func (s Store) now() string {
	if s.Now != nil {
		return s.Now().UTC().Format(time.RFC3339)
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func (s Store) getSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM settings WHERE key=?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

func (s Store) setSetting(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO settings(key,value) VALUES (?,?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value)
	return err
}

// SelectedBoard returns the currently selected board id, or ErrNotFound
// if none was ever selected.
func (s Store) SelectedBoard(ctx context.Context) (string, error) {
	return s.getSetting(ctx, keySelectedBoard)
}

func (s Store) SetSelectedBoard(ctx context.Context, boardID string) error {
	return s.setSetting(ctx, keySelectedBoard, boardID)
}

// ShowOnlyMine reports the show-only-my-items toggle; defaults to false.
func (s Store) ShowOnlyMine(ctx context.Context) (bool, error) {
	v, err := s.getSetting(ctx, keyShowOnlyMine)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "1", nil
}

func (s Store) SetShowOnlyMine(ctx context.Context, on bool) error {
	v := "0"
	if on {
		v = "1"
	}
	return s.setSetting(ctx, keyShowOnlyMine, v)
}

// StatusFieldID returns the last-seen status field id for a board, so a
// move can proceed without a fresh fetch. Empty string if unknown.
func (s Store) StatusFieldID(ctx context.Context, boardID string) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx, `SELECT status_field_id FROM board_prefs WHERE board_id=?`, boardID).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return id, err
}

func (s Store) SetStatusFieldID(ctx context.Context, boardID, fieldID string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO board_prefs(board_id,status_field_id,updated_at) VALUES (?,?,?)
		 ON CONFLICT(board_id) DO UPDATE SET status_field_id=excluded.status_field_id, updated_at=excluded.updated_at`,
		boardID, fieldID, s.now())
	return err
}

// HiddenColumns returns the hidden column ids for a board, in the order
// they were hidden. Never nil.
func (s Store) HiddenColumns(ctx context.Context, boardID string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT column_id FROM hidden_columns WHERE board_id=? ORDER BY rowid`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hidden := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		hidden = append(hidden, id)
	}
	return hidden, rows.Err()
}

func (s Store) HideColumn(ctx context.Context, boardID, columnID string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT OR IGNORE INTO hidden_columns(board_id,column_id) VALUES (?,?)`, boardID, columnID)
	return err
}

func (s Store) ShowColumn(ctx context.Context, boardID, columnID string) error {
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM hidden_columns WHERE board_id=? AND column_id=?`, boardID, columnID)
	return err
}
