package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/minik/internal/domain"
)

// Event types written by the CLI and server.
const (
	TypeBoardFetched  = "board.fetched"
	TypeBoardSelected = "board.selected"
	TypeItemMoved     = "item.moved"
	TypeColumnHidden  = "column.hidden"
	TypeColumnShown   = "column.shown"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type EventPayload map[string]any

// Append records one audit log entry. Payloads are small JSON objects;
// a nil payload is stored as {}.
func (w Writer) Append(ctx context.Context, evtType, boardID, entityID string, payload EventPayload) error {
	now := w.Now
	if now == nil {
		now = time.Now
	}
	ts := now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = w.DB.ExecContext(ctx, `INSERT INTO events(ts,type,board_id,entity_id,payload_json) VALUES (?,?,?,?,?)`,
		ts, evtType, nullable(boardID), nullable(entityID), string(data))
	return err
}

// Latest returns up to n most recent events, optionally filtered by type.
func (w Writer) Latest(ctx context.Context, n int, evtType string) ([]domain.Event, error) {
	if n <= 0 {
		n = 20
	}
	query := `SELECT id,ts,type,COALESCE(board_id,''),COALESCE(entity_id,''),payload_json FROM events`
	args := []any{}
	if evtType != "" {
		query += ` WHERE type=?`
		args = append(args, evtType)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, n)

	rows, err := w.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Event{}
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.BoardID, &e.EntityID, &e.Payload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
