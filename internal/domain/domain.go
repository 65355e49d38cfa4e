package domain

// Organization is a GitHub organization the authenticated user belongs to.
type Organization struct {
	ID    uint64 `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
}

// Board is a GitHub Projects v2 board. ID is the opaque GraphQL node id;
// Number is organization-scoped and only for display.
type Board struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Number uint   `json:"number"`
	URL    string `json:"url"`
}

// Column is one option of the board's single-select status field. ID is
// the option id, not the field id. Columns are re-derived on every fetch.
type Column struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ItemsCount int    `json:"items_count"`
}

// Item is an issue or pull request placed on a board. ColumnID references
// a Column.ID, or is empty when the item carries no single-select value.
type Item struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	URL       string   `json:"url,omitempty"`
	Assignees []string `json:"assignees"`
	Labels    []string `json:"labels"`
	ColumnID  string   `json:"column_id"`
}

// BoardData is the complete result of one board fetch. StatusFieldID is
// the field-level identifier needed for mutation; it is empty when the
// board has no matching status field. HiddenColumns is injected by the
// caller from local preference state, never by the fetch itself.
type BoardData struct {
	Board         Board    `json:"board"`
	Columns       []Column `json:"columns"`
	Items         []Item   `json:"items"`
	StatusFieldID string   `json:"status_field_id"`
	HiddenColumns []string `json:"hidden_columns"`
}

// Event is one entry of the local audit log.
type Event struct {
	ID       int64  `json:"id"`
	TS       string `json:"ts" format:"date-time"`
	Type     string `json:"type"`
	BoardID  string `json:"board_id,omitempty"`
	EntityID string `json:"entity_id,omitempty"`
	Payload  string `json:"payload_json"`
}
