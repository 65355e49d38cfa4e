package gh

import (
	"testing"

	"github.com/tidwall/gjson"
)

const boardNodeFixture = `{
	"id": "PVT_1",
	"title": "Roadmap",
	"number": 7,
	"url": "https://github.com/orgs/acme/projects/7",
	"views": {"nodes": [{"fields": {"nodes": [
		{},
		{"id": "F_prio", "name": "Priority", "options": [{"id": "P1", "name": "High"}]},
		{"id": "F_status", "name": "Status", "options": [
			{"id": "O1", "name": "Todo"},
			{"id": "O2", "name": "Done"}
		]}
	]}}]},
	"items": {"nodes": [
		{
			"id": "I1",
			"content": {
				"title": "Fix login",
				"url": "https://github.com/acme/app/issues/1",
				"assignees": {"nodes": [{"login": "alice"}, {"login": "bob"}]},
				"labels": {"nodes": [{"name": "bug"}]}
			},
			"fieldValues": {"nodes": [{}, {"optionId": "O1", "field": {"id": "F_status"}}]}
		},
		{
			"id": "I2",
			"content": {"title": "Write docs"},
			"fieldValues": {"nodes": []}
		},
		{
			"id": "I3",
			"content": null,
			"fieldValues": {"nodes": [{"optionId": "O2"}]}
		}
	]}
}`

func TestExtractColumns(t *testing.T) {
	node := gjson.Parse(boardNodeFixture)
	columns, fieldID := extractColumns(node, "Status")
	if fieldID != "F_status" {
		t.Fatalf("field id: got %q", fieldID)
	}
	if len(columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(columns))
	}
	if columns[0].ID != "O1" || columns[0].Name != "Todo" {
		t.Fatalf("unexpected first column: %+v", columns[0])
	}
	if columns[1].ID != "O2" || columns[1].Name != "Done" {
		t.Fatalf("unexpected second column: %+v", columns[1])
	}
	for _, c := range columns {
		if c.ItemsCount != 0 {
			t.Fatalf("extraction must not count items, got %d for %s", c.ItemsCount, c.ID)
		}
	}
}

func TestExtractColumnsSkipsSameNamedNonSelectField(t *testing.T) {
	node := gjson.Parse(`{"views": {"nodes": [{"fields": {"nodes": [
		{"id": "F_text", "name": "Status"},
		{"id": "F_real", "name": "Status", "options": [{"id": "O1", "name": "Todo"}]}
	]}}]}}`)
	columns, fieldID := extractColumns(node, "Status")
	if fieldID != "F_real" {
		t.Fatalf("expected the single-select field, got %q", fieldID)
	}
	if len(columns) != 1 || columns[0].ID != "O1" {
		t.Fatalf("unexpected columns: %+v", columns)
	}
}

func TestExtractColumnsNoViews(t *testing.T) {
	columns, fieldID := extractColumns(gjson.Parse(`{"views": {"nodes": []}}`), "Status")
	if len(columns) != 0 || fieldID != "" {
		t.Fatalf("expected empty result, got %d columns, field %q", len(columns), fieldID)
	}
	columns, fieldID = extractColumns(gjson.Parse(`{}`), "Status")
	if len(columns) != 0 || fieldID != "" {
		t.Fatalf("expected empty result for missing views, got %d columns, field %q", len(columns), fieldID)
	}
}

func TestExtractColumnsFieldWithoutOptions(t *testing.T) {
	node := gjson.Parse(`{"views": {"nodes": [{"fields": {"nodes": [
		{"id": "F1", "name": "Status", "options": []}
	]}}]}}`)
	columns, fieldID := extractColumns(node, "Status")
	if fieldID != "F1" {
		t.Fatalf("field id should still be captured, got %q", fieldID)
	}
	if len(columns) != 0 {
		t.Fatalf("expected no columns, got %d", len(columns))
	}
}

func TestExtractColumnsNameIsCaseSensitive(t *testing.T) {
	node := gjson.Parse(`{"views": {"nodes": [{"fields": {"nodes": [
		{"id": "F1", "name": "status", "options": [{"id": "O1", "name": "Todo"}]}
	]}}]}}`)
	columns, fieldID := extractColumns(node, "Status")
	if len(columns) != 0 || fieldID != "" {
		t.Fatalf("lowercase name must not match, got %d columns, field %q", len(columns), fieldID)
	}
}

func TestExtractItems(t *testing.T) {
	node := gjson.Parse(boardNodeFixture)
	items, counts := extractItems(node)

	// I3 has null content and contributes nothing anywhere.
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if counts["O2"] != 0 {
		t.Fatalf("null-content item must not be counted, got %d", counts["O2"])
	}

	first := items[0]
	if first.ID != "I1" || first.Title != "Fix login" || first.ColumnID != "O1" {
		t.Fatalf("unexpected first item: %+v", first)
	}
	if first.URL != "https://github.com/acme/app/issues/1" {
		t.Fatalf("unexpected url: %q", first.URL)
	}
	if len(first.Assignees) != 2 || first.Assignees[0] != "alice" || first.Assignees[1] != "bob" {
		t.Fatalf("unexpected assignees: %v", first.Assignees)
	}
	if len(first.Labels) != 1 || first.Labels[0] != "bug" {
		t.Fatalf("unexpected labels: %v", first.Labels)
	}

	second := items[1]
	if second.ColumnID != "" {
		t.Fatalf("item without field value must be unclassified, got %q", second.ColumnID)
	}
	if second.URL != "" {
		t.Fatalf("missing url must stay empty, got %q", second.URL)
	}
	if second.Assignees == nil || second.Labels == nil {
		t.Fatalf("assignees/labels must be empty lists, not nil")
	}

	if counts["O1"] != 1 {
		t.Fatalf("expected 1 item in O1, got %d", counts["O1"])
	}
	if _, ok := counts[""]; ok {
		t.Fatalf("unclassified items must not be counted")
	}
}

func TestExtractItemsUntitledDefault(t *testing.T) {
	node := gjson.Parse(`{"items": {"nodes": [
		{"id": "I1", "content": {}}
	]}}`)
	items, _ := extractItems(node)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Title != "Untitled" {
		t.Fatalf("expected placeholder title, got %q", items[0].Title)
	}
}

func TestExtractItemsFirstOptionWins(t *testing.T) {
	node := gjson.Parse(`{"items": {"nodes": [
		{"id": "I1", "content": {"title": "t"}, "fieldValues": {"nodes": [
			{"optionId": "O1"},
			{"optionId": "O9"}
		]}}
	]}}`)
	items, counts := extractItems(node)
	if items[0].ColumnID != "O1" {
		t.Fatalf("first option must win, got %q", items[0].ColumnID)
	}
	if counts["O9"] != 0 {
		t.Fatalf("later options must be ignored")
	}
}

func TestExtractItemsMissingNodesList(t *testing.T) {
	items, counts := extractItems(gjson.Parse(`{}`))
	if len(items) != 0 || len(counts) != 0 {
		t.Fatalf("expected empty result, got %d items", len(items))
	}
}
