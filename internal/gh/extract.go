package gh

import (
	"github.com/tidwall/gjson"

	"github.com/codeGROOVE-dev/minik/internal/domain"
)

// untitledPlaceholder stands in for items whose content has no title.
const untitledPlaceholder = "Untitled"

// extractColumns locates the single-select status field in the board
// node's first view and returns its options as columns, plus the field
// id needed for mutation. A board without views or without a matching
// field yields an empty column list and empty field id; that is valid
// input, not an error.
func extractColumns(node gjson.Result, statusField string) ([]domain.Column, string) {
	columns := []domain.Column{}
	fieldID := ""
	fields := node.Get("views.nodes.0.fields.nodes")
	for _, field := range fields.Array() {
		options := field.Get("options")
		if field.Get("name").String() != statusField || !options.IsArray() {
			continue
		}
		fieldID = field.Get("id").String()
		for _, option := range options.Array() {
			columns = append(columns, domain.Column{
				ID:   option.Get("id").String(),
				Name: option.Get("name").String(),
			})
		}
		break
	}
	return columns, fieldID
}

// extractItems flattens the board node's items list. Items whose
// content is null (deleted or inaccessible issue/PR) are skipped
// entirely. The first field value carrying a single-select option id
// classifies the item; counts accumulate per non-empty column id.
// Missing leaves default to empty values, never to a failure.
func extractItems(node gjson.Result) ([]domain.Item, map[string]int) {
	items := []domain.Item{}
	counts := map[string]int{}
	for _, raw := range node.Get("items.nodes").Array() {
		content := raw.Get("content")
		if !content.Exists() || content.Type == gjson.Null {
			continue
		}
		title := content.Get("title").String()
		if title == "" {
			title = untitledPlaceholder
		}
		columnID := ""
		for _, fv := range raw.Get("fieldValues.nodes").Array() {
			if optionID := fv.Get("optionId").String(); optionID != "" {
				columnID = optionID
				counts[optionID]++
				break
			}
		}
		items = append(items, domain.Item{
			ID:        raw.Get("id").String(),
			Title:     title,
			URL:       content.Get("url").String(),
			Assignees: stringLeaves(content.Get("assignees.nodes"), "login"),
			Labels:    stringLeaves(content.Get("labels.nodes"), "name"),
			ColumnID:  columnID,
		})
	}
	return items, counts
}

// stringLeaves collects the named leaf of each node, dropping nodes
// where it is absent.
func stringLeaves(nodes gjson.Result, key string) []string {
	out := []string{}
	for _, n := range nodes.Array() {
		if v := n.Get(key); v.Exists() && v.String() != "" {
			out = append(out, v.String())
		}
	}
	return out
}
