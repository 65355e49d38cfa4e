// Package gh synchronizes GitHub Projects v2 boards into a flat Kanban
// model: typed columns derived from the board's single-select status
// field, typed items with assignees and labels, and a single mutation
// path for moving an item between columns.
package gh

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/codeGROOVE-dev/minik/internal/config"
	"github.com/codeGROOVE-dev/minik/internal/domain"
)

// Client talks to the GitHub REST and GraphQL APIs with a bearer token.
// Every operation is one bounded network round trip with no retry;
// callers decide whether to try again. No field is written after New,
// so one Client is safe for concurrent use.
type Client struct {
	APIURL      string
	GraphQLURL  string
	UserAgent   string
	StatusField string
	Token       string
	HTTPClient  *http.Client
	Timeout     time.Duration
	Logger      *log.Logger
}

// New creates a client for the given bearer token, taking endpoints,
// user agent, status field name, and timeout from config.
func New(token string, cfg *config.Config) *Client {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Client{
		APIURL:      cfg.GitHub.APIURL,
		GraphQLURL:  cfg.GitHub.GraphQLURL,
		UserAgent:   cfg.GitHub.UserAgent,
		StatusField: cfg.Board.StatusField,
		Token:       token,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout()},
		Timeout:     cfg.Timeout(),
	}
}

func (c *Client) statusField() string {
	if c.StatusField == "" {
		return "Status"
	}
	return c.StatusField
}

// ListOrganizations returns the organizations the token's user belongs
// to. The single page the REST endpoint returns is taken as-is.
func (c *Client) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	data, err := c.restGet(ctx, "/user/orgs")
	if err != nil {
		return nil, err
	}
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, &ParseError{Path: "/user/orgs"}
	}
	orgs := []domain.Organization{}
	for _, o := range parsed.Array() {
		orgs = append(orgs, domain.Organization{
			ID:    o.Get("id").Uint(),
			Login: o.Get("login").String(),
			Name:  o.Get("name").String(),
		})
	}
	c.logger().Printf("fetched %d organizations", len(orgs))
	return orgs, nil
}

// ListBoards returns up to one page of an organization's boards. A
// malformed node list is a hard error here: the caller cannot proceed
// without it.
func (c *Client) ListBoards(ctx context.Context, login string) ([]domain.Board, error) {
	res, err := c.graphql(ctx, orgBoardsQuery, map[string]any{"org": login})
	if err != nil {
		return nil, err
	}
	nodes := res.Get("data.organization.projectsV2.nodes")
	if !nodes.IsArray() {
		return nil, &ParseError{Path: "data.organization.projectsV2.nodes"}
	}
	boards := []domain.Board{}
	for _, n := range nodes.Array() {
		id := n.Get("id").String()
		if id == "" {
			continue
		}
		boards = append(boards, domain.Board{
			ID:     id,
			Title:  n.Get("title").String(),
			Number: uint(n.Get("number").Uint()),
			URL:    n.Get("url").String(),
		})
	}
	c.logger().Printf("fetched %d boards for org %s", len(boards), login)
	return boards, nil
}

// ListAllBoards fans out one ListBoards call per organization and joins
// the results. A failed branch contributes an empty list for that
// organization rather than failing the aggregate.
func (c *Client) ListAllBoards(ctx context.Context, logins []string) map[string][]domain.Board {
	out := make(map[string][]domain.Board, len(logins))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, login := range logins {
		wg.Add(1)
		go func(login string) {
			defer wg.Done()
			boards, err := c.ListBoards(ctx, login)
			if err != nil {
				c.logger().Printf("list boards for org %s failed: %v", login, err)
				boards = []domain.Board{}
			}
			mu.Lock()
			out[login] = boards
			mu.Unlock()
		}(login)
	}
	wg.Wait()
	return out
}

// FetchBoard retrieves board metadata, columns, and items in one
// GraphQL round trip and merges per-column item counts. HiddenColumns
// is left empty for the caller to populate from local preferences.
func (c *Client) FetchBoard(ctx context.Context, boardID string) (*domain.BoardData, error) {
	res, err := c.graphql(ctx, boardQuery, map[string]any{"projectId": boardID})
	if err != nil {
		return nil, err
	}
	node := res.Get("data.node")
	if !node.Exists() || node.Type == gjson.Null {
		return nil, ErrNotFound
	}

	board := domain.Board{
		ID:     node.Get("id").String(),
		Title:  node.Get("title").String(),
		Number: uint(node.Get("number").Uint()),
		URL:    node.Get("url").String(),
	}
	columns, fieldID := extractColumns(node, c.statusField())
	items, counts := extractItems(node)
	for i := range columns {
		columns[i].ItemsCount = counts[columns[i].ID]
	}

	c.logger().Printf("fetched board %q: %d columns, %d items", board.Title, len(columns), len(items))
	return &domain.BoardData{
		Board:         board,
		Columns:       columns,
		Items:         items,
		StatusFieldID: fieldID,
		HiddenColumns: []string{},
	}, nil
}

// MoveItem sets an item's single-select status field to the target
// option. Success requires the mutation to respond without errors and
// with a non-null item id; there is no partial-success state, and no
// rollback is attempted on failure.
func (c *Client) MoveItem(ctx context.Context, boardID, itemID, fieldID, optionID string) error {
	if fieldID == "" {
		return ErrNoStatusField
	}
	res, err := c.graphql(ctx, moveItemMutation, map[string]any{
		"projectId": boardID,
		"itemId":    itemID,
		"fieldId":   fieldID,
		"value":     map[string]any{"singleSelectOptionId": optionID},
	})
	if err != nil {
		var gqlErr *GraphQLError
		if errors.As(err, &gqlErr) {
			return &MutationError{Detail: gqlErr.Error(), Err: gqlErr}
		}
		return err
	}
	id := res.Get("data.updateProjectV2ItemFieldValue.projectV2Item.id")
	if !id.Exists() || id.Type == gjson.Null || id.String() == "" {
		return &MutationError{Detail: "no item id in response"}
	}
	c.logger().Printf("moved item %s to column %s", itemID, optionID)
	return nil
}
