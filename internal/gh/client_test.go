package gh

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/codeGROOVE-dev/minik/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := config.Default()
	cfg.GitHub.APIURL = srv.URL
	cfg.GitHub.GraphQLURL = srv.URL + "/graphql"
	return New("test-token", cfg)
}

func TestFetchBoardEndToEnd(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("missing bearer token, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "Minik-Kanban-App" {
			t.Errorf("unexpected user agent %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing request id")
		}
		io.WriteString(w, `{"data": {"node": `+boardNodeFixture+`}}`)
	})

	data, err := client.FetchBoard(context.Background(), "PVT_1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if data.Board.ID != "PVT_1" || data.Board.Title != "Roadmap" || data.Board.Number != 7 {
		t.Fatalf("unexpected board: %+v", data.Board)
	}
	if data.StatusFieldID != "F_status" {
		t.Fatalf("status field id: %q", data.StatusFieldID)
	}
	if len(data.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(data.Columns))
	}
	// Count invariant: merged counts match the items carrying each id.
	for _, col := range data.Columns {
		want := 0
		for _, item := range data.Items {
			if item.ColumnID == col.ID {
				want++
			}
		}
		if col.ItemsCount != want {
			t.Fatalf("column %s count %d, want %d", col.ID, col.ItemsCount, want)
		}
	}
	if data.Columns[0].ItemsCount != 1 || data.Columns[1].ItemsCount != 0 {
		t.Fatalf("unexpected counts: %+v", data.Columns)
	}
	if len(data.HiddenColumns) != 0 {
		t.Fatalf("hidden columns must start empty")
	}

	// Idempotence: a second fetch of unchanged remote state is equal.
	again, err := client.FetchBoard(context.Background(), "PVT_1")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !reflect.DeepEqual(data, again) {
		t.Fatalf("fetches differ:\n%+v\n%+v", data, again)
	}
}

func TestFetchBoardNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": {"node": null}}`)
	})
	_, err := client.FetchBoard(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGraphQLErrorsOnHTTP200(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"errors": [{"message": "bad cursor"}, {"message": "rate limited"}]}`)
	})
	_, err := client.FetchBoard(context.Background(), "PVT_1")
	var gqlErr *GraphQLError
	if !errors.As(err, &gqlErr) {
		t.Fatalf("expected GraphQLError, got %v", err)
	}
	if len(gqlErr.Messages) != 2 || gqlErr.Messages[0] != "bad cursor" {
		t.Fatalf("unexpected messages: %v", gqlErr.Messages)
	}
}

func TestRemoteError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message": "Bad credentials"}`)
	})
	_, err := client.ListOrganizations(context.Background())
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remoteErr.Status != http.StatusUnauthorized {
		t.Fatalf("status: %d", remoteErr.Status)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := config.Default()
	cfg.GitHub.APIURL = srv.URL
	cfg.GitHub.GraphQLURL = srv.URL + "/graphql"
	srv.Close() // connection refused from here on
	client := New("test-token", cfg)

	_, err := client.ListOrganizations(context.Background())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestListOrganizations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/orgs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, `[{"id": 1, "login": "acme", "name": "Acme Inc"}, {"id": 2, "login": "umbrella"}]`)
	})
	orgs, err := client.ListOrganizations(context.Background())
	if err != nil {
		t.Fatalf("list orgs: %v", err)
	}
	if len(orgs) != 2 {
		t.Fatalf("expected 2 orgs, got %d", len(orgs))
	}
	if orgs[0].ID != 1 || orgs[0].Login != "acme" || orgs[0].Name != "Acme Inc" {
		t.Fatalf("unexpected org: %+v", orgs[0])
	}
	if orgs[1].Name != "" {
		t.Fatalf("absent name must default to empty, got %q", orgs[1].Name)
	}
}

func TestListOrganizationsParseError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"message": "not an array"}`)
	})
	_, err := client.ListOrganizations(context.Background())
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestListBoards(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if org := gjson.GetBytes(body, "variables.org").String(); org != "acme" {
			t.Errorf("unexpected org variable %q", org)
		}
		io.WriteString(w, `{"data": {"organization": {"projectsV2": {"nodes": [
			{"id": "PVT_1", "title": "Roadmap", "number": 7, "url": "https://example.com/7"},
			{"title": "no id, dropped"}
		]}}}}`)
	})
	boards, err := client.ListBoards(context.Background(), "acme")
	if err != nil {
		t.Fatalf("list boards: %v", err)
	}
	if len(boards) != 1 {
		t.Fatalf("expected 1 board, got %d", len(boards))
	}
	if boards[0].ID != "PVT_1" || boards[0].Number != 7 {
		t.Fatalf("unexpected board: %+v", boards[0])
	}
}

func TestListBoardsParseError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": {"organization": null}}`)
	})
	_, err := client.ListBoards(context.Background(), "gone")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestListAllBoardsPartialFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		org := gjson.GetBytes(body, "variables.org").String()
		if org == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, `{"data": {"organization": {"projectsV2": {"nodes": [
			{"id": "PVT_`+org+`", "title": "Board", "number": 1, "url": "u"}
		]}}}}`)
	})

	got := client.ListAllBoards(context.Background(), []string{"alpha", "broken", "charlie"})
	if len(got) != 3 {
		t.Fatalf("expected entries for all orgs, got %d", len(got))
	}
	if len(got["alpha"]) != 1 || len(got["charlie"]) != 1 {
		t.Fatalf("healthy branches must survive: %+v", got)
	}
	if len(got["broken"]) != 0 {
		t.Fatalf("failed branch must contribute an empty list, got %+v", got["broken"])
	}
}

func TestListAllBoardsSharedClientFanOut(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		org := gjson.GetBytes(body, "variables.org").String()
		io.WriteString(w, `{"data": {"organization": {"projectsV2": {"nodes": [
			{"id": "PVT_`+org+`", "title": "Board", "number": 1, "url": "u"}
		]}}}}`)
	})
	before := client.HTTPClient
	if before == nil {
		t.Fatal("New must build the http client up front")
	}

	logins := []string{"a", "b", "c", "d", "e", "f"}
	got := client.ListAllBoards(context.Background(), logins)
	if len(got) != len(logins) {
		t.Fatalf("expected %d orgs, got %d", len(logins), len(got))
	}
	for _, login := range logins {
		if len(got[login]) != 1 || got[login][0].ID != "PVT_"+login {
			t.Fatalf("org %s: %+v", login, got[login])
		}
	}
	// Fan-out goroutines share the client read-only.
	if client.HTTPClient != before {
		t.Fatal("client must not be mutated during fan-out")
	}
}

func TestMoveItemWithoutStatusFieldMakesNoCall(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})
	err := client.MoveItem(context.Background(), "PVT_1", "I1", "", "O2")
	if !errors.Is(err, ErrNoStatusField) {
		t.Fatalf("expected ErrNoStatusField, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no network call, got %d", calls)
	}
}

func TestMoveItemSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		vars := gjson.GetBytes(body, "variables")
		if vars.Get("fieldId").String() != "F_status" {
			t.Errorf("field id not forwarded: %s", vars.Raw)
		}
		if vars.Get("value.singleSelectOptionId").String() != "O2" {
			t.Errorf("option id not forwarded: %s", vars.Raw)
		}
		io.WriteString(w, `{"data": {"updateProjectV2ItemFieldValue": {"projectV2Item": {"id": "I1"}}}}`)
	})
	if err := client.MoveItem(context.Background(), "PVT_1", "I1", "F_status", "O2"); err != nil {
		t.Fatalf("move: %v", err)
	}
}

func TestMoveItemNullItemID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": {"updateProjectV2ItemFieldValue": {"projectV2Item": null}}}`)
	})
	err := client.MoveItem(context.Background(), "PVT_1", "I1", "F_status", "O2")
	var mutErr *MutationError
	if !errors.As(err, &mutErr) {
		t.Fatalf("expected MutationError, got %v", err)
	}
}

func TestMoveItemGraphQLErrorClassifiedAsMutationFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"errors": [{"message": "field not found"}]}`)
	})
	err := client.MoveItem(context.Background(), "PVT_1", "I1", "F_status", "O2")
	var mutErr *MutationError
	if !errors.As(err, &mutErr) {
		t.Fatalf("expected MutationError, got %v", err)
	}
	// The underlying GraphQL classification stays visible.
	var gqlErr *GraphQLError
	if !errors.As(err, &gqlErr) {
		t.Fatalf("expected wrapped GraphQLError, got %v", err)
	}
}
