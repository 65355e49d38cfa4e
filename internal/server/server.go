// Package server exposes the board sync surface over a local HTTP API,
// mirroring the CLI commands one-to-one so other tooling can drive the
// same operations.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/codeGROOVE-dev/minik/internal/domain"
	"github.com/codeGROOVE-dev/minik/internal/events"
	"github.com/codeGROOVE-dev/minik/internal/gh"
	"github.com/codeGROOVE-dev/minik/internal/state"
)

// BoardService is the sync engine surface the handlers need. Satisfied
// by *gh.Client; tests substitute a stub.
type BoardService interface {
	ListOrganizations(ctx context.Context) ([]domain.Organization, error)
	ListBoards(ctx context.Context, login string) ([]domain.Board, error)
	ListAllBoards(ctx context.Context, logins []string) map[string][]domain.Board
	FetchBoard(ctx context.Context, boardID string) (*domain.BoardData, error)
	MoveItem(ctx context.Context, boardID, itemID, fieldID, optionID string) error
}

// Config for the HTTP API handler.
type Config struct {
	Boards      BoardService
	Store       state.Store
	Events      events.Writer
	CurrentUser func() (string, error)
	BasePath    string
	Auth        AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"board not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the minik API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Minik API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerUser(group, cfg)
	registerOrgs(group, cfg)
	registerBoards(group, cfg)
	registerColumns(group, cfg)
	registerSelection(group, cfg)
	registerEvents(group, cfg)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var mutErr *gh.MutationError
	var gqlErr *gh.GraphQLError
	var remoteErr *gh.RemoteError
	var transportErr *gh.TransportError
	var parseErr *gh.ParseError
	switch {
	case errors.Is(err, gh.ErrNotFound), errors.Is(err, state.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, gh.ErrNoStatusField):
		return newAPIError(http.StatusConflict, "status_field_unresolved", err.Error(), nil)
	case errors.As(err, &mutErr):
		return newAPIError(http.StatusBadGateway, "mutation_failed", err.Error(), nil)
	case errors.As(err, &gqlErr):
		return newAPIError(http.StatusBadGateway, "graphql_error", err.Error(), nil)
	case errors.As(err, &remoteErr):
		return newAPIError(http.StatusBadGateway, "upstream_error", err.Error(), map[string]any{"status": remoteErr.Status})
	case errors.As(err, &transportErr):
		return newAPIError(http.StatusBadGateway, "upstream_unreachable", err.Error(), nil)
	case errors.As(err, &parseErr):
		return newAPIError(http.StatusBadGateway, "upstream_parse_error", err.Error(), nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", err.Error(), nil)
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadGateway:
		return "upstream_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerUser(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "current-user",
		Method:      http.MethodGet,
		Path:        "/user",
		Summary:     "Authenticated GitHub login",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		if cfg.CurrentUser == nil {
			return nil, newAPIError(http.StatusNotImplemented, "", "user lookup not configured", nil)
		}
		login, err := cfg.CurrentUser()
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"login": login}}, nil
	})
}

func registerOrgs(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-orgs",
		Method:      http.MethodGet,
		Path:        "/orgs",
		Summary:     "List organizations",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Organization `json:"body"`
	}, error) {
		orgs, err := cfg.Boards.ListOrganizations(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Organization `json:"body"`
		}{Body: orgs}, nil
	})

	type orgPath struct {
		Login string `path:"login"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "list-org-boards",
		Method:      http.MethodGet,
		Path:        "/orgs/{login}/boards",
		Summary:     "List an organization's boards",
	}, func(ctx context.Context, input *orgPath) (*struct {
		Body []domain.Board `json:"body"`
	}, error) {
		boards, err := cfg.Boards.ListBoards(ctx, input.Login)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Board `json:"body"`
		}{Body: boards}, nil
	})
}

func registerBoards(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-all-boards",
		Method:      http.MethodGet,
		Path:        "/boards",
		Summary:     "List boards across all organizations",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string][]domain.Board `json:"body"`
	}, error) {
		orgs, err := cfg.Boards.ListOrganizations(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		logins := make([]string, 0, len(orgs))
		for _, o := range orgs {
			logins = append(logins, o.Login)
		}
		return &struct {
			Body map[string][]domain.Board `json:"body"`
		}{Body: cfg.Boards.ListAllBoards(ctx, logins)}, nil
	})

	type boardPath struct {
		BoardID string `path:"board_id"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/boards/{board_id}",
		Summary:     "Fetch a board with columns and items",
	}, func(ctx context.Context, input *boardPath) (*struct {
		Body domain.BoardData `json:"body"`
	}, error) {
		data, err := cfg.Boards.FetchBoard(ctx, input.BoardID)
		if err != nil {
			return nil, handleError(err)
		}
		hidden, err := cfg.Store.HiddenColumns(ctx, input.BoardID)
		if err != nil {
			return nil, handleError(err)
		}
		data.HiddenColumns = hidden
		if data.StatusFieldID != "" {
			if err := cfg.Store.SetStatusFieldID(ctx, input.BoardID, data.StatusFieldID); err != nil {
				return nil, handleError(err)
			}
		}
		_ = cfg.Events.Append(ctx, events.TypeBoardFetched, input.BoardID, "", events.EventPayload{
			"columns": len(data.Columns),
			"items":   len(data.Items),
		})
		return &struct {
			Body domain.BoardData `json:"body"`
		}{Body: *data}, nil
	})

	type moveInput struct {
		BoardID string `path:"board_id"`
		ItemID  string `path:"item_id"`
		Body    struct {
			ColumnID string `json:"column_id" minLength:"1"`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID: "move-item",
		Method:      http.MethodPost,
		Path:        "/boards/{board_id}/items/{item_id}/move",
		Summary:     "Move an item to another column",
	}, func(ctx context.Context, input *moveInput) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		fieldID, err := cfg.Store.StatusFieldID(ctx, input.BoardID)
		if err != nil {
			return nil, handleError(err)
		}
		if err := cfg.Boards.MoveItem(ctx, input.BoardID, input.ItemID, fieldID, input.Body.ColumnID); err != nil {
			return nil, handleError(err)
		}
		_ = cfg.Events.Append(ctx, events.TypeItemMoved, input.BoardID, input.ItemID, events.EventPayload{
			"column_id": input.Body.ColumnID,
		})
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "moved"}}, nil
	})
}

func registerColumns(api huma.API, cfg Config) {
	type boardPath struct {
		BoardID string `path:"board_id"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "hidden-columns",
		Method:      http.MethodGet,
		Path:        "/boards/{board_id}/columns/hidden",
		Summary:     "List hidden columns for a board",
	}, func(ctx context.Context, input *boardPath) (*struct {
		Body map[string][]string `json:"body"`
	}, error) {
		hidden, err := cfg.Store.HiddenColumns(ctx, input.BoardID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string][]string `json:"body"`
		}{Body: map[string][]string{"hidden_columns": hidden}}, nil
	})

	type columnPath struct {
		BoardID  string `path:"board_id"`
		ColumnID string `path:"column_id"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "hide-column",
		Method:      http.MethodPost,
		Path:        "/boards/{board_id}/columns/{column_id}/hide",
		Summary:     "Hide a column",
	}, func(ctx context.Context, input *columnPath) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		if err := cfg.Store.HideColumn(ctx, input.BoardID, input.ColumnID); err != nil {
			return nil, handleError(err)
		}
		_ = cfg.Events.Append(ctx, events.TypeColumnHidden, input.BoardID, input.ColumnID, nil)
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "hidden"}}, nil
	})
	huma.Register(api, huma.Operation{
		OperationID: "show-column",
		Method:      http.MethodPost,
		Path:        "/boards/{board_id}/columns/{column_id}/show",
		Summary:     "Unhide a column",
	}, func(ctx context.Context, input *columnPath) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		if err := cfg.Store.ShowColumn(ctx, input.BoardID, input.ColumnID); err != nil {
			return nil, handleError(err)
		}
		_ = cfg.Events.Append(ctx, events.TypeColumnShown, input.BoardID, input.ColumnID, nil)
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "shown"}}, nil
	})
}

func registerSelection(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "get-selected-board",
		Method:      http.MethodGet,
		Path:        "/selected",
		Summary:     "Currently selected board",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		id, err := cfg.Store.SelectedBoard(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"board_id": id}}, nil
	})

	type selectInput struct {
		Body struct {
			BoardID string `json:"board_id" minLength:"1"`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID: "select-board",
		Method:      http.MethodPut,
		Path:        "/selected",
		Summary:     "Select a board",
	}, func(ctx context.Context, input *selectInput) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		if err := cfg.Store.SetSelectedBoard(ctx, input.Body.BoardID); err != nil {
			return nil, handleError(err)
		}
		_ = cfg.Events.Append(ctx, events.TypeBoardSelected, input.Body.BoardID, "", nil)
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"board_id": input.Body.BoardID}}, nil
	})
}

func registerEvents(api huma.API, cfg Config) {
	type eventsQuery struct {
		N    int    `query:"n" default:"20" minimum:"1" maximum:"500"`
		Type string `query:"type"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Recent audit log entries",
	}, func(ctx context.Context, input *eventsQuery) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		evts, err := cfg.Events.Latest(ctx, input.N, input.Type)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: evts}, nil
	})
}
