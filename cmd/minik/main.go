package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codeGROOVE-dev/minik/internal/app"
	"github.com/codeGROOVE-dev/minik/internal/auth"
	"github.com/codeGROOVE-dev/minik/internal/events"
	"github.com/codeGROOVE-dev/minik/internal/gh"
	"github.com/codeGROOVE-dev/minik/internal/server"
	"github.com/codeGROOVE-dev/minik/internal/state"
)

var rootCmd = &cobra.Command{
	Use:   "minik",
	Short: "Minik Kanban CLI",
	Long: `Minik mirrors GitHub Projects v2 boards as local Kanban views.
It lists your organizations and their boards, shows a board's columns
and items, moves items between columns, and remembers per-board
preferences (selected board, hidden columns) in the workspace.
Authentication is delegated to the gh CLI; set MINIK_TOKEN to bypass it.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	// Workspace .env may carry MINIK_TOKEN and friends.
	_ = godotenv.Load(filepath.Join(viper.GetString("workspace"), ".env"))
	viper.SetEnvPrefix("MINIK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("token", "", "GitHub bearer token (defaults to gh CLI)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}

func registerCommands() {
	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(orgCmd())
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(itemCmd())
	rootCmd.AddCommand(columnCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func authCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Verify GitHub authentication",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := resolveToken(); err != nil {
				return err
			}
			login, err := auth.CurrentUser()
			if err != nil {
				// Token works even when the login lookup does not.
				fmt.Println("authenticated")
				return nil
			}
			fmt.Printf("authenticated as %s\n", login)
			return nil
		},
	}
}

func orgCmd() *cobra.Command {
	org := &cobra.Command{Use: "org", Short: "GitHub organizations"}
	org.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List organizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *gh.Client, a *app.App) error {
				orgs, err := c.ListOrganizations(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(orgs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Login", "Name"})
				for _, o := range orgs {
					tw.AppendRow(table.Row{o.ID, o.Login, o.Name})
				}
				tw.Render()
				return nil
			})
		},
	})
	return org
}

func boardCmd() *cobra.Command {
	board := &cobra.Command{Use: "board", Short: "Project boards"}
	board.AddCommand(boardListCmd())
	board.AddCommand(boardShowCmd())
	board.AddCommand(boardUseCmd())
	return board
}

func boardListCmd() *cobra.Command {
	var org string
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List boards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *gh.Client, a *app.App) error {
				switch {
				case all:
					orgs, err := c.ListOrganizations(ctx)
					if err != nil {
						return err
					}
					logins := make([]string, 0, len(orgs))
					for _, o := range orgs {
						logins = append(logins, o.Login)
					}
					grouped := c.ListAllBoards(ctx, logins)
					if viper.GetBool("json") {
						return printJSON(grouped)
					}
					tw := table.NewWriter()
					tw.SetOutputMirror(os.Stdout)
					tw.AppendHeader(table.Row{"Org", "#", "Title", "ID", "URL"})
					for _, login := range logins {
						for _, b := range grouped[login] {
							tw.AppendRow(table.Row{login, b.Number, b.Title, b.ID, b.URL})
						}
					}
					tw.Render()
					return nil
				case org != "":
					boards, err := c.ListBoards(ctx, org)
					if err != nil {
						return err
					}
					if viper.GetBool("json") {
						return printJSON(boards)
					}
					tw := table.NewWriter()
					tw.SetOutputMirror(os.Stdout)
					tw.AppendHeader(table.Row{"#", "Title", "ID", "URL"})
					for _, b := range boards {
						tw.AppendRow(table.Row{b.Number, b.Title, b.ID, b.URL})
					}
					tw.Render()
					return nil
				default:
					return fmt.Errorf("--org or --all required")
				}
			})
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization login")
	cmd.Flags().BoolVar(&all, "all", false, "list boards across all organizations")
	return cmd
}

func boardShowCmd() *cobra.Command {
	var showHidden bool
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a board's columns and items",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			override := ""
			if len(args) == 1 {
				override = args[0]
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *gh.Client, a *app.App) error {
				boardID, err := a.ResolveBoard(ctx, override)
				if err != nil {
					return err
				}
				data, err := c.FetchBoard(ctx, boardID)
				if err != nil {
					return err
				}
				hidden, err := a.Store.HiddenColumns(ctx, boardID)
				if err != nil {
					return err
				}
				data.HiddenColumns = hidden
				if data.StatusFieldID != "" {
					if err := a.Store.SetStatusFieldID(ctx, boardID, data.StatusFieldID); err != nil {
						return err
					}
				}
				_ = a.Events.Append(ctx, events.TypeBoardFetched, boardID, "", events.EventPayload{
					"columns": len(data.Columns),
					"items":   len(data.Items),
				})
				if viper.GetBool("json") {
					return printJSON(data)
				}

				hiddenSet := map[string]bool{}
				for _, id := range data.HiddenColumns {
					hiddenSet[id] = true
				}
				columnName := map[string]string{}
				for _, col := range data.Columns {
					columnName[col.ID] = col.Name
				}

				fmt.Printf("%s (#%d) %s\n", data.Board.Title, data.Board.Number, data.Board.URL)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Column", "Items", "ID"})
				for _, col := range data.Columns {
					if hiddenSet[col.ID] && !showHidden {
						continue
					}
					name := col.Name
					if hiddenSet[col.ID] {
						name += " (hidden)"
					}
					tw.AppendRow(table.Row{name, col.ItemsCount, col.ID})
				}
				tw.Render()

				it := table.NewWriter()
				it.SetOutputMirror(os.Stdout)
				it.AppendHeader(table.Row{"Title", "Column", "Assignees", "Labels"})
				for _, item := range data.Items {
					if hiddenSet[item.ColumnID] && !showHidden {
						continue
					}
					it.AppendRow(table.Row{
						item.Title,
						columnName[item.ColumnID],
						strings.Join(item.Assignees, ", "),
						strings.Join(item.Labels, ", "),
					})
				}
				it.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showHidden, "hidden", false, "include hidden columns")
	return cmd
}

func boardUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Select the default board for this workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID := strings.TrimSpace(args[0])
			if boardID == "" {
				return fmt.Errorf("board id is required")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Store.SetSelectedBoard(ctx, boardID); err != nil {
					return err
				}
				_ = a.Events.Append(ctx, events.TypeBoardSelected, boardID, "", nil)
				fmt.Printf("selected board %s\n", boardID)
				return nil
			})
		},
	}
}

func itemCmd() *cobra.Command {
	item := &cobra.Command{Use: "item", Short: "Board items"}
	item.AddCommand(itemMoveCmd())
	return item
}

func itemMoveCmd() *cobra.Command {
	var boardOverride, target string
	cmd := &cobra.Command{
		Use:   "move <item-id>",
		Short: "Move an item to another column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID := args[0]
			if target == "" {
				return fmt.Errorf("--to required")
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *gh.Client, a *app.App) error {
				boardID, err := a.ResolveBoard(ctx, boardOverride)
				if err != nil {
					return err
				}
				// Fresh fetch resolves the status field id and the
				// target column in one round trip.
				data, err := c.FetchBoard(ctx, boardID)
				if err != nil {
					return err
				}
				columnID := ""
				for _, col := range data.Columns {
					if col.ID == target || col.Name == target {
						columnID = col.ID
						break
					}
				}
				if columnID == "" {
					return fmt.Errorf("column %q not found on board", target)
				}
				if err := c.MoveItem(ctx, boardID, itemID, data.StatusFieldID, columnID); err != nil {
					return err
				}
				if err := a.Store.SetStatusFieldID(ctx, boardID, data.StatusFieldID); err != nil {
					return err
				}
				_ = a.Events.Append(ctx, events.TypeItemMoved, boardID, itemID, events.EventPayload{
					"column_id": columnID,
				})
				fmt.Printf("moved %s to %s\n", itemID, target)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&boardOverride, "board", "", "board id (defaults to selected board)")
	cmd.Flags().StringVar(&target, "to", "", "target column id or name")
	return cmd
}

func columnCmd() *cobra.Command {
	column := &cobra.Command{Use: "column", Short: "Column visibility"}
	column.AddCommand(columnToggleCmd("hide", "Hide a column", state.Store.HideColumn, events.TypeColumnHidden))
	column.AddCommand(columnToggleCmd("show", "Unhide a column", state.Store.ShowColumn, events.TypeColumnShown))
	column.AddCommand(columnListCmd())
	return column
}

func columnToggleCmd(use, short string, apply func(state.Store, context.Context, string, string) error, evtType string) *cobra.Command {
	var boardOverride string
	cmd := &cobra.Command{
		Use:   use + " <column-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			columnID := args[0]
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				boardID, err := a.ResolveBoard(ctx, boardOverride)
				if err != nil {
					return err
				}
				if err := apply(a.Store, ctx, boardID, columnID); err != nil {
					return err
				}
				_ = a.Events.Append(ctx, evtType, boardID, columnID, nil)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&boardOverride, "board", "", "board id (defaults to selected board)")
	return cmd
}

func columnListCmd() *cobra.Command {
	var boardOverride string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List hidden columns for a board",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				boardID, err := a.ResolveBoard(ctx, boardOverride)
				if err != nil {
					return err
				}
				hidden, err := a.Store.HiddenColumns(ctx, boardID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string][]string{"hidden_columns": hidden})
				}
				for _, id := range hidden {
					fmt.Println(id)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&boardOverride, "board", "", "board id (defaults to selected board)")
	return cmd
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Local audit log"}
	var n int
	var evtType string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				evts, err := a.Events.Latest(ctx, n, evtType)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(evts)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"TS", "Type", "Board", "Entity", "Payload"})
				for _, e := range evts {
					tw.AppendRow(table.Row{e.TS, e.Type, e.BoardID, e.EntityID, e.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	tail.Flags().StringVar(&evtType, "type", "", "event type filter")
	lg.AddCommand(tail)
	return lg
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *gh.Client, a *app.App) error {
				handler, err := server.New(server.Config{
					Boards:      c,
					Store:       a.Store,
					Events:      a.Events,
					CurrentUser: auth.CurrentUser,
					BasePath:    basePath,
					Auth:        server.AuthConfig{JWTSecret: os.Getenv("MINIK_JWT_SECRET")},
				})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving Minik API on http://%s%s (OpenAPI at %s/openapi.json)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func resolveToken() (string, error) {
	if token := viper.GetString("token"); token != "" {
		return token, nil
	}
	return auth.Token()
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func withClient(ctx context.Context, fn func(context.Context, *gh.Client, *app.App) error) error {
	return withApp(ctx, func(ctx context.Context, a *app.App) error {
		token, err := resolveToken()
		if err != nil {
			return err
		}
		return fn(ctx, gh.New(token, a.Config), a)
	})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
