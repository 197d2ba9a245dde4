package cli

import (
	"fmt"
	"sort"

	"nexdo/internal/model"

	"github.com/spf13/cobra"
)

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Users (assignees and activity actors)",
	}
	cmd.AddCommand(newUsersListCmd(app))
	cmd.AddCommand(newUsersAddCmd(app))
	cmd.AddCommand(newUsersUseCmd(app))
	return cmd
}

func newUsersListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			db := ws.Engine.DB()
			out := make([]model.User, 0, len(db.Users))
			for _, u := range db.Users {
				out = append(out, u)
			}
			sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
			return writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": map[string]any{"currentUserId": db.CurrentUserID},
			})
		},
	}
}

func newUsersAddCmd(app *App) *cobra.Command {
	var (
		name  string
		email string
		use   bool
	)

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			if !ws.Engine.AddUser(args[0], name, email) {
				return writeErr(cmd, fmt.Errorf("user already exists or id is empty: %q", args[0]))
			}
			if use {
				ws.Engine.UseUser(args[0])
			}
			if err := ws.saved(); err != nil {
				return writeErr(cmd, err)
			}
			u, _ := ws.Engine.DB().FindUser(args[0])
			return writeOut(cmd, app, map[string]any{"data": u})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (default: id)")
	cmd.Flags().StringVar(&email, "email", "", "Email")
	cmd.Flags().BoolVar(&use, "use", false, "Also make this the current user")
	return cmd
}

func newUsersUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Set the current (acting) user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			db := ws.Engine.DB()
			if _, ok := db.FindUser(args[0]); !ok {
				return writeErr(cmd, errNotFound("user", args[0]))
			}
			changed := ws.Engine.UseUser(args[0])
			if err := ws.saved(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"currentUserId": db.CurrentUserID},
				"meta": map[string]any{"changed": changed},
			})
		},
	}
}
