package cli

import (
	"errors"
	"strings"

	"nexdo/internal/model"

	"github.com/spf13/cobra"
)

func newCommentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Comment commands",
	}
	cmd.AddCommand(newCommentsAddCmd(app))
	cmd.AddCommand(newCommentsListCmd(app))
	return cmd
}

func newCommentsAddCmd(app *App) *cobra.Command {
	var body string

	cmd := &cobra.Command{
		Use:   "add <task-id>",
		Short: "Add a comment to a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body = strings.TrimSpace(body)
			if body == "" {
				return writeErr(cmd, errors.New("comment body is empty"))
			}
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()
			db := ws.Engine.DB()

			id, err := db.ResolveTaskID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if !ws.Engine.AddComment(id, body) {
				return writeErr(cmd, errNotFound("task", id))
			}
			if err := ws.saved(); err != nil {
				return writeErr(cmd, err)
			}
			// Activity is most recent first.
			return writeOut(cmd, app, map[string]any{"data": db.Activities(id)[0]})
		},
	}

	cmd.Flags().StringVar(&body, "body", "", "Comment body (markdown)")
	_ = cmd.MarkFlagRequired("body")
	return cmd
}

func newCommentsListCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list <task-id>",
		Short: "List comments for a task (most recent first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()
			db := ws.Engine.DB()

			id, err := db.ResolveTaskID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			out := []model.Activity{}
			for _, a := range db.Activities(id) {
				if a.Type == model.ActivityComment {
					out = append(out, a)
				}
			}
			total := len(out)
			if limit > 0 && len(out) > limit {
				out = out[:limit]
			}
			return writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": map[string]any{"total": total, "returned": len(out)},
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Max comments to return (0 = all)")
	return cmd
}
