package cli

import (
	"nexdo/internal/model"
	"nexdo/internal/publish"

	"github.com/spf13/cobra"
)

type activityView struct {
	model.Activity
	Summary string `json:"summary"`
}

func newActivityCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Task activity log",
	}
	cmd.AddCommand(newActivityListCmd(app))
	return cmd
}

func newActivityListCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list <task-id>",
		Short: "List a task's activity (most recent first)",
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
			all := db.Activities(id)
			out := make([]activityView, 0, len(all))
			for _, a := range all {
				if limit > 0 && len(out) == limit {
					break
				}
				out = append(out, activityView{Activity: a, Summary: publish.DescribeActivity(db, a)})
			}
			return writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": map[string]any{"total": len(all), "returned": len(out)},
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Max entries to return (0 = all)")
	return cmd
}
