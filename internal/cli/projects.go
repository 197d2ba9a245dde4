package cli

import (
	"errors"
	"sort"

	"nexdo/internal/model"

	"github.com/spf13/cobra"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Project commands",
	}
	cmd.AddCommand(newProjectsAddCmd(app))
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsRenameCmd(app))
	cmd.AddCommand(newProjectsDeleteCmd(app))
	return cmd
}

func newProjectsAddCmd(app *App) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			id := ws.Engine.AddProject(args[0], color)
			if id == "" {
				return writeErr(cmd, errors.New("project name is empty"))
			}
			if err := ws.saved(); err != nil {
				return writeErr(cmd, err)
			}
			p, _ := ws.Engine.DB().FindProject(id)
			return writeOut(cmd, app, map[string]any{"data": p})
		},
	}

	cmd.Flags().StringVar(&color, "color", "blue", "Project color")
	return cmd
}

func newProjectsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			db := ws.Engine.DB()
			out := make([]model.Project, 0, len(db.Projects))
			for _, p := range db.Projects {
				out = append(out, p)
			}
			sort.Slice(out, func(i, j int) bool {
				if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
					return out[i].CreatedAt.Before(out[j].CreatedAt)
				}
				return out[i].ID < out[j].ID
			})
			counts := map[string]int{}
			for _, t := range db.Tasks {
				if !t.IsDeleted() && t.ProjectID != "" {
					counts[t.ProjectID]++
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": map[string]any{"taskCounts": counts},
			})
		},
	}
}

func newProjectsRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <project> <name>",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()
			db := ws.Engine.DB()

			id, err := resolveProjectID(db, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			changed := ws.Engine.RenameProject(id, args[1])
			if err := ws.saved(); err != nil {
				return writeErr(cmd, err)
			}
			p, _ := db.FindProject(id)
			return writeOut(cmd, app, map[string]any{
				"data": p,
				"meta": map[string]any{"changed": changed},
			})
		},
	}
}

func newProjectsDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <project>",
		Short: "Delete a project (its tasks move to the inbox)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()
			db := ws.Engine.DB()

			id, err := resolveProjectID(db, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if !yes {
				p, _ := db.FindProject(id)
				ok, err := confirm(cmd, "Delete project "+p.Name+"?")
				if err != nil {
					return writeErr(cmd, err)
				}
				if !ok {
					return writeErr(cmd, errAborted)
				}
			}
			changed := ws.Engine.DeleteProject(id)
			if err := ws.saved(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"id": id, "deleted": changed},
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Do not ask for confirmation")
	return cmd
}
