package cli

import (
	"errors"
	"strings"

	"nexdo/internal/publish"

	"github.com/spf13/cobra"
)

func newPublishCmd(app *App) *cobra.Command {
	var (
		toDir           string
		taskRef         string
		html            bool
		overwrite       bool
		includeDeleted  bool
		includeActivity bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Export derived Markdown (and HTML) pages (not canonical)",
		Example: strings.TrimSpace(`
  nexdo publish --to ./site --html
  nexdo publish --task 3f2a --to ./notes --activity
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			toDir = strings.TrimSpace(toDir)
			if toDir == "" {
				return writeErr(cmd, errors.New("missing --to"))
			}
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()
			db := ws.Engine.DB()

			opt := publish.WriteOptions{
				IncludeDeleted:  includeDeleted,
				IncludeActivity: includeActivity,
				HTML:            html,
				Overwrite:       overwrite,
				Render:          publish.RenderOptions{Now: ws.Engine.Now()},
			}
			var res publish.WriteResult
			if taskRef != "" {
				id, err := db.ResolveTaskID(taskRef)
				if err != nil {
					return writeErr(cmd, err)
				}
				res, err = publish.WriteTask(db, id, toDir, opt)
				if err != nil {
					return writeErr(cmd, err)
				}
			} else {
				if res, err = publish.WriteAll(db, toDir, opt); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data": res,
				"meta": map[string]any{"files": len(res.Written)},
			})
		},
	}

	cmd.Flags().StringVar(&toDir, "to", "", "Output directory")
	cmd.Flags().StringVar(&taskRef, "task", "", "Publish a single task (default: the whole tree plus an index)")
	cmd.Flags().BoolVar(&html, "html", false, "Also write HTML pages")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&includeDeleted, "include-deleted", false, "Include soft-deleted tasks")
	cmd.Flags().BoolVar(&includeActivity, "activity", false, "Include the activity log on task pages")
	return cmd
}
