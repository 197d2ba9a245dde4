package cli

import (
	"nexdo/internal/mutate"

	"github.com/spf13/cobra"
)

func newReportCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Tracked time against estimates, per project and per task",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			r := mutate.BuildTimeReport(ws.Engine.DB(), ws.Engine.Now(), limit)
			return writeOut(cmd, app, map[string]any{
				"data": r,
				"meta": map[string]any{
					"tracked":   mutate.FormatDuration(r.TrackedSeconds),
					"estimated": mutate.FormatDuration(int64(r.EstimatedMinutes) * 60),
				},
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 12, "Max tasks listed (0 = all)")
	return cmd
}
