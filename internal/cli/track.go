package cli

import (
	"nexdo/internal/mutate"

	"github.com/spf13/cobra"
)

func newTrackCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Time tracking (one task at a time)",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "start <id>",
		Short: "Start tracking a task (stops any other running tracker)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskOp(cmd, app, args[0], (*mutate.Engine).StartTracking)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stop [id]",
		Short: "Stop tracking (defaults to the running tracker)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runTaskOp(cmd, app, args[0], (*mutate.Engine).StopTracking)
			}
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()
			running := ws.Engine.DB().TrackingTasks()
			stopped := []string{}
			for _, t := range running {
				if ws.Engine.StopTracking(t.ID) {
					stopped = append(stopped, t.ID)
				}
			}
			if err := ws.saved(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"stopped": stopped},
			})
		},
	})
	cmd.AddCommand(newTrackStatusCmd(app))
	return cmd
}

type trackingView struct {
	TaskID         string `json:"taskId"`
	Title          string `json:"title"`
	StartedAt      string `json:"startedAt"`
	TrackedSeconds int64  `json:"trackedSeconds"`
	Tracked        string `json:"tracked"`
}

func newTrackStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running tracker and its live total",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			now := ws.Engine.Now()
			out := []trackingView{}
			for _, t := range ws.Engine.DB().TrackingTasks() {
				secs := mutate.TrackedSeconds(t, now)
				out = append(out, trackingView{
					TaskID:         t.ID,
					Title:          t.Title,
					StartedAt:      t.TrackingStartedAt.UTC().Format("2006-01-02T15:04:05Z"),
					TrackedSeconds: secs,
					Tracked:        mutate.FormatDuration(secs),
				})
			}
			return writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": map[string]any{"running": len(out) > 0},
			})
		},
	}
}
