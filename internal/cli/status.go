package cli

import (
	"nexdo/internal/mutate"
	"nexdo/internal/statusutil"

	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store location and task counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			db := ws.Engine.DB()
			now := ws.Engine.Now()
			counts := map[string]int{}
			for _, t := range db.Tasks {
				switch {
				case t.IsDeleted():
					counts["deleted"]++
				case statusutil.IsDone(t.StatusID):
					counts["done"]++
				default:
					counts["open"]++
				}
				if t.IsTracking() {
					counts["tracking"]++
				}
			}
			counts["today"] = len(db.TodayTasks(now))
			counts["overdue"] = len(db.OverdueTasks(now))
			counts["inbox"] = len(db.InboxTasks())

			var trackedSecs int64
			for _, t := range db.Tasks {
				trackedSecs += mutate.TrackedSeconds(t, now)
			}

			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"dir":           app.Dir,
					"currentUserId": db.CurrentUserID,
					"tasks":         counts,
					"projects":      len(db.Projects),
					"users":         len(db.Users),
					"trackedTotal":  mutate.FormatDuration(trackedSecs),
				},
			})
		},
	}
}
