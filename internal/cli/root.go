package cli

import (
	"fmt"
	"os"
	"strings"

	"nexdo/internal/format"
	"nexdo/internal/mutate"
	"nexdo/internal/store"
	"nexdo/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	UserID     string
	PrettyJSON bool
	Format     string

	cfg *store.GlobalConfig
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "nexdo",
		Short:        "nexdo (local-first) task tree CLI + TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  nexdo

  # Scriptable commands
  nexdo tasks add "Write release notes" --priority high --due 2025-06-01
  nexdo tasks list --view today
  nexdo tasks move 3f2a --parent 9c1e --index 0
  nexdo track start 3f2a
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := store.LoadConfig()
		if err != nil {
			return writeErr(cmd, err)
		}
		app.cfg = cfg
		if app.Format == "" {
			app.Format = cfg.Format
		}
		f, err := format.Normalize(app.Format)
		if err != nil {
			return writeErr(cmd, err)
		}
		app.Format = f
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("NEXDO_DIR", ""), "Path to store dir (default: nearest .nexdo, then ~/.nexdo/data)")
	cmd.PersistentFlags().StringVar(&app.UserID, "user", envOr("NEXDO_USER", ""), "Acting user id for this invocation (overrides currentUserId)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("NEXDO_FORMAT", ""), "Output format (json|edn)")

	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newTrackCmd(app))
	cmd.AddCommand(newActivityCmd(app))
	cmd.AddCommand(newCommentsCmd(app))
	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newUsersCmd(app))
	cmd.AddCommand(newDataCmd(app))
	cmd.AddCommand(newPublishCmd(app))
	cmd.AddCommand(newReportCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func runTUI(app *App) error {
	ws, err := openWorkspace(app)
	if err != nil {
		return err
	}
	defer ws.Close()
	return tui.Run(ws.Engine, tui.Options{
		Config: app.cfg,
		Err:    ws.Persister.Err,
	})
}

// resolveDir picks the store dir: --dir / NEXDO_DIR, then the config file, then discovery.
func resolveDir(app *App) (string, error) {
	if d := strings.TrimSpace(app.Dir); d != "" {
		return d, nil
	}
	if app.cfg != nil && strings.TrimSpace(app.cfg.Dir) != "" {
		app.Dir = strings.TrimSpace(app.cfg.Dir)
		return app.Dir, nil
	}
	d, err := store.DefaultDir()
	if err != nil {
		return "", err
	}
	app.Dir = d
	return d, nil
}

// workspace is one opened store: the engine over its state and the persister saving it.
type workspace struct {
	Store     store.Store
	Engine    *mutate.Engine
	Persister *store.Persister

	unsubscribe func()
}

// openWorkspace loads the store and wires persistence as an engine observer. A --user override
// applies to activity written by this invocation only; the saved currentUserId is kept.
func openWorkspace(app *App) (*workspace, error) {
	dir, err := resolveDir(app)
	if err != nil {
		return nil, err
	}
	s := store.Store{Dir: dir}
	db, err := s.Load()
	if err != nil {
		return nil, err
	}

	saved := db.CurrentUserID
	if u := strings.TrimSpace(app.UserID); u != "" {
		if _, ok := db.FindUser(u); !ok {
			return nil, errNotFound("user", u)
		}
		db.CurrentUserID = u
	} else if app.cfg != nil && strings.TrimSpace(app.cfg.User) != "" {
		if _, ok := db.FindUser(app.cfg.User); ok {
			db.CurrentUserID = strings.TrimSpace(app.cfg.User)
		}
	}

	p := store.NewPersister(s, db)
	e := mutate.NewEngine(db)
	unsub := e.Subscribe(func(c mutate.Change) {
		switch c.Op {
		case mutate.OpUserUse, mutate.OpImport, mutate.OpReset:
			saved = db.CurrentUserID
		}
		acting := db.CurrentUserID
		db.CurrentUserID = saved
		p.Flush()
		db.CurrentUserID = acting
	})
	return &workspace{Store: s, Engine: e, Persister: p, unsubscribe: unsub}, nil
}

func (w *workspace) Close() {
	if w.unsubscribe != nil {
		w.unsubscribe()
	}
}

// saved reports a failed background save as the command's error.
func (w *workspace) saved() error {
	if err := w.Persister.Err(); err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	return nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
