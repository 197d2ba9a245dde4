package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"nexdo/internal/store"

	"github.com/spf13/cobra"
)

func newDataCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Backup, restore and reset",
	}
	cmd.AddCommand(newDataExportCmd(app))
	cmd.AddCommand(newDataImportCmd(app))
	cmd.AddCommand(newDataResetCmd(app))
	return cmd
}

func newDataExportCmd(app *App) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup bundle (use --to - for stdout)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			var b *store.Bundle
			ws.Engine.View(func(db *store.DB) {
				b, err = store.ExportBundle(db, ws.Engine.Now())
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			if to == "-" {
				return writeOut(cmd, app, b)
			}
			path := strings.TrimSpace(to)
			if path == "" {
				path = store.BackupFilename(b.ExportedAt)
			}
			if err := store.WriteBundle(path, b); err != nil {
				return writeErr(cmd, fmt.Errorf("write backup: %w", err))
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"path": path, "tasks": len(b.Tasks.Tasks)},
				"_hints": []string{
					"nexdo data import " + path,
				},
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Output path (default: nexdo-backup-<timestamp>.json)")
	return cmd
}

func newDataImportCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Replace all data with a backup bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Validate before touching anything.
			b, err := store.ReadBundle(args[0])
			if err != nil {
				return writeErr(cmd, fmt.Errorf("import %s: %w", args[0], err))
			}
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			if !yes {
				ok, err := confirm(cmd, fmt.Sprintf("Replace all data with %s (%d tasks)?", args[0], len(b.Tasks.Tasks)))
				if err != nil {
					return writeErr(cmd, err)
				}
				if !ok {
					return writeErr(cmd, errAborted)
				}
			}
			ws.Engine.Import(b)
			if err := ws.saved(); err != nil {
				return writeErr(cmd, err)
			}
			db := ws.Engine.DB()
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"tasks":         len(db.Tasks),
					"projects":      len(db.Projects),
					"users":         len(db.Users),
					"currentUserId": db.CurrentUserID,
				},
				"meta": map[string]any{"bundleVersion": b.Version},
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Do not ask for confirmation")
	return cmd
}

func newDataResetCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all tasks, projects and activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ws.Close()

			if !yes {
				ok, err := confirm(cmd, "Delete ALL data in "+app.Dir+"?")
				if err != nil {
					return writeErr(cmd, err)
				}
				if !ok {
					return writeErr(cmd, errAborted)
				}
			}
			ws.Engine.Reset()
			if err := ws.saved(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"dir": app.Dir, "reset": true},
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Do not ask for confirmation")
	return cmd
}

// confirm asks a yes/no question on stderr and reads the answer from the command's stdin.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
