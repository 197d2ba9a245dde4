// Package publish exports tasks as markdown (and optionally HTML) files.
package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"nexdo/internal/model"
	"nexdo/internal/store"
)

type WriteOptions struct {
	IncludeDeleted  bool
	IncludeActivity bool
	HTML            bool
	Overwrite       bool
	Render          RenderOptions
}

type WriteResult struct {
	Written []string `json:"written"`
}

func (o WriteOptions) render() RenderOptions {
	r := o.Render
	r.IncludeDeleted = o.IncludeDeleted
	r.IncludeActivity = o.IncludeActivity
	return r
}

// WriteTask writes <toDir>/tasks/<id>.md (and .html with opt.HTML).
func WriteTask(db *store.DB, taskID string, toDir string, opt WriteOptions) (WriteResult, error) {
	if db == nil {
		return WriteResult{}, errors.New("missing db")
	}
	t, ok := db.FindTask(taskID)
	if !ok {
		return WriteResult{}, errors.New("task not found: " + strings.TrimSpace(taskID))
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	outDir := filepath.Join(filepath.Clean(toDir), "tasks")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	written, err := writeTaskPage(db, t.ID, outDir, opt)
	if err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: written}, nil
}

// WriteAll writes an index of the whole tree plus one page per task.
func WriteAll(db *store.DB, toDir string, opt WriteOptions) (WriteResult, error) {
	if db == nil {
		return WriteResult{}, errors.New("missing db")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)
	tasksDir := filepath.Join(toDir, "tasks")
	if err := os.MkdirAll(tasksDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	indexMD, err := RenderIndexMarkdown(db, "Tasks", "tasks", opt.render())
	if err != nil {
		return WriteResult{}, err
	}
	written, err := writePage(filepath.Join(toDir, "index"), "Tasks", indexMD, opt)
	if err != nil {
		return WriteResult{}, err
	}

	var ferr error
	db.Walk(func(t *model.Task) {
		if ferr != nil || (t.IsDeleted() && !opt.IncludeDeleted) {
			return
		}
		paths, err := writeTaskPage(db, t.ID, tasksDir, opt)
		if err != nil {
			ferr = err
			return
		}
		written = append(written, paths...)
	})
	if ferr != nil {
		return WriteResult{}, ferr
	}
	return WriteResult{Written: written}, nil
}

func writeTaskPage(db *store.DB, id, dir string, opt WriteOptions) ([]string, error) {
	md, err := RenderTaskMarkdown(db, id, opt.render())
	if err != nil {
		return nil, err
	}
	t, _ := db.FindTask(id)
	return writePage(filepath.Join(dir, id), t.Title, md, opt)
}

// writePage writes base.md and, with opt.HTML, base.html.
func writePage(base, title, md string, opt WriteOptions) ([]string, error) {
	mdPath := base + ".md"
	if err := writeFile(mdPath, []byte(md), opt.Overwrite); err != nil {
		return nil, err
	}
	out := []string{mdPath}
	if !opt.HTML {
		return out, nil
	}
	page, err := HTMLPage(title, rewriteLinks(md))
	if err != nil {
		return nil, err
	}
	htmlPath := base + ".html"
	if err := writeFile(htmlPath, page, opt.Overwrite); err != nil {
		return nil, err
	}
	return append(out, htmlPath), nil
}

// rewriteLinks points .md links at the sibling .html pages.
func rewriteLinks(md string) string {
	return strings.ReplaceAll(md, ".md)", ".html)")
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
