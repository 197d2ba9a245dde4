package publish

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in task text is not passed through: html.WithUnsafe is left off.
var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 46rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
li { list-style: none; }
code { background: #f3f4f6; padding: 0 .2rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// MarkdownToHTML renders markdown to an HTML fragment.
func MarkdownToHTML(src string) (string, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", nil
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// HTMLPage wraps rendered markdown in a standalone page.
func HTMLPage(title, markdown string) ([]byte, error) {
	body, err := MarkdownToHTML(markdown)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	// goldmark output is trusted only because raw HTML is disabled above.
	err = pageTemplate.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(body),
	})
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
