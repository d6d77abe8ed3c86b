// ABOUTME: Exports a board snapshot as a standalone HTML page rendered from the Markdown export.
// ABOUTME: goldmark converts the Markdown; raw HTML in card text is not passed through.
package export

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var pageTemplate = template.Must(template.New("board").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
h2 { border-bottom: 1px solid #ccc; padding-bottom: .25rem; }
h3 { margin-bottom: .25rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

var markdown = goldmark.New(goldmark.WithExtensions(extension.TaskList))

// ExportHTML renders s as an HTML document.
func ExportHTML(s Snapshot) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(ExportMarkdown(s)), &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	title := s.Info.Title
	if title == "" {
		title = "Board"
	}

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body.String())})
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return page.String(), nil
}
