package recommend

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/charmbracelet/glamour"
)

//go:embed templates/*.md
var templates embed.FS

var reportTemplate = template.Must(template.ParseFS(templates, "templates/report.md"))

// Markdown renders recs as a markdown document.
func Markdown(recs []Recommendation) (string, error) {
	var b strings.Builder
	if err := reportTemplate.Execute(&b, struct{ Items []Recommendation }{recs}); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return b.String(), nil
}

// Render formats markdown for a terminal of the given width. Styles are
// plain so the output is stable when not attached to a tty.
func Render(markdown string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
