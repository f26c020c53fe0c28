package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var cardTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html.tmpl"))

// Templates parses a fresh copy of the card templates so pages can add
// their own and embed {{template "menu-card" .}} or
// {{template "week-preview" .}}.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html.tmpl")
}

// HTML renders a single card. Text from the backend is escaped by the
// template engine.
func HTML(card Card) (template.HTML, error) {
	return execute("menu-card", card)
}

// WeekHTML renders the preview grid of a week.
func WeekHTML(cards []Card) (template.HTML, error) {
	return execute("week-preview", cards)
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := cardTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
