package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"lunch-menu/internal/notify"
	"lunch-menu/internal/pages"
	"lunch-menu/internal/render"
	"lunch-menu/internal/session"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// pageSet holds one parsed template per page and the rendered info pages.
type pageSet struct {
	templates map[string]*template.Template
	info      map[string]infoPage
}

type infoPage struct {
	Title string
	Body  template.HTML
}

func loadPages() (*pageSet, error) {
	ps := &pageSet{
		templates: make(map[string]*template.Template),
		info:      make(map[string]infoPage),
	}

	for _, name := range []string{"finder", "generator", "info"} {
		base, err := render.Templates()
		if err != nil {
			return nil, fmt.Errorf("failed to parse card templates: %w", err)
		}
		tmpl, err := base.ParseFS(templateFS, "templates/layout.html.tmpl", "templates/"+name+".html.tmpl")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		ps.templates[name] = tmpl
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	for _, p := range pages.All {
		src, err := pages.Markdown(p.Slug)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := md.Convert(src, &buf); err != nil {
			return nil, fmt.Errorf("failed to convert %s page: %w", p.Slug, err)
		}
		ps.info[p.Slug] = infoPage{Title: p.Title, Body: template.HTML(buf.String())}
	}

	return ps, nil
}

// pageData is the view model shared by every page.
type pageData struct {
	Title         string
	Active        string
	Notifications []notify.Notification
	Loading       notify.Loading
	Reveal        string

	// Finder
	URL    string
	Phase  session.FinderPhase
	Result *render.Card

	// Generator
	Step      session.Step
	State     session.State
	Week      []render.Card
	Offset    int
	Recipient string

	// Info pages
	Body template.HTML
}

// Offsets lists the weeks the generator can scrape.
func (pageData) Offsets() []weekOption {
	return []weekOption{
		{Value: -1, Label: "Last week"},
		{Value: 0, Label: "This week"},
		{Value: 1, Label: "Next week"},
	}
}

type weekOption struct {
	Value int
	Label string
}

func (ps *pageSet) render(w http.ResponseWriter, name string, data pageData) error {
	tmpl, ok := ps.templates[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
