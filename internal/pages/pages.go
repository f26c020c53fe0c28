// Package pages holds the static About and Privacy texts shared by the web UI
// and the Telegram bot.
package pages

import (
	"embed"
	"fmt"
)

//go:embed content/*.md
var contentFS embed.FS

// Page is a static informational page.
type Page struct {
	Slug  string
	Title string
}

// All lists the pages in navigation order.
var All = []Page{
	{Slug: "about", Title: "About"},
	{Slug: "privacy", Title: "Privacy"},
}

// Markdown returns the markdown source of the page named slug.
func Markdown(slug string) ([]byte, error) {
	src, err := contentFS.ReadFile("content/" + slug + ".md")
	if err != nil {
		return nil, fmt.Errorf("unknown page %q: %w", slug, err)
	}
	return src, nil
}
