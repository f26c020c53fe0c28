// Package render turns menu items into display fragments. MenuCard builds the
// fragment description; HTML, Markdown and Text format it for the web UI, the
// Telegram bot and the CLI.
package render

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"lunch-menu/internal/menu"
)

const (
	headerSeparator = " • "
	placeholderName = "No menu available"
)

// Card is the display description of one menu item. Empty strings mean the
// fragment is not shown.
type Card struct {
	Day       string
	Date      string
	Header    string
	Name      string
	Nutrition []string
	Allergens string
}

// HasNutrition reports whether the nutrition block is shown.
func (c Card) HasNutrition() bool {
	return len(c.Nutrition) > 0
}

// NutritionLine joins the nutrition facts with a single space.
func (c Card) NutritionLine() string {
	return strings.Join(c.Nutrition, " ")
}

// MenuCard builds the card for item. It never fails: absent fields suppress
// their fragment and an empty name becomes the placeholder.
func MenuCard(item menu.MenuItem) Card {
	card := Card{
		Day:  Capitalize(item.Day),
		Date: item.Date,
	}

	switch {
	case card.Day != "" && card.Date != "":
		card.Header = card.Day + headerSeparator + card.Date
	case card.Day != "":
		card.Header = card.Day
	default:
		card.Header = card.Date
	}

	name := item.Name
	if name == "" {
		name = placeholderName
	}
	card.Name = "🍽️ " + name

	if n := item.Nutrition; n != nil {
		if n.Calories != nil {
			card.Nutrition = append(card.Nutrition, fmt.Sprintf("🔥 %s cal", menu.FormatNumber(*n.Calories)))
		}
		if n.ProteinG != nil {
			card.Nutrition = append(card.Nutrition, fmt.Sprintf("💪 %sg protein", menu.FormatNumber(*n.ProteinG)))
		}
		if len(n.Allergens) > 0 {
			card.Allergens = "⚠️ Contains: " + strings.Join(n.Allergens, ", ")
		}
	}

	return card
}

// WeekCards returns one card per day of week, in weekday order.
func WeekCards(week menu.WeekMenu) []Card {
	days := week.Days()
	cards := make([]Card, 0, len(days))
	for _, item := range days {
		cards = append(cards, MenuCard(item))
	}
	return cards
}

// Capitalize upper-cases the first character and leaves the rest untouched.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
