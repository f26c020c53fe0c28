package render

import (
	"fmt"
	"strings"
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// EscapeMarkdown escapes the characters Telegram's legacy Markdown treats as
// entity markers.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Markdown formats a card for a Telegram message.
func Markdown(card Card) string {
	var sb strings.Builder
	if card.Header != "" {
		sb.WriteString(fmt.Sprintf("*%s*\n", EscapeMarkdown(card.Header)))
	}
	sb.WriteString(EscapeMarkdown(card.Name))
	sb.WriteString("\n")
	if card.HasNutrition() {
		sb.WriteString(EscapeMarkdown(card.NutritionLine()))
		sb.WriteString("\n")
	}
	if card.Allergens != "" {
		sb.WriteString(fmt.Sprintf("_%s_\n", EscapeMarkdown(card.Allergens)))
	}
	return sb.String()
}

// WeekMarkdown formats a whole week preview under a title line.
func WeekMarkdown(title string, cards []Card) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *%s*\n\n", EscapeMarkdown(title)))
	if len(cards) == 0 {
		sb.WriteString("_No menu items found for this week._\n")
	}
	for _, card := range cards {
		sb.WriteString(Markdown(card))
		sb.WriteString("\n")
	}
	return sb.String()
}
