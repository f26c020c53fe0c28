package render

import "strings"

// Text formats a card as plain lines for a terminal.
func Text(card Card) string {
	lines := make([]string, 0, 4)
	if card.Header != "" {
		lines = append(lines, card.Header)
	}
	lines = append(lines, card.Name)
	if card.HasNutrition() {
		lines = append(lines, card.NutritionLine())
	}
	if card.Allergens != "" {
		lines = append(lines, card.Allergens)
	}
	return strings.Join(lines, "\n") + "\n"
}

// WeekText formats a week preview, one block per day.
func WeekText(title string, cards []Card) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(title)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("=", len([]rune(title))))
		sb.WriteString("\n\n")
	}
	if len(cards) == 0 {
		sb.WriteString("No menu items found for this week.\n")
	}
	for i, card := range cards {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(Text(card))
	}
	return sb.String()
}
