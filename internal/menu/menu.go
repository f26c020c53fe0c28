package menu

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Weekdays lists the school days in display order. WeekMenu keys use these names.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

// Nutrition holds the optional nutritional information of a menu item.
// A nil field means the backend did not report it.
type Nutrition struct {
	Calories  *float64 `json:"calories,omitempty"`
	ProteinG  *float64 `json:"protein_g,omitempty"`
	CarbsG    *float64 `json:"carbs_g,omitempty"`
	FatG      *float64 `json:"fat_g,omitempty"`
	FiberG    *float64 `json:"fiber_g,omitempty"`
	SodiumMg  *float64 `json:"sodium_mg,omitempty"`
	Allergens []string `json:"allergens,omitempty"`
}

// MenuItem is one day's lunch record as returned by the scrape endpoint.
type MenuItem struct {
	Day       string     `json:"day"`
	Date      string     `json:"date"`
	Name      string     `json:"name"`
	Nutrition *Nutrition `json:"nutrition,omitempty"`
	ImagePath string     `json:"image_path,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// WeekMenu maps a lowercase weekday name to that day's item.
type WeekMenu map[string]MenuItem

// Days returns the week's items in weekday order, followed by any
// non-standard keys in lexical order.
func (w WeekMenu) Days() []MenuItem {
	items := make([]MenuItem, 0, len(w))
	seen := make(map[string]bool, len(w))
	for _, day := range Weekdays {
		if item, ok := w[day]; ok {
			items = append(items, item)
			seen[day] = true
		}
	}

	var extra []string
	for key := range w {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		items = append(items, w[key])
	}
	return items
}

// Float returns a pointer to v, for building Nutrition literals.
func Float(v float64) *float64 {
	return &v
}

// HasData reports whether any of the macro-nutrient fields is present.
func (n *Nutrition) HasData() bool {
	if n == nil {
		return false
	}
	return n.Calories != nil || n.ProteinG != nil || n.CarbsG != nil || n.FatG != nil
}

// Summary formats the nutrition the way the weekly calendar cell shows it,
// e.g. "650 cal | 22g protein | ⚠️ gluten, dairy".
func (n *Nutrition) Summary() string {
	if n == nil {
		return "No nutritional info"
	}

	var parts []string
	if n.Calories != nil {
		parts = append(parts, fmt.Sprintf("%s cal", FormatNumber(*n.Calories)))
	}
	if n.ProteinG != nil {
		parts = append(parts, fmt.Sprintf("%sg protein", FormatNumber(*n.ProteinG)))
	}
	if len(n.Allergens) > 0 {
		allergens := n.Allergens
		if len(allergens) > 3 {
			allergens = allergens[:3]
		}
		parts = append(parts, "⚠️ "+strings.Join(allergens, ", "))
	}

	if len(parts) == 0 {
		return "No nutritional info"
	}
	return strings.Join(parts, " | ")
}

// FormatNumber prints a number without a trailing ".0" for whole values.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
