package menu

import (
	"fmt"
	"time"
)

// WeekStart returns the Monday (at midnight) of the week containing now,
// shifted by offset weeks.
func WeekStart(now time.Time, offset int) time.Time {
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()
	monday := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -daysSinceMonday)
	return monday.AddDate(0, 0, 7*offset)
}

// WeekID returns the backend's identifier for the week, like "2024-W41".
// The week number counts Sundays, so days before the first Sunday of the
// year belong to week 00.
func WeekID(now time.Time, offset int) string {
	monday := WeekStart(now, offset)
	yday := monday.YearDay() - 1
	week := (yday + 7 - int(monday.Weekday())) / 7
	return fmt.Sprintf("%d-W%02d", monday.Year(), week)
}

// WeekDates maps each weekday of the target week to its long date,
// e.g. "monday" -> "October 14, 2024".
func WeekDates(now time.Time, offset int) map[string]string {
	monday := WeekStart(now, offset)
	dates := make(map[string]string, len(Weekdays))
	for i, day := range Weekdays {
		dates[day] = monday.AddDate(0, 0, i).Format("January 02, 2006")
	}
	return dates
}

// WeekLabel returns a human readable range such as "Oct 14 – Oct 18, 2024".
func WeekLabel(now time.Time, offset int) string {
	monday := WeekStart(now, offset)
	friday := monday.AddDate(0, 0, 4)
	return fmt.Sprintf("%s – %s", monday.Format("Jan 2"), friday.Format("Jan 2, 2006"))
}
