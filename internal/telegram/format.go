package telegram

import (
	"fmt"
	"strings"

	"lunch-menu/internal/metrics"
	"lunch-menu/internal/notify"
	"lunch-menu/internal/session"
)

const helpText = `🍽️ *Lunch Menu Bot*

/today <url> - today's lunch
/week <url> <offset> - preview a week; offset is optional (-1 last week, 1 next week)
/calendar - generate the calendar for the previewed week
/pdf - export the calendar as a PDF
/email <address> - email the calendar
/new - start over
/about, /privacy - about this bot

You can also just send a menu link.`

func severityIcon(s notify.Severity) string {
	switch s {
	case notify.Success:
		return "✅"
	case notify.Error:
		return "❌"
	default:
		return "ℹ️"
	}
}

func stepHeader(step session.Step) string {
	switch step {
	case session.Initial:
		return "🆕 *New menu.* Send /week <url> to load a week."
	case session.MenuPreviewed:
		return "👀 *Step 2 of 3:* review the week below."
	case session.ResultShown:
		return "🗓 *Step 3 of 3:* your calendar is ready."
	default:
		return ""
	}
}

// pageMarkdown converts a page's markdown to the subset Telegram renders:
// headings become bold lines, list items get bullets and wrapped lines are
// joined.
func pageMarkdown(src []byte) string {
	var blocks []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, " "))
			current = nil
		}
	}

	for _, line := range strings.Split(string(src), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, "# "):
			flush()
			blocks = append(blocks, "*"+strings.TrimPrefix(trimmed, "# ")+"*")
		case strings.HasPrefix(trimmed, "- "):
			flush()
			current = append(current, "• "+strings.TrimPrefix(trimmed, "- "))
		default:
			current = append(current, trimmed)
		}
	}
	flush()

	return strings.ReplaceAll(strings.Join(blocks, "\n\n"), "**", "*")
}

func formatUsageReport(daily []metrics.DailyUsage, endpoints []metrics.EndpointUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Backend Calls*\n")
	if len(daily) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range daily {
		sb.WriteString(fmt.Sprintf("• *%s*: %d calls, %d failed, avg %dms\n", d.Date, d.Calls, d.Failures, d.AvgLatencyMS))
	}

	if len(endpoints) > 0 {
		sb.WriteString("\n🔌 *By Endpoint*\n")
		for _, e := range endpoints {
			sb.WriteString(fmt.Sprintf("• %s: %d calls, %d failed, avg %dms\n", e.Endpoint, e.Calls, e.Failures, e.AvgLatencyMS))
		}
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", health.Uptime))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))

	return sb.String()
}
