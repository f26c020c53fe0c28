package main

import (
	"fmt"
	"strings"

	"lunch-menu/internal/menu"
	"lunch-menu/internal/render"

	"github.com/spf13/cobra"
)

var (
	weekOffset   int
	weekCalendar bool
	weekPDF      bool
	weekEmail    string
	weekCompact  bool
)

var weekCmd = &cobra.Command{
	Use:   "week <menu-url>",
	Short: "Preview a week's menu and optionally build its calendar",
	Long: `Loads a whole week from the menu page and prints it. --calendar generates
the calendar image; --pdf and --email continue from there.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newDeps()
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		gen := rt.cliSession().Generator

		if err := gen.ScrapeMenu(ctx, args[0], weekOffset); err != nil {
			return reportedError{err}
		}
		state := gen.View().Snapshot()
		if weekCompact {
			fmt.Fprint(out, compactWeek(state.WeekLabel, state.MenuData))
		} else {
			fmt.Fprint(out, render.WeekText(state.WeekLabel, render.WeekCards(state.MenuData)))
		}

		if !weekCalendar && !weekPDF && weekEmail == "" {
			return nil
		}

		if err := gen.GenerateCalendar(ctx); err != nil {
			return reportedError{err}
		}
		fmt.Fprintf(out, "\nCalendar: %s\n", gen.View().Snapshot().CalendarURL)

		if weekPDF {
			pdfURL, err := gen.ExportPDF(ctx)
			if err != nil {
				return reportedError{err}
			}
			fmt.Fprintf(out, "PDF: %s\n", pdfURL)
		}

		if weekEmail != "" {
			if err := gen.SendEmail(ctx, weekEmail); err != nil {
				return reportedError{err}
			}
		}
		return nil
	},
}

func init() {
	weekCmd.Flags().IntVar(&weekOffset, "offset", 0, "week offset from the current week (-1 last week, 1 next week)")
	weekCmd.Flags().BoolVar(&weekCalendar, "calendar", false, "generate the calendar image")
	weekCmd.Flags().BoolVar(&weekPDF, "pdf", false, "export the calendar as a PDF (implies --calendar)")
	weekCmd.Flags().StringVar(&weekEmail, "email", "", "email the calendar to this address (implies --calendar)")
	weekCmd.Flags().BoolVar(&weekCompact, "compact", false, "print one line per day")
	rootCmd.AddCommand(weekCmd)
}

// compactWeek prints one line per day in the calendar cell format.
func compactWeek(title string, week menu.WeekMenu) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", title)
	for _, item := range week.Days() {
		fmt.Fprintf(&sb, "%-10s %s", render.Capitalize(item.Day), item.Name)
		if item.Nutrition.HasData() {
			fmt.Fprintf(&sb, " (%s)", item.Nutrition.Summary())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
