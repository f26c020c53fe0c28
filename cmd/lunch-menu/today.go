package main

import (
	"fmt"

	"lunch-menu/internal/render"

	"github.com/spf13/cobra"
)

var todayCmd = &cobra.Command{
	Use:   "today <menu-url>",
	Short: "Show today's lunch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newDeps()
		if err != nil {
			return err
		}
		defer rt.Close()

		sess := rt.cliSession()
		item, err := sess.Finder.FindTodayMenu(cmd.Context(), args[0])
		if err != nil {
			return reportedError{err}
		}

		fmt.Fprint(cmd.OutOrStdout(), render.Text(render.MenuCard(item)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(todayCmd)
}
