package cli

import (
	"github.com/spf13/cobra"
)

var calendarCmd = &cobra.Command{
	Use:     "calendar",
	Aliases: []string{"cal", "c"},
	Short:   "Month view of appointments and calendar events",
	Run: func(cmd *cobra.Command, args []string) {
		runCalendarTUI()
	},
}
