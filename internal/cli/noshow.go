package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"leadly/internal/ui"
)

var noShowCmd = &cobra.Command{
	Use:     "noshow",
	Aliases: []string{"ns"},
	Short:   "No-show recovery board",
	Run: func(cmd *cobra.Command, args []string) {
		loadConfig()
		st := openStore()

		app := ui.NewNoShowApp(st)
		p := tea.NewProgram(app, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fmt.Printf("Error running program: %v\n", err)
			os.Exit(1)
		}
	},
}
