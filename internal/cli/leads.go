package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"leadly/internal/ai"
	"leadly/internal/ui"
)

var leadsCmd = &cobra.Command{
	Use:     "leads",
	Aliases: []string{"l"},
	Short:   "Lead pipeline",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore()

		var aiClient *ai.Client
		if c := ai.NewClient(cfg); c.Available() {
			aiClient = c
		}

		app := ui.NewLeadsApp(st, aiClient, &cfg)
		p := tea.NewProgram(app, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fmt.Printf("Error running program: %v\n", err)
			os.Exit(1)
		}
	},
}
