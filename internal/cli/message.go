package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"leadly/internal/ai"
	"leadly/internal/ui"
)

var messageCmd = &cobra.Command{
	Use:     "message",
	Aliases: []string{"msg", "m"},
	Short:   "Draft an outreach message with AI",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore()

		var aiClient *ai.Client
		if c := ai.NewClient(cfg); c.Available() {
			aiClient = c
		}

		app := ui.NewMessageApp(st, aiClient, &cfg, newEmailClient(cfg))
		p := tea.NewProgram(app, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fmt.Printf("Error running program: %v\n", err)
			os.Exit(1)
		}
	},
}
