package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"leadly/config"
	"leadly/internal/ui"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Run the setup wizard again",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if !runOnboarding(&cfg) {
			os.Exit(1)
		}
	},
}

// runOnboarding runs the wizard TUI and reports whether the profile was
// saved.
func runOnboarding(cfg *config.Config) bool {
	app := ui.NewOnboardingApp(cfg)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running wizard: %v\n", err)
		return false
	}

	if app.Completed() {
		fmt.Println("Setup complete.")
		return true
	}
	return false
}
