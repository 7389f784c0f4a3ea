package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"leadly/config"
	"leadly/internal/agenda"
	"leadly/internal/auth"
	"leadly/internal/crm"
	"leadly/internal/feed"
	"leadly/internal/gcal"
	"leadly/internal/msg"
	"leadly/internal/store"
	"leadly/internal/ui"
	"leadly/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "leadly",
	Short: "A lead and appointment CRM in your terminal",
	Long:  "leadly - lead tracking, appointments and no-show recovery for small businesses",
	Run: func(cmd *cobra.Command, args []string) {
		runCalendarTUI()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(leadsCmd)
	rootCmd.AddCommand(noShowCmd)
	rootCmd.AddCommand(messageCmd)
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("leadly", version.Version)
	},
}

// loadConfig loads the config and sends first-time users through the
// onboarding wizard before anything else runs.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if !cfg.OnboardingComplete {
		fmt.Println("First run, let's set up your business.")
		fmt.Println()
		if !runOnboarding(&cfg) {
			os.Exit(1)
		}
		// reload what the wizard wrote
		cfg, err = config.Load()
		if err != nil {
			fmt.Printf("Error reloading config: %v\n", err)
			os.Exit(1)
		}
	}

	return cfg
}

func openStore() *store.Store {
	st, err := store.New()
	if err != nil {
		fmt.Printf("Error opening data store: %v\n", err)
		os.Exit(1)
	}
	return st
}

// externalFetch picks the configured external calendar adapter. Returns nil
// when only local appointments exist, which the agenda loader reports as
// disconnected.
func externalFetch(cfg config.Config) agenda.ExternalFetch {
	switch cfg.Calendar.System {
	case config.CalendarGoogle:
		creds, err := auth.Load()
		if err != nil || !creds.HasGoogleToken() {
			return nil
		}
		client := gcal.NewClient()
		token := creds.GoogleToken
		return func(ctx context.Context, from, to time.Time) ([]crm.Appointment, error) {
			return client.ListEvents(ctx, token, from, to)
		}
	case config.CalendarICS:
		if cfg.Calendar.ICSURL == "" {
			return nil
		}
		client := feed.NewClient()
		url := cfg.Calendar.ICSURL
		return func(ctx context.Context, from, to time.Time) ([]crm.Appointment, error) {
			return client.ListEvents(ctx, url, from, to)
		}
	}
	return nil
}

// externalPush mirrors newly created appointments to the connected calendar.
// Only Google supports writes; feeds are read-only and manual has nothing to
// push to, so those return nil.
func externalPush(cfg config.Config) func(ctx context.Context, app crm.Appointment) error {
	if cfg.Calendar.System != config.CalendarGoogle {
		return nil
	}
	creds, err := auth.Load()
	if err != nil || !creds.HasGoogleToken() {
		return nil
	}
	client := gcal.NewClient()
	token := creds.GoogleToken
	return func(ctx context.Context, app crm.Appointment) error {
		return client.CreateEvent(ctx, token, app)
	}
}

func syncLabel(cfg config.Config) string {
	switch cfg.Calendar.System {
	case config.CalendarGoogle:
		return "Google Calendar"
	case config.CalendarICS:
		return "Calendar feed"
	}
	return ""
}

func newEmailClient(cfg config.Config) *msg.SMTPClient {
	if cfg.SMTP == nil {
		return nil
	}
	creds, err := auth.Load()
	if err != nil {
		return nil
	}
	return msg.NewSMTPClient(*cfg.SMTP, creds.SMTPPassword)
}

func runCalendarTUI() {
	cfg := loadConfig()
	st := openStore()

	loader := agenda.NewLoader(st, externalFetch(cfg))
	app := ui.NewCalendarApp(st, loader, cfg.Calendar.WeekStartDay(), syncLabel(cfg), externalPush(cfg))

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
