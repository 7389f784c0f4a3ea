package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"leadly/config"
	"leadly/internal/auth"
	"leadly/internal/feed"
	"leadly/internal/gcal"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect external services",
}

var connectGoogleCmd = &cobra.Command{
	Use:   "google",
	Short: "Connect Google Calendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := auth.PromptGoogleToken()
		if err != nil {
			return err
		}

		// Verify the token works before keeping it.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		now := time.Now()
		if _, err := gcal.NewClient().ListEvents(ctx, creds.GoogleToken, now, now.AddDate(0, 0, 7)); err != nil {
			return fmt.Errorf("token check failed: %w", err)
		}

		if err := creds.Save(); err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.Calendar.System = config.CalendarGoogle
		if err := cfg.Save(); err != nil {
			return err
		}

		fmt.Println("Google Calendar connected.")
		return nil
	},
}

var connectICalCmd = &cobra.Command{
	Use:   "ical <url>",
	Short: "Subscribe to a calendar feed (ICS URL)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		now := time.Now()
		if _, err := feed.NewClient().ListEvents(ctx, url, now, now.AddDate(0, 1, 0)); err != nil {
			return fmt.Errorf("feed check failed: %w", err)
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.Calendar.System = config.CalendarICS
		cfg.Calendar.ICSURL = url
		if err := cfg.Save(); err != nil {
			return err
		}

		fmt.Println("Calendar feed connected.")
		return nil
	},
}

var connectSMTPCmd = &cobra.Command{
	Use:   "smtp <host> <username>",
	Short: "Configure outbound email for reminders",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		host, username := args[0], args[1]

		creds, err := auth.PromptSMTPPassword(username)
		if err != nil {
			return err
		}
		if err := creds.Save(); err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.SMTP = &config.SMTPConfig{
			Host:     host,
			Port:     587,
			Username: username,
			From:     username,
		}
		if err := cfg.Save(); err != nil {
			return err
		}

		fmt.Println("SMTP configured.")
		return nil
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disconnect the external calendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := auth.Load()
		if err != nil {
			return err
		}
		if err := creds.ClearGoogleToken(); err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.Calendar.System = config.CalendarManual
		cfg.Calendar.ICSURL = ""
		if err := cfg.Save(); err != nil {
			return err
		}

		fmt.Println("Calendar disconnected, local appointments only.")
		return nil
	},
}

func init() {
	connectCmd.AddCommand(connectGoogleCmd)
	connectCmd.AddCommand(connectICalCmd)
	connectCmd.AddCommand(connectSMTPCmd)
	rootCmd.AddCommand(disconnectCmd)
}
