package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"leadly/internal/agenda"
)

var todayCmd = &cobra.Command{
	Use:     "today",
	Aliases: []string{"t"},
	Short:   "Print today's agenda",
	Run: func(cmd *cobra.Command, args []string) {
		runToday()
	},
}

func runToday() {
	cfg := loadConfig()
	st := openStore()

	loader := agenda.NewLoader(st, externalFetch(cfg))

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	to := from.Add(24*time.Hour - time.Nanosecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := loader.Load(ctx, loader.NextGeneration(), from, to)
	if err != nil {
		fmt.Printf("Error loading agenda: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(now.Format("Monday, January 2"))
	fmt.Println()

	apps := agenda.ForDay(now, res.Merged)
	if len(apps) == 0 {
		fmt.Println("  Nothing scheduled today.")
	}
	for _, app := range apps {
		line := fmt.Sprintf("  %s - %s  %s",
			app.Start.Format("15:04"), app.End.Format("15:04"), app.Title)
		if app.IsExternal() {
			line += fmt.Sprintf("  [%s]", app.LeadName)
		} else {
			if app.LeadName != "" {
				line += "  with " + app.LeadName
			}
			if app.Status != "" {
				line += fmt.Sprintf("  (%s)", app.Status)
			}
		}
		fmt.Println(line)
	}

	switch res.State {
	case agenda.StateAuthDegraded:
		fmt.Println()
		fmt.Printf("  ! %s auth expired, run: leadly connect google\n", syncLabel(cfg))
	case agenda.StateFailed:
		fmt.Println()
		fmt.Printf("  ! %s sync failed (%v), showing local data only\n", syncLabel(cfg), res.SyncErr)
	}
}
