package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"leadly/internal/ai"
	"leadly/internal/crm"
)

var addCmd = &cobra.Command{
	Use:   "add <description>",
	Short: "Quick-add an appointment from natural language",
	Long:  `Turn input like "call with Anna tomorrow at 3" into an appointment using the configured AI provider.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runQuickAdd(strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runQuickAdd(input string) {
	cfg := loadConfig()
	st := openStore()

	client := ai.NewClient(cfg)
	if !client.Available() {
		fmt.Println("Quick-add needs an AI provider. Configure one in ~/.config/leadly/config.yml")
		fmt.Println("or install a CLI tool like claude, codex or gemini.")
		os.Exit(1)
	}

	out, err := client.Call(ai.ParseAppointmentPrompt(input, time.Now()))
	if err != nil {
		fmt.Printf("Error parsing input: %v\n", err)
		os.Exit(1)
	}

	parsed, err := ai.ParseAppointmentResponse(out)
	if err != nil {
		fmt.Printf("Error parsing input: %v\n", err)
		os.Exit(1)
	}

	start, err := parsed.GetStartTime()
	if err != nil {
		fmt.Printf("Error in parsed start time: %v\n", err)
		os.Exit(1)
	}
	end, err := parsed.GetEndTime()
	if err != nil {
		end = start.Add(time.Hour)
	}

	app := crm.Appointment{
		Title: parsed.Title,
		Start: start,
		End:   end,
		Type:  crm.TypeMeeting,
	}

	// Attach a lead when the name matches one we know.
	if parsed.LeadName != "" {
		leads, err := st.ListLeads()
		if err == nil {
			for _, lead := range leads {
				if strings.EqualFold(lead.Name, parsed.LeadName) {
					app.LeadID = lead.ID
					app.LeadName = lead.Name
					break
				}
			}
		}
		if app.LeadID == "" {
			app.LeadName = parsed.LeadName
		}
	}

	created, err := st.CreateAppointment(app)
	if err != nil {
		fmt.Printf("Error saving appointment: %v\n", err)
		os.Exit(1)
	}

	if push := externalPush(cfg); push != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := push(ctx, created); err != nil {
			fmt.Printf("Warning: saved locally, calendar push failed: %v\n", err)
		}
	}

	fmt.Printf("Added: %s\n", created.Title)
	fmt.Printf("  %s - %s\n", created.Start.Format("Mon Jan 2 15:04"), created.End.Format("15:04"))
	if created.LeadName != "" {
		fmt.Printf("  with %s\n", created.LeadName)
	}
}
