package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"leadly/internal/ai"
	"leadly/internal/crm"
	"leadly/internal/noshow"
)

var statsWithAI bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Pipeline and appointment KPIs",
	Run: func(cmd *cobra.Command, args []string) {
		runStats()
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsWithAI, "insights", false, "ask the configured AI provider for a pipeline read")
}

func runStats() {
	cfg := loadConfig()
	st := openStore()

	leads, err := st.ListLeads()
	if err != nil {
		fmt.Printf("Error reading leads: %v\n", err)
		os.Exit(1)
	}

	board, err := noshow.Build(st)
	if err != nil {
		fmt.Printf("Error reading appointments: %v\n", err)
		os.Exit(1)
	}

	apps, err := st.Appointments()
	if err != nil {
		fmt.Printf("Error reading appointments: %v\n", err)
		os.Exit(1)
	}

	digest := ai.PipelineDigest{
		Leads:        len(leads),
		ByStage:      map[crm.LeadStatus]int{},
		Appointments: len(apps),
		NoShows:      board.Stats.Total,
		NoShowRate:   board.Stats.Rate,
	}
	for _, lead := range leads {
		digest.ByStage[lead.Status]++
		if lead.Status != crm.LeadWon && lead.Status != crm.LeadLost {
			digest.PipelineValue += lead.Value
		}
	}

	fmt.Printf("Leads:          %d\n", digest.Leads)
	for _, stage := range []crm.LeadStatus{crm.LeadNew, crm.LeadContacted, crm.LeadNegotiating, crm.LeadWon, crm.LeadLost} {
		if n := digest.ByStage[stage]; n > 0 {
			fmt.Printf("  %-12s  %d\n", stage, n)
		}
	}
	fmt.Printf("Open pipeline:  %.0f\n", digest.PipelineValue)
	fmt.Printf("Appointments:   %d\n", digest.Appointments)
	fmt.Printf("No-shows:       %d (%.0f%%)\n", digest.NoShows, digest.NoShowRate*100)
	fmt.Printf("Recovered:      %d\n", board.Stats.Recovered)
	fmt.Printf("Revenue at risk: %.0f\n", board.Stats.RevenueAtRisk)

	if !statsWithAI {
		return
	}

	client := ai.NewClient(cfg)
	if !client.Available() {
		fmt.Println()
		fmt.Println("No AI provider configured, skipping insights.")
		return
	}

	fmt.Println()
	fmt.Println("Asking", client.Provider(), "for a read...")
	out, err := client.Call(ai.InsightsPrompt(digest, cfg.Profile.BusinessName))
	if err != nil {
		fmt.Printf("Insights failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println()
	fmt.Println(out)
}
