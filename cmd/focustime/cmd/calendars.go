package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexnederlof/gcal-focus-time-metrics/internal/gcal"
)

var calendarsCmd = &cobra.Command{
	Use:     "calendars",
	Aliases: []string{"cal", "cals"},
	Short:   "List available calendars",
	Long:    `List all calendars you have access to, including primary, shared, and subscribed calendars.`,
	RunE:    runCalendars,
}

func init() {
	rootCmd.AddCommand(calendarsCmd)
}

func runCalendars(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	httpClient, err := authedClient(ctx)
	if err != nil {
		return err
	}
	cal, err := gcal.NewClient(ctx, httpClient, logger)
	if err != nil {
		return err
	}

	calendars, err := cal.Calendars(ctx)
	if err != nil {
		return err
	}

	fmt.Println("📅 Available calendars:")
	fmt.Println("─────────────────────────────────────────────────")

	for _, c := range calendars {
		marker := ""
		if c.Primary {
			marker = " (primary)"
		}
		fmt.Printf("\n  • %s%s\n", c.Name, marker)
		fmt.Printf("    ID: %s\n", c.ID)
	}

	fmt.Println()
	fmt.Printf("Total: %d calendars\n", len(calendars))
	fmt.Println("\nTip: Use 'focustime -e <calendar id>' to analyze a specific calendar")

	return nil
}
