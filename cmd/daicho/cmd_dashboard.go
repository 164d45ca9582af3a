package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksmori/daicho/internal/models"
)

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the dashboard: statistics and recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			gw, _, eng, _, err := openLedger(logger)
			if err != nil {
				return fmt.Errorf("dashboard: %w", err)
			}
			defer func() { _ = gw.Close() }()

			dash := eng.Dashboard()

			fmt.Printf("Customers: %d (%d active) | Interactions: %d (%d this month, %d today)\n\n",
				dash.Stats.TotalCustomers, dash.Stats.ActiveCustomers,
				dash.Stats.TotalHistory, dash.Stats.MonthlyHistory, dash.Stats.TodayCount)

			fmt.Println("Recent customers:")
			for _, c := range dash.RecentCustomers {
				fmt.Printf("  [%s] %s %s", models.Initials(c.Name), c.Name, c.ID)
				if c.CompanyName != "" {
					fmt.Printf(" (%s)", c.CompanyName)
				}
				fmt.Println()
			}
			if len(dash.RecentCustomers) == 0 {
				fmt.Println("  (none)")
			}

			fmt.Println("\nRecent interactions:")
			for _, entry := range dash.RecentHistory {
				h := entry.Record
				fmt.Printf("  %s [%s] %s: %s\n", h.Date.Format("2006-01-02"), h.Type.Label(), entry.CustomerName(), h.Subject)
			}
			if len(dash.RecentHistory) == 0 {
				fmt.Println("  (none)")
			}

			return nil
		},
	}
}
