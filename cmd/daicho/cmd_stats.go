package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show ledger statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			gw, _, eng, _, err := openLedger(logger)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			defer func() { _ = gw.Close() }()

			stats := eng.Statistics()

			fmt.Printf("Customers:          %d\n", stats.TotalCustomers)
			fmt.Printf("  active:           %d\n", stats.ActiveCustomers)
			fmt.Printf("Interactions:       %d\n", stats.TotalHistory)
			fmt.Printf("  this month:       %d\n", stats.MonthlyHistory)
			fmt.Printf("  today:            %d\n", stats.TodayCount)

			return nil
		},
	}
}
