package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [customer-id]",
		Short: "Show a customer and their interaction history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			gw, _, eng, _, err := openLedger(logger)
			if err != nil {
				return fmt.Errorf("show: %w", err)
			}
			defer func() { _ = gw.Close() }()

			c, err := eng.Customer(args[0])
			if err != nil {
				return fmt.Errorf("show: %w", err)
			}

			fmt.Printf("%s (%s)\n", c.Name, c.NameKana)
			fmt.Printf("  ID:      %s\n", c.ID)
			fmt.Printf("  Status:  %s (%s)\n", c.Status, c.Status.Label())
			fmt.Printf("  Rank:    %s\n", c.Rank)
			if c.CompanyName != "" {
				fmt.Printf("  Company: %s", c.CompanyName)
				if c.Department != "" {
					fmt.Printf(" / %s", c.Department)
				}
				if c.Position != "" {
					fmt.Printf(" / %s", c.Position)
				}
				fmt.Println()
			}
			if c.Phone != "" {
				fmt.Printf("  Phone:   %s\n", c.Phone)
			}
			if c.Mobile != "" {
				fmt.Printf("  Mobile:  %s\n", c.Mobile)
			}
			if c.Email != "" {
				fmt.Printf("  Email:   %s\n", c.Email)
			}
			if c.Address != "" {
				fmt.Printf("  Address: %s\n", c.Address)
			}
			if c.Notes != "" {
				fmt.Printf("  Notes:   %s\n", truncate(c.Notes, 200))
			}
			fmt.Printf("  Created: %s | Updated: %s\n",
				c.CreatedAt.Format("2006-01-02 15:04"), c.UpdatedAt.Format("2006-01-02 15:04"))

			records := eng.HistoryForCustomer(c.ID)
			fmt.Printf("\nInteractions (%d):\n", len(records))
			for _, h := range records {
				fmt.Printf("  %s [%s] %s\n", h.Date.Format("2006-01-02"), h.Type.Label(), h.Subject)
				fmt.Printf("    ID: %s | %s\n", h.ID, truncate(h.Content, 100))
				if h.Result != "" {
					fmt.Printf("    Result: %s\n", truncate(h.Result, 100))
				}
			}
			if len(records) == 0 {
				fmt.Println("  (none)")
			}

			return nil
		},
	}
	return cmd
}
