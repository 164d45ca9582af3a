package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksmori/daicho/internal/models"
	"github.com/ksmori/daicho/internal/query"
)

func listCmd() *cobra.Command {
	var (
		search string
		status string
		rank   string
		sortBy string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List customers with search, filters and sorting",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			gw, _, eng, _, err := openLedger(logger)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}
			defer func() { _ = gw.Close() }()

			customers := eng.ListCustomers(query.CustomerListOptions{
				Query:  search,
				Status: models.CustomerStatus(status),
				Rank:   models.CustomerRank(rank),
				Sort:   query.SortKey(sortBy),
			})

			for i, c := range customers {
				fmt.Printf("[%d] [%s/%s] %s", i+1, c.Status, c.Rank, c.Name)
				if c.CompanyName != "" {
					fmt.Printf(" (%s)", c.CompanyName)
				}
				fmt.Println()
				fmt.Printf("    ID: %s", c.ID)
				if c.Phone != "" {
					fmt.Printf(" | Phone: %s", c.Phone)
				}
				if c.Email != "" {
					fmt.Printf(" | Email: %s", c.Email)
				}
				fmt.Println()
			}

			if len(customers) == 0 {
				fmt.Println("No customers found.")
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "query", "q", "", "match against name, company, email and phone")
	cmd.Flags().StringVar(&status, "status", "", "filter by status ("+validStatusesString()+")")
	cmd.Flags().StringVar(&rank, "rank", "", "filter by rank ("+validRanksString()+")")
	cmd.Flags().StringVar(&sortBy, "sort", "newest", "sort order (newest|oldest|name|company)")
	return cmd
}
