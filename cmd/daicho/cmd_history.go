package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksmori/daicho/internal/models"
	"github.com/ksmori/daicho/internal/query"
)

func historyCmd() *cobra.Command {
	var (
		search string
		itype  string
		period string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List interaction history, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			gw, _, eng, _, err := openLedger(logger)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			defer func() { _ = gw.Close() }()

			entries := eng.ListHistory(query.HistoryListOptions{
				Query:  search,
				Type:   models.InteractionType(itype),
				Period: query.PeriodFilter(period),
			})

			for i, entry := range entries {
				h := entry.Record
				fmt.Printf("[%d] %s [%s] %s: %s\n", i+1, h.Date.Format("2006-01-02"), h.Type.Label(), entry.CustomerName(), h.Subject)
				fmt.Printf("    ID: %s | %s\n", h.ID, truncate(h.Content, 100))
			}

			if len(entries) == 0 {
				fmt.Println("No interactions found.")
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "query", "q", "", "match against subject, content and customer name")
	cmd.Flags().StringVar(&itype, "type", "", "filter by interaction type ("+validTypesString()+")")
	cmd.Flags().StringVar(&period, "period", "", "restrict to a recent window (today|week|month)")
	return cmd
}
