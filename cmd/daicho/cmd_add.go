package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksmori/daicho/internal/crm"
	"github.com/ksmori/daicho/internal/models"
)

func addCmd() *cobra.Command {
	var in crm.CustomerInput
	var status, rank string

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Register a new customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			in.Name = args[0]
			in.Status = models.CustomerStatus(status)
			in.Rank = models.CustomerRank(rank)

			gw, _, _, svc, err := openLedger(logger)
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}
			defer func() { _ = gw.Close() }()

			customer, err := svc.CreateCustomer(in)
			if err != nil {
				if syncErr := reportSync(err); syncErr != nil {
					return fmt.Errorf("add: %w", syncErr)
				}
			}

			fmt.Printf("Registered customer %s [%s/%s] %s\n", customer.ID, customer.Status, customer.Rank, customer.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.NameKana, "kana", "", "name reading (フリガナ)")
	cmd.Flags().StringVar(&in.CompanyName, "company", "", "company name")
	cmd.Flags().StringVar(&in.Department, "department", "", "department")
	cmd.Flags().StringVar(&in.Position, "position", "", "job position")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "primary phone number")
	cmd.Flags().StringVar(&in.Mobile, "mobile", "", "mobile phone number")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Address, "address", "", "full address")
	cmd.Flags().StringVar(&status, "status", "active", "status ("+validStatusesString()+")")
	cmd.Flags().StringVar(&rank, "rank", "B", "rank ("+validRanksString()+")")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "additional notes")
	return cmd
}

func validStatusesString() string {
	statuses := make([]string, len(models.ValidCustomerStatuses))
	for i, s := range models.ValidCustomerStatuses {
		statuses[i] = string(s)
	}
	return strings.Join(statuses, "|")
}

func validRanksString() string {
	ranks := make([]string, len(models.ValidCustomerRanks))
	for i, r := range models.ValidCustomerRanks {
		ranks[i] = string(r)
	}
	return strings.Join(ranks, "|")
}

func validTypesString() string {
	types := make([]string, len(models.ValidInteractionTypes))
	for i, t := range models.ValidInteractionTypes {
		types[i] = string(t)
	}
	return strings.Join(types, "|")
}
